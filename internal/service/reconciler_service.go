package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"pix-link-gateway/internal/core/domain"
	"pix-link-gateway/internal/core/ports"
)

// webhookPayload is the gateway notification envelope. Mercado Pago sends
// numeric ids for some notification kinds and quoted strings for others, so
// id fields stay raw until normalized.
type webhookPayload struct {
	ID     json.RawMessage `json:"id"`
	Type   string          `json:"type"`
	Topic  string          `json:"topic"`
	Action string          `json:"action"`
	Data   struct {
		ID json.RawMessage `json:"id"`
	} `json:"data"`
	ExternalReference string `json:"external_reference"`
}

type reconcilerService struct {
	links     ports.LinkRepository
	notes     ports.NotificationRepository
	merchants ports.MerchantRepository
	gateway   ports.GatewayClient
	enc       ports.EncryptionService
	notifier  ports.Notifier
	guard     ports.NotificationGuard
	log       zerolog.Logger
	now       func() time.Time
}

// NewReconciler builds the webhook reconciliation service. It treats the
// notification payload as a hint only: the link status applied always comes
// from re-querying the gateway.
func NewReconciler(
	links ports.LinkRepository,
	notes ports.NotificationRepository,
	merchants ports.MerchantRepository,
	gateway ports.GatewayClient,
	enc ports.EncryptionService,
	notifier ports.Notifier,
	guard ports.NotificationGuard,
	log zerolog.Logger,
) ports.WebhookReconciler {
	return &reconcilerService{
		links:     links,
		notes:     notes,
		merchants: merchants,
		gateway:   gateway,
		enc:       enc,
		notifier:  notifier,
		guard:     guard,
		log:       log.With().Str("component", "reconciler").Logger(),
		now:       time.Now,
	}
}

// Process handles one raw notification. Every failure path returns an error
// for logging and metrics only; the transport acknowledges regardless, since
// the gateway retries on non-2xx and retries of a poison payload change
// nothing.
func (s *reconcilerService) Process(ctx context.Context, raw []byte) error {
	var payload webhookPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		s.log.Warn().Err(err).Msg("unparseable webhook payload")
		return fmt.Errorf("parsing webhook payload: %w", err)
	}

	kind := payload.Type
	if kind == "" {
		kind = payload.Topic
	}
	if kind != "payment" {
		// merchant_order and the rest carry nothing this system acts on.
		s.log.Debug().Str("type", kind).Msg("ignoring non-payment notification")
		return nil
	}

	notificationID := normalizeID(payload.ID)
	if notificationID != "" {
		seen, err := s.guard.CheckAndMark(ctx, notificationID)
		if err != nil {
			// Degraded guard fails open: reprocessing is idempotent.
			s.log.Warn().Err(err).Msg("notification guard unavailable")
		} else if seen {
			s.log.Info().Str("notification_id", notificationID).Msg("duplicate notification skipped")
			return nil
		}
	}

	paymentID := normalizeID(payload.Data.ID)
	if paymentID == "" {
		s.log.Warn().Msg("payment notification without data.id")
		return fmt.Errorf("payment notification without data.id")
	}

	link, err := s.resolveLink(ctx, paymentID, payload.ExternalReference)
	if err != nil {
		return fmt.Errorf("resolving link: %w", err)
	}
	if link == nil {
		s.log.Warn().
			Str("payment_id", paymentID).
			Str("external_reference", payload.ExternalReference).
			Msg("notification did not match any link")
		return nil
	}

	payment, err := s.fetchPayment(ctx, link.MerchantID, paymentID)
	if err != nil {
		s.log.Error().Err(err).
			Str("link_id", link.ID.String()).
			Str("payment_id", paymentID).
			Msg("could not fetch authoritative payment state")
		return err
	}

	// Remember the payment id so later notifications resolve directly.
	if link.PaymentTransactionID == nil {
		if err := s.links.AttachPaymentTransaction(ctx, link.ID, payment.ID); err != nil {
			s.log.Warn().Err(err).Str("link_id", link.ID.String()).Msg("could not attach payment id")
		} else {
			pid := payment.ID
			link.PaymentTransactionID = &pid
		}
	}

	changed, err := applyGatewayPayment(ctx, s.links, link, payment, s.now())
	if err != nil {
		return fmt.Errorf("applying transition: %w", err)
	}
	if !changed {
		s.log.Debug().
			Str("link_id", link.ID.String()).
			Str("gateway_status", payment.Status).
			Msg("notification caused no transition")
		return nil
	}

	note := &domain.WebhookNotification{
		ID:                    uuid.New(),
		LinkID:                &link.ID,
		GatewayNotificationID: notificationID,
		ReportedStatus:        payment.Status,
		RawPayload:            raw,
		ReceivedAt:            s.now(),
	}
	if err := s.notes.Create(ctx, note); err != nil {
		s.log.Warn().Err(err).Str("link_id", link.ID.String()).Msg("could not record notification audit row")
	}

	s.notifier.Publish(link.MerchantID, domain.EventPaymentUpdate, linkEventPayload(link))
	if link.Status == domain.LinkStatusPaid {
		s.notifier.Publish(link.MerchantID, domain.EventPaymentCompleted, linkEventPayload(link))
	}

	s.log.Info().
		Str("link_id", link.ID.String()).
		Str("status", string(link.Status)).
		Str("payment_id", payment.ID).
		Msg("link transitioned from webhook")
	return nil
}

// resolveLink walks the lookup cascade. The gateway is inconsistent about
// which identifier a notification carries, so the id is tried against every
// correlation field in a fixed order; first match wins. Returns (nil, nil)
// when nothing matches.
func (s *reconcilerService) resolveLink(ctx context.Context, paymentID, externalReference string) (*domain.PaymentLink, error) {
	lookups := []func() (*domain.PaymentLink, error){
		func() (*domain.PaymentLink, error) { return s.links.FindByPaymentTransactionID(ctx, paymentID) },
		func() (*domain.PaymentLink, error) { return s.links.FindByExternalReference(ctx, paymentID) },
		func() (*domain.PaymentLink, error) {
			if externalReference == "" {
				return nil, nil
			}
			return s.links.FindByExternalReference(ctx, externalReference)
		},
		func() (*domain.PaymentLink, error) { return s.links.FindByGatewayPreferenceID(ctx, paymentID) },
	}

	for _, lookup := range lookups {
		link, err := lookup()
		if err != nil {
			return nil, err
		}
		if link != nil {
			return link, nil
		}
	}
	return nil, nil
}

func (s *reconcilerService) fetchPayment(ctx context.Context, merchantID uuid.UUID, paymentID string) (*ports.GatewayPayment, error) {
	merchant, err := s.merchants.GetByID(ctx, merchantID)
	if err != nil {
		return nil, err
	}
	if merchant == nil || !merchant.HasGatewayCredentials() {
		return nil, fmt.Errorf("merchant %s has no gateway credentials", merchantID)
	}

	accessToken, err := s.enc.Decrypt(*merchant.AccessTokenEnc)
	if err != nil {
		return nil, err
	}

	return s.gateway.GetPaymentStatus(ctx, accessToken, paymentID)
}

// normalizeID renders a raw JSON id (number or quoted string) as a plain
// string. Returns "" for absent or null ids.
func normalizeID(raw json.RawMessage) string {
	s := strings.TrimSpace(string(raw))
	s = strings.Trim(s, `"`)
	if s == "null" {
		return ""
	}
	return s
}
