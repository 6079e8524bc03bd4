package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"pix-link-gateway/internal/core/domain"
	"pix-link-gateway/internal/core/ports"
	"pix-link-gateway/pkg/apperror"
)

type linkService struct {
	links     ports.LinkRepository
	merchants ports.MerchantRepository
	gateway   ports.GatewayClient
	enc       ports.EncryptionService
	notifier  ports.Notifier
	validity  time.Duration
	maxAmount decimal.Decimal
	log       zerolog.Logger
	now       func() time.Time
}

// NewLinkService builds the payment-link lifecycle service.
func NewLinkService(
	links ports.LinkRepository,
	merchants ports.MerchantRepository,
	gateway ports.GatewayClient,
	enc ports.EncryptionService,
	notifier ports.Notifier,
	validity time.Duration,
	maxAmount float64,
	log zerolog.Logger,
) ports.LinkService {
	return &linkService{
		links:     links,
		merchants: merchants,
		gateway:   gateway,
		enc:       enc,
		notifier:  notifier,
		validity:  validity,
		maxAmount: decimal.NewFromFloat(maxAmount),
		log:       log.With().Str("component", "link_service").Logger(),
		now:       time.Now,
	}
}

func (s *linkService) Create(ctx context.Context, merchantID uuid.UUID, in ports.CreateLinkInput) (*domain.PaymentLink, error) {
	if in.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, apperror.Validation("Amount must be greater than zero")
	}
	if in.Amount.GreaterThan(s.maxAmount) {
		return nil, apperror.Validation(fmt.Sprintf("Amount must not exceed %s", s.maxAmount.StringFixed(2)))
	}

	merchant, err := s.merchants.GetByID(ctx, merchantID)
	if err != nil {
		return nil, apperror.InternalError(err)
	}
	if merchant == nil {
		return nil, apperror.ErrNotFound("Merchant")
	}
	if !merchant.HasGatewayCredentials() {
		return nil, apperror.ErrCredentialsNotConfigured()
	}

	accessToken, err := s.enc.Decrypt(*merchant.AccessTokenEnc)
	if err != nil {
		return nil, apperror.InternalError(err)
	}

	id := uuid.New()
	nowTime := s.now()
	expiresAt := nowTime.Add(s.validity)

	pref, err := s.gateway.CreateLink(ctx, accessToken, ports.GatewayCreateLink{
		Title:             in.Description,
		Amount:            in.Amount,
		PayerEmail:        in.PayerEmail,
		PayerName:         in.PayerName,
		PayerTaxID:        in.PayerTaxID,
		ExternalReference: id.String(),
		ExpiresAt:         expiresAt,
	})
	if err != nil {
		return nil, err
	}

	link := &domain.PaymentLink{
		ID:                  id,
		MerchantID:          merchantID,
		Description:         in.Description,
		Amount:              in.Amount,
		Status:              domain.LinkStatusPending,
		ExternalReference:   id.String(),
		GatewayPreferenceID: pref.ID,
		PaymentURL:          pref.InitPoint,
		SandboxPaymentURL:   pref.SandboxInitPoint,
		PayerEmail:          in.PayerEmail,
		PayerName:           in.PayerName,
		ExpiresAt:           expiresAt,
		CreatedAt:           nowTime,
	}
	if in.PayerTaxID != "" {
		taxID := in.PayerTaxID
		link.PayerTaxID = &taxID
	}

	if err := s.links.Create(ctx, link); err != nil {
		return nil, apperror.InternalError(err)
	}

	s.log.Info().
		Str("link_id", link.ID.String()).
		Str("merchant_id", merchantID.String()).
		Str("amount", link.Amount.StringFixed(2)).
		Msg("payment link created")

	return link, nil
}

func (s *linkService) Get(ctx context.Context, merchantID, id uuid.UUID) (*domain.PaymentLink, error) {
	link, err := s.links.GetByID(ctx, id, merchantID)
	if err != nil {
		return nil, apperror.InternalError(err)
	}
	if link == nil {
		return nil, apperror.ErrNotFound("Payment link")
	}

	s.expireIfDue(ctx, link)
	return link, nil
}

func (s *linkService) List(ctx context.Context, params ports.LinkListParams) ([]domain.PaymentLink, int64, error) {
	links, total, err := s.links.List(ctx, params)
	if err != nil {
		return nil, 0, apperror.InternalError(err)
	}

	for i := range links {
		s.expireIfDue(ctx, &links[i])
	}
	return links, total, nil
}

func (s *linkService) Cancel(ctx context.Context, merchantID, id uuid.UUID) (*domain.PaymentLink, error) {
	link, err := s.Get(ctx, merchantID, id)
	if err != nil {
		return nil, err
	}

	if !link.CanTransitionTo(domain.LinkStatusCancelled) {
		return nil, apperror.ErrInvalidTransition(string(link.Status))
	}

	if err := s.links.UpdateStatus(ctx, link.ID, domain.LinkStatusCancelled, nil); err != nil {
		return nil, apperror.InternalError(err)
	}
	link.Status = domain.LinkStatusCancelled

	s.notifier.Publish(merchantID, domain.EventPaymentUpdate, linkEventPayload(link))

	s.log.Info().Str("link_id", link.ID.String()).Msg("payment link cancelled")
	return link, nil
}

func (s *linkService) CheckStatus(ctx context.Context, merchantID, id uuid.UUID) (*domain.PaymentLink, error) {
	link, err := s.Get(ctx, merchantID, id)
	if err != nil {
		return nil, err
	}

	// Nothing to reconcile before the gateway reports a payment attempt.
	if link.PaymentTransactionID == nil {
		return link, nil
	}

	merchant, err := s.merchants.GetByID(ctx, merchantID)
	if err != nil {
		return nil, apperror.InternalError(err)
	}
	if merchant == nil || !merchant.HasGatewayCredentials() {
		return nil, apperror.ErrCredentialsNotConfigured()
	}

	accessToken, err := s.enc.Decrypt(*merchant.AccessTokenEnc)
	if err != nil {
		return nil, apperror.InternalError(err)
	}

	payment, err := s.gateway.GetPaymentStatus(ctx, accessToken, *link.PaymentTransactionID)
	if err != nil {
		return nil, err
	}

	if _, err := applyGatewayPayment(ctx, s.links, link, payment, s.now()); err != nil {
		return nil, apperror.InternalError(err)
	}
	return link, nil
}

func (s *linkService) Stats(ctx context.Context, merchantID uuid.UUID) (*ports.LinkStats, error) {
	total, err := s.links.CountAll(ctx, merchantID)
	if err != nil {
		return nil, apperror.InternalError(err)
	}
	paid, err := s.links.CountByStatus(ctx, merchantID, domain.LinkStatusPaid)
	if err != nil {
		return nil, apperror.InternalError(err)
	}

	midnight := s.now().UTC().Truncate(24 * time.Hour)
	createdToday, err := s.links.CountCreatedSince(ctx, merchantID, midnight)
	if err != nil {
		return nil, apperror.InternalError(err)
	}

	return &ports.LinkStats{Total: total, Paid: paid, CreatedToday: createdToday}, nil
}

// expireIfDue applies lazy expiration: a pending link past its window is
// flipped to expired the first time anything reads it. Failures only log;
// the read result still reflects the expired state the caller must see.
func (s *linkService) expireIfDue(ctx context.Context, link *domain.PaymentLink) {
	if !link.IsExpired(s.now()) {
		return
	}

	if err := s.links.UpdateStatus(ctx, link.ID, domain.LinkStatusExpired, nil); err != nil {
		s.log.Warn().Err(err).Str("link_id", link.ID.String()).Msg("could not persist lazy expiration")
	}
	link.Status = domain.LinkStatusExpired
	s.notifier.Publish(link.MerchantID, domain.EventPaymentUpdate, linkEventPayload(link))
}

// applyGatewayPayment maps the authoritative gateway state onto the link and
// persists the transition when the state machine allows one. It mutates link
// in place and reports whether a transition happened. Unknown gateway
// statuses and illegal transitions are silent no-ops.
func applyGatewayPayment(ctx context.Context, repo ports.LinkRepository, link *domain.PaymentLink, payment *ports.GatewayPayment, now time.Time) (bool, error) {
	target, known := domain.FromGatewayStatus(payment.Status)
	if !known || target == link.Status {
		return false, nil
	}
	if !link.CanTransitionTo(target) {
		return false, nil
	}

	var settlement *ports.SettlementFields
	if target == domain.LinkStatusPaid {
		paidAt := now
		if payment.DateApproved != nil {
			paidAt = *payment.DateApproved
		}
		settlement = &ports.SettlementFields{
			PaymentTransactionID: &payment.ID,
			PaidAt:               &paidAt,
		}
		if payment.PaymentMethodID != "" {
			settlement.PaymentMethod = &payment.PaymentMethodID
		}
		if payment.PayerEmail != "" {
			settlement.PayerConfirmedEmail = &payment.PayerEmail
		}
	}

	if err := repo.UpdateStatus(ctx, link.ID, target, settlement); err != nil {
		return false, err
	}

	link.Status = target
	if settlement != nil {
		link.PaymentTransactionID = settlement.PaymentTransactionID
		link.PaymentMethod = settlement.PaymentMethod
		link.PayerConfirmedEmail = settlement.PayerConfirmedEmail
		link.PaidAt = settlement.PaidAt
	}
	return true, nil
}

// linkEventPayload is the wire shape pushed over the realtime stream.
func linkEventPayload(link *domain.PaymentLink) map[string]interface{} {
	payload := map[string]interface{}{
		"link_id":     link.ID.String(),
		"status":      string(link.Status),
		"amount":      link.Amount.StringFixed(2),
		"description": link.Description,
	}
	if link.PaidAt != nil {
		payload["paid_at"] = link.PaidAt.UTC().Format(time.RFC3339)
	}
	return payload
}
