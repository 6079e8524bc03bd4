package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LinkStatus represents the lifecycle state of a payment link.
type LinkStatus string

const (
	LinkStatusPending   LinkStatus = "pending"
	LinkStatusPaid      LinkStatus = "paid"
	LinkStatusExpired   LinkStatus = "expired"
	LinkStatusCancelled LinkStatus = "cancelled"
)

// Raw payment states reported by the Mercado Pago API.
const (
	GatewayStatusApproved  = "approved"
	GatewayStatusPending   = "pending"
	GatewayStatusInProcess = "in_process"
	GatewayStatusRejected  = "rejected"
	GatewayStatusCancelled = "cancelled"
)

// PaymentLink is a merchant-issued request for a specific payment amount,
// exposed to the payer as a checkout URL.
type PaymentLink struct {
	ID                   uuid.UUID       `json:"id"`
	MerchantID           uuid.UUID       `json:"merchant_id"`
	Description          string          `json:"description"`
	Amount               decimal.Decimal `json:"amount"`
	Status               LinkStatus      `json:"status"`
	ExternalReference    string          `json:"external_reference"`
	GatewayPreferenceID  string          `json:"gateway_preference_id"`
	PaymentURL           string          `json:"payment_url"`
	SandboxPaymentURL    string          `json:"sandbox_payment_url,omitempty"`
	PaymentTransactionID *string         `json:"payment_transaction_id,omitempty"`
	PayerEmail           string          `json:"payer_email"`
	PayerName            string          `json:"payer_name"`
	PayerTaxID           *string         `json:"payer_tax_id,omitempty"`
	PaymentMethod        *string         `json:"payment_method,omitempty"`
	PayerConfirmedEmail  *string         `json:"payer_confirmed_email,omitempty"`
	ExpiresAt            time.Time       `json:"expires_at"`
	CreatedAt            time.Time       `json:"created_at"`
	PaidAt               *time.Time      `json:"paid_at,omitempty"`
}

// IsTerminal returns true if the link is in a final state.
func (l *PaymentLink) IsTerminal() bool {
	return l.Status == LinkStatusPaid ||
		l.Status == LinkStatusExpired ||
		l.Status == LinkStatusCancelled
}

// CanTransitionTo reports whether the state machine permits moving to target.
// The only legal edges are pending -> {paid, expired, cancelled}.
func (l *PaymentLink) CanTransitionTo(target LinkStatus) bool {
	if l.Status != LinkStatusPending {
		return false
	}
	return target == LinkStatusPaid || target == LinkStatusExpired || target == LinkStatusCancelled
}

// IsExpired reports whether a pending link has outlived its validity window.
// Terminal links are never considered expired by this check.
func (l *PaymentLink) IsExpired(now time.Time) bool {
	return l.Status == LinkStatusPending && now.After(l.ExpiresAt)
}

// FromGatewayStatus maps a raw gateway payment status to the internal link
// status. The second return value is false for statuses this system does not
// act on.
func FromGatewayStatus(status string) (LinkStatus, bool) {
	switch status {
	case GatewayStatusApproved:
		return LinkStatusPaid, true
	case GatewayStatusPending, GatewayStatusInProcess:
		return LinkStatusPending, true
	case GatewayStatusRejected, GatewayStatusCancelled:
		return LinkStatusCancelled, true
	}
	return "", false
}

// ValidLinkStatus reports whether s is one of the four known link statuses.
func ValidLinkStatus(s string) bool {
	switch LinkStatus(s) {
	case LinkStatusPending, LinkStatusPaid, LinkStatusExpired, LinkStatusCancelled:
		return true
	}
	return false
}
