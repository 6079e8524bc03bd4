package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"pix-link-gateway/internal/core/domain"
)

//go:generate mockgen -source=repositories.go -destination=mocks/repositories_mock.go -package=mocks

// LinkListParams filters and paginates a merchant's payment links.
type LinkListParams struct {
	MerchantID uuid.UUID
	Status     *domain.LinkStatus
	Limit      int
	Offset     int
}

// SettlementFields carries the payment details recorded alongside a
// transition to paid. All fields are optional.
type SettlementFields struct {
	PaymentTransactionID *string
	PaymentMethod        *string
	PayerConfirmedEmail  *string
	PaidAt               *time.Time
}

// LinkRepository is the single mutation entry point for payment links.
type LinkRepository interface {
	Create(ctx context.Context, link *domain.PaymentLink) error
	// GetByID scopes the lookup to the owning merchant. Returns (nil, nil)
	// when no row matches.
	GetByID(ctx context.Context, id, merchantID uuid.UUID) (*domain.PaymentLink, error)
	List(ctx context.Context, params LinkListParams) ([]domain.PaymentLink, int64, error)
	// UpdateStatus persists a status change. settlement is non-nil only for
	// transitions to paid.
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.LinkStatus, settlement *SettlementFields) error
	// AttachPaymentTransaction stores the gateway payment id on first sight,
	// so later notifications can resolve the link directly.
	AttachPaymentTransaction(ctx context.Context, id uuid.UUID, paymentTransactionID string) error

	// Reconciliation lookups. All return (nil, nil) when no row matches.
	FindByPaymentTransactionID(ctx context.Context, paymentTransactionID string) (*domain.PaymentLink, error)
	FindByExternalReference(ctx context.Context, externalReference string) (*domain.PaymentLink, error)
	FindByGatewayPreferenceID(ctx context.Context, preferenceID string) (*domain.PaymentLink, error)

	// Dashboard aggregates.
	CountAll(ctx context.Context, merchantID uuid.UUID) (int64, error)
	CountByStatus(ctx context.Context, merchantID uuid.UUID, status domain.LinkStatus) (int64, error)
	CountCreatedSince(ctx context.Context, merchantID uuid.UUID, since time.Time) (int64, error)
}

// NotificationRepository persists the append-only webhook audit trail.
type NotificationRepository interface {
	Create(ctx context.Context, n *domain.WebhookNotification) error
	ListByLink(ctx context.Context, linkID uuid.UUID) ([]domain.WebhookNotification, error)
}

// MerchantRepository manages merchant accounts.
type MerchantRepository interface {
	Create(ctx context.Context, m *domain.Merchant) error
	// GetByID returns (nil, nil) when no row matches.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Merchant, error)
	// GetByEmail returns (nil, nil) when no row matches.
	GetByEmail(ctx context.Context, email string) (*domain.Merchant, error)
	UpdateCredentials(ctx context.Context, id uuid.UUID, accessTokenEnc, publicKey string) error
}
