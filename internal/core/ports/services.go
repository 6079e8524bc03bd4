package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"pix-link-gateway/internal/core/domain"
)

//go:generate mockgen -source=services.go -destination=mocks/services_mock.go -package=mocks

// GatewayCreateLink is the request to provision a checkout preference.
type GatewayCreateLink struct {
	Title             string
	Amount            decimal.Decimal
	PayerEmail        string
	PayerName         string
	PayerTaxID        string // CPF digits, empty when the payer gave none
	ExternalReference string
	ExpiresAt         time.Time
}

// GatewayPreference is the provisioned checkout returned by the gateway.
type GatewayPreference struct {
	ID               string
	InitPoint        string
	SandboxInitPoint string
}

// GatewayPayment is the authoritative payment state fetched from the gateway.
type GatewayPayment struct {
	ID                string
	Status            string
	StatusDetail      string
	PaymentMethodID   string
	TransactionAmount decimal.Decimal
	PayerEmail        string
	ExternalReference string
	DateApproved      *time.Time
}

// GatewayClient talks to the Mercado Pago API on behalf of a merchant,
// using that merchant's decrypted access token.
type GatewayClient interface {
	CreateLink(ctx context.Context, accessToken string, req GatewayCreateLink) (*GatewayPreference, error)
	GetPaymentStatus(ctx context.Context, accessToken, paymentID string) (*GatewayPayment, error)
}

// EncryptionService encrypts and decrypts gateway credentials at rest.
type EncryptionService interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

// HashService hashes and verifies merchant passwords.
type HashService interface {
	Hash(password string) (string, error)
	Verify(password, hash string) (bool, error)
}

// TokenClaims are the authenticated identity carried in a JWT.
type TokenClaims struct {
	MerchantID uuid.UUID
	Email      string
}

// TokenService issues and validates merchant JWTs.
type TokenService interface {
	Generate(merchantID uuid.UUID, email string) (string, time.Time, error)
	Validate(token string) (*TokenClaims, error)
}

// RegisterInput holds the fields for merchant signup. The gateway
// credentials are optional at registration time.
type RegisterInput struct {
	Name          string
	Email         string
	Password      string
	StoreName     string
	MPAccessToken string
	MPPublicKey   string
}

// AuthResult is a signed session for a merchant.
type AuthResult struct {
	Merchant  *domain.Merchant
	Token     string
	ExpiresAt time.Time
}

// AuthService manages merchant accounts and sessions.
type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*AuthResult, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	Profile(ctx context.Context, merchantID uuid.UUID) (*domain.Merchant, error)
}

// CreateLinkInput holds the validated fields for issuing a payment link.
type CreateLinkInput struct {
	Description string
	Amount      decimal.Decimal
	PayerEmail  string
	PayerName   string
	PayerTaxID  string // CPF digits, optional
}

// LinkStats are the dashboard aggregates for one merchant.
type LinkStats struct {
	Total        int64 `json:"total"`
	Paid         int64 `json:"paid"`
	CreatedToday int64 `json:"today"`
}

// LinkService owns the payment-link lifecycle.
type LinkService interface {
	Create(ctx context.Context, merchantID uuid.UUID, in CreateLinkInput) (*domain.PaymentLink, error)
	// Get applies lazy expiration before returning the link.
	Get(ctx context.Context, merchantID, id uuid.UUID) (*domain.PaymentLink, error)
	// List applies lazy expiration to every pending link in the page.
	List(ctx context.Context, params LinkListParams) ([]domain.PaymentLink, int64, error)
	Cancel(ctx context.Context, merchantID, id uuid.UUID) (*domain.PaymentLink, error)
	// CheckStatus re-queries the gateway for the authoritative payment state
	// and applies any resulting transition.
	CheckStatus(ctx context.Context, merchantID, id uuid.UUID) (*domain.PaymentLink, error)
	Stats(ctx context.Context, merchantID uuid.UUID) (*LinkStats, error)
}

// WebhookReconciler processes raw gateway notifications. Process returns an
// error for observability only; the HTTP layer acknowledges regardless.
type WebhookReconciler interface {
	Process(ctx context.Context, raw []byte) error
}

// Channel is a registered dashboard subscription. C is closed on Unregister.
type Channel struct {
	ID uint64
	C  <-chan domain.Event
}

// NotifierStats describes the current subscription registry.
type NotifierStats struct {
	Merchants   int            `json:"merchants"`
	Channels    int            `json:"channels"`
	PerMerchant map[string]int `json:"per_merchant,omitempty"`
}

// Notifier fans realtime events out to a merchant's open dashboard channels.
// Publish never blocks; channels that cannot keep up are dropped.
type Notifier interface {
	Register(merchantID uuid.UUID) *Channel
	Unregister(merchantID uuid.UUID, channelID uint64)
	Publish(merchantID uuid.UUID, name string, payload interface{})
	// Heartbeat delivers a keepalive to one channel, pruning it when dead.
	Heartbeat(merchantID uuid.UUID, channelID uint64)
	Stats() NotifierStats
}

// NotificationGuard deduplicates webhook deliveries by notification id.
// A degraded store must fail open: reprocessing is safe, dropping is not.
type NotificationGuard interface {
	// CheckAndMark returns true if this notification id was seen before.
	CheckAndMark(ctx context.Context, notificationID string) (bool, error)
}

// RateLimitStore counts requests in fixed windows.
type RateLimitStore interface {
	// Increment bumps the counter for key and returns the new count. The
	// window TTL is set when the counter is created.
	Increment(ctx context.Context, key string, window time.Duration) (int64, error)
}

// HealthChecker reports readiness of a dependency.
type HealthChecker interface {
	Name() string
	Check(ctx context.Context) error
}
