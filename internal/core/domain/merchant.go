package domain

import (
	"time"

	"github.com/google/uuid"
)

// Merchant represents a registered merchant account.
type Merchant struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	PasswordHash   string    `json:"-"` // Never expose
	StoreName      string    `json:"store_name"`
	AccessTokenEnc *string   `json:"-"` // AES-encrypted gateway access token
	PublicKey      *string   `json:"public_key,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// HasGatewayCredentials returns true once a Mercado Pago access token is stored.
func (m *Merchant) HasGatewayCredentials() bool {
	return m.AccessTokenEnc != nil && *m.AccessTokenEnc != ""
}
