package dto

import (
	"time"

	"pix-link-gateway/internal/core/domain"
)

// RegisterRequest is the merchant signup payload. Gateway credentials are
// optional here and can be supplied later.
type RegisterRequest struct {
	Name          string `json:"name" binding:"required,min=2,max=100"`
	Email         string `json:"email" binding:"required,email"`
	Password      string `json:"password" binding:"required,min=8,max=72"`
	StoreName     string `json:"store_name" binding:"required,min=2,max=100"`
	MPAccessToken string `json:"mp_access_token" binding:"omitempty,min=10"`
	MPPublicKey   string `json:"mp_public_key" binding:"omitempty,min=10"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// CreateLinkRequest is the payment-link creation payload. CPF may come
// formatted (000.000.000-00) or as bare digits.
type CreateLinkRequest struct {
	Title         string  `json:"title" binding:"required,min=1,max=200"`
	Amount        float64 `json:"amount" binding:"required,gt=0"`
	CustomerEmail string  `json:"customer_email" binding:"required,email"`
	CustomerName  string  `json:"customer_name" binding:"required,min=2,max=100"`
	CustomerCPF   string  `json:"customer_cpf" binding:"omitempty,cpf"`
}

type ListLinksQuery struct {
	Status string `form:"status" binding:"omitempty,oneof=pending paid expired cancelled"`
	Limit  int    `form:"limit,default=20" binding:"omitempty,min=1,max=100"`
	Offset int    `form:"offset" binding:"omitempty,min=0"`
}

type MerchantResponse struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	Email             string `json:"email"`
	StoreName         string `json:"store_name"`
	GatewayConfigured bool   `json:"gateway_configured"`
	CreatedAt         string `json:"created_at"`
}

type AuthResponse struct {
	Merchant  MerchantResponse `json:"merchant"`
	Token     string           `json:"token"`
	ExpiresAt string           `json:"expires_at"`
}

type LinkResponse struct {
	ID                string  `json:"id"`
	Status            string  `json:"status"`
	Title             string  `json:"title"`
	Amount            string  `json:"amount"`
	PaymentURL        string  `json:"payment_url"`
	SandboxPaymentURL string  `json:"sandbox_payment_url,omitempty"`
	ExternalReference string  `json:"external_reference"`
	CustomerEmail     string  `json:"customer_email"`
	CustomerName      string  `json:"customer_name"`
	PaymentMethod     *string `json:"payment_method,omitempty"`
	ExpiresAt         string  `json:"expires_at"`
	CreatedAt         string  `json:"created_at"`
	PaidAt            *string `json:"paid_at,omitempty"`
}

type Pagination struct {
	Total   int64 `json:"total"`
	Limit   int   `json:"limit"`
	Offset  int   `json:"offset"`
	HasMore bool  `json:"has_more"`
}

type ListLinksResponse struct {
	Links      []LinkResponse `json:"links"`
	Pagination Pagination     `json:"pagination"`
}

// NewMerchantResponse maps a merchant for API output. Credentials never
// leave the server; only their presence is reported.
func NewMerchantResponse(m *domain.Merchant) MerchantResponse {
	return MerchantResponse{
		ID:                m.ID.String(),
		Name:              m.Name,
		Email:             m.Email,
		StoreName:         m.StoreName,
		GatewayConfigured: m.HasGatewayCredentials(),
		CreatedAt:         m.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func NewLinkResponse(link *domain.PaymentLink) LinkResponse {
	resp := LinkResponse{
		ID:                link.ID.String(),
		Status:            string(link.Status),
		Title:             link.Description,
		Amount:            link.Amount.StringFixed(2),
		PaymentURL:        link.PaymentURL,
		SandboxPaymentURL: link.SandboxPaymentURL,
		ExternalReference: link.ExternalReference,
		CustomerEmail:     link.PayerEmail,
		CustomerName:      link.PayerName,
		PaymentMethod:     link.PaymentMethod,
		ExpiresAt:         link.ExpiresAt.UTC().Format(time.RFC3339),
		CreatedAt:         link.CreatedAt.UTC().Format(time.RFC3339),
	}
	if link.PaidAt != nil {
		paidAt := link.PaidAt.UTC().Format(time.RFC3339)
		resp.PaidAt = &paidAt
	}
	return resp
}

func NewListLinksResponse(links []domain.PaymentLink, total int64, limit, offset int) ListLinksResponse {
	out := make([]LinkResponse, 0, len(links))
	for i := range links {
		out = append(out, NewLinkResponse(&links[i]))
	}
	return ListLinksResponse{
		Links: out,
		Pagination: Pagination{
			Total:   total,
			Limit:   limit,
			Offset:  offset,
			HasMore: int64(offset+len(links)) < total,
		},
	}
}
