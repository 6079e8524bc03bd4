package handler

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"pix-link-gateway/internal/core/domain"
	"pix-link-gateway/internal/core/ports"
	"pix-link-gateway/pkg/apperror"
)

func sampleLink(merchantID uuid.UUID) *domain.PaymentLink {
	now := time.Now()
	return &domain.PaymentLink{
		ID:                  uuid.New(),
		MerchantID:          merchantID,
		Description:         "Tênis de corrida",
		Amount:              decimal.RequireFromString("25.99"),
		Status:              domain.LinkStatusPending,
		ExternalReference:   uuid.New().String(),
		GatewayPreferenceID: "pref-123",
		PaymentURL:          "https://mp.example/checkout/pref-123",
		PayerEmail:          "cliente@example.com",
		PayerName:           "Maria Silva",
		ExpiresAt:           now.Add(24 * time.Hour),
		CreatedAt:           now,
	}
}

func (f *routerFixture) authedRequest(method, path, body string) *http.Request {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Authorization", "Bearer "+f.token)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestCreateLinkEndpoint(t *testing.T) {
	f := newRouterFixture(t)
	link := sampleLink(f.merchantID)

	f.links.EXPECT().Create(gomock.Any(), f.merchantID, gomock.Any()).DoAndReturn(
		func(_ context.Context, _ uuid.UUID, in ports.CreateLinkInput) (*domain.PaymentLink, error) {
			assert.Equal(t, "Tênis de corrida", in.Description)
			assert.True(t, in.Amount.Equal(decimal.RequireFromString("25.99")))
			assert.Equal(t, "12345678901", in.PayerTaxID) // punctuation stripped
			return link, nil
		})

	body := `{
		"title": "Tênis de corrida",
		"amount": 25.99,
		"customer_email": "cliente@example.com",
		"customer_name": "Maria Silva",
		"customer_cpf": "123.456.789-01"
	}`
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, f.authedRequest(http.MethodPost, "/api/v1/payment-links", body))

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), link.ID.String())
	assert.Contains(t, w.Body.String(), `"amount":"25.99"`)
	assert.Contains(t, w.Body.String(), "pref-123")
}

func TestCreateLinkEndpointValidation(t *testing.T) {
	f := newRouterFixture(t)

	tests := []struct {
		name string
		body string
	}{
		{"zero amount", `{"title": "x", "amount": 0, "customer_email": "a@b.com", "customer_name": "Maria"}`},
		{"negative amount", `{"title": "x", "amount": -5, "customer_email": "a@b.com", "customer_name": "Maria"}`},
		{"missing title", `{"amount": 10, "customer_email": "a@b.com", "customer_name": "Maria"}`},
		{"bad email", `{"title": "x", "amount": 10, "customer_email": "nope", "customer_name": "Maria"}`},
		{"short name", `{"title": "x", "amount": 10, "customer_email": "a@b.com", "customer_name": "M"}`},
		{"bad cpf", `{"title": "x", "amount": 10, "customer_email": "a@b.com", "customer_name": "Maria", "customer_cpf": "123"}`},
		{"long title", fmt.Sprintf(`{"title": %q, "amount": 10, "customer_email": "a@b.com", "customer_name": "Maria"}`, strings.Repeat("x", 201))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			f.router.ServeHTTP(w, f.authedRequest(http.MethodPost, "/api/v1/payment-links", tt.body))

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), "VAL_001")
		})
	}
}

func TestCreateLinkEndpointRequiresAuth(t *testing.T) {
	f := newRouterFixture(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/payment-links", strings.NewReader(`{}`))
	f.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestListLinksEndpoint(t *testing.T) {
	f := newRouterFixture(t)
	a, b := sampleLink(f.merchantID), sampleLink(f.merchantID)

	f.links.EXPECT().List(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, params ports.LinkListParams) ([]domain.PaymentLink, int64, error) {
			assert.Equal(t, f.merchantID, params.MerchantID)
			require.NotNil(t, params.Status)
			assert.Equal(t, domain.LinkStatusPending, *params.Status)
			assert.Equal(t, 2, params.Limit)
			assert.Equal(t, 0, params.Offset)
			return []domain.PaymentLink{*a, *b}, 5, nil
		})

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, f.authedRequest(http.MethodGet, "/api/v1/payment-links?status=pending&limit=2", ""))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total":5`)
	assert.Contains(t, w.Body.String(), `"has_more":true`)
}

func TestListLinksEndpointRejectsBadStatus(t *testing.T) {
	f := newRouterFixture(t)

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, f.authedRequest(http.MethodGet, "/api/v1/payment-links?status=bogus", ""))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetLinkEndpoint(t *testing.T) {
	f := newRouterFixture(t)
	link := sampleLink(f.merchantID)

	f.links.EXPECT().Get(gomock.Any(), f.merchantID, link.ID).Return(link, nil)

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, f.authedRequest(http.MethodGet, "/api/v1/payment-links/"+link.ID.String(), ""))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), link.ID.String())
}

func TestGetLinkEndpointBadID(t *testing.T) {
	f := newRouterFixture(t)

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, f.authedRequest(http.MethodGet, "/api/v1/payment-links/not-a-uuid", ""))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "VAL_001")
}

func TestGetLinkEndpointNotFound(t *testing.T) {
	f := newRouterFixture(t)
	linkID := uuid.New()

	f.links.EXPECT().Get(gomock.Any(), f.merchantID, linkID).
		Return(nil, apperror.ErrNotFound("Payment link"))

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, f.authedRequest(http.MethodGet, "/api/v1/payment-links/"+linkID.String(), ""))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "LNK_001")
}

func TestCancelLinkEndpoint(t *testing.T) {
	f := newRouterFixture(t)
	link := sampleLink(f.merchantID)
	link.Status = domain.LinkStatusCancelled

	f.links.EXPECT().Cancel(gomock.Any(), f.merchantID, link.ID).Return(link, nil)

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, f.authedRequest(http.MethodPatch, "/api/v1/payment-links/"+link.ID.String()+"/cancel", ""))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"cancelled"`)
}

func TestCancelLinkEndpointInvalidTransition(t *testing.T) {
	f := newRouterFixture(t)
	linkID := uuid.New()

	f.links.EXPECT().Cancel(gomock.Any(), f.merchantID, linkID).
		Return(nil, apperror.ErrInvalidTransition("paid"))

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, f.authedRequest(http.MethodPatch, "/api/v1/payment-links/"+linkID.String()+"/cancel", ""))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "LNK_002")
}

func TestCheckStatusEndpoint(t *testing.T) {
	f := newRouterFixture(t)
	link := sampleLink(f.merchantID)
	link.Status = domain.LinkStatusPaid

	f.links.EXPECT().CheckStatus(gomock.Any(), f.merchantID, link.ID).Return(link, nil)

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, f.authedRequest(http.MethodPost, "/api/v1/payment-links/"+link.ID.String()+"/check-status", ""))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"paid"`)
}

func TestStatsEndpoint(t *testing.T) {
	f := newRouterFixture(t)

	f.links.EXPECT().Stats(gomock.Any(), f.merchantID).
		Return(&ports.LinkStats{Total: 42, Paid: 17, CreatedToday: 3}, nil)

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, f.authedRequest(http.MethodGet, "/api/v1/payment-links/stats", ""))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total":42`)
	assert.Contains(t, w.Body.String(), `"paid":17`)
	assert.Contains(t, w.Body.String(), `"today":3`)
}
