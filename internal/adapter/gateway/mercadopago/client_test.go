package mercadopago

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pix-link-gateway/internal/core/ports"
	"pix-link-gateway/pkg/apperror"
)

func newTestClient(serverURL string) *Client {
	return New(serverURL, "https://pay.example.com", 2*time.Second, zerolog.Nop())
}

func createReq() ports.GatewayCreateLink {
	return ports.GatewayCreateLink{
		Title:             "Tênis de corrida",
		Amount:            decimal.RequireFromString("25.99"),
		PayerEmail:        "cliente@example.com",
		PayerName:         "Maria Silva",
		PayerTaxID:        "12345678901",
		ExternalReference: "5f2b9c3e-link-id",
		ExpiresAt:         time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestCreateLinkRequestShape(t *testing.T) {
	var captured map[string]interface{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/checkout/preferences", r.URL.Path)
		assert.Equal(t, "Bearer APP_USR-token", r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.Header.Get("X-Idempotency-Key"))

		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{
			"id": "123456-abcdef",
			"init_point": "https://www.mercadopago.com.br/checkout/v1/redirect?pref_id=123456-abcdef",
			"sandbox_init_point": "https://sandbox.mercadopago.com.br/checkout/v1/redirect?pref_id=123456-abcdef"
		}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	pref, err := client.CreateLink(context.Background(), "APP_USR-token", createReq())
	require.NoError(t, err)

	assert.Equal(t, "123456-abcdef", pref.ID)
	assert.Contains(t, pref.InitPoint, "pref_id=123456-abcdef")
	assert.Contains(t, pref.SandboxInitPoint, "sandbox")

	items := captured["items"].([]interface{})
	require.Len(t, items, 1)
	item := items[0].(map[string]interface{})
	assert.Equal(t, "5f2b9c3e-link-id", item["id"])
	assert.Equal(t, "Tênis de corrida", item["title"])
	assert.Equal(t, float64(1), item["quantity"])
	assert.Equal(t, 25.99, item["unit_price"])
	assert.Equal(t, "BRL", item["currency_id"])

	payer := captured["payer"].(map[string]interface{})
	identification := payer["identification"].(map[string]interface{})
	assert.Equal(t, "CPF", identification["type"])
	assert.Equal(t, "12345678901", identification["number"])

	assert.Equal(t, "5f2b9c3e-link-id", captured["external_reference"])
	assert.Equal(t, "https://pay.example.com/api/v1/webhooks/mercadopago", captured["notification_url"])
	assert.Equal(t, true, captured["expires"])
	assert.Equal(t, false, captured["binary_mode"])

	methods := captured["payment_methods"].(map[string]interface{})
	assert.Equal(t, float64(1), methods["installments"])
	excluded := methods["excluded_payment_methods"].([]interface{})
	require.Len(t, excluded, 1)
	assert.Equal(t, "bolbradesco", excluded[0].(map[string]interface{})["id"])
}

func TestCreateLinkOmitsIdentificationWithoutCPF(t *testing.T) {
	var captured map[string]interface{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		_, _ = w.Write([]byte(`{"id": "p-1", "init_point": "https://x", "sandbox_init_point": "https://y"}`))
	}))
	defer server.Close()

	req := createReq()
	req.PayerTaxID = ""

	_, err := newTestClient(server.URL).CreateLink(context.Background(), "APP_USR-token", req)
	require.NoError(t, err)

	payer := captured["payer"].(map[string]interface{})
	_, present := payer["identification"]
	assert.False(t, present)
}

func TestCreateLinkAuthFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message": "invalid access token", "status": 401}`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).CreateLink(context.Background(), "bad-token", createReq())

	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "GW_001", appErr.Code)
}

func TestCreateLinkValidationFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message": "unit_price must be positive", "status": 400}`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).CreateLink(context.Background(), "APP_USR-token", createReq())

	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "GW_002", appErr.Code)
	assert.Contains(t, appErr.Message, "unit_price must be positive")
}

func TestCreateLinkGatewayDown(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // connection refused

	_, err := newTestClient(server.URL).CreateLink(context.Background(), "APP_USR-token", createReq())

	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "GW_003", appErr.Code)
}

func TestCreateLinkGatewayError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).CreateLink(context.Background(), "APP_USR-token", createReq())

	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "GW_003", appErr.Code)
}

func TestGetPaymentStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v1/payments/999001", r.URL.Path)
		assert.Equal(t, "Bearer APP_USR-token", r.Header.Get("Authorization"))

		_, _ = w.Write([]byte(`{
			"id": 999001,
			"status": "approved",
			"status_detail": "accredited",
			"payment_method_id": "pix",
			"transaction_amount": 25.99,
			"external_reference": "5f2b9c3e-link-id",
			"date_approved": "2026-02-15T10:30:00.000-03:00",
			"payer": {"email": "cliente@example.com"}
		}`))
	}))
	defer server.Close()

	payment, err := newTestClient(server.URL).GetPaymentStatus(context.Background(), "APP_USR-token", "999001")
	require.NoError(t, err)

	assert.Equal(t, "999001", payment.ID)
	assert.Equal(t, "approved", payment.Status)
	assert.Equal(t, "pix", payment.PaymentMethodID)
	assert.True(t, payment.TransactionAmount.Equal(decimal.RequireFromString("25.99")))
	assert.Equal(t, "cliente@example.com", payment.PayerEmail)
	assert.Equal(t, "5f2b9c3e-link-id", payment.ExternalReference)
	require.NotNil(t, payment.DateApproved)
	assert.Equal(t, 2026, payment.DateApproved.Year())
}

func TestGetPaymentStatusNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message": "Payment not found", "error": "not_found", "status": 404}`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).GetPaymentStatus(context.Background(), "APP_USR-token", "000000")

	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "GW_004", appErr.Code)
}

func TestGetPaymentStatusTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	client := New(server.URL, "https://pay.example.com", 50*time.Millisecond, zerolog.Nop())
	_, err := client.GetPaymentStatus(context.Background(), "APP_USR-token", "999001")

	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "GW_003", appErr.Code)
}
