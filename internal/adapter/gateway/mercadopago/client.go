package mercadopago

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"pix-link-gateway/internal/core/ports"
	"pix-link-gateway/pkg/apperror"
)

// Timestamp layout the preferences API expects for expiration_date_to.
const dateLayout = "2006-01-02T15:04:05.000-07:00"

const statementDescriptorMax = 22

// HTTPClient abstracts the transport so tests can substitute it.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client talks to the Mercado Pago REST API. Credentials are per-call:
// every merchant brings their own access token.
type Client struct {
	baseURL    string
	appURL     string
	httpClient HTTPClient
	log        zerolog.Logger
}

// New builds a gateway client. appURL is this service's public base URL,
// used for webhook and redirect targets.
func New(baseURL, appURL string, timeout time.Duration, log zerolog.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		appURL:     strings.TrimRight(appURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		log:        log.With().Str("component", "mercadopago").Logger(),
	}
}

// SetHTTPClient replaces the transport. Test hook.
func (c *Client) SetHTTPClient(hc HTTPClient) {
	c.httpClient = hc
}

type preferenceItem struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	Quantity   int     `json:"quantity"`
	UnitPrice  float64 `json:"unit_price"`
	CurrencyID string  `json:"currency_id"`
}

type payerIdentification struct {
	Type   string `json:"type"`
	Number string `json:"number"`
}

type preferencePayer struct {
	Name           string               `json:"name"`
	Email          string               `json:"email"`
	Identification *payerIdentification `json:"identification,omitempty"`
}

type backURLs struct {
	Success string `json:"success"`
	Pending string `json:"pending"`
	Failure string `json:"failure"`
}

type excludedPaymentMethod struct {
	ID string `json:"id"`
}

type paymentMethods struct {
	ExcludedPaymentMethods []excludedPaymentMethod `json:"excluded_payment_methods"`
	Installments           int                     `json:"installments"`
}

type preferenceRequest struct {
	Items               []preferenceItem `json:"items"`
	Payer               preferencePayer  `json:"payer"`
	ExternalReference   string           `json:"external_reference"`
	NotificationURL     string           `json:"notification_url"`
	BackURLs            backURLs         `json:"back_urls"`
	PaymentMethods      paymentMethods   `json:"payment_methods"`
	StatementDescriptor string           `json:"statement_descriptor"`
	Expires             bool             `json:"expires"`
	ExpirationDateTo    string           `json:"expiration_date_to"`
	BinaryMode          bool             `json:"binary_mode"`
}

type preferenceResponse struct {
	ID               string `json:"id"`
	InitPoint        string `json:"init_point"`
	SandboxInitPoint string `json:"sandbox_init_point"`
}

type paymentResponse struct {
	ID                json.Number `json:"id"`
	Status            string      `json:"status"`
	StatusDetail      string      `json:"status_detail"`
	PaymentMethodID   string      `json:"payment_method_id"`
	TransactionAmount float64     `json:"transaction_amount"`
	ExternalReference string      `json:"external_reference"`
	DateApproved      string      `json:"date_approved"`
	Payer             struct {
		Email string `json:"email"`
	} `json:"payer"`
}

type apiError struct {
	Message string `json:"message"`
	Error   string `json:"error"`
	Status  int    `json:"status"`
}

// CreateLink provisions a checkout preference: one BRL item, boleto
// excluded so the payer sees PIX and cards only, single installment.
func (c *Client) CreateLink(ctx context.Context, accessToken string, req ports.GatewayCreateLink) (*ports.GatewayPreference, error) {
	amount, _ := req.Amount.Round(2).Float64()

	body := preferenceRequest{
		Items: []preferenceItem{{
			ID:         req.ExternalReference,
			Title:      req.Title,
			Quantity:   1,
			UnitPrice:  amount,
			CurrencyID: "BRL",
		}},
		Payer: preferencePayer{
			Name:  req.PayerName,
			Email: req.PayerEmail,
		},
		ExternalReference: req.ExternalReference,
		NotificationURL:   c.appURL + "/api/v1/webhooks/mercadopago",
		BackURLs: backURLs{
			Success: c.appURL + "/payment/success",
			Pending: c.appURL + "/payment/pending",
			Failure: c.appURL + "/payment/failure",
		},
		PaymentMethods: paymentMethods{
			ExcludedPaymentMethods: []excludedPaymentMethod{{ID: "bolbradesco"}},
			Installments:           1,
		},
		StatementDescriptor: truncate(req.Title, statementDescriptorMax),
		Expires:             true,
		ExpirationDateTo:    req.ExpiresAt.Format(dateLayout),
		BinaryMode:          false,
	}
	if req.PayerTaxID != "" {
		body.Payer.Identification = &payerIdentification{Type: "CPF", Number: req.PayerTaxID}
	}

	var resp preferenceResponse
	if err := c.post(ctx, accessToken, "/checkout/preferences", body, &resp); err != nil {
		return nil, err
	}

	return &ports.GatewayPreference{
		ID:               resp.ID,
		InitPoint:        resp.InitPoint,
		SandboxInitPoint: resp.SandboxInitPoint,
	}, nil
}

// GetPaymentStatus fetches the authoritative state of one payment.
func (c *Client) GetPaymentStatus(ctx context.Context, accessToken, paymentID string) (*ports.GatewayPayment, error) {
	var resp paymentResponse
	if err := c.get(ctx, accessToken, "/v1/payments/"+paymentID, &resp); err != nil {
		return nil, err
	}

	payment := &ports.GatewayPayment{
		ID:                resp.ID.String(),
		Status:            resp.Status,
		StatusDetail:      resp.StatusDetail,
		PaymentMethodID:   resp.PaymentMethodID,
		TransactionAmount: decimal.NewFromFloat(resp.TransactionAmount),
		PayerEmail:        resp.Payer.Email,
		ExternalReference: resp.ExternalReference,
	}
	if resp.DateApproved != "" {
		if approved, err := time.Parse(time.RFC3339, resp.DateApproved); err == nil {
			payment.DateApproved = &approved
		}
	}
	return payment, nil
}

func (c *Client) post(ctx context.Context, accessToken, path string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("marshaling request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return apperror.InternalError(err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")
	// The gateway deduplicates retried creates on this key.
	req.Header.Set("X-Idempotency-Key", uuid.New().String())

	return c.do(req, path, out)
}

func (c *Client) get(ctx context.Context, accessToken, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return apperror.InternalError(err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	return c.do(req, path, out)
}

func (c *Client) do(req *http.Request, path string, out interface{}) error {
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warn().Err(err).Str("path", path).Msg("gateway request failed")
		return apperror.ErrGatewayUnavailable(err)
	}
	defer resp.Body.Close()

	c.log.Debug().
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("gateway request")

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return apperror.ErrGatewayUnavailable(err)
	}

	if resp.StatusCode >= 400 {
		return c.classify(resp.StatusCode, raw, path)
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return apperror.ErrGatewayUnavailable(fmt.Errorf("decoding gateway response: %w", err))
	}
	return nil
}

func (c *Client) classify(status int, raw []byte, path string) error {
	var apiErr apiError
	_ = json.Unmarshal(raw, &apiErr)
	message := apiErr.Message
	if message == "" {
		message = apiErr.Error
	}

	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return apperror.ErrGatewayAuth()
	case status == http.StatusNotFound && strings.HasPrefix(path, "/v1/payments/"):
		return apperror.ErrPaymentNotFound()
	case status >= 400 && status < 500:
		if message == "" {
			message = fmt.Sprintf("status %d", status)
		}
		return apperror.ErrGatewayValidation(message)
	default:
		return apperror.ErrGatewayUnavailable(fmt.Errorf("gateway returned status %d", status))
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
