package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"pix-link-gateway/internal/core/domain"
	"pix-link-gateway/internal/core/ports"
	"pix-link-gateway/internal/core/ports/mocks"
	"pix-link-gateway/pkg/apperror"
)

type linkFixture struct {
	svc       *linkService
	links     *mocks.MockLinkRepository
	merchants *mocks.MockMerchantRepository
	gateway   *mocks.MockGatewayClient
	notifier  *mocks.MockNotifier
	enc       ports.EncryptionService
}

func newLinkFixture(t *testing.T) *linkFixture {
	t.Helper()
	ctrl := gomock.NewController(t)

	enc, err := NewEncryptionService(testAESKey)
	require.NoError(t, err)

	f := &linkFixture{
		links:     mocks.NewMockLinkRepository(ctrl),
		merchants: mocks.NewMockMerchantRepository(ctrl),
		gateway:   mocks.NewMockGatewayClient(ctrl),
		notifier:  mocks.NewMockNotifier(ctrl),
		enc:       enc,
	}
	f.svc = NewLinkService(
		f.links, f.merchants, f.gateway, enc, f.notifier,
		24*time.Hour, 10000.0, zerolog.Nop(),
	).(*linkService)
	return f
}

func (f *linkFixture) merchantWithCredentials(t *testing.T, id uuid.UUID) *domain.Merchant {
	t.Helper()
	tokenEnc, err := f.enc.Encrypt("APP_USR-access-token")
	require.NoError(t, err)
	return &domain.Merchant{ID: id, Email: "lojista@example.com", AccessTokenEnc: &tokenEnc}
}

func TestCreateLink(t *testing.T) {
	f := newLinkFixture(t)
	ctx := context.Background()
	merchantID := uuid.New()

	f.merchants.EXPECT().GetByID(ctx, merchantID).
		Return(f.merchantWithCredentials(t, merchantID), nil)

	f.gateway.EXPECT().CreateLink(ctx, "APP_USR-access-token", gomock.Any()).DoAndReturn(
		func(_ context.Context, _ string, req ports.GatewayCreateLink) (*ports.GatewayPreference, error) {
			assert.Equal(t, "Tênis de corrida", req.Title)
			assert.True(t, req.Amount.Equal(decimal.RequireFromString("25.99")))
			assert.Equal(t, "cliente@example.com", req.PayerEmail)
			assert.Equal(t, "12345678901", req.PayerTaxID)
			assert.NotEmpty(t, req.ExternalReference)
			return &ports.GatewayPreference{
				ID:               "pref-123",
				InitPoint:        "https://mp.example/checkout/pref-123",
				SandboxInitPoint: "https://sandbox.mp.example/checkout/pref-123",
			}, nil
		})

	f.links.EXPECT().Create(ctx, gomock.Any()).DoAndReturn(
		func(_ context.Context, link *domain.PaymentLink) error {
			assert.Equal(t, domain.LinkStatusPending, link.Status)
			assert.Equal(t, link.ID.String(), link.ExternalReference)
			assert.Equal(t, "pref-123", link.GatewayPreferenceID)
			assert.WithinDuration(t, time.Now().Add(24*time.Hour), link.ExpiresAt, 5*time.Second)
			return nil
		})

	link, err := f.svc.Create(ctx, merchantID, ports.CreateLinkInput{
		Description: "Tênis de corrida",
		Amount:      decimal.RequireFromString("25.99"),
		PayerEmail:  "cliente@example.com",
		PayerName:   "Maria Silva",
		PayerTaxID:  "12345678901",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://mp.example/checkout/pref-123", link.PaymentURL)
	require.NotNil(t, link.PayerTaxID)
	assert.Equal(t, "12345678901", *link.PayerTaxID)
	assert.Nil(t, link.PaidAt)
}

func TestCreateLinkAmountBounds(t *testing.T) {
	f := newLinkFixture(t)
	ctx := context.Background()

	for _, amount := range []string{"0", "-1", "10000.01"} {
		_, err := f.svc.Create(ctx, uuid.New(), ports.CreateLinkInput{
			Description: "Produto",
			Amount:      decimal.RequireFromString(amount),
			PayerEmail:  "cliente@example.com",
			PayerName:   "Maria",
		})
		var appErr *apperror.AppError
		require.ErrorAs(t, err, &appErr, "amount %s", amount)
		assert.Equal(t, "VAL_001", appErr.Code)
	}
}

func TestCreateLinkWithoutCredentials(t *testing.T) {
	f := newLinkFixture(t)
	ctx := context.Background()
	merchantID := uuid.New()

	f.merchants.EXPECT().GetByID(ctx, merchantID).
		Return(&domain.Merchant{ID: merchantID}, nil)

	_, err := f.svc.Create(ctx, merchantID, ports.CreateLinkInput{
		Description: "Produto",
		Amount:      decimal.RequireFromString("10.00"),
		PayerEmail:  "cliente@example.com",
		PayerName:   "Maria",
	})
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "AUTH_004", appErr.Code)
}

func TestCreateLinkGatewayFailurePropagates(t *testing.T) {
	f := newLinkFixture(t)
	ctx := context.Background()
	merchantID := uuid.New()

	f.merchants.EXPECT().GetByID(ctx, merchantID).
		Return(f.merchantWithCredentials(t, merchantID), nil)
	f.gateway.EXPECT().CreateLink(ctx, gomock.Any(), gomock.Any()).
		Return(nil, apperror.ErrGatewayAuth())

	_, err := f.svc.Create(ctx, merchantID, ports.CreateLinkInput{
		Description: "Produto",
		Amount:      decimal.RequireFromString("10.00"),
		PayerEmail:  "cliente@example.com",
		PayerName:   "Maria",
	})
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "GW_001", appErr.Code)
}

func TestGetAppliesLazyExpiration(t *testing.T) {
	f := newLinkFixture(t)
	ctx := context.Background()
	merchantID, linkID := uuid.New(), uuid.New()

	stale := &domain.PaymentLink{
		ID:         linkID,
		MerchantID: merchantID,
		Status:     domain.LinkStatusPending,
		ExpiresAt:  time.Now().Add(-time.Hour),
	}

	f.links.EXPECT().GetByID(ctx, linkID, merchantID).Return(stale, nil)
	f.links.EXPECT().UpdateStatus(ctx, linkID, domain.LinkStatusExpired, nil).Return(nil)
	f.notifier.EXPECT().Publish(merchantID, domain.EventPaymentUpdate, gomock.Any())

	link, err := f.svc.Get(ctx, merchantID, linkID)
	require.NoError(t, err)
	assert.Equal(t, domain.LinkStatusExpired, link.Status)
}

func TestGetNotFound(t *testing.T) {
	f := newLinkFixture(t)
	ctx := context.Background()
	merchantID, linkID := uuid.New(), uuid.New()

	f.links.EXPECT().GetByID(ctx, linkID, merchantID).Return(nil, nil)

	_, err := f.svc.Get(ctx, merchantID, linkID)
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "LNK_001", appErr.Code)
}

func TestCancelPendingLink(t *testing.T) {
	f := newLinkFixture(t)
	ctx := context.Background()
	merchantID, linkID := uuid.New(), uuid.New()

	pending := &domain.PaymentLink{
		ID:         linkID,
		MerchantID: merchantID,
		Status:     domain.LinkStatusPending,
		ExpiresAt:  time.Now().Add(time.Hour),
	}

	f.links.EXPECT().GetByID(ctx, linkID, merchantID).Return(pending, nil)
	f.links.EXPECT().UpdateStatus(ctx, linkID, domain.LinkStatusCancelled, nil).Return(nil)
	f.notifier.EXPECT().Publish(merchantID, domain.EventPaymentUpdate, gomock.Any())

	link, err := f.svc.Cancel(ctx, merchantID, linkID)
	require.NoError(t, err)
	assert.Equal(t, domain.LinkStatusCancelled, link.Status)
}

func TestCancelPaidLinkFails(t *testing.T) {
	f := newLinkFixture(t)
	ctx := context.Background()
	merchantID, linkID := uuid.New(), uuid.New()

	paid := &domain.PaymentLink{
		ID:         linkID,
		MerchantID: merchantID,
		Status:     domain.LinkStatusPaid,
		ExpiresAt:  time.Now().Add(time.Hour),
	}

	f.links.EXPECT().GetByID(ctx, linkID, merchantID).Return(paid, nil)

	_, err := f.svc.Cancel(ctx, merchantID, linkID)
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "LNK_002", appErr.Code)
	assert.Contains(t, appErr.Message, "paid")
}

func TestCancelExpiredLinkFails(t *testing.T) {
	f := newLinkFixture(t)
	ctx := context.Background()
	merchantID, linkID := uuid.New(), uuid.New()

	// Pending in storage, but already past the window: the read flips it
	// to expired first and the cancel is rejected.
	stale := &domain.PaymentLink{
		ID:         linkID,
		MerchantID: merchantID,
		Status:     domain.LinkStatusPending,
		ExpiresAt:  time.Now().Add(-time.Hour),
	}

	f.links.EXPECT().GetByID(ctx, linkID, merchantID).Return(stale, nil)
	f.links.EXPECT().UpdateStatus(ctx, linkID, domain.LinkStatusExpired, nil).Return(nil)
	f.notifier.EXPECT().Publish(merchantID, domain.EventPaymentUpdate, gomock.Any())

	_, err := f.svc.Cancel(ctx, merchantID, linkID)
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "LNK_002", appErr.Code)
	assert.Contains(t, appErr.Message, "expired")
}

func TestCheckStatusAppliesPayment(t *testing.T) {
	f := newLinkFixture(t)
	ctx := context.Background()
	merchantID, linkID := uuid.New(), uuid.New()
	paymentID := "999001"

	pending := &domain.PaymentLink{
		ID:                   linkID,
		MerchantID:           merchantID,
		Status:               domain.LinkStatusPending,
		PaymentTransactionID: &paymentID,
		ExpiresAt:            time.Now().Add(time.Hour),
	}
	approvedAt := time.Now().Add(-time.Minute)

	f.links.EXPECT().GetByID(ctx, linkID, merchantID).Return(pending, nil)
	f.merchants.EXPECT().GetByID(ctx, merchantID).
		Return(f.merchantWithCredentials(t, merchantID), nil)
	f.gateway.EXPECT().GetPaymentStatus(ctx, "APP_USR-access-token", paymentID).
		Return(&ports.GatewayPayment{
			ID:              paymentID,
			Status:          domain.GatewayStatusApproved,
			PaymentMethodID: "pix",
			PayerEmail:      "cliente@example.com",
			DateApproved:    &approvedAt,
		}, nil)
	f.links.EXPECT().UpdateStatus(ctx, linkID, domain.LinkStatusPaid, gomock.Any()).DoAndReturn(
		func(_ context.Context, _ uuid.UUID, _ domain.LinkStatus, settlement *ports.SettlementFields) error {
			require.NotNil(t, settlement)
			assert.Equal(t, paymentID, *settlement.PaymentTransactionID)
			assert.Equal(t, "pix", *settlement.PaymentMethod)
			assert.Equal(t, approvedAt, *settlement.PaidAt)
			return nil
		})

	link, err := f.svc.CheckStatus(ctx, merchantID, linkID)
	require.NoError(t, err)
	assert.Equal(t, domain.LinkStatusPaid, link.Status)
	require.NotNil(t, link.PaidAt)
	assert.Equal(t, approvedAt, *link.PaidAt)
}

func TestCheckStatusWithoutPaymentIsNoOp(t *testing.T) {
	f := newLinkFixture(t)
	ctx := context.Background()
	merchantID, linkID := uuid.New(), uuid.New()

	pending := &domain.PaymentLink{
		ID:         linkID,
		MerchantID: merchantID,
		Status:     domain.LinkStatusPending,
		ExpiresAt:  time.Now().Add(time.Hour),
	}

	f.links.EXPECT().GetByID(ctx, linkID, merchantID).Return(pending, nil)

	link, err := f.svc.CheckStatus(ctx, merchantID, linkID)
	require.NoError(t, err)
	assert.Equal(t, domain.LinkStatusPending, link.Status)
}

func TestStats(t *testing.T) {
	f := newLinkFixture(t)
	ctx := context.Background()
	merchantID := uuid.New()

	f.links.EXPECT().CountAll(ctx, merchantID).Return(int64(42), nil)
	f.links.EXPECT().CountByStatus(ctx, merchantID, domain.LinkStatusPaid).Return(int64(17), nil)
	f.links.EXPECT().CountCreatedSince(ctx, merchantID, gomock.Any()).Return(int64(3), nil)

	stats, err := f.svc.Stats(ctx, merchantID)
	require.NoError(t, err)
	assert.Equal(t, int64(42), stats.Total)
	assert.Equal(t, int64(17), stats.Paid)
	assert.Equal(t, int64(3), stats.CreatedToday)
}
