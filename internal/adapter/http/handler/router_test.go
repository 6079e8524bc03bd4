package handler

import (
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"pix-link-gateway/internal/core/ports"
	"pix-link-gateway/internal/core/ports/mocks"
	"pix-link-gateway/internal/service"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	m.Run()
}

type routerFixture struct {
	router     *gin.Engine
	auth       *mocks.MockAuthService
	links      *mocks.MockLinkService
	reconciler *mocks.MockWebhookReconciler
	notifier   ports.Notifier
	merchantID uuid.UUID
	token      string
}

func newRouterFixture(t *testing.T) *routerFixture {
	t.Helper()
	ctrl := gomock.NewController(t)

	tokens := service.NewTokenService("test-secret", time.Hour, "pix-link-gateway")
	merchantID := uuid.New()
	token, _, err := tokens.Generate(merchantID, "lojista@example.com")
	require.NoError(t, err)

	f := &routerFixture{
		auth:       mocks.NewMockAuthService(ctrl),
		links:      mocks.NewMockLinkService(ctrl),
		reconciler: mocks.NewMockWebhookReconciler(ctrl),
		notifier:   service.NewNotifier(zerolog.Nop()),
		merchantID: merchantID,
		token:      token,
	}
	f.router = SetupRouter(RouterDeps{
		Auth:       f.auth,
		Links:      f.links,
		Reconciler: f.reconciler,
		Notifier:   f.notifier,
		Tokens:     tokens,
		Log:        zerolog.Nop(),
	})
	return f
}
