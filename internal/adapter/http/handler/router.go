package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"pix-link-gateway/internal/adapter/http/dto"
	"pix-link-gateway/internal/adapter/http/middleware"
	"pix-link-gateway/internal/core/ports"
)

const maxBodyBytes = 1 << 20 // 1 MiB

const heartbeatInterval = 15 * time.Second

// RouterDeps carries everything the HTTP surface needs.
type RouterDeps struct {
	Auth       ports.AuthService
	Links      ports.LinkService
	Reconciler ports.WebhookReconciler
	Notifier   ports.Notifier
	Tokens     ports.TokenService
	RateLimits ports.RateLimitStore
	Health     []ports.HealthChecker
	Log        zerolog.Logger
}

// SetupRouter wires middleware, handlers and routes.
func SetupRouter(deps RouterDeps) *gin.Engine {
	dto.RegisterValidators()

	r := gin.New()
	r.Use(
		middleware.RequestID(),
		middleware.RequestLogger(deps.Log),
		middleware.Recovery(deps.Log),
		middleware.MaxBodySize(maxBodyBytes),
	)

	limit := func(group middleware.RateLimitGroup) gin.HandlerFunc {
		if deps.RateLimits == nil {
			return func(c *gin.Context) { c.Next() }
		}
		return middleware.RateLimit(deps.RateLimits, group, deps.Log)
	}

	authHandler := NewAuthHandler(deps.Auth, deps.Log)
	linkHandler := NewLinkHandler(deps.Links, deps.Log)
	webhookHandler := NewWebhookHandler(deps.Reconciler, deps.Log)
	eventsHandler := NewEventsHandler(deps.Notifier, heartbeatInterval, deps.Log)
	healthHandler := NewHealthHandler(deps.Health...)

	r.GET("/healthz", healthHandler.Live)
	r.GET("/readyz", healthHandler.Ready)

	api := r.Group("/api/v1")

	auth := api.Group("/auth")
	{
		auth.POST("/register", limit(middleware.GroupAuthRegister), authHandler.Register)
		auth.POST("/login", limit(middleware.GroupAuthLogin), authHandler.Login)
		auth.GET("/me", middleware.JWTAuth(deps.Tokens), authHandler.Me)
	}

	links := api.Group("/payment-links", middleware.JWTAuth(deps.Tokens))
	{
		links.POST("", limit(middleware.GroupLinksCreate), linkHandler.Create)
		links.GET("", limit(middleware.GroupDashboard), linkHandler.List)
		links.GET("/stats", limit(middleware.GroupDashboard), linkHandler.Stats)
		links.GET("/:id", limit(middleware.GroupDashboard), linkHandler.Get)
		links.PATCH("/:id/cancel", limit(middleware.GroupDashboard), linkHandler.Cancel)
		links.POST("/:id/check-status", limit(middleware.GroupDashboard), linkHandler.CheckStatus)
	}

	api.GET("/events", middleware.JWTAuth(deps.Tokens), eventsHandler.Stream)

	// Inbound gateway notifications carry no merchant auth; the
	// reconciler never trusts their content.
	api.POST("/webhooks/mercadopago", limit(middleware.GroupWebhooks), webhookHandler.Receive)

	return r
}
