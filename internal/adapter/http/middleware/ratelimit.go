package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"pix-link-gateway/internal/core/ports"
	"pix-link-gateway/pkg/apperror"
	"pix-link-gateway/pkg/response"
)

// RateLimitGroup names a fixed-window budget for one route family.
type RateLimitGroup struct {
	Name   string
	Limit  int64
	Window time.Duration
}

// Route budgets. Webhooks get the widest window since the gateway bursts
// retries; auth endpoints get the tightest to slow credential stuffing.
var (
	GroupAuthRegister = RateLimitGroup{Name: "auth_register", Limit: 5, Window: time.Hour}
	GroupAuthLogin    = RateLimitGroup{Name: "auth_login", Limit: 10, Window: time.Minute}
	GroupLinksCreate  = RateLimitGroup{Name: "links_create", Limit: 30, Window: time.Minute}
	GroupDashboard    = RateLimitGroup{Name: "dashboard", Limit: 120, Window: time.Minute}
	GroupWebhooks     = RateLimitGroup{Name: "webhooks", Limit: 300, Window: time.Minute}
)

// RateLimit enforces a fixed-window budget keyed by merchant when
// authenticated, client IP otherwise. A degraded store fails open.
func RateLimit(store ports.RateLimitStore, group RateLimitGroup, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		subject := c.ClientIP()
		if id, ok := MerchantID(c); ok {
			subject = id.String()
		}

		count, err := store.Increment(c.Request.Context(), group.Name+":"+subject, group.Window)
		if err != nil {
			log.Warn().Err(err).Str("group", group.Name).Msg("rate limit store unavailable")
			c.Next()
			return
		}

		remaining := group.Limit - count
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", strconv.FormatInt(group.Limit, 10))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

		if count > group.Limit {
			response.Error(c, apperror.ErrRateLimitExceeded())
			c.Abort()
			return
		}
		c.Next()
	}
}
