package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"pix-link-gateway/internal/adapter/http/middleware"
	"pix-link-gateway/internal/core/domain"
	"pix-link-gateway/internal/core/ports"
	"pix-link-gateway/pkg/apperror"
	"pix-link-gateway/pkg/response"
)

type EventsHandler struct {
	notifier  ports.Notifier
	heartbeat time.Duration
	log       zerolog.Logger
}

func NewEventsHandler(notifier ports.Notifier, heartbeat time.Duration, log zerolog.Logger) *EventsHandler {
	return &EventsHandler{notifier: notifier, heartbeat: heartbeat, log: log}
}

// Stream handles GET /api/v1/events. It holds the connection open and
// relays the merchant's realtime events as SSE frames. EventSource cannot
// set headers, which is why JWTAuth also accepts ?token=.
func (h *EventsHandler) Stream(c *gin.Context) {
	merchantID, ok := middleware.MerchantID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	ch := h.notifier.Register(merchantID)
	defer h.notifier.Unregister(merchantID, ch.ID)

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	c.SSEvent(domain.EventConnected, gin.H{"merchant_id": merchantID.String()})
	c.Writer.Flush()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	h.log.Debug().
		Str("merchant_id", merchantID.String()).
		Uint64("channel_id", ch.ID).
		Msg("sse stream opened")

	clientGone := c.Request.Context().Done()
	for {
		select {
		case <-clientGone:
			return
		case <-ticker.C:
			h.notifier.Heartbeat(merchantID, ch.ID)
		case event, open := <-ch.C:
			if !open {
				return
			}
			if event.Name == domain.EventHeartbeat {
				_, _ = c.Writer.WriteString(":keepalive\n\n")
			} else {
				c.SSEvent(event.Name, event.Payload)
			}
			c.Writer.Flush()
		}
	}
}
