package handler

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"pix-link-gateway/internal/core/ports"
)

type WebhookHandler struct {
	reconciler ports.WebhookReconciler
	log        zerolog.Logger
}

func NewWebhookHandler(reconciler ports.WebhookReconciler, log zerolog.Logger) *WebhookHandler {
	return &WebhookHandler{reconciler: reconciler, log: log}
}

// Receive handles POST /api/v1/webhooks/mercadopago. The gateway retries on
// any non-2xx, so this endpoint acknowledges everything it manages to read;
// processing failures are logged and absorbed.
func (h *WebhookHandler) Receive(c *gin.Context) {
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		h.log.Warn().Err(err).Msg("could not read webhook body")
		c.JSON(http.StatusOK, gin.H{"status": "received"})
		return
	}

	if err := h.reconciler.Process(c.Request.Context(), raw); err != nil {
		h.log.Warn().Err(err).Msg("webhook processing failed")
	}

	c.JSON(http.StatusOK, gin.H{"status": "received"})
}
