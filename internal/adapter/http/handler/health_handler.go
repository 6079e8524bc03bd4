package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"pix-link-gateway/internal/core/ports"
)

type HealthHandler struct {
	checkers []ports.HealthChecker
}

func NewHealthHandler(checkers ...ports.HealthChecker) *HealthHandler {
	return &HealthHandler{checkers: checkers}
}

// Live handles GET /healthz.
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "up"})
}

// Ready handles GET /readyz. Any failing dependency makes the whole
// endpoint report 503.
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	deps := make(gin.H, len(h.checkers))
	for _, checker := range h.checkers {
		if err := checker.Check(ctx); err != nil {
			deps[checker.Name()] = err.Error()
			status = http.StatusServiceUnavailable
		} else {
			deps[checker.Name()] = "up"
		}
	}

	c.JSON(status, gin.H{"status": http.StatusText(status), "dependencies": deps})
}
