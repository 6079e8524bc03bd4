package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"pix-link-gateway/internal/adapter/http/dto"
	"pix-link-gateway/internal/adapter/http/middleware"
	"pix-link-gateway/internal/core/ports"
	"pix-link-gateway/pkg/apperror"
	"pix-link-gateway/pkg/response"
)

type AuthHandler struct {
	auth ports.AuthService
	log  zerolog.Logger
}

func NewAuthHandler(auth ports.AuthService, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, log: log}
}

// Register handles POST /api/v1/auth/register.
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	result, err := h.auth.Register(c.Request.Context(), ports.RegisterInput{
		Name:          req.Name,
		Email:         req.Email,
		Password:      req.Password,
		StoreName:     req.StoreName,
		MPAccessToken: req.MPAccessToken,
		MPPublicKey:   req.MPPublicKey,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, authResponse(result))
}

// Login handles POST /api/v1/auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	result, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, authResponse(result))
}

// Me handles GET /api/v1/auth/me.
func (h *AuthHandler) Me(c *gin.Context) {
	merchantID, ok := middleware.MerchantID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	merchant, err := h.auth.Profile(c.Request.Context(), merchantID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.NewMerchantResponse(merchant))
}

func authResponse(result *ports.AuthResult) dto.AuthResponse {
	return dto.AuthResponse{
		Merchant:  dto.NewMerchantResponse(result.Merchant),
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt.UTC().Format(time.RFC3339),
	}
}
