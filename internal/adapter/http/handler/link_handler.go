package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"pix-link-gateway/internal/adapter/http/dto"
	"pix-link-gateway/internal/adapter/http/middleware"
	"pix-link-gateway/internal/core/domain"
	"pix-link-gateway/internal/core/ports"
	"pix-link-gateway/pkg/apperror"
	"pix-link-gateway/pkg/response"
)

type LinkHandler struct {
	links ports.LinkService
	log   zerolog.Logger
}

func NewLinkHandler(links ports.LinkService, log zerolog.Logger) *LinkHandler {
	return &LinkHandler{links: links, log: log}
}

// Create handles POST /api/v1/payment-links.
func (h *LinkHandler) Create(c *gin.Context) {
	merchantID, ok := middleware.MerchantID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.CreateLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	link, err := h.links.Create(c.Request.Context(), merchantID, ports.CreateLinkInput{
		Description: req.Title,
		Amount:      decimal.NewFromFloat(req.Amount).Round(2),
		PayerEmail:  req.CustomerEmail,
		PayerName:   req.CustomerName,
		PayerTaxID:  dto.StripCPF(req.CustomerCPF),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.NewLinkResponse(link))
}

// List handles GET /api/v1/payment-links.
func (h *LinkHandler) List(c *gin.Context) {
	merchantID, ok := middleware.MerchantID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var query dto.ListLinksQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	params := ports.LinkListParams{
		MerchantID: merchantID,
		Limit:      query.Limit,
		Offset:     query.Offset,
	}
	if query.Status != "" {
		status := domain.LinkStatus(query.Status)
		params.Status = &status
	}

	links, total, err := h.links.List(c.Request.Context(), params)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.NewListLinksResponse(links, total, query.Limit, query.Offset))
}

// Get handles GET /api/v1/payment-links/:id.
func (h *LinkHandler) Get(c *gin.Context) {
	merchantID, linkID, ok := h.pathIDs(c)
	if !ok {
		return
	}

	link, err := h.links.Get(c.Request.Context(), merchantID, linkID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.NewLinkResponse(link))
}

// Cancel handles POST /api/v1/payment-links/:id/cancel.
func (h *LinkHandler) Cancel(c *gin.Context) {
	merchantID, linkID, ok := h.pathIDs(c)
	if !ok {
		return
	}

	link, err := h.links.Cancel(c.Request.Context(), merchantID, linkID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.NewLinkResponse(link))
}

// CheckStatus handles POST /api/v1/payment-links/:id/check-status.
func (h *LinkHandler) CheckStatus(c *gin.Context) {
	merchantID, linkID, ok := h.pathIDs(c)
	if !ok {
		return
	}

	link, err := h.links.CheckStatus(c.Request.Context(), merchantID, linkID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.NewLinkResponse(link))
}

// Stats handles GET /api/v1/payment-links/stats.
func (h *LinkHandler) Stats(c *gin.Context) {
	merchantID, ok := middleware.MerchantID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	stats, err := h.links.Stats(c.Request.Context(), merchantID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, stats)
}

func (h *LinkHandler) pathIDs(c *gin.Context) (merchantID, linkID uuid.UUID, ok bool) {
	merchantID, ok = middleware.MerchantID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return uuid.Nil, uuid.Nil, false
	}

	linkID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("Invalid link id"))
		return uuid.Nil, uuid.Nil, false
	}
	return merchantID, linkID, true
}
