package handler

import (
	"net/http"

	"github.com/clearvision/midnight-tickets/config"
	"github.com/clearvision/midnight-tickets/internal/dto"
	"github.com/labstack/echo/v4"
)

type PublicHandler struct {
	pricing config.Pricing
}

func NewPublicHandler(pricing config.Pricing) *PublicHandler {
	return &PublicHandler{pricing: pricing}
}

func (h *PublicHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/api/public/pricing", h.Pricing)
}

func (h *PublicHandler) Pricing(c echo.Context) error {
	p := h.pricing
	return c.JSON(http.StatusOK, dto.PricingResponse{
		Single:   dto.NewPriceResponse(p.SinglePrice(), p.Currency),
		Couple:   dto.NewPriceResponse(p.CouplePrice(), p.Currency),
		Env:      p.Environment,
		TestMode: p.TestMode(),
		Version:  p.Version,
	})
}
