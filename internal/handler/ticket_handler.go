package handler

import (
	"net/http"
	"strings"

	"github.com/clearvision/midnight-tickets/internal/dto"
	"github.com/clearvision/midnight-tickets/internal/service"
	"github.com/labstack/echo/v4"
)

// TicketHandler serves the public registration and verification endpoints.
type TicketHandler struct {
	svc service.TicketService
}

func NewTicketHandler(svc service.TicketService) *TicketHandler {
	return &TicketHandler{svc: svc}
}

func (h *TicketHandler) RegisterRoutes(e *echo.Echo, mw ...echo.MiddlewareFunc) {
	e.POST("/api/tickets/manual", h.Register, mw...)
	e.POST("/api/tickets/verify", h.Verify, mw...)
	e.GET("/api/verify-ticket/:ticketId", h.VerifyByID, mw...)
}

func (h *TicketHandler) Register(c echo.Context) error {
	var req dto.RegisterRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	ticket, err := h.svc.Register(c.Request().Context(), req.ToInput())
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusCreated, dto.RegisterResponse{TicketID: ticket.TicketID, Status: ticket.Status})
}

func (h *TicketHandler) Verify(c echo.Context) error {
	var req dto.VerifyRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	code := strings.TrimSpace(req.Code)
	if code == "" {
		code = strings.TrimSpace(req.TicketID)
	}
	if code == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Missing ticket code.")
	}
	return h.verify(c, code)
}

func (h *TicketHandler) VerifyByID(c echo.Context) error {
	return h.verify(c, c.Param("ticketId"))
}

func (h *TicketHandler) verify(c echo.Context, code string) error {
	payload, err := h.svc.Verify(c.Request().Context(), code)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, dto.VerifyResponse{Valid: true, Ticket: *payload})
}
