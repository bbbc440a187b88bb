package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/clearvision/midnight-tickets/internal/auth"
	"github.com/clearvision/midnight-tickets/internal/dto"
	"github.com/clearvision/midnight-tickets/internal/middleware"
	"github.com/clearvision/midnight-tickets/internal/models"
	"github.com/clearvision/midnight-tickets/internal/repository"
	"github.com/clearvision/midnight-tickets/internal/service"
	"github.com/labstack/echo/v4"
)

type AdminHandler struct {
	svc  service.TicketService
	auth *auth.Service
}

func NewAdminHandler(svc service.TicketService, a *auth.Service) *AdminHandler {
	return &AdminHandler{svc: svc, auth: a}
}

// RegisterRoutes mounts login (guarded only by loginMw, typically the rate
// limiter) and the authenticated admin group.
func (h *AdminHandler) RegisterRoutes(e *echo.Echo, loginMw ...echo.MiddlewareFunc) {
	e.POST("/api/admin/login", h.Login, loginMw...)

	admin := e.Group("/api/admin", middleware.AdminAuth(h.auth))
	admin.GET("/tickets", h.ListTickets)
	admin.GET("/tickets/pending", h.ListPending)
	admin.GET("/tickets/paid", h.ListPaid)
	admin.GET("/tickets/stats", h.Stats)
	admin.GET("/tickets/:ticketId", h.GetTicket)
	admin.GET("/tickets/:ticketId/emails", h.EmailLogs)
	admin.POST("/tickets/:ticketId/check-in", h.CheckIn)
	admin.POST("/confirm-payment", h.ConfirmPayment)
	admin.POST("/decline-payment", h.DeclinePayment)
}

func (h *AdminHandler) Login(c echo.Context) error {
	var req dto.LoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	token, expires, err := h.auth.Login(req.APIKey)
	switch {
	case errors.Is(err, auth.ErrTokensDisabled):
		return echo.NewHTTPError(http.StatusServiceUnavailable, "Admin login is not configured.")
	case err != nil:
		return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
	}

	return c.JSON(http.StatusOK, dto.LoginResponse{Token: token, ExpiresAt: expires})
}

func (h *AdminHandler) ListTickets(c echo.Context) error {
	return h.list(c, models.TicketStatus(strings.TrimSpace(c.QueryParam("status"))))
}

func (h *AdminHandler) ListPending(c echo.Context) error {
	return h.list(c, models.StatusPendingPayment)
}

func (h *AdminHandler) ListPaid(c echo.Context) error {
	return h.list(c, models.StatusPaid)
}

func (h *AdminHandler) list(c echo.Context, status models.TicketStatus) error {
	tickets, err := h.svc.List(c.Request().Context(), repository.TicketFilter{
		Status: status,
		Search: c.QueryParam("search"),
	})
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, dto.ToTicketListResponse(tickets))
}

func (h *AdminHandler) Stats(c echo.Context) error {
	stats, err := h.svc.Stats(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, stats)
}

func (h *AdminHandler) GetTicket(c echo.Context) error {
	ticket, err := h.svc.Get(c.Request().Context(), c.Param("ticketId"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, dto.ToTicketResponse(ticket))
}

func (h *AdminHandler) EmailLogs(c echo.Context) error {
	logs, err := h.svc.EmailLogs(c.Request().Context(), c.Param("ticketId"))
	if err != nil {
		return httpError(err)
	}
	if logs == nil {
		logs = []models.EmailLog{}
	}
	return c.JSON(http.StatusOK, logs)
}

func (h *AdminHandler) ConfirmPayment(c echo.Context) error {
	var req dto.ConfirmPaymentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	res, err := h.svc.ConfirmPayment(c.Request().Context(), req.TicketID, service.ConfirmOptions{
		Note:   req.Note,
		Resend: req.Resend,
		Actor:  actor(c),
	})
	if err != nil {
		return httpError(err)
	}

	sentTo := res.SentTo
	if sentTo == nil {
		sentTo = []string{}
	}
	resp := dto.ConfirmPaymentResponse{
		Message:     res.Message,
		TicketID:    res.Ticket.TicketID,
		Status:      res.Ticket.Status,
		AlreadyPaid: res.AlreadyPaid,
		SentTo:      sentTo,
	}
	var se *service.Error
	if errors.As(res.EmailError, &se) {
		resp.EmailError = se.Message
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *AdminHandler) DeclinePayment(c echo.Context) error {
	var req dto.DeclinePaymentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	ticket, err := h.svc.DeclinePayment(c.Request().Context(), req.TicketID, service.DeclineOptions{
		Reason: req.Reason,
		Actor:  actor(c),
	})
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, dto.DeclinePaymentResponse{
		Message:  "Payment declined.",
		TicketID: ticket.TicketID,
		Status:   ticket.Status,
	})
}

func (h *AdminHandler) CheckIn(c echo.Context) error {
	// The body is optional; door staff may send the scanned national ID.
	var req dto.CheckInRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	ticket, err := h.svc.CheckIn(c.Request().Context(), c.Param("ticketId"), service.CheckInOptions{
		NationalID: req.NationalID,
		Actor:      actor(c),
	})
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, dto.CheckInResponse{
		Message:     "Checked in.",
		TicketID:    ticket.TicketID,
		Status:      ticket.Status,
		CheckedInAt: ticket.CheckedInAt,
	})
}

func actor(c echo.Context) service.Actor {
	return service.Actor{
		Name:      middleware.AdminName(c),
		IP:        c.RealIP(),
		UserAgent: c.Request().UserAgent(),
	}
}
