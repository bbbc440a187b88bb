package handler

import (
	"context"

	"github.com/clearvision/midnight-tickets/internal/models"
	"github.com/clearvision/midnight-tickets/internal/repository"
	"github.com/clearvision/midnight-tickets/internal/service"
)

// --- Mock TicketService ---

type mockTicketService struct {
	registerFn  func(ctx context.Context, in service.RegisterInput) (*models.Ticket, error)
	confirmFn   func(ctx context.Context, ticketID string, opts service.ConfirmOptions) (*service.ConfirmResult, error)
	declineFn   func(ctx context.Context, ticketID string, opts service.DeclineOptions) (*models.Ticket, error)
	checkInFn   func(ctx context.Context, ticketID string, opts service.CheckInOptions) (*models.Ticket, error)
	getFn       func(ctx context.Context, ticketID string) (*models.Ticket, error)
	listFn      func(ctx context.Context, filter repository.TicketFilter) ([]models.Ticket, error)
	statsFn     func(ctx context.Context) (*service.Stats, error)
	verifyFn    func(ctx context.Context, code string) (*service.TicketPayload, error)
	emailLogsFn func(ctx context.Context, ticketID string) ([]models.EmailLog, error)
}

func (m *mockTicketService) Register(ctx context.Context, in service.RegisterInput) (*models.Ticket, error) {
	return m.registerFn(ctx, in)
}
func (m *mockTicketService) ConfirmPayment(ctx context.Context, ticketID string, opts service.ConfirmOptions) (*service.ConfirmResult, error) {
	return m.confirmFn(ctx, ticketID, opts)
}
func (m *mockTicketService) DeclinePayment(ctx context.Context, ticketID string, opts service.DeclineOptions) (*models.Ticket, error) {
	return m.declineFn(ctx, ticketID, opts)
}
func (m *mockTicketService) CheckIn(ctx context.Context, ticketID string, opts service.CheckInOptions) (*models.Ticket, error) {
	return m.checkInFn(ctx, ticketID, opts)
}
func (m *mockTicketService) Get(ctx context.Context, ticketID string) (*models.Ticket, error) {
	return m.getFn(ctx, ticketID)
}
func (m *mockTicketService) List(ctx context.Context, filter repository.TicketFilter) ([]models.Ticket, error) {
	return m.listFn(ctx, filter)
}
func (m *mockTicketService) Stats(ctx context.Context) (*service.Stats, error) {
	return m.statsFn(ctx)
}
func (m *mockTicketService) Verify(ctx context.Context, code string) (*service.TicketPayload, error) {
	return m.verifyFn(ctx, code)
}
func (m *mockTicketService) EmailLogs(ctx context.Context, ticketID string) ([]models.EmailLog, error) {
	return m.emailLogsFn(ctx, ticketID)
}
