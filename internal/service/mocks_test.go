package service

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/clearvision/midnight-tickets/internal/models"
	"github.com/clearvision/midnight-tickets/internal/notify"
	"github.com/clearvision/midnight-tickets/internal/repository"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// --- Mock TicketRepository ---

type mockTicketRepo struct {
	createFn     func(ctx context.Context, t *models.Ticket) error
	findFn       func(ctx context.Context, ticketID string) (*models.Ticket, error)
	existsFn     func(ctx context.Context, nationalIDs []string) (bool, error)
	paymentFn    func(ctx context.Context, ticketID string, payment models.PaymentInfo) (bool, error)
	transitionFn func(ctx context.Context, ticketID string, from []models.TicketStatus, updates map[string]any) (bool, error)
	listFn       func(ctx context.Context, filter repository.TicketFilter) ([]models.Ticket, error)
	countFn      func(ctx context.Context) (map[models.TicketStatus]int64, error)

	created     []*models.Ticket
	transitions int
	payments    int
}

func (m *mockTicketRepo) Create(ctx context.Context, t *models.Ticket) error {
	m.created = append(m.created, t)
	if m.createFn != nil {
		return m.createFn(ctx, t)
	}
	return nil
}

func (m *mockTicketRepo) FindByTicketID(ctx context.Context, ticketID string) (*models.Ticket, error) {
	if m.findFn != nil {
		return m.findFn(ctx, ticketID)
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockTicketRepo) ExistsByNationalIDs(ctx context.Context, nationalIDs []string) (bool, error) {
	if m.existsFn != nil {
		return m.existsFn(ctx, nationalIDs)
	}
	return false, nil
}

func (m *mockTicketRepo) UpdatePayment(ctx context.Context, ticketID string, payment models.PaymentInfo) (bool, error) {
	m.payments++
	if m.paymentFn != nil {
		return m.paymentFn(ctx, ticketID, payment)
	}
	return true, nil
}

func (m *mockTicketRepo) TransitionStatus(ctx context.Context, ticketID string, from []models.TicketStatus, updates map[string]any) (bool, error) {
	m.transitions++
	if m.transitionFn != nil {
		return m.transitionFn(ctx, ticketID, from, updates)
	}
	return true, nil
}

func (m *mockTicketRepo) List(ctx context.Context, filter repository.TicketFilter) ([]models.Ticket, error) {
	if m.listFn != nil {
		return m.listFn(ctx, filter)
	}
	return nil, nil
}

func (m *mockTicketRepo) CountByStatus(ctx context.Context) (map[models.TicketStatus]int64, error) {
	if m.countFn != nil {
		return m.countFn(ctx)
	}
	return map[models.TicketStatus]int64{}, nil
}

// --- Mock EmailLogRepository ---

type mockEmailLogRepo struct {
	findFn func(ctx context.Context, ticketID string) ([]models.EmailLog, error)
}

func (m *mockEmailLogRepo) Create(ctx context.Context, entry *models.EmailLog) error { return nil }

func (m *mockEmailLogRepo) FindByTicketID(ctx context.Context, ticketID string) ([]models.EmailLog, error) {
	if m.findFn != nil {
		return m.findFn(ctx, ticketID)
	}
	return nil, nil
}

// --- Mock Sender ---

type mockSender struct {
	sendFn func(ctx context.Context, email notify.Email) error
	sent   []notify.Email
}

func (m *mockSender) Send(ctx context.Context, email notify.Email) error {
	m.sent = append(m.sent, email)
	if m.sendFn != nil {
		return m.sendFn(ctx, email)
	}
	return nil
}

func (m *mockSender) recipients() []string {
	out := make([]string, 0, len(m.sent))
	for _, e := range m.sent {
		out = append(out, e.To)
	}
	return out
}

// --- Mock QREncoder ---

type mockQR struct {
	payloads []any
}

func (m *mockQR) PNG(payload any) ([]byte, error) {
	m.payloads = append(m.payloads, payload)
	return []byte("png"), nil
}

func (m *mockQR) DataURL(payload any) (string, error) {
	m.payloads = append(m.payloads, payload)
	return "data:image/png;base64,cG5n", nil
}

// --- Mock EventPublisher ---

type publishedEvent struct {
	key     string
	payload any
}

type mockPublisher struct {
	events []publishedEvent
	err    error
}

func (m *mockPublisher) Publish(ctx context.Context, routingKey string, payload any) error {
	m.events = append(m.events, publishedEvent{key: routingKey, payload: payload})
	return m.err
}

// --- Stored ticket row ---

// storedTicket behaves like a single database row: reads return a copy and
// writes honour the same WHERE clauses as the gorm repository.
type storedTicket struct {
	mu  sync.Mutex
	row models.Ticket
}

func (s *storedTicket) snapshot() models.Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.row
}

func (s *storedTicket) bind(m *mockTicketRepo) {
	m.findFn = func(ctx context.Context, ticketID string) (*models.Ticket, error) {
		if ticketID != s.snapshot().TicketID {
			return nil, gorm.ErrRecordNotFound
		}
		row := s.snapshot()
		row.Attendees = slices.Clone(row.Attendees)
		row.History = slices.Clone(row.History)
		return &row, nil
	}
	m.transitionFn = func(ctx context.Context, ticketID string, from []models.TicketStatus, updates map[string]any) (bool, error) {
		s.mu.Lock()
		defer s.mu.Unlock()
		if !slices.Contains(from, s.row.Status) {
			return false, nil
		}
		for col, v := range updates {
			switch col {
			case "status":
				s.row.Status = v.(models.TicketStatus)
			case "checked_in":
				s.row.CheckedIn = v.(bool)
			case "checked_in_at":
				at := v.(time.Time)
				s.row.CheckedInAt = &at
			case "qr_code":
				s.row.QRCode = v.(string)
			case "payment_changed_at":
				at := v.(time.Time)
				s.row.Payment.ChangedAt = &at
			case "payment_history":
				s.row.History = slices.Clone(v.(datatypes.JSONSlice[models.PaymentEvent]))
			}
		}
		return true, nil
	}
	m.paymentFn = func(ctx context.Context, ticketID string, payment models.PaymentInfo) (bool, error) {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.row.Status != models.StatusPaid {
			return false, nil
		}
		s.row.Payment = payment
		return true, nil
	}
}
