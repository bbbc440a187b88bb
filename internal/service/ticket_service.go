package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/clearvision/midnight-tickets/internal/metrics"
	"github.com/clearvision/midnight-tickets/internal/models"
	"github.com/clearvision/midnight-tickets/internal/nationalid"
	"github.com/clearvision/midnight-tickets/internal/notify"
	"github.com/clearvision/midnight-tickets/internal/repository"
	"github.com/clearvision/midnight-tickets/pkg/mailer"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
)

const (
	historyMarkedPaid   = "admin_marked_paid"
	historyResentTicket = "admin_resent_ticket"
	historyDeclined     = "admin_declined"

	confirmationSubject = "Your QR Ticket - Clear Vision"
	rejectionSubject    = "Midnight Madness Ticket Update"
)

// reopenable are the states an admin may confirm or decline from. used is
// terminal.
var reopenable = []models.TicketStatus{models.StatusPendingPayment, models.StatusPaid}

type TicketService interface {
	Register(ctx context.Context, in RegisterInput) (*models.Ticket, error)
	ConfirmPayment(ctx context.Context, ticketID string, opts ConfirmOptions) (*ConfirmResult, error)
	DeclinePayment(ctx context.Context, ticketID string, opts DeclineOptions) (*models.Ticket, error)
	CheckIn(ctx context.Context, ticketID string, opts CheckInOptions) (*models.Ticket, error)
	Get(ctx context.Context, ticketID string) (*models.Ticket, error)
	List(ctx context.Context, filter repository.TicketFilter) ([]models.Ticket, error)
	Stats(ctx context.Context) (*Stats, error)
	Verify(ctx context.Context, code string) (*TicketPayload, error)
	EmailLogs(ctx context.Context, ticketID string) ([]models.EmailLog, error)
}

// EventPublisher is satisfied by *rabbitmq.Publisher.
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, payload any) error
}

// QREncoder is satisfied by *qr.Encoder.
type QREncoder interface {
	PNG(payload any) ([]byte, error)
	DataURL(payload any) (string, error)
}

// Actor identifies who triggered an admin transition. It ends up in the
// payment history.
type Actor struct {
	Name      string
	IP        string
	UserAgent string
}

type ConfirmOptions struct {
	Note   string
	Resend bool
	Actor  Actor
}

type ConfirmResult struct {
	Ticket      *models.Ticket
	AlreadyPaid bool
	SentTo      []string
	Message     string
	// EmailError is a KindEmailDelivery error when at least one email failed.
	EmailError error
}

type DeclineOptions struct {
	Reason string
	Actor  Actor
}

type CheckInOptions struct {
	// NationalID, when set, must belong to one of the ticket's attendees.
	NationalID string
	Actor      Actor
}

type Stats struct {
	Pending int64 `json:"pending"`
	Paid    int64 `json:"paid"`
	Used    int64 `json:"used"`
	Total   int64 `json:"total"`
}

type Options struct {
	StrictIDValidation bool
	IDChecksum         bool
	// VerifyURL builds the public verification link embedded in QR codes.
	VerifyURL func(ticketID string) string
}

type Deps struct {
	Tickets   repository.TicketRepository
	EmailLogs repository.EmailLogRepository
	Sender    notify.Sender
	QR        QREncoder
	Publisher EventPublisher
	Parser    *nationalid.Parser
	Metrics   *metrics.Metrics
}

type ticketService struct {
	tickets   repository.TicketRepository
	emailLogs repository.EmailLogRepository
	sender    notify.Sender
	qr        QREncoder
	publisher EventPublisher
	parser    *nationalid.Parser
	metrics   *metrics.Metrics
	opts      Options
	logger    *slog.Logger
	now       func() time.Time
}

func NewTicketService(deps Deps, opts Options) TicketService {
	s := &ticketService{
		tickets:   deps.Tickets,
		emailLogs: deps.EmailLogs,
		sender:    deps.Sender,
		qr:        deps.QR,
		publisher: deps.Publisher,
		parser:    deps.Parser,
		metrics:   deps.Metrics,
		opts:      opts,
		logger:    slog.Default().With("component", "ticket-service"),
		now:       time.Now,
	}
	if s.parser == nil {
		s.parser = nationalid.NewParser()
	}
	if s.metrics == nil {
		s.metrics = metrics.New(prometheus.NewRegistry())
	}
	if s.opts.VerifyURL == nil {
		s.opts.VerifyURL = func(string) string { return "" }
	}
	return s
}

func (s *ticketService) Register(ctx context.Context, in RegisterInput) (*models.Ticket, error) {
	ticket, err := s.register(ctx, in)
	if err != nil {
		var se *Error
		if errors.As(err, &se) {
			s.metrics.RegistrationErrors.WithLabelValues(string(se.Kind)).Inc()
		}
		return nil, err
	}
	s.metrics.Registrations.WithLabelValues(string(ticket.PackageType)).Inc()
	s.logger.InfoContext(ctx, "ticket registered",
		"ticket_id", ticket.TicketID, "package", ticket.PackageType)
	s.publish(ctx, EventRegistered, ticket, "", "")
	return ticket, nil
}

func (s *ticketService) register(ctx context.Context, in RegisterInput) (*models.Ticket, error) {
	pkg := models.PackageType(strings.ToLower(strings.TrimSpace(in.PackageType)))
	attendees, err := s.buildAttendees(pkg, in.Attendees)
	if err != nil {
		return nil, err
	}

	nationalIDs := make([]string, 0, len(attendees))
	emails := make([]string, 0, len(attendees)+1)
	contact := cleanEmail(in.ContactEmail)
	if contact == "" {
		contact = attendees[0].Email
	}
	emails = append(emails, contact)
	for _, a := range attendees {
		nationalIDs = append(nationalIDs, a.NationalID)
		emails = append(emails, a.Email)
	}

	// Fast path only. The unique index on attendees.national_id catches
	// whatever slips between this check and the insert.
	exists, err := s.tickets.ExistsByNationalIDs(ctx, nationalIDs)
	if err != nil {
		return nil, persistenceError(err)
	}
	if exists {
		return nil, ErrDuplicateRegistration
	}

	ticket := &models.Ticket{
		TicketID:      newTicketID(s.now()),
		PackageType:   pkg,
		ContactEmail:  contact,
		ContactEmails: dedupe(emails...),
		PaymentNote:   strings.TrimSpace(in.PaymentNote),
		Status:        models.StatusPendingPayment,
		Attendees:     attendees,
	}
	for i := range ticket.Attendees {
		ticket.Attendees[i].TicketID = ticket.TicketID
	}

	if err := s.tickets.Create(ctx, ticket); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrDuplicateRegistration
		}
		return nil, persistenceError(err)
	}
	return ticket, nil
}

func (s *ticketService) ConfirmPayment(ctx context.Context, ticketID string, opts ConfirmOptions) (*ConfirmResult, error) {
	ticket, err := s.load(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	switch ticket.Status {
	case models.StatusUsed:
		return nil, ErrTicketUsed
	case models.StatusPaid:
		if !opts.Resend {
			s.logger.InfoContext(ctx, "payment confirmation skipped, ticket already paid", "ticket_id", ticket.TicketID)
			return &ConfirmResult{Ticket: ticket, AlreadyPaid: true, Message: "Already paid."}, nil
		}
	}

	wasPaid := ticket.Status == models.StatusPaid
	event := historyMarkedPaid
	if wasPaid {
		event = historyResentTicket
	}

	now := s.now()
	verifyURL := s.opts.VerifyURL(ticket.TicketID)
	ticketQR := NewTicketPayload(ticket, verifyURL)
	dataURL, err := s.qr.DataURL(ticketQR)
	if err != nil {
		return nil, fmt.Errorf("generate ticket qr: %w", err)
	}

	ticket.AppendHistory(models.PaymentEvent{
		Event:     event,
		Status:    string(models.StatusPaid),
		Note:      strings.TrimSpace(opts.Note),
		Actor:     opts.Actor.Name,
		IP:        opts.Actor.IP,
		UserAgent: opts.Actor.UserAgent,
		CreatedAt: now,
	})
	changed, err := s.tickets.TransitionStatus(ctx, ticket.TicketID, reopenable, map[string]any{
		"status":             models.StatusPaid,
		"qr_code":            dataURL,
		"payment_changed_at": now,
		"payment_history":    ticket.History,
	})
	if err != nil {
		return nil, persistenceError(err)
	}
	if !changed {
		// Checked in since it was loaded.
		return nil, ErrTicketUsed
	}
	ticket.Status = models.StatusPaid
	ticket.QRCode = dataURL
	ticket.Payment.ChangedAt = &now
	s.metrics.Transitions.WithLabelValues(event).Inc()

	sentTo, sendErr := s.sendConfirmations(ctx, ticket, ticketQR, verifyURL)

	done := s.now()
	ticket.Payment.ChangedAt = &done
	var emailErr error
	if sendErr != nil {
		emailErr = emailDeliveryError(sendErr)
		ticket.Payment.LastEmailError = sendErr.Error()
	} else {
		ticket.Payment.LastEmailError = ""
		ticket.Payment.EmailSentAt = &done
	}
	recorded, err := s.tickets.UpdatePayment(ctx, ticket.TicketID, ticket.Payment)
	switch {
	case err != nil:
		s.logger.ErrorContext(ctx, "failed to record email outcome", "ticket_id", ticket.TicketID, "error", err)
	case !recorded:
		s.logger.InfoContext(ctx, "ticket left paid while emails were sent, outcome not recorded", "ticket_id", ticket.TicketID)
	}

	s.logger.InfoContext(ctx, "payment manually confirmed",
		"ticket_id", ticket.TicketID, "resend", wasPaid, "sent_to", len(sentTo))
	s.publish(ctx, EventPaid, ticket, opts.Note, opts.Actor.Name)

	msg := "Marked paid and email sent."
	switch {
	case sendErr != nil:
		msg = "Marked paid, but email delivery failed."
	case wasPaid:
		msg = "Ticket email resent."
	}
	return &ConfirmResult{Ticket: ticket, AlreadyPaid: wasPaid, SentTo: sentTo, Message: msg, EmailError: emailErr}, nil
}

// sendConfirmations mails each attendee a QR unique to them, and any contact
// address that is not an attendee the ticket level QR. It keeps going after a
// failure and returns the last error.
func (s *ticketService) sendConfirmations(ctx context.Context, ticket *models.Ticket, ticketQR TicketPayload, verifyURL string) ([]string, error) {
	lines := make([]notify.AttendeeLine, 0, len(ticket.Attendees))
	for _, a := range ticket.Attendees {
		lines = append(lines, notify.AttendeeLine{FullName: a.FullName})
	}

	var (
		sentTo  []string
		lastErr error
	)
	deliver := func(to, name string, payload any, attachment string) {
		err := s.sendConfirmation(ctx, ticket, to, name, lines, payload, attachment, verifyURL)
		if err != nil {
			lastErr = err
			return
		}
		sentTo = append(sentTo, to)
	}

	attendeeEmails := make(map[string]struct{}, len(ticket.Attendees))
	for i, a := range ticket.Attendees {
		if a.Email == "" {
			continue
		}
		attendeeEmails[a.Email] = struct{}{}
		payload := AttendeePayload{
			TicketID:   ticket.TicketID,
			NationalID: a.NationalID,
			Index:      i + 1,
			VerifyURL:  verifyURL,
		}
		deliver(a.Email, a.FullName, payload, fmt.Sprintf("ticket-%s-%d.png", ticket.TicketID, i+1))
	}

	for _, to := range ticket.RecipientEmails() {
		if _, ok := attendeeEmails[to]; ok {
			continue
		}
		deliver(to, ticket.PrimaryName(), ticketQR, fmt.Sprintf("ticket-%s.png", ticket.TicketID))
	}
	return sentTo, lastErr
}

func (s *ticketService) sendConfirmation(ctx context.Context, ticket *models.Ticket, to, name string, lines []notify.AttendeeLine, payload any, filename, verifyURL string) error {
	png, err := s.qr.PNG(payload)
	if err != nil {
		return fmt.Errorf("generate qr for %s: %w", to, err)
	}
	html, err := notify.RenderConfirmation(notify.ConfirmationData{
		Name:        name,
		TicketID:    ticket.TicketID,
		PackageType: string(ticket.PackageType),
		Attendees:   lines,
		TicketURL:   verifyURL,
	})
	if err != nil {
		return fmt.Errorf("render confirmation: %w", err)
	}
	return s.sender.Send(ctx, notify.Email{
		Message: mailer.Message{
			To:      to,
			Subject: confirmationSubject,
			HTML:    html,
			Attachments: []mailer.Attachment{
				{Filename: filename, ContentType: "image/png", Content: png},
			},
		},
		TicketID: ticket.TicketID,
		Template: notify.TemplateConfirmation,
	})
}

func (s *ticketService) DeclinePayment(ctx context.Context, ticketID string, opts DeclineOptions) (*models.Ticket, error) {
	ticket, err := s.load(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.Status == models.StatusUsed {
		return nil, ErrTicketUsed
	}

	reason := strings.TrimSpace(opts.Reason)
	now := s.now()
	ticket.AppendHistory(models.PaymentEvent{
		Event:     historyDeclined,
		Status:    "failed",
		Note:      reason,
		Actor:     opts.Actor.Name,
		IP:        opts.Actor.IP,
		UserAgent: opts.Actor.UserAgent,
		CreatedAt: now,
	})
	changed, err := s.tickets.TransitionStatus(ctx, ticket.TicketID, reopenable, map[string]any{
		"status":             models.StatusPendingPayment,
		"qr_code":            "",
		"payment_changed_at": now,
		"payment_history":    ticket.History,
	})
	if err != nil {
		return nil, persistenceError(err)
	}
	if !changed {
		return nil, ErrTicketUsed
	}
	ticket.Status = models.StatusPendingPayment
	ticket.QRCode = ""
	ticket.Payment.ChangedAt = &now
	s.metrics.Transitions.WithLabelValues(historyDeclined).Inc()

	html, err := notify.RenderRejection(notify.RejectionData{
		Name:     ticket.PrimaryName(),
		TicketID: ticket.TicketID,
		Reason:   reason,
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to render rejection email", "ticket_id", ticket.TicketID, "error", err)
	} else {
		for _, to := range ticket.RecipientEmails() {
			err := s.sender.Send(ctx, notify.Email{
				Message:  mailer.Message{To: to, Subject: rejectionSubject, HTML: html},
				TicketID: ticket.TicketID,
				Template: notify.TemplateRejection,
			})
			if err != nil {
				s.logger.ErrorContext(ctx, "decline email failed", "ticket_id", ticket.TicketID, "error", err)
			}
		}
	}

	s.logger.InfoContext(ctx, "payment manually declined", "ticket_id", ticket.TicketID, "reason", reason)
	s.publish(ctx, EventDeclined, ticket, reason, opts.Actor.Name)
	return ticket, nil
}

func (s *ticketService) CheckIn(ctx context.Context, ticketID string, opts CheckInOptions) (*models.Ticket, error) {
	ticket, err := s.load(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	if nid := strings.TrimSpace(opts.NationalID); nid != "" && !hasAttendee(ticket, nid) {
		return nil, ErrAttendeeMismatch
	}

	if ticket.Status == models.StatusUsed || ticket.CheckedIn {
		return nil, ErrAlreadyCheckedIn
	}
	if ticket.Status != models.StatusPaid {
		return nil, ErrNotValidForCheckIn
	}

	now := s.now()
	changed, err := s.tickets.TransitionStatus(ctx, ticket.TicketID,
		[]models.TicketStatus{models.StatusPaid},
		map[string]any{"status": models.StatusUsed, "checked_in": true, "checked_in_at": now},
	)
	if err != nil {
		return nil, persistenceError(err)
	}
	if !changed {
		// Another scan won the race.
		return nil, ErrAlreadyCheckedIn
	}

	ticket.Status = models.StatusUsed
	ticket.CheckedIn = true
	ticket.CheckedInAt = &now
	s.metrics.Transitions.WithLabelValues("check_in").Inc()
	s.logger.InfoContext(ctx, "ticket checked in", "ticket_id", ticket.TicketID)
	s.publish(ctx, EventCheckedIn, ticket, "", opts.Actor.Name)
	return ticket, nil
}

func (s *ticketService) Get(ctx context.Context, ticketID string) (*models.Ticket, error) {
	return s.load(ctx, ticketID)
}

func (s *ticketService) List(ctx context.Context, filter repository.TicketFilter) ([]models.Ticket, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, &Error{Kind: KindValidation, Message: fmt.Sprintf("Unknown status %q.", filter.Status)}
	}
	tickets, err := s.tickets.List(ctx, filter)
	if err != nil {
		return nil, persistenceError(err)
	}
	return tickets, nil
}

func (s *ticketService) Stats(ctx context.Context) (*Stats, error) {
	counts, err := s.tickets.CountByStatus(ctx)
	if err != nil {
		return nil, persistenceError(err)
	}
	st := &Stats{
		Pending: counts[models.StatusPendingPayment],
		Paid:    counts[models.StatusPaid],
		Used:    counts[models.StatusUsed],
	}
	st.Total = st.Pending + st.Paid + st.Used
	return st, nil
}

// Verify resolves a scanned code or bare ticket id. Only paid tickets are
// reported; anything else looks like an unknown ticket to the public.
func (s *ticketService) Verify(ctx context.Context, code string) (*TicketPayload, error) {
	ticket, err := s.load(ctx, TicketIDFromCode(code))
	if err != nil {
		return nil, err
	}
	if ticket.Status != models.StatusPaid {
		return nil, ErrNotFound
	}
	p := NewTicketPayload(ticket, s.opts.VerifyURL(ticket.TicketID))
	return &p, nil
}

func (s *ticketService) EmailLogs(ctx context.Context, ticketID string) ([]models.EmailLog, error) {
	ticket, err := s.load(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	logs, err := s.emailLogs.FindByTicketID(ctx, ticket.TicketID)
	if err != nil {
		return nil, persistenceError(err)
	}
	return logs, nil
}

func (s *ticketService) load(ctx context.Context, ticketID string) (*models.Ticket, error) {
	ticketID = strings.TrimSpace(ticketID)
	if ticketID == "" {
		return nil, ErrTicketIDRequired
	}
	ticket, err := s.tickets.FindByTicketID(ctx, ticketID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, persistenceError(err)
	}
	return ticket, nil
}

// publish is best effort: the state change has already been committed.
func (s *ticketService) publish(ctx context.Context, key string, ticket *models.Ticket, note, actor string) {
	if s.publisher == nil {
		return
	}
	err := s.publisher.Publish(ctx, key, TicketEvent{
		TicketID:    ticket.TicketID,
		Status:      ticket.Status,
		PackageType: ticket.PackageType,
		Note:        note,
		Actor:       actor,
		OccurredAt:  s.now(),
	})
	if err != nil {
		s.logger.WarnContext(ctx, "failed to publish ticket event", "routing_key", key, "ticket_id", ticket.TicketID, "error", err)
	}
}

func hasAttendee(t *models.Ticket, nationalID string) bool {
	for _, a := range t.Attendees {
		if a.NationalID == nationalID {
			return true
		}
	}
	return false
}
