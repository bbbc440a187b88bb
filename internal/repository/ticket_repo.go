package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/clearvision/midnight-tickets/internal/models"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"
)

// ErrDuplicate is returned when an insert hits a unique index
// (ticket id or attendee national id).
var ErrDuplicate = errors.New("duplicate key")

type TicketFilter struct {
	Status models.TicketStatus
	Search string
}

type TicketRepository interface {
	Create(ctx context.Context, ticket *models.Ticket) error
	FindByTicketID(ctx context.Context, ticketID string) (*models.Ticket, error)
	ExistsByNationalIDs(ctx context.Context, nationalIDs []string) (bool, error)
	UpdatePayment(ctx context.Context, ticketID string, payment models.PaymentInfo) (bool, error)
	TransitionStatus(ctx context.Context, ticketID string, from []models.TicketStatus, updates map[string]any) (bool, error)
	List(ctx context.Context, filter TicketFilter) ([]models.Ticket, error)
	CountByStatus(ctx context.Context) (map[models.TicketStatus]int64, error)
}

type ticketRepository struct {
	db *gorm.DB
}

func NewTicketRepository(db *gorm.DB) TicketRepository {
	return &ticketRepository{db: db}
}

// Create inserts the ticket and its attendees in one transaction.
func (r *ticketRepository) Create(ctx context.Context, ticket *models.Ticket) error {
	ctx, span := tracer.Start(ctx, "TicketRepository.Create")
	defer span.End()
	span.SetAttributes(attribute.String("ticket.id", ticket.TicketID))

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(ticket).Error
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) || isUniqueViolation(err) {
		span.AddEvent("unique index violated")
		return ErrDuplicate
	}
	if err != nil {
		span.RecordError(err)
	}
	return err
}

func (r *ticketRepository) FindByTicketID(ctx context.Context, ticketID string) (*models.Ticket, error) {
	ctx, span := tracer.Start(ctx, "TicketRepository.FindByTicketID")
	defer span.End()

	var ticket models.Ticket
	err := r.db.WithContext(ctx).
		Preload("Attendees", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Where("ticket_id = ?", ticketID).
		First(&ticket).Error
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

// ExistsByNationalIDs is the fast-path duplicate check run before insert.
func (r *ticketRepository) ExistsByNationalIDs(ctx context.Context, nationalIDs []string) (bool, error) {
	ctx, span := tracer.Start(ctx, "TicketRepository.ExistsByNationalIDs")
	defer span.End()

	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Attendee{}).
		Where("national_id IN ?", nationalIDs).
		Count(&count).Error
	return count > 0, err
}

// UpdatePayment writes only the payment_* email bookkeeping columns, and only
// while the ticket is still paid. Status and check-in columns are never
// touched, so a check-in that lands while emails are being sent survives.
func (r *ticketRepository) UpdatePayment(ctx context.Context, ticketID string, payment models.PaymentInfo) (bool, error) {
	ctx, span := tracer.Start(ctx, "TicketRepository.UpdatePayment")
	defer span.End()
	span.SetAttributes(attribute.String("ticket.id", ticketID))

	res := r.db.WithContext(ctx).
		Model(&models.Ticket{}).
		Where("ticket_id = ? AND status = ?", ticketID, models.StatusPaid).
		Updates(map[string]any{
			"payment_email_sent_at":    payment.EmailSentAt,
			"payment_changed_at":       payment.ChangedAt,
			"payment_last_email_error": payment.LastEmailError,
		})
	if res.Error != nil {
		span.RecordError(res.Error)
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// TransitionStatus applies updates only if the ticket is currently in one of
// the from states. It reports whether a row changed.
func (r *ticketRepository) TransitionStatus(ctx context.Context, ticketID string, from []models.TicketStatus, updates map[string]any) (bool, error) {
	ctx, span := tracer.Start(ctx, "TicketRepository.TransitionStatus")
	defer span.End()

	res := r.db.WithContext(ctx).
		Model(&models.Ticket{}).
		Where("ticket_id = ? AND status IN ?", ticketID, from).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *ticketRepository) List(ctx context.Context, filter TicketFilter) ([]models.Ticket, error) {
	ctx, span := tracer.Start(ctx, "TicketRepository.List")
	defer span.End()

	q := r.db.WithContext(ctx).
		Preload("Attendees", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") })
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		like := "%" + escapeLike(s) + "%"
		q = q.Where(
			"ticket_id ILIKE ? OR contact_email ILIKE ? OR ticket_id IN (?)",
			like, like,
			r.db.Model(&models.Attendee{}).Select("ticket_id").
				Where("full_name ILIKE ? OR email ILIKE ? OR national_id LIKE ?", like, like, like),
		)
	}

	var tickets []models.Ticket
	if err := q.Order("created_at DESC").Find(&tickets).Error; err != nil {
		return nil, err
	}
	return tickets, nil
}

func (r *ticketRepository) CountByStatus(ctx context.Context) (map[models.TicketStatus]int64, error) {
	ctx, span := tracer.Start(ctx, "TicketRepository.CountByStatus")
	defer span.End()

	var rows []struct {
		Status models.TicketStatus
		Count  int64
	}
	err := r.db.WithContext(ctx).
		Model(&models.Ticket{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make(map[models.TicketStatus]int64, len(rows))
	for _, row := range rows {
		out[row.Status] = row.Count
	}
	return out, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// isUniqueViolation catches SQLSTATE 23505 when the dialector does not
// translate errors.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "SQLSTATE 23505")
}
