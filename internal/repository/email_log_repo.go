package repository

import (
	"context"

	"github.com/clearvision/midnight-tickets/internal/models"
	"gorm.io/gorm"
)

type EmailLogRepository interface {
	Create(ctx context.Context, entry *models.EmailLog) error
	FindByTicketID(ctx context.Context, ticketID string) ([]models.EmailLog, error)
}

type emailLogRepository struct {
	db *gorm.DB
}

func NewEmailLogRepository(db *gorm.DB) EmailLogRepository {
	return &emailLogRepository{db: db}
}

func (r *emailLogRepository) Create(ctx context.Context, entry *models.EmailLog) error {
	ctx, span := tracer.Start(ctx, "EmailLogRepository.Create")
	defer span.End()

	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *emailLogRepository) FindByTicketID(ctx context.Context, ticketID string) ([]models.EmailLog, error) {
	ctx, span := tracer.Start(ctx, "EmailLogRepository.FindByTicketID")
	defer span.End()

	var logs []models.EmailLog
	if err := r.db.WithContext(ctx).Where("ticket_id = ?", ticketID).Order("id ASC").Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}
