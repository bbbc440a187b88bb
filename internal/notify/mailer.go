// Package notify sends transactional ticket emails with retries and an
// audit trail of every attempt.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/clearvision/midnight-tickets/internal/metrics"
	"github.com/clearvision/midnight-tickets/internal/models"
	"github.com/clearvision/midnight-tickets/internal/repository"
	"github.com/clearvision/midnight-tickets/internal/retry"
	"github.com/clearvision/midnight-tickets/pkg/mailer"
)

type Email struct {
	mailer.Message
	TicketID string
	Template string
}

// DeliveryError is returned once every attempt has failed.
type DeliveryError struct {
	To       string
	Attempts int
	Err      error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("email to %s failed after %d attempts: %v", e.To, e.Attempts, e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

type Sender interface {
	Send(ctx context.Context, email Email) error
}

type Mailer struct {
	transport mailer.Transport
	logs      repository.EmailLogRepository
	policy    retry.Policy
	metrics   *metrics.Metrics
	logger    *slog.Logger
	now       func() time.Time
}

func NewMailer(transport mailer.Transport, logs repository.EmailLogRepository, policy retry.Policy, m *metrics.Metrics) *Mailer {
	return &Mailer{
		transport: transport,
		logs:      logs,
		policy:    policy,
		metrics:   m,
		logger:    slog.Default().With("component", "mailer"),
		now:       time.Now,
	}
}

// Send delivers email, logging each attempt to the email log whatever the
// outcome. An empty recipient is skipped silently.
func (m *Mailer) Send(ctx context.Context, email Email) error {
	if email.To == "" {
		m.logger.WarnContext(ctx, "email destination missing, skipping send", "template", email.Template)
		return nil
	}

	attempts := 0
	err := m.policy.Do(ctx, func(ctx context.Context, attempt int) error {
		attempts = attempt
		sendErr := m.transport.Send(ctx, email.Message)
		m.record(ctx, email, attempt, sendErr)
		if sendErr != nil {
			m.logger.WarnContext(ctx, "email send failed",
				"to", email.To, "template", email.Template, "attempt", attempt, "error", sendErr)
			return sendErr
		}
		if attempt > 1 {
			m.logger.InfoContext(ctx, "email send succeeded after retry",
				"to", email.To, "template", email.Template, "attempt", attempt)
		}
		return nil
	})
	if err != nil {
		m.logger.ErrorContext(ctx, "email send failed after retries",
			"to", email.To, "template", email.Template, "error", err)
		return &DeliveryError{To: email.To, Attempts: attempts, Err: err}
	}
	return nil
}

func (m *Mailer) record(ctx context.Context, email Email, attempt int, sendErr error) {
	entry := &models.EmailLog{
		TicketID: email.TicketID,
		To:       email.To,
		Subject:  email.Subject,
		Template: email.Template,
		Status:   models.EmailSuccess,
		Attempt:  attempt,
		SentAt:   m.now(),
	}
	if sendErr != nil {
		entry.Status = models.EmailFailed
		entry.Error = sendErr.Error()
	}
	if m.metrics != nil {
		m.metrics.EmailAttempts.WithLabelValues(email.Template, string(entry.Status)).Inc()
	}
	if m.logs == nil {
		return
	}
	if err := m.logs.Create(ctx, entry); err != nil {
		m.logger.WarnContext(ctx, "failed to persist email log", "error", err)
	}
}
