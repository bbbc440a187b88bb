package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/clearvision/midnight-tickets/internal/metrics"
	"github.com/clearvision/midnight-tickets/internal/models"
	"github.com/clearvision/midnight-tickets/internal/service"
	amqp "github.com/rabbitmq/amqp091-go"
)

const handleTimeout = 10 * time.Second

// CheckInMessage is what door scanners publish on checkin.scanned.
type CheckInMessage struct {
	TicketID   string `json:"ticketId"`
	NationalID string `json:"nationalId"`
	Gate       string `json:"gate,omitempty"`
}

type CheckInService interface {
	CheckIn(ctx context.Context, ticketID string, opts service.CheckInOptions) (*models.Ticket, error)
}

type CheckInConsumer struct {
	svc     CheckInService
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func NewCheckInConsumer(svc CheckInService, m *metrics.Metrics) *CheckInConsumer {
	return &CheckInConsumer{
		svc:     svc,
		metrics: m,
		logger:  slog.Default().With("component", "checkin-consumer"),
	}
}

// Start processes deliveries until msgs is closed or ctx is done.
func (cc *CheckInConsumer) Start(ctx context.Context, msgs <-chan amqp.Delivery) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				cc.logger.Info("context cancelled, stopping consumer")
				return
			case msg, ok := <-msgs:
				if !ok {
					cc.logger.Info("channel closed, stopping consumer")
					return
				}
				cc.handleMessage(ctx, msg)
			}
		}
	}()
}

// handleMessage acks successful and permanently rejected check-ins, drops
// malformed messages and requeues when storage is unavailable.
func (cc *CheckInConsumer) handleMessage(ctx context.Context, msg amqp.Delivery) {
	var in CheckInMessage
	if err := json.Unmarshal(msg.Body, &in); err != nil || strings.TrimSpace(in.TicketID) == "" {
		cc.logger.Warn("dropping malformed check-in message", "routing_key", msg.RoutingKey, "error", err)
		cc.count("malformed")
		_ = msg.Nack(false, false)
		return
	}

	ctx, cancel := context.WithTimeout(ctx, handleTimeout)
	defer cancel()

	actor := "scanner"
	if in.Gate != "" {
		actor = "scanner:" + in.Gate
	}
	_, err := cc.svc.CheckIn(ctx, in.TicketID, service.CheckInOptions{
		NationalID: in.NationalID,
		Actor:      service.Actor{Name: actor},
	})

	var se *service.Error
	switch {
	case err == nil:
		cc.logger.Info("ticket checked in", "ticket_id", in.TicketID, "gate", in.Gate)
		cc.count("checked_in")
		_ = msg.Ack(false)
	case errors.As(err, &se) && se.Kind != service.KindPersistence:
		cc.logger.Warn("check-in rejected", "ticket_id", in.TicketID, "kind", se.Kind, "reason", se.Message)
		cc.count("rejected")
		_ = msg.Ack(false)
	default:
		cc.logger.Error("check-in failed, requeueing", "ticket_id", in.TicketID, "error", err)
		cc.count("requeued")
		_ = msg.Nack(false, true)
	}
}

func (cc *CheckInConsumer) count(result string) {
	if cc.metrics != nil {
		cc.metrics.CheckInMessages.WithLabelValues(result).Inc()
	}
}
