package consumer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/clearvision/midnight-tickets/internal/metrics"
	"github.com/clearvision/midnight-tickets/internal/models"
	"github.com/clearvision/midnight-tickets/internal/service"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Mock CheckInService ---

type mockCheckInService struct {
	checkInFn func(ctx context.Context, ticketID string, opts service.CheckInOptions) (*models.Ticket, error)
}

func (m *mockCheckInService) CheckIn(ctx context.Context, ticketID string, opts service.CheckInOptions) (*models.Ticket, error) {
	return m.checkInFn(ctx, ticketID, opts)
}

// --- Fake Acknowledger ---

type ackRecorder struct {
	acked    bool
	nacked   bool
	requeued bool
}

func (a *ackRecorder) Ack(tag uint64, multiple bool) error {
	a.acked = true
	return nil
}

func (a *ackRecorder) Nack(tag uint64, multiple, requeue bool) error {
	a.nacked = true
	a.requeued = requeue
	return nil
}

func (a *ackRecorder) Reject(tag uint64, requeue bool) error {
	return a.Nack(tag, false, requeue)
}

func delivery(body string) (amqp.Delivery, *ackRecorder) {
	ack := &ackRecorder{}
	return amqp.Delivery{Acknowledger: ack, RoutingKey: "checkin.scanned", Body: []byte(body)}, ack
}

func TestHandleMessage_CheckedIn(t *testing.T) {
	svc := &mockCheckInService{checkInFn: func(ctx context.Context, ticketID string, opts service.CheckInOptions) (*models.Ticket, error) {
		assert.Equal(t, "MM-ABCD1234-0001", ticketID)
		assert.Equal(t, "29805150123451", opts.NationalID)
		assert.Equal(t, "scanner:north", opts.Actor.Name)
		return &models.Ticket{TicketID: ticketID, Status: models.StatusUsed}, nil
	}}
	m := metrics.New(prometheus.NewRegistry())
	msg, ack := delivery(`{"ticketId":"MM-ABCD1234-0001","nationalId":"29805150123451","gate":"north"}`)

	NewCheckInConsumer(svc, m).handleMessage(context.Background(), msg)

	assert.True(t, ack.acked)
	assert.False(t, ack.nacked)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CheckInMessages.WithLabelValues("checked_in")))
}

func TestHandleMessage_DomainRejectionIsAcked(t *testing.T) {
	for _, domainErr := range []error{service.ErrAlreadyCheckedIn, service.ErrNotValidForCheckIn, service.ErrNotFound, service.ErrAttendeeMismatch} {
		svc := &mockCheckInService{checkInFn: func(ctx context.Context, ticketID string, opts service.CheckInOptions) (*models.Ticket, error) {
			return nil, domainErr
		}}
		msg, ack := delivery(`{"ticketId":"MM-ABCD1234-0001"}`)

		NewCheckInConsumer(svc, nil).handleMessage(context.Background(), msg)

		assert.True(t, ack.acked, domainErr.Error())
		assert.False(t, ack.nacked, domainErr.Error())
	}
}

func TestHandleMessage_InfrastructureErrorRequeues(t *testing.T) {
	svc := &mockCheckInService{checkInFn: func(ctx context.Context, ticketID string, opts service.CheckInOptions) (*models.Ticket, error) {
		return nil, &service.Error{Kind: service.KindPersistence, Message: "Storage operation failed.", Err: errors.New("conn refused")}
	}}
	msg, ack := delivery(`{"ticketId":"MM-ABCD1234-0001"}`)

	NewCheckInConsumer(svc, nil).handleMessage(context.Background(), msg)

	assert.True(t, ack.nacked)
	assert.True(t, ack.requeued)
}

func TestHandleMessage_Malformed(t *testing.T) {
	for _, body := range []string{`not json`, `{"nationalId":"29805150123451"}`} {
		svc := &mockCheckInService{checkInFn: func(ctx context.Context, ticketID string, opts service.CheckInOptions) (*models.Ticket, error) {
			t.Fatal("service must not be called")
			return nil, nil
		}}
		msg, ack := delivery(body)

		NewCheckInConsumer(svc, nil).handleMessage(context.Background(), msg)

		assert.True(t, ack.nacked, body)
		assert.False(t, ack.requeued, body)
	}
}

func TestStart_StopsWhenChannelCloses(t *testing.T) {
	calls := make(chan string, 2)
	svc := &mockCheckInService{checkInFn: func(ctx context.Context, ticketID string, opts service.CheckInOptions) (*models.Ticket, error) {
		calls <- ticketID
		return &models.Ticket{TicketID: ticketID}, nil
	}}
	msgs := make(chan amqp.Delivery, 2)
	first, _ := delivery(`{"ticketId":"MM-1"}`)
	second, _ := delivery(`{"ticketId":"MM-2"}`)
	msgs <- first
	msgs <- second
	close(msgs)

	NewCheckInConsumer(svc, nil).Start(context.Background(), msgs)

	for _, want := range []string{"MM-1", "MM-2"} {
		select {
		case got := <-calls:
			require.Equal(t, want, got)
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for %s", want)
		}
	}
}
