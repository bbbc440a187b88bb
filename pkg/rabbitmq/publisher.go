package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

type Publisher struct {
	mu      sync.Mutex
	conn    *amqp.Connection
	channel *amqp.Channel
	logger  *slog.Logger
}

func NewPublisher(url string) (*Publisher, error) {
	conn, ch, err := dial(url)
	if err != nil {
		return nil, err
	}
	return &Publisher{
		conn:    conn,
		channel: ch,
		logger:  slog.Default().With("component", "rabbitmq-publisher"),
	}, nil
}

// Publish sends payload as persistent JSON. amqp channels are not safe for
// concurrent publishing, so calls are serialised.
func (p *Publisher) Publish(ctx context.Context, routingKey string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.channel.PublishWithContext(ctx,
		ExchangeName,
		routingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	); err != nil {
		return fmt.Errorf("publish message: %w", err)
	}

	p.logger.DebugContext(ctx, "published", "exchange", ExchangeName, "routing_key", routingKey, "bytes", len(body))
	return nil
}

func (p *Publisher) Close() {
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		p.conn.Close()
	}
}
