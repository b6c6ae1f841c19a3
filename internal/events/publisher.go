// Package events publishes sync-completed notifications so downstream consumers (cache
// invalidation, search indexing) can react to catalog changes.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/kopisync/internal/shared"
	amqp "github.com/rabbitmq/amqp091-go"
)

// SyncEvent describes a finished sync run.
type SyncEvent struct {
	RunID      string    `json:"run_id"`
	SyncType   string    `json:"sync_type"`
	Success    bool      `json:"success"`
	Added      int       `json:"added"`
	Updated    int       `json:"updated"`
	Errors     int       `json:"errors"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// Publisher delivers sync events.
type Publisher interface {
	Publish(ctx context.Context, event SyncEvent) error
}

// NopPublisher discards events.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, SyncEvent) error { return nil }

// AMQPPublisher publishes events as persistent JSON messages to a durable RabbitMQ queue.
//
// A connection is opened per event; sync runs finish a handful of times a day.
type AMQPPublisher struct {
	url    string
	queue  string
	logger *log.Logger
}

// NewAMQPPublisher creates a publisher for the broker at url.
func NewAMQPPublisher(url, queue string, logger *log.Logger) (*AMQPPublisher, error) {
	if url == "" {
		return nil, fmt.Errorf("%w: AMQP URL is empty", shared.ErrMissingConfig)
	}
	if queue == "" {
		return nil, fmt.Errorf("%w: AMQP queue is empty", shared.ErrMissingConfig)
	}
	if logger == nil {
		logger = log.Default()
	}
	return &AMQPPublisher{url: url, queue: queue, logger: logger}, nil
}

// Publish declares the queue and sends event on the default exchange.
func (p *AMQPPublisher) Publish(ctx context.Context, event SyncEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	conn, err := amqp.Dial(p.url)
	if err != nil {
		return fmt.Errorf("amqp dial failed: %w", err)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("amqp channel open failed: %w", err)
	}
	defer ch.Close()

	if _, err := ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("amqp queue declare failed: %w", err)
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    event.RunID,
		Type:         "kopis.sync.completed",
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}

	if err := ch.PublishWithContext(ctx, "", p.queue, false, false, msg); err != nil {
		return fmt.Errorf("amqp publish failed: %w", err)
	}

	p.logger.Debug("published sync event", "queue", p.queue, "run_id", event.RunID, "sync_type", event.SyncType)
	return nil
}

// NewPublisher returns an [AMQPPublisher] when cfg names a broker and a [NopPublisher] otherwise.
func NewPublisher(cfg shared.EventsConfig, logger *log.Logger) (Publisher, error) {
	if cfg.AMQPURL == "" {
		return NopPublisher{}, nil
	}
	return NewAMQPPublisher(cfg.AMQPURL, cfg.Queue, logger)
}
