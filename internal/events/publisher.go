// Package events publishes job status-change events to RabbitMQ so other
// services can follow pipeline progress without polling. Optional and
// best-effort: publish failures are logged, never surfaced to the job.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/sahilgala1234/SlideScribe/internal/domain"
)

// Config holds the AMQP connection and exchange settings.
type Config struct {
	URL        string
	Exchange   string
	RoutingKey string
}

// StatusEvent is the published payload for one job status change.
type StatusEvent struct {
	JobID      string           `json:"job_id"`
	SessionID  string           `json:"session_id"`
	Status     domain.Status    `json:"status"`
	Progress   int              `json:"progress"`
	Message    string           `json:"message,omitempty"`
	ErrorKind  domain.ErrorKind `json:"error_kind,omitempty"`
	SlideCount int              `json:"slide_count,omitempty"`
	OccurredAt time.Time        `json:"occurred_at"`
}

// Publisher emits status events to a durable topic exchange.
type Publisher struct {
	conn       *amqp.Connection
	channel    *amqp.Channel
	exchange   string
	routingKey string
	logger     *slog.Logger
}

// NewPublisher dials RabbitMQ and declares the exchange.
func NewPublisher(cfg *Config, logger *slog.Logger) (*Publisher, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to rabbitmq: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	err = channel.ExchangeDeclare(
		cfg.Exchange,
		"topic",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	logger.Info("Status event publisher connected",
		slog.String("exchange", cfg.Exchange),
		slog.String("routing_key", cfg.RoutingKey),
	)

	return &Publisher{
		conn:       conn,
		channel:    channel,
		exchange:   cfg.Exchange,
		routingKey: cfg.RoutingKey,
		logger:     logger,
	}, nil
}

// PublishStatus emits one status event for the job snapshot.
func (p *Publisher) PublishStatus(ctx context.Context, job domain.Job) {
	event := StatusEvent{
		JobID:      job.ID,
		SessionID:  job.SessionID,
		Status:     job.Status,
		Progress:   job.Progress,
		Message:    job.Message,
		ErrorKind:  job.ErrorKind,
		SlideCount: job.SlideCount,
		OccurredAt: time.Now().UTC(),
	}

	body, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("Failed to marshal status event",
			slog.String("job_id", job.ID),
			slog.String("error", err.Error()),
		)
		return
	}

	err = p.channel.PublishWithContext(
		ctx,
		p.exchange,
		p.routingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    event.OccurredAt,
			Body:         body,
		},
	)
	if err != nil {
		p.logger.Warn("Failed to publish status event",
			slog.String("job_id", job.ID),
			slog.String("status", string(job.Status)),
			slog.String("error", err.Error()),
		)
	}
}

// Close shuts down the channel and connection.
func (p *Publisher) Close() {
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		p.conn.Close()
	}
}
