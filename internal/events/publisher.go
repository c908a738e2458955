// Package events publishes submission lifecycle events to Kafka.
package events

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/helixir/conference-catalog-service/internal/domain"
	"github.com/helixir/conference-catalog-service/internal/observability"
)

// Publisher emits submission events.
type Publisher interface {
	// Publish sends one event. Failures are logged and reported to metrics;
	// the returned error is informational and callers may ignore it.
	Publish(ctx context.Context, event domain.SubmissionEvent) error
	// Close flushes pending writes and releases resources.
	Close() error
}

// messageWriter is the subset of *kafka.Writer used by KafkaPublisher.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Config holds configuration for the Kafka publisher.
type Config struct {
	// Brokers is the list of Kafka broker addresses.
	Brokers []string
	// Topic is the Kafka topic events are written to.
	Topic string
	// BatchSize is the maximum number of messages to batch before sending.
	BatchSize int
	// BatchTimeout is the maximum time to wait for a batch to fill.
	BatchTimeout time.Duration
	// WriteTimeout bounds a single publish.
	WriteTimeout time.Duration
}

// KafkaPublisher writes events keyed by submission ID so all events of one
// submission land on the same partition.
type KafkaPublisher struct {
	writer       messageWriter
	topic        string
	writeTimeout time.Duration
	logger       zerolog.Logger
	metrics      *observability.Metrics
}

// NewKafkaPublisher creates a publisher backed by a kafka.Writer.
func NewKafkaPublisher(cfg Config, logger zerolog.Logger, metrics *observability.Metrics) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		BatchSize:              cfg.BatchSize,
		BatchTimeout:           cfg.BatchTimeout,
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}
	return newKafkaPublisher(writer, cfg, logger, metrics)
}

func newKafkaPublisher(writer messageWriter, cfg Config, logger zerolog.Logger, metrics *observability.Metrics) *KafkaPublisher {
	return &KafkaPublisher{
		writer:       writer,
		topic:        cfg.Topic,
		writeTimeout: cfg.WriteTimeout,
		logger:       logger.With().Str("component", "event_publisher").Logger(),
		metrics:      metrics,
	}
}

// Publish sends one event.
func (p *KafkaPublisher) Publish(ctx context.Context, event domain.SubmissionEvent) error {
	err := p.publish(ctx, event)
	if p.metrics != nil {
		p.metrics.RecordEventPublished(event.EventType, err)
	}
	if err != nil {
		p.logger.Error().Err(err).
			Str("event_type", event.EventType).
			Str("submission_id", event.SubmissionID).
			Str("topic", p.topic).
			Msg("failed to publish submission event")
		return err
	}

	p.logger.Debug().
		Str("event_type", event.EventType).
		Str("submission_id", event.SubmissionID).
		Msg("published submission event")
	return nil
}

func (p *KafkaPublisher) publish(ctx context.Context, event domain.SubmissionEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	if p.writeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.writeTimeout)
		defer cancel()
	}

	msg := kafka.Message{
		Key:   []byte(event.SubmissionID),
		Value: value,
		Time:  event.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write message: %w", err)
	}
	return nil
}

// Close flushes and closes the underlying writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NoopPublisher discards events. Used when Kafka is disabled.
type NoopPublisher struct{}

// Publish does nothing.
func (NoopPublisher) Publish(context.Context, domain.SubmissionEvent) error { return nil }

// Close does nothing.
func (NoopPublisher) Close() error { return nil }

// Compile-time interface verification.
var (
	_ Publisher = (*KafkaPublisher)(nil)
	_ Publisher = NoopPublisher{}
)
