// Package events publishes run lifecycle events to Kafka.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"

	"transcribe-ro/internal/models"
	"transcribe-ro/internal/observability/metrics"
)

// Event types emitted over the runs topic.
const (
	EventRunStarted   = "transcription.run.started"
	EventRunCompleted = "transcription.run.completed"
	EventRunFailed    = "transcription.run.failed"
)

// RunEvent is the wire payload for one lifecycle event.
type RunEvent struct {
	EventType string             `json:"eventType"`
	Run       models.RunMetadata `json:"run"`
	Error     string             `json:"error,omitempty"`
}

// Publisher emits run lifecycle events. When Kafka is disabled it runs in
// log-only mode: events are logged and recorded in metrics but not sent.
type Publisher struct {
	writer    *kafka.Writer
	principal string
	topic     string
	enabled   bool
	metrics   *metrics.Metrics
}

// Config holds Kafka publisher configuration.
type Config struct {
	Brokers   []string
	TopicRuns string
	Principal string
	Enabled   bool
}

// New creates a run event publisher.
func New(cfg *Config) *Publisher {
	m := metrics.DefaultMetrics

	if cfg == nil {
		log.Info().Msg("Kafka disabled (nil config), using log-only mode")
		return &Publisher{enabled: false, metrics: m}
	}

	if !cfg.Enabled || len(cfg.Brokers) == 0 {
		log.Info().Msg("Kafka disabled, using log-only mode")
		return &Publisher{
			principal: cfg.Principal,
			topic:     cfg.TopicRuns,
			enabled:   false,
			metrics:   m,
		}
	}

	// Longer dial timeout covers slow DNS resolution in Kubernetes.
	dialer := &kafka.Dialer{
		Timeout:   10 * time.Second,
		DualStack: true,
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.TopicRuns,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
		RequiredAcks: kafka.RequireOne,
		Transport:    &kafka.Transport{Dial: dialer.DialFunc},
	}

	log.Info().
		Strs("brokers", cfg.Brokers).
		Str("topic", cfg.TopicRuns).
		Str("principal", cfg.Principal).
		Msg("Kafka publisher initialized")

	return &Publisher{
		writer:    writer,
		principal: cfg.Principal,
		topic:     cfg.TopicRuns,
		enabled:   true,
		metrics:   m,
	}
}

// PublishRunStarted announces that processing of an input file began.
func (p *Publisher) PublishRunStarted(ctx context.Context, run models.RunMetadata) error {
	return p.publish(ctx, RunEvent{EventType: EventRunStarted, Run: run})
}

// PublishRunCompleted announces that a run finished and its output was
// written.
func (p *Publisher) PublishRunCompleted(ctx context.Context, run models.RunMetadata) error {
	return p.publish(ctx, RunEvent{EventType: EventRunCompleted, Run: run})
}

// PublishRunFailed announces that a run ended without producing output.
func (p *Publisher) PublishRunFailed(ctx context.Context, run models.RunMetadata, runErr error) error {
	ev := RunEvent{EventType: EventRunFailed, Run: run}
	if runErr != nil {
		ev.Error = runErr.Error()
	}
	return p.publish(ctx, ev)
}

func (p *Publisher) publish(ctx context.Context, event RunEvent) error {
	start := time.Now()

	payload, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Str("topic", p.topic).Msg("Failed to marshal event")
		return err
	}

	log.Debug().
		Str("principal", p.principal).
		Str("topic", p.topic).
		Str("key", event.Run.RunID).
		RawJSON("payload", payload).
		Msg("Publishing event")

	if !p.enabled || p.writer == nil {
		p.metrics.RecordKafkaPublish(p.topic, event.EventType, nil, time.Since(start).Seconds())
		return nil
	}

	msg := kafka.Message{
		Key:   []byte(event.Run.RunID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "eventType", Value: []byte(event.EventType)},
			{Key: "principal", Value: []byte(p.principal)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		log.Error().
			Err(err).
			Str("topic", p.topic).
			Str("key", event.Run.RunID).
			Msg("Failed to write to Kafka")
		p.metrics.RecordKafkaPublish(p.topic, event.EventType, err, time.Since(start).Seconds())
		return err
	}

	p.metrics.RecordKafkaPublish(p.topic, event.EventType, nil, time.Since(start).Seconds())
	return nil
}

// Close closes the Kafka writer.
func (p *Publisher) Close() error {
	if p.writer == nil {
		return nil
	}
	if err := p.writer.Close(); err != nil {
		log.Error().Err(err).Msg("Error closing Kafka writer")
		return err
	}
	return nil
}
