package kafka

import (
	"context"
	"fmt"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/feral-file/ff-ledger/internal/adapter"
	"github.com/feral-file/ff-ledger/internal/domain"
	"github.com/feral-file/ff-ledger/internal/logger"
	"github.com/feral-file/ff-ledger/internal/messaging"
	"github.com/feral-file/ff-ledger/internal/reconcile"
)

// PublisherConfig holds the configuration for publishing to Kafka
type PublisherConfig struct {
	Brokers     []string
	EventsTopic string
	DriftTopic  string
}

type kafkaPublisher struct {
	events adapter.KafkaWriter
	drift  adapter.KafkaWriter
	json   adapter.JSON
}

// NewPublisher creates a publisher writing raw events and drift reports to their topics
func NewPublisher(events, drift adapter.KafkaWriter, jsonAdapter adapter.JSON) messaging.Publisher {
	return &kafkaPublisher{
		events: events,
		drift:  drift,
		json:   jsonAdapter,
	}
}

// PublishRawEvent writes an event keyed by its chain so one chain stays on one partition
func (p *kafkaPublisher) PublishRawEvent(ctx context.Context, event *domain.RawEvent) error {
	data, err := p.json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	err = p.events.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.Chain.Slug()),
		Value: data,
		Headers: []kafka.Header{
			{Key: "event_id", Value: []byte(event.ID())},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to write event %s: %w", event.ID(), err)
	}

	logger.DebugCtx(ctx, "Published event to Kafka",
		zap.String("eventID", event.ID()),
		zap.String("event", event.EventName))
	return nil
}

// PublishDriftReport writes a reconciliation report keyed by user id
func (p *kafkaPublisher) PublishDriftReport(ctx context.Context, report *reconcile.Report) error {
	data, err := p.json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal drift report: %w", err)
	}

	if err := p.drift.WriteMessages(ctx, kafka.Message{Key: []byte(report.UserID), Value: data}); err != nil {
		return fmt.Errorf("failed to write drift report for %s: %w", report.UserID, err)
	}
	return nil
}

// Close flushes and closes both writers
func (p *kafkaPublisher) Close() {
	if err := p.events.Close(); err != nil {
		logger.Error(err, zap.String("message", "Failed to close Kafka events writer"))
	}
	if err := p.drift.Close(); err != nil {
		logger.Error(err, zap.String("message", "Failed to close Kafka drift writer"))
	}
}
