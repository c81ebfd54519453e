package kafka

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/feral-file/ff-ledger/internal/adapter"
	"github.com/feral-file/ff-ledger/internal/domain"
	"github.com/feral-file/ff-ledger/internal/ingest"
	"github.com/feral-file/ff-ledger/internal/logger"
)

const (
	DEFAULT_RETRY_DELAY = 5 * time.Second
	DEFAULT_MIN_BYTES   = 1
	DEFAULT_MAX_BYTES   = 10e6
)

// ConsumerConfig holds the configuration for the Kafka event feed
type ConsumerConfig struct {
	Brokers []string
	Topic   string
	GroupID string
	// Chain selects the messages keyed by this chain's slug
	Chain domain.Chain
	// RetryDelay is how long a failed event waits before it is handled again
	RetryDelay time.Duration
}

// Consumer feeds the events of one chain from a Kafka topic into the ingestor
type Consumer interface {
	// Run consumes events until the context is cancelled
	Run(ctx context.Context) error
	// Close closes the consumer and cleans up resources
	Close()
}

type consumer struct {
	reader   adapter.KafkaReader
	ingestor ingest.Ingestor
	json     adapter.JSON
	clock    adapter.Clock
	config   ConsumerConfig
}

// ReaderConfig returns the kafka-go reader of a chain's feed. Offsets are committed
// explicitly after an event is handled.
func ReaderConfig(cfg ConsumerConfig) kafka.ReaderConfig {
	return kafka.ReaderConfig{
		Brokers:        cfg.Brokers,
		Topic:          cfg.Topic,
		GroupID:        cfg.GroupID,
		MinBytes:       DEFAULT_MIN_BYTES,
		MaxBytes:       DEFAULT_MAX_BYTES,
		CommitInterval: 0,
		StartOffset:    kafka.FirstOffset,
	}
}

// NewConsumer creates a new Kafka event consumer
func NewConsumer(
	cfg ConsumerConfig,
	reader adapter.KafkaReader,
	ingestor ingest.Ingestor,
	jsonAdapter adapter.JSON,
	clock adapter.Clock,
) Consumer {
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = DEFAULT_RETRY_DELAY
	}

	return &consumer{
		reader:   reader,
		ingestor: ingestor,
		json:     jsonAdapter,
		clock:    clock,
		config:   cfg,
	}
}

// Run fetches one message at a time and commits it once handled
func (c *consumer) Run(ctx context.Context) error {
	logger.InfoCtx(ctx, "Starting Kafka event consumer",
		zap.Strings("brokers", c.config.Brokers),
		zap.String("topic", c.config.Topic),
		zap.String("group", c.config.GroupID),
		zap.String("chain", string(c.config.Chain)))

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
				logger.InfoCtx(ctx, "Shutting down Kafka event consumer")
				return ctx.Err()
			}
			return fmt.Errorf("failed to fetch message: %w", err)
		}

		if err := c.handleMessage(ctx, msg); err != nil {
			return err
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			return fmt.Errorf("failed to commit offset %d of partition %d: %w", msg.Offset, msg.Partition, err)
		}
	}
}

// handleMessage returns once the message may be committed. A failed event is handled
// again after RetryDelay; later messages wait behind it.
func (c *consumer) handleMessage(ctx context.Context, msg kafka.Message) error {
	if key := string(msg.Key); key != "" && key != c.config.Chain.Slug() {
		logger.DebugCtx(ctx, "Skipping message of another chain",
			zap.String("key", key),
			zap.Int64("offset", msg.Offset))
		return nil
	}

	handle := func() (ingest.Result, error) {
		var event domain.RawEvent
		if err := c.json.Unmarshal(msg.Value, &event); err != nil {
			// no event id to hold the fault against, so it is keyed by the offset
			return c.ingestor.HandleUndecodable(ctx, MessageID(msg.Topic, msg.Partition, msg.Offset), msg.Value, err)
		}
		return c.ingestor.Handle(ctx, event)
	}

	for attempt := 1; ; attempt++ {
		result, err := handle()
		if err == nil {
			logger.DebugCtx(ctx, "Event handled",
				zap.String("eventID", result.EventID),
				zap.String("outcome", string(result.Outcome)),
				zap.Int64("offset", msg.Offset))
			return nil
		}

		logger.WarnCtx(ctx, "Event not applied, retrying",
			zap.Error(err),
			zap.String("eventID", result.EventID),
			zap.Bool("fatal", ingest.IsFatal(err)),
			zap.Int("attempt", attempt),
			zap.Duration("retryIn", c.config.RetryDelay))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.clock.After(c.config.RetryDelay):
		}
	}
}

// MessageID names a topic message that carries no event id
func MessageID(topic string, partition int, offset int64) string {
	return fmt.Sprintf("kafka:%s:%d:%d", topic, partition, offset)
}

// Close closes the consumer and cleans up resources
func (c *consumer) Close() {
	if err := c.reader.Close(); err != nil {
		logger.Error(err, zap.String("message", "Failed to close Kafka reader"))
	}
}
