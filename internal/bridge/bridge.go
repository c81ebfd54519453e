package bridge

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"go.uber.org/zap"

	"github.com/feral-file/ff-ledger/internal/adapter"
	"github.com/feral-file/ff-ledger/internal/domain"
	"github.com/feral-file/ff-ledger/internal/ingest"
	"github.com/feral-file/ff-ledger/internal/logger"
	"github.com/feral-file/ff-ledger/internal/messaging"
	jsprovider "github.com/feral-file/ff-ledger/internal/providers/jetstream"
)

const (
	DEFAULT_RETRY_DELAY      = 5 * time.Second
	DEFAULT_DUPLICATE_WINDOW = 2 * time.Minute
)

// Config holds the configuration for the event bridge
type Config struct {
	URL            string
	StreamName     string
	ConsumerName   string
	MaxReconnects  int
	ReconnectWait  time.Duration
	ConnectionName string
	AckWaitTimeout time.Duration
	// RetryDelay is how long a failed event waits before it is delivered again
	RetryDelay time.Duration
	// DuplicateWindow is how long the stream remembers published event ids
	DuplicateWindow time.Duration
	Chain           domain.Chain
}

// Bridge feeds the event stream of one chain into the ingestor
type Bridge interface {
	// Run consumes events until the context is cancelled
	Run(ctx context.Context) error
	// Close closes the bridge and cleans up resources
	Close()
}

type bridge struct {
	nc       adapter.NatsConn
	js       adapter.JetStream
	ingestor ingest.Ingestor
	json     adapter.JSON
	config   Config
}

// NewBridge creates a new event bridge
func NewBridge(
	cfg Config,
	natsJS adapter.NatsJetStream,
	ingestor ingest.Ingestor,
	jsonAdapter adapter.JSON,
) (Bridge, error) {
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = DEFAULT_RETRY_DELAY
	}
	if cfg.DuplicateWindow <= 0 {
		cfg.DuplicateWindow = DEFAULT_DUPLICATE_WINDOW
	}

	nc, js, err := natsJS.Connect(cfg.URL, jsprovider.ConnectOptions(cfg.ConnectionName, cfg.MaxReconnects, cfg.ReconnectWait)...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS and create JetStream: %w", err)
	}

	return &bridge{
		nc:       nc,
		js:       js,
		ingestor: ingestor,
		json:     jsonAdapter,
		config:   cfg,
	}, nil
}

// StreamConfig returns the stream holding the raw events of every chain and the drift reports
func StreamConfig(cfg Config) jetstream.StreamConfig {
	return jetstream.StreamConfig{
		Name:       cfg.StreamName,
		Subjects:   []string{messaging.SUBJECT_EVENTS_PREFIX + ".>", messaging.SUBJECT_DRIFT},
		Retention:  jetstream.LimitsPolicy,
		Storage:    jetstream.FileStorage,
		Duplicates: cfg.DuplicateWindow,
	}
}

// ConsumerConfig returns the durable consumer of a chain. One message is in flight
// at a time so events reach the ingestor in stream order. Deliveries are unbounded:
// JetStream moves past a message once MaxDeliver is reached, which would skip a
// halted event without an operator decision.
func ConsumerConfig(cfg Config) jetstream.ConsumerConfig {
	return jetstream.ConsumerConfig{
		Durable:       cfg.ConsumerName,
		AckPolicy:     jetstream.AckExplicitPolicy,
		AckWait:       cfg.AckWaitTimeout,
		MaxDeliver:    -1,
		MaxAckPending: 1,
		DeliverPolicy: jetstream.DeliverAllPolicy,
		FilterSubject: messaging.EventSubject(cfg.Chain),
	}
}

// Run starts the event bridge
func (b *bridge) Run(ctx context.Context) error {
	logger.InfoCtx(ctx, "Starting event bridge",
		zap.String("stream", b.config.StreamName),
		zap.String("consumer", b.config.ConsumerName),
		zap.String("chain", string(b.config.Chain)))

	if err := b.js.CreateOrUpdateStream(ctx, StreamConfig(b.config)); err != nil {
		return fmt.Errorf("failed to create/update stream: %w", err)
	}

	consumer, err := b.js.CreateOrUpdateConsumer(ctx, b.config.StreamName, ConsumerConfig(b.config))
	if err != nil {
		return fmt.Errorf("failed to create/update consumer: %w", err)
	}

	consumerInfo, err := consumer.Info(ctx)
	if err != nil {
		return fmt.Errorf("failed to get consumer info: %w", err)
	}
	logger.InfoCtx(ctx, "Consumer created/retrieved",
		zap.String("consumer", consumerInfo.Name),
		zap.Uint64("pending", consumerInfo.NumPending))

	msgChan := make(chan adapter.Message, 1)
	sub, err := consumer.Consume(func(msg adapter.Message) {
		select {
		case msgChan <- msg:
		case <-ctx.Done():
		}
	}, jetstream.PullMaxMessages(1))
	if err != nil {
		return fmt.Errorf("failed to create subscription: %w", err)
	}
	defer sub.Stop()

	logger.InfoCtx(ctx, "Started consuming messages")

	// Messages are handled on this goroutine only; the ingestor relies on it
	for {
		select {
		case <-ctx.Done():
			logger.InfoCtx(ctx, "Shutting down event bridge")
			return ctx.Err()
		case msg := <-msgChan:
			b.handleMessage(ctx, msg)
		}
	}
}

// MessageID names a stream message that carries no event id
func MessageID(stream string, seq uint64) string {
	return fmt.Sprintf("nats:%s:%d", stream, seq)
}

// handleMessage hands one message to the ingestor and settles it
func (b *bridge) handleMessage(ctx context.Context, msg adapter.Message) {
	var deliveries, streamSeq uint64
	if metadata, err := msg.Metadata(); err == nil && metadata != nil {
		deliveries = metadata.NumDelivered
		streamSeq = metadata.Sequence.Stream
	}

	var result ingest.Result
	var err error
	var event domain.RawEvent
	if uerr := b.json.Unmarshal(msg.Data(), &event); uerr != nil {
		// no event id to hold the fault against, so it is keyed by the stream sequence
		result, err = b.ingestor.HandleUndecodable(ctx, MessageID(b.config.StreamName, streamSeq), msg.Data(), uerr)
	} else {
		result, err = b.ingestor.Handle(ctx, event)
	}
	if err != nil {
		logger.WarnCtx(ctx, "Event not applied, redelivering",
			zap.Error(err),
			zap.String("eventID", result.EventID),
			zap.Bool("fatal", ingest.IsFatal(err)),
			zap.Uint64("deliveryCount", deliveries),
			zap.Duration("retryIn", b.config.RetryDelay))
		if err := msg.NakWithDelay(b.config.RetryDelay); err != nil {
			logger.ErrorCtx(ctx, err, zap.String("message", "Failed to NAK message"))
		}
		return
	}

	if err := msg.Ack(); err != nil {
		logger.ErrorCtx(ctx, err, zap.String("message", "Failed to ACK message"))
		return
	}

	logger.DebugCtx(ctx, "Event acknowledged",
		zap.String("eventID", result.EventID),
		zap.String("outcome", string(result.Outcome)),
		zap.Uint64("deliveryCount", deliveries))
}

// Close closes the bridge and cleans up resources
func (b *bridge) Close() {
	if b.nc == nil {
		return
	}

	b.nc.Close()
}
