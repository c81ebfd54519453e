package emitter

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/feral-file/ff-ledger/internal/domain"
	"github.com/feral-file/ff-ledger/internal/logger"
	"github.com/feral-file/ff-ledger/internal/messaging"
)

// Config holds the configuration for the event emitter
type Config struct {
	ChainID    domain.Chain
	StartBlock uint64
}

// CursorReader reads the ingest cursor the emitter resumes from
type CursorReader interface {
	GetCursor(ctx context.Context, chain domain.Chain) (*domain.Position, error)
}

// Emitter follows wallet events on a chain and publishes them to the event stream
type Emitter interface {
	// Run starts the event emitter
	Run(ctx context.Context) error
	// Close closes the emitter and cleans up resources
	Close()
}

type emitter struct {
	subscriber messaging.Subscriber
	publisher  messaging.Publisher
	cursors    CursorReader
	config     Config
}

// NewEmitter creates a new event emitter
func NewEmitter(
	sub messaging.Subscriber,
	pub messaging.Publisher,
	cursors CursorReader,
	cfg Config,
) Emitter {
	return &emitter{
		subscriber: sub,
		publisher:  pub,
		cursors:    cursors,
		config:     cfg,
	}
}

// startBlock resolves where to follow from. The block of the ingest cursor is read
// again: events are deduplicated by id downstream, and later logs of that block may
// not have been published yet.
func (e *emitter) startBlock(ctx context.Context) (uint64, error) {
	if e.config.StartBlock > 0 {
		logger.InfoCtx(ctx, "Starting from configured block", zap.String("chain", string(e.config.ChainID)), zap.Uint64("block", e.config.StartBlock))
		return e.config.StartBlock, nil
	}

	cursor, err := e.cursors.GetCursor(ctx, e.config.ChainID)
	if err != nil {
		return 0, fmt.Errorf("failed to get ingest cursor: %w", err)
	}
	if cursor != nil {
		logger.InfoCtx(ctx, "Resuming from ingest cursor", zap.String("chain", string(e.config.ChainID)), zap.String("cursor", cursor.String()))
		return cursor.BlockNumber, nil
	}

	latestBlock, err := e.subscriber.GetLatestBlock(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to get latest block number: %w", err)
	}
	logger.InfoCtx(ctx, "Starting from latest block", zap.String("chain", string(e.config.ChainID)), zap.Uint64("block", latestBlock))
	return latestBlock, nil
}

// Run starts the event emitter
func (e *emitter) Run(ctx context.Context) error {
	startBlock, err := e.startBlock(ctx)
	if err != nil {
		return err
	}

	handler := func(ctx context.Context, event *domain.RawEvent) error {
		if event.Chain != e.config.ChainID {
			return fmt.Errorf("event %s of chain %s on the %s emitter", event.ID(), event.Chain, e.config.ChainID)
		}
		if err := e.publisher.PublishRawEvent(ctx, event); err != nil {
			return fmt.Errorf("failed to publish event %s: %w", event.ID(), err)
		}
		return nil
	}

	errCh := make(chan error, 1)
	go func() {
		logger.InfoCtx(ctx, "Starting event subscription", zap.String("chain", string(e.config.ChainID)))
		errCh <- e.subscriber.SubscribeEvents(ctx, startBlock, handler)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close closes the emitter and cleans up resources
func (e *emitter) Close() {
	e.subscriber.Close()
}
