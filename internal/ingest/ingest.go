package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/feral-file/ff-ledger/internal/adapter"
	"github.com/feral-file/ff-ledger/internal/decoder"
	"github.com/feral-file/ff-ledger/internal/domain"
	"github.com/feral-file/ff-ledger/internal/ledger"
	"github.com/feral-file/ff-ledger/internal/logger"
	"github.com/feral-file/ff-ledger/internal/store"
	"github.com/feral-file/ff-ledger/internal/store/schema"
)

const (
	DEFAULT_MAX_CONFLICT_RETRIES   = 5
	DEFAULT_RETRY_INITIAL_INTERVAL = 50 * time.Millisecond
	DEFAULT_RETRY_MAX_INTERVAL     = 2 * time.Second
)

// Outcome is what happened to a handled event
type Outcome string

const (
	// OutcomeApplied means the event was folded into the aggregates
	OutcomeApplied Outcome = "applied"
	// OutcomeReplayed means a released event behind the cursor was applied
	OutcomeReplayed Outcome = "replayed"
	// OutcomeDuplicate means the event had already been applied
	OutcomeDuplicate Outcome = "duplicate"
	// OutcomeSkipped means an operator skipped the event
	OutcomeSkipped Outcome = "skipped"
	// OutcomeQuarantined means the event's wallet is quarantined; the event was recorded as a skipped fault
	OutcomeQuarantined Outcome = "quarantined"
)

// Result describes a handled event
type Result struct {
	Outcome Outcome
	EventID string
	UserID  string
}

// Config holds the ingestor configuration
type Config struct {
	Chain                domain.Chain
	MaxConflictRetries   uint64
	RetryInitialInterval time.Duration
	RetryMaxInterval     time.Duration
}

// Ingestor drives the events of one chain into the ledger, strictly in stream order
//
//go:generate mockgen -source=ingest.go -destination=../mocks/ingestor.go -package=mocks -mock_names=Ingestor=MockIngestor
type Ingestor interface {
	// Handle processes one event. A returned error halts the chain: the caller must not
	// acknowledge the event and must deliver it again before any later event.
	Handle(ctx context.Context, raw domain.RawEvent) (Result, error)
	// HandleUndecodable holds the chain on a message that is not a raw event. It records an
	// open fault keyed by messageID and returns nil once an operator skipped that fault,
	// after which the caller may settle the message.
	HandleUndecodable(ctx context.Context, messageID string, data []byte, cause error) (Result, error)
}

type ingestor struct {
	config     Config
	decoder    decoder.Decoder
	aggregator ledger.Aggregator
	store      store.Store
	clock      adapter.Clock
	json       adapter.JSON
}

// NewIngestor creates an ingestor for one chain
func NewIngestor(
	cfg Config,
	dec decoder.Decoder,
	agg ledger.Aggregator,
	st store.Store,
	clock adapter.Clock,
	jsonAdapter adapter.JSON,
) Ingestor {
	if cfg.MaxConflictRetries == 0 {
		cfg.MaxConflictRetries = DEFAULT_MAX_CONFLICT_RETRIES
	}
	if cfg.RetryInitialInterval <= 0 {
		cfg.RetryInitialInterval = DEFAULT_RETRY_INITIAL_INTERVAL
	}
	if cfg.RetryMaxInterval <= 0 {
		cfg.RetryMaxInterval = DEFAULT_RETRY_MAX_INTERVAL
	}
	return &ingestor{
		config:     cfg,
		decoder:    dec,
		aggregator: agg,
		store:      st,
		clock:      clock,
		json:       jsonAdapter,
	}
}

// Handle processes one event
func (i *ingestor) Handle(ctx context.Context, raw domain.RawEvent) (Result, error) {
	result := Result{EventID: raw.ID()}
	ctx = logger.WithFields(ctx, zap.String("eventID", result.EventID))
	if wallet := decoder.WalletOf(raw); wallet != "" {
		result.UserID = domain.NewUserID(raw.Chain, wallet)
	}

	if raw.Chain != i.config.Chain {
		return result, i.fail(ctx, raw, result.UserID,
			fmt.Errorf("%w: event of chain %s delivered to the %s ingestor", domain.ErrInvalidEventPayload, raw.Chain, i.config.Chain))
	}

	skipped, err := i.skippedFault(ctx, result.EventID)
	if err != nil {
		return result, err
	}
	if skipped != nil {
		if err := i.advanceCursor(ctx, raw.Position()); err != nil {
			return result, err
		}
		logger.InfoCtx(ctx, "Acknowledged skipped event", zap.String("faultID", skipped.ID))
		result.Outcome = OutcomeSkipped
		return result, nil
	}

	ev, err := i.decoder.Decode(raw)
	if err != nil {
		return result, i.fail(ctx, raw, result.UserID, err)
	}
	meta := ev.Meta()
	pos := meta.Position()
	result.UserID = meta.UserID()

	order, err := i.checkOrder(ctx, raw, result.UserID, pos)
	if err != nil {
		return result, err
	}
	if order == orderRedelivered {
		result.Outcome = OutcomeDuplicate
		return result, nil
	}

	quarantined, err := i.store.IsQuarantined(ctx, result.UserID)
	if err != nil {
		return result, fmt.Errorf("failed to check quarantine: %w", err)
	}
	if quarantined {
		if err := i.quarantine(ctx, raw, result.UserID); err != nil {
			return result, err
		}
		result.Outcome = OutcomeQuarantined
		return result, nil
	}

	applied, err := i.apply(ctx, ev, order == orderNext)
	if err != nil {
		return result, i.fail(ctx, raw, result.UserID, err)
	}

	switch {
	case applied.Duplicate:
		result.Outcome = OutcomeDuplicate
	case order == orderReplay:
		result.Outcome = OutcomeReplayed
	default:
		result.Outcome = OutcomeApplied
	}

	logger.DebugCtx(ctx, "Handled event",
		zap.String("event", string(meta.Name)),
		zap.String("userID", result.UserID),
		zap.String("position", pos.String()),
		zap.String("outcome", string(result.Outcome)))

	return result, nil
}

// skippedFault finds the fault an operator skipped the event with, released or not
func (i *ingestor) skippedFault(ctx context.Context, eventID string) (*schema.IngestFault, error) {
	for _, status := range []schema.FaultStatus{schema.FaultStatusSkipped, schema.FaultStatusReleased} {
		fault, err := i.store.FindFault(ctx, i.config.Chain, eventID, status)
		if err != nil {
			return nil, fmt.Errorf("failed to look up skipped fault: %w", err)
		}
		if fault != nil {
			return fault, nil
		}
	}
	return nil, nil
}

// order classifies an event position against the chain cursor
type order int

const (
	// orderNext is an event after the cursor
	orderNext order = iota
	// orderReplay is a released event behind the cursor
	orderReplay
	// orderRedelivered is an already applied event behind the cursor
	orderRedelivered
)

// checkOrder enforces stream order; an unapplied event behind the cursor is fatal
func (i *ingestor) checkOrder(ctx context.Context, raw domain.RawEvent, userID string, pos domain.Position) (order, error) {
	cursor, err := i.store.GetCursor(ctx, i.config.Chain)
	if err != nil {
		return 0, fmt.Errorf("failed to get cursor: %w", err)
	}
	if cursor == nil || cursor.Less(pos) {
		return orderNext, nil
	}

	resolved, err := i.store.FindFault(ctx, i.config.Chain, raw.ID(), schema.FaultStatusResolved)
	if err != nil {
		return 0, fmt.Errorf("failed to look up resolved fault: %w", err)
	}
	if resolved != nil {
		return orderReplay, nil
	}

	var exists bool
	err = i.store.WithinTx(ctx, func(tx store.Tx) error {
		var err error
		exists, err = tx.HistoryRecordExists(ctx, raw.ID())
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("failed to check history: %w", err)
	}
	if exists {
		logger.InfoCtx(ctx, "Acknowledged redelivered event")
		return orderRedelivered, nil
	}

	return 0, i.fail(ctx, raw, userID,
		fmt.Errorf("%w: position %s is not after cursor %s", domain.ErrOutOfOrderEvent, pos, cursor))
}

// apply runs the aggregator in one transaction, retrying lost write races
func (i *ingestor) apply(ctx context.Context, ev domain.Event, moveCursor bool) (ledger.Result, error) {
	var result ledger.Result

	operation := func() error {
		err := i.store.WithinTx(ctx, func(tx store.Tx) error {
			res, err := i.aggregator.Apply(ctx, tx, ev)
			if err != nil {
				return err
			}
			result = res
			if moveCursor {
				return tx.SetCursor(ctx, i.config.Chain, ev.Meta().Position())
			}
			return nil
		})
		if err == nil || errors.Is(err, domain.ErrConcurrentWriteConflict) {
			return err
		}
		return backoff.Permanent(err)
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = i.config.RetryInitialInterval
	b.MaxInterval = i.config.RetryMaxInterval
	b.MaxElapsedTime = 0

	var attemptCount int
	notifyOnError := func(err error, duration time.Duration) {
		attemptCount++
		logger.WarnCtx(ctx, "Write conflict, retrying event",
			zap.Error(err),
			zap.Int("attempt", attemptCount),
			zap.Duration("next_retry_in", duration))
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(b, i.config.MaxConflictRetries), ctx)
	if err := backoff.RetryNotify(operation, policy, notifyOnError); err != nil {
		return ledger.Result{}, err
	}
	return result, nil
}

// quarantine records an event of a quarantined wallet as a skipped fault and moves past it
func (i *ingestor) quarantine(ctx context.Context, raw domain.RawEvent, userID string) error {
	evErr := domain.NewEventError(raw.ID(), raw.EventName, userID, domain.ErrWalletQuarantined)
	if err := i.recordFault(ctx, raw, evErr, schema.FaultStatusSkipped); err != nil {
		return err
	}
	if err := i.advanceCursor(ctx, raw.Position()); err != nil {
		return err
	}

	logger.WarnCtx(ctx, "Skipped event of quarantined wallet",
		zap.String("event", raw.EventName),
		zap.String("userID", userID))
	return nil
}

// fail turns a fatal error into an open fault. Errors that are not fatal, like a lost
// database connection, are returned as they are so the event is simply retried.
func (i *ingestor) fail(ctx context.Context, raw domain.RawEvent, entityID string, err error) error {
	if !IsFatal(err) {
		return err
	}

	evErr := domain.NewEventError(raw.ID(), raw.EventName, entityID, err)
	i.openFault(ctx, evErr, func() ([]byte, error) { return i.json.Marshal(raw) })

	logger.ErrorCtx(ctx, evErr,
		zap.String("chain", string(raw.Chain)),
		zap.String("event", raw.EventName),
		zap.String("entityID", entityID),
		zap.String("kind", domain.ErrorKind(err)))
	return evErr
}

// HandleUndecodable holds the chain on a message that does not decode to a raw event
func (i *ingestor) HandleUndecodable(ctx context.Context, messageID string, data []byte, cause error) (Result, error) {
	result := Result{EventID: messageID}
	ctx = logger.WithFields(ctx, zap.String("eventID", messageID))

	skipped, err := i.skippedFault(ctx, messageID)
	if err != nil {
		return result, err
	}
	if skipped != nil {
		logger.InfoCtx(ctx, "Acknowledged skipped message", zap.String("faultID", skipped.ID))
		result.Outcome = OutcomeSkipped
		return result, nil
	}

	evErr := domain.NewEventError(messageID, "", "",
		fmt.Errorf("%w: undecodable message: %v", domain.ErrInvalidEventPayload, cause))
	// the payload is kept as a JSON string since it is not valid JSON itself
	i.openFault(ctx, evErr, func() ([]byte, error) { return i.json.Marshal(string(data)) })

	logger.ErrorCtx(ctx, evErr,
		zap.String("chain", string(i.config.Chain)),
		zap.Int("size", len(data)))
	return result, evErr
}

// openFault records evErr as an open fault unless one is already open for the event.
// Failures are logged only: the caller halts the chain either way.
func (i *ingestor) openFault(ctx context.Context, evErr *domain.EventError, payload func() ([]byte, error)) {
	existing, err := i.store.FindFault(ctx, i.config.Chain, evErr.EventID, schema.FaultStatusOpen)
	if err != nil {
		logger.ErrorCtx(ctx, err)
		return
	}
	if existing != nil {
		return
	}

	data, err := payload()
	if err != nil {
		logger.ErrorCtx(ctx, fmt.Errorf("failed to marshal raw event: %w", err))
		return
	}
	if err := i.storeFault(ctx, evErr, data, schema.FaultStatusOpen); err != nil {
		logger.ErrorCtx(ctx, err)
	}
}

func (i *ingestor) recordFault(ctx context.Context, raw domain.RawEvent, evErr *domain.EventError, status schema.FaultStatus) error {
	data, err := i.json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("failed to marshal raw event: %w", err)
	}
	return i.storeFault(ctx, evErr, data, status)
}

func (i *ingestor) storeFault(ctx context.Context, evErr *domain.EventError, data []byte, status schema.FaultStatus) error {
	now := i.clock.Now().UTC()
	fault := &schema.IngestFault{
		ID:        ulid.MustNewDefault(now).String(),
		Chain:     string(i.config.Chain),
		EventID:   evErr.EventID,
		EventName: evErr.EventName,
		EntityID:  evErr.EntityID,
		ErrorKind: domain.ErrorKind(evErr),
		Message:   evErr.Error(),
		Raw:       datatypes.JSON(data),
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := i.store.CreateFault(ctx, fault); err != nil {
		return fmt.Errorf("failed to record fault: %w", err)
	}
	return nil
}

// advanceCursor moves the cursor forward to pos, never backwards
func (i *ingestor) advanceCursor(ctx context.Context, pos domain.Position) error {
	return i.store.WithinTx(ctx, func(tx store.Tx) error {
		cursor, err := tx.GetCursor(ctx, i.config.Chain)
		if err != nil {
			return err
		}
		if cursor != nil && !cursor.Less(pos) {
			return nil
		}
		return tx.SetCursor(ctx, i.config.Chain, pos)
	})
}

// IsFatal reports whether err must halt the chain until an operator acts
func IsFatal(err error) bool {
	return errors.Is(err, domain.ErrUnrecognizedEventKind) ||
		errors.Is(err, domain.ErrInvalidEventPayload) ||
		errors.Is(err, domain.ErrMissingBucketReference) ||
		errors.Is(err, domain.ErrConcurrentWriteConflict) ||
		errors.Is(err, domain.ErrOutOfOrderEvent)
}
