package admin

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/feral-file/ff-ledger/internal/adapter"
	"github.com/feral-file/ff-ledger/internal/domain"
	"github.com/feral-file/ff-ledger/internal/logger"
	"github.com/feral-file/ff-ledger/internal/messaging"
	"github.com/feral-file/ff-ledger/internal/reconcile"
	"github.com/feral-file/ff-ledger/internal/store"
	"github.com/feral-file/ff-ledger/internal/store/schema"
)

// ErrNoPublisher is returned when a replay is requested without a publisher
var ErrNoPublisher = errors.New("no publisher configured for replay")

// Service holds the operator actions on ingest faults and stored totals
type Service interface {
	// ListFaults lists faults matching the filter, newest first
	ListFaults(ctx context.Context, filter store.FaultFilter) ([]schema.IngestFault, error)
	// SkipFault acknowledges an open fault; the user is quarantined until released
	SkipFault(ctx context.Context, id string) (*schema.IngestFault, error)
	// ResolveFault marks a fault resolved so its event is applied when delivered again
	ResolveFault(ctx context.Context, id string) (*schema.IngestFault, error)
	// ReleaseQuarantine lifts the quarantine of the user and, with replay, publishes
	// the events held back by the quarantine again in chain order. The skipped
	// events that caused the quarantine are released but stay skipped.
	ReleaseQuarantine(ctx context.Context, userID string, replay bool) (*ReleaseResult, error)
	// Repair overwrites the stored totals of the user with the recomputed ones
	Repair(ctx context.Context, userID string) (*reconcile.Report, error)
}

// ReleaseResult is the outcome of a quarantine release
type ReleaseResult struct {
	UserID   string `json:"user_id"`
	Released int64  `json:"released"`
	// Republished counts the events published again for replay
	Republished int `json:"republished"`
	// RootCauses lists the faults an operator skipped; they are released and their events stay skipped
	RootCauses []string `json:"root_causes,omitempty"`
	// Unreplayable lists the faults without a usable raw event
	Unreplayable []string `json:"unreplayable,omitempty"`
}

type service struct {
	store     store.Store
	engine    reconcile.Engine
	publisher messaging.Publisher
	json      adapter.JSON
}

// NewService creates the operator service; publisher may be nil when no replay is needed
func NewService(st store.Store, engine reconcile.Engine, publisher messaging.Publisher, jsonAdapter adapter.JSON) Service {
	return &service{
		store:     st,
		engine:    engine,
		publisher: publisher,
		json:      jsonAdapter,
	}
}

func (s *service) ListFaults(ctx context.Context, filter store.FaultFilter) ([]schema.IngestFault, error) {
	if filter.Chain != "" && !domain.IsValidChain(filter.Chain) {
		return nil, fmt.Errorf("%w: unknown chain %q", domain.ErrInvalidArgument, filter.Chain)
	}
	switch filter.Status {
	case "", schema.FaultStatusOpen, schema.FaultStatusSkipped, schema.FaultStatusReleased, schema.FaultStatusResolved:
	default:
		return nil, fmt.Errorf("%w: unknown fault status %q", domain.ErrInvalidArgument, filter.Status)
	}
	return s.store.ListFaults(ctx, filter)
}

func (s *service) SkipFault(ctx context.Context, id string) (*schema.IngestFault, error) {
	return s.transition(ctx, id, schema.FaultStatusSkipped, schema.FaultStatusOpen)
}

func (s *service) ResolveFault(ctx context.Context, id string) (*schema.IngestFault, error) {
	return s.transition(ctx, id, schema.FaultStatusResolved, schema.FaultStatusOpen, schema.FaultStatusSkipped, schema.FaultStatusReleased)
}

func (s *service) transition(ctx context.Context, id string, to schema.FaultStatus, from ...schema.FaultStatus) (*schema.IngestFault, error) {
	fault, err := s.store.GetFault(ctx, id)
	if err != nil {
		return nil, err
	}
	if fault == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrFaultNotFound, id)
	}

	allowed := false
	for _, status := range from {
		if fault.Status == status {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, fmt.Errorf("%w: fault %s is %s", domain.ErrInvalidArgument, id, fault.Status)
	}

	if err := s.store.UpdateFaultStatus(ctx, id, to); err != nil {
		return nil, err
	}
	logger.InfoCtx(ctx, "Updated ingest fault",
		zap.String("faultID", id),
		zap.String("eventID", fault.EventID),
		zap.String("from", string(fault.Status)),
		zap.String("to", string(to)))

	fault.Status = to
	return fault, nil
}

func (s *service) ReleaseQuarantine(ctx context.Context, userID string, replay bool) (*ReleaseResult, error) {
	if replay && s.publisher == nil {
		return nil, ErrNoPublisher
	}

	held, err := s.store.ListFaults(ctx, store.FaultFilter{EntityID: userID, Status: schema.FaultStatusSkipped})
	if err != nil {
		return nil, err
	}

	released, err := s.store.ReleaseQuarantine(ctx, userID)
	if err != nil {
		return nil, err
	}
	result := &ReleaseResult{UserID: userID, Released: released}
	logger.InfoCtx(ctx, "Released quarantine", zap.String("userID", userID), zap.Int64("released", released))

	if !replay {
		return result, nil
	}

	heldBack := domain.ErrorKind(domain.ErrWalletQuarantined)
	events := make([]domain.RawEvent, 0, len(held))
	for _, fault := range held {
		if fault.ErrorKind != heldBack {
			result.RootCauses = append(result.RootCauses, fault.ID)
			continue
		}

		var raw domain.RawEvent
		if len(fault.Raw) == 0 {
			result.Unreplayable = append(result.Unreplayable, fault.ID)
			continue
		}
		if err := s.json.Unmarshal(fault.Raw, &raw); err != nil {
			logger.WarnCtx(ctx, "Fault has an unreadable raw event", zap.String("faultID", fault.ID), zap.Error(err))
			result.Unreplayable = append(result.Unreplayable, fault.ID)
			continue
		}
		events = append(events, raw)
	}

	// the ingestor applies released events in the order they are delivered
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Position().Less(events[j].Position())
	})

	for i := range events {
		if err := s.publisher.PublishRawEvent(ctx, &events[i]); err != nil {
			return result, fmt.Errorf("failed to republish event %s: %w", events[i].ID(), err)
		}
		result.Republished++
	}
	return result, nil
}

func (s *service) Repair(ctx context.Context, userID string) (*reconcile.Report, error) {
	return s.engine.Repair(ctx, userID)
}
