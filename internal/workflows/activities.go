package workflows

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/alitto/pond/v2"
	"go.temporal.io/sdk/temporal"
	"go.uber.org/zap"

	"github.com/feral-file/ff-ledger/internal/adapter"
	"github.com/feral-file/ff-ledger/internal/domain"
	"github.com/feral-file/ff-ledger/internal/logger"
	"github.com/feral-file/ff-ledger/internal/reconcile"
	"github.com/feral-file/ff-ledger/internal/store"
)

const (
	DEFAULT_ACTIVITY_WORKERS = 8
)

// Executor defines the activities of the reconciliation workflows
//
//go:generate mockgen -source=activities.go -destination=../mocks/activities.go -package=mocks -mock_names=Executor=MockExecutor
type Executor interface {
	// ListUserIDs lists a page of user ids of a chain after the given id
	ListUserIDs(ctx context.Context, chain domain.Chain, afterID string, limit int) ([]string, error)

	// ReconcileUsers reconciles the users of one page on a bounded worker pool
	ReconcileUsers(ctx context.Context, userIDs []string, policyVersion string) (*BatchResult, error)
}

// BatchResult is the outcome of reconciling one page of users
type BatchResult struct {
	Checked int               `json:"checked"`
	Drifted []string          `json:"drifted,omitempty"`
	Failed  map[string]string `json:"failed,omitempty"`
}

// executor is the concrete implementation of Executor
type executor struct {
	store            store.Reader
	engine           reconcile.Engine
	temporalActivity adapter.Activity
	workers          int
}

// NewExecutor creates a new executor instance
func NewExecutor(st store.Reader, engine reconcile.Engine, temporalActivity adapter.Activity, workers int) Executor {
	if workers <= 0 {
		workers = DEFAULT_ACTIVITY_WORKERS
	}
	return &executor{
		store:            st,
		engine:           engine,
		temporalActivity: temporalActivity,
		workers:          workers,
	}
}

// ListUserIDs lists a page of user ids of a chain after the given id
func (e *executor) ListUserIDs(ctx context.Context, chain domain.Chain, afterID string, limit int) ([]string, error) {
	ids, err := e.store.ListUserIDs(ctx, chain, afterID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return ids, nil
}

// ReconcileUsers reconciles every user of the page. A user that cannot be reconciled is
// reported in Failed; only an unknown policy fails the activity.
func (e *executor) ReconcileUsers(ctx context.Context, userIDs []string, policyVersion string) (*BatchResult, error) {
	if _, err := reconcile.LookupPolicy(policyVersion); err != nil {
		return nil, temporal.NewNonRetryableApplicationError(err.Error(), "UnknownPolicy", err)
	}

	attempt := e.temporalActivity.GetInfo(ctx).Attempt
	logger.InfoCtx(ctx, "Reconciling users",
		zap.Int("users", len(userIDs)),
		zap.String("policy", policyVersion),
		zap.Int32("attempt", attempt))

	result := &BatchResult{Failed: make(map[string]string)}
	var mu sync.Mutex

	pool := pond.NewPool(e.workers, pond.WithContext(ctx))
	defer pool.StopAndWait()

	tasks := make([]pond.Task, 0, len(userIDs))
	for _, id := range userIDs {
		tasks = append(tasks, pool.SubmitErr(func() error {
			report, err := e.engine.Reconcile(ctx, id, policyVersion)

			mu.Lock()
			defer mu.Unlock()
			defer func() {
				e.temporalActivity.RecordHeartbeat(ctx, result.Checked+len(result.Failed))
			}()
			if err != nil {
				result.Failed[id] = err.Error()
				return err
			}
			result.Checked++
			if !report.Match {
				result.Drifted = append(result.Drifted, id)
			}
			return nil
		}))
	}

	for _, task := range tasks {
		if err := task.Wait(); err != nil && errors.Is(err, context.Canceled) {
			return nil, err
		}
	}

	return result, nil
}
