package reconcile

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/feral-file/ff-ledger/internal/adapter"
	"github.com/feral-file/ff-ledger/internal/domain"
	"github.com/feral-file/ff-ledger/internal/logger"
	"github.com/feral-file/ff-ledger/internal/store"
	"github.com/feral-file/ff-ledger/internal/store/schema"
)

const (
	DEFAULT_WORKERS   = 8
	DEFAULT_PAGE_SIZE = 500
)

// UncoveredType summarizes history records whose type the policy does not classify
type UncoveredType struct {
	Type   domain.HistoryType `json:"type"`
	Count  int                `json:"count"`
	Amount decimal.Decimal    `json:"amount"`
}

// Report is the result of reconciling one user
type Report struct {
	UserID        string       `json:"user_id"`
	Chain         domain.Chain `json:"chain"`
	PolicyVersion string       `json:"policy_version"`
	Decimals      int32        `json:"decimals"`

	ComputedSpent     decimal.Decimal `json:"computed_spent"`
	ComputedDeposited decimal.Decimal `json:"computed_deposited"`
	ComputedBalance   decimal.Decimal `json:"computed_balance"`
	StoredSpent       decimal.Decimal `json:"stored_spent"`
	StoredBalance     decimal.Decimal `json:"stored_balance"`

	Match bool `json:"match"`
	// Drift is the larger absolute difference of spent and balance
	Drift        decimal.Decimal `json:"drift"`
	SpentDrift   decimal.Decimal `json:"spent_drift"`
	BalanceDrift decimal.Decimal `json:"balance_drift"`
	Tolerance    decimal.Decimal `json:"tolerance"`

	Uncovered   []UncoveredType `json:"uncovered,omitempty"`
	RecordCount int             `json:"record_count"`
	CheckedAt   time.Time       `json:"checked_at"`
}

// Err returns a drift error when the stored totals do not match the fold
func (r *Report) Err() error {
	if r.Match {
		return nil
	}
	return fmt.Errorf("%w: user %s policy %s spent drift %s balance drift %s",
		domain.ErrReconciliationDrift, r.UserID, r.PolicyVersion, r.SpentDrift.String(), r.BalanceDrift.String())
}

// Summary is the result of reconciling many users
type Summary struct {
	PolicyVersion string            `json:"policy_version"`
	Checked       int               `json:"checked"`
	Drifted       []*Report         `json:"drifted"`
	Failed        map[string]string `json:"failed,omitempty"`
}

// DriftPublisher publishes drift reports for operators
//
//go:generate mockgen -source=engine.go -destination=../mocks/reconcile.go -package=mocks -mock_names=DriftPublisher=MockDriftPublisher,Engine=MockReconcileEngine
type DriftPublisher interface {
	PublishDriftReport(ctx context.Context, report *Report) error
}

// Config holds the reconciliation engine configuration
type Config struct {
	Decimals domain.Decimals
	Workers  int
	PageSize int
}

// Engine recomputes user totals from history and compares them with the stored aggregates
type Engine interface {
	// Reconcile folds every history record of the user through the policy; an empty version selects CurrentPolicy
	Reconcile(ctx context.Context, userID string, policyVersion string) (*Report, error)
	// ReconcileAll reconciles every user of the chain
	ReconcileAll(ctx context.Context, chain domain.Chain, policyVersion string) (*Summary, error)
	// Repair overwrites the stored totals of the user with the fold under CurrentPolicy
	Repair(ctx context.Context, userID string) (*Report, error)
}

type engine struct {
	config    Config
	store     store.Store
	clock     adapter.Clock
	publisher DriftPublisher
}

// NewEngine creates a reconciliation engine; publisher may be nil
func NewEngine(cfg Config, st store.Store, clock adapter.Clock, publisher DriftPublisher) Engine {
	if cfg.Workers <= 0 {
		cfg.Workers = DEFAULT_WORKERS
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = DEFAULT_PAGE_SIZE
	}
	return &engine{
		config:    cfg,
		store:     st,
		clock:     clock,
		publisher: publisher,
	}
}

// Reconcile recomputes the totals of one user
func (e *engine) Reconcile(ctx context.Context, userID string, policyVersion string) (*Report, error) {
	policy, err := LookupPolicy(policyVersion)
	if err != nil {
		return nil, err
	}
	ctx = logger.WithFields(ctx, zap.String("userID", userID), zap.String("policy", policyVersion))

	user, records, err := e.store.Snapshot(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot of user %s: %w", userID, err)
	}
	if user == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrUserNotFound, userID)
	}

	report := Fold(policy, user, records, e.config.Decimals.For(domain.Chain(user.Chain)))
	report.CheckedAt = e.clock.Now().UTC()

	if !report.Match {
		logger.ErrorCtx(ctx, report.Err(),
			zap.String("computedSpent", report.ComputedSpent.String()),
			zap.String("storedSpent", report.StoredSpent.String()),
			zap.String("computedBalance", report.ComputedBalance.String()),
			zap.String("storedBalance", report.StoredBalance.String()),
		)
		if e.publisher != nil {
			if err := e.publisher.PublishDriftReport(ctx, report); err != nil {
				logger.WarnCtx(ctx, "Failed to publish drift report", zap.Error(err))
			}
		}
	}
	if len(report.Uncovered) > 0 {
		logger.WarnCtx(ctx, "History types not covered by reconciliation policy",
			zap.Int("types", len(report.Uncovered)))
	}

	return report, nil
}

// Fold computes a report from a user row and its history. It is pure: the same
// inputs always give the same report.
func Fold(policy Policy, user *schema.User, records []schema.HistoryRecord, decimals int32) *Report {
	report := &Report{
		UserID:            user.ID,
		Chain:             domain.Chain(user.Chain),
		PolicyVersion:     policy.Version,
		Decimals:          decimals,
		ComputedSpent:     decimal.Zero,
		ComputedDeposited: decimal.Zero,
		StoredSpent:       user.TotalSpent,
		StoredBalance:     user.TotalBalance,
		Tolerance:         domain.SmallestUnit(decimals),
		RecordCount:       len(records),
	}

	uncovered := make(map[domain.HistoryType]*UncoveredType)
	for _, r := range records {
		t := domain.HistoryType(r.Type)
		switch policy.Classify(t) {
		case ClassDeposit:
			report.ComputedDeposited = report.ComputedDeposited.Add(r.Amount)
		case ClassSpending:
			report.ComputedSpent = report.ComputedSpent.Add(r.Amount)
		case ClassNeutral:
		default:
			u, ok := uncovered[t]
			if !ok {
				u = &UncoveredType{Type: t, Amount: decimal.Zero}
				uncovered[t] = u
			}
			u.Count++
			u.Amount = u.Amount.Add(r.Amount)
		}
	}

	// keep the enumeration order so reports are stable
	for _, t := range domain.AllHistoryTypes {
		if u, ok := uncovered[t]; ok {
			report.Uncovered = append(report.Uncovered, *u)
			delete(uncovered, t)
		}
	}
	for _, u := range uncovered {
		report.Uncovered = append(report.Uncovered, *u)
	}

	report.ComputedBalance = report.ComputedDeposited.Sub(report.ComputedSpent)
	report.SpentDrift = report.ComputedSpent.Sub(report.StoredSpent)
	report.BalanceDrift = report.ComputedBalance.Sub(report.StoredBalance)

	report.Drift = report.SpentDrift.Abs()
	if b := report.BalanceDrift.Abs(); b.GreaterThan(report.Drift) {
		report.Drift = b
	}
	report.Match = report.SpentDrift.Abs().LessThanOrEqual(report.Tolerance) &&
		report.BalanceDrift.Abs().LessThanOrEqual(report.Tolerance)

	return report
}

// ReconcileAll pages through the users of a chain and reconciles them on a bounded worker pool
func (e *engine) ReconcileAll(ctx context.Context, chain domain.Chain, policyVersion string) (*Summary, error) {
	policy, err := LookupPolicy(policyVersion)
	if err != nil {
		return nil, err
	}

	summary := &Summary{
		PolicyVersion: policy.Version,
		Failed:        make(map[string]string),
	}
	var mu sync.Mutex

	pool := pond.NewPool(e.config.Workers, pond.WithContext(ctx))
	defer pool.StopAndWait()

	logger.InfoCtx(ctx, "Starting reconciliation",
		zap.String("chain", string(chain)),
		zap.String("policy", policy.Version),
		zap.Int("workers", e.config.Workers))

	var tasks []pond.Task
	after := ""
	for {
		ids, err := e.store.ListUserIDs(ctx, chain, after, e.config.PageSize)
		if err != nil {
			return nil, fmt.Errorf("failed to list users: %w", err)
		}
		if len(ids) == 0 {
			break
		}

		for _, id := range ids {
			tasks = append(tasks, pool.SubmitErr(func() error {
				report, err := e.Reconcile(ctx, id, policy.Version)

				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					summary.Failed[id] = err.Error()
					return err
				}
				summary.Checked++
				if !report.Match {
					summary.Drifted = append(summary.Drifted, report)
				}
				return nil
			}))
		}

		after = ids[len(ids)-1]
		if len(ids) < e.config.PageSize {
			break
		}
	}

	for _, task := range tasks {
		if err := task.Wait(); err != nil && errors.Is(err, context.Canceled) {
			return summary, err
		}
	}

	logger.InfoCtx(ctx, "Reconciliation finished",
		zap.String("chain", string(chain)),
		zap.Int("checked", summary.Checked),
		zap.Int("drifted", len(summary.Drifted)),
		zap.Int("failed", len(summary.Failed)))

	return summary, ctx.Err()
}

// Repair is the explicitly invoked correction: it overwrites the stored totals with the fold.
// The user row stays locked from the history read to the write, so a concurrent
// ingest either lands before the fold or waits for the repair to commit.
func (e *engine) Repair(ctx context.Context, userID string) (*Report, error) {
	policy, err := LookupPolicy(CurrentPolicy)
	if err != nil {
		return nil, err
	}
	ctx = logger.WithFields(ctx, zap.String("userID", userID), zap.String("policy", policy.Version))

	var report *Report
	err = e.store.WithinTx(ctx, func(tx store.Tx) error {
		user, err := tx.GetUserForUpdate(ctx, userID)
		if err != nil {
			return err
		}
		if user == nil {
			return fmt.Errorf("%w: %s", domain.ErrUserNotFound, userID)
		}

		records, err := tx.ListUserHistory(ctx, userID)
		if err != nil {
			return err
		}

		report = Fold(policy, user, records, e.config.Decimals.For(domain.Chain(user.Chain)))
		report.CheckedAt = e.clock.Now().UTC()
		if report.Match {
			return nil
		}

		user.TotalSpent = report.ComputedSpent
		user.TotalBalance = report.ComputedBalance
		return tx.SaveUser(ctx, user)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to repair user %s: %w", userID, err)
	}
	if report.Match {
		return report, nil
	}

	logger.WarnCtx(ctx, "Repaired user totals",
		zap.String("oldSpent", report.StoredSpent.String()),
		zap.String("newSpent", report.ComputedSpent.String()),
		zap.String("oldBalance", report.StoredBalance.String()),
		zap.String("newBalance", report.ComputedBalance.String()))

	return report, nil
}
