package query

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/feral-file/ff-ledger/internal/adapter"
	"github.com/feral-file/ff-ledger/internal/domain"
	"github.com/feral-file/ff-ledger/internal/reconcile"
	"github.com/feral-file/ff-ledger/internal/store"
	"github.com/feral-file/ff-ledger/internal/store/schema"
)

// UTILIZATION_PRECISION is the number of fractional digits of a bucket utilization ratio
const UTILIZATION_PRECISION = 4

// Period is the granularity of a spend series
type Period string

const (
	PeriodDay   Period = "day"
	PeriodMonth Period = "month"
	PeriodYear  Period = "year"
)

// ParsePeriod parses a period name, defaulting to day
func ParsePeriod(s string) (Period, error) {
	switch Period(strings.ToLower(strings.TrimSpace(s))) {
	case "", PeriodDay:
		return PeriodDay, nil
	case PeriodMonth:
		return PeriodMonth, nil
	case PeriodYear:
		return PeriodYear, nil
	default:
		return "", fmt.Errorf("%w: unknown period %q", domain.ErrInvalidArgument, s)
	}
}

// Start returns the start of the UTC calendar period containing t
func (p Period) Start(t time.Time) time.Time {
	t = t.UTC()
	switch p {
	case PeriodYear:
		return time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	case PeriodMonth:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	default:
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	}
}

// UserSummary is the per-user projection
type UserSummary struct {
	UserID          string
	Chain           domain.Chain
	Address         string
	Owner           string
	Decimals        int32
	TotalBalance    decimal.Decimal
	TotalSpent      decimal.Decimal
	TotalDeposited  decimal.Decimal
	BucketsCount    int64
	ActiveDelegates []string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// BucketUsage is the budget utilization of one bucket
type BucketUsage struct {
	BucketID     string
	Name         string
	Active       bool
	Balance      decimal.Decimal
	MonthlyLimit decimal.Decimal
	MonthlySpent decimal.Decimal
	// Utilization is monthlySpent / monthlyLimit, nil when the bucket has no limit
	Utilization *decimal.Decimal
	OverBudget  bool
}

// SpendPoint is the spending of one calendar period
type SpendPoint struct {
	PeriodStart time.Time
	Amount      decimal.Decimal
	Count       int
}

// SpendSeries is a time-bucketed spending series
type SpendSeries struct {
	UserID   string
	Period   Period
	Decimals int32
	Points   []SpendPoint
}

// AbandonedBucket is an active bucket without activity for longer than the threshold
type AbandonedBucket struct {
	BucketID     string
	Name         string
	Balance      decimal.Decimal
	LastActivity time.Time
	InactiveFor  time.Duration
}

// GlobalStats is the system-wide projection. Its amounts add token units of every
// chain, so they only mean one asset when every chain carries the same token; Chains
// breaks them down with each chain's decimals.
type GlobalStats struct {
	Decimals            int32
	TotalUsers          int64
	TotalBuckets        int64
	TotalWalletsCreated int64
	TotalVolume         decimal.Decimal
	TotalDeposits       decimal.Decimal
	TotalWithdrawals    decimal.Decimal
	UpdatedAt           time.Time
	Chains              []ChainStats
}

// ChainStats is the stats row of one chain
type ChainStats struct {
	Chain               domain.Chain
	Decimals            int32
	TotalUsers          int64
	TotalBuckets        int64
	TotalWalletsCreated int64
	TotalVolume         decimal.Decimal
	TotalDeposits       decimal.Decimal
	TotalWithdrawals    decimal.Decimal
	UpdatedAt           time.Time
}

// Config holds the query service configuration
type Config struct {
	Decimals domain.Decimals
}

// Service provides read-only projections of the ledger
//
//go:generate mockgen -source=query.go -destination=../mocks/query.go -package=mocks -mock_names=Service=MockQueryService
type Service interface {
	// UserSummary returns the balances of a wallet
	UserSummary(ctx context.Context, chain domain.Chain, address string) (*UserSummary, error)
	// BucketUsage returns the budget utilization of every bucket of a wallet
	BucketUsage(ctx context.Context, chain domain.Chain, address string) ([]BucketUsage, error)
	// SpendSeries groups the spending of a wallet by UTC calendar period; from is inclusive, to exclusive, zero means unbounded
	SpendSeries(ctx context.Context, chain domain.Chain, address string, period Period, from, to time.Time) (*SpendSeries, error)
	// AbandonedBuckets lists active buckets whose last activity is older than threshold
	AbandonedBuckets(ctx context.Context, chain domain.Chain, address string, threshold time.Duration) ([]AbandonedBucket, error)
	// GlobalStats returns the system-wide totals
	GlobalStats(ctx context.Context) (*GlobalStats, error)
}

type service struct {
	config Config
	store  store.Reader
	clock  adapter.Clock
	policy reconcile.Policy
}

// NewService creates a query service. Spending and deposit types follow the current reconciliation policy.
func NewService(cfg Config, st store.Reader, clock adapter.Clock) Service {
	policy, err := reconcile.LookupPolicy(reconcile.CurrentPolicy)
	if err != nil {
		panic(err)
	}
	return &service{
		config: cfg,
		store:  st,
		clock:  clock,
		policy: policy,
	}
}

func (s *service) resolveUser(ctx context.Context, chain domain.Chain, address string) (*schema.User, error) {
	if !domain.IsValidChain(chain) {
		return nil, fmt.Errorf("%w: unsupported chain %q", domain.ErrInvalidArgument, chain)
	}
	if !domain.IsValidAddress(address) {
		return nil, fmt.Errorf("%w: invalid address %q", domain.ErrInvalidArgument, address)
	}

	userID := domain.NewUserID(chain, address)
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrUserNotFound, userID)
	}
	return user, nil
}

// UserSummary returns the balances of a wallet
func (s *service) UserSummary(ctx context.Context, chain domain.Chain, address string) (*UserSummary, error) {
	user, err := s.resolveUser(ctx, chain, address)
	if err != nil {
		return nil, err
	}

	deposits, err := s.store.ListHistoryByUser(ctx, user.ID, store.HistoryFilter{Types: s.policy.Types(reconcile.ClassDeposit)})
	if err != nil {
		return nil, fmt.Errorf("failed to list deposits: %w", err)
	}
	deposited := decimal.Zero
	for _, r := range deposits {
		deposited = deposited.Add(r.Amount)
	}

	delegates, err := s.store.ListDelegates(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list delegates: %w", err)
	}
	active := make([]string, 0, len(delegates))
	for _, d := range delegates {
		if d.Active {
			active = append(active, d.Delegate)
		}
	}

	return &UserSummary{
		UserID:          user.ID,
		Chain:           domain.Chain(user.Chain),
		Address:         user.Address,
		Owner:           user.Owner,
		Decimals:        s.config.Decimals.For(chain),
		TotalBalance:    user.TotalBalance,
		TotalSpent:      user.TotalSpent,
		TotalDeposited:  deposited,
		BucketsCount:    user.BucketsCount,
		ActiveDelegates: active,
		CreatedAt:       user.CreatedAt,
		UpdatedAt:       user.UpdatedAt,
	}, nil
}

// BucketUsage returns the budget utilization of every bucket of a wallet
func (s *service) BucketUsage(ctx context.Context, chain domain.Chain, address string) ([]BucketUsage, error) {
	user, err := s.resolveUser(ctx, chain, address)
	if err != nil {
		return nil, err
	}

	buckets, err := s.store.ListBucketsByUser(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list buckets: %w", err)
	}

	usage := make([]BucketUsage, 0, len(buckets))
	for _, b := range buckets {
		u := BucketUsage{
			BucketID:     b.ID,
			Name:         b.Name,
			Active:       b.Active,
			Balance:      b.Balance,
			MonthlyLimit: b.MonthlyLimit,
			MonthlySpent: b.MonthlySpent,
		}
		if b.MonthlyLimit.IsPositive() {
			ratio := b.MonthlySpent.DivRound(b.MonthlyLimit, UTILIZATION_PRECISION)
			u.Utilization = &ratio
			u.OverBudget = b.MonthlySpent.GreaterThan(b.MonthlyLimit)
		}
		usage = append(usage, u)
	}
	return usage, nil
}

// SpendSeries groups the spending of a wallet by UTC calendar period
func (s *service) SpendSeries(ctx context.Context, chain domain.Chain, address string, period Period, from, to time.Time) (*SpendSeries, error) {
	if !from.IsZero() && !to.IsZero() && !from.Before(to) {
		return nil, fmt.Errorf("%w: from must be before to", domain.ErrInvalidArgument)
	}

	user, err := s.resolveUser(ctx, chain, address)
	if err != nil {
		return nil, err
	}

	filter := store.HistoryFilter{Types: s.policy.Types(reconcile.ClassSpending)}
	if !from.IsZero() {
		filter.Since = &from
	}
	if !to.IsZero() {
		filter.Until = &to
	}
	records, err := s.store.ListHistoryByUser(ctx, user.ID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list spending: %w", err)
	}

	points := make(map[time.Time]*SpendPoint)
	for _, r := range records {
		start := period.Start(r.BlockTimestamp)
		p, ok := points[start]
		if !ok {
			p = &SpendPoint{PeriodStart: start, Amount: decimal.Zero}
			points[start] = p
		}
		p.Amount = p.Amount.Add(r.Amount)
		p.Count++
	}

	series := &SpendSeries{
		UserID:   user.ID,
		Period:   period,
		Decimals: s.config.Decimals.For(chain),
		Points:   make([]SpendPoint, 0, len(points)),
	}
	for _, p := range points {
		series.Points = append(series.Points, *p)
	}
	sort.Slice(series.Points, func(i, j int) bool {
		return series.Points[i].PeriodStart.Before(series.Points[j].PeriodStart)
	})
	return series, nil
}

// AbandonedBuckets lists active buckets whose last activity is older than threshold
func (s *service) AbandonedBuckets(ctx context.Context, chain domain.Chain, address string, threshold time.Duration) ([]AbandonedBucket, error) {
	if threshold <= 0 {
		return nil, fmt.Errorf("%w: inactivity threshold must be positive", domain.ErrInvalidArgument)
	}

	user, err := s.resolveUser(ctx, chain, address)
	if err != nil {
		return nil, err
	}

	buckets, err := s.store.ListBucketsByUser(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list buckets: %w", err)
	}
	lastActivity, err := s.store.LastActivityByBucket(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get bucket activity: %w", err)
	}

	now := s.clock.Now()
	cutoff := now.Add(-threshold)

	abandoned := make([]AbandonedBucket, 0)
	for _, b := range buckets {
		if !b.Active {
			continue
		}
		last, ok := lastActivity[b.ID]
		if !ok {
			last = b.CreatedAt
		}
		if !last.Before(cutoff) {
			continue
		}
		abandoned = append(abandoned, AbandonedBucket{
			BucketID:     b.ID,
			Name:         b.Name,
			Balance:      b.Balance,
			LastActivity: last,
			InactiveFor:  now.Sub(last),
		})
	}
	return abandoned, nil
}

// GlobalStats returns the system-wide totals
func (s *service) GlobalStats(ctx context.Context) (*GlobalStats, error) {
	stats, err := s.store.GetGlobalStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get global stats: %w", err)
	}

	rows, err := s.store.ListChainStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list chain stats: %w", err)
	}

	chains := make([]ChainStats, 0, len(rows))
	for _, row := range rows {
		chain := domain.Chain(row.ID)
		chains = append(chains, ChainStats{
			Chain:               chain,
			Decimals:            s.config.Decimals.For(chain),
			TotalUsers:          row.TotalUsers,
			TotalBuckets:        row.TotalBuckets,
			TotalWalletsCreated: row.TotalWalletsCreated,
			TotalVolume:         row.TotalVolume,
			TotalDeposits:       row.TotalDeposits,
			TotalWithdrawals:    row.TotalWithdrawals,
			UpdatedAt:           row.UpdatedAt,
		})
	}

	return &GlobalStats{
		Decimals:            s.config.Decimals.For(""),
		TotalUsers:          stats.TotalUsers,
		TotalBuckets:        stats.TotalBuckets,
		TotalWalletsCreated: stats.TotalWalletsCreated,
		TotalVolume:         stats.TotalVolume,
		TotalDeposits:       stats.TotalDeposits,
		TotalWithdrawals:    stats.TotalWithdrawals,
		UpdatedAt:           stats.UpdatedAt,
		Chains:              chains,
	}, nil
}
