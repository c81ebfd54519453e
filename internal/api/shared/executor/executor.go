package executor

import (
	"context"
	"fmt"
	"time"

	"github.com/feral-file/ff-ledger/internal/api/shared/dto"
	apierrors "github.com/feral-file/ff-ledger/internal/api/shared/errors"
	"github.com/feral-file/ff-ledger/internal/domain"
	"github.com/feral-file/ff-ledger/internal/query"
	"github.com/feral-file/ff-ledger/internal/reconcile"
)

// Executor is the interface for the API executor
//
//go:generate mockgen -source=executor.go -destination=../../../mocks/api_executor.go -package=mocks -mock_names=Executor=MockAPIExecutor
type Executor interface {
	// GetUserSummary retrieves the balances of a wallet
	GetUserSummary(ctx context.Context, chain domain.Chain, address string) (*dto.UserSummaryResponse, error)

	// ListBuckets retrieves the budget utilization of the buckets of a wallet
	ListBuckets(ctx context.Context, chain domain.Chain, address string) (*dto.BucketListResponse, error)

	// GetSpendSeries retrieves the spending of a wallet grouped by calendar period
	GetSpendSeries(ctx context.Context, chain domain.Chain, address string, period query.Period, from, to *time.Time) (*dto.SpendSeriesResponse, error)

	// ListAbandonedBuckets retrieves the active buckets without activity for longer than inactiveFor
	ListAbandonedBuckets(ctx context.Context, chain domain.Chain, address string, inactiveFor time.Duration) (*dto.AbandonedBucketListResponse, error)

	// GetGlobalStats retrieves the system-wide totals
	GetGlobalStats(ctx context.Context) (*dto.GlobalStatsResponse, error)

	// ReconcileWallet recomputes the totals of a wallet under a policy; it never repairs
	ReconcileWallet(ctx context.Context, chain domain.Chain, address string, policyVersion string) (*dto.ReconciliationResponse, error)
}

// Config holds the executor configuration
type Config struct {
	Decimals domain.Decimals
}

type executor struct {
	config    Config
	query     query.Service
	reconcile reconcile.Engine
}

func NewExecutor(cfg Config, querySvc query.Service, engine reconcile.Engine) Executor {
	return &executor{config: cfg, query: querySvc, reconcile: engine}
}

func (e *executor) GetUserSummary(ctx context.Context, chain domain.Chain, address string) (*dto.UserSummaryResponse, error) {
	summary, err := e.query.UserSummary(ctx, chain, address)
	if err != nil {
		return nil, apierrors.FromDomainError(err, "Failed to get wallet summary")
	}
	return dto.MapUserSummaryToDTO(summary), nil
}

func (e *executor) ListBuckets(ctx context.Context, chain domain.Chain, address string) (*dto.BucketListResponse, error) {
	usage, err := e.query.BucketUsage(ctx, chain, address)
	if err != nil {
		return nil, apierrors.FromDomainError(err, "Failed to get buckets")
	}
	return dto.MapBucketUsageToDTO(domain.NewUserID(chain, address), e.config.Decimals.For(chain), usage), nil
}

func (e *executor) GetSpendSeries(ctx context.Context, chain domain.Chain, address string, period query.Period, from, to *time.Time) (*dto.SpendSeriesResponse, error) {
	var since, until time.Time
	if from != nil {
		since = *from
	}
	if to != nil {
		until = *to
	}

	series, err := e.query.SpendSeries(ctx, chain, address, period, since, until)
	if err != nil {
		return nil, apierrors.FromDomainError(err, "Failed to get spend series")
	}
	return dto.MapSpendSeriesToDTO(series), nil
}

func (e *executor) ListAbandonedBuckets(ctx context.Context, chain domain.Chain, address string, inactiveFor time.Duration) (*dto.AbandonedBucketListResponse, error) {
	abandoned, err := e.query.AbandonedBuckets(ctx, chain, address, inactiveFor)
	if err != nil {
		return nil, apierrors.FromDomainError(err, "Failed to get abandoned buckets")
	}
	return dto.MapAbandonedBucketsToDTO(e.config.Decimals.For(chain), inactiveFor.String(), abandoned), nil
}

func (e *executor) GetGlobalStats(ctx context.Context) (*dto.GlobalStatsResponse, error) {
	stats, err := e.query.GlobalStats(ctx)
	if err != nil {
		return nil, apierrors.FromDomainError(err, "Failed to get global stats")
	}
	return dto.MapGlobalStatsToDTO(stats), nil
}

func (e *executor) ReconcileWallet(ctx context.Context, chain domain.Chain, address string, policyVersion string) (*dto.ReconciliationResponse, error) {
	if !domain.IsValidChain(chain) {
		return nil, apierrors.NewValidationError(fmt.Sprintf("unsupported chain: %s", chain))
	}
	if !domain.IsValidAddress(address) {
		return nil, apierrors.NewValidationError(fmt.Sprintf("invalid address: %s", address))
	}

	report, err := e.reconcile.Reconcile(ctx, domain.NewUserID(chain, address), policyVersion)
	if err != nil {
		return nil, apierrors.FromDomainError(err, "Failed to reconcile wallet")
	}
	return dto.MapReportToDTO(report), nil
}
