package graphql

import (
	"context"
	"fmt"
	"time"

	"github.com/feral-file/ff-ledger/internal/api/shared/constants"
	apierrors "github.com/feral-file/ff-ledger/internal/api/shared/errors"
	"github.com/feral-file/ff-ledger/internal/api/shared/executor"
	"github.com/feral-file/ff-ledger/internal/domain"
	"github.com/feral-file/ff-ledger/internal/query"
)

// fieldResolver resolves one Query field from its coerced arguments
type fieldResolver func(ctx context.Context, args map[string]any) (any, error)

// Resolver is the root resolver that holds executor
type Resolver struct {
	executor executor.Executor
	// inactiveFor is the abandoned buckets threshold when the query names none
	inactiveFor time.Duration
}

// NewResolver creates a new root resolver with executor
func NewResolver(exec executor.Executor, inactiveFor time.Duration) *Resolver {
	if inactiveFor <= 0 {
		inactiveFor = constants.DEFAULT_INACTIVE_FOR
	}
	return &Resolver{executor: exec, inactiveFor: inactiveFor}
}

// fields returns the resolvers of the Query type by field name
func (r *Resolver) fields() map[string]fieldResolver {
	return map[string]fieldResolver{
		"walletSummary":    r.walletSummary,
		"buckets":          r.buckets,
		"spendSeries":      r.spendSeries,
		"abandonedBuckets": r.abandonedBuckets,
		"globalStats":      r.globalStats,
		"reconciliation":   r.reconciliation,
	}
}

func (r *Resolver) walletSummary(ctx context.Context, args map[string]any) (any, error) {
	chain, address, err := walletArgs(args)
	if err != nil {
		return nil, err
	}
	summary, err := r.executor.GetUserSummary(ctx, chain, address)
	if err != nil {
		return nil, err
	}
	return mapWalletSummary(summary), nil
}

func (r *Resolver) buckets(ctx context.Context, args map[string]any) (any, error) {
	chain, address, err := walletArgs(args)
	if err != nil {
		return nil, err
	}
	buckets, err := r.executor.ListBuckets(ctx, chain, address)
	if err != nil {
		return nil, err
	}
	return mapBucketList(buckets), nil
}

func (r *Resolver) spendSeries(ctx context.Context, args map[string]any) (any, error) {
	chain, address, err := walletArgs(args)
	if err != nil {
		return nil, err
	}

	name, _ := args["period"].(string)
	period, err := query.ParsePeriod(name)
	if err != nil {
		return nil, apierrors.NewValidationError(err.Error())
	}
	from, err := UnmarshalTime("from", args["from"])
	if err != nil {
		return nil, apierrors.NewValidationError(err.Error())
	}
	to, err := UnmarshalTime("to", args["to"])
	if err != nil {
		return nil, apierrors.NewValidationError(err.Error())
	}
	if from != nil && to != nil && !from.Before(*to) {
		return nil, apierrors.NewValidationError("from must be before to")
	}

	series, err := r.executor.GetSpendSeries(ctx, chain, address, period, from, to)
	if err != nil {
		return nil, err
	}
	return mapSpendSeries(series), nil
}

func (r *Resolver) abandonedBuckets(ctx context.Context, args map[string]any) (any, error) {
	chain, address, err := walletArgs(args)
	if err != nil {
		return nil, err
	}

	inactiveFor := r.inactiveFor
	if raw, _ := args["inactiveFor"].(string); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return nil, apierrors.NewValidationError(fmt.Sprintf("invalid inactiveFor: %s", err))
		}
		if d < constants.MIN_INACTIVE_FOR {
			return nil, apierrors.NewValidationError(fmt.Sprintf("inactiveFor must be at least %s", constants.MIN_INACTIVE_FOR))
		}
		inactiveFor = d
	}

	buckets, err := r.executor.ListAbandonedBuckets(ctx, chain, address, inactiveFor)
	if err != nil {
		return nil, err
	}
	return mapAbandonedBuckets(buckets), nil
}

func (r *Resolver) globalStats(ctx context.Context, _ map[string]any) (any, error) {
	stats, err := r.executor.GetGlobalStats(ctx)
	if err != nil {
		return nil, err
	}
	return mapGlobalStats(stats), nil
}

func (r *Resolver) reconciliation(ctx context.Context, args map[string]any) (any, error) {
	chain, address, err := walletArgs(args)
	if err != nil {
		return nil, err
	}
	policy, _ := args["policy"].(string)

	report, err := r.executor.ReconcileWallet(ctx, chain, address, policy)
	if err != nil {
		return nil, err
	}
	return mapReconciliation(report), nil
}

// walletArgs parses the chain, by name or CAIP-2 id, and the wallet address
func walletArgs(args map[string]any) (domain.Chain, string, error) {
	name, _ := args["chain"].(string)
	chain, err := domain.ParseChain(name)
	if err != nil {
		return "", "", apierrors.NewValidationError(err.Error())
	}

	address, _ := args["address"].(string)
	if !domain.IsValidAddress(address) {
		return "", "", apierrors.NewValidationError(fmt.Sprintf("invalid address: %s", address))
	}
	return chain, domain.NormalizeAddress(address), nil
}
