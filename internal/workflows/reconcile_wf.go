package workflows

import (
	"fmt"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
	"go.uber.org/zap"

	"github.com/feral-file/ff-ledger/internal/logger"
)

// ReconcileChainWorkflowID is the workflow id of the scheduled reconciliation of a chain
func ReconcileChainWorkflowID(input ReconcileChainInput) string {
	return fmt.Sprintf("reconcile-chain-%s-%s", input.Chain, input.PolicyVersion)
}

// ReconcileChain reconciles every user of a chain. Drift is reported, never repaired.
func (w *reconcileWorker) ReconcileChain(ctx workflow.Context, input ReconcileChainInput) (*ReconcileChainResult, error) {
	logger.InfoWf(ctx, "Reconciling chain",
		zap.String("chain", string(input.Chain)),
		zap.String("policy", input.PolicyVersion),
		zap.String("afterID", input.AfterID))

	ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Minute,
		HeartbeatTimeout:    2 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    5 * time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    5 * time.Minute,
			MaximumAttempts:    5,
		},
	})

	totals := input.Totals
	after := input.AfterID
	for {
		var ids []string
		err := workflow.ExecuteActivity(ctx, w.executor.ListUserIDs, input.Chain, after, w.config.PageSize).Get(ctx, &ids)
		if err != nil {
			logger.ErrorWf(ctx, fmt.Errorf("failed to list users"), zap.Error(err), zap.String("afterID", after))
			return nil, err
		}
		if len(ids) == 0 {
			break
		}

		var batch BatchResult
		err = workflow.ExecuteActivity(ctx, w.executor.ReconcileUsers, ids, input.PolicyVersion).Get(ctx, &batch)
		if err != nil {
			logger.ErrorWf(ctx, fmt.Errorf("failed to reconcile users"), zap.Error(err), zap.String("afterID", after))
			return nil, err
		}
		totals.add(&batch)
		after = ids[len(ids)-1]

		if len(ids) < w.config.PageSize {
			break
		}

		if w.temporalWorkflow.GetCurrentHistoryLength(ctx) >= w.config.HistoryLimit {
			logger.InfoWf(ctx, "Continuing as new",
				zap.String("afterID", after),
				zap.Int("checked", totals.Checked))
			next := input
			next.AfterID = after
			next.Totals = totals
			return nil, workflow.NewContinueAsNewError(ctx, w.ReconcileChain, next)
		}
	}

	logger.InfoWf(ctx, "Chain reconciled",
		zap.String("chain", string(input.Chain)),
		zap.Int("checked", totals.Checked),
		zap.Int("drifted", len(totals.Drifted)),
		zap.Int("failed", len(totals.Failed)))

	return &totals, nil
}
