package workflows

import (
	"context"
	"fmt"

	"go.temporal.io/api/enums/v1"
	"go.temporal.io/sdk/client"

	"github.com/feral-file/ff-ledger/internal/providers/temporal"
	"github.com/feral-file/ff-ledger/internal/reconcile"
)

// ReconcileChainWorkflowName is the registered name of ReconcileChain
const ReconcileChainWorkflowName = "ReconcileChain"

// StartReconcileChain starts a chain reconciliation on the task queue. A run already in
// progress for the same chain and policy is returned instead of a second one.
func StartReconcileChain(ctx context.Context, orchestrator temporal.TemporalOrchestrator, taskQueue string, input ReconcileChainInput) (client.WorkflowRun, error) {
	if input.PolicyVersion == "" {
		input.PolicyVersion = reconcile.CurrentPolicy
	}
	if _, err := reconcile.LookupPolicy(input.PolicyVersion); err != nil {
		return nil, err
	}

	run, err := orchestrator.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:                       ReconcileChainWorkflowID(input),
		TaskQueue:                taskQueue,
		WorkflowIDReusePolicy:    enums.WORKFLOW_ID_REUSE_POLICY_ALLOW_DUPLICATE,
		WorkflowIDConflictPolicy: enums.WORKFLOW_ID_CONFLICT_POLICY_USE_EXISTING,
	}, ReconcileChainWorkflowName, input)
	if err != nil {
		return nil, fmt.Errorf("failed to start reconciliation workflow: %w", err)
	}
	return run, nil
}
