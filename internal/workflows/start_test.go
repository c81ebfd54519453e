package workflows_test

import (
	"context"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/client"

	"github.com/feral-file/ff-ledger/internal/domain"
	"github.com/feral-file/ff-ledger/internal/mocks"
	"github.com/feral-file/ff-ledger/internal/reconcile"
	"github.com/feral-file/ff-ledger/internal/workflows"
)

func TestStartReconcileChain(t *testing.T) {
	ctrl := gomock.NewController(t)
	orchestrator := mocks.NewMockTemporalOrchestrator(ctrl)

	orchestrator.EXPECT().
		ExecuteWorkflow(gomock.Any(), gomock.Any(), workflows.ReconcileChainWorkflowName, gomock.Any()).
		DoAndReturn(func(_ context.Context, options client.StartWorkflowOptions, _ interface{}, args ...interface{}) (client.WorkflowRun, error) {
			assert.Equal(t, "reconcile-chain-eip155:8453-v1", options.ID)
			assert.Equal(t, "ledger-reconcile", options.TaskQueue)
			require.Len(t, args, 1)
			input := args[0].(workflows.ReconcileChainInput)
			assert.Equal(t, reconcile.CurrentPolicy, input.PolicyVersion)
			return nil, nil
		})

	_, err := workflows.StartReconcileChain(context.Background(), orchestrator, "ledger-reconcile",
		workflows.ReconcileChainInput{Chain: domain.ChainBaseMainnet})
	assert.NoError(t, err)
}

func TestStartReconcileChainUnknownPolicy(t *testing.T) {
	ctrl := gomock.NewController(t)
	orchestrator := mocks.NewMockTemporalOrchestrator(ctrl)

	_, err := workflows.StartReconcileChain(context.Background(), orchestrator, "ledger-reconcile",
		workflows.ReconcileChainInput{Chain: domain.ChainBaseMainnet, PolicyVersion: "v99"})
	assert.Error(t, err)
}
