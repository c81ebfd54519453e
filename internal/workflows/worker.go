package workflows

import (
	"go.temporal.io/sdk/workflow"

	"github.com/feral-file/ff-ledger/internal/adapter"
	"github.com/feral-file/ff-ledger/internal/domain"
)

const (
	DEFAULT_PAGE_SIZE = 500
	// DEFAULT_HISTORY_LIMIT is the event history length after which a run continues as new
	DEFAULT_HISTORY_LIMIT = 10000
)

// ReconcileWorker defines the reconciliation workflows
type ReconcileWorker interface {
	// ReconcileChain reconciles every user of a chain, page by page
	ReconcileChain(ctx workflow.Context, input ReconcileChainInput) (*ReconcileChainResult, error)
}

// ReconcileWorkerConfig holds the configuration of the reconciliation workflows
type ReconcileWorkerConfig struct {
	// PageSize is the number of users per ReconcileUsers activity
	PageSize int
	// HistoryLimit bounds the workflow history before continuing as new
	HistoryLimit int
}

// ReconcileChainInput is the input of ReconcileChain. AfterID and Totals carry the
// progress of earlier runs across continue-as-new.
type ReconcileChainInput struct {
	Chain         domain.Chain         `json:"chain"`
	PolicyVersion string               `json:"policy_version"`
	AfterID       string               `json:"after_id,omitempty"`
	Totals        ReconcileChainResult `json:"totals"`
}

// ReconcileChainResult accumulates the outcome of a chain reconciliation
type ReconcileChainResult struct {
	Checked int               `json:"checked"`
	Drifted []string          `json:"drifted,omitempty"`
	Failed  map[string]string `json:"failed,omitempty"`
}

func (r *ReconcileChainResult) add(batch *BatchResult) {
	r.Checked += batch.Checked
	r.Drifted = append(r.Drifted, batch.Drifted...)
	for id, msg := range batch.Failed {
		if r.Failed == nil {
			r.Failed = make(map[string]string)
		}
		r.Failed[id] = msg
	}
}

// reconcileWorker is the concrete implementation of ReconcileWorker
type reconcileWorker struct {
	config           ReconcileWorkerConfig
	executor         Executor
	temporalWorkflow adapter.Workflow
}

// NewReconcileWorker creates a new reconciliation worker instance
func NewReconcileWorker(executor Executor, temporalWorkflow adapter.Workflow, config ReconcileWorkerConfig) ReconcileWorker {
	if config.PageSize <= 0 {
		config.PageSize = DEFAULT_PAGE_SIZE
	}
	if config.HistoryLimit <= 0 {
		config.HistoryLimit = DEFAULT_HISTORY_LIMIT
	}
	return &reconcileWorker{
		config:           config,
		executor:         executor,
		temporalWorkflow: temporalWorkflow,
	}
}
