package workflows

import (
	"context"
	"errors"
	"fmt"

	"go.temporal.io/api/enums/v1"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/temporal"
	"go.uber.org/zap"

	"github.com/feral-file/ff-ledger/internal/domain"
	"github.com/feral-file/ff-ledger/internal/logger"
	"github.com/feral-file/ff-ledger/internal/reconcile"
)

// ScheduleCreator creates Temporal schedules; client.ScheduleClient satisfies it
type ScheduleCreator interface {
	Create(ctx context.Context, options client.ScheduleOptions) (client.ScheduleHandle, error)
}

// ReconcileScheduleID is the schedule id of the periodic reconciliation of a chain
func ReconcileScheduleID(chain domain.Chain, policyVersion string) string {
	return fmt.Sprintf("reconcile-schedule-%s-%s", chain, policyVersion)
}

// EnsureReconcileSchedules registers one cron schedule per chain. Existing schedules
// are left untouched; a run still going when the next one is due is skipped.
func EnsureReconcileSchedules(ctx context.Context, schedules ScheduleCreator, taskQueue string, cron string, policyVersion string, chains []domain.Chain) error {
	if policyVersion == "" {
		policyVersion = reconcile.CurrentPolicy
	}
	if _, err := reconcile.LookupPolicy(policyVersion); err != nil {
		return err
	}

	for _, chain := range chains {
		input := ReconcileChainInput{Chain: chain, PolicyVersion: policyVersion}
		scheduleID := ReconcileScheduleID(chain, policyVersion)

		_, err := schedules.Create(ctx, client.ScheduleOptions{
			ID: scheduleID,
			Spec: client.ScheduleSpec{
				CronExpressions: []string{cron},
			},
			Action: &client.ScheduleWorkflowAction{
				ID:        ReconcileChainWorkflowID(input),
				Workflow:  ReconcileChainWorkflowName,
				Args:      []interface{}{input},
				TaskQueue: taskQueue,
			},
			Overlap: enums.SCHEDULE_OVERLAP_POLICY_SKIP,
		})
		if errors.Is(err, temporal.ErrScheduleAlreadyRunning) {
			logger.InfoCtx(ctx, "Reconciliation schedule already registered", zap.String("scheduleID", scheduleID))
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to create schedule %s: %w", scheduleID, err)
		}
		logger.InfoCtx(ctx, "Registered reconciliation schedule",
			zap.String("scheduleID", scheduleID),
			zap.String("cron", cron))
	}
	return nil
}
