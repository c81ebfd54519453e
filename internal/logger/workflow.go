package logger

import (
	"context"

	"github.com/TheZeroSlave/zapsentry"
	"github.com/getsentry/sentry-go"
	"go.temporal.io/sdk/workflow"
	"go.uber.org/zap"
)

// WorkflowInfo identifies a workflow execution in logs and Sentry scopes
type WorkflowInfo struct {
	WorkflowType string
	WorkflowID   string
	RunID        string
	Namespace    string
	TaskQueue    string
}

func (i WorkflowInfo) fields() []zap.Field {
	return []zap.Field{
		zap.String("workflow_type", i.WorkflowType),
		zap.String("workflow_id", i.WorkflowID),
		zap.String("run_id", i.RunID),
		zap.String("namespace", i.Namespace),
		zap.String("task_queue", i.TaskQueue),
	}
}

// GetWorkflowInfo extracts workflow information from workflow.Context for Sentry tracking
// Returns nil if workflow info is not available
func GetWorkflowInfo(ctx workflow.Context) *WorkflowInfo {
	info := workflow.GetInfo(ctx)
	if info == nil {
		return nil
	}

	workflowTypeName := info.WorkflowType.Name
	if workflowTypeName == "" {
		workflowTypeName = "unknown"
	}

	return &WorkflowInfo{
		WorkflowType: workflowTypeName,
		WorkflowID:   info.WorkflowExecution.ID,
		RunID:        info.WorkflowExecution.RunID,
		Namespace:    info.Namespace,
		TaskQueue:    info.TaskQueueName,
	}
}

// WithWorkflowInfo returns a logger carrying the workflow identity, with a Sentry hub
// tagged accordingly when Sentry is configured
func WithWorkflowInfo(info WorkflowInfo) *zap.Logger {
	l := log.With(info.fields()...)
	if sentryClient == nil {
		return l
	}

	hub := sentry.NewHub(sentryClient, sentry.NewScope())
	hub.Scope().SetTags(map[string]string{
		"workflow_type": info.WorkflowType,
		"workflow_id":   info.WorkflowID,
		"task_queue":    info.TaskQueue,
	})
	return l.With(zapsentry.Context(sentry.SetHubOnContext(context.Background(), hub)))
}

// FromWorkflow returns a logger with Sentry scope from workflow context
//
//	workflowInfo := logger.GetWorkflowInfo(ctx)
//	logger.FromWorkflow(ctx, workflowInfo).Info("Reconciling users", ...)
func FromWorkflow(ctx workflow.Context, info *WorkflowInfo) *zap.Logger {
	if info == nil {
		info = GetWorkflowInfo(ctx)
	}
	if info == nil {
		return log
	}
	return WithWorkflowInfo(*info)
}

// InfoWf logs an info message with workflow context
func InfoWf(ctx workflow.Context, msg string, fields ...zap.Field) {
	if workflow.IsReplaying(ctx) {
		return
	}
	FromWorkflow(ctx, nil).Info(msg, fields...)
}

// ErrorWf logs an error message with workflow context
func ErrorWf(ctx workflow.Context, err error, fields ...zap.Field) {
	if workflow.IsReplaying(ctx) {
		return
	}
	FromWorkflow(ctx, nil).Error(errMessage(err), fields...)
}

// WarnWf logs a warning message with workflow context
func WarnWf(ctx workflow.Context, msg string, fields ...zap.Field) {
	if workflow.IsReplaying(ctx) {
		return
	}
	FromWorkflow(ctx, nil).Warn(msg, fields...)
}

// DebugWf logs a debug message with workflow context
func DebugWf(ctx workflow.Context, msg string, fields ...zap.Field) {
	if workflow.IsReplaying(ctx) {
		return
	}
	FromWorkflow(ctx, nil).Debug(msg, fields...)
}
