package adapter

import (
	"context"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/workflow"
)

// Workflow wraps the workflow info lookups the reconcile workflow branches on
//
//go:generate mockgen -source=temporal.go -destination=../mocks/temporal.go -package=mocks -mock_names=Workflow=MockWorkflow,Activity=MockActivity
type Workflow interface {
	// GetCurrentHistoryLength returns the number of events in the workflow history
	GetCurrentHistoryLength(ctx workflow.Context) int
}

type temporalWorkflow struct{}

// NewWorkflow returns the Workflow backed by the Temporal SDK
func NewWorkflow() Workflow {
	return temporalWorkflow{}
}

func (temporalWorkflow) GetCurrentHistoryLength(ctx workflow.Context) int {
	return workflow.GetInfo(ctx).GetCurrentHistoryLength()
}

// Activity wraps the activity context calls of the reconcile activities
type Activity interface {
	// GetInfo returns the activity info
	GetInfo(ctx context.Context) activity.Info
	// RecordHeartbeat reports progress of a long running activity
	RecordHeartbeat(ctx context.Context, details ...interface{})
}

type temporalActivity struct{}

// NewActivity returns the Activity backed by the Temporal SDK
func NewActivity() Activity {
	return temporalActivity{}
}

func (temporalActivity) GetInfo(ctx context.Context) activity.Info {
	return activity.GetInfo(ctx)
}

func (temporalActivity) RecordHeartbeat(ctx context.Context, details ...interface{}) {
	activity.RecordHeartbeat(ctx, details...)
}
