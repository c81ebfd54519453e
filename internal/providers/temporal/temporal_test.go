package temporal

import (
	"context"
	"errors"
	"testing"

	"github.com/getsentry/sentry-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/workflow"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestZapLoggerAdapter(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	adapter := NewZapLoggerAdapter(zap.New(core))

	adapter.With("Namespace", "ledger").Warn("Task failed",
		"WorkflowID", "reconcile-chain-eip155:8453-v1",
		"Error", errors.New("boom"),
		42, "non-string key",
		"Dangling")

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, zapcore.WarnLevel, entry.Level)
	assert.Equal(t, "Task failed", entry.Message)

	fields := entry.ContextMap()
	assert.Equal(t, "ledger", fields["Namespace"])
	assert.Equal(t, "reconcile-chain-eip155:8453-v1", fields["WorkflowID"])
	assert.Equal(t, "boom", fields["Error"])
	assert.NotContains(t, fields, "Dangling")
	assert.Len(t, fields, 3)
}

func TestScopeActivity(t *testing.T) {
	info := activity.Info{
		ActivityType:      activity.Type{Name: "ReconcileUsers"},
		WorkflowExecution: workflow.Execution{ID: "reconcile-chain-eip155:8453-v1"},
		Attempt:           2,
	}

	ctx := scopeActivity(context.Background(), info)

	hub := sentry.GetHubFromContext(ctx)
	require.NotNil(t, hub)
	assert.NotSame(t, sentry.CurrentHub(), hub)
}
