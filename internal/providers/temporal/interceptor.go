package temporal

import (
	"context"
	"strconv"

	"github.com/getsentry/sentry-go"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/interceptor"
	"go.uber.org/zap"

	"github.com/feral-file/ff-ledger/internal/logger"
)

// ActivityScopeInterceptor gives every activity execution its own Sentry hub and
// log fields naming the activity, so entries from concurrent activities stay apart
type ActivityScopeInterceptor struct {
	interceptor.WorkerInterceptorBase
}

func NewActivityScopeInterceptor() interceptor.WorkerInterceptor {
	return &ActivityScopeInterceptor{}
}

func (s *ActivityScopeInterceptor) InterceptActivity(ctx context.Context, next interceptor.ActivityInboundInterceptor) interceptor.ActivityInboundInterceptor {
	return &activityScope{
		ActivityInboundInterceptorBase: interceptor.ActivityInboundInterceptorBase{Next: next},
	}
}

type activityScope struct {
	interceptor.ActivityInboundInterceptorBase
}

func (s *activityScope) ExecuteActivity(ctx context.Context, in *interceptor.ExecuteActivityInput) (interface{}, error) {
	return s.Next.ExecuteActivity(scopeActivity(ctx, activity.GetInfo(ctx)), in)
}

func scopeActivity(ctx context.Context, info activity.Info) context.Context {
	hub := sentry.CurrentHub().Clone()
	hub.Scope().SetTags(map[string]string{
		"activity_type": info.ActivityType.Name,
		"workflow_id":   info.WorkflowExecution.ID,
		"attempt":       strconv.Itoa(int(info.Attempt)),
	})
	ctx = sentry.SetHubOnContext(ctx, hub)

	return logger.WithFields(ctx,
		zap.String("activity", info.ActivityType.Name),
		zap.String("workflowID", info.WorkflowExecution.ID),
		zap.Int32("attempt", info.Attempt))
}
