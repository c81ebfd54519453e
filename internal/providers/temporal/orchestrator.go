package temporal

import (
	"context"
	"fmt"

	"go.temporal.io/sdk/client"

	"github.com/feral-file/ff-ledger/internal/logger"
)

// Config locates the Temporal frontend
type Config struct {
	HostPort  string
	Namespace string
}

// TemporalOrchestrator starts workflows; client.Client satisfies it
//
//go:generate mockgen -source=orchestrator.go -destination=../../mocks/temporal_orchestrator.go -package=mocks -mock_names=TemporalOrchestrator=MockTemporalOrchestrator
type TemporalOrchestrator interface {
	ExecuteWorkflow(ctx context.Context, options client.StartWorkflowOptions, workflow interface{}, args ...interface{}) (client.WorkflowRun, error)
}

// Dial connects to Temporal with the SDK logging through the process logger
func Dial(cfg Config) (client.Client, error) {
	c, err := client.Dial(client.Options{
		HostPort:  cfg.HostPort,
		Namespace: cfg.Namespace,
		Logger:    NewZapLoggerAdapter(logger.Default().Named("temporal")),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Temporal at %s: %w", cfg.HostPort, err)
	}
	return c, nil
}
