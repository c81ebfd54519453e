package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.temporal.io/sdk/interceptor"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/feral-file/ff-ledger/internal/adapter"
	"github.com/feral-file/ff-ledger/internal/config"
	"github.com/feral-file/ff-ledger/internal/domain"
	"github.com/feral-file/ff-ledger/internal/logger"
	"github.com/feral-file/ff-ledger/internal/providers/feed"
	"github.com/feral-file/ff-ledger/internal/providers/jetstream"
	temporal "github.com/feral-file/ff-ledger/internal/providers/temporal"
	"github.com/feral-file/ff-ledger/internal/reconcile"
	"github.com/feral-file/ff-ledger/internal/store"
	"github.com/feral-file/ff-ledger/internal/workflows"
)

var (
	configFile = flag.String("config", "", "Path to configuration file")
	envPath    = flag.String("env", "config/", "Path to environment files")
)

func main() {
	flag.Parse()

	// Load configuration
	config.ChdirRepoRoot()
	cfg, err := config.LoadReconcileWorkerConfig(*configFile, *envPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize logger with sentry integration
	err = logger.Initialize(logger.Config{
		Debug:           cfg.Debug,
		SentryDSN:       cfg.SentryDSN,
		BreadcrumbLevel: zapcore.InfoLevel,
		Tags: map[string]string{
			"service": "reconcile-worker",
		},
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Flush(2 * time.Second)
	logger.InfoCtx(ctx, "Starting Reconcile Worker")

	// Connect to database
	db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{Logger: logger.Gorm(cfg.Debug)})
	if err != nil {
		logger.FatalCtx(ctx, "Failed to connect to database", zap.Error(err), zap.String("host", cfg.Database.Host))
	}
	if err := store.ConfigureConnectionPool(db, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns, cfg.Database.ConnMaxLifetime, cfg.Database.ConnMaxIdleTime); err != nil {
		logger.FatalCtx(ctx, "Failed to configure connection pool", zap.Error(err))
	}
	if err := store.UseReadReplicas(db, postgres.Open, cfg.Database.ReadDSNs()); err != nil {
		logger.FatalCtx(ctx, "Failed to configure read replicas", zap.Error(err))
	}
	logger.InfoCtx(ctx, "Connected to database")

	// Initialize store
	dataStore := store.NewPGStore(db)

	decimals, err := cfg.Ledger.DomainDecimals()
	if err != nil {
		logger.FatalCtx(ctx, "Invalid ledger decimals", zap.Error(err))
	}

	// Drift reports go to the event feed when enabled
	var driftPublisher reconcile.DriftPublisher
	if cfg.Reconcile.PublishDrift {
		publisher, err := feed.NewPublisher(feed.Config{
			Feed: cfg.Feed,
			NATS: jetstream.Config{
				URL:            cfg.NATS.URL,
				MaxReconnects:  cfg.NATS.MaxReconnects,
				ReconnectWait:  cfg.NATS.ReconnectWait,
				ConnectionName: cfg.NATS.ConnectionName,
			},
			Brokers:     cfg.Kafka.Brokers,
			EventsTopic: cfg.Kafka.EventsTopic,
			DriftTopic:  cfg.Kafka.DriftTopic,
		}, adapter.NewNatsJetStream(), adapter.NewJSON())
		if err != nil {
			logger.FatalCtx(ctx, "Failed to create drift publisher", zap.Error(err), zap.String("feed", cfg.Feed))
		}
		defer publisher.Close()
		driftPublisher = publisher
		logger.InfoCtx(ctx, "Publishing drift reports", zap.String("feed", cfg.Feed))
	}

	engine := reconcile.NewEngine(reconcile.Config{
		Decimals: decimals,
		Workers:  cfg.Reconcile.Workers,
		PageSize: cfg.Reconcile.PageSize,
	}, dataStore, adapter.NewClock(), driftPublisher)

	temporalClient, err := temporal.Dial(temporal.Config{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
	})
	if err != nil {
		logger.FatalCtx(ctx, "Failed to connect to Temporal", zap.Error(err))
	}
	defer temporalClient.Close()
	logger.InfoCtx(ctx, "Connected to Temporal", zap.String("namespace", cfg.Temporal.Namespace))

	// Create Temporal worker
	temporalWorker := worker.New(
		temporalClient,
		cfg.Temporal.TaskQueue,
		worker.Options{
			MaxConcurrentActivityExecutionSize: cfg.Temporal.MaxConcurrentActivityExecutionSize,
			WorkerActivitiesPerSecond:          cfg.Temporal.WorkerActivitiesPerSecond,
			Interceptors:                       []interceptor.WorkerInterceptor{temporal.NewActivityScopeInterceptor()},
		})
	logger.InfoCtx(ctx, "Created Temporal worker", zap.String("taskQueue", cfg.Temporal.TaskQueue))

	executor := workflows.NewExecutor(dataStore, engine, adapter.NewActivity(), cfg.Reconcile.Workers)
	reconcileWorker := workflows.NewReconcileWorker(executor, adapter.NewWorkflow(), workflows.ReconcileWorkerConfig{
		PageSize: cfg.Reconcile.PageSize,
	})

	// Register workflows
	temporalWorker.RegisterWorkflowWithOptions(reconcileWorker.ReconcileChain, workflow.RegisterOptions{
		Name: workflows.ReconcileChainWorkflowName,
	})
	logger.InfoCtx(ctx, "Registered workflows")

	// Register activities
	temporalWorker.RegisterActivity(executor.ListUserIDs)
	temporalWorker.RegisterActivity(executor.ReconcileUsers)
	logger.InfoCtx(ctx, "Registered activities")

	// Register the periodic reconciliation of every configured chain
	if cfg.Reconcile.Schedule != "" {
		chains := make([]domain.Chain, 0, len(cfg.Reconcile.Chains))
		for _, c := range cfg.Reconcile.Chains {
			chain, _ := domain.ParseChain(c) // validated on load
			chains = append(chains, chain)
		}
		err := workflows.EnsureReconcileSchedules(ctx, temporalClient.ScheduleClient(),
			cfg.Temporal.TaskQueue, cfg.Reconcile.Schedule, cfg.Reconcile.PolicyVersion, chains)
		if err != nil {
			logger.FatalCtx(ctx, "Failed to register reconciliation schedules", zap.Error(err))
		}
	}

	// Start worker
	if err := temporalWorker.Start(); err != nil {
		logger.FatalCtx(ctx, "Failed to start worker", zap.Error(err))
	}
	logger.InfoCtx(ctx, "Worker started and listening for tasks")

	// Wait for interrupt signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.InfoCtx(ctx, "Received shutdown signal", zap.String("signal", sig.String()))

	logger.Info("Shutting down worker...")
	temporalWorker.Stop()
	logger.Info("Worker stopped")
}
