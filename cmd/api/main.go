package main

import (
	"context"
	"flag"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/feral-file/ff-ledger/internal/adapter"
	"github.com/feral-file/ff-ledger/internal/api/middleware"
	"github.com/feral-file/ff-ledger/internal/api/server"
	"github.com/feral-file/ff-ledger/internal/api/shared/executor"
	"github.com/feral-file/ff-ledger/internal/config"
	"github.com/feral-file/ff-ledger/internal/logger"
	"github.com/feral-file/ff-ledger/internal/query"
	"github.com/feral-file/ff-ledger/internal/reconcile"
	"github.com/feral-file/ff-ledger/internal/store"
)

var (
	configFile = flag.String("config", "", "Path to configuration file")
	envPath    = flag.String("env", "config/", "Path to environment files")
)

func main() {
	flag.Parse()

	config.ChdirRepoRoot()
	cfg, err := config.LoadAPIConfig(*configFile, *envPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err = logger.Initialize(logger.Config{
		Debug:           cfg.Debug,
		SentryDSN:       cfg.SentryDSN,
		BreadcrumbLevel: zapcore.InfoLevel,
		Tags: map[string]string{
			"service": "ledger-api",
		},
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Flush(2 * time.Second)
	logger.InfoCtx(ctx, "Starting Feral File Ledger API")

	// Connect to database
	db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{Logger: logger.Gorm(cfg.Debug)})
	if err != nil {
		logger.FatalCtx(ctx, "Failed to connect to database", zap.Error(err), zap.String("host", cfg.Database.Host))
	}

	// Configure connection pool
	if err := store.ConfigureConnectionPool(db, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns, cfg.Database.ConnMaxLifetime, cfg.Database.ConnMaxIdleTime); err != nil {
		logger.FatalCtx(ctx, "Failed to configure connection pool", zap.Error(err))
	}

	// Route reads to the replica when one is configured
	if err := store.UseReadReplicas(db, postgres.Open, cfg.Database.ReadDSNs()); err != nil {
		logger.FatalCtx(ctx, "Failed to configure read replicas", zap.Error(err))
	}
	logger.InfoCtx(ctx, "Connected to database",
		zap.Int("max_open_conns", cfg.Database.MaxOpenConns),
		zap.Int("max_idle_conns", cfg.Database.MaxIdleConns),
		zap.Bool("read_replica", cfg.Database.ReadHost != ""),
	)

	dataStore := store.NewPGStore(db)

	clockAdapter := adapter.NewClock()

	decimals, err := cfg.Ledger.DomainDecimals()
	if err != nil {
		logger.FatalCtx(ctx, "Invalid ledger decimals", zap.Error(err))
	}

	// Initialize query service and reconciliation engine; drift found through the API is returned, not published
	querySvc := query.NewService(query.Config{Decimals: decimals}, dataStore, clockAdapter)
	engine := reconcile.NewEngine(reconcile.Config{Decimals: decimals}, dataStore, clockAdapter, nil)

	srv := server.New(server.Config{
		Debug:          cfg.Debug,
		Host:           cfg.Server.Host,
		Port:           cfg.Server.Port,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Auth: middleware.AuthConfig{
			JWTPublicKey: cfg.Auth.JWTPublicKey,
			APIKeys:      cfg.Auth.APIKeys,
		},
		AbandonedAfter: cfg.AbandonedAfter,
	}, executor.NewExecutor(executor.Config{Decimals: decimals}, querySvc, engine))

	if err := srv.Run(ctx); err != nil {
		logger.FatalCtx(ctx, "API server failed", zap.Error(err))
	}
	logger.Info("API server stopped")
}
