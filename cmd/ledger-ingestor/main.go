package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/feral-file/ff-ledger/internal/adapter"
	"github.com/feral-file/ff-ledger/internal/bridge"
	"github.com/feral-file/ff-ledger/internal/config"
	"github.com/feral-file/ff-ledger/internal/decoder"
	"github.com/feral-file/ff-ledger/internal/ingest"
	"github.com/feral-file/ff-ledger/internal/ledger"
	"github.com/feral-file/ff-ledger/internal/logger"
	"github.com/feral-file/ff-ledger/internal/providers/kafka"
	"github.com/feral-file/ff-ledger/internal/store"
)

var (
	configFile = flag.String("config", "", "Path to configuration file")
	envPath    = flag.String("env", "config/", "Path to environment files")
)

// runner is the feed consumer driving the ingestor
type runner interface {
	Run(ctx context.Context) error
	Close()
}

func main() {
	flag.Parse()

	// Load configuration
	config.ChdirRepoRoot()
	cfg, err := config.LoadLedgerIngestorConfig(*configFile, *envPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize logger with sentry integration
	err = logger.Initialize(logger.Config{
		Debug:           cfg.Debug,
		SentryDSN:       cfg.SentryDSN,
		BreadcrumbLevel: zapcore.InfoLevel,
		Tags: map[string]string{
			"service": "ledger-ingestor",
			"chain":   string(cfg.Ingest.Chain),
		},
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Flush(2 * time.Second)
	logger.InfoCtx(ctx, "Starting Ledger Ingestor", zap.String("chain", string(cfg.Ingest.Chain)), zap.String("feed", cfg.Feed))

	// Connect to database
	db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{Logger: logger.Gorm(cfg.Debug)})
	if err != nil {
		logger.FatalCtx(ctx, "Failed to connect to database", zap.Error(err), zap.String("host", cfg.Database.Host))
	}

	// Configure connection pool
	if err := store.ConfigureConnectionPool(db, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns, cfg.Database.ConnMaxLifetime, cfg.Database.ConnMaxIdleTime); err != nil {
		logger.FatalCtx(ctx, "Failed to configure connection pool", zap.Error(err))
	}
	logger.InfoCtx(ctx, "Connected to database")

	// Initialize store
	dataStore := store.NewPGStore(db)

	// Initialize adapters
	clockAdapter := adapter.NewClock()
	jsonAdapter := adapter.NewJSON()

	decimals, err := cfg.Ledger.DomainDecimals()
	if err != nil {
		logger.FatalCtx(ctx, "Invalid ledger decimals", zap.Error(err))
	}

	// Initialize ingestor
	ingestor := ingest.NewIngestor(
		ingest.Config{
			Chain:                cfg.Ingest.Chain,
			MaxConflictRetries:   cfg.Ingest.MaxConflictRetries,
			RetryInitialInterval: cfg.Ingest.RetryInitialInterval,
			RetryMaxInterval:     cfg.Ingest.RetryMaxInterval,
		},
		decoder.New(decimals),
		ledger.NewAggregator(),
		dataStore,
		clockAdapter,
		jsonAdapter,
	)

	// Initialize the feed consumer
	var consumer runner
	switch cfg.Feed {
	case config.FeedKafka:
		consumerCfg := kafka.ConsumerConfig{
			Brokers:    cfg.Kafka.Brokers,
			Topic:      cfg.Kafka.EventsTopic,
			GroupID:    cfg.Kafka.GroupID,
			Chain:      cfg.Ingest.Chain,
			RetryDelay: cfg.Ingest.RetryDelay,
		}
		reader := adapter.NewKafkaReader(kafka.ReaderConfig(consumerCfg))
		consumer = kafka.NewConsumer(consumerCfg, reader, ingestor, jsonAdapter, clockAdapter)
		logger.InfoCtx(ctx, "Consuming Kafka topic", zap.String("topic", cfg.Kafka.EventsTopic))
	default:
		consumer, err = bridge.NewBridge(bridge.Config{
			URL:             cfg.NATS.URL,
			StreamName:      cfg.NATS.StreamName,
			ConsumerName:    cfg.NATS.ConsumerName,
			MaxReconnects:   cfg.NATS.MaxReconnects,
			ReconnectWait:   cfg.NATS.ReconnectWait,
			ConnectionName:  cfg.NATS.ConnectionName,
			AckWaitTimeout:  cfg.NATS.AckWait,
			RetryDelay:      cfg.Ingest.RetryDelay,
			DuplicateWindow: cfg.NATS.DuplicateWindow,
			Chain:           cfg.Ingest.Chain,
		}, adapter.NewNatsJetStream(), ingestor, jsonAdapter)
		if err != nil {
			logger.FatalCtx(ctx, "Failed to create event bridge", zap.Error(err), zap.String("url", cfg.NATS.URL))
		}
		logger.InfoCtx(ctx, "Connected to NATS JetStream")
	}
	defer consumer.Close()

	// Setup signal handling
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errCh <- err
		}
	}()

	// Wait for shutdown signal or error
	select {
	case sig := <-sigCh:
		logger.InfoCtx(ctx, "Received shutdown signal", zap.String("signal", sig.String()))
		cancel()
	case err := <-errCh:
		logger.ErrorCtx(ctx, err, zap.String("component", "ingestor"))
		cancel()
	}

	// Give the in-flight event time to settle
	time.Sleep(time.Second)

	// Use non-context logger for final shutdown message since context is already canceled
	logger.Info("Ledger Ingestor stopped")
}
