package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/feral-file/ff-ledger/internal/adapter"
	"github.com/feral-file/ff-ledger/internal/config"
	"github.com/feral-file/ff-ledger/internal/domain"
	"github.com/feral-file/ff-ledger/internal/logger"
	"github.com/feral-file/ff-ledger/internal/providers/ethereum"
	"github.com/feral-file/ff-ledger/internal/providers/feed"
	"github.com/feral-file/ff-ledger/internal/providers/jetstream"
)

var (
	configFile = flag.String("config", "", "Path to configuration file")
	envPath    = flag.String("env", "config/", "Path to environment files")
	fromBlock  = flag.Uint64("from", 0, "First block to replay")
	toBlock    = flag.Uint64("to", 0, "Last block to replay, defaults to the latest block")
)

// Replays the wallet events of a block range onto the event feed. Events are
// published under their ids, so the ingestor only applies what it has not seen.
func main() {
	flag.Parse()

	// Load configuration
	config.ChdirRepoRoot()
	cfg, err := config.LoadEventEmitterConfig("event-replayer", *configFile, *envPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize logger with sentry integration
	err = logger.Initialize(logger.Config{
		Debug:           cfg.Debug,
		SentryDSN:       cfg.SentryDSN,
		BreadcrumbLevel: zapcore.InfoLevel,
		Tags: map[string]string{
			"service": "event-replayer",
			"chain":   string(cfg.Ethereum.ChainID),
		},
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Flush(2 * time.Second)

	rpcURL := cfg.Ethereum.RPCURL
	if rpcURL == "" {
		rpcURL = cfg.Ethereum.WebSocketURL
	}

	// Initialize ethereum client
	adapterEthClient, err := ethereum.Dial(ctx, adapter.NewEthClientDialer(), rpcURL, cfg.Ethereum.ChainID)
	if err != nil {
		logger.FatalCtx(ctx, "Failed to dial Ethereum RPC", zap.Error(err))
	}
	logDecoder, err := ethereum.NewLogDecoder(cfg.Ethereum.ChainID)
	if err != nil {
		logger.FatalCtx(ctx, "Failed to create log decoder", zap.Error(err))
	}
	ethereumClient := ethereum.NewClient(cfg.Ethereum.ChainID, adapterEthClient, adapter.NewClock(), logDecoder)
	defer ethereumClient.Close()

	// Initialize publisher
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
		logger.FatalCtx(ctx, "Failed to create publisher", zap.Error(err), zap.String("feed", cfg.Feed))
	}
	defer publisher.Close()

	var to *uint64
	if *toBlock > 0 {
		if *toBlock < *fromBlock {
			logger.FatalCtx(ctx, "Invalid block range", zap.Uint64("from", *fromBlock), zap.Uint64("to", *toBlock))
		}
		to = toBlock
	}

	logger.InfoCtx(ctx, "Replaying wallet events", zap.Uint64("from", *fromBlock), zap.Uint64p("to", to))
	logs, err := ethereumClient.FilterLogs(ctx, ethereum.WalletQuery(logDecoder, cfg.Ethereum.Addresses, *fromBlock, to))
	if err != nil {
		logger.FatalCtx(ctx, "Failed to fetch logs", zap.Error(err))
	}

	published := 0
	for _, vLog := range logs {
		if vLog.Removed {
			continue
		}
		event, err := ethereumClient.ParseEventLog(ctx, vLog)
		if errors.Is(err, domain.ErrUnrecognizedEventKind) {
			continue
		}
		if err != nil {
			logger.FatalCtx(ctx, "Failed to parse log", zap.Error(err), zap.String("txHash", vLog.TxHash.Hex()))
		}
		if err := publisher.PublishRawEvent(ctx, event); err != nil {
			logger.FatalCtx(ctx, "Failed to publish event", zap.Error(err), zap.String("eventID", event.ID()))
		}
		published++
	}

	logger.Info("Replay finished", zap.Int("logs", len(logs)), zap.Int("published", published))
}
