package ethereum

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"github.com/feral-file/ff-ledger/internal/domain"
	"github.com/feral-file/ff-ledger/internal/logger"
	"github.com/feral-file/ff-ledger/internal/messaging"
)

// Config holds the configuration for Ethereum subscription
type Config struct {
	WebSocketURL string       // WebSocket URL (e.g., wss://base-mainnet.infura.io/ws/v3/YOUR_PROJECT_ID)
	ChainID      domain.Chain // e.g., "eip155:8453" for Base mainnet
	// Addresses restricts the subscription to these contracts; empty follows every emitter
	Addresses []string
}

type ethSubscriber struct {
	client  EthereumClient
	decoder *LogDecoder
	config  Config
}

// NewSubscriber creates a new wallet event subscriber
func NewSubscriber(cfg Config, ethereumClient EthereumClient, decoder *LogDecoder) messaging.Subscriber {
	return &ethSubscriber{
		client:  ethereumClient,
		decoder: decoder,
		config:  cfg,
	}
}

// SubscribeEvents delivers wallet events in chain order. Historical logs from fromBlock
// are fetched first, then the live subscription takes over.
func (s *ethSubscriber) SubscribeEvents(ctx context.Context, fromBlock uint64, handler messaging.EventHandler) error {
	latest, err := s.GetLatestBlock(ctx)
	if err != nil {
		return err
	}

	if fromBlock <= latest {
		history, err := s.client.FilterLogs(ctx, WalletQuery(s.decoder, s.config.Addresses, fromBlock, &latest))
		if err != nil {
			return fmt.Errorf("failed to fetch historical logs: %w", err)
		}
		for _, vLog := range history {
			if err := s.deliver(ctx, vLog, handler); err != nil {
				return err
			}
		}
		fromBlock = latest + 1
	}

	logs := make(chan types.Log)
	sub, err := s.client.SubscribeFilterLogs(ctx, WalletQuery(s.decoder, s.config.Addresses, fromBlock, nil), logs)
	if err != nil {
		return fmt.Errorf("failed to subscribe to filter logs: %w", err)
	}
	defer func() {
		logger.InfoCtx(ctx, "Unsubscribing from wallet event logs")
		sub.Unsubscribe()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-sub.Err():
			return fmt.Errorf("subscription error: %w", err)
		case vLog := <-logs:
			if err := s.deliver(ctx, vLog, handler); err != nil {
				return err
			}
		}
	}
}

func (s *ethSubscriber) deliver(ctx context.Context, vLog types.Log, handler messaging.EventHandler) error {
	if vLog.Removed {
		logger.WarnCtx(ctx, "Ignoring removed log",
			zap.String("txHash", vLog.TxHash.Hex()),
			zap.Uint("logIndex", vLog.Index))
		return nil
	}

	event, err := s.client.ParseEventLog(ctx, vLog)
	if err != nil {
		if errors.Is(err, domain.ErrUnrecognizedEventKind) {
			logger.DebugCtx(ctx, "Skipping foreign log",
				zap.String("contract", vLog.Address.Hex()),
				zap.String("txHash", vLog.TxHash.Hex()))
			return nil
		}
		return fmt.Errorf("failed to parse log %s-%d: %w", vLog.TxHash.Hex(), vLog.Index, err)
	}

	if err := handler(ctx, event); err != nil {
		return fmt.Errorf("failed to handle event %s: %w", event.ID(), err)
	}
	return nil
}

// GetLatestBlock returns the latest block number
func (s *ethSubscriber) GetLatestBlock(ctx context.Context) (uint64, error) {
	header, err := s.client.HeaderByNumber(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to get latest block: %w", err)
	}
	return header.Number.Uint64(), nil
}

// Close closes the connection
func (s *ethSubscriber) Close() {
	if s.client == nil {
		return
	}

	s.client.Close()
	logger.Info("Ethereum WebSocket connection closed")
}
