package ethereum

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"github.com/feral-file/ff-ledger/internal/adapter"
	"github.com/feral-file/ff-ledger/internal/block"
	"github.com/feral-file/ff-ledger/internal/domain"
	"github.com/feral-file/ff-ledger/internal/logger"
)

const (
	// DEFAULT_LOG_STEP is the block span of one eth_getLogs call
	DEFAULT_LOG_STEP = uint64(10000)
)

// EthereumClient reads wallet contract logs from a node
//
//go:generate mockgen -source=client.go -destination=../../mocks/ethereum_client.go -package=mocks -mock_names=EthereumClient=MockEthereumClient
type EthereumClient interface {
	// ParseEventLog converts a wallet contract log into a raw event
	ParseEventLog(ctx context.Context, vLog types.Log) (*domain.RawEvent, error)

	// SubscribeFilterLogs subscribes to filter logs
	SubscribeFilterLogs(ctx context.Context, query ethereum.FilterQuery, ch chan<- types.Log) (ethereum.Subscription, error)

	// FilterLogs retrieves the logs of a block range in pages
	FilterLogs(ctx context.Context, query ethereum.FilterQuery) ([]types.Log, error)

	// HeaderByNumber returns a header by number
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)

	// Close closes the connection
	Close()
}

type ethereumClient struct {
	chainID domain.Chain
	client  adapter.EthClient
	clock   adapter.Clock
	decoder *LogDecoder
	step    uint64
	blocks  block.TimestampProvider
}

// Dial connects to a node and checks that it serves the configured chain
func Dial(ctx context.Context, dialer adapter.EthClientDialer, rawurl string, chain domain.Chain) (adapter.EthClient, error) {
	want, ok := new(big.Int).SetString(strings.TrimPrefix(string(chain), "eip155:"), 10)
	if !ok || !strings.HasPrefix(string(chain), "eip155:") {
		return nil, fmt.Errorf("%w: %s is not an EVM chain", domain.ErrInvalidArgument, chain)
	}

	client, err := dialer.Dial(ctx, rawurl)
	if err != nil {
		return nil, fmt.Errorf("failed to dial node: %w", err)
	}

	got, err := client.ChainID(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to read node chain id: %w", err)
	}
	if got.Cmp(want) != 0 {
		client.Close()
		return nil, fmt.Errorf("%w: node serves chain %s, configured %s", domain.ErrInvalidArgument, got, chain)
	}
	return client, nil
}

// NewClient creates a client for the wallet contracts on a chain
func NewClient(chainID domain.Chain, client adapter.EthClient, clock adapter.Clock, decoder *LogDecoder) EthereumClient {
	c := &ethereumClient{chainID: chainID, client: client, clock: clock, decoder: decoder, step: DEFAULT_LOG_STEP}
	c.blocks = block.NewTimestampProvider(c, block.Config{})
	return c
}

// SubscribeFilterLogs subscribes to filter logs
func (c *ethereumClient) SubscribeFilterLogs(ctx context.Context, query ethereum.FilterQuery, ch chan<- types.Log) (ethereum.Subscription, error) {
	return c.client.SubscribeFilterLogs(ctx, query, ch)
}

// FilterLogs handles pagination to work around provider log limits
func (c *ethereumClient) FilterLogs(ctx context.Context, query ethereum.FilterQuery) ([]types.Log, error) {
	if query.BlockHash != nil {
		return c.client.FilterLogs(ctx, query)
	}

	fromBlock := big.NewInt(0)
	if query.FromBlock != nil {
		fromBlock = query.FromBlock
	}

	var toBlock *big.Int
	if query.ToBlock != nil {
		toBlock = query.ToBlock
	} else {
		latest, err := c.client.HeaderByNumber(ctx, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to get latest block: %w", err)
		}
		toBlock = latest.Number
	}

	rangeQuery := query
	rangeQuery.FromBlock = new(big.Int).Set(fromBlock)
	rangeQuery.ToBlock = new(big.Int).Set(toBlock)
	return c.getLogsWithRetry(ctx, rangeQuery, c.step)
}

// getLogsWithRetry processes the range from query.FromBlock to query.ToBlock in chunks,
// halving the chunk when the provider rejects it as too large
func (c *ethereumClient) getLogsWithRetry(ctx context.Context, query ethereum.FilterQuery, stepSize uint64) ([]types.Log, error) {
	currentStepSize := stepSize

	var allLogs []types.Log
	currentFrom := new(big.Int).Set(query.FromBlock)

	for currentFrom.Cmp(query.ToBlock) <= 0 {
		currentTo := new(big.Int).Add(currentFrom, new(big.Int).SetUint64(currentStepSize-1))
		if currentTo.Cmp(query.ToBlock) > 0 {
			currentTo.Set(query.ToBlock)
		}

		queryCopy := query
		queryCopy.FromBlock = new(big.Int).Set(currentFrom)
		queryCopy.ToBlock = new(big.Int).Set(currentTo)

		logs, err := c.client.FilterLogs(ctx, queryCopy)
		if err == nil {
			allLogs = append(allLogs, logs...)
			currentFrom.SetUint64(currentTo.Uint64() + 1)
			continue
		}

		if !isTooManyResultsError(err) || currentStepSize == 1 {
			return nil, fmt.Errorf("failed to get logs for range %d-%d: %w", currentFrom.Uint64(), currentTo.Uint64(), err)
		}

		currentStepSize = currentStepSize / 2

		logger.WarnCtx(ctx, "Too many results, reducing step size",
			zap.Uint64("oldStepSize", currentStepSize*2),
			zap.Uint64("newStepSize", currentStepSize),
			zap.Uint64("fromBlock", currentFrom.Uint64()),
			zap.Uint64("toBlock", currentTo.Uint64()))
	}

	return allLogs, nil
}

// isTooManyResultsError checks if the error is related to too many results
func isTooManyResultsError(err error) bool {
	if err == nil {
		return false
	}

	errStr := err.Error()
	return strings.Contains(errStr, "query returned more than 10000 results") ||
		strings.Contains(errStr, "query timeout exceeded") ||
		strings.Contains(errStr, "too many results") ||
		strings.Contains(errStr, "exceeded maximum")
}

// HeaderByNumber returns a header by number
func (c *ethereumClient) HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error) {
	return c.client.HeaderByNumber(ctx, number)
}

// ParseEventLog attaches the block timestamp and decodes the log
func (c *ethereumClient) ParseEventLog(ctx context.Context, vLog types.Log) (*domain.RawEvent, error) {
	blockTime, err := c.blocks.GetBlockTimestamp(ctx, vLog.BlockNumber)
	if err != nil {
		return nil, err
	}

	return c.decoder.Decode(vLog, blockTime)
}

// FetchBlockTimestamp reads the block header for its timestamp
func (c *ethereumClient) FetchBlockTimestamp(ctx context.Context, blockNumber uint64) (time.Time, error) {
	header, err := c.client.HeaderByNumber(ctx, new(big.Int).SetUint64(blockNumber))
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to get block %d: %w", blockNumber, err)
	}

	return c.clock.Unix(int64(header.Time), 0), nil //nolint:gosec,G115 // header.Time is a uint64 unix timestamp from geth
}

// WalletQuery builds the log filter for the wallet events, optionally restricted to addresses
func WalletQuery(decoder *LogDecoder, addresses []string, fromBlock uint64, toBlock *uint64) ethereum.FilterQuery {
	query := ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(fromBlock),
		Topics:    [][]common.Hash{decoder.Topics()},
	}
	if toBlock != nil {
		query.ToBlock = new(big.Int).SetUint64(*toBlock)
	}
	for _, a := range addresses {
		query.Addresses = append(query.Addresses, common.HexToAddress(a))
	}
	return query
}

// Close closes the connection
func (c *ethereumClient) Close() {
	c.client.Close()
}
