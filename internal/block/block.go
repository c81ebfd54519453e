package block

import (
	"context"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/feral-file/ff-ledger/internal/logger"
)

const (
	DEFAULT_CACHE_SIZE = 4096
)

// TimestampFetcher reads the timestamp of a block from the node
//
//go:generate mockgen -source=block.go -destination=../mocks/block.go -package=mocks -mock_names=TimestampFetcher=MockTimestampFetcher
type TimestampFetcher interface {
	// FetchBlockTimestamp fetches the timestamp for a given block number
	FetchBlockTimestamp(ctx context.Context, blockNumber uint64) (time.Time, error)
}

// TimestampProvider provides cached block timestamps. Logs of one block share a
// timestamp, and a timestamp never changes once the block is final, so entries
// are only evicted when the cache is full.
type TimestampProvider interface {
	// GetBlockTimestamp returns the timestamp for a given block number, potentially from cache
	GetBlockTimestamp(ctx context.Context, blockNumber uint64) (time.Time, error)
}

// Config holds configuration for the TimestampProvider
type Config struct {
	// Size is the number of block timestamps kept
	Size int
}

type timestampProvider struct {
	fetcher TimestampFetcher
	cache   *lru.Cache[uint64, time.Time]
}

// NewTimestampProvider creates a TimestampProvider backed by an LRU cache
func NewTimestampProvider(fetcher TimestampFetcher, cfg Config) TimestampProvider {
	if cfg.Size <= 0 {
		cfg.Size = DEFAULT_CACHE_SIZE
	}
	cache, _ := lru.New[uint64, time.Time](cfg.Size) // only fails for a non-positive size

	return &timestampProvider{
		fetcher: fetcher,
		cache:   cache,
	}
}

// GetBlockTimestamp returns the timestamp for a given block number, using cache if present
func (p *timestampProvider) GetBlockTimestamp(ctx context.Context, blockNumber uint64) (time.Time, error) {
	if ts, ok := p.cache.Get(blockNumber); ok {
		return ts, nil
	}

	logger.DebugCtx(ctx, "Fetching block timestamp from blockchain provider", zap.Uint64("block_number", blockNumber))
	ts, err := p.fetcher.FetchBlockTimestamp(ctx, blockNumber)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to fetch block timestamp for block %d: %w", blockNumber, err)
	}

	p.cache.Add(blockNumber, ts)
	return ts, nil
}
