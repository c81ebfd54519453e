package store

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/ff-ledger/internal/domain"
)

func initMemoryTestDB(t *testing.T) Store {
	return NewMemoryStore()
}

func cleanupMemoryTestDB(t *testing.T) {}

// TestMemoryStore runs all store tests against the in-memory store
func TestMemoryStore(t *testing.T) {
	RunStoreTests(t, initMemoryTestDB, cleanupMemoryTestDB)
}

func TestMemoryStore_ConcurrentIncrements(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := store.WithinTx(ctx, func(tx Tx) error {
				return tx.IncrementGlobalStats(ctx, GlobalStatsDelta{Users: 1, Volume: dec("0.000001")})
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	stats, err := store.GetGlobalStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(50), stats.TotalUsers)
	assert.True(t, stats.TotalVolume.Equal(dec("0.00005")))
}

func TestMemoryStore_StagedWritesInvisibleUntilCommit(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	userID := domain.NewUserID(testChain, testWallet)

	err := store.WithinTx(ctx, func(tx Tx) error {
		_, _, err := tx.UpsertUser(ctx, testChain, testWallet, testTime)
		require.NoError(t, err)

		u, err := store.GetUser(ctx, userID)
		require.NoError(t, err)
		assert.Nil(t, u)
		return nil
	})
	require.NoError(t, err)

	u, err := store.GetUser(ctx, userID)
	require.NoError(t, err)
	assert.NotNil(t, u)
}

func TestNormalizeConnectionPoolSettings(t *testing.T) {
	open, idle, lifetime, idleTime := NormalizeConnectionPoolSettings(0, 50, 0, 0)
	assert.Equal(t, 20, open)
	assert.Equal(t, 20, idle)
	assert.NotZero(t, lifetime)
	assert.NotZero(t, idleTime)
}
