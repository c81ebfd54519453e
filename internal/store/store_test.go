package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/ff-ledger/internal/domain"
	"github.com/feral-file/ff-ledger/internal/store/schema"
)

const (
	testChain  = domain.ChainBaseMainnet
	testWallet = "0x1111111111111111111111111111111111111111"
)

var testTime = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func strPtr(s string) *string {
	return &s
}

// RunStoreTests runs the shared Store contract against an implementation
func RunStoreTests(t *testing.T, initDB func(t *testing.T) Store, cleanupDB func(t *testing.T)) {
	tests := []struct {
		name string
		fn   func(*testing.T, Store)
	}{
		{"UpsertUserExactlyOnce", testUpsertUserExactlyOnce},
		{"SaveUserAndBucket", testSaveUserAndBucket},
		{"TransactionRollback", testTransactionRollback},
		{"IncrementGlobalStats", testIncrementGlobalStats},
		{"WalletCreationOnce", testWalletCreationOnce},
		{"HistoryRecords", testHistoryRecords},
		{"LastActivityByBucket", testLastActivityByBucket},
		{"Delegates", testDelegates},
		{"Cursor", testCursor},
		{"ListUserIDs", testListUserIDs},
		{"Faults", testFaults},
		{"ListUserHistoryInTx", testListUserHistoryInTx},
		{"Snapshot", testSnapshot},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := initDB(t)
			defer cleanupDB(t)
			tt.fn(t, store)
		})
	}
}

func testUpsertUserExactlyOnce(t *testing.T, store Store) {
	ctx := context.Background()

	var firstCreated, secondCreated bool
	err := store.WithinTx(ctx, func(tx Tx) error {
		u, created, err := tx.UpsertUser(ctx, testChain, "0x1111111111111111111111111111111111111111", testTime)
		require.NoError(t, err)
		assert.Equal(t, domain.NewUserID(testChain, testWallet), u.ID)
		firstCreated = created
		return nil
	})
	require.NoError(t, err)

	err = store.WithinTx(ctx, func(tx Tx) error {
		u, created, err := tx.UpsertUser(ctx, testChain, testWallet, testTime.Add(time.Hour))
		require.NoError(t, err)
		// createdAt is written once
		assert.True(t, u.CreatedAt.Equal(testTime))
		secondCreated = created
		return nil
	})
	require.NoError(t, err)

	assert.True(t, firstCreated)
	assert.False(t, secondCreated)
}

func testSaveUserAndBucket(t *testing.T, store Store) {
	ctx := context.Background()
	userID := domain.NewUserID(testChain, testWallet)

	err := store.WithinTx(ctx, func(tx Tx) error {
		u, _, err := tx.UpsertUser(ctx, testChain, testWallet, testTime)
		if err != nil {
			return err
		}
		u.TotalBalance = dec("100")
		u.TotalSpent = dec("20")
		u.BucketsCount = 1
		if err := tx.SaveUser(ctx, u); err != nil {
			return err
		}

		b, created, err := tx.UpsertBucket(ctx, userID, "groceries", testTime)
		if err != nil {
			return err
		}
		assert.True(t, created)
		assert.True(t, b.Active)
		b.Balance = dec("15")
		b.MonthlyLimit = dec("50")
		return tx.SaveBucket(ctx, b)
	})
	require.NoError(t, err)

	u, err := store.GetUser(ctx, userID)
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.True(t, u.TotalBalance.Equal(dec("100")))
	assert.True(t, u.TotalSpent.Equal(dec("20")))
	assert.Equal(t, int64(1), u.BucketsCount)

	b, err := store.GetBucket(ctx, domain.NewBucketID(userID, "groceries"))
	require.NoError(t, err)
	require.NotNil(t, b)
	assert.True(t, b.Balance.Equal(dec("15")))
	assert.True(t, b.MonthlyLimit.Equal(dec("50")))

	buckets, err := store.ListBucketsByUser(ctx, userID)
	require.NoError(t, err)
	assert.Len(t, buckets, 1)

	missing, err := store.GetUser(ctx, "eip155:8453:0xdead")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func testTransactionRollback(t *testing.T, store Store) {
	ctx := context.Background()
	boom := errors.New("boom")

	err := store.WithinTx(ctx, func(tx Tx) error {
		if _, _, err := tx.UpsertUser(ctx, testChain, testWallet, testTime); err != nil {
			return err
		}
		if err := tx.IncrementGlobalStats(ctx, GlobalStatsDelta{Users: 1}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	u, err := store.GetUser(ctx, domain.NewUserID(testChain, testWallet))
	require.NoError(t, err)
	assert.Nil(t, u)

	stats, err := store.GetGlobalStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats.TotalUsers)
}

func testIncrementGlobalStats(t *testing.T, store Store) {
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		err := store.WithinTx(ctx, func(tx Tx) error {
			return tx.IncrementGlobalStats(ctx, GlobalStatsDelta{
				Chain:    testChain,
				Users:    1,
				Deposits: dec("10.5"),
				Volume:   dec("10.5"),
			})
		})
		require.NoError(t, err)
	}

	err := store.WithinTx(ctx, func(tx Tx) error {
		return tx.IncrementGlobalStats(ctx, GlobalStatsDelta{
			Chain:       domain.ChainEthereumMainnet,
			Buckets:     2,
			Withdrawals: dec("1"),
			Volume:      dec("1"),
		})
	})
	require.NoError(t, err)

	stats, err := store.GetGlobalStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.TotalUsers)
	assert.Equal(t, int64(2), stats.TotalBuckets)
	assert.True(t, stats.TotalDeposits.Equal(dec("31.5")))
	assert.True(t, stats.TotalWithdrawals.Equal(dec("1")))
	assert.True(t, stats.TotalVolume.Equal(dec("32.5")))

	chains, err := store.ListChainStats(ctx)
	require.NoError(t, err)
	require.Len(t, chains, 2)
	assert.Equal(t, string(domain.ChainEthereumMainnet), chains[0].ID)
	assert.Equal(t, int64(0), chains[0].TotalUsers)
	assert.Equal(t, int64(2), chains[0].TotalBuckets)
	assert.True(t, chains[0].TotalVolume.Equal(dec("1")))
	assert.Equal(t, string(testChain), chains[1].ID)
	assert.Equal(t, int64(3), chains[1].TotalUsers)
	assert.True(t, chains[1].TotalDeposits.Equal(dec("31.5")))
}

func testWalletCreationOnce(t *testing.T, store Store) {
	ctx := context.Background()
	userID := domain.NewUserID(testChain, testWallet)

	var results []bool
	for _, id := range []string{"0xaa-0", "0xbb-1"} {
		err := store.WithinTx(ctx, func(tx Tx) error {
			if _, _, err := tx.UpsertUser(ctx, testChain, testWallet, testTime); err != nil {
				return err
			}
			created, err := tx.CreateWalletCreation(ctx, &schema.WalletCreation{
				ID:             id,
				UserID:         userID,
				Wallet:         testWallet,
				TxHash:         "0xaa",
				BlockTimestamp: testTime,
			})
			results = append(results, created)
			return err
		})
		require.NoError(t, err)
	}

	assert.Equal(t, []bool{true, false}, results)
}

func testHistoryRecords(t *testing.T, store Store) {
	ctx := context.Background()
	userID := domain.NewUserID(testChain, testWallet)
	bucketID := domain.NewBucketID(userID, "groceries")

	records := []schema.HistoryRecord{
		{ID: "0x02-0", Type: string(domain.HistoryTypeBucketSpending), Amount: dec("5"), BucketID: strPtr(bucketID), BlockNumber: 2, LogIndex: 0, TxHash: "0x02", BlockTimestamp: testTime.Add(48 * time.Hour)},
		{ID: "0x01-1", Type: string(domain.HistoryTypeBucketFunding), Amount: dec("15"), BucketID: strPtr(bucketID), BlockNumber: 1, LogIndex: 1, TxHash: "0x01", BlockTimestamp: testTime.Add(24 * time.Hour)},
		{ID: "0x01-0", Type: string(domain.HistoryTypeDeposit), Amount: dec("100"), BlockNumber: 1, LogIndex: 0, TxHash: "0x01", BlockTimestamp: testTime},
	}

	err := store.WithinTx(ctx, func(tx Tx) error {
		if _, _, err := tx.UpsertUser(ctx, testChain, testWallet, testTime); err != nil {
			return err
		}
		for i := range records {
			records[i].UserID = userID
			records[i].Chain = string(testChain)
			created, err := tx.CreateHistoryRecord(ctx, &records[i])
			if err != nil {
				return err
			}
			assert.True(t, created)
		}
		return nil
	})
	require.NoError(t, err)

	err = store.WithinTx(ctx, func(tx Tx) error {
		exists, err := tx.HistoryRecordExists(ctx, "0x01-0")
		require.NoError(t, err)
		assert.True(t, exists)

		dup := records[2]
		created, err := tx.CreateHistoryRecord(ctx, &dup)
		require.NoError(t, err)
		assert.False(t, created)
		return nil
	})
	require.NoError(t, err)

	all, err := store.ListHistoryByUser(ctx, userID, HistoryFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "0x01-0", all[0].ID)
	assert.Equal(t, "0x01-1", all[1].ID)
	assert.Equal(t, "0x02-0", all[2].ID)

	spending, err := store.ListHistoryByUser(ctx, userID, HistoryFilter{Types: []domain.HistoryType{domain.HistoryTypeBucketSpending}})
	require.NoError(t, err)
	require.Len(t, spending, 1)
	assert.True(t, spending[0].Amount.Equal(dec("5")))

	since := testTime.Add(time.Hour)
	until := testTime.Add(48 * time.Hour)
	window, err := store.ListHistoryByUser(ctx, userID, HistoryFilter{Since: &since, Until: &until})
	require.NoError(t, err)
	require.Len(t, window, 1)
	assert.Equal(t, "0x01-1", window[0].ID)

	byBucket, err := store.ListHistoryByBucket(ctx, bucketID)
	require.NoError(t, err)
	assert.Len(t, byBucket, 2)
}

func testLastActivityByBucket(t *testing.T, store Store) {
	ctx := context.Background()
	userID := domain.NewUserID(testChain, testWallet)
	a := domain.NewBucketID(userID, "a")
	b := domain.NewBucketID(userID, "b")

	err := store.WithinTx(ctx, func(tx Tx) error {
		if _, _, err := tx.UpsertUser(ctx, testChain, testWallet, testTime); err != nil {
			return err
		}
		for _, r := range []schema.HistoryRecord{
			{ID: "0x01-0", BucketID: strPtr(a), BlockNumber: 1, BlockTimestamp: testTime},
			{ID: "0x02-0", BucketID: strPtr(a), CounterpartyBucketID: strPtr(b), BlockNumber: 2, BlockTimestamp: testTime.Add(time.Hour)},
		} {
			r.UserID = userID
			r.Chain = string(testChain)
			r.Type = string(domain.HistoryTypeTransfer)
			r.Amount = dec("1")
			r.TxHash = "0x01"
			if _, err := tx.CreateHistoryRecord(ctx, &r); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)

	activity, err := store.LastActivityByBucket(ctx, userID)
	require.NoError(t, err)
	require.Len(t, activity, 2)
	assert.True(t, activity[a].Equal(testTime.Add(time.Hour)))
	assert.True(t, activity[b].Equal(testTime.Add(time.Hour)))
}

func testDelegates(t *testing.T, store Store) {
	ctx := context.Background()
	userID := domain.NewUserID(testChain, testWallet)
	delegate := "0x3333333333333333333333333333333333333333"
	revokedAt := testTime.Add(time.Hour)

	err := store.WithinTx(ctx, func(tx Tx) error {
		if _, _, err := tx.UpsertUser(ctx, testChain, testWallet, testTime); err != nil {
			return err
		}
		if err := tx.UpsertDelegate(ctx, &schema.Delegate{UserID: userID, Delegate: delegate, Active: true, GrantedAt: testTime}); err != nil {
			return err
		}
		return tx.UpsertDelegate(ctx, &schema.Delegate{UserID: userID, Delegate: delegate, Active: false, GrantedAt: revokedAt, RevokedAt: &revokedAt})
	})
	require.NoError(t, err)

	delegates, err := store.ListDelegates(ctx, userID)
	require.NoError(t, err)
	require.Len(t, delegates, 1)
	assert.False(t, delegates[0].Active)
	assert.True(t, delegates[0].GrantedAt.Equal(testTime))
	require.NotNil(t, delegates[0].RevokedAt)
	assert.True(t, delegates[0].RevokedAt.Equal(revokedAt))
}

func testCursor(t *testing.T, store Store) {
	ctx := context.Background()

	pos, err := store.GetCursor(ctx, testChain)
	require.NoError(t, err)
	assert.Nil(t, pos)

	err = store.WithinTx(ctx, func(tx Tx) error {
		if err := tx.SetCursor(ctx, testChain, domain.Position{BlockNumber: 10, LogIndex: 2}); err != nil {
			return err
		}
		inTx, err := tx.GetCursor(ctx, testChain)
		require.NoError(t, err)
		require.NotNil(t, inTx)
		assert.Equal(t, uint64(10), inTx.BlockNumber)
		return tx.SetCursor(ctx, testChain, domain.Position{BlockNumber: 11, LogIndex: 0})
	})
	require.NoError(t, err)

	pos, err = store.GetCursor(ctx, testChain)
	require.NoError(t, err)
	require.NotNil(t, pos)
	assert.Equal(t, domain.Position{BlockNumber: 11, LogIndex: 0}, *pos)

	other, err := store.GetCursor(ctx, domain.ChainEthereumMainnet)
	require.NoError(t, err)
	assert.Nil(t, other)
}

func testListUserIDs(t *testing.T, store Store) {
	ctx := context.Background()
	wallets := []string{
		"0x1111111111111111111111111111111111111111",
		"0x2222222222222222222222222222222222222222",
		"0x3333333333333333333333333333333333333333",
	}

	err := store.WithinTx(ctx, func(tx Tx) error {
		for _, w := range wallets {
			if _, _, err := tx.UpsertUser(ctx, testChain, w, testTime); err != nil {
				return err
			}
		}
		_, _, err := tx.UpsertUser(ctx, domain.ChainEthereumMainnet, wallets[0], testTime)
		return err
	})
	require.NoError(t, err)

	page, err := store.ListUserIDs(ctx, testChain, "", 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, domain.NewUserID(testChain, wallets[0]), page[0])

	rest, err := store.ListUserIDs(ctx, testChain, page[1], 10)
	require.NoError(t, err)
	assert.Equal(t, []string{domain.NewUserID(testChain, wallets[2])}, rest)

	all, err := store.ListUserIDs(ctx, "", "", 0)
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func testFaults(t *testing.T, store Store) {
	ctx := context.Background()
	userID := domain.NewUserID(testChain, testWallet)

	first := &schema.IngestFault{
		ID:        "01HZX0000000000000000000A1",
		Chain:     string(testChain),
		EventID:   "0xaa-1",
		EventName: "Withdrawal",
		EntityID:  userID,
		ErrorKind: "missing_bucket_reference",
		Message:   "missing bucket reference",
		Status:    schema.FaultStatusOpen,
	}
	require.NoError(t, store.CreateFault(ctx, first))

	found, err := store.FindFault(ctx, testChain, "0xaa-1", schema.FaultStatusOpen)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, first.ID, found.ID)

	quarantined, err := store.IsQuarantined(ctx, userID)
	require.NoError(t, err)
	assert.False(t, quarantined)

	require.NoError(t, store.UpdateFaultStatus(ctx, first.ID, schema.FaultStatusSkipped))

	quarantined, err = store.IsQuarantined(ctx, userID)
	require.NoError(t, err)
	assert.True(t, quarantined)

	skipped, err := store.FindFault(ctx, testChain, "0xaa-1", schema.FaultStatusSkipped)
	require.NoError(t, err)
	require.NotNil(t, skipped)

	listed, err := store.ListFaults(ctx, FaultFilter{Chain: testChain, Status: schema.FaultStatusSkipped})
	require.NoError(t, err)
	assert.Len(t, listed, 1)

	byUser, err := store.ListFaults(ctx, FaultFilter{EntityID: userID})
	require.NoError(t, err)
	assert.Len(t, byUser, 1)

	other, err := store.ListFaults(ctx, FaultFilter{EntityID: "someone-else"})
	require.NoError(t, err)
	assert.Empty(t, other)

	held := &schema.IngestFault{
		ID:        "01HZX0000000000000000000A2",
		Chain:     string(testChain),
		EventID:   "0xbb-0",
		EventName: "Deposit",
		EntityID:  userID,
		ErrorKind: domain.ErrorKind(domain.ErrWalletQuarantined),
		Message:   "wallet quarantined",
		Status:    schema.FaultStatusSkipped,
	}
	require.NoError(t, store.CreateFault(ctx, held))

	released, err := store.ReleaseQuarantine(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), released)

	quarantined, err = store.IsQuarantined(ctx, userID)
	require.NoError(t, err)
	assert.False(t, quarantined)

	rootCause, err := store.GetFault(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, schema.FaultStatusReleased, rootCause.Status)

	heldBack, err := store.GetFault(ctx, held.ID)
	require.NoError(t, err)
	assert.Equal(t, schema.FaultStatusResolved, heldBack.Status)

	again, err := store.ReleaseQuarantine(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), again)

	err = store.UpdateFaultStatus(ctx, "missing", schema.FaultStatusSkipped)
	assert.ErrorIs(t, err, domain.ErrFaultNotFound)

	none, err := store.GetFault(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, none)
}

func testListUserHistoryInTx(t *testing.T, store Store) {
	ctx := context.Background()
	userID := domain.NewUserID(testChain, testWallet)

	deposit := func(id string, block uint64, amount string) *schema.HistoryRecord {
		return &schema.HistoryRecord{
			ID:             id,
			UserID:         userID,
			Chain:          string(testChain),
			Type:           string(domain.HistoryTypeDeposit),
			Amount:         dec(amount),
			BlockNumber:    block,
			TxHash:         id,
			BlockTimestamp: testTime,
		}
	}

	err := store.WithinTx(ctx, func(tx Tx) error {
		if _, _, err := tx.UpsertUser(ctx, testChain, testWallet, testTime); err != nil {
			return err
		}
		_, err := tx.CreateHistoryRecord(ctx, deposit("0x03-0", 3, "30"))
		return err
	})
	require.NoError(t, err)

	err = store.WithinTx(ctx, func(tx Tx) error {
		u, err := tx.GetUserForUpdate(ctx, userID)
		require.NoError(t, err)
		require.NotNil(t, u)

		_, err = tx.CreateHistoryRecord(ctx, deposit("0x01-0", 1, "10"))
		require.NoError(t, err)

		records, err := tx.ListUserHistory(ctx, userID)
		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, "0x01-0", records[0].ID)
		assert.Equal(t, "0x03-0", records[1].ID)

		u.TotalSpent = dec("0")
		u.TotalBalance = dec("40")
		return tx.SaveUser(ctx, u)
	})
	require.NoError(t, err)

	u, err := store.GetUser(ctx, userID)
	require.NoError(t, err)
	assert.True(t, u.TotalBalance.Equal(dec("40")))

	err = store.WithinTx(ctx, func(tx Tx) error {
		records, err := tx.ListUserHistory(ctx, domain.NewUserID(testChain, "0x2222222222222222222222222222222222222222"))
		require.NoError(t, err)
		assert.Empty(t, records)
		return nil
	})
	require.NoError(t, err)
}

func testSnapshot(t *testing.T, store Store) {
	ctx := context.Background()
	userID := domain.NewUserID(testChain, testWallet)

	u, records, err := store.Snapshot(ctx, userID)
	require.NoError(t, err)
	assert.Nil(t, u)
	assert.Empty(t, records)

	err = store.WithinTx(ctx, func(tx Tx) error {
		if _, _, err := tx.UpsertUser(ctx, testChain, testWallet, testTime); err != nil {
			return err
		}
		_, err := tx.CreateHistoryRecord(ctx, &schema.HistoryRecord{
			ID:             "0x01-0",
			UserID:         userID,
			Chain:          string(testChain),
			Type:           string(domain.HistoryTypeDeposit),
			Amount:         dec("100"),
			BlockNumber:    1,
			TxHash:         "0x01",
			BlockTimestamp: testTime,
		})
		return err
	})
	require.NoError(t, err)

	u, records, err = store.Snapshot(ctx, userID)
	require.NoError(t, err)
	require.NotNil(t, u)
	require.Len(t, records, 1)
	assert.True(t, records[0].Amount.Equal(dec("100")))
}
