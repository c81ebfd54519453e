package emitter_test

import (
	"context"
	"os"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"

	"github.com/feral-file/ff-ledger/internal/domain"
	"github.com/feral-file/ff-ledger/internal/emitter"
	"github.com/feral-file/ff-ledger/internal/logger"
	"github.com/feral-file/ff-ledger/internal/messaging"
	"github.com/feral-file/ff-ledger/internal/mocks"
	"github.com/feral-file/ff-ledger/internal/store"
)

func TestMain(m *testing.M) {
	// Initialize logger for tests
	err := logger.Initialize(logger.Config{
		Debug: false,
	})
	if err != nil {
		panic(err)
	}

	code := m.Run()
	os.Exit(code)
}

// testEmitterMocks contains all the mocks needed for testing the emitter
type testEmitterMocks struct {
	ctrl       *gomock.Controller
	subscriber *mocks.MockSubscriber
	publisher  *mocks.MockPublisher
	store      store.Store
}

func setupTestEmitter(t *testing.T) *testEmitterMocks {
	ctrl := gomock.NewController(t)

	return &testEmitterMocks{
		ctrl:       ctrl,
		subscriber: mocks.NewMockSubscriber(ctrl),
		publisher:  mocks.NewMockPublisher(ctrl),
		store:      store.NewMemoryStore(),
	}
}

func (tm *testEmitterMocks) emitter(startBlock uint64) emitter.Emitter {
	return emitter.NewEmitter(tm.subscriber, tm.publisher, tm.store, emitter.Config{
		ChainID:    domain.ChainBaseMainnet,
		StartBlock: startBlock,
	})
}

func testEvent(block uint64) *domain.RawEvent {
	return &domain.RawEvent{
		Chain:       domain.ChainBaseMainnet,
		EventName:   "Deposit",
		BlockNumber: block,
		TxHash:      "0xtx",
	}
}

func TestEmitter_Run_WithStartBlock(t *testing.T) {
	tm := setupTestEmitter(t)
	ctx := context.Background()

	event := testEvent(1001)
	tm.subscriber.
		EXPECT().
		SubscribeEvents(gomock.Any(), uint64(1000), gomock.Any()).
		DoAndReturn(func(ctx context.Context, fromBlock uint64, handler messaging.EventHandler) error {
			if err := handler(ctx, event); err != nil {
				return err
			}
			return context.Canceled
		})
	tm.publisher.
		EXPECT().
		PublishRawEvent(gomock.Any(), event).
		Return(nil)

	err := tm.emitter(1000).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEmitter_Run_ResumesFromIngestCursor(t *testing.T) {
	tm := setupTestEmitter(t)
	ctx := context.Background()

	err := tm.store.WithinTx(ctx, func(tx store.Tx) error {
		return tx.SetCursor(ctx, domain.ChainBaseMainnet, domain.Position{BlockNumber: 500, LogIndex: 4})
	})
	assert.NoError(t, err)

	tm.subscriber.
		EXPECT().
		SubscribeEvents(gomock.Any(), uint64(500), gomock.Any()).
		Return(assert.AnError)

	err = tm.emitter(0).Run(ctx)
	assert.ErrorIs(t, err, assert.AnError)
}

func TestEmitter_Run_StartsFromLatestBlock(t *testing.T) {
	tm := setupTestEmitter(t)
	ctx := context.Background()

	tm.subscriber.
		EXPECT().
		GetLatestBlock(gomock.Any()).
		Return(uint64(9000), nil)
	tm.subscriber.
		EXPECT().
		SubscribeEvents(gomock.Any(), uint64(9000), gomock.Any()).
		Return(assert.AnError)

	err := tm.emitter(0).Run(ctx)
	assert.ErrorIs(t, err, assert.AnError)
}

func TestEmitter_Run_LatestBlockError(t *testing.T) {
	tm := setupTestEmitter(t)

	tm.subscriber.
		EXPECT().
		GetLatestBlock(gomock.Any()).
		Return(uint64(0), assert.AnError)

	err := tm.emitter(0).Run(context.Background())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to get latest block number")
}

func TestEmitter_Run_PublishErrorStops(t *testing.T) {
	tm := setupTestEmitter(t)

	tm.subscriber.
		EXPECT().
		SubscribeEvents(gomock.Any(), uint64(1), gomock.Any()).
		DoAndReturn(func(ctx context.Context, _ uint64, handler messaging.EventHandler) error {
			return handler(ctx, testEvent(2))
		})
	tm.publisher.
		EXPECT().
		PublishRawEvent(gomock.Any(), gomock.Any()).
		Return(assert.AnError)

	err := tm.emitter(1).Run(context.Background())
	assert.ErrorIs(t, err, assert.AnError)
	assert.Contains(t, err.Error(), "failed to publish event")
}

func TestEmitter_Run_RejectsOtherChain(t *testing.T) {
	tm := setupTestEmitter(t)

	tm.subscriber.
		EXPECT().
		SubscribeEvents(gomock.Any(), uint64(1), gomock.Any()).
		DoAndReturn(func(ctx context.Context, _ uint64, handler messaging.EventHandler) error {
			event := testEvent(2)
			event.Chain = domain.ChainEthereumMainnet
			return handler(ctx, event)
		})

	err := tm.emitter(1).Run(context.Background())
	assert.Error(t, err)
}

func TestEmitter_Close(t *testing.T) {
	tm := setupTestEmitter(t)

	tm.subscriber.EXPECT().Close()
	tm.emitter(1).Close()
}
