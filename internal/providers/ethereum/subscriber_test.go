package ethereum

import (
	"context"
	"errors"
	"math/big"
	"os"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/ff-ledger/internal/domain"
	"github.com/feral-file/ff-ledger/internal/logger"
	"github.com/feral-file/ff-ledger/internal/mocks"
)

func TestMain(m *testing.M) {
	err := logger.Initialize(logger.Config{
		Debug: false,
	})
	if err != nil {
		panic(err)
	}

	code := m.Run()
	os.Exit(code)
}

type fakeSubscription struct {
	errCh        chan error
	unsubscribed bool
}

func (s *fakeSubscription) Err() <-chan error { return s.errCh }
func (s *fakeSubscription) Unsubscribe()      { s.unsubscribed = true }

func TestClient_FilterLogsHalvesStepOnTooManyResults(t *testing.T) {
	ctrl := gomock.NewController(t)
	eth := mocks.NewMockEthClient(ctrl)
	clock := mocks.NewMockClock(ctrl)
	d := newTestDecoder(t)

	c := NewClient(domain.ChainBaseMainnet, eth, clock, d).(*ethereumClient)
	c.step = 100

	var ranges [][2]uint64
	eth.EXPECT().
		FilterLogs(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
			ranges = append(ranges, [2]uint64{q.FromBlock.Uint64(), q.ToBlock.Uint64()})
			if q.ToBlock.Uint64()-q.FromBlock.Uint64() >= 50 {
				return nil, errors.New("query returned more than 10000 results")
			}
			return []types.Log{{BlockNumber: q.FromBlock.Uint64()}}, nil
		}).
		AnyTimes()

	logs, err := c.FilterLogs(context.Background(), ethereum.FilterQuery{
		FromBlock: big.NewInt(0),
		ToBlock:   big.NewInt(99),
	})
	require.NoError(t, err)

	assert.Equal(t, [][2]uint64{{0, 99}, {0, 49}, {50, 99}}, ranges)
	assert.Len(t, logs, 2)
}

func TestClient_FilterLogsOtherError(t *testing.T) {
	ctrl := gomock.NewController(t)
	eth := mocks.NewMockEthClient(ctrl)
	c := NewClient(domain.ChainBaseMainnet, eth, mocks.NewMockClock(ctrl), newTestDecoder(t))

	eth.EXPECT().
		FilterLogs(gomock.Any(), gomock.Any()).
		Return(nil, assert.AnError)

	_, err := c.FilterLogs(context.Background(), ethereum.FilterQuery{FromBlock: big.NewInt(1), ToBlock: big.NewInt(2)})
	assert.ErrorIs(t, err, assert.AnError)
}

func TestClient_ParseEventLogCachesBlockTime(t *testing.T) {
	ctrl := gomock.NewController(t)
	eth := mocks.NewMockEthClient(ctrl)
	clock := mocks.NewMockClock(ctrl)
	d := newTestDecoder(t)
	c := NewClient(domain.ChainBaseMainnet, eth, clock, d)

	eth.EXPECT().
		HeaderByNumber(gomock.Any(), big.NewInt(120)).
		Return(&types.Header{Number: big.NewInt(120), Time: uint64(blockTime.Unix())}, nil).
		Times(1)
	clock.EXPECT().
		Unix(blockTime.Unix(), int64(0)).
		Return(blockTime)

	vLog := buildLog(t, d, "BucketPeriodReset", walletAddr, nil, "food")
	for i := 0; i < 2; i++ {
		raw, err := c.ParseEventLog(context.Background(), vLog)
		require.NoError(t, err)
		assert.Equal(t, blockTime, raw.BlockTimestamp)
		assert.Equal(t, "BucketPeriodReset", raw.EventName)
	}
}

func TestSubscriber_HistoryThenLive(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mocks.NewMockEthereumClient(ctrl)
	d := newTestDecoder(t)
	sub := NewSubscriber(Config{ChainID: domain.ChainBaseMainnet, Addresses: []string{walletAddr.Hex()}}, client, d)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	historical := []types.Log{
		{BlockNumber: 10, Index: 0, TxHash: common.HexToHash("0x10")},
		{BlockNumber: 11, Index: 0, TxHash: common.HexToHash("0x11"), Removed: true},
		{BlockNumber: 12, Index: 0, TxHash: common.HexToHash("0x12")},
	}
	live := types.Log{BlockNumber: 21, Index: 3, TxHash: common.HexToHash("0x21")}
	subscription := &fakeSubscription{errCh: make(chan error)}

	client.EXPECT().
		HeaderByNumber(gomock.Any(), nil).
		Return(&types.Header{Number: big.NewInt(20)}, nil)
	client.EXPECT().
		FilterLogs(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
			assert.Equal(t, uint64(10), q.FromBlock.Uint64())
			assert.Equal(t, uint64(20), q.ToBlock.Uint64())
			assert.Equal(t, []common.Address{walletAddr}, q.Addresses)
			return historical, nil
		})
	client.EXPECT().
		SubscribeFilterLogs(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, q ethereum.FilterQuery, ch chan<- types.Log) (ethereum.Subscription, error) {
			assert.Equal(t, uint64(21), q.FromBlock.Uint64())
			assert.Nil(t, q.ToBlock)
			go func() { ch <- live }()
			return subscription, nil
		})
	client.EXPECT().
		ParseEventLog(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, vLog types.Log) (*domain.RawEvent, error) {
			return &domain.RawEvent{BlockNumber: vLog.BlockNumber, LogIndex: uint64(vLog.Index), TxHash: vLog.TxHash.Hex()}, nil
		}).
		Times(3)

	var seen []uint64
	err := sub.SubscribeEvents(ctx, 10, func(_ context.Context, event *domain.RawEvent) error {
		seen = append(seen, event.BlockNumber)
		if event.BlockNumber == 21 {
			cancel()
		}
		return nil
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []uint64{10, 12, 21}, seen)
	assert.True(t, subscription.unsubscribed)
}

func TestSubscriber_HandlerErrorStops(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mocks.NewMockEthereumClient(ctrl)
	sub := NewSubscriber(Config{ChainID: domain.ChainBaseMainnet}, client, newTestDecoder(t))

	client.EXPECT().
		HeaderByNumber(gomock.Any(), nil).
		Return(&types.Header{Number: big.NewInt(5)}, nil)
	client.EXPECT().
		FilterLogs(gomock.Any(), gomock.Any()).
		Return([]types.Log{{BlockNumber: 4}, {BlockNumber: 5}}, nil)
	client.EXPECT().
		ParseEventLog(gomock.Any(), gomock.Any()).
		Return(&domain.RawEvent{BlockNumber: 4, TxHash: "0x4"}, nil)

	err := sub.SubscribeEvents(context.Background(), 4, func(_ context.Context, _ *domain.RawEvent) error {
		return assert.AnError
	})
	assert.ErrorIs(t, err, assert.AnError)
}

func TestSubscriber_SkipsForeignLogs(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mocks.NewMockEthereumClient(ctrl)
	sub := NewSubscriber(Config{ChainID: domain.ChainBaseMainnet}, client, newTestDecoder(t)).(*ethSubscriber)

	client.EXPECT().
		ParseEventLog(gomock.Any(), gomock.Any()).
		Return(nil, domain.ErrUnrecognizedEventKind)

	called := false
	err := sub.deliver(context.Background(), types.Log{BlockNumber: 1}, func(_ context.Context, _ *domain.RawEvent) error {
		called = true
		return nil
	})
	assert.NoError(t, err)
	assert.False(t, called)
}

func TestSubscriber_GetLatestBlock(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mocks.NewMockEthereumClient(ctrl)
	sub := NewSubscriber(Config{ChainID: domain.ChainBaseMainnet}, client, newTestDecoder(t))

	client.EXPECT().
		HeaderByNumber(gomock.Any(), nil).
		Return(&types.Header{Number: big.NewInt(1234)}, nil)

	latest, err := sub.GetLatestBlock(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(1234), latest)

	client.EXPECT().Close()
	sub.Close()
}
