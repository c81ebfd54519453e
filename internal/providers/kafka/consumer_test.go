package kafka_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"

	"github.com/feral-file/ff-ledger/internal/adapter"
	"github.com/feral-file/ff-ledger/internal/domain"
	"github.com/feral-file/ff-ledger/internal/ingest"
	"github.com/feral-file/ff-ledger/internal/logger"
	"github.com/feral-file/ff-ledger/internal/mocks"
	"github.com/feral-file/ff-ledger/internal/providers/kafka"
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

type testConsumerMocks struct {
	ctrl     *gomock.Controller
	reader   *mocks.MockKafkaReader
	ingestor *mocks.MockIngestor
	clock    *mocks.MockClock
	consumer kafka.Consumer
}

func setupTestConsumer(t *testing.T) *testConsumerMocks {
	ctrl := gomock.NewController(t)
	tm := &testConsumerMocks{
		ctrl:     ctrl,
		reader:   mocks.NewMockKafkaReader(ctrl),
		ingestor: mocks.NewMockIngestor(ctrl),
		clock:    mocks.NewMockClock(ctrl),
	}
	tm.consumer = kafka.NewConsumer(kafka.ConsumerConfig{
		Brokers:    []string{"localhost:9092"},
		Topic:      "ledger-events",
		GroupID:    "ledger-ingestor-base",
		Chain:      domain.ChainBaseMainnet,
		RetryDelay: time.Second,
	}, tm.reader, tm.ingestor, adapter.NewJSON(), tm.clock)
	return tm
}

func eventMessage(t *testing.T, key string, event domain.RawEvent, offset int64) kafkago.Message {
	data, err := adapter.NewJSON().Marshal(event)
	assert.NoError(t, err)
	return kafkago.Message{Key: []byte(key), Value: data, Offset: offset}
}

func testRawEvent() domain.RawEvent {
	return domain.RawEvent{
		Chain:       domain.ChainBaseMainnet,
		EventName:   "Deposit",
		BlockNumber: 10,
		LogIndex:    1,
		TxHash:      "0xaa",
		Params:      map[string]any{"wallet": "0x01", "amount": "100", "bucket": "food"},
	}
}

func firedAfter() <-chan time.Time {
	ch := make(chan time.Time, 1)
	ch <- time.Time{}
	return ch
}

func TestReaderConfig(t *testing.T) {
	cfg := kafka.ReaderConfig(kafka.ConsumerConfig{
		Brokers: []string{"a:9092", "b:9092"},
		Topic:   "ledger-events",
		GroupID: "g",
	})

	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.Brokers)
	assert.Equal(t, "ledger-events", cfg.Topic)
	assert.Equal(t, "g", cfg.GroupID)
	assert.Equal(t, kafkago.FirstOffset, cfg.StartOffset)
	assert.Zero(t, cfg.CommitInterval)
}

func TestConsumer_HandlesAndCommits(t *testing.T) {
	tm := setupTestConsumer(t)
	ctx := context.Background()

	msg := eventMessage(t, "base", testRawEvent(), 7)
	gomock.InOrder(
		tm.reader.EXPECT().FetchMessage(gomock.Any()).Return(msg, nil),
		tm.ingestor.EXPECT().Handle(gomock.Any(), gomock.Any()).
			Return(ingest.Result{EventID: "0xaa-1", Outcome: ingest.OutcomeApplied}, nil),
		tm.reader.EXPECT().CommitMessages(gomock.Any(), msg).Return(nil),
		tm.reader.EXPECT().FetchMessage(gomock.Any()).Return(kafkago.Message{}, context.Canceled),
	)

	err := tm.consumer.Run(ctx)
	assert.NoError(t, err)
}

func TestConsumer_RetriesFailedEventBeforeCommit(t *testing.T) {
	tm := setupTestConsumer(t)

	msg := eventMessage(t, "base", testRawEvent(), 7)
	gomock.InOrder(
		tm.reader.EXPECT().FetchMessage(gomock.Any()).Return(msg, nil),
		tm.ingestor.EXPECT().Handle(gomock.Any(), gomock.Any()).Return(ingest.Result{}, assert.AnError),
		tm.clock.EXPECT().After(time.Second).Return(firedAfter()),
		tm.ingestor.EXPECT().Handle(gomock.Any(), gomock.Any()).
			Return(ingest.Result{Outcome: ingest.OutcomeApplied}, nil),
		tm.reader.EXPECT().CommitMessages(gomock.Any(), msg).Return(nil),
		tm.reader.EXPECT().FetchMessage(gomock.Any()).Return(kafkago.Message{}, context.Canceled),
	)

	assert.NoError(t, tm.consumer.Run(context.Background()))
}

func TestConsumer_SkipsOtherChains(t *testing.T) {
	tm := setupTestConsumer(t)

	other := eventMessage(t, "ethereum", testRawEvent(), 1)
	gomock.InOrder(
		tm.reader.EXPECT().FetchMessage(gomock.Any()).Return(other, nil),
		tm.reader.EXPECT().CommitMessages(gomock.Any(), other).Return(nil),
		tm.reader.EXPECT().FetchMessage(gomock.Any()).Return(kafkago.Message{}, context.Canceled),
	)

	assert.NoError(t, tm.consumer.Run(context.Background()))
}

func TestConsumer_UndecodableHoldsUntilSkipped(t *testing.T) {
	tm := setupTestConsumer(t)

	garbage := kafkago.Message{Topic: "ledger-events", Partition: 2, Key: []byte("base"), Value: []byte("{not json"), Offset: 9}
	messageID := "kafka:ledger-events:2:9"
	fault := domain.NewEventError(messageID, "", "", domain.ErrInvalidEventPayload)
	gomock.InOrder(
		tm.reader.EXPECT().FetchMessage(gomock.Any()).Return(garbage, nil),
		tm.ingestor.EXPECT().HandleUndecodable(gomock.Any(), messageID, []byte("{not json"), gomock.Any()).
			Return(ingest.Result{EventID: messageID}, fault),
		tm.clock.EXPECT().After(time.Second).Return(firedAfter()),
		tm.ingestor.EXPECT().HandleUndecodable(gomock.Any(), messageID, gomock.Any(), gomock.Any()).
			Return(ingest.Result{EventID: messageID, Outcome: ingest.OutcomeSkipped}, nil),
		tm.reader.EXPECT().CommitMessages(gomock.Any(), garbage).Return(nil),
		tm.reader.EXPECT().FetchMessage(gomock.Any()).Return(kafkago.Message{}, context.Canceled),
	)

	assert.NoError(t, tm.consumer.Run(context.Background()))
}

func TestMessageID(t *testing.T) {
	assert.Equal(t, "kafka:ledger-events:0:12", kafka.MessageID("ledger-events", 0, 12))
}

func TestConsumer_CancelledWhileWaitingToRetry(t *testing.T) {
	tm := setupTestConsumer(t)
	ctx, cancel := context.WithCancel(context.Background())

	msg := eventMessage(t, "base", testRawEvent(), 7)
	tm.reader.EXPECT().FetchMessage(gomock.Any()).Return(msg, nil)
	tm.ingestor.EXPECT().Handle(gomock.Any(), gomock.Any()).
		DoAndReturn(func(context.Context, domain.RawEvent) (ingest.Result, error) {
			cancel()
			return ingest.Result{}, assert.AnError
		})
	tm.clock.EXPECT().After(time.Second).Return(make(chan time.Time))

	err := tm.consumer.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestConsumer_FetchAndCommitErrors(t *testing.T) {
	t.Run("fetch", func(t *testing.T) {
		tm := setupTestConsumer(t)
		tm.reader.EXPECT().FetchMessage(gomock.Any()).Return(kafkago.Message{}, assert.AnError)

		err := tm.consumer.Run(context.Background())
		assert.ErrorIs(t, err, assert.AnError)
	})

	t.Run("commit", func(t *testing.T) {
		tm := setupTestConsumer(t)
		msg := eventMessage(t, "", testRawEvent(), 3)
		tm.reader.EXPECT().FetchMessage(gomock.Any()).Return(msg, nil)
		tm.ingestor.EXPECT().Handle(gomock.Any(), gomock.Any()).Return(ingest.Result{}, nil)
		tm.reader.EXPECT().CommitMessages(gomock.Any(), msg).Return(assert.AnError)

		err := tm.consumer.Run(context.Background())
		assert.ErrorIs(t, err, assert.AnError)
	})
}

func TestConsumer_Close(t *testing.T) {
	tm := setupTestConsumer(t)
	tm.reader.EXPECT().Close().Return(assert.AnError)

	tm.consumer.Close()
}
