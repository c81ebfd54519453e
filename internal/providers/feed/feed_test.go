package feed_test

import (
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/ff-ledger/internal/adapter"
	"github.com/feral-file/ff-ledger/internal/mocks"
	"github.com/feral-file/ff-ledger/internal/providers/feed"
	"github.com/feral-file/ff-ledger/internal/providers/jetstream"
)

func TestNewPublisher(t *testing.T) {
	tests := []struct {
		name        string
		config      feed.Config
		setup       func(natsJS *mocks.MockNatsJetStream)
		expectError bool
	}{
		{
			name:   "nats",
			config: feed.Config{Feed: feed.FeedNATS, NATS: jetstream.Config{URL: "nats://localhost:4222"}},
			setup: func(natsJS *mocks.MockNatsJetStream) {
				natsJS.EXPECT().
					Connect("nats://localhost:4222", gomock.Any()).
					Return(nil, nil, nil)
			},
		},
		{
			name:   "nats connect fails",
			config: feed.Config{Feed: feed.FeedNATS, NATS: jetstream.Config{URL: "nats://localhost:4222"}},
			setup: func(natsJS *mocks.MockNatsJetStream) {
				natsJS.EXPECT().
					Connect("nats://localhost:4222", gomock.Any()).
					Return(nil, nil, assert.AnError)
			},
			expectError: true,
		},
		{
			name:   "kafka",
			config: feed.Config{Feed: feed.FeedKafka, Brokers: []string{"localhost:9092"}, EventsTopic: "ledger-events", DriftTopic: "ledger-drift"},
		},
		{
			name:        "kafka without brokers",
			config:      feed.Config{Feed: feed.FeedKafka},
			expectError: true,
		},
		{
			name:        "unknown feed",
			config:      feed.Config{Feed: "redis"},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			natsJS := mocks.NewMockNatsJetStream(ctrl)
			if tt.setup != nil {
				tt.setup(natsJS)
			}

			pub, err := feed.NewPublisher(tt.config, natsJS, adapter.NewJSON())
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, pub)
		})
	}
}
