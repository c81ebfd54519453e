package feed

import (
	"fmt"

	"github.com/feral-file/ff-ledger/internal/adapter"
	"github.com/feral-file/ff-ledger/internal/messaging"
	"github.com/feral-file/ff-ledger/internal/providers/jetstream"
	"github.com/feral-file/ff-ledger/internal/providers/kafka"
)

const (
	FeedNATS  = "nats"
	FeedKafka = "kafka"
)

// Config selects the broker a publisher writes to
type Config struct {
	Feed string
	NATS jetstream.Config
	// Brokers, EventsTopic and DriftTopic are used by the kafka feed
	Brokers     []string
	EventsTopic string
	DriftTopic  string
}

// NewPublisher creates the publisher of the configured feed
func NewPublisher(cfg Config, natsJS adapter.NatsJetStream, jsonAdapter adapter.JSON) (messaging.Publisher, error) {
	switch cfg.Feed {
	case FeedNATS:
		return jetstream.NewPublisher(cfg.NATS, natsJS, jsonAdapter)
	case FeedKafka:
		if len(cfg.Brokers) == 0 {
			return nil, fmt.Errorf("kafka feed requires at least one broker")
		}
		return kafka.NewPublisher(
			adapter.NewKafkaWriter(cfg.Brokers, cfg.EventsTopic),
			adapter.NewKafkaWriter(cfg.Brokers, cfg.DriftTopic),
			jsonAdapter,
		), nil
	default:
		return nil, fmt.Errorf("unsupported feed %q", cfg.Feed)
	}
}
