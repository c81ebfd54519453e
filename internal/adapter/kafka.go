package adapter

import (
	"context"

	"github.com/segmentio/kafka-go"
)

// KafkaReader defines an interface for reading a Kafka topic to enable mocking
//
//go:generate mockgen -source=kafka.go -destination=../mocks/kafka.go -package=mocks -mock_names=KafkaReader=MockKafkaReader,KafkaWriter=MockKafkaWriter
type KafkaReader interface {
	// FetchMessage blocks until the next message; the offset is not committed
	FetchMessage(ctx context.Context) (kafka.Message, error)
	// CommitMessages commits the offsets of the messages
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	// Close closes the reader
	Close() error
}

// KafkaWriter defines an interface for writing to a Kafka topic to enable mocking
type KafkaWriter interface {
	// WriteMessages writes the messages to the topic
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	// Close flushes pending writes and closes the writer
	Close() error
}

// NewKafkaReader creates a reader backed by kafka-go
func NewKafkaReader(cfg kafka.ReaderConfig) KafkaReader {
	return kafka.NewReader(cfg)
}

// NewKafkaWriter creates a writer backed by kafka-go
func NewKafkaWriter(brokers []string, topic string) KafkaWriter {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
	}
}
