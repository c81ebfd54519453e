package messaging

import (
	"context"

	"github.com/feral-file/ff-ledger/internal/domain"
)

// EventHandler is called for each raw event in chain order. An error stops the subscription.
type EventHandler func(ctx context.Context, event *domain.RawEvent) error

// Subscriber defines the interface for following wallet events on a chain
//
//go:generate mockgen -source=subscriber.go -destination=../mocks/subscriber.go -package=mocks -mock_names=Subscriber=MockSubscriber
type Subscriber interface {
	// SubscribeEvents delivers the wallet events from fromBlock onwards to handler
	SubscribeEvents(ctx context.Context, fromBlock uint64, handler EventHandler) error

	// GetLatestBlock returns the latest block number
	GetLatestBlock(ctx context.Context) (uint64, error)

	// Close closes the connection and cleans up resources
	Close()
}
