package messaging

import (
	"context"

	"github.com/feral-file/ff-ledger/internal/domain"
	"github.com/feral-file/ff-ledger/internal/reconcile"
)

// Publisher defines the interface for publishing ledger messages to the message broker
//
//go:generate mockgen -source=publisher.go -destination=../mocks/publisher.go -package=mocks -mock_names=Publisher=MockPublisher
type Publisher interface {
	// PublishRawEvent publishes a raw wallet event on its chain subject.
	// The event id is the broker deduplication key, so republishing an event is harmless.
	PublishRawEvent(ctx context.Context, event *domain.RawEvent) error
	// PublishDriftReport publishes a reconciliation drift report
	PublishDriftReport(ctx context.Context, report *reconcile.Report) error
	// Close closes the connection
	Close()
}
