package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrUnrecognizedEventKind is returned when the decoder does not know the event name
	ErrUnrecognizedEventKind = errors.New("unrecognized event kind")

	// ErrInvalidEventPayload is returned when a known event carries missing or malformed params
	ErrInvalidEventPayload = errors.New("invalid event payload")

	// ErrMissingBucketReference is returned when an event references a bucket that does not exist
	// and cannot be created from the event's own payload
	ErrMissingBucketReference = errors.New("missing bucket reference")

	// ErrConcurrentWriteConflict is returned when a read-modify-write lost a race with another writer
	ErrConcurrentWriteConflict = errors.New("concurrent write conflict")

	// ErrReconciliationDrift is returned when a stored aggregate differs from the history fold
	ErrReconciliationDrift = errors.New("reconciliation drift")

	// ErrOutOfOrderEvent is returned when an event arrives at or before the chain's cursor
	// and was never applied
	ErrOutOfOrderEvent = errors.New("out of order event")

	// ErrWalletQuarantined is returned for events of a wallet whose earlier event was skipped by an operator
	ErrWalletQuarantined = errors.New("wallet quarantined")

	// ErrUserNotFound is returned when a user is not found
	ErrUserNotFound = errors.New("user not found")

	// ErrFaultNotFound is returned when an ingest fault is not found
	ErrFaultNotFound = errors.New("ingest fault not found")

	// ErrInvalidArgument is returned for malformed query input
	ErrInvalidArgument = errors.New("invalid argument")
)

// EventError carries enough context to replay a failed event deterministically
type EventError struct {
	EventID   string
	EventName string
	EntityID  string
	Err       error
}

// NewEventError wraps err with the event context
func NewEventError(eventID, eventName, entityID string, err error) *EventError {
	return &EventError{
		EventID:   eventID,
		EventName: eventName,
		EntityID:  entityID,
		Err:       err,
	}
}

func (e *EventError) Error() string {
	return fmt.Sprintf("event %s (%s) entity %s: %v", e.EventID, e.EventName, e.EntityID, e.Err)
}

func (e *EventError) Unwrap() error {
	return e.Err
}

// ErrorKind returns the name of the sentinel error wrapped in err, used for fault records
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, ErrUnrecognizedEventKind):
		return "unrecognized_event_kind"
	case errors.Is(err, ErrInvalidEventPayload):
		return "invalid_event_payload"
	case errors.Is(err, ErrMissingBucketReference):
		return "missing_bucket_reference"
	case errors.Is(err, ErrConcurrentWriteConflict):
		return "concurrent_write_conflict"
	case errors.Is(err, ErrOutOfOrderEvent):
		return "out_of_order_event"
	case errors.Is(err, ErrWalletQuarantined):
		return "wallet_quarantined"
	default:
		return "internal"
	}
}
