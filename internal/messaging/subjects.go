package messaging

import (
	"fmt"

	"github.com/feral-file/ff-ledger/internal/domain"
)

const (
	// SUBJECT_EVENTS_PREFIX prefixes the per-chain raw event subjects
	SUBJECT_EVENTS_PREFIX = "ledger.events"
	// SUBJECT_DRIFT carries reconciliation drift reports
	SUBJECT_DRIFT = "ledger.reconciliation.drift"
)

// EventSubject returns the subject raw events of a chain are published on,
// e.g. ledger.events.base
func EventSubject(chain domain.Chain) string {
	return fmt.Sprintf("%s.%s", SUBJECT_EVENTS_PREFIX, chain.Slug())
}
