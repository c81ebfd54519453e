package adapter

import "time"

// Clock is the time source of the ledger services; block timestamps come from
// the chain, wall-clock time only drives retries and abandonment thresholds.
//
//go:generate mockgen -source=clock.go -destination=../mocks/clock.go -package=mocks -mock_names=Clock=MockClock
type Clock interface {
	// Now returns the current wall-clock time
	Now() time.Time
	// Unix converts a unix timestamp, in UTC
	Unix(sec int64, nsec int64) time.Time
	// After waits for the duration to elapse
	After(d time.Duration) <-chan time.Time
}

type systemClock struct{}

// NewClock returns the system clock
func NewClock() Clock {
	return systemClock{}
}

func (systemClock) Now() time.Time {
	return time.Now()
}

func (systemClock) Unix(sec int64, nsec int64) time.Time {
	return time.Unix(sec, nsec).UTC()
}

func (systemClock) After(d time.Duration) <-chan time.Time {
	return time.After(d)
}
