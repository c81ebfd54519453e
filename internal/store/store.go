package store

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/feral-file/ff-ledger/internal/domain"
	"github.com/feral-file/ff-ledger/internal/store/schema"
)

// Store defines the interface for database operations
type Store interface {
	Reader

	// WithinTx runs fn in one transaction; any error returned by fn rolls back every write
	WithinTx(ctx context.Context, fn func(tx Tx) error) error

	// GetCursor retrieves the last applied position for a chain, nil if none
	GetCursor(ctx context.Context, chain domain.Chain) (*domain.Position, error)

	// CreateFault records a fatal ingestion error
	CreateFault(ctx context.Context, fault *schema.IngestFault) error
	// GetFault retrieves a fault by id, nil if not found
	GetFault(ctx context.Context, id string) (*schema.IngestFault, error)
	// FindFault retrieves the most recent fault of an event with the given status, nil if none
	FindFault(ctx context.Context, chain domain.Chain, eventID string, status schema.FaultStatus) (*schema.IngestFault, error)
	// ListFaults lists faults matching the filter, newest first
	ListFaults(ctx context.Context, filter FaultFilter) ([]schema.IngestFault, error)
	// UpdateFaultStatus changes the status of a fault
	UpdateFaultStatus(ctx context.Context, id string, status schema.FaultStatus) error
	// IsQuarantined reports whether the user has a skipped fault
	IsQuarantined(ctx context.Context, userID string) (bool, error)
	// ReleaseQuarantine lifts the quarantine of a user and returns how many faults changed.
	// Held back events are resolved so a redelivery applies them; the skipped root cause
	// moves to released and stays skipped.
	ReleaseQuarantine(ctx context.Context, userID string) (int64, error)
}

// Reader groups the read-only queries
type Reader interface {
	// GetUser retrieves a user by id, nil if not found
	GetUser(ctx context.Context, userID string) (*schema.User, error)
	// GetBucket retrieves a bucket by id, nil if not found
	GetBucket(ctx context.Context, bucketID string) (*schema.Bucket, error)
	// ListBucketsByUser lists the buckets of a user ordered by name
	ListBucketsByUser(ctx context.Context, userID string) ([]schema.Bucket, error)
	// ListHistoryByUser lists the history of a user in (blockNumber, logIndex) order
	ListHistoryByUser(ctx context.Context, userID string, filter HistoryFilter) ([]schema.HistoryRecord, error)
	// ListHistoryByBucket lists the history of a bucket in (blockNumber, logIndex) order
	ListHistoryByBucket(ctx context.Context, bucketID string) ([]schema.HistoryRecord, error)
	// LastActivityByBucket returns the latest history block timestamp per bucket id of a user
	LastActivityByBucket(ctx context.Context, userID string) (map[string]time.Time, error)
	// ListUserIDs lists user ids after the given id in id order
	ListUserIDs(ctx context.Context, chain domain.Chain, afterID string, limit int) ([]string, error)
	// GetGlobalStats retrieves the global stats row, zero valued if never written
	GetGlobalStats(ctx context.Context) (*schema.GlobalStats, error)
	// ListChainStats lists the stats row of every chain that has one, ordered by chain
	ListChainStats(ctx context.Context) ([]schema.GlobalStats, error)
	// ListDelegates lists the delegates of a user
	ListDelegates(ctx context.Context, userID string) ([]schema.Delegate, error)
	// Snapshot reads a user and its full history from one consistent view of the primary
	Snapshot(ctx context.Context, userID string) (*schema.User, []schema.HistoryRecord, error)
}

// Tx is the write side of a unit of work. Rows returned by the ForUpdate and Upsert
// methods are locked until the transaction ends.
type Tx interface {
	// UpsertUser creates the user if absent and returns it locked; created reports whether this call created it
	UpsertUser(ctx context.Context, chain domain.Chain, address string, at time.Time) (*schema.User, bool, error)
	// GetUserForUpdate retrieves and locks a user, nil if not found
	GetUserForUpdate(ctx context.Context, userID string) (*schema.User, error)
	// SaveUser writes every field of the user
	SaveUser(ctx context.Context, user *schema.User) error
	// ListUserHistory lists the full history of a user in (blockNumber, logIndex) order as seen by the transaction
	ListUserHistory(ctx context.Context, userID string) ([]schema.HistoryRecord, error)

	// UpsertBucket creates the bucket if absent and returns it locked
	UpsertBucket(ctx context.Context, userID, name string, at time.Time) (*schema.Bucket, bool, error)
	// GetBucketForUpdate retrieves and locks a bucket, nil if not found
	GetBucketForUpdate(ctx context.Context, bucketID string) (*schema.Bucket, error)
	// SaveBucket writes every field of the bucket
	SaveBucket(ctx context.Context, bucket *schema.Bucket) error

	// GetGlobalStats retrieves the global stats row, zero valued if never written
	GetGlobalStats(ctx context.Context) (*schema.GlobalStats, error)
	// IncrementGlobalStats adds the delta to the global stats row and to the row of delta.Chain
	IncrementGlobalStats(ctx context.Context, delta GlobalStatsDelta) error

	// CreateWalletCreation inserts the row; false if it already existed
	CreateWalletCreation(ctx context.Context, wc *schema.WalletCreation) (bool, error)
	// HistoryRecordExists reports whether a history record exists
	HistoryRecordExists(ctx context.Context, id string) (bool, error)
	// CreateHistoryRecord inserts the record; false if it already existed
	CreateHistoryRecord(ctx context.Context, record *schema.HistoryRecord) (bool, error)

	// UpsertDelegate inserts or updates a delegate
	UpsertDelegate(ctx context.Context, delegate *schema.Delegate) error

	// GetCursor retrieves the last applied position for a chain, nil if none
	GetCursor(ctx context.Context, chain domain.Chain) (*domain.Position, error)
	// SetCursor stores the last applied position for a chain
	SetCursor(ctx context.Context, chain domain.Chain, pos domain.Position) error
}

// heldBackKind is the error kind of the faults recorded for events of a quarantined wallet
var heldBackKind = domain.ErrorKind(domain.ErrWalletQuarantined)

// GlobalStatsDelta is added to the global stats row, never assigned
type GlobalStatsDelta struct {
	// Chain also receives the delta in its own stats row when set
	Chain domain.Chain
	Users          int64
	Buckets        int64
	WalletsCreated int64
	Volume         decimal.Decimal
	Deposits       decimal.Decimal
	Withdrawals    decimal.Decimal
}

// IsZero reports whether the delta changes nothing
func (d GlobalStatsDelta) IsZero() bool {
	return d.Users == 0 && d.Buckets == 0 && d.WalletsCreated == 0 &&
		d.Volume.IsZero() && d.Deposits.IsZero() && d.Withdrawals.IsZero()
}

// HistoryFilter narrows ListHistoryByUser
type HistoryFilter struct {
	Types []domain.HistoryType
	// Since is inclusive
	Since *time.Time
	// Until is exclusive
	Until *time.Time
}

func (f HistoryFilter) match(r *schema.HistoryRecord) bool {
	if len(f.Types) > 0 {
		found := false
		for _, t := range f.Types {
			if string(t) == r.Type {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.Since != nil && r.BlockTimestamp.Before(*f.Since) {
		return false
	}
	if f.Until != nil && !r.BlockTimestamp.Before(*f.Until) {
		return false
	}
	return true
}

// FaultFilter narrows ListFaults
type FaultFilter struct {
	Chain  domain.Chain
	Status schema.FaultStatus
	// EntityID restricts the faults to one user
	EntityID string
	Limit    int
}
