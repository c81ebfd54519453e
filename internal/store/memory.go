package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/feral-file/ff-ledger/internal/domain"
	"github.com/feral-file/ff-ledger/internal/store/schema"
)

// memoryState holds every table of the in-memory store
type memoryState struct {
	users           map[string]schema.User
	buckets         map[string]schema.Bucket
	history         map[string]schema.HistoryRecord
	walletCreations map[string]schema.WalletCreation // keyed by user id
	delegates       map[string]schema.Delegate       // keyed by <userID>|<delegate>
	cursors         map[domain.Chain]domain.Position
	stats           *schema.GlobalStats
	chainStats      map[domain.Chain]schema.GlobalStats
}

func newMemoryState() *memoryState {
	return &memoryState{
		users:           make(map[string]schema.User),
		buckets:         make(map[string]schema.Bucket),
		history:         make(map[string]schema.HistoryRecord),
		walletCreations: make(map[string]schema.WalletCreation),
		delegates:       make(map[string]schema.Delegate),
		cursors:         make(map[domain.Chain]domain.Position),
		chainStats:      make(map[domain.Chain]schema.GlobalStats),
	}
}

type memoryStore struct {
	// txMu serializes writers
	txMu sync.Mutex
	// mu guards state and faults
	mu     sync.RWMutex
	state  *memoryState
	faults map[string]schema.IngestFault
}

// NewMemoryStore creates a store that keeps everything in process memory.
// Transactions are serialized and staged in an overlay that is merged on commit.
func NewMemoryStore() Store {
	return &memoryStore{
		state:  newMemoryState(),
		faults: make(map[string]schema.IngestFault),
	}
}

// WithinTx runs fn against a staged overlay and merges it when fn succeeds
func (s *memoryStore) WithinTx(ctx context.Context, fn func(tx Tx) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	tx := &memoryTx{base: s, staged: newMemoryState()}
	if err := fn(tx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	tx.commit(s.state)
	return nil
}

// GetUser retrieves a user by id
func (s *memoryStore) GetUser(_ context.Context, userID string) (*schema.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.state.users[userID]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

// GetBucket retrieves a bucket by id
func (s *memoryStore) GetBucket(_ context.Context, bucketID string) (*schema.Bucket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.state.buckets[bucketID]
	if !ok {
		return nil, nil
	}
	return &b, nil
}

// ListBucketsByUser lists the buckets of a user ordered by name
func (s *memoryStore) ListBucketsByUser(_ context.Context, userID string) ([]schema.Bucket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var buckets []schema.Bucket
	for _, b := range s.state.buckets {
		if b.UserID == userID {
			buckets = append(buckets, b)
		}
	}
	sort.Slice(buckets, func(i, j int) bool { return buckets[i].Name < buckets[j].Name })
	return buckets, nil
}

// ListHistoryByUser lists the history of a user in stream order
func (s *memoryStore) ListHistoryByUser(_ context.Context, userID string, filter HistoryFilter) ([]schema.HistoryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.historyWhere(func(r *schema.HistoryRecord) bool {
		return r.UserID == userID && filter.match(r)
	}), nil
}

// ListHistoryByBucket lists the history of a bucket, including transfers into it
func (s *memoryStore) ListHistoryByBucket(_ context.Context, bucketID string) ([]schema.HistoryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.historyWhere(func(r *schema.HistoryRecord) bool {
		return (r.BucketID != nil && *r.BucketID == bucketID) ||
			(r.CounterpartyBucketID != nil && *r.CounterpartyBucketID == bucketID)
	}), nil
}

// historyWhere must be called with mu held
func (s *memoryStore) historyWhere(keep func(r *schema.HistoryRecord) bool) []schema.HistoryRecord {
	var records []schema.HistoryRecord
	for _, r := range s.state.history {
		if keep(&r) {
			records = append(records, r)
		}
	}
	sortHistory(records)
	return records
}

func sortHistory(records []schema.HistoryRecord) {
	sort.Slice(records, func(i, j int) bool {
		a := domain.Position{BlockNumber: records[i].BlockNumber, LogIndex: records[i].LogIndex}
		b := domain.Position{BlockNumber: records[j].BlockNumber, LogIndex: records[j].LogIndex}
		return a.Less(b)
	})
}

// LastActivityByBucket returns the latest block timestamp per bucket of a user
func (s *memoryStore) LastActivityByBucket(_ context.Context, userID string) (map[string]time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]time.Time)
	touch := func(bucketID *string, at time.Time) {
		if bucketID == nil {
			return
		}
		if last, ok := result[*bucketID]; !ok || at.After(last) {
			result[*bucketID] = at
		}
	}
	for _, r := range s.state.history {
		if r.UserID != userID {
			continue
		}
		touch(r.BucketID, r.BlockTimestamp)
		touch(r.CounterpartyBucketID, r.BlockTimestamp)
	}
	return result, nil
}

// ListUserIDs lists user ids after the given id
func (s *memoryStore) ListUserIDs(_ context.Context, chain domain.Chain, afterID string, limit int) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var ids []string
	for id, u := range s.state.users {
		if id <= afterID {
			continue
		}
		if chain != "" && u.Chain != string(chain) {
			continue
		}
		ids = append(ids, id)
	}
	sort.Strings(ids)
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

// GetGlobalStats retrieves the global stats row
func (s *memoryStore) GetGlobalStats(_ context.Context) (*schema.GlobalStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return copyStats(s.state.stats), nil
}

// ListChainStats lists the per-chain stats rows
func (s *memoryStore) ListChainStats(_ context.Context) ([]schema.GlobalStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := make([]schema.GlobalStats, 0, len(s.state.chainStats))
	for _, row := range s.state.chainStats {
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].ID < rows[j].ID })
	return rows, nil
}

func copyStats(stats *schema.GlobalStats) *schema.GlobalStats {
	if stats == nil {
		return &schema.GlobalStats{ID: domain.GLOBAL_STATS_ID}
	}
	c := *stats
	return &c
}

// ListDelegates lists the delegates of a user
func (s *memoryStore) ListDelegates(_ context.Context, userID string) ([]schema.Delegate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var delegates []schema.Delegate
	for _, d := range s.state.delegates {
		if d.UserID == userID {
			delegates = append(delegates, d)
		}
	}
	sort.Slice(delegates, func(i, j int) bool { return delegates[i].GrantedAt.Before(delegates[j].GrantedAt) })
	return delegates, nil
}

// Snapshot reads a user and its history under one read lock
func (s *memoryStore) Snapshot(_ context.Context, userID string) (*schema.User, []schema.HistoryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.state.users[userID]
	if !ok {
		return nil, nil, nil
	}
	records := s.historyWhere(func(r *schema.HistoryRecord) bool { return r.UserID == userID })
	return &u, records, nil
}

// GetCursor retrieves the last applied position for a chain
func (s *memoryStore) GetCursor(_ context.Context, chain domain.Chain) (*domain.Position, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pos, ok := s.state.cursors[chain]
	if !ok {
		return nil, nil
	}
	return &pos, nil
}

// CreateFault records a fatal ingestion error
func (s *memoryStore) CreateFault(_ context.Context, fault *schema.IngestFault) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.faults[fault.ID]; ok {
		return fmt.Errorf("ingest fault %s already exists", fault.ID)
	}
	now := time.Now().UTC()
	if fault.CreatedAt.IsZero() {
		fault.CreatedAt = now
	}
	if fault.UpdatedAt.IsZero() {
		fault.UpdatedAt = now
	}
	s.faults[fault.ID] = *fault
	return nil
}

// GetFault retrieves a fault by id
func (s *memoryStore) GetFault(_ context.Context, id string) (*schema.IngestFault, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, ok := s.faults[id]
	if !ok {
		return nil, nil
	}
	return &f, nil
}

// FindFault retrieves the most recent fault of an event with the given status
func (s *memoryStore) FindFault(_ context.Context, chain domain.Chain, eventID string, status schema.FaultStatus) (*schema.IngestFault, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var found *schema.IngestFault
	for _, f := range s.faults {
		if f.Chain != string(chain) || f.EventID != eventID || f.Status != status {
			continue
		}
		if found == nil || f.ID > found.ID {
			c := f
			found = &c
		}
	}
	return found, nil
}

// ListFaults lists faults matching the filter, newest first
func (s *memoryStore) ListFaults(_ context.Context, filter FaultFilter) ([]schema.IngestFault, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var faults []schema.IngestFault
	for _, f := range s.faults {
		if filter.Chain != "" && f.Chain != string(filter.Chain) {
			continue
		}
		if filter.Status != "" && f.Status != filter.Status {
			continue
		}
		if filter.EntityID != "" && f.EntityID != filter.EntityID {
			continue
		}
		faults = append(faults, f)
	}
	// ULIDs sort by creation time
	sort.Slice(faults, func(i, j int) bool { return faults[i].ID > faults[j].ID })
	if filter.Limit > 0 && len(faults) > filter.Limit {
		faults = faults[:filter.Limit]
	}
	return faults, nil
}

// UpdateFaultStatus changes the status of a fault
func (s *memoryStore) UpdateFaultStatus(_ context.Context, id string, status schema.FaultStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.faults[id]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrFaultNotFound, id)
	}
	f.Status = status
	f.UpdatedAt = time.Now().UTC()
	s.faults[id] = f
	return nil
}

// IsQuarantined reports whether the user has a skipped fault
func (s *memoryStore) IsQuarantined(_ context.Context, userID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, f := range s.faults {
		if f.EntityID == userID && f.Status == schema.FaultStatusSkipped {
			return true, nil
		}
	}
	return false, nil
}

// ReleaseQuarantine resolves the held back events of the user and releases the root cause
func (s *memoryStore) ReleaseQuarantine(_ context.Context, userID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var released int64
	for id, f := range s.faults {
		if f.EntityID != userID || f.Status != schema.FaultStatusSkipped {
			continue
		}
		f.Status = schema.FaultStatusReleased
		if f.ErrorKind == heldBackKind {
			f.Status = schema.FaultStatusResolved
		}
		f.UpdatedAt = time.Now().UTC()
		s.faults[id] = f
		released++
	}
	return released, nil
}

// memoryTx stages writes on top of the committed state. Only the goroutine holding
// txMu mutates the committed state, so reads of base need only the read lock.
type memoryTx struct {
	base   *memoryStore
	staged *memoryState
}

func (t *memoryTx) commit(state *memoryState) {
	for k, v := range t.staged.users {
		state.users[k] = v
	}
	for k, v := range t.staged.buckets {
		state.buckets[k] = v
	}
	for k, v := range t.staged.history {
		state.history[k] = v
	}
	for k, v := range t.staged.walletCreations {
		state.walletCreations[k] = v
	}
	for k, v := range t.staged.delegates {
		state.delegates[k] = v
	}
	for k, v := range t.staged.cursors {
		state.cursors[k] = v
	}
	if t.staged.stats != nil {
		state.stats = t.staged.stats
	}
	for k, v := range t.staged.chainStats {
		state.chainStats[k] = v
	}
}

func (t *memoryTx) user(userID string) (schema.User, bool) {
	if u, ok := t.staged.users[userID]; ok {
		return u, true
	}
	t.base.mu.RLock()
	defer t.base.mu.RUnlock()
	u, ok := t.base.state.users[userID]
	return u, ok
}

func (t *memoryTx) bucket(bucketID string) (schema.Bucket, bool) {
	if b, ok := t.staged.buckets[bucketID]; ok {
		return b, true
	}
	t.base.mu.RLock()
	defer t.base.mu.RUnlock()
	b, ok := t.base.state.buckets[bucketID]
	return b, ok
}

// UpsertUser creates the user if absent
func (t *memoryTx) UpsertUser(_ context.Context, chain domain.Chain, address string, at time.Time) (*schema.User, bool, error) {
	address = domain.NormalizeAddress(address)
	id := domain.NewUserID(chain, address)
	if u, ok := t.user(id); ok {
		return &u, false, nil
	}

	u := schema.User{
		ID:           id,
		Chain:        string(chain),
		Address:      address,
		TotalBalance: decimal.Zero,
		TotalSpent:   decimal.Zero,
		CreatedAt:    at,
		UpdatedAt:    at,
	}
	t.staged.users[id] = u
	return &u, true, nil
}

// GetUserForUpdate retrieves a user
func (t *memoryTx) GetUserForUpdate(_ context.Context, userID string) (*schema.User, error) {
	u, ok := t.user(userID)
	if !ok {
		return nil, nil
	}
	return &u, nil
}

// SaveUser stages the user
func (t *memoryTx) SaveUser(_ context.Context, user *schema.User) error {
	t.staged.users[user.ID] = *user
	return nil
}

// ListUserHistory merges the committed and staged history of a user
func (t *memoryTx) ListUserHistory(_ context.Context, userID string) ([]schema.HistoryRecord, error) {
	t.base.mu.RLock()
	records := t.base.historyWhere(func(r *schema.HistoryRecord) bool {
		_, staged := t.staged.history[r.ID]
		return r.UserID == userID && !staged
	})
	t.base.mu.RUnlock()

	for _, r := range t.staged.history {
		if r.UserID == userID {
			records = append(records, r)
		}
	}
	sortHistory(records)
	return records, nil
}

// UpsertBucket creates the bucket if absent
func (t *memoryTx) UpsertBucket(_ context.Context, userID, name string, at time.Time) (*schema.Bucket, bool, error) {
	id := domain.NewBucketID(userID, name)
	if b, ok := t.bucket(id); ok {
		return &b, false, nil
	}

	b := schema.Bucket{
		ID:           id,
		UserID:       userID,
		Name:         name,
		Balance:      decimal.Zero,
		MonthlyLimit: decimal.Zero,
		MonthlySpent: decimal.Zero,
		Active:       true,
		CreatedAt:    at,
		UpdatedAt:    at,
	}
	t.staged.buckets[id] = b
	return &b, true, nil
}

// GetBucketForUpdate retrieves a bucket
func (t *memoryTx) GetBucketForUpdate(_ context.Context, bucketID string) (*schema.Bucket, error) {
	b, ok := t.bucket(bucketID)
	if !ok {
		return nil, nil
	}
	return &b, nil
}

// SaveBucket stages the bucket
func (t *memoryTx) SaveBucket(_ context.Context, bucket *schema.Bucket) error {
	t.staged.buckets[bucket.ID] = *bucket
	return nil
}

// GetGlobalStats retrieves the global stats row
func (t *memoryTx) GetGlobalStats(_ context.Context) (*schema.GlobalStats, error) {
	if t.staged.stats != nil {
		return copyStats(t.staged.stats), nil
	}
	t.base.mu.RLock()
	defer t.base.mu.RUnlock()
	return copyStats(t.base.state.stats), nil
}

// IncrementGlobalStats adds the delta to the staged global stats
func (t *memoryTx) IncrementGlobalStats(ctx context.Context, delta GlobalStatsDelta) error {
	if delta.IsZero() {
		return nil
	}

	stats, err := t.GetGlobalStats(ctx)
	if err != nil {
		return err
	}
	addStats(stats, delta)
	t.staged.stats = stats

	if delta.Chain == "" {
		return nil
	}
	row, ok := t.staged.chainStats[delta.Chain]
	if !ok {
		t.base.mu.RLock()
		row, ok = t.base.state.chainStats[delta.Chain]
		t.base.mu.RUnlock()
	}
	if !ok {
		row = schema.GlobalStats{ID: string(delta.Chain)}
	}
	addStats(&row, delta)
	t.staged.chainStats[delta.Chain] = row
	return nil
}

func addStats(stats *schema.GlobalStats, delta GlobalStatsDelta) {
	stats.TotalUsers += delta.Users
	stats.TotalBuckets += delta.Buckets
	stats.TotalWalletsCreated += delta.WalletsCreated
	stats.TotalVolume = stats.TotalVolume.Add(delta.Volume)
	stats.TotalDeposits = stats.TotalDeposits.Add(delta.Deposits)
	stats.TotalWithdrawals = stats.TotalWithdrawals.Add(delta.Withdrawals)
	stats.UpdatedAt = time.Now().UTC()
}

// CreateWalletCreation stages the row; false if the wallet already has one
func (t *memoryTx) CreateWalletCreation(_ context.Context, wc *schema.WalletCreation) (bool, error) {
	if _, ok := t.staged.walletCreations[wc.UserID]; ok {
		return false, nil
	}
	t.base.mu.RLock()
	_, exists := t.base.state.walletCreations[wc.UserID]
	t.base.mu.RUnlock()
	if exists {
		return false, nil
	}

	t.staged.walletCreations[wc.UserID] = *wc
	return true, nil
}

// HistoryRecordExists reports whether a history record exists
func (t *memoryTx) HistoryRecordExists(_ context.Context, id string) (bool, error) {
	if _, ok := t.staged.history[id]; ok {
		return true, nil
	}
	t.base.mu.RLock()
	defer t.base.mu.RUnlock()
	_, ok := t.base.state.history[id]
	return ok, nil
}

// CreateHistoryRecord stages the record; false if it already exists
func (t *memoryTx) CreateHistoryRecord(ctx context.Context, record *schema.HistoryRecord) (bool, error) {
	exists, err := t.HistoryRecordExists(ctx, record.ID)
	if err != nil || exists {
		return false, err
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	t.staged.history[record.ID] = *record
	return true, nil
}

// UpsertDelegate stages the delegate; a revocation keeps the original grant time
func (t *memoryTx) UpsertDelegate(_ context.Context, delegate *schema.Delegate) error {
	key := delegate.UserID + "|" + delegate.Delegate

	existing, ok := t.staged.delegates[key]
	if !ok {
		t.base.mu.RLock()
		existing, ok = t.base.state.delegates[key]
		t.base.mu.RUnlock()
	}

	d := *delegate
	if ok && !delegate.Active {
		d.GrantedAt = existing.GrantedAt
	}
	t.staged.delegates[key] = d
	return nil
}

// GetCursor retrieves the last applied position for a chain
func (t *memoryTx) GetCursor(ctx context.Context, chain domain.Chain) (*domain.Position, error) {
	if pos, ok := t.staged.cursors[chain]; ok {
		return &pos, nil
	}
	return t.base.GetCursor(ctx, chain)
}

// SetCursor stages the last applied position for a chain
func (t *memoryTx) SetCursor(_ context.Context, chain domain.Chain, pos domain.Position) error {
	t.staged.cursors[chain] = pos
	return nil
}
