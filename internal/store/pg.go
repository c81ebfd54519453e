package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/plugin/dbresolver"

	"github.com/feral-file/ff-ledger/internal/domain"
	"github.com/feral-file/ff-ledger/internal/store/schema"
)

type pgStore struct {
	db *gorm.DB
}

func hasDBResolver(db *gorm.DB) bool {
	return db != nil && db.Callback().Query().Get("gorm:db_resolver") != nil
}

// NewPGStore creates a new PostgreSQL store instance
func NewPGStore(db *gorm.DB) Store {
	return &pgStore{db: db}
}

// UseReadReplicas routes read queries to the given replica DSNs; writes and transactions stay on the primary
func UseReadReplicas(db *gorm.DB, dialector func(dsn string) gorm.Dialector, replicaDSNs []string) error {
	if len(replicaDSNs) == 0 {
		return nil
	}

	replicas := make([]gorm.Dialector, 0, len(replicaDSNs))
	for _, dsn := range replicaDSNs {
		replicas = append(replicas, dialector(dsn))
	}

	if err := db.Use(dbresolver.Register(dbresolver.Config{
		Replicas: replicas,
		Policy:   dbresolver.RandomPolicy{},
	})); err != nil {
		return fmt.Errorf("failed to register read replicas: %w", err)
	}

	return nil
}

// ConfigureConnectionPool configures the connection pool settings for a GORM database connection.
// If any of the pool settings are 0, reasonable defaults are used:
//   - MaxOpenConns: 20 (if 0)
//   - MaxIdleConns: 5 (if 0)
//   - ConnMaxLifetime: 5 minutes (if 0)
//   - ConnMaxIdleTime: 10 minutes (if 0)
func ConfigureConnectionPool(db *gorm.DB, maxOpenConns, maxIdleConns int, connMaxLifetime, connMaxIdleTime time.Duration) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	maxOpenConns, maxIdleConns, connMaxLifetime, connMaxIdleTime =
		NormalizeConnectionPoolSettings(maxOpenConns, maxIdleConns, connMaxLifetime, connMaxIdleTime)

	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)
	sqlDB.SetConnMaxIdleTime(connMaxIdleTime)

	return nil
}

// NormalizeConnectionPoolSettings applies defaults and clamps pool settings into safe values
func NormalizeConnectionPoolSettings(maxOpenConns, maxIdleConns int, connMaxLifetime, connMaxIdleTime time.Duration) (int, int, time.Duration, time.Duration) {
	if maxOpenConns == 0 {
		maxOpenConns = 20
	}
	if maxIdleConns == 0 {
		maxIdleConns = 5
	}
	if connMaxLifetime == 0 {
		connMaxLifetime = 5 * time.Minute
	}
	if connMaxIdleTime == 0 {
		connMaxIdleTime = 10 * time.Minute
	}

	// Ensure MaxIdleConns doesn't exceed MaxOpenConns
	if maxIdleConns > maxOpenConns {
		maxIdleConns = maxOpenConns
	}

	return maxOpenConns, maxIdleConns, connMaxLifetime, connMaxIdleTime
}

// Postgres error codes that mean the transaction lost a race and may be retried
const (
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgLockNotAvailable     = "55P03"
)

// mapDBError maps retryable Postgres errors to domain.ErrConcurrentWriteConflict
func mapDBError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgSerializationFailure, pgDeadlockDetected, pgLockNotAvailable:
			return fmt.Errorf("%w: %s", domain.ErrConcurrentWriteConflict, pgErr.Message)
		}
	}
	return err
}

// WithinTx runs fn in one database transaction
func (s *pgStore) WithinTx(ctx context.Context, fn func(tx Tx) error) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&pgTx{db: tx})
	})
	return mapDBError(err)
}

// primary returns a handle that reads from the primary when read replicas are configured
func (s *pgStore) primary(ctx context.Context) *gorm.DB {
	if hasDBResolver(s.db) {
		return s.db.WithContext(ctx).Clauses(dbresolver.Write)
	}
	return s.db.WithContext(ctx)
}

// GetUser retrieves a user by id
func (s *pgStore) GetUser(ctx context.Context, userID string) (*schema.User, error) {
	var user schema.User
	err := s.db.WithContext(ctx).Where("id = ?", userID).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// GetBucket retrieves a bucket by id
func (s *pgStore) GetBucket(ctx context.Context, bucketID string) (*schema.Bucket, error) {
	var bucket schema.Bucket
	err := s.db.WithContext(ctx).Where("id = ?", bucketID).First(&bucket).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get bucket: %w", err)
	}
	return &bucket, nil
}

// ListBucketsByUser lists the buckets of a user ordered by name
func (s *pgStore) ListBucketsByUser(ctx context.Context, userID string) ([]schema.Bucket, error) {
	var buckets []schema.Bucket
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("name ASC").
		Find(&buckets).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list buckets: %w", err)
	}
	return buckets, nil
}

// ListHistoryByUser lists the history of a user in stream order
func (s *pgStore) ListHistoryByUser(ctx context.Context, userID string, filter HistoryFilter) ([]schema.HistoryRecord, error) {
	query := s.db.WithContext(ctx).Where("user_id = ?", userID)
	if len(filter.Types) > 0 {
		types := make([]string, 0, len(filter.Types))
		for _, t := range filter.Types {
			types = append(types, string(t))
		}
		query = query.Where("type IN ?", types)
	}
	if filter.Since != nil {
		query = query.Where("block_timestamp >= ?", *filter.Since)
	}
	if filter.Until != nil {
		query = query.Where("block_timestamp < ?", *filter.Until)
	}

	var records []schema.HistoryRecord
	if err := query.Order("block_number ASC, log_index ASC").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	return records, nil
}

// ListHistoryByBucket lists the history of a bucket, including transfers into it
func (s *pgStore) ListHistoryByBucket(ctx context.Context, bucketID string) ([]schema.HistoryRecord, error) {
	var records []schema.HistoryRecord
	err := s.db.WithContext(ctx).
		Where("bucket_id = ? OR counterparty_bucket_id = ?", bucketID, bucketID).
		Order("block_number ASC, log_index ASC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list bucket history: %w", err)
	}
	return records, nil
}

// LastActivityByBucket returns the latest block timestamp per bucket of a user
func (s *pgStore) LastActivityByBucket(ctx context.Context, userID string) (map[string]time.Time, error) {
	type row struct {
		BucketID     string
		LastActivity time.Time
	}

	var rows []row
	err := s.db.WithContext(ctx).Raw(`
		SELECT bucket_id, MAX(block_timestamp) AS last_activity FROM (
			SELECT bucket_id, block_timestamp FROM history_records WHERE user_id = ? AND bucket_id IS NOT NULL
			UNION ALL
			SELECT counterparty_bucket_id, block_timestamp FROM history_records WHERE user_id = ? AND counterparty_bucket_id IS NOT NULL
		) activity
		GROUP BY bucket_id`, userID, userID).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get bucket activity: %w", err)
	}

	result := make(map[string]time.Time, len(rows))
	for _, r := range rows {
		result[r.BucketID] = r.LastActivity
	}
	return result, nil
}

// ListUserIDs lists user ids after the given id
func (s *pgStore) ListUserIDs(ctx context.Context, chain domain.Chain, afterID string, limit int) ([]string, error) {
	query := s.db.WithContext(ctx).Model(&schema.User{}).Where("id > ?", afterID)
	if chain != "" {
		query = query.Where("chain = ?", chain)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	var ids []string
	if err := query.Order("id ASC").Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("failed to list user ids: %w", err)
	}
	return ids, nil
}

// GetGlobalStats retrieves the global stats row
func (s *pgStore) GetGlobalStats(ctx context.Context) (*schema.GlobalStats, error) {
	return getGlobalStats(s.db.WithContext(ctx))
}

func getGlobalStats(db *gorm.DB) (*schema.GlobalStats, error) {
	var stats schema.GlobalStats
	err := db.Where("id = ?", domain.GLOBAL_STATS_ID).First(&stats).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &schema.GlobalStats{ID: domain.GLOBAL_STATS_ID}, nil
		}
		return nil, fmt.Errorf("failed to get global stats: %w", err)
	}
	return &stats, nil
}

// ListChainStats lists the per-chain stats rows
func (s *pgStore) ListChainStats(ctx context.Context) ([]schema.GlobalStats, error) {
	var rows []schema.GlobalStats
	err := s.db.WithContext(ctx).
		Where("id <> ?", domain.GLOBAL_STATS_ID).
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list chain stats: %w", err)
	}
	return rows, nil
}

// ListDelegates lists the delegates of a user
func (s *pgStore) ListDelegates(ctx context.Context, userID string) ([]schema.Delegate, error) {
	var delegates []schema.Delegate
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("granted_at ASC").
		Find(&delegates).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list delegates: %w", err)
	}
	return delegates, nil
}

// Snapshot reads a user and its history in one repeatable-read transaction on the primary
func (s *pgStore) Snapshot(ctx context.Context, userID string) (*schema.User, []schema.HistoryRecord, error) {
	var user *schema.User
	var records []schema.HistoryRecord

	err := s.primary(ctx).Transaction(func(tx *gorm.DB) error {
		var u schema.User
		err := tx.Where("id = ?", userID).First(&u).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return fmt.Errorf("failed to get user: %w", err)
		}
		user = &u

		err = tx.Where("user_id = ?", userID).
			Order("block_number ASC, log_index ASC").
			Find(&records).Error
		if err != nil {
			return fmt.Errorf("failed to list history: %w", err)
		}
		return nil
	}, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return nil, nil, err
	}

	return user, records, nil
}

// GetCursor retrieves the last applied position for a chain
func (s *pgStore) GetCursor(ctx context.Context, chain domain.Chain) (*domain.Position, error) {
	return getCursor(s.primary(ctx), chain)
}

func getCursor(db *gorm.DB, chain domain.Chain) (*domain.Position, error) {
	var cursor schema.IngestCursor
	err := db.Where("chain = ?", string(chain)).First(&cursor).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get ingest cursor: %w", err)
	}

	return &domain.Position{
		BlockNumber: uint64(cursor.BlockNumber), //nolint:gosec,G115
		LogIndex:    uint64(cursor.LogIndex),    //nolint:gosec,G115
	}, nil
}

// CreateFault records a fatal ingestion error
func (s *pgStore) CreateFault(ctx context.Context, fault *schema.IngestFault) error {
	if err := s.db.WithContext(ctx).Create(fault).Error; err != nil {
		return fmt.Errorf("failed to create ingest fault: %w", err)
	}
	return nil
}

// GetFault retrieves a fault by id
func (s *pgStore) GetFault(ctx context.Context, id string) (*schema.IngestFault, error) {
	var fault schema.IngestFault
	err := s.primary(ctx).Where("id = ?", id).First(&fault).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get ingest fault: %w", err)
	}
	return &fault, nil
}

// FindFault retrieves the most recent fault of an event with the given status
func (s *pgStore) FindFault(ctx context.Context, chain domain.Chain, eventID string, status schema.FaultStatus) (*schema.IngestFault, error) {
	var fault schema.IngestFault
	err := s.primary(ctx).
		Where("chain = ? AND event_id = ? AND status = ?", chain, eventID, status).
		Order("created_at DESC").
		First(&fault).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find ingest fault: %w", err)
	}
	return &fault, nil
}

// ListFaults lists faults matching the filter, newest first
func (s *pgStore) ListFaults(ctx context.Context, filter FaultFilter) ([]schema.IngestFault, error) {
	query := s.db.WithContext(ctx)
	if filter.Chain != "" {
		query = query.Where("chain = ?", filter.Chain)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.EntityID != "" {
		query = query.Where("entity_id = ?", filter.EntityID)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var faults []schema.IngestFault
	if err := query.Order("created_at DESC, id DESC").Find(&faults).Error; err != nil {
		return nil, fmt.Errorf("failed to list ingest faults: %w", err)
	}
	return faults, nil
}

// UpdateFaultStatus changes the status of a fault
func (s *pgStore) UpdateFaultStatus(ctx context.Context, id string, status schema.FaultStatus) error {
	result := s.db.WithContext(ctx).
		Model(&schema.IngestFault{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update ingest fault: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", domain.ErrFaultNotFound, id)
	}
	return nil
}

// IsQuarantined reports whether the user has a skipped fault
func (s *pgStore) IsQuarantined(ctx context.Context, userID string) (bool, error) {
	var count int64
	err := s.primary(ctx).
		Model(&schema.IngestFault{}).
		Where("entity_id = ? AND status = ?", userID, schema.FaultStatusSkipped).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check quarantine: %w", err)
	}
	return count > 0, nil
}

// ReleaseQuarantine resolves the held back events of the user and releases the root cause
func (s *pgStore) ReleaseQuarantine(ctx context.Context, userID string) (int64, error) {
	var released int64
	now := time.Now().UTC()
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		held := tx.Model(&schema.IngestFault{}).
			Where("entity_id = ? AND status = ? AND error_kind = ?", userID, schema.FaultStatusSkipped, heldBackKind).
			Updates(map[string]interface{}{
				"status":     schema.FaultStatusResolved,
				"updated_at": now,
			})
		if held.Error != nil {
			return held.Error
		}

		roots := tx.Model(&schema.IngestFault{}).
			Where("entity_id = ? AND status = ?", userID, schema.FaultStatusSkipped).
			Updates(map[string]interface{}{
				"status":     schema.FaultStatusReleased,
				"updated_at": now,
			})
		if roots.Error != nil {
			return roots.Error
		}

		released = held.RowsAffected + roots.RowsAffected
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to release quarantine: %w", err)
	}
	return released, nil
}

// pgTx implements Tx on a gorm transaction
type pgTx struct {
	db *gorm.DB
}

func (t *pgTx) forUpdate(ctx context.Context) *gorm.DB {
	return t.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"})
}

// UpsertUser creates the user if absent and returns it locked
func (t *pgTx) UpsertUser(ctx context.Context, chain domain.Chain, address string, at time.Time) (*schema.User, bool, error) {
	address = domain.NormalizeAddress(address)
	user := schema.User{
		ID:           domain.NewUserID(chain, address),
		Chain:        string(chain),
		Address:      address,
		TotalBalance: decimal.Zero,
		TotalSpent:   decimal.Zero,
		CreatedAt:    at,
		UpdatedAt:    at,
	}

	result := t.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoNothing: true,
		}).
		Create(&user)
	if result.Error != nil {
		return nil, false, fmt.Errorf("failed to create user: %w", result.Error)
	}
	created := result.RowsAffected > 0

	locked, err := t.GetUserForUpdate(ctx, user.ID)
	if err != nil {
		return nil, false, err
	}
	if locked == nil {
		return nil, false, fmt.Errorf("%w: %s", domain.ErrUserNotFound, user.ID)
	}
	return locked, created, nil
}

// GetUserForUpdate retrieves and locks a user
func (t *pgTx) GetUserForUpdate(ctx context.Context, userID string) (*schema.User, error) {
	var user schema.User
	err := t.forUpdate(ctx).Where("id = ?", userID).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to lock user: %w", err)
	}
	return &user, nil
}

// SaveUser writes every field of the user
func (t *pgTx) SaveUser(ctx context.Context, user *schema.User) error {
	if err := t.db.WithContext(ctx).Save(user).Error; err != nil {
		return fmt.Errorf("failed to save user: %w", err)
	}
	return nil
}

// ListUserHistory lists the history of a user inside the transaction
func (t *pgTx) ListUserHistory(ctx context.Context, userID string) ([]schema.HistoryRecord, error) {
	var records []schema.HistoryRecord
	err := t.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("block_number ASC, log_index ASC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	return records, nil
}

// UpsertBucket creates the bucket if absent and returns it locked
func (t *pgTx) UpsertBucket(ctx context.Context, userID, name string, at time.Time) (*schema.Bucket, bool, error) {
	bucket := schema.Bucket{
		ID:           domain.NewBucketID(userID, name),
		UserID:       userID,
		Name:         name,
		Balance:      decimal.Zero,
		MonthlyLimit: decimal.Zero,
		MonthlySpent: decimal.Zero,
		Active:       true,
		CreatedAt:    at,
		UpdatedAt:    at,
	}

	result := t.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoNothing: true,
		}).
		Create(&bucket)
	if result.Error != nil {
		return nil, false, fmt.Errorf("failed to create bucket: %w", result.Error)
	}
	created := result.RowsAffected > 0

	locked, err := t.GetBucketForUpdate(ctx, bucket.ID)
	if err != nil {
		return nil, false, err
	}
	if locked == nil {
		return nil, false, fmt.Errorf("bucket %s vanished after upsert", bucket.ID)
	}
	return locked, created, nil
}

// GetBucketForUpdate retrieves and locks a bucket
func (t *pgTx) GetBucketForUpdate(ctx context.Context, bucketID string) (*schema.Bucket, error) {
	var bucket schema.Bucket
	err := t.forUpdate(ctx).Where("id = ?", bucketID).First(&bucket).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to lock bucket: %w", err)
	}
	return &bucket, nil
}

// SaveBucket writes every field of the bucket
func (t *pgTx) SaveBucket(ctx context.Context, bucket *schema.Bucket) error {
	if err := t.db.WithContext(ctx).Save(bucket).Error; err != nil {
		return fmt.Errorf("failed to save bucket: %w", err)
	}
	return nil
}

// GetGlobalStats retrieves the global stats row
func (t *pgTx) GetGlobalStats(ctx context.Context) (*schema.GlobalStats, error) {
	return getGlobalStats(t.db.WithContext(ctx))
}

// IncrementGlobalStats adds the delta to the global stats row and the chain row, one upsert each
func (t *pgTx) IncrementGlobalStats(ctx context.Context, delta GlobalStatsDelta) error {
	if delta.IsZero() {
		return nil
	}

	ids := []string{domain.GLOBAL_STATS_ID}
	if delta.Chain != "" {
		ids = append(ids, string(delta.Chain))
	}
	for _, id := range ids {
		if err := t.incrementStats(ctx, id, delta); err != nil {
			return err
		}
	}
	return nil
}

func (t *pgTx) incrementStats(ctx context.Context, id string, delta GlobalStatsDelta) error {
	stats := schema.GlobalStats{
		ID:                  id,
		TotalUsers:          delta.Users,
		TotalBuckets:        delta.Buckets,
		TotalWalletsCreated: delta.WalletsCreated,
		TotalVolume:         delta.Volume,
		TotalDeposits:       delta.Deposits,
		TotalWithdrawals:    delta.Withdrawals,
		UpdatedAt:           time.Now().UTC(),
	}

	err := t.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.Set{
				{Column: clause.Column{Name: "total_users"}, Value: gorm.Expr("global_stats.total_users + ?", delta.Users)},
				{Column: clause.Column{Name: "total_buckets"}, Value: gorm.Expr("global_stats.total_buckets + ?", delta.Buckets)},
				{Column: clause.Column{Name: "total_wallets_created"}, Value: gorm.Expr("global_stats.total_wallets_created + ?", delta.WalletsCreated)},
				{Column: clause.Column{Name: "total_volume"}, Value: gorm.Expr("global_stats.total_volume + ?", delta.Volume)},
				{Column: clause.Column{Name: "total_deposits"}, Value: gorm.Expr("global_stats.total_deposits + ?", delta.Deposits)},
				{Column: clause.Column{Name: "total_withdrawals"}, Value: gorm.Expr("global_stats.total_withdrawals + ?", delta.Withdrawals)},
				{Column: clause.Column{Name: "updated_at"}, Value: gorm.Expr("now()")},
			},
		}).
		Create(&stats).Error
	if err != nil {
		return fmt.Errorf("failed to increment stats %s: %w", id, err)
	}
	return nil
}

// CreateWalletCreation inserts the row; false if it already existed
func (t *pgTx) CreateWalletCreation(ctx context.Context, wc *schema.WalletCreation) (bool, error) {
	result := t.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(wc)
	if result.Error != nil {
		return false, fmt.Errorf("failed to create wallet creation: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// HistoryRecordExists reports whether a history record exists
func (t *pgTx) HistoryRecordExists(ctx context.Context, id string) (bool, error) {
	var count int64
	err := t.db.WithContext(ctx).Model(&schema.HistoryRecord{}).Where("id = ?", id).Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check history record: %w", err)
	}
	return count > 0, nil
}

// CreateHistoryRecord inserts the record; false if it already existed
func (t *pgTx) CreateHistoryRecord(ctx context.Context, record *schema.HistoryRecord) (bool, error) {
	result := t.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoNothing: true,
		}).
		Create(record)
	if result.Error != nil {
		return false, fmt.Errorf("failed to create history record: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// UpsertDelegate inserts or updates a delegate; a revocation keeps the original grant time
func (t *pgTx) UpsertDelegate(ctx context.Context, delegate *schema.Delegate) error {
	columns := []string{"active", "granted_at", "revoked_at"}
	if !delegate.Active {
		columns = []string{"active", "revoked_at"}
	}

	err := t.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "delegate"}},
			DoUpdates: clause.AssignmentColumns(columns),
		}).
		Create(delegate).Error
	if err != nil {
		return fmt.Errorf("failed to upsert delegate: %w", err)
	}
	return nil
}

// GetCursor retrieves the last applied position for a chain
func (t *pgTx) GetCursor(ctx context.Context, chain domain.Chain) (*domain.Position, error) {
	return getCursor(t.db.WithContext(ctx), chain)
}

// SetCursor stores the last applied position for a chain
func (t *pgTx) SetCursor(ctx context.Context, chain domain.Chain, pos domain.Position) error {
	cursor := schema.IngestCursor{
		Chain:       string(chain),
		BlockNumber: int64(pos.BlockNumber), //nolint:gosec,G115
		LogIndex:    int64(pos.LogIndex),    //nolint:gosec,G115
	}

	if err := t.db.WithContext(ctx).Save(&cursor).Error; err != nil {
		return fmt.Errorf("failed to set ingest cursor: %w", err)
	}
	return nil
}
