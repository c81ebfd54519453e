package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/feral-file/ff-ledger/internal/domain"
	"github.com/feral-file/ff-ledger/internal/logger"
	"github.com/feral-file/ff-ledger/internal/store"
	"github.com/feral-file/ff-ledger/internal/store/schema"
)

// Result describes what Apply did with an event
type Result struct {
	UserID    string
	HistoryID string
	// Duplicate is true when the event had already been applied; nothing was written
	Duplicate     bool
	UserCreated   bool
	BucketCreated bool
}

// Aggregator folds decoded events into the aggregate store
//
//go:generate mockgen -source=aggregator.go -destination=../mocks/aggregator.go -package=mocks -mock_names=Aggregator=MockAggregator
type Aggregator interface {
	// Apply applies one event inside the caller's transaction
	Apply(ctx context.Context, tx store.Tx, ev domain.Event) (Result, error)
}

type aggregator struct{}

// NewAggregator creates a new ledger aggregator
func NewAggregator() Aggregator {
	return &aggregator{}
}

// apply holds the state of one event application
type apply struct {
	ctx     context.Context
	tx      store.Tx
	meta    domain.EventMeta
	user    *schema.User
	buckets map[string]*schema.Bucket
	delta   store.GlobalStatsDelta
	record  *schema.HistoryRecord
	result  Result
}

// Apply applies one event: resolves its user and buckets, updates the aggregates,
// appends the history record and adds to the global stats
func (a *aggregator) Apply(ctx context.Context, tx store.Tx, ev domain.Event) (Result, error) {
	meta := ev.Meta()
	historyID := meta.ID()

	exists, err := tx.HistoryRecordExists(ctx, historyID)
	if err != nil {
		return Result{}, err
	}
	if exists {
		return Result{UserID: meta.UserID(), HistoryID: historyID, Duplicate: true}, nil
	}

	user, created, err := tx.UpsertUser(ctx, meta.Chain, meta.Wallet, meta.BlockTimestamp)
	if err != nil {
		return Result{}, err
	}

	ap := &apply{
		ctx:     ctx,
		tx:      tx,
		meta:    meta,
		user:    user,
		buckets: make(map[string]*schema.Bucket),
		delta:   store.GlobalStatsDelta{Chain: meta.Chain},
		record: &schema.HistoryRecord{
			ID:             historyID,
			UserID:         user.ID,
			Chain:          string(meta.Chain),
			Type:           string(ev.HistoryType()),
			Amount:         decimal.Zero,
			BlockNumber:    meta.BlockNumber,
			LogIndex:       meta.LogIndex,
			TxHash:         meta.TxHash,
			BlockTimestamp: meta.BlockTimestamp,
			Raw:            datatypes.JSON(meta.Raw),
		},
		result: Result{UserID: user.ID, HistoryID: historyID, UserCreated: created},
	}
	if created {
		ap.delta.Users++
	}

	if err := ap.handle(ev); err != nil {
		return Result{}, err
	}

	if err := ap.flush(); err != nil {
		return Result{}, err
	}

	return ap.result, nil
}

func (ap *apply) handle(ev domain.Event) error {
	switch e := ev.(type) {
	case domain.WalletCreated:
		return ap.walletCreated(e.Owner, e.Salt)
	case domain.WalletRegistered:
		return ap.walletCreated(e.Owner, "")
	case domain.Deposit:
		return ap.deposit(e.Bucket, e.Amount)
	case domain.Withdrawal:
		return ap.debit(e.Bucket, e.Amount)
	case domain.UnallocatedWithdraw:
		return ap.debit("", e.Amount)
	case domain.EmergencyWithdraw:
		return ap.debit(e.Bucket, e.Amount)
	case domain.BucketSpending:
		return ap.debit(e.Bucket, e.Amount)
	case domain.BucketFunding:
		return ap.bucketFunding(e)
	case domain.Transfer:
		return ap.transfer(e)
	case domain.BucketCreated:
		return ap.bucketCreated(e)
	case domain.BucketUpdated:
		return ap.bucketUpdated(e)
	case domain.BucketPeriodReset:
		return ap.bucketPeriodReset(e)
	case domain.DelegateGranted:
		return ap.delegate(e.Delegate, true)
	case domain.DelegateRevoked:
		return ap.delegate(e.Delegate, false)
	default:
		return fmt.Errorf("%w: %T", domain.ErrUnrecognizedEventKind, ev)
	}
}

func (ap *apply) walletCreated(owner, salt string) error {
	if owner != "" && ap.user.Owner == "" {
		ap.user.Owner = owner
	}

	created, err := ap.tx.CreateWalletCreation(ap.ctx, &schema.WalletCreation{
		ID:             ap.record.ID,
		UserID:         ap.user.ID,
		Wallet:         ap.user.Address,
		Owner:          owner,
		Salt:           salt,
		TxHash:         ap.meta.TxHash,
		BlockTimestamp: ap.meta.BlockTimestamp,
	})
	if err != nil {
		return err
	}
	if created {
		ap.delta.WalletsCreated++
	}
	return nil
}

func (ap *apply) deposit(bucketName string, amount decimal.Decimal) error {
	ap.record.Amount = amount
	ap.user.TotalBalance = ap.user.TotalBalance.Add(amount)
	ap.delta.Deposits = ap.delta.Deposits.Add(amount)
	ap.delta.Volume = ap.delta.Volume.Add(amount)

	if bucketName == "" {
		return nil
	}
	bucket, err := ap.existingBucket(bucketName)
	if err != nil {
		return err
	}
	bucket.Balance = bucket.Balance.Add(amount)
	return nil
}

// debit handles every spending-type event
func (ap *apply) debit(bucketName string, amount decimal.Decimal) error {
	ap.record.Amount = amount
	ap.user.TotalSpent = ap.user.TotalSpent.Add(amount)
	ap.user.TotalBalance = ap.user.TotalBalance.Sub(amount)
	ap.delta.Withdrawals = ap.delta.Withdrawals.Add(amount)
	ap.delta.Volume = ap.delta.Volume.Add(amount)

	if ap.user.TotalBalance.IsNegative() {
		logger.WarnCtx(ap.ctx, "User balance went negative",
			zap.String("userID", ap.user.ID),
			zap.String("eventID", ap.record.ID),
			zap.String("balance", ap.user.TotalBalance.String()))
	}

	if bucketName == "" {
		return nil
	}
	bucket, err := ap.existingBucket(bucketName)
	if err != nil {
		return err
	}
	bucket.Balance = bucket.Balance.Sub(amount)
	bucket.MonthlySpent = bucket.MonthlySpent.Add(amount)
	ap.warnNegative(bucket)
	return nil
}

// bucketFunding allocates unallocated wallet funds to a bucket, creating the bucket on first funding.
// The wallet total is unchanged.
func (ap *apply) bucketFunding(e domain.BucketFunding) error {
	ap.record.Amount = e.Amount

	bucket, err := ap.createBucket(e.Bucket)
	if err != nil {
		return err
	}
	if ap.result.BucketCreated && e.MonthlyLimit != nil {
		bucket.MonthlyLimit = *e.MonthlyLimit
	}

	bucket.Balance = bucket.Balance.Add(e.Amount)
	return nil
}

// transfer moves funds between two buckets of the wallet; an empty name is the unallocated pool
func (ap *apply) transfer(e domain.Transfer) error {
	ap.record.Amount = e.Amount

	var from, to *schema.Bucket
	var err error
	if e.FromBucket != "" {
		if from, err = ap.existingBucket(e.FromBucket); err != nil {
			return err
		}
		from.Balance = from.Balance.Sub(e.Amount)
		ap.warnNegative(from)
	}
	if e.ToBucket != "" {
		if to, err = ap.existingBucket(e.ToBucket); err != nil {
			return err
		}
		to.Balance = to.Balance.Add(e.Amount)
	}

	// the record always names the source as bucket and the destination as counterparty
	ap.record.BucketID = nil
	if from != nil {
		id := from.ID
		ap.record.BucketID = &id
	}
	if to != nil {
		id := to.ID
		ap.record.CounterpartyBucketID = &id
	}
	return nil
}

func (ap *apply) bucketCreated(e domain.BucketCreated) error {
	bucket, err := ap.createBucket(e.Bucket)
	if err != nil {
		return err
	}
	bucket.MonthlyLimit = e.MonthlyLimit
	bucket.Active = true
	return nil
}

func (ap *apply) bucketUpdated(e domain.BucketUpdated) error {
	bucket, err := ap.existingBucket(e.Bucket)
	if err != nil {
		return err
	}
	if e.MonthlyLimit != nil {
		bucket.MonthlyLimit = *e.MonthlyLimit
	}
	if e.Active != nil {
		bucket.Active = *e.Active
	}
	return nil
}

func (ap *apply) bucketPeriodReset(e domain.BucketPeriodReset) error {
	bucket, err := ap.existingBucket(e.Bucket)
	if err != nil {
		return err
	}
	bucket.MonthlySpent = decimal.Zero
	return nil
}

func (ap *apply) delegate(address string, active bool) error {
	d := &schema.Delegate{
		UserID:    ap.user.ID,
		Delegate:  address,
		Active:    active,
		GrantedAt: ap.meta.BlockTimestamp,
	}
	if !active {
		at := ap.meta.BlockTimestamp
		d.RevokedAt = &at
	}
	return ap.tx.UpsertDelegate(ap.ctx, d)
}

// existingBucket returns a locked bucket that must already exist
func (ap *apply) existingBucket(name string) (*schema.Bucket, error) {
	id := domain.NewBucketID(ap.user.ID, name)
	if b, ok := ap.buckets[id]; ok {
		return b, nil
	}

	bucket, err := ap.tx.GetBucketForUpdate(ap.ctx, id)
	if err != nil {
		return nil, err
	}
	if bucket == nil {
		return nil, fmt.Errorf("%w: bucket %q of user %s", domain.ErrMissingBucketReference, name, ap.user.ID)
	}

	ap.track(bucket)
	return bucket, nil
}

// createBucket returns a locked bucket, creating it if absent
func (ap *apply) createBucket(name string) (*schema.Bucket, error) {
	bucket, created, err := ap.tx.UpsertBucket(ap.ctx, ap.user.ID, name, ap.meta.BlockTimestamp)
	if err != nil {
		return nil, err
	}
	if created {
		ap.result.BucketCreated = true
		ap.user.BucketsCount++
		ap.delta.Buckets++
	}

	ap.track(bucket)
	return bucket, nil
}

func (ap *apply) track(bucket *schema.Bucket) {
	ap.buckets[bucket.ID] = bucket
	if ap.record.BucketID == nil {
		id := bucket.ID
		ap.record.BucketID = &id
	}
}

func (ap *apply) warnNegative(bucket *schema.Bucket) {
	if bucket.Balance.IsNegative() {
		logger.WarnCtx(ap.ctx, "Bucket balance went negative",
			zap.String("bucketID", bucket.ID),
			zap.String("eventID", ap.record.ID),
			zap.String("balance", bucket.Balance.String()))
	}
}

// flush writes every touched row, the history record and the global stats delta
func (ap *apply) flush() error {
	at := ap.meta.BlockTimestamp

	ap.user.UpdatedAt = latest(ap.user.UpdatedAt, at)
	if err := ap.tx.SaveUser(ap.ctx, ap.user); err != nil {
		return err
	}

	for _, bucket := range ap.buckets {
		bucket.UpdatedAt = latest(bucket.UpdatedAt, at)
		if err := ap.tx.SaveBucket(ap.ctx, bucket); err != nil {
			return err
		}
	}

	created, err := ap.tx.CreateHistoryRecord(ap.ctx, ap.record)
	if err != nil {
		return err
	}
	if !created {
		return fmt.Errorf("%w: history record %s written concurrently", domain.ErrConcurrentWriteConflict, ap.record.ID)
	}

	return ap.tx.IncrementGlobalStats(ap.ctx, ap.delta)
}

// latest keeps timestamps from moving backwards
func latest(current, at time.Time) time.Time {
	if at.After(current) {
		return at
	}
	return current
}
