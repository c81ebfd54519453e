package schema

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// HistoryRecord represents the history_records table - the immutable ledger entry written for every event
type HistoryRecord struct {
	// ID is the ledger entry identifier: <txHash>-<logIndex>
	ID string `gorm:"column:id;primaryKey;type:text"`
	// UserID references the wallet the event concerns
	UserID string `gorm:"column:user_id;not null;type:text;index:idx_history_user_position,priority:1"`
	// Chain identifies the blockchain network
	Chain string `gorm:"column:chain;not null;type:text"`
	// Type is the history type (DEPOSIT, WITHDRAWAL, ...)
	Type string `gorm:"column:type;not null;type:text"`
	// Amount is the non-negative amount moved by the event (zero for lifecycle events)
	Amount decimal.Decimal `gorm:"column:amount;not null;type:numeric(78,18);default:0"`
	// BucketID references the bucket the event concerns, if any
	BucketID *string `gorm:"column:bucket_id;type:text;index:idx_history_bucket_id"`
	// CounterpartyBucketID is the destination bucket of a transfer
	CounterpartyBucketID *string `gorm:"column:counterparty_bucket_id;type:text"`
	// BlockNumber is the block the event was emitted in
	BlockNumber uint64 `gorm:"column:block_number;not null;index:idx_history_user_position,priority:2"`
	// LogIndex is the log index of the event within the block
	LogIndex uint64 `gorm:"column:log_index;not null;index:idx_history_user_position,priority:3"`
	// TxHash is the transaction hash
	TxHash string `gorm:"column:tx_hash;not null;type:text"`
	// BlockTimestamp is the block timestamp of the event
	BlockTimestamp time.Time `gorm:"column:block_timestamp;not null;type:timestamptz"`
	// Raw is the canonical JSON of the decoded event params
	Raw datatypes.JSON `gorm:"column:raw;type:jsonb"`
	// CreatedAt is the timestamp when the record was written
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the HistoryRecord model
func (HistoryRecord) TableName() string {
	return "history_records"
}
