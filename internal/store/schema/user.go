package schema

import (
	"time"

	"github.com/shopspring/decimal"
)

// User represents the users table - one row per smart wallet per chain
type User struct {
	// ID is the deterministic identifier: <chain>:<lower-case wallet address>
	ID string `gorm:"column:id;primaryKey;type:text"`
	// Chain identifies the blockchain network (e.g., "eip155:8453")
	Chain string `gorm:"column:chain;not null;type:text;index:idx_users_chain"`
	// Address is the lower-case smart wallet address
	Address string `gorm:"column:address;not null;type:text"`
	// Owner is the EOA that created the wallet (empty for registered wallets)
	Owner string `gorm:"column:owner;not null;type:text;default:''"`
	// TotalBalance is the wallet balance across unallocated funds and buckets
	TotalBalance decimal.Decimal `gorm:"column:total_balance;not null;type:numeric(78,18);default:0"`
	// TotalSpent is the sum of every spending-type event
	TotalSpent decimal.Decimal `gorm:"column:total_spent;not null;type:numeric(78,18);default:0"`
	// BucketsCount is the number of buckets ever created for the wallet
	BucketsCount int64 `gorm:"column:buckets_count;not null;default:0"`
	// CreatedAt is the block timestamp of the first event seen for the wallet
	CreatedAt time.Time `gorm:"column:created_at;not null;type:timestamptz;autoCreateTime:false"`
	// UpdatedAt is the latest block timestamp applied to the wallet
	UpdatedAt time.Time `gorm:"column:updated_at;not null;type:timestamptz;autoUpdateTime:false"`
}

// TableName specifies the table name for the User model
func (User) TableName() string {
	return "users"
}
