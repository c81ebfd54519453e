package schema

import (
	"time"

	"github.com/shopspring/decimal"
)

// Bucket represents the buckets table - named spending budgets inside a wallet
type Bucket struct {
	// ID is the deterministic identifier: <userID>/<bucket name>
	ID string `gorm:"column:id;primaryKey;type:text"`
	// UserID references the owning user
	UserID string `gorm:"column:user_id;not null;type:text;index:idx_buckets_user_id"`
	// Name is the bucket name as emitted by the wallet contract
	Name string `gorm:"column:name;not null;type:text"`
	// Balance is the amount currently allocated to the bucket
	Balance decimal.Decimal `gorm:"column:balance;not null;type:numeric(78,18);default:0"`
	// MonthlyLimit is the budget for one spending period (zero means unlimited)
	MonthlyLimit decimal.Decimal `gorm:"column:monthly_limit;not null;type:numeric(78,18);default:0"`
	// MonthlySpent is the amount spent in the current period; reset only by BucketPeriodReset
	MonthlySpent decimal.Decimal `gorm:"column:monthly_spent;not null;type:numeric(78,18);default:0"`
	// Active is false once the bucket has been deactivated
	Active bool `gorm:"column:active;not null"`
	// CreatedAt is the block timestamp of the event that created the bucket
	CreatedAt time.Time `gorm:"column:created_at;not null;type:timestamptz;autoCreateTime:false"`
	// UpdatedAt is the latest block timestamp applied to the bucket
	UpdatedAt time.Time `gorm:"column:updated_at;not null;type:timestamptz;autoUpdateTime:false"`
}

// TableName specifies the table name for the Bucket model
func (Bucket) TableName() string {
	return "buckets"
}
