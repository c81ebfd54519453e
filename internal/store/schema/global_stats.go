package schema

import (
	"time"

	"github.com/shopspring/decimal"
)

// GlobalStats represents the global_stats table: the system-wide row with id "global",
// plus one row per chain keyed by the chain id
type GlobalStats struct {
	ID                  string          `gorm:"column:id;primaryKey;type:text"`
	TotalUsers          int64           `gorm:"column:total_users;not null;default:0"`
	TotalBuckets        int64           `gorm:"column:total_buckets;not null;default:0"`
	TotalWalletsCreated int64           `gorm:"column:total_wallets_created;not null;default:0"`
	TotalVolume         decimal.Decimal `gorm:"column:total_volume;not null;type:numeric(78,18);default:0"`
	TotalDeposits       decimal.Decimal `gorm:"column:total_deposits;not null;type:numeric(78,18);default:0"`
	TotalWithdrawals    decimal.Decimal `gorm:"column:total_withdrawals;not null;type:numeric(78,18);default:0"`
	UpdatedAt           time.Time       `gorm:"column:updated_at;not null;type:timestamptz;default:now()"`
}

// TableName specifies the table name for the GlobalStats model
func (GlobalStats) TableName() string {
	return "global_stats"
}
