package schema

import "time"

// WalletCreation represents the wallet_creations table - one immutable row per wallet creation event
type WalletCreation struct {
	// ID is the ledger entry identifier of the creation event
	ID             string    `gorm:"column:id;primaryKey;type:text"`
	UserID         string    `gorm:"column:user_id;not null;type:text;uniqueIndex:idx_wallet_creations_user_id"`
	Wallet         string    `gorm:"column:wallet;not null;type:text"`
	Owner          string    `gorm:"column:owner;not null;type:text;default:''"`
	Salt           string    `gorm:"column:salt;not null;type:text;default:''"`
	TxHash         string    `gorm:"column:tx_hash;not null;type:text"`
	BlockTimestamp time.Time `gorm:"column:block_timestamp;not null;type:timestamptz"`
}

// TableName specifies the table name for the WalletCreation model
func (WalletCreation) TableName() string {
	return "wallet_creations"
}
