package schema

import "time"

// Delegate represents the delegates table - addresses allowed to spend on behalf of a wallet
type Delegate struct {
	UserID    string     `gorm:"column:user_id;primaryKey;type:text"`
	Delegate  string     `gorm:"column:delegate;primaryKey;type:text"`
	Active    bool       `gorm:"column:active;not null"`
	GrantedAt time.Time  `gorm:"column:granted_at;not null;type:timestamptz"`
	RevokedAt *time.Time `gorm:"column:revoked_at;type:timestamptz"`
}

// TableName specifies the table name for the Delegate model
func (Delegate) TableName() string {
	return "delegates"
}
