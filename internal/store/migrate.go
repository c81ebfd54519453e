package store

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/feral-file/ff-ledger/internal/store/schema"
)

// Models lists every table of the ledger schema
func Models() []interface{} {
	return []interface{}{
		&schema.User{},
		&schema.Bucket{},
		&schema.GlobalStats{},
		&schema.HistoryRecord{},
		&schema.WalletCreation{},
		&schema.Delegate{},
		&schema.IngestCursor{},
		&schema.IngestFault{},
	}
}

// Migrate creates or updates the ledger tables
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}
