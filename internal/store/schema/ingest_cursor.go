package schema

import "time"

// IngestCursor is the position of the last event applied on a chain
type IngestCursor struct {
	Chain       string    `gorm:"primaryKey;type:text"`
	BlockNumber int64     `gorm:"not null"`
	LogIndex    int64     `gorm:"not null"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`
}

func (IngestCursor) TableName() string {
	return "ingest_cursors"
}
