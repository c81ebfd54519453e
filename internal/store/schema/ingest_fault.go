package schema

import (
	"time"

	"gorm.io/datatypes"
)

// FaultStatus is the operator-facing state of an ingest fault
type FaultStatus string

const (
	// FaultStatusOpen means ingestion of the chain is halted on this event
	FaultStatusOpen FaultStatus = "open"
	// FaultStatusSkipped means an operator chose to skip the event and quarantine its wallet
	FaultStatusSkipped FaultStatus = "skipped"
	// FaultStatusReleased means the event stays skipped but its wallet is no longer quarantined
	FaultStatusReleased FaultStatus = "released"
	// FaultStatusResolved means the fault no longer blocks or quarantines anything
	FaultStatusResolved FaultStatus = "resolved"
)

// IngestFault represents the ingest_faults table - fatal ingestion errors kept for operators
type IngestFault struct {
	// ID is a ULID
	ID        string `gorm:"column:id;primaryKey;type:text"`
	Chain     string `gorm:"column:chain;not null;type:text;index:idx_ingest_faults_chain_status,priority:1"`
	EventID   string `gorm:"column:event_id;not null;type:text;index:idx_ingest_faults_event_id"`
	EventName string `gorm:"column:event_name;not null;type:text"`
	// EntityID is the user the event concerns; quarantine applies to it
	EntityID  string         `gorm:"column:entity_id;not null;type:text;index:idx_ingest_faults_entity_id"`
	ErrorKind string         `gorm:"column:error_kind;not null;type:text"`
	Message   string         `gorm:"column:message;not null;type:text"`
	Raw       datatypes.JSON `gorm:"column:raw;type:jsonb"`
	Status    FaultStatus    `gorm:"column:status;not null;type:text;index:idx_ingest_faults_chain_status,priority:2"`
	CreatedAt time.Time      `gorm:"column:created_at;not null;default:now();type:timestamptz"`
	UpdatedAt time.Time      `gorm:"column:updated_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the IngestFault model
func (IngestFault) TableName() string {
	return "ingest_faults"
}
