package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// EventName is the on-chain event name delivered by the chain-indexing collaborator
type EventName string

const (
	EventWalletCreated       EventName = "WalletCreated"
	EventWalletRegistered    EventName = "WalletRegistered"
	EventDeposit             EventName = "Deposit"
	EventWithdrawal          EventName = "Withdrawal"
	EventUnallocatedWithdraw EventName = "UnallocatedWithdraw"
	EventEmergencyWithdraw   EventName = "EmergencyWithdraw"
	EventBucketCreated       EventName = "BucketCreated"
	EventBucketUpdated       EventName = "BucketUpdated"
	EventBucketFunding       EventName = "BucketFunding"
	EventBucketSpending      EventName = "BucketSpending"
	EventTransfer            EventName = "Transfer"
	EventBucketPeriodReset   EventName = "BucketPeriodReset"
	EventDelegateGranted     EventName = "DelegateGranted"
	EventDelegateRevoked     EventName = "DelegateRevoked"
)

// RawEvent is an event as supplied by the chain-indexing collaborator
// Amount params are expected as base-unit integer strings
type RawEvent struct {
	Chain          Chain          `json:"chain"`                // e.g., "eip155:8453"
	EventName      string         `json:"event_name"`           // e.g., "Deposit"
	Address        string         `json:"address"`              // emitting contract address
	Params         map[string]any `json:"params"`               // decoded event parameters
	BlockNumber    uint64         `json:"block_number"`         // block number
	LogIndex       uint64         `json:"log_index"`            // log index within the block
	TxHash         string         `json:"tx_hash"`              // transaction hash
	BlockTimestamp time.Time      `json:"block_timestamp"`      // block timestamp
	BlockHash      *string        `json:"block_hash,omitempty"` // block hash (optional)
}

// ID returns the ledger entry identifier of the event
func (r *RawEvent) ID() string {
	return NewHistoryID(r.TxHash, r.LogIndex)
}

// Position returns the stream position of the event
func (r *RawEvent) Position() Position {
	return Position{BlockNumber: r.BlockNumber, LogIndex: r.LogIndex}
}

// EventMeta carries the block metadata shared by every decoded event
type EventMeta struct {
	Chain          Chain
	Name           EventName
	Wallet         string // lower-case wallet address the event concerns
	BlockNumber    uint64
	LogIndex       uint64
	TxHash         string
	BlockTimestamp time.Time
	Raw            []byte // canonical JSON of the decoded params
}

// Meta returns the event metadata
func (m EventMeta) Meta() EventMeta {
	return m
}

// ID returns the ledger entry identifier of the event
func (m EventMeta) ID() string {
	return NewHistoryID(m.TxHash, m.LogIndex)
}

// UserID returns the id of the user the event concerns
func (m EventMeta) UserID() string {
	return NewUserID(m.Chain, m.Wallet)
}

// Position returns the stream position of the event
func (m EventMeta) Position() Position {
	return Position{BlockNumber: m.BlockNumber, LogIndex: m.LogIndex}
}

// Event is a decoded domain event. The set of implementations is closed:
// every implementation lives in this file and maps to exactly one HistoryType.
type Event interface {
	Meta() EventMeta
	HistoryType() HistoryType
}

type WalletCreated struct {
	EventMeta
	Owner string
	Salt  string
}

type WalletRegistered struct {
	EventMeta
	Owner string
}

// Deposit adds funds to the wallet, optionally straight into a bucket
type Deposit struct {
	EventMeta
	Amount decimal.Decimal
	Bucket string
}

type Withdrawal struct {
	EventMeta
	Amount    decimal.Decimal
	Bucket    string
	Recipient string
}

type UnallocatedWithdraw struct {
	EventMeta
	Amount    decimal.Decimal
	Recipient string
}

type EmergencyWithdraw struct {
	EventMeta
	Amount    decimal.Decimal
	Bucket    string
	Recipient string
}

type BucketCreated struct {
	EventMeta
	Bucket       string
	MonthlyLimit decimal.Decimal
}

// BucketUpdated changes the limit and/or the active flag; nil fields are left untouched
type BucketUpdated struct {
	EventMeta
	Bucket       string
	MonthlyLimit *decimal.Decimal
	Active       *bool
}

// BucketFunding moves unallocated wallet funds into a bucket.
// MonthlyLimit is set when the funding call also creates the bucket.
type BucketFunding struct {
	EventMeta
	Bucket       string
	Amount       decimal.Decimal
	MonthlyLimit *decimal.Decimal
}

type BucketSpending struct {
	EventMeta
	Bucket    string
	Amount    decimal.Decimal
	Recipient string
}

// Transfer moves funds between two buckets of the same wallet; an empty bucket name is the unallocated pool
type Transfer struct {
	EventMeta
	FromBucket string
	ToBucket   string
	Amount     decimal.Decimal
}

// BucketPeriodReset starts a new spending period for a bucket
type BucketPeriodReset struct {
	EventMeta
	Bucket string
}

type DelegateGranted struct {
	EventMeta
	Delegate string
}

type DelegateRevoked struct {
	EventMeta
	Delegate string
}

func (WalletCreated) HistoryType() HistoryType       { return HistoryTypeWalletCreated }
func (WalletRegistered) HistoryType() HistoryType    { return HistoryTypeWalletRegistered }
func (Deposit) HistoryType() HistoryType             { return HistoryTypeDeposit }
func (Withdrawal) HistoryType() HistoryType          { return HistoryTypeWithdrawal }
func (UnallocatedWithdraw) HistoryType() HistoryType { return HistoryTypeUnallocatedWithdraw }
func (EmergencyWithdraw) HistoryType() HistoryType   { return HistoryTypeEmergencyWithdraw }
func (BucketCreated) HistoryType() HistoryType       { return HistoryTypeBucketCreated }
func (BucketUpdated) HistoryType() HistoryType       { return HistoryTypeBucketUpdated }
func (BucketFunding) HistoryType() HistoryType       { return HistoryTypeBucketFunding }
func (BucketSpending) HistoryType() HistoryType      { return HistoryTypeBucketSpending }
func (Transfer) HistoryType() HistoryType            { return HistoryTypeTransfer }
func (BucketPeriodReset) HistoryType() HistoryType   { return HistoryTypeBucketPeriodReset }
func (DelegateGranted) HistoryType() HistoryType     { return HistoryTypeDelegateGranted }
func (DelegateRevoked) HistoryType() HistoryType     { return HistoryTypeDelegateRevoked }
