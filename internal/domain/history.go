package domain

import "fmt"

// HistoryType is the ledger entry kind written for every processed event
type HistoryType string

const (
	HistoryTypeWalletCreated       HistoryType = "WALLET_CREATED"
	HistoryTypeWalletRegistered    HistoryType = "WALLET_REGISTERED"
	HistoryTypeDeposit             HistoryType = "DEPOSIT"
	HistoryTypeWithdrawal          HistoryType = "WITHDRAWAL"
	HistoryTypeUnallocatedWithdraw HistoryType = "UNALLOCATED_WITHDRAW"
	HistoryTypeEmergencyWithdraw   HistoryType = "EMERGENCY_WITHDRAW"
	HistoryTypeBucketFunding       HistoryType = "BUCKET_FUNDING"
	HistoryTypeBucketSpending      HistoryType = "BUCKET_SPENDING"
	HistoryTypeTransfer            HistoryType = "TRANSFER"
	HistoryTypeBucketCreated       HistoryType = "BUCKET_CREATED"
	HistoryTypeBucketUpdated       HistoryType = "BUCKET_UPDATED"
	HistoryTypeBucketPeriodReset   HistoryType = "BUCKET_PERIOD_RESET"
	HistoryTypeDelegateGranted     HistoryType = "DELEGATE_GRANTED"
	HistoryTypeDelegateRevoked     HistoryType = "DELEGATE_REVOKED"
)

// AllHistoryTypes lists every history type in a stable order
var AllHistoryTypes = []HistoryType{
	HistoryTypeWalletCreated,
	HistoryTypeWalletRegistered,
	HistoryTypeDeposit,
	HistoryTypeWithdrawal,
	HistoryTypeUnallocatedWithdraw,
	HistoryTypeEmergencyWithdraw,
	HistoryTypeBucketFunding,
	HistoryTypeBucketSpending,
	HistoryTypeTransfer,
	HistoryTypeBucketCreated,
	HistoryTypeBucketUpdated,
	HistoryTypeBucketPeriodReset,
	HistoryTypeDelegateGranted,
	HistoryTypeDelegateRevoked,
}

// Valid reports whether t is one of the known history types
func (t HistoryType) Valid() bool {
	for _, known := range AllHistoryTypes {
		if t == known {
			return true
		}
	}
	return false
}

// ParseHistoryType parses a history type string
func ParseHistoryType(s string) (HistoryType, error) {
	t := HistoryType(s)
	if !t.Valid() {
		return "", fmt.Errorf("unknown history type: %q", s)
	}
	return t, nil
}
