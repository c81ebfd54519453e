package dto

import "time"

// HealthResponse represents the response of the health check
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

// UserSummaryResponse represents the balances of a wallet
type UserSummaryResponse struct {
	UserID          string    `json:"user_id"`
	Chain           string    `json:"chain"`
	Address         string    `json:"address"`
	Owner           string    `json:"owner"`
	Decimals        int32     `json:"decimals"`
	TotalBalance    string    `json:"total_balance"`
	TotalSpent      string    `json:"total_spent"`
	TotalDeposited  string    `json:"total_deposited"`
	BucketsCount    int64     `json:"buckets_count"`
	ActiveDelegates []string  `json:"active_delegates"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// BucketUsageResponse represents the budget utilization of one bucket
type BucketUsageResponse struct {
	BucketID     string  `json:"bucket_id"`
	Name         string  `json:"name"`
	Active       bool    `json:"active"`
	Balance      string  `json:"balance"`
	MonthlyLimit string  `json:"monthly_limit"`
	MonthlySpent string  `json:"monthly_spent"`
	Utilization  *string `json:"utilization"`
	OverBudget   bool    `json:"over_budget"`
}

// BucketListResponse represents the buckets of a wallet
type BucketListResponse struct {
	UserID   string                `json:"user_id"`
	Decimals int32                 `json:"decimals"`
	Buckets  []BucketUsageResponse `json:"buckets"`
}

// SpendPointResponse represents the spending of one calendar period
type SpendPointResponse struct {
	PeriodStart time.Time `json:"period_start"`
	Amount      string    `json:"amount"`
	Count       int       `json:"count"`
}

// SpendSeriesResponse represents a time-bucketed spending series
type SpendSeriesResponse struct {
	UserID   string               `json:"user_id"`
	Period   string               `json:"period"`
	Decimals int32                `json:"decimals"`
	Points   []SpendPointResponse `json:"points"`
}

// AbandonedBucketResponse represents an inactive bucket
type AbandonedBucketResponse struct {
	BucketID     string    `json:"bucket_id"`
	Name         string    `json:"name"`
	Balance      string    `json:"balance"`
	LastActivity time.Time `json:"last_activity"`
	InactiveFor  string    `json:"inactive_for"`
}

// AbandonedBucketListResponse represents the inactive buckets of a wallet
type AbandonedBucketListResponse struct {
	Decimals    int32                     `json:"decimals"`
	InactiveFor string                    `json:"inactive_for"`
	Buckets     []AbandonedBucketResponse `json:"buckets"`
}

// GlobalStatsResponse represents the system-wide totals
type GlobalStatsResponse struct {
	Decimals            int32     `json:"decimals"`
	TotalUsers          int64     `json:"total_users"`
	TotalBuckets        int64     `json:"total_buckets"`
	TotalWalletsCreated int64     `json:"total_wallets_created"`
	TotalVolume         string    `json:"total_volume"`
	TotalDeposits       string    `json:"total_deposits"`
	TotalWithdrawals    string    `json:"total_withdrawals"`
	UpdatedAt           time.Time `json:"updated_at"`
	// Chains carries the totals of each chain at that chain's decimals
	Chains []ChainStatsResponse `json:"chains"`
}

// ChainStatsResponse represents the totals of one chain
type ChainStatsResponse struct {
	Chain               string    `json:"chain"`
	Decimals            int32     `json:"decimals"`
	TotalUsers          int64     `json:"total_users"`
	TotalBuckets        int64     `json:"total_buckets"`
	TotalWalletsCreated int64     `json:"total_wallets_created"`
	TotalVolume         string    `json:"total_volume"`
	TotalDeposits       string    `json:"total_deposits"`
	TotalWithdrawals    string    `json:"total_withdrawals"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// UncoveredTypeResponse represents history outside the reconciliation policy
type UncoveredTypeResponse struct {
	Type   string `json:"type"`
	Count  int    `json:"count"`
	Amount string `json:"amount"`
}

// ReconciliationResponse represents the reconciliation report of a wallet
type ReconciliationResponse struct {
	UserID            string                  `json:"user_id"`
	PolicyVersion     string                  `json:"policy_version"`
	Decimals          int32                   `json:"decimals"`
	Match             bool                    `json:"match"`
	ComputedSpent     string                  `json:"computed_spent"`
	ComputedDeposited string                  `json:"computed_deposited"`
	ComputedBalance   string                  `json:"computed_balance"`
	StoredSpent       string                  `json:"stored_spent"`
	StoredBalance     string                  `json:"stored_balance"`
	Drift             string                  `json:"drift"`
	SpentDrift        string                  `json:"spent_drift"`
	BalanceDrift      string                  `json:"balance_drift"`
	Tolerance         string                  `json:"tolerance"`
	Uncovered         []UncoveredTypeResponse `json:"uncovered"`
	RecordCount       int                     `json:"record_count"`
	CheckedAt         time.Time               `json:"checked_at"`
}
