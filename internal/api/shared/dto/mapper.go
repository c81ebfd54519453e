package dto

import (
	"github.com/shopspring/decimal"

	"github.com/feral-file/ff-ledger/internal/query"
	"github.com/feral-file/ff-ledger/internal/reconcile"
)

// Amount renders a token amount with exactly the chain's decimals
func Amount(d decimal.Decimal, decimals int32) string {
	return d.StringFixed(decimals)
}

func MapUserSummaryToDTO(s *query.UserSummary) *UserSummaryResponse {
	delegates := s.ActiveDelegates
	if delegates == nil {
		delegates = []string{}
	}
	return &UserSummaryResponse{
		UserID:          s.UserID,
		Chain:           string(s.Chain),
		Address:         s.Address,
		Owner:           s.Owner,
		Decimals:        s.Decimals,
		TotalBalance:    Amount(s.TotalBalance, s.Decimals),
		TotalSpent:      Amount(s.TotalSpent, s.Decimals),
		TotalDeposited:  Amount(s.TotalDeposited, s.Decimals),
		BucketsCount:    s.BucketsCount,
		ActiveDelegates: delegates,
		CreatedAt:       s.CreatedAt,
		UpdatedAt:       s.UpdatedAt,
	}
}

func MapBucketUsageToDTO(userID string, decimals int32, usage []query.BucketUsage) *BucketListResponse {
	buckets := make([]BucketUsageResponse, len(usage))
	for i, u := range usage {
		buckets[i] = BucketUsageResponse{
			BucketID:     u.BucketID,
			Name:         u.Name,
			Active:       u.Active,
			Balance:      Amount(u.Balance, decimals),
			MonthlyLimit: Amount(u.MonthlyLimit, decimals),
			MonthlySpent: Amount(u.MonthlySpent, decimals),
			OverBudget:   u.OverBudget,
		}
		if u.Utilization != nil {
			ratio := u.Utilization.StringFixed(query.UTILIZATION_PRECISION)
			buckets[i].Utilization = &ratio
		}
	}
	return &BucketListResponse{
		UserID:   userID,
		Decimals: decimals,
		Buckets:  buckets,
	}
}

func MapSpendSeriesToDTO(s *query.SpendSeries) *SpendSeriesResponse {
	points := make([]SpendPointResponse, len(s.Points))
	for i, p := range s.Points {
		points[i] = SpendPointResponse{
			PeriodStart: p.PeriodStart,
			Amount:      Amount(p.Amount, s.Decimals),
			Count:       p.Count,
		}
	}
	return &SpendSeriesResponse{
		UserID:   s.UserID,
		Period:   string(s.Period),
		Decimals: s.Decimals,
		Points:   points,
	}
}

func MapAbandonedBucketsToDTO(decimals int32, inactiveFor string, abandoned []query.AbandonedBucket) *AbandonedBucketListResponse {
	buckets := make([]AbandonedBucketResponse, len(abandoned))
	for i, b := range abandoned {
		buckets[i] = AbandonedBucketResponse{
			BucketID:     b.BucketID,
			Name:         b.Name,
			Balance:      Amount(b.Balance, decimals),
			LastActivity: b.LastActivity,
			InactiveFor:  b.InactiveFor.String(),
		}
	}
	return &AbandonedBucketListResponse{
		Decimals:    decimals,
		InactiveFor: inactiveFor,
		Buckets:     buckets,
	}
}

func MapGlobalStatsToDTO(s *query.GlobalStats) *GlobalStatsResponse {
	chains := make([]ChainStatsResponse, len(s.Chains))
	for i, c := range s.Chains {
		chains[i] = ChainStatsResponse{
			Chain:               string(c.Chain),
			Decimals:            c.Decimals,
			TotalUsers:          c.TotalUsers,
			TotalBuckets:        c.TotalBuckets,
			TotalWalletsCreated: c.TotalWalletsCreated,
			TotalVolume:         Amount(c.TotalVolume, c.Decimals),
			TotalDeposits:       Amount(c.TotalDeposits, c.Decimals),
			TotalWithdrawals:    Amount(c.TotalWithdrawals, c.Decimals),
			UpdatedAt:           c.UpdatedAt,
		}
	}

	return &GlobalStatsResponse{
		Decimals:            s.Decimals,
		TotalUsers:          s.TotalUsers,
		TotalBuckets:        s.TotalBuckets,
		TotalWalletsCreated: s.TotalWalletsCreated,
		TotalVolume:         Amount(s.TotalVolume, s.Decimals),
		TotalDeposits:       Amount(s.TotalDeposits, s.Decimals),
		TotalWithdrawals:    Amount(s.TotalWithdrawals, s.Decimals),
		UpdatedAt:           s.UpdatedAt,
		Chains:              chains,
	}
}

func MapReportToDTO(r *reconcile.Report) *ReconciliationResponse {
	uncovered := make([]UncoveredTypeResponse, len(r.Uncovered))
	for i, u := range r.Uncovered {
		uncovered[i] = UncoveredTypeResponse{
			Type:   string(u.Type),
			Count:  u.Count,
			Amount: Amount(u.Amount, r.Decimals),
		}
	}
	return &ReconciliationResponse{
		UserID:            r.UserID,
		PolicyVersion:     r.PolicyVersion,
		Decimals:          r.Decimals,
		Match:             r.Match,
		ComputedSpent:     Amount(r.ComputedSpent, r.Decimals),
		ComputedDeposited: Amount(r.ComputedDeposited, r.Decimals),
		ComputedBalance:   Amount(r.ComputedBalance, r.Decimals),
		StoredSpent:       Amount(r.StoredSpent, r.Decimals),
		StoredBalance:     Amount(r.StoredBalance, r.Decimals),
		Drift:             Amount(r.Drift, r.Decimals),
		SpentDrift:        Amount(r.SpentDrift, r.Decimals),
		BalanceDrift:      Amount(r.BalanceDrift, r.Decimals),
		Tolerance:         Amount(r.Tolerance, r.Decimals),
		Uncovered:         uncovered,
		RecordCount:       r.RecordCount,
		CheckedAt:         r.CheckedAt,
	}
}
