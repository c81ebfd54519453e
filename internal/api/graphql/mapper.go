package graphql

import (
	"strings"

	"github.com/feral-file/ff-ledger/internal/api/shared/dto"
)

// The mappers turn the shared DTOs into the field maps the executor walks. Keys are
// the schema field names; lists are []any so the executor can complete each item.

func mapWalletSummary(s *dto.UserSummaryResponse) map[string]any {
	delegates := make([]any, len(s.ActiveDelegates))
	for i, d := range s.ActiveDelegates {
		delegates[i] = d
	}

	return map[string]any{
		"userId":          s.UserID,
		"chain":           s.Chain,
		"address":         s.Address,
		"owner":           s.Owner,
		"decimals":        s.Decimals,
		"totalBalance":    s.TotalBalance,
		"totalSpent":      s.TotalSpent,
		"totalDeposited":  s.TotalDeposited,
		"bucketsCount":    MarshalUint64(s.BucketsCount),
		"activeDelegates": delegates,
		"createdAt":       MarshalTime(s.CreatedAt),
		"updatedAt":       MarshalTime(s.UpdatedAt),
	}
}

func mapBucketList(l *dto.BucketListResponse) map[string]any {
	buckets := make([]any, len(l.Buckets))
	for i, b := range l.Buckets {
		var utilization any
		if b.Utilization != nil {
			utilization = *b.Utilization
		}
		buckets[i] = map[string]any{
			"bucketId":     b.BucketID,
			"name":         b.Name,
			"active":       b.Active,
			"balance":      b.Balance,
			"monthlyLimit": b.MonthlyLimit,
			"monthlySpent": b.MonthlySpent,
			"utilization":  utilization,
			"overBudget":   b.OverBudget,
		}
	}

	return map[string]any{
		"userId":   l.UserID,
		"decimals": l.Decimals,
		"buckets":  buckets,
	}
}

func mapSpendSeries(s *dto.SpendSeriesResponse) map[string]any {
	points := make([]any, len(s.Points))
	for i, p := range s.Points {
		points[i] = map[string]any{
			"periodStart": MarshalTime(p.PeriodStart),
			"amount":      p.Amount,
			"count":       p.Count,
		}
	}

	return map[string]any{
		"userId":   s.UserID,
		"period":   strings.ToUpper(s.Period),
		"decimals": s.Decimals,
		"points":   points,
	}
}

func mapAbandonedBuckets(l *dto.AbandonedBucketListResponse) map[string]any {
	buckets := make([]any, len(l.Buckets))
	for i, b := range l.Buckets {
		buckets[i] = map[string]any{
			"bucketId":     b.BucketID,
			"name":         b.Name,
			"balance":      b.Balance,
			"lastActivity": MarshalTime(b.LastActivity),
			"inactiveFor":  b.InactiveFor,
		}
	}

	return map[string]any{
		"decimals":    l.Decimals,
		"inactiveFor": l.InactiveFor,
		"buckets":     buckets,
	}
}

func mapGlobalStats(s *dto.GlobalStatsResponse) map[string]any {
	chains := make([]any, len(s.Chains))
	for i, c := range s.Chains {
		chains[i] = map[string]any{
			"chain":               c.Chain,
			"decimals":            c.Decimals,
			"totalUsers":          MarshalUint64(c.TotalUsers),
			"totalBuckets":        MarshalUint64(c.TotalBuckets),
			"totalWalletsCreated": MarshalUint64(c.TotalWalletsCreated),
			"totalVolume":         c.TotalVolume,
			"totalDeposits":       c.TotalDeposits,
			"totalWithdrawals":    c.TotalWithdrawals,
			"updatedAt":           MarshalTime(c.UpdatedAt),
		}
	}

	return map[string]any{
		"decimals":            s.Decimals,
		"totalUsers":          MarshalUint64(s.TotalUsers),
		"totalBuckets":        MarshalUint64(s.TotalBuckets),
		"totalWalletsCreated": MarshalUint64(s.TotalWalletsCreated),
		"totalVolume":         s.TotalVolume,
		"totalDeposits":       s.TotalDeposits,
		"totalWithdrawals":    s.TotalWithdrawals,
		"updatedAt":           MarshalTime(s.UpdatedAt),
		"chains":              chains,
	}
}

func mapReconciliation(r *dto.ReconciliationResponse) map[string]any {
	uncovered := make([]any, len(r.Uncovered))
	for i, u := range r.Uncovered {
		uncovered[i] = map[string]any{
			"type":   u.Type,
			"count":  u.Count,
			"amount": u.Amount,
		}
	}

	return map[string]any{
		"userId":            r.UserID,
		"policyVersion":     r.PolicyVersion,
		"decimals":          r.Decimals,
		"match":             r.Match,
		"computedSpent":     r.ComputedSpent,
		"computedDeposited": r.ComputedDeposited,
		"computedBalance":   r.ComputedBalance,
		"storedSpent":       r.StoredSpent,
		"storedBalance":     r.StoredBalance,
		"drift":             r.Drift,
		"spentDrift":        r.SpentDrift,
		"balanceDrift":      r.BalanceDrift,
		"tolerance":         r.Tolerance,
		"uncovered":         uncovered,
		"recordCount":       r.RecordCount,
		"checkedAt":         MarshalTime(r.CheckedAt),
	}
}
