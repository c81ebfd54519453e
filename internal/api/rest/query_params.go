package rest

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/feral-file/ff-ledger/internal/api/shared/constants"
	"github.com/feral-file/ff-ledger/internal/domain"
	"github.com/feral-file/ff-ledger/internal/query"
)

// WalletPathParams holds the path parameters of wallet routes
type WalletPathParams struct {
	Chain   domain.Chain
	Address string
}

// ParseWalletPath parses the chain, by name or CAIP-2 id, and the wallet address
func ParseWalletPath(c *gin.Context) (*WalletPathParams, error) {
	chain, err := domain.ParseChain(c.Param("chain"))
	if err != nil {
		return nil, err
	}

	address := c.Param("address")
	if !domain.IsValidAddress(address) {
		return nil, fmt.Errorf("invalid address: %s", address)
	}

	return &WalletPathParams{Chain: chain, Address: domain.NormalizeAddress(address)}, nil
}

// SpendSeriesQueryParams holds query parameters for GET /spend-series
type SpendSeriesQueryParams struct {
	Period string `form:"period,default=day"`
	From   string `form:"from"`
	To     string `form:"to"`
}

// SpendSeriesQuery is the parsed spend series request
type SpendSeriesQuery struct {
	Period query.Period
	From   *time.Time
	To     *time.Time
}

// ParseSpendSeriesQuery parses query parameters for GET /spend-series
func ParseSpendSeriesQuery(c *gin.Context) (*SpendSeriesQuery, error) {
	var params SpendSeriesQueryParams
	if err := c.ShouldBindQuery(&params); err != nil {
		return nil, err
	}

	period, err := query.ParsePeriod(params.Period)
	if err != nil {
		return nil, err
	}

	q := &SpendSeriesQuery{Period: period}
	if q.From, err = parseTime("from", params.From); err != nil {
		return nil, err
	}
	if q.To, err = parseTime("to", params.To); err != nil {
		return nil, err
	}
	if q.From != nil && q.To != nil && !q.From.Before(*q.To) {
		return nil, fmt.Errorf("from must be before to")
	}

	return q, nil
}

// AbandonedBucketsQueryParams holds query parameters for GET /abandoned-buckets
type AbandonedBucketsQueryParams struct {
	InactiveFor string `form:"inactive_for"`
}

// ParseAbandonedBucketsQuery parses the inactivity threshold, e.g. "720h"
func ParseAbandonedBucketsQuery(c *gin.Context, fallback time.Duration) (time.Duration, error) {
	var params AbandonedBucketsQueryParams
	if err := c.ShouldBindQuery(&params); err != nil {
		return 0, err
	}
	if params.InactiveFor == "" {
		return fallback, nil
	}

	d, err := time.ParseDuration(params.InactiveFor)
	if err != nil {
		return 0, fmt.Errorf("invalid inactive_for: %w", err)
	}
	if d < constants.MIN_INACTIVE_FOR {
		return 0, fmt.Errorf("inactive_for must be at least %s", constants.MIN_INACTIVE_FOR)
	}
	return d, nil
}

// ReconciliationQueryParams holds query parameters for GET /reconciliation
type ReconciliationQueryParams struct {
	Policy string `form:"policy"`
}

func parseTime(name, value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	for _, layout := range []string{constants.TIME_FORMAT, constants.DATE_FORMAT} {
		if t, err := time.Parse(layout, value); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, fmt.Errorf("invalid %s: expected RFC 3339 timestamp or YYYY-MM-DD date", name)
}
