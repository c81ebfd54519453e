package rest

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/feral-file/ff-ledger/internal/api/shared/constants"
	"github.com/feral-file/ff-ledger/internal/api/shared/dto"
	"github.com/feral-file/ff-ledger/internal/api/shared/executor"
)

// Handler defines the interface for REST API handlers
type Handler interface {
	// GetUserSummary retrieves the balances of a wallet
	// GET /api/v1/chains/:chain/wallets/:address/summary
	GetUserSummary(c *gin.Context)

	// ListBuckets retrieves the budget utilization of every bucket of a wallet
	// GET /api/v1/chains/:chain/wallets/:address/buckets
	ListBuckets(c *gin.Context)

	// GetSpendSeries retrieves the spending of a wallet by UTC calendar period
	// GET /api/v1/chains/:chain/wallets/:address/spend-series?period=day|month|year&from=<time>&to=<time>
	GetSpendSeries(c *gin.Context)

	// ListAbandonedBuckets retrieves the active buckets without recent activity
	// GET /api/v1/chains/:chain/wallets/:address/abandoned-buckets?inactive_for=720h
	ListAbandonedBuckets(c *gin.Context)

	// GetGlobalStats retrieves the system-wide totals
	// GET /api/v1/stats
	GetGlobalStats(c *gin.Context)

	// GetReconciliation recomputes the totals of a wallet from its history (requires authentication)
	// GET /api/v1/chains/:chain/wallets/:address/reconciliation?policy=<version>
	GetReconciliation(c *gin.Context)

	// HealthCheck returns the health status of the API
	// GET /health
	HealthCheck(c *gin.Context)
}

// handler implements the Handler interface
type handler struct {
	executor executor.Executor
	// inactiveFor is the abandoned buckets threshold when the request names none
	inactiveFor time.Duration
}

// NewHandler creates a new REST API handler using the shared executor.
// A zero inactiveFor falls back to DEFAULT_INACTIVE_FOR.
func NewHandler(exec executor.Executor, inactiveFor time.Duration) Handler {
	if inactiveFor <= 0 {
		inactiveFor = constants.DEFAULT_INACTIVE_FOR
	}
	return &handler{executor: exec, inactiveFor: inactiveFor}
}

// GetUserSummary retrieves the balances of a wallet
func (h *handler) GetUserSummary(c *gin.Context) {
	wallet, err := ParseWalletPath(c)
	if err != nil {
		respondValidationError(c, err.Error())
		return
	}

	summary, err := h.executor.GetUserSummary(c.Request.Context(), wallet.Chain, wallet.Address)
	if err != nil {
		respondExecutorError(c, err, "Failed to get wallet summary", zap.String("address", wallet.Address))
		return
	}

	c.JSON(http.StatusOK, summary)
}

// ListBuckets retrieves the budget utilization of every bucket of a wallet
func (h *handler) ListBuckets(c *gin.Context) {
	wallet, err := ParseWalletPath(c)
	if err != nil {
		respondValidationError(c, err.Error())
		return
	}

	buckets, err := h.executor.ListBuckets(c.Request.Context(), wallet.Chain, wallet.Address)
	if err != nil {
		respondExecutorError(c, err, "Failed to list buckets", zap.String("address", wallet.Address))
		return
	}

	c.JSON(http.StatusOK, buckets)
}

// GetSpendSeries retrieves the spending of a wallet by calendar period
func (h *handler) GetSpendSeries(c *gin.Context) {
	wallet, err := ParseWalletPath(c)
	if err != nil {
		respondValidationError(c, err.Error())
		return
	}

	params, err := ParseSpendSeriesQuery(c)
	if err != nil {
		respondValidationError(c, err.Error())
		return
	}

	series, err := h.executor.GetSpendSeries(c.Request.Context(), wallet.Chain, wallet.Address, params.Period, params.From, params.To)
	if err != nil {
		respondExecutorError(c, err, "Failed to get spend series", zap.String("address", wallet.Address))
		return
	}

	c.JSON(http.StatusOK, series)
}

// ListAbandonedBuckets retrieves the active buckets without recent activity
func (h *handler) ListAbandonedBuckets(c *gin.Context) {
	wallet, err := ParseWalletPath(c)
	if err != nil {
		respondValidationError(c, err.Error())
		return
	}

	inactiveFor, err := ParseAbandonedBucketsQuery(c, h.inactiveFor)
	if err != nil {
		respondValidationError(c, err.Error())
		return
	}

	buckets, err := h.executor.ListAbandonedBuckets(c.Request.Context(), wallet.Chain, wallet.Address, inactiveFor)
	if err != nil {
		respondExecutorError(c, err, "Failed to list abandoned buckets", zap.String("address", wallet.Address))
		return
	}

	c.JSON(http.StatusOK, buckets)
}

// GetGlobalStats retrieves the system-wide totals
func (h *handler) GetGlobalStats(c *gin.Context) {
	stats, err := h.executor.GetGlobalStats(c.Request.Context())
	if err != nil {
		respondExecutorError(c, err, "Failed to get global stats")
		return
	}

	c.JSON(http.StatusOK, stats)
}

// GetReconciliation recomputes the totals of a wallet under the requested policy
func (h *handler) GetReconciliation(c *gin.Context) {
	wallet, err := ParseWalletPath(c)
	if err != nil {
		respondValidationError(c, err.Error())
		return
	}

	var params ReconciliationQueryParams
	if err := c.ShouldBindQuery(&params); err != nil {
		respondValidationError(c, err.Error())
		return
	}

	report, err := h.executor.ReconcileWallet(c.Request.Context(), wallet.Chain, wallet.Address, params.Policy)
	if err != nil {
		respondExecutorError(c, err, "Failed to reconcile wallet", zap.String("address", wallet.Address))
		return
	}

	c.JSON(http.StatusOK, report)
}

// HealthCheck returns the health status of the API
func (h *handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, dto.HealthResponse{
		Status:  "ok",
		Service: "ff-ledger-api",
	})
}
