package rest

import (
	"github.com/gin-gonic/gin"

	"github.com/feral-file/ff-ledger/internal/api/middleware"
)

// SetupRoutes configures all REST API routes
func SetupRoutes(router *gin.Engine, handler Handler, auth *middleware.Authenticator) {
	// Health check endpoint (no auth, no version prefix)
	router.GET("/health", handler.HealthCheck)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		v1.GET("/stats", handler.GetGlobalStats)

		wallet := v1.Group("/chains/:chain/wallets/:address")
		wallet.GET("/summary", handler.GetUserSummary)
		wallet.GET("/buckets", handler.ListBuckets)
		wallet.GET("/spend-series", handler.GetSpendSeries)
		wallet.GET("/abandoned-buckets", handler.ListAbandonedBuckets)

		// Reconciliation reads every history record of the wallet (requires authentication)
		wallet.GET("/reconciliation", middleware.Auth(auth), handler.GetReconciliation)
	}
}
