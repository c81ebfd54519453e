package errors_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	apierrors "github.com/feral-file/ff-ledger/internal/api/shared/errors"
	"github.com/feral-file/ff-ledger/internal/domain"
)

func TestFromDomainError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		code    apierrors.ErrorCode
		status  int
		details string
	}{
		{
			name:    "invalid argument",
			err:     fmt.Errorf("%w: limit must be positive", domain.ErrInvalidArgument),
			code:    apierrors.ErrCodeValidationFailed,
			status:  http.StatusBadRequest,
			details: "invalid argument: limit must be positive",
		},
		{
			name:   "unknown user",
			err:    fmt.Errorf("%w: eip155:8453:0xaa", domain.ErrUserNotFound),
			code:   apierrors.ErrCodeNotFound,
			status: http.StatusNotFound,
		},
		{
			name:   "write conflict",
			err:    domain.ErrConcurrentWriteConflict,
			code:   apierrors.ErrCodeConflict,
			status: http.StatusConflict,
		},
		{
			name:   "api error passes through",
			err:    fmt.Errorf("wrapped: %w", apierrors.NewUnauthorizedError("Authentication failed")),
			code:   apierrors.ErrCodeUnauthorized,
			status: http.StatusUnauthorized,
		},
		{
			name:   "storage failure",
			err:    fmt.Errorf("dial tcp 10.0.0.1:5432: connection refused"),
			code:   apierrors.ErrCodeDatabaseError,
			status: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			apiErr := apierrors.FromDomainError(tt.err, "Failed to read wallet")
			assert.Equal(t, tt.code, apiErr.Code)
			assert.Equal(t, tt.status, apiErr.Status())
			if tt.details != "" {
				assert.Equal(t, tt.details, apiErr.Details)
			}
			if tt.code == apierrors.ErrCodeDatabaseError {
				assert.Equal(t, "Failed to read wallet", apiErr.Message)
				assert.Empty(t, apiErr.Details)
			}
		})
	}
}

func TestAPIError_Error(t *testing.T) {
	assert.Equal(t, "not_found: Wallet not found", apierrors.NewNotFoundError("Wallet not found").Error())
	assert.Equal(t, "validation_failed: Validation failed (bad chain, bad address)",
		apierrors.NewValidationError("bad chain", "bad address").Error())
	assert.Equal(t, http.StatusInternalServerError, (&apierrors.APIError{Code: "teapot"}).Status())
}
