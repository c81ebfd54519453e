package graphql

import (
	"context"
	"errors"
	"fmt"

	"github.com/vektah/gqlparser/v2/gqlerror"
	"go.uber.org/zap"

	apierrors "github.com/feral-file/ff-ledger/internal/api/shared/errors"
	"github.com/feral-file/ff-ledger/internal/logger"
)

// ErrorPresenter formats resolver errors like the REST API error body: the API error
// code and message go into the extensions. Unknown errors are logged and hidden.
func ErrorPresenter(ctx context.Context, err error) *gqlerror.Error {
	var apiErr *apierrors.APIError
	if !errors.As(err, &apiErr) {
		return handleInternalError(ctx, err)
	}

	switch apiErr.Code {
	case apierrors.ErrCodeInternalError, apierrors.ErrCodeDatabaseError:
		return handleInternalError(ctx, err)
	}

	gqlErr := &gqlerror.Error{
		Err:     err,
		Message: apiErr.Message,
		Extensions: map[string]interface{}{
			"code":    string(apiErr.Code),
			"message": apiErr.Message,
		},
	}
	if apiErr.Details != "" {
		gqlErr.Extensions["details"] = apiErr.Details
	}
	return gqlErr
}

// handleInternalError logs err and returns a generic internal error
func handleInternalError(ctx context.Context, err error) *gqlerror.Error {
	logger.ErrorCtx(ctx, err, zap.String("source", "graphql"))
	return &gqlerror.Error{
		Err:     err,
		Message: "Internal server error",
		Extensions: map[string]interface{}{
			"code":    string(apierrors.ErrCodeInternalError),
			"message": "Internal server error",
		},
	}
}

// RecoverFunc turns a panic in a resolver into an internal error
func RecoverFunc(ctx context.Context, err interface{}) error {
	logger.ErrorCtx(ctx, fmt.Errorf("panic: %v", err), zap.Any("panic", err))
	return apierrors.NewInternalError("Internal server error")
}

// requestError is a gqlerror carrying the API error code of a rejected request
func requestError(code apierrors.ErrorCode, message string) *gqlerror.Error {
	return &gqlerror.Error{
		Message: message,
		Extensions: map[string]interface{}{
			"code":    string(code),
			"message": message,
		},
	}
}
