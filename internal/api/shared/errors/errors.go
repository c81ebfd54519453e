package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/feral-file/ff-ledger/internal/domain"
)

// ErrorCode is the machine readable reason of an API error
type ErrorCode string

const (
	ErrCodeBadRequest       ErrorCode = "bad_request"
	ErrCodeNotFound         ErrorCode = "not_found"
	ErrCodeValidationFailed ErrorCode = "validation_failed"
	ErrCodeUnauthorized     ErrorCode = "unauthorized"
	ErrCodeConflict         ErrorCode = "conflict"

	ErrCodeInternalError ErrorCode = "internal_error"
	ErrCodeDatabaseError ErrorCode = "database_error"
)

var statuses = map[ErrorCode]int{
	ErrCodeBadRequest:       http.StatusBadRequest,
	ErrCodeValidationFailed: http.StatusBadRequest,
	ErrCodeNotFound:         http.StatusNotFound,
	ErrCodeUnauthorized:     http.StatusUnauthorized,
	ErrCodeConflict:         http.StatusConflict,
	ErrCodeInternalError:    http.StatusInternalServerError,
	ErrCodeDatabaseError:    http.StatusInternalServerError,
}

// APIError is the error body returned by the REST API
type APIError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details string    `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	if e.Details == "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
}

// Status returns the HTTP status of the error code, 500 for unknown codes
func (e *APIError) Status() int {
	if status, ok := statuses[e.Code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

func newError(code ErrorCode, message string, details []string) *APIError {
	return &APIError{Code: code, Message: message, Details: strings.Join(details, ", ")}
}

func NewBadRequestError(message string, details ...string) *APIError {
	return newError(ErrCodeBadRequest, message, details)
}

func NewNotFoundError(message string, details ...string) *APIError {
	return newError(ErrCodeNotFound, message, details)
}

func NewValidationError(details ...string) *APIError {
	return newError(ErrCodeValidationFailed, "Validation failed", details)
}

func NewUnauthorizedError(message string, details ...string) *APIError {
	return newError(ErrCodeUnauthorized, message, details)
}

func NewConflictError(message string, details ...string) *APIError {
	return newError(ErrCodeConflict, message, details)
}

func NewInternalError(message string, details ...string) *APIError {
	return newError(ErrCodeInternalError, message, details)
}

func NewDatabaseError(message string, details ...string) *APIError {
	return newError(ErrCodeDatabaseError, message, details)
}

// domainErrors maps ledger sentinels to the API error they surface as
var domainErrors = []struct {
	sentinel error
	build    func(err error) *APIError
}{
	{domain.ErrInvalidArgument, func(err error) *APIError { return NewValidationError(err.Error()) }},
	{domain.ErrUserNotFound, func(err error) *APIError { return NewNotFoundError("Wallet not found", err.Error()) }},
	{domain.ErrFaultNotFound, func(err error) *APIError { return NewNotFoundError("Fault not found", err.Error()) }},
	{domain.ErrConcurrentWriteConflict, func(error) *APIError { return NewConflictError("Wallet is being updated, retry later") }},
}

// FromDomainError converts a ledger error into an API error. Storage failures keep
// their cause out of the response.
func FromDomainError(err error, message string) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	for _, m := range domainErrors {
		if errors.Is(err, m.sentinel) {
			return m.build(err)
		}
	}
	return NewDatabaseError(message)
}
