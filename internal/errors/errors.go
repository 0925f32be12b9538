// Package errors provides custom error types for the ledger API.
// All store-layer errors should use AppError to ensure consistent,
// secure error responses that never leak internal details to clients.
package errors

import "net/http"

// AppError represents a structured application error with an error code,
// human-readable message, HTTP status code, and optional internal error.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Internal   error  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string { return e.Message }

// Unwrap returns the internal error for use with errors.Is/As.
func (e *AppError) Unwrap() error { return e.Internal }

// Wrap creates a new AppError with the same code/message/status but wraps an internal error.
func Wrap(sentinel *AppError, internal error) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    sentinel.Message,
		StatusCode: sentinel.StatusCode,
		Internal:   internal,
	}
}

// WithMessage creates a new AppError with a custom message.
func WithMessage(sentinel *AppError, message string) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    message,
		StatusCode: sentinel.StatusCode,
		Internal:   sentinel.Internal,
	}
}

// General errors.
var (
	ErrInvalidInput   = &AppError{Code: "INVALID_INPUT", Message: "Invalid input", StatusCode: http.StatusBadRequest}
	ErrInternalServer = &AppError{Code: "INTERNAL_ERROR", Message: "An internal error occurred", StatusCode: http.StatusInternalServerError}
)

// Transaction errors.
var (
	ErrTransactionNotFound  = &AppError{Code: "TRANSACTION_NOT_FOUND", Message: "Transaction not found", StatusCode: http.StatusNotFound}
	ErrEmptyCategory        = &AppError{Code: "EMPTY_CATEGORY", Message: "Category must not be empty", StatusCode: http.StatusBadRequest}
	ErrNonPositiveAmount    = &AppError{Code: "NON_POSITIVE_AMOUNT", Message: "Amount must be greater than zero", StatusCode: http.StatusBadRequest}
	ErrTransactionAbandoned = &AppError{Code: "TRANSACTION_ABANDONED", Message: "Transaction has been abandoned", StatusCode: http.StatusConflict}
)

// Commit protocol errors.
var (
	ErrAlreadyCommitted      = &AppError{Code: "ALREADY_COMMITTED", Message: "Transaction is already committed", StatusCode: http.StatusConflict}
	ErrPendingCommitNotFound = &AppError{Code: "PENDING_COMMIT_NOT_FOUND", Message: "No pending commit for this token", StatusCode: http.StatusNotFound}
)
