package utils

import (
	"context"
	"errors"
	"net/http"

	"gorm.io/gorm"
)

// Error codes carried in the error envelope.
const (
	CodeValidation       = "VALIDATION_ERROR"
	CodeBadRequest       = "BAD_REQUEST"
	CodeNotFound         = "NOT_FOUND"
	CodeConflict         = "CONFLICT"
	CodeDuplicateBooking = "DUPLICATE_BOOKING"
	CodeUnauthorized     = "UNAUTHORIZED"
	CodeForbidden        = "FORBIDDEN"
	CodeDatabase         = "DATABASE_ERROR"
	CodeTimeout          = "TIMEOUT"
	CodeRateLimited      = "RATE_LIMITED"
	CodeInternal         = "INTERNAL_ERROR"
)

// AppError is an error that knows how it should be reported to the client.
type AppError struct {
	Status  int
	Code    string
	Message string
	Errors  []string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Err }

func NewValidationError(errs []string) *AppError {
	return &AppError{Status: http.StatusBadRequest, Code: CodeValidation, Message: "Validation failed", Errors: errs}
}

func NewBadRequestError(message string) *AppError {
	return &AppError{Status: http.StatusBadRequest, Code: CodeBadRequest, Message: message}
}

func NewNotFoundError(message string) *AppError {
	return &AppError{Status: http.StatusNotFound, Code: CodeNotFound, Message: message}
}

func NewConflictError(code, message string) *AppError {
	if code == "" {
		code = CodeConflict
	}
	return &AppError{Status: http.StatusConflict, Code: code, Message: message}
}

func NewAuthError(message string) *AppError {
	return &AppError{Status: http.StatusUnauthorized, Code: CodeUnauthorized, Message: message}
}

func NewForbiddenError(message string) *AppError {
	return &AppError{Status: http.StatusForbidden, Code: CodeForbidden, Message: message}
}

func NewTooManyRequestsError() *AppError {
	return &AppError{Status: http.StatusTooManyRequests, Code: CodeRateLimited, Message: "Too many requests, please slow down"}
}

// NewDatabaseError wraps a driver error. The wrapped text only reaches the
// client outside release mode.
func NewDatabaseError(err error) *AppError {
	return &AppError{Status: http.StatusInternalServerError, Code: CodeDatabase, Message: "Database error", Err: err}
}

func NewInternalError(err error) *AppError {
	return &AppError{Status: http.StatusInternalServerError, Code: CodeInternal, Message: "Internal server error", Err: err}
}

type errorMapping struct {
	target error
	status int
	code   string
	msg    string
}

var storageErrors = []errorMapping{
	{gorm.ErrRecordNotFound, http.StatusNotFound, CodeNotFound, "Resource not found"},
	{gorm.ErrDuplicatedKey, http.StatusConflict, CodeConflict, "Resource already exists"},
	{gorm.ErrForeignKeyViolated, http.StatusBadRequest, CodeBadRequest, "Referenced resource does not exist"},
	{context.DeadlineExceeded, http.StatusGatewayTimeout, CodeTimeout, "Request timeout"},
	{context.Canceled, http.StatusServiceUnavailable, CodeTimeout, "Request cancelled"},
}

// ToAppError maps any error onto the error taxonomy.
func ToAppError(err error) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	for _, m := range storageErrors {
		if errors.Is(err, m.target) {
			return &AppError{Status: m.status, Code: m.code, Message: m.msg, Err: err}
		}
	}
	return NewInternalError(err)
}
