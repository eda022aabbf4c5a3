// Package errors provides standardized error handling for the message gateway.
package errors

import (
	"fmt"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// Validation errors: recovered locally, never surfaced to callers.
	ErrCodeEmptyQuery ErrorCode = "EMPTY_QUERY"

	// Upstream errors: the search capability failed, surfaced as a
	// structured error payload.
	ErrCodeSearchUnavailable ErrorCode = "SEARCH_UNAVAILABLE"
	ErrCodeSearchTimeout     ErrorCode = "SEARCH_TIMEOUT"
	ErrCodeSearchBadStatus   ErrorCode = "SEARCH_BAD_STATUS"
	ErrCodeProductNotFound   ErrorCode = "PRODUCT_NOT_FOUND"

	// Formatting errors: degraded to an empty result set.
	ErrCodeMalformedResult ErrorCode = "MALFORMED_RESULT"

	// Intake errors.
	ErrCodeInvalidPayload ErrorCode = "INVALID_PAYLOAD"

	// Supporting infrastructure.
	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeQueryExecutionFailed     ErrorCode = "QUERY_EXECUTION_FAILED"
	ErrCodeNotificationSendFailed   ErrorCode = "NOTIFICATION_SEND_FAILED"
	ErrCodeCacheUnavailable         ErrorCode = "CACHE_UNAVAILABLE"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// ==========================
// 2. Error Constructors
// ==========================

// NewEmptyQueryError creates a non-retryable validation error. The
// pipeline recovers from it by sending the onboarding fallback reply.
func NewEmptyQueryError(originalText string) *StandardError {
	return &StandardError{
		Code:      ErrCodeEmptyQuery,
		Message:   "No actionable query in message",
		Details:   fmt.Sprintf("originalText: %q", originalText),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewSearchUnavailableError creates a retryable upstream transport error.
func NewSearchUnavailableError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSearchUnavailable,
		Message:   "Search service unreachable",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewSearchTimeoutError creates a retryable upstream timeout error.
func NewSearchTimeoutError(timeout time.Duration) *StandardError {
	return &StandardError{
		Code:      ErrCodeSearchTimeout,
		Message:   "Search service timeout",
		Details:   fmt.Sprintf("call exceeded %s timeout", timeout),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewSearchBadStatusError creates a retryable non-success status error.
func NewSearchBadStatusError(statusCode int) *StandardError {
	return &StandardError{
		Code:      ErrCodeSearchBadStatus,
		Message:   "Search service returned non-success status",
		Details:   fmt.Sprintf("statusCode: %d", statusCode),
		Retryable: statusCode >= 500,
		Timestamp: time.Now().UTC(),
	}
}

// NewProductNotFoundError creates a non-retryable lookup error.
func NewProductNotFoundError(sku string) *StandardError {
	return &StandardError{
		Code:      ErrCodeProductNotFound,
		Message:   "Product not found",
		Details:   fmt.Sprintf("sku: %s", sku),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewMalformedResultError creates a non-retryable formatting error.
func NewMalformedResultError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeMalformedResult,
		Message:   "Upstream response contained malformed entries",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidPayloadError creates a non-retryable intake error.
func NewInvalidPayloadError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidPayload,
		Message:   "Inbound payload failed schema validation",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewDatabaseConnectionFailedError creates a retryable database error.
func NewDatabaseConnectionFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDatabaseConnectionFailed,
		Message:   "Database connection error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewQueryExecutionFailedError creates a retryable query error.
func NewQueryExecutionFailedError(queryName string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeQueryExecutionFailed,
		Message:   "Database query execution error",
		Details:   fmt.Sprintf("query: %s, error: %s", queryName, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewNotificationSendFailedError creates a retryable delivery error.
func NewNotificationSendFailedError(channel string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotificationSendFailed,
		Message:   "Notification delivery failed",
		Details:   fmt.Sprintf("channel: %s, error: %s", channel, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewCacheUnavailableError creates a retryable cache error. Cache
// failures never abort a pipeline instance.
func NewCacheUnavailableError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeCacheUnavailable,
		Message:   "Response cache unavailable",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 3. Utility Functions
// ==========================

// IsUpstream reports whether the code belongs to the upstream error
// class, the only class surfaced to callers as a failure payload.
func IsUpstream(code ErrorCode) bool {
	switch code {
	case ErrCodeSearchUnavailable, ErrCodeSearchTimeout, ErrCodeSearchBadStatus, ErrCodeProductNotFound:
		return true
	default:
		return false
	}
}

// IsValidation reports whether the code is recovered locally by the
// fallback branch.
func IsValidation(code ErrorCode) bool {
	return code == ErrCodeEmptyQuery || code == ErrCodeInvalidPayload
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	switch {
	case IsValidation(code):
		return "VALIDATION"
	case IsUpstream(code):
		return "UPSTREAM"
	case code == ErrCodeMalformedResult:
		return "FORMATTING"
	case code == ErrCodeDatabaseConnectionFailed || code == ErrCodeQueryExecutionFailed:
		return "DATABASE"
	case code == ErrCodeNotificationSendFailed:
		return "NOTIFICATION"
	default:
		return "OTHER"
	}
}
