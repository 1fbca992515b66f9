package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrorType represents different categories of errors
type ErrorType string

const (
	// Validation errors
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeRequired   ErrorType = "required"

	// Infrastructure errors
	ErrorTypeNetwork   ErrorType = "network"
	ErrorTypeExternal  ErrorType = "external"
	ErrorTypeTimeout   ErrorType = "timeout"
	ErrorTypeRateLimit ErrorType = "rate_limit"
	ErrorTypeCircuit   ErrorType = "circuit_open"

	// Business logic errors
	ErrorTypeNotFound ErrorType = "not_found"
	ErrorTypeRejected ErrorType = "rejected"

	// System errors
	ErrorTypeInternal ErrorType = "internal"
	ErrorTypeConfig   ErrorType = "configuration"
)

// ServiceError is a categorized error raised while talking to an external
// orchestration system (SDNC, SO, XACML, ...).
type ServiceError struct {
	Type       ErrorType `json:"type"`
	Code       string    `json:"code"`
	Message    string    `json:"message"`
	Details    string    `json:"details,omitempty"`
	Service    string    `json:"service"`
	Operation  string    `json:"operation"`
	Timestamp  time.Time `json:"timestamp"`
	Cause      error     `json:"-"`
	Retryable  bool      `json:"retryable"`
	HTTPStatus int       `json:"http_status,omitempty"`
}

// Error implements the error interface
func (e *ServiceError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%s:%s] %s: %s", e.Service, e.Operation, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Service, e.Operation, e.Message)
}

// Unwrap implements the error unwrapping interface
func (e *ServiceError) Unwrap() error {
	return e.Cause
}

// Is matches on type and code when target is a *ServiceError.
func (e *ServiceError) Is(target error) bool {
	if target == nil {
		return false
	}

	if se, ok := target.(*ServiceError); ok {
		return e.Type == se.Type && e.Code == se.Code
	}

	return false
}

// WithDetails adds additional details to the error
func (e *ServiceError) WithDetails(details string) *ServiceError {
	e.Details = details
	return e
}

// ErrorBuilder builds errors for one service/operation pair.
type ErrorBuilder struct {
	service   string
	operation string
}

// NewErrorBuilder creates a new error builder for a service
func NewErrorBuilder(service, operation string) *ErrorBuilder {
	return &ErrorBuilder{service: service, operation: operation}
}

// ValidationError creates a validation error
func (eb *ErrorBuilder) ValidationError(code, message string) *ServiceError {
	return eb.newError(ErrorTypeValidation, code, message, http.StatusBadRequest, false)
}

// RequiredFieldError creates a required field error
func (eb *ErrorBuilder) RequiredFieldError(field string) *ServiceError {
	return eb.newError(ErrorTypeRequired, "required_field",
		fmt.Sprintf("required field %q is missing", field), http.StatusBadRequest, false)
}

// NetworkError creates a network-related error
func (eb *ErrorBuilder) NetworkError(message string, cause error) *ServiceError {
	err := eb.newError(ErrorTypeNetwork, "network_error", message, http.StatusBadGateway, true)
	err.Cause = cause
	return err
}

// ConfigError creates a configuration error
func (eb *ErrorBuilder) ConfigError(setting, reason string) *ServiceError {
	return eb.newError(ErrorTypeConfig, "configuration_error",
		fmt.Sprintf("configuration error for %q: %s", setting, reason), http.StatusInternalServerError, false)
}

// StatusError creates an error for a non-2xx response from the service.
func (eb *ErrorBuilder) StatusError(statusCode int, body string) *ServiceError {
	errType := ErrorTypeExternal
	switch {
	case statusCode == http.StatusNotFound:
		errType = ErrorTypeNotFound
	case statusCode == http.StatusTooManyRequests:
		errType = ErrorTypeRateLimit
	case statusCode == http.StatusGatewayTimeout || statusCode == http.StatusRequestTimeout:
		errType = ErrorTypeTimeout
	}
	err := eb.newError(errType, fmt.Sprintf("http_%d", statusCode),
		fmt.Sprintf("unexpected status %d", statusCode), statusCode, retryableStatus(statusCode))
	err.Details = truncate(body, 512)
	return err
}

// CircuitOpenError reports a call refused by the client's circuit breaker.
func (eb *ErrorBuilder) CircuitOpenError(cause error) *ServiceError {
	err := eb.newError(ErrorTypeCircuit, "circuit_open", "circuit breaker is open", http.StatusServiceUnavailable, true)
	err.Cause = cause
	return err
}

// RejectedError reports a vendor-level rejection carried in a 2xx body.
func (eb *ErrorBuilder) RejectedError(code, message string) *ServiceError {
	return eb.newError(ErrorTypeRejected, code, message, 0, false)
}

// ContextError converts a context error into a timeout error.
func (eb *ErrorBuilder) ContextError(ctx context.Context) *ServiceError {
	message := "operation cancelled"
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		message = "operation timed out"
	}
	err := eb.newError(ErrorTypeTimeout, "context_done", message, http.StatusGatewayTimeout, false)
	err.Cause = ctx.Err()
	return err
}

func (eb *ErrorBuilder) newError(errType ErrorType, code, message string, httpStatus int, retryable bool) *ServiceError {
	return &ServiceError{
		Type:       errType,
		Code:       code,
		Message:    message,
		Service:    eb.service,
		Operation:  eb.operation,
		Timestamp:  time.Now(),
		HTTPStatus: httpStatus,
		Retryable:  retryable,
	}
}

// IsRetryable reports whether err, or anything it wraps, is a retryable
// ServiceError.
func IsRetryable(err error) bool {
	var se *ServiceError
	if errors.As(err, &se) {
		return se.Retryable
	}
	return false
}

// IsTimeout reports whether err is a deadline or a timeout ServiceError.
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var se *ServiceError
	if errors.As(err, &se) {
		return se.Type == ErrorTypeTimeout && !errors.Is(se.Cause, context.Canceled)
	}
	return false
}

// TypeOf returns the ErrorType of err, or ErrorTypeInternal.
func TypeOf(err error) ErrorType {
	var se *ServiceError
	if errors.As(err, &se) {
		return se.Type
	}
	return ErrorTypeInternal
}

func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= 500
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
