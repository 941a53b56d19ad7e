package errors

import (
	"errors"
	"fmt"
)

// Domain-specific error types
var (
	// ErrInvalidInput indicates a request body that could not be decoded
	ErrInvalidInput = errors.New("invalid input")

	// ErrValidation indicates a submission that failed field validation
	ErrValidation = errors.New("validation failed")

	// ErrRateLimited indicates the caller exhausted its submission window
	ErrRateLimited = errors.New("rate limited")

	// ErrNotConfigured indicates missing mail transport configuration
	ErrNotConfigured = errors.New("email service not configured")

	// ErrTransport indicates the mail transport could not be verified
	ErrTransport = errors.New("mail transport unavailable")

	// ErrDelivery indicates one of the outbound messages was not delivered
	ErrDelivery = errors.New("mail delivery failed")

	// ErrWebhook indicates the chat webhook call failed. Never surfaced to callers.
	ErrWebhook = errors.New("webhook notification failed")

	// ErrInternal indicates an internal server error
	ErrInternal = errors.New("internal server error")
)

// Error codes for API responses
const (
	CodeInvalidInput       = "INVALID_INPUT"
	CodeValidationError    = "VALIDATION_ERROR"
	CodeRateLimited        = "RATE_LIMITED"
	CodeConfigurationError = "CONFIGURATION_ERROR"
	CodeTransportError     = "TRANSPORT_ERROR"
	CodeDeliveryError      = "DELIVERY_ERROR"
	CodeWebhookError       = "WEBHOOK_ERROR"
	CodeInternalError      = "INTERNAL_ERROR"
)

// AppError represents an application error with context.
// Message is the user-facing text; Err carries the detail for logs.
type AppError struct {
	Err     error
	Message string
	Code    string
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new AppError
func NewAppError(err error, message string, code string) *AppError {
	return &AppError{
		Err:     err,
		Message: message,
		Code:    code,
	}
}

// Validation builds a VALIDATION_ERROR with a user-safe message.
func Validation(message string) *AppError {
	return NewAppError(ErrValidation, message, CodeValidationError)
}

// NotConfigured builds a CONFIGURATION_ERROR. cause is kept for logging only.
func NotConfigured(cause error, message string) *AppError {
	return NewAppError(join(ErrNotConfigured, cause), message, CodeConfigurationError)
}

// Transport builds a TRANSPORT_ERROR. cause is kept for logging only.
func Transport(cause error, message string) *AppError {
	return NewAppError(join(ErrTransport, cause), message, CodeTransportError)
}

// Delivery builds a DELIVERY_ERROR. cause is kept for logging only.
func Delivery(cause error, message string) *AppError {
	return NewAppError(join(ErrDelivery, cause), message, CodeDeliveryError)
}

func join(sentinel, cause error) error {
	if cause == nil {
		return sentinel
	}
	return fmt.Errorf("%w: %w", sentinel, cause)
}

// Wrap wraps an error with additional context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// IsValidation checks if the error is a validation error
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsRateLimited checks if the error is a rate limit error
func IsRateLimited(err error) bool {
	return errors.Is(err, ErrRateLimited)
}

// IsInvalidInput checks if the error is an invalid input error
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// GetErrorCode returns the appropriate error code for an error.
// An explicit AppError code wins over sentinel matching.
func GetErrorCode(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Code != "" {
		return appErr.Code
	}

	switch {
	case IsInvalidInput(err):
		return CodeInvalidInput
	case IsValidation(err):
		return CodeValidationError
	case IsRateLimited(err):
		return CodeRateLimited
	case errors.Is(err, ErrNotConfigured):
		return CodeConfigurationError
	case errors.Is(err, ErrTransport):
		return CodeTransportError
	case errors.Is(err, ErrDelivery):
		return CodeDeliveryError
	case errors.Is(err, ErrWebhook):
		return CodeWebhookError
	default:
		return CodeInternalError
	}
}

// GetAppError extracts AppError from an error if it exists
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}
