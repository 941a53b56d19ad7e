package response

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	apperrors "github.com/welldanyogia/webrana-contact/internal/errors"
)

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

// ErrorResponse represents an error API response
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
}

// internalMessage is shown for errors that carry no user-safe message.
const internalMessage = "Internal server error"

// Success returns a successful response with data
func Success(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Data:    data,
	})
}

// SuccessWithMessage returns a successful response with a message
func SuccessWithMessage(c echo.Context, data interface{}, message string) error {
	return c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Data:    data,
		Message: message,
	})
}

// Error returns an error response with appropriate status code. Only
// AppError messages reach the client; other errors keep their code but
// carry a generic message.
func Error(c echo.Context, err error) error {
	code := apperrors.GetErrorCode(err)
	message := internalMessage
	if appErr := apperrors.GetAppError(err); appErr != nil {
		message = appErr.Error()
	}

	return c.JSON(getHTTPStatus(code), ErrorResponse{
		Success: false,
		Error:   message,
		Code:    code,
	})
}

// BadRequest returns a 400 Bad Request response
func BadRequest(c echo.Context, message string) error {
	return c.JSON(http.StatusBadRequest, ErrorResponse{
		Success: false,
		Error:   message,
		Code:    apperrors.CodeInvalidInput,
	})
}

// TooManyRequests returns a 429 response with a Retry-After header in
// whole seconds.
func TooManyRequests(c echo.Context, message string, retryAfter time.Duration) error {
	secs := int64(retryAfter.Round(time.Second) / time.Second)
	if secs < 1 {
		secs = 1
	}
	c.Response().Header().Set("Retry-After", strconv.FormatInt(secs, 10))
	return c.JSON(http.StatusTooManyRequests, ErrorResponse{
		Success: false,
		Error:   message,
		Code:    apperrors.CodeRateLimited,
	})
}

// InternalError returns a 500 Internal Server Error response
func InternalError(c echo.Context, message string) error {
	return c.JSON(http.StatusInternalServerError, ErrorResponse{
		Success: false,
		Error:   message,
		Code:    apperrors.CodeInternalError,
	})
}

// ServiceUnavailable returns a 503 response
func ServiceUnavailable(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusServiceUnavailable, APIResponse{
		Success: false,
		Data:    data,
	})
}

// getHTTPStatus maps error codes to HTTP status codes
func getHTTPStatus(code string) int {
	switch code {
	case apperrors.CodeInvalidInput:
		return http.StatusBadRequest
	case apperrors.CodeValidationError:
		return http.StatusBadRequest
	case apperrors.CodeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
