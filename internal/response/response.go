// Package response defines the JSON envelope of the control API.
package response

import (
	"fmt"

	"github.com/gin-gonic/gin"
)

// Error codes
const (
	ErrCodeValidation           = "VALIDATION_ERROR"
	ErrCodeNotFound             = "NOT_FOUND"
	ErrCodeConflict             = "CONFLICT"
	ErrCodeUnauthorized         = "UNAUTHORIZED"
	ErrCodeNoSession            = "NO_SESSION"
	ErrCodeConfirmationRequired = "CONFIRMATION_REQUIRED"
	ErrCodePayloadTooLarge      = "PAYLOAD_TOO_LARGE"
	ErrCodeNotConfigured        = "NOT_CONFIGURED"
	ErrCodeNotImplemented       = "NOT_IMPLEMENTED"
	ErrCodeUpstream             = "UPSTREAM_ERROR"
	ErrCodeUnavailable          = "SERVICE_UNAVAILABLE"
	ErrCodeInternal             = "INTERNAL_ERROR"
)

// SuccessResponse wraps a successful payload
type SuccessResponse struct {
	Data interface{} `json:"data"`
}

// ErrorDetail describes a failed request
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps an ErrorDetail
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// AppError is an error carrying an API error code
type AppError struct {
	Code    string
	Message string
	Details string
}

func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewAppError creates a new AppError
func NewAppError(code, message, details string) *AppError {
	return &AppError{Code: code, Message: message, Details: details}
}

// SendSuccess writes data in the success envelope
func SendSuccess(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, SuccessResponse{Data: data})
}

// SendError writes the error envelope and aborts the chain
func SendError(c *gin.Context, statusCode int, code, message string) {
	c.AbortWithStatusJSON(statusCode, ErrorResponse{
		Error: ErrorDetail{Code: code, Message: message},
	})
}
