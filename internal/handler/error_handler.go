package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"kanban-sync/internal/client"
	"kanban-sync/internal/repository"
	"kanban-sync/internal/response"
	"kanban-sync/internal/service"
)

// handleServiceError maps service layer errors to appropriate HTTP responses
func handleServiceError(c *gin.Context, logger *zap.Logger, err error) {
	status, code, message := classifyError(err)

	fields := []zap.Field{
		zap.Error(err),
		zap.String("path", c.Request.URL.Path),
		zap.Int("status", status),
		zap.String("code", code),
	}
	if status >= http.StatusInternalServerError {
		logger.Error("Service error", fields...)
	} else {
		logger.Debug("Request rejected", fields...)
	}

	response.SendError(c, status, code, message)
}

func classifyError(err error) (int, string, string) {
	switch {
	case errors.Is(err, service.ErrNotReady):
		return http.StatusUnauthorized, response.ErrCodeNoSession, "No user is signed in"
	case errors.Is(err, service.ErrUnknownUser):
		return http.StatusNotFound, response.ErrCodeNotFound, "User not found"
	case errors.Is(err, service.ErrTaskNotFound):
		return http.StatusNotFound, response.ErrCodeNotFound, "Task not found"
	case errors.Is(err, service.ErrAttachmentNotFound):
		return http.StatusNotFound, response.ErrCodeNotFound, "Attachment not found"
	case errors.Is(err, repository.ErrEntryNotFound):
		return http.StatusNotFound, response.ErrCodeNotFound, "Resource not found"
	case errors.Is(err, service.ErrInvalidColumn):
		return http.StatusBadRequest, response.ErrCodeValidation, "Invalid column"
	case errors.Is(err, service.ErrConfirmationRequired):
		return http.StatusPreconditionRequired, response.ErrCodeConfirmationRequired, "Force push must be confirmed"
	case errors.Is(err, service.ErrSaveInFlight):
		return http.StatusConflict, response.ErrCodeConflict, "A save is already in progress"
	case errors.Is(err, service.ErrUploadTooLarge):
		return http.StatusRequestEntityTooLarge, response.ErrCodePayloadTooLarge, "File too large, configure a media host to upload it"
	case errors.Is(err, service.ErrCapabilityUnsupported):
		return http.StatusNotImplemented, response.ErrCodeNotImplemented, "Not supported on this device"
	case errors.Is(err, service.ErrAIUnavailable):
		return http.StatusServiceUnavailable, response.ErrCodeUnavailable, "Assistant not available in your region"
	case errors.Is(err, client.ErrNotConfigured),
		errors.Is(err, client.ErrMediaNotConfigured),
		errors.Is(err, client.ErrAINotConfigured):
		return http.StatusServiceUnavailable, response.ErrCodeNotConfigured, "Service not configured"
	}

	if kind, ok := client.KindOf(err); ok {
		if kind == client.KindUnauthorized {
			return http.StatusBadGateway, response.ErrCodeUpstream, "Remote store rejected the credentials"
		}
		return http.StatusBadGateway, response.ErrCodeUpstream, "Remote store unavailable"
	}

	var appErr *response.AppError
	if errors.As(err, &appErr) {
		return mapErrorCodeToHTTPStatus(appErr.Code), appErr.Code, appErr.Message
	}

	return http.StatusInternalServerError, response.ErrCodeInternal, "Internal server error"
}

// mapErrorCodeToHTTPStatus maps error codes to HTTP status codes
func mapErrorCodeToHTTPStatus(code string) int {
	switch code {
	case response.ErrCodeNotFound:
		return http.StatusNotFound
	case response.ErrCodeConflict:
		return http.StatusConflict
	case response.ErrCodeValidation:
		return http.StatusBadRequest
	case response.ErrCodeUnauthorized, response.ErrCodeNoSession:
		return http.StatusUnauthorized
	case response.ErrCodePayloadTooLarge:
		return http.StatusRequestEntityTooLarge
	case response.ErrCodeNotImplemented:
		return http.StatusNotImplemented
	case response.ErrCodeUpstream:
		return http.StatusBadGateway
	case response.ErrCodeNotConfigured, response.ErrCodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
