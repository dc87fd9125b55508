package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"kanban-sync/internal/domain"
	"kanban-sync/internal/dto"
	"kanban-sync/internal/response"
	"kanban-sync/internal/service"
)

// EnrichmentHandler exposes the assistant features
type EnrichmentHandler struct {
	enrichmentService service.EnrichmentService
	logger            *zap.Logger
}

func NewEnrichmentHandler(enrichmentService service.EnrichmentService, logger *zap.Logger) *EnrichmentHandler {
	return &EnrichmentHandler{enrichmentService: enrichmentService, logger: logger}
}

// Improve rewrites a task description. Assistant failures come back as a notice, not an error.
func (h *EnrichmentHandler) Improve(c *gin.Context) {
	result, err := h.enrichmentService.Improve(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}
	response.SendSuccess(c, http.StatusOK, dto.ImproveResponse{Task: result.Task, Notice: result.Notice})
}

// Brainstorm adds suggested tasks to a column
func (h *EnrichmentHandler) Brainstorm(c *gin.Context) {
	column := domain.ColumnID(c.Param("columnId"))
	if !column.Valid() {
		response.SendError(c, http.StatusBadRequest, response.ErrCodeValidation, "Invalid column")
		return
	}

	tasks, err := h.enrichmentService.Brainstorm(c.Request.Context(), column)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}
	if tasks == nil {
		tasks = []domain.Task{}
	}

	status := http.StatusCreated
	if len(tasks) == 0 {
		status = http.StatusOK
	}
	response.SendSuccess(c, status, dto.BrainstormResponse{Tasks: tasks})
}
