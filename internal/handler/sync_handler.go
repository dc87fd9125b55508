package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"kanban-sync/internal/dto"
	"kanban-sync/internal/response"
	"kanban-sync/internal/service"
)

// SyncHandler exposes the manual sync controls
type SyncHandler struct {
	boardService service.BoardService
	logger       *zap.Logger
}

func NewSyncHandler(boardService service.BoardService, logger *zap.Logger) *SyncHandler {
	return &SyncHandler{boardService: boardService, logger: logger}
}

// Sync pulls the remote board now and returns the resulting state
func (h *SyncHandler) Sync(c *gin.Context) {
	if err := h.boardService.Sync(c.Request.Context()); err != nil {
		handleServiceError(c, h.logger, err)
		return
	}
	h.sendState(c)
}

// ForcePush overwrites the remote board. The body must confirm the overwrite.
func (h *SyncHandler) ForcePush(c *gin.Context) {
	var req dto.ForcePushRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.SendError(c, http.StatusBadRequest, response.ErrCodeValidation, "Invalid request body")
			return
		}
	}

	if err := h.boardService.ForcePush(c.Request.Context(), req.Confirm); err != nil {
		handleServiceError(c, h.logger, err)
		return
	}
	h.sendState(c)
}

func (h *SyncHandler) Refresh(c *gin.Context) {
	if err := h.boardService.Refresh(c.Request.Context()); err != nil {
		handleServiceError(c, h.logger, err)
		return
	}
	h.sendState(c)
}

func (h *SyncHandler) sendState(c *gin.Context) {
	view, err := h.boardService.View(c.Request.Context())
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}
	response.SendSuccess(c, http.StatusOK, dto.NewStateResponse(view))
}
