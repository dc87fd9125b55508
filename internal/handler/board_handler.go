package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"kanban-sync/internal/board"
	"kanban-sync/internal/domain"
	"kanban-sync/internal/dto"
	"kanban-sync/internal/response"
	"kanban-sync/internal/service"
)

type BoardHandler struct {
	boardService service.BoardService
	logger       *zap.Logger
}

func NewBoardHandler(boardService service.BoardService, logger *zap.Logger) *BoardHandler {
	return &BoardHandler{
		boardService: boardService,
		logger:       logger,
	}
}

// GetState godoc
// @Summary      Board state
// @Description  Tasks, presence, viewers per task, sync status and payload size of the session user
// @Tags         board
// @Produce      json
// @Success      200 {object} response.SuccessResponse{data=dto.StateResponse}
// @Failure      401 {object} response.ErrorResponse "No user is signed in"
// @Router       /state [get]
func (h *BoardHandler) GetState(c *gin.Context) {
	view, err := h.boardService.View(c.Request.Context())
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	response.SendSuccess(c, http.StatusOK, dto.NewStateResponse(view))
}

// CreateTask godoc
// @Summary      Add a task
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Param        request body dto.CreateTaskRequest true "Task"
// @Success      201 {object} response.SuccessResponse{data=domain.Task}
// @Failure      400 {object} response.ErrorResponse
// @Router       /tasks [post]
func (h *BoardHandler) CreateTask(c *gin.Context) {
	var req dto.CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.SendError(c, http.StatusBadRequest, response.ErrCodeValidation, "Invalid request body")
		return
	}

	task, err := h.boardService.AddTask(c.Request.Context(), domain.ColumnID(req.ColumnID), board.Draft{
		Title:       req.Title,
		Description: req.Description,
		Color:       req.Color,
		CardStyle:   domain.CardStyle(req.CardStyle),
	})
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	response.SendSuccess(c, http.StatusCreated, task)
}

// UpdateTask godoc
// @Summary      Update a task
// @Description  Absent fields keep their current value
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Param        id path string true "Task ID"
// @Param        request body dto.UpdateTaskRequest true "Changed fields"
// @Success      200 {object} response.SuccessResponse{data=domain.Task}
// @Failure      404 {object} response.ErrorResponse
// @Router       /tasks/{id} [put]
func (h *BoardHandler) UpdateTask(c *gin.Context) {
	var req dto.UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.SendError(c, http.StatusBadRequest, response.ErrCodeValidation, "Invalid request body")
		return
	}

	view, err := h.boardService.View(c.Request.Context())
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}
	i := domain.FindTask(view.Tasks, c.Param("id"))
	if i < 0 {
		handleServiceError(c, h.logger, service.ErrTaskNotFound)
		return
	}

	task, err := h.boardService.UpdateTask(c.Request.Context(), req.Apply(view.Tasks[i]))
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	response.SendSuccess(c, http.StatusOK, task)
}

func (h *BoardHandler) MoveTask(c *gin.Context) {
	var req dto.MoveTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.SendError(c, http.StatusBadRequest, response.ErrCodeValidation, "Invalid request body")
		return
	}

	if err := h.boardService.MoveTask(c.Request.Context(), c.Param("id"), domain.ColumnID(req.ColumnID)); err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *BoardHandler) DeleteTask(c *gin.Context) {
	if err := h.boardService.DeleteTask(c.Request.Context(), c.Param("id")); err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// SetViewing records the task the user has open
func (h *BoardHandler) SetViewing(c *gin.Context) {
	var req dto.SetViewingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.SendError(c, http.StatusBadRequest, response.ErrCodeValidation, "Invalid request body")
		return
	}

	if err := h.boardService.SetViewing(c.Request.Context(), req.TaskID); err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// Dictate godoc
// @Summary      Append dictated text to a task description
// @Description  Uses the transcript in the body when given, the device recognizer otherwise
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Param        id path string true "Task ID"
// @Param        request body dto.DictationRequest false "Recognized transcript"
// @Success      200 {object} response.SuccessResponse{data=domain.Task}
// @Failure      501 {object} response.ErrorResponse "No speech recognition on this device"
// @Router       /tasks/{id}/dictation [post]
func (h *BoardHandler) Dictate(c *gin.Context) {
	var req dto.DictationRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.SendError(c, http.StatusBadRequest, response.ErrCodeValidation, "Invalid request body")
			return
		}
	}

	var dictation service.Dictation
	if req.Transcript != nil {
		dictation = service.TranscriptDictation(*req.Transcript)
	}

	task, err := h.boardService.Dictate(c.Request.Context(), c.Param("id"), dictation)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	response.SendSuccess(c, http.StatusOK, task)
}
