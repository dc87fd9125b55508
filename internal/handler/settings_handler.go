package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"kanban-sync/internal/dto"
	"kanban-sync/internal/response"
	"kanban-sync/internal/service"
)

type SettingsHandler struct {
	settingsService service.SettingsService
	logger          *zap.Logger
}

func NewSettingsHandler(settingsService service.SettingsService, logger *zap.Logger) *SettingsHandler {
	return &SettingsHandler{settingsService: settingsService, logger: logger}
}

func (h *SettingsHandler) GetSettings(c *gin.Context) {
	settings, err := h.settingsService.Get(c.Request.Context())
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}
	response.SendSuccess(c, http.StatusOK, dto.NewSettingsResponse(settings))
}

// UpdateSettings godoc
// @Summary      Update connection settings and preferences
// @Description  A masked API key, as returned by GET, keeps the stored key
// @Tags         settings
// @Accept       json
// @Produce      json
// @Param        request body dto.UpdateSettingsRequest true "Changed sections"
// @Success      200 {object} response.SuccessResponse{data=dto.SettingsResponse}
// @Router       /settings [put]
func (h *SettingsHandler) UpdateSettings(c *gin.Context) {
	var req dto.UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.SendError(c, http.StatusBadRequest, response.ErrCodeValidation, "Invalid request body")
		return
	}

	update := req.ToUpdate()
	if update.Remote != nil && update.Remote.APIKey != "" {
		current, err := h.settingsService.Get(c.Request.Context())
		if err != nil {
			handleServiceError(c, h.logger, err)
			return
		}
		if current.Remote != nil && update.Remote.APIKey == dto.MaskSecret(current.Remote.APIKey) {
			update.Remote.APIKey = current.Remote.APIKey
		}
	}

	settings, err := h.settingsService.Update(c.Request.Context(), update)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}
	response.SendSuccess(c, http.StatusOK, dto.NewSettingsResponse(settings))
}
