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

// SessionHandler handles the roster and the sign-in of the local user
type SessionHandler struct {
	sessionService service.SessionService
	logger         *zap.Logger
}

func NewSessionHandler(sessionService service.SessionService, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{sessionService: sessionService, logger: logger}
}

// GetUsers godoc
// @Summary      Roster
// @Description  Every roster user with an online flag derived from the shared presence map
// @Tags         session
// @Produce      json
// @Success      200 {object} response.SuccessResponse{data=[]dto.UserResponse}
// @Router       /users [get]
func (h *SessionHandler) GetUsers(c *gin.Context) {
	roster := h.sessionService.Roster()
	current, signedIn := h.sessionService.Current()

	var online func(domain.UserID) bool
	if signedIn {
		engine, engErr := h.sessionService.Engine()
		tracker, trkErr := h.sessionService.Tracker()
		if engErr == nil && trkErr == nil {
			presenceMap, now := engine.State().Presence, engine.Now()
			online = func(id domain.UserID) bool { return tracker.IsOnline(presenceMap, id, now) }
		}
	}

	users := make([]dto.UserResponse, 0, len(roster))
	for _, u := range roster {
		users = append(users, dto.UserResponse{
			User:    u,
			Online:  online != nil && online(u.ID),
			Current: signedIn && u.ID == current.ID,
		})
	}

	response.SendSuccess(c, http.StatusOK, users)
}

func (h *SessionHandler) GetSession(c *gin.Context) {
	user, ok := h.sessionService.Current()
	if !ok {
		handleServiceError(c, h.logger, service.ErrNotReady)
		return
	}
	response.SendSuccess(c, http.StatusOK, dto.SessionResponse{User: user})
}

// Login godoc
// @Summary      Sign in as a roster user
// @Description  Ends any running session, remembers the user and loads the board
// @Tags         session
// @Accept       json
// @Produce      json
// @Param        request body dto.LoginRequest true "Roster user"
// @Success      200 {object} response.SuccessResponse{data=dto.SessionResponse}
// @Failure      404 {object} response.ErrorResponse "User not in roster"
// @Router       /session [post]
func (h *SessionHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.SendError(c, http.StatusBadRequest, response.ErrCodeValidation, "Invalid request body")
		return
	}

	user, err := h.sessionService.Login(c.Request.Context(), domain.UserID(req.UserID))
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	response.SendSuccess(c, http.StatusOK, dto.SessionResponse{User: user})
}

func (h *SessionHandler) Logout(c *gin.Context) {
	if err := h.sessionService.Logout(c.Request.Context()); err != nil {
		handleServiceError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}
