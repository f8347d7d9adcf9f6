package controller

import (
	"net/http"

	"go.uber.org/zap"

	"smartclassroom/internal/logging"
	"smartclassroom/internal/models"
	"smartclassroom/internal/session"
	"smartclassroom/internal/utils"
)

// LoginRequest is the body of POST /api/session/login.
type LoginRequest struct {
	Role session.Role `json:"role"`
}

// ViewRequest is the body of PUT /api/session/view.
type ViewRequest struct {
	View session.View `json:"view"`
}

// SessionController switches views and signs in and out.
type SessionController struct {
	manager *session.Manager
	logger  *zap.Logger
}

// NewSessionController creates a new SessionController.
func NewSessionController(manager *session.Manager, logger *zap.Logger) *SessionController {
	return &SessionController{manager: manager, logger: logging.OrNop(logger)}
}

// HandleGetSession returns the current view.
func (c *SessionController) HandleGetSession(w http.ResponseWriter, _ *http.Request) {
	utils.RespondWithJSON(w, http.StatusOK, c.manager.Status())
}

// HandleLogin opens a session for the requested role.
func (c *SessionController) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		respondWithBadBody(w, err)
		return
	}
	role, err := session.ParseRole(string(req.Role))
	if err != nil {
		utils.RespondWithError(w, models.NewAPIError(models.ErrorCodeValidationFailed, err.Error(), nil, http.StatusBadRequest))
		return
	}

	if err := c.manager.Login(role); err != nil {
		respondWithDomainError(w, c.logger, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, c.manager.Status())
}

// HandleLogout closes the open session.
func (c *SessionController) HandleLogout(w http.ResponseWriter, _ *http.Request) {
	if err := c.manager.Logout(); err != nil {
		respondWithDomainError(w, c.logger, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, c.manager.Status())
}

// HandleSetView switches to the requested view.
func (c *SessionController) HandleSetView(w http.ResponseWriter, r *http.Request) {
	var req ViewRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		respondWithBadBody(w, err)
		return
	}
	view, err := session.ParseView(string(req.View))
	if err != nil {
		utils.RespondWithError(w, models.NewAPIError(models.ErrorCodeValidationFailed, err.Error(), nil, http.StatusBadRequest))
		return
	}

	if err := c.manager.Navigate(view); err != nil {
		respondWithDomainError(w, c.logger, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, c.manager.Status())
}
