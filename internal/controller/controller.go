// Package controller holds the HTTP handlers of the dashboard API.
package controller

import (
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"smartclassroom/internal/chat"
	"smartclassroom/internal/models"
	"smartclassroom/internal/session"
	"smartclassroom/internal/utils"
)

// respondWithDomainError maps domain errors to API errors.
func respondWithDomainError(w http.ResponseWriter, logger *zap.Logger, err error) {
	switch {
	case errors.Is(err, session.ErrOutsideScope):
		utils.RespondWithError(w, models.NewAPIError(models.ErrorCodeNoActiveSession, err.Error(), nil, http.StatusConflict))
	case errors.Is(err, session.ErrAlreadyActive):
		utils.RespondWithError(w, models.NewAPIError(models.ErrorCodeSessionActive, err.Error(), nil, http.StatusConflict))
	case errors.Is(err, chat.ErrEmptyQuery):
		utils.RespondWithError(w, models.NewAPIError(models.ErrorCodeMissingParameter, "text is required", nil, http.StatusBadRequest))
	default:
		logger.Error("request failed", zap.Error(err))
		utils.RespondWithError(w, models.NewAPIError(models.ErrorCodeInternalServerError, "internal error", nil, http.StatusInternalServerError))
	}
}

func respondWithBadBody(w http.ResponseWriter, err error) {
	utils.RespondWithError(w, models.NewAPIError(models.ErrorCodeInvalidFormat, fmt.Sprintf("invalid request payload: %v", err), nil, http.StatusBadRequest))
}
