package controller

import (
	"net/http"

	"go.uber.org/zap"

	"smartclassroom/internal/logging"
	"smartclassroom/internal/models"
	"smartclassroom/internal/session"
	"smartclassroom/internal/utils"
)

// ChatRequest is the body of POST /api/chat.
type ChatRequest struct {
	Text string `json:"text"`
}

// TranscriptResponse is the chat panel as the dashboard renders it.
type TranscriptResponse struct {
	Messages []models.ChatTurn `json:"messages"`
	Typing   bool              `json:"typing"`
}

// ChatController serves the assistant chat of the open session.
type ChatController struct {
	manager *session.Manager
	logger  *zap.Logger
}

// NewChatController creates a new ChatController.
func NewChatController(manager *session.Manager, logger *zap.Logger) *ChatController {
	return &ChatController{manager: manager, logger: logging.OrNop(logger)}
}

// HandleGetTranscript returns the transcript and whether a reply is pending.
func (c *ChatController) HandleGetTranscript(w http.ResponseWriter, _ *http.Request) {
	panel, err := c.manager.Panel()
	if err != nil {
		respondWithDomainError(w, c.logger, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, TranscriptResponse{
		Messages: panel.Transcript(),
		Typing:   panel.Typing(),
	})
}

// HandleSubmit sends a question to the assistant and returns the user turn
// together with the reply.
func (c *ChatController) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		respondWithBadBody(w, err)
		return
	}
	panel, err := c.manager.Panel()
	if err != nil {
		respondWithDomainError(w, c.logger, err)
		return
	}

	exchange, err := panel.Submit(r.Context(), req.Text)
	if err != nil {
		respondWithDomainError(w, c.logger, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, exchange)
}
