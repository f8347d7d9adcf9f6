package routes

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"smartclassroom/internal/controller"
	"smartclassroom/internal/models"
	"smartclassroom/internal/utils"
)

// Controllers groups the handlers served by the API.
type Controllers struct {
	Session   *controller.SessionController
	Classroom *controller.ClassroomController
	Chat      *controller.ChatController

	// ChatLimit, when set, wraps the chat submission handler.
	ChatLimit func(http.Handler) http.Handler
}

// RegisterRoutes registers all application routes
func RegisterRoutes(router *mux.Router, c Controllers) {
	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		utils.RespondWithError(w, models.NewAPIError(models.ErrorCodeNotFound, fmt.Sprintf("no route for %s", r.URL.Path), nil, http.StatusNotFound))
	})
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		utils.RespondWithError(w, models.NewAPIError(models.ErrorCodeMethodNotAllowed, fmt.Sprintf("method %s not allowed", r.Method), nil, http.StatusMethodNotAllowed))
	})

	// Health check
	router.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "OK")
	}).Methods(http.MethodGet)

	api := router.PathPrefix("/api").Subrouter()

	// Session and view switching
	api.HandleFunc("/session", c.Session.HandleGetSession).Methods(http.MethodGet)
	api.HandleFunc("/session/login", c.Session.HandleLogin).Methods(http.MethodPost)
	api.HandleFunc("/session/logout", c.Session.HandleLogout).Methods(http.MethodPost)
	api.HandleFunc("/session/view", c.Session.HandleSetView).Methods(http.MethodPut)

	// Simulated classroom state
	api.HandleFunc("/classroom/sensors", c.Classroom.HandleSensors).Methods(http.MethodGet)
	api.HandleFunc("/classroom/engagement", c.Classroom.HandleEngagement).Methods(http.MethodGet)
	api.HandleFunc("/classroom/history", c.Classroom.HandleHistory).Methods(http.MethodGet)
	api.HandleFunc("/classroom/forecast", c.Classroom.HandleForecast).Methods(http.MethodGet)
	api.HandleFunc("/classroom/snapshot", c.Classroom.HandleSnapshot).Methods(http.MethodGet)
	api.HandleFunc("/classroom/stream", c.Classroom.HandleStream).Methods(http.MethodGet)

	// Assistant chat
	var submit http.Handler = http.HandlerFunc(c.Chat.HandleSubmit)
	if c.ChatLimit != nil {
		submit = c.ChatLimit(submit)
	}
	api.HandleFunc("/chat", c.Chat.HandleGetTranscript).Methods(http.MethodGet)
	api.Handle("/chat", submit).Methods(http.MethodPost)
}
