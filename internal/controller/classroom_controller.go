package controller

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"smartclassroom/internal/assistant"
	"smartclassroom/internal/logging"
	"smartclassroom/internal/models"
	"smartclassroom/internal/session"
	"smartclassroom/internal/simulator"
	"smartclassroom/internal/utils"
)

const (
	streamBuffer    = 8
	streamWriteWait = 10 * time.Second
	streamPingEvery = 30 * time.Second
)

// EngagementResponse is an engagement snapshot with its dominant emotion.
type EngagementResponse struct {
	models.EngagementSnapshot
	DominantEmotion models.Emotion `json:"dominantEmotion"`
}

func newEngagementResponse(e models.EngagementSnapshot) EngagementResponse {
	return EngagementResponse{EngagementSnapshot: e, DominantEmotion: assistant.DominantEmotion(e.EmotionBreakdown)}
}

// SnapshotResponse carries everything the dashboard renders.
type SnapshotResponse struct {
	Classroom  string               `json:"classroom"`
	Sensors    models.SensorReading `json:"sensors"`
	Engagement EngagementResponse   `json:"engagement"`
	History    []models.ChartPoint  `json:"history"`
	Forecast   []models.ChartPoint  `json:"forecast,omitempty"`
	Ticks      uint64               `json:"ticks"`
	UpdatedAt  time.Time            `json:"updatedAt"`
}

// ClassroomController serves the simulated classroom of the open session.
type ClassroomController struct {
	manager     *session.Manager
	classroomID string
	upgrader    websocket.Upgrader
	logger      *zap.Logger
}

// NewClassroomController creates a new ClassroomController. Stream
// connections are accepted from allowedOrigins; "*" accepts any origin.
func NewClassroomController(manager *session.Manager, classroomID string, allowedOrigins []string, logger *zap.Logger) *ClassroomController {
	return &ClassroomController{
		manager:     manager,
		classroomID: classroomID,
		upgrader: websocket.Upgrader{
			CheckOrigin: originChecker(allowedOrigins),
		},
		logger: logging.OrNop(logger),
	}
}

func originChecker(allowed []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, o := range allowed {
			if o == "*" || o == origin {
				return true
			}
		}
		return false
	}
}

func (c *ClassroomController) store(w http.ResponseWriter) (*simulator.Store, bool) {
	store, err := c.manager.Store()
	if err != nil {
		respondWithDomainError(w, c.logger, err)
		return nil, false
	}
	return store, true
}

// HandleSensors returns the current sensor reading.
func (c *ClassroomController) HandleSensors(w http.ResponseWriter, _ *http.Request) {
	if store, ok := c.store(w); ok {
		utils.RespondWithJSON(w, http.StatusOK, store.Sensors())
	}
}

// HandleEngagement returns the current engagement snapshot.
func (c *ClassroomController) HandleEngagement(w http.ResponseWriter, _ *http.Request) {
	if store, ok := c.store(w); ok {
		utils.RespondWithJSON(w, http.StatusOK, newEngagementResponse(store.Engagement()))
	}
}

// HandleHistory returns the engagement history, oldest first.
func (c *ClassroomController) HandleHistory(w http.ResponseWriter, _ *http.Request) {
	if store, ok := c.store(w); ok {
		utils.RespondWithJSON(w, http.StatusOK, store.History())
	}
}

// HandleForecast returns the temperature forecast.
func (c *ClassroomController) HandleForecast(w http.ResponseWriter, _ *http.Request) {
	if store, ok := c.store(w); ok {
		utils.RespondWithJSON(w, http.StatusOK, store.Forecast())
	}
}

// HandleSnapshot returns the whole classroom state.
func (c *ClassroomController) HandleSnapshot(w http.ResponseWriter, _ *http.Request) {
	store, ok := c.store(w)
	if !ok {
		return
	}
	resp := c.snapshotResponse(store, store.Snapshot())
	resp.Forecast = store.Forecast()
	utils.RespondWithJSON(w, http.StatusOK, resp)
}

func (c *ClassroomController) snapshotResponse(store *simulator.Store, snap models.Snapshot) SnapshotResponse {
	return SnapshotResponse{
		Classroom:  c.classroomID,
		Sensors:    snap.Sensors,
		Engagement: newEngagementResponse(snap.Engagement),
		History:    store.History(),
		Ticks:      store.Ticks(),
		UpdatedAt:  snap.Timestamp,
	}
}

// HandleStream upgrades to a websocket and pushes a SnapshotResponse after
// every tick, starting with the current state. The socket is closed when the
// session ends.
func (c *ClassroomController) HandleStream(w http.ResponseWriter, r *http.Request) {
	store, ok := c.store(w)
	if !ok {
		return
	}
	snapshots, stop, err := c.manager.Stream(streamBuffer)
	if err != nil {
		respondWithDomainError(w, c.logger, err)
		return
	}
	defer stop()

	conn, err := c.upgrader.Upgrade(w, r, nil)
	if err != nil {
		c.logger.Warn("stream upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	// The client never sends data; reading surfaces its close frame.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(streamPingEvery)
	defer ping.Stop()

	send := func(v interface{}) bool {
		_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
		if err := conn.WriteJSON(v); err != nil {
			c.logger.Debug("stream write failed", zap.Error(err))
			return false
		}
		return true
	}

	if !send(c.snapshotResponse(store, store.Snapshot())) {
		return
	}
	for {
		select {
		case snap, open := <-snapshots:
			if !open {
				msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session closed")
				_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(streamWriteWait))
				return
			}
			if !send(c.snapshotResponse(store, snap)) {
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(streamWriteWait)); err != nil {
				return
			}
		case <-gone:
			return
		case <-r.Context().Done():
			return
		}
	}
}
