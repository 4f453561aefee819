package stream

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/zhouzirui/threat-desk/backend/internal/analysis/intent"
	"github.com/zhouzirui/threat-desk/backend/internal/model/threat"
	"github.com/zhouzirui/threat-desk/backend/internal/service/conversation"
	"github.com/zhouzirui/threat-desk/backend/pkg/utils"
)

// Handler pushes conversation updates to the dashboard via Server-Sent Events.
type Handler struct {
	sessions  *conversation.Manager
	alerts    threat.Stream
	heartbeat time.Duration
	logger    *zap.Logger
}

// New creates a stream handler. A non-positive heartbeat disables keepalives;
// a nil alerts disables threats events.
func New(sessions *conversation.Manager, alerts threat.Stream, heartbeat time.Duration, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{sessions: sessions, alerts: alerts, heartbeat: heartbeat, logger: logger}
}

// RegisterRoutes mounts the stream route on r.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/stream/{sessionID}", h.handleStream)
}

// StreamEvent is the data payload of every SSE frame.
type StreamEvent struct {
	SessionID string      `json:"sessionId"`
	Busy      *bool       `json:"busy,omitempty"`
	Message   interface{} `json:"message,omitempty"`
	Time      string      `json:"time,omitempty"`
}

// ThreatsEvent is the data payload of a threats frame.
type ThreatsEvent struct {
	SessionID string `json:"sessionId"`
	intent.Dashboard
}

func (h *Handler) handleStream(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	ctrl, err := h.sessions.GetSession(r.Context(), sessionID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, conversation.ErrSessionNotFound) {
			status = http.StatusNotFound
		}
		utils.RespondError(w, status, err.Error())
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	messages, stopMessages := ctrl.SubscribeMessages()
	defer stopMessages()
	typing, stopTyping := ctrl.SubscribeTyping()
	defer stopTyping()

	utils.SetupSSEHeaders(w)
	w.WriteHeader(http.StatusOK)

	var threats <-chan []threat.Alert
	if h.alerts != nil {
		var stopThreats func()
		threats, stopThreats = h.alerts.Subscribe()
		defer stopThreats()
	}

	busy := ctrl.Busy()
	if err := utils.SendSSEEvent(w, flusher, "status", StreamEvent{SessionID: sessionID, Busy: &busy}); err != nil {
		return
	}
	if h.alerts != nil {
		event := ThreatsEvent{SessionID: sessionID, Dashboard: intent.NewDashboard(h.alerts.Snapshot())}
		if err := utils.SendSSEEvent(w, flusher, "threats", event); err != nil {
			return
		}
	}

	var tick <-chan time.Time
	if h.heartbeat > 0 {
		ticker := time.NewTicker(h.heartbeat)
		defer ticker.Stop()
		tick = ticker.C
	}

	logger := h.logger.With(zap.String("session_id", sessionID))
	logger.Debug("sse stream opened")
	defer logger.Debug("sse stream closed")

	ctx := r.Context()
	for {
		var err error
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}
			err = utils.SendSSEEvent(w, flusher, "message", StreamEvent{SessionID: sessionID, Message: msg})
		case busy, ok := <-typing:
			if !ok {
				return
			}
			err = utils.SendSSEEvent(w, flusher, "typing", StreamEvent{SessionID: sessionID, Busy: &busy})
		case alerts, ok := <-threats:
			if !ok {
				return
			}
			err = utils.SendSSEEvent(w, flusher, "threats", ThreatsEvent{SessionID: sessionID, Dashboard: intent.NewDashboard(alerts)})
		case t := <-tick:
			err = utils.SendSSEEvent(w, flusher, "heartbeat", StreamEvent{SessionID: sessionID, Time: t.UTC().Format(time.RFC3339)})
		}
		if err != nil {
			logger.Debug("sse write failed", zap.Error(err))
			return
		}
	}
}
