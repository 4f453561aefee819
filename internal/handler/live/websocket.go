package live

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/zhouzirui/threat-desk/backend/internal/analysis/intent"
	"github.com/zhouzirui/threat-desk/backend/internal/model/chat"
	"github.com/zhouzirui/threat-desk/backend/internal/model/threat"
	"github.com/zhouzirui/threat-desk/backend/internal/service/conversation"
)

const (
	pongWait   = 60 * time.Second
	pingPeriod = 25 * time.Second
	writeWait  = 10 * time.Second
)

// WebSocketHandler runs a conversation over a websocket: the dashboard sends
// user turns and receives every history update, typing transition and alert
// list change.
type WebSocketHandler struct {
	sessions *conversation.Manager
	alerts   threat.Stream
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

// NewWebSocketHandler creates the websocket handler. A nil alerts disables
// the threats frames.
func NewWebSocketHandler(sessions *conversation.Manager, alerts threat.Stream, logger *zap.Logger) *WebSocketHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebSocketHandler{
		sessions: sessions,
		alerts:   alerts,
		logger:   logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes mounts the websocket route on r.
func (h *WebSocketHandler) RegisterRoutes(r chi.Router) {
	r.Get("/ws/{sessionID}", h.handleWebSocket)
}

type inboundMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// TextMessage carries a user turn.
type TextMessage struct {
	Text string `json:"text"`
}

type outgoingMessage struct {
	Type      string      `json:"type"`
	SessionID string      `json:"sessionId"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

func (h *WebSocketHandler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	ctrl, err := h.sessions.GetSession(r.Context(), sessionID)
	if err != nil {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	logger := h.logger.With(zap.String("session_id", sessionID))
	logger.Info("websocket connected")
	defer logger.Info("websocket disconnected")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	history, messages, stopMessages := ctrl.FollowMessages()
	defer stopMessages()
	typing, stopTyping := ctrl.SubscribeTyping()
	defer stopTyping()

	var threats <-chan []threat.Alert
	replies := make(chan outgoingMessage, 8)
	replies <- h.envelope(sessionID, "history", history)
	if h.alerts != nil {
		var stopThreats func()
		threats, stopThreats = h.alerts.Subscribe()
		defer stopThreats()
		replies <- h.envelope(sessionID, "threats", intent.NewDashboard(h.alerts.Snapshot()))
	}

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		// Closing the conn unblocks the reader when the writer fails first.
		defer conn.Close()
		defer cancel()
		h.writeLoop(ctx, conn, sessionID, messages, typing, threats, replies, logger)
	}()

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	h.readLoop(ctx, conn, ctrl, replies, logger)
	cancel()
	<-writerDone
}

func (h *WebSocketHandler) readLoop(ctx context.Context, conn *websocket.Conn, ctrl *conversation.Controller, replies chan<- outgoingMessage, logger *zap.Logger) {
	sessionID := ctrl.Session().ID
	for {
		var msg inboundMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				logger.Warn("websocket read failed", zap.Error(err))
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(pongWait))

		var reply *outgoingMessage
		switch msg.Type {
		case "message":
			var text TextMessage
			if err := json.Unmarshal(msg.Data, &text); err != nil {
				reply = h.errorEnvelope(sessionID, "invalid message payload")
				break
			}
			if err := ctrl.Submit(text.Text); err != nil {
				reply = h.errorEnvelope(sessionID, err.Error())
			}
		case "reset":
			ctrl.Reset()
		case "suggestions":
			env := h.envelope(sessionID, "suggestions", ctrl.Suggestions())
			reply = &env
		default:
			reply = h.errorEnvelope(sessionID, "unsupported message type: "+msg.Type)
		}

		if reply == nil {
			continue
		}
		select {
		case replies <- *reply:
		case <-ctx.Done():
			return
		}
	}
}

func (h *WebSocketHandler) writeLoop(ctx context.Context, conn *websocket.Conn, sessionID string, messages <-chan chat.Message, typing <-chan bool, threats <-chan []threat.Alert, replies <-chan outgoingMessage, logger *zap.Logger) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		var out outgoingMessage
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}
			out = h.envelope(sessionID, "message", msg)
		case busy, ok := <-typing:
			if !ok {
				return
			}
			out = h.envelope(sessionID, "typing", map[string]bool{"busy": busy})
		case alerts, ok := <-threats:
			if !ok {
				return
			}
			out = h.envelope(sessionID, "threats", intent.NewDashboard(alerts))
		case out = <-replies:
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				logger.Debug("websocket ping failed", zap.Error(err))
				return
			}
			continue
		}

		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(out); err != nil {
			logger.Debug("websocket write failed", zap.Error(err))
			return
		}
	}
}

func (h *WebSocketHandler) envelope(sessionID, typ string, data interface{}) outgoingMessage {
	return outgoingMessage{
		Type:      typ,
		SessionID: sessionID,
		Data:      data,
		Timestamp: time.Now().UnixMilli(),
	}
}

func (h *WebSocketHandler) errorEnvelope(sessionID, message string) *outgoingMessage {
	env := h.envelope(sessionID, "error", map[string]string{"message": message})
	return &env
}
