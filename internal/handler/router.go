package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/zhouzirui/threat-desk/backend/internal/handler/chat"
	"github.com/zhouzirui/threat-desk/backend/internal/handler/live"
	"github.com/zhouzirui/threat-desk/backend/internal/handler/stream"
	threathandler "github.com/zhouzirui/threat-desk/backend/internal/handler/threat"
	middlewarePkg "github.com/zhouzirui/threat-desk/backend/internal/middleware"
	"github.com/zhouzirui/threat-desk/backend/internal/model/threat"
	"github.com/zhouzirui/threat-desk/backend/internal/service/conversation"
	"github.com/zhouzirui/threat-desk/backend/pkg/utils"
)

// NewRouter wires HTTP routes to core services.
func NewRouter(sessions *conversation.Manager, alerts *threat.Feed, heartbeat time.Duration, logger *zap.Logger) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middlewarePkg.Logger(logger))
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]any{
			"status":   "ok",
			"sessions": sessions.Len(),
			"threats":  alerts.Len(),
		})
	})

	chatHandler := chat.New(sessions)
	threatHandler := threathandler.New(alerts, logger)
	streamHandler := stream.New(sessions, alerts, heartbeat, logger)
	wsHandler := live.NewWebSocketHandler(sessions, alerts, logger)

	r.Route("/api", func(api chi.Router) {
		chatHandler.RegisterRoutes(api)
		threatHandler.RegisterRoutes(api)
		streamHandler.RegisterRoutes(api)
		wsHandler.RegisterRoutes(api)
	})

	return r
}
