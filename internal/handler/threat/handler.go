package threat

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/zhouzirui/threat-desk/backend/internal/feed"
	"github.com/zhouzirui/threat-desk/backend/internal/model/threat"
	"github.com/zhouzirui/threat-desk/backend/pkg/utils"
)

// Handler exposes the active alert feed over HTTP.
type Handler struct {
	feed   *threat.Feed
	logger *zap.Logger
}

// New creates the threat handler.
func New(alerts *threat.Feed, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{feed: alerts, logger: logger}
}

// RegisterRoutes mounts the alert routes on r.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/threats", h.handleList)
	r.Post("/threats", h.handlePush)
	r.Put("/threats", h.handleReplace)
	r.Post("/threats/{threatID}/resolve", h.handleResolve)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.feed.Snapshot())
}

// handlePush accepts one alert or an array of alerts, oldest first.
func (h *Handler) handlePush(w http.ResponseWriter, r *http.Request) {
	update, ok := h.decode(w, r)
	if !ok {
		return
	}
	h.feed.Push(update.Alerts...)
	utils.RespondJSON(w, http.StatusAccepted, h.feed.Snapshot())
}

// handleReplace swaps the whole snapshot; the body must be an array.
func (h *Handler) handleReplace(w http.ResponseWriter, r *http.Request) {
	update, ok := h.decode(w, r)
	if !ok {
		return
	}
	if !update.Snapshot {
		utils.RespondError(w, http.StatusBadRequest, "expected a JSON array of alerts")
		return
	}
	h.feed.Replace(update.Alerts)
	utils.RespondJSON(w, http.StatusOK, h.feed.Snapshot())
}

func (h *Handler) handleResolve(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "threatID")
	if !h.feed.Resolve(id) {
		utils.RespondError(w, http.StatusNotFound, "threat not found")
		return
	}
	h.logger.Info("threat resolved", zap.String("threat_id", id))
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request) (feed.Update, bool) {
	defer r.Body.Close()
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return feed.Update{}, false
	}

	update, err := feed.Decode(body)
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return feed.Update{}, false
	}
	return update, true
}
