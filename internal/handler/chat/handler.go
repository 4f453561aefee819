package chat

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/threat-desk/backend/internal/model/threat"
	"github.com/zhouzirui/threat-desk/backend/internal/service/conversation"
	"github.com/zhouzirui/threat-desk/backend/pkg/utils"
)

// Handler exposes conversations over HTTP.
type Handler struct {
	sessions *conversation.Manager
}

// New creates the chat handler.
func New(sessions *conversation.Manager) *Handler {
	return &Handler{sessions: sessions}
}

// RegisterRoutes mounts the session routes on r.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/session", h.handleCreateSession)
	r.Route("/session/{sessionID}", func(r chi.Router) {
		r.Delete("/", h.handleDeleteSession)
		r.Get("/messages", h.handleListMessages)
		r.Post("/messages", h.handleSubmit)
		r.Post("/reset", h.handleReset)
		r.Get("/state", h.handleState)
		r.Get("/suggestions", h.handleSuggestions)
		r.Post("/threats/{threatID}/resolve", h.handleResolveThreat)
	})
}

type stateResponse struct {
	SessionID string      `json:"sessionId"`
	Busy      bool        `json:"busy"`
	State     string      `json:"state"`
	Messages  interface{} `json:"messages"`
}

func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	ctrl, err := h.sessions.CreateSession(r.Context())
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusCreated, map[string]interface{}{
		"session":  ctrl.Session(),
		"messages": ctrl.Messages(),
	})
}

func (h *Handler) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.DeleteSession(r.Context(), chi.URLParam(r, "sessionID")); err != nil {
		respondSessionError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleListMessages(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := h.lookup(w, r)
	if !ok {
		return
	}
	utils.RespondJSON(w, http.StatusOK, ctrl.Messages())
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := h.lookup(w, r)
	if !ok {
		return
	}

	var payload struct {
		Content string `json:"content"`
	}
	if err := utils.DecodeJSON(r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	switch err := ctrl.Submit(payload.Content); {
	case errors.Is(err, conversation.ErrEmptyInput):
		utils.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, conversation.ErrBusy):
		utils.RespondError(w, http.StatusConflict, err.Error())
	case err != nil:
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
	default:
		utils.RespondJSON(w, http.StatusAccepted, map[string]string{"status": "thinking"})
	}
}

func (h *Handler) handleReset(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := h.lookup(w, r)
	if !ok {
		return
	}
	ctrl.Reset()
	utils.RespondJSON(w, http.StatusOK, ctrl.Messages())
}

func (h *Handler) handleState(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := h.lookup(w, r)
	if !ok {
		return
	}
	state := ctrl.State()
	utils.RespondJSON(w, http.StatusOK, stateResponse{
		SessionID: ctrl.Session().ID,
		Busy:      state == conversation.AwaitingResponse,
		State:     state.String(),
		Messages:  ctrl.Messages(),
	})
}

func (h *Handler) handleSuggestions(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := h.lookup(w, r)
	if !ok {
		return
	}
	utils.RespondJSON(w, http.StatusOK, ctrl.Suggestions())
}

func (h *Handler) handleResolveThreat(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := h.lookup(w, r)
	if !ok {
		return
	}

	switch err := ctrl.ResolveThreat(r.Context(), chi.URLParam(r, "threatID")); {
	case errors.Is(err, threat.ErrNotFound):
		utils.RespondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, conversation.ErrResolveUnavailable):
		utils.RespondError(w, http.StatusServiceUnavailable, err.Error())
	case err != nil:
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

func (h *Handler) lookup(w http.ResponseWriter, r *http.Request) (*conversation.Controller, bool) {
	ctrl, err := h.sessions.GetSession(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		respondSessionError(w, err)
		return nil, false
	}
	return ctrl, true
}

func respondSessionError(w http.ResponseWriter, err error) {
	if errors.Is(err, conversation.ErrSessionNotFound) {
		utils.RespondError(w, http.StatusNotFound, err.Error())
		return
	}
	utils.RespondError(w, http.StatusInternalServerError, err.Error())
}
