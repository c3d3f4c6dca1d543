package chat

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dkarki/twinfolio/internal/analytics"
	"github.com/dkarki/twinfolio/internal/service/action"
	"github.com/dkarki/twinfolio/internal/service/pipeline"
	"github.com/dkarki/twinfolio/pkg/utils"
)

// ToolHealth probes the external data tools; nil when none are wired.
type ToolHealth interface {
	Health(ctx context.Context) map[string]bool
}

// Handler serves the main question-answering endpoint plus session reads.
type Handler struct {
	pipeline *pipeline.Service
	recorder *analytics.Recorder
	identity action.HeaderIdentity
	health   map[string]bool
	tools    ToolHealth
}

// New builds the chat handler. health reports which optional subsystems
// were configured at startup.
func New(pipelineSvc *pipeline.Service, recorder *analytics.Recorder, health map[string]bool, tools ToolHealth) *Handler {
	return &Handler{pipeline: pipelineSvc, recorder: recorder, health: health, tools: tools}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/chat", h.handleChat)
	r.Get("/sessions/{sessionID}/history", h.handleHistory)
	r.Get("/sessions/{sessionID}/stats", h.handleStats)
	r.Get("/analytics", h.handleAnalytics)
	r.Get("/health", h.handleHealth)
}

func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Message      string `json:"message"`
		SessionID    string `json:"sessionId"`
		LanguageHint string `json:"languageHint"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if payload.Message == "" {
		utils.RespondError(w, http.StatusBadRequest, "message is required")
		return
	}

	response := h.pipeline.Handle(r.Context(), pipeline.Request{
		Message:      payload.Message,
		SessionID:    payload.SessionID,
		LanguageHint: payload.LanguageHint,
		User:         h.identity.FromRequest(r),
	})

	utils.RespondJSON(w, http.StatusOK, response)
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	turns := h.pipeline.History(sessionID)
	if turns == nil {
		utils.RespondError(w, http.StatusNotFound, "session not found")
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]any{"sessionId": sessionID, "turns": turns})
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	utils.RespondJSON(w, http.StatusOK, h.pipeline.Stats(sessionID))
}

func (h *Handler) handleAnalytics(w http.ResponseWriter, _ *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.recorder.Stats())
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	payload := map[string]any{
		"status":     "ok",
		"subsystems": h.health,
	}
	if h.tools != nil {
		payload["tools"] = h.tools.Health(r.Context())
	}
	utils.RespondJSON(w, http.StatusOK, payload)
}
