package chat

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/finpilot/loanflow/backend/internal/orchestrator"
	"github.com/finpilot/loanflow/backend/internal/service/session"
	"github.com/finpilot/loanflow/backend/pkg/utils"
)

// Handler exposes the conversation endpoints.
type Handler struct {
	orch *orchestrator.Orchestrator
}

// New creates the chat handler.
func New(orch *orchestrator.Orchestrator) *Handler {
	return &Handler{orch: orch}
}

// RegisterRoutes mounts the chat routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/chat", h.handleTurn)
	r.Get("/chat/stream", h.handleTurnStream)
	r.Get("/sessions/{sessionID}", h.handleSnapshot)
}

type turnRequest struct {
	SessionID string `json:"sessionId"`
	Message   string `json:"message"`
}

func (r turnRequest) validate() error {
	if strings.TrimSpace(r.SessionID) == "" {
		return errors.New("sessionId is required")
	}
	if strings.TrimSpace(r.Message) == "" {
		return errors.New("message is required")
	}
	return nil
}

// handleTurn processes one chat turn synchronously.
func (h *Handler) handleTurn(w http.ResponseWriter, r *http.Request) {
	var payload turnRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := payload.validate(); err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	reply, err := h.orch.ProcessTurn(r.Context(), payload.SessionID, payload.Message)
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "failed to process message")
		return
	}
	utils.RespondJSON(w, http.StatusOK, reply)
}

// handleTurnStream processes one turn and emits the result over SSE, so the
// frontend can keep a single streaming code path for both canned and
// LLM-phrased replies.
func (h *Handler) handleTurnStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	payload := turnRequest{
		SessionID: r.URL.Query().Get("sessionId"),
		Message:   r.URL.Query().Get("message"),
	}
	if err := payload.validate(); err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	utils.SetupSSEHeaders(w)
	utils.SendSSEEvent(w, flusher, "status", map[string]string{"state": "processing"})

	reply, err := h.orch.ProcessTurn(r.Context(), payload.SessionID, payload.Message)
	if err != nil {
		utils.SendSSEEvent(w, flusher, "error", map[string]string{"error": "failed to process message"})
		return
	}

	utils.SendSSEEvent(w, flusher, "reply", reply)
	utils.SendSSEEvent(w, flusher, "done", map[string]bool{"isTerminal": reply.Terminal})
}

// handleSnapshot returns the current session state.
func (h *Handler) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	snapshot, err := h.orch.Snapshot(r.Context(), sessionID)
	if errors.Is(err, session.ErrSessionNotFound) {
		utils.RespondError(w, http.StatusNotFound, "session not found")
		return
	}
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "failed to load session")
		return
	}
	utils.RespondJSON(w, http.StatusOK, snapshot)
}
