package document

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/finpilot/loanflow/backend/internal/orchestrator"
	"github.com/finpilot/loanflow/backend/internal/service/document"
	"github.com/finpilot/loanflow/backend/internal/service/session"
	"github.com/finpilot/loanflow/backend/pkg/utils"
)

// Handler serves sanction letters for approved applications.
type Handler struct {
	orch *orchestrator.Orchestrator
	docs *document.Service
}

// New creates the document handler.
func New(orch *orchestrator.Orchestrator, docs *document.Service) *Handler {
	return &Handler{orch: orch, docs: docs}
}

// RegisterRoutes mounts the document routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/documents/{sessionID}", h.handleSanctionLetter)
}

func (h *Handler) handleSanctionLetter(w http.ResponseWriter, r *http.Request) {
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

	letter, err := h.docs.SanctionLetter(snapshot.Application)
	if errors.Is(err, document.ErrNotApproved) {
		utils.RespondError(w, http.StatusConflict, "application has no approval to document")
		return
	}
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "failed to render letter")
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename=\"sanction-letter.txt\"")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(letter))
}
