package document

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finpilot/loanflow/backend/internal/model/application"
	"github.com/finpilot/loanflow/backend/internal/model/conversation"
	"github.com/finpilot/loanflow/backend/internal/model/loan"
	"github.com/finpilot/loanflow/backend/internal/orchestrator"
	"github.com/finpilot/loanflow/backend/internal/service/document"
	"github.com/finpilot/loanflow/backend/internal/service/flow"
	"github.com/finpilot/loanflow/backend/internal/service/identity"
	"github.com/finpilot/loanflow/backend/internal/service/session"
	"github.com/finpilot/loanflow/backend/internal/service/underwriting"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	store := session.NewMemoryStore(nil, nil)
	catalog := loan.NewMemoryCatalog(loan.Seed())
	orch := orchestrator.New(orchestrator.Deps{
		Store:    store,
		Machine:  flow.NewMachine(catalog),
		Catalog:  catalog,
		Identity: identity.NewService(identity.NewStubBureau(identity.SeedRecords()), nil),
		Engine:   underwriting.NewEngine(),
	})

	seedSession(t, store, "approved-sess", application.DecisionApproved)
	seedSession(t, store, "rejected-sess", application.DecisionRejected)

	r := chi.NewRouter()
	r.Route("/api", New(orch, document.NewService(nil)).RegisterRoutes)
	return r
}

func seedSession(t *testing.T, store session.Store, sessionID string, decision application.Decision) {
	t.Helper()
	_, err := store.Mutate(context.Background(), sessionID, func(id string) *conversation.Session {
		return &conversation.Session{
			SessionID: id,
			Stage:     conversation.StageCompleted,
			Application: &application.Application{
				ID:             "app-" + id,
				LoanTypeName:   "Personal Loan",
				FullName:       "Asha Verma",
				TenureMonths:   36,
				Decision:       decision,
				ApprovedAmount: 500_000,
				InterestRate:   12.5,
			},
		}
	}, func(*conversation.Session) error { return nil })
	require.NoError(t, err)
}

func TestHandleSanctionLetter(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/documents/approved-sess", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/plain; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "sanction-letter.txt")
	assert.Contains(t, rec.Body.String(), "SANCTION LETTER")
	assert.Contains(t, rec.Body.String(), "Asha Verma")
}

func TestHandleSanctionLetterRejected(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/documents/rejected-sess", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestHandleSanctionLetterMissingSession(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/documents/missing", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
