package ws

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finpilot/loanflow/backend/internal/model/conversation"
	"github.com/finpilot/loanflow/backend/internal/model/loan"
	"github.com/finpilot/loanflow/backend/internal/orchestrator"
	"github.com/finpilot/loanflow/backend/internal/service/flow"
	"github.com/finpilot/loanflow/backend/internal/service/identity"
	"github.com/finpilot/loanflow/backend/internal/service/session"
	"github.com/finpilot/loanflow/backend/internal/service/underwriting"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	catalog := loan.NewMemoryCatalog(loan.Seed())
	orch := orchestrator.New(orchestrator.Deps{
		Store:    session.NewMemoryStore(nil, nil),
		Machine:  flow.NewMachine(catalog),
		Catalog:  catalog,
		Identity: identity.NewService(identity.NewStubBureau(identity.SeedRecords()), nil),
		Engine:   underwriting.NewEngine(),
	})

	r := chi.NewRouter()
	r.Route("/api", New(orch, nil).RegisterRoutes)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func dialChat(t *testing.T, srv *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/chat/ws" + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	return conn
}

func TestConnectionAnnouncesSessionID(t *testing.T) {
	srv := newTestServer(t)

	conn := dialChat(t, srv, "?sessionId=ws-1")
	var banner map[string]string
	require.NoError(t, conn.ReadJSON(&banner))
	assert.Equal(t, "ws-1", banner["sessionId"])

	anon := dialChat(t, srv, "")
	require.NoError(t, anon.ReadJSON(&banner))
	assert.NotEmpty(t, banner["sessionId"], "missing sessionId query gets a generated one")
}

func TestTurnLoop(t *testing.T) {
	srv := newTestServer(t)
	conn := dialChat(t, srv, "?sessionId=ws-1")

	var banner map[string]string
	require.NoError(t, conn.ReadJSON(&banner))

	require.NoError(t, conn.WriteJSON(map[string]string{"message": "hi"}))
	var reply orchestrator.TurnReply
	require.NoError(t, conn.ReadJSON(&reply))
	assert.Equal(t, conversation.StageLoanType, reply.Stage)
	assert.NotEmpty(t, reply.Reply)

	// An empty message is skipped; the next reply belongs to the real turn.
	require.NoError(t, conn.WriteJSON(map[string]string{"message": ""}))
	require.NoError(t, conn.WriteJSON(map[string]string{"message": "personal loan"}))
	require.NoError(t, conn.ReadJSON(&reply))
	assert.Equal(t, conversation.StageAmount, reply.Stage)
}
