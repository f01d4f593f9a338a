// Package ws serves the live chat loop over a websocket, mirroring the REST
// turn endpoint for frontends that keep a persistent connection.
package ws

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/finpilot/loanflow/backend/internal/orchestrator"
	"github.com/finpilot/loanflow/backend/pkg/utils"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// The frontend runs on a different origin in development.
	CheckOrigin: func(*http.Request) bool { return true },
}

// Handler upgrades chat connections and relays turns to the orchestrator.
type Handler struct {
	orch *orchestrator.Orchestrator
	log  *zap.Logger
}

// New creates the websocket handler.
func New(orch *orchestrator.Orchestrator, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{orch: orch, log: log}
}

// RegisterRoutes mounts the websocket endpoint.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/chat/ws", h.handleConnection)
}

type inbound struct {
	Message string `json:"message"`
}

func (h *Handler) handleConnection(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("sessionId")
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "websocket upgrade failed")
		return
	}
	defer conn.Close()

	h.log.Info("websocket session opened", zap.String("sessionId", sessionID))
	if err := conn.WriteJSON(map[string]string{"sessionId": sessionID}); err != nil {
		return
	}

	for {
		var msg inbound
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Warn("websocket read failed", zap.String("sessionId", sessionID), zap.Error(err))
			}
			return
		}
		if msg.Message == "" {
			continue
		}

		reply, err := h.orch.ProcessTurn(r.Context(), sessionID, msg.Message)
		if err != nil {
			h.log.Error("websocket turn failed", zap.String("sessionId", sessionID), zap.Error(err))
			continue
		}
		if err := conn.WriteJSON(reply); err != nil {
			return
		}
	}
}
