package server

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handlers holds HTTP handler dependencies.
type Handlers struct {
	Hub    *Hub
	Logger *zap.Logger
}

func NewHandlers(hub *Hub, logger *zap.Logger) *Handlers {
	return &Handlers{Hub: hub, Logger: logger}
}

// Routes registers the gateway's endpoints.
func (h *Handlers) Routes(mux *http.ServeMux) {
	mux.HandleFunc("/ws", h.HandleWS)
	mux.HandleFunc("/healthz", h.HandleHealth)
	mux.HandleFunc("/state", h.HandleState)
}

// HandleWS upgrades the connection and attaches it to the hub.
func (h *Handlers) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.Logger.Warn("ws upgrade error", zap.Error(err))
		return
	}

	client := NewClient(h.Hub, conn, h.Logger)
	h.Hub.register <- client

	go client.WritePump()
	go client.ReadPump()
}

// HandleHealth reports liveness.
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.Write([]byte("ok"))
}

// HandleState returns the public game state as JSON, for polling
// clients and debugging.
func (h *Handlers) HandleState(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(h.Hub.stateMsg()); err != nil {
		h.Logger.Error("state encode error", zap.Error(err))
	}
}
