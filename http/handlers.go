package http

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"pigdice/game"
	"pigdice/ws"
)

const (
	defaultLeaderboardLimit = 10
	maxLeaderboardLimit     = 100
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		// In production, check against allowed origins
		// For now, only allow same origin
		return origin == "" || origin == "http://"+r.Host || origin == "https://"+r.Host
	},
}

type Handlers struct {
	registry    *game.Registry
	sessions    *game.SessionStore
	coordinator *ws.Coordinator
}

func NewHandlers(registry *game.Registry, sessions *game.SessionStore, coordinator *ws.Coordinator) *Handlers {
	return &Handlers{
		registry:    registry,
		sessions:    sessions,
		coordinator: coordinator,
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to write JSON response: %v", err)
	}
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ListSessions serves the lobby projection of every active session.
func (h *Handlers) ListSessions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.sessions.List())
}

// ListPlayers serves a snapshot of every connected player.
func (h *Handlers) ListPlayers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.registry.Snapshot())
}

// Leaderboard serves the top players by wins, ties broken by fewer losses.
func (h *Handlers) Leaderboard(w http.ResponseWriter, r *http.Request) {
	limit := defaultLeaderboardLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			http.Error(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}
	if limit > maxLeaderboardLimit {
		limit = maxLeaderboardLimit
	}

	writeJSON(w, http.StatusOK, h.registry.Leaderboard(limit))
}

// HandleWebSocket upgrades the connection and hands it to the coordinator.
// Identity is established by the client's join intent, not here.
func (h *Handlers) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}

	client := ws.NewClient(uuid.NewString(), conn)
	h.coordinator.HandleConnection(client)
}
