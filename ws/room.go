package ws

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/gorilla/websocket"
)

// Client is one live connection. ID is the ephemeral connection id, not the
// player id; the registry maps between the two.
type Client struct {
	ID   string
	conn *websocket.Conn
	send chan []byte
}

func NewClient(id string, conn *websocket.Conn) *Client {
	return &Client{
		ID:   id,
		conn: conn,
		send: make(chan []byte, 256),
	}
}

// Send enqueues a message for the client without blocking. A client that
// cannot keep up is skipped rather than stalling the caller.
func (c *Client) Send(msg OutgoingMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("Failed to marshal message: %v", err)
		return
	}

	select {
	case c.send <- data:
	default:
		log.Printf("Client %s send buffer full", c.ID)
	}
}

// LobbyRoom groups every lobby-status connection; each session gets its own
// room keyed by session id.
const LobbyRoom = "lobby"

// Hub tracks named-room membership for broadcast grouping. It knows nothing
// about game rules; the coordinator decides who belongs where.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[*Client]bool
}

func NewHub() *Hub {
	return &Hub{
		rooms: make(map[string]map[*Client]bool),
	}
}

func (h *Hub) Join(room string, client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	members, ok := h.rooms[room]
	if !ok {
		members = make(map[*Client]bool)
		h.rooms[room] = members
	}
	members[client] = true
}

func (h *Hub) Leave(room string, client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.leaveLocked(room, client)
}

func (h *Hub) leaveLocked(room string, client *Client) {
	members, ok := h.rooms[room]
	if !ok {
		return
	}
	delete(members, client)
	if len(members) == 0 {
		delete(h.rooms, room)
	}
}

// Move atomically switches a client between rooms.
func (h *Hub) Move(client *Client, from, to string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.leaveLocked(from, client)
	members, ok := h.rooms[to]
	if !ok {
		members = make(map[*Client]bool)
		h.rooms[to] = members
	}
	members[client] = true
}

// Drop removes a client from every room it is in.
func (h *Hub) Drop(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for room := range h.rooms {
		h.leaveLocked(room, client)
	}
}

// Broadcast sends a message to every client in a room.
func (h *Hub) Broadcast(room string, msg OutgoingMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("Failed to marshal broadcast: %v", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.rooms[room] {
		select {
		case client.send <- data:
		default:
			log.Printf("Client %s send buffer full", client.ID)
		}
	}
}

// RoomSize reports current membership of a room.
func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}
