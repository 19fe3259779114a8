package ws

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(id string) *Client {
	return &Client{ID: id, send: make(chan []byte, 64)}
}

type envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// nextEvent pops the next queued outbound message for a client.
func nextEvent(t *testing.T, c *Client) envelope {
	t.Helper()

	select {
	case data, ok := <-c.send:
		require.True(t, ok, "send channel closed")
		var env envelope
		require.NoError(t, json.Unmarshal(data, &env))
		return env
	default:
		t.Fatal("no event queued")
		return envelope{}
	}
}

func drain(c *Client) {
	for {
		select {
		case _, ok := <-c.send:
			if !ok {
				return
			}
		default:
			return
		}
	}
}

func TestHubBroadcastReachesRoomOnly(t *testing.T) {
	h := NewHub()
	a := newTestClient("a")
	b := newTestClient("b")
	c := newTestClient("c")

	h.Join("room1", a)
	h.Join("room1", b)
	h.Join("room2", c)

	h.Broadcast("room1", OutgoingMessage{Type: "ping"})

	assert.Equal(t, "ping", nextEvent(t, a).Type)
	assert.Equal(t, "ping", nextEvent(t, b).Type)
	assert.Empty(t, c.send)
}

func TestHubLeaveCollectsEmptyRooms(t *testing.T) {
	h := NewHub()
	a := newTestClient("a")

	h.Join("room1", a)
	assert.Equal(t, 1, h.RoomSize("room1"))

	h.Leave("room1", a)
	assert.Equal(t, 0, h.RoomSize("room1"))

	// Leaving again, or leaving a room that never existed, is fine
	h.Leave("room1", a)
	h.Leave("ghost", a)
}

func TestHubMove(t *testing.T) {
	h := NewHub()
	a := newTestClient("a")

	h.Join(LobbyRoom, a)
	h.Move(a, LobbyRoom, "GAME01")

	assert.Equal(t, 0, h.RoomSize(LobbyRoom))
	assert.Equal(t, 1, h.RoomSize("GAME01"))
}

func TestHubDropRemovesFromAllRooms(t *testing.T) {
	h := NewHub()
	a := newTestClient("a")

	h.Join("room1", a)
	h.Join("room2", a)
	h.Drop(a)

	assert.Equal(t, 0, h.RoomSize("room1"))
	assert.Equal(t, 0, h.RoomSize("room2"))
}

func TestHubBroadcastSkipsSlowClient(t *testing.T) {
	h := NewHub()
	slow := &Client{ID: "slow", send: make(chan []byte)} // no reader, zero buffer
	ok := newTestClient("ok")

	h.Join("room1", slow)
	h.Join("room1", ok)

	// Must not block on the stalled client.
	h.Broadcast("room1", OutgoingMessage{Type: "ping"})

	assert.Equal(t, "ping", nextEvent(t, ok).Type)
}
