package ws

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"pigdice/game"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1024
)

// Coordinator is the single-writer orchestrator: it owns the registry, the
// session store and the hub, and serializes every inbound intent (connect,
// message, disconnect) to full completion before the next one runs. No
// other code mutates lobby or session state.
type Coordinator struct {
	registry *game.Registry
	sessions *game.SessionStore
	hub      *Hub

	mu      sync.Mutex
	clients map[string]*Client
	// rematches remembers the player pairing of finished sessions so either
	// side can ask for a rematch after teardown. Keyed by the old session id.
	rematches map[string][2]string
}

func NewCoordinator(registry *game.Registry, sessions *game.SessionStore, hub *Hub) *Coordinator {
	return &Coordinator{
		registry:  registry,
		sessions:  sessions,
		hub:       hub,
		clients:   make(map[string]*Client),
		rematches: make(map[string][2]string),
	}
}

// HandleConnection adopts an upgraded websocket and starts its pumps.
func (c *Coordinator) HandleConnection(client *Client) {
	c.Connect(client)

	go c.writePump(client)
	go c.readPump(client)
}

// Connect makes the client addressable for private sends. No identity
// exists until the client issues a join intent.
func (c *Coordinator) Connect(client *Client) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.clients[client.ID] = client
}

func (c *Coordinator) readPump(client *Client) {
	defer func() {
		c.Disconnect(client)
		client.conn.Close()
	}()

	client.conn.SetReadDeadline(time.Now().Add(pongWait))
	client.conn.SetReadLimit(maxMessageSize)
	client.conn.SetPongHandler(func(string) error {
		client.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := client.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}

		var msg IncomingMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			log.Printf("Failed to unmarshal message: %v", err)
			client.Send(OutgoingMessage{Type: EvtError, Payload: ErrorPayload{Message: "invalid message"}})
			continue
		}

		c.Dispatch(client, msg)
	}
}

func (c *Coordinator) writePump(client *Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		client.conn.Close()
	}()

	for {
		select {
		case message, ok := <-client.send:
			client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				client.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := client.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Dispatch processes one inbound intent to completion. Illegal or malformed
// intents answer with a private error event and leave shared state alone.
func (c *Coordinator) Dispatch(client *Client, msg IncomingMessage) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch msg.Type {
	case MsgJoin:
		var p JoinPayload
		if !decode(client, msg.Payload, &p) {
			return
		}
		c.handleJoin(client, p)

	case MsgChallenge:
		var p ChallengePayload
		if !decode(client, msg.Payload, &p) {
			return
		}
		c.handleChallenge(client, p)

	case MsgAccept:
		var p AnswerPayload
		if !decode(client, msg.Payload, &p) {
			return
		}
		c.handleAccept(client, p)

	case MsgDecline:
		var p AnswerPayload
		if !decode(client, msg.Payload, &p) {
			return
		}
		c.handleDecline(client, p)

	case MsgWatch:
		var p SessionPayload
		if !decode(client, msg.Payload, &p) {
			return
		}
		c.handleWatch(client, p)

	case MsgRoll:
		var p SessionPayload
		if !decode(client, msg.Payload, &p) {
			return
		}
		c.handleRoll(client, p)

	case MsgHold:
		var p SessionPayload
		if !decode(client, msg.Payload, &p) {
			return
		}
		c.handleHold(client, p)

	case MsgRematchRequest:
		var p SessionPayload
		if !decode(client, msg.Payload, &p) {
			return
		}
		c.handleRematchRequest(client, p)

	case MsgRematchAccept:
		var p SessionPayload
		if !decode(client, msg.Payload, &p) {
			return
		}
		c.handleRematchAccept(client, p)

	case MsgLeave:
		c.handleLeave(client)

	default:
		log.Printf("Unknown message type: %s", msg.Type)
		sendError(client, "unknown message type")
	}
}

// Disconnect tears down everything tied to a connection: its session (as an
// abort), its watcher membership, its rematch offers and its identity.
// Idempotent; a second call finds nothing to clean up.
func (c *Coordinator) Disconnect(client *Client) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.clients[client.ID]; !ok {
		return
	}
	delete(c.clients, client.ID)

	player, registered := c.registry.ByConn(client.ID)
	if registered {
		switch player.Status {
		case game.StatusPlaying:
			if player.SessionID != "" {
				c.hub.Broadcast(player.SessionID, OutgoingMessage{
					Type:    EvtPlayerDisconnected,
					Payload: PlayerDisconnectedPayload{Name: player.Name},
				})
				c.abortSession(player.SessionID, player.ID)
			}
		case game.StatusWatching:
			c.sessions.RemoveWatcher(player.SessionID, player.ID)
		}

		c.dropRematchesFor(player.ID)
		c.registry.Unregister(client.ID)
		log.Printf("Player %s (%s) disconnected", player.Name, player.ID)
	}

	c.hub.Drop(client)
	close(client.send)

	if registered {
		c.broadcastLobby()
	}
}

func decode(client *Client, raw json.RawMessage, v interface{}) bool {
	if len(raw) == 0 {
		// Payload-free intents decode to zero values.
		return true
	}
	if err := json.Unmarshal(raw, v); err != nil {
		sendError(client, "invalid payload")
		return false
	}
	return true
}

func sendError(client *Client, message string) {
	client.Send(OutgoingMessage{Type: EvtError, Payload: ErrorPayload{Message: message}})
}

func (c *Coordinator) handleJoin(client *Client, p JoinPayload) {
	if existing, ok := c.registry.ByConn(client.ID); ok {
		// Repeated join on the same connection keeps the identity.
		client.Send(OutgoingMessage{Type: EvtJoinOK, Payload: existing})
		c.broadcastLobby()
		return
	}

	player := c.registry.Register(client.ID, p.PlayerID, p.PlayerName, p.Avatar)
	c.hub.Join(LobbyRoom, client)

	client.Send(OutgoingMessage{Type: EvtJoinOK, Payload: player})
	c.broadcastLobby()
	log.Printf("Player %s (%s) joined lobby", player.Name, player.ID)
}

func (c *Coordinator) handleChallenge(client *Client, p ChallengePayload) {
	requester, ok := c.registry.ByConn(client.ID)
	if !ok {
		sendError(client, game.ErrPlayerNotFound.Error())
		return
	}
	target, ok := c.registry.ByID(p.TargetPlayerID)
	if !ok {
		sendError(client, game.ErrPlayerNotFound.Error())
		return
	}
	if requester.Status != game.StatusLobby || target.Status != game.StatusLobby {
		sendError(client, game.ErrNotInLobby.Error())
		return
	}

	c.sendTo(target.ConnID, OutgoingMessage{
		Type:    EvtChallengeIn,
		Payload: ChallengeInPayload{FromID: requester.ID, FromName: requester.Name},
	})
}

func (c *Coordinator) handleAccept(client *Client, p AnswerPayload) {
	accepter, ok := c.registry.ByConn(client.ID)
	if !ok {
		sendError(client, game.ErrPlayerNotFound.Error())
		return
	}
	requester, ok := c.registry.ByID(p.RequesterID)
	if !ok {
		sendError(client, game.ErrPlayerNotFound.Error())
		return
	}

	c.startSession(requester, accepter)
}

// startSession creates a session with first moving first, binds both
// players to it and migrates both connections into the session room.
func (c *Coordinator) startSession(first, second game.Player) {
	state := c.sessions.Create(
		game.PlayerRef{ID: first.ID, Name: first.Name},
		game.PlayerRef{ID: second.ID, Name: second.Name},
	)

	c.registry.SetStatus(first.ID, game.StatusPlaying, state.ID)
	c.registry.SetStatus(second.ID, game.StatusPlaying, state.ID)
	c.dropRematchesFor(first.ID)
	c.dropRematchesFor(second.ID)

	c.moveClient(first.ConnID, LobbyRoom, state.ID)
	c.moveClient(second.ConnID, LobbyRoom, state.ID)

	c.hub.Broadcast(state.ID, OutgoingMessage{Type: EvtGameStarted, Payload: state})
	c.broadcastLobby()
	log.Printf("Game %s started between %s and %s", state.ID, first.Name, second.Name)
}

func (c *Coordinator) handleDecline(client *Client, p AnswerPayload) {
	decliner, ok := c.registry.ByConn(client.ID)
	if !ok {
		sendError(client, game.ErrPlayerNotFound.Error())
		return
	}
	requester, ok := c.registry.ByID(p.RequesterID)
	if !ok {
		return
	}

	c.sendTo(requester.ConnID, OutgoingMessage{
		Type:    EvtChallengeDeclined,
		Payload: ChallengeDeclinedPayload{ByName: decliner.Name},
	})
}

func (c *Coordinator) handleWatch(client *Client, p SessionPayload) {
	player, ok := c.registry.ByConn(client.ID)
	if !ok {
		sendError(client, game.ErrPlayerNotFound.Error())
		return
	}
	if _, ok := c.sessions.Get(p.SessionID); !ok {
		sendError(client, game.ErrSessionNotFound.Error())
		return
	}
	if player.Status != game.StatusLobby {
		sendError(client, "you must be in the lobby to watch games")
		return
	}

	c.sessions.AddWatcher(p.SessionID, player.ID)
	c.registry.SetStatus(player.ID, game.StatusWatching, p.SessionID)
	c.hub.Move(client, LobbyRoom, p.SessionID)

	state, _ := c.sessions.Get(p.SessionID)
	client.Send(OutgoingMessage{Type: EvtWatching, Payload: state})
	c.broadcastLobby()
	log.Printf("%s is now watching game %s", player.Name, p.SessionID)
}

func (c *Coordinator) handleRoll(client *Client, p SessionPayload) {
	if !c.isCurrentTurn(client, p.SessionID) {
		sendError(client, game.ErrNotYourTurn.Error())
		return
	}

	result, err := c.sessions.Roll(p.SessionID)
	if err != nil {
		sendError(client, err.Error())
		return
	}

	c.hub.Broadcast(p.SessionID, OutgoingMessage{Type: EvtDiceRolled, Payload: result})
}

func (c *Coordinator) handleHold(client *Client, p SessionPayload) {
	if !c.isCurrentTurn(client, p.SessionID) {
		sendError(client, game.ErrNotYourTurn.Error())
		return
	}

	result, err := c.sessions.Hold(p.SessionID)
	if err != nil {
		sendError(client, err.Error())
		return
	}

	c.hub.Broadcast(p.SessionID, OutgoingMessage{Type: EvtScoreHeld, Payload: result})

	if result.GameOver {
		c.finishSession(result.Session, result.Winner)
	}
}

// isCurrentTurn re-validates turn legality server-side. The caller's
// registered identity must match the session's current-turn player; the
// client's own claim is never trusted.
func (c *Coordinator) isCurrentTurn(client *Client, sessionID string) bool {
	player, ok := c.registry.ByConn(client.ID)
	if !ok {
		return false
	}
	state, ok := c.sessions.Get(sessionID)
	if !ok {
		return false
	}
	return state.Playing && state.CurrentPlayer == player.ID
}

// finishSession runs end-of-game teardown for a won game: credit the
// records, announce the result, return every participant to the lobby,
// remember the pairing for a possible rematch and drop the session.
func (c *Coordinator) finishSession(state game.SessionState, winner *game.PlayerRef) {
	if winner != nil {
		c.registry.AddWin(winner.ID)
		for _, id := range state.Players {
			if id != winner.ID {
				c.registry.AddLoss(id)
			}
		}
	}

	c.hub.Broadcast(state.ID, OutgoingMessage{
		Type:    EvtGameEnded,
		Payload: GameEndedPayload{Winner: winner, Session: state},
	})

	c.rematches[state.ID] = state.Players

	for _, id := range state.Players {
		c.returnToLobby(id, state.ID)
	}
	for _, id := range state.Watchers {
		c.returnToLobby(id, state.ID)
	}

	c.sessions.End(state.ID)
	c.broadcastLobby()
	log.Printf("Game %s ended", state.ID)
}

// abortSession ends a session because leavingID left or disconnected. The
// remaining player and all watchers go back to the lobby; no result is
// recorded and no rematch is offered.
func (c *Coordinator) abortSession(sessionID, leavingID string) {
	state, ok := c.sessions.Get(sessionID)
	if !ok {
		return
	}

	for _, id := range state.Players {
		if id != leavingID {
			c.returnToLobby(id, sessionID)
		}
	}
	for _, id := range state.Watchers {
		if id != leavingID {
			c.returnToLobby(id, sessionID)
		}
	}

	c.sessions.End(sessionID)
}

// returnToLobby resets one participant's status and migrates its connection
// from the session room back into the lobby room.
func (c *Coordinator) returnToLobby(playerID, sessionID string) {
	player, ok := c.registry.ByID(playerID)
	if !ok {
		return
	}
	c.registry.SetStatus(playerID, game.StatusLobby, "")
	c.moveClient(player.ConnID, sessionID, LobbyRoom)
}

func (c *Coordinator) handleRematchRequest(client *Client, p SessionPayload) {
	requester, opponent, ok := c.rematchPair(client, p.SessionID)
	if !ok {
		return
	}

	c.sendTo(opponent.ConnID, OutgoingMessage{
		Type:    EvtRematchIn,
		Payload: RematchInPayload{SessionID: p.SessionID, FromID: requester.ID, FromName: requester.Name},
	})
}

func (c *Coordinator) handleRematchAccept(client *Client, p SessionPayload) {
	accepter, opponent, ok := c.rematchPair(client, p.SessionID)
	if !ok {
		return
	}

	delete(c.rematches, p.SessionID)
	// The old session is already gone after teardown; End stays a no-op.
	c.sessions.End(p.SessionID)

	c.startSession(opponent, accepter)
}

// rematchPair resolves the caller and its former opponent from a recorded
// finished-session pairing, requiring both back in the lobby.
func (c *Coordinator) rematchPair(client *Client, sessionID string) (caller, opponent game.Player, ok bool) {
	caller, registered := c.registry.ByConn(client.ID)
	if !registered {
		sendError(client, game.ErrPlayerNotFound.Error())
		return game.Player{}, game.Player{}, false
	}

	pair, found := c.rematches[sessionID]
	if !found || (pair[0] != caller.ID && pair[1] != caller.ID) {
		sendError(client, game.ErrSessionNotFound.Error())
		return game.Player{}, game.Player{}, false
	}

	opponentID := pair[0]
	if opponentID == caller.ID {
		opponentID = pair[1]
	}
	opponent, found = c.registry.ByID(opponentID)
	if !found {
		sendError(client, game.ErrPlayerNotFound.Error())
		return game.Player{}, game.Player{}, false
	}
	if caller.Status != game.StatusLobby || opponent.Status != game.StatusLobby {
		sendError(client, game.ErrNotInLobby.Error())
		return game.Player{}, game.Player{}, false
	}
	return caller, opponent, true
}

func (c *Coordinator) handleLeave(client *Client) {
	player, ok := c.registry.ByConn(client.ID)
	if !ok {
		return
	}

	switch player.Status {
	case game.StatusPlaying:
		if player.SessionID != "" {
			c.hub.Broadcast(player.SessionID, OutgoingMessage{
				Type:    EvtPlayerLeft,
				Payload: PlayerLeftPayload{Name: player.Name, GameEnded: true},
			})
			c.abortSession(player.SessionID, player.ID)
			c.moveClient(player.ConnID, player.SessionID, LobbyRoom)
		}
	case game.StatusWatching:
		c.sessions.RemoveWatcher(player.SessionID, player.ID)
		c.moveClient(player.ConnID, player.SessionID, LobbyRoom)
	}

	c.registry.SetStatus(player.ID, game.StatusLobby, "")
	c.broadcastLobby()
}

// broadcastLobby refreshes both lobby listings for everyone in the lobby
// room.
func (c *Coordinator) broadcastLobby() {
	c.hub.Broadcast(LobbyRoom, OutgoingMessage{
		Type:    EvtLobbyPlayers,
		Payload: c.registry.ListByStatus(game.StatusLobby),
	})
	c.hub.Broadcast(LobbyRoom, OutgoingMessage{
		Type:    EvtLobbySessions,
		Payload: c.sessions.List(),
	})
}

func (c *Coordinator) sendTo(connID string, msg OutgoingMessage) {
	if client, ok := c.clients[connID]; ok {
		client.Send(msg)
	}
}

func (c *Coordinator) moveClient(connID, from, to string) {
	if client, ok := c.clients[connID]; ok {
		c.hub.Move(client, from, to)
	}
}

func (c *Coordinator) dropRematchesFor(playerID string) {
	for sessionID, pair := range c.rematches {
		if pair[0] == playerID || pair[1] == playerID {
			delete(c.rematches, sessionID)
		}
	}
}
