package ws

import (
	"encoding/json"

	"pigdice/game"
)

// Inbound intent types.
const (
	MsgJoin           = "join"
	MsgChallenge      = "challenge"
	MsgAccept         = "accept"
	MsgDecline        = "decline"
	MsgWatch          = "watch"
	MsgRoll           = "roll"
	MsgHold           = "hold"
	MsgRematchRequest = "rematch_request"
	MsgRematchAccept  = "rematch_accept"
	MsgLeave          = "leave"
)

// Outbound event types.
const (
	EvtJoinOK             = "join_ok"
	EvtLobbyPlayers       = "lobby_players"
	EvtLobbySessions      = "lobby_sessions"
	EvtChallengeIn        = "challenge_in"
	EvtChallengeDeclined  = "challenge_declined"
	EvtRematchIn          = "rematch_in"
	EvtGameStarted        = "game_started"
	EvtWatching           = "watching"
	EvtDiceRolled         = "dice_rolled"
	EvtScoreHeld          = "score_held"
	EvtGameEnded          = "game_ended"
	EvtPlayerLeft         = "player_left"
	EvtPlayerDisconnected = "player_disconnected"
	EvtError              = "error"
)

type IncomingMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type OutgoingMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// Inbound payloads.

type JoinPayload struct {
	PlayerID   string `json:"playerId"`
	PlayerName string `json:"playerName"`
	Avatar     string `json:"avatar"`
}

type ChallengePayload struct {
	TargetPlayerID string `json:"targetPlayerId"`
}

type AnswerPayload struct {
	RequesterID string `json:"requesterId"`
}

// SessionPayload is shared by watch, roll, hold and the rematch intents.
type SessionPayload struct {
	SessionID string `json:"sessionId"`
}

// Outbound payloads.

type ChallengeInPayload struct {
	FromID   string `json:"fromId"`
	FromName string `json:"fromName"`
}

type ChallengeDeclinedPayload struct {
	ByName string `json:"byName"`
}

type RematchInPayload struct {
	SessionID string `json:"sessionId"`
	FromID    string `json:"fromId"`
	FromName  string `json:"fromName"`
}

type GameEndedPayload struct {
	Winner  *game.PlayerRef   `json:"winner"`
	Session game.SessionState `json:"session"`
}

type PlayerLeftPayload struct {
	Name      string `json:"name"`
	GameEnded bool   `json:"gameEnded"`
}

type PlayerDisconnectedPayload struct {
	Name string `json:"name"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}
