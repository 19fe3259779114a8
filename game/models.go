package game

import "time"

const (
	StatusLobby    = "lobby"
	StatusPlaying  = "playing"
	StatusWatching = "watching"
)

const (
	// WinThreshold is the banked score that ends a game.
	WinThreshold = 100
	// DiceFaces is the number of faces on the die.
	DiceFaces = 6
)

// Player is a registered identity, valid for the lifetime of its connection.
type Player struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Avatar    string    `json:"avatar,omitempty"`
	Status    string    `json:"status"`
	SessionID string    `json:"sessionId,omitempty"`
	Wins      int       `json:"wins"`
	Losses    int       `json:"losses"`
	JoinedAt  time.Time `json:"joinedAt"`

	// ConnID is the transport connection this identity is bound to.
	// Rebuilt from scratch on every connect; never persisted.
	ConnID string `json:"-"`
}

// PlayerRef is the minimal identification of a player inside session state.
type PlayerRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// LeaderboardEntry is one row of the win/loss ranking.
type LeaderboardEntry struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar,omitempty"`
	Wins   int    `json:"wins"`
	Losses int    `json:"losses"`
}

// SessionState is a full point-in-time copy of one session, safe to hand to
// transport code. Maps are keyed by player id, mirroring the wire format the
// clients consume.
type SessionState struct {
	ID            string            `json:"id"`
	Players       [2]string         `json:"players"`
	PlayerNames   map[string]string `json:"playerNames"`
	Scores        map[string]int    `json:"scores"`
	CurrentScores map[string]int    `json:"currentScores"`
	CurrentPlayer string            `json:"currentPlayer"`
	Playing       bool              `json:"playing"`
	Watchers      []string          `json:"watchers"`
	CreatedAt     time.Time         `json:"createdAt"`
}

// SessionSummary is the lobby-facing projection of a session. It carries
// display names only; player ids never leave the session room.
type SessionSummary struct {
	ID            string         `json:"id"`
	Players       [2]string      `json:"players"`
	Scores        map[string]int `json:"scores"`
	CurrentPlayer string         `json:"currentPlayer"`
	Playing       bool           `json:"playing"`
	Watchers      int            `json:"watchers"`
	CreatedAt     time.Time      `json:"createdAt"`
	CreatedAgo    string         `json:"createdAgo"`
}

// RollResult is the outcome of one dice roll.
type RollResult struct {
	Dice int `json:"dice"`
	// DiceSequence is a cosmetic spin animation for clients; it never
	// affects game state.
	DiceSequence []int        `json:"diceSequence"`
	CurrentScore int          `json:"currentScore"`
	Switch       bool         `json:"switch"`
	Session      SessionState `json:"session"`
}

// HoldResult is the outcome of banking the current score.
type HoldResult struct {
	PlayerID    string       `json:"playerId"`
	BankedScore int          `json:"bankedScore"`
	GameOver    bool         `json:"gameOver"`
	Winner      *PlayerRef   `json:"winner,omitempty"`
	Session     SessionState `json:"session"`
}
