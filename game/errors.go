package game

import "errors"

var (
	ErrPlayerNotFound  = errors.New("player not found")
	ErrSessionNotFound = errors.New("game not found")
	ErrNotYourTurn     = errors.New("not your turn or game not active")
	ErrNotInLobby      = errors.New("one or both players are not available")
)
