package game

import (
	"sort"
	"strings"
	"sync"
	"time"

	"pigdice/random"
)

// idRetries bounds retry-until-unique id generation. The keyspace (36^4)
// dwarfs any realistic player count, so hitting the bound means the registry
// is effectively full and we hand out the last candidate regardless.
const idRetries = 100

// Registry owns every live player identity. It is keyed both by connection
// id and by player id, and the two indexes are kept bijective. Identities
// are created on join and destroyed on disconnect; nothing survives the
// connection.
type Registry struct {
	mu     sync.RWMutex
	byConn map[string]*Player
	byID   map[string]string // player id -> connection id
	rng    random.Source
}

func NewRegistry(rng random.Source) *Registry {
	return &Registry{
		byConn: make(map[string]*Player),
		byID:   make(map[string]string),
		rng:    rng,
	}
}

// Register creates an identity for connID. A requested id is honored only
// if well-formed and free; a requested name is sanitized and falls back to
// a synthesized one. Register always succeeds.
func (r *Registry) Register(connID, requestedID, requestedName, avatar string) Player {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := strings.ToUpper(requestedID)
	if !validRequestedID(id) || r.taken(id) {
		id = r.freshID(playerIDLen)
	}

	name := SanitizeName(requestedName)
	if name == "" {
		name = synthesizeName(r.rng)
	}

	p := &Player{
		ID:       id,
		Name:     name,
		Avatar:   SanitizeName(avatar),
		Status:   StatusLobby,
		JoinedAt: time.Now(),
		ConnID:   connID,
	}

	r.byConn[connID] = p
	r.byID[id] = connID
	return *p
}

func (r *Registry) taken(id string) bool {
	_, ok := r.byID[id]
	return ok
}

func (r *Registry) freshID(length int) string {
	var id string
	for i := 0; i < idRetries; i++ {
		id = r.rng.String(length, idAlphabet)
		if !r.taken(id) {
			break
		}
	}
	return id
}

// ByConn looks up the identity bound to a connection. The copy is safe to
// hold across lock boundaries.
func (r *Registry) ByConn(connID string) (Player, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.byConn[connID]
	if !ok {
		return Player{}, false
	}
	return *p, true
}

// ByID looks up an identity by its durable player id.
func (r *Registry) ByID(playerID string) (Player, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	connID, ok := r.byID[playerID]
	if !ok {
		return Player{}, false
	}
	p, ok := r.byConn[connID]
	if !ok {
		return Player{}, false
	}
	return *p, true
}

// SetStatus moves a player between lobby/playing/watching and records the
// session binding. No-op on unknown ids.
func (r *Registry) SetStatus(playerID, status, sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p := r.locked(playerID); p != nil {
		p.Status = status
		p.SessionID = sessionID
	}
}

// AddWin credits a win. No-op on unknown ids.
func (r *Registry) AddWin(playerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p := r.locked(playerID); p != nil {
		p.Wins++
	}
}

// AddLoss credits a loss. No-op on unknown ids.
func (r *Registry) AddLoss(playerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p := r.locked(playerID); p != nil {
		p.Losses++
	}
}

func (r *Registry) locked(playerID string) *Player {
	connID, ok := r.byID[playerID]
	if !ok {
		return nil
	}
	return r.byConn[connID]
}

// Unregister removes both index directions for a connection. Idempotent.
func (r *Registry) Unregister(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.byConn[connID]
	if !ok {
		return
	}
	delete(r.byID, p.ID)
	delete(r.byConn, connID)
}

// ListByStatus returns a point-in-time snapshot of players in one status.
// Order is unspecified.
func (r *Registry) ListByStatus(status string) []Player {
	r.mu.RLock()
	defer r.mu.RUnlock()

	players := make([]Player, 0)
	for _, p := range r.byConn {
		if p.Status == status {
			players = append(players, *p)
		}
	}
	return players
}

// Snapshot returns a copy of every registered player.
func (r *Registry) Snapshot() []Player {
	r.mu.RLock()
	defer r.mu.RUnlock()

	players := make([]Player, 0, len(r.byConn))
	for _, p := range r.byConn {
		players = append(players, *p)
	}
	return players
}

// Leaderboard ranks players with at least one finished game by wins
// descending, then losses ascending. Recomputed on every call.
func (r *Registry) Leaderboard(limit int) []LeaderboardEntry {
	r.mu.RLock()
	entries := make([]LeaderboardEntry, 0)
	for _, p := range r.byConn {
		if p.Wins == 0 && p.Losses == 0 {
			continue
		}
		entries = append(entries, LeaderboardEntry{
			ID:     p.ID,
			Name:   p.Name,
			Avatar: p.Avatar,
			Wins:   p.Wins,
			Losses: p.Losses,
		})
	}
	r.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Wins != entries[j].Wins {
			return entries[i].Wins > entries[j].Wins
		}
		return entries[i].Losses < entries[j].Losses
	})

	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries
}
