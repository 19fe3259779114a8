package game

import (
	"sort"
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	"pigdice/random"
)

// spinLength is how many cosmetic dice values precede the real roll in the
// client-side spin animation.
const spinLength = 5

type session struct {
	id            string
	players       [2]string
	playerNames   map[string]string
	scores        map[string]int
	currentScores map[string]int
	currentPlayer string
	playing       bool
	watchers      map[string]bool
	createdAt     time.Time
	lastActivity  time.Time
}

// SessionStore owns every active session and implements the dice, turn and
// scoring rules. All state is in-memory; a session exists from Create until
// End and never outlives the process.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*session
	rng      random.Source
}

func NewSessionStore(rng random.Source) *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*session),
		rng:      rng,
	}
}

// Create starts a session between a and b, with a holding the first turn.
func (s *SessionStore) Create(a, b PlayerRef) SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.freshID()
	now := time.Now()
	sess := &session{
		id:            id,
		players:       [2]string{a.ID, b.ID},
		playerNames:   map[string]string{a.ID: a.Name, b.ID: b.Name},
		scores:        map[string]int{a.ID: 0, b.ID: 0},
		currentScores: map[string]int{a.ID: 0, b.ID: 0},
		currentPlayer: a.ID,
		playing:       true,
		watchers:      make(map[string]bool),
		createdAt:     now,
		lastActivity:  now,
	}
	s.sessions[id] = sess
	return sess.state()
}

func (s *SessionStore) freshID() string {
	var id string
	for i := 0; i < idRetries; i++ {
		id = s.rng.String(sessionIDLen, idAlphabet)
		if _, taken := s.sessions[id]; !taken {
			break
		}
	}
	return id
}

// Roll draws one die for the current-turn player. A 1 wipes the unbanked
// score and flips the turn; anything else accumulates. Rolling never ends
// the game.
func (s *SessionStore) Roll(sessionID string) (RollResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok || !sess.playing {
		return RollResult{}, ErrSessionNotFound
	}

	dice := s.rng.Intn(DiceFaces) + 1
	sequence := make([]int, spinLength)
	for i := range sequence {
		sequence[i] = s.rng.Intn(DiceFaces) + 1
	}

	actor := sess.currentPlayer
	sess.lastActivity = time.Now()

	if dice == 1 {
		sess.currentScores[actor] = 0
		sess.switchPlayer()
		return RollResult{
			Dice:         dice,
			DiceSequence: sequence,
			CurrentScore: 0,
			Switch:       true,
			Session:      sess.state(),
		}, nil
	}

	sess.currentScores[actor] += dice
	return RollResult{
		Dice:         dice,
		DiceSequence: sequence,
		CurrentScore: sess.currentScores[actor],
		Switch:       false,
		Session:      sess.state(),
	}, nil
}

// Hold banks the current-turn player's unbanked score. Reaching the win
// threshold ends the game and names the winner; otherwise the turn flips.
func (s *SessionStore) Hold(sessionID string) (HoldResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok || !sess.playing {
		return HoldResult{}, ErrSessionNotFound
	}

	actor := sess.currentPlayer
	sess.lastActivity = time.Now()
	sess.scores[actor] += sess.currentScores[actor]
	sess.currentScores[actor] = 0

	if sess.scores[actor] >= WinThreshold {
		sess.playing = false
		return HoldResult{
			PlayerID:    actor,
			BankedScore: sess.scores[actor],
			GameOver:    true,
			Winner:      &PlayerRef{ID: actor, Name: sess.playerNames[actor]},
			Session:     sess.state(),
		}, nil
	}

	banked := sess.scores[actor]
	sess.switchPlayer()
	return HoldResult{
		PlayerID:    actor,
		BankedScore: banked,
		GameOver:    false,
		Session:     sess.state(),
	}, nil
}

func (sess *session) switchPlayer() {
	if sess.currentPlayer == sess.players[0] {
		sess.currentPlayer = sess.players[1]
	} else {
		sess.currentPlayer = sess.players[0]
	}
}

// AddWatcher attaches a spectator. Idempotent; no-op on missing sessions.
func (s *SessionStore) AddWatcher(sessionID, playerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.sessions[sessionID]; ok {
		sess.watchers[playerID] = true
	}
}

// RemoveWatcher detaches a spectator. Idempotent; no-op on missing sessions.
func (s *SessionStore) RemoveWatcher(sessionID, playerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.sessions[sessionID]; ok {
		delete(sess.watchers, playerID)
	}
}

// End removes a session. Idempotent.
func (s *SessionStore) End(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, sessionID)
}

// Get returns a full snapshot of one session.
func (s *SessionStore) Get(sessionID string) (SessionState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return SessionState{}, false
	}
	return sess.state(), true
}

// List projects every session for lobby display, newest first. The
// projection carries display names only, never player ids.
func (s *SessionStore) List() []SessionSummary {
	s.mu.RLock()
	summaries := make([]SessionSummary, 0, len(s.sessions))
	for _, sess := range s.sessions {
		scores := make(map[string]int, 2)
		for _, id := range sess.players {
			scores[sess.playerNames[id]] = sess.scores[id]
		}
		summaries = append(summaries, SessionSummary{
			ID:            sess.id,
			Players:       [2]string{sess.playerNames[sess.players[0]], sess.playerNames[sess.players[1]]},
			Scores:        scores,
			CurrentPlayer: sess.playerNames[sess.currentPlayer],
			Playing:       sess.playing,
			Watchers:      len(sess.watchers),
			CreatedAt:     sess.createdAt,
			CreatedAgo:    humanize.Time(sess.createdAt),
		})
	}
	s.mu.RUnlock()

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].CreatedAt.After(summaries[j].CreatedAt)
	})
	return summaries
}

func (sess *session) state() SessionState {
	names := make(map[string]string, len(sess.playerNames))
	for id, name := range sess.playerNames {
		names[id] = name
	}
	scores := make(map[string]int, len(sess.scores))
	for id, v := range sess.scores {
		scores[id] = v
	}
	current := make(map[string]int, len(sess.currentScores))
	for id, v := range sess.currentScores {
		current[id] = v
	}
	watchers := make([]string, 0, len(sess.watchers))
	for id := range sess.watchers {
		watchers = append(watchers, id)
	}
	return SessionState{
		ID:            sess.id,
		Players:       sess.players,
		PlayerNames:   names,
		Scores:        scores,
		CurrentScores: current,
		CurrentPlayer: sess.currentPlayer,
		Playing:       sess.playing,
		Watchers:      watchers,
		CreatedAt:     sess.createdAt,
	}
}
