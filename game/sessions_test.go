package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pigdice/random"
)

var (
	p1 = PlayerRef{ID: "AAAA", Name: "Alice"}
	p2 = PlayerRef{ID: "BBBB", Name: "Bob"}
)

func newTestStore() (*SessionStore, *random.Scripted) {
	rng := &random.Scripted{}
	return NewSessionStore(rng), rng
}

// queueRoll scripts one Roll call: the die itself plus the cosmetic spin
// sequence draws.
func queueRoll(rng *random.Scripted, dice int) {
	rng.QueueIntn(dice - 1)
	for i := 0; i < spinLength; i++ {
		rng.QueueIntn(0)
	}
}

func TestCreateInitialState(t *testing.T) {
	s, _ := newTestStore()

	state := s.Create(p1, p2)
	assert.Len(t, state.ID, 6)
	assert.Equal(t, [2]string{"AAAA", "BBBB"}, state.Players)
	assert.Equal(t, "AAAA", state.CurrentPlayer, "the challenged pair starts with the first player to move")
	assert.True(t, state.Playing)
	assert.Equal(t, 0, state.Scores["AAAA"])
	assert.Equal(t, 0, state.Scores["BBBB"])
	assert.Equal(t, 0, state.CurrentScores["AAAA"])
	assert.Empty(t, state.Watchers)
	assert.Equal(t, "Alice", state.PlayerNames["AAAA"])
}

func TestRollUnknownSession(t *testing.T) {
	s, _ := newTestStore()

	_, err := s.Roll("NOPE")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	_, err = s.Hold("NOPE")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestRollOneWipesAndSwitches(t *testing.T) {
	s, rng := newTestStore()
	state := s.Create(p1, p2)

	queueRoll(rng, 4)
	queueRoll(rng, 1)

	result, err := s.Roll(state.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, result.Dice)
	assert.Equal(t, 4, result.CurrentScore)
	assert.False(t, result.Switch)
	assert.Equal(t, "AAAA", result.Session.CurrentPlayer)

	result, err = s.Roll(state.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Dice)
	assert.Equal(t, 0, result.CurrentScore)
	assert.True(t, result.Switch)
	assert.Equal(t, "BBBB", result.Session.CurrentPlayer)
	assert.Equal(t, 0, result.Session.CurrentScores["AAAA"])
	assert.True(t, result.Session.Playing, "a 1 never ends the game")
}

func TestRollAccumulatesThenHoldBanks(t *testing.T) {
	s, rng := newTestStore()
	state := s.Create(p1, p2)

	for _, dice := range []int{4, 5, 6} {
		queueRoll(rng, dice)
	}

	var result RollResult
	var err error
	for range 3 {
		result, err = s.Roll(state.ID)
		require.NoError(t, err)
		assert.False(t, result.Switch)
		assert.Equal(t, "AAAA", result.Session.CurrentPlayer, "non-1 rolls keep the turn")
	}
	assert.Equal(t, 15, result.CurrentScore)

	hold, err := s.Hold(state.ID)
	require.NoError(t, err)
	assert.Equal(t, "AAAA", hold.PlayerID)
	assert.Equal(t, 15, hold.BankedScore)
	assert.False(t, hold.GameOver)
	assert.Equal(t, 15, hold.Session.Scores["AAAA"])
	assert.Equal(t, 0, hold.Session.CurrentScores["AAAA"])
	assert.Equal(t, "BBBB", hold.Session.CurrentPlayer)
}

func TestHoldReachingThresholdWins(t *testing.T) {
	s, rng := newTestStore()
	state := s.Create(p1, p2)

	// Bank 96 for Alice in chunks of 6, alternating with Bob holding zero.
	for range 16 {
		queueRoll(rng, 6)
	}
	for range 16 {
		_, err := s.Roll(state.ID)
		require.NoError(t, err)
	}
	hold, err := s.Hold(state.ID)
	require.NoError(t, err)
	require.Equal(t, 96, hold.Session.Scores["AAAA"])
	require.False(t, hold.GameOver)

	// Bob passes the turn back.
	_, err = s.Hold(state.ID)
	require.NoError(t, err)

	queueRoll(rng, 4)
	roll, err := s.Roll(state.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, roll.CurrentScore)

	win, err := s.Hold(state.ID)
	require.NoError(t, err)
	assert.True(t, win.GameOver)
	assert.Equal(t, 100, win.Session.Scores["AAAA"])
	assert.False(t, win.Session.Playing)
	require.NotNil(t, win.Winner)
	assert.Equal(t, "AAAA", win.Winner.ID)
	assert.Equal(t, "Alice", win.Winner.Name)
}

func TestFinishedSessionRejectsActions(t *testing.T) {
	s, rng := newTestStore()
	state := s.Create(p1, p2)

	for range 17 {
		queueRoll(rng, 6)
	}
	// 17 sixes = 102 unbanked, then hold wins outright.
	for range 17 {
		_, err := s.Roll(state.ID)
		require.NoError(t, err)
	}
	win, err := s.Hold(state.ID)
	require.NoError(t, err)
	require.True(t, win.GameOver)

	_, err = s.Roll(state.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = s.Hold(state.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestTurnAlternation(t *testing.T) {
	s, rng := newTestStore()
	state := s.Create(p1, p2)

	// Non-winning hold flips the turn back and forth.
	current := "AAAA"
	other := "BBBB"
	for range 4 {
		hold, err := s.Hold(state.ID)
		require.NoError(t, err)
		assert.Equal(t, other, hold.Session.CurrentPlayer)
		current, other = other, current
	}

	// A 1 flips as well.
	queueRoll(rng, 1)
	roll, err := s.Roll(state.ID)
	require.NoError(t, err)
	assert.Equal(t, other, roll.Session.CurrentPlayer)
}

func TestDiceSequenceIsCosmetic(t *testing.T) {
	s, rng := newTestStore()
	state := s.Create(p1, p2)

	rng.QueueIntn(3)             // the die: a 4
	rng.QueueIntn(0, 5, 2, 4, 1) // spin values
	result, err := s.Roll(state.ID)
	require.NoError(t, err)

	assert.Equal(t, []int{1, 6, 3, 5, 2}, result.DiceSequence)
	assert.Equal(t, 4, result.Dice)
	assert.Equal(t, 4, result.CurrentScore, "spin values never touch the score")
}

func TestWatchersIdempotent(t *testing.T) {
	s, _ := newTestStore()
	state := s.Create(p1, p2)

	s.AddWatcher(state.ID, "CCCC")
	s.AddWatcher(state.ID, "CCCC")
	got, _ := s.Get(state.ID)
	assert.Equal(t, []string{"CCCC"}, got.Watchers)

	s.RemoveWatcher(state.ID, "CCCC")
	s.RemoveWatcher(state.ID, "CCCC")
	got, _ = s.Get(state.ID)
	assert.Empty(t, got.Watchers)

	// Missing sessions are a no-op
	s.AddWatcher("NOPE", "CCCC")
	s.RemoveWatcher("NOPE", "CCCC")
}

func TestEndIdempotent(t *testing.T) {
	s, _ := newTestStore()
	state := s.Create(p1, p2)

	s.End(state.ID)
	_, ok := s.Get(state.ID)
	assert.False(t, ok)

	s.End(state.ID)
	s.End("NOPE")
}

func TestSessionIDsNeverCollide(t *testing.T) {
	s := NewSessionStore(random.New())

	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		state := s.Create(p1, p2)
		require.False(t, seen[state.ID], "duplicate session id %s", state.ID)
		seen[state.ID] = true
	}
}

func TestListProjection(t *testing.T) {
	s, rng := newTestStore()
	rng.QueueString("GAME01")
	state := s.Create(p1, p2)
	s.AddWatcher(state.ID, "CCCC")

	queueRoll(rng, 5)
	_, err := s.Roll(state.ID)
	require.NoError(t, err)
	_, err = s.Hold(state.ID)
	require.NoError(t, err)

	list := s.List()
	require.Len(t, list, 1)
	summary := list[0]
	assert.Equal(t, "GAME01", summary.ID)
	assert.Equal(t, [2]string{"Alice", "Bob"}, summary.Players)
	assert.Equal(t, 5, summary.Scores["Alice"])
	assert.Equal(t, "Bob", summary.CurrentPlayer, "projection names the turn holder, not its id")
	assert.True(t, summary.Playing)
	assert.Equal(t, 1, summary.Watchers)
	assert.NotEmpty(t, summary.CreatedAgo)
	assert.False(t, summary.CreatedAt.IsZero())
}

func TestStateIsACopy(t *testing.T) {
	s, _ := newTestStore()
	state := s.Create(p1, p2)

	state.Scores["AAAA"] = 999
	fresh, ok := s.Get(state.ID)
	require.True(t, ok)
	assert.Equal(t, 0, fresh.Scores["AAAA"])
}
