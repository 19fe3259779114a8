package game

import (
	"fmt"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"pigdice/random"
)

const (
	idAlphabet   = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	playerIDLen  = 4
	sessionIDLen = 6
	maxNameLen   = 20
)

var policy = bluemonday.StrictPolicy()

// SanitizeName strips any HTML from a requested display name, trims
// whitespace and truncates to maxNameLen runes. Returns "" when nothing
// usable remains.
func SanitizeName(name string) string {
	cleaned := strings.TrimSpace(policy.Sanitize(name))
	runes := []rune(cleaned)
	if len(runes) > maxNameLen {
		cleaned = string(runes[:maxNameLen])
	}
	return cleaned
}

var (
	nameAdjectives = []string{"Swift", "Brave", "Clever", "Lucky", "Bold", "Quick", "Smart", "Cool", "Wild", "Epic"}
	nameNouns      = []string{"Pig", "Dice", "Player", "Gamer", "Winner", "Champion", "Master", "Hero", "Star", "Ace"}
)

// synthesizeName builds a readable adjective+noun+number fallback name.
func synthesizeName(rng random.Source) string {
	adjective := nameAdjectives[rng.Intn(len(nameAdjectives))]
	noun := nameNouns[rng.Intn(len(nameNouns))]
	return fmt.Sprintf("%s%s%d", adjective, noun, rng.Intn(99)+1)
}

// validRequestedID reports whether a client-supplied id may be honored:
// exactly playerIDLen characters from the id alphabet.
func validRequestedID(id string) bool {
	if len(id) != playerIDLen {
		return false
	}
	for i := 0; i < len(id); i++ {
		if !strings.ContainsRune(idAlphabet, rune(id[i])) {
			return false
		}
	}
	return true
}
