package random

import "math/rand/v2"

// Source provides the randomness used for dice rolls, id generation and
// name synthesis. Injected so tests can script exact outcomes.
type Source interface {
	// Intn returns a random int in [0, n).
	Intn(n int) int

	// String draws length characters uniformly from alphabet.
	String(length int, alphabet string) string
}

type mathRandom struct{}

// New returns a Source backed by math/rand/v2. Gameplay-grade fairness;
// not suitable for anything security-sensitive.
func New() Source {
	return mathRandom{}
}

func (mathRandom) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	return rand.IntN(n)
}

func (r mathRandom) String(length int, alphabet string) string {
	if length <= 0 || len(alphabet) == 0 {
		return ""
	}
	b := make([]byte, length)
	for i := range b {
		b[i] = alphabet[r.Intn(len(alphabet))]
	}
	return string(b)
}
