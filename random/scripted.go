package random

// Scripted is a Source for tests: it replays queued results in order.
// An exhausted Intn queue yields 0; an exhausted String queue synthesizes
// a string of the alphabet's first character.
type Scripted struct {
	IntnValues   []int
	StringValues []string

	intnIdx   int
	stringIdx int
}

var _ Source = (*Scripted)(nil)

func (s *Scripted) Intn(n int) int {
	if s.intnIdx >= len(s.IntnValues) {
		return 0
	}
	v := s.IntnValues[s.intnIdx]
	s.intnIdx++
	return v
}

func (s *Scripted) String(length int, alphabet string) string {
	if s.stringIdx >= len(s.StringValues) {
		if length <= 0 || len(alphabet) == 0 {
			return ""
		}
		b := make([]byte, length)
		for i := range b {
			b[i] = alphabet[0]
		}
		return string(b)
	}
	v := s.StringValues[s.stringIdx]
	s.stringIdx++
	return v
}

// QueueIntn appends values to the Intn queue.
func (s *Scripted) QueueIntn(values ...int) {
	s.IntnValues = append(s.IntnValues, values...)
}

// QueueString appends values to the String queue.
func (s *Scripted) QueueString(values ...string) {
	s.StringValues = append(s.StringValues, values...)
}
