package search

const fiftyMoveLimit = 100

// state is what repetition and fifty-move detection need of a position on
// the current line.
type state struct {
	hash   uint64
	rule50 int
}

func (s *Searcher) resetStates() {
	s.states = s.states[:0]
	s.pushState()
	s.rootIndex = 0
}

func (s *Searcher) pushState() {
	s.states = append(s.states, state{hash: s.b.Hash(), rule50: int(s.b.Halfmoveclock)})
}

func (s *Searcher) popState() {
	if len(s.states) > 0 {
		s.states = s.states[:len(s.states)-1]
	}
}

// isDraw reports a fifty-move draw or a repetition of the current position
// since the last irreversible move. A single repetition counts when it
// happened inside the search tree.
func (s *Searcher) isDraw() bool {
	if len(s.states) <= 1 {
		return false
	}
	curr := s.states[len(s.states)-1]
	if curr.rule50 >= fiftyMoveLimit {
		return true
	}

	start := max(len(s.states)-1-curr.rule50, 0)
	count, first := 0, -1
	for i := len(s.states) - 3; i >= start; i -= 2 {
		if s.states[i].hash == curr.hash {
			count++
			first = i
		}
	}
	return count >= 2 || (count == 1 && first >= s.rootIndex)
}
