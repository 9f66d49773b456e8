package search

import (
	"context"
	"math/bits"
	"time"

	"github.com/dylhunn/dragontoothmg"
)

const (
	knightPhase = 1
	bishopPhase = 1
	rookPhase   = 2
	queenPhase  = 4

	// maxPhase is the phase of the initial position.
	maxPhase = 4*knightPhase + 4*bishopPhase + 4*rookPhase + 2*queenPhase
)

const (
	moveOverhead = 30 * time.Millisecond
	minMoveTime  = 5 * time.Millisecond
	panicTime    = time.Second
)

// Phase measures the non-pawn material left, from 0 (pawn endgame) to 24.
func Phase(b *dragontoothmg.Board) int {
	phase := bits.OnesCount64(b.White.Knights|b.Black.Knights)*knightPhase +
		bits.OnesCount64(b.White.Bishops|b.Black.Bishops)*bishopPhase +
		bits.OnesCount64(b.White.Rooks|b.Black.Rooks)*rookPhase +
		bits.OnesCount64(b.White.Queens|b.Black.Queens)*queenPhase
	return min(phase, maxPhase)
}

// movesRemaining interpolates between 20 moves left in the endgame and 45
// with all pieces on the board.
func movesRemaining(phase int) int {
	return phase*25/maxPhase + 20
}

// MoveBudget is the time to spend on b given the clock of the side to move.
func MoveBudget(b *dragontoothmg.Board, remaining, increment time.Duration) time.Duration {
	var budget time.Duration
	switch {
	case increment > 0 && remaining < panicTime:
		budget = increment * 9 / 10
	case increment > 0:
		budget = remaining/time.Duration(movesRemaining(Phase(b))) + increment
	default:
		budget = remaining / 40
	}

	budget = min(budget, remaining*7/10, remaining-moveOverhead)
	return max(budget, minMoveTime)
}

// SearchClock searches b as deep as the clock allows, stopping after
// MoveBudget has elapsed.
func (s *Searcher) SearchClock(ctx context.Context, b *dragontoothmg.Board, remaining, increment time.Duration) (Result, error) {
	ctx, cancel := context.WithTimeout(ctx, MoveBudget(b, remaining, increment))
	defer cancel()
	return s.Search(ctx, b, MaxPly-1)
}
