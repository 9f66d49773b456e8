package movepick

import (
	"math"

	"chess-movepick/board"
)

// MaxMoves bounds the move buffer; no position has more pseudo-legal moves.
const MaxMoves = 256

// NoLimit makes PartialInsertionSort sort the whole run.
const NoLimit = math.MinInt

// ScoredMove pairs a move with its ordering score.
type ScoredMove struct {
	Move  board.Move
	Value int
}

// PartialInsertionSort moves every entry with Value >= limit to the front of
// moves, in descending order; entries with equal values keep their relative
// order. What follows that prefix is left in unspecified order.
//
// Accepted entries are inserted one at a time into the sorted prefix, so the
// cost is quadratic in the number of accepted entries only.
func PartialInsertionSort(moves []ScoredMove, limit int) {
	sortedEnd := 0
	for p := 1; p < len(moves); p++ {
		if moves[p].Value < limit {
			continue
		}
		tmp := moves[p]
		sortedEnd++
		moves[p] = moves[sortedEnd]

		q := sortedEnd
		for ; q > 0 && moves[q-1].Value < tmp.Value; q-- {
			moves[q] = moves[q-1]
		}
		moves[q] = tmp
	}
}
