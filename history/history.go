// Package history holds the statistics the search accumulates about moves
// that caused cutoffs. Tables are shared between search workers: entries are
// int32 read and written atomically, and concurrent updates may overwrite each
// other, which only costs a little precision.
package history

import (
	"sync/atomic"

	"golang.org/x/exp/constraints"

	"chess-movepick/board"
)

const (
	// LowPlySize is the number of plies near the root with a dedicated table.
	LowPlySize = 5
	// PawnSize is the number of pawn-structure buckets; a power of two.
	PawnSize = 512

	ButterflyBound      = 7183
	LowPlyBound         = 7183
	CapturePieceToBound = 10692
	PieceToBound        = 30000
	PawnBound           = 8192
)

// FromTo indexes butterfly-shaped tables by origin and destination.
func FromTo(m board.Move) int { return int(m.From())<<6 | int(m.To()) }

// PawnIndex maps a pawn-structure key to a pawn history bucket.
func PawnIndex(key uint64) int { return int(key & (PawnSize - 1)) }

func clamp[T constraints.Integer](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func load(e *int32) int { return int(atomic.LoadInt32(e)) }

// gravity moves e towards bonus, saturating at ±bound.
func gravity(e *int32, bonus, bound int) {
	bonus = clamp(bonus, -bound, bound)
	v := load(e)
	v += bonus - v*board.Abs(bonus)/bound
	atomic.StoreInt32(e, int32(v))
}

// Butterfly is keyed by side to move and the move's from/to pair.
type Butterfly [2][64 * 64]int32

func (h *Butterfly) Get(c board.Color, m board.Move) int { return load(&h[c][FromTo(m)]) }

func (h *Butterfly) Update(c board.Color, m board.Move, bonus int) {
	gravity(&h[c][FromTo(m)], bonus, ButterflyBound)
}

// LowPly is keyed by ply from the root and the move's from/to pair.
type LowPly [LowPlySize][64 * 64]int32

func (h *LowPly) Get(ply int, m board.Move) int { return load(&h[ply][FromTo(m)]) }

func (h *LowPly) Update(ply int, m board.Move, bonus int) {
	if ply < LowPlySize {
		gravity(&h[ply][FromTo(m)], bonus, LowPlyBound)
	}
}

// CapturePieceTo is keyed by moving piece, destination and captured type.
type CapturePieceTo [board.PieceCount][board.SquareCount][board.PieceTypeCount]int32

func (h *CapturePieceTo) Get(pc board.Piece, to board.Square, captured board.PieceType) int {
	return load(&h[pc][to][captured])
}

func (h *CapturePieceTo) Update(pc board.Piece, to board.Square, captured board.PieceType, bonus int) {
	gravity(&h[pc][to][captured], bonus, CapturePieceToBound)
}

// PieceTo is keyed by moving piece and destination. Continuation histories
// are PieceTo tables selected by the move played some plies earlier.
type PieceTo [board.PieceCount][board.SquareCount]int32

func (h *PieceTo) Get(pc board.Piece, to board.Square) int { return load(&h[pc][to]) }

func (h *PieceTo) Update(pc board.Piece, to board.Square, bonus int) {
	gravity(&h[pc][to], bonus, PieceToBound)
}

// Continuation is indexed [inCheck][capture][piece][to] of the earlier move.
type Continuation [2][2][board.PieceCount][board.SquareCount]PieceTo

// Entry returns the table that follows the given move.
func (h *Continuation) Entry(inCheck, capture bool, pc board.Piece, to board.Square) *PieceTo {
	return &h[b2i(inCheck)][b2i(capture)][pc][to]
}

// Sentinel is the table used where no earlier move exists. It is never updated.
func (h *Continuation) Sentinel() *PieceTo { return &h[0][0][board.NoPiece][0] }

// Pawn is keyed by pawn-structure bucket, moving piece and destination.
type Pawn [PawnSize][board.PieceCount][board.SquareCount]int32

func (h *Pawn) Get(key uint64, pc board.Piece, to board.Square) int {
	return load(&h[PawnIndex(key)][pc][to])
}

func (h *Pawn) Update(key uint64, pc board.Piece, to board.Square, bonus int) {
	gravity(&h[PawnIndex(key)][pc][to], bonus, PawnBound)
}

// Tables bundles every history a search thread reads and updates.
type Tables struct {
	Main         Butterfly
	LowPly       LowPly
	Capture      CapturePieceTo
	Continuation Continuation
	Pawn         Pawn
}

func New() *Tables { return &Tables{} }

// Clear zeroes every table.
func (t *Tables) Clear() {
	t.Main = Butterfly{}
	t.LowPly = LowPly{}
	t.Capture = CapturePieceTo{}
	t.Continuation = Continuation{}
	t.Pawn = Pawn{}
}

// ClearLowPly resets the root-distance table; done at each new search since
// the plies refer to a different root.
func (t *Tables) ClearLowPly() { t.LowPly = LowPly{} }

func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}
