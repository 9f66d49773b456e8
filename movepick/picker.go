// Package movepick produces the moves of one search node lazily, best
// candidates first. Moves are generated per class (captures, quiets,
// evasions) only when the previous class is used up, scored from the history
// tables and only as sorted as the search needs them to be.
package movepick

import (
	"fmt"

	"chess-movepick/board"
	"chess-movepick/history"
)

// Position is what the picker needs to know about the position being searched.
// *board.Position implements it.
type Position interface {
	SideToMove() board.Color
	InCheck() bool
	PseudoLegal(m board.Move) bool
	CaptureStage(m board.Move) bool
	SeeGE(m board.Move, threshold int) bool
	AttacksBy(c board.Color, pt board.PieceType) uint64
	CheckSquares(pt board.PieceType) uint64
	PieceOn(sq board.Square) board.Piece
	MovedPiece(m board.Move) board.Piece
	PawnKey() uint64
	PieceValue(pt board.PieceType) int
	Generate(gen board.GenType, dst []board.Move) []board.Move
}

// Context is the per-node input of a main or quiescence picker. History
// tables are only read; a nil table reads as all zeros.
type Context struct {
	TTMove board.Move
	Depth  int
	Ply    int

	Main    *history.Butterfly
	LowPly  *history.LowPly
	Capture *history.CapturePieceTo
	// Continuation[i] follows the move played i+1 plies before this node.
	Continuation [ContinuationPlies]*history.PieceTo
	Pawn         *history.Pawn

	// Params defaults to DefaultParams() when nil.
	Params *Params
}

// TablesContext builds a Context reading every table of t. All continuation
// slots point at the sentinel, as at the root of a search.
func TablesContext(t *history.Tables, ttMove board.Move, depth, ply int, params *Params) Context {
	ctx := Context{
		TTMove:  ttMove,
		Depth:   depth,
		Ply:     ply,
		Main:    &t.Main,
		LowPly:  &t.LowPly,
		Capture: &t.Capture,
		Pawn:    &t.Pawn,
		Params:  params,
	}
	for i := range ctx.Continuation {
		ctx.Continuation[i] = t.Continuation.Sentinel()
	}
	return ctx
}

// Picker is the staged move generator of a single node. It is not safe for
// concurrent use and must not outlive the position or the history tables it
// was built with.
type Picker struct {
	pos    Position
	ctx    Context
	params *Params

	ttMove    board.Move
	threshold int
	stage     Stage
	source    Stage
	last      int

	skipQuiets bool

	// Cursors into moves. Captures occupy [0, endCaptures), the bad ones are
	// gathered into [0, endBadCaptures) while good captures are emitted, and
	// quiets occupy [endCaptures, endGenerated).
	cur, endCur                 int
	endBadCaptures, endCaptures int
	endGenerated                int

	moves [MaxMoves]ScoredMove
	gen   [MaxMoves]board.Move
}

// New returns a picker for the main search (ctx.Depth > 0) or the quiescence
// search (ctx.Depth <= 0). If the side to move is in check only evasions are
// produced.
func New(pos Position, ctx Context) *Picker {
	mp := &Picker{}
	mp.Init(pos, ctx)
	return mp
}

// Init resets mp for a new node, so pickers can live in a preallocated
// search stack.
func (mp *Picker) Init(pos Position, ctx Context) {
	mp.reset(pos, ctx)

	valid := mp.ttMove != board.NoMove && pos.PseudoLegal(mp.ttMove)
	switch {
	case pos.InCheck():
		mp.stage = EvasionTT
	case ctx.Depth > 0:
		mp.stage = MainTT
	default:
		mp.stage = QSearchTT
	}
	if !valid {
		mp.stage++
	}
}

// NewProbCut returns a picker yielding the captures whose static exchange
// reaches threshold. In check it degrades to an evasion picker.
func NewProbCut(pos Position, ttMove board.Move, threshold int, capture *history.CapturePieceTo, params *Params) *Picker {
	mp := &Picker{}
	mp.InitProbCut(pos, ttMove, threshold, capture, params)
	return mp
}

// InitProbCut is the in-place form of NewProbCut.
func (mp *Picker) InitProbCut(pos Position, ttMove board.Move, threshold int, capture *history.CapturePieceTo, params *Params) {
	mp.reset(pos, Context{TTMove: ttMove, Capture: capture, Params: params})
	mp.threshold = threshold

	if pos.InCheck() {
		mp.stage = EvasionTT
		if ttMove == board.NoMove || !pos.PseudoLegal(ttMove) {
			mp.stage++
		}
		return
	}

	mp.stage = ProbCutTT
	if ttMove == board.NoMove || !pos.CaptureStage(ttMove) || !pos.PseudoLegal(ttMove) {
		mp.stage++
	}
}

func (mp *Picker) reset(pos Position, ctx Context) {
	mp.pos = pos
	mp.ctx = ctx
	mp.params = ctx.Params
	if mp.params == nil {
		mp.params = &defaultParams
	} else if err := mp.params.Validate(); err != nil {
		panic("movepick: " + err.Error())
	}
	mp.ttMove = ctx.TTMove
	mp.threshold = 0
	mp.skipQuiets = false
	mp.last = -1
	mp.cur, mp.endCur = 0, 0
	mp.endBadCaptures, mp.endCaptures, mp.endGenerated = 0, 0, 0
}

// SkipQuietMoves stops quiet moves from being generated or emitted from now
// on. Calling it more than once has no further effect.
func (mp *Picker) SkipQuietMoves() { mp.skipQuiets = true }

// Stage returns the current state.
func (mp *Picker) Stage() Stage { return mp.stage }

// Source returns the stage that produced the last move returned by NextMove.
func (mp *Picker) Source() Stage { return mp.source }

// Score returns the ordering score of the last move returned by NextMove, or
// 0 if that move was the transposition-table move.
func (mp *Picker) Score() int {
	if mp.last < 0 {
		return 0
	}
	return mp.moves[mp.last].Value
}

type filter uint8

const (
	acceptAll filter = iota
	acceptGoodCapture
	acceptGoodQuiet
	acceptBadQuiet
	acceptProbCut
)

func (mp *Picker) accept(f filter) bool {
	sm := &mp.moves[mp.cur]
	switch f {
	case acceptAll:
		return true
	case acceptGoodCapture:
		if mp.pos.SeeGE(sm.Move, -sm.Value/mp.params.CaptureSEEDivisor) {
			return true
		}
		mp.moves[mp.endBadCaptures], mp.moves[mp.cur] = mp.moves[mp.cur], mp.moves[mp.endBadCaptures]
		mp.endBadCaptures++
		return false
	case acceptGoodQuiet:
		return sm.Value > mp.params.GoodQuietThreshold
	case acceptBadQuiet:
		return sm.Value <= mp.params.GoodQuietThreshold
	case acceptProbCut:
		return mp.pos.SeeGE(sm.Move, mp.threshold)
	}
	panic(fmt.Sprintf("movepick: unknown filter %d", f))
}

// pick returns the next buffered move passing f, never the TT move.
func (mp *Picker) pick(f filter) board.Move {
	for ; mp.cur < mp.endCur; mp.cur++ {
		if mp.moves[mp.cur].Move != mp.ttMove && mp.accept(f) {
			mp.last = mp.cur
			mp.source = mp.stage
			mp.cur++
			return mp.moves[mp.last].Move
		}
	}
	return board.NoMove
}

// NextMove returns the next move, or board.NoMove once the node is exhausted.
// Further calls after exhaustion keep returning board.NoMove.
func (mp *Picker) NextMove() board.Move {
	for {
		switch mp.stage {
		case MainTT, EvasionTT, QSearchTT, ProbCutTT:
			mp.source = mp.stage
			mp.last = -1
			mp.stage++
			return mp.ttMove

		case CaptureInit, ProbCutInit, QCaptureInit:
			mp.cur, mp.endBadCaptures = 0, 0
			mp.endCaptures = mp.score(board.GenCaptures, 0)
			mp.endCur, mp.endGenerated = mp.endCaptures, mp.endCaptures

			PartialInsertionSort(mp.moves[mp.cur:mp.endCur], NoLimit)
			mp.stage++
			continue

		case GoodCapture:
			if m := mp.pick(acceptGoodCapture); m != board.NoMove {
				return m
			}
			mp.stage++
			fallthrough

		case QuietInit:
			if !mp.skipQuiets {
				mp.endGenerated = mp.score(board.GenQuiets, mp.cur)
				mp.endCur = mp.endGenerated

				PartialInsertionSort(mp.moves[mp.cur:mp.endCur], mp.params.QuietSortDepthScale*mp.ctx.Depth)
			}
			mp.stage++
			fallthrough

		case GoodQuiet:
			if !mp.skipQuiets {
				if m := mp.pick(acceptGoodQuiet); m != board.NoMove {
					return m
				}
			}

			// Replay the captures that failed the exchange test.
			mp.cur, mp.endCur = 0, mp.endBadCaptures
			mp.stage++
			fallthrough

		case BadCapture:
			if m := mp.pick(acceptAll); m != board.NoMove {
				return m
			}

			// Back to the quiets that did not qualify as good.
			mp.cur, mp.endCur = mp.endCaptures, mp.endGenerated
			mp.stage++
			fallthrough

		case BadQuiet:
			if !mp.skipQuiets {
				return mp.pick(acceptBadQuiet)
			}
			return board.NoMove

		case EvasionInit:
			mp.cur = 0
			mp.endGenerated = mp.score(board.GenEvasions, 0)
			mp.endCur = mp.endGenerated

			PartialInsertionSort(mp.moves[mp.cur:mp.endCur], NoLimit)
			mp.stage++
			fallthrough

		case Evasion, QCapture:
			return mp.pick(acceptAll)

		case ProbCut:
			return mp.pick(acceptProbCut)
		}

		panic(fmt.Sprintf("movepick: unreachable stage %d", mp.stage))
	}
}
