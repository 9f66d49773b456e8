// Package search is a small alpha-beta searcher built around the staged move
// picker: every node enumerates its moves through movepick, ProbCut and
// quiescence use their dedicated picker shapes, and cutoffs feed the shared
// history tables the pickers read.
package search

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dylhunn/dragontoothmg"
	"github.com/rs/zerolog/log"

	"chess-movepick/board"
	"chess-movepick/history"
	"chess-movepick/movepick"
)

const (
	MaxPly = 128

	MaxScore  int32 = 32000
	Checkmate int32 = MaxScore - MaxPly
	DrawScore int32 = 0
)

var ErrInvalidDepth = errors.New("invalid search depth")

// continuation plies that receive history updates; the picker gives the
// fifth no weight.
var continuationUpdates = [...]int{0, 1, 2, 3, 5}

type Result struct {
	Move  board.Move
	Score int32
	Depth int
	Nodes uint64
	PV    []board.Move
	Stats CutStatistics
}

// PVString renders the principal variation in long algebraic notation.
func (r Result) PVString() string {
	parts := make([]string, len(r.PV))
	for i, m := range r.PV {
		parts[i] = board.FormatMove(m)
	}
	return strings.Join(parts, " ")
}

type frame struct {
	pos     board.Position
	picker  movepick.Picker
	inCheck bool
	// cont is the continuation table selected by the move made at this ply.
	cont *history.PieceTo

	quiets    [64]board.Move
	nQuiets   int
	captures  [32]board.Move
	nCaptures int

	pv    [MaxPly]board.Move
	pvLen int
}

// Searcher searches one position at a time. Several searchers may share a
// history.Tables; everything else is private to the searcher.
type Searcher struct {
	opts   Options
	params *movepick.Params
	hist   *history.Tables
	tt     *TransTable

	// ownHistory is set when the searcher allocated its history tables and
	// may therefore reset the low-ply table between searches.
	ownHistory bool

	b         dragontoothmg.Board
	states    []state
	rootIndex int
	stack     []frame

	ctx     context.Context
	nodes   uint64
	stats   CutStatistics
	stopped bool

	report func(Result)
}

// NewSearcher returns a searcher. A nil hist gets private tables; a nil
// params uses the picker defaults.
func NewSearcher(opts Options, params *movepick.Params, hist *history.Tables) *Searcher {
	s := &Searcher{
		opts:   opts,
		params: params,
		hist:   hist,
		tt:     NewTransTable(opts.TTSizeMB),
		stack:  make([]frame, MaxPly+1),
	}
	if s.hist == nil {
		s.hist = history.New()
		s.ownHistory = true
	}
	for i := range s.stack {
		s.stack[i].cont = s.hist.Continuation.Sentinel()
	}
	return s
}

// History returns the tables the searcher reads and updates.
func (s *Searcher) History() *history.Tables { return s.hist }

// Nodes returns the number of nodes visited by the last search.
func (s *Searcher) Nodes() uint64 { return s.nodes }

// Stats returns the cut statistics of the last search.
func (s *Searcher) Stats() CutStatistics { return s.stats }

// OnIteration registers f to be called with the result of every completed
// iteration, from the searching goroutine.
func (s *Searcher) OnIteration(f func(Result)) { s.report = f }

// ClearTT empties the transposition table.
func (s *Searcher) ClearTT() { s.tt.Clear() }

// Search runs iterative deepening on b up to depth. b is not modified. When
// ctx is cancelled the result of the last completed iteration is returned;
// the error is only set if not even the first iteration completed.
func (s *Searcher) Search(ctx context.Context, b *dragontoothmg.Board, depth int) (Result, error) {
	if depth < 1 || depth >= MaxPly {
		return Result{}, fmt.Errorf("%w: %d", ErrInvalidDepth, depth)
	}

	s.b = *b
	s.ctx = ctx
	s.nodes = 0
	s.stats = CutStatistics{}
	s.stopped = false
	s.resetStates()
	if s.ownHistory {
		s.hist.ClearLowPly()
	}

	var res Result
	start := time.Now()
	for d := 1; d <= depth; d++ {
		if ctx.Err() != nil {
			break
		}
		score := s.alphabeta(-MaxScore, MaxScore, d, 0)
		if s.stopped {
			break
		}

		root := &s.stack[0]
		res = Result{
			Score: score,
			Depth: d,
			Nodes: s.nodes,
			Stats: s.stats,
			PV:    append([]board.Move(nil), root.pv[:root.pvLen]...),
		}
		if root.pvLen > 0 {
			res.Move = root.pv[0]
		}

		log.Info().
			Int("depth", d).
			Int32("score", score).
			Uint64("nodes", s.nodes).
			Dur("elapsed", time.Since(start)).
			Str("pv", res.PVString()).
			Msg("iteration")
		if s.report != nil {
			s.report(res)
		}

		if score > Checkmate || score < -Checkmate {
			break
		}
	}

	if res.Depth == 0 {
		return res, ctx.Err()
	}
	log.Debug().Object("cuts", &res.Stats).Int("depth", res.Depth).Msg("search done")
	return res, nil
}

func (s *Searcher) checkStop() bool {
	if s.nodes&2047 == 0 && !s.stopped {
		select {
		case <-s.ctx.Done():
			s.stopped = true
		default:
		}
	}
	return s.stopped
}

func (s *Searcher) apply(m board.Move) func() {
	undo := s.b.Apply(m)
	s.pushState()
	return func() {
		undo()
		s.popState()
	}
}

// continuations collects the continuation tables of the moves leading to ply,
// most recent first.
func (s *Searcher) continuations(ply int) [movepick.ContinuationPlies]*history.PieceTo {
	var conts [movepick.ContinuationPlies]*history.PieceTo
	for i := range conts {
		if ply-1-i >= 0 {
			conts[i] = s.stack[ply-1-i].cont
		} else {
			conts[i] = s.hist.Continuation.Sentinel()
		}
	}
	return conts
}

func (s *Searcher) pickerContext(ttMove board.Move, depth, ply int) movepick.Context {
	ctx := movepick.TablesContext(s.hist, ttMove, depth, ply, s.params)
	ctx.Continuation = s.continuations(ply)
	return ctx
}

// enter snapshots the board into the frame at ply.
func (s *Searcher) enter(ply int) *frame {
	f := &s.stack[ply]
	f.pvLen = 0
	f.pos.Set(&s.b)
	f.inCheck = f.pos.InCheck()
	return f
}

func (s *Searcher) setContinuation(f *frame, m board.Move, capture bool) {
	f.cont = s.hist.Continuation.Entry(f.inCheck, capture, f.pos.MovedPiece(m), board.Square(m.To()))
}

func (s *Searcher) updatePV(ply int, m board.Move) {
	f, child := &s.stack[ply], &s.stack[ply+1]
	f.pv[0] = m
	n := copy(f.pv[1:], child.pv[:child.pvLen])
	f.pvLen = n + 1
}

func (s *Searcher) alphabeta(alpha, beta int32, depth, ply int) int32 {
	if depth <= 0 {
		return s.quiescence(alpha, beta, ply)
	}

	s.nodes++
	s.stack[ply].pvLen = 0
	if s.checkStop() {
		return 0
	}

	pvNode := beta-alpha > 1
	root := ply == 0
	if !root {
		if s.isDraw() {
			return DrawScore
		}
		if ply >= MaxPly-1 {
			return Evaluate(&s.b)
		}
	}

	f := s.enter(ply)
	if len(f.pos.LegalMoves()) == 0 {
		if f.inCheck {
			return -MaxScore + int32(ply)
		}
		return DrawScore
	}

	hash := f.pos.Board().Hash()
	var ttMove board.Move
	if e, ok := s.tt.Probe(hash); ok {
		ttMove = e.Move
		if !pvNode {
			if score, ok := e.Cutoff(depth, ply, alpha, beta); ok {
				s.stats.TTCutoffs++
				return score
			}
		}
	}

	if !pvNode && !f.inCheck && depth >= s.opts.ProbCutMinDepth && beta > -Checkmate && beta < Checkmate {
		if score, ok := s.probCut(f, beta, depth, ply, ttMove); ok {
			s.stats.ProbCutCutoffs++
			s.tt.Store(hash, depth-3, ply, board.NoMove, score, BetaFlag)
			return score
		}
		if s.stopped {
			return 0
		}
	}

	f.picker.Init(&f.pos, s.pickerContext(ttMove, depth, ply))
	f.nQuiets, f.nCaptures = 0, 0

	best, bestMove := -MaxScore, board.NoMove
	flag := AlphaFlag
	lateMoves := s.opts.LateMoveBase + depth*depth
	moveCount := 0
	skipping := false
	for {
		if !skipping && !root && !pvNode && !f.inCheck && moveCount >= lateMoves && best > -Checkmate {
			f.picker.SkipQuietMoves()
			skipping = true
			s.stats.QuietSkips++
		}
		m := f.picker.NextMove()
		if m == board.NoMove {
			break
		}
		moveCount++

		capture := f.pos.CaptureStage(m)
		s.setContinuation(f, m, capture)
		undo := s.apply(m)
		var score int32
		if moveCount == 1 {
			score = -s.alphabeta(-beta, -alpha, depth-1, ply+1)
		} else {
			score = -s.alphabeta(-alpha-1, -alpha, depth-1, ply+1)
			if score > alpha && score < beta {
				score = -s.alphabeta(-beta, -alpha, depth-1, ply+1)
			}
		}
		undo()
		if s.stopped {
			return 0
		}

		if score > best {
			best, bestMove = score, m
			if score > alpha {
				alpha = score
				flag = ExactFlag
				s.updatePV(ply, m)
				if score >= beta {
					flag = BetaFlag
					s.stats.betaCutoff(f.picker.Source(), moveCount)
					s.updateHistories(f, ply, depth, m, capture)
					break
				}
			}
		}

		if capture && f.nCaptures < len(f.captures) {
			f.captures[f.nCaptures] = m
			f.nCaptures++
		} else if !capture && f.nQuiets < len(f.quiets) {
			f.quiets[f.nQuiets] = m
			f.nQuiets++
		}
	}

	s.tt.Store(hash, depth, ply, bestMove, best, flag)
	return best
}

// probCut looks for a capture whose reduced search beats beta by a margin,
// which lets the node fail high without a full search.
func (s *Searcher) probCut(f *frame, beta int32, depth, ply int, ttMove board.Move) (int32, bool) {
	probBeta := beta + int32(s.opts.ProbCutMargin)
	threshold := int(probBeta - Evaluate(f.pos.Board()))

	f.picker.InitProbCut(&f.pos, ttMove, threshold, &s.hist.Capture, s.params)
	for m := f.picker.NextMove(); m != board.NoMove; m = f.picker.NextMove() {
		s.setContinuation(f, m, true)
		undo := s.apply(m)
		score := -s.quiescence(-probBeta, -probBeta+1, ply+1)
		if score >= probBeta {
			score = -s.alphabeta(-probBeta, -probBeta+1, depth-4, ply+1)
		}
		undo()
		if s.stopped {
			return 0, false
		}
		if score >= probBeta {
			return score, true
		}
	}
	return 0, false
}

func (s *Searcher) quiescence(alpha, beta int32, ply int) int32 {
	s.nodes++
	s.stack[ply].pvLen = 0
	if s.checkStop() {
		return 0
	}
	if ply >= MaxPly-1 {
		return Evaluate(&s.b)
	}

	f := s.enter(ply)
	best := -MaxScore + int32(ply)
	if !f.inCheck {
		standPat := Evaluate(f.pos.Board())
		if standPat >= beta {
			s.stats.QStandPatCutoffs++
			return standPat
		}
		alpha = max(alpha, standPat)
		best = standPat
	}

	hash := f.pos.Board().Hash()
	var ttMove board.Move
	if e, ok := s.tt.Probe(hash); ok {
		if score, ok := e.Cutoff(0, ply, alpha, beta); ok {
			s.stats.TTCutoffs++
			return score
		}
		// Quiet TT moves are only worth trying when evading.
		if f.inCheck || f.pos.CaptureStage(e.Move) {
			ttMove = e.Move
		}
	}

	f.picker.Init(&f.pos, s.pickerContext(ttMove, 0, ply))
	for m := f.picker.NextMove(); m != board.NoMove; m = f.picker.NextMove() {
		if !f.inCheck && !f.pos.SeeGE(m, 0) {
			continue
		}

		s.setContinuation(f, m, f.pos.CaptureStage(m))
		undo := s.apply(m)
		score := -s.quiescence(-beta, -alpha, ply+1)
		undo()
		if s.stopped {
			return 0
		}

		if score > best {
			best = score
			if score > alpha {
				alpha = score
				s.updatePV(ply, m)
				if score >= beta {
					s.stats.QBetaCutoffs++
					break
				}
			}
		}
	}
	return best
}

// updateHistories rewards the move that caused a cutoff and penalizes the
// moves of the same kind searched before it.
func (s *Searcher) updateHistories(f *frame, ply, depth int, bestMove board.Move, capture bool) {
	bonus := s.opts.statBonus(depth)
	if !capture {
		s.updateQuiet(f, ply, bestMove, bonus)
		for _, m := range f.quiets[:f.nQuiets] {
			s.updateQuiet(f, ply, m, -bonus)
		}
	} else {
		s.updateCapture(f, bestMove, bonus)
	}
	for _, m := range f.captures[:f.nCaptures] {
		s.updateCapture(f, m, -bonus)
	}
}

func (s *Searcher) updateQuiet(f *frame, ply int, m board.Move, bonus int) {
	pc, to := f.pos.MovedPiece(m), board.Square(m.To())

	s.hist.Main.Update(f.pos.SideToMove(), m, bonus)
	if ply < history.LowPlySize {
		s.hist.LowPly.Update(ply, m, bonus)
	}
	s.hist.Pawn.Update(f.pos.PawnKey(), pc, to, bonus)

	for _, i := range continuationUpdates {
		prev := ply - 1 - i
		if prev < 0 {
			break
		}
		s.stack[prev].cont.Update(pc, to, bonus)
		// Only the nearest plies are linked across a check.
		if i >= 1 && s.stack[prev].inCheck {
			break
		}
	}
}

func (s *Searcher) updateCapture(f *frame, m board.Move, bonus int) {
	to := board.Square(m.To())
	s.hist.Capture.Update(f.pos.MovedPiece(m), to, f.pos.PieceOn(to).Type(), bonus)
}
