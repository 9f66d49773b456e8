package movepick

import (
	"sort"
	"strings"
	"testing"

	"github.com/matryer/is"
	"github.com/samber/lo"
	"lukechampine.com/frand"

	"chess-movepick/board"
	"chess-movepick/history"
)

const kiwipete = "r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1"

var quietFENs = []string{
	board.FENStartPos,
	kiwipete,
	"8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 0 1",
	"rnbq1k1r/pp1Pbppp/2p5/8/2B5/8/PPP1NnPP/RNBQK2R w KQ - 1 8",
	"r4rk1/1pp1qppp/p1np1n2/2b1p1B1/2B1P1b1/P1NP1N2/1PP1QPPP/R4RK1 w - - 0 10",
}

const inCheckFEN = "rnbqkbnr/ppp2ppp/8/1B1pp3/4P3/8/PPPP1PPP/RNBQK1NR b KQkq - 1 3"

// position4 has white in check with six evasions.
const position4 = "r3k2r/Pppp1ppp/1b3nbN/nP6/BBP1P3/q4N2/Pp1P2PP/R2Q1RK1 w kq - 0 1"

type emission struct {
	move   board.Move
	source Stage
	score  int
}

func mustPosition(t *testing.T, fen string) *board.Position {
	t.Helper()
	b, err := board.ParseFEN(fen)
	if err != nil {
		t.Fatalf("parse %q: %v", fen, err)
	}
	return board.NewPosition(b)
}

func mustMove(t *testing.T, text string) board.Move {
	t.Helper()
	m, err := board.ParseMove(text)
	if err != nil {
		t.Fatalf("parse move %q: %v", text, err)
	}
	return m
}

func drain(t *testing.T, mp *Picker) []emission {
	t.Helper()
	var out []emission
	for i := 0; i <= MaxMoves; i++ {
		m := mp.NextMove()
		if m == board.NoMove {
			return out
		}
		out = append(out, emission{move: m, source: mp.Source(), score: mp.Score()})
	}
	t.Fatalf("picker emitted more than %d moves", MaxMoves)
	return nil
}

func movesOf(stream []emission) []board.Move {
	return lo.Map(stream, func(e emission, _ int) board.Move { return e.move })
}

func sortedMoves(ms []board.Move) []board.Move {
	out := append([]board.Move(nil), ms...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// randomTables fills the histories the picker reads for pos with noise, so the
// stage boundaries are crossed in both directions.
func randomTables(pos *board.Position) (*history.Tables, Context) {
	t := history.New()
	us := pos.SideToMove()
	key := pos.PawnKey()
	prev := t.Continuation.Entry(false, false, board.MakePiece(us.Other(), board.PieceTypeKnight), 20)

	for _, m := range pos.LegalMoves() {
		pc := pos.MovedPiece(m)
		to := board.Square(m.To())
		t.Main.Update(us, m, frand.Intn(2*history.ButterflyBound)-history.ButterflyBound)
		t.Capture.Update(pc, to, pos.PieceOn(to).Type(), frand.Intn(2*history.CapturePieceToBound)-history.CapturePieceToBound)
		t.Pawn.Update(key, pc, to, frand.Intn(2*history.PawnBound)-history.PawnBound)
		prev.Update(pc, to, frand.Intn(60000)-30000)
	}

	ctx := TablesContext(t, board.NoMove, 0, 0, nil)
	ctx.Continuation[0] = prev
	return t, ctx
}

func stageRank(s Stage) int {
	switch s {
	case MainTT:
		return 0
	case GoodCapture:
		return 1
	case GoodQuiet:
		return 2
	case BadCapture:
		return 3
	case BadQuiet:
		return 4
	}
	return -1
}

func TestMainStreamEmitsEveryLegalMoveOnce(t *testing.T) {
	for _, fen := range append(quietFENs, inCheckFEN, position4) {
		pos := mustPosition(t, fen)
		for _, depth := range []int{1, 3, 6} {
			_, ctx := randomTables(pos)
			ctx.Depth = depth
			stream := movesOf(drain(t, New(pos, ctx)))

			is := is.New(t)
			is.Equal(len(lo.Uniq(stream)), len(stream))                  // no duplicates
			is.Equal(sortedMoves(stream), sortedMoves(pos.LegalMoves())) // exactly the legal moves
		}
	}
}

func TestMainStreamPartition(t *testing.T) {
	p := DefaultParams()
	for _, fen := range quietFENs {
		pos := mustPosition(t, fen)
		for _, depth := range []int{1, 2, 4, 7} {
			_, ctx := randomTables(pos)
			ctx.Depth = depth
			stream := drain(t, New(pos, ctx))

			rank := 0
			var prev *emission
			for i := range stream {
				e := &stream[i]
				r := stageRank(e.source)
				if r < rank {
					t.Fatalf("%s depth %d: %s emitted after a later stage", fen, depth, e.source)
				}
				if prev != nil && prev.source == e.source && (e.source == GoodCapture || e.source == BadCapture || (e.source == GoodQuiet && depth >= 4)) {
					if prev.score < e.score {
						t.Fatalf("%s depth %d: %s not descending: %d then %d", fen, depth, e.source, prev.score, e.score)
					}
				}
				rank, prev = r, e

				capture := pos.CaptureStage(e.move)
				switch e.source {
				case GoodCapture:
					if !capture || !pos.SeeGE(e.move, -e.score/p.CaptureSEEDivisor) {
						t.Fatalf("%s: %s is not a good capture", fen, board.FormatMove(e.move))
					}
				case BadCapture:
					if !capture || pos.SeeGE(e.move, -e.score/p.CaptureSEEDivisor) {
						t.Fatalf("%s: %s is not a bad capture", fen, board.FormatMove(e.move))
					}
				case GoodQuiet:
					if capture || e.score <= p.GoodQuietThreshold {
						t.Fatalf("%s: %s (%d) is not a good quiet", fen, board.FormatMove(e.move), e.score)
					}
				case BadQuiet:
					if capture || e.score > p.GoodQuietThreshold {
						t.Fatalf("%s: %s (%d) is not a bad quiet", fen, board.FormatMove(e.move), e.score)
					}
				default:
					t.Fatalf("%s: unexpected source %s", fen, e.source)
				}
			}
		}
	}
}

func TestTTMoveComesFirstAndOnce(t *testing.T) {
	cases := []struct {
		fen   string
		tt    string
		depth int
		want  Stage
	}{
		{board.FENStartPos, "g1f3", 5, MainTT},
		{kiwipete, "e5f7", 5, MainTT},
		{kiwipete, "e5f7", 0, QSearchTT},
		{kiwipete, "a2a3", 0, QSearchTT},
		{inCheckFEN, "c7c6", 5, EvasionTT},
		{inCheckFEN, "b8d7", 0, EvasionTT},
	}
	for _, tc := range cases {
		t.Run(tc.fen+" "+tc.tt, func(t *testing.T) {
			is := is.New(t)
			pos := mustPosition(t, tc.fen)
			tt := mustMove(t, tc.tt)
			is.True(pos.PseudoLegal(tt))

			mp := New(pos, Context{TTMove: tt, Depth: tc.depth})
			stream := drain(t, mp)

			is.True(len(stream) > 0)
			is.Equal(stream[0].move, tt)
			is.Equal(stream[0].source, tc.want)
			is.Equal(stream[0].score, 0)
			is.Equal(lo.Count(movesOf(stream), tt), 1)
		})
	}
}

func TestIllegalTTMoveIsIgnored(t *testing.T) {
	is := is.New(t)
	pos := mustPosition(t, board.FENStartPos)

	for _, text := range []string{"e2e5", "e7e5", "a1a8"} {
		tt := mustMove(t, text)
		mp := New(pos, Context{TTMove: tt, Depth: 3})
		is.Equal(mp.Stage(), CaptureInit)

		stream := movesOf(drain(t, mp))
		is.True(!lo.Contains(stream, tt))
		is.Equal(sortedMoves(stream), sortedMoves(pos.LegalMoves()))
	}
}

func TestOnlyLegalMoveAsTTMove(t *testing.T) {
	is := is.New(t)
	pos := mustPosition(t, "k7/8/8/8/8/P7/5q2/7K w - - 0 1")
	tt := mustMove(t, "a3a4")
	is.Equal(pos.LegalMoves(), []board.Move{tt})

	stream := drain(t, New(pos, Context{TTMove: tt, Depth: 4}))
	is.Equal(len(stream), 1)
	is.Equal(stream[0].move, tt)
	is.Equal(stream[0].source, MainTT)
}

func TestQSearchYieldsCapturesOnly(t *testing.T) {
	is := is.New(t)
	pos := mustPosition(t, kiwipete)
	_, ctx := randomTables(pos)
	ctx.Depth = -2

	stream := drain(t, New(pos, ctx))
	captures := pos.Generate(board.GenCaptures, nil)
	is.Equal(sortedMoves(movesOf(stream)), sortedMoves(captures))
	for i, e := range stream {
		is.Equal(e.source, QCapture)
		if i > 0 {
			is.True(stream[i-1].score >= e.score) // fully sorted
		}
	}
}

func TestEvasionOrder(t *testing.T) {
	is := is.New(t)
	pos := mustPosition(t, "7k/8/8/8/8/8/r7/K7 w - - 0 1")
	is.True(pos.InCheck())

	stream := drain(t, New(pos, Context{Depth: 3}))
	is.Equal(movesOf(stream), []board.Move{mustMove(t, "a1a2"), mustMove(t, "a1b1")})
	is.Equal(stream[0].source, Evasion)
	is.True(stream[0].score >= 1<<28)
}

func TestEvasionsPutCapturesFirst(t *testing.T) {
	pos := mustPosition(t, inCheckFEN)
	_, ctx := randomTables(pos)
	ctx.Depth = 5

	stream := drain(t, New(pos, ctx))
	quietSeen := false
	for i, e := range stream {
		if e.source != Evasion {
			t.Fatalf("unexpected source %s", e.source)
		}
		if i > 0 && stream[i-1].score < e.score {
			t.Fatalf("evasions not descending at %d", i)
		}
		if pos.CaptureStage(e.move) {
			if quietSeen {
				t.Fatalf("capture %s after a quiet evasion", board.FormatMove(e.move))
			}
		} else {
			quietSeen = true
		}
	}
}

func TestCheckmateYieldsNothing(t *testing.T) {
	is := is.New(t)
	pos := mustPosition(t, "rnb1kbnr/pppp1ppp/8/4p3/6Pq/5P2/PPPPP2P/RNBQKBNR w KQkq - 1 3")
	is.True(pos.InCheck())
	is.Equal(len(drain(t, New(pos, Context{Depth: 2}))), 0)
}

type countingPosition struct {
	*board.Position
	quietGens int
}

func (c *countingPosition) Generate(gen board.GenType, dst []board.Move) []board.Move {
	if gen == board.GenQuiets {
		c.quietGens++
	}
	return c.Position.Generate(gen, dst)
}

func TestSkipQuietsBeforeFirstMove(t *testing.T) {
	is := is.New(t)
	pos := &countingPosition{Position: mustPosition(t, kiwipete)}

	mp := New(pos, Context{Depth: 6})
	mp.SkipQuietMoves()
	stream := drain(t, mp)

	is.Equal(pos.quietGens, 0) // quiets never generated
	is.Equal(sortedMoves(movesOf(stream)), sortedMoves(pos.Generate(board.GenCaptures, nil)))
}

func TestSkipQuietsMidway(t *testing.T) {
	is := is.New(t)
	pos := mustPosition(t, kiwipete)
	_, ctx := randomTables(pos)
	ctx.Depth = 6
	mp := New(pos, ctx)

	var emitted []board.Move
	for {
		m := mp.NextMove()
		is.True(m != board.NoMove) // kiwipete has quiet moves
		emitted = append(emitted, m)
		if mp.Source() == GoodQuiet || mp.Source() == BadQuiet {
			break
		}
	}
	mp.SkipQuietMoves()
	mp.SkipQuietMoves()

	rest := drain(t, mp)
	for _, e := range rest {
		is.Equal(e.source, BadCapture)
	}
	emitted = append(emitted, movesOf(rest)...)

	captures := lo.Filter(emitted, func(m board.Move, _ int) bool { return pos.CaptureStage(m) })
	is.Equal(sortedMoves(captures), sortedMoves(pos.Generate(board.GenCaptures, nil)))
}

func TestExhaustedPickerStaysExhausted(t *testing.T) {
	is := is.New(t)
	for _, fen := range []string{board.FENStartPos, inCheckFEN} {
		mp := New(mustPosition(t, fen), Context{Depth: 2})
		drain(t, mp)
		stage := mp.Stage()
		for i := 0; i < 5; i++ {
			is.Equal(mp.NextMove(), board.NoMove)
		}
		is.Equal(mp.Stage(), stage)
	}
}

func TestInitReusesPicker(t *testing.T) {
	is := is.New(t)
	start := mustPosition(t, board.FENStartPos)
	kiwi := mustPosition(t, kiwipete)

	var mp Picker
	mp.Init(kiwi, Context{Depth: 3})
	first := sortedMoves(movesOf(drain(t, &mp)))

	mp.Init(start, Context{Depth: 3})
	is.Equal(sortedMoves(movesOf(drain(t, &mp))), sortedMoves(start.LegalMoves()))

	mp.Init(kiwi, Context{Depth: 3})
	is.Equal(sortedMoves(movesOf(drain(t, &mp))), first)
}

const probCutFEN = "7k/8/4p3/n2p4/8/8/8/R2Q3K w - - 0 1"

func TestProbCutFiltersByExchange(t *testing.T) {
	is := is.New(t)
	pos := mustPosition(t, probCutFEN)

	stream := drain(t, NewProbCut(pos, board.NoMove, 0, nil, nil))
	is.Equal(movesOf(stream), []board.Move{mustMove(t, "a1a5")})
	is.Equal(stream[0].source, ProbCut)

	is.Equal(len(drain(t, NewProbCut(pos, board.NoMove, 1000, nil, nil))), 0)

	stream = drain(t, NewProbCut(pos, board.NoMove, -3000, nil, nil))
	is.Equal(len(stream), 2)
}

func TestProbCutTTMove(t *testing.T) {
	is := is.New(t)
	pos := mustPosition(t, probCutFEN)

	// A capturing TT move is tried first regardless of its exchange value.
	tt := mustMove(t, "d1d5")
	mp := NewProbCut(pos, tt, 0, nil, nil)
	is.Equal(mp.Stage(), ProbCutTT)
	stream := drain(t, mp)
	is.Equal(movesOf(stream), []board.Move{tt, mustMove(t, "a1a5")})
	is.Equal(stream[0].source, ProbCutTT)

	// A quiet TT move is not a ProbCut candidate.
	mp = NewProbCut(pos, mustMove(t, "h1g1"), 0, nil, nil)
	is.Equal(mp.Stage(), ProbCutInit)
	is.Equal(movesOf(drain(t, mp)), []board.Move{mustMove(t, "a1a5")})
}

func TestProbCutInCheckYieldsEvasions(t *testing.T) {
	is := is.New(t)
	pos := mustPosition(t, inCheckFEN)

	stream := drain(t, NewProbCut(pos, board.NoMove, 500, nil, nil))
	is.Equal(sortedMoves(movesOf(stream)), sortedMoves(pos.LegalMoves()))
	for _, e := range stream {
		is.Equal(e.source, Evasion)
	}
}

func TestTablesContext(t *testing.T) {
	is := is.New(t)
	tables := history.New()
	params := DefaultParams()
	tt := mustMove(t, "e2e4")

	ctx := TablesContext(tables, tt, 7, 3, &params)
	is.Equal(ctx.TTMove, tt)
	is.Equal(ctx.Depth, 7)
	is.Equal(ctx.Ply, 3)
	is.True(ctx.Main == &tables.Main)
	is.True(ctx.LowPly == &tables.LowPly)
	is.True(ctx.Capture == &tables.Capture)
	is.True(ctx.Pawn == &tables.Pawn)
	is.True(ctx.Params == &params)
	for _, c := range ctx.Continuation {
		is.True(c == tables.Continuation.Sentinel())
	}
}

func TestUnknownStagePanics(t *testing.T) {
	mp := New(mustPosition(t, board.FENStartPos), Context{Depth: 1})
	mp.stage = Stage(200)
	defer func() {
		if recover() == nil {
			t.Fatal("expected a panic")
		}
	}()
	mp.NextMove()
}

func TestInvalidParamsPanic(t *testing.T) {
	is := is.New(t)
	pos := mustPosition(t, board.FENStartPos)
	mustPanic := func(f func()) (msg string) {
		defer func() { msg, _ = recover().(string) }()
		f()
		return ""
	}

	msg := mustPanic(func() { New(pos, Context{Depth: 1, Params: &Params{}}) })
	is.True(strings.HasPrefix(msg, "movepick: "))
	msg = mustPanic(func() { NewProbCut(pos, board.NoMove, 0, nil, &Params{}) })
	is.True(strings.HasPrefix(msg, "movepick: "))

	params := DefaultParams()
	is.Equal(mustPanic(func() { New(pos, Context{Depth: 1, Params: &params}) }), "")
}

func TestStageNames(t *testing.T) {
	is := is.New(t)
	is.Equal(GoodCapture.String(), "good-capture")
	is.Equal(QCapture.String(), "qcapture")
	is.Equal(Stage(99).String(), "unknown")
	is.True(ProbCutTT.IsTT())
	is.True(!ProbCut.IsTT())
}
