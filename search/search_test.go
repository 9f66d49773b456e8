package search

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/matryer/is"
	"github.com/rs/zerolog"

	"chess-movepick/board"
	"chess-movepick/history"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.WarnLevel)
	os.Exit(m.Run())
}

const kiwipete = "r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1"

func TestPerftThroughPicker(t *testing.T) {
	cases := []struct {
		fen   string
		nodes []uint64
	}{
		{board.FENStartPos, []uint64{20, 400, 8902}},
		{kiwipete, []uint64{48, 2039, 97862}},
		{"8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 0 1", []uint64{14, 191, 2812, 43238}},
		{"r3k2r/Pppp1ppp/1b3nbN/nP6/BBP1P3/q4N2/Pp1P2PP/R2Q1RK1 w kq - 0 1", []uint64{6, 264, 9467}},
		{"rnbq1k1r/pp1Pbppp/2p5/8/2B5/8/PPP1NnPP/RNBQK2R w KQ - 1 8", []uint64{44, 1486, 62379}},
	}
	for _, tc := range cases {
		is := is.New(t)
		b, err := board.ParseFEN(tc.fen)
		is.NoErr(err)
		for i, want := range tc.nodes {
			is.Equal(Perft(b, i+1), want)
		}
	}
}

func TestDivideSumsToPerft(t *testing.T) {
	is := is.New(t)
	b, err := board.ParseFEN(kiwipete)
	is.NoErr(err)

	entries := Divide(b, 2)
	is.Equal(len(entries), 48)
	var total uint64
	for _, e := range entries {
		total += e.Nodes
	}
	is.Equal(total, uint64(2039))
	is.Equal(Perft(b, 0), uint64(1))
}

func TestPerftLeavesBoardUntouched(t *testing.T) {
	is := is.New(t)
	b, err := board.ParseFEN(kiwipete)
	is.NoErr(err)
	before := b.ToFen()
	Perft(b, 3)
	is.Equal(b.ToFen(), before)
}

func search(t *testing.T, fen string, depth int) Result {
	t.Helper()
	b, err := board.ParseFEN(fen)
	if err != nil {
		t.Fatal(err)
	}
	res, err := NewSearcher(DefaultOptions(), nil, nil).Search(context.Background(), b, depth)
	if err != nil {
		t.Fatal(err)
	}
	return res
}

func TestSearchFindsMateInOne(t *testing.T) {
	is := is.New(t)
	res := search(t, "6k1/5ppp/8/8/8/8/8/R5K1 w - - 0 1", 4)
	is.Equal(board.FormatMove(res.Move), "a1a8")
	is.True(res.Score > Checkmate)
	is.Equal(res.PV[0], res.Move)
}

func TestSearchWinsHangingQueen(t *testing.T) {
	is := is.New(t)
	res := search(t, "4k3/8/8/3q4/8/8/3R4/4K3 w - - 0 1", 3)
	is.Equal(board.FormatMove(res.Move), "d2d5")
	is.True(res.Score >= int32(board.PieceValue[board.PieceTypeRook]))
}

func TestSearchStalemate(t *testing.T) {
	is := is.New(t)
	res := search(t, "7k/5Q2/6K1/8/8/8/8/8 b - - 0 1", 3)
	is.Equal(res.Move, board.NoMove)
	is.Equal(res.Score, DrawScore)
}

func TestSearchDeepensAndReportsPV(t *testing.T) {
	is := is.New(t)
	b, err := board.ParseFEN(kiwipete)
	is.NoErr(err)
	s := NewSearcher(DefaultOptions(), nil, nil)

	res, err := s.Search(context.Background(), b, 5)
	is.NoErr(err)
	is.Equal(res.Depth, 5)
	is.True(res.Nodes > 0)
	is.Equal(res.Nodes, s.Nodes())
	is.True(len(res.PV) > 0)

	// The PV is a legal line.
	for _, m := range res.PV {
		pos := board.NewPosition(b)
		is.True(pos.PseudoLegal(m))
		b.Apply(m)
	}
}

func TestSearchDoesNotModifyBoard(t *testing.T) {
	is := is.New(t)
	b, err := board.ParseFEN(kiwipete)
	is.NoErr(err)
	before := b.ToFen()
	_, err = NewSearcher(DefaultOptions(), nil, nil).Search(context.Background(), b, 3)
	is.NoErr(err)
	is.Equal(b.ToFen(), before)
}

func TestSearchRejectsBadDepth(t *testing.T) {
	is := is.New(t)
	b, err := board.ParseFEN(board.FENStartPos)
	is.NoErr(err)
	s := NewSearcher(DefaultOptions(), nil, nil)
	for _, depth := range []int{0, -1, MaxPly} {
		_, err := s.Search(context.Background(), b, depth)
		is.True(err != nil)
	}
}

func TestSearchCancelled(t *testing.T) {
	is := is.New(t)
	b, err := board.ParseFEN(board.FENStartPos)
	is.NoErr(err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = NewSearcher(DefaultOptions(), nil, nil).Search(ctx, b, 6)
	is.Equal(err, context.Canceled)

	ctx, cancel = context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	res, err := NewSearcher(DefaultOptions(), nil, nil).Search(ctx, b, MaxPly-1)
	is.NoErr(err)
	is.True(res.Depth >= 1)
	is.True(res.Move != board.NoMove)
}

func TestSearchUpdatesHistory(t *testing.T) {
	is := is.New(t)
	hist := history.New()
	b, err := board.ParseFEN(kiwipete)
	is.NoErr(err)

	_, err = NewSearcher(DefaultOptions(), nil, hist).Search(context.Background(), b, 4)
	is.NoErr(err)

	touched := false
	for c := range hist.Main {
		for _, v := range hist.Main[c] {
			if v != 0 {
				touched = true
			}
		}
	}
	is.True(touched) // cutoffs reward quiet moves
}

func TestBench(t *testing.T) {
	is := is.New(t)
	fens := []string{board.FENStartPos, kiwipete, "8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 0 1"}
	opts := DefaultOptions()
	opts.Threads = 2
	opts.TTSizeMB = 1

	results, err := Bench(context.Background(), fens, 3, opts, nil, nil)
	is.NoErr(err)
	is.Equal(len(results), len(fens))
	for i, r := range results {
		is.Equal(r.FEN, fens[i])
		is.Equal(r.Depth, 3)
		is.True(r.Move != board.NoMove)
	}
	is.True(TotalNodes(results) > 0)

	_, err = Bench(context.Background(), []string{"not a fen"}, 2, opts, nil, nil)
	is.True(err != nil)
}

func TestRepetitionIsDraw(t *testing.T) {
	is := is.New(t)
	b, err := board.ParseFEN(board.FENStartPos)
	is.NoErr(err)

	s := NewSearcher(DefaultOptions(), nil, nil)
	s.b = *b
	s.resetStates()
	is.True(!s.isDraw())

	for _, text := range []string{"g1f3", "g8f6", "f3g1", "f6g8"} {
		m, err := board.ParseMove(text)
		is.NoErr(err)
		s.apply(m)
	}
	is.True(s.isDraw())

	s.popState()
	is.True(!s.isDraw())
}

func TestFiftyMoveDraw(t *testing.T) {
	is := is.New(t)
	b, err := board.ParseFEN("4k3/8/8/8/8/8/8/R3K3 w - - 99 80")
	is.NoErr(err)

	s := NewSearcher(DefaultOptions(), nil, nil)
	s.b = *b
	s.resetStates()
	m, err := board.ParseMove("a1a2")
	is.NoErr(err)
	s.apply(m)
	is.True(s.isDraw())
}

func TestCutStatistics(t *testing.T) {
	is := is.New(t)
	b, err := board.ParseFEN(kiwipete)
	is.NoErr(err)
	s := NewSearcher(DefaultOptions(), nil, nil)

	res, err := s.Search(context.Background(), b, 5)
	is.NoErr(err)
	is.Equal(res.Stats, s.Stats())

	st := res.Stats
	is.True(st.BetaCutoffs > 0)
	is.True(st.FirstMoveCutoffs <= st.BetaCutoffs)
	var bySource uint64
	for _, n := range st.BySource {
		bySource += n
	}
	is.Equal(bySource, st.BetaCutoffs) // every cutoff move has a source stage
	rate := st.FirstMoveRate()
	is.True(rate > 0 && rate <= 1)

	var sum CutStatistics
	sum.Add(&st)
	sum.Add(&st)
	is.Equal(sum.BetaCutoffs, 2*st.BetaCutoffs)
	is.Equal(sum.FirstMoveRate(), rate)
	is.Equal(TotalStats([]BenchResult{{Result: res}, {Result: res}}), sum)

	var empty CutStatistics
	is.Equal(empty.FirstMoveRate(), 0.0)
}
