package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"runtime/pprof"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"chess-movepick/board"
	"chess-movepick/config"
	"chess-movepick/history"
	"chess-movepick/movepick"
	"chess-movepick/search"
)

// benchFENs is searched when no -fen is given.
var benchFENs = []string{
	board.FENStartPos,
	"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1",
	"8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 0 1",
	"r3k2r/Pppp1ppp/1b3nbN/nP6/BBP1P3/q4N2/Pp1P2PP/R2Q1RK1 w kq - 0 1",
	"rnbq1k1r/pp1Pbppp/2p5/8/2B5/8/PPP1NnPP/RNBQK2R w KQ - 1 8",
	"r4rk1/1pp1qppp/p1np1n2/2b1p1B1/2B1P1b1/P1NP1N2/1PP1QPPP/R4RK1 w - - 0 10",
}

func main() {
	depthFlag := flag.Int("depth", 6, "search depth in plies")
	repeatFlag := flag.Int("repeat", 1, "number of bench runs")
	threadsFlag := flag.Int("threads", 0, "parallel searches (0 = settings value)")
	fenFlag := flag.String("fen", "", "FEN to search (empty = built-in bench set)")
	clockFlag := flag.Duration("clock", 0, "search each position on this clock instead of a fixed depth")
	incFlag := flag.Duration("inc", 0, "increment per move for -clock")
	configPath := flag.String("config", "", "settings file (YAML)")
	cpuProfile := flag.String("cpuprofile", "", "write CPU profile to file")
	memProfile := flag.String("memprofile", "", "write memory profile (heap) to file")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	settings, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("loading settings")
	}
	zerolog.SetGlobalLevel(settings.Level())
	if *depthFlag <= 0 {
		log.Fatal().Int("depth", *depthFlag).Msg("depth must be positive")
	}
	if *threadsFlag > 0 {
		settings.Search.Threads = *threadsFlag
	}

	fens := benchFENs
	if *fenFlag != "" {
		fens = []string{*fenFlag}
	}

	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			log.Fatal().Err(err).Msg("could not create CPU profile")
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			log.Fatal().Err(err).Msg("could not start CPU profile")
		}
		defer func() {
			pprof.StopCPUProfile()
			f.Close()
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Printf("searchbench: positions=%d depth=%d threads=%d repeat=%d\n",
		len(fens), *depthFlag, settings.Search.Threads, *repeatFlag)

	// Histories carry over between runs, as between the moves of a game.
	hist := history.New()
	if *clockFlag > 0 {
		clockRun(ctx, fens, *clockFlag, *incFlag, settings, hist)
		return
	}
	startAll := time.Now()
	var allNodes uint64
	for i := 0; i < *repeatFlag; i++ {
		iterStart := time.Now()
		results, err := search.Bench(ctx, fens, *depthFlag, settings.Search, &settings.Picker, hist)
		if err != nil {
			log.Fatal().Err(err).Msg("bench failed")
		}
		iterElapsed := time.Since(iterStart)

		for _, r := range results {
			fmt.Printf("  %-8s %6d  %10d  %s\n", board.FormatMove(r.Move), r.Score, r.Nodes, r.FEN)
		}
		nodes := search.TotalNodes(results)
		allNodes += nodes
		deepest := lo.MaxBy(results, func(a, b search.BenchResult) bool { return len(a.PV) > len(b.PV) })
		fmt.Printf("run %d: nodes=%d time=%v nps=%.0f longest-pv=%q\n",
			i+1, nodes, iterElapsed, float64(nodes)/iterElapsed.Seconds(), deepest.PVString())
		cuts := search.TotalStats(results)
		fmt.Printf("  cutoffs=%d first-move=%.1f%% tt=%d probcut=%d quiet-skips=%d\n",
			cuts.BetaCutoffs, 100*cuts.FirstMoveRate(), cuts.TTCutoffs, cuts.ProbCutCutoffs, cuts.QuietSkips)
		for st, n := range cuts.BySource {
			if n > 0 {
				fmt.Printf("    %-13s %d\n", movepick.Stage(st), n)
			}
		}
	}
	totalElapsed := time.Since(startAll)
	fmt.Printf("total: nodes=%d time=%v nps=%.0f\n", allNodes, totalElapsed, float64(allNodes)/totalElapsed.Seconds())

	if *memProfile != "" {
		f, err := os.Create(*memProfile)
		if err != nil {
			log.Fatal().Err(err).Msg("could not create memory profile")
		}
		defer f.Close()

		runtime.GC()
		if err := pprof.WriteHeapProfile(f); err != nil {
			log.Fatal().Err(err).Msg("could not write memory profile")
		}
	}
}

// clockRun searches the positions one after another, each for the time the
// clock allots it.
func clockRun(ctx context.Context, fens []string, clock, inc time.Duration, settings config.Settings, hist *history.Tables) {
	s := search.NewSearcher(settings.Search, &settings.Picker, hist)
	for _, fen := range fens {
		b, err := board.ParseFEN(fen)
		if err != nil {
			log.Fatal().Err(err).Msg("")
		}
		start := time.Now()
		res, err := s.SearchClock(ctx, b, clock, inc)
		if err != nil {
			log.Fatal().Err(err).Msg("search failed")
		}
		fmt.Printf("  %-8s %6d  depth=%-3d budget=%v used=%v  %s\n",
			board.FormatMove(res.Move), res.Score, res.Depth, search.MoveBudget(b, clock, inc), time.Since(start), fen)
	}
}
