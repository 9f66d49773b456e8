package main

import (
	"flag"
	"fmt"
	"os"
	"runtime/pprof"
	"slices"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"chess-movepick/board"
	"chess-movepick/search"
)

func main() {
	fen := flag.String("fen", board.FENStartPos, "FEN string (defaults to initial position)")
	depth := flag.Int("depth", 0, "Perft depth (required)")
	divide := flag.Bool("divide", false, "Print per-move node counts at root")
	repeat := flag.Int("repeat", 1, "Repeat perft N times and report aggregate (for steadier timings)")
	label := flag.String("label", "", "Optional label prefix for one-line output")
	cpuProf := flag.String("cpuprofile", "", "Write CPU profile to file during run")
	memProf := flag.String("memprofile", "", "Write heap profile to file after run")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	if *depth <= 0 {
		log.Fatal().Int("depth", *depth).Msg("-depth must be > 0")
	}

	b, err := board.ParseFEN(*fen)
	if err != nil {
		log.Fatal().Err(err).Msg("")
	}

	if *divide {
		entries := search.Divide(b, *depth)
		slices.SortFunc(entries, func(x, y search.DivideEntry) int {
			return strings.Compare(board.FormatMove(x.Move), board.FormatMove(y.Move))
		})
		for _, e := range entries {
			fmt.Printf("%s: %d\n", board.FormatMove(e.Move), e.Nodes)
		}
		fmt.Printf("Total: %d\n", lo.SumBy(entries, func(e search.DivideEntry) uint64 { return e.Nodes }))
		return
	}

	if *cpuProf != "" {
		f, err := os.Create(*cpuProf)
		if err != nil {
			log.Fatal().Err(err).Msg("creating cpuprofile")
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			log.Fatal().Err(err).Msg("start cpu profile")
		}
		defer func() {
			pprof.StopCPUProfile()
			_ = f.Close()
		}()
	}

	var totalNodes uint64
	start := time.Now()
	for i := 0; i < *repeat; i++ {
		totalNodes += search.Perft(b, *depth)
	}
	elapsed := time.Since(start)
	nps := float64(totalNodes) / elapsed.Seconds()

	// Depth Nodes Time NPS
	fmt.Printf("%s \t%d \t\t%d \t\t%s \t%.0f\n", *label, *depth, totalNodes, elapsed, nps)

	if *memProf != "" {
		f, err := os.Create(*memProf)
		if err != nil {
			log.Fatal().Err(err).Msg("creating memprofile")
		}
		if err := pprof.WriteHeapProfile(f); err != nil {
			log.Fatal().Err(err).Msg("write heap profile")
		}
		_ = f.Close()
	}
}
