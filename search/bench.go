package search

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"chess-movepick/board"
	"chess-movepick/history"
	"chess-movepick/movepick"
)

type BenchResult struct {
	FEN string
	Result
}

// Bench searches every position to depth using opts.Threads workers. All
// workers share hist, so cutoffs found in one position reorder the others.
func Bench(ctx context.Context, fens []string, depth int, opts Options, params *movepick.Params, hist *history.Tables) ([]BenchResult, error) {
	if hist == nil {
		hist = history.New()
	}
	results := make([]BenchResult, len(fens))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(opts.Threads, 1))
	for i, fen := range fens {
		i, fen := i, fen
		g.Go(func() error {
			b, err := board.ParseFEN(fen)
			if err != nil {
				return fmt.Errorf("bench position %d: %w", i, err)
			}
			res, err := NewSearcher(opts, params, hist).Search(ctx, b, depth)
			if err != nil {
				return fmt.Errorf("bench position %d: %w", i, err)
			}
			log.Debug().Str("fen", fen).Str("move", board.FormatMove(res.Move)).Uint64("nodes", res.Nodes).Msg("bench position done")
			results[i] = BenchResult{FEN: fen, Result: res}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// TotalNodes sums the node counts of results.
func TotalNodes(results []BenchResult) uint64 {
	var n uint64
	for _, r := range results {
		n += r.Nodes
	}
	return n
}

// TotalStats sums the cut statistics of results.
func TotalStats(results []BenchResult) CutStatistics {
	var c CutStatistics
	for i := range results {
		c.Add(&results[i].Stats)
	}
	return c
}
