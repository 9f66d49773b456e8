// Command movepick prints the move stream of one node in the order the
// picker emits it, with the stage each move came from and its score.
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"chess-movepick/board"
	"chess-movepick/config"
	"chess-movepick/history"
	"chess-movepick/movepick"
)

type emission struct {
	move   board.Move
	source movepick.Stage
	score  int
}

func main() {
	fen := flag.String("fen", board.FENStartPos, "position to pick moves for")
	tt := flag.String("tt", "", "transposition-table move, e.g. e2e4")
	depth := flag.Int("depth", 1, "remaining depth; <= 0 selects the quiescence picker")
	ply := flag.Int("ply", 0, "distance from the root, enables low-ply history below 5")
	skipAfter := flag.Int("skip-quiets-after", -1, "skip quiet moves after this many moves have been emitted")
	configPath := flag.String("config", "", "settings file (YAML)")
	var probcut *int
	flag.Func("probcut", "use the ProbCut picker with this exchange threshold", func(s string) error {
		n, err := strconv.Atoi(s)
		if err != nil {
			return err
		}
		probcut = &n
		return nil
	})
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	settings, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("loading settings")
	}
	zerolog.SetGlobalLevel(settings.Level())

	b, err := board.ParseFEN(*fen)
	if err != nil {
		log.Fatal().Err(err).Msg("")
	}
	ttMove := board.NoMove
	if *tt != "" {
		if ttMove, err = board.ParseMove(*tt); err != nil {
			log.Fatal().Err(err).Msg("")
		}
	}

	pos := board.NewPosition(b)
	hist := history.New()
	var mp *movepick.Picker
	if probcut != nil {
		mp = movepick.NewProbCut(pos, ttMove, *probcut, &hist.Capture, &settings.Picker)
	} else {
		mp = movepick.New(pos, movepick.TablesContext(hist, ttMove, *depth, *ply, &settings.Picker))
	}
	log.Debug().Str("fen", b.ToFen()).Stringer("stage", mp.Stage()).Msg("picker ready")

	var out []emission
	for {
		if *skipAfter >= 0 && len(out) == *skipAfter {
			mp.SkipQuietMoves()
		}
		m := mp.NextMove()
		if m == board.NoMove {
			break
		}
		out = append(out, emission{move: m, source: mp.Source(), score: mp.Score()})
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "#\tmove\tstage\tscore")
	for i, e := range out {
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\n", i+1, board.FormatMove(e.move), e.source, e.score)
	}
	w.Flush()

	counts := lo.CountValuesBy(out, func(e emission) movepick.Stage { return e.source })
	stages := lo.Uniq(lo.Map(out, func(e emission, _ int) movepick.Stage { return e.source }))
	fmt.Printf("\n%d moves:", len(out))
	for _, s := range stages {
		fmt.Printf(" %s=%d", s, counts[s])
	}
	fmt.Println()
}
