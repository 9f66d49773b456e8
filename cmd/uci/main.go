// Command uci plays through the UCI protocol with the picker-driven search.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dylhunn/dragontoothmg"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"chess-movepick/board"
	"chess-movepick/config"
	"chess-movepick/history"
	"chess-movepick/search"
)

const defaultClock = 5 * time.Minute

type engine struct {
	mu  sync.Mutex
	out io.Writer

	settings config.Settings
	hist     *history.Tables
	searcher *search.Searcher
	board    *dragontoothmg.Board

	cancel context.CancelFunc
	done   chan struct{}
}

func newEngine(out io.Writer, settings config.Settings) *engine {
	e := &engine{out: out, settings: settings}
	e.newGame()
	return e
}

func (e *engine) println(a ...any) {
	e.mu.Lock()
	defer e.mu.Unlock()
	fmt.Fprintln(e.out, a...)
}

func (e *engine) newGame() {
	e.hist = history.New()
	e.searcher = search.NewSearcher(e.settings.Search, &e.settings.Picker, e.hist)
	e.searcher.OnIteration(e.info)
	e.board, _ = board.ParseFEN(board.FENStartPos)
}

func (e *engine) info(r search.Result) {
	score := fmt.Sprintf("cp %d", r.Score)
	switch {
	case r.Score > search.Checkmate:
		score = fmt.Sprintf("mate %d", (search.MaxScore-r.Score+1)/2)
	case r.Score < -search.Checkmate:
		score = fmt.Sprintf("mate -%d", (search.MaxScore+r.Score)/2)
	}
	e.println(fmt.Sprintf("info depth %d score %s nodes %d pv %s", r.Depth, score, r.Nodes, r.PVString()))
}

// wait blocks until the running search, if any, has printed its move. Under
// go infinite that requires a stop first.
func (e *engine) wait() {
	if e.done != nil {
		<-e.done
		e.done = nil
	}
}

func (e *engine) stop() {
	if e.cancel != nil {
		e.cancel()
	}
	e.wait()
}

// handle executes one command and reports whether the loop should exit.
func (e *engine) handle(line string) bool {
	tokens := strings.Fields(line)
	if len(tokens) == 0 {
		return false
	}
	switch strings.ToLower(tokens[0]) {
	case "uci":
		e.println("id name movepick")
		e.println("id author movepick")
		e.println(fmt.Sprintf("option name Hash type spin default %d min 1 max 4096", e.settings.Search.TTSizeMB))
		e.println("uciok")
	case "isready":
		e.println("readyok")
	case "ucinewgame":
		e.stop()
		e.newGame()
	case "setoption":
		e.setOption(tokens[1:])
	case "position":
		e.stop()
		if err := e.position(tokens[1:]); err != nil {
			e.println("info string", err)
		}
	case "go":
		e.stop()
		e.goSearch(tokens[1:])
	case "stop":
		e.stop()
	case "quit":
		e.stop()
		return true
	default:
		e.println("info string unknown command", tokens[0])
	}
	return false
}

func (e *engine) setOption(tokens []string) {
	// setoption name Hash value 64
	if len(tokens) == 4 && tokens[0] == "name" && strings.EqualFold(tokens[1], "hash") && tokens[2] == "value" {
		mb, err := strconv.Atoi(tokens[3])
		if err != nil || mb < 1 {
			e.println("info string invalid Hash value", tokens[3])
			return
		}
		e.stop()
		e.settings.Search.TTSizeMB = mb
		e.searcher = search.NewSearcher(e.settings.Search, &e.settings.Picker, e.hist)
		e.searcher.OnIteration(e.info)
		return
	}
	e.println("info string unsupported option", strings.Join(tokens, " "))
}

func (e *engine) position(tokens []string) error {
	if len(tokens) == 0 {
		return fmt.Errorf("malformed position command")
	}
	var fen string
	rest := tokens[1:]
	switch strings.ToLower(tokens[0]) {
	case "startpos":
		fen = board.FENStartPos
	case "fen":
		i := 0
		for i < len(rest) && rest[i] != "moves" {
			i++
		}
		fen, rest = strings.Join(rest[:i], " "), rest[i:]
	default:
		return fmt.Errorf("invalid position subcommand %q", tokens[0])
	}

	b, err := board.ParseFEN(fen)
	if err != nil {
		return err
	}
	if len(rest) > 0 && rest[0] == "moves" {
		for _, text := range rest[1:] {
			m, err := board.ParseMove(strings.ToLower(text))
			if err != nil {
				return err
			}
			if !board.NewPosition(b).PseudoLegal(m) {
				return fmt.Errorf("move %s is not legal in %s", text, b.ToFen())
			}
			b.Apply(m)
		}
	}
	e.board = b
	return nil
}

func (e *engine) goSearch(tokens []string) {
	var (
		depth     int
		moveTime  time.Duration
		clock     [2]time.Duration
		inc       [2]time.Duration
		infinite  bool
		wantValue = map[string]bool{"depth": true, "movetime": true, "wtime": true, "btime": true, "winc": true, "binc": true}
	)
	for i := 0; i < len(tokens); i++ {
		key := strings.ToLower(tokens[i])
		if key == "infinite" {
			infinite = true
			continue
		}
		if !wantValue[key] || i+1 >= len(tokens) {
			e.println("info string unknown go subcommand", key)
			continue
		}
		i++
		n, err := strconv.Atoi(tokens[i])
		if err != nil {
			e.println("info string malformed go option", key)
			continue
		}
		ms := time.Duration(n) * time.Millisecond
		switch key {
		case "depth":
			depth = n
		case "movetime":
			moveTime = ms
		case "wtime":
			clock[0] = ms
		case "btime":
			clock[1] = ms
		case "winc":
			inc[0] = ms
		case "binc":
			inc[1] = ms
		}
	}

	side := 0
	if !e.board.Wtomove {
		side = 1
	}
	var budget time.Duration
	switch {
	case depth > 0 || infinite:
	case moveTime > 0:
		budget = moveTime
	default:
		remaining := clock[side]
		if remaining <= 0 {
			remaining = defaultClock
		}
		budget = search.MoveBudget(e.board, remaining, inc[side])
	}
	var (
		ctx    context.Context
		cancel context.CancelFunc
	)
	if budget > 0 {
		ctx, cancel = context.WithTimeout(context.Background(), budget)
	} else {
		ctx, cancel = context.WithCancel(context.Background())
	}
	if depth <= 0 || depth >= search.MaxPly {
		depth = search.MaxPly - 1
	}

	e.cancel = cancel
	e.done = make(chan struct{})
	b, s, done := e.board, e.searcher, e.done
	go func() {
		defer close(done)
		defer cancel()
		res, err := s.Search(ctx, b, depth)
		if err != nil {
			log.Error().Err(err).Msg("search")
		}
		// An infinite search reports its move only after stop.
		if infinite {
			<-ctx.Done()
		}
		e.println("bestmove", board.FormatMove(res.Move))
	}()
}

func main() {
	configPath := flag.String("config", "", "settings file (YAML)")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	settings, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("loading settings")
	}
	// Iteration logs go to stderr; the GUI reads the info lines.
	zerolog.SetGlobalLevel(max(settings.Level(), zerolog.WarnLevel))

	e := newEngine(os.Stdout, settings)
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		if e.handle(scanner.Text()) {
			return
		}
	}
	e.stop()
}
