// Command mpshell steps a move picker interactively.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/chzyer/readline"
	"github.com/kballard/go-shellquote"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"chess-movepick/board"
	"chess-movepick/config"
	"chess-movepick/history"
	"chess-movepick/movepick"
)

var errQuit = errors.New("quit")

func usage(w io.Writer) {
	io.WriteString(w, "commands:\n")
	io.WriteString(w, "fen <FEN...> - set the position (resets the picker)\n")
	io.WriteString(w, "tt <move>|none - set the transposition-table move\n")
	io.WriteString(w, "depth <n> - remaining depth, <= 0 for the quiescence picker\n")
	io.WriteString(w, "ply <n> - distance from the root\n")
	io.WriteString(w, "probcut <n>|off - use the ProbCut picker with exchange threshold n\n")
	io.WriteString(w, "new - rebuild the picker from the current settings\n")
	io.WriteString(w, "next [n] - emit the next n moves (default 1)\n")
	io.WriteString(w, "all - emit every remaining move\n")
	io.WriteString(w, "skip - skip quiet moves from now on\n")
	io.WriteString(w, "stage - show the picker state\n")
	io.WriteString(w, "quit - exit\n")
}

func filterInput(r rune) (rune, bool) {
	switch r {
	case readline.CharCtrlZ:
		return r, false
	}
	return r, true
}

type shell struct {
	l        *readline.Instance
	settings config.Settings
	hist     *history.Tables

	b        *board.Position
	fen      string
	ttMove   board.Move
	depth    int
	ply      int
	probcut  *int
	mp       *movepick.Picker
	emitted  int
	finished bool
}

func newShell(settings config.Settings) (*shell, error) {
	l, err := readline.NewEx(&readline.Config{
		Prompt:          "\033[32mmovepick>\033[0m ",
		HistoryFile:     "/tmp/mpshell.readline.tmp",
		EOFPrompt:       "quit",
		InterruptPrompt: "^C",

		HistorySearchFold:   true,
		FuncFilterInputRune: filterInput,
	})
	if err != nil {
		return nil, err
	}
	sh := &shell{l: l, settings: settings, hist: history.New(), depth: 1}
	if err := sh.setFEN(board.FENStartPos); err != nil {
		return nil, err
	}
	return sh, nil
}

func (sh *shell) out() io.Writer { return sh.l.Stdout() }

func (sh *shell) setFEN(fen string) error {
	b, err := board.ParseFEN(fen)
	if err != nil {
		return err
	}
	sh.fen = b.ToFen()
	sh.b = board.NewPosition(b)
	sh.reset()
	return nil
}

// reset rebuilds the picker for the current position and settings.
func (sh *shell) reset() {
	if sh.probcut != nil {
		sh.mp = movepick.NewProbCut(sh.b, sh.ttMove, *sh.probcut, &sh.hist.Capture, &sh.settings.Picker)
	} else {
		sh.mp = movepick.New(sh.b, movepick.TablesContext(sh.hist, sh.ttMove, sh.depth, sh.ply, &sh.settings.Picker))
	}
	sh.emitted = 0
	sh.finished = false
	log.Debug().Str("fen", sh.fen).Stringer("stage", sh.mp.Stage()).Msg("picker reset")
}

func (sh *shell) next(n int) {
	for ; n != 0; n-- {
		if sh.finished {
			fmt.Fprintln(sh.out(), "(exhausted)")
			return
		}
		m := sh.mp.NextMove()
		if m == board.NoMove {
			sh.finished = true
			fmt.Fprintf(sh.out(), "(exhausted after %d moves)\n", sh.emitted)
			return
		}
		sh.emitted++
		fmt.Fprintf(sh.out(), "%3d  %-6s %-13s %d\n", sh.emitted, board.FormatMove(m), sh.mp.Source(), sh.mp.Score())
	}
}

func intArg(fields []string, def int) (int, error) {
	if len(fields) < 2 {
		return def, nil
	}
	return strconv.Atoi(fields[1])
}

func (sh *shell) execute(line string) error {
	fields, err := shellquote.Split(line)
	if err != nil {
		return err
	}
	if len(fields) == 0 {
		return nil
	}

	switch fields[0] {
	case "fen":
		if len(fields) < 2 {
			return errors.New("fen needs a position")
		}
		return sh.setFEN(strings.Join(fields[1:], " "))
	case "tt":
		if len(fields) < 2 || fields[1] == "none" {
			sh.ttMove = board.NoMove
		} else if sh.ttMove, err = board.ParseMove(fields[1]); err != nil {
			return err
		}
		sh.reset()
	case "depth":
		if sh.depth, err = intArg(fields, 1); err != nil {
			return err
		}
		sh.reset()
	case "ply":
		if sh.ply, err = intArg(fields, 0); err != nil {
			return err
		}
		sh.reset()
	case "probcut":
		if len(fields) < 2 || fields[1] == "off" {
			sh.probcut = nil
		} else {
			n, err := strconv.Atoi(fields[1])
			if err != nil {
				return err
			}
			sh.probcut = &n
		}
		sh.reset()
	case "new":
		sh.reset()
	case "next", "n":
		n, err := intArg(fields, 1)
		if err != nil {
			return err
		}
		sh.next(n)
	case "all":
		sh.next(-1)
	case "skip":
		sh.mp.SkipQuietMoves()
	case "stage":
		mode := "main"
		switch {
		case sh.probcut != nil:
			mode = fmt.Sprintf("probcut %d", *sh.probcut)
		case sh.depth <= 0:
			mode = "qsearch"
		}
		fmt.Fprintf(sh.out(), "fen %s\nmode %s, depth %d, ply %d, tt %s\nstage %s, %d emitted\n",
			sh.fen, mode, sh.depth, sh.ply, board.FormatMove(sh.ttMove), sh.mp.Stage(), sh.emitted)
	case "help":
		usage(sh.out())
	case "quit", "exit":
		return errQuit
	default:
		return fmt.Errorf("unknown command %q", fields[0])
	}
	return nil
}

func (sh *shell) loop() {
	defer sh.l.Close()
	for {
		line, err := sh.l.Readline()
		if err == readline.ErrInterrupt {
			if len(line) == 0 {
				return
			}
			continue
		} else if err == io.EOF {
			return
		}

		if err := sh.execute(strings.TrimSpace(line)); err != nil {
			if errors.Is(err, errQuit) {
				return
			}
			log.Error().Err(err).Msg("")
		}
	}
}

func main() {
	configPath := flag.String("config", "", "settings file (YAML)")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	settings, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("loading settings")
	}
	zerolog.SetGlobalLevel(settings.Level())

	sh, err := newShell(settings)
	if err != nil {
		log.Fatal().Err(err).Msg("")
	}
	usage(sh.out())
	sh.loop()
}
