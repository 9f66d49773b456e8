package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const kiwipete = "r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1"

// run executes a command and prints its combined output. Returns exit code.
func run(name string, args ...string) int {
	cmd := exec.Command(name, args...)
	cmd.Env = os.Environ()
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	err := cmd.Run()
	fmt.Print(out.String())
	if err == nil {
		return 0
	}
	var ee *exec.ExitError
	if errors.As(err, &ee) {
		return ee.ExitCode()
	}
	log.Error().Err(err).Str("cmd", name).Msg("running command")
	return 1
}

// Runs the bench/ benchmarks, then perft and search throughput.
// Usage: go run ./cmd/benchrun
func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	fmt.Println("Columns: BENCHMARK  N  ns/op  B/op  allocs/op")
	if code := run("go", "test", "./bench", "-run", "^$", "-bench", ".", "-benchmem", "-benchtime=1s"); code != 0 {
		os.Exit(code)
	}

	fmt.Println("\nPerft through the picker:")
	fmt.Println("TEST \t\tDepth \t\tNodes \t\tTime \tNPS")
	for _, depth := range []string{"3", "4", "5"} {
		run("go", "run", "./cmd/perft", "-depth", depth, "-label", "Initial")
	}
	run("go", "run", "./cmd/perft", "-fen", kiwipete, "-depth", "3", "-label", "Kiwipete")
	run("go", "run", "./cmd/perft", "-fen", kiwipete, "-depth", "4", "-label", "Kiwipete")

	fmt.Println("\nSearch:")
	run("go", "run", "./cmd/searchbench", "-depth", "5")
	run("go", "run", "./cmd/searchbench", "-depth", "5", "-threads", "4")
}
