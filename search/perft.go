package search

import (
	"github.com/dylhunn/dragontoothmg"

	"chess-movepick/board"
	"chess-movepick/movepick"
)

type perftFrame struct {
	pos    board.Position
	picker movepick.Picker
}

type perfter struct {
	b     dragontoothmg.Board
	stack []perftFrame
}

func newPerfter(b *dragontoothmg.Board, depth int) *perfter {
	return &perfter{b: *b, stack: make([]perftFrame, depth+1)}
}

// picker snapshots the board at ply and starts a picker without a TT move.
func (p *perfter) picker(ply, depth int) *movepick.Picker {
	f := &p.stack[ply]
	f.pos.Set(&p.b)
	f.picker.Init(&f.pos, movepick.Context{Depth: depth})
	return &f.picker
}

func (p *perfter) perft(depth, ply int) uint64 {
	if depth == 0 {
		return 1
	}
	mp := p.picker(ply, depth)
	var nodes uint64
	for m := mp.NextMove(); m != board.NoMove; m = mp.NextMove() {
		if depth == 1 {
			nodes++
			continue
		}
		undo := p.b.Apply(m)
		nodes += p.perft(depth-1, ply+1)
		undo()
	}
	return nodes
}

// Perft counts the leaf nodes of the legal move tree of b to depth, with
// every node enumerating its moves through the move picker.
func Perft(b *dragontoothmg.Board, depth int) uint64 {
	if depth <= 0 {
		return 1
	}
	return newPerfter(b, depth).perft(depth, 0)
}

type DivideEntry struct {
	Move  board.Move
	Nodes uint64
}

// Divide returns the perft count below each root move, in picker order.
func Divide(b *dragontoothmg.Board, depth int) []DivideEntry {
	if depth <= 0 {
		return nil
	}
	p := newPerfter(b, depth)
	mp := p.picker(0, depth)

	var out []DivideEntry
	for m := mp.NextMove(); m != board.NoMove; m = mp.NextMove() {
		undo := p.b.Apply(m)
		out = append(out, DivideEntry{Move: m, Nodes: p.perft(depth-1, 1)})
		undo()
	}
	return out
}
