package search

import (
	"unsafe"

	"chess-movepick/board"
)

const (
	// Flags
	AlphaFlag uint8 = iota
	BetaFlag
	ExactFlag

	clusterSize = 4
)

type TTEntry struct {
	Hash  uint64
	Score int32
	Move  board.Move
	Depth int8
	Flag  uint8
}

// TransTable is a clustered hash table of search results. It belongs to a
// single Searcher.
type TransTable struct {
	entries      []TTEntry
	clusterCount uint64
}

// NewTransTable allocates a table of about sizeMB megabytes.
func NewTransTable(sizeMB int) *TransTable {
	clusterBytes := uint64(unsafe.Sizeof(TTEntry{})) * clusterSize
	clusterCount := uint64(sizeMB) * 1024 * 1024 / clusterBytes
	if clusterCount == 0 {
		clusterCount = 1
	}
	return &TransTable{
		entries:      make([]TTEntry, clusterCount*clusterSize),
		clusterCount: clusterCount,
	}
}

func (tt *TransTable) Clear() {
	clear(tt.entries)
}

func (tt *TransTable) cluster(hash uint64) []TTEntry {
	base := hash % tt.clusterCount * clusterSize
	return tt.entries[base : base+clusterSize]
}

// Probe returns the entry stored for hash, if any.
func (tt *TransTable) Probe(hash uint64) (TTEntry, bool) {
	for _, e := range tt.cluster(hash) {
		if e.Hash == hash {
			return e, true
		}
	}
	return TTEntry{}, false
}

// Store records a result. An entry for the same hash is updated in place,
// otherwise an empty slot is taken, otherwise the shallowest entry of the
// cluster is replaced. Mate scores are stored relative to the node.
func (tt *TransTable) Store(hash uint64, depth, ply int, move board.Move, score int32, flag uint8) {
	if score > Checkmate {
		score += int32(ply)
	} else if score < -Checkmate {
		score -= int32(ply)
	}

	c := tt.cluster(hash)
	target := -1
	for i := range c {
		if c[i].Hash == hash {
			target = i
			break
		}
	}
	if target == -1 {
		for i := range c {
			if c[i].Hash == 0 {
				target = i
				break
			}
		}
	}
	if target == -1 {
		target = 0
		for i := 1; i < clusterSize; i++ {
			if c[i].Depth < c[target].Depth {
				target = i
			}
		}
	}

	// Keep the old move when the new result has none.
	if move == board.NoMove && c[target].Hash == hash {
		move = c[target].Move
	}
	c[target] = TTEntry{Hash: hash, Score: score, Move: move, Depth: int8(depth), Flag: flag}
}

// Cutoff returns the stored score if it decides the (alpha, beta) window at
// the given depth.
func (e TTEntry) Cutoff(depth, ply int, alpha, beta int32) (int32, bool) {
	if int(e.Depth) < depth {
		return 0, false
	}
	score := e.Score
	if score > Checkmate {
		score -= int32(ply)
	} else if score < -Checkmate {
		score += int32(ply)
	}
	switch e.Flag {
	case ExactFlag:
		return score, true
	case AlphaFlag:
		if score <= alpha {
			return alpha, true
		}
	case BetaFlag:
		if score >= beta {
			return beta, true
		}
	}
	return 0, false
}
