package search

import (
	"github.com/rs/zerolog"

	"chess-movepick/movepick"
)

// CutStatistics counts how nodes were cut, and which picker stage produced
// the moves that failed high.
type CutStatistics struct {
	TTCutoffs        uint64
	ProbCutCutoffs   uint64
	QuietSkips       uint64
	BetaCutoffs      uint64
	FirstMoveCutoffs uint64
	QStandPatCutoffs uint64
	QBetaCutoffs     uint64

	BySource [movepick.QCapture + 1]uint64
}

func (c *CutStatistics) betaCutoff(source movepick.Stage, moveCount int) {
	c.BetaCutoffs++
	if moveCount == 1 {
		c.FirstMoveCutoffs++
	}
	c.BySource[source]++
}

// FirstMoveRate is the share of beta cutoffs found on the first move, the
// usual measure of move ordering quality.
func (c *CutStatistics) FirstMoveRate() float64 {
	if c.BetaCutoffs == 0 {
		return 0
	}
	return float64(c.FirstMoveCutoffs) / float64(c.BetaCutoffs)
}

// Add accumulates o into c.
func (c *CutStatistics) Add(o *CutStatistics) {
	c.TTCutoffs += o.TTCutoffs
	c.ProbCutCutoffs += o.ProbCutCutoffs
	c.QuietSkips += o.QuietSkips
	c.BetaCutoffs += o.BetaCutoffs
	c.FirstMoveCutoffs += o.FirstMoveCutoffs
	c.QStandPatCutoffs += o.QStandPatCutoffs
	c.QBetaCutoffs += o.QBetaCutoffs
	for i := range c.BySource {
		c.BySource[i] += o.BySource[i]
	}
}

func (c *CutStatistics) MarshalZerologObject(e *zerolog.Event) {
	e.Uint64("tt", c.TTCutoffs).
		Uint64("probcut", c.ProbCutCutoffs).
		Uint64("quiet_skips", c.QuietSkips).
		Uint64("beta", c.BetaCutoffs).
		Float64("first_move_rate", c.FirstMoveRate()).
		Uint64("qstandpat", c.QStandPatCutoffs).
		Uint64("qbeta", c.QBetaCutoffs)
	sources := zerolog.Dict()
	for st, n := range c.BySource {
		if n > 0 {
			sources.Uint64(movepick.Stage(st).String(), n)
		}
	}
	e.Dict("by_source", sources)
}
