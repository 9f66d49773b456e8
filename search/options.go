package search

import (
	"errors"
	"fmt"
)

var ErrInvalidOptions = errors.New("invalid search options")

// Options tunes the driving search. They are loaded from the "search"
// section of the settings file.
type Options struct {
	// ProbCut tries captures against beta+ProbCutMargin at nodes of at least
	// ProbCutMinDepth.
	ProbCutMargin   int `mapstructure:"probcut_margin" yaml:"probcut_margin"`
	ProbCutMinDepth int `mapstructure:"probcut_min_depth" yaml:"probcut_min_depth"`

	// Quiet moves are skipped once LateMoveBase+depth² moves were searched.
	LateMoveBase int `mapstructure:"late_move_base" yaml:"late_move_base"`

	// History bonus for a cutoff at depth d: min(scale*d + offset, max).
	HistoryBonusScale  int `mapstructure:"history_bonus_scale" yaml:"history_bonus_scale"`
	HistoryBonusOffset int `mapstructure:"history_bonus_offset" yaml:"history_bonus_offset"`
	HistoryBonusMax    int `mapstructure:"history_bonus_max" yaml:"history_bonus_max"`

	TTSizeMB int `mapstructure:"tt_size_mb" yaml:"tt_size_mb"`
	Threads  int `mapstructure:"threads" yaml:"threads"`
}

func DefaultOptions() Options {
	return Options{
		ProbCutMargin:      224,
		ProbCutMinDepth:    5,
		LateMoveBase:       3,
		HistoryBonusScale:  170,
		HistoryBonusOffset: -90,
		HistoryBonusMax:    1700,
		TTSizeMB:           16,
		Threads:            1,
	}
}

func (o *Options) Validate() error {
	if o.TTSizeMB <= 0 {
		return fmt.Errorf("%w: tt_size_mb must be positive, got %d", ErrInvalidOptions, o.TTSizeMB)
	}
	if o.Threads <= 0 {
		return fmt.Errorf("%w: threads must be positive, got %d", ErrInvalidOptions, o.Threads)
	}
	if o.ProbCutMinDepth < 1 {
		return fmt.Errorf("%w: probcut_min_depth must be at least 1", ErrInvalidOptions)
	}
	if o.LateMoveBase < 1 {
		return fmt.Errorf("%w: late_move_base must be at least 1", ErrInvalidOptions)
	}
	return nil
}

// statBonus is the history bonus for a cutoff at depth.
func (o *Options) statBonus(depth int) int {
	return min(o.HistoryBonusScale*depth+o.HistoryBonusOffset, o.HistoryBonusMax)
}
