package movepick

import (
	"errors"
	"fmt"
)

// ContinuationPlies is the number of earlier plies whose continuation
// history the quiet scorer may consult.
const ContinuationPlies = 6

var ErrInvalidParams = errors.New("invalid move picker parameters")

/*
	Move scoring and staging constants.

	None of these are load-bearing beyond "higher scores are tried first": they
	are tuning knobs and are loaded from configuration. The defaults below are
	the values the picker was tuned with.
*/
type Params struct {
	// Captures: capture history + CaptureValueWeight * value(captured).
	CaptureValueWeight int `mapstructure:"capture_value_weight" yaml:"capture_value_weight"`
	// Flat bonus for captures landing on a checking square (0 disables).
	CaptureCheckBonus int `mapstructure:"capture_check_bonus" yaml:"capture_check_bonus"`

	// Quiets.
	MainHistoryWeight   int   `mapstructure:"main_history_weight" yaml:"main_history_weight"`
	PawnHistoryWeight   int   `mapstructure:"pawn_history_weight" yaml:"pawn_history_weight"`
	ContinuationWeights []int `mapstructure:"continuation_weights" yaml:"continuation_weights"`
	CheckBonus          int   `mapstructure:"check_bonus" yaml:"check_bonus"`
	CheckSEEThreshold   int   `mapstructure:"check_see_threshold" yaml:"check_see_threshold"`
	ThreatPenalty       int   `mapstructure:"threat_penalty" yaml:"threat_penalty"`
	ThreatEscapeBonus   int   `mapstructure:"threat_escape_bonus" yaml:"threat_escape_bonus"`
	LowPlyWeight        int   `mapstructure:"low_ply_weight" yaml:"low_ply_weight"`

	// Evasions: captures get this offset so they outrank every non-capture.
	EvasionCaptureOffset int `mapstructure:"evasion_capture_offset" yaml:"evasion_capture_offset"`

	// Staging.
	CaptureSEEDivisor   int `mapstructure:"capture_see_divisor" yaml:"capture_see_divisor"`
	QuietSortDepthScale int `mapstructure:"quiet_sort_depth_scale" yaml:"quiet_sort_depth_scale"`
	GoodQuietThreshold  int `mapstructure:"good_quiet_threshold" yaml:"good_quiet_threshold"`
}

func DefaultParams() Params {
	return Params{
		CaptureValueWeight:   7,
		CaptureCheckBonus:    0,
		MainHistoryWeight:    2,
		PawnHistoryWeight:    2,
		ContinuationWeights:  []int{1, 1, 1, 1, 0, 1},
		CheckBonus:           16384,
		CheckSEEThreshold:    -75,
		ThreatPenalty:        -19,
		ThreatEscapeBonus:    20,
		LowPlyWeight:         8,
		EvasionCaptureOffset: 1 << 28,
		CaptureSEEDivisor:    18,
		QuietSortDepthScale:  -3560,
		GoodQuietThreshold:   -14000,
	}
}

var defaultParams = DefaultParams()

// Validate reports parameter sets the picker cannot run with.
func (p *Params) Validate() error {
	if p.CaptureSEEDivisor == 0 {
		return fmt.Errorf("%w: capture_see_divisor must be non-zero", ErrInvalidParams)
	}
	if len(p.ContinuationWeights) != ContinuationPlies {
		return fmt.Errorf("%w: continuation_weights needs %d entries, got %d",
			ErrInvalidParams, ContinuationPlies, len(p.ContinuationWeights))
	}
	if p.EvasionCaptureOffset <= 0 {
		return fmt.Errorf("%w: evasion_capture_offset must be positive", ErrInvalidParams)
	}
	return nil
}
