package types

import (
	ierr "github.com/vidinfra/revalloc/internal/errors"
	"github.com/samber/lo"
)

// AllocationStrategy selects how a contract total is split across lines
type AllocationStrategy string

const (
	// AllocationStrategyAuto lets the engine pick a strategy from catalog and policy state
	AllocationStrategyAuto AllocationStrategy = "AUTO"
	// AllocationStrategyRelativeSsp splits the total proportionally to approved SSPs
	AllocationStrategyRelativeSsp AllocationStrategy = "RELATIVE_SSP"
	// AllocationStrategyResidual prices observable lines directly and assigns the
	// remainder to residual-eligible lines
	AllocationStrategyResidual AllocationStrategy = "RESIDUAL"
)

func (s AllocationStrategy) String() string {
	return string(s)
}

func (s AllocationStrategy) Validate() error {
	allowed := []AllocationStrategy{
		AllocationStrategyAuto,
		AllocationStrategyRelativeSsp,
		AllocationStrategyResidual,
	}
	if !lo.Contains(allowed, s) {
		return ierr.NewError("invalid allocation strategy").
			WithHint("Please provide a valid allocation strategy").
			WithReportableDetails(map[string]any{
				"allowed": allowed,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// RoundingMode controls how per-line allocated amounts are rounded to the
// currency minor unit
type RoundingMode string

const (
	// RoundingModeHalfUp rounds half away from zero
	RoundingModeHalfUp RoundingMode = "HALF_UP"
	// RoundingModeBankers rounds half to even
	RoundingModeBankers RoundingMode = "BANKERS"
)

func (m RoundingMode) String() string {
	return string(m)
}

func (m RoundingMode) Validate() error {
	allowed := []RoundingMode{
		RoundingModeHalfUp,
		RoundingModeBankers,
	}
	if !lo.Contains(allowed, m) {
		return ierr.NewError("invalid rounding mode").
			WithHint("Please provide a valid rounding mode").
			WithReportableDetails(map[string]any{
				"allowed": allowed,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}
