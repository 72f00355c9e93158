package config

import (
	"fmt"
	"time"

	"github.com/earnor/look-ahead-planning/core/milp"
)

// SolverConfig bounds the branch-and-bound search.
type SolverConfig struct {
	// TimeLimitSeconds caps the wall-clock time of one solve.
	TimeLimitSeconds int `json:"time_limit_seconds"`
	// GapTolerance stops the search once the relative optimality gap is
	// proven smaller.
	GapTolerance float64 `json:"gap_tolerance"`
	// MaxNodes caps the number of explored branch-and-bound nodes.
	MaxNodes int `json:"max_nodes"`
	// IntTolerance is the integrality rounding threshold.
	IntTolerance float64 `json:"int_tolerance"`
}

// SetDefaults applies the reference solver limits.
func (c *SolverConfig) SetDefaults() {
	if c.TimeLimitSeconds == 0 {
		c.TimeLimitSeconds = 120
	}
	if c.GapTolerance == 0 {
		c.GapTolerance = 0.2
	}
	if c.MaxNodes == 0 {
		c.MaxNodes = 200000
	}
	if c.IntTolerance == 0 {
		c.IntTolerance = 1e-6
	}
}

// Validate checks the limits.
func (c SolverConfig) Validate() error {
	if c.TimeLimitSeconds < 1 {
		return fmt.Errorf("time_limit_seconds must be >= 1, got %d", c.TimeLimitSeconds)
	}
	if c.GapTolerance < 0 || c.GapTolerance >= 1 {
		return fmt.Errorf("gap_tolerance must be in [0, 1), got %v", c.GapTolerance)
	}
	if c.MaxNodes < 1 {
		return fmt.Errorf("max_nodes must be >= 1, got %d", c.MaxNodes)
	}
	if c.IntTolerance <= 0 || c.IntTolerance >= 0.5 {
		return fmt.Errorf("int_tolerance must be in (0, 0.5), got %v", c.IntTolerance)
	}
	return nil
}

// Options converts the section into solver options.
func (c SolverConfig) Options() milp.Options {
	return milp.Options{
		TimeLimit:    time.Duration(c.TimeLimitSeconds) * time.Second,
		GapTolerance: c.GapTolerance,
		IntTolerance: c.IntTolerance,
		MaxNodes:     c.MaxNodes,
	}
}
