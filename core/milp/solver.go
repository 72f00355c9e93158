package milp

import (
	"context"
	"time"
)

// Engine defaults. They mirror the production solver configuration: two
// minutes of wall clock and a 20% relative gap are acceptable for look-ahead
// planning horizons.
const (
	DefaultTimeLimit    = 120 * time.Second
	DefaultGapTolerance = 0.2
	DefaultIntTolerance = 1e-6
	DefaultMaxNodes     = 200000
)

// Options bound a single Solve call. Zero fields take the package defaults.
type Options struct {
	TimeLimit    time.Duration
	GapTolerance float64
	IntTolerance float64
	MaxNodes     int
}

// WithDefaults returns a copy with zero fields replaced by defaults.
func (o Options) WithDefaults() Options {
	if o.TimeLimit <= 0 {
		o.TimeLimit = DefaultTimeLimit
	}
	if o.GapTolerance <= 0 {
		o.GapTolerance = DefaultGapTolerance
	}
	if o.IntTolerance <= 0 {
		o.IntTolerance = DefaultIntTolerance
	}
	if o.MaxNodes <= 0 {
		o.MaxNodes = DefaultMaxNodes
	}
	return o
}

// Status is the mathematical outcome of a solve. Mechanical failures are
// returned as errors instead.
type Status int

const (
	StatusUnknown Status = iota
	StatusOptimal
	// StatusSuboptimal means the engine stopped early because the incumbent
	// is within the configured gap of the best bound.
	StatusSuboptimal
	StatusTimeLimit
	StatusNodeLimit
	StatusInfeasible
	StatusUnbounded
)

func (s Status) String() string {
	switch s {
	case StatusOptimal:
		return "optimal"
	case StatusSuboptimal:
		return "suboptimal"
	case StatusTimeLimit:
		return "time_limit"
	case StatusNodeLimit:
		return "node_limit"
	case StatusInfeasible:
		return "infeasible"
	case StatusUnbounded:
		return "unbounded"
	default:
		return "unknown"
	}
}

// Result carries the outcome of one Solve call. Values is nil when no
// incumbent was found.
type Result struct {
	Status    Status
	Objective float64
	// Gap is the relative distance between incumbent and best bound,
	// 0 for proven optima.
	Gap     float64
	Values  []float64
	Nodes   int
	Runtime time.Duration
}

// Usable reports whether the result carries a schedule the planner may adopt:
// a proven optimum, a gap-bounded incumbent, or a limit hit with an incumbent
// in hand.
func (r Result) Usable() bool {
	switch r.Status {
	case StatusOptimal, StatusSuboptimal:
		return r.Values != nil
	case StatusTimeLimit, StatusNodeLimit:
		return r.Values != nil
	default:
		return false
	}
}

// Value returns the solved value of v, or 0 when the result has no incumbent.
func (r Result) Value(v Var) float64 {
	if r.Values == nil || int(v) >= len(r.Values) {
		return 0
	}
	return r.Values[v]
}

// Solver solves a model within the given options. Implementations must honor
// ctx cancellation and must not mutate the model.
type Solver interface {
	Solve(ctx context.Context, m *Model, opts Options) (Result, error)
}
