// Package solver implements the MILP engine behind the scheduling core: a
// branch-and-bound search whose node relaxations are solved with gonum's
// simplex method. It is exact on the binary structure the model builder
// emits (exactly-once start families plus linking rows) and honors the
// planner's wall-clock, node and gap budgets.
package solver

import (
	"context"
	"errors"
	"math"
	"time"

	"gonum.org/v1/gonum/optimize/convex/lp"

	corelogger "github.com/earnor/look-ahead-planning/core/logger"
	"github.com/earnor/look-ahead-planning/core/milp"
)

// BranchBound is a depth-first branch-and-bound MILP engine. The zero value
// is not usable; call New.
type BranchBound struct {
	log corelogger.Logger
}

// New returns a BranchBound engine. A nil logger disables logging.
func New(log corelogger.Logger) *BranchBound {
	if log == nil {
		log = corelogger.NopLogger{}
	}
	return &BranchBound{log: log}
}

type node struct {
	pins  map[milp.Var]float64
	bound float64
}

func (n *node) child(v milp.Var, value float64, bound float64) *node {
	pins := make(map[milp.Var]float64, len(n.pins)+1)
	for k, val := range n.pins {
		pins[k] = val
	}
	pins[v] = value
	return &node{pins: pins, bound: bound}
}

// Solve runs the search. Infeasible and unbounded models are reported through
// the result status; errors are reserved for models the engine cannot handle.
func (s *BranchBound) Solve(ctx context.Context, m *milp.Model, opts milp.Options) (milp.Result, error) {
	opts = opts.WithDefaults()
	start := time.Now()
	deadline := start.Add(opts.TimeLimit)
	covered := coveredBinaries(m)

	stack := []*node{{bound: math.Inf(-1)}}
	var (
		bestVals []float64
		bestObj  = math.Inf(1)
		nodes    int
		numeric  int
	)

	finish := func(status milp.Status) (milp.Result, error) {
		if numeric > 0 {
			s.log.Warnf("solver: %d node relaxations failed numerically and were pruned", numeric)
		}
		res := milp.Result{
			Status:  status,
			Nodes:   nodes,
			Runtime: time.Since(start),
		}
		if bestVals != nil {
			res.Values = bestVals
			res.Objective = bestObj
			res.Gap = relGap(bestObj, openBound(stack))
		}
		s.log.Debugf("solver: finished status=%s nodes=%d runtime=%s", status, nodes, res.Runtime)
		return res, nil
	}

	for len(stack) > 0 {
		if ctx.Err() != nil || time.Now().After(deadline) {
			return finish(milp.StatusTimeLimit)
		}
		if nodes >= opts.MaxNodes {
			return finish(milp.StatusNodeLimit)
		}

		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if bestVals != nil && n.bound >= bestObj-1e-9 {
			continue
		}
		nodes++

		rel, infeasible, err := compile(m, n.pins, covered)
		if err != nil {
			return milp.Result{Status: milp.StatusUnknown, Nodes: nodes, Runtime: time.Since(start)}, err
		}
		if infeasible {
			continue
		}
		xStd, err := lpSolve(m, rel)
		if err != nil {
			switch {
			case errors.Is(err, lp.ErrInfeasible):
				continue
			case errors.Is(err, lp.ErrUnbounded):
				return finish(milp.StatusUnbounded)
			default:
				numeric++
				continue
			}
		}
		vals := rel.values(xStd)
		obj := objective(m, vals)
		if bestVals != nil && obj >= bestObj-1e-9 {
			continue
		}

		v, fractional := mostFractional(m, rel, vals, opts.IntTolerance)
		if !fractional {
			bestVals = vals
			bestObj = obj
			gap := relGap(bestObj, openBound(stack))
			s.log.Debugf("solver: incumbent objective=%g gap=%g node=%d", bestObj, gap, nodes)
			if len(stack) > 0 && gap > 0 && gap <= opts.GapTolerance {
				return finish(milp.StatusSuboptimal)
			}
			continue
		}

		// Dive on the value-one side first: selecting a start slot collapses
		// the rest of its family through the exactly-once row.
		stack = append(stack, n.child(v, 0, obj), n.child(v, 1, obj))
	}

	if bestVals == nil {
		return finish(milp.StatusInfeasible)
	}
	return finish(milp.StatusOptimal)
}

// mostFractional picks the unpinned binary farthest from integrality.
func mostFractional(m *milp.Model, rel *relaxation, vals []float64, tol float64) (milp.Var, bool) {
	var (
		best     milp.Var
		bestFrac float64
		found    bool
	)
	for v := 0; v < m.NumVars(); v++ {
		if m.Type(milp.Var(v)) != milp.Binary {
			continue
		}
		if _, pinned := rel.pins[milp.Var(v)]; pinned {
			continue
		}
		frac := math.Abs(vals[v] - math.Round(vals[v]))
		if frac > tol && frac > bestFrac {
			best = milp.Var(v)
			bestFrac = frac
			found = true
		}
	}
	return best, found
}

func objective(m *milp.Model, vals []float64) float64 {
	var obj float64
	for _, t := range m.Objective() {
		obj += t.Coef * vals[t.Var]
	}
	return obj
}

// openBound is the best lower bound over the unexplored part of the tree.
func openBound(stack []*node) float64 {
	bound := math.Inf(1)
	for _, n := range stack {
		if n.bound < bound {
			bound = n.bound
		}
	}
	return bound
}

// relGap is the relative distance between the incumbent and the open bound,
// 0 when the tree is exhausted.
func relGap(incumbent, bound float64) float64 {
	if math.IsInf(bound, 1) {
		return 0
	}
	if math.IsInf(bound, -1) {
		return math.Inf(1)
	}
	gap := (incumbent - bound) / math.Max(1, math.Abs(incumbent))
	if gap < 0 {
		return 0
	}
	return gap
}
