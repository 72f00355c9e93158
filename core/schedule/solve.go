package schedule

import (
	"context"
	"fmt"

	"github.com/earnor/look-ahead-planning/core/logger"
	"github.com/earnor/look-ahead-planning/core/milp"
	"github.com/earnor/look-ahead-planning/core/model"
)

// Solve builds the MILP for the problem, runs the solver and decodes the
// result. Build warnings are logged, not returned. The milp.Result is
// returned alongside the solution so callers can report gap and node counts
// even when decoding fails.
func Solve(ctx context.Context, s milp.Solver, prob Problem, opts milp.Options, log logger.Logger) (model.Solution, milp.Result, error) {
	if log == nil {
		log = logger.NopLogger{}
	}
	b, err := Build(prob)
	if err != nil {
		return model.Solution{}, milp.Result{}, err
	}
	for _, w := range b.Warnings {
		log.Warnf("schedule: %s", w)
	}
	log.Debugw("schedule: model built", map[string]any{
		"modules":     b.n,
		"horizon":     b.T,
		"variables":   b.Model.NumVars(),
		"constraints": b.Model.NumConstraints(),
	})
	res, err := s.Solve(ctx, b.Model, opts)
	if err != nil {
		return model.Solution{}, res, fmt.Errorf("schedule: solver failed: %w", err)
	}
	if !res.Usable() {
		return model.Solution{}, res, fmt.Errorf("schedule: no usable schedule: solver finished %s", res.Status)
	}
	sol, err := b.Decode(res)
	if err != nil {
		return model.Solution{}, res, err
	}
	log.Infof("schedule: solved %d modules over %d slots: status=%s objective=%.2f gap=%.4f finish=%d",
		b.n, b.T, res.Status, res.Objective, res.Gap, sol.FinishTime)
	return sol, res, nil
}
