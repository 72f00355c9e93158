package planner

import "errors"

var (
	// ErrNoPriorSolution is returned when an operation needs a stored
	// schedule and the project has none.
	ErrNoPriorSolution = errors.New("planner: no prior solution")

	// ErrNoFeasibleSchedule wraps solver outcomes that terminated without a
	// usable schedule.
	ErrNoFeasibleSchedule = errors.New("planner: no feasible schedule")

	// ErrProjectNotFound is returned by Store implementations when a project
	// id or name resolves to nothing.
	ErrProjectNotFound = errors.New("planner: project not found")

	// ErrSolutionNotFound is returned by Store implementations when the
	// requested schedule version does not exist.
	ErrSolutionNotFound = errors.New("planner: solution not found")
)
