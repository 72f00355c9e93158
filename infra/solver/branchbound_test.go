package solver

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/earnor/look-ahead-planning/core/milp"
)

func solve(t *testing.T, m *milp.Model, opts milp.Options) milp.Result {
	t.Helper()
	res, err := New(nil).Solve(context.Background(), m, opts)
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	return res
}

func TestSolveContinuousLP(t *testing.T) {
	m := milp.NewModel()
	x := m.AddContinuous("x", 0, 3)
	y := m.AddContinuous("y", 0, math.Inf(1))
	m.AddConstraint("cap", []milp.Term{{Var: x, Coef: 1}, {Var: y, Coef: 1}}, milp.LE, 4)
	m.SetObjective([]milp.Term{{Var: x, Coef: -1}, {Var: y, Coef: -0.5}})

	res := solve(t, m, milp.Options{})
	if res.Status != milp.StatusOptimal {
		t.Fatalf("status = %s, want optimal", res.Status)
	}
	// x at its bound, remaining capacity to y.
	if math.Abs(res.Value(x)-3) > 1e-6 || math.Abs(res.Value(y)-1) > 1e-6 {
		t.Fatalf("x=%g y=%g, want 3 and 1", res.Value(x), res.Value(y))
	}
	if math.Abs(res.Objective-(-3.5)) > 1e-6 {
		t.Fatalf("objective = %g, want -3.5", res.Objective)
	}
}

func TestSolveKnapsack(t *testing.T) {
	m := milp.NewModel()
	a := m.AddBinary("a")
	b := m.AddBinary("b")
	c := m.AddBinary("c")
	m.AddConstraint("weight",
		[]milp.Term{{Var: a, Coef: 2}, {Var: b, Coef: 3}, {Var: c, Coef: 1}}, milp.LE, 4)
	m.SetObjective([]milp.Term{{Var: a, Coef: -5}, {Var: b, Coef: -4}, {Var: c, Coef: -3}})

	res := solve(t, m, milp.Options{})
	if res.Status != milp.StatusOptimal {
		t.Fatalf("status = %s, want optimal", res.Status)
	}
	if math.Abs(res.Objective-(-8)) > 1e-6 {
		t.Fatalf("objective = %g, want -8", res.Objective)
	}
	if res.Value(a) < 0.5 || res.Value(b) > 0.5 || res.Value(c) < 0.5 {
		t.Fatalf("selection a=%g b=%g c=%g, want a and c", res.Value(a), res.Value(b), res.Value(c))
	}
	if !res.Usable() {
		t.Fatalf("optimal result must be usable")
	}
}

func TestSolveKnapsackGapStop(t *testing.T) {
	m := milp.NewModel()
	a := m.AddBinary("a")
	b := m.AddBinary("b")
	c := m.AddBinary("c")
	m.AddConstraint("weight",
		[]milp.Term{{Var: a, Coef: 2}, {Var: b, Coef: 3}, {Var: c, Coef: 1}}, milp.LE, 4)
	m.SetObjective([]milp.Term{{Var: a, Coef: -5}, {Var: b, Coef: -4}, {Var: c, Coef: -3}})

	// A wide gap accepts the first incumbent found on the dive.
	res := solve(t, m, milp.Options{GapTolerance: 0.5})
	if res.Status != milp.StatusSuboptimal {
		t.Fatalf("status = %s, want suboptimal", res.Status)
	}
	if math.Abs(res.Objective-(-7)) > 1e-6 {
		t.Fatalf("objective = %g, want -7", res.Objective)
	}
	if res.Gap <= 0 || res.Gap > 0.5 {
		t.Fatalf("gap = %g, want within (0,0.5]", res.Gap)
	}
}

func TestSolveExactlyOnceFamily(t *testing.T) {
	m := milp.NewModel()
	x1 := m.AddBinary("x1")
	x2 := m.AddBinary("x2")
	x3 := m.AddBinary("x3")
	m.AddConstraint("once",
		[]milp.Term{{Var: x1, Coef: 1}, {Var: x2, Coef: 1}, {Var: x3, Coef: 1}}, milp.EQ, 1)
	m.SetObjective([]milp.Term{{Var: x1, Coef: 3}, {Var: x2, Coef: 2}, {Var: x3, Coef: 5}})

	res := solve(t, m, milp.Options{})
	if res.Status != milp.StatusOptimal {
		t.Fatalf("status = %s, want optimal", res.Status)
	}
	if res.Value(x2) < 0.5 {
		t.Fatalf("x2 = %g, want selected", res.Value(x2))
	}
	if math.Abs(res.Objective-2) > 1e-6 {
		t.Fatalf("objective = %g, want 2", res.Objective)
	}
}

func TestSolveRespectsFixedVariables(t *testing.T) {
	m := milp.NewModel()
	x1 := m.AddBinary("x1")
	x2 := m.AddBinary("x2")
	m.AddConstraint("once", []milp.Term{{Var: x1, Coef: 1}, {Var: x2, Coef: 1}}, milp.EQ, 1)
	m.SetObjective([]milp.Term{{Var: x1, Coef: 1}, {Var: x2, Coef: 10}})
	m.Fix(x2, 1)

	res := solve(t, m, milp.Options{})
	if res.Status != milp.StatusOptimal {
		t.Fatalf("status = %s, want optimal", res.Status)
	}
	if res.Value(x2) < 0.5 || res.Value(x1) > 0.5 {
		t.Fatalf("fix ignored: x1=%g x2=%g", res.Value(x1), res.Value(x2))
	}
	if math.Abs(res.Objective-10) > 1e-6 {
		t.Fatalf("objective = %g, want 10", res.Objective)
	}
}

func TestSolveInfeasible(t *testing.T) {
	m := milp.NewModel()
	x := m.AddBinary("x")
	y := m.AddBinary("y")
	m.AddConstraint("impossible",
		[]milp.Term{{Var: x, Coef: 1}, {Var: y, Coef: 1}}, milp.GE, 3)
	m.SetObjective([]milp.Term{{Var: x, Coef: 1}})

	res := solve(t, m, milp.Options{})
	if res.Status != milp.StatusInfeasible {
		t.Fatalf("status = %s, want infeasible", res.Status)
	}
	if res.Usable() {
		t.Fatalf("infeasible result must not be usable")
	}
}

func TestSolvePinConflictIsInfeasible(t *testing.T) {
	m := milp.NewModel()
	x := m.AddBinary("x")
	m.Fix(x, 1)
	m.AddConstraint("forbid", []milp.Term{{Var: x, Coef: 1}}, milp.LE, 0)
	m.SetObjective([]milp.Term{{Var: x, Coef: 1}})

	res := solve(t, m, milp.Options{})
	if res.Status != milp.StatusInfeasible {
		t.Fatalf("status = %s, want infeasible", res.Status)
	}
}

func TestSolveUnbounded(t *testing.T) {
	m := milp.NewModel()
	x := m.AddContinuous("x", 0, math.Inf(1))
	y := m.AddContinuous("y", 0, math.Inf(1))
	m.AddConstraint("slide", []milp.Term{{Var: x, Coef: 1}, {Var: y, Coef: -1}}, milp.LE, 1)
	m.SetObjective([]milp.Term{{Var: x, Coef: -1}})

	res := solve(t, m, milp.Options{})
	if res.Status != milp.StatusUnbounded {
		t.Fatalf("status = %s, want unbounded", res.Status)
	}
}

func TestSolveNodeLimit(t *testing.T) {
	m := milp.NewModel()
	a := m.AddBinary("a")
	b := m.AddBinary("b")
	c := m.AddBinary("c")
	m.AddConstraint("weight",
		[]milp.Term{{Var: a, Coef: 2}, {Var: b, Coef: 3}, {Var: c, Coef: 1}}, milp.LE, 4)
	m.SetObjective([]milp.Term{{Var: a, Coef: -5}, {Var: b, Coef: -4}, {Var: c, Coef: -3}})

	res := solve(t, m, milp.Options{MaxNodes: 1})
	if res.Status != milp.StatusNodeLimit {
		t.Fatalf("status = %s, want node_limit", res.Status)
	}
}

func TestSolveTimeLimit(t *testing.T) {
	m := milp.NewModel()
	x := m.AddBinary("x")
	m.SetObjective([]milp.Term{{Var: x, Coef: 1}})

	res := solve(t, m, milp.Options{TimeLimit: time.Nanosecond})
	if res.Status != milp.StatusTimeLimit {
		t.Fatalf("status = %s, want time_limit", res.Status)
	}
	if res.Usable() {
		t.Fatalf("time limit without incumbent must not be usable")
	}
}

func TestSolveCanceledContext(t *testing.T) {
	m := milp.NewModel()
	x := m.AddBinary("x")
	m.SetObjective([]milp.Term{{Var: x, Coef: 1}})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := New(nil).Solve(ctx, m, milp.Options{})
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if res.Status != milp.StatusTimeLimit || res.Nodes != 0 {
		t.Fatalf("status = %s nodes = %d, want time_limit before any node", res.Status, res.Nodes)
	}
}

func TestSolveNumericFailuresPrune(t *testing.T) {
	orig := lpSolve
	lpSolve = func(*milp.Model, *relaxation) ([]float64, error) {
		return nil, errors.New("synthetic failure")
	}
	defer func() { lpSolve = orig }()

	m := milp.NewModel()
	x := m.AddBinary("x")
	m.AddConstraint("pick", []milp.Term{{Var: x, Coef: 1}}, milp.EQ, 1)
	m.SetObjective([]milp.Term{{Var: x, Coef: 1}})

	res := solve(t, m, milp.Options{})
	if res.Status != milp.StatusInfeasible {
		t.Fatalf("status = %s, want infeasible after pruning", res.Status)
	}
}

func TestCoveredBinaries(t *testing.T) {
	m := milp.NewModel()
	x1 := m.AddBinary("x1")
	x2 := m.AddBinary("x2")
	z := m.AddBinary("z")
	m.AddConstraint("once", []milp.Term{{Var: x1, Coef: 1}, {Var: x2, Coef: 1}}, milp.EQ, 1)
	m.AddConstraint("link", []milp.Term{{Var: x1, Coef: 1}, {Var: z, Coef: -1}}, milp.LE, 0)

	covered := coveredBinaries(m)
	if !covered[x1] || !covered[x2] {
		t.Fatalf("exactly-once members should be covered: %v", covered)
	}
	if covered[z] {
		t.Fatalf("z has no exactly-once row and must keep its upper bound")
	}
}
