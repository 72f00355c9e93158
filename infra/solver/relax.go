package solver

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"

	"github.com/earnor/look-ahead-planning/core/milp"
)

const (
	simplexTol = 1e-7
	feasTol    = 1e-6
)

// relaxation is the LP of one search node in standard form: minimize c'x
// subject to a x = b, x >= 0. Pinned variables are substituted out and the
// remaining ones are shifted so their lower bound becomes zero, which keeps
// the column count at structural+slack instead of the doubled free-variable
// form.
type relaxation struct {
	nvars int
	pins  map[milp.Var]float64
	colOf []int     // var -> structural column, -1 when pinned
	cols  []milp.Var
	shift []float64 // per column lower-bound shift

	c []float64
	a *mat.Dense
	b []float64
}

type rowSpec struct {
	terms []milp.Term // Var field reused as column index
	rhs   float64
	slack int8 // +1 slack, -1 surplus, 0 none
}

// coveredBinaries returns the binaries whose upper bound of one is implied by
// an exactly-once row (all coefficients one, all variables binary, rhs one).
// Their upper-bound rows can be skipped in every node.
func coveredBinaries(m *milp.Model) map[milp.Var]bool {
	covered := make(map[milp.Var]bool)
	for _, c := range m.Constraints() {
		if c.Sense != milp.EQ || c.RHS != 1 {
			continue
		}
		ok := len(c.Terms) > 0
		for _, t := range c.Terms {
			if t.Coef != 1 || m.Type(t.Var) != milp.Binary {
				ok = false
				break
			}
		}
		if !ok {
			continue
		}
		for _, t := range c.Terms {
			covered[t.Var] = true
		}
	}
	return covered
}

// compile reduces the model under the given pins to a standard-form LP.
// The bool result is true when the pins alone make the node infeasible.
func compile(m *milp.Model, pins map[milp.Var]float64, covered map[milp.Var]bool) (*relaxation, bool, error) {
	n := m.NumVars()
	rel := &relaxation{
		nvars: n,
		pins:  make(map[milp.Var]float64, len(pins)),
		colOf: make([]int, n),
	}

	for v := 0; v < n; v++ {
		lb, ub := m.Bounds(milp.Var(v))
		if p, ok := pins[milp.Var(v)]; ok {
			if p < lb-feasTol || p > ub+feasTol {
				return nil, true, nil
			}
			rel.pins[milp.Var(v)] = p
			rel.colOf[v] = -1
			continue
		}
		if lb == ub {
			rel.pins[milp.Var(v)] = lb
			rel.colOf[v] = -1
			continue
		}
		if math.IsInf(lb, -1) {
			return nil, false, fmt.Errorf("solver: variable %s has no finite lower bound", m.Name(milp.Var(v)))
		}
		rel.colOf[v] = len(rel.cols)
		rel.cols = append(rel.cols, milp.Var(v))
		rel.shift = append(rel.shift, lb)
	}

	var rows []rowSpec
	for _, c := range m.Constraints() {
		rhs := c.RHS
		var terms []milp.Term
		for _, t := range c.Terms {
			if t.Coef == 0 {
				continue
			}
			if p, ok := rel.pins[t.Var]; ok {
				rhs -= t.Coef * p
				continue
			}
			col := rel.colOf[t.Var]
			rhs -= t.Coef * rel.shift[col]
			terms = append(terms, milp.Term{Var: milp.Var(col), Coef: t.Coef})
		}
		if len(terms) == 0 {
			switch c.Sense {
			case milp.LE:
				if rhs < -feasTol {
					return nil, true, nil
				}
			case milp.GE:
				if rhs > feasTol {
					return nil, true, nil
				}
			case milp.EQ:
				if math.Abs(rhs) > feasTol {
					return nil, true, nil
				}
			}
			continue
		}
		spec := rowSpec{terms: terms, rhs: rhs}
		switch c.Sense {
		case milp.LE:
			spec.slack = 1
		case milp.GE:
			spec.slack = -1
		}
		rows = append(rows, spec)
	}

	// Upper-bound rows for columns that still need one.
	for col, v := range rel.cols {
		_, ub := m.Bounds(v)
		if math.IsInf(ub, 1) {
			continue
		}
		width := ub - rel.shift[col]
		if m.Type(v) == milp.Binary && covered[v] && width == 1 {
			continue
		}
		rows = append(rows, rowSpec{
			terms: []milp.Term{{Var: milp.Var(col), Coef: 1}},
			rhs:   width,
			slack: 1,
		})
	}

	nslack := 0
	for _, r := range rows {
		if r.slack != 0 {
			nslack++
		}
	}
	ncols := len(rel.cols) + nslack
	if len(rows) == 0 || ncols == 0 {
		// No rows left: the LP separates per column (solved analytically by
		// the caller). No columns left: everything is pinned.
		rel.c = objVector(m, rel, ncols)
		return rel, false, nil
	}

	a := mat.NewDense(len(rows), ncols, nil)
	b := make([]float64, len(rows))
	next := len(rel.cols)
	for i, r := range rows {
		for _, t := range r.terms {
			a.Set(i, int(t.Var), t.Coef)
		}
		if r.slack != 0 {
			a.Set(i, next, float64(r.slack))
			next++
		}
		b[i] = r.rhs
	}
	rel.a = a
	rel.b = b
	rel.c = objVector(m, rel, ncols)
	return rel, false, nil
}

func objVector(m *milp.Model, rel *relaxation, ncols int) []float64 {
	c := make([]float64, ncols)
	for _, t := range m.Objective() {
		if col := rel.colOf[t.Var]; col >= 0 {
			c[col] += t.Coef
		}
	}
	return c
}

// values maps a standard-form solution vector back to the full variable
// space, re-applying pins and lower-bound shifts.
func (rel *relaxation) values(xStd []float64) []float64 {
	out := make([]float64, rel.nvars)
	for v := 0; v < rel.nvars; v++ {
		if p, ok := rel.pins[milp.Var(v)]; ok {
			out[v] = p
			continue
		}
		col := rel.colOf[v]
		x := rel.shift[col]
		if xStd != nil && col < len(xStd) {
			x += xStd[col]
		}
		out[v] = x
	}
	return out
}

// solveRelaxation runs the simplex method on the node LP. Row-free
// relaxations separate per column and are solved directly.
func solveRelaxation(m *milp.Model, rel *relaxation) ([]float64, error) {
	if rel.a == nil {
		xStd := make([]float64, len(rel.c))
		for col, v := range rel.cols {
			if rel.c[col] >= 0 {
				continue
			}
			_, ub := m.Bounds(v)
			if math.IsInf(ub, 1) {
				return nil, lp.ErrUnbounded
			}
			xStd[col] = ub - rel.shift[col]
		}
		return xStd, nil
	}
	_, xStd, err := lp.Simplex(rel.c, rel.a, rel.b, simplexTol, nil)
	return xStd, err
}

// lpSolve points to the relaxation solver. Tests override it to simulate
// engine failures.
var lpSolve = solveRelaxation
