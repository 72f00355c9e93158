// Package milp describes mixed-integer linear programs in sparse form and
// defines the solver contract the planning core builds against. Engines live
// in infra; the model builder in core/schedule only ever sees this package.
package milp

import "fmt"

// VarType distinguishes continuous from binary decision variables.
type VarType int8

const (
	Continuous VarType = iota
	Binary
)

// Var is an opaque handle to a variable of one Model.
type Var int

// Term is one coefficient in a linear expression.
type Term struct {
	Var  Var
	Coef float64
}

// Sense is the comparison direction of a constraint row.
type Sense int8

const (
	LE Sense = iota // <=
	GE              // >=
	EQ              // ==
)

func (s Sense) String() string {
	switch s {
	case LE:
		return "<="
	case GE:
		return ">="
	case EQ:
		return "=="
	default:
		return "?"
	}
}

// Constraint is one linear row: sum(Terms) Sense RHS.
type Constraint struct {
	Name  string
	Terms []Term
	Sense Sense
	RHS   float64
}

// Model is a sparse MILP under construction. The zero value is not usable;
// call NewModel.
type Model struct {
	names   []string
	types   []VarType
	lb, ub  []float64
	constrs []Constraint
	obj     []Term
}

// NewModel returns an empty model.
func NewModel() *Model {
	return &Model{}
}

// AddBinary adds a binary variable with bounds [0,1].
func (m *Model) AddBinary(name string) Var {
	m.names = append(m.names, name)
	m.types = append(m.types, Binary)
	m.lb = append(m.lb, 0)
	m.ub = append(m.ub, 1)
	return Var(len(m.names) - 1)
}

// AddContinuous adds a continuous variable with the given bounds. Use
// math.Inf(1) for an unbounded side.
func (m *Model) AddContinuous(name string, lb, ub float64) Var {
	m.names = append(m.names, name)
	m.types = append(m.types, Continuous)
	m.lb = append(m.lb, lb)
	m.ub = append(m.ub, ub)
	return Var(len(m.names) - 1)
}

// Fix pins a variable to a single value by collapsing its bounds.
func (m *Model) Fix(v Var, value float64) {
	m.check(v)
	m.lb[v] = value
	m.ub[v] = value
}

// SetBounds overwrites the bounds of a variable.
func (m *Model) SetBounds(v Var, lb, ub float64) {
	m.check(v)
	m.lb[v] = lb
	m.ub[v] = ub
}

// AddConstraint appends a linear row. Handles must come from this model.
func (m *Model) AddConstraint(name string, terms []Term, sense Sense, rhs float64) {
	for _, t := range terms {
		m.check(t.Var)
	}
	m.constrs = append(m.constrs, Constraint{Name: name, Terms: terms, Sense: sense, RHS: rhs})
}

// SetObjective sets the minimization objective.
func (m *Model) SetObjective(terms []Term) {
	for _, t := range terms {
		m.check(t.Var)
	}
	m.obj = terms
}

// NumVars returns the number of variables.
func (m *Model) NumVars() int { return len(m.names) }

// NumConstraints returns the number of constraint rows.
func (m *Model) NumConstraints() int { return len(m.constrs) }

// Name returns the variable's name.
func (m *Model) Name(v Var) string {
	m.check(v)
	return m.names[v]
}

// Type returns the variable's type.
func (m *Model) Type(v Var) VarType {
	m.check(v)
	return m.types[v]
}

// Bounds returns the variable's lower and upper bound.
func (m *Model) Bounds(v Var) (lb, ub float64) {
	m.check(v)
	return m.lb[v], m.ub[v]
}

// Constraints exposes the rows for engines. Callers must not mutate.
func (m *Model) Constraints() []Constraint { return m.constrs }

// Objective exposes the objective terms for engines. Callers must not mutate.
func (m *Model) Objective() []Term { return m.obj }

func (m *Model) check(v Var) {
	if v < 0 || int(v) >= len(m.names) {
		panic(fmt.Sprintf("milp: variable handle %d out of range (model has %d vars)", v, len(m.names)))
	}
}
