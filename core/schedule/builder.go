package schedule

import (
	"fmt"
	"math"
	"sort"

	"github.com/earnor/look-ahead-planning/core/graph"
	"github.com/earnor/look-ahead-planning/core/milp"
	"github.com/earnor/look-ahead-planning/core/model"
)

// key addresses one (module, slot) variable. Module 0 is the project start
// marker, n+1 the project end marker.
type key struct{ mod, slot int }

// durations holds the effective per-phase durations of one module after
// overrides from FixedConstraints are applied.
type durations struct {
	production   int
	transport    int
	installation int
}

// BuildResult couples a built model with the variable handles needed to
// decode a solver result back into a schedule.
type BuildResult struct {
	Model *milp.Model
	// Warnings lists non-fatal oddities found while pinning fixed
	// decisions, e.g. a frozen start after the reoptimization point.
	Warnings []string

	prob Problem
	mods []model.Module // sorted by index
	n    int            // number of real modules
	T    int            // horizon in slots
	dur  map[int]durations

	x   map[key]milp.Var // installation start, modules 0..n+1
	y   map[key]milp.Var // in installation, modules 1..n
	q   map[key]milp.Var // production start, modules 1..n
	p   map[key]milp.Var // arrival on site, modules 1..n
	inv map[key]milp.Var // site inventory level, modules 1..n
	z   map[int]milp.Var // order batch indicator per slot
	buf map[int]milp.Var // factory buffer level per slot
}

// Build validates the problem and assembles the time-indexed MILP: binary
// start selections per phase, installation occupancy, site and factory
// inventory balances, and the cost objective. Fixed constraints are encoded
// as variable pins so a re-solve cannot move decided work.
func Build(prob Problem) (*BuildResult, error) {
	if err := prob.Validate(); err != nil {
		return nil, err
	}
	b := &BuildResult{
		Model: milp.NewModel(),
		prob:  prob,
		mods:  sortedModules(prob.Modules),
		n:     len(prob.Modules),
		T:     prob.Horizon,
		dur:   make(map[int]durations, len(prob.Modules)),
		x:     make(map[key]milp.Var),
		y:     make(map[key]milp.Var),
		q:     make(map[key]milp.Var),
		p:     make(map[key]milp.Var),
		inv:   make(map[key]milp.Var),
		z:     make(map[int]milp.Var),
		buf:   make(map[int]milp.Var),
	}
	for _, m := range b.mods {
		b.dur[m.Index] = b.effectiveDurations(m)
	}
	b.addVariables()
	b.pinFixed()
	b.forbidPast()
	b.applyEarliestBounds()
	b.startOnce()
	b.precedence()
	b.installation()
	b.siteFlow()
	b.production()
	b.factoryFlow()
	b.objective()
	return b, nil
}

func (b *BuildResult) addVariables() {
	m := b.Model
	for i := 0; i <= b.n+1; i++ {
		for t := 1; t <= b.T; t++ {
			b.x[key{i, t}] = m.AddBinary(fmt.Sprintf("x[%d,%d]", i, t))
		}
	}
	for _, mod := range b.mods {
		for t := 1; t <= b.T; t++ {
			b.y[key{mod.Index, t}] = m.AddBinary(fmt.Sprintf("y[%d,%d]", mod.Index, t))
		}
	}
	for _, mod := range b.mods {
		for t := 1; t <= b.T; t++ {
			b.q[key{mod.Index, t}] = m.AddBinary(fmt.Sprintf("q[%d,%d]", mod.Index, t))
		}
	}
	for _, mod := range b.mods {
		for t := 1; t <= b.T; t++ {
			b.p[key{mod.Index, t}] = m.AddBinary(fmt.Sprintf("p[%d,%d]", mod.Index, t))
		}
	}
	for _, mod := range b.mods {
		for t := 1; t <= b.T; t++ {
			b.inv[key{mod.Index, t}] = m.AddContinuous(fmt.Sprintf("I[%d,%d]", mod.Index, t), 0, math.Inf(1))
		}
	}
	for t := 1; t <= b.T; t++ {
		b.z[t] = m.AddBinary(fmt.Sprintf("z[%d]", t))
	}
	for t := 1; t <= b.T; t++ {
		b.buf[t] = m.AddContinuous(fmt.Sprintf("F[%d]", t), 0, math.Inf(1))
	}
}

// pinFixed anchors the project start marker at the reoptimization point and
// freezes every fixed start decision to its slot.
func (b *BuildResult) pinFixed() {
	r := b.reoptFrom()
	slot := r
	if slot < 1 {
		slot = 1
	}
	b.pinFamily(b.x, 0, slot)

	f := b.prob.Fixed
	if f == nil {
		return
	}
	pins := []struct {
		kind string
		fam  map[key]milp.Var
		m    map[int]int
	}{
		{"installation start", b.x, f.InstallationStarts},
		{"production start", b.q, f.ProductionStarts},
		{"arrival", b.p, f.ArrivalTimes},
	}
	for _, pin := range pins {
		for _, i := range sortedKeys(pin.m) {
			s := pin.m[i]
			if r > 0 && s > r {
				b.Warnings = append(b.Warnings,
					fmt.Sprintf("fixed %s for module %d at slot %d lies after the reoptimization point %d", pin.kind, i, s, r))
			}
			b.pinFamily(pin.fam, i, s)
		}
	}
}

// forbidPast keeps unfixed work out of slots before the reoptimization
// point. The project end marker stays free so a fully completed project
// keeps its historical finish slot.
func (b *BuildResult) forbidPast() {
	r := b.reoptFrom()
	if r < 2 {
		return
	}
	f := b.prob.Fixed
	for _, m := range b.mods {
		i := m.Index
		_, xFixed := f.InstallationStarts[i]
		_, qFixed := f.ProductionStarts[i]
		_, pFixed := f.ArrivalTimes[i]
		for t := 1; t < r; t++ {
			if !xFixed {
				b.Model.Fix(b.x[key{i, t}], 0)
			}
			if !qFixed {
				b.Model.Fix(b.q[key{i, t}], 0)
			}
			if !pFixed {
				b.Model.Fix(b.p[key{i, t}], 0)
			}
		}
	}
}

// applyEarliestBounds zeroes start slots below each postponement bound.
// Families with an exact fixed slot are left alone. A transport bound shifts
// onto the arrival family: the earliest arrival is the bound plus the
// transport duration.
func (b *BuildResult) applyEarliestBounds() {
	f := b.prob.Fixed
	if f == nil {
		return
	}
	for _, i := range sortedKeys(f.EarliestProductionStarts) {
		if _, fixed := f.ProductionStarts[i]; fixed {
			continue
		}
		for t := 1; t < f.EarliestProductionStarts[i]; t++ {
			b.Model.Fix(b.q[key{i, t}], 0)
		}
	}
	for _, i := range sortedKeys(f.EarliestInstallationStarts) {
		if _, fixed := f.InstallationStarts[i]; fixed {
			continue
		}
		for t := 1; t < f.EarliestInstallationStarts[i]; t++ {
			b.Model.Fix(b.x[key{i, t}], 0)
		}
	}
	for _, i := range sortedKeys(f.EarliestTransportStarts) {
		if _, fixed := f.ArrivalTimes[i]; fixed {
			continue
		}
		arrival := f.EarliestTransportStarts[i] + b.dur[i].transport
		for t := 1; t < arrival; t++ {
			b.Model.Fix(b.p[key{i, t}], 0)
		}
	}
}

// startOnce makes every start family select exactly one slot.
func (b *BuildResult) startOnce() {
	for i := 1; i <= b.n; i++ {
		b.Model.AddConstraint(fmt.Sprintf("once_x[%d]", i), b.familySum(b.x, i), milp.EQ, 1)
		b.Model.AddConstraint(fmt.Sprintf("once_q[%d]", i), b.familySum(b.q, i), milp.EQ, 1)
		b.Model.AddConstraint(fmt.Sprintf("once_p[%d]", i), b.familySum(b.p, i), milp.EQ, 1)
	}
	b.Model.AddConstraint(fmt.Sprintf("once_x[%d]", b.n+1), b.familySum(b.x, b.n+1), milp.EQ, 1)
}

// precedence orders installation starts along the precedence graph and ties
// roots and leaves to the project markers.
func (b *BuildResult) precedence() {
	g := graph.New(b.prob.Modules, b.prob.Edges)
	for _, e := range g.Edges() {
		d := b.dur[e.Pred].installation
		terms := append(b.familyStart(b.x, e.Pred, 1), b.familyStart(b.x, e.Succ, -1)...)
		b.Model.AddConstraint(fmt.Sprintf("prec[%d->%d]", e.Pred, e.Succ), terms, milp.LE, float64(-d))
	}
	f := b.prob.Fixed
	for _, i := range g.Roots() {
		if f != nil {
			if _, fixed := f.InstallationStarts[i]; fixed {
				// Frozen roots may legally sit before the project start
				// marker during re-optimization.
				continue
			}
		}
		terms := append(b.familyStart(b.x, 0, 1), b.familyStart(b.x, i, -1)...)
		b.Model.AddConstraint(fmt.Sprintf("root[%d]", i), terms, milp.LE, 0)
	}
	for _, i := range g.Leaves() {
		d := b.dur[i].installation
		terms := append(b.familyStart(b.x, i, 1), b.familyStart(b.x, b.n+1, -1)...)
		b.Model.AddConstraint(fmt.Sprintf("leaf[%d]", i), terms, milp.LE, float64(-d))
	}
}

// installation links the occupancy indicators to their start selections and
// caps concurrent installations at the crew count.
func (b *BuildResult) installation() {
	for _, m := range b.mods {
		i := m.Index
		d := b.dur[i].installation
		for t := 1; t <= b.T; t++ {
			v := b.y[key{i, t}]
			if d == 0 {
				b.Model.Fix(v, 0)
				continue
			}
			terms := []milp.Term{{Var: v, Coef: 1}}
			lo := t - d + 1
			if lo < 1 {
				lo = 1
			}
			for tau := lo; tau <= t; tau++ {
				terms = append(terms, milp.Term{Var: b.x[key{i, tau}], Coef: -1})
			}
			b.Model.AddConstraint(fmt.Sprintf("window[%d,%d]", i, t), terms, milp.EQ, 0)
		}
	}
	for t := 1; t <= b.T; t++ {
		terms := make([]milp.Term, 0, b.n)
		for _, m := range b.mods {
			terms = append(terms, milp.Term{Var: b.y[key{m.Index, t}], Coef: 1})
		}
		b.Model.AddConstraint(fmt.Sprintf("crew[%d]", t), terms, milp.LE, float64(b.prob.Resources.InstallationCrews))
	}
}

// siteFlow tracks per-module site inventory: a module enters at arrival,
// leaves when installation starts, and the summed level never exceeds the
// site storage capacity.
func (b *BuildResult) siteFlow() {
	for _, m := range b.mods {
		i := m.Index
		terms := append(b.familyStart(b.p, i, 1), b.familyStart(b.x, i, -1)...)
		b.Model.AddConstraint(fmt.Sprintf("arrive_first[%d]", i), terms, milp.LE, 0)
		for t := 1; t <= b.T; t++ {
			row := []milp.Term{
				{Var: b.inv[key{i, t}], Coef: 1},
				{Var: b.p[key{i, t}], Coef: -1},
				{Var: b.x[key{i, t}], Coef: 1},
			}
			if t > 1 {
				row = append(row, milp.Term{Var: b.inv[key{i, t - 1}], Coef: -1})
			}
			b.Model.AddConstraint(fmt.Sprintf("site_balance[%d,%d]", i, t), row, milp.EQ, 0)
		}
	}
	for t := 1; t <= b.T; t++ {
		terms := make([]milp.Term, 0, b.n)
		for _, m := range b.mods {
			terms = append(terms, milp.Term{Var: b.inv[key{m.Index, t}], Coef: 1})
		}
		b.Model.AddConstraint(fmt.Sprintf("site_cap[%d]", t), terms, milp.LE, float64(b.prob.Resources.SiteStorage))
	}
}

// production enforces the production lead ahead of every arrival, caps
// concurrent production at the machine count and couples arrivals to order
// batches.
func (b *BuildResult) production() {
	for _, m := range b.mods {
		i := m.Index
		lead := b.dur[i].production + b.dur[i].transport
		for t := 1; t <= b.T; t++ {
			cut := t - lead
			if cut < 1 {
				b.forbid(b.p[key{i, t}])
				continue
			}
			terms := []milp.Term{{Var: b.p[key{i, t}], Coef: 1}}
			for tau := 1; tau <= cut; tau++ {
				terms = append(terms, milp.Term{Var: b.q[key{i, tau}], Coef: -1})
			}
			b.Model.AddConstraint(fmt.Sprintf("lead[%d,%d]", i, t), terms, milp.LE, 0)
		}
	}
	for t := 1; t <= b.T; t++ {
		terms := make([]milp.Term, 0, b.n)
		for _, m := range b.mods {
			lo := t - b.dur[m.Index].production + 1
			if lo < 1 {
				lo = 1
			}
			for tau := lo; tau <= t; tau++ {
				terms = append(terms, milp.Term{Var: b.q[key{m.Index, tau}], Coef: 1})
			}
		}
		if len(terms) == 0 {
			continue
		}
		b.Model.AddConstraint(fmt.Sprintf("machine[%d]", t), terms, milp.LE, float64(b.prob.Resources.ProductionMachines))
	}
	for _, m := range b.mods {
		i := m.Index
		for t := 1; t <= b.T; t++ {
			b.Model.AddConstraint(fmt.Sprintf("batch[%d,%d]", i, t),
				[]milp.Term{{Var: b.p[key{i, t}], Coef: 1}, {Var: b.z[t], Coef: -1}}, milp.LE, 0)
		}
	}
}

// factoryFlow balances the factory buffer: finished modules enter it the
// slot after production ends and leave it when transport begins.
func (b *BuildResult) factoryFlow() {
	b.Model.Fix(b.buf[1], 0)
	for s := 2; s <= b.T; s++ {
		terms := []milp.Term{
			{Var: b.buf[s], Coef: 1},
			{Var: b.buf[s-1], Coef: -1},
		}
		for _, m := range b.mods {
			i := m.Index
			if enter := s - b.dur[i].production; enter >= 1 {
				terms = append(terms, milp.Term{Var: b.q[key{i, enter}], Coef: -1})
			}
			if leave := s + b.dur[i].transport; leave <= b.T {
				terms = append(terms, milp.Term{Var: b.p[key{i, leave}], Coef: 1})
			}
		}
		b.Model.AddConstraint(fmt.Sprintf("factory_balance[%d]", s), terms, milp.EQ, 0)
	}
	for s := 1; s <= b.T; s++ {
		b.Model.AddConstraint(fmt.Sprintf("factory_cap[%d]", s),
			[]milp.Term{{Var: b.buf[s], Coef: 1}}, milp.LE, float64(b.prob.Resources.FactoryStorage))
	}
}

// objective minimizes order batches, holding costs at factory and site, and
// the weighted project finish slot.
func (b *BuildResult) objective() {
	c := b.prob.Costs
	terms := make([]milp.Term, 0, (b.n+3)*b.T)
	for t := 1; t <= b.T; t++ {
		terms = append(terms, milp.Term{Var: b.z[t], Coef: c.OrderBatch})
	}
	for t := 1; t <= b.T; t++ {
		terms = append(terms, milp.Term{Var: b.buf[t], Coef: c.FactoryHolding})
	}
	for t := 1; t <= b.T; t++ {
		terms = append(terms, milp.Term{Var: b.x[key{b.n + 1, t}], Coef: c.SchedulePenalty * float64(t)})
	}
	for _, m := range b.mods {
		for t := 1; t <= b.T; t++ {
			terms = append(terms, milp.Term{Var: b.inv[key{m.Index, t}], Coef: c.SiteHolding})
		}
	}
	b.Model.SetObjective(terms)
}

func (b *BuildResult) familySum(fam map[key]milp.Var, i int) []milp.Term {
	terms := make([]milp.Term, 0, b.T)
	for t := 1; t <= b.T; t++ {
		terms = append(terms, milp.Term{Var: fam[key{i, t}], Coef: 1})
	}
	return terms
}

// familyStart expresses sign times the selected slot of one start family.
func (b *BuildResult) familyStart(fam map[key]milp.Var, i int, sign float64) []milp.Term {
	terms := make([]milp.Term, 0, b.T)
	for t := 1; t <= b.T; t++ {
		terms = append(terms, milp.Term{Var: fam[key{i, t}], Coef: sign * float64(t)})
	}
	return terms
}

func (b *BuildResult) pinFamily(fam map[key]milp.Var, i, slot int) {
	for t := 1; t <= b.T; t++ {
		if t == slot {
			b.Model.Fix(fam[key{i, t}], 1)
		} else {
			b.Model.Fix(fam[key{i, t}], 0)
		}
	}
}

// forbid forces a binary to zero. A variable already pinned to one gets an
// explicit row instead of a bound overwrite, so the conflict surfaces as
// infeasibility rather than a silently altered pin.
func (b *BuildResult) forbid(v milp.Var) {
	if lb, _ := b.Model.Bounds(v); lb > 0.5 {
		b.Model.AddConstraint("forbid_"+b.Model.Name(v), []milp.Term{{Var: v, Coef: 1}}, milp.EQ, 0)
		return
	}
	b.Model.Fix(v, 0)
}

func (b *BuildResult) effectiveDurations(m model.Module) durations {
	d := durations{
		production:   m.ProductionHours,
		transport:    m.TransportHours,
		installation: m.InstallationHours,
	}
	if h, ok := b.prob.Fixed.Duration(m.Index, model.PhaseProduction); ok {
		d.production = h
	}
	if h, ok := b.prob.Fixed.Duration(m.Index, model.PhaseTransport); ok {
		d.transport = h
	}
	if h, ok := b.prob.Fixed.Duration(m.Index, model.PhaseInstallation); ok {
		d.installation = h
	}
	return d
}

func (b *BuildResult) reoptFrom() int {
	if b.prob.Fixed == nil {
		return 0
	}
	return b.prob.Fixed.ReoptimizeFrom
}

func sortedModules(mods []model.Module) []model.Module {
	out := make([]model.Module, len(mods))
	copy(out, mods)
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}

func sortedKeys(m map[int]int) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
