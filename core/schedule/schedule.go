// Package schedule builds the time-indexed MILP behind look-ahead planning
// and decodes solver results into per-module schedules. One Problem is one
// solve cycle: modules, precedence, capacities, costs and, when
// re-optimizing, the fixed constraints derived from execution state. The
// package never sees wall-clock time; everything is a 1-based slot index.
package schedule

import (
	"fmt"

	"github.com/earnor/look-ahead-planning/core/graph"
	"github.com/earnor/look-ahead-planning/core/model"
)

// Resources are the shared capacity limits of one planning problem.
type Resources struct {
	InstallationCrews  int `json:"installation_crews"`
	ProductionMachines int `json:"production_machines"`
	SiteStorage        int `json:"site_storage"`
	FactoryStorage     int `json:"factory_storage"`
}

// SetDefaults applies the reference plant configuration.
func (r *Resources) SetDefaults() {
	if r.InstallationCrews == 0 {
		r.InstallationCrews = 2
	}
	if r.ProductionMachines == 0 {
		r.ProductionMachines = 6
	}
	if r.SiteStorage == 0 {
		r.SiteStorage = 4
	}
	if r.FactoryStorage == 0 {
		r.FactoryStorage = 10
	}
}

// Validate checks the capacity limits.
func (r Resources) Validate() error {
	if r.InstallationCrews < 1 {
		return fmt.Errorf("installation_crews must be >= 1, got %d", r.InstallationCrews)
	}
	if r.ProductionMachines < 1 {
		return fmt.Errorf("production_machines must be >= 1, got %d", r.ProductionMachines)
	}
	if r.SiteStorage < 0 {
		return fmt.Errorf("site_storage must not be negative, got %d", r.SiteStorage)
	}
	if r.FactoryStorage < 0 {
		return fmt.Errorf("factory_storage must not be negative, got %d", r.FactoryStorage)
	}
	return nil
}

// Costs are the objective weights of one planning problem.
type Costs struct {
	// OrderBatch is charged once per slot in which any module arrives.
	OrderBatch float64 `json:"order_batch"`
	// FactoryHolding and SiteHolding are charged per unit and slot held.
	FactoryHolding float64 `json:"factory_holding"`
	SiteHolding    float64 `json:"site_holding"`
	// SchedulePenalty weights the project finish slot.
	SchedulePenalty float64 `json:"schedule_penalty"`
}

// SetDefaults applies the reference cost weights.
func (c *Costs) SetDefaults() {
	if c.OrderBatch == 0 {
		c.OrderBatch = 100
	}
	if c.FactoryHolding == 0 {
		c.FactoryHolding = 1
	}
	if c.SiteHolding == 0 {
		c.SiteHolding = 2
	}
	if c.SchedulePenalty == 0 {
		c.SchedulePenalty = 50
	}
}

// Validate checks the cost weights.
func (c Costs) Validate() error {
	if c.OrderBatch < 0 || c.FactoryHolding < 0 || c.SiteHolding < 0 || c.SchedulePenalty < 0 {
		return fmt.Errorf("cost weights must not be negative")
	}
	return nil
}

// FixedConstraints freeze prior decisions for a re-solve. All maps are keyed
// by module index; an absent key leaves the corresponding family free.
type FixedConstraints struct {
	// ReoptimizeFrom is the first slot the re-solve may place unfixed work
	// in. Zero means a fresh solve.
	ReoptimizeFrom int

	// Exact starts pinned to one slot. Arrival stands in for transport: the
	// transport start is always arrival minus transport duration.
	InstallationStarts map[int]int
	ProductionStarts   map[int]int
	ArrivalTimes       map[int]int

	// Durations override the module base durations per phase: original
	// durations for completed work, remaining durations for running work,
	// delay-adjusted durations for open work.
	Durations map[int]map[model.Phase]int

	// Earliest-start lower bounds from postponement delays. Only applied to
	// families without an exact start. A transport bound b forbids arrival
	// before b plus the transport duration.
	EarliestProductionStarts   map[int]int
	EarliestTransportStarts    map[int]int
	EarliestInstallationStarts map[int]int
}

// NewFixedConstraints returns an empty set with all maps allocated.
func NewFixedConstraints(reoptimizeFrom int) *FixedConstraints {
	return &FixedConstraints{
		ReoptimizeFrom:             reoptimizeFrom,
		InstallationStarts:         make(map[int]int),
		ProductionStarts:           make(map[int]int),
		ArrivalTimes:               make(map[int]int),
		Durations:                  make(map[int]map[model.Phase]int),
		EarliestProductionStarts:   make(map[int]int),
		EarliestTransportStarts:    make(map[int]int),
		EarliestInstallationStarts: make(map[int]int),
	}
}

// SetDuration records a per-phase duration override for a module.
func (f *FixedConstraints) SetDuration(index int, p model.Phase, hours int) {
	if f.Durations == nil {
		f.Durations = make(map[int]map[model.Phase]int)
	}
	row := f.Durations[index]
	if row == nil {
		row = make(map[model.Phase]int)
		f.Durations[index] = row
	}
	row[p] = hours
}

// Duration returns the override for the module and phase, if any.
func (f *FixedConstraints) Duration(index int, p model.Phase) (int, bool) {
	if f == nil || f.Durations == nil {
		return 0, false
	}
	h, ok := f.Durations[index][p]
	return h, ok
}

// Problem is one complete scheduling instance.
type Problem struct {
	Modules []model.Module
	Edges   []model.Edge
	// Horizon is the number of working-hour slots.
	Horizon   int
	Resources Resources
	Costs     Costs
	// Fixed freezes prior decisions during re-optimization; nil for a fresh
	// solve.
	Fixed *FixedConstraints
}

// Validate checks the instance before any model is built. Module indices must
// be dense 1..N so the dummy end can take index N+1.
func (p Problem) Validate() error {
	n := len(p.Modules)
	if n == 0 {
		return fmt.Errorf("schedule: problem has no modules")
	}
	if p.Horizon < 1 {
		return fmt.Errorf("schedule: horizon must be >= 1, got %d", p.Horizon)
	}
	byIndex := make(map[int]model.Module, n)
	ids := make(map[string]bool, n)
	for _, m := range p.Modules {
		if err := m.Validate(); err != nil {
			return fmt.Errorf("schedule: %w", err)
		}
		if m.Index > n {
			return fmt.Errorf("schedule: module indices must be 1..%d, got %d", n, m.Index)
		}
		if _, dup := byIndex[m.Index]; dup {
			return fmt.Errorf("schedule: duplicate module index %d", m.Index)
		}
		if ids[m.ID] {
			return fmt.Errorf("schedule: duplicate module id %q", m.ID)
		}
		byIndex[m.Index] = m
		ids[m.ID] = true
	}
	for _, e := range p.Edges {
		if _, ok := byIndex[e.Pred]; !ok {
			return fmt.Errorf("schedule: precedence %d->%d names unknown module %d", e.Pred, e.Succ, e.Pred)
		}
		if _, ok := byIndex[e.Succ]; !ok {
			return fmt.Errorf("schedule: precedence %d->%d names unknown module %d", e.Pred, e.Succ, e.Succ)
		}
		if e.Pred == e.Succ {
			return fmt.Errorf("schedule: module %d precedes itself", e.Pred)
		}
	}
	if _, err := graph.New(p.Modules, p.Edges).TopoOrder(); err != nil {
		return fmt.Errorf("schedule: %w", err)
	}
	if err := p.Resources.Validate(); err != nil {
		return fmt.Errorf("schedule: %w", err)
	}
	if err := p.Costs.Validate(); err != nil {
		return fmt.Errorf("schedule: %w", err)
	}
	return p.validateFixed(byIndex)
}

func (p Problem) validateFixed(byIndex map[int]model.Module) error {
	f := p.Fixed
	if f == nil {
		return nil
	}
	if f.ReoptimizeFrom < 0 || f.ReoptimizeFrom > p.Horizon {
		return fmt.Errorf("schedule: reoptimization point %d outside horizon 1..%d", f.ReoptimizeFrom, p.Horizon)
	}

	starts := []struct {
		kind string
		m    map[int]int
	}{
		{"installation start", f.InstallationStarts},
		{"production start", f.ProductionStarts},
		{"arrival", f.ArrivalTimes},
	}
	for _, s := range starts {
		for index, slot := range s.m {
			if _, ok := byIndex[index]; !ok {
				return fmt.Errorf("schedule: fixed %s names unknown module %d", s.kind, index)
			}
			if slot < 1 || slot > p.Horizon {
				return fmt.Errorf("schedule: fixed %s for module %d at slot %d outside horizon 1..%d", s.kind, index, slot, p.Horizon)
			}
		}
	}

	for index, row := range f.Durations {
		if _, ok := byIndex[index]; !ok {
			return fmt.Errorf("schedule: duration override names unknown module %d", index)
		}
		for phase, hours := range row {
			if !phase.Valid() {
				return fmt.Errorf("schedule: duration override for module %d has invalid phase %d", index, int(phase))
			}
			if hours < 0 {
				return fmt.Errorf("schedule: %s duration override for module %d must not be negative", phase, index)
			}
		}
	}

	bounds := []struct {
		kind string
		m    map[int]int
	}{
		{"production", f.EarliestProductionStarts},
		{"installation", f.EarliestInstallationStarts},
	}
	for _, b := range bounds {
		for index, slot := range b.m {
			if _, ok := byIndex[index]; !ok {
				return fmt.Errorf("schedule: earliest %s start names unknown module %d", b.kind, index)
			}
			if slot < 1 || slot > p.Horizon {
				return fmt.Errorf("schedule: earliest %s start %d for module %d leaves no slot in 1..%d", b.kind, slot, index, p.Horizon)
			}
		}
	}
	for index, slot := range f.EarliestTransportStarts {
		mod, ok := byIndex[index]
		if !ok {
			return fmt.Errorf("schedule: earliest transport start names unknown module %d", index)
		}
		transport := mod.TransportHours
		if h, ok := f.Duration(index, model.PhaseTransport); ok {
			transport = h
		}
		if slot < 1 || slot+transport > p.Horizon {
			return fmt.Errorf("schedule: earliest transport start %d for module %d leaves no arrival slot in 1..%d", slot, index, p.Horizon)
		}
	}
	return nil
}
