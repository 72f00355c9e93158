package schedule

import (
	"fmt"
	"time"

	"github.com/earnor/look-ahead-planning/core/milp"
	"github.com/earnor/look-ahead-planning/core/model"
)

const (
	// binaryThreshold separates a selected binary from rounding noise.
	binaryThreshold = 0.5
	// levelThreshold filters numeric dust out of inventory levels.
	levelThreshold = 1e-6
)

// Decode translates a usable solver result back into a Solution: per-module
// phase timings with derived wait spans, order batch slots and sparse
// inventory levels.
func (b *BuildResult) Decode(res milp.Result) (model.Solution, error) {
	if !res.Usable() {
		return model.Solution{}, fmt.Errorf("schedule: result %s carries no schedule", res.Status)
	}
	sol := model.Solution{
		Status:    res.Status.String(),
		Objective: res.Objective,
		Gap:       res.Gap,
		Horizon:   b.T,
		CreatedAt: time.Now().UTC(),
		Modules:   make([]model.ModulePlan, 0, b.n),
	}
	finish, ok := b.selected(res, b.x, b.n+1)
	if !ok {
		return model.Solution{}, fmt.Errorf("schedule: no project finish slot selected")
	}
	sol.FinishTime = finish

	f := b.prob.Fixed
	for _, m := range b.mods {
		i := m.Index
		d := b.dur[i]
		plan := model.ModulePlan{
			Index:                i,
			ID:                   m.ID,
			ProductionDuration:   d.production,
			TransportDuration:    d.transport,
			InstallationDuration: d.installation,
		}
		start, ok := b.selected(res, b.q, i)
		if !ok {
			return model.Solution{}, fmt.Errorf("schedule: module %d has no production start selected", i)
		}
		arrival, ok := b.selected(res, b.p, i)
		if !ok {
			return model.Solution{}, fmt.Errorf("schedule: module %d has no arrival selected", i)
		}
		install, ok := b.selected(res, b.x, i)
		if !ok {
			return model.Solution{}, fmt.Errorf("schedule: module %d has no installation start selected", i)
		}
		plan.ProductionStart = start
		plan.ArrivalTime = arrival
		plan.InstallationStart = install

		productionFinish := start + d.production - 1
		plan.FactoryWaitStart = productionFinish + 1
		plan.TransportStart = arrival - d.transport
		plan.FactoryWaitDuration = plan.TransportStart - plan.FactoryWaitStart
		plan.SiteWaitStart = arrival
		plan.SiteWaitDuration = install - arrival

		if f != nil {
			plan.EarliestProductionStart = f.EarliestProductionStarts[i]
			plan.EarliestTransportStart = f.EarliestTransportStarts[i]
			plan.EarliestInstallationStart = f.EarliestInstallationStarts[i]
		}
		sol.Modules = append(sol.Modules, plan)
	}

	for t := 1; t <= b.T; t++ {
		if res.Value(b.z[t]) > binaryThreshold {
			sol.OrderTimes = append(sol.OrderTimes, t)
		}
	}
	for t := 1; t <= b.T; t++ {
		if v := res.Value(b.buf[t]); v > levelThreshold {
			if sol.FactoryInventory == nil {
				sol.FactoryInventory = make(map[int]float64)
			}
			sol.FactoryInventory[t] = v
		}
	}
	for _, m := range b.mods {
		for t := 1; t <= b.T; t++ {
			if v := res.Value(b.inv[key{m.Index, t}]); v > levelThreshold {
				if sol.SiteInventory == nil {
					sol.SiteInventory = make(map[int]map[int]float64)
				}
				if sol.SiteInventory[m.Index] == nil {
					sol.SiteInventory[m.Index] = make(map[int]float64)
				}
				sol.SiteInventory[m.Index][t] = v
			}
		}
	}
	return sol, nil
}

// selected returns the first slot whose binary in the family exceeds the
// selection threshold.
func (b *BuildResult) selected(res milp.Result, fam map[key]milp.Var, i int) (int, bool) {
	for t := 1; t <= b.T; t++ {
		if res.Value(fam[key{i, t}]) > binaryThreshold {
			return t, true
		}
	}
	return 0, false
}
