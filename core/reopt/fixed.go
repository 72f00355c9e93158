package reopt

import (
	"github.com/earnor/look-ahead-planning/core/model"
	"github.com/earnor/look-ahead-planning/core/schedule"
)

// BuildFixedConstraints converts identified task states and the
// delay-adjusted schedule into the constraint set for the next solve.
// Completed and running work is pinned in place, open work carries its
// adjusted durations and any postponement bounds. The original solution
// supplies the historical durations of completed work, so extensions
// reported against finished tasks change nothing.
func BuildFixedConstraints(states model.StateSet, adjusted, original model.Solution, refIndex int) *schedule.FixedConstraints {
	f := schedule.NewFixedConstraints(refIndex)
	for i := range adjusted.Modules {
		row := &adjusted.Modules[i]
		origRow := original.PlanByID(row.ID)
		if origRow == nil {
			origRow = row
		}
		for _, ph := range model.Phases() {
			st, ok := states.Get(row.ID, ph)
			if !ok {
				st = model.TaskState{ModuleID: row.ID, Phase: ph, Status: model.StatusNotStarted}
			}
			switch st.Status {
			case model.StatusCompleted:
				fixCompleted(f, row.Index, ph, st, row, origRow)
			case model.StatusInProgress:
				fixInProgress(f, row.Index, ph, st, row, refIndex)
			default:
				f.SetDuration(row.Index, ph, row.Duration(ph))
			}
		}
		copyBounds(f, row)
	}
	return f
}

// fixCompleted pins historical work. Transport pins the arrival slot, the
// other phases their start. Durations revert to the original plan.
func fixCompleted(f *schedule.FixedConstraints, index int, ph model.Phase, st model.TaskState, row, origRow *model.ModulePlan) {
	switch ph {
	case model.PhaseProduction:
		if st.PlannedStart > 0 {
			f.ProductionStarts[index] = st.PlannedStart
		}
	case model.PhaseTransport:
		arrival := row.ArrivalTime
		if arrival == 0 {
			arrival = st.PlannedFinish
		}
		if arrival > 0 {
			f.ArrivalTimes[index] = arrival
		}
	case model.PhaseInstallation:
		if st.PlannedStart > 0 {
			f.InstallationStarts[index] = st.PlannedStart
		}
	}
	f.SetDuration(index, ph, origRow.Duration(ph))
}

// fixInProgress pins a running task at its observed start and leaves only the
// remaining duration to the solver. Transport gets no arrival pin: the
// re-solve places the arrival using the remaining duration.
func fixInProgress(f *schedule.FixedConstraints, index int, ph model.Phase, st model.TaskState, row *model.ModulePlan, refIndex int) {
	start := st.ActualStart
	if start == 0 {
		start = st.PlannedStart
	}
	if start > 0 {
		switch ph {
		case model.PhaseProduction:
			f.ProductionStarts[index] = start
		case model.PhaseInstallation:
			f.InstallationStarts[index] = start
		}
	}
	elapsed := 0
	if start > 0 && refIndex > start {
		elapsed = refIndex - start
	}
	remaining := row.Duration(ph) - elapsed
	if remaining < 0 {
		remaining = 0
	}
	f.SetDuration(index, ph, remaining)
}

// copyBounds carries postponement bounds from the adjusted row. The model
// builder applies them only to families without an exact pin.
func copyBounds(f *schedule.FixedConstraints, row *model.ModulePlan) {
	if row.EarliestProductionStart > 0 {
		f.EarliestProductionStarts[row.Index] = row.EarliestProductionStart
	}
	if row.EarliestTransportStart > 0 {
		f.EarliestTransportStarts[row.Index] = row.EarliestTransportStart
	}
	if row.EarliestInstallationStart > 0 {
		f.EarliestInstallationStarts[row.Index] = row.EarliestInstallationStart
	}
}
