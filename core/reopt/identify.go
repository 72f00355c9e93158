package reopt

import (
	"time"

	"github.com/earnor/look-ahead-planning/core/model"
)

// Calendar resolves slot indices to wall-clock times. core/calendar
// satisfies it; tests substitute fixed grids.
type Calendar interface {
	TimeOf(index int) (time.Time, bool)
}

// IdentifyStates classifies every (module, phase) task of the prior schedule
// against the reference slot: completed, in progress or not started. An
// unmappable reference slot classifies everything as not started.
func IdentifyStates(prior model.Solution, refIndex int, cal Calendar) model.StateSet {
	states := make(model.StateSet, len(prior.Modules))
	now, nowOK := cal.TimeOf(refIndex)
	for _, row := range prior.Modules {
		for _, ph := range model.Phases() {
			states.Put(taskState(row, ph, now, nowOK, cal))
		}
	}
	return states
}

// taskState classifies one task by wall clock: completed when its finish
// slot opens strictly before the reference time, in progress once its start
// slot has opened. A task without a planned start is not started.
func taskState(row model.ModulePlan, ph model.Phase, now time.Time, nowOK bool, cal Calendar) model.TaskState {
	start := row.Start(ph)
	st := model.TaskState{
		ModuleID:      row.ID,
		Phase:         ph,
		Status:        model.StatusNotStarted,
		PlannedStart:  start,
		PlannedFinish: phaseFinish(row, ph),
	}
	if !nowOK || start < 1 {
		return st
	}
	if finishAt, ok := cal.TimeOf(st.PlannedFinish); ok && finishAt.Before(now) {
		st.Status = model.StatusCompleted
		st.Progress = 1
		return st
	}
	startAt, ok := cal.TimeOf(start)
	if !ok || startAt.After(now) {
		return st
	}
	st.Status = model.StatusInProgress
	st.ActualStart = start
	st.Progress = taskProgress(startAt, now, st.PlannedFinish, cal)
	return st
}

// taskProgress estimates the completed fraction of a running task from
// wall-clock hours, clamped to [0,1]. An unmappable finish slot yields 0.5.
func taskProgress(startAt, now time.Time, finish int, cal Calendar) float64 {
	finishAt, ok := cal.TimeOf(finish)
	if !ok {
		return 0.5
	}
	total := finishAt.Sub(startAt).Hours()
	if total <= 0 {
		return 0
	}
	frac := now.Sub(startAt).Hours() / total
	switch {
	case frac < 0:
		return 0
	case frac > 1:
		return 1
	}
	return frac
}

// phaseFinish computes the planned finish slot of one task. Production and
// installation occupy start..start+duration-1; transport finishes at the
// arrival slot.
func phaseFinish(row model.ModulePlan, ph model.Phase) int {
	if ph == model.PhaseTransport {
		if row.ArrivalTime > 0 {
			return row.ArrivalTime
		}
		return row.TransportStart + row.TransportDuration
	}
	return row.Start(ph) + row.Duration(ph) - 1
}
