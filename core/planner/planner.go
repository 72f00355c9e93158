// Package planner orchestrates the scheduling cycle: loading a project,
// building and solving the time-indexed model, persisting the schedule as a
// new version and running rolling re-optimizations that respect work already
// done. One cycle runs single-threaded; all shared state lives in the Store.
package planner

import (
	"context"
	"fmt"
	"time"

	"github.com/earnor/look-ahead-planning/core/calendar"
	"github.com/earnor/look-ahead-planning/core/events"
	"github.com/earnor/look-ahead-planning/core/logger"
	"github.com/earnor/look-ahead-planning/core/milp"
	"github.com/earnor/look-ahead-planning/core/model"
	"github.com/earnor/look-ahead-planning/core/reopt"
	"github.com/earnor/look-ahead-planning/core/schedule"
	"github.com/earnor/look-ahead-planning/internal/eventbus"
)

// Options carries the planning configuration shared by all cycles.
type Options struct {
	Resources schedule.Resources
	Costs     schedule.Costs
	Calendar  calendar.Config
	Solver    milp.Options
}

// Planner runs scheduling cycles against a Store and a MILP solver.
type Planner struct {
	store  Store
	solver milp.Solver
	opts   Options
	bus    *eventbus.Bus
	log    logger.Logger
}

// New creates a Planner. The bus may be nil when no events are wanted; a nil
// logger falls back to the NopLogger.
func New(store Store, solver milp.Solver, opts Options, bus *eventbus.Bus, log logger.Logger) (*Planner, error) {
	if store == nil {
		return nil, fmt.Errorf("planner: store must not be nil")
	}
	if solver == nil {
		return nil, fmt.Errorf("planner: solver must not be nil")
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	opts.Resources.SetDefaults()
	opts.Costs.SetDefaults()
	opts.Calendar.SetDefaults()
	opts.Solver = opts.Solver.WithDefaults()
	if err := opts.Calendar.Validate(); err != nil {
		return nil, fmt.Errorf("planner: invalid calendar config: %w", err)
	}
	return &Planner{store: store, solver: solver, opts: opts, bus: bus, log: log}, nil
}

// Solve computes a fresh schedule for the project and stores it as the next
// version. Nothing is persisted when the solver finds no usable schedule.
func (p *Planner) Solve(ctx context.Context, projectID int64) (model.Solution, error) {
	proj, err := p.store.Project(ctx, projectID)
	if err != nil {
		return model.Solution{}, fmt.Errorf("planner: load project %d: %w", projectID, err)
	}
	horizon := p.opts.Calendar.Horizon
	if horizon < 1 {
		horizon = p.opts.Calendar.EstimateHorizon(proj.Start, proj.TargetEnd)
	}
	prob := schedule.Problem{
		Modules:   proj.Modules,
		Edges:     proj.Edges,
		Horizon:   horizon,
		Resources: p.opts.Resources,
		Costs:     p.opts.Costs,
	}
	sol, res, err := p.runSolve(ctx, proj.Name, prob)
	if err != nil {
		return model.Solution{}, err
	}
	version, err := p.store.SaveSolution(ctx, proj.ID, sol)
	if err != nil {
		return model.Solution{}, fmt.Errorf("planner: save schedule for project %q: %w", proj.Name, err)
	}
	sol.Version = version
	p.log.Infof("planner: project %q scheduled: version=%d status=%s objective=%.2f finish=%d",
		proj.Name, version, sol.Status, sol.Objective, sol.FinishTime)
	p.publish(events.SolveEvent{
		Project:    proj.Name,
		Version:    version,
		Status:     sol.Status,
		Objective:  sol.Objective,
		Gap:        sol.Gap,
		FinishTime: sol.FinishTime,
		Modules:    len(sol.Modules),
		Horizon:    sol.Horizon,
		Runtime:    res.Runtime,
	})
	return sol, nil
}

// Reoptimize rolls the latest schedule forward from the given wall-clock
// reference: tasks finished or running at that point are frozen, pending
// delay reports are folded in and the remaining work is re-solved. The
// consumed delay records are marked with the new version; on failure nothing
// is persisted and nothing is consumed.
func (p *Planner) Reoptimize(ctx context.Context, projectID int64, at time.Time) (model.Solution, error) {
	proj, err := p.store.Project(ctx, projectID)
	if err != nil {
		return model.Solution{}, fmt.Errorf("planner: load project %d: %w", projectID, err)
	}
	prior, err := p.store.LatestSolution(ctx, projectID)
	if err != nil {
		return model.Solution{}, fmt.Errorf("planner: load latest schedule for project %q: %w", proj.Name, err)
	}
	if prior == nil {
		return model.Solution{}, fmt.Errorf("%w for project %q", ErrNoPriorSolution, proj.Name)
	}
	pending, err := p.store.PendingDelays(ctx, projectID)
	if err != nil {
		return model.Solution{}, fmt.Errorf("planner: load pending delays for project %q: %w", proj.Name, err)
	}

	cal, err := calendar.New(p.opts.Calendar, proj.Start, prior.Horizon)
	if err != nil {
		return model.Solution{}, fmt.Errorf("planner: build calendar for project %q: %w", proj.Name, err)
	}
	refIndex := 0
	if idx, ok := cal.IndexOf(at); ok {
		refIndex = idx
	} else {
		p.log.Warnf("planner: project %q: reference time %s lies outside the planning grid", proj.Name, at.Format(time.RFC3339))
	}

	states := reopt.IdentifyStates(*prior, refIndex, cal)
	adjusted, applied := reopt.ApplyDelays(*prior, pending, p.log)
	fixed := reopt.BuildFixedConstraints(states, adjusted, *prior, refIndex)

	// The rolling grid must stay aligned with the prior schedule, so the
	// horizon is carried over rather than re-estimated.
	prob := schedule.Problem{
		Modules:   proj.Modules,
		Edges:     proj.Edges,
		Horizon:   prior.Horizon,
		Resources: p.opts.Resources,
		Costs:     p.opts.Costs,
		Fixed:     fixed,
	}
	sol, res, err := p.runSolve(ctx, proj.Name, prob)
	if err != nil {
		return model.Solution{}, err
	}
	version, err := p.store.SaveSolution(ctx, proj.ID, sol)
	if err != nil {
		return model.Solution{}, fmt.Errorf("planner: save schedule for project %q: %w", proj.Name, err)
	}
	sol.Version = version
	if len(pending) > 0 {
		ids := make([]string, 0, len(pending))
		for _, d := range pending {
			ids = append(ids, d.ID)
		}
		if err := p.store.MarkDelaysApplied(ctx, ids, version); err != nil {
			return model.Solution{}, fmt.Errorf("planner: mark delays applied for project %q: %w", proj.Name, err)
		}
	}

	completed, inProgress, notStarted := countStates(states)
	p.log.Infof("planner: project %q re-optimized from slot %d: version=%d delays=%d status=%s objective=%.2f runtime=%s",
		proj.Name, refIndex, version, applied, sol.Status, sol.Objective, res.Runtime)
	p.publish(events.ReoptEvent{
		Project:    proj.Name,
		Version:    version,
		RefIndex:   refIndex,
		Applied:    applied,
		Completed:  completed,
		InProgress: inProgress,
		NotStarted: notStarted,
	})
	return sol, nil
}

// Describe returns the latest stored schedule of the project.
func (p *Planner) Describe(ctx context.Context, projectID int64) (model.Solution, error) {
	sol, err := p.store.LatestSolution(ctx, projectID)
	if err != nil {
		return model.Solution{}, fmt.Errorf("planner: load latest schedule for project %d: %w", projectID, err)
	}
	if sol == nil {
		return model.Solution{}, fmt.Errorf("%w for project %d", ErrNoPriorSolution, projectID)
	}
	return *sol, nil
}

// runSolve distinguishes feasibility failures from configuration and
// infrastructure errors: a solver that terminated without a usable schedule
// wraps ErrNoFeasibleSchedule, everything else passes through.
func (p *Planner) runSolve(ctx context.Context, project string, prob schedule.Problem) (model.Solution, milp.Result, error) {
	sol, res, err := schedule.Solve(ctx, p.solver, prob, p.opts.Solver, p.log)
	if err != nil {
		if res.Status != milp.StatusUnknown && !res.Usable() {
			return model.Solution{}, res, fmt.Errorf("%w for project %q: %v", ErrNoFeasibleSchedule, project, err)
		}
		return model.Solution{}, res, fmt.Errorf("planner: project %q: %w", project, err)
	}
	return sol, res, nil
}

func (p *Planner) publish(ev eventbus.Event) {
	if p.bus != nil {
		p.bus.Publish(ev)
	}
}

func countStates(states model.StateSet) (completed, inProgress, notStarted int) {
	for _, phases := range states {
		for _, st := range phases {
			switch st.Status {
			case model.StatusCompleted:
				completed++
			case model.StatusInProgress:
				inProgress++
			default:
				notStarted++
			}
		}
	}
	return completed, inProgress, notStarted
}
