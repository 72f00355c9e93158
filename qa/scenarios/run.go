package scenarios

import (
	"context"
	"errors"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/earnor/look-ahead-planning/core/calendar"
	"github.com/earnor/look-ahead-planning/core/milp"
	"github.com/earnor/look-ahead-planning/core/model"
	"github.com/earnor/look-ahead-planning/core/planner"
	"github.com/earnor/look-ahead-planning/core/schedule"
	"github.com/earnor/look-ahead-planning/infra/metrics"
	"github.com/earnor/look-ahead-planning/infra/solver"
	"github.com/earnor/look-ahead-planning/infra/store"
	"github.com/earnor/look-ahead-planning/internal/eventbus"
)

// Scenarios anchor on a Monday morning so the default working calendar yields
// predictable slot numbers.
var projectStart = time.Date(2026, time.March, 2, 8, 0, 0, 0, time.UTC)

// RunScenario drives a scenario through the full stack: SQLite store, branch
// and bound solver, event bus and Prometheus sink. The final schedule is
// checked against the scenario expectations and the structural rules every
// schedule must satisfy.
func RunScenario(t *testing.T, sc *Scenario) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reg := prometheus.NewRegistry()
	sink, err := metrics.NewPromSinkWithRegistry(reg)
	if err != nil {
		t.Fatalf("prom sink: %v", err)
	}
	bus := eventbus.New(16)
	defer bus.Close()
	metrics.StartEventCollector(ctx, bus, sink)

	st, err := store.Open(filepath.Join(t.TempDir(), "scenario.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer st.Close()

	modules, edges, err := sc.ToModel()
	if err != nil {
		t.Fatal(err)
	}
	projectID, err := st.CreateProject(ctx, sc.Name, projectStart, projectStart.AddDate(0, 0, sc.Days), modules, edges)
	if err != nil {
		t.Fatalf("create project: %v", err)
	}

	opts := planner.Options{
		Resources: schedule.Resources{InstallationCrews: sc.Crews},
		Calendar:  calendar.Config{Horizon: sc.Horizon},
		Solver:    milp.Options{TimeLimit: 30 * time.Second, GapTolerance: 1e-9},
	}
	pl, err := planner.New(st, solver.New(nil), opts, bus, nil)
	if err != nil {
		t.Fatalf("planner: %v", err)
	}

	sol, err := pl.Solve(ctx, projectID)
	if !sc.Expected.Feasible {
		if !errors.Is(err, planner.ErrNoFeasibleSchedule) {
			t.Fatalf("scenario %s: want no feasible schedule, got err=%v", sc.Name, err)
		}
		return
	}
	if err != nil {
		t.Fatalf("scenario %s: solve: %v", sc.Name, err)
	}

	if len(sc.Delays) > 0 {
		cal, err := calendar.New(calendar.Config{}, projectStart, sol.Horizon)
		if err != nil {
			t.Fatalf("calendar: %v", err)
		}
		var at time.Time
		for _, d := range sc.Delays {
			rec, detected, err := d.toRecord(cal)
			if err != nil {
				t.Fatalf("scenario %s: %v", sc.Name, err)
			}
			if err := st.AddDelay(ctx, projectID, rec); err != nil {
				t.Fatalf("add delay: %v", err)
			}
			if detected.After(at) {
				at = detected
			}
		}
		sol, err = pl.Reoptimize(ctx, projectID, at)
		if err != nil {
			t.Fatalf("scenario %s: reoptimize: %v", sc.Name, err)
		}
	}

	verifySchedule(t, sc, sol, modules, edges)
	waitForSolveMetric(t, reg)
}

func (d DelayDef) toRecord(cal *calendar.Calendar) (model.DelayRecord, time.Time, error) {
	phase, err := model.ParsePhase(d.Phase)
	if err != nil {
		return model.DelayRecord{}, time.Time{}, err
	}
	dtype, err := model.ParseDelayType(d.Type)
	if err != nil {
		return model.DelayRecord{}, time.Time{}, err
	}
	detected, ok := cal.TimeOf(d.AtSlot)
	if !ok {
		return model.DelayRecord{}, time.Time{}, errors.New("delay slot outside the calendar")
	}
	return model.DelayRecord{
		ID:            uuid.NewString(),
		ModuleID:      d.ModuleID,
		Phase:         phase,
		Type:          dtype,
		Hours:         d.Hours,
		DetectedAt:    detected,
		DetectedIndex: d.AtSlot,
		Reason:        "scenario",
	}, detected, nil
}

// verifySchedule checks the scenario expectations plus the rules every
// schedule must hold: precedence order, arrival before installation and the
// crew capacity per slot.
func verifySchedule(t *testing.T, sc *Scenario, sol model.Solution, modules []model.Module, edges []model.Edge) {
	plans := make(map[int]model.ModulePlan, len(sol.Modules))
	for _, p := range sol.Modules {
		plans[p.Index] = p
	}
	if len(plans) != len(modules) {
		t.Fatalf("schedule covers %d of %d modules", len(plans), len(modules))
	}

	for _, p := range plans {
		if p.ArrivalTime > p.InstallationStart {
			t.Errorf("module %s installs at %d before arriving at %d", p.ID, p.InstallationStart, p.ArrivalTime)
		}
	}
	for _, e := range edges {
		pred, succ := plans[e.Pred], plans[e.Succ]
		if pred.InstallationStart+pred.InstallationDuration > succ.InstallationStart {
			t.Errorf("module %s starts at %d before predecessor %s finishes at %d",
				succ.ID, succ.InstallationStart, pred.ID, pred.InstallationStart+pred.InstallationDuration)
		}
	}

	crews := sc.Crews
	if crews == 0 {
		crews = 2
	}
	for s := 1; s <= sol.Horizon; s++ {
		busy := 0
		for _, p := range plans {
			if p.InstallationStart <= s && s < p.InstallationStart+p.InstallationDuration {
				busy++
			}
		}
		if busy > crews {
			t.Errorf("slot %d runs %d installations with %d crews", s, busy, crews)
		}
	}

	if want := sc.Expected.FinishWithin; want > 0 && sol.FinishTime > want {
		t.Errorf("finish slot %d, want at most %d", sol.FinishTime, want)
	}
	if len(sc.Expected.Order) > 0 {
		order := make([]model.ModulePlan, 0, len(plans))
		for _, p := range plans {
			order = append(order, p)
		}
		sort.Slice(order, func(i, j int) bool { return order[i].InstallationStart < order[j].InstallationStart })
		for i, want := range sc.Expected.Order {
			if order[i].ID != want {
				t.Errorf("installation %d is %s, want %s", i+1, order[i].ID, want)
			}
		}
	}
}

// waitForSolveMetric polls the registry until the collector goroutine has
// recorded the solve.
func waitForSolveMetric(t *testing.T, reg *prometheus.Registry) {
	deadline := time.Now().Add(2 * time.Second)
	for {
		families, err := reg.Gather()
		if err != nil {
			t.Fatalf("gather: %v", err)
		}
		for _, mf := range families {
			if mf.GetName() == "lookahead_solves_total" && len(mf.GetMetric()) > 0 {
				return
			}
		}
		if time.Now().After(deadline) {
			t.Fatal("solve was never recorded in the metrics registry")
		}
		time.Sleep(20 * time.Millisecond)
	}
}
