package model

import (
	"testing"
	"time"
)

func TestParsePhase(t *testing.T) {
	cases := map[string]Phase{
		"production":     PhaseProduction,
		"Fabrication":    PhaseProduction,
		"transport":      PhaseTransport,
		"TRANSPORTATION": PhaseTransport,
		"installation":   PhaseInstallation,
	}
	for in, want := range cases {
		got, err := ParsePhase(in)
		if err != nil {
			t.Fatalf("ParsePhase(%q): %v", in, err)
		}
		if got != want {
			t.Fatalf("ParsePhase(%q) = %v, want %v", in, got, want)
		}
	}
	if _, err := ParsePhase("teleportation"); err == nil {
		t.Fatalf("expected error for unknown phase")
	}
}

func TestParseDelayType(t *testing.T) {
	if d, err := ParseDelayType("duration_extension"); err != nil || d != DelayDurationExtension {
		t.Fatalf("got %v, %v", d, err)
	}
	if d, err := ParseDelayType("postponement"); err != nil || d != DelayStartPostponement {
		t.Fatalf("got %v, %v", d, err)
	}
	if _, err := ParseDelayType("shrinkage"); err == nil {
		t.Fatalf("expected error for unknown delay type")
	}
}

func TestModuleValidate(t *testing.T) {
	m := Module{Index: 1, ID: "M-1", ProductionHours: 4, TransportHours: 2, InstallationHours: 3}
	if err := m.Validate(); err != nil {
		t.Fatalf("valid module rejected: %v", err)
	}
	bad := m
	bad.InstallationHours = 0
	if err := bad.Validate(); err == nil {
		t.Fatalf("zero duration accepted")
	}
	bad = m
	bad.ID = ""
	if err := bad.Validate(); err == nil {
		t.Fatalf("empty id accepted")
	}
}

func TestProjectValidate(t *testing.T) {
	p := Project{
		Name:  "hall-a",
		Start: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		Modules: []Module{
			{Index: 1, ID: "M-1", ProductionHours: 2, TransportHours: 1, InstallationHours: 2},
			{Index: 2, ID: "M-2", ProductionHours: 2, TransportHours: 1, InstallationHours: 2},
		},
		Edges: []Edge{{Pred: 1, Succ: 2}},
	}
	if err := p.Validate(); err != nil {
		t.Fatalf("valid project rejected: %v", err)
	}

	dup := p
	dup.Modules = append([]Module{}, p.Modules...)
	dup.Modules[1].Index = 1
	dup.Modules[1].ID = "M-3"
	if err := dup.Validate(); err == nil {
		t.Fatalf("duplicate index accepted")
	}

	dangling := p
	dangling.Edges = []Edge{{Pred: 1, Succ: 9}}
	if err := dangling.Validate(); err == nil {
		t.Fatalf("dangling edge accepted")
	}

	self := p
	self.Edges = []Edge{{Pred: 1, Succ: 1}}
	if err := self.Validate(); err == nil {
		t.Fatalf("self edge accepted")
	}
}

func TestDelayRecordValidate(t *testing.T) {
	d := DelayRecord{ModuleID: "M-1", Phase: PhaseInstallation, Type: DelayDurationExtension, Hours: 3}
	if err := d.Validate(); err != nil {
		t.Fatalf("valid record rejected: %v", err)
	}
	d.Hours = 0
	if err := d.Validate(); err == nil {
		t.Fatalf("zero hours accepted")
	}
	d.Hours = 2
	d.Phase = Phase(99)
	if err := d.Validate(); err == nil {
		t.Fatalf("invalid phase accepted")
	}
}

func TestStateSet(t *testing.T) {
	s := make(StateSet)
	s.Put(TaskState{ModuleID: "M-1", Phase: PhaseProduction, Status: StatusCompleted, Progress: 1})
	s.Put(TaskState{ModuleID: "M-1", Phase: PhaseInstallation, Status: StatusInProgress, Progress: 0.5})
	s.Put(TaskState{ModuleID: "M-2", Phase: PhaseProduction, Status: StatusNotStarted})

	if st, ok := s.Get("M-1", PhaseProduction); !ok || st.Status != StatusCompleted {
		t.Fatalf("unexpected state %+v ok=%v", st, ok)
	}
	if _, ok := s.Get("M-3", PhaseProduction); ok {
		t.Fatalf("unknown module should not resolve")
	}
	if got := s.Count(StatusInProgress); got != 1 {
		t.Fatalf("Count(in_progress) = %d, want 1", got)
	}
	if got := s.Count(StatusNotStarted); got != 1 {
		t.Fatalf("Count(not_started) = %d, want 1", got)
	}
}

func TestSolutionCloneIsDeep(t *testing.T) {
	s := Solution{
		Version: 1,
		Modules: []ModulePlan{{Index: 1, ID: "M-1", InstallationStart: 5, InstallationDuration: 2}},
		OrderTimes: []int{3},
		FactoryInventory: map[int]float64{4: 1},
		SiteInventory:    map[int]map[int]float64{1: {4: 1}},
	}
	c := s.Clone()
	c.Modules[0].InstallationDuration = 9
	c.OrderTimes[0] = 7
	c.FactoryInventory[4] = 5
	c.SiteInventory[1][4] = 5

	if s.Modules[0].InstallationDuration != 2 {
		t.Fatalf("clone shares module rows")
	}
	if s.OrderTimes[0] != 3 {
		t.Fatalf("clone shares order times")
	}
	if s.FactoryInventory[4] != 1 {
		t.Fatalf("clone shares factory inventory")
	}
	if s.SiteInventory[1][4] != 1 {
		t.Fatalf("clone shares site inventory")
	}
}

func TestPlanLookups(t *testing.T) {
	s := Solution{Modules: []ModulePlan{{Index: 1, ID: "M-1"}, {Index: 2, ID: "M-2"}}}
	if p := s.Plan(2); p == nil || p.ID != "M-2" {
		t.Fatalf("Plan(2) = %+v", p)
	}
	if p := s.PlanByID("M-1"); p == nil || p.Index != 1 {
		t.Fatalf("PlanByID(M-1) = %+v", p)
	}
	if p := s.Plan(5); p != nil {
		t.Fatalf("Plan(5) should be nil")
	}
	p := s.PlanByID("M-2")
	p.InstallationStart = 4
	if s.Modules[1].InstallationStart != 4 {
		t.Fatalf("plan pointer should alias the solution")
	}
}
