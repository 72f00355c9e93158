package model

import (
	"fmt"
	"time"
)

// Module is one prefabricated unit of a project. Index is the model identity
// (1..N, dense); ID is the external label used on site and in delay reports.
type Module struct {
	Index             int
	ID                string
	ProductionHours   int // factory production duration in working hours
	TransportHours    int // factory-to-site transport duration in working hours
	InstallationHours int // on-site installation duration in working hours
}

// Duration returns the module's duration for the given phase in working hours.
func (m Module) Duration(p Phase) int {
	switch p {
	case PhaseProduction:
		return m.ProductionHours
	case PhaseTransport:
		return m.TransportHours
	case PhaseInstallation:
		return m.InstallationHours
	default:
		return 0
	}
}

// Validate checks that the module definition is sound.
func (m Module) Validate() error {
	if m.Index < 1 {
		return fmt.Errorf("module %q: index must be >= 1, got %d", m.ID, m.Index)
	}
	if m.ID == "" {
		return fmt.Errorf("module %d: id must not be empty", m.Index)
	}
	if m.ProductionHours < 1 || m.TransportHours < 1 || m.InstallationHours < 1 {
		return fmt.Errorf("module %q: durations must be >= 1 hour", m.ID)
	}
	return nil
}

// Edge is an installation precedence: Pred must finish installing before Succ
// may start. Both fields are module indices.
type Edge struct {
	Pred int
	Succ int
}

// Project groups the static planning inputs for one construction project.
type Project struct {
	ID        int64
	Name      string
	Start     time.Time // first calendar day of the project
	TargetEnd time.Time // expected end, used to estimate the horizon
	Modules   []Module
	Edges     []Edge
}

// ModuleByID returns the module with the given external ID.
func (p Project) ModuleByID(id string) (Module, bool) {
	for _, m := range p.Modules {
		if m.ID == id {
			return m, true
		}
	}
	return Module{}, false
}

// ModuleByIndex returns the module with the given model index.
func (p Project) ModuleByIndex(idx int) (Module, bool) {
	for _, m := range p.Modules {
		if m.Index == idx {
			return m, true
		}
	}
	return Module{}, false
}

// Validate checks modules and edge endpoints. Cycle detection lives in
// core/graph; this only guards structural basics.
func (p Project) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("project name must not be empty")
	}
	if len(p.Modules) == 0 {
		return fmt.Errorf("project %q has no modules", p.Name)
	}
	byIndex := make(map[int]bool, len(p.Modules))
	byID := make(map[string]bool, len(p.Modules))
	for _, m := range p.Modules {
		if err := m.Validate(); err != nil {
			return err
		}
		if byIndex[m.Index] {
			return fmt.Errorf("duplicate module index %d", m.Index)
		}
		if byID[m.ID] {
			return fmt.Errorf("duplicate module id %q", m.ID)
		}
		byIndex[m.Index] = true
		byID[m.ID] = true
	}
	for _, e := range p.Edges {
		if !byIndex[e.Pred] {
			return fmt.Errorf("precedence edge references unknown module index %d", e.Pred)
		}
		if !byIndex[e.Succ] {
			return fmt.Errorf("precedence edge references unknown module index %d", e.Succ)
		}
		if e.Pred == e.Succ {
			return fmt.Errorf("module %d cannot precede itself", e.Pred)
		}
	}
	return nil
}
