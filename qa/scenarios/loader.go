// Package scenarios runs YAML-described planning cases against the real
// planner stack. Every *.yaml file in this directory defines a project, an
// optional stream of delay reports and the outcome the final schedule must
// satisfy.
package scenarios

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/earnor/look-ahead-planning/core/model"
)

type ModuleDef struct {
	ID           string   `yaml:"id"`
	Production   int      `yaml:"production_hours"`
	Transport    int      `yaml:"transport_hours"`
	Installation int      `yaml:"installation_hours"`
	Predecessors []string `yaml:"predecessors,omitempty"`
}

// DelayDef is a delay report injected after the initial solve. AtSlot is the
// working-hour slot at which the delay is detected.
type DelayDef struct {
	ModuleID string `yaml:"module_id"`
	Phase    string `yaml:"phase"`
	Type     string `yaml:"type"`
	Hours    int    `yaml:"hours"`
	AtSlot   int    `yaml:"at_slot"`
}

type Expected struct {
	Feasible     bool     `yaml:"feasible"`
	FinishWithin int      `yaml:"finish_within,omitempty"`
	Order        []string `yaml:"order,omitempty"`
}

type Scenario struct {
	Name        string      `yaml:"name"`
	Description string      `yaml:"description,omitempty"`
	Days        int         `yaml:"days"`
	Horizon     int         `yaml:"horizon,omitempty"`
	Crews       int         `yaml:"crews,omitempty"`
	Modules     []ModuleDef `yaml:"modules"`
	Delays      []DelayDef  `yaml:"delays,omitempty"`
	Expected    Expected    `yaml:"expected"`
}

func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, err
	}
	return &sc, nil
}

// ToModel converts the module definitions into model types, assigning indices
// in file order and resolving predecessor IDs to precedence edges.
func (sc *Scenario) ToModel() ([]model.Module, []model.Edge, error) {
	byID := make(map[string]int, len(sc.Modules))
	modules := make([]model.Module, len(sc.Modules))
	for i, def := range sc.Modules {
		modules[i] = model.Module{
			Index:             i + 1,
			ID:                def.ID,
			ProductionHours:   def.Production,
			TransportHours:    def.Transport,
			InstallationHours: def.Installation,
		}
		byID[def.ID] = i + 1
	}
	var edges []model.Edge
	for _, def := range sc.Modules {
		for _, pred := range def.Predecessors {
			pi, ok := byID[pred]
			if !ok {
				return nil, nil, fmt.Errorf("scenario %s: module %s names unknown predecessor %s", sc.Name, def.ID, pred)
			}
			edges = append(edges, model.Edge{Pred: pi, Succ: byID[def.ID]})
		}
	}
	return modules, edges, nil
}
