package model

import "time"

// ModulePlan is the solved timing of one module. All values are slot indices
// or working-hour durations; 0 means unset.
type ModulePlan struct {
	Index int    `json:"index"`
	ID    string `json:"id"`

	ProductionStart    int `json:"production_start"`
	ProductionDuration int `json:"production_duration"`

	// Factory wait covers the buffer time between production finish and
	// transport start.
	FactoryWaitStart    int `json:"factory_wait_start"`
	FactoryWaitDuration int `json:"factory_wait_duration"`

	TransportStart    int `json:"transport_start"`
	TransportDuration int `json:"transport_duration"`
	ArrivalTime       int `json:"arrival_time"`

	// Site wait covers on-site storage between arrival and installation.
	SiteWaitStart    int `json:"site_wait_start"`
	SiteWaitDuration int `json:"site_wait_duration"`

	InstallationStart    int `json:"installation_start"`
	InstallationDuration int `json:"installation_duration"`

	// Earliest-start bounds carried from applied postponements, 0 = none.
	EarliestProductionStart   int `json:"earliest_production_start,omitempty"`
	EarliestTransportStart    int `json:"earliest_transport_start,omitempty"`
	EarliestInstallationStart int `json:"earliest_installation_start,omitempty"`
}

// Start returns the planned start slot for the given phase.
func (m ModulePlan) Start(p Phase) int {
	switch p {
	case PhaseProduction:
		return m.ProductionStart
	case PhaseTransport:
		return m.TransportStart
	case PhaseInstallation:
		return m.InstallationStart
	default:
		return 0
	}
}

// Duration returns the planned duration for the given phase.
func (m ModulePlan) Duration(p Phase) int {
	switch p {
	case PhaseProduction:
		return m.ProductionDuration
	case PhaseTransport:
		return m.TransportDuration
	case PhaseInstallation:
		return m.InstallationDuration
	default:
		return 0
	}
}

// SetDuration overwrites the duration for the given phase.
func (m *ModulePlan) SetDuration(p Phase, hours int) {
	switch p {
	case PhaseProduction:
		m.ProductionDuration = hours
	case PhaseTransport:
		m.TransportDuration = hours
	case PhaseInstallation:
		m.InstallationDuration = hours
	}
}

// EarliestStart returns the earliest-start bound for the given phase.
func (m ModulePlan) EarliestStart(p Phase) int {
	switch p {
	case PhaseProduction:
		return m.EarliestProductionStart
	case PhaseTransport:
		return m.EarliestTransportStart
	case PhaseInstallation:
		return m.EarliestInstallationStart
	default:
		return 0
	}
}

// SetEarliestStart overwrites the earliest-start bound for the given phase.
func (m *ModulePlan) SetEarliestStart(p Phase, slot int) {
	switch p {
	case PhaseProduction:
		m.EarliestProductionStart = slot
	case PhaseTransport:
		m.EarliestTransportStart = slot
	case PhaseInstallation:
		m.EarliestInstallationStart = slot
	}
}

// Solution is one solved schedule version for a project.
type Solution struct {
	Version   int       `json:"version"`
	Status    string    `json:"status"`
	Objective float64   `json:"objective"`
	Gap       float64   `json:"gap"`
	FinishTime int      `json:"finish_time"`
	Horizon   int       `json:"horizon"`
	CreatedAt time.Time `json:"created_at"`

	Modules    []ModulePlan `json:"modules"`
	OrderTimes []int        `json:"order_times"`

	// FactoryInventory maps slot -> buffer level; SiteInventory maps module
	// index -> slot -> level. Both are sparse: absent entries are zero.
	FactoryInventory map[int]float64         `json:"factory_inventory,omitempty"`
	SiteInventory    map[int]map[int]float64 `json:"site_inventory,omitempty"`
}

// Plan returns a pointer to the row for the given module index, or nil.
// The pointer aliases the solution's slice; mutations stick.
func (s *Solution) Plan(index int) *ModulePlan {
	for i := range s.Modules {
		if s.Modules[i].Index == index {
			return &s.Modules[i]
		}
	}
	return nil
}

// PlanByID returns a pointer to the row for the given module ID, or nil.
func (s *Solution) PlanByID(id string) *ModulePlan {
	for i := range s.Modules {
		if s.Modules[i].ID == id {
			return &s.Modules[i]
		}
	}
	return nil
}

// Clone deep-copies the solution. The delay applier adjusts a clone so the
// stored prior schedule stays untouched.
func (s Solution) Clone() Solution {
	out := s
	out.Modules = make([]ModulePlan, len(s.Modules))
	copy(out.Modules, s.Modules)
	out.OrderTimes = make([]int, len(s.OrderTimes))
	copy(out.OrderTimes, s.OrderTimes)
	if s.FactoryInventory != nil {
		out.FactoryInventory = make(map[int]float64, len(s.FactoryInventory))
		for k, v := range s.FactoryInventory {
			out.FactoryInventory[k] = v
		}
	}
	if s.SiteInventory != nil {
		out.SiteInventory = make(map[int]map[int]float64, len(s.SiteInventory))
		for i, row := range s.SiteInventory {
			inner := make(map[int]float64, len(row))
			for t, v := range row {
				inner[t] = v
			}
			out.SiteInventory[i] = inner
		}
	}
	return out
}
