package model

// TaskState is the observed situation of one module phase at a reference
// time. Starts and finishes are slot indices from the prior schedule;
// ActualStart is 0 when unknown.
type TaskState struct {
	ModuleID      string
	Phase         Phase
	Status        TaskStatus
	PlannedStart  int
	PlannedFinish int
	ActualStart   int
	// Progress is the completed fraction in [0,1]. 1 for completed tasks,
	// 0 for tasks not started.
	Progress float64
}

// StateSet maps module ID -> phase -> state for one identification pass.
type StateSet map[string]map[Phase]TaskState

// Get returns the state for a module phase.
func (s StateSet) Get(moduleID string, p Phase) (TaskState, bool) {
	phases, ok := s[moduleID]
	if !ok {
		return TaskState{}, false
	}
	st, ok := phases[p]
	return st, ok
}

// Put stores the state, allocating the inner map when needed.
func (s StateSet) Put(st TaskState) {
	phases, ok := s[st.ModuleID]
	if !ok {
		phases = make(map[Phase]TaskState, 3)
		s[st.ModuleID] = phases
	}
	phases[st.Phase] = st
}

// Count returns how many tasks carry the given status.
func (s StateSet) Count(status TaskStatus) int {
	n := 0
	for _, phases := range s {
		for _, st := range phases {
			if st.Status == status {
				n++
			}
		}
	}
	return n
}
