package model

import (
	"fmt"
	"strings"
)

// Phase identifies one of the three tasks a module goes through, in pipeline
// order: produced in the factory, transported to site, installed by a crew.
type Phase int

const (
	PhaseProduction Phase = iota
	PhaseTransport
	PhaseInstallation
)

// Phases returns all phases in pipeline order.
func Phases() []Phase {
	return []Phase{PhaseProduction, PhaseTransport, PhaseInstallation}
}

// String returns the canonical lower-case name of the phase.
func (p Phase) String() string {
	switch p {
	case PhaseProduction:
		return "production"
	case PhaseTransport:
		return "transport"
	case PhaseInstallation:
		return "installation"
	default:
		return "unknown"
	}
}

// Valid reports whether p is one of the three known phases.
func (p Phase) Valid() bool {
	return p >= PhaseProduction && p <= PhaseInstallation
}

// ParsePhase converts a phase name to a Phase. It is case-insensitive and
// accepts the legacy aliases "fabrication" and "transportation".
func ParsePhase(s string) (Phase, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "production", "fabrication":
		return PhaseProduction, nil
	case "transport", "transportation":
		return PhaseTransport, nil
	case "installation":
		return PhaseInstallation, nil
	default:
		return 0, fmt.Errorf("unknown phase %q", s)
	}
}

// DelayType distinguishes how a delay report affects a task.
type DelayType int

const (
	// DelayDurationExtension lengthens the task by the reported hours.
	DelayDurationExtension DelayType = iota
	// DelayStartPostponement forbids starting before planned start + hours.
	DelayStartPostponement
)

func (d DelayType) String() string {
	switch d {
	case DelayDurationExtension:
		return "duration_extension"
	case DelayStartPostponement:
		return "start_postponement"
	default:
		return "unknown"
	}
}

// Valid reports whether d is a known delay type.
func (d DelayType) Valid() bool {
	return d == DelayDurationExtension || d == DelayStartPostponement
}

// ParseDelayType converts a delay type name to a DelayType.
func ParseDelayType(s string) (DelayType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "duration_extension", "extension":
		return DelayDurationExtension, nil
	case "start_postponement", "postponement":
		return DelayStartPostponement, nil
	default:
		return 0, fmt.Errorf("unknown delay type %q", s)
	}
}

// TaskStatus classifies a task relative to a reference time.
type TaskStatus int

const (
	StatusNotStarted TaskStatus = iota
	StatusInProgress
	StatusCompleted
)

func (s TaskStatus) String() string {
	switch s {
	case StatusNotStarted:
		return "not_started"
	case StatusInProgress:
		return "in_progress"
	case StatusCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// ParseTaskStatus converts a status name to a TaskStatus.
func ParseTaskStatus(s string) (TaskStatus, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "not_started":
		return StatusNotStarted, nil
	case "in_progress":
		return StatusInProgress, nil
	case "completed":
		return StatusCompleted, nil
	default:
		return 0, fmt.Errorf("unknown task status %q", s)
	}
}
