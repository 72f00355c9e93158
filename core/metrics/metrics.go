package metrics

import "time"

// SolveReport captures the outcome of one scheduling run.
type SolveReport struct {
	Project    string
	Version    int
	Status     string
	Objective  float64
	Gap        float64
	FinishTime int
	Modules    int
	Horizon    int
	Runtime    time.Duration
	Time       time.Time
}

// MetricsSink records solve outcomes for observability purposes. Optional
// capabilities are modeled as separate recorder interfaces that sinks may
// additionally implement.
type MetricsSink interface {
	RecordSolve(ev SolveReport) error
}

// ReoptReport captures one re-optimization cycle.
type ReoptReport struct {
	Project    string
	Version    int
	RefIndex   int
	Applied    int
	Completed  int
	InProgress int
	NotStarted int
	Time       time.Time
}

// ReoptRecorder records re-optimization cycles.
type ReoptRecorder interface {
	RecordReopt(ev ReoptReport) error
}

// DelayReport captures a delay report received from the field.
type DelayReport struct {
	Project  string
	ModuleID string
	Phase    string
	Type     string
	Hours    int
	Time     time.Time
}

// DelayRecorder records incoming delay reports.
type DelayRecorder interface {
	RecordDelay(ev DelayReport) error
}

// NopSink implements MetricsSink and all recorder interfaces with no-op
// methods.
type NopSink struct{}

func (NopSink) RecordSolve(SolveReport) error { return nil }
func (NopSink) RecordReopt(ReoptReport) error { return nil }
func (NopSink) RecordDelay(DelayReport) error { return nil }
