package metrics

// MultiSink fans events out to multiple sinks.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordSolve forwards the report to all sinks, returning the first error
// encountered.
func (m *MultiSink) RecordSolve(ev SolveReport) error {
	for _, s := range m.Sinks {
		if err := s.RecordSolve(ev); err != nil {
			return err
		}
	}
	return nil
}

// RecordReopt forwards the report to sinks that record re-optimizations.
func (m *MultiSink) RecordReopt(ev ReoptReport) error {
	for _, s := range m.Sinks {
		if r, ok := s.(ReoptRecorder); ok {
			if err := r.RecordReopt(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordDelay forwards the report to sinks that record delay reports.
func (m *MultiSink) RecordDelay(ev DelayReport) error {
	for _, s := range m.Sinks {
		if r, ok := s.(DelayRecorder); ok {
			if err := r.RecordDelay(ev); err != nil {
				return err
			}
		}
	}
	return nil
}
