package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/earnor/look-ahead-planning/core/metrics"
)

// PromSink records planning events in Prometheus metrics.
type PromSink struct {
	solves    *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	objective *prometheus.GaugeVec
	finish    *prometheus.GaugeVec
	reopts    *prometheus.CounterVec
	delays    *prometheus.CounterVec
}

// NewPromSink registers planning metrics on the default Prometheus
// registerer. The metrics endpoint is served separately, see StartServer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer. A nil
// registerer defaults to the global Prometheus registerer. Collectors that
// are already registered are reused, so repeated construction is safe.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	solves, err := counterVec(reg, prometheus.CounterOpts{
		Name: "lookahead_solves_total",
		Help: "Total number of completed scheduling runs",
	}, "status")
	if err != nil {
		return nil, err
	}
	duration, err := histogramVec(reg, prometheus.HistogramOpts{
		Name:    "lookahead_solve_duration_seconds",
		Help:    "Wall clock time spent producing a schedule",
		Buckets: prometheus.DefBuckets,
	}, "status")
	if err != nil {
		return nil, err
	}
	objective, err := gaugeVec(reg, prometheus.GaugeOpts{
		Name: "lookahead_schedule_objective",
		Help: "Objective value of the most recent schedule",
	}, "project")
	if err != nil {
		return nil, err
	}
	finish, err := gaugeVec(reg, prometheus.GaugeOpts{
		Name: "lookahead_schedule_finish_slot",
		Help: "Project finish slot of the most recent schedule",
	}, "project")
	if err != nil {
		return nil, err
	}
	reopts, err := counterVec(reg, prometheus.CounterOpts{
		Name: "lookahead_reoptimizations_total",
		Help: "Total number of re-optimization cycles",
	}, "project")
	if err != nil {
		return nil, err
	}
	delays, err := counterVec(reg, prometheus.CounterOpts{
		Name: "lookahead_delay_reports_total",
		Help: "Total number of delay reports received",
	}, "phase", "type")
	if err != nil {
		return nil, err
	}

	return &PromSink{
		solves:    solves,
		duration:  duration,
		objective: objective,
		finish:    finish,
		reopts:    reopts,
		delays:    delays,
	}, nil
}

// RecordSolve counts the run and updates the per-project schedule gauges.
func (s *PromSink) RecordSolve(ev coremetrics.SolveReport) error {
	s.solves.WithLabelValues(ev.Status).Inc()
	s.duration.WithLabelValues(ev.Status).Observe(ev.Runtime.Seconds())
	s.objective.WithLabelValues(ev.Project).Set(ev.Objective)
	s.finish.WithLabelValues(ev.Project).Set(float64(ev.FinishTime))
	return nil
}

// RecordReopt counts re-optimization cycles per project.
func (s *PromSink) RecordReopt(ev coremetrics.ReoptReport) error {
	s.reopts.WithLabelValues(ev.Project).Inc()
	return nil
}

// RecordDelay counts received delay reports by phase and type.
func (s *PromSink) RecordDelay(ev coremetrics.DelayReport) error {
	s.delays.WithLabelValues(ev.Phase, ev.Type).Inc()
	return nil
}

func counterVec(reg prometheus.Registerer, opts prometheus.CounterOpts, labels ...string) (*prometheus.CounterVec, error) {
	c := prometheus.NewCounterVec(opts, labels)
	err := reg.Register(c)
	if err == nil {
		return c, nil
	}
	if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
		return are.ExistingCollector.(*prometheus.CounterVec), nil
	}
	return nil, err
}

func histogramVec(reg prometheus.Registerer, opts prometheus.HistogramOpts, labels ...string) (*prometheus.HistogramVec, error) {
	h := prometheus.NewHistogramVec(opts, labels)
	err := reg.Register(h)
	if err == nil {
		return h, nil
	}
	if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
		return are.ExistingCollector.(*prometheus.HistogramVec), nil
	}
	return nil, err
}

func gaugeVec(reg prometheus.Registerer, opts prometheus.GaugeOpts, labels ...string) (*prometheus.GaugeVec, error) {
	g := prometheus.NewGaugeVec(opts, labels)
	err := reg.Register(g)
	if err == nil {
		return g, nil
	}
	if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
		return are.ExistingCollector.(*prometheus.GaugeVec), nil
	}
	return nil, err
}
