// Package metrics defines the recorder interfaces and event structs used to
// observe the planner. Sinks such as the Prometheus and InfluxDB adapters in
// infra/metrics record solve outcomes, re-optimization cycles and delay
// reports and can be combined with NewMultiSink. The factory helpers return
// a MultiSink automatically when multiple sinks are configured.
package metrics
