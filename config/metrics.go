package config

import "fmt"

// MetricsConfig selects the metric sinks. Both sinks may be active at once;
// with neither enabled the planner runs with a no-op sink.
type MetricsConfig struct {
	PrometheusEnabled bool   `json:"prometheus_enabled"`
	PrometheusPort    string `json:"prometheus_port"`
	InfluxEnabled     bool   `json:"influx_enabled"`
	InfluxURL         string `json:"influx_url"`
	InfluxToken       string `json:"influx_token"`
	InfluxOrg         string `json:"influx_org"`
	InfluxBucket      string `json:"influx_bucket"`
}

// SetDefaults applies sane defaults.
func (c *MetricsConfig) SetDefaults() {
	if c.PrometheusPort == "" {
		c.PrometheusPort = ":9090"
	}
}

// Validate checks that enabled sinks carry their connection settings.
func (c MetricsConfig) Validate() error {
	if c.PrometheusEnabled && c.PrometheusPort == "" {
		return fmt.Errorf("prometheus_port is required")
	}
	if c.InfluxEnabled {
		if c.InfluxURL == "" {
			return fmt.Errorf("influx_url is required")
		}
		if c.InfluxToken == "" {
			return fmt.Errorf("influx_token is required")
		}
		if c.InfluxOrg == "" {
			return fmt.Errorf("influx_org is required")
		}
		if c.InfluxBucket == "" {
			return fmt.Errorf("influx_bucket is required")
		}
	}
	return nil
}
