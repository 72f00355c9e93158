package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, name, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	data := `database:
  path: "plans/lookahead.db"
solver:
  time_limit_seconds: 30
  gap_tolerance: 0.05
  max_nodes: 50000
resources:
  installation_crews: 3
  production_machines: 4
costs:
  order_batch: 250
  schedule_penalty: 75
calendar:
  day_start: "07:00"
  day_end: "15:00"
  break_start: "11:00"
  break_end: "12:00"
  safety_factor: 1.5
metrics:
  prometheus_enabled: true
  prometheus_port: ":9100"
mqtt:
  enabled: true
  broker: "tcp://localhost:1883"
  client_id: "intake"
  username: "gw"
  password: "secret"
  qos: 1
log:
  level: "debug"
`
	path := writeConfig(t, "config.yaml", data)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	checks := []struct {
		name string
		got  any
		want any
	}{
		{"database.path", cfg.Database.Path, "plans/lookahead.db"},
		{"solver.time_limit_seconds", cfg.Solver.TimeLimitSeconds, 30},
		{"solver.gap_tolerance", cfg.Solver.GapTolerance, 0.05},
		{"solver.max_nodes", cfg.Solver.MaxNodes, 50000},
		{"solver.int_tolerance", cfg.Solver.IntTolerance, 1e-6},
		{"resources.installation_crews", cfg.Resources.InstallationCrews, 3},
		{"resources.production_machines", cfg.Resources.ProductionMachines, 4},
		{"resources.site_storage", cfg.Resources.SiteStorage, 4},
		{"resources.factory_storage", cfg.Resources.FactoryStorage, 10},
		{"costs.order_batch", cfg.Costs.OrderBatch, 250.0},
		{"costs.factory_holding", cfg.Costs.FactoryHolding, 1.0},
		{"costs.site_holding", cfg.Costs.SiteHolding, 2.0},
		{"costs.schedule_penalty", cfg.Costs.SchedulePenalty, 75.0},
		{"calendar.day_start", cfg.Calendar.DayStart, "07:00"},
		{"calendar.day_end", cfg.Calendar.DayEnd, "15:00"},
		{"calendar.break_start", cfg.Calendar.BreakStart, "11:00"},
		{"calendar.safety_factor", cfg.Calendar.SafetyFactor, 1.5},
		{"calendar.working_days", len(cfg.Calendar.WorkingDays), 5},
		{"metrics.prometheus_enabled", cfg.Metrics.PrometheusEnabled, true},
		{"metrics.prometheus_port", cfg.Metrics.PrometheusPort, ":9100"},
		{"metrics.influx_enabled", cfg.Metrics.InfluxEnabled, false},
		{"mqtt.enabled", cfg.MQTT.Enabled, true},
		{"mqtt.broker", cfg.MQTT.Broker, "tcp://localhost:1883"},
		{"mqtt.client_id", cfg.MQTT.ClientID, "intake"},
		{"mqtt.username", cfg.MQTT.Username, "gw"},
		{"mqtt.password", cfg.MQTT.Password, "secret"},
		{"mqtt.topic_root", cfg.MQTT.TopicRoot, "lookahead/projects"},
		{"mqtt.qos", cfg.MQTT.QoS, byte(1)},
		{"log.level", cfg.Log.Level, "debug"},
		{"log.dev", cfg.Log.Dev, false},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s mismatch: %v", c.name, c.got)
		}
	}
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, "config.yaml", "log:\n  level: info\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	checks := []struct {
		name string
		got  any
		want any
	}{
		{"database.path", cfg.Database.Path, "lookahead.db"},
		{"solver.time_limit_seconds", cfg.Solver.TimeLimitSeconds, 120},
		{"solver.gap_tolerance", cfg.Solver.GapTolerance, 0.2},
		{"solver.max_nodes", cfg.Solver.MaxNodes, 200000},
		{"resources.installation_crews", cfg.Resources.InstallationCrews, 2},
		{"costs.order_batch", cfg.Costs.OrderBatch, 100.0},
		{"calendar.day_start", cfg.Calendar.DayStart, "08:00"},
		{"calendar.day_end", cfg.Calendar.DayEnd, "17:00"},
		{"calendar.break_end", cfg.Calendar.BreakEnd, "13:00"},
		{"calendar.safety_factor", cfg.Calendar.SafetyFactor, 1.2},
		{"calendar.horizon", cfg.Calendar.Horizon, 0},
		{"metrics.prometheus_port", cfg.Metrics.PrometheusPort, ":9090"},
		{"mqtt.enabled", cfg.MQTT.Enabled, false},
		{"mqtt.client_id", cfg.MQTT.ClientID, "lookahead"},
		{"log.level", cfg.Log.Level, "info"},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s mismatch: %v", c.name, c.got)
		}
	}
}

func TestLoadJSON(t *testing.T) {
	path := writeConfig(t, "config.json", `{"database": {"path": "x.db"}, "solver": {"max_nodes": 1000}}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if cfg.Database.Path != "x.db" {
		t.Errorf("path mismatch: %s", cfg.Database.Path)
	}
	if cfg.Solver.MaxNodes != 1000 {
		t.Errorf("max_nodes mismatch: %d", cfg.Solver.MaxNodes)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("LAP_DATABASE__PATH", "/var/lib/lookahead.db")
	t.Setenv("LAP_LOG__LEVEL", "warn")
	path := writeConfig(t, "config.yaml", "database:\n  path: \"from-file.db\"\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if cfg.Database.Path != "/var/lib/lookahead.db" {
		t.Errorf("env override lost: %s", cfg.Database.Path)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("env override lost: %s", cfg.Log.Level)
	}
}

func TestLoadUnsupportedFormat(t *testing.T) {
	path := writeConfig(t, "config.toml", "x = 1\n")

	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "unsupported config format") {
		t.Fatalf("expected format error, got %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadRejectsInvalidSections(t *testing.T) {
	cases := []struct {
		name string
		data string
		want string
	}{
		{
			name: "calendar day order",
			data: "calendar:\n  day_start: \"18:00\"\n  day_end: \"08:00\"\n",
			want: "calendar:",
		},
		{
			name: "influx without url",
			data: "metrics:\n  influx_enabled: true\n",
			want: "metrics:",
		},
		{
			name: "negative solver limit",
			data: "solver:\n  time_limit_seconds: -5\n",
			want: "solver:",
		},
		{
			name: "unknown log level",
			data: "log:\n  level: \"chatty\"\n",
			want: "log:",
		},
		{
			name: "tls without ca bundle",
			data: "mqtt:\n  enabled: true\n  broker: \"tcp://localhost:1883\"\n  use_tls: true\n",
			want: "mqtt:",
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			path := writeConfig(t, "config.yaml", c.data)
			_, err := Load(path)
			if err == nil || !strings.Contains(err.Error(), c.want) {
				t.Fatalf("expected %q error, got %v", c.want, err)
			}
		})
	}
}
