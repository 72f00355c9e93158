// Package config loads and validates the planner configuration from a YAML
// or JSON file with optional environment overrides.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/earnor/look-ahead-planning/core/calendar"
	"github.com/earnor/look-ahead-planning/core/schedule"
	"github.com/earnor/look-ahead-planning/infra/mqtt"
)

type Config struct {
	Database  DatabaseConfig     `json:"database"`
	Solver    SolverConfig       `json:"solver"`
	Resources schedule.Resources `json:"resources"`
	Costs     schedule.Costs     `json:"costs"`
	Calendar  calendar.Config    `json:"calendar"`
	Metrics   MetricsConfig      `json:"metrics"`
	MQTT      mqtt.Config        `json:"mqtt"`
	Log       LogConfig          `json:"log"`
}

// Load reads the file at path, applies LAP_-prefixed environment overrides
// ("__" separates sections, LAP_DATABASE__PATH targets database.path), fills
// defaults and validates every section.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	if err := k.Load(env.Provider("LAP_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "lap_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.Database.SetDefaults()
	cfg.Solver.SetDefaults()
	cfg.Resources.SetDefaults()
	cfg.Costs.SetDefaults()
	cfg.Calendar.SetDefaults()
	cfg.Metrics.SetDefaults()
	cfg.MQTT.SetDefaults()
	cfg.Log.SetDefaults()
	if err := cfg.Database.Validate(); err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}
	if err := cfg.Solver.Validate(); err != nil {
		return nil, fmt.Errorf("solver: %w", err)
	}
	if err := cfg.Resources.Validate(); err != nil {
		return nil, fmt.Errorf("resources: %w", err)
	}
	if err := cfg.Costs.Validate(); err != nil {
		return nil, fmt.Errorf("costs: %w", err)
	}
	if err := cfg.Calendar.Validate(); err != nil {
		return nil, fmt.Errorf("calendar: %w", err)
	}
	if err := cfg.Metrics.Validate(); err != nil {
		return nil, fmt.Errorf("metrics: %w", err)
	}
	if err := cfg.MQTT.Validate(); err != nil {
		return nil, fmt.Errorf("mqtt: %w", err)
	}
	if err := cfg.Log.Validate(); err != nil {
		return nil, fmt.Errorf("log: %w", err)
	}
	return &cfg, nil
}
