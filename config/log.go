package config

import "fmt"

// LogConfig tunes the zerolog output.
type LogConfig struct {
	// Level is one of "debug", "info", "warn" or "error".
	Level string `json:"level"`
	// Dev switches to the human-readable console writer.
	Dev bool `json:"dev"`
}

// SetDefaults applies sane defaults.
func (c *LogConfig) SetDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
}

// Validate checks the level name.
func (c LogConfig) Validate() error {
	switch c.Level {
	case "debug", "info", "warn", "error":
		return nil
	}
	return fmt.Errorf("unknown level %s", c.Level)
}
