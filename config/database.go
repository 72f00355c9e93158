package config

import "fmt"

// DatabaseConfig locates the SQLite file holding projects, schedule versions
// and delay reports.
type DatabaseConfig struct {
	Path string `json:"path"`
}

// SetDefaults applies sane defaults.
func (c *DatabaseConfig) SetDefaults() {
	if c.Path == "" {
		c.Path = "lookahead.db"
	}
}

// Validate checks mandatory fields.
func (c DatabaseConfig) Validate() error {
	if c.Path == "" {
		return fmt.Errorf("path is required")
	}
	return nil
}
