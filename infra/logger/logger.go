package logger

import corelogger "github.com/earnor/look-ahead-planning/core/logger"

// Logger mirrors the core logger interface so callers in infra can depend on
// this package alone.
type Logger = corelogger.Logger

// NopLogger is re-exported for infra components and tests.
type NopLogger = corelogger.NopLogger

// New returns a Logger for the given component at the default info level.
// Output format is detected via the APP_ENV variable.
func New(component string) Logger {
	return NewZerologLogger(component, "info")
}
