package config

import (
	"fmt"
	"time"

	"ticktock/internal/timers"
	logx "ticktock/pkg/logx"
)

// Config is the ticktock config file (JSON or YAML).
//
// Example:
//
//	logging:
//	  level: debug
//	  console: true
//	timers:
//	  max_routines: 1000
//	  panic_log_rate: 2
//	shutdown_timeout: 5s
type Config struct {
	Logging LoggingConfig `json:"logging"`
	Timers  TimersConfig  `json:"timers"`

	// ShutdownTimeout is a Go duration string bounding Stop. Default: 5s.
	ShutdownTimeout string `json:"shutdown_timeout,omitempty"`
}

type LoggingConfig struct {
	Level   string      `json:"level"`
	Console bool        `json:"console"`
	File    LoggingFile `json:"file"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// TimersConfig controls the timers service.
//
// Defaults (when fields are omitted/zero):
//   - max_routines: 0 (unlimited)
//   - panic_log_rate: 1 per second
//   - history_size: 100
type TimersConfig struct {
	MaxRoutines  int     `json:"max_routines,omitempty"`
	PanicLogRate float64 `json:"panic_log_rate,omitempty"`
	HistorySize  int     `json:"history_size,omitempty"`
}

const defaultShutdownTimeout = 5 * time.Second

// Default returns the config used when no file is given.
func Default() *Config {
	return &Config{Logging: LoggingConfig{Level: "info", Console: true}}
}

func (c *Config) LogxConfig() logx.Config {
	return logx.Config{
		Level:   c.Logging.Level,
		Console: c.Logging.Console,
		File:    logx.FileConfig{Enabled: c.Logging.File.Enabled, Path: c.Logging.File.Path},
	}
}

func (c *Config) TimersConfig() timers.Config {
	return timers.Config{
		MaxRoutines:  c.Timers.MaxRoutines,
		PanicLogRate: c.Timers.PanicLogRate,
		HistorySize:  c.Timers.HistorySize,
	}
}

func (c *Config) ShutdownTimeoutOrDefault() (time.Duration, error) {
	return durationOr("shutdown_timeout", c.ShutdownTimeout, defaultShutdownTimeout)
}

// Validate rejects values that would only fail later at runtime.
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("config is nil")
	}
	if _, ok := logx.ParseLevel(c.Logging.Level); !ok {
		return fmt.Errorf("logging.level: unknown level %q", c.Logging.Level)
	}
	if c.Timers.MaxRoutines < 0 {
		return fmt.Errorf("timers.max_routines: must be >= 0")
	}
	if c.Timers.PanicLogRate < 0 {
		return fmt.Errorf("timers.panic_log_rate: must be >= 0")
	}
	if c.Timers.HistorySize < 0 {
		return fmt.Errorf("timers.history_size: must be >= 0")
	}
	if _, err := c.ShutdownTimeoutOrDefault(); err != nil {
		return err
	}
	return nil
}
