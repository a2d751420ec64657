package config

import (
	"strings"

	logx "ticktock/pkg/logx"
)

// SummarizeConfigChange returns the changed sections and structured attrs
// describing the new values, for a single reload log line.
func SummarizeConfigChange(oldCfg, newCfg *Config) ([]string, []logx.Field) {
	if oldCfg == nil {
		oldCfg = &Config{}
	}
	if newCfg == nil {
		newCfg = &Config{}
	}

	changed := make([]string, 0, 3)
	attrs := make([]logx.Field, 0, 8)

	if oldCfg.Logging != newCfg.Logging {
		changed = append(changed, "logging")
		attrs = append(attrs,
			logx.String("logging.level", newCfg.Logging.Level),
			logx.Bool("logging.console", newCfg.Logging.Console),
			logx.Bool("logging.file_enabled", newCfg.Logging.File.Enabled),
		)
	}

	if oldCfg.Timers != newCfg.Timers {
		changed = append(changed, "timers")
		attrs = append(attrs,
			logx.Int("timers.max_routines", newCfg.Timers.MaxRoutines),
			logx.Any("timers.panic_log_rate", newCfg.Timers.PanicLogRate),
			logx.Int("timers.history_size", newCfg.Timers.HistorySize),
		)
	}

	if strings.TrimSpace(oldCfg.ShutdownTimeout) != strings.TrimSpace(newCfg.ShutdownTimeout) {
		changed = append(changed, "shutdown_timeout")
		attrs = append(attrs, logx.String("shutdown_timeout", strings.TrimSpace(newCfg.ShutdownTimeout)))
	}

	return changed, attrs
}
