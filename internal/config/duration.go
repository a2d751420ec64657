package config

import (
	"fmt"
	"strings"
	"time"
)

// durationOr parses a config duration such as "250ms" or "5s".
// Empty and zero values yield def; negative values are rejected.
func durationOr(key, raw string, def time.Duration) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	switch {
	case err != nil:
		return 0, fmt.Errorf("%s: %q is not a duration: %w", key, raw, err)
	case d < 0:
		return 0, fmt.Errorf("%s: %s is negative", key, d)
	case d == 0:
		return def, nil
	}
	return d, nil
}
