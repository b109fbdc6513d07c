package config

import (
	"fmt"
	"strings"
	"time"
)

// parseDuration parses an optional duration field. Empty means unset and
// yields 0; negative values are rejected.
func parseDuration(path, raw string) (time.Duration, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q: %w", path, raw, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s: duration must be >= 0", path)
	}
	return d, nil
}

// durationOrDefault substitutes def for unset fields. Call only after
// Validate has rejected malformed input.
func durationOrDefault(path, raw string, def time.Duration) time.Duration {
	d, err := parseDuration(path, raw)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
