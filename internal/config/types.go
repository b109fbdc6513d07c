package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"commitfarm/internal/schedule"
)

// Config is read once at startup. Changing the file on disk only triggers a
// "restart to apply" warning (see Watch).
//
// All durations are Go duration strings (e.g. "500ms", "10s", "1m").
type Config struct {
	Repo     RepoConfig     `json:"repo"`
	Schedule ScheduleConfig `json:"schedule"`
	State    StateConfig    `json:"state"`
	Logging  LoggingConfig  `json:"logging"`
}

// RepoConfig describes the target git repository and commit shape.
type RepoConfig struct {
	Path            string `json:"path"`
	CommitFile      string `json:"commit_file,omitempty"`
	MessageTemplate string `json:"commit_message_template,omitempty"`

	// Push is a pointer so "omitted" defaults to true (original behavior)
	// while an explicit false still works.
	Push      *bool  `json:"push,omitempty"`
	UserName  string `json:"user_name,omitempty"`
	UserEmail string `json:"user_email,omitempty"`
}

// ScheduleConfig controls generation and the driver loop.
type ScheduleConfig struct {
	// WindowStart/WindowEnd are local times of day, "HH:MM" (a bare hour
	// like "10" is also accepted). End is exclusive, same-day only.
	WindowStart string `json:"window_start,omitempty"`
	WindowEnd   string `json:"window_end,omitempty"`

	MinCommits int `json:"min_commits,omitempty"`
	MaxCommits int `json:"max_commits,omitempty"`

	// RolloverSpec is a standard 5-field cron spec marking the day
	// boundary; the loop re-reconciles at its next firing. Default
	// "0 0 * * *" (local midnight).
	RolloverSpec string `json:"rollover_spec,omitempty"`

	// Liveness caps any wait so the loop wakes at least this often.
	Liveness string `json:"liveness_interval,omitempty"` // default "1h"

	RetryMax   int    `json:"retry_max,omitempty"`   // attempts per event, default 3
	RetryDelay string `json:"retry_delay,omitempty"` // between attempts, default "5s"

	// CatchupSpacing paces overdue events executed in one wake (late
	// resume). Default "2s".
	CatchupSpacing string `json:"catchup_spacing,omitempty"`
}

// StateConfig controls the schedule store.
//
// Example:
//
//	"state": { "driver": "file", "path": "./farmd_state.json" }
type StateConfig struct {
	Driver      string `json:"driver,omitempty"` // "file" (default) or "sqlite"
	Path        string `json:"path,omitempty"`
	BusyTimeout string `json:"busy_timeout,omitempty"` // sqlite only
}

type LoggingConfig struct {
	Level   string        `json:"level,omitempty"`
	Console *bool         `json:"console,omitempty"` // default true
	File    LogFileConfig `json:"file,omitempty"`
}

type LogFileConfig struct {
	Enabled bool   `json:"enabled,omitempty"`
	Path    string `json:"path,omitempty"`
}

// Defaults mirror the historical daemon behavior.
const (
	defaultWindowStart = "10:00"
	defaultWindowEnd   = "22:00"
	defaultMinCommits  = 5
	defaultMaxCommits  = 12
	defaultCommitFile  = "farm_activity.md"
	defaultMessage     = "chore: update activity log"
	defaultStatePath   = "./farmd_state.json"
	defaultRollover    = "0 0 * * *"
)

func (c *Config) applyDefaults() {
	if c.Repo.CommitFile == "" {
		c.Repo.CommitFile = defaultCommitFile
	}
	if c.Repo.MessageTemplate == "" {
		c.Repo.MessageTemplate = defaultMessage
	}
	if c.Schedule.WindowStart == "" {
		c.Schedule.WindowStart = defaultWindowStart
	}
	if c.Schedule.WindowEnd == "" {
		c.Schedule.WindowEnd = defaultWindowEnd
	}
	if c.Schedule.MinCommits == 0 {
		c.Schedule.MinCommits = defaultMinCommits
	}
	if c.Schedule.MaxCommits == 0 {
		c.Schedule.MaxCommits = defaultMaxCommits
	}
	if c.Schedule.RolloverSpec == "" {
		c.Schedule.RolloverSpec = defaultRollover
	}
	if c.Schedule.RetryMax == 0 {
		c.Schedule.RetryMax = 3
	}
	if c.State.Path == "" {
		c.State.Path = defaultStatePath
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

// Validate checks everything that is fatal at startup; configuration errors
// exit non-zero before anything is persisted.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Repo.Path) == "" {
		return fmt.Errorf("repo.path is not set (set it in the config file or REPO_PATH)")
	}
	if info, err := os.Stat(c.Repo.Path); err != nil || !info.IsDir() {
		return fmt.Errorf("repo.path does not exist: %s", c.Repo.Path)
	}

	win, err := c.Window()
	if err != nil {
		return err
	}
	if err := win.Validate(); err != nil {
		return fmt.Errorf("schedule window %s..%s: %w", c.Schedule.WindowStart, c.Schedule.WindowEnd, err)
	}

	if c.Schedule.MinCommits < 1 || c.Schedule.MaxCommits < 1 {
		return fmt.Errorf("schedule.min_commits and schedule.max_commits must be positive")
	}
	if c.Schedule.MinCommits > c.Schedule.MaxCommits {
		return fmt.Errorf("schedule.min_commits (%d) exceeds schedule.max_commits (%d)",
			c.Schedule.MinCommits, c.Schedule.MaxCommits)
	}

	if _, err := cron.ParseStandard(c.Schedule.RolloverSpec); err != nil {
		return fmt.Errorf("schedule.rollover_spec %q: %w", c.Schedule.RolloverSpec, err)
	}

	for _, f := range []struct{ path, raw string }{
		{"schedule.liveness_interval", c.Schedule.Liveness},
		{"schedule.retry_delay", c.Schedule.RetryDelay},
		{"schedule.catchup_spacing", c.Schedule.CatchupSpacing},
		{"state.busy_timeout", c.State.BusyTimeout},
	} {
		if _, err := parseDuration(f.path, f.raw); err != nil {
			return err
		}
	}
	return nil
}

// Window returns the parsed daily window.
func (c *Config) Window() (schedule.Window, error) {
	start, err := parseTimeOfDay("schedule.window_start", c.Schedule.WindowStart)
	if err != nil {
		return schedule.Window{}, err
	}
	end, err := parseTimeOfDay("schedule.window_end", c.Schedule.WindowEnd)
	if err != nil {
		return schedule.Window{}, err
	}
	return schedule.Window{Start: start, End: end}, nil
}

// Rollover returns the parsed day-boundary schedule. Call after Validate.
func (c *Config) Rollover() cron.Schedule {
	s, err := cron.ParseStandard(c.Schedule.RolloverSpec)
	if err != nil {
		// Validate() rejects bad specs before we get here.
		s, _ = cron.ParseStandard(defaultRollover)
	}
	return s
}

func (c *Config) PushEnabled() bool {
	return c.Repo.Push == nil || *c.Repo.Push
}

func (c *Config) ConsoleLogging() bool {
	return c.Logging.Console == nil || *c.Logging.Console
}

func (c *Config) LivenessInterval() time.Duration {
	return durationOrDefault("schedule.liveness_interval", c.Schedule.Liveness, time.Hour)
}

func (c *Config) RetryDelay() time.Duration {
	return durationOrDefault("schedule.retry_delay", c.Schedule.RetryDelay, 5*time.Second)
}

func (c *Config) CatchupSpacing() time.Duration {
	return durationOrDefault("schedule.catchup_spacing", c.Schedule.CatchupSpacing, 2*time.Second)
}

func (c *Config) StateBusyTimeout() time.Duration {
	d, _ := parseDuration("state.busy_timeout", c.State.BusyTimeout)
	return d
}

// parseTimeOfDay accepts "HH:MM" or a bare hour "HH".
func parseTimeOfDay(path, raw string) (time.Duration, error) {
	s := strings.TrimSpace(raw)
	var h, m int
	var err error
	if strings.Contains(s, ":") {
		_, err = fmt.Sscanf(s, "%d:%d", &h, &m)
	} else {
		_, err = fmt.Sscanf(s, "%d", &h)
	}
	if err != nil || h < 0 || h > 24 || m < 0 || m > 59 || (h == 24 && m != 0) {
		return 0, fmt.Errorf("%s: invalid time of day %q (want HH:MM)", path, raw)
	}
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute, nil
}
