// Package engine drives the daily schedule: it reconciles persisted state
// against the calendar, executes due events, and sleeps until the next
// actionable moment.
package engine

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/time/rate"

	logx "commitfarm/pkg/logx"

	"commitfarm/internal/clock"
	"commitfarm/internal/schedule"
	"commitfarm/internal/store"
)

// Action is the external commit action (append + stage/commit + push),
// invoked as one retryable unit per event.
type Action interface {
	Do(ctx context.Context, now time.Time) error
}

// ActionFunc adapts a function to Action.
type ActionFunc func(ctx context.Context, now time.Time) error

func (f ActionFunc) Do(ctx context.Context, now time.Time) error { return f(ctx, now) }

type Config struct {
	Window     schedule.Window
	MinCommits int
	MaxCommits int

	// Rollover marks the day boundary; the loop re-reconciles at its next
	// firing so a stale schedule is always replaced.
	Rollover cron.Schedule

	RetryMax   int           // attempts per event
	RetryDelay time.Duration // between attempts

	// Liveness caps every wait so the loop wakes at least this often.
	Liveness time.Duration

	// CatchupSpacing paces events that are already overdue when a wake
	// processes them (late resume). Zero disables pacing.
	CatchupSpacing time.Duration
}

func (c Config) withDefaults() Config {
	if c.RetryMax <= 0 {
		c.RetryMax = 3
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = 5 * time.Second
	}
	if c.Liveness <= 0 {
		c.Liveness = time.Hour
	}
	if c.Rollover == nil {
		c.Rollover, _ = cron.ParseStandard("0 0 * * *")
	}
	return c
}

// Engine owns the single logical thread of control. It never runs two phases
// concurrently and holds only a transient copy of the schedule; the store is
// the source of truth.
type Engine struct {
	cfg Config
	log logx.Logger
	clk clock.Clock
	gen *schedule.Generator
	st  store.Store
	act Action

	limiter *rate.Limiter

	// onReady fires once, after the first successful reconcile
	// (systemd READY=1 hook); may be nil.
	onReady func()
}

func New(cfg Config, st store.Store, act Action, gen *schedule.Generator, clk clock.Clock, log logx.Logger) *Engine {
	cfg = cfg.withDefaults()
	if clk == nil {
		clk = clock.System()
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	e := &Engine{cfg: cfg, log: log, clk: clk, gen: gen, st: st, act: act}
	if cfg.CatchupSpacing > 0 {
		e.limiter = rate.NewLimiter(rate.Every(cfg.CatchupSpacing), 1)
	}
	return e
}

// SetReadyFunc installs the readiness hook.
func (e *Engine) SetReadyFunc(fn func()) { e.onReady = fn }

// sleep waits until the deadline or ctx cancellation. Returns false when
// canceled.
func (e *Engine) sleep(ctx context.Context, until time.Time) bool {
	d := until.Sub(e.clk.Now())
	t := e.clk.NewTimer(d)
	select {
	case <-ctx.Done():
		t.Stop()
		return false
	case <-t.C():
		return true
	}
}
