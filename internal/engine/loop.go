package engine

import (
	"context"
	"time"

	logx "commitfarm/pkg/logx"

	"commitfarm/internal/schedule"
)

// Loop states. The loop starts Idle, reconciles once, then alternates
// between Waiting and Executing until ctx is canceled; a wake caused by the
// day rollover goes back through Reconciling.
type state int

const (
	stateIdle state = iota
	stateReconciling
	stateWaiting
	stateExecuting
)

// reconcileRetryDelay spaces reconcile attempts after a storage error.
const reconcileRetryDelay = 30 * time.Second

// Run executes the driver loop until ctx is canceled. The first reconcile
// must succeed before Run settles into the loop; its error is returned so
// startup failures exit non-zero.
func (e *Engine) Run(ctx context.Context) error {
	var (
		day      *schedule.Day
		rollover time.Time
	)

	st := stateIdle
	for {
		if ctx.Err() != nil {
			return nil
		}
		switch st {
		case stateIdle:
			st = stateReconciling

		case stateReconciling:
			now := e.clk.Now()
			d, err := e.Reconcile(ctx, now)
			if err != nil {
				if day == nil {
					// Startup: nothing to fall back to.
					return err
				}
				e.log.Error("reconcile failed; retrying", logx.Err(err))
				if !e.sleep(ctx, now.Add(reconcileRetryDelay)) {
					return nil
				}
				continue
			}
			day = d
			rollover = e.cfg.Rollover.Next(now)
			if e.onReady != nil {
				e.onReady()
				e.onReady = nil
			}
			st = stateWaiting

		case stateWaiting:
			now := e.clk.Now()
			wake := e.NextWake(day, now, rollover)
			e.log.Debug("waiting",
				logx.Time("wake", wake),
				logx.Duration("in", wake.Sub(now)))
			if !e.sleep(ctx, wake) {
				return nil
			}
			now = e.clk.Now()
			// Rollover (or a suspend that carried us past it) always
			// re-derives "today" from the clock.
			if !now.Before(rollover) || schedule.DateOf(now) != day.Date {
				st = stateReconciling
				continue
			}
			st = stateExecuting

		case stateExecuting:
			if err := e.ExecuteDue(ctx, day, e.clk.Now()); err != nil && ctx.Err() == nil {
				e.log.Error("execution pass aborted", logx.Err(err))
				// Back off instead of hot-spinning on a persistent
				// storage error (the event is still Pending and due).
				if !e.sleep(ctx, e.clk.Now().Add(reconcileRetryDelay)) {
					return nil
				}
			}
			st = stateWaiting
		}
	}
}

// NextWake computes the next actionable moment: the earliest of the first
// Pending event (possibly already overdue), the day rollover, and the
// liveness ceiling. An overdue event yields a wake in the past, which the
// timed wait treats as "now".
func (e *Engine) NextWake(day *schedule.Day, now, rollover time.Time) time.Time {
	wake := now.Add(e.cfg.Liveness)
	if rollover.Before(wake) {
		wake = rollover
	}
	if next, ok := day.FirstPending(); ok && next.At.Before(wake) {
		wake = next.At
	}
	return wake
}
