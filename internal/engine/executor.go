package engine

import (
	"context"
	"time"

	logx "commitfarm/pkg/logx"

	"commitfarm/internal/schedule"
)

// ExecuteDue runs every Pending event with timestamp <= now, in order,
// mutating day in place and persisting after every status transition.
//
// A single event exhausting its retries becomes Failed and the loop moves on;
// only a failed Save (disk full, permissions) stops the pass, leaving the
// event Pending so the next wake retries it.
func (e *Engine) ExecuteDue(ctx context.Context, day *schedule.Day, now time.Time) error {
	for _, i := range day.DueIndexes(now) {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		// Pace catch-up bursts (several overdue events after a late
		// resume) so we don't machine-gun the remote.
		if e.limiter != nil {
			if err := e.limiter.Wait(ctx); err != nil {
				return err
			}
		}

		status := e.runEvent(ctx, day.Events[i].At)
		if status == schedule.StatusPending {
			// canceled mid-retry; leave it for the next run
			return ctx.Err()
		}
		prev := day.Events[i].Status
		day.SetStatus(i, status)
		if err := e.st.Save(ctx, day); err != nil {
			// Roll back directly: SetStatus treats Done as terminal, but
			// here the transition was never persisted, so memory must
			// rejoin the disk state or the event is silently dropped.
			day.Events[i].Status = prev
			e.log.Error("state save failed; event stays pending",
				logx.Time("event", day.Events[i].At), logx.Err(err))
			return err
		}
	}
	return nil
}

// runEvent performs the commit action with bounded retries. Returns Done,
// Failed, or Pending when canceled before a verdict.
//
// The action is persisted as Done only after it returns; a crash in between
// re-attempts the event on resume, which can produce a duplicate commit.
// That window is one Save call and is accepted rather than hidden.
func (e *Engine) runEvent(ctx context.Context, at time.Time) schedule.Status {
	var err error
	for attempt := 1; attempt <= e.cfg.RetryMax; attempt++ {
		err = e.act.Do(ctx, e.clk.Now())
		if err == nil {
			e.log.Info("commit event done",
				logx.Time("event", at), logx.Int("attempt", attempt))
			return schedule.StatusDone
		}
		if ctx.Err() != nil {
			return schedule.StatusPending
		}
		if attempt < e.cfg.RetryMax {
			e.log.Warn("commit attempt failed; retrying",
				logx.Time("event", at),
				logx.Int("attempt", attempt),
				logx.Duration("delay", e.cfg.RetryDelay),
				logx.Err(err))
			if !e.sleep(ctx, e.clk.Now().Add(e.cfg.RetryDelay)) {
				return schedule.StatusPending
			}
		}
	}
	e.log.Error("commit event failed permanently",
		logx.Time("event", at),
		logx.Int("attempts", e.cfg.RetryMax),
		logx.Err(err))
	return schedule.StatusFailed
}
