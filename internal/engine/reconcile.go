package engine

import (
	"context"
	"time"

	logx "commitfarm/pkg/logx"

	"commitfarm/internal/schedule"
)

// Reconcile returns the authoritative schedule for now's calendar date.
//
// A persisted schedule for today is resumed verbatim, statuses included.
// Anything else (first run, stale date, corrupt state) is replaced by a fresh
// generation that is persisted before being returned.
func (e *Engine) Reconcile(ctx context.Context, now time.Time) (*schedule.Day, error) {
	today := schedule.DateOf(now)

	day, ok, err := e.st.Load(ctx)
	if err != nil {
		return nil, err
	}
	if ok && day.Date == today {
		pending, done, failed := day.Counts()
		e.log.Info("resuming schedule",
			logx.String("date", day.Date),
			logx.Int("pending", pending),
			logx.Int("done", done),
			logx.Int("failed", failed))
		return day, nil
	}

	if ok {
		e.log.Info("discarding stale schedule",
			logx.String("stored_date", day.Date), logx.String("today", today))
	}

	fresh, err := e.gen.Generate(now, e.cfg.Window, e.cfg.MinCommits, e.cfg.MaxCommits)
	if err != nil {
		return nil, err
	}
	if err := e.st.Save(ctx, fresh); err != nil {
		return nil, err
	}
	e.log.Info("new schedule generated",
		logx.String("date", fresh.Date),
		logx.Int("commits", len(fresh.Events)))
	return fresh, nil
}
