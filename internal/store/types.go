package store

import (
	"context"
	"time"

	"commitfarm/internal/schedule"
)

// Store persists exactly one day schedule at a time. It is the sole writer of
// durable state; callers mutate schedules only through Save.
//
// Load reports ok=false when no state exists or when the persisted content
// does not parse (corrupt state is treated as absent, not fatal).
// Save replaces any previously persisted schedule in full and is atomic from
// a reader's perspective.
type Store interface {
	Load(ctx context.Context) (*schedule.Day, bool, error)
	Save(ctx context.Context, day *schedule.Day) error
	Close() error
}

// Config configures persistence.
//
// Driver values:
//   - "file": JSON state file, written via tmp+rename (default)
//   - "sqlite": SQLite database file
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default
}

// persistedDay is the on-disk schema: {date, [{timestamp, status}]}.
type persistedDay struct {
	Date   string           `json:"date"`
	Events []persistedEvent `json:"events"`
}

type persistedEvent struct {
	At     string `json:"at"` // RFC3339
	Status string `json:"status"`
}

func toPersisted(d *schedule.Day) persistedDay {
	p := persistedDay{Date: d.Date, Events: make([]persistedEvent, 0, len(d.Events))}
	for _, e := range d.Events {
		p.Events = append(p.Events, persistedEvent{
			At:     e.At.Format(time.RFC3339),
			Status: string(e.Status),
		})
	}
	return p
}

// fromPersisted rebuilds the in-memory schedule. Any malformed timestamp or
// unknown status marks the whole state corrupt.
func fromPersisted(p persistedDay) (*schedule.Day, bool) {
	if p.Date == "" {
		return nil, false
	}
	if _, err := time.Parse(schedule.DateLayout, p.Date); err != nil {
		return nil, false
	}
	d := &schedule.Day{Date: p.Date}
	var prev time.Time
	for i, pe := range p.Events {
		at, err := time.Parse(time.RFC3339, pe.At)
		if err != nil {
			return nil, false
		}
		st := schedule.Status(pe.Status)
		if !st.Valid() {
			return nil, false
		}
		if i > 0 && !at.After(prev) {
			return nil, false
		}
		prev = at
		d.Events = append(d.Events, schedule.Event{At: at, Status: st})
	}
	return d, true
}
