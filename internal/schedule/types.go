// Package schedule holds the day-schedule model and its randomized generator.
package schedule

import "time"

// DateLayout is the calendar-date key used everywhere a schedule is compared
// or persisted.
const DateLayout = "2006-01-02"

// DateOf returns t's calendar date in t's location.
func DateOf(t time.Time) string { return t.Format(DateLayout) }

// Status is the lifecycle state of one scheduled event.
type Status string

const (
	StatusPending Status = "pending"
	StatusDone    Status = "done"
	StatusFailed  Status = "failed"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusDone, StatusFailed:
		return true
	}
	return false
}

// Event is one planned commit with its absolute fire time.
type Event struct {
	At     time.Time
	Status Status
}

// Day is the schedule for a single calendar date. Events are strictly
// increasing by timestamp and unique.
type Day struct {
	Date   string
	Events []Event
}

// FirstPending returns the earliest Pending event, if any. Its timestamp may
// already be in the past; overdue events are executed on the next wake.
func (d *Day) FirstPending() (Event, bool) {
	for _, e := range d.Events {
		if e.Status == StatusPending {
			return e, true
		}
	}
	return Event{}, false
}

// DueIndexes returns indexes of Pending events with At <= now, in order.
func (d *Day) DueIndexes(now time.Time) []int {
	var due []int
	for i, e := range d.Events {
		if e.Status == StatusPending && !e.At.After(now) {
			due = append(due, i)
		}
	}
	return due
}

// SetStatus transitions the event at index i. Done is terminal.
func (d *Day) SetStatus(i int, s Status) bool {
	if i < 0 || i >= len(d.Events) {
		return false
	}
	if d.Events[i].Status == StatusDone {
		return false
	}
	d.Events[i].Status = s
	return true
}

// Counts reports how many events are in each state.
func (d *Day) Counts() (pending, done, failed int) {
	for _, e := range d.Events {
		switch e.Status {
		case StatusDone:
			done++
		case StatusFailed:
			failed++
		default:
			pending++
		}
	}
	return
}
