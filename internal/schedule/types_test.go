package schedule

import (
	"testing"
	"time"
)

func sampleDay() *Day {
	base := time.Date(2024, 6, 1, 10, 0, 0, 0, time.Local)
	return &Day{
		Date: "2024-06-01",
		Events: []Event{
			{At: base, Status: StatusDone},
			{At: base.Add(time.Hour), Status: StatusPending},
			{At: base.Add(2 * time.Hour), Status: StatusFailed},
			{At: base.Add(3 * time.Hour), Status: StatusPending},
		},
	}
}

func TestDueIndexes(t *testing.T) {
	t.Parallel()
	d := sampleDay()
	now := d.Events[1].At.Add(time.Minute)
	due := d.DueIndexes(now)
	if len(due) != 1 || due[0] != 1 {
		t.Fatalf("due = %v, want [1]", due)
	}

	// Done and Failed events are never due again.
	due = d.DueIndexes(d.Events[3].At)
	if len(due) != 2 || due[0] != 1 || due[1] != 3 {
		t.Fatalf("due = %v, want [1 3]", due)
	}
}

func TestFirstPending(t *testing.T) {
	t.Parallel()
	d := sampleDay()
	e, ok := d.FirstPending()
	if !ok || !e.At.Equal(d.Events[1].At) {
		t.Fatalf("FirstPending = %v, %v", e, ok)
	}

	d.Events[1].Status = StatusDone
	d.Events[3].Status = StatusFailed
	if _, ok := d.FirstPending(); ok {
		t.Fatal("expected no pending events")
	}
}

func TestSetStatusDoneIsTerminal(t *testing.T) {
	t.Parallel()
	d := sampleDay()
	if d.SetStatus(0, StatusFailed) {
		t.Fatal("Done event must not transition")
	}
	if d.Events[0].Status != StatusDone {
		t.Fatalf("status changed to %s", d.Events[0].Status)
	}
	if !d.SetStatus(1, StatusDone) {
		t.Fatal("Pending -> Done rejected")
	}
	if d.SetStatus(99, StatusDone) {
		t.Fatal("out-of-range index accepted")
	}
}
