package schedule

import (
	"errors"
	"testing"
	"time"
)

var testWindow = Window{Start: 10 * time.Hour, End: 22 * time.Hour}

func testDay() time.Time {
	return time.Date(2024, 6, 1, 0, 0, 0, 0, time.Local)
}

func TestGenerateCountWithinRange(t *testing.T) {
	t.Parallel()
	for seed := uint64(1); seed <= 50; seed++ {
		g := NewGenerator(seed)
		d, err := g.Generate(testDay(), testWindow, 5, 12)
		if err != nil {
			t.Fatalf("Generate: %v", err)
		}
		if n := len(d.Events); n < 5 || n > 12 {
			t.Fatalf("seed %d: count %d outside [5,12]", seed, n)
		}
	}
}

func TestGenerateEventsInWindowSortedUnique(t *testing.T) {
	t.Parallel()
	g := NewGenerator(7)
	d, err := g.Generate(testDay(), testWindow, 20, 20)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	start := testDay().Add(testWindow.Start)
	end := testDay().Add(testWindow.End)
	for i, e := range d.Events {
		if e.Status != StatusPending {
			t.Fatalf("event %d not pending: %s", i, e.Status)
		}
		if e.At.Before(start) || !e.At.Before(end) {
			t.Fatalf("event %d outside window: %v", i, e.At)
		}
		if i > 0 && !d.Events[i-1].At.Before(e.At) {
			t.Fatalf("events not strictly increasing at %d: %v >= %v", i, d.Events[i-1].At, e.At)
		}
	}
	if d.Date != "2024-06-01" {
		t.Fatalf("unexpected date %q", d.Date)
	}
}

func TestGenerateValidation(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		win      Window
		min, max int
		want     error
	}{
		{name: "start after end", win: Window{Start: 22 * time.Hour, End: 10 * time.Hour}, min: 1, max: 2, want: ErrInvalidWindow},
		{name: "start equals end", win: Window{Start: 10 * time.Hour, End: 10 * time.Hour}, min: 1, max: 2, want: ErrInvalidWindow},
		{name: "end past midnight", win: Window{Start: 10 * time.Hour, End: 25 * time.Hour}, min: 1, max: 2, want: ErrInvalidWindow},
		{name: "min above max", win: testWindow, min: 5, max: 2, want: ErrInvalidRange},
		{name: "negative min", win: testWindow, min: -1, max: 2, want: ErrInvalidRange},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			g := NewGenerator(1)
			if _, err := g.Generate(testDay(), tt.win, tt.min, tt.max); !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestGenerateZeroCount(t *testing.T) {
	t.Parallel()
	g := NewGenerator(3)
	d, err := g.Generate(testDay(), testWindow, 0, 0)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(d.Events) != 0 {
		t.Fatalf("expected empty schedule, got %d events", len(d.Events))
	}
}

func TestGenerateClampsToTinyWindow(t *testing.T) {
	t.Parallel()
	g := NewGenerator(9)
	win := Window{Start: 10 * time.Hour, End: 10*time.Hour + 3*time.Second}
	d, err := g.Generate(testDay(), win, 10, 10)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	// Three distinct seconds fit at most three events.
	if len(d.Events) > 3 {
		t.Fatalf("expected at most 3 events, got %d", len(d.Events))
	}
	if len(d.Events) == 0 {
		t.Fatal("expected at least one event")
	}
}

func TestGenerateDeterministicForSeed(t *testing.T) {
	t.Parallel()
	a, err := NewGenerator(42).Generate(testDay(), testWindow, 5, 12)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	b, err := NewGenerator(42).Generate(testDay(), testWindow, 5, 12)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(a.Events) != len(b.Events) {
		t.Fatalf("counts differ: %d vs %d", len(a.Events), len(b.Events))
	}
	for i := range a.Events {
		if !a.Events[i].At.Equal(b.Events[i].At) {
			t.Fatalf("event %d differs: %v vs %v", i, a.Events[i].At, b.Events[i].At)
		}
	}
}
