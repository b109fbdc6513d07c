package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	logx "commitfarm/pkg/logx"

	"commitfarm/internal/schedule"
)

func testSchedule() *schedule.Day {
	base := time.Date(2024, 6, 1, 10, 0, 0, 0, time.Local)
	return &schedule.Day{
		Date: "2024-06-01",
		Events: []schedule.Event{
			{At: base, Status: schedule.StatusDone},
			{At: base.Add(90 * time.Minute), Status: schedule.StatusPending},
			{At: base.Add(5 * time.Hour), Status: schedule.StatusFailed},
		},
	}
}

func openFileStore(t *testing.T) (Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "state.json")
	st, err := Open(Config{Driver: "file", Path: path}, logx.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st, path
}

func TestFileLoadAbsent(t *testing.T) {
	t.Parallel()
	st, _ := openFileStore(t)
	d, ok, err := st.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if ok || d != nil {
		t.Fatalf("expected absent state, got %+v", d)
	}
}

func TestFileRoundTrip(t *testing.T) {
	t.Parallel()
	st, _ := openFileStore(t)
	ctx := context.Background()

	want := testSchedule()
	if err := st.Save(ctx, want); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, ok, err := st.Load(ctx)
	if err != nil || !ok {
		t.Fatalf("Load: ok=%v err=%v", ok, err)
	}
	if got.Date != want.Date {
		t.Fatalf("date = %q, want %q", got.Date, want.Date)
	}
	if len(got.Events) != len(want.Events) {
		t.Fatalf("events = %d, want %d", len(got.Events), len(want.Events))
	}
	for i := range want.Events {
		if !got.Events[i].At.Equal(want.Events[i].At) {
			t.Fatalf("event %d time %v, want %v", i, got.Events[i].At, want.Events[i].At)
		}
		if got.Events[i].Status != want.Events[i].Status {
			t.Fatalf("event %d status %s, want %s", i, got.Events[i].Status, want.Events[i].Status)
		}
	}
}

func TestFileSaveReplacesWholesale(t *testing.T) {
	t.Parallel()
	st, _ := openFileStore(t)
	ctx := context.Background()

	if err := st.Save(ctx, testSchedule()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	next := &schedule.Day{
		Date: "2024-06-02",
		Events: []schedule.Event{
			{At: time.Date(2024, 6, 2, 11, 0, 0, 0, time.Local), Status: schedule.StatusPending},
		},
	}
	if err := st.Save(ctx, next); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, ok, err := st.Load(ctx)
	if err != nil || !ok {
		t.Fatalf("Load: ok=%v err=%v", ok, err)
	}
	if got.Date != "2024-06-02" || len(got.Events) != 1 {
		t.Fatalf("old state leaked through: %+v", got)
	}
}

func TestFileCorruptTreatedAsAbsent(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		content string
	}{
		{name: "not json", content: "{{{ nope"},
		{name: "bad status", content: `{"date":"2024-06-01","events":[{"at":"2024-06-01T10:00:00Z","status":"exploded"}]}`},
		{name: "bad timestamp", content: `{"date":"2024-06-01","events":[{"at":"yesterday","status":"pending"}]}`},
		{name: "bad date", content: `{"date":"June 1st","events":[]}`},
		{name: "unordered events", content: `{"date":"2024-06-01","events":[` +
			`{"at":"2024-06-01T12:00:00Z","status":"pending"},` +
			`{"at":"2024-06-01T10:00:00Z","status":"pending"}]}`},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			st, path := openFileStore(t)
			if err := os.WriteFile(path, []byte(tt.content), 0o600); err != nil {
				t.Fatalf("write: %v", err)
			}
			d, ok, err := st.Load(context.Background())
			if err != nil {
				t.Fatalf("Load must not fail on corrupt state: %v", err)
			}
			if ok || d != nil {
				t.Fatalf("corrupt state not treated as absent: %+v", d)
			}
			// The next Save must overwrite the corrupt file cleanly.
			if err := st.Save(context.Background(), testSchedule()); err != nil {
				t.Fatalf("Save over corrupt file: %v", err)
			}
			if _, ok, _ := st.Load(context.Background()); !ok {
				t.Fatal("state unreadable after overwriting corrupt file")
			}
		})
	}
}

func TestFileSaveLeavesNoTempFile(t *testing.T) {
	t.Parallel()
	st, path := openFileStore(t)
	if err := st.Save(context.Background(), testSchedule()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("temp file left behind: %v", err)
	}
}
