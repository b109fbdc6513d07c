package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	logx "commitfarm/pkg/logx"

	"commitfarm/internal/schedule"
)

func openSQLiteStore(t *testing.T) Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "state.db")
	st, err := Open(Config{Driver: "sqlite", Path: path, BusyTimeout: time.Second}, logx.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestSQLiteLoadAbsent(t *testing.T) {
	t.Parallel()
	st := openSQLiteStore(t)
	_, ok, err := st.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if ok {
		t.Fatal("expected absent state on fresh database")
	}
}

func TestSQLiteRoundTripAndReplace(t *testing.T) {
	t.Parallel()
	st := openSQLiteStore(t)
	ctx := context.Background()

	want := testSchedule()
	if err := st.Save(ctx, want); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, ok, err := st.Load(ctx)
	if err != nil || !ok {
		t.Fatalf("Load: ok=%v err=%v", ok, err)
	}
	if got.Date != want.Date || len(got.Events) != len(want.Events) {
		t.Fatalf("round trip mismatch: %+v", got)
	}
	for i := range want.Events {
		if !got.Events[i].At.Equal(want.Events[i].At) || got.Events[i].Status != want.Events[i].Status {
			t.Fatalf("event %d mismatch: %+v vs %+v", i, got.Events[i], want.Events[i])
		}
	}

	// Saving a different day replaces everything, including event rows.
	next := &schedule.Day{
		Date: "2024-06-02",
		Events: []schedule.Event{
			{At: time.Date(2024, 6, 2, 12, 30, 0, 0, time.Local), Status: schedule.StatusPending},
		},
	}
	if err := st.Save(ctx, next); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, ok, err = st.Load(ctx)
	if err != nil || !ok {
		t.Fatalf("Load: ok=%v err=%v", ok, err)
	}
	if got.Date != "2024-06-02" || len(got.Events) != 1 {
		t.Fatalf("replace leaked old rows: %+v", got)
	}
}

func TestSQLiteStatusTransitionPersists(t *testing.T) {
	t.Parallel()
	st := openSQLiteStore(t)
	ctx := context.Background()

	d := testSchedule()
	if err := st.Save(ctx, d); err != nil {
		t.Fatalf("Save: %v", err)
	}
	d.SetStatus(1, schedule.StatusDone)
	if err := st.Save(ctx, d); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, ok, err := st.Load(ctx)
	if err != nil || !ok {
		t.Fatalf("Load: ok=%v err=%v", ok, err)
	}
	if got.Events[1].Status != schedule.StatusDone {
		t.Fatalf("status not persisted: %s", got.Events[1].Status)
	}
}
