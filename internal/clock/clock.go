// Package clock abstracts wall-clock time so schedule math and the driver
// loop's waits can be tested against a fake clock instead of real time.
package clock

import "time"

// Clock supplies the current time and timed waits.
type Clock interface {
	Now() time.Time
	// NewTimer returns a timer that fires once after d. d <= 0 fires
	// immediately.
	NewTimer(d time.Duration) Timer
}

// Timer is the subset of time.Timer the engine needs.
type Timer interface {
	C() <-chan time.Time
	Stop() bool
}

// System returns a Clock backed by the real time package.
func System() Clock { return systemClock{} }

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) NewTimer(d time.Duration) Timer {
	if d < 0 {
		d = 0
	}
	return systemTimer{t: time.NewTimer(d)}
}

type systemTimer struct{ t *time.Timer }

func (t systemTimer) C() <-chan time.Time { return t.t.C }
func (t systemTimer) Stop() bool          { return t.t.Stop() }
