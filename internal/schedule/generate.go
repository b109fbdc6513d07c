package schedule

import (
	"errors"
	"math/rand/v2"
	"sort"
	"time"
)

var (
	ErrInvalidWindow = errors.New("schedule: window start must be before window end")
	ErrInvalidRange  = errors.New("schedule: invalid commit count range")
)

// Window is the daily time-of-day interval events may land in, expressed as
// offsets from local midnight. End is exclusive; no wraparound across
// midnight.
type Window struct {
	Start time.Duration
	End   time.Duration
}

func (w Window) Validate() error {
	if w.Start < 0 || w.End > 24*time.Hour || w.Start >= w.End {
		return ErrInvalidWindow
	}
	return nil
}

// Generator draws randomized day schedules. Not safe for concurrent use;
// the engine owns exactly one.
type Generator struct {
	rng *rand.Rand
}

// NewGenerator seeds a generator. Tests pass a fixed seed for determinism.
func NewGenerator(seed uint64) *Generator {
	return &Generator{rng: rand.New(rand.NewPCG(seed, seed<<32|0x9e37))}
}

// NewGeneratorFromTime seeds from the given moment (production path).
func NewGeneratorFromTime(t time.Time) *Generator {
	return NewGenerator(uint64(t.UnixNano()))
}

// Generate produces the schedule for day's calendar date: a uniformly drawn
// count in [minCount, maxCount], each timestamp uniform over
// [day+win.Start, day+win.End) at second granularity, de-duplicated, sorted
// ascending, all Pending.
//
// Collisions are re-drawn a bounded number of times; if the window is too
// small to hold the target count of distinct seconds, fewer events are
// accepted rather than looping forever.
func (g *Generator) Generate(day time.Time, win Window, minCount, maxCount int) (*Day, error) {
	if err := win.Validate(); err != nil {
		return nil, err
	}
	if minCount < 0 || maxCount < 0 || minCount > maxCount {
		return nil, ErrInvalidRange
	}

	midnight := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	totalSeconds := int64((win.End - win.Start) / time.Second)

	count := minCount
	if maxCount > minCount {
		count += g.rng.IntN(maxCount - minCount + 1)
	}
	if int64(count) > totalSeconds {
		count = int(totalSeconds)
	}

	d := &Day{Date: DateOf(midnight)}
	if count == 0 {
		return d, nil
	}

	seen := make(map[int64]struct{}, count)
	offsets := make([]int64, 0, count)
	// Collision chance is tiny for realistic windows; the cap only guards
	// pathological ones.
	maxAttempts := count*10 + 100
	for attempt := 0; len(offsets) < count && attempt < maxAttempts; attempt++ {
		off := g.rng.Int64N(totalSeconds)
		if _, dup := seen[off]; dup {
			continue
		}
		seen[off] = struct{}{}
		offsets = append(offsets, off)
	}
	sort.Slice(offsets, func(i, j int) bool { return offsets[i] < offsets[j] })

	for _, off := range offsets {
		d.Events = append(d.Events, Event{
			At:     midnight.Add(win.Start + time.Duration(off)*time.Second),
			Status: StatusPending,
		})
	}
	return d, nil
}
