package metrics

import (
	"time"

	"github.com/benbjohnson/clock"
)

// Clock is the time source used by meters and timers.
//
// Nanoseconds is monotonic and counts from an arbitrary epoch fixed when the
// clock was created; only differences between readings are meaningful. Now
// returns the wall-clock time. Readings from one Clock never decrease.
type Clock interface {
	Nanoseconds() int64
	Now() time.Time
}

type clockSource struct {
	clk   clock.Clock
	epoch time.Time
}

func newClockSource(clk clock.Clock) clockSource {
	return clockSource{clk: clk, epoch: clk.Now()}
}

// Nanoseconds returns the nanoseconds elapsed since the clock was created.
func (c clockSource) Nanoseconds() int64 {
	return int64(c.clk.Since(c.epoch))
}

// Now returns the current wall-clock time.
func (c clockSource) Now() time.Time {
	return c.clk.Now()
}

// NewClock returns a Clock backed by the system clock. Nanoseconds uses the
// monotonic clock reading, so wall-clock adjustments do not affect it.
func NewClock() Clock {
	return newClockSource(clock.New())
}

// ManualClock is a Clock that only moves when Advance is called.
//
// It is meant for tests:
//
//	clk := metrics.NewManualClock()
//	sw := timer.Start()
//	clk.Advance(100 * time.Millisecond)
//	sw.Stop() // records exactly 100ms
type ManualClock struct {
	clockSource
	mock *clock.Mock
}

// NewManualClock returns a ManualClock whose Nanoseconds reading starts at 0.
func NewManualClock() *ManualClock {
	mock := clock.NewMock()
	return &ManualClock{
		clockSource: newClockSource(mock),
		mock:        mock,
	}
}

// Advance moves both readings forward by exactly d. Non-positive durations
// are ignored so the clock stays monotonic.
func (m *ManualClock) Advance(d time.Duration) {
	if d <= 0 {
		return
	}
	m.mock.Add(d)
}
