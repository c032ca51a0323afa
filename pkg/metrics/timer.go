package metrics

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
)

// Timer captures the duration and rate of an operation. Durations are
// recorded in nanoseconds.
type Timer struct {
	mu        sync.Mutex // keeps meter and histogram in step for snapshots
	clock     Clock
	meter     *Meter
	histogram *Histogram
}

// TimerSnapshot is a point-in-time copy of a Timer.
type TimerSnapshot struct {
	Rate      MeterSnapshot     `json:"rate"`
	Histogram HistogramSnapshot `json:"histogram"`
}

// NewTimer creates a timer reading time from c.
func NewTimer(c Clock, reservoirSize int) *Timer {
	return newTimer(c, reservoirSize, DefaultTickInterval)
}

func newTimer(c Clock, reservoirSize int, interval time.Duration) *Timer {
	if c == nil {
		c = NewClock()
	}
	return &Timer{
		clock:     c,
		meter:     newMeter(c, interval),
		histogram: NewHistogram(reservoirSize),
	}
}

// Start begins timing one operation. The returned Stopwatch must be stopped
// exactly once.
func (t *Timer) Start() *Stopwatch {
	return &Stopwatch{timer: t, start: t.clock.Nanoseconds()}
}

// Update records an operation that took d. Negative durations count as 0.
func (t *Timer) Update(d time.Duration) {
	if d < 0 {
		d = 0
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.histogram.Update(int64(d))
	t.meter.Mark(1)
}

// Time records how long f takes.
func (t *Timer) Time(f func()) {
	sw := t.Start()
	defer sw.Stop()
	f()
}

// Measure records how long f takes and returns its error. The duration is
// recorded on every exit path; if f panics the panic continues after the
// sample is taken.
func (t *Timer) Measure(f func() error) error {
	sw := t.Start()
	defer sw.Stop()
	return f()
}

// Snapshot returns the rate and duration distribution as of now.
func (t *Timer) Snapshot() TimerSnapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return TimerSnapshot{
		Rate:      t.meter.Snapshot(),
		Histogram: t.histogram.Snapshot(),
	}
}

// Stopwatch is one in-flight timed operation.
type Stopwatch struct {
	timer   *Timer
	start   int64
	stopped atomic.Bool
}

// Stop records the time elapsed since Start and returns it. Stopping twice
// records nothing and returns ErrAlreadyStopped.
func (s *Stopwatch) Stop() (time.Duration, error) {
	if !s.stopped.CompareAndSwap(false, true) {
		return 0, errors.WithStack(ErrAlreadyStopped)
	}
	elapsed := time.Duration(s.timer.clock.Nanoseconds() - s.start)
	s.timer.Update(elapsed)
	return elapsed, nil
}

// Elapsed returns the time since Start without stopping.
func (s *Stopwatch) Elapsed() time.Duration {
	return time.Duration(s.timer.clock.Nanoseconds() - s.start)
}
