package metrics

import (
	"math"
	"sync"
	"time"
)

// Meter counts events and tracks their rate.
//
// Rates are ticked lazily: every Mark and Snapshot checks how many whole tick
// intervals have passed on the Clock since the last tick and applies that
// many decay steps, so no background goroutine is needed.
type Meter struct {
	mu       sync.Mutex
	clock    Clock
	interval int64 // nanoseconds

	count     int64
	startTime int64
	lastTick  int64

	m1, m5, m15 *ewma
}

// MeterSnapshot is a point-in-time copy of a Meter. Rates are events per
// second.
type MeterSnapshot struct {
	Count    int64   `json:"count"`
	MeanRate float64 `json:"mean_rate"`
	Rate1    float64 `json:"m1_rate"`
	Rate5    float64 `json:"m5_rate"`
	Rate15   float64 `json:"m15_rate"`
}

// NewMeter creates a meter ticking every DefaultTickInterval.
func NewMeter(c Clock) *Meter {
	return newMeter(c, DefaultTickInterval)
}

func newMeter(c Clock, interval time.Duration) *Meter {
	if c == nil {
		c = NewClock()
	}
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	now := c.Nanoseconds()
	return &Meter{
		clock:     c,
		interval:  int64(interval),
		startTime: now,
		lastTick:  now,
		m1:        newEWMA(time.Minute, interval),
		m5:        newEWMA(5*time.Minute, interval),
		m15:       newEWMA(15*time.Minute, interval),
	}
}

// Mark records n events. n is capped at math.MaxInt64, and the count
// saturates there instead of wrapping.
func (m *Meter) Mark(n uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.tickIfNecessary()
	events := int64(math.MaxInt64)
	if n < math.MaxInt64 {
		events = int64(n)
	}
	if m.count > math.MaxInt64-events {
		m.count = math.MaxInt64
	} else {
		m.count += events
	}
	m.m1.update(events)
	m.m5.update(events)
	m.m15.update(events)
}

// Snapshot returns the count and rates as of now.
func (m *Meter) Snapshot() MeterSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.tickIfNecessary()
	s := MeterSnapshot{
		Count:  m.count,
		Rate1:  m.m1.rate,
		Rate5:  m.m5.rate,
		Rate15: m.m15.rate,
	}
	if elapsed := m.clock.Nanoseconds() - m.startTime; elapsed > 0 {
		s.MeanRate = float64(m.count) / time.Duration(elapsed).Seconds()
	}
	return s
}

// tickIfNecessary must be called with mu held.
func (m *Meter) tickIfNecessary() {
	now := m.clock.Nanoseconds()
	age := now - m.lastTick
	if age < m.interval {
		return
	}
	ticks := age / m.interval
	m.lastTick += ticks * m.interval
	for _, e := range []*ewma{m.m1, m.m5, m.m15} {
		e.tick()
		e.decay(ticks - 1)
	}
}
