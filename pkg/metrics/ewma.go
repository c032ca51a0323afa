package metrics

import (
	"math"
	"time"
)

// DefaultTickInterval is how often meter rates are decayed.
const DefaultTickInterval = 5 * time.Second

// ewma is an exponentially weighted moving average of an event rate in
// events per second. Callers serialize access.
type ewma struct {
	alpha       float64
	interval    float64 // seconds
	rate        float64
	uncounted   int64
	initialized bool
}

// newEWMA returns an average over window, decayed once per interval.
func newEWMA(window, interval time.Duration) *ewma {
	return &ewma{
		alpha:    1 - math.Exp(-interval.Seconds()/window.Seconds()),
		interval: interval.Seconds(),
	}
}

func (e *ewma) update(n int64) {
	if e.uncounted > math.MaxInt64-n {
		e.uncounted = math.MaxInt64
		return
	}
	e.uncounted += n
}

// tick folds the uncounted events into the rate and applies one decay step.
func (e *ewma) tick() {
	instant := float64(e.uncounted) / e.interval
	e.uncounted = 0
	if e.initialized {
		e.rate += e.alpha * (instant - e.rate)
		return
	}
	e.rate = instant
	e.initialized = true
}

// decay applies k further ticks with no new events.
func (e *ewma) decay(k int64) {
	if k <= 0 || !e.initialized {
		return
	}
	e.rate *= math.Pow(1-e.alpha, float64(k))
}
