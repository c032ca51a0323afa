package loadgen

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
)

// LeakyBucket paces request starts at a fixed rate.
//
// It keeps a virtual drip time that advances by 1/rate per request. Next
// returns when the next request should start; a time in the past means the
// caller is behind schedule and should start immediately. Accumulated slack
// is capped at one request so pacing never bursts.
//
// LeakyBucket is safe for concurrent use.
type LeakyBucket struct {
	clock       clock.Clock
	rate        float64
	lastDrip    time.Time
	accumulated float64
	mu          sync.Mutex

	scheduled atomic.Int64
	waited    atomic.Int64
}

// NewLeakyBucket creates a bucket releasing rate requests per second.
// A non-positive rate is treated as 1.
func NewLeakyBucket(rate float64, clk clock.Clock) *LeakyBucket {
	if rate <= 0 {
		rate = 1.0
	}
	if clk == nil {
		clk = clock.New()
	}
	return &LeakyBucket{
		clock:    clk,
		rate:     rate,
		lastDrip: clk.Now(),
		// The first request may start immediately.
		accumulated: 1.0,
	}
}

// Next reserves the next slot and returns its start time.
func (lb *LeakyBucket) Next() time.Time {
	lb.mu.Lock()
	defer lb.mu.Unlock()

	now := lb.clock.Now()
	interval := float64(time.Second) / lb.rate
	if elapsed := now.Sub(lb.lastDrip); elapsed > 0 {
		lb.accumulated += elapsed.Seconds() * lb.rate
		if lb.accumulated > 1.0 {
			lb.accumulated = 1.0
		}
	}
	lb.scheduled.Add(1)

	if lb.accumulated >= 1.0 {
		lb.accumulated -= 1.0
		lb.lastDrip = now
		return now
	}

	// Slots already handed out but not yet reached queue behind each other.
	base := now
	if lb.lastDrip.After(now) {
		base = lb.lastDrip
	}
	next := base.Add(time.Duration((1.0 - lb.accumulated) * interval))
	lb.accumulated = 0
	lb.lastDrip = next
	lb.waited.Add(int64(next.Sub(now)))
	return next
}

// Wait blocks until the next slot or until ctx is done.
func (lb *LeakyBucket) Wait(ctx context.Context) error {
	wait := lb.clock.Until(lb.Next())
	if wait <= 0 {
		return nil
	}

	timer := lb.clock.Timer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Rate returns the configured requests per second.
func (lb *LeakyBucket) Rate() float64 {
	lb.mu.Lock()
	defer lb.mu.Unlock()
	return lb.rate
}

// BucketStats describes how much pacing a bucket applied.
type BucketStats struct {
	Rate      float64       `json:"rate"`
	Scheduled int64         `json:"scheduled"`
	Waited    time.Duration `json:"waited"`
}

// Stats returns counters accumulated since creation.
func (lb *LeakyBucket) Stats() BucketStats {
	return BucketStats{
		Rate:      lb.Rate(),
		Scheduled: lb.scheduled.Load(),
		Waited:    time.Duration(lb.waited.Load()),
	}
}
