package metrics

import (
	"math"
	"slices"
	"sync"

	"github.com/pkg/errors"
)

// Histogram calculates distribution statistics from a stream of int64
// values.
//
// Count, Min, Max, Sum, Mean and StdDev are exact over every value ever
// recorded. Percentiles come from a fixed-size uniform reservoir, so memory
// stays bounded no matter how many values are recorded.
type Histogram struct {
	mu        sync.Mutex
	reservoir *uniformReservoir

	count int64
	min   int64
	max   int64
	sum   float64
	mean  float64
	m2    float64 // sum of squared deviations from the running mean
}

// HistogramSnapshot is a point-in-time copy of a Histogram.
type HistogramSnapshot struct {
	Count    int64   `json:"count"`
	Min      int64   `json:"min"`
	Max      int64   `json:"max"`
	Sum      float64 `json:"sum"`
	Mean     float64 `json:"mean"`
	StdDev   float64 `json:"stddev"`
	Variance float64 `json:"variance"`
	Median   int64   `json:"p50"`
	P75      int64   `json:"p75"`
	P95      int64   `json:"p95"`
	P98      int64   `json:"p98"`
	P99      int64   `json:"p99"`
	P999     int64   `json:"p999"`

	// Size is the number of samples held by the reservoir.
	Size int `json:"size"`

	// Values are the reservoir samples, sorted ascending.
	Values []int64 `json:"-"`
}

// NewHistogram creates a histogram retaining at most reservoirSize samples.
// A non-positive size selects DefaultReservoirSize.
func NewHistogram(reservoirSize int) *Histogram {
	return &Histogram{reservoir: newUniformReservoir(reservoirSize)}
}

// Update records one sample.
func (h *Histogram) Update(v int64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.count++
	if h.count == 1 || v < h.min {
		h.min = v
	}
	if h.count == 1 || v > h.max {
		h.max = v
	}

	// Welford's online update keeps mean and variance stable for large values.
	x := float64(v)
	h.sum += x
	delta := x - h.mean
	h.mean += delta / float64(h.count)
	h.m2 += delta * (x - h.mean)

	h.reservoir.update(v)
}

// UpdateFloat records a floating point sample rounded to the nearest
// integer. NaN, infinities and values outside the int64 range are rejected
// and leave the histogram untouched.
func (h *Histogram) UpdateFloat(v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return errors.Wrapf(ErrNonFinite, "histogram update %v", v)
	}
	r := math.Round(v)
	if r < math.MinInt64 || r >= math.MaxInt64 {
		return errors.Wrapf(ErrOutOfRange, "histogram update %v", v)
	}
	h.Update(int64(r))
	return nil
}

// Clear discards every recorded value.
func (h *Histogram) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.reservoir.reset()
	h.count, h.min, h.max = 0, 0, 0
	h.sum, h.mean, h.m2 = 0, 0, 0
}

// Snapshot returns the current statistics. An empty histogram yields an
// all-zero snapshot.
func (h *Histogram) Snapshot() HistogramSnapshot {
	h.mu.Lock()
	s := HistogramSnapshot{
		Count:  h.count,
		Min:    h.min,
		Max:    h.max,
		Sum:    h.sum,
		Mean:   h.mean,
		Values: h.reservoir.snapshot(),
	}
	m2 := h.m2
	h.mu.Unlock()

	if s.Count > 1 {
		s.Variance = math.Max(m2/float64(s.Count-1), 0)
		s.StdDev = math.Sqrt(s.Variance)
	}

	slices.Sort(s.Values)
	s.Size = len(s.Values)
	s.Median = s.Percentile(0.5)
	s.P75 = s.Percentile(0.75)
	s.P95 = s.Percentile(0.95)
	s.P98 = s.Percentile(0.98)
	s.P99 = s.Percentile(0.99)
	s.P999 = s.Percentile(0.999)
	return s
}

// Percentile returns the sample at quantile p (0..1) of the sorted
// reservoir, using the index ceil(p*n)-1 clamped to the valid range.
func (s HistogramSnapshot) Percentile(p float64) int64 {
	n := len(s.Values)
	if n == 0 {
		return 0
	}
	idx := int(math.Ceil(p*float64(n))) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= n {
		idx = n - 1
	}
	return s.Values[idx]
}
