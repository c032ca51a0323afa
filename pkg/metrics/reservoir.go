package metrics

import "math/rand/v2"

// DefaultReservoirSize is the number of samples a histogram retains for
// percentile estimation.
const DefaultReservoirSize = 1028

// uniformReservoir keeps a uniform random subset of an unbounded stream
// (Vitter's algorithm R). It is not safe for concurrent use; the owning
// Histogram serializes access.
type uniformReservoir struct {
	values []int64
	seen   int64
	rnd    *rand.Rand
}

func newUniformReservoir(size int) *uniformReservoir {
	if size <= 0 {
		size = DefaultReservoirSize
	}
	return &uniformReservoir{
		values: make([]int64, 0, size),
		rnd:    rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
}

func (r *uniformReservoir) update(v int64) {
	r.seen++
	if len(r.values) < cap(r.values) {
		r.values = append(r.values, v)
		return
	}
	if i := r.rnd.Int64N(r.seen); i < int64(len(r.values)) {
		r.values[i] = v
	}
}

// snapshot returns a copy of the retained samples in insertion slot order.
func (r *uniformReservoir) snapshot() []int64 {
	out := make([]int64, len(r.values))
	copy(out, r.values)
	return out
}

func (r *uniformReservoir) capacity() int {
	return cap(r.values)
}

func (r *uniformReservoir) reset() {
	r.values = r.values[:0]
	r.seen = 0
}
