package loadgen

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

const (
	// Latencies are recorded in microseconds between 1µs and one hour with
	// three significant figures.
	histogramMin     = 1
	histogramMax     = int64(time.Hour / time.Microsecond)
	histogramSigFigs = 3
)

// LatencySummary is the client-side latency distribution of a run.
type LatencySummary struct {
	Min    time.Duration `json:"min"`
	Max    time.Duration `json:"max"`
	Mean   time.Duration `json:"mean"`
	StdDev time.Duration `json:"stdDev"`
	P50    time.Duration `json:"p50"`
	P90    time.Duration `json:"p90"`
	P95    time.Duration `json:"p95"`
	P99    time.Duration `json:"p99"`
}

// recorder aggregates request outcomes. RecordValue on an HDR histogram is
// not safe for concurrent use, so the histogram sits behind a mutex while
// the counters are atomic.
type recorder struct {
	latency   *hdrhistogram.Histogram
	latencyMu sync.Mutex

	total     atomic.Int64
	succeeded atomic.Int64
	failed    atomic.Int64
	bytes     atomic.Int64

	statusMu sync.Mutex
	status   map[int]int64
	errors   map[string]int64
}

func newRecorder() *recorder {
	return &recorder{
		latency: hdrhistogram.New(histogramMin, histogramMax, histogramSigFigs),
		status:  make(map[int]int64),
		errors:  make(map[string]int64),
	}
}

func (r *recorder) recordResponse(d time.Duration, status int, size int64, success bool) {
	r.recordLatency(d)
	r.total.Add(1)
	r.bytes.Add(size)
	if success {
		r.succeeded.Add(1)
	} else {
		r.failed.Add(1)
	}

	r.statusMu.Lock()
	r.status[status]++
	r.statusMu.Unlock()
}

func (r *recorder) recordError(d time.Duration, err error) {
	r.recordLatency(d)
	r.total.Add(1)
	r.failed.Add(1)

	r.statusMu.Lock()
	r.errors[err.Error()]++
	r.statusMu.Unlock()
}

func (r *recorder) recordLatency(d time.Duration) {
	micros := d.Microseconds()
	if micros < histogramMin {
		micros = histogramMin
	}
	if micros > histogramMax {
		micros = histogramMax
	}

	r.latencyMu.Lock()
	_ = r.latency.RecordValue(micros)
	r.latencyMu.Unlock()
}

func (r *recorder) summary() LatencySummary {
	r.latencyMu.Lock()
	defer r.latencyMu.Unlock()

	if r.latency.TotalCount() == 0 {
		return LatencySummary{}
	}
	return LatencySummary{
		Min:    time.Duration(r.latency.Min()) * time.Microsecond,
		Max:    time.Duration(r.latency.Max()) * time.Microsecond,
		Mean:   time.Duration(r.latency.Mean()) * time.Microsecond,
		StdDev: time.Duration(r.latency.StdDev()) * time.Microsecond,
		P50:    time.Duration(r.latency.ValueAtQuantile(50)) * time.Microsecond,
		P90:    time.Duration(r.latency.ValueAtQuantile(90)) * time.Microsecond,
		P95:    time.Duration(r.latency.ValueAtQuantile(95)) * time.Microsecond,
		P99:    time.Duration(r.latency.ValueAtQuantile(99)) * time.Microsecond,
	}
}

func (r *recorder) counts() (map[int]int64, map[string]int64) {
	r.statusMu.Lock()
	defer r.statusMu.Unlock()

	status := make(map[int]int64, len(r.status))
	for k, v := range r.status {
		status[k] = v
	}
	errs := make(map[string]int64, len(r.errors))
	for k, v := range r.errors {
		errs[k] = v
	}
	return status, errs
}
