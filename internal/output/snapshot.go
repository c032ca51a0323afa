package output

import (
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
)

// TimerView is one timer read from a remote snapshot.
type TimerView struct {
	Name     string        `json:"name" yaml:"name"`
	Count    int64         `json:"count" yaml:"count"`
	MeanRate float64       `json:"meanRate" yaml:"meanRate"`
	Rate1    float64       `json:"rate1" yaml:"rate1"`
	Rate5    float64       `json:"rate5" yaml:"rate5"`
	Rate15   float64       `json:"rate15" yaml:"rate15"`
	Min      time.Duration `json:"min" yaml:"min"`
	Max      time.Duration `json:"max" yaml:"max"`
	Mean     time.Duration `json:"mean" yaml:"mean"`
	StdDev   time.Duration `json:"stdDev" yaml:"stdDev"`
	P50      time.Duration `json:"p50" yaml:"p50"`
	P95      time.Duration `json:"p95" yaml:"p95"`
	P99      time.Duration `json:"p99" yaml:"p99"`
}

// HistogramView is one histogram read from a remote snapshot.
type HistogramView struct {
	Name   string  `json:"name" yaml:"name"`
	Count  int64   `json:"count" yaml:"count"`
	Min    int64   `json:"min" yaml:"min"`
	Max    int64   `json:"max" yaml:"max"`
	Mean   float64 `json:"mean" yaml:"mean"`
	StdDev float64 `json:"stdDev" yaml:"stdDev"`
	P50    int64   `json:"p50" yaml:"p50"`
	P95    int64   `json:"p95" yaml:"p95"`
	P99    int64   `json:"p99" yaml:"p99"`
}

// MeterView is one meter read from a remote snapshot.
type MeterView struct {
	Name     string  `json:"name" yaml:"name"`
	Count    int64   `json:"count" yaml:"count"`
	MeanRate float64 `json:"meanRate" yaml:"meanRate"`
	Rate1    float64 `json:"rate1" yaml:"rate1"`
	Rate5    float64 `json:"rate5" yaml:"rate5"`
	Rate15   float64 `json:"rate15" yaml:"rate15"`
}

// SnapshotView is a registry snapshot as served by the metrics endpoint,
// with every kind sorted by name.
type SnapshotView struct {
	Timestamp  time.Time       `json:"timestamp" yaml:"timestamp"`
	Timers     []TimerView     `json:"timers" yaml:"timers"`
	Histograms []HistogramView `json:"histograms" yaml:"histograms"`
	Meters     []MeterView     `json:"meters" yaml:"meters"`
}

// ParseSnapshot reads the JSON served by the metrics endpoint.
func ParseSnapshot(body []byte) (*SnapshotView, error) {
	if !gjson.ValidBytes(body) {
		return nil, errors.New("metrics snapshot is not valid JSON")
	}
	root := gjson.ParseBytes(body)
	if !root.IsObject() {
		return nil, errors.New("metrics snapshot is not a JSON object")
	}

	view := &SnapshotView{Timestamp: root.Get("timestamp").Time()}

	root.Get("timers").ForEach(func(key, value gjson.Result) bool {
		h := value.Get("histogram")
		rate := value.Get("rate")
		view.Timers = append(view.Timers, TimerView{
			Name:     key.String(),
			Count:    h.Get("count").Int(),
			MeanRate: rate.Get("mean_rate").Float(),
			Rate1:    rate.Get("m1_rate").Float(),
			Rate5:    rate.Get("m5_rate").Float(),
			Rate15:   rate.Get("m15_rate").Float(),
			Min:      time.Duration(h.Get("min").Int()),
			Max:      time.Duration(h.Get("max").Int()),
			Mean:     time.Duration(h.Get("mean").Float()),
			StdDev:   time.Duration(h.Get("stddev").Float()),
			P50:      time.Duration(h.Get("p50").Int()),
			P95:      time.Duration(h.Get("p95").Int()),
			P99:      time.Duration(h.Get("p99").Int()),
		})
		return true
	})

	root.Get("histograms").ForEach(func(key, value gjson.Result) bool {
		view.Histograms = append(view.Histograms, HistogramView{
			Name:   key.String(),
			Count:  value.Get("count").Int(),
			Min:    value.Get("min").Int(),
			Max:    value.Get("max").Int(),
			Mean:   value.Get("mean").Float(),
			StdDev: value.Get("stddev").Float(),
			P50:    value.Get("p50").Int(),
			P95:    value.Get("p95").Int(),
			P99:    value.Get("p99").Int(),
		})
		return true
	})

	root.Get("meters").ForEach(func(key, value gjson.Result) bool {
		view.Meters = append(view.Meters, MeterView{
			Name:     key.String(),
			Count:    value.Get("count").Int(),
			MeanRate: value.Get("mean_rate").Float(),
			Rate1:    value.Get("m1_rate").Float(),
			Rate5:    value.Get("m5_rate").Float(),
			Rate15:   value.Get("m15_rate").Float(),
		})
		return true
	})

	sort.Slice(view.Timers, func(i, j int) bool { return view.Timers[i].Name < view.Timers[j].Name })
	sort.Slice(view.Histograms, func(i, j int) bool { return view.Histograms[i].Name < view.Histograms[j].Name })
	sort.Slice(view.Meters, func(i, j int) bool { return view.Meters[i].Name < view.Meters[j].Name })
	return view, nil
}

// Filter keeps metrics named name or nested below it.
func (v *SnapshotView) Filter(name string) *SnapshotView {
	if name == "" {
		return v
	}
	match := func(n string) bool {
		return n == name || strings.HasPrefix(n, name+".")
	}

	out := &SnapshotView{Timestamp: v.Timestamp}
	for _, t := range v.Timers {
		if match(t.Name) {
			out.Timers = append(out.Timers, t)
		}
	}
	for _, h := range v.Histograms {
		if match(h.Name) {
			out.Histograms = append(out.Histograms, h)
		}
	}
	for _, m := range v.Meters {
		if match(m.Name) {
			out.Meters = append(out.Meters, m)
		}
	}
	return out
}

// Empty reports whether the view holds no metrics.
func (v *SnapshotView) Empty() bool {
	return len(v.Timers) == 0 && len(v.Histograms) == 0 && len(v.Meters) == 0
}
