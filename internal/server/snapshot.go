package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/wesleyorama2/routemeter/pkg/metrics"
)

// SnapshotHandler serves the registry snapshot as JSON. The optional
// prefix query parameter keeps only metrics whose name starts with it.
func SnapshotHandler(registry *metrics.Registry) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		snap := registry.Snapshot()
		if prefix := r.URL.Query().Get("prefix"); prefix != "" {
			snap = filterSnapshot(snap, prefix)
		}

		w.Header().Set("Content-Type", "application/json")
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(snap); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})
}

func filterSnapshot(s metrics.Snapshot, prefix string) metrics.Snapshot {
	out := metrics.Snapshot{
		Timestamp:  s.Timestamp,
		Timers:     make(map[string]metrics.TimerSnapshot),
		Histograms: make(map[string]metrics.HistogramSnapshot),
		Meters:     make(map[string]metrics.MeterSnapshot),
	}
	for name, t := range s.Timers {
		if strings.HasPrefix(name, prefix) {
			out.Timers[name] = t
		}
	}
	for name, h := range s.Histograms {
		if strings.HasPrefix(name, prefix) {
			out.Histograms[name] = h
		}
	}
	for name, m := range s.Meters {
		if strings.HasPrefix(name, prefix) {
			out.Meters[name] = m
		}
	}
	return out
}
