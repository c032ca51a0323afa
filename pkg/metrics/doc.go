// Package metrics provides the in-process metrics core used to instrument
// request handling: timers, histograms and meters kept in a registry keyed
// by composite names.
//
// # Instruments
//
//   - Histogram: bounded-memory distribution of int64 samples. Count, min,
//     max, mean and standard deviation cover the whole stream; percentiles
//     are computed from a uniform reservoir.
//   - Meter: event count plus 1, 5 and 15 minute exponentially weighted
//     moving rates, ticked lazily from the clock.
//   - Timer: a Meter of completed operations and a Histogram of their
//     durations in nanoseconds.
//
// All instruments read time through a Clock so tests can drive them with a
// ManualClock and assert exact durations.
//
// # Example
//
//	reg := metrics.NewRegistry()
//	timer, err := reg.Timer("api.users.get")
//	if err != nil {
//	    return err
//	}
//	err = timer.Measure(func() error {
//	    return handle()
//	})
//
// # Thread Safety
//
// Every instrument guards its own state with a mutex; snapshots are taken
// under the same lock and never observe a partially applied update. The
// Registry is safe for concurrent create-or-get.
package metrics
