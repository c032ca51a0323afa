// Package server serves an instrumented module over HTTP together with a
// JSON snapshot of the metric registry.
//
// Routes:
//
//	<metricsPath>   GET  registry snapshot as JSON (?prefix= filters by name)
//	/               everything else goes to the module handler
//
// Every request passes through panic recovery and an access log.
package server
