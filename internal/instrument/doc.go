// Package instrument binds metrics to HTTP handlers.
//
// A Binding wraps a handler with an explicit registration call instead of
// patching it at runtime:
//
//	b := instrument.New(ctx, instrument.WithLogger(logger))
//	h, err := b.RequestTimeAndResponseSize("Get Users", usersHandler)
//
// The wrapped handler starts a timer before calling the inner handler and
// stops it on every exit path, panics included. Payload sizes are recorded
// into histograms after the inner handler returns.
package instrument
