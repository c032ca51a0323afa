package metrics

import (
	"sync"
	"time"

	"github.com/pkg/errors"
)

// Config configures the instruments a Registry creates.
type Config struct {
	// Clock drives meters and timers (default: system clock)
	Clock Clock

	// ReservoirSize is the sample count kept per histogram (default: 1028)
	ReservoirSize int

	// TickInterval is the meter decay interval (default: 5s)
	TickInterval time.Duration
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Clock:         NewClock(),
		ReservoirSize: DefaultReservoirSize,
		TickInterval:  DefaultTickInterval,
	}
}

// Validate fills unset fields with defaults and rejects negative values.
func (c *Config) Validate() error {
	if c.ReservoirSize < 0 {
		return errors.Wrapf(ErrInvalidConfig, "reservoir size %d must not be negative", c.ReservoirSize)
	}
	if c.TickInterval < 0 {
		return errors.Wrapf(ErrInvalidConfig, "tick interval %s must not be negative", c.TickInterval)
	}
	if c.Clock == nil {
		c.Clock = NewClock()
	}
	if c.ReservoirSize == 0 {
		c.ReservoirSize = DefaultReservoirSize
	}
	if c.TickInterval == 0 {
		c.TickInterval = DefaultTickInterval
	}
	return nil
}

// Registry maps composite names to metrics. Timers, histograms and meters
// live in separate namespaces, so one name can identify both the timer and
// the size histogram of a route.
//
// Lookups create the metric on first access. Concurrent first lookups of
// the same name all receive the same instance.
type Registry struct {
	config Config

	mu         sync.RWMutex
	timers     map[string]*Timer
	histograms map[string]*Histogram
	meters     map[string]*Meter
}

// Snapshot is a point-in-time copy of every metric in a Registry, keyed by
// name.
type Snapshot struct {
	Timestamp  time.Time                    `json:"timestamp"`
	Timers     map[string]TimerSnapshot     `json:"timers"`
	Histograms map[string]HistogramSnapshot `json:"histograms"`
	Meters     map[string]MeterSnapshot     `json:"meters"`
}

// NewRegistry creates a registry with the default configuration.
func NewRegistry() *Registry {
	r, _ := NewRegistryWithConfig(DefaultConfig())
	return r
}

// NewRegistryWithConfig creates a registry with a custom configuration.
func NewRegistryWithConfig(config Config) (*Registry, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	r := &Registry{config: config}
	r.clear()
	return r, nil
}

// Clock returns the clock shared by the registry's meters and timers.
func (r *Registry) Clock() Clock {
	return r.config.Clock
}

// Timer returns the Timer registered under name, creating it if needed.
func (r *Registry) Timer(name string) (*Timer, error) {
	return getOrCreate(r, name, func(r *Registry) map[string]*Timer { return r.timers }, func() *Timer {
		return newTimer(r.config.Clock, r.config.ReservoirSize, r.config.TickInterval)
	})
}

// Histogram returns the Histogram registered under name, creating it if
// needed.
func (r *Registry) Histogram(name string) (*Histogram, error) {
	return getOrCreate(r, name, func(r *Registry) map[string]*Histogram { return r.histograms }, func() *Histogram {
		return NewHistogram(r.config.ReservoirSize)
	})
}

// Meter returns the Meter registered under name, creating it if needed.
func (r *Registry) Meter(name string) (*Meter, error) {
	return getOrCreate(r, name, func(r *Registry) map[string]*Meter { return r.meters }, func() *Meter {
		return newMeter(r.config.Clock, r.config.TickInterval)
	})
}

// getOrCreate looks name up under the read lock and falls back to a
// double-checked insert under the write lock. The map is re-read after
// locking because Reset swaps the maps.
func getOrCreate[M any](r *Registry, name string, table func(*Registry) map[string]M, create func() M) (M, error) {
	var zero M
	if err := ValidateName(name); err != nil {
		return zero, err
	}

	r.mu.RLock()
	m, ok := table(r)[name]
	r.mu.RUnlock()
	if ok {
		return m, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok = table(r)[name]; ok {
		return m, nil
	}
	m = create()
	table(r)[name] = m
	return m, nil
}

// Reset removes every metric. Later lookups create fresh instances; callers
// still holding old instances keep updating detached metrics.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clear()
}

func (r *Registry) clear() {
	r.timers = make(map[string]*Timer)
	r.histograms = make(map[string]*Histogram)
	r.meters = make(map[string]*Meter)
}

// Snapshot returns a copy of every registered metric. Each metric is copied
// under its own lock; the set of metrics is the one registered when the
// snapshot started.
func (r *Registry) Snapshot() Snapshot {
	r.mu.RLock()
	timers := make(map[string]*Timer, len(r.timers))
	for name, t := range r.timers {
		timers[name] = t
	}
	histograms := make(map[string]*Histogram, len(r.histograms))
	for name, h := range r.histograms {
		histograms[name] = h
	}
	meters := make(map[string]*Meter, len(r.meters))
	for name, m := range r.meters {
		meters[name] = m
	}
	r.mu.RUnlock()

	s := Snapshot{
		Timestamp:  r.config.Clock.Now(),
		Timers:     make(map[string]TimerSnapshot, len(timers)),
		Histograms: make(map[string]HistogramSnapshot, len(histograms)),
		Meters:     make(map[string]MeterSnapshot, len(meters)),
	}
	for name, t := range timers {
		s.Timers[name] = t.Snapshot()
	}
	for name, h := range histograms {
		s.Histograms[name] = h.Snapshot()
	}
	for name, m := range meters {
		s.Meters[name] = m.Snapshot()
	}
	return s
}

// Context returns a view of the registry that prefixes every name with the
// given segments.
func (r *Registry) Context(segments ...string) (*Context, error) {
	prefix, err := JoinName(segments...)
	if err != nil {
		return nil, err
	}
	return &Context{registry: r, prefix: prefix}, nil
}

// Context is a named scope within a Registry, typically one per owning
// module. Labels passed to its lookups are single name segments.
type Context struct {
	registry *Registry
	prefix   string
}

// Name returns the composite name label resolves to.
func (c *Context) Name(label string) (string, error) {
	suffix, err := JoinName(label)
	if err != nil {
		return "", err
	}
	return c.prefix + NameSeparator + suffix, nil
}

// Registry returns the underlying registry.
func (c *Context) Registry() *Registry {
	return c.registry
}

// Context returns a nested scope.
func (c *Context) Context(segments ...string) (*Context, error) {
	suffix, err := JoinName(segments...)
	if err != nil {
		return nil, err
	}
	return &Context{registry: c.registry, prefix: c.prefix + NameSeparator + suffix}, nil
}

// Timer returns the Timer for label within this context.
func (c *Context) Timer(label string) (*Timer, error) {
	name, err := c.Name(label)
	if err != nil {
		return nil, err
	}
	return c.registry.Timer(name)
}

// Histogram returns the Histogram for label within this context.
func (c *Context) Histogram(label string) (*Histogram, error) {
	name, err := c.Name(label)
	if err != nil {
		return nil, err
	}
	return c.registry.Histogram(name)
}

// Meter returns the Meter for label within this context.
func (c *Context) Meter(label string) (*Meter, error) {
	name, err := c.Name(label)
	if err != nil {
		return nil, err
	}
	return c.registry.Meter(name)
}
