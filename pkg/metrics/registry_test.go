package metrics

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry(t *testing.T) (*Registry, *ManualClock) {
	t.Helper()
	clk := NewManualClock()
	reg, err := NewRegistryWithConfig(Config{Clock: clk})
	require.NoError(t, err)
	return reg, clk
}

func TestRegistry_TimerIsIdempotent(t *testing.T) {
	reg, _ := newTestRegistry(t)

	a, err := reg.Timer("A")
	require.NoError(t, err)
	b, err := reg.Timer("A")
	require.NoError(t, err)
	require.Same(t, a, b)

	a.Update(time.Millisecond)
	assert.Equal(t, int64(1), b.Snapshot().Histogram.Count)
}

func TestRegistry_KindsAreSeparateNamespaces(t *testing.T) {
	reg, _ := newTestRegistry(t)

	timer, err := reg.Timer("Action Request")
	require.NoError(t, err)
	hist, err := reg.Histogram("Action Request")
	require.NoError(t, err)
	meter, err := reg.Meter("Action Request")
	require.NoError(t, err)

	timer.Update(time.Second)
	hist.Update(8)
	meter.Mark(3)

	s := reg.Snapshot()
	assert.Equal(t, int64(time.Second), s.Timers["Action Request"].Histogram.Max)
	assert.Equal(t, int64(8), s.Histograms["Action Request"].Max)
	assert.Equal(t, int64(3), s.Meters["Action Request"].Count)
}

func TestRegistry_InvalidNames(t *testing.T) {
	reg, _ := newTestRegistry(t)

	for _, name := range []string{"", "a..b", " padded"} {
		_, err := reg.Timer(name)
		assert.ErrorIs(t, err, ErrInvalidName, "Timer(%q)", name)
		_, err = reg.Histogram(name)
		assert.ErrorIs(t, err, ErrInvalidName, "Histogram(%q)", name)
		_, err = reg.Meter(name)
		assert.ErrorIs(t, err, ErrInvalidName, "Meter(%q)", name)
	}
	assert.Empty(t, reg.Snapshot().Timers)
}

func TestRegistry_ConcurrentCreateOrGet(t *testing.T) {
	reg, _ := newTestRegistry(t)
	const goroutines = 64

	timers := make([]*Timer, goroutines)
	start := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			timer, err := reg.Timer("shared")
			if err != nil {
				t.Errorf("Timer() error = %v", err)
				return
			}
			timer.Update(time.Millisecond)
			timers[i] = timer
		}(i)
	}
	close(start)
	wg.Wait()

	for i := 1; i < goroutines; i++ {
		require.Same(t, timers[0], timers[i], "goroutine %d got a different instance", i)
	}
	assert.Len(t, reg.Snapshot().Timers, 1)
	assert.Equal(t, int64(goroutines), timers[0].Snapshot().Rate.Count)
}

func TestRegistry_Reset(t *testing.T) {
	reg, _ := newTestRegistry(t)

	old, err := reg.Timer("A")
	require.NoError(t, err)
	old.Update(time.Second)

	reg.Reset()
	assert.Empty(t, reg.Snapshot().Timers)

	fresh, err := reg.Timer("A")
	require.NoError(t, err)
	assert.NotSame(t, old, fresh)
	assert.Equal(t, int64(0), fresh.Snapshot().Histogram.Count)
	assert.Equal(t, int64(0), fresh.Snapshot().Rate.Count)
}

func TestRegistry_UsesConfiguredClock(t *testing.T) {
	reg, clk := newTestRegistry(t)
	assert.Same(t, clk, reg.Clock())

	timer, err := reg.Timer("A")
	require.NoError(t, err)
	sw := timer.Start()
	clk.Advance(100 * time.Millisecond)
	_, err = sw.Stop()
	require.NoError(t, err)

	s := reg.Snapshot()
	assert.Equal(t, int64(100_000_000), s.Timers["A"].Histogram.Max)
	assert.Equal(t, clk.Now(), s.Timestamp)
}

func TestRegistry_Config(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{name: "zero value uses defaults", config: Config{}},
		{name: "custom", config: Config{ReservoirSize: 16, TickInterval: time.Second}},
		{name: "negative reservoir", config: Config{ReservoirSize: -1}, wantErr: true},
		{name: "negative tick", config: Config{TickInterval: -time.Second}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg, err := NewRegistryWithConfig(tt.config)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidConfig)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, reg.Clock())
		})
	}
}

func TestRegistry_ReservoirSizeFromConfig(t *testing.T) {
	reg, err := NewRegistryWithConfig(Config{ReservoirSize: 4})
	require.NoError(t, err)

	h, err := reg.Histogram("sizes")
	require.NoError(t, err)
	for i := int64(0); i < 100; i++ {
		h.Update(i)
	}
	s := h.Snapshot()
	assert.Equal(t, 4, s.Size)
	assert.Equal(t, int64(100), s.Count)
}

func TestContext_Names(t *testing.T) {
	reg, _ := newTestRegistry(t)

	module, err := reg.Context("NancyFx", "TestModule")
	require.NoError(t, err)

	name, err := module.Name("Action Request")
	require.NoError(t, err)
	assert.Equal(t, "NancyFx.TestModule.Action Request", name)

	viaContext, err := module.Timer("Action Request")
	require.NoError(t, err)
	direct, err := reg.Timer("NancyFx.TestModule.Action Request")
	require.NoError(t, err)
	assert.Same(t, direct, viaContext)

	nested, err := module.Context("routes")
	require.NoError(t, err)
	h, err := nested.Histogram("size")
	require.NoError(t, err)
	h.Update(1)
	assert.Contains(t, reg.Snapshot().Histograms, "NancyFx.TestModule.routes.size")

	_, err = module.Meter("a.b")
	assert.ErrorIs(t, err, ErrInvalidName)
	_, err = reg.Context("")
	assert.ErrorIs(t, err, ErrInvalidName)
	assert.Same(t, reg, module.Registry())
}

func TestDefaultRegistry(t *testing.T) {
	clk := NewManualClock()
	reg, err := Init(Config{Clock: clk})
	require.NoError(t, err)
	require.Same(t, reg, Default())
	t.Cleanup(Default().Reset)

	timer, err := Default().Timer("default.timer")
	require.NoError(t, err)
	timer.Update(time.Millisecond)
	assert.Contains(t, Default().Snapshot().Timers, "default.timer")

	Default().Reset()
	assert.Empty(t, Default().Snapshot().Timers)

	_, err = Init(Config{ReservoirSize: -1})
	assert.ErrorIs(t, err, ErrInvalidConfig)
	assert.Same(t, reg, Default(), "failed Init must keep the previous registry")
}
