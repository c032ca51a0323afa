package cli

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/wesleyorama2/routemeter/internal/config"
	"github.com/wesleyorama2/routemeter/internal/server"
	"github.com/wesleyorama2/routemeter/pkg/metrics"
)

func newTestServer(t *testing.T, cfg *config.Config) (*httptest.Server, *metrics.Registry) {
	t.Helper()

	registry, err := metrics.NewRegistryWithConfig(cfg.RegistryConfig())
	require.NoError(t, err)
	app, err := buildApp(cfg, registry, zap.NewNop())
	require.NoError(t, err)

	ts := httptest.NewServer(server.New(cfg.Server, registry, app, zap.NewNop()).Handler())
	t.Cleanup(ts.Close)
	return ts, registry
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("NO_COLOR", "1")

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRoot_Help(t *testing.T) {
	out, err := execute(t)
	require.NoError(t, err)
	for _, sub := range []string{"serve", "bench", "stats"} {
		assert.Contains(t, out, sub)
	}
}

func TestBench_WithServerMetrics(t *testing.T) {
	ts, registry := newTestServer(t, config.DefaultConfig())

	out, err := execute(t, "bench",
		"--url", ts.URL+"/test",
		"-n", "12", "-c", "3",
		"--metrics-url", ts.URL+"/metrics",
		"--name", "NancyFx.Sample",
	)
	require.NoError(t, err)

	assert.Contains(t, out, "▶ BENCH GET "+ts.URL+"/test")
	assert.Contains(t, out, "12 (12 ok, 0 failed)")
	assert.Contains(t, out, "timer NancyFx.Sample.TestRequest")

	timer, err := registry.Timer("NancyFx.Sample.TestRequest")
	require.NoError(t, err)
	assert.Equal(t, int64(12), timer.Snapshot().Histogram.Count)
}

func TestBench_JSONOutput(t *testing.T) {
	ts, _ := newTestServer(t, config.DefaultConfig())

	out, err := execute(t, "bench", "--url", ts.URL+"/error", "-n", "2", "-c", "1", "-o", "json")
	require.NoError(t, err)

	assert.Equal(t, int64(2), gjson.Get(out, "result.failed").Int())
	assert.Equal(t, int64(2), gjson.Get(out, "result.statusCodes.500").Int())
}

func TestBench_InvalidFlags(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"missing url", []string{"bench"}},
		{"zero requests", []string{"bench", "--url", "http://localhost", "-n", "0"}},
		{"bad header", []string{"bench", "--url", "http://localhost", "-H", "nocolon"}},
		{"bad output", []string{"bench", "--url", "http://localhost", "-o", "xml"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := execute(t, tt.args...); err == nil {
				t.Errorf("execute(%v) expected error", tt.args)
			}
		})
	}
}

func TestStats(t *testing.T) {
	ts, _ := newTestServer(t, config.DefaultConfig())
	resp, err := http.Get(ts.URL + "/test")
	require.NoError(t, err)
	resp.Body.Close()

	out, err := execute(t, "stats", "--metrics-url", ts.URL+"/metrics")
	require.NoError(t, err)
	assert.Contains(t, out, "timer NancyFx.Sample.TestRequest")
	assert.Contains(t, out, "histogram NancyFx.Sample.TestRequest")

	out, err = execute(t, "stats", "--metrics-url", ts.URL+"/metrics", "-o", "yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "name: NancyFx.Sample.TestRequest")

	_, err = execute(t, "stats", "--metrics-url", ts.URL+"/metrics", "--name", "Nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `no metrics named "Nope"`)
}

func TestStats_Unreachable(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	ts.Close()

	_, err := execute(t, "stats", "--metrics-url", ts.URL+"/metrics")
	require.Error(t, err)
}

func TestBuildApp_ConfiguredRules(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Metrics.Context = []string{"Shop"}
	cfg.Rules = []config.RuleConfig{
		{Name: "Everything", Method: "GET", Path: "/", Measure: []string{config.MeasureRequestTime}},
		{Name: "Sizes", Method: "GET", Path: "/test", Measure: []string{config.MeasureResponseSize, config.MeasureRequestSize}},
	}
	ts, registry := newTestServer(t, cfg)

	for _, p := range []string{"/test", "/test", "/error"} {
		resp, err := http.Get(ts.URL + p)
		require.NoError(t, err)
		resp.Body.Close()
	}

	everything, err := registry.Timer("Shop.Everything")
	require.NoError(t, err)
	assert.Equal(t, int64(3), everything.Snapshot().Histogram.Count)

	sample, err := registry.Timer("Shop.TestRequest")
	require.NoError(t, err)
	assert.Equal(t, int64(2), sample.Snapshot().Histogram.Count)

	sizes, err := registry.Histogram("Shop.Sizes")
	require.NoError(t, err)
	// Response size and request size share the histogram: 2 x (4 + 0).
	snap := sizes.Snapshot()
	assert.Equal(t, int64(4), snap.Count)
	assert.Equal(t, int64(8), int64(snap.Sum))
}

func TestBuildApp_InvalidRule(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Rules = []config.RuleConfig{{Name: "bad.name", Method: "GET", Path: "/", Measure: []string{config.MeasureRequestTime}}}

	registry := metrics.NewRegistry()
	_, err := buildApp(cfg, registry, zap.NewNop())
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "bad.name"))
}

func TestLoadServeConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "routemeter.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  address: \":9999\"\n"), 0644))

	cfg, err := loadServeConfig(path, "")
	require.NoError(t, err)
	assert.Equal(t, ":9999", cfg.Server.Address)

	cfg, err = loadServeConfig(path, "127.0.0.1:0")
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:0", cfg.Server.Address)

	cfg, err = loadServeConfig("", "")
	require.NoError(t, err)
	assert.Equal(t, config.DefaultConfig().Server.Address, cfg.Server.Address)

	_, err = loadServeConfig(filepath.Join(t.TempDir(), "missing.yaml"), "")
	require.Error(t, err)
}

func TestParseHeaders(t *testing.T) {
	got, err := parseHeaders([]string{"Accept: application/json", "X-Trace:abc"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"Accept": "application/json", "X-Trace": "abc"}, got)

	_, err = parseHeaders([]string{": empty"})
	assert.Error(t, err)
}
