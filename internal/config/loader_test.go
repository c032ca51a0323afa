package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadConfig_YAML(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "routemeter.yaml")

	configContent := `
server:
  address: "127.0.0.1:9090"
  metricsPath: /debug/metrics
  shutdownTimeout: 2s
metrics:
  context: [Shop, Api]
  reservoirSize: 256
  tickInterval: 1s
logging:
  level: debug
rules:
  - name: Orders
    method: post
    path: /orders
    measure: [request-time, request-size]
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to create config file: %v", err)
	}

	config, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if config.Server.Address != "127.0.0.1:9090" {
		t.Errorf("Server.Address = %q, want %q", config.Server.Address, "127.0.0.1:9090")
	}
	if config.Server.MetricsPath != "/debug/metrics" {
		t.Errorf("Server.MetricsPath = %q, want /debug/metrics", config.Server.MetricsPath)
	}
	if got := time.Duration(config.Server.ShutdownTimeout); got != 2*time.Second {
		t.Errorf("Server.ShutdownTimeout = %v, want 2s", got)
	}
	// Not in the file: default kept.
	if got := time.Duration(config.Server.ReadTimeout); got != 10*time.Second {
		t.Errorf("Server.ReadTimeout = %v, want default 10s", got)
	}
	if strings.Join(config.Metrics.Context, ".") != "Shop.Api" {
		t.Errorf("Metrics.Context = %v, want [Shop Api]", config.Metrics.Context)
	}
	if config.Metrics.ReservoirSize != 256 {
		t.Errorf("Metrics.ReservoirSize = %d, want 256", config.Metrics.ReservoirSize)
	}
	if config.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", config.Logging.Level)
	}
	if len(config.Rules) != 1 || config.Rules[0].Name != "Orders" || len(config.Rules[0].Measure) != 2 {
		t.Errorf("Rules = %+v, want one Orders rule with two measurements", config.Rules)
	}

	rc := config.RegistryConfig()
	if rc.ReservoirSize != 256 || rc.TickInterval != time.Second {
		t.Errorf("RegistryConfig() = %+v", rc)
	}
}

func TestLoadConfig_JSON(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "routemeter.json")
	configContent := `{
		"server": {"address": ":7070", "readTimeout": "500ms"},
		"logging": {"development": true}
	}`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to create config file: %v", err)
	}

	config, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if config.Server.Address != ":7070" {
		t.Errorf("Server.Address = %q, want :7070", config.Server.Address)
	}
	if got := time.Duration(config.Server.ReadTimeout); got != 500*time.Millisecond {
		t.Errorf("Server.ReadTimeout = %v, want 500ms", got)
	}
	if !config.Logging.Development {
		t.Error("Logging.Development = false, want true")
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("LoadConfig() expected error for missing file")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("LoadConfig() error = %v, want os.ErrNotExist", err)
	}
}

func TestParseConfig_Empty(t *testing.T) {
	config, err := ParseConfig(nil, "")
	if err != nil {
		t.Fatalf("ParseConfig() error = %v", err)
	}
	if config.Server.Address != DefaultConfig().Server.Address {
		t.Errorf("Server.Address = %q, want default", config.Server.Address)
	}
}

func TestParseConfig_SchemaErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{name: "unknown key", yaml: "server:\n  port: 80\n"},
		{name: "wrong type", yaml: "metrics:\n  reservoirSize: lots\n"},
		{name: "zero reservoir", yaml: "metrics:\n  reservoirSize: 0\n"},
		{name: "bad duration", yaml: "server:\n  readTimeout: soon\n"},
		{name: "unknown level", yaml: "logging:\n  level: loud\n"},
		{name: "empty context", yaml: "metrics:\n  context: []\n"},
		{name: "rule without measure", yaml: "rules:\n  - name: a\n    method: GET\n    path: /\n"},
		{name: "unknown measurement", yaml: "rules:\n  - {name: a, method: GET, path: /, measure: [latency]}\n"},
		{name: "not yaml", yaml: "server: [unclosed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseConfig([]byte(tt.yaml), "config.yaml"); err == nil {
				t.Errorf("ParseConfig() expected error")
			}
		})
	}
}

func TestParseConfig_EnvironmentPlaceholders(t *testing.T) {
	t.Setenv("ROUTEMETER_TEST_ADDR", "127.0.0.1:1234")

	config, err := ParseConfig([]byte("server:\n  address: \"{{ROUTEMETER_TEST_ADDR}}\"\n"), "config.yml")
	if err != nil {
		t.Fatalf("ParseConfig() error = %v", err)
	}
	if config.Server.Address != "127.0.0.1:1234" {
		t.Errorf("Server.Address = %q, want 127.0.0.1:1234", config.Server.Address)
	}
}

func TestProcessEnvironment(t *testing.T) {
	env := map[string]string{"HOST": "localhost", "PORT": "8080"}

	got := ProcessEnvironment("{{HOST}}:{{PORT}}/{{MISSING}}", env)
	if want := "localhost:8080/{{MISSING}}"; got != want {
		t.Errorf("ProcessEnvironment() = %q, want %q", got, want)
	}
}

func TestDuration(t *testing.T) {
	var d Duration
	if err := d.UnmarshalJSON([]byte(`"1m30s"`)); err != nil {
		t.Fatalf("UnmarshalJSON() error = %v", err)
	}
	if d.GetDuration(time.Second) != 90*time.Second {
		t.Errorf("GetDuration() = %v, want 1m30s", d)
	}

	b, err := d.MarshalJSON()
	if err != nil || string(b) != `"1m30s"` {
		t.Errorf("MarshalJSON() = %s, %v", b, err)
	}

	var zero Duration
	if zero.GetDuration(time.Second) != time.Second {
		t.Errorf("GetDuration() on zero = %v, want default", zero.GetDuration(time.Second))
	}
	if err := d.UnmarshalJSON([]byte(`"eventually"`)); err == nil {
		t.Error("UnmarshalJSON() expected error for invalid duration")
	}
}

func TestParseConfig_SchemaErrorLocation(t *testing.T) {
	_, err := ParseConfig([]byte("server:\n  port: 80\nmetrics:\n  reservoirSize: 0\n"), "config.yaml")

	var verrs ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("ParseConfig() error = %v, want ValidationErrors", err)
	}
	paths := make(map[string]bool)
	for _, e := range verrs {
		paths[e.Path] = true
	}
	for _, want := range []string{"/server", "/metrics/reservoirSize"} {
		if !paths[want] {
			t.Errorf("schema errors %v missing path %s", verrs, want)
		}
	}
}

func TestValidateSchema(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		isJSON  bool
		wantErr bool
	}{
		{name: "yaml", data: "metrics:\n  reservoirSize: 512\n  tickInterval: 5s\nserver:\n  address: \":80\"\n"},
		{name: "json", data: `{"metrics": {"reservoirSize": 512, "context": ["A", "B"]}}`, isJSON: true},
		{name: "empty yaml", data: ""},
		{name: "json fraction", data: `{"metrics": {"reservoirSize": 1.5}}`, isJSON: true, wantErr: true},
		{name: "json below minimum", data: `{"metrics": {"reservoirSize": 0}}`, isJSON: true, wantErr: true},
		{name: "invalid json", data: `{"metrics": `, isJSON: true, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateSchema([]byte(tt.data), tt.isJSON)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateSchema() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
