// Package config loads the routemeter configuration file.
package config

import (
	"time"

	"github.com/wesleyorama2/routemeter/pkg/metrics"
)

// Config is the root configuration for `routemeter serve`.
//
// Example YAML:
//
//	server:
//	  address: ":8080"
//	  metricsPath: /metrics
//	metrics:
//	  context: [NancyFx, Sample]
//	  reservoirSize: 1028
//	  tickInterval: 5s
//	logging:
//	  level: info
//	rules:
//	  - name: TestRequest
//	    method: GET
//	    path: /test
//	    measure: [request-time, response-size]
type Config struct {
	Server  ServerConfig  `json:"server,omitempty" yaml:"server,omitempty"`
	Metrics MetricsConfig `json:"metrics,omitempty" yaml:"metrics,omitempty"`
	Logging LoggingConfig `json:"logging,omitempty" yaml:"logging,omitempty"`

	// Rules are extra metric rules applied to the sample module
	Rules []RuleConfig `json:"rules,omitempty" yaml:"rules,omitempty"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	// Address to listen on (default ":8080")
	Address string `json:"address,omitempty" yaml:"address,omitempty"`

	// MetricsPath serves the JSON registry snapshot (default "/metrics")
	MetricsPath string `json:"metricsPath,omitempty" yaml:"metricsPath,omitempty"`

	ReadTimeout     Duration `json:"readTimeout,omitempty" yaml:"readTimeout,omitempty"`
	WriteTimeout    Duration `json:"writeTimeout,omitempty" yaml:"writeTimeout,omitempty"`
	ShutdownTimeout Duration `json:"shutdownTimeout,omitempty" yaml:"shutdownTimeout,omitempty"`
}

// MetricsConfig configures the metric registry.
type MetricsConfig struct {
	// Context segments prefixed to every metric name of the sample module
	Context []string `json:"context,omitempty" yaml:"context,omitempty"`

	// ReservoirSize is the number of samples kept per histogram
	ReservoirSize int `json:"reservoirSize,omitempty" yaml:"reservoirSize,omitempty"`

	// TickInterval is the meter decay interval
	TickInterval Duration `json:"tickInterval,omitempty" yaml:"tickInterval,omitempty"`
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error (default "info")
	Level string `json:"level,omitempty" yaml:"level,omitempty"`

	// Development enables console encoding and stack traces on warnings
	Development bool `json:"development,omitempty" yaml:"development,omitempty"`
}

// RuleConfig attaches measurements to module routes.
type RuleConfig struct {
	Name    string   `json:"name" yaml:"name"`
	Method  string   `json:"method" yaml:"method"`
	Path    string   `json:"path" yaml:"path"`
	Measure []string `json:"measure" yaml:"measure"`
}

// Measurement names accepted in RuleConfig.Measure.
const (
	MeasureRequestTime  = "request-time"
	MeasureRequestSize  = "request-size"
	MeasureResponseSize = "response-size"
)

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Address:         ":8080",
			MetricsPath:     "/metrics",
			ReadTimeout:     Duration(10 * time.Second),
			WriteTimeout:    Duration(10 * time.Second),
			ShutdownTimeout: Duration(5 * time.Second),
		},
		Metrics: MetricsConfig{
			Context:       []string{"NancyFx", "Sample"},
			ReservoirSize: metrics.DefaultReservoirSize,
			TickInterval:  Duration(metrics.DefaultTickInterval),
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// RegistryConfig converts the metrics section into a registry config.
func (c *Config) RegistryConfig() metrics.Config {
	return metrics.Config{
		ReservoirSize: c.Metrics.ReservoirSize,
		TickInterval:  time.Duration(c.Metrics.TickInterval),
	}
}
