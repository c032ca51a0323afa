package config

import (
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap/zapcore"

	"github.com/wesleyorama2/routemeter/pkg/metrics"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Path    string
	Message string
}

// Error returns the error message.
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

var knownMethods = map[string]bool{
	http.MethodGet:     true,
	http.MethodHead:    true,
	http.MethodPost:    true,
	http.MethodPut:     true,
	http.MethodPatch:   true,
	http.MethodDelete:  true,
	http.MethodOptions: true,
}

// Validate checks the semantic rules the schema cannot express. It returns
// nil or a ValidationErrors holding every problem found.
func (c *Config) Validate() error {
	var errs ValidationErrors
	add := func(path, format string, args ...interface{}) {
		errs = append(errs, ValidationError{Path: path, Message: fmt.Sprintf(format, args...)})
	}

	if c.Server.Address == "" {
		add("server.address", "address is required")
	}
	if !strings.HasPrefix(c.Server.MetricsPath, "/") {
		add("server.metricsPath", "must start with '/'")
	}
	for _, d := range []struct {
		path  string
		value Duration
	}{
		{"server.readTimeout", c.Server.ReadTimeout},
		{"server.writeTimeout", c.Server.WriteTimeout},
		{"server.shutdownTimeout", c.Server.ShutdownTimeout},
		{"metrics.tickInterval", c.Metrics.TickInterval},
	} {
		if d.value < 0 {
			add(d.path, "must not be negative")
		}
	}

	if _, err := metrics.JoinName(c.Metrics.Context...); err != nil {
		add("metrics.context", "%v", err)
	}
	if c.Metrics.ReservoirSize < 1 {
		add("metrics.reservoirSize", "must be at least 1")
	}

	if _, err := zapcore.ParseLevel(c.Logging.Level); err != nil {
		add("logging.level", "unknown level %q", c.Logging.Level)
	}

	for i, r := range c.Rules {
		path := fmt.Sprintf("rules[%d]", i)
		if _, err := metrics.JoinName(r.Name); err != nil {
			add(path+".name", "%v", err)
		}
		if !knownMethods[strings.ToUpper(r.Method)] {
			add(path+".method", "unknown HTTP method %q", r.Method)
		}
		if !strings.HasPrefix(r.Path, "/") {
			add(path+".path", "must start with '/'")
		}
		if len(r.Measure) == 0 {
			add(path+".measure", "at least one measurement is required")
		}
		for _, m := range r.Measure {
			switch m {
			case MeasureRequestTime, MeasureRequestSize, MeasureResponseSize:
			default:
				add(path+".measure", "unknown measurement %q", m)
			}
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}
