package module

import (
	"io"
	"net/http"

	"github.com/pkg/errors"

	"github.com/wesleyorama2/routemeter/internal/instrument"
)

// SampleMetricName names the timer and response size histogram of the
// sample module's /test route.
const SampleMetricName = "TestRequest"

// ErrSampleFailure is raised by the sample module's /error route.
var ErrSampleFailure = errors.New("invalid operation")

// NewSample returns the demo module served by `routemeter serve`:
//
//	GET /test   responds "test", timed and size-measured as TestRequest
//	GET /error  panics with ErrSampleFailure
func NewSample(binding *instrument.Binding) (*Module, error) {
	m := New("/", binding)
	if err := m.MetricForRequestTimeAndResponseSize(SampleMetricName, http.MethodGet, "/test"); err != nil {
		return nil, err
	}

	m.Get("/test", func(w http.ResponseWriter, r *http.Request) {
		Text(w, "test")
	})
	m.Get("/error", func(w http.ResponseWriter, r *http.Request) {
		panic(ErrSampleFailure)
	})
	return m, nil
}

// Text writes s as a text/plain response.
func Text(w http.ResponseWriter, s string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, s)
}
