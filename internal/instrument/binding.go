package instrument

import (
	"io"
	"net/http"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/wesleyorama2/routemeter/pkg/metrics"
)

// Measurement selects what a binding records for a handler.
type Measurement int

const (
	// RequestTime records handler duration into a timer.
	RequestTime Measurement = iota
	// RequestSize records the inbound body size into a histogram.
	RequestSize
	// ResponseSize records the outbound body size into a histogram.
	ResponseSize
)

func (m Measurement) String() string {
	switch m {
	case RequestTime:
		return "request-time"
	case RequestSize:
		return "request-size"
	case ResponseSize:
		return "response-size"
	default:
		return "unknown"
	}
}

// Binding attaches metrics from one registry context to handlers.
type Binding struct {
	metrics *metrics.Context
	logger  *zap.Logger
}

// Option configures a Binding.
type Option func(*Binding)

// WithLogger sets the logger used to report misuse such as a timer being
// stopped twice.
func WithLogger(logger *zap.Logger) Option {
	return func(b *Binding) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// New creates a Binding that registers metrics under ctx.
func New(ctx *metrics.Context, opts ...Option) *Binding {
	b := &Binding{
		metrics: ctx,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Context returns the registry context metrics are registered under.
func (b *Binding) Context() *metrics.Context {
	return b.metrics
}

// Apply wraps next with a single measurement.
func (b *Binding) Apply(m Measurement, name string, next http.Handler) (http.Handler, error) {
	switch m {
	case RequestTime:
		return b.RequestTime(name, next)
	case RequestSize:
		return b.RequestSize(name, next)
	case ResponseSize:
		return b.ResponseSize(name, next)
	default:
		return nil, errors.Errorf("unknown measurement %d", int(m))
	}
}

// RequestTime records how long next takes into the timer name.
func (b *Binding) RequestTime(name string, next http.Handler) (http.Handler, error) {
	timer, err := b.metrics.Timer(name)
	if err != nil {
		return nil, errors.Wrap(err, "request time metric")
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sw := timer.Start()
		defer b.stop(sw, name)
		next.ServeHTTP(w, r)
	}), nil
}

// RequestSize records the request body size into the histogram name. The
// declared Content-Length is used when known; otherwise the bytes the
// handler actually read from the body.
func (b *Binding) RequestSize(name string, next http.Handler) (http.Handler, error) {
	hist, err := b.metrics.Histogram(name)
	if err != nil {
		return nil, errors.Wrap(err, "request size metric")
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body *countingReader
		if r.ContentLength < 0 && r.Body != nil {
			body = &countingReader{ReadCloser: r.Body}
			r.Body = body
		}

		next.ServeHTTP(w, r)

		size := r.ContentLength
		if body != nil {
			size = body.n
		}
		hist.Update(size)
	}), nil
}

// ResponseSize records the response size into the histogram name.
func (b *Binding) ResponseSize(name string, next http.Handler) (http.Handler, error) {
	hist, err := b.metrics.Histogram(name)
	if err != nil {
		return nil, errors.Wrap(err, "response size metric")
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rw := NewResponseWriter(w)
		next.ServeHTTP(rw, r)
		hist.Update(rw.Size())
	}), nil
}

// RequestTimeAndResponseSize records both the duration and the response
// size of next under the same name.
func (b *Binding) RequestTimeAndResponseSize(name string, next http.Handler) (http.Handler, error) {
	sized, err := b.ResponseSize(name, next)
	if err != nil {
		return nil, err
	}
	return b.RequestTime(name, sized)
}

func (b *Binding) stop(sw *metrics.Stopwatch, name string) {
	if _, err := sw.Stop(); err != nil {
		b.logger.Error("request timer stopped twice", zap.String("metric", name), zap.Error(err))
	}
}

type countingReader struct {
	io.ReadCloser
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.ReadCloser.Read(p)
	c.n += int64(n)
	return n, err
}
