package instrument

import (
	"net/http"
	"strconv"
)

// ResponseWriter wraps an http.ResponseWriter and records the status code
// and the number of body bytes written.
type ResponseWriter struct {
	http.ResponseWriter
	status  int
	written int64
}

// NewResponseWriter wraps w. A writer that is already a *ResponseWriter is
// returned unchanged so nested middleware share one set of counters.
func NewResponseWriter(w http.ResponseWriter) *ResponseWriter {
	if rw, ok := w.(*ResponseWriter); ok {
		return rw
	}
	return &ResponseWriter{ResponseWriter: w}
}

// WriteHeader records the status and forwards it.
func (w *ResponseWriter) WriteHeader(status int) {
	if w.status == 0 {
		w.status = status
	}
	w.ResponseWriter.WriteHeader(status)
}

// Write counts the bytes written.
func (w *ResponseWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	n, err := w.ResponseWriter.Write(b)
	w.written += int64(n)
	return n, err
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (w *ResponseWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// Status returns the status code sent, or 200 if the handler never set one.
func (w *ResponseWriter) Status() int {
	if w.status == 0 {
		return http.StatusOK
	}
	return w.status
}

// Written returns the number of body bytes written so far.
func (w *ResponseWriter) Written() int64 {
	return w.written
}

// Size is the response size: the Content-Length header declared by the
// handler when it is a valid non-negative integer, otherwise the number of
// bytes written.
func (w *ResponseWriter) Size() int64 {
	if cl := w.Header().Get("Content-Length"); cl != "" {
		if n, err := strconv.ParseInt(cl, 10, 64); err == nil && n >= 0 {
			return n
		}
	}
	return w.written
}
