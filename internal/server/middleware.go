package server

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/wesleyorama2/routemeter/internal/instrument"
)

// Recover turns handler panics into 500 responses and logs them. Timers
// wrapped inside next have already been stopped by the time the panic
// reaches this middleware.
func Recover(logger *zap.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rw := instrument.NewResponseWriter(w)
		defer func() {
			v := recover()
			if v == nil {
				return
			}
			if v == http.ErrAbortHandler {
				panic(v)
			}
			logger.Error("handler panic",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Any("panic", v),
				zap.Stack("stack"),
			)
			if rw.Written() == 0 {
				http.Error(rw, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(rw, r)
	})
}

// AccessLog logs one line per request.
func AccessLog(logger *zap.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := instrument.NewResponseWriter(w)
		next.ServeHTTP(rw, r)
		logger.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rw.Status()),
			zap.Int64("bytes", rw.Written()),
			zap.Duration("duration", time.Since(start)),
		)
	})
}
