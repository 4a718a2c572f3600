package middleware

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/V4T54L/api-performance/internal/adapter/metrics"
)

// responseWriter is a wrapper that captures the HTTP status code and body size for logging.
type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	bytes       int
	wroteHeader bool
}

func (rw *responseWriter) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.statusCode = code
		rw.wroteHeader = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	n, err := rw.ResponseWriter.Write(b)
	rw.bytes += n
	return n, err
}

func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// Logging is a middleware factory that logs HTTP requests and records their
// latency. Pass the pipeline's logger so that access logging never blocks
// the request on the log destination. m may be nil.
func Logging(logger *slog.Logger, m *metrics.APIMetrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(rw, r)

			duration := time.Since(start)
			route := routePattern(r)

			if m != nil {
				m.RequestDuration.WithLabelValues(r.Method, route, strconv.Itoa(rw.statusCode)).Observe(duration.Seconds())
			}

			logger.Info("handled request",
				"request_id", chimw.GetReqID(r.Context()),
				"method", r.Method,
				"path", r.URL.Path,
				"route", route,
				"remote_addr", r.RemoteAddr,
				"status", rw.statusCode,
				"bytes", rw.bytes,
				"duration_ms", duration.Milliseconds(),
			)
		})
	}
}

// routePattern keeps the metric label cardinality bounded.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}
