package metrics

import (
	"net/http"
	"time"
)

// HTTPMetricsMiddleware creates middleware that records HTTP request metrics.
// The handlerName parameter should be a constant identifier for the endpoint
// (e.g., "/api/v1/transfers/native") so path values never become label values.
// A nil Metrics records nothing.
func HTTPMetricsMiddleware(m *Metrics, handlerName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if m == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(rec, r)

			m.RecordHTTPRequest(handlerName, r.Method, rec.statusCode, time.Since(start).Seconds())
		})
	}
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (w *statusRecorder) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
