package middleware

import (
	"net/http"
	"time"

	"github.com/Harshitk-cp/begrippen/internal/metrics"
)

// Metrics returns middleware that records request counts by status class and
// latency per method. A nil collector set disables recording.
func Metrics(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// Wrap response writer to capture status
			rw := newResponseWriter(w)
			next.ServeHTTP(rw, r)

			m.ObserveHTTP(r.Method, rw.statusCode, time.Since(start))
		})
	}
}
