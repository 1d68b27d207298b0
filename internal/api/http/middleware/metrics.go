package middleware

import (
	"net/http"
	"time"

	"github.com/flashkv/engine/internal/metrics"
)

// Metrics records request counts and latency. A nil APIMetrics records
// nothing, so the middleware can stay in the chain unconditionally.
func Metrics(m *metrics.APIMetrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			ww := &responseWriter{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
			}

			next.ServeHTTP(ww, r)

			m.RecordRequest(r.Method, r.URL.Path, ww.statusCode, time.Since(start))
		})
	}
}
