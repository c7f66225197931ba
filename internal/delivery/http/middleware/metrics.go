package middleware

import (
	"net/http"
	"time"

	"devevents/internal/monitoring"
)

// Metrics records request count and latency per matched route.
// Route patterns, not raw paths, keep label cardinality bounded.
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := wrap(w)
		next.ServeHTTP(wrapped, r)
		monitoring.ObserveRequest(r.Method, routeOf(r), wrapped.status, time.Since(start))
	})
}
