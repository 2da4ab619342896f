package middleware

import (
	"net/http"
	"sync/atomic"
)

// Metrics holds request counters exposed by /metrics.
type Metrics struct {
	Requests     atomic.Int64
	ClientErrors atomic.Int64
	ServerErrors atomic.Int64
	Throttled    atomic.Int64
}

// Snapshot returns the current counter values.
func (m *Metrics) Snapshot() map[string]int64 {
	return map[string]int64{
		"request_count": m.Requests.Load(),
		"client_errors": m.ClientErrors.Load(),
		"server_errors": m.ServerErrors.Load(),
		"throttled":     m.Throttled.Load(),
	}
}

// Middleware counts requests by status class.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.Requests.Add(1)

		rw := newResponseWriter(w)
		next.ServeHTTP(rw, r)

		switch {
		case rw.statusCode == http.StatusTooManyRequests:
			m.Throttled.Add(1)
		case rw.statusCode >= 500:
			m.ServerErrors.Add(1)
		case rw.statusCode >= 400:
			m.ClientErrors.Add(1)
		}
	})
}
