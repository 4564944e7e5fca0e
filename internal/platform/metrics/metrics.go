// Package metrics exposes HTTP-level Prometheus metrics. Feature packages
// register their own counters; this package covers the transport.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP holds the transport-level metrics.
type HTTP struct {
	Requests *prometheus.CounterVec
	Duration *prometheus.HistogramVec
}

// NewHTTP creates and registers the transport metrics.
func NewHTTP() *HTTP {
	return &HTTP{
		Requests: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "vouch_http_requests_total",
			Help: "Total HTTP requests by method, route and status code",
		}, []string{"method", "route", "status"}),
		Duration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "vouch_http_request_duration_seconds",
			Help:    "HTTP request latency by method and route",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

// Middleware instruments each request with the registered metrics. It reads
// the chi route pattern after the handler runs so the label is the template,
// not the raw path.
func (m *HTTP) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = "unmatched"
		}
		m.Requests.WithLabelValues(r.Method, route, strconv.Itoa(wrapped.status)).Inc()
		m.Duration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}
