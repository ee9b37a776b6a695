package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// HTTPMetrics records request counts and latency per route.
type HTTPMetrics struct {
	duration *prometheus.HistogramVec
	requests *prometheus.CounterVec
	inflight prometheus.Gauge
}

// NewHTTPMetrics registers the HTTP metrics on the provided registerer.
func NewHTTPMetrics(reg prometheus.Registerer) *HTTPMetrics {
	if reg == nil {
		return &HTTPMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total HTTP requests served.",
	}, []string{"method", "route", "status"})
	inflight := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "http_requests_in_flight",
		Help: "HTTP requests currently being served.",
	})
	reg.MustRegister(duration, requests, inflight)
	return &HTTPMetrics{
		duration: duration,
		requests: requests,
		inflight: inflight,
	}
}

// ObserveRequest records a completed request.
func (h *HTTPMetrics) ObserveRequest(method, route, status string, elapsed time.Duration) {
	if h == nil || h.duration == nil {
		return
	}
	method = normalizeLabel(method)
	route = normalizeLabel(route)
	status = normalizeLabel(status)
	h.duration.WithLabelValues(method, route, status).Observe(elapsed.Seconds())
	h.requests.WithLabelValues(method, route, status).Inc()
}

// IncInFlight marks a request as started.
func (h *HTTPMetrics) IncInFlight() {
	if h == nil || h.inflight == nil {
		return
	}
	h.inflight.Inc()
}

// DecInFlight marks a request as finished.
func (h *HTTPMetrics) DecInFlight() {
	if h == nil || h.inflight == nil {
		return
	}
	h.inflight.Dec()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
