// Package monitoring - Prometheus instrumentation for the proxy.
//
// DESIGN: Three series cover the gateway's operational questions:
//   - gateway_requests_total:          what clients see, by route and status
//   - gateway_upstream_seconds:        upstream latency, by route
//   - gateway_upstream_errors_total:   timeouts vs transport failures
//
// All Metrics methods are nil-safe so instrumentation stays optional: a nil
// *Metrics records nothing, and callers never guard.
package monitoring

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the gateway's Prometheus collectors.
type Metrics struct {
	registry *prometheus.Registry

	requests       *prometheus.CounterVec
	upstreamSecs   *prometheus.HistogramVec
	upstreamErrors *prometheus.CounterVec
}

// NewMetrics creates and registers the gateway collectors on a private
// registry, keeping the default registry's Go runtime noise out of scrapes.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gateway_requests_total",
			Help: "Requests handled by the gateway, by route and response status.",
		}, []string{"route", "status"}),
		upstreamSecs: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gateway_upstream_seconds",
			Help:    "Upstream call latency in seconds, by route.",
			Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 15},
		}, []string{"route"}),
		upstreamErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gateway_upstream_errors_total",
			Help: "Upstream dispatch failures, by route and kind (timeout, transport).",
		}, []string{"route", "kind"}),
	}

	reg.MustRegister(m.requests, m.upstreamSecs, m.upstreamErrors)
	return m
}

// CountRequest records one finished gateway request.
func (m *Metrics) CountRequest(route string, status int) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(route, strconv.Itoa(status)).Inc()
}

// ObserveUpstream records a completed upstream call.
func (m *Metrics) ObserveUpstream(route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.upstreamSecs.WithLabelValues(route).Observe(elapsed.Seconds())
}

// ObserveUpstreamError records a failed upstream dispatch.
func (m *Metrics) ObserveUpstreamError(route, kind string) {
	if m == nil {
		return
	}
	m.upstreamErrors.WithLabelValues(route, kind).Inc()
}

// Handler exposes the scrape endpoint for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
