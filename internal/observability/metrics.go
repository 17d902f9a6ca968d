// Package observability exposes the API's Prometheus registry and HTTP instrumentation.
package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Purchase outcomes as reported by the purchase service.
const outcomeRecorded = "recorded"

// Metrics owns a private registry so tests can build as many instances as they need.
type Metrics struct {
	registry *prometheus.Registry
	handler  http.Handler

	requests  *prometheus.CounterVec
	latency   *prometheus.HistogramVec
	inFlight  prometheus.Gauge
	purchases *prometheus.CounterVec
	basket    prometheus.Histogram
}

// NewMetrics builds the registry with HTTP, purchase and runtime collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pos_http_requests_total",
			Help: "HTTP requests by method, route pattern and status code.",
		}, []string{"method", "route", "code"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pos_http_request_duration_seconds",
			Help:    "HTTP request duration by route pattern.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"route"}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "pos_http_requests_in_flight",
			Help: "HTTP requests currently being served.",
		}),
		purchases: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pos_purchases_total",
			Help: "Purchase requests by outcome (recorded, rejected, failed).",
		}, []string{"outcome"}),
		basket: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "pos_purchase_items",
			Help:    "Line items per recorded purchase.",
			Buckets: []float64{0, 1, 2, 5, 10, 20, 50, 100},
		}),
	}
	m.registry.MustRegister(
		m.requests, m.latency, m.inFlight, m.purchases, m.basket,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m.handler = promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Middleware records request counts and latency keyed by the matched chi route, so
// /api/products/{code} is one series regardless of the code requested.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.inFlight.Inc()
		defer m.inFlight.Dec()

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := routePattern(r)
		m.requests.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Inc()
		m.latency.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// ObservePurchase counts one purchase request. Basket size is only observed for
// recorded purchases.
func (m *Metrics) ObservePurchase(outcome string, items int) {
	if m == nil {
		return
	}
	m.purchases.WithLabelValues(outcome).Inc()
	if outcome == outcomeRecorded {
		m.basket.Observe(float64(items))
	}
}

// Registerer lets other packages add collectors to the same registry.
func (m *Metrics) Registerer() prometheus.Registerer {
	if m == nil {
		return prometheus.DefaultRegisterer
	}
	return m.registry
}

type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (r *statusRecorder) WriteHeader(status int) {
	if !r.wroteHeader {
		r.status = status
		r.wroteHeader = true
	}
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unmatched"
}
