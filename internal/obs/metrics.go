package obs

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "coatworks"

// Metrics groups the service's Prometheus collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	ReqTotal           *prometheus.CounterVec
	ReqDur             *prometheus.HistogramVec
	CalculationsTotal  *prometheus.CounterVec
	DocumentsSaved     *prometheus.CounterVec
	ValidationFailures *prometheus.CounterVec
}

// NewMetrics builds and registers every collector, plus the Go runtime and
// process collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		ReqTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests handled by the server.",
		}, []string{"method", "route", "status"}),
		ReqDur: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_ms",
			Help:      "HTTP request latency distribution in milliseconds.",
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		}, []string{"method", "route"}),
		CalculationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "calculations_total",
			Help:      "Calculations served, by kind (measure, price, document).",
		}, []string{"kind"}),
		DocumentsSaved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_saved_total",
			Help:      "Quotations and purchases created or updated, by document kind.",
		}, []string{"kind", "op"}),
		ValidationFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "validation_failures_total",
			Help:      "Requests rejected by validation, by endpoint.",
		}, []string{"endpoint"}),
	}
	reg.MustRegister(
		m.ReqTotal, m.ReqDur, m.CalculationsTotal, m.DocumentsSaved, m.ValidationFailures,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry exposes the registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware counts requests and observes their latency per route.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		recorder := NewStatusRecorder(w)
		start := time.Now()
		next.ServeHTTP(recorder, r)

		route := routePattern(r)
		if route == "" {
			route = "unknown"
		}
		m.ReqTotal.WithLabelValues(r.Method, route, strconv.Itoa(recorder.Status())).Inc()
		m.ReqDur.WithLabelValues(r.Method, route).Observe(float64(time.Since(start)) / float64(time.Millisecond))
	})
}

// Calculation counts one served calculation. Safe on a nil receiver.
func (m *Metrics) Calculation(kind string) {
	if m == nil {
		return
	}
	m.CalculationsTotal.WithLabelValues(kind).Inc()
}

// DocumentSaved counts a create or update of a document kind.
func (m *Metrics) DocumentSaved(kind, op string) {
	if m == nil {
		return
	}
	m.DocumentsSaved.WithLabelValues(kind, op).Inc()
}

// ValidationFailed counts a request rejected by validation.
func (m *Metrics) ValidationFailed(endpoint string) {
	if m == nil {
		return
	}
	m.ValidationFailures.WithLabelValues(endpoint).Inc()
}
