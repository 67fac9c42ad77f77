// internal/pkg/metrics/metrics.go
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "preloved"

// Metrics holds the service collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	projections       *prometheus.HistogramVec
	projectionResults prometheus.Histogram
	droppedFilters    *prometheus.CounterVec
	superseded        prometheus.Counter
	snapshotLoads     *prometheus.CounterVec
	snapshotSize      prometheus.Gauge
}

// New creates and registers all collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		projections: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "catalog",
			Name:      "projection_duration_seconds",
			Help:      "Time spent filtering and ranking the catalog.",
			Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25},
		}, []string{"sort"}),
		projectionResults: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "catalog",
			Name:      "projection_results",
			Help:      "Matched items per projection.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		}),
		droppedFilters: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "catalog",
			Name:      "dropped_filter_values_total",
			Help:      "Raw filter values ignored during normalization.",
		}, []string{"dimension"}),
		superseded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "catalog",
			Name:      "superseded_total",
			Help:      "Browse computations discarded in favour of a newer request.",
		}),
		snapshotLoads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "catalog",
			Name:      "snapshot_loads_total",
			Help:      "Catalog snapshot loads by outcome.",
		}, []string{"outcome"}),
		snapshotSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "catalog",
			Name:      "snapshot_items",
			Help:      "Items in the current catalog snapshot.",
		}),
	}

	m.registry.MustRegister(
		m.httpRequests, m.httpDuration,
		m.projections, m.projectionResults, m.droppedFilters, m.superseded,
		m.snapshotLoads, m.snapshotSize,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) ObserveHTTP(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

func (m *Metrics) ObserveProjection(sort string, results int, d time.Duration) {
	if m == nil {
		return
	}
	m.projections.WithLabelValues(sort).Observe(d.Seconds())
	m.projectionResults.Observe(float64(results))
}

func (m *Metrics) DroppedFilter(dimension string) {
	if m == nil {
		return
	}
	m.droppedFilters.WithLabelValues(dimension).Inc()
}

func (m *Metrics) Superseded() {
	if m == nil {
		return
	}
	m.superseded.Inc()
}

// SnapshotLoaded records a snapshot load; outcome is "hit", "miss" or "error".
func (m *Metrics) SnapshotLoaded(outcome string, size int) {
	if m == nil {
		return
	}
	m.snapshotLoads.WithLabelValues(outcome).Inc()
	if outcome != "error" {
		m.snapshotSize.Set(float64(size))
	}
}
