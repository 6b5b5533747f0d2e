// Package metrics holds the Prometheus collectors for index rebuilds,
// queries and the daemon's HTTP endpoints. Collectors live on a private
// registry so several instances can coexist in one process.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "bmsearch"

// Metrics is a set of registered collectors. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	registry *prometheus.Registry

	rebuildsTotal   *prometheus.CounterVec
	rebuildDuration prometheus.Histogram
	indexedEntries  prometheus.Gauge
	indexGeneration prometheus.Gauge
	queriesTotal    *prometheus.CounterVec
	queryDuration   prometheus.Histogram
	scannedSources  *prometheus.GaugeVec

	httpRequestDuration *prometheus.HistogramVec
	httpRequestsTotal   *prometheus.CounterVec
}

// New creates and registers all collectors, plus the Go runtime and process
// collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		rebuildsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rebuilds_total",
				Help:      "Total number of index rebuilds",
			},
			[]string{"trigger"},
		),
		rebuildDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "rebuild_duration_seconds",
				Help:      "Index rebuild duration in seconds, scan included",
				Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
		),
		indexedEntries: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "indexed_entries",
				Help:      "Number of bookmarks in the published index",
			},
		),
		indexGeneration: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "index_generation",
				Help:      "Generation of the published index",
			},
		),
		queriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "queries_total",
				Help:      "Total number of queries",
			},
			[]string{"cache"}, // "hit" / "miss"
		),
		queryDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "query_duration_seconds",
				Help:      "Query duration in seconds",
				Buckets:   []float64{0.00001, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
			},
		),
		scannedSources: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "scanned_sources",
				Help:      "Bookmark stores seen by the last scan",
			},
			[]string{"status"},
		),
		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
			},
			[]string{"method", "path", "status"},
		),
		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
	}

	m.registry.MustRegister(
		m.rebuildsTotal,
		m.rebuildDuration,
		m.indexedEntries,
		m.indexGeneration,
		m.queriesTotal,
		m.queryDuration,
		m.scannedSources,
		m.httpRequestDuration,
		m.httpRequestsTotal,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the private registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveRebuild records one completed rebuild.
func (m *Metrics) ObserveRebuild(trigger string, d time.Duration, entries int, generation uint64) {
	if m == nil {
		return
	}
	m.rebuildsTotal.WithLabelValues(trigger).Inc()
	m.rebuildDuration.Observe(d.Seconds())
	m.indexedEntries.Set(float64(entries))
	m.indexGeneration.Set(float64(generation))
}

// ObserveSources replaces the per-status source counts from the last scan.
func (m *Metrics) ObserveSources(byStatus map[string]int) {
	if m == nil {
		return
	}
	m.scannedSources.Reset()
	for status, n := range byStatus {
		m.scannedSources.WithLabelValues(status).Set(float64(n))
	}
}

// ObserveQuery records one query.
func (m *Metrics) ObserveQuery(d time.Duration, cacheHit bool) {
	if m == nil {
		return
	}
	cache := "miss"
	if cacheHit {
		cache = "hit"
	}
	m.queriesTotal.WithLabelValues(cache).Inc()
	m.queryDuration.Observe(d.Seconds())
}
