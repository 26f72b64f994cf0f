// Package monitoring exposes Prometheus metrics for ingestion and the map
// API, and summarises the stored runs for status reporting.
package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "rrf_map"

// Metrics holds the Prometheus collectors for ingest, API and geocoding.
type Metrics struct {
	// Ingest
	IngestPages      prometheus.Counter
	IngestRecords    *prometheus.CounterVec // labels: stage={fetched,kept,dropped}
	IngestRuns       *prometheus.CounterVec // labels: status={complete,failed}
	IngestDuration   prometheus.Histogram
	IngestRunning    prometheus.Gauge
	LastIngestTime   prometheus.Gauge
	GeoSourceRecords *prometheus.GaugeVec // labels: source

	// Records currently served.
	RecordsLoaded prometheus.Gauge

	// HTTP API
	APIRequests *prometheus.CounterVec   // labels: route, code
	APIDuration *prometheus.HistogramVec // labels: route

	// Geocoding
	GeocodeRequests *prometheus.CounterVec // labels: outcome={success,error,empty}
	GeocodeCache    *prometheus.CounterVec // labels: result={hit,miss}
}

func newMetrics() *Metrics {
	return &Metrics{
		IngestPages: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingest_pages_total",
			Help:      "Registry search pages fetched.",
		}),
		IngestRecords: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingest_records_total",
			Help:      "Licence records by ingest stage.",
		}, []string{"stage"}),
		IngestRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingest_runs_total",
			Help:      "Ingest runs by final status.",
		}, []string{"status"}),
		IngestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ingest_duration_seconds",
			Help:      "Duration of a complete ingest run.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}),
		IngestRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ingest_running",
			Help:      "1 while an ingest run is active.",
		}),
		LastIngestTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_ingest_timestamp_seconds",
			Help:      "Unix time of the last successful ingest.",
		}),
		GeoSourceRecords: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "geo_source_records",
			Help:      "Records in the last ingest by coordinate source.",
		}, []string{"source"}),
		RecordsLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "records_loaded",
			Help:      "Licence records loaded by the map server.",
		}),
		APIRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_requests_total",
			Help:      "HTTP API requests by route and status code.",
		}, []string{"route", "code"}),
		APIDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "api_request_duration_seconds",
			Help:      "HTTP API request duration.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"route"}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_requests_total",
			Help:      "Geocoder lookups by outcome.",
		}, []string{"outcome"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_cache_total",
			Help:      "Geocoder cache lookups by result.",
		}, []string{"result"}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.IngestPages,
		m.IngestRecords,
		m.IngestRuns,
		m.IngestDuration,
		m.IngestRunning,
		m.LastIngestTime,
		m.GeoSourceRecords,
		m.RecordsLoaded,
		m.APIRequests,
		m.APIDuration,
		m.GeocodeRequests,
		m.GeocodeCache,
	}
}

// NewMetrics creates the metrics and registers them with reg. A nil reg
// uses the default Prometheus registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := newMetrics()
	reg.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates Metrics on a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return NewMetrics(prometheus.NewRegistry())
}

// ObserveGeoSources replaces the per-source gauge values.
func (m *Metrics) ObserveGeoSources(counts map[string]int) {
	m.GeoSourceRecords.Reset()
	for src, n := range counts {
		m.GeoSourceRecords.WithLabelValues(src).Set(float64(n))
	}
}
