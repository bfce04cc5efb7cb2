package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusMetrics instruments the catalog daemon's query and build paths.
type PrometheusMetrics struct {
	lookups        *prometheus.CounterVec
	searchHits     prometheus.Histogram
	buildDuration  *prometheus.HistogramVec
	catalogEntries prometheus.Gauge
	catalogReloads *prometheus.CounterVec
}

func NewPrometheusMetrics(registerer prometheus.Registerer) *PrometheusMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registerer)

	return &PrometheusMetrics{
		lookups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bioshelf_lookups_total",
				Help: "Total number of catalog lookups by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),
		searchHits: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "bioshelf_search_results",
				Help:    "Number of results returned per free-text search",
				Buckets: []float64{0, 1, 2, 3, 5, 10, 25, 50},
			},
		),
		buildDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bioshelf_module_build_duration_seconds",
				Help:    "Duration of module file generation in seconds",
				Buckets: []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"outcome"},
		),
		catalogEntries: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "bioshelf_catalog_entries",
				Help: "Container entries in the current catalog snapshot",
			},
		),
		catalogReloads: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bioshelf_catalog_reloads_total",
				Help: "Total number of catalog reloads by source",
			},
			[]string{"source"},
		),
	}
}

func (m *PrometheusMetrics) RecordLookup(operation string, found bool) {
	if m == nil {
		return
	}
	outcome := "hit"
	if !found {
		outcome = "miss"
	}
	m.lookups.WithLabelValues(operation, outcome).Inc()
}

func (m *PrometheusMetrics) RecordSearch(resultCount int) {
	if m == nil {
		return
	}
	m.searchHits.Observe(float64(resultCount))
}

func (m *PrometheusMetrics) RecordBuild(duration time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.buildDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}

func (m *PrometheusMetrics) SetCatalogEntries(count int) {
	if m == nil {
		return
	}
	m.catalogEntries.Set(float64(count))
}

func (m *PrometheusMetrics) RecordReload(source string) {
	if m == nil {
		return
	}
	m.catalogReloads.WithLabelValues(source).Inc()
}
