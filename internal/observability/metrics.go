package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registry *prometheus.Registry

	// Ingestion cycle rate and duration. Watch for: cycles taking longer
	// than the fetch interval (skipped runs), sudden stops.
	CyclesTotal   prometheus.Counter
	CycleDuration prometheus.Histogram

	// Provider call outcomes. Watch for: error vs success ratio.
	ProviderCallsTotal *prometheus.CounterVec

	// Readings persisted per cycle across all cities.
	ReadingsStoredTotal prometheus.Counter

	// Daily summary rows written.
	SummariesWrittenTotal prometheus.Counter

	// Alerts published to the notification topic, by outcome.
	AlertsTotal *prometheus.CounterVec
)

func init() {
	registry = prometheus.NewRegistry()

	registry.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)

	CyclesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ingestionCyclesTotal",
			Help: "Total number of completed ingestion cycles",
		},
	)
	CycleDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ingestionCycleDurationSeconds",
			Help:    "Full cycle duration in seconds (fetch, aggregate, evaluate)",
			Buckets: []float64{.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
	)
	ProviderCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "providerCallsTotal",
			Help: "Total number of weather provider API calls",
		},
		[]string{"status"},
	)
	ReadingsStoredTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "readingsStoredTotal",
			Help: "Total number of readings persisted",
		},
	)
	SummariesWrittenTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "summariesWrittenTotal",
			Help: "Total number of daily summary rows written",
		},
	)
	AlertsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alertsTotal",
			Help: "Total number of threshold alerts, by publish outcome",
		},
		[]string{"status"},
	)

	registry.MustRegister(
		CyclesTotal,
		CycleDuration,
		ProviderCallsTotal,
		ReadingsStoredTotal,
		SummariesWrittenTotal,
		AlertsTotal,
	)
}

// MetricsHandler returns the HTTP handler for the Prometheus scrape endpoint.
func MetricsHandler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
