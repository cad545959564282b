// Package metrics holds the Prometheus collectors exposed on /metrics.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "canconf"

// Registry is the process-wide registry; nothing is registered on the
// Prometheus default registry.
var Registry = prometheus.NewRegistry()

var initOnce sync.Once

// AppInfo exposes the build version as a label; the value is always 1.
var AppInfo = promauto.With(Registry).NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "app_info",
		Help:      "Application version information (always 1, version in labels)",
	},
	[]string{"version"},
)

// Catalog metrics
var (
	// CatalogEvents is the number of events per tab at the last refresh.
	CatalogEvents = promauto.With(Registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "catalog_events",
			Help:      "Number of catalog events by tab (upcoming|past)",
		},
		[]string{"tab"},
	)

	// FallbackDates counts events whose date text had no month name.
	FallbackDates = promauto.With(Registry).NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "catalog_fallback_dates",
			Help:      "Number of catalog events whose date could not be read and sort last",
		},
	)

	// RefreshDuration records how long a catalog refresh took.
	RefreshDuration = promauto.With(Registry).NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "catalog_refresh_duration_seconds",
			Help:      "Duration of catalog refreshes in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
		},
	)
)

// Source metrics
var (
	// ICSFetchTotal counts feed fetches by source and result (fresh|cache|error).
	ICSFetchTotal = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ics_fetch_total",
			Help:      "Total number of ICS feed fetches",
		},
		[]string{"source", "result"},
	)

	// ScrapeRunsTotal counts scraper runs by result (ok|error).
	ScrapeRunsTotal = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scrape_runs_total",
			Help:      "Total number of hackathon scraper runs",
		},
		[]string{"result"},
	)

	// ScrapeEventsNew is the number of new events found by the last scrape.
	ScrapeEventsNew = promauto.With(Registry).NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "scrape_events_new",
			Help:      "New Canadian hackathons found by the last scraper run",
		},
	)
)

// Init registers the runtime collectors and records the build version.
// Calling it more than once is harmless.
func Init(version string) {
	initOnce.Do(func() {
		Registry.MustRegister(collectors.NewGoCollector())
		Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
	AppInfo.Reset()
	AppInfo.WithLabelValues(version).Set(1)
}

// Handler serves the registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}
