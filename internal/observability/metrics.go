package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "openmat"

// Metrics holds the Prometheus counters, histograms, and gauges for the catalog
// service.
type Metrics struct {
	// Catalog load metrics.
	CatalogLoads        *prometheus.CounterVec   // labels: dataset={directory,events}, outcome={success,error,missing}
	CatalogLoadDuration prometheus.Histogram     // full reload of both datasets
	RowsLoaded          *prometheus.CounterVec   // labels: dataset
	CatalogRows         *prometheus.GaugeVec     // labels: dataset; rows in the live snapshot
	CatalogReady        prometheus.Gauge

	// ZIP locator metrics.
	ZipLookups     *prometheus.CounterVec // labels: source={memory,store,network,failed}
	ZipAPIDuration prometheus.Histogram

	// Place geocoding metrics.
	GeocodeRequests    *prometheus.CounterVec   // labels: provider={mapbox,nominatim}, outcome={success,error,empty}
	GeocodeCache       *prometheus.CounterVec   // labels: result={hit,miss}
	GeocodeAPIDuration *prometheus.HistogramVec // labels: provider
	GeocodeEnabled     prometheus.Gauge

	// Admin submission metrics.
	SubmissionsConsumed *prometheus.CounterVec // labels: dataset
	SubmissionErrors    prometheus.Counter
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.CatalogLoads,
		m.CatalogLoadDuration,
		m.RowsLoaded,
		m.CatalogRows,
		m.CatalogReady,
		m.ZipLookups,
		m.ZipAPIDuration,
		m.GeocodeRequests,
		m.GeocodeCache,
		m.GeocodeAPIDuration,
		m.GeocodeEnabled,
		m.SubmissionsConsumed,
		m.SubmissionErrors,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		CatalogLoads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "catalog_loads_total",
			Help:      "Dataset loads by dataset and outcome.",
		}, []string{"dataset", "outcome"}),
		CatalogLoadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "catalog_load_duration_seconds",
			Help:      "Duration of a complete fetch-parse-normalize reload.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		RowsLoaded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_loaded_total",
			Help:      "Rows parsed from CSV sources by dataset.",
		}, []string{"dataset"}),
		CatalogRows: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "catalog_rows",
			Help:      "Rows in the live snapshot by dataset.",
		}, []string{"dataset"}),
		CatalogReady: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "catalog_ready",
			Help:      "1 once the first snapshot has loaded, 0 before.",
		}),
		ZipLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "zip_lookups_total",
			Help:      "ZIP coordinate lookups by the source that answered them.",
		}, []string{"source"}),
		ZipAPIDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "zip_api_duration_seconds",
			Help:      "ZIP geocoding API request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_requests_total",
			Help:      "Place geocoding API requests by provider and outcome.",
		}, []string{"provider", "outcome"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_cache_total",
			Help:      "Place geocoding cache lookups by result.",
		}, []string{"result"}),
		GeocodeAPIDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "geocode_api_duration_seconds",
			Help:      "Place geocoding API request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"provider"}),
		GeocodeEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "geocode_enabled",
			Help:      "1 when place geocoding enrichment is enabled, 0 otherwise.",
		}),
		SubmissionsConsumed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submissions_consumed_total",
			Help:      "Admin submissions applied to the live snapshot by dataset.",
		}, []string{"dataset"}),
		SubmissionErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submission_errors_total",
			Help:      "Submissions messages that could not be parsed.",
		}),
	}
}
