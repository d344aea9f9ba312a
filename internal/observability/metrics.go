package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for a
// scrape run.
type Metrics struct {
	PagesFetched  prometheus.Counter
	FetchErrors   prometheus.Counter
	EmptyMonths   prometheus.Counter
	RowsExtracted prometheus.Counter

	// Reconciliation outcomes.
	RecordsInserted  prometheus.Counter
	RecordsReplaced  prometheus.Counter
	RecordsDiscarded prometheus.Counter

	// Persistence outcomes.
	RowsStored  prometheus.Counter
	RowsUpdated prometheus.Counter

	ScrapeRunning prometheus.Gauge
	FetchDuration prometheus.Histogram
}

// NewMetrics creates and registers all scraper metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		PagesFetched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "climate_scraper",
			Name:      "pages_fetched_total",
			Help:      "Total daily-data pages fetched from the portal.",
		}),
		FetchErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "climate_scraper",
			Name:      "fetch_errors_total",
			Help:      "Total station-month fetches that failed and were skipped.",
		}),
		EmptyMonths: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "climate_scraper",
			Name:      "empty_months_total",
			Help:      "Total station-months whose page held no report table.",
		}),
		RowsExtracted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "climate_scraper",
			Name:      "rows_extracted_total",
			Help:      "Total daily observation rows extracted from report tables.",
		}),
		RecordsInserted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "climate_scraper",
			Name:      "records_inserted_total",
			Help:      "Extracted records that filled an empty date slot.",
		}),
		RecordsReplaced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "climate_scraper",
			Name:      "records_replaced_total",
			Help:      "Extracted records that evicted a poorer record for the same date.",
		}),
		RecordsDiscarded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "climate_scraper",
			Name:      "records_discarded_total",
			Help:      "Extracted records dropped in favor of a richer existing record.",
		}),
		RowsStored: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "climate_scraper",
			Name:      "rows_stored_total",
			Help:      "Records written to the sink table.",
		}),
		RowsUpdated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "climate_scraper",
			Name:      "rows_updated_total",
			Help:      "Records that hit an existing primary key and took the update path.",
		}),
		ScrapeRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "climate_scraper",
			Name:      "scrape_running",
			Help:      "1 while a scrape run is active, 0 otherwise.",
		}),
		FetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "climate_scraper",
			Name:      "fetch_duration_seconds",
			Help:      "Duration of one station-month page fetch.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
	}

	prometheus.MustRegister(
		m.PagesFetched,
		m.FetchErrors,
		m.EmptyMonths,
		m.RowsExtracted,
		m.RecordsInserted,
		m.RecordsReplaced,
		m.RecordsDiscarded,
		m.RowsStored,
		m.RowsUpdated,
		m.ScrapeRunning,
		m.FetchDuration,
	)

	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		PagesFetched:     prometheus.NewCounter(prometheus.CounterOpts{Namespace: "climate_scraper", Name: "pages_fetched_total"}),
		FetchErrors:      prometheus.NewCounter(prometheus.CounterOpts{Namespace: "climate_scraper", Name: "fetch_errors_total"}),
		EmptyMonths:      prometheus.NewCounter(prometheus.CounterOpts{Namespace: "climate_scraper", Name: "empty_months_total"}),
		RowsExtracted:    prometheus.NewCounter(prometheus.CounterOpts{Namespace: "climate_scraper", Name: "rows_extracted_total"}),
		RecordsInserted:  prometheus.NewCounter(prometheus.CounterOpts{Namespace: "climate_scraper", Name: "records_inserted_total"}),
		RecordsReplaced:  prometheus.NewCounter(prometheus.CounterOpts{Namespace: "climate_scraper", Name: "records_replaced_total"}),
		RecordsDiscarded: prometheus.NewCounter(prometheus.CounterOpts{Namespace: "climate_scraper", Name: "records_discarded_total"}),
		RowsStored:       prometheus.NewCounter(prometheus.CounterOpts{Namespace: "climate_scraper", Name: "rows_stored_total"}),
		RowsUpdated:      prometheus.NewCounter(prometheus.CounterOpts{Namespace: "climate_scraper", Name: "rows_updated_total"}),
		ScrapeRunning:    prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "climate_scraper", Name: "scrape_running"}),
		FetchDuration:    prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "climate_scraper", Name: "fetch_duration_seconds"}),
	}
}
