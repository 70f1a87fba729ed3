package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	RowsProcessed    *prometheus.CounterVec
	RecordsEnriched  *prometheus.CounterVec
	ProviderRequests *prometheus.CounterVec
	RequestSeconds   *prometheus.HistogramVec
	CacheLookups     *prometheus.CounterVec
	ActiveWorkers    prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		RowsProcessed: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "geoenrich_rows_processed_total",
			Help: "Total number of source rows processed, by validation status.",
		}, []string{"status"}),
		RecordsEnriched: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "geoenrich_records_enriched_total",
			Help: "Total number of normalized records enriched, by outcome.",
		}, []string{"outcome"}),
		ProviderRequests: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "geoenrich_provider_requests_total",
			Help: "Total number of geocoding provider calls, by provider and outcome.",
		}, []string{"provider", "outcome"}),
		RequestSeconds: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "geoenrich_provider_request_duration_seconds",
			Help:    "Duration of requests to the geocoding provider API.",
			Buckets: prometheus.DefBuckets,
		}, []string{"provider"}),
		CacheLookups: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "geoenrich_cache_lookups_total",
			Help: "Total number of enrichment cache lookups, by result.",
		}, []string{"result"}),
		ActiveWorkers: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "geoenrich_active_workers",
			Help: "Current number of active enrichment workers.",
		}),
	}
}
