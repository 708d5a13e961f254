package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "movieapp",
		Name:      "http_requests_total",
		Help:      "Total HTTP requests by method, path and status code.",
	}, []string{"method", "path", "status"})

	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "movieapp",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration in seconds.",
		Buckets:   []float64{0.05, 0.1, 0.3, 0.5, 1, 2, 5, 10},
	}, []string{"method", "path"})

	CatalogRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "movieapp",
		Name:      "catalog_requests_total",
		Help:      "Total requests to the movie catalog API by endpoint and result status.",
	}, []string{"endpoint", "status"})

	CatalogRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "movieapp",
		Name:      "catalog_request_duration_seconds",
		Help:      "Movie catalog request duration in seconds.",
		Buckets:   []float64{0.1, 0.3, 0.5, 1, 2, 5, 10},
	}, []string{"endpoint"})

	CatalogCacheHitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "movieapp",
		Name:      "catalog_cache_hits_total",
		Help:      "Total number of catalog page cache hits.",
	})

	TrendingUpdatesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "movieapp",
		Name:      "trending_updates_total",
		Help:      "Total trending counter upserts by result status.",
	}, []string{"status"})

	LiveSessionsActive = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "movieapp",
		Name:      "live_sessions_active",
		Help:      "Number of currently connected live search sessions.",
	})
)

func Register(reg prometheus.Registerer) {
	reg.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		CatalogRequestsTotal,
		CatalogRequestDuration,
		CatalogCacheHitsTotal,
		TrendingUpdatesTotal,
		LiveSessionsActive,
	)
}
