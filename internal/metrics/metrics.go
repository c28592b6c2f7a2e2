// Package metrics provides Prometheus metrics for the rickmorty client.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Network metrics
	networkRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rickmorty_network_requests_total",
			Help: "Total number of API requests issued",
		},
		[]string{"kind", "status"},
	)

	networkBytesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rickmorty_network_bytes_total",
			Help: "Total bytes received from the API",
		},
		[]string{"kind"},
	)

	// Cache metrics
	cacheLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rickmorty_cache_lookups_total",
			Help: "Persistent cache lookups by result",
		},
		[]string{"kind", "result"},
	)

	cacheWriteErrorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "rickmorty_cache_write_errors_total",
			Help: "Cache writes that failed after a successful fetch",
		},
	)

	// Offline metrics
	offlineLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rickmorty_offline_lookups_total",
			Help: "Offline reads by the source that served them",
		},
		[]string{"source"},
	)

	fallbackIndexSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "rickmorty_fallback_index_entries",
			Help: "Number of paths held in the in-memory fallback index",
		},
	)

	recordCountEstimate = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "rickmorty_record_count_estimate",
			Help: "Character count derived from the cache directory while offline",
		},
	)

	// Connectivity metrics
	connectivityOnline = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "rickmorty_connectivity_online",
			Help: "1 when the API is reachable, 0 otherwise",
		},
	)

	connectivityTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rickmorty_connectivity_transitions_total",
			Help: "Reachability transitions by target state",
		},
		[]string{"state"},
	)
)

// Offline lookup sources.
const (
	SourceIndex    = "index"
	SourceEstimate = "estimate"
	SourceDisk     = "disk"
	SourceMiss     = "miss"
)

// Handler returns the HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordNetworkRequest records a completed or failed API request.
func RecordNetworkRequest(kind, status string, bytes int) {
	networkRequestsTotal.WithLabelValues(kind, status).Inc()
	if bytes > 0 {
		networkBytesTotal.WithLabelValues(kind).Add(float64(bytes))
	}
}

// RecordCacheLookup records a persistent cache hit or miss.
func RecordCacheLookup(kind string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	cacheLookupsTotal.WithLabelValues(kind, result).Inc()
}

// RecordCacheWriteError records a failed cache write.
func RecordCacheWriteError() {
	cacheWriteErrorsTotal.Inc()
}

// RecordOfflineLookup records which source served an offline read.
func RecordOfflineLookup(source string) {
	offlineLookupsTotal.WithLabelValues(source).Inc()
}

// SetFallbackIndexSize updates the fallback index gauge.
func SetFallbackIndexSize(n int) {
	fallbackIndexSize.Set(float64(n))
}

// SetRecordCountEstimate updates the estimate gauge.
func SetRecordCountEstimate(n int) {
	recordCountEstimate.Set(float64(n))
}

// RecordTransition records a connectivity transition.
func RecordTransition(state string, online bool) {
	connectivityTransitionsTotal.WithLabelValues(state).Inc()
	if online {
		connectivityOnline.Set(1)
	} else {
		connectivityOnline.Set(0)
	}
}
