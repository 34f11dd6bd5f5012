package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/qbank-admin-api/internal/models"
)

// Labels for backend query outcomes.
const (
	QueryOutcomeSearch   = "search"
	QueryOutcomeFallback = "fallback"
	QueryOutcomeEmpty    = "empty"
	QueryOutcomeCached   = "cached"
)

// MetricsService encapsulates Prometheus instrumentation and provides lightweight snapshots for API consumption.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLatency    prometheus.Observer
	cacheWrite      prometheus.Observer
	cacheHitRatio   prometheus.Gauge
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
	backendDuration *prometheus.HistogramVec
	searchOutcomes  *prometheus.CounterVec
	presetOps       *prometheus.CounterVec
	staleResults    prometheus.Counter
	workspaces      prometheus.Gauge

	cacheHitCount        uint64
	cacheMissCount       uint64
	requestCount         uint64
	requestDurationTotal uint64
	backendQueryCount    uint64
	fallbackCount        uint64
	staleCount           uint64
	workspaceCount       int64
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_latency_seconds",
		Help:    "Latency for cache operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheWrite := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_write_seconds",
		Help:    "Latency for cache set operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheHitRatio := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cache_hit_ratio",
		Help: "Ratio of cache hits to total cache lookups",
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	backendDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "question_backend_request_duration_seconds",
		Help:    "Duration of calls to the question backend",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint", "result"})

	searchOutcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "question_search_outcomes_total",
		Help: "Question searches by the source that produced the result",
	}, []string{"source"})

	presetOps := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "filter_preset_operations_total",
		Help: "Filter preset operations by name and result",
	}, []string{"operation", "result"})

	staleResults := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "workspace_stale_results_total",
		Help: "Query results dropped because a newer query had been dispatched",
	})

	workspaces := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "workspaces_active",
		Help: "Number of open filter workspaces",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheLatency, cacheWrite, cacheHitRatio, cacheHits, cacheMisses,
		backendDuration, searchOutcomes, presetOps, staleResults, workspaces, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:        registry,
		handler:         handler,
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		cacheLatency:    cacheLatency,
		cacheWrite:      cacheWrite,
		cacheHitRatio:   cacheHitRatio,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
		backendDuration: backendDuration,
		searchOutcomes:  searchOutcomes,
		presetOps:       presetOps,
		staleResults:    staleResults,
		workspaces:      workspaces,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics and aggregates simple stats for snapshots.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
	atomic.AddUint64(&m.requestCount, 1)
	atomic.AddUint64(&m.requestDurationTotal, uint64(duration.Nanoseconds()))
}

// RecordCacheOperation records cache hit/miss metrics and updates hit ratio.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	if hit {
		m.cacheHits.Inc()
		atomic.AddUint64(&m.cacheHitCount, 1)
	} else {
		m.cacheMisses.Inc()
		atomic.AddUint64(&m.cacheMissCount, 1)
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	total := hits + atomic.LoadUint64(&m.cacheMissCount)
	if total > 0 {
		m.cacheHitRatio.Set(float64(hits) / float64(total))
	}
}

// ObserveCacheWrite tracks the duration for cache write operations.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// ObserveBackendRequest records one call to the question backend.
func (m *MetricsService) ObserveBackendRequest(endpoint string, err error, duration time.Duration) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.backendDuration.WithLabelValues(endpoint, result).Observe(duration.Seconds())
	atomic.AddUint64(&m.backendQueryCount, 1)
}

// RecordSearchOutcome counts which source answered a search.
func (m *MetricsService) RecordSearchOutcome(source string) {
	if m == nil {
		return
	}
	m.searchOutcomes.WithLabelValues(source).Inc()
	if source == QueryOutcomeFallback || source == QueryOutcomeEmpty {
		atomic.AddUint64(&m.fallbackCount, 1)
	}
}

// RecordPresetOperation counts a preset store operation.
func (m *MetricsService) RecordPresetOperation(operation string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.presetOps.WithLabelValues(operation, result).Inc()
}

// RecordStaleResult counts a query result discarded in favour of a newer dispatch.
func (m *MetricsService) RecordStaleResult() {
	if m == nil {
		return
	}
	m.staleResults.Inc()
	atomic.AddUint64(&m.staleCount, 1)
}

// SetActiveWorkspaces publishes the number of open workspaces.
func (m *MetricsService) SetActiveWorkspaces(n int) {
	if m == nil {
		return
	}
	m.workspaces.Set(float64(n))
	atomic.StoreInt64(&m.workspaceCount, int64(n))
}

// Snapshot returns aggregated metrics suitable for the metrics summary endpoint.
func (m *MetricsService) Snapshot() models.SystemMetrics {
	if m == nil {
		return models.SystemMetrics{}
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	requests := atomic.LoadUint64(&m.requestCount)
	reqDuration := atomic.LoadUint64(&m.requestDurationTotal)

	var cacheRatio float64
	if totalLookups := hits + misses; totalLookups > 0 {
		cacheRatio = float64(hits) / float64(totalLookups)
	}

	var avgRequestMs float64
	if requests > 0 {
		avgRequestMs = float64(reqDuration) / float64(requests) / float64(time.Millisecond)
	}

	return models.SystemMetrics{
		RequestsTotal:            requests,
		AverageRequestDurationMs: avgRequestMs,
		CacheHits:                hits,
		CacheMisses:              misses,
		CacheHitRatio:            cacheRatio,
		BackendQueries:           atomic.LoadUint64(&m.backendQueryCount),
		BackendFallbacks:         atomic.LoadUint64(&m.fallbackCount),
		StaleResultsDropped:      atomic.LoadUint64(&m.staleCount),
		ActiveWorkspaces:         atomic.LoadInt64(&m.workspaceCount),
		Goroutines:               runtime.NumGoroutine(),
		GeneratedAt:              time.Now().UTC(),
	}
}
