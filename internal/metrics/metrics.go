package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Resolver metrics
	QueriesTotal         *prometheus.CounterVec
	QueryDurationSeconds *prometheus.HistogramVec
	RetrievalTopScore    prometheus.Histogram

	// LLM metrics
	LLMTotal           *prometheus.CounterVec
	LLMDuration        *prometheus.HistogramVec
	LLMFallbackTotal   *prometheus.CounterVec
	LLMFallbackLatency *prometheus.HistogramVec

	// Cache metrics
	CacheHitsTotal   *prometheus.CounterVec
	CacheMissesTotal *prometheus.CounterVec

	// HTTP metrics
	HTTPErrorsTotal *prometheus.CounterVec

	// Rate limiter metrics
	RateLimiterWaitDuration *prometheus.HistogramVec
	RateLimiterDropped      *prometheus.CounterVec
	RateLimiterActive       *prometheus.GaugeVec

	// Snapshot metrics
	SnapshotLoadsTotal   *prometheus.CounterVec
	SnapshotLoadDuration prometheus.Histogram
	CatalogEntities      prometheus.Gauge
	KnowledgeChunks      prometheus.Gauge
}

// New creates a new Metrics instance with all metrics registered
func New(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		QueriesTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "campus_queries_total",
				Help: "Total number of resolved queries by result type and classification source",
			},
			[]string{"type", "source"}, // type: greeting, location, route, answer, error
		),

		QueryDurationSeconds: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "campus_query_duration_seconds",
				Help:    "End to end query resolution duration by result type",
				Buckets: []float64{0.005, 0.05, 0.25, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"type"},
		),

		RetrievalTopScore: promauto.With(registry).NewHistogram(
			prometheus.HistogramOpts{
				Name:    "campus_retrieval_top_similarity",
				Help:    "Cosine similarity of the best knowledge chunk per answered query",
				Buckets: []float64{0, 0.2, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1},
			},
		),

		LLMTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "campus_llm_requests_total",
				Help: "Total LLM requests by provider, operation and status",
			},
			[]string{"provider", "operation", "status"}, // operation: generate, classify, embed
		),

		LLMDuration: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "campus_llm_duration_seconds",
				Help:    "Successful LLM request duration by provider and operation",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"provider", "operation"},
		),

		LLMFallbackTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "campus_llm_fallback_total",
				Help: "Total provider fallbacks that ended in success",
			},
			[]string{"from", "to", "operation"},
		),

		LLMFallbackLatency: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "campus_llm_fallback_latency_seconds",
				Help:    "Total latency of requests served by a fallback provider",
				Buckets: []float64{0.5, 1, 2, 5, 10, 30},
			},
			[]string{"from", "to", "operation"},
		),

		CacheHitsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "campus_cache_hits_total",
				Help: "Total number of cache hits by cache name",
			},
			[]string{"cache"},
		),

		CacheMissesTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "campus_cache_misses_total",
				Help: "Total number of cache misses by cache name",
			},
			[]string{"cache"},
		),

		HTTPErrorsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "campus_http_errors_total",
				Help: "Total HTTP errors by type and route",
			},
			[]string{"error_type", "route"}, // error_type: bad_request, rate_limit, not_ready
		),

		RateLimiterWaitDuration: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "campus_rate_limiter_wait_duration_seconds",
				Help:    "Time spent waiting for rate limiter token by limiter type",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5},
			},
			[]string{"limiter_type"},
		),

		RateLimiterDropped: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "campus_rate_limiter_dropped_total",
				Help: "Total number of requests dropped by rate limiter",
			},
			[]string{"limiter_type"}, // limiter_type: client, llm
		),

		RateLimiterActive: promauto.With(registry).NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "campus_rate_limiter_active_keys",
				Help: "Number of keys currently tracked by a keyed limiter",
			},
			[]string{"limiter_type"},
		),

		SnapshotLoadsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "campus_snapshot_loads_total",
				Help: "Total snapshot loads by origin and status",
			},
			[]string{"origin", "status"}, // origin: startup, poll, manual
		),

		SnapshotLoadDuration: promauto.With(registry).NewHistogram(
			prometheus.HistogramOpts{
				Name:    "campus_snapshot_load_duration_seconds",
				Help:    "Duration of building and swapping in a new snapshot",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 120},
			},
		),

		CatalogEntities: promauto.With(registry).NewGauge(
			prometheus.GaugeOpts{
				Name: "campus_catalog_entities",
				Help: "Number of entities in the active snapshot",
			},
		),

		KnowledgeChunks: promauto.With(registry).NewGauge(
			prometheus.GaugeOpts{
				Name: "campus_knowledge_chunks",
				Help: "Number of knowledge chunks in the active snapshot",
			},
		),
	}

	return m
}

// RecordQuery records a resolved query.
func (m *Metrics) RecordQuery(resultType, source string, duration float64) {
	if m == nil {
		return
	}
	m.QueriesTotal.WithLabelValues(resultType, source).Inc()
	m.QueryDurationSeconds.WithLabelValues(resultType).Observe(duration)
}

// RecordRetrieval records the best similarity of a retrieval.
func (m *Metrics) RecordRetrieval(topScore float64) {
	if m == nil {
		return
	}
	m.RetrievalTopScore.Observe(topScore)
}

// RecordLLM records an LLM call outcome. Duration is observed only on success.
func (m *Metrics) RecordLLM(provider, operation, status string, duration float64) {
	if m == nil {
		return
	}
	m.LLMTotal.WithLabelValues(provider, operation, status).Inc()
	if status == "success" {
		m.LLMDuration.WithLabelValues(provider, operation).Observe(duration)
	}
}

// RecordLLMFallback records a request that succeeded on a later provider.
func (m *Metrics) RecordLLMFallback(from, to, operation string, total float64) {
	if m == nil {
		return
	}
	m.LLMFallbackTotal.WithLabelValues(from, to, operation).Inc()
	m.LLMFallbackLatency.WithLabelValues(from, to, operation).Observe(total)
}

// RecordCacheHit records a cache hit
func (m *Metrics) RecordCacheHit(cache string) {
	if m == nil {
		return
	}
	m.CacheHitsTotal.WithLabelValues(cache).Inc()
}

// RecordCacheMiss records a cache miss
func (m *Metrics) RecordCacheMiss(cache string) {
	if m == nil {
		return
	}
	m.CacheMissesTotal.WithLabelValues(cache).Inc()
}

// RecordHTTPError records HTTP error metrics
func (m *Metrics) RecordHTTPError(errorType, route string) {
	if m == nil {
		return
	}
	m.HTTPErrorsTotal.WithLabelValues(errorType, route).Inc()
}

// RecordRateLimiterWait records time spent waiting for rate limiter
func (m *Metrics) RecordRateLimiterWait(limiterType string, duration float64) {
	if m == nil {
		return
	}
	m.RateLimiterWaitDuration.WithLabelValues(limiterType).Observe(duration)
}

// RecordRateLimiterDrop records a request dropped by rate limiter
func (m *Metrics) RecordRateLimiterDrop(limiterType string) {
	if m == nil {
		return
	}
	m.RateLimiterDropped.WithLabelValues(limiterType).Inc()
}

// SetRateLimiterActive sets the number of tracked keys for a limiter.
func (m *Metrics) SetRateLimiterActive(limiterType string, count int) {
	if m == nil {
		return
	}
	m.RateLimiterActive.WithLabelValues(limiterType).Set(float64(count))
}

// RecordSnapshotLoad records a snapshot load attempt.
func (m *Metrics) RecordSnapshotLoad(origin, status string, duration float64) {
	if m == nil {
		return
	}
	m.SnapshotLoadsTotal.WithLabelValues(origin, status).Inc()
	if status == "success" {
		m.SnapshotLoadDuration.Observe(duration)
	}
}

// SetSnapshotSize publishes the size of the active snapshot.
func (m *Metrics) SetSnapshotSize(entities, chunks int) {
	if m == nil {
		return
	}
	m.CatalogEntities.Set(float64(entities))
	m.KnowledgeChunks.Set(float64(chunks))
}
