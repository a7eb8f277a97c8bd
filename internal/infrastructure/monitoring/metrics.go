package monitoring

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// MetricsCollector handles Prometheus metrics collection.
// A nil *MetricsCollector is valid and records nothing.
type MetricsCollector struct {
	logger   *zap.Logger
	gatherer prometheus.Gatherer

	// HTTP metrics
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Pipeline metrics
	pipelineRuns       *prometheus.CounterVec
	pipelineDuration   *prometheus.HistogramVec
	advisoryFailures   *prometheus.CounterVec
	advisoryDuration   *prometheus.HistogramVec
	advisoryCache      *prometheus.CounterVec
	skippedCandidates  prometheus.Counter
	priceLookups       *prometheus.CounterVec
	storeQueryDuration *prometheus.HistogramVec
}

// NewMetricsCollector registers every metric on reg
func NewMetricsCollector(reg *prometheus.Registry, logger *zap.Logger) *MetricsCollector {
	factory := promauto.With(reg)

	return &MetricsCollector{
		logger:   logger.Named("metrics"),
		gatherer: reg,

		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status_code"},
		),
		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status_code"},
		),

		pipelineRuns: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pantry_pipeline_runs_total",
				Help: "Completed analysis pipeline runs by kind and result source",
			},
			[]string{"kind", "source"},
		),
		pipelineDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pantry_pipeline_duration_seconds",
				Help:    "End-to-end analysis pipeline duration in seconds",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0},
			},
			[]string{"kind"},
		),
		advisoryFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pantry_advisory_failures_total",
				Help: "Advisory calls that fell back to heuristics, by reason",
			},
			[]string{"kind", "reason"},
		),
		advisoryDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pantry_advisory_request_duration_seconds",
				Help:    "Advisory service call duration in seconds",
				Buckets: []float64{0.1, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0},
			},
			[]string{"provider", "status"},
		),
		advisoryCache: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pantry_advisory_cache_total",
				Help: "Advisory cache lookups by result",
			},
			[]string{"result"},
		),
		skippedCandidates: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "pantry_allocator_skipped_candidates_total",
				Help: "Shopping candidates not accepted by the budget allocator",
			},
		),
		priceLookups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pantry_price_lookups_total",
				Help: "Price enrichment lookups by status",
			},
			[]string{"status"},
		),
		storeQueryDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pantry_store_query_duration_seconds",
				Help:    "Food store query duration in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0},
			},
			[]string{"operation"},
		),
	}
}

// HTTPMiddleware creates a Gin middleware for HTTP metrics collection
func (m *MetricsCollector) HTTPMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		statusCode := strconv.Itoa(c.Writer.Status())
		m.httpRequestsTotal.WithLabelValues(c.Request.Method, c.FullPath(), statusCode).Inc()
		m.httpRequestDuration.WithLabelValues(c.Request.Method, c.FullPath(), statusCode).Observe(duration)
	}
}

// PipelineRun records a completed pipeline run
func (m *MetricsCollector) PipelineRun(kind, source string, duration time.Duration) {
	if m == nil {
		return
	}
	m.pipelineRuns.WithLabelValues(kind, source).Inc()
	m.pipelineDuration.WithLabelValues(kind).Observe(duration.Seconds())
}

// AdvisoryFailure records a fallback taken for reason
func (m *MetricsCollector) AdvisoryFailure(kind, reason string) {
	if m == nil {
		return
	}
	m.advisoryFailures.WithLabelValues(kind, reason).Inc()
}

// AdvisoryRequest records one call to the advisory provider
func (m *MetricsCollector) AdvisoryRequest(provider, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.advisoryDuration.WithLabelValues(provider, status).Observe(duration.Seconds())
}

// CacheLookup records an advisory cache hit, miss or error
func (m *MetricsCollector) CacheLookup(result string) {
	if m == nil {
		return
	}
	m.advisoryCache.WithLabelValues(result).Inc()
}

// SkippedCandidates records candidates dropped by the allocator
func (m *MetricsCollector) SkippedCandidates(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.skippedCandidates.Add(float64(n))
}

// PriceLookup records one enrichment lookup
func (m *MetricsCollector) PriceLookup(status string) {
	if m == nil {
		return
	}
	m.priceLookups.WithLabelValues(status).Inc()
}

// StoreQuery records a food store read
func (m *MetricsCollector) StoreQuery(operation string, duration time.Duration) {
	if m == nil {
		return
	}
	m.storeQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// Handler returns the Prometheus metrics HTTP handler
func (m *MetricsCollector) Handler() http.Handler {
	if m == nil || m.gatherer == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
