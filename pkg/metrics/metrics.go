// Package metrics defines the Prometheus metric collectors used across the
// platform and exposes an HTTP handler for scraping.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors for the platform.
type Metrics struct {
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge
	ArticlesScoredTotal  *prometheus.CounterVec
	ScoreLatency         prometheus.Histogram
	SEOScoreDist         prometheus.Histogram
	AEOScoreDist         prometheus.Histogram
	MeshBuildsTotal      prometheus.Counter
	MeshNodes            prometheus.Gauge
	MeshCacheHitsTotal   prometheus.Counter
	MeshCacheMissesTotal prometheus.Counter
	LinksSanitizedTotal  *prometheus.CounterVec
	NormalizerRepairs    *prometheus.CounterVec
	GenerationRequests   *prometheus.CounterVec
	CircuitBreakerState  *prometheus.GaugeVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests by method, path, and status.",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed.",
			},
		),
		ArticlesScoredTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "articles_scored_total",
				Help: "Total articles scored by outcome (ok, error).",
			},
			[]string{"outcome"},
		),
		ScoreLatency: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "score_latency_seconds",
				Help:    "Single-document health scoring latency in seconds.",
				Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
			},
		),
		SEOScoreDist: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "seo_score",
				Help:    "Distribution of SEO scores across scored articles.",
				Buckets: []float64{0, 20, 40, 55, 65, 75, 85, 95, 100},
			},
		),
		AEOScoreDist: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "aeo_score",
				Help:    "Distribution of answer-engine scores across scored articles.",
				Buckets: []float64{0, 20, 40, 55, 65, 75, 85, 95, 100},
			},
		),
		MeshBuildsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "mesh_builds_total",
				Help: "Total semantic mesh builds.",
			},
		),
		MeshNodes: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "mesh_nodes",
				Help: "Number of nodes in the most recently built mesh.",
			},
		),
		MeshCacheHitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "mesh_cache_hits_total",
				Help: "Total mesh cache hits.",
			},
		),
		MeshCacheMissesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "mesh_cache_misses_total",
				Help: "Total mesh cache misses.",
			},
		),
		LinksSanitizedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "links_sanitized_total",
				Help: "Anchor outcomes during sanitization (kept, removed, passthrough).",
			},
			[]string{"outcome"},
		),
		NormalizerRepairs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "normalizer_repairs_total",
				Help: "Markdown repairs applied by kind (header, bold, list, annotation).",
			},
			[]string{"kind"},
		),
		GenerationRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "generation_requests_total",
				Help: "Generation service calls by outcome (ok, retryable, unauthorized, malformed).",
			},
			[]string{"outcome"},
		),
		CircuitBreakerState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "circuit_breaker_state",
				Help: "Circuit breaker state (0=closed, 1=open, 2=half-open).",
			},
			[]string{"name"},
		),
	}

	prometheus.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestsInFlight,
		m.ArticlesScoredTotal,
		m.ScoreLatency,
		m.SEOScoreDist,
		m.AEOScoreDist,
		m.MeshBuildsTotal,
		m.MeshNodes,
		m.MeshCacheHitsTotal,
		m.MeshCacheMissesTotal,
		m.LinksSanitizedTotal,
		m.NormalizerRepairs,
		m.GenerationRequests,
		m.CircuitBreakerState,
	)

	return m
}

// Handler returns the Prometheus scrape HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
