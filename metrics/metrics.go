// Package metrics exports Prometheus metrics for the search engine.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Exporter collects engine metrics into an injected registry, so tests and
// concurrent engines stay isolated.
type Exporter struct {
	registry *prometheus.Registry

	searches       *prometheus.CounterVec
	searchLatency  *prometheus.HistogramVec
	earlyStops     *prometheus.CounterVec
	generatedTotal *prometheus.CounterVec
	evaluatedTotal prometheus.Counter
	cacheHits      prometheus.Counter
	cacheMisses    prometheus.Counter
	depthReached   prometheus.Histogram
}

// Config configures the exporter.
type Config struct {
	// Registry to register into; a fresh one is created when nil.
	Registry *prometheus.Registry

	// LatencyBuckets for search duration histograms, in seconds.
	LatencyBuckets []float64
}

// DefaultConfig returns the default exporter configuration.
func DefaultConfig() Config {
	return Config{
		LatencyBuckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120, 300},
	}
}

// New creates an exporter and registers its collectors.
func New(cfg Config) *Exporter {
	if len(cfg.LatencyBuckets) == 0 {
		cfg.LatencyBuckets = DefaultConfig().LatencyBuckets
	}
	registry := cfg.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	e := &Exporter{registry: registry}

	e.searches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mindtree",
			Subsystem: "engine",
			Name:      "searches_total",
			Help:      "Completed search runs by algorithm and outcome",
		},
		[]string{"algorithm", "outcome"},
	)
	e.searchLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "mindtree",
			Subsystem: "engine",
			Name:      "search_duration_seconds",
			Help:      "Wall-clock duration of search runs",
			Buckets:   cfg.LatencyBuckets,
		},
		[]string{"algorithm"},
	)
	e.earlyStops = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mindtree",
			Subsystem: "engine",
			Name:      "early_stops_total",
			Help:      "Runs terminated by the confidence threshold",
		},
		[]string{"algorithm"},
	)
	e.generatedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mindtree",
			Subsystem: "engine",
			Name:      "thoughts_generated_total",
			Help:      "Thoughts produced by the generator port, by origin",
		},
		[]string{"origin"},
	)
	e.evaluatedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "mindtree",
			Subsystem: "engine",
			Name:      "thoughts_evaluated_total",
			Help:      "Thoughts scored by the evaluator",
		},
	)
	e.cacheHits = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "mindtree",
			Subsystem: "cache",
			Name:      "score_hits_total",
			Help:      "Score cache hits",
		},
	)
	e.cacheMisses = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "mindtree",
			Subsystem: "cache",
			Name:      "score_misses_total",
			Help:      "Score cache misses",
		},
	)
	e.depthReached = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "mindtree",
			Subsystem: "engine",
			Name:      "depth_reached",
			Help:      "Deepest level reached per run",
			Buckets:   prometheus.LinearBuckets(1, 1, 10),
		},
	)

	registry.MustRegister(
		e.searches, e.searchLatency, e.earlyStops,
		e.generatedTotal, e.evaluatedTotal,
		e.cacheHits, e.cacheMisses, e.depthReached,
	)
	return e
}

// ObserveSearch records one completed run.
func (e *Exporter) ObserveSearch(algorithm, outcome string, duration time.Duration, depth int, earlyStopped bool) {
	e.searches.WithLabelValues(algorithm, outcome).Inc()
	e.searchLatency.WithLabelValues(algorithm).Observe(duration.Seconds())
	e.depthReached.Observe(float64(depth))
	if earlyStopped {
		e.earlyStops.WithLabelValues(algorithm).Inc()
	}
}

// ObserveGenerated records thoughts produced by the generator port.
func (e *Exporter) ObserveGenerated(origin string, n int) {
	e.generatedTotal.WithLabelValues(origin).Add(float64(n))
}

// ObserveEvaluated records thoughts scored by the evaluator.
func (e *Exporter) ObserveEvaluated(n int) {
	e.evaluatedTotal.Add(float64(n))
}

// ObserveCache records cumulative cache hit/miss deltas.
func (e *Exporter) ObserveCache(hits, misses int64) {
	e.cacheHits.Add(float64(hits))
	e.cacheMisses.Add(float64(misses))
}

// Handler serves the registry in Prometheus exposition format.
func (e *Exporter) Handler() http.Handler {
	return promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for callers that add their own
// collectors.
func (e *Exporter) Registry() *prometheus.Registry {
	return e.registry
}
