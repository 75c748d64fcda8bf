package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExporter_ObserveSearch(t *testing.T) {
	e := New(Config{})

	e.ObserveSearch("bfs", "early_stop", 2*time.Second, 3, true)
	e.ObserveSearch("bfs", "exhausted", time.Second, 2, false)
	e.ObserveSearch("dfs", "exhausted", time.Second, 4, false)

	assert.Equal(t, 1.0, testutil.ToFloat64(e.searches.WithLabelValues("bfs", "early_stop")))
	assert.Equal(t, 1.0, testutil.ToFloat64(e.searches.WithLabelValues("bfs", "exhausted")))
	assert.Equal(t, 1.0, testutil.ToFloat64(e.earlyStops.WithLabelValues("bfs")))
	assert.Equal(t, 0.0, testutil.ToFloat64(e.earlyStops.WithLabelValues("dfs")))
}

func TestExporter_Counters(t *testing.T) {
	e := New(Config{})

	e.ObserveGenerated("creative", 3)
	e.ObserveGenerated("practical", 2)
	e.ObserveEvaluated(5)
	e.ObserveCache(4, 1)

	assert.Equal(t, 3.0, testutil.ToFloat64(e.generatedTotal.WithLabelValues("creative")))
	assert.Equal(t, 2.0, testutil.ToFloat64(e.generatedTotal.WithLabelValues("practical")))
	assert.Equal(t, 5.0, testutil.ToFloat64(e.evaluatedTotal))
	assert.Equal(t, 4.0, testutil.ToFloat64(e.cacheHits))
	assert.Equal(t, 1.0, testutil.ToFloat64(e.cacheMisses))
}

func TestExporter_InjectedRegistry(t *testing.T) {
	registry := prometheus.NewRegistry()
	e := New(Config{Registry: registry})
	assert.Same(t, registry, e.Registry())

	// A second exporter on its own registry must not collide.
	assert.NotPanics(t, func() { New(Config{}) })
}

func TestExporter_Handler(t *testing.T) {
	e := New(Config{})
	e.ObserveSearch("bfs", "exhausted", time.Second, 2, false)

	rec := httptest.NewRecorder()
	e.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "mindtree_engine_searches_total")
	assert.Contains(t, rec.Body.String(), "mindtree_engine_search_duration_seconds")
}
