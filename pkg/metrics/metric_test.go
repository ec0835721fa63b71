package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counterValue(t *testing.T, r *Registry, name string) float64 {
	t.Helper()
	families, err := r.GetRegistry().Gather()
	require.NoError(t, err)
	total := 0.0
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			total += m.GetCounter().GetValue()
		}
	}
	return total
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	r.ObserveEvaluation("ordinary", "isolatable", time.Millisecond, 2)
	r.ObserveEvaluation("burst", "not_isolatable", time.Millisecond, 0)
	r.ObserveHTTPRequest("POST", "/api/isolation/evaluate", "200", time.Millisecond)
	r.CacheHitsTotal.Inc()

	assert.Equal(t, 2.0, counterValue(t, r, "guandao_evaluations_total"))
	assert.Equal(t, 1.0, counterValue(t, r, "guandao_http_requests_total"))
	assert.Equal(t, 1.0, counterValue(t, r, "guandao_cache_hits_total"))

	// two registries never clash
	NewRegistry().CacheHitsTotal.Inc()
	assert.Equal(t, 1.0, counterValue(t, r, "guandao_cache_hits_total"))

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "guandao_maxflow_augmentations")
}
