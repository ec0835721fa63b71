package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds the service metrics on its own prometheus registry so tests can build
// as many as they like.
type Registry struct {
	EvaluationsTotal     *prometheus.CounterVec
	EvaluationDuration   *prometheus.HistogramVec
	MaxflowAugmentations prometheus.Histogram
	CacheHitsTotal       prometheus.Counter
	SnapshotRevision     prometheus.Gauge
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	WebsocketSubscribers prometheus.Gauge

	registry *prometheus.Registry
}

func NewRegistry() *Registry {
	r := &Registry{registry: prometheus.NewRegistry()}
	factory := promauto.With(r.registry)

	r.EvaluationsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "guandao_evaluations_total",
			Help: "Leak evaluations by leak type and outcome",
		},
		[]string{"leak_type", "outcome"},
	)
	r.EvaluationDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "guandao_evaluation_duration_seconds",
			Help:    "Time spent evaluating one leak",
			Buckets: []float64{.0005, .001, .005, .01, .05, .1, .5, 1, 5},
		},
		[]string{"leak_type"},
	)
	r.MaxflowAugmentations = factory.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "guandao_maxflow_augmentations",
			Help:    "Augmenting paths pushed per ordinary leak evaluation",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		},
	)
	r.CacheHitsTotal = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "guandao_cache_hits_total",
			Help: "Evaluations answered from the result cache",
		},
	)
	r.SnapshotRevision = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "guandao_snapshot_revision",
			Help: "Revision of the topology snapshot in use",
		},
	)
	r.HTTPRequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "guandao_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)
	r.HTTPRequestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "guandao_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
	r.WebsocketSubscribers = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "guandao_result_feed_subscribers",
			Help: "Connected result feed websocket subscribers",
		},
	)
	return r
}

func (r *Registry) ObserveEvaluation(leakType, outcome string, elapsed time.Duration, augmentations int) {
	r.EvaluationsTotal.WithLabelValues(leakType, outcome).Inc()
	r.EvaluationDuration.WithLabelValues(leakType).Observe(elapsed.Seconds())
	if augmentations > 0 {
		r.MaxflowAugmentations.Observe(float64(augmentations))
	}
}

func (r *Registry) ObserveHTTPRequest(method, path, status string, elapsed time.Duration) {
	r.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	r.HTTPRequestDuration.WithLabelValues(method, path).Observe(elapsed.Seconds())
}

func (r *Registry) GetRegistry() *prometheus.Registry {
	return r.registry
}

func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}
