// Package metrics exposes Prometheus metrics for the HTTP API, authorization
// decisions, predictions and the request-log queue.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/dmitrijs2005/modelkeeper/internal/server/algorithms"
	"github.com/dmitrijs2005/modelkeeper/internal/server/auth"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector owns a private registry, so several instances can coexist in tests.
type Collector struct {
	registry  *prometheus.Registry
	namespace string

	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
	Decisions    *prometheus.CounterVec
	Predictions  *prometheus.CounterVec
}

func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	httpRequests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	decisions := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "authorization_decisions_total",
			Help:      "Authorization guard decisions by target kind and outcome",
		},
		[]string{"kind", "outcome"},
	)

	predictions := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "predictions_total",
			Help:      "Model predictions by algorithm and result",
		},
		[]string{"algorithm", "result"},
	)

	registry.MustRegister(
		httpRequests,
		httpDuration,
		decisions,
		predictions,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &Collector{
		registry:     registry,
		namespace:    namespace,
		HTTPRequests: httpRequests,
		HTTPDuration: httpDuration,
		Decisions:    decisions,
		Predictions:  predictions,
	}
}

// ObserveDecision counts one authorization outcome.
func (c *Collector) ObserveDecision(kind auth.Kind, outcome auth.Outcome) {
	c.Decisions.WithLabelValues(kind.String(), outcome.String()).Inc()
}

// ObservePrediction counts one prediction. Unknown algorithm names are folded
// into a single label value to keep cardinality bounded.
func (c *Collector) ObservePrediction(algorithm string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	if _, ok := algorithms.Resolve(algorithm); !ok {
		algorithm = "unknown"
	}
	c.Predictions.WithLabelValues(algorithm, result).Inc()
}

// ObserveRequest records one served HTTP request.
func (c *Collector) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	c.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.HTTPDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// WatchDropped exports a counter read from fn, such as a queue's drop count.
func (c *Collector) WatchDropped(name, help string, fn func() uint64) error {
	return c.registry.Register(prometheus.NewCounterFunc(
		prometheus.CounterOpts{
			Namespace: c.namespace,
			Name:      name,
			Help:      help,
		},
		func() float64 { return float64(fn()) },
	))
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// Registry is exposed for tests and for registering extra collectors.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}
