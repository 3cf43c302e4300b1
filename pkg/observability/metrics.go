package observability

import (
	"context"
	"time"

	"github.com/aretw0/parley/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// MetricsConfig configures the collectors.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "parley").
	Namespace string

	// Buckets are the histogram buckets for request duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the collectors.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

// Metrics holds the engine collectors.
type Metrics struct {
	Intents       *prometheus.CounterVec
	FilterResults *prometheus.CounterVec
	Redirects     *prometheus.CounterVec
	Transitions   *prometheus.CounterVec
	Requests      *prometheus.HistogramVec
}

// NewMetrics creates and registers the collectors.
func NewMetrics(opts ...MetricsOption) (*Metrics, error) {
	cfg := MetricsConfig{
		Namespace: "parley",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	m := &Metrics{
		Intents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "intents_total",
			Help:      "Intents dispatched to a handler, by state and intent.",
		}, []string{"state", "intent"}),
		FilterResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "filter_results_total",
			Help:      "Filter executions, by filter and result.",
		}, []string{"filter", "result"}),
		Redirects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "redirects_total",
			Help:      "Filter redirects, by source and target state.",
		}, []string{"from", "to"}),
		Transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "transitions_total",
			Help:      "State transitions, by target state.",
		}, []string{"state"}),
		Requests: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Name:      "request_duration_seconds",
			Help:      "Duration of dialog requests, by outcome.",
			Buckets:   cfg.Buckets,
		}, []string{"outcome"}),
	}

	for _, c := range []prometheus.Collector{m.Intents, m.FilterResults, m.Redirects, m.Transitions, m.Requests} {
		if err := cfg.Registry.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Hooks returns lifecycle hooks feeding the counters.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTransition: func(_ context.Context, e *domain.TransitionEvent) {
			m.Transitions.WithLabelValues(e.To).Inc()
		},
		OnIntent: func(_ context.Context, e *domain.IntentEvent) {
			m.Intents.WithLabelValues(e.State, e.Intent).Inc()
		},
		OnFilter: func(_ context.Context, e *domain.FilterEvent) {
			m.FilterResults.WithLabelValues(e.Filter, e.Result.String()).Inc()
		},
		OnRedirect: func(_ context.Context, e *domain.RedirectEvent) {
			m.Redirects.WithLabelValues(e.FromState, e.ToState).Inc()
		},
	}
}

// ObserveRequest records the duration of a request started at start.
func (m *Metrics) ObserveRequest(start time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.Requests.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
}
