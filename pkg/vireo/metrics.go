package vireo

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsConfig configures the Prometheus metrics for a Runtime.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "vireo").
	Namespace string

	// Subsystem is the metrics subsystem (default: "runtime").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Runtime metrics.
type MetricsOption func(*MetricsConfig)

// WithMetricsNamespace sets the metrics namespace.
func WithMetricsNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithMetricsSubsystem sets the metrics subsystem.
func WithMetricsSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithMetricsConstLabels sets constant labels for all metrics.
func WithMetricsConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithMetricsRegistry sets the Prometheus registry.
func WithMetricsRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "vireo",
		Subsystem: "runtime",
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics collects Prometheus metrics for a Runtime. Attach it via the
// WithMetrics runtime option. A nil *Metrics is valid and records nothing.
type Metrics struct {
	scopesCreated       prometheus.Counter
	scopesDisposed      prometheus.Counter
	activeScopes        prometheus.Gauge
	nodesPushed         *prometheus.CounterVec
	cleanupsRun         prometheus.Counter
	fragmentsRegistered prometheus.Counter
	fragmentsResolved   prometheus.Counter
}

// NewMetrics creates and registers the Runtime metrics.
func NewMetrics(opts ...MetricsOption) *Metrics {
	cfg := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	factory := promauto.With(cfg.Registry)

	return &Metrics{
		scopesCreated: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   cfg.Namespace,
			Subsystem:   cfg.Subsystem,
			Name:        "scopes_created_total",
			Help:        "Total number of scopes created.",
			ConstLabels: cfg.ConstLabels,
		}),
		scopesDisposed: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   cfg.Namespace,
			Subsystem:   cfg.Subsystem,
			Name:        "scopes_disposed_total",
			Help:        "Total number of scopes disposed.",
			ConstLabels: cfg.ConstLabels,
		}),
		activeScopes: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   cfg.Namespace,
			Subsystem:   cfg.Subsystem,
			Name:        "active_scopes",
			Help:        "Number of live scopes in the arena.",
			ConstLabels: cfg.ConstLabels,
		}),
		nodesPushed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   cfg.Namespace,
			Subsystem:   cfg.Subsystem,
			Name:        "nodes_pushed_total",
			Help:        "Total reactive nodes pushed, by kind.",
			ConstLabels: cfg.ConstLabels,
		}, []string{"kind"}),
		cleanupsRun: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   cfg.Namespace,
			Subsystem:   cfg.Subsystem,
			Name:        "cleanups_run_total",
			Help:        "Total cleanup callbacks run during disposal.",
			ConstLabels: cfg.ConstLabels,
		}),
		fragmentsRegistered: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   cfg.Namespace,
			Subsystem:   cfg.Subsystem,
			Name:        "fragments_registered_total",
			Help:        "Total pending fragments registered.",
			ConstLabels: cfg.ConstLabels,
		}),
		fragmentsResolved: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   cfg.Namespace,
			Subsystem:   cfg.Subsystem,
			Name:        "fragments_resolved_total",
			Help:        "Total fragments resolved and flushed.",
			ConstLabels: cfg.ConstLabels,
		}),
	}
}

func (m *Metrics) scopeCreated() {
	if m == nil {
		return
	}
	m.scopesCreated.Inc()
	m.activeScopes.Inc()
}

func (m *Metrics) scopeDisposed() {
	if m == nil {
		return
	}
	m.scopesDisposed.Inc()
	m.activeScopes.Dec()
}

func (m *Metrics) nodePushed(kind string) {
	if m == nil {
		return
	}
	m.nodesPushed.WithLabelValues(kind).Inc()
}

func (m *Metrics) cleanupRun() {
	if m == nil {
		return
	}
	m.cleanupsRun.Inc()
}

func (m *Metrics) fragmentRegistered() {
	if m == nil {
		return
	}
	m.fragmentsRegistered.Inc()
}

func (m *Metrics) fragmentResolved() {
	if m == nil {
		return
	}
	m.fragmentsResolved.Inc()
}
