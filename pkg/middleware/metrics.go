package middleware

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/vango-dev/signals/pkg/signals"
)

// unnamedLabel is the signal label used for signals created without a name.
const unnamedLabel = "unnamed"

// MetricsConfig configures the Prometheus observer.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "signals").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for notification duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus observer.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
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

// defaultMetricsConfig returns the default metrics configuration.
func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "signals",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// metrics holds the Prometheus collectors of one registry.
type metrics struct {
	setsTotal      *prometheus.CounterVec
	notifyDuration *prometheus.HistogramVec
	listeners      *prometheus.GaugeVec
	notifyPanics   *prometheus.CounterVec
}

// metricsKey identifies one set of collectors: a registry plus everything
// that names the collectors on it.
type metricsKey struct {
	registry prometheus.Registerer
	id       string
}

// registered caches metrics per key so that several observers sharing a
// registry do not register the same collectors twice.
var (
	registered   = map[metricsKey]*metrics{}
	registeredMu sync.Mutex
)

// key returns the cache key of config. Buckets are not part of it: they do
// not change the collector identity, so the first observer's buckets win.
func (config MetricsConfig) key() metricsKey {
	labels := make([]string, 0, len(config.ConstLabels))
	for k, v := range config.ConstLabels {
		labels = append(labels, k+"="+v)
	}
	sort.Strings(labels)

	return metricsKey{
		registry: config.Registry,
		id:       config.Namespace + "\x00" + config.Subsystem + "\x00" + strings.Join(labels, ","),
	}
}

// initMetrics registers the collectors on config.Registry.
func initMetrics(config MetricsConfig) *metrics {
	factory := promauto.With(config.Registry)

	return &metrics{
		setsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "sets_total",
			Help:        "Total number of signal writes by result (changed, unchanged)",
			ConstLabels: config.ConstLabels,
		}, []string{"signal", "result"}),

		notifyDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "notify_duration_seconds",
			Help:        "Duration of a notification pass, including cascaded recomputation",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"signal"}),

		listeners: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "listeners",
			Help:        "Listeners invoked by the most recent notification pass",
			ConstLabels: config.ConstLabels,
		}, []string{"signal"}),

		notifyPanics: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "notify_panics_total",
			Help:        "Total number of notification passes aborted by a panicking listener",
			ConstLabels: config.ConstLabels,
		}, []string{"signal"}),
	}
}

// Prometheus creates an observer that collects Prometheus metrics.
//
// Metrics collected:
//   - signals_sets_total: Counter of writes by signal and result
//   - signals_notify_duration_seconds: Histogram of notification pass duration
//   - signals_listeners: Gauge of listeners invoked by the last pass
//   - signals_notify_panics_total: Counter of passes aborted by a panic
//
// Panics are counted and then re-raised.
//
// Observers created with the same registry, namespace, subsystem and const
// labels share collectors; any of those differing gives separate collectors.
func Prometheus(opts ...MetricsOption) signals.Observer {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}

	key := config.key()
	registeredMu.Lock()
	m, ok := registered[key]
	if !ok {
		m = initMetrics(config)
		registered[key] = m
	}
	registeredMu.Unlock()

	return signals.ObserverFunc(func(c signals.Change, notify func()) {
		name := c.Name
		if name == "" {
			name = unnamedLabel
		}

		if !c.Changed {
			m.setsTotal.WithLabelValues(name, "unchanged").Inc()
			notify()
			return
		}

		m.setsTotal.WithLabelValues(name, "changed").Inc()
		m.listeners.WithLabelValues(name).Set(float64(c.Listeners))

		start := time.Now()
		defer func() {
			m.notifyDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
			if r := recover(); r != nil {
				m.notifyPanics.WithLabelValues(name).Inc()
				panic(r)
			}
		}()

		notify()
	})
}
