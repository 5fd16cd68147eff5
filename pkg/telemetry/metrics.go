package telemetry

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	werrors "github.com/vango-dev/weft/internal/errors"
	"github.com/vango-dev/weft/pkg/core"
)

// MetricsConfig configures the Prometheus observer.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "weft").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for durations.
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

// WithBuckets sets the duration histogram buckets.
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

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "weft",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics is a core.Observer that records scheduler activity.
type Metrics struct {
	scheduled      prometheus.Counter
	merged         *prometheus.CounterVec
	tasks          *prometheus.CounterVec
	taskErrors     *prometheus.CounterVec
	pending        prometheus.Gauge
	taskDuration   prometheus.Histogram
	frames         prometheus.Counter
	iterations     prometheus.Histogram
	resumes        prometheus.Counter
	resumeDuration prometheus.Histogram
	commitEffects  *prometheus.CounterVec
	commitDuration *prometheus.HistogramVec
}

// NewMetrics registers the scheduler metrics and returns an observer that
// updates them. Registering twice on one registry panics, as with promauto.
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}
	if config.Buckets == nil {
		config.Buckets = prometheus.DefBuckets
	}
	factory := promauto.With(config.Registry)

	counterOpts := func(name, help string) prometheus.CounterOpts {
		return prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        name,
			Help:        help,
			ConstLabels: config.ConstLabels,
		}
	}
	histogramOpts := func(name, help string, buckets []float64) prometheus.HistogramOpts {
		return prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        name,
			Help:        help,
			ConstLabels: config.ConstLabels,
			Buckets:     buckets,
		}
	}

	return &Metrics{
		scheduled: factory.NewCounter(counterOpts("tasks_scheduled_total",
			"Total number of scheduled update tasks")),
		merged: factory.NewCounterVec(counterOpts("tasks_merged_total",
			"Tasks resolved by another task's frame"), []string{"kind"}),
		tasks: factory.NewCounterVec(counterOpts("tasks_total",
			"Tasks that rendered their own frame, by status"), []string{"status"}),
		taskErrors: factory.NewCounterVec(counterOpts("task_errors_total",
			"Failed tasks by error code"), []string{"code"}),
		pending: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "tasks_pending",
			Help:        "Tasks scheduled but not yet resolved",
			ConstLabels: config.ConstLabels,
		}),
		taskDuration: factory.NewHistogram(histogramOpts("task_duration_seconds",
			"Time from scheduling to task resolution", config.Buckets)),
		frames: factory.NewCounter(counterOpts("frames_total",
			"Total number of frames started")),
		iterations: factory.NewHistogram(histogramOpts("frame_iterations",
			"Fixpoint iterations per frame", []float64{1, 2, 3, 5, 10, 25, 50, 100})),
		resumes: factory.NewCounter(counterOpts("resumes_total",
			"Total number of coroutine resumes")),
		resumeDuration: factory.NewHistogram(histogramOpts("resume_duration_seconds",
			"Coroutine resume duration in seconds", config.Buckets)),
		commitEffects: factory.NewCounterVec(counterOpts("commit_effects_total",
			"Effects committed, by phase"), []string{"phase"}),
		commitDuration: factory.NewHistogramVec(histogramOpts("commit_duration_seconds",
			"Commit phase duration in seconds", config.Buckets), []string{"phase"}),
	}
}

// Observe implements core.Observer.
func (m *Metrics) Observe(ev core.Event) {
	switch ev.Kind {
	case core.EventTaskScheduled:
		m.scheduled.Inc()
		m.pending.Inc()
	case core.EventTaskCoalesced:
		m.merged.WithLabelValues("coalesced").Inc()
		m.pending.Dec()
	case core.EventTaskAbsorbed:
		m.merged.WithLabelValues("absorbed").Inc()
		m.pending.Dec()
	case core.EventFrameStarted:
		m.frames.Inc()
	case core.EventResume:
		m.resumes.Inc()
		m.resumeDuration.Observe(ev.Duration.Seconds())
	case core.EventCommit:
		phase := ev.Phase.String()
		m.commitEffects.WithLabelValues(phase).Add(float64(ev.Effects))
		m.commitDuration.WithLabelValues(phase).Observe(ev.Duration.Seconds())
	case core.EventTaskDone:
		m.pending.Dec()
		m.iterations.Observe(float64(ev.Iterations))
		m.taskDuration.Observe(ev.Duration.Seconds())
		if ev.Err != nil {
			m.tasks.WithLabelValues("error").Inc()
			m.taskErrors.WithLabelValues(errorCode(ev.Err)).Inc()
			return
		}
		m.tasks.WithLabelValues("success").Inc()
	}
}

// errorCode returns the code of the first structured error in err.
func errorCode(err error) string {
	var e *werrors.Error
	if errors.As(err, &e) && e.Code != "" {
		return e.Code
	}
	return "unknown"
}
