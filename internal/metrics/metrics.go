// Package metrics exposes Prometheus telemetry for store operations, scheduled
// jobs and bot updates.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"fintrack/internal/store"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector owns a private registry. It implements store.Observer.
type Collector struct {
	registry *prometheus.Registry

	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	inFlight   *prometheus.GaugeVec
	jobRuns    *prometheus.CounterVec
	jobLatency *prometheus.HistogramVec
	updates    *prometheus.CounterVec
}

var _ store.Observer = (*Collector)(nil)

// NewCollector creates a collector whose metrics are prefixed by namespace.
func NewCollector(namespace string) *Collector {
	if namespace == "" {
		namespace = "fintrack"
	}
	c := &Collector{registry: prometheus.NewRegistry()}

	c.operations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "operations_total",
			Help:      "Total number of settled store operations.",
		},
		[]string{"store", "op", "outcome"},
	)

	c.duration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "operation_duration_seconds",
			Help:      "Duration of store operations, service call included.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~10s
		},
		[]string{"store", "op"},
	)

	c.inFlight = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "operations_in_flight",
			Help:      "Current number of pending store operations.",
		},
		[]string{"store"},
	)

	c.jobRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "job_runs_total",
			Help:      "Total number of scheduled job runs.",
		},
		[]string{"job", "success"},
	)

	c.jobLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "job_run_duration_seconds",
			Help:      "Duration of scheduled job runs.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 10),
		},
		[]string{"job"},
	)

	c.updates = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bot",
			Name:      "updates_total",
			Help:      "Total number of Telegram updates handled, by kind.",
		},
		[]string{"kind"},
	)

	c.registry.MustRegister(
		c.operations,
		c.duration,
		c.inFlight,
		c.jobRuns,
		c.jobLatency,
		c.updates,
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)
	return c
}

// OperationStarted records a pending operation.
func (c *Collector) OperationStarted(slice store.Slice, _ string) {
	c.inFlight.WithLabelValues(string(slice)).Inc()
}

// OperationFinished records how an operation settled. Operations rejected
// before any service call were never started and do not touch the gauge.
func (c *Collector) OperationFinished(slice store.Slice, op string, outcome store.Outcome, elapsed time.Duration) {
	c.operations.WithLabelValues(string(slice), op, string(outcome)).Inc()
	if elapsed > 0 {
		c.inFlight.WithLabelValues(string(slice)).Dec()
		c.duration.WithLabelValues(string(slice), op).Observe(elapsed.Seconds())
	}
}

// JobRun records one run of a scheduled job.
func (c *Collector) JobRun(job string, success bool, elapsed time.Duration) {
	c.jobRuns.WithLabelValues(job, strconv.FormatBool(success)).Inc()
	c.jobLatency.WithLabelValues(job).Observe(elapsed.Seconds())
}

// UpdateHandled counts a Telegram update of the given kind.
func (c *Collector) UpdateHandled(kind string) {
	c.updates.WithLabelValues(kind).Inc()
}

// Handler serves the collector's registry.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
