package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for the relister. All methods are
// nil-safe so a disabled metrics surface costs nothing at call sites.
type Metrics struct {
	Registry              *prometheus.Registry
	RunsTotal             *prometheus.CounterVec
	RunDuration           prometheus.Histogram
	CreationAttemptsTotal prometheus.Counter
	StepFailuresTotal     *prometheus.CounterVec
	SnapshotsTotal        prometheus.Counter
}

// New constructs and registers all metrics on a dedicated registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	runs := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relister_runs_total",
			Help: "Total relist runs by result.",
		},
		[]string{"result"},
	)
	runDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "relister_run_duration_seconds",
			Help:    "Wall-clock duration of complete relist runs.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		},
	)
	creationAttempts := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "relister_creation_attempts_total",
			Help: "Total ad creation attempts, including retries.",
		},
	)
	stepFailures := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relister_step_failures_total",
			Help: "Total step failures by workflow step.",
		},
		[]string{"step"},
	)
	snapshots := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "relister_snapshots_total",
			Help: "Total diagnostic snapshots captured.",
		},
	)

	registry.MustRegister(runs, runDuration, creationAttempts, stepFailures, snapshots)

	return &Metrics{
		Registry:              registry,
		RunsTotal:             runs,
		RunDuration:           runDuration,
		CreationAttemptsTotal: creationAttempts,
		StepFailuresTotal:     stepFailures,
		SnapshotsTotal:        snapshots,
	}
}

// IncRun increments the run counter for a result label.
func (m *Metrics) IncRun(result string) {
	if m == nil {
		return
	}
	m.RunsTotal.WithLabelValues(result).Inc()
}

// ObserveRunDuration records a run duration.
func (m *Metrics) ObserveRunDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.RunDuration.Observe(d.Seconds())
}

// IncCreationAttempt increments the creation attempt counter.
func (m *Metrics) IncCreationAttempt() {
	if m == nil {
		return
	}
	m.CreationAttemptsTotal.Inc()
}

// IncStepFailure increments the step failure counter for a step label.
func (m *Metrics) IncStepFailure(step string) {
	if m == nil {
		return
	}
	m.StepFailuresTotal.WithLabelValues(step).Inc()
}

// IncSnapshot increments the snapshot counter.
func (m *Metrics) IncSnapshot() {
	if m == nil {
		return
	}
	m.SnapshotsTotal.Inc()
}
