// Package metrics exposes delivr's prometheus instrumentation: package-level
// collectors registered against the default registry at import time, plus a
// set of Record* wrapper functions so callers never touch a *prometheus.Vec
// directly. Grounded on the shape observed in the example pack's
// pkg/metrics tests (global vars + Record* helpers) rather than a
// constructor-based collector struct — this module has exactly one process
// and one registry, so the extra indirection of a registry-scoped
// constructor buys nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "delivr"

var (
	// TicksTotal counts every scheduler runner tick, per release's
	// cadence loop (spec.md §4.E).
	TicksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "scheduler_ticks_total",
		Help:      "Total number of per-release scheduler ticks executed.",
	})

	// TickDuration measures how long one scheduler tick took end to end,
	// including every task it dispatched.
	TickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "scheduler_tick_duration_seconds",
		Help:      "Duration of a single scheduler tick.",
		Buckets:   prometheus.DefBuckets,
	})

	// TasksExecutedTotal counts task executor dispatches by task type and
	// outcome (spec.md §4.B/§4.C task types).
	TasksExecutedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tasks_executed_total",
		Help:      "Total number of release tasks dispatched, by task type and result.",
	}, []string{"task_type", "result"})

	// TaskDuration measures task executor dispatch latency by task type.
	TaskDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "task_duration_seconds",
		Help:      "Duration of a single task dispatch, by task type.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"task_type"})

	// ProviderCallsTotal counts every outbound call through a capability
	// adapter, by provider type and result — the same axis
	// pkg/providers.BreakerManager keys its circuit breakers on.
	ProviderCallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "provider_calls_total",
		Help:      "Total number of external provider calls, by provider and result.",
	}, []string{"provider", "result"})

	// PausesTotal counts every release pause, by pause type (spec.md §4.D
	// pause_type: user_requested, task_failure, awaiting_stage_trigger,
	// awaiting_manual_build).
	PausesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "release_pauses_total",
		Help:      "Total number of release pauses, by pause type.",
	}, []string{"pause_type"})

	// ActiveRunners reports the scheduler's current count of running
	// per-release runners (pkg/scheduler.Scheduler.Health).
	ActiveRunners = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "scheduler_active_runners",
		Help:      "Number of per-release scheduler runners currently active.",
	})

	// CallbacksProcessedTotal counts Build Callback Aggregator
	// processCallback invocations, by outcome (spec.md §4.G).
	CallbacksProcessedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "callbacks_processed_total",
		Help:      "Total number of build callback aggregations processed, by result.",
	}, []string{"result"})
)

// RecordTick records one completed scheduler tick and its duration.
func RecordTick(d time.Duration) {
	TicksTotal.Inc()
	TickDuration.Observe(d.Seconds())
}

// RecordTaskExecution records one task executor dispatch.
func RecordTaskExecution(taskType, result string, d time.Duration) {
	TasksExecutedTotal.WithLabelValues(taskType, result).Inc()
	TaskDuration.WithLabelValues(taskType).Observe(d.Seconds())
}

// RecordProviderCall records one outbound capability adapter call.
func RecordProviderCall(provider, result string) {
	ProviderCallsTotal.WithLabelValues(provider, result).Inc()
}

// RecordPause records one release pause.
func RecordPause(pauseType string) {
	PausesTotal.WithLabelValues(pauseType).Inc()
}

// SetActiveRunners sets the current scheduler runner count.
func SetActiveRunners(n int) {
	ActiveRunners.Set(float64(n))
}

// RecordCallback records one processed build callback.
func RecordCallback(result string) {
	CallbacksProcessedTotal.WithLabelValues(result).Inc()
}
