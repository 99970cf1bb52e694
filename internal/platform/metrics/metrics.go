// Package metrics exposes prometheus instrumentation for the dispatcher and
// runner, the two components that run continuously for the lifetime of the
// process.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// TasksDispatchedTotal counts every task handed to the runner, labeled by
	// the task's type.
	TasksDispatchedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "geoworkflow_tasks_dispatched_total",
		Help: "Total number of tasks handed to the runner, by task type.",
	}, []string{"task_type"})

	// TaskOutcomesTotal counts runner outcomes, labeled by task type and
	// outcome ("completed" or "failed").
	TaskOutcomesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "geoworkflow_task_outcomes_total",
		Help: "Total number of task terminal outcomes, by task type and outcome.",
	}, []string{"task_type", "outcome"})

	// QueueDepth reports how many tasks were queued at the start of the most
	// recent dispatcher iteration.
	QueueDepth = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "geoworkflow_dispatcher_queue_depth",
		Help: "Number of queued tasks observed at the start of the last dispatcher iteration.",
	})

	// DispatchLatencySeconds observes the wall-clock time a task spends
	// running inside the runner.
	DispatchLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "geoworkflow_task_run_seconds",
		Help:    "Wall-clock seconds spent executing a single task.",
		Buckets: prometheus.DefBuckets,
	}, []string{"task_type"})
)

// Register registers all collectors with the given registerer. Call once at
// startup with prometheus.DefaultRegisterer.
func Register(reg prometheus.Registerer) {
	reg.MustRegister(TasksDispatchedTotal, TaskOutcomesTotal, QueueDepth, DispatchLatencySeconds)
}
