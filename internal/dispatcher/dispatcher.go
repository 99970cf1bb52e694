// Package dispatcher runs the single cooperative loop that selects the next
// runnable task and hands it to the runner.
package dispatcher

import (
	"context"
	"sort"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/sami-patel/geoworkflow/internal/platform/logging"
	"github.com/sami-patel/geoworkflow/internal/platform/metrics"
	"github.com/sami-patel/geoworkflow/internal/store"
)

// PollInterval is the fixed sleep between iterations when nothing runnable
// was found, and after every dispatched task.
const PollInterval = 2 * time.Second

// TaskRunner is the subset of runner.Runner the dispatcher depends on.
type TaskRunner interface {
	Run(ctx context.Context, task *store.Task) error
}

// Store is the subset of store.Store the dispatcher depends on.
type Store interface {
	FindTasksByStatus(ctx context.Context, statuses ...store.TaskStatus) ([]*store.Task, error)
}

// Dispatcher repeatedly polls for runnable tasks and serializes their
// execution through a single Runner, one task at a time.
type Dispatcher struct {
	store        Store
	runner       TaskRunner
	log          *logging.Logger
	pollInterval time.Duration
}

// New builds a Dispatcher. pollInterval overrides PollInterval when positive,
// which tests use to avoid real sleeps.
func New(st Store, r TaskRunner, log *logging.Logger, pollInterval time.Duration) *Dispatcher {
	if pollInterval <= 0 {
		pollInterval = PollInterval
	}
	return &Dispatcher{store: st, runner: r, log: log, pollInterval: pollInterval}
}

// Run blocks, polling until ctx is canceled.
func (d *Dispatcher) Run(ctx context.Context) {
	ticker := time.NewTimer(0)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		d.Step(ctx)
		ticker.Reset(d.pollInterval)
	}
}

// Step runs exactly one dispatch iteration: load the queued set, pick the
// first unblocked candidate in stepNumber order, and run it. Exported so
// tests can drive the dispatcher deterministically without a real ticker.
func (d *Dispatcher) Step(ctx context.Context) {
	queued, err := d.store.FindTasksByStatus(ctx, store.TaskQueued)
	if err != nil {
		d.log.Errorw("dispatcher: load queued tasks failed", "error", err)
		return
	}

	metrics.QueueDepth.Set(float64(len(queued)))

	if len(queued) == 0 {
		return
	}

	sort.Slice(queued, func(i, j int) bool { return queued[i].StepNumber < queued[j].StepNumber })
	bySiblingStep := indexByWorkflow(queued)

	for _, task := range queued {
		if blocked(task, bySiblingStep) {
			continue
		}

		timer := prometheus.NewTimer(metrics.DispatchLatencySeconds.WithLabelValues(task.TaskType))
		err := d.runner.Run(ctx, task)
		timer.ObserveDuration()

		metrics.TasksDispatchedTotal.WithLabelValues(task.TaskType).Inc()
		outcome := "completed"
		if err != nil {
			outcome = "failed"
		}
		metrics.TaskOutcomesTotal.WithLabelValues(task.TaskType, outcome).Inc()

		return
	}
}

// blocked implements the dispatcher's ordering predicate: an explicit
// dependsOn edge blocks on anything but a completed dependency; absent that,
// a task is blocked by any earlier-step sibling still queued or in progress.
func blocked(task *store.Task, siblingsByWorkflow map[string][]*store.Task) bool {
	if task.DependsOn != nil {
		switch task.DependsOn.Status {
		case store.TaskQueued, store.TaskInProgress, store.TaskFailed:
			return true
		}
		return false
	}

	for _, sibling := range siblingsByWorkflow[task.WorkflowID] {
		if sibling.ID == task.ID {
			continue
		}
		if sibling.StepNumber < task.StepNumber &&
			(sibling.Status == store.TaskQueued || sibling.Status == store.TaskInProgress) {
			return true
		}
	}
	return false
}

// indexByWorkflow groups the queued set by workflow id so blocked() doesn't
// re-scan the full slice per candidate.
func indexByWorkflow(tasks []*store.Task) map[string][]*store.Task {
	idx := make(map[string][]*store.Task)
	for _, t := range tasks {
		idx[t.WorkflowID] = append(idx[t.WorkflowID], t)
	}
	return idx
}
