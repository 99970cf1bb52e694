// Package runner executes a single task end to end: dependency resolution,
// job invocation, result persistence, and reconciliation.
package runner

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/sami-patel/geoworkflow/internal/platform/apierr"
	"github.com/sami-patel/geoworkflow/internal/platform/logging"
	"github.com/sami-patel/geoworkflow/internal/registry"
	"github.com/sami-patel/geoworkflow/internal/store"
)

// Reconciler is the subset of the reconciler's API the runner depends on.
// Declared here rather than imported directly so runner and reconciler don't
// form an import cycle; internal/reconciler satisfies this interface.
type Reconciler interface {
	Reconcile(ctx context.Context, workflowID string) error
}

// Runner executes exactly one task per call to Run, always on the goroutine
// that calls it; the dispatcher is responsible for ensuring only one task
// runs at a time.
type Runner struct {
	store      *store.Store
	jobs       *registry.Registry
	reconciler Reconciler
	log        *logging.Logger
}

// New builds a Runner.
func New(st *store.Store, jobs *registry.Registry, reconciler Reconciler, log *logging.Logger) *Runner {
	return &Runner{store: st, jobs: jobs, reconciler: reconciler, log: log}
}

// Run executes task, which must currently be in the queued state. The
// reconciler is invoked unconditionally before Run returns, whether the job
// succeeded or failed.
func (r *Runner) Run(ctx context.Context, task *store.Task) error {
	starting := "starting job..."
	task.Status = store.TaskInProgress
	task.Progress = &starting
	if err := r.store.UpdateTask(ctx, task); err != nil {
		return fmt.Errorf("mark task in progress: %w", err)
	}

	runErr := r.execute(ctx, task)

	if runErr != nil {
		r.log.Warnw("task failed", "task_id", task.ID, "task_type", task.TaskType, "error", runErr)
	}

	if err := r.reconciler.Reconcile(ctx, task.WorkflowID); err != nil {
		r.log.Errorw("reconcile after task run failed", "workflow_id", task.WorkflowID, "error", err)
	}

	return runErr
}

// execute resolves the dependency input, invokes the job, and persists the
// outcome. It never touches workflow state; that is the reconciler's job.
func (r *Runner) execute(ctx context.Context, task *store.Task) error {
	if task.DependsOnID != nil {
		dep, err := r.store.GetTask(ctx, *task.DependsOnID)
		if err != nil {
			return r.fail(ctx, task, apierr.Internalf("load dependency %s: %v", *task.DependsOnID, err))
		}
		if dep.Status != store.TaskCompleted {
			return r.fail(ctx, task, apierr.DependencyNotSatisfied(task.ID))
		}
		task.Input = dep.Output
	}

	job, err := r.jobs.Lookup(task.TaskType)
	if err != nil {
		return r.fail(ctx, task, err)
	}

	value, jobErr := job.Run(ctx, task)
	if jobErr != nil {
		return r.fail(ctx, task, jobErr)
	}

	return r.succeed(ctx, task, value)
}

// succeed persists a Result row and marks the task completed.
func (r *Runner) succeed(ctx context.Context, task *store.Task, value interface{}) error {
	data, err := serialize(value)
	if err != nil {
		return r.fail(ctx, task, apierr.Internalf("serialize job result: %v", err))
	}

	result := &store.Result{ID: uuid.New().String(), TaskID: task.ID, Data: data}
	if err := r.store.CreateResult(ctx, result); err != nil {
		return fmt.Errorf("create result: %w", err)
	}

	task.ResultID = &result.ID
	task.Status = store.TaskCompleted
	task.Progress = nil
	task.Output = &data
	if err := r.store.UpdateTask(ctx, task); err != nil {
		return fmt.Errorf("mark task completed: %w", err)
	}
	return nil
}

// fail marks the task failed without touching task.Output: a job is
// permitted to have already written a structured error envelope there, and
// the runner must not clobber it.
func (r *Runner) fail(ctx context.Context, task *store.Task, cause error) error {
	task.Status = store.TaskFailed
	task.Progress = nil
	if err := r.store.UpdateTask(ctx, task); err != nil {
		return fmt.Errorf("mark task failed: %w", err)
	}
	return cause
}

// serialize renders a job's return value to its stored string form. A nil
// value serializes to an empty JSON object, matching the "or {} if the job
// returned a nullish value" rule.
func serialize(value interface{}) (string, error) {
	if value == nil {
		return "{}", nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
