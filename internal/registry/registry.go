// Package registry maps a task-type tag to a job implementation. It is
// populated once at process start and never mutated afterward, so lookups
// need no locking.
package registry

import (
	"context"

	"github.com/sami-patel/geoworkflow/internal/platform/apierr"
	"github.com/sami-patel/geoworkflow/internal/store"
)

// Job is the contract every task-type implementation satisfies: given a
// task, produce a serializable value or fail with a JobError.
type Job interface {
	Run(ctx context.Context, task *store.Task) (interface{}, error)
}

// Registry is an immutable taskType -> Job mapping.
type Registry struct {
	jobs map[string]Job
}

// New builds a Registry from the given taskType -> Job set. Once built, the
// registry is never written to again.
func New(jobs map[string]Job) *Registry {
	r := &Registry{jobs: make(map[string]Job, len(jobs))}
	for k, v := range jobs {
		r.jobs[k] = v
	}
	return r
}

// Lookup returns the job bound to taskType, or apierr.UnknownTaskType if no
// job is registered under that tag.
func (r *Registry) Lookup(taskType string) (Job, error) {
	job, ok := r.jobs[taskType]
	if !ok {
		return nil, apierr.UnknownTaskType(taskType)
	}
	return job, nil
}

// Has reports whether taskType resolves in the registry, used by the
// workflow factory to validate a definition before any rows are created.
func (r *Registry) Has(taskType string) bool {
	_, ok := r.jobs[taskType]
	return ok
}
