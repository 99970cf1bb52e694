// Package factory materializes a workflow definition into persisted Workflow
// and Task rows, validating task types and dependency shape before anything
// is written.
package factory

import (
	"context"

	"github.com/google/uuid"

	"github.com/sami-patel/geoworkflow/internal/platform/apierr"
	"github.com/sami-patel/geoworkflow/internal/registry"
	"github.com/sami-patel/geoworkflow/internal/store"
)

// Factory turns a Definition plus request-scoped inputs (client id, geojson
// payload) into a persisted Workflow with its initial Task rows, all queued.
type Factory struct {
	store *store.Store
	jobs  *registry.Registry
}

// New builds a Factory over the given store and job registry.
func New(st *store.Store, jobs *registry.Registry) *Factory {
	return &Factory{store: st, jobs: jobs}
}

// Materialize validates def against the job registry and dependency shape,
// then persists one Workflow row and one Task row per step, all in the
// queued state. No rows are written if validation fails.
func (f *Factory) Materialize(ctx context.Context, def *Definition, clientID, geoJSON string) (*store.Workflow, error) {
	if def.Name == "" {
		return nil, apierr.InvalidWorkflow("workflow definition is missing a name")
	}
	if len(def.Steps) == 0 {
		return nil, apierr.InvalidWorkflow("workflow definition has no steps")
	}

	stepIDs := make(map[int]string, len(def.Steps))
	seenStep := make(map[int]bool, len(def.Steps))
	for _, step := range def.Steps {
		if step.StepNumber <= 0 {
			return nil, apierr.InvalidWorkflow("stepNumber %d must be a positive integer", step.StepNumber)
		}
		if seenStep[step.StepNumber] {
			return nil, apierr.InvalidWorkflow("duplicate stepNumber %d", step.StepNumber)
		}
		seenStep[step.StepNumber] = true

		if !f.jobs.Has(step.TaskType) {
			return nil, apierr.InvalidWorkflow("unknown task type %q", step.TaskType)
		}
		stepIDs[step.StepNumber] = uuid.New().String()
	}

	for _, step := range def.Steps {
		if step.DependsOn == nil {
			continue
		}
		if *step.DependsOn == step.StepNumber {
			return nil, apierr.InvalidWorkflow("step %d cannot depend on itself", step.StepNumber)
		}
		if _, ok := stepIDs[*step.DependsOn]; !ok {
			return nil, apierr.InvalidWorkflow("step %d depends on unknown stepNumber %d", step.StepNumber, *step.DependsOn)
		}
	}

	workflow := &store.Workflow{
		ID:       uuid.New().String(),
		ClientID: clientID,
		Status:   store.WorkflowInitial,
	}
	if err := f.store.CreateWorkflow(ctx, workflow); err != nil {
		return nil, err
	}

	tasks := make([]*store.Task, 0, len(def.Steps))
	for _, step := range def.Steps {
		t := &store.Task{
			ID:         stepIDs[step.StepNumber],
			ClientID:   clientID,
			WorkflowID: workflow.ID,
			TaskType:   step.TaskType,
			StepNumber: step.StepNumber,
			Status:     store.TaskQueued,
			GeoJSON:    geoJSON,
		}
		if step.DependsOn != nil {
			depID := stepIDs[*step.DependsOn]
			t.DependsOnID = &depID
		}
		tasks = append(tasks, t)
	}

	if err := f.store.CreateTasks(ctx, tasks); err != nil {
		return nil, err
	}

	workflow.Tasks = make([]store.Task, len(tasks))
	for i, t := range tasks {
		workflow.Tasks[i] = *t
	}
	return workflow, nil
}
