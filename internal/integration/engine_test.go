// Package integration wires the store, registry, factory, runner,
// dispatcher, and reconciler together the way cmd/server does, and drives
// them through the end-to-end scenarios the rest of the system is expected
// to satisfy.
package integration

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/sami-patel/geoworkflow/internal/dispatcher"
	"github.com/sami-patel/geoworkflow/internal/factory"
	"github.com/sami-patel/geoworkflow/internal/jobs"
	"github.com/sami-patel/geoworkflow/internal/platform/apierr"
	"github.com/sami-patel/geoworkflow/internal/platform/live"
	"github.com/sami-patel/geoworkflow/internal/platform/logging"
	"github.com/sami-patel/geoworkflow/internal/reconciler"
	"github.com/sami-patel/geoworkflow/internal/registry"
	"github.com/sami-patel/geoworkflow/internal/runner"
	"github.com/sami-patel/geoworkflow/internal/store"
)

const squarePolygonFeature = `{
  "type": "Feature",
  "geometry": {
    "type": "Polygon",
    "coordinates": [[[2,46],[2,47],[3,47],[3,46],[2,46]]]
  }
}`

type failOnceJob struct{}

func (failOnceJob) Run(_ context.Context, task *store.Task) (interface{}, error) {
	out := `{"message":"simulated deterministic failure"}`
	task.Output = &out
	return nil, apierr.JobError("simulated deterministic failure")
}

type engine struct {
	store *store.Store
	disp  *dispatcher.Dispatcher
}

func newEngine(t *testing.T, extraJobs map[string]registry.Job) *engine {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	st := store.New(db)
	require.NoError(t, st.Migrate(context.Background()))

	log := logging.NewNop()
	hub := live.NewHub(log)
	go hub.Run()
	t.Cleanup(hub.Stop)

	jobSet := map[string]registry.Job{
		jobs.TaskTypePolygonArea:      jobs.PolygonArea{},
		jobs.TaskTypeCountryLookup:    jobs.CountryLookup{},
		jobs.TaskTypeNotification:     jobs.Notification{},
		jobs.TaskTypeReportGeneration: jobs.NewReportGenerator(st),
	}
	for k, v := range extraJobs {
		jobSet[k] = v
	}
	reg := registry.New(jobSet)

	recon := reconciler.New(st, hub, log, true)
	r := runner.New(st, reg, recon, log)
	disp := dispatcher.New(st, r, log, 0)

	return &engine{store: st, disp: disp}
}

// drain runs dispatcher iterations until nothing is queued anymore, bounded
// by maxSteps to avoid an infinite loop on a broken fixture.
func (e *engine) drain(t *testing.T, workflowID string, maxSteps int) {
	ctx := context.Background()
	for i := 0; i < maxSteps; i++ {
		tasks, err := e.store.FindTasksByStatus(ctx, store.TaskQueued)
		require.NoError(t, err)
		if len(tasks) == 0 {
			return
		}
		e.disp.Step(ctx)
	}
	t.Fatalf("dispatcher did not drain the queue for workflow %s within %d steps", workflowID, maxSteps)
}

func TestScenario_S1_FourStepWorkflowCompletesWithReport(t *testing.T) {
	e := newEngine(t, nil)
	ctx := context.Background()

	reg := registry.New(map[string]registry.Job{
		jobs.TaskTypePolygonArea:      jobs.PolygonArea{},
		jobs.TaskTypeCountryLookup:    jobs.CountryLookup{},
		jobs.TaskTypeNotification:     jobs.Notification{},
		jobs.TaskTypeReportGeneration: jobs.NewReportGenerator(e.store),
	})
	f := factory.New(e.store, reg)

	def := &factory.Definition{
		Name: "example_workflow",
		Steps: []*factory.StepDefinition{
			{TaskType: jobs.TaskTypePolygonArea, StepNumber: 1},
			{TaskType: jobs.TaskTypeCountryLookup, StepNumber: 2},
			{TaskType: jobs.TaskTypeNotification, StepNumber: 3},
			{TaskType: jobs.TaskTypeReportGeneration, StepNumber: 4},
		},
	}

	wf, err := f.Materialize(ctx, def, "client-1", squarePolygonFeature)
	require.NoError(t, err)

	e.drain(t, wf.ID, 10)

	got, err := e.store.GetWorkflow(ctx, wf.ID, true)
	require.NoError(t, err)
	assert.Equal(t, store.WorkflowCompleted, got.Status)

	completed := 0
	for _, task := range got.Tasks {
		if task.Status == store.TaskCompleted {
			completed++
		}
	}
	assert.Equal(t, 4, completed)
	assert.Equal(t, 4, len(got.Tasks))

	require.NotNil(t, got.FinalResult)
	var report jobs.Report
	require.NoError(t, json.Unmarshal([]byte(*got.FinalResult), &report))
	assert.Len(t, report.Tasks, 3)
	assert.Equal(t, 3, report.Summary.TotalTasks)
}

func TestScenario_S2_DependencyInputThreading(t *testing.T) {
	e := newEngine(t, nil)
	ctx := context.Background()

	reg := registry.New(map[string]registry.Job{
		jobs.TaskTypePolygonArea:  jobs.PolygonArea{},
		jobs.TaskTypeNotification: jobs.Notification{},
	})
	f := factory.New(e.store, reg)

	dependsOn := 1
	def := &factory.Definition{
		Name: "polygon_test_workflow",
		Steps: []*factory.StepDefinition{
			{TaskType: jobs.TaskTypePolygonArea, StepNumber: 1},
			{TaskType: jobs.TaskTypeNotification, StepNumber: 2, DependsOn: &dependsOn},
		},
	}

	wf, err := f.Materialize(ctx, def, "client-2", squarePolygonFeature)
	require.NoError(t, err)

	e.drain(t, wf.ID, 10)

	tasks, err := e.store.FindTasksByWorkflow(ctx, wf.ID)
	require.NoError(t, err)
	require.Len(t, tasks, 2)

	areaTask, notifTask := tasks[0], tasks[1]
	require.Equal(t, store.TaskCompleted, areaTask.Status)
	require.Equal(t, store.TaskCompleted, notifTask.Status)
	require.NotNil(t, notifTask.Input)
	require.NotNil(t, areaTask.Output)
	assert.Equal(t, *areaTask.Output, *notifTask.Input)

	got, err := e.store.GetWorkflow(ctx, wf.ID, false)
	require.NoError(t, err)
	assert.Equal(t, store.WorkflowCompleted, got.Status)
}

func TestScenario_S6_FailedDependencyBlocksDependentForever(t *testing.T) {
	e := newEngine(t, map[string]registry.Job{"alwaysFails": failOnceJob{}})
	ctx := context.Background()

	reg := registry.New(map[string]registry.Job{
		jobs.TaskTypePolygonArea:  jobs.PolygonArea{},
		jobs.TaskTypeNotification: jobs.Notification{},
		"alwaysFails":             failOnceJob{},
	})
	f := factory.New(e.store, reg)

	dependsOn := 2
	def := &factory.Definition{
		Name: "failing_test_workflow",
		Steps: []*factory.StepDefinition{
			{TaskType: jobs.TaskTypePolygonArea, StepNumber: 1},
			{TaskType: "alwaysFails", StepNumber: 2},
			{TaskType: jobs.TaskTypeNotification, StepNumber: 3, DependsOn: &dependsOn},
		},
	}

	wf, err := f.Materialize(ctx, def, "client-3", squarePolygonFeature)
	require.NoError(t, err)

	// Drain until the workflow reaches failed and the dependent is the only
	// thing left queued; bound the loop since it can never fully drain.
	for i := 0; i < 10; i++ {
		e.disp.Step(ctx)
		wf, err := e.store.GetWorkflow(ctx, wf.ID, false)
		require.NoError(t, err)
		if wf.Status == store.WorkflowFailed {
			break
		}
	}

	got, err := e.store.GetWorkflow(ctx, wf.ID, true)
	require.NoError(t, err)
	assert.Equal(t, store.WorkflowFailed, got.Status)

	var step2, step3 *store.Task
	for i := range got.Tasks {
		switch got.Tasks[i].StepNumber {
		case 2:
			step2 = &got.Tasks[i]
		case 3:
			step3 = &got.Tasks[i]
		}
	}
	require.NotNil(t, step2)
	require.NotNil(t, step3)
	assert.Equal(t, store.TaskFailed, step2.Status)
	assert.Equal(t, store.TaskQueued, step3.Status)

	require.NotNil(t, got.FinalResult, "a failed workflow must not wait for its queued dependent to get a finalResult")
	var envelope struct {
		Status string `json:"status"`
		Tasks  []struct {
			StepNumber int    `json:"stepNumber"`
			Status     string `json:"status"`
			Error      string `json:"error,omitempty"`
		} `json:"tasks"`
	}
	require.NoError(t, json.Unmarshal([]byte(*got.FinalResult), &envelope))
	require.Len(t, envelope.Tasks, 3)
	assert.Equal(t, "failed", envelope.Status)
	assert.Equal(t, "simulated deterministic failure", envelope.Tasks[1].Error)
	assert.Equal(t, "queued", envelope.Tasks[2].Status)
}
