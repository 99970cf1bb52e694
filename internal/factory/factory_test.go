package factory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/sami-patel/geoworkflow/internal/platform/apierr"
	"github.com/sami-patel/geoworkflow/internal/registry"
	"github.com/sami-patel/geoworkflow/internal/store"
)

type fakeJob struct{}

func (fakeJob) Run(_ context.Context, _ *store.Task) (interface{}, error) { return nil, nil }

func newTestFactory(t *testing.T) *Factory {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	st := store.New(db)
	require.NoError(t, st.Migrate(context.Background()))

	reg := registry.New(map[string]registry.Job{
		"polygonArea":  fakeJob{},
		"notification": fakeJob{},
	})
	return New(st, reg)
}

func TestFactory_Materialize_Success(t *testing.T) {
	f := newTestFactory(t)
	dependsOn := 1
	def := &Definition{
		Name: "t",
		Steps: []*StepDefinition{
			{TaskType: "polygonArea", StepNumber: 1},
			{TaskType: "notification", StepNumber: 2, DependsOn: &dependsOn},
		},
	}

	wf, err := f.Materialize(context.Background(), def, "client-1", `{"type":"Polygon"}`)
	require.NoError(t, err)
	assert.Equal(t, store.WorkflowInitial, wf.Status)
	require.Len(t, wf.Tasks, 2)
	assert.Equal(t, store.TaskQueued, wf.Tasks[0].Status)
	assert.Equal(t, wf.Tasks[0].ID, *wf.Tasks[1].DependsOnID)
}

func TestFactory_Materialize_UnknownTaskType(t *testing.T) {
	f := newTestFactory(t)
	def := &Definition{
		Name:  "t",
		Steps: []*StepDefinition{{TaskType: "invalidTaskType", StepNumber: 1}},
	}

	_, err := f.Materialize(context.Background(), def, "client-1", "{}")
	appErr, ok := apierr.As(err)
	require.True(t, ok)
	assert.Equal(t, apierr.TypeInvalidWorkflow, appErr.Type)
}

func TestFactory_Materialize_DependencyOnUnknownStep(t *testing.T) {
	f := newTestFactory(t)
	dependsOn := 99
	def := &Definition{
		Name:  "t",
		Steps: []*StepDefinition{{TaskType: "polygonArea", StepNumber: 1, DependsOn: &dependsOn}},
	}

	_, err := f.Materialize(context.Background(), def, "client-1", "{}")
	appErr, ok := apierr.As(err)
	require.True(t, ok)
	assert.Equal(t, apierr.TypeInvalidWorkflow, appErr.Type)
}

func TestFactory_Materialize_SelfDependency(t *testing.T) {
	f := newTestFactory(t)
	dependsOn := 1
	def := &Definition{
		Name:  "t",
		Steps: []*StepDefinition{{TaskType: "polygonArea", StepNumber: 1, DependsOn: &dependsOn}},
	}

	_, err := f.Materialize(context.Background(), def, "client-1", "{}")
	appErr, ok := apierr.As(err)
	require.True(t, ok)
	assert.Equal(t, apierr.TypeInvalidWorkflow, appErr.Type)
}

func TestFactory_Materialize_NonPositiveStepNumberRejected(t *testing.T) {
	f := newTestFactory(t)
	def := &Definition{
		Name:  "t",
		Steps: []*StepDefinition{{TaskType: "polygonArea", StepNumber: 0}},
	}

	_, err := f.Materialize(context.Background(), def, "client-1", "{}")
	appErr, ok := apierr.As(err)
	require.True(t, ok)
	assert.Equal(t, apierr.TypeInvalidWorkflow, appErr.Type)
}

func TestFactory_Materialize_NoSteps(t *testing.T) {
	f := newTestFactory(t)
	def := &Definition{Name: "t"}

	_, err := f.Materialize(context.Background(), def, "client-1", "{}")
	appErr, ok := apierr.As(err)
	require.True(t, ok)
	assert.Equal(t, apierr.TypeInvalidWorkflow, appErr.Type)
}
