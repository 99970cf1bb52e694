package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	return db
}

func newTestStore(t *testing.T) *Store {
	db := setupTestDB(t)
	st := New(db)
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func TestStore_CreateAndGetWorkflow(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	wf := &Workflow{ID: "wf-1", ClientID: "client-a", Status: WorkflowInitial}
	require.NoError(t, st.CreateWorkflow(ctx, wf))

	got, err := st.GetWorkflow(ctx, "wf-1", false)
	require.NoError(t, err)
	assert.Equal(t, "client-a", got.ClientID)
	assert.Equal(t, WorkflowInitial, got.Status)
}

func TestStore_GetWorkflow_NotFound(t *testing.T) {
	st := newTestStore(t)
	_, err := st.GetWorkflow(context.Background(), "missing", false)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_UpdateWorkflow_ReadYourWrites(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	wf := &Workflow{ID: "wf-2", ClientID: "client-b", Status: WorkflowInitial}
	require.NoError(t, st.CreateWorkflow(ctx, wf))

	result := "aggregate"
	wf.Status = WorkflowCompleted
	wf.FinalResult = &result
	require.NoError(t, st.UpdateWorkflow(ctx, wf))

	got, err := st.GetWorkflow(ctx, "wf-2", false)
	require.NoError(t, err)
	assert.Equal(t, WorkflowCompleted, got.Status)
	require.NotNil(t, got.FinalResult)
	assert.Equal(t, "aggregate", *got.FinalResult)
}

func TestStore_CreateTasksAndFindByStatus(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	wf := &Workflow{ID: "wf-3", ClientID: "client-c", Status: WorkflowInitial}
	require.NoError(t, st.CreateWorkflow(ctx, wf))

	first := &Task{ID: "task-1", WorkflowID: wf.ID, TaskType: "polygonArea", StepNumber: 1, Status: TaskQueued}
	dependsOn := first.ID
	second := &Task{ID: "task-2", WorkflowID: wf.ID, TaskType: "notification", StepNumber: 2, Status: TaskQueued, DependsOnID: &dependsOn}
	require.NoError(t, st.CreateTasks(ctx, []*Task{first, second}))

	queued, err := st.FindTasksByStatus(ctx, TaskQueued)
	require.NoError(t, err)
	require.Len(t, queued, 2)
	assert.Equal(t, "task-1", queued[0].ID)
	assert.Equal(t, "task-2", queued[1].ID)
	require.NotNil(t, queued[1].DependsOn)
	assert.Equal(t, "task-1", queued[1].DependsOn.ID)
}

func TestStore_UpdateTask_PersistsMutableFields(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	wf := &Workflow{ID: "wf-4", ClientID: "client-d", Status: WorkflowInitial}
	require.NoError(t, st.CreateWorkflow(ctx, wf))
	task := &Task{ID: "task-4", WorkflowID: wf.ID, TaskType: "polygonArea", StepNumber: 1, Status: TaskQueued}
	require.NoError(t, st.CreateTasks(ctx, []*Task{task}))

	output := `{"area":10}`
	task.Status = TaskCompleted
	task.Output = &output
	require.NoError(t, st.UpdateTask(ctx, task))

	got, err := st.GetTask(ctx, "task-4")
	require.NoError(t, err)
	assert.Equal(t, TaskCompleted, got.Status)
	require.NotNil(t, got.Output)
	assert.Equal(t, output, *got.Output)
}

func TestStore_CreateAndGetResult(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	wf := &Workflow{ID: "wf-5", ClientID: "client-e", Status: WorkflowInitial}
	require.NoError(t, st.CreateWorkflow(ctx, wf))
	task := &Task{ID: "task-5", WorkflowID: wf.ID, TaskType: "polygonArea", StepNumber: 1, Status: TaskQueued}
	require.NoError(t, st.CreateTasks(ctx, []*Task{task}))

	result := &Result{ID: "result-5", TaskID: task.ID, Data: `{"area":42}`}
	require.NoError(t, st.CreateResult(ctx, result))

	got, err := st.GetResult(ctx, "result-5")
	require.NoError(t, err)
	assert.Equal(t, `{"area":42}`, got.Data)
}
