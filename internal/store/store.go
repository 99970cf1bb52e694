package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// ErrNotFound is returned by Get* methods when no row matches.
var ErrNotFound = errors.New("not found")

// Store is the entity store. It guarantees read-your-writes consistency: the
// underlying *gorm.DB connection pool is queried fresh on every call, and no
// component-level cache sits in front of it, so a write that has returned is
// immediately visible to the next read in this process.
type Store struct {
	db *gorm.DB
}

// New wraps an already-opened GORM connection.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Migrate creates or updates the schema for all three entities.
func (s *Store) Migrate(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(&Workflow{}, &Task{}, &Result{})
}

// CreateWorkflow inserts a new workflow row.
func (s *Store) CreateWorkflow(ctx context.Context, w *Workflow) error {
	if err := s.db.WithContext(ctx).Create(w).Error; err != nil {
		return fmt.Errorf("create workflow: %w", err)
	}
	return nil
}

// GetWorkflow retrieves a workflow by id, optionally hydrating its tasks.
func (s *Store) GetWorkflow(ctx context.Context, id string, withTasks bool) (*Workflow, error) {
	q := s.db.WithContext(ctx)
	if withTasks {
		q = q.Preload("Tasks")
	}
	var w Workflow
	if err := q.First(&w, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get workflow: %w", err)
	}
	return &w, nil
}

// UpdateWorkflow persists changes to status/finalResult on an existing
// workflow row. Only the reconciler and (via its own workflow write) the
// report generator call this.
func (s *Store) UpdateWorkflow(ctx context.Context, w *Workflow) error {
	if err := s.db.WithContext(ctx).Model(&Workflow{}).Where("id = ?", w.ID).
		Updates(map[string]interface{}{
			"status":       w.Status,
			"final_result": w.FinalResult,
		}).Error; err != nil {
		return fmt.Errorf("update workflow: %w", err)
	}
	return nil
}

// CreateTasks inserts the initial set of tasks for a newly materialized
// workflow in a single batch.
func (s *Store) CreateTasks(ctx context.Context, tasks []*Task) error {
	if len(tasks) == 0 {
		return nil
	}
	if err := s.db.WithContext(ctx).Create(&tasks).Error; err != nil {
		return fmt.Errorf("create tasks: %w", err)
	}
	return nil
}

// GetTask retrieves a task by id, hydrating its workflow and dependency.
func (s *Store) GetTask(ctx context.Context, id string) (*Task, error) {
	var t Task
	if err := s.db.WithContext(ctx).Preload("Workflow").Preload("DependsOn").
		First(&t, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get task: %w", err)
	}
	return &t, nil
}

// UpdateTask persists the mutable fields of a task: status, input, output,
// progress, and resultId. The runner is the only component that calls this.
func (s *Store) UpdateTask(ctx context.Context, t *Task) error {
	if err := s.db.WithContext(ctx).Model(&Task{}).Where("id = ?", t.ID).
		Updates(map[string]interface{}{
			"status":    t.Status,
			"input":     t.Input,
			"output":    t.Output,
			"progress":  t.Progress,
			"result_id": t.ResultID,
		}).Error; err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	return nil
}

// FindTasksByStatus returns every task in any of the given statuses, with
// Workflow and DependsOn hydrated, ordered by step number ascending. This is
// the query the dispatcher polls on every iteration.
func (s *Store) FindTasksByStatus(ctx context.Context, statuses ...TaskStatus) ([]*Task, error) {
	var tasks []*Task
	if err := s.db.WithContext(ctx).Preload("Workflow").Preload("DependsOn").
		Where("status IN ?", statuses).
		Order("step_number ASC").
		Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("find tasks by status: %w", err)
	}
	return tasks, nil
}

// FindTasksByWorkflow returns every task belonging to workflowID, ordered by
// step number ascending. Used by the report generator and the tasks endpoint.
func (s *Store) FindTasksByWorkflow(ctx context.Context, workflowID string) ([]*Task, error) {
	var tasks []*Task
	if err := s.db.WithContext(ctx).
		Where("workflow_id = ?", workflowID).
		Order("step_number ASC").
		Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("find tasks by workflow: %w", err)
	}
	return tasks, nil
}

// CreateResult inserts a new result row produced by a successful task run.
func (s *Store) CreateResult(ctx context.Context, r *Result) error {
	if err := s.db.WithContext(ctx).Create(r).Error; err != nil {
		return fmt.Errorf("create result: %w", err)
	}
	return nil
}

// GetResult retrieves a result by id.
func (s *Store) GetResult(ctx context.Context, id string) (*Result, error) {
	var r Result
	if err := s.db.WithContext(ctx).First(&r, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get result: %w", err)
	}
	return &r, nil
}
