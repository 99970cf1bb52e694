// Package store is the entity store: durable GORM-backed read/write of
// Workflow, Task, and Result rows with relational hydration.
package store

import "time"

// WorkflowStatus is the lifecycle state of a Workflow.
type WorkflowStatus string

const (
	WorkflowInitial    WorkflowStatus = "initial"
	WorkflowInProgress WorkflowStatus = "in_progress"
	WorkflowCompleted  WorkflowStatus = "completed"
	WorkflowFailed     WorkflowStatus = "failed"
)

// TaskStatus is the lifecycle state of a Task.
type TaskStatus string

const (
	TaskQueued     TaskStatus = "queued"
	TaskInProgress TaskStatus = "in_progress"
	TaskCompleted  TaskStatus = "completed"
	TaskFailed     TaskStatus = "failed"
)

// Workflow is an instantiated, persistent ordered collection of tasks sharing
// a client id.
type Workflow struct {
	ID          string         `gorm:"primaryKey;column:id" json:"workflowId"`
	ClientID    string         `gorm:"column:client_id;index" json:"clientId"`
	Status      WorkflowStatus `gorm:"column:status;type:varchar(20);not null" json:"status"`
	FinalResult *string        `gorm:"column:final_result;type:text" json:"finalResult,omitempty"`
	CreatedAt   time.Time      `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt   time.Time      `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`

	Tasks []Task `gorm:"foreignKey:WorkflowID;references:ID" json:"-"`
}

// TableName overrides the default pluralization so the schema reads the way
// the spec names the entity.
func (Workflow) TableName() string { return "workflows" }

// Task is a unit of work with a task type, a step number, and an optional
// dependency on another task in the same workflow.
type Task struct {
	ID          string     `gorm:"primaryKey;column:id" json:"taskId"`
	ClientID    string     `gorm:"column:client_id;index" json:"clientId"`
	WorkflowID  string     `gorm:"column:workflow_id;index;not null" json:"-"`
	TaskType    string     `gorm:"column:task_type;type:varchar(100);not null" json:"taskType"`
	StepNumber  int        `gorm:"column:step_number;not null" json:"stepNumber"`
	Status      TaskStatus `gorm:"column:status;type:varchar(20);not null" json:"status"`
	DependsOnID *string    `gorm:"column:depends_on_id;index" json:"dependsOnId,omitempty"`
	GeoJSON     string     `gorm:"column:geo_json;type:text" json:"-"`
	Input       *string    `gorm:"column:input;type:text" json:"input,omitempty"`
	Output      *string    `gorm:"column:output;type:text" json:"output,omitempty"`
	Progress    *string    `gorm:"column:progress;type:text" json:"progress,omitempty"`
	ResultID    *string    `gorm:"column:result_id" json:"resultId,omitempty"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`

	Workflow  *Workflow `gorm:"foreignKey:WorkflowID;references:ID" json:"-"`
	DependsOn *Task     `gorm:"foreignKey:DependsOnID;references:ID" json:"-"`
}

// TableName overrides the default pluralization.
func (Task) TableName() string { return "tasks" }

// Result is the persisted output of one successfully completed task.
type Result struct {
	ID        string    `gorm:"primaryKey;column:id" json:"resultId"`
	TaskID    string    `gorm:"column:task_id;index;not null" json:"taskId"`
	Data      string    `gorm:"column:data;type:text" json:"data"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
}

// TableName overrides the default pluralization.
func (Result) TableName() string { return "results" }
