// Package reconciler recomputes a workflow's status from its tasks after
// every task transition and, on terminal transitions, writes an aggregated
// finalResult.
package reconciler

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/sami-patel/geoworkflow/internal/jobs"
	"github.com/sami-patel/geoworkflow/internal/platform/logging"
	"github.com/sami-patel/geoworkflow/internal/store"
)

// Publisher is the subset of live.Hub the reconciler depends on.
type Publisher interface {
	Publish(workflowID, status string)
}

// Store is the subset of store.Store the reconciler depends on.
type Store interface {
	GetWorkflow(ctx context.Context, id string, withTasks bool) (*store.Workflow, error)
	UpdateWorkflow(ctx context.Context, w *store.Workflow) error
}

// Reconciler updates one workflow row per invocation, deriving its status
// and (on terminal transitions) its finalResult entirely from its tasks.
type Reconciler struct {
	store               Store
	live                Publisher
	log                 *logging.Logger
	skipReportOverwrite bool
}

// New builds a Reconciler. When skipReportOverwrite is true, a finalResult
// already populated by a successful reportGeneration task or by an earlier
// terminal reconcile is left untouched rather than replaced by a fresh copy
// of the reconciler's own, simpler aggregate.
func New(st Store, live Publisher, log *logging.Logger, skipReportOverwrite bool) *Reconciler {
	return &Reconciler{store: st, live: live, log: log, skipReportOverwrite: skipReportOverwrite}
}

type taskEntry struct {
	TaskID     string      `json:"taskId"`
	Type       string      `json:"type"`
	StepNumber int         `json:"stepNumber"`
	Status     string      `json:"status"`
	Output     interface{} `json:"output,omitempty"`
	Error      string      `json:"error,omitempty"`
}

type finalResultEnvelope struct {
	WorkflowID  string      `json:"workflowId"`
	Status      string      `json:"status"`
	Tasks       []taskEntry `json:"tasks"`
	GeneratedAt time.Time   `json:"generatedAt"`
}

// Reconcile loads workflowID with its tasks, recomputes its status, and—on
// any terminal transition (failed or completed)—writes its finalResult.
// A failed workflow gets its finalResult immediately even if a dependent of
// the failed task is still queued; it will never run.
func (r *Reconciler) Reconcile(ctx context.Context, workflowID string) error {
	workflow, err := r.store.GetWorkflow(ctx, workflowID, true)
	if err != nil {
		return fmt.Errorf("reconcile: load workflow: %w", err)
	}

	allCompleted := true
	anyFailed := false
	for _, t := range workflow.Tasks {
		switch t.Status {
		case store.TaskCompleted:
		case store.TaskFailed:
			anyFailed = true
			allCompleted = false
		default:
			allCompleted = false
		}
	}

	switch {
	case anyFailed:
		workflow.Status = store.WorkflowFailed
	case allCompleted:
		workflow.Status = store.WorkflowCompleted
	default:
		workflow.Status = store.WorkflowInProgress
	}

	hasCompletedReport := false
	for _, t := range workflow.Tasks {
		if t.TaskType == jobs.TaskTypeReportGeneration && t.Status == store.TaskCompleted {
			hasCompletedReport = true
			break
		}
	}

	// A failed workflow terminates immediately rather than waiting for a
	// dependent tail that will never run, so pending tasks do not gate this:
	// only allCompleted implies nothing is pending, anyFailed does not.
	// With skipReportOverwrite set, a finalResult that is already present
	// (from a reportGeneration task or an earlier reconcile) is kept as is.
	if allCompleted || anyFailed {
		if !(r.skipReportOverwrite && (hasCompletedReport || workflow.FinalResult != nil)) {
			envelope := buildEnvelope(workflow)
			data, err := json.Marshal(envelope)
			if err != nil {
				return fmt.Errorf("reconcile: marshal final result: %w", err)
			}
			encoded := string(data)
			workflow.FinalResult = &encoded
		}
	}

	if err := r.store.UpdateWorkflow(ctx, workflow); err != nil {
		return fmt.Errorf("reconcile: persist workflow: %w", err)
	}

	if r.live != nil {
		r.live.Publish(workflow.ID, string(workflow.Status))
	}
	return nil
}

func buildEnvelope(workflow *store.Workflow) finalResultEnvelope {
	tasks := make([]*store.Task, len(workflow.Tasks))
	for i := range workflow.Tasks {
		tasks[i] = &workflow.Tasks[i]
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].StepNumber < tasks[j].StepNumber })

	entries := make([]taskEntry, 0, len(tasks))
	for _, t := range tasks {
		entry := taskEntry{
			TaskID:     t.ID,
			Type:       t.TaskType,
			StepNumber: t.StepNumber,
			Status:     string(t.Status),
		}
		switch t.Status {
		case store.TaskCompleted:
			if t.Output != nil {
				entry.Output = decodeOutput(*t.Output)
			}
		case store.TaskFailed:
			if t.Output != nil {
				decoded := decodeOutput(*t.Output)
				entry.Error = extractError(decoded)
			} else {
				entry.Error = "Task failed"
			}
		}
		entries = append(entries, entry)
	}

	return finalResultEnvelope{
		WorkflowID:  workflow.ID,
		Status:      string(workflow.Status),
		Tasks:       entries,
		GeneratedAt: time.Now().UTC(),
	}
}

func decodeOutput(raw string) interface{} {
	var v interface{}
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return raw
	}
	return v
}

func extractError(v interface{}) string {
	if m, ok := v.(map[string]interface{}); ok {
		if msg, ok := m["message"].(string); ok && msg != "" {
			return msg
		}
		if msg, ok := m["error"].(string); ok && msg != "" {
			return msg
		}
	}
	return "Task failed"
}
