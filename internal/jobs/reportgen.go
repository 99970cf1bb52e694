package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sami-patel/geoworkflow/internal/platform/apierr"
	"github.com/sami-patel/geoworkflow/internal/store"
)

// TaskTypeReportGeneration aggregates the outputs of every earlier task in
// the workflow into a structured, human-readable report. Unlike every other
// job it writes directly to the owning workflow row, since the report is
// also a candidate finalResult.
const TaskTypeReportGeneration = "reportGeneration"

// ReportEntry is one task's contribution to a generated report.
type ReportEntry struct {
	TaskID     string      `json:"taskId"`
	Type       string      `json:"type"`
	StepNumber int         `json:"stepNumber"`
	Status     string      `json:"status"`
	Output     interface{} `json:"output,omitempty"`
	Error      string      `json:"error,omitempty"`
}

// ReportSummary is the totals block of a generated report.
type ReportSummary struct {
	TotalTasks        int       `json:"totalTasks"`
	CompletedTasks    int       `json:"completedTasks"`
	FailedTasks       int       `json:"failedTasks"`
	ReportGeneratedAt time.Time `json:"reportGeneratedAt"`
}

// Report is the structured value the report-generation job returns and also
// writes to the workflow's finalResult.
type Report struct {
	WorkflowID  string        `json:"workflowId"`
	Tasks       []ReportEntry `json:"tasks"`
	FinalReport string        `json:"finalReport"`
	Summary     ReportSummary `json:"summary"`
}

// ReportGenerator aggregates preceding tasks in a workflow. It holds a store
// reference because, uniquely among jobs, it writes the workflow row
// directly rather than only returning a value for the runner to persist.
type ReportGenerator struct {
	store *store.Store
}

// NewReportGenerator builds a ReportGenerator over the given store.
func NewReportGenerator(st *store.Store) *ReportGenerator {
	return &ReportGenerator{store: st}
}

// Run implements registry.Job.
func (g *ReportGenerator) Run(ctx context.Context, t *store.Task) (interface{}, error) {
	all, err := g.store.FindTasksByWorkflow(ctx, t.WorkflowID)
	if err != nil {
		return nil, apierr.JobError("%s: %v", t.TaskType, err)
	}

	preceding := make([]*store.Task, 0, len(all))
	for _, candidate := range all {
		if candidate.ID == t.ID {
			continue
		}
		if candidate.StepNumber < t.StepNumber {
			preceding = append(preceding, candidate)
		}
	}
	sort.Slice(preceding, func(i, j int) bool { return preceding[i].StepNumber < preceding[j].StepNumber })

	for _, p := range preceding {
		if p.Status == store.TaskQueued || p.Status == store.TaskInProgress {
			return nil, apierr.ReportPrematurelyRequested(t.WorkflowID)
		}
	}

	entries := make([]ReportEntry, 0, len(preceding))
	var completed, failed int
	var successLines, failureLines []string
	for _, p := range preceding {
		entry := ReportEntry{
			TaskID:     p.ID,
			Type:       p.TaskType,
			StepNumber: p.StepNumber,
			Status:     string(p.Status),
		}
		switch p.Status {
		case store.TaskCompleted:
			completed++
			if p.Output != nil {
				entry.Output = decodeOutput(*p.Output)
				successLines = append(successLines, fmt.Sprintf("- `%s` (Step %d): %s", p.TaskType, p.StepNumber, summarizeValue(entry.Output)))
			}
		case store.TaskFailed:
			failed++
			if p.Output != nil {
				decoded := decodeOutput(*p.Output)
				entry.Error = extractError(decoded)
				entry.Output = decoded
			} else {
				entry.Error = "Task failed"
			}
			failureLines = append(failureLines, fmt.Sprintf("- `%s` (Step %d): %s", p.TaskType, p.StepNumber, entry.Error))
		}
		entries = append(entries, entry)
	}

	generatedAt := time.Now().UTC()

	var body strings.Builder
	body.WriteString("Workflow Report\n")
	body.WriteString(fmt.Sprintf("Workflow: %s\n", t.WorkflowID))
	body.WriteString(fmt.Sprintf("Total: %d, Completed: %d, Failed: %d\n\n", len(preceding), completed, failed))
	if len(successLines) > 0 {
		body.WriteString("Successful tasks:\n")
		body.WriteString(strings.Join(successLines, "\n"))
		body.WriteString("\n\n")
	}
	if len(failureLines) > 0 {
		body.WriteString("Failed tasks:\n")
		body.WriteString(strings.Join(failureLines, "\n"))
		body.WriteString("\n\n")
	}
	body.WriteString(fmt.Sprintf("Generated at: %s\n", generatedAt.Format(time.RFC3339)))

	report := Report{
		WorkflowID:  t.WorkflowID,
		Tasks:       entries,
		FinalReport: body.String(),
		Summary: ReportSummary{
			TotalTasks:        len(preceding),
			CompletedTasks:    completed,
			FailedTasks:       failed,
			ReportGeneratedAt: generatedAt,
		},
	}

	data, err := json.Marshal(report)
	if err != nil {
		return nil, apierr.JobError("%s: %v", t.TaskType, err)
	}
	encoded := string(data)
	t.Output = &encoded

	workflow, err := g.store.GetWorkflow(ctx, t.WorkflowID, false)
	if err != nil {
		return nil, apierr.JobError("%s: %v", t.TaskType, err)
	}
	workflow.FinalResult = &encoded
	if err := g.store.UpdateWorkflow(ctx, workflow); err != nil {
		return nil, apierr.JobError("%s: %v", t.TaskType, err)
	}

	return report, nil
}
