package httpapi

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sami-patel/geoworkflow/internal/store"
)

type taskView struct {
	TaskID     string  `json:"taskId"`
	TaskType   string  `json:"taskType"`
	StepNumber int     `json:"stepNumber"`
	Status     string  `json:"status"`
	Progress   *string `json:"progress,omitempty"`
}

// handleWorkflowTasks is a supplemental endpoint (not part of the required
// three) exposing the per-task status list that the status endpoint only
// summarizes.
func (s *Server) handleWorkflowTasks(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if _, err := s.store.GetWorkflow(r.Context(), id, false); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeMessage(w, http.StatusNotFound, "workflow not found")
			return
		}
		s.errors.Handle(w, err)
		return
	}

	tasks, err := s.store.FindTasksByWorkflow(r.Context(), id)
	if err != nil {
		s.errors.Handle(w, err)
		return
	}

	views := make([]taskView, 0, len(tasks))
	for _, t := range tasks {
		views = append(views, taskView{
			TaskID:     t.ID,
			TaskType:   t.TaskType,
			StepNumber: t.StepNumber,
			Status:     string(t.Status),
			Progress:   t.Progress,
		})
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"workflowId": id,
		"tasks":      views,
	})
}
