package httpapi

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sami-patel/geoworkflow/internal/store"
)

func (s *Server) handleWorkflowStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	workflow, err := s.store.GetWorkflow(r.Context(), id, true)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeMessage(w, http.StatusNotFound, "workflow not found")
			return
		}
		s.errors.Handle(w, err)
		return
	}

	completed := 0
	for _, t := range workflow.Tasks {
		if t.Status == store.TaskCompleted {
			completed++
		}
	}

	writeJSON(w, http.StatusOK, statusResponse{
		WorkflowID:     workflow.ID,
		Status:         string(workflow.Status),
		CompletedTasks: completed,
		TotalTasks:     len(workflow.Tasks),
	})
}
