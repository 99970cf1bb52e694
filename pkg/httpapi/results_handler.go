package httpapi

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sami-patel/geoworkflow/internal/store"
)

func (s *Server) handleWorkflowResults(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	workflow, err := s.store.GetWorkflow(r.Context(), id, false)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeMessage(w, http.StatusNotFound, "workflow not found")
			return
		}
		s.errors.Handle(w, err)
		return
	}

	if workflow.Status != store.WorkflowCompleted && workflow.Status != store.WorkflowFailed {
		writeJSON(w, http.StatusBadRequest, resultsPendingResponse{
			Message:    "workflow has not reached a terminal state",
			WorkflowID: workflow.ID,
			Status:     string(workflow.Status),
		})
		return
	}

	var finalResult interface{}
	if workflow.FinalResult != nil {
		finalResult = parseFinalResult(*workflow.FinalResult)
	}

	writeJSON(w, http.StatusOK, resultsResponse{
		WorkflowID:  workflow.ID,
		Status:      string(workflow.Status),
		FinalResult: finalResult,
	})
}
