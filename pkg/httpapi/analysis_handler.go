package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/sami-patel/geoworkflow/internal/platform/apierr"
)

func (s *Server) handleCreateAnalysis(w http.ResponseWriter, r *http.Request) {
	var req analysisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid workflow: malformed request body")
		return
	}

	workflowName := req.WorkflowName
	if workflowName == "" {
		workflowName = defaultWorkflowName
	}

	def, err := s.loader.Load(workflowName)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid workflow: "+err.Error())
		return
	}

	workflow, err := s.factory.Materialize(r.Context(), def, req.ClientID, req.GeoJSON)
	if err != nil {
		if appErr, ok := apierr.As(err); ok && appErr.Type == apierr.TypeInvalidWorkflow {
			writeMessage(w, http.StatusBadRequest, "Invalid workflow: "+appErr.Message)
			return
		}
		s.errors.Handle(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, analysisResponse{
		WorkflowID: workflow.ID,
		Message:    "workflow accepted",
	})
}
