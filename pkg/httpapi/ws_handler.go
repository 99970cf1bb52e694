package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// handleWorkflowLive upgrades to a websocket and streams status transitions
// for one workflow. Read-only: nothing received over this connection feeds
// back into dispatch decisions.
func (s *Server) handleWorkflowLive(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.hub.ServeWorkflow(w, r, id); err != nil {
		s.log.Warnw("websocket upgrade failed", "workflow_id", id, "error", err)
	}
}
