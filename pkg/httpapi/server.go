// Package httpapi is the thin HTTP adapter in front of the scheduling
// engine: workflow creation, status, and results.
package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sami-patel/geoworkflow/internal/factory"
	"github.com/sami-patel/geoworkflow/internal/platform/apierr"
	"github.com/sami-patel/geoworkflow/internal/platform/live"
	"github.com/sami-patel/geoworkflow/internal/platform/logging"
	"github.com/sami-patel/geoworkflow/internal/store"
)

const defaultWorkflowName = "example_workflow"

// Server wires the entity store, workflow factory, and live hub behind an
// HTTP router.
type Server struct {
	store   *store.Store
	factory *factory.Factory
	loader  *factory.Loader
	hub     *live.Hub
	log     *logging.Logger
	errors  *apierr.Handler
	router  chi.Router
}

// New builds a Server and wires its routes.
func New(st *store.Store, f *factory.Factory, loader *factory.Loader, hub *live.Hub, log *logging.Logger) *Server {
	s := &Server{
		store:   st,
		factory: f,
		loader:  loader,
		hub:     hub,
		log:     log,
		errors:  apierr.NewHandler(log),
	}
	s.router = s.buildRouter()
	return s
}

// Handler returns the root http.Handler for the server.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Post("/analysis", s.handleCreateAnalysis)
	r.Get("/workflow/{id}/status", s.handleWorkflowStatus)
	r.Get("/workflow/{id}/results", s.handleWorkflowResults)
	r.Get("/workflow/{id}/tasks", s.handleWorkflowTasks)
	r.Get("/ws/workflow/{id}", s.handleWorkflowLive)

	return r
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.log.Debugw("http request", "method", r.Method, "path", r.URL.Path)
		next.ServeHTTP(w, r)
	})
}
