// Package server exposes the pipeline over HTTP: article and fragment
// submission, job status polling, and a liveness probe.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/maquina-noticias/pipeline/internal/jobs"
	"github.com/maquina-noticias/pipeline/internal/pipeline"
	"github.com/maquina-noticias/pipeline/internal/store"
)

// APIVersion is reported in every synchronous response envelope.
const APIVersion = "1.0"

// Processor is the slice of the orchestrator the server needs.
type Processor interface {
	Process(ctx context.Context, sub pipeline.Submission) (*pipeline.Outcome, error)
	AsyncThreshold() int
}

// Options configures the server.
type Options struct {
	AllowedOrigins []string
}

// Server holds the HTTP handlers' dependencies.
type Server struct {
	processor Processor
	tracker   jobs.Tracker
	store     store.Store // nil when persistence is disabled; health reports accordingly
	opts      Options
}

// New builds a Server. tracker and store may be nil in reduced modes.
func New(processor Processor, tracker jobs.Tracker, st store.Store, opts Options) *Server {
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}
	return &Server{processor: processor, tracker: tracker, store: st, opts: opts}
}

// Router assembles the chi router with the standard middleware stack.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(5 * time.Minute))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.opts.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Accept", "Content-Type", "Authorization"},
	}))

	r.Post("/procesar_articulo", s.handleProcessArticle)
	r.Post("/procesar_fragmento", s.handleProcessFragment)
	r.Get("/status/{job_id}", s.handleJobStatus)
	r.Get("/health", s.handleHealth)

	return r
}
