// Package api exposes a Session over HTTP as a small JSON API.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	"github.com/dgallion1/outline/internal/config"
	"github.com/dgallion1/outline/internal/doctree"
	"github.com/dgallion1/outline/internal/pipeline"
	"github.com/dgallion1/outline/internal/session"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server is the HTTP API server for one outline session. Every /api request
// holds the session lock for its whole duration.
type Server struct {
	router chi.Router
	mu     sync.Mutex
	sess   *session.Session
	log    *slog.Logger
	cfg    config.Config

	imports *pipeline.Orchestrator
}

// NewServer creates and configures the HTTP server.
func NewServer(sess *session.Session, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		sess: sess,
		log:  log,
		cfg:  cfg,
	}
	s.imports = pipeline.NewOrchestrator(cfg, s, log)
	s.setupRoutes()
	return s
}

// Start launches the background import workers.
func (s *Server) Start(ctx context.Context) {
	s.imports.Start(ctx)
}

// Stop waits for the import workers to finish.
func (s *Server) Stop() {
	s.imports.Stop()
}

// Graft places a background import into the session under the session lock.
func (s *Server) Graft(frag *doctree.DocTree, source string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, err := s.sess.ImportFragment(frag, source)
	if err != nil {
		return "", err
	}
	return s.sess.Tree().PathOf(id)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		if s.cfg.APIKey != "" {
			r.Use(AuthMiddleware(s.cfg.APIKey, s.log))
		} else {
			s.log.Warn("api key not configured, api is unauthenticated")
		}
		r.Use(Serialize(&s.mu))

		r.Get("/tree", s.handleTree)
		r.Get("/markdown", s.handleMarkdown)
		r.Get("/nodes/{path}", s.handleGetNode)
		r.Post("/select", s.handleSelect)
		r.Put("/body", s.handleBody)
		r.Post("/undo", s.handleUndo)
		r.Post("/redo", s.handleRedo)

		r.Post("/nodes/sibling", s.handleInsertSibling)
		r.Post("/nodes/child", s.handleInsertChild)
		r.Delete("/nodes", s.handleDelete)
		r.Patch("/nodes", s.handleRename)
		r.Post("/move", s.handleMove)

		r.Get("/find", s.handleFind)
		r.Post("/find/next", s.handleFindNext)
		r.Post("/find/previous", s.handleFindPrevious)
		r.Delete("/find", s.handleResetFind)

		r.Post("/open", s.handleOpen)
		r.Post("/reload", s.handleReload)
		r.Post("/restore", s.handleRestore)
		r.Post("/save", s.handleSave)
		r.Get("/export.html", s.handleExport)
		r.Post("/import", s.handleImport)
		r.Get("/jobs/{id}", s.handleGetJob)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":       "ok",
		"import_queue": s.imports.QueueDepth(),
	})
}
