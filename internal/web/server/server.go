// Package server exposes the engine over HTTP: listing loaded collections,
// evaluating patterns, and browsing roll history. It is the surrounding
// application's surface; the engine itself has no network dependency.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/fatesmith/fatesmith/collection"
	"github.com/fatesmith/fatesmith/engine/eval"
	"github.com/fatesmith/fatesmith/engine/evalerr"
	"github.com/fatesmith/fatesmith/internal/history"
)

// Server serves the Fatesmith HTTP API. The registry can be swapped at
// runtime via Reload; in-flight evaluations keep the registry they started
// with.
type Server struct {
	mu       sync.RWMutex
	registry *collection.Registry
	engine   *eval.Engine

	history *history.Store // nil disables the history endpoints
	logger  *zap.Logger

	httpServer *http.Server
}

// Config holds the server dependencies.
type Config struct {
	Addr     string
	Registry *collection.Registry
	History  *history.Store
	Logger   *zap.Logger
}

// New builds a server and its routes.
func New(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		registry: cfg.Registry,
		engine:   eval.New(cfg.Registry),
		history:  cfg.History,
		logger:   logger,
	}

	r := chi.NewRouter()
	r.Use(s.logRequests)
	r.Route("/api", func(r chi.Router) {
		r.Get("/collections", s.handleListCollections)
		r.Get("/collections/{namespace}", s.handleGetCollection)
		r.Post("/collections/{namespace}/roll", s.handleRoll)
		r.Get("/history", s.handleHistory)
	})

	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           r,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the HTTP handler, for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Reload swaps the registry serving subsequent requests, used by the
// collections file watcher.
func (s *Server) Reload(reg *collection.Registry) {
	s.mu.Lock()
	s.registry = reg
	s.engine = eval.New(reg)
	s.mu.Unlock()
	s.logger.Info("registry reloaded", zap.Int("collections", reg.Len()))
}

// current returns the registry and engine as a consistent pair.
func (s *Server) current() (*collection.Registry, *eval.Engine) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.registry, s.engine
}

// ListenAndServe blocks serving the API.
func (s *Server) ListenAndServe() error {
	s.logger.Info("server listening", zap.String("addr", s.httpServer.Addr))
	return s.httpServer.ListenAndServe()
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

// collectionSummary is the list-view projection of a loaded document.
type collectionSummary struct {
	Namespace string `json:"namespace"`
	Name      string `json:"name"`
	Version   string `json:"version,omitempty"`
	Tables    int    `json:"tables"`
	Templates int    `json:"templates"`
}

func (s *Server) handleListCollections(w http.ResponseWriter, r *http.Request) {
	reg, _ := s.current()
	docs := reg.List()
	out := make([]collectionSummary, len(docs))
	for i, doc := range docs {
		out[i] = collectionSummary{
			Namespace: doc.Metadata.Namespace,
			Name:      doc.Metadata.Name,
			Version:   doc.Metadata.Version,
			Tables:    len(doc.Tables),
			Templates: len(doc.Templates),
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetCollection(w http.ResponseWriter, r *http.Request) {
	ns := chi.URLParam(r, "namespace")
	reg, _ := s.current()
	doc := reg.Get(ns)
	if doc == nil {
		writeError(w, http.StatusNotFound, "collection not found: "+ns)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// rollRequest is the body of POST /api/collections/{namespace}/roll.
type rollRequest struct {
	Pattern     string            `json:"pattern"`
	EnableTrace bool              `json:"enableTrace,omitempty"`
	Shared      map[string]string `json:"shared,omitempty"`
	Seed        *int64            `json:"seed,omitempty"`
}

func (s *Server) handleRoll(w http.ResponseWriter, r *http.Request) {
	ns := chi.URLParam(r, "namespace")
	var req rollRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Pattern == "" {
		writeError(w, http.StatusBadRequest, "pattern is required")
		return
	}

	_, engine := s.current()
	res := engine.EvaluateRawPattern(req.Pattern, ns, eval.Options{
		EnableTrace: req.EnableTrace,
		Shared:      req.Shared,
		Seed:        req.Seed,
	})
	if res.Err != nil {
		s.logger.Warn("evaluation failed",
			zap.String("namespace", ns),
			zap.String("pattern", req.Pattern),
			zap.Error(res.Err),
		)
		writeJSON(w, statusForError(res.Err), map[string]interface{}{
			"error":    res.Err.Error(),
			"segments": res.Segments,
			"trace":    res.Trace,
		})
		return
	}

	if s.history != nil {
		err := s.history.Record(history.Roll{
			RunID:     res.RunID,
			Namespace: ns,
			Pattern:   req.Pattern,
			Output:    res.Text,
			Seed:      res.Seed,
		})
		if err != nil {
			s.logger.Warn("history record failed", zap.Error(err))
		}
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeError(w, http.StatusNotFound, "history is not enabled")
		return
	}
	rolls, err := s.history.Recent(50)
	if err != nil {
		s.logger.Error("history query failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "history query failed")
		return
	}
	writeJSON(w, http.StatusOK, rolls)
}

// statusForError maps engine error kinds to HTTP status codes.
func statusForError(err error) int {
	kind, ok := evalerr.KindOf(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch kind {
	case evalerr.KindResolution:
		return http.StatusNotFound
	case evalerr.KindParse:
		return http.StatusBadRequest
	case evalerr.KindDocument, evalerr.KindDeclaration:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusUnprocessableEntity
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
