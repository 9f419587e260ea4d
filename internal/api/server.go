// Package api exposes the HTTP interface of the import service. It is thin
// glue over the orchestrators; authentication, UI and reporting live in a
// separate admin application.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/brandgate/catalog-sync/internal/catalog"
	"github.com/brandgate/catalog-sync/internal/telemetry"
)

// Orchestrator is the sequential import entry point.
type Orchestrator interface {
	ImportByReference(ctx context.Context, reference string, opts catalog.Options) catalog.ImportResult
	ImportMany(ctx context.Context, references []string, opts catalog.Options) []catalog.ImportResult
}

// FastOrchestrator adds the cache-accelerated entry points.
type FastOrchestrator interface {
	Orchestrator
	ExistingReferences(ctx context.Context, references []string) ([]string, error)
	ClearCache()
}

// Server wires HTTP handlers to the orchestrators.
type Server struct {
	router    chi.Router
	slow      Orchestrator
	fast      FastOrchestrator
	admission catalog.Admission
	logger    *zap.Logger
}

// NewServer constructs a Server with middleware and routes.
func NewServer(slow Orchestrator, fast FastOrchestrator, admission catalog.Admission, logger *zap.Logger) *Server {
	s := &Server{
		slow:      slow,
		fast:      fast,
		admission: admission,
		logger:    logger,
	}
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoverMiddleware)

	r.Get("/healthz", s.healthz)
	r.Method(http.MethodGet, "/metrics", telemetry.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Post("/imports", s.runImport)
		r.Post("/imports/existing", s.existingReferences)
		r.Post("/cache/clear", s.clearCache)
		r.Get("/admission/status", s.admissionStatus)
	})

	s.router = r
	return s
}

// Handler returns the router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type importRequest struct {
	References []string         `json:"references"`
	Fast       bool             `json:"fast"`
	Options    *catalog.Options `json:"options"`
}

func (s *Server) runImport(w http.ResponseWriter, r *http.Request) {
	var req importRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if len(req.References) == 0 {
		s.writeError(w, http.StatusBadRequest, "at least one reference required")
		return
	}
	opts := catalog.DefaultOptions()
	if req.Options != nil {
		opts = *req.Options
	}

	var results []catalog.ImportResult
	if req.Fast {
		results = s.fast.ImportMany(r.Context(), req.References, opts)
	} else {
		results = s.slow.ImportMany(r.Context(), req.References, opts)
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

type referencesRequest struct {
	References []string `json:"references"`
}

func (s *Server) existingReferences(w http.ResponseWriter, r *http.Request) {
	var req referencesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	existing, err := s.fast.ExistingReferences(r.Context(), req.References)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if existing == nil {
		existing = []string{}
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"existing": existing})
}

func (s *Server) clearCache(w http.ResponseWriter, _ *http.Request) {
	s.fast.ClearCache()
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

func (s *Server) admissionStatus(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.admission.Status())
}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := uuid.NewString()
		ctx := context.WithValue(r.Context(), requestIDKey{}, reqID)
		w.Header().Set("X-Request-ID", reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(ww, r)
		s.logger.Info("request completed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.status),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
	})
}

func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("panic recovered", zap.Any("error", rec))
				s.writeError(w, http.StatusInternalServerError, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

type requestIDKey struct{}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("write JSON failed", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}
