// Package api exposes the Persistence and Assessment gateways over HTTP
// with JSON bodies and RFC 7807 error responses.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/abhisek/waypoint/internal/gateway"
	"github.com/abhisek/waypoint/internal/roadmap"
)

// ElapsedRequest is the body of POST /api/steps/{id}/elapsed.
type ElapsedRequest struct {
	Minutes int `json:"minutes"`
}

// DoneRequest is the body of PUT /api/steps/{id}/done.
type DoneRequest struct {
	Done bool `json:"done"`
}

// SubmitRequest is the body of POST /api/steps/{id}/assessment/submit.
type SubmitRequest struct {
	Answers        []gateway.Answer `json:"answers"`
	ElapsedSeconds int              `json:"elapsedSeconds"`
}

// Backend is what the server serves.
type Backend interface {
	gateway.Persistence
	gateway.Assessments
}

// Options configures a Server.
type Options struct {
	// Token, when set, is required as a bearer token on every request.
	Token string
	// RateLimit is requests per second per client IP. Zero disables it.
	RateLimit float64
	Burst     int
	Logger    *slog.Logger

	// Catalog, when set, serves the career list and roadmap routes.
	Catalog gateway.Catalog
}

// Server serves the gateway routes.
type Server struct {
	backend Backend
	opts    Options
	logger  *slog.Logger
}

// NewServer creates a Server over backend.
func NewServer(backend Backend, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{backend: backend, opts: opts, logger: logger.With("component", "api")}
}

// Handler returns the routed handler with auth, rate limiting and request
// logging applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/steps/{id}/start", s.handleStart)
	mux.HandleFunc("POST /api/steps/{id}/elapsed", s.handleElapsed)
	mux.HandleFunc("PUT /api/steps/{id}/done", s.handleDone)
	mux.HandleFunc("GET /api/steps/{id}/assessment", s.handleLoadAssessment)
	mux.HandleFunc("POST /api/steps/{id}/assessment/submit", s.handleSubmit)
	mux.HandleFunc("GET /api/careers/{id}/progress", s.handleProgress)
	if s.opts.Catalog != nil {
		mux.HandleFunc("GET /api/careers", s.handleListCareers)
		mux.HandleFunc("GET /api/careers/{id}/roadmap", s.handleRoadmap)
	}
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	var h http.Handler = mux
	h = requireToken(s.opts.Token, h)
	if s.opts.RateLimit > 0 {
		burst := s.opts.Burst
		if burst < 1 {
			burst = 1
		}
		h = NewRateLimiter(s.opts.RateLimit, burst).Middleware(h)
	}
	return logRequests(s.logger, h)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func stepID(r *http.Request) roadmap.StepID {
	return roadmap.StepID(r.PathValue("id"))
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	if err := s.backend.StartStep(r.Context(), stepID(r)); err != nil {
		s.writeGatewayError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleElapsed(w http.ResponseWriter, r *http.Request) {
	var req ElapsedRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Minutes < 1 {
		writeBadRequest(w, r, "minutes must be at least 1")
		return
	}
	if err := s.backend.RecordElapsed(r.Context(), stepID(r), req.Minutes); err != nil {
		s.writeGatewayError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDone(w http.ResponseWriter, r *http.Request) {
	var req DoneRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := s.backend.SetStepDone(r.Context(), stepID(r), req.Done)
	if err != nil {
		s.writeGatewayError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleLoadAssessment(w http.ResponseWriter, r *http.Request) {
	a, err := s.backend.LoadAssessment(r.Context(), stepID(r))
	if err != nil {
		s.writeGatewayError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req SubmitRequest
	if !decode(w, r, &req) {
		return
	}
	if req.ElapsedSeconds < 0 {
		writeBadRequest(w, r, "elapsedSeconds must not be negative")
		return
	}
	res, err := s.backend.SubmitAssessment(r.Context(), stepID(r), req.Answers, req.ElapsedSeconds)
	if err != nil {
		s.writeGatewayError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	statuses, err := s.backend.GetProgress(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeGatewayError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, statuses)
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeBadRequest(w, r, "Invalid request body")
		return false
	}
	return true
}

// writeGatewayError maps the gateway taxonomy to status codes.
func (s *Server) writeGatewayError(w http.ResponseWriter, r *http.Request, err error) {
	var rejected *gateway.RejectedError
	switch {
	case errors.Is(err, gateway.ErrLocked):
		writeProblem(w, r, http.StatusLocked, ProblemLocked, "Locked", err.Error())
	case errors.As(err, &rejected):
		writeProblem(w, r, http.StatusForbidden, ProblemAssessmentRequired, "Assessment Required", rejected.Reason)
	case errors.Is(err, gateway.ErrAssessmentRequired):
		writeProblem(w, r, http.StatusForbidden, ProblemAssessmentRequired, "Assessment Required", err.Error())
	case errors.Is(err, gateway.ErrNotFound):
		writeProblem(w, r, http.StatusNotFound, ProblemNotFound, "Not Found", err.Error())
	default:
		writeInternal(w, r, s.logger, err)
	}
}
