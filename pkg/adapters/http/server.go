package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/parley"
	"github.com/aretw0/parley/internal/logging"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Engine is the part of parley.Engine the transport needs.
type Engine interface {
	Handle(ctx context.Context, req parley.Request) (*parley.Response, error)
	NewSessionID() string
	Session(ctx context.Context, sessionID string) (map[string]string, error)
	Sessions(ctx context.Context) ([]string, error)
	EndSession(ctx context.Context, sessionID string) error
}

// RequestObserver records request durations, e.g. observability.Metrics.
type RequestObserver interface {
	ObserveRequest(start time.Time, err error)
}

// IntentRequest is the body of POST /sessions/{id}/intents.
type IntentRequest struct {
	Intent string `json:"intent"`
	Args   []any  `json:"args,omitempty"`
}

// Server exposes an Engine over HTTP.
type Server struct {
	Engine   Engine
	Streams  *StreamManager
	logger   *slog.Logger
	gatherer prometheus.Gatherer
	observer RequestObserver
}

// Option configures the handler.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics exposes gatherer on GET /metrics.
func WithMetrics(gatherer prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = gatherer
	}
}

// WithRequestObserver times every intent request.
func WithRequestObserver(o RequestObserver) Option {
	return func(s *Server) {
		s.observer = o
	}
}

// NewHandler creates a new HTTP handler for the engine.
func NewHandler(engine Engine, opts ...Option) http.Handler {
	s := &Server{
		Engine:  engine,
		Streams: NewStreamManager(),
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s.Routes()
}

// Routes builds the router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.GetHealth)
	r.Get("/info", s.GetInfo)
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/sessions", func(r chi.Router) {
		r.Get("/", s.ListSessions)
		r.Post("/", s.CreateSession)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.GetSession)
			r.Delete("/", s.DeleteSession)
			r.Post("/intents", s.HandleIntent)
			r.Get("/events", s.SubscribeEvents)
		})
	})
	return r
}

// GetHealth handles GET /healthz.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles GET /info.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"app":     "parley-http",
		"version": parley.Version,
	})
}

// ListSessions handles GET /sessions.
func (s *Server) ListSessions(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Engine.Sessions(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"sessions": ids})
}

// CreateSession handles POST /sessions. It only allocates an identifier; nothing is stored
// until an intent writes to the session.
func (s *Server) CreateSession(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusCreated, map[string]string{"session_id": s.Engine.NewSessionID()})
}

// GetSession handles GET /sessions/{id}.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	data, err := s.Engine.Session(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"session_id": id, "data": data})
}

// DeleteSession handles DELETE /sessions/{id}.
func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.Engine.EndSession(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleIntent handles POST /sessions/{id}/intents.
func (s *Server) HandleIntent(w http.ResponseWriter, r *http.Request) {
	var body IntentRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.logger.Warn("HandleIntent: invalid request body", "error", err)
		return
	}

	start := time.Now()
	resp, err := s.Engine.Handle(r.Context(), parley.Request{
		SessionID: chi.URLParam(r, "id"),
		Intent:    body.Intent,
		Args:      body.Args,
	})
	if s.observer != nil {
		s.observer.ObserveRequest(start, err)
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}

	if payload, err := json.Marshal(resp); err == nil {
		s.Streams.Broadcast(resp.SessionID, string(payload))
	}
	writeJSON(w, http.StatusOK, resp)
}

// SubscribeEvents handles GET /sessions/{id}/events as a Server-Sent Events stream of responses.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	sessionID := chi.URLParam(r, "id")
	ch, cancel := s.Streams.Subscribe(sessionID)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()
	s.logger.Debug("SSE: subscribed", "session_id", sessionID)

	for {
		select {
		case <-r.Context().Done():
			s.logger.Debug("SSE: client disconnected", "session_id", sessionID)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "error", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, parley.ErrNoIntent):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, domain.ErrIntentNotFound),
		errors.Is(err, domain.ErrStateNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrMalformedSession), errors.Is(err, domain.ErrInvalidSessionValue):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrRedirectLimit):
		return http.StatusLoopDetected
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
