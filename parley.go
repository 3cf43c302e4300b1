package parley

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aretw0/parley/internal/logging"
	"github.com/aretw0/parley/internal/runtime"
	"github.com/aretw0/parley/pkg/adapters/memory"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/filter"
	"github.com/aretw0/parley/pkg/ports"
	"github.com/aretw0/parley/pkg/session"
	"github.com/google/uuid"
)

// ErrNoIntent is returned by Handle when the request names no intent.
var ErrNoIntent = errors.New("request has no intent")

// Request is one recognized user turn.
type Request struct {
	SessionID string `json:"session_id"`
	Intent    string `json:"intent"`
	Args      []any  `json:"args,omitempty"`
}

// Response is what the dialog produced for a Request.
type Response struct {
	SessionID  string           `json:"session_id"`
	State      string           `json:"state"`
	Replies    []domain.Message `json:"replies"`
	EndSession bool             `json:"end_session"`
}

// Text joins all reply texts with a single space.
func (r *Response) Text() string {
	reply := domain.Reply{Messages: r.Replies}
	return reply.Text()
}

// Engine is the high-level entry point for the Parley library.
// It ties a state provider, the filter pipeline and the session store into request handling.
type Engine struct {
	provider     ports.StateProvider
	entry        string
	table        *filter.Table
	registry     *filter.Registry
	store        ports.SessionStore
	manager      *session.Manager
	hooks        domain.LifecycleHooks
	logger       *slog.Logger
	maxRedirects int
	pipeline     *filter.Pipeline
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithRegistry sets the live filters. Declarations come from the provider or WithFilterTable.
func WithRegistry(r *filter.Registry) Option {
	return func(e *Engine) {
		e.registry = r
	}
}

// WithFilterTable overrides the filter declarations exposed by the provider.
func WithFilterTable(t *filter.Table) Option {
	return func(e *Engine) {
		e.table = t
	}
}

// WithEntryState configures the state new sessions start in.
func WithEntryState(name string) Option {
	return func(e *Engine) {
		e.entry = name
	}
}

// WithStore persists sessions in store. Defaults to an in-memory store.
func WithStore(store ports.SessionStore) Option {
	return func(e *Engine) {
		e.store = store
	}
}

// WithManager injects a preconfigured session manager, e.g. one with a distributed locker.
// It takes precedence over WithStore.
func WithManager(m *session.Manager) Option {
	return func(e *Engine) {
		e.manager = m
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithMaxRedirects bounds nested filter redirects per request. Zero disables the bound.
func WithMaxRedirects(n int) Option {
	return func(e *Engine) {
		e.maxRedirects = n
	}
}

// New initializes a new Parley Engine serving the states of provider.
// Providers built by package dsl or package config also supply the entry state and filter table.
func New(provider ports.StateProvider, opts ...Option) (*Engine, error) {
	if provider == nil {
		return nil, fmt.Errorf("state provider is required")
	}

	eng := &Engine{
		provider:     provider,
		maxRedirects: domain.DefaultMaxRedirects,
	}
	for _, opt := range opts {
		opt(eng)
	}

	if eng.logger == nil {
		eng.logger = logging.NewNop()
	}
	if eng.entry == "" {
		if ep, ok := provider.(interface{ Entry() string }); ok {
			eng.entry = ep.Entry()
		}
	}
	if eng.entry == "" {
		eng.entry = domain.DefaultEntryState
	}
	if eng.table == nil {
		if tp, ok := provider.(interface{ Table() *filter.Table }); ok {
			eng.table = tp.Table()
		} else {
			eng.table = filter.NewTable()
		}
	}
	if eng.registry == nil {
		eng.registry = filter.NewRegistry()
	}
	if eng.manager == nil {
		if eng.store == nil {
			eng.store = memory.NewStore()
		}
		eng.manager = session.NewManager(eng.store, session.WithLogger(eng.logger))
	}
	eng.store = eng.manager.Store()

	if missing := eng.registry.Missing(eng.table); len(missing) > 0 {
		eng.logger.Warn("declared filters have no registered implementation", "filters", missing)
	}

	eng.pipeline = filter.NewPipeline(
		filter.NewMatcher(eng.table, eng.registry, eng.logger),
		filter.WithHooks(eng.hooks),
		filter.WithLogger(eng.logger),
	)
	return eng, nil
}

// NewSessionID returns a fresh random session identifier.
func (e *Engine) NewSessionID() string {
	return uuid.NewString()
}

// Handle runs one request: it restores the session's current state, dispatches the intent
// through the filter pipeline and persists the session exactly once.
// A request without SessionID starts a new session.
// When a handler ends the conversation, the session is cleared.
func (e *Engine) Handle(ctx context.Context, req Request) (*Response, error) {
	if req.Intent == "" {
		return nil, ErrNoIntent
	}
	if req.SessionID == "" {
		req.SessionID = e.NewSessionID()
	}

	logger := e.logger.With("session_id", req.SessionID, "intent", req.Intent)
	reply := &domain.Reply{}
	resp := &Response{SessionID: req.SessionID}

	err := e.manager.Run(ctx, req.SessionID, func(ctx context.Context, s *session.Store) error {
		ctx = domain.WithReply(ctx, reply)

		current, ok, err := s.Get(ctx, domain.KeyCurrentState)
		if err != nil {
			return err
		}
		if !ok {
			current = e.entry
		}

		m := runtime.NewMachine(e.provider,
			runtime.WithPipeline(e.pipeline),
			runtime.WithLifecycleHooks(e.hooks),
			runtime.WithLogger(logger),
			runtime.WithMaxRedirects(e.maxRedirects),
		)
		if err := m.Resume(ctx, current); err != nil {
			return fmt.Errorf("failed to resume state %q: %w", current, err)
		}
		if err := m.HandleIntent(ctx, req.Intent, req.Args...); err != nil {
			return err
		}

		resp.State = m.CurrentState()
		if reply.EndSession {
			logger.Debug("conversation ended", "state", resp.State)
			return s.DeleteAllFields(ctx)
		}
		if resp.State != current {
			return s.Set(ctx, domain.KeyCurrentState, resp.State)
		}
		return nil
	})
	if err != nil {
		logger.Error("request failed", "error", err)
		return nil, err
	}

	resp.Replies = reply.Messages
	resp.EndSession = reply.EndSession
	return resp, nil
}

// Session returns the persisted data of a session.
func (e *Engine) Session(ctx context.Context, sessionID string) (map[string]string, error) {
	return e.manager.Load(ctx, sessionID)
}

// Sessions lists the persisted session identifiers.
func (e *Engine) Sessions(ctx context.Context) ([]string, error) {
	return e.manager.List(ctx)
}

// EndSession removes a session.
func (e *Engine) EndSession(ctx context.Context, sessionID string) error {
	return e.manager.Delete(ctx, sessionID)
}

// Entry returns the state new sessions start in.
func (e *Engine) Entry() string {
	return e.entry
}

// Registry returns the live filters.
func (e *Engine) Registry() *filter.Registry {
	return e.registry
}

// Provider returns the underlying state provider.
func (e *Engine) Provider() ports.StateProvider {
	return e.provider
}
