package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/parley/internal/logging"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/filter"
	"github.com/aretw0/parley/pkg/ports"
)

// Machine is the per-request dialog state machine.
// It starts idle, enters a state on the first TransitionTo and runs intents on that state.
// A Machine belongs to one request and is not safe for concurrent use.
type Machine struct {
	provider     ports.StateProvider
	pipeline     *filter.Pipeline
	hooks        domain.LifecycleHooks
	logger       *slog.Logger
	maxRedirects int

	current     ports.State
	currentName string
	intent      string
	depth       int
}

var (
	_ ports.Machine     = (*Machine)(nil)
	_ filter.Redirector = (*Machine)(nil)
)

// MachineOption configures a Machine.
type MachineOption func(*Machine)

// WithPipeline sets the filter pipeline run before every intent.
func WithPipeline(p *filter.Pipeline) MachineOption {
	return func(m *Machine) {
		m.pipeline = p
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) MachineOption {
	return func(m *Machine) {
		m.hooks = hooks
	}
}

// WithLogger sets a custom logger for the machine.
func WithLogger(logger *slog.Logger) MachineOption {
	return func(m *Machine) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithMaxRedirects bounds nested redirects. Zero disables the bound.
func WithMaxRedirects(n int) MachineOption {
	return func(m *Machine) {
		m.maxRedirects = n
	}
}

// NewMachine creates an idle machine resolving states through provider.
func NewMachine(provider ports.StateProvider, opts ...MachineOption) *Machine {
	m := &Machine{
		provider:     provider,
		logger:       logging.NewNop(),
		maxRedirects: domain.DefaultMaxRedirects,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.pipeline == nil {
		m.pipeline = filter.NewPipeline(filter.NewMatcher(nil, nil, m.logger))
	}
	return m
}

// CurrentState returns the active state name, or "" while idle.
func (m *Machine) CurrentState() string {
	return m.currentName
}

// TransitionTo replaces the current state. Resolution errors come from the provider unchanged.
func (m *Machine) TransitionTo(ctx context.Context, name string) error {
	st, err := m.provider.State(ctx, name)
	if err != nil {
		return err
	}

	from := m.currentName
	m.current = st
	m.currentName = name

	m.logger.Debug("transition", "from", from, "to", name)
	if m.hooks.OnTransition != nil {
		m.hooks.OnTransition(ctx, &domain.TransitionEvent{
			EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventTransition},
			From:      from,
			To:        name,
		})
	}
	return nil
}

// Resume enters a previously persisted state without emitting a transition.
func (m *Machine) Resume(ctx context.Context, name string) error {
	st, err := m.provider.State(ctx, name)
	if err != nil {
		return err
	}
	m.current = st
	m.currentName = name
	return nil
}

// HandleIntent runs the filters of the current state and intent, then the intent handler
// unless a filter blocked or redirected.
func (m *Machine) HandleIntent(ctx context.Context, intent string, args ...any) error {
	if m.current == nil {
		return &domain.IntentError{Intent: intent, Err: domain.ErrNoCurrentState}
	}
	st, name := m.current, m.currentName

	prev := m.intent
	m.intent = intent
	defer func() { m.intent = prev }()

	proceed, err := m.pipeline.Run(ctx, m, st, name, intent, args)
	if err != nil || !proceed {
		return err
	}

	handler, ok := st.Intent(intent)
	if !ok {
		return &domain.IntentError{State: name, Intent: intent, Err: domain.ErrIntentNotFound}
	}

	if m.hooks.OnIntent != nil {
		m.hooks.OnIntent(ctx, &domain.IntentEvent{
			EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventIntent},
			State:     name,
			Intent:    intent,
		})
	}

	return handler(ctx, m, args...)
}

// RedirectTo transitions to state and handles intent there, running that intent's filters.
func (m *Machine) RedirectTo(ctx context.Context, state, intent string, args ...any) error {
	if m.maxRedirects > 0 && m.depth >= m.maxRedirects {
		return fmt.Errorf("%w: %d nested redirects, last to %s/%s", domain.ErrRedirectLimit, m.depth, state, intent)
	}
	m.depth++
	defer func() { m.depth-- }()

	m.logger.Debug("redirect",
		"from_state", m.currentName,
		"to_state", state,
		"to_intent", intent,
		"depth", m.depth,
	)
	if m.hooks.OnRedirect != nil {
		m.hooks.OnRedirect(ctx, &domain.RedirectEvent{
			EventBase:  domain.EventBase{Timestamp: time.Now(), Type: domain.EventRedirect},
			FromState:  m.currentName,
			FromIntent: m.intent,
			ToState:    state,
			ToIntent:   intent,
			Depth:      m.depth,
		})
	}

	if err := m.TransitionTo(ctx, state); err != nil {
		return err
	}
	return m.HandleIntent(ctx, intent, args...)
}
