package filter

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/parley/internal/logging"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/ports"
)

// Redirector dispatches a filter's redirect.
type Redirector interface {
	RedirectTo(ctx context.Context, state, intent string, args ...any) error
}

// Pipeline runs matched filters before an intent handler.
type Pipeline struct {
	matcher *Matcher
	hooks   domain.LifecycleHooks
	logger  *slog.Logger
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithHooks registers observability hooks.
func WithHooks(hooks domain.LifecycleHooks) PipelineOption {
	return func(p *Pipeline) {
		p.hooks = hooks
	}
}

// WithLogger sets the pipeline logger.
func WithLogger(logger *slog.Logger) PipelineOption {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// NewPipeline creates a pipeline over matcher.
func NewPipeline(matcher *Matcher, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		matcher: matcher,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run executes the filters declared for state/intent in order.
// It returns true when the intent handler should run. A redirect is dispatched through r
// before Run returns false; a block returns false without dispatching anything.
// Filter and redirect errors abort the chain and are returned as is.
func (p *Pipeline) Run(ctx context.Context, r Redirector, state ports.State, stateName, intent string, args []any) (bool, error) {
	p.logger.Debug("executing filters", "state", stateName, "intent", intent)

	for _, m := range p.matcher.Match(state, stateName, intent) {
		result, err := m.Filter.Execute(ctx, state, stateName, intent, args...)
		if err != nil {
			return false, fmt.Errorf("filter %s: %w", m.ID, err)
		}
		p.emitFilter(ctx, stateName, intent, m.ID, result.Kind)

		switch result.Kind {
		case domain.ResultRedirect:
			target := result.Redirect
			p.logger.Debug("filter redirected",
				"filter", m.ID,
				"to_state", target.State,
				"to_intent", target.Intent,
			)
			if err := r.RedirectTo(ctx, target.State, target.Intent, target.ForwardArgs(args)...); err != nil {
				return false, err
			}
			return false, nil
		case domain.ResultBlock:
			p.logger.Debug("filter blocked intent", "filter", m.ID, "state", stateName, "intent", intent)
			return false, nil
		}
	}
	return true, nil
}

func (p *Pipeline) emitFilter(ctx context.Context, state, intent, id string, kind domain.ResultKind) {
	if p.hooks.OnFilter == nil {
		return
	}
	p.hooks.OnFilter(ctx, &domain.FilterEvent{
		EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventFilter},
		State:     state,
		Intent:    intent,
		Filter:    id,
		Result:    kind,
	})
}
