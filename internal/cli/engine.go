package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aretw0/parley"
	"github.com/aretw0/parley/pkg/config"
	"github.com/aretw0/parley/pkg/domain"
)

// EngineOptions configures NewEngine.
type EngineOptions struct {
	RoutesPath   string
	Persistence  *Persistence
	Hooks        domain.LifecycleHooks
	MaxRedirects int
	Debug        bool
}

// NewEngine loads and validates a routing file and builds an Engine serving it.
func NewEngine(opts EngineOptions, logger *slog.Logger) (*parley.Engine, *config.File, error) {
	f, err := config.Load(opts.RoutesPath)
	if err != nil {
		return nil, nil, err
	}
	if err := config.Validate(f); err != nil {
		return nil, nil, err
	}

	catalog, registry, err := config.Build(f, config.WithLogger(logger))
	if err != nil {
		return nil, nil, err
	}

	hooks := opts.Hooks
	if opts.Debug {
		hooks = hooks.Merge(debugHooks(logger))
	}

	engineOpts := []parley.Option{
		parley.WithRegistry(registry),
		parley.WithLifecycleHooks(hooks),
		parley.WithLogger(logger),
	}
	if opts.MaxRedirects > 0 {
		engineOpts = append(engineOpts, parley.WithMaxRedirects(opts.MaxRedirects))
	}
	if opts.Persistence != nil {
		engineOpts = append(engineOpts, parley.WithManager(opts.Persistence.Manager))
	}

	engine, err := parley.New(catalog, engineOpts...)
	if err != nil {
		return nil, nil, fmt.Errorf("error initializing engine: %w", err)
	}
	return engine, f, nil
}

func debugHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTransition: func(ctx context.Context, e *domain.TransitionEvent) {
			logger.Debug("Transition", "from", e.From, "to", e.To)
		},
		OnIntent: func(ctx context.Context, e *domain.IntentEvent) {
			logger.Debug("Intent", "state", e.State, "intent", e.Intent)
		},
		OnFilter: func(ctx context.Context, e *domain.FilterEvent) {
			logger.Debug("Filter", "filter", e.Filter, "state", e.State, "intent", e.Intent, "result", e.Result)
		},
		OnRedirect: func(ctx context.Context, e *domain.RedirectEvent) {
			logger.Debug("Redirect", "to_state", e.ToState, "to_intent", e.ToIntent, "depth", e.Depth)
		},
	}
}
