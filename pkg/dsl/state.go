package dsl

import (
	"context"
	"fmt"

	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/ports"
)

// StateBuilder provides a fluent API for configuring a state.
type StateBuilder struct {
	name     string
	handlers map[string]ports.IntentHandler
	builder  *Builder
	errs     []error
}

// Filters declares state-level filters. They run for every intent of the state.
func (s *StateBuilder) Filters(ids ...string) *StateBuilder {
	s.builder.table.DeclareState(s.name, ids...)
	return s
}

// Intent registers the handler of intent, guarded by the given intent-level filters.
func (s *StateBuilder) Intent(intent string, handler ports.IntentHandler, filters ...string) *StateBuilder {
	switch {
	case intent == "":
		s.errs = append(s.errs, fmt.Errorf("state %q: intent missing name", s.name))
		return s
	case handler == nil:
		s.errs = append(s.errs, fmt.Errorf("state %q: intent %q has no handler", s.name, intent))
		return s
	}
	if _, dup := s.handlers[intent]; dup {
		s.errs = append(s.errs, fmt.Errorf("state %q: duplicate intent %q", s.name, intent))
		return s
	}

	s.handlers[intent] = handler
	if len(filters) > 0 {
		s.builder.table.DeclareIntent(s.name, intent, filters...)
	}
	return s
}

// Reply registers an intent that answers with text and keeps the session open.
func (s *StateBuilder) Reply(intent, text string, filters ...string) *StateBuilder {
	return s.Intent(intent, func(ctx context.Context, m ports.Machine, args ...any) error {
		domain.ReplyFromContext(ctx).Prompt(text)
		return nil
	}, filters...)
}

// End registers an intent that answers with text and finishes the conversation.
func (s *StateBuilder) End(intent, text string, filters ...string) *StateBuilder {
	return s.Intent(intent, func(ctx context.Context, m ports.Machine, args ...any) error {
		domain.ReplyFromContext(ctx).EndSessionWith(text)
		return nil
	}, filters...)
}

// Go registers an intent that moves the conversation to target.
func (s *StateBuilder) Go(intent, target string, filters ...string) *StateBuilder {
	return s.Intent(intent, func(ctx context.Context, m ports.Machine, args ...any) error {
		return m.TransitionTo(ctx, target)
	}, filters...)
}

// State switches to another state of the same builder.
func (s *StateBuilder) State(name string) *StateBuilder {
	return s.builder.State(name)
}
