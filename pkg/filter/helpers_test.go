package filter_test

import (
	"context"
	"sort"

	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/ports"
)

type fakeState struct {
	name    string
	intents map[string]ports.IntentHandler
}

func newFakeState(name string, intents ...string) *fakeState {
	s := &fakeState{name: name, intents: make(map[string]ports.IntentHandler)}
	for _, i := range intents {
		s.intents[i] = func(ctx context.Context, m ports.Machine, args ...any) error { return nil }
	}
	return s
}

func (s *fakeState) Name() string { return s.name }

func (s *fakeState) Intent(intent string) (ports.IntentHandler, bool) {
	h, ok := s.intents[intent]
	return h, ok
}

func (s *fakeState) Intents() []string {
	out := make([]string, 0, len(s.intents))
	for k := range s.intents {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

type call struct {
	Filter string
	State  string
	Intent string
	Args   []any
}

// recorder builds filters that log their invocation and return a fixed result.
type recorder struct {
	calls []call
}

func (r *recorder) filter(id string, result domain.FilterResult) ports.Filter {
	return ports.FilterFunc(func(ctx context.Context, state ports.State, stateName, intent string, args ...any) (domain.FilterResult, error) {
		r.calls = append(r.calls, call{Filter: id, State: stateName, Intent: intent, Args: args})
		return result, nil
	})
}

func (r *recorder) order() []string {
	out := make([]string, 0, len(r.calls))
	for _, c := range r.calls {
		out = append(out, c.Filter)
	}
	return out
}

type redirect struct {
	State  string
	Intent string
	Args   []any
}

type redirectSpy struct {
	redirects []redirect
	err       error
}

func (s *redirectSpy) RedirectTo(ctx context.Context, state, intent string, args ...any) error {
	s.redirects = append(s.redirects, redirect{State: state, Intent: intent, Args: args})
	return s.err
}
