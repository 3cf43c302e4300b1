package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/aretw0/parley/internal/logging"
	"github.com/aretw0/parley/pkg/adapters/memory"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/filter"
	"github.com/aretw0/parley/pkg/ports"
	"github.com/aretw0/parley/pkg/session"
)

// ErrInvalid wraps every problem reported by Validate.
var ErrInvalid = errors.New("invalid routing file")

// Validate reports every structural problem of f at once.
func Validate(f *File) error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if len(f.States) == 0 {
		add("no states declared")
	} else if _, ok := f.States[f.EntryState()]; !ok {
		add("entry state %q is not declared", f.EntryState())
	}

	declared := make(map[string]bool, len(f.Filters))
	for i, fc := range f.Filters {
		if fc.ID == "" {
			add("filters[%d]: missing id", i)
			continue
		}
		if declared[fc.ID] {
			add("filter %q declared twice", fc.ID)
		}
		declared[fc.ID] = true

		if _, err := NewFilter(fc, logging.NewNop()); err != nil {
			errs = append(errs, err)
			continue
		}
		if target, ok := fc.RedirectTarget(); ok && !f.hasIntent(target.State, target.Intent) {
			add("filter %q redirects to unknown intent %s/%s", fc.ID, target.State, target.Intent)
		}
	}

	for _, name := range sortedKeys(f.States) {
		st := f.States[name]
		for _, id := range st.Filters {
			if !declared[id] {
				add("state %q references unknown filter %q", name, id)
			}
		}
		for _, intent := range sortedKeys(st.Intents) {
			ic := st.Intents[intent]
			for _, id := range ic.Filters {
				if !declared[id] {
					add("intent %s/%s references unknown filter %q", name, intent, id)
				}
			}
			if ic.Transition != "" {
				if _, ok := f.States[ic.Transition]; !ok {
					add("intent %s/%s transitions to unknown state %q", name, intent, ic.Transition)
				}
			}
		}
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return nil
}

func (f *File) hasIntent(state, intent string) bool {
	st, ok := f.States[state]
	if !ok {
		return false
	}
	_, ok = st.Intents[intent]
	return ok
}

// BuildOption configures Build.
type BuildOption func(*buildOptions)

type buildOptions struct {
	logger   *slog.Logger
	registry *filter.Registry
}

// WithLogger sets the logger used by "log" filters.
func WithLogger(logger *slog.Logger) BuildOption {
	return func(o *buildOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithRegistry registers the file's filters into an existing registry,
// so Go filters and file filters can be mixed.
func WithRegistry(r *filter.Registry) BuildOption {
	return func(o *buildOptions) {
		o.registry = r
	}
}

// Build validates f and turns it into a state catalog and the registry of its filters.
func Build(f *File, opts ...BuildOption) (*memory.Catalog, *filter.Registry, error) {
	o := buildOptions{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.registry == nil {
		o.registry = filter.NewRegistry()
	}

	if err := Validate(f); err != nil {
		return nil, nil, err
	}

	for _, fc := range f.Filters {
		flt, err := NewFilter(fc, o.logger)
		if err != nil {
			return nil, nil, err
		}
		o.registry.Register(fc.ID, flt)
	}

	table := filter.NewTable()
	states := make([]*memory.State, 0, len(f.States))
	for _, name := range sortedKeys(f.States) {
		st := f.States[name]
		if len(st.Filters) > 0 {
			table.DeclareState(name, st.Filters...)
		}

		handlers := make(map[string]ports.IntentHandler, len(st.Intents))
		for intent, ic := range st.Intents {
			handlers[intent] = intentHandler(ic)
			if len(ic.Filters) > 0 {
				table.DeclareIntent(name, intent, ic.Filters...)
			}
		}
		states = append(states, memory.NewState(name, handlers))
	}

	catalog, err := memory.NewCatalog(f.EntryState(), table, states...)
	if err != nil {
		return nil, nil, err
	}
	return catalog, o.registry, nil
}

func intentHandler(ic IntentConfig) ports.IntentHandler {
	return func(ctx context.Context, m ports.Machine, args ...any) error {
		if len(ic.Set) > 0 || len(ic.Unset) > 0 {
			s, ok := session.FromContext(ctx)
			if !ok {
				return fmt.Errorf("intent edits the session but none is attached")
			}
			for _, key := range sortedKeys(ic.Set) {
				if err := s.Set(ctx, key, ic.Set[key]); err != nil {
					return err
				}
			}
			for _, key := range ic.Unset {
				if err := s.Delete(ctx, key); err != nil {
					return err
				}
			}
		}

		if ic.Reply != "" {
			reply := domain.ReplyFromContext(ctx)
			if ic.End {
				reply.EndSessionWith(ic.Reply)
			} else {
				reply.Prompt(ic.Reply)
			}
		} else if ic.End {
			domain.ReplyFromContext(ctx).EndSession = true
		}

		if ic.Transition != "" {
			return m.TransitionTo(ctx, ic.Transition)
		}
		return nil
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
