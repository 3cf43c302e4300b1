package dsl

import (
	"errors"
	"fmt"

	"github.com/aretw0/parley/pkg/adapters/memory"
	"github.com/aretw0/parley/pkg/filter"
	"github.com/aretw0/parley/pkg/ports"
)

// Builder manages the catalog construction.
type Builder struct {
	entry  string
	order  []string
	states map[string]*StateBuilder
	table  *filter.Table
}

// New creates a new catalog builder.
func New() *Builder {
	return &Builder{
		states: make(map[string]*StateBuilder),
		table:  filter.NewTable(),
	}
}

// Entry sets the state new sessions start in.
func (b *Builder) Entry(name string) *Builder {
	b.entry = name
	return b
}

// State creates a new state in the catalog.
// If the state already exists, it returns the existing builder.
func (b *Builder) State(name string) *StateBuilder {
	if sb, ok := b.states[name]; ok {
		return sb
	}
	sb := &StateBuilder{
		name:     name,
		handlers: make(map[string]ports.IntentHandler),
		builder:  b,
	}
	b.states[name] = sb
	b.order = append(b.order, name)
	return sb
}

// Build compiles the states and their filter declarations into a memory.Catalog.
func (b *Builder) Build() (*memory.Catalog, error) {
	var errs []error
	states := make([]*memory.State, 0, len(b.order))
	for _, name := range b.order {
		sb := b.states[name]
		errs = append(errs, sb.errs...)
		states = append(states, memory.NewState(name, sb.handlers))
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	catalog, err := memory.NewCatalog(b.entry, b.table, states...)
	if err != nil {
		return nil, fmt.Errorf("failed to build catalog: %w", err)
	}
	return catalog, nil
}
