package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/filter"
	"github.com/aretw0/parley/pkg/ports"
)

// State is an immutable in-memory state definition.
type State struct {
	name     string
	handlers map[string]ports.IntentHandler
}

// NewState creates a state from its intent handlers.
func NewState(name string, handlers map[string]ports.IntentHandler) *State {
	copied := make(map[string]ports.IntentHandler, len(handlers))
	for intent, h := range handlers {
		copied[intent] = h
	}
	return &State{name: name, handlers: copied}
}

// Name implements ports.State.
func (s *State) Name() string {
	return s.name
}

// Intent implements ports.State.
func (s *State) Intent(intent string) (ports.IntentHandler, bool) {
	h, ok := s.handlers[intent]
	return h, ok
}

// Intents implements ports.State.
func (s *State) Intents() []string {
	intents := make([]string, 0, len(s.handlers))
	for intent := range s.handlers {
		intents = append(intents, intent)
	}
	sort.Strings(intents)
	return intents
}

// Catalog implements ports.StateProvider over a fixed set of states.
// It also owns the filter declarations of those states.
type Catalog struct {
	entry  string
	states map[string]*State
	table  *filter.Table
}

// NewCatalog builds a catalog. entry defaults to domain.DefaultEntryState.
func NewCatalog(entry string, table *filter.Table, states ...*State) (*Catalog, error) {
	if entry == "" {
		entry = domain.DefaultEntryState
	}
	if table == nil {
		table = filter.NewTable()
	}

	c := &Catalog{
		entry:  entry,
		states: make(map[string]*State, len(states)),
		table:  table,
	}
	for _, s := range states {
		if s.name == "" {
			return nil, fmt.Errorf("state missing name")
		}
		if _, dup := c.states[s.name]; dup {
			return nil, fmt.Errorf("duplicate state %q", s.name)
		}
		c.states[s.name] = s
	}
	return c, nil
}

// State implements ports.StateProvider.
func (c *Catalog) State(ctx context.Context, name string) (ports.State, error) {
	s, ok := c.states[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrStateNotFound, name)
	}
	return s, nil
}

// Entry returns the state new sessions start in.
func (c *Catalog) Entry() string {
	return c.entry
}

// Table returns the filter declarations of the catalog.
func (c *Catalog) Table() *filter.Table {
	return c.table
}

// Names lists all state names in sorted order.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.states))
	for name := range c.states {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
