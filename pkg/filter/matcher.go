package filter

import (
	"log/slog"

	"github.com/aretw0/parley/internal/logging"
	"github.com/aretw0/parley/pkg/ports"
)

// Match pairs a declared identifier with its live filter.
type Match struct {
	ID     string
	Filter ports.Filter
}

// Matcher resolves the filters that apply to a state and intent.
type Matcher struct {
	table    *Table
	registry *Registry
	logger   *slog.Logger
}

// NewMatcher creates a matcher. A nil logger discards warnings.
func NewMatcher(table *Table, registry *Registry, logger *slog.Logger) *Matcher {
	if table == nil {
		table = NewTable()
	}
	if registry == nil {
		registry = NewRegistry()
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Matcher{table: table, registry: registry, logger: logger}
}

// Declared returns the state-level identifiers followed by the intent-level ones.
// Intent-level declarations are only consulted when state actually handles intent.
func (m *Matcher) Declared(state ports.State, stateName, intent string) []string {
	ids := m.table.StateFilters(stateName)
	if _, ok := state.Intent(intent); ok {
		ids = append(ids, m.table.IntentFilters(stateName, intent)...)
	}
	return ids
}

// Match returns the live filters for state/intent in execution order.
// Identifiers without a registered filter are logged and skipped.
func (m *Matcher) Match(state ports.State, stateName, intent string) []Match {
	declared := m.Declared(state, stateName, intent)
	matches := make([]Match, 0, len(declared))
	for _, id := range declared {
		f, ok := m.registry.Lookup(id)
		if !ok {
			m.logger.Warn("no registered filter matches declaration",
				"filter", id,
				"state", stateName,
				"intent", intent,
			)
			continue
		}
		matches = append(matches, Match{ID: id, Filter: f})
	}
	return matches
}
