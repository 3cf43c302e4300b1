package filter

import (
	"slices"
	"sort"
)

// Table maps states and intents to ordered filter identifiers.
// It is filled during setup and must not be modified once requests are served.
type Table struct {
	states  map[string][]string
	intents map[string]map[string][]string
}

// NewTable creates an empty declaration table.
func NewTable() *Table {
	return &Table{
		states:  make(map[string][]string),
		intents: make(map[string]map[string][]string),
	}
}

// DeclareState appends state-level filters for state.
func (t *Table) DeclareState(state string, ids ...string) {
	t.states[state] = append(t.states[state], ids...)
}

// DeclareIntent appends intent-level filters for one intent of state.
func (t *Table) DeclareIntent(state, intent string, ids ...string) {
	if t.intents[state] == nil {
		t.intents[state] = make(map[string][]string)
	}
	t.intents[state][intent] = append(t.intents[state][intent], ids...)
}

// StateFilters returns the state-level identifiers of state in declaration order.
func (t *Table) StateFilters(state string) []string {
	return slices.Clone(t.states[state])
}

// IntentFilters returns the intent-level identifiers of state/intent in declaration order.
func (t *Table) IntentFilters(state, intent string) []string {
	return slices.Clone(t.intents[state][intent])
}

// IDs returns every identifier referenced by the table, sorted and deduplicated.
func (t *Table) IDs() []string {
	seen := make(map[string]struct{})
	for _, ids := range t.states {
		for _, id := range ids {
			seen[id] = struct{}{}
		}
	}
	for _, byIntent := range t.intents {
		for _, ids := range byIntent {
			for _, id := range ids {
				seen[id] = struct{}{}
			}
		}
	}

	out := make([]string, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
