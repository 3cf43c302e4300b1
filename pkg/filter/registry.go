package filter

import (
	"sort"
	"sync"

	"github.com/aretw0/parley/pkg/ports"
)

// Registry manages the live filter instances, keyed by the identifier used in declarations.
type Registry struct {
	mu      sync.RWMutex
	filters map[string]ports.Filter
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		filters: make(map[string]ports.Filter),
	}
}

// Register adds a filter to the registry.
// If a filter with the same identifier exists, it is overwritten.
func (r *Registry) Register(id string, f ports.Filter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.filters[id] = f
}

// RegisterFunc is Register for plain functions.
func (r *Registry) RegisterFunc(id string, fn ports.FilterFunc) {
	r.Register(id, fn)
}

// Lookup returns the filter registered under id.
func (r *Registry) Lookup(id string) (ports.Filter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.filters[id]
	return f, ok
}

// IDs lists the registered identifiers in sorted order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.filters))
	for id := range r.filters {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Missing returns the identifiers declared in t that have no registered filter.
func (r *Registry) Missing(t *Table) []string {
	var missing []string
	for _, id := range t.IDs() {
		if _, ok := r.Lookup(id); !ok {
			missing = append(missing, id)
		}
	}
	return missing
}
