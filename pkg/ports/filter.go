package ports

import (
	"context"

	"github.com/aretw0/parley/pkg/domain"
)

// Filter runs before an intent handler and decides whether it may proceed.
type Filter interface {
	Execute(ctx context.Context, state State, stateName, intent string, args ...any) (domain.FilterResult, error)
}

// FilterFunc adapts an ordinary function to the Filter interface.
type FilterFunc func(ctx context.Context, state State, stateName, intent string, args ...any) (domain.FilterResult, error)

// Execute calls f.
func (f FilterFunc) Execute(ctx context.Context, state State, stateName, intent string, args ...any) (domain.FilterResult, error) {
	return f(ctx, state, stateName, intent, args...)
}
