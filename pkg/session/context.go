package session

import "context"

type storeKey struct{}

// NewContext returns a copy of ctx carrying the request's Store.
func NewContext(ctx context.Context, s *Store) context.Context {
	return context.WithValue(ctx, storeKey{}, s)
}

// FromContext returns the Store attached to ctx, if any.
func FromContext(ctx context.Context) (*Store, bool) {
	s, ok := ctx.Value(storeKey{}).(*Store)
	return s, ok
}
