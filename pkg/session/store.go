package session

import (
	"context"
	"maps"
)

// Store is the session key/value store of a single request.
// It holds no data of its own; every operation goes through the carriers.
type Store struct {
	extraction *Carrier
	handler    *Carrier
	codec      Codec
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithCodec replaces the default JSON codec.
func WithCodec(codec Codec) StoreOption {
	return func(s *Store) {
		s.codec = codec
	}
}

// NewStore creates a Store over the given carriers.
// extraction may be nil. handler must be shared with whoever reads the response data;
// a nil handler gets a private carrier.
func NewStore(extraction, handler *Carrier, opts ...StoreOption) *Store {
	if handler == nil {
		handler = &Carrier{}
	}
	s := &Store{
		extraction: extraction,
		handler:    handler,
		codec:      JSONCodec{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the value stored under key.
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	data, err := s.latest(ctx)
	if err != nil {
		return "", false, err
	}
	v, ok := data[key]
	return v, ok, nil
}

// Set stores value under key, keeping every other key.
func (s *Store) Set(ctx context.Context, key, value string) error {
	data, err := s.latest(ctx)
	if err != nil {
		return err
	}
	data[key] = value
	return s.store(ctx, data)
}

// Delete removes key. A missing key is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	data, err := s.latest(ctx)
	if err != nil {
		return err
	}
	delete(data, key)
	return s.store(ctx, data)
}

// DeleteAllFields writes an empty session regardless of the previous content.
func (s *Store) DeleteAllFields(ctx context.Context) error {
	return s.store(ctx, map[string]string{})
}

// Exists reports whether the session holds at least one key.
func (s *Store) Exists(ctx context.Context) (bool, error) {
	data, err := s.latest(ctx)
	if err != nil {
		return false, err
	}
	return len(data) > 0, nil
}

// All returns a copy of the current session content.
func (s *Store) All(ctx context.Context) (map[string]string, error) {
	data, err := s.latest(ctx)
	if err != nil {
		return nil, err
	}
	return maps.Clone(data), nil
}

// Handler returns the carrier written by this store.
func (s *Store) Handler() *Carrier {
	return s.handler
}

// latest resolves the current session content.
// The handler carrier wins as soon as it holds anything (even an empty object);
// the extraction carrier is only consulted before the first write of the request.
// Reading never writes.
func (s *Store) latest(ctx context.Context) (map[string]string, error) {
	if s.handler.IsSet() {
		return s.codec.Decode(ctx, s.handler.Value())
	}
	if !s.extraction.IsSet() {
		return map[string]string{}, nil
	}
	return s.codec.Decode(ctx, s.extraction.Value())
}

// store encodes data into the handler carrier.
// An empty session is written as "{}" rather than cleared, otherwise the next read
// would fall back to the extraction carrier.
func (s *Store) store(ctx context.Context, data map[string]string) error {
	encoded, err := s.codec.Encode(ctx, data)
	if err != nil {
		return err
	}
	s.handler.set(encoded)
	return nil
}
