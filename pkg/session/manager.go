package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"log/slog"

	"github.com/aretw0/parley/internal/logging"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/ports"
)

// DefaultLockTTL is how long a distributed session lock lives if never released.
const DefaultLockTTL = 30 * time.Second

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager orchestrates session access, ensuring one request per session at a time.
// It uses Reference Counting to garbage collect unused locks.
type Manager struct {
	store ports.SessionStore
	codec Codec

	mu    sync.Mutex            // Global lock for the map
	locks map[string]*lockEntry // Map of active locks

	locker  ports.DistributedLocker // Optional distributed locker
	lockTTL time.Duration
	logger  *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL overrides DefaultLockTTL for distributed locks.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		m.lockTTL = ttl
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithSessionCodec sets the codec used by the Stores the Manager creates.
func WithSessionCodec(codec Codec) Option {
	return func(m *Manager) {
		m.codec = codec
	}
}

// NewManager creates a new Session Manager with the given persistence store.
func NewManager(store ports.SessionStore, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		codec:   JSONCodec{},
		locks:   make(map[string]*lockEntry),
		lockTTL: DefaultLockTTL,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(sessionID) after unlocking.
func (m *Manager) acquire(sessionID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		entry = &lockEntry{}
		m.locks[sessionID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, sessionID)
	}
}

// Run executes one request against the session.
// fn receives a Store whose extraction carrier holds the persisted data and whose handler
// carrier starts unset. When fn succeeds the handler carrier is persisted exactly once:
// untouched means no write, an empty session deletes the record, anything else is saved.
// When fn fails nothing is persisted.
func (m *Manager) Run(ctx context.Context, sessionID string, fn func(ctx context.Context, s *Store) error) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		extraction, err := m.extraction(ctx, sessionID)
		if err != nil {
			return err
		}

		s := NewStore(extraction, &Carrier{}, WithCodec(m.codec))
		if err := fn(NewContext(ctx, s), s); err != nil {
			return err
		}

		return m.persist(ctx, sessionID, s)
	})
}

func (m *Manager) extraction(ctx context.Context, sessionID string) (*Carrier, error) {
	data, err := m.store.Load(ctx, sessionID)
	if errors.Is(err, domain.ErrSessionNotFound) {
		return &Carrier{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session %s: %w", sessionID, err)
	}
	return NewCarrier(data), nil
}

func (m *Manager) persist(ctx context.Context, sessionID string, s *Store) error {
	if !s.handler.IsSet() {
		return nil
	}

	exists, err := s.Exists(ctx)
	if err != nil {
		return err
	}
	if !exists {
		m.logger.Debug("session emptied, removing", "session_id", sessionID)
		if err := m.store.Delete(ctx, sessionID); err != nil {
			return fmt.Errorf("failed to delete session %s: %w", sessionID, err)
		}
		return nil
	}

	if err := m.store.Save(ctx, sessionID, s.handler.Value()); err != nil {
		return fmt.Errorf("failed to save session %s: %w", sessionID, err)
	}
	return nil
}

// Load returns the decoded content of a persisted session.
func (m *Manager) Load(ctx context.Context, sessionID string) (map[string]string, error) {
	var data map[string]string
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		raw, err := m.store.Load(ctx, sessionID)
		if err != nil {
			return err
		}
		data, err = m.codec.Decode(ctx, raw)
		return err
	})
	return data, err
}

// Delete removes the session from the store.
func (m *Manager) Delete(ctx context.Context, sessionID string) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		return m.store.Delete(ctx, sessionID)
	})
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Store returns the underlying session store.
func (m *Manager) Store() ports.SessionStore {
	return m.store
}

// WithLock executes a function while holding the lock for the session.
func (m *Manager) WithLock(ctx context.Context, sessionID string, fn func(context.Context) error) error {
	entry := m.acquire(sessionID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(sessionID)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, sessionID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"session_id", sessionID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}
