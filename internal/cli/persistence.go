package cli

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/aretw0/parley/pkg/adapters/file"
	"github.com/aretw0/parley/pkg/adapters/memory"
	"github.com/aretw0/parley/pkg/adapters/redis"
	"github.com/aretw0/parley/pkg/adapters/sqlite"
	"github.com/aretw0/parley/pkg/persistence/middleware"
	"github.com/aretw0/parley/pkg/ports"
	"github.com/aretw0/parley/pkg/session"
)

// Store kinds accepted by --store.
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreRedis  = "redis"
	StoreSQLite = "sqlite"
)

// ErrUnknownStore is returned for an unsupported store kind.
var ErrUnknownStore = errors.New("unknown session store")

// StoreOptions selects and configures the session backend.
type StoreOptions struct {
	Kind string
	Dir  string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string
	SessionTTL    time.Duration

	SQLitePath string

	// EncryptionKey is a base64 encoded 32 byte key, or the raw 32 bytes.
	EncryptionKey string
	FallbackKeys  []string

	// PIIKeys are regular expressions of session keys masked before storage.
	PIIKeys []string
}

// Persistence bundles the store stack and its session manager.
type Persistence struct {
	// Backend is the bare store, Store the same store behind the middleware chain.
	Backend ports.SessionStore
	Store   ports.SessionStore
	Manager *session.Manager
	closers []io.Closer
}

// Close releases backend connections.
func (p *Persistence) Close() error {
	var errs []error
	for _, c := range p.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

// OpenPersistence builds the backend named by opts.Kind, wraps it with the
// configured middleware and returns a Manager over the result.
func OpenPersistence(ctx context.Context, opts StoreOptions, logger *slog.Logger) (*Persistence, error) {
	p := &Persistence{}
	var (
		base    ports.SessionStore
		mgrOpts = []session.Option{session.WithLogger(logger)}
	)

	switch opts.Kind {
	case "", StoreMemory:
		base = memory.NewStore()
	case StoreFile:
		base = file.New(sessionDir(opts.Dir))
	case StoreRedis:
		storeOpts := []redis.Option{redis.WithTTL(opts.SessionTTL)}
		prefix := redis.DefaultPrefix
		if opts.RedisPrefix != "" {
			prefix = opts.RedisPrefix
			storeOpts = append(storeOpts, redis.WithPrefix(prefix))
		}
		rs := redis.New(opts.RedisAddr, opts.RedisPassword, opts.RedisDB, storeOpts...)
		p.closers = append(p.closers, rs)
		if err := rs.Client().Ping(ctx).Err(); err != nil {
			_ = p.Close()
			return nil, fmt.Errorf("redis %s: %w", opts.RedisAddr, err)
		}
		base = rs
		mgrOpts = append(mgrOpts, session.WithLocker(redis.NewLocker(rs.Client(), prefix)))
	case StoreSQLite:
		path := opts.SQLitePath
		if path == "" {
			path = filepath.Join(opts.Dir, ".parley", "sessions.db")
		}
		ss, err := sqlite.Open(path)
		if err != nil {
			return nil, err
		}
		p.closers = append(p.closers, ss)
		base = ss
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStore, opts.Kind)
	}

	mws, err := storeMiddleware(opts)
	if err != nil {
		_ = p.Close()
		return nil, err
	}
	p.Backend = base
	p.Store = middleware.Chain(base, mws...)
	p.Manager = session.NewManager(p.Store, mgrOpts...)

	logger.Info("session store ready", "store", kindOrDefault(opts.Kind), "encrypted", opts.EncryptionKey != "", "pii_patterns", len(opts.PIIKeys))
	return p, nil
}

// storeMiddleware orders PII masking before encryption so masked values are what gets encrypted.
func storeMiddleware(opts StoreOptions) ([]middleware.Middleware, error) {
	var mws []middleware.Middleware
	if len(opts.PIIKeys) > 0 {
		pii, err := middleware.NewPIIMiddleware(opts.PIIKeys)
		if err != nil {
			return nil, fmt.Errorf("pii patterns: %w", err)
		}
		mws = append(mws, pii)
	}
	if opts.EncryptionKey != "" {
		active, err := decodeKey(opts.EncryptionKey)
		if err != nil {
			return nil, fmt.Errorf("encryption key: %w", err)
		}
		cfg := middleware.EncryptionConfig{ActiveKey: active}
		for i, k := range opts.FallbackKeys {
			fallback, err := decodeKey(k)
			if err != nil {
				return nil, fmt.Errorf("fallback key %d: %w", i, err)
			}
			cfg.FallbackKeys = append(cfg.FallbackKeys, fallback)
		}
		enc, err := middleware.NewEncryptionMiddleware(cfg)
		if err != nil {
			return nil, err
		}
		mws = append(mws, enc)
	}
	return mws, nil
}

func decodeKey(s string) ([]byte, error) {
	if key, err := base64.StdEncoding.DecodeString(s); err == nil && len(key) == 32 {
		return key, nil
	}
	if len(s) == 32 {
		return []byte(s), nil
	}
	return nil, middleware.ErrInvalidKey
}

func sessionDir(dir string) string {
	if dir == "" {
		dir = "."
	}
	return filepath.Join(dir, ".parley", "sessions")
}

func kindOrDefault(kind string) string {
	if kind == "" {
		return StoreMemory
	}
	return kind
}
