package middleware

import (
	"context"
	"fmt"
	"regexp"

	"github.com/aretw0/parley/pkg/ports"
	"github.com/aretw0/parley/pkg/session"
)

// Mask replaces the values of redacted session keys.
const Mask = "***"

type piiMiddleware struct {
	next     ports.SessionStore
	patterns []*regexp.Regexp
	codec    session.Codec
}

// NewPIIMiddleware creates a middleware that masks the values of session keys matching any
// of the patterns before they reach the store. Masking is one-way: a later request reads Mask.
func NewPIIMiddleware(patternStrings []string) (Middleware, error) {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid pii pattern %q: %w", p, err)
		}
		patterns[i] = re
	}
	return func(next ports.SessionStore) ports.SessionStore {
		return &piiMiddleware{next: next, patterns: patterns, codec: session.JSONCodec{}}
	}, nil
}

func (m *piiMiddleware) Save(ctx context.Context, sessionID string, data string) error {
	fields, err := m.codec.Decode(ctx, data)
	if err != nil {
		return err
	}

	for k := range fields {
		for _, p := range m.patterns {
			if p.MatchString(k) {
				fields[k] = Mask
				break
			}
		}
	}

	masked, err := m.codec.Encode(ctx, fields)
	if err != nil {
		return err
	}
	return m.next.Save(ctx, sessionID, masked)
}

func (m *piiMiddleware) Load(ctx context.Context, sessionID string) (string, error) {
	return m.next.Load(ctx, sessionID)
}

func (m *piiMiddleware) Delete(ctx context.Context, sessionID string) error {
	return m.next.Delete(ctx, sessionID)
}

func (m *piiMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}
