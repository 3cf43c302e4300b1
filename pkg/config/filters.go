package config

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/ports"
	"github.com/aretw0/parley/pkg/session"
	"github.com/mitchellh/mapstructure"
)

// Filter types understood by routing files.
const (
	TypeRequireKey = "require_key"
	TypeDeny       = "deny"
	TypeLog        = "log"
	TypeRedirect   = "redirect"
)

type requireKeyParams struct {
	Key      string          `mapstructure:"key"`
	Redirect domain.Redirect `mapstructure:"redirect"`
}

type denyParams struct {
	Message string `mapstructure:"message"`
	End     bool   `mapstructure:"end"`
}

type logParams struct {
	Message string `mapstructure:"message"`
	Level   string `mapstructure:"level"`
}

type factory func(params map[string]any, logger *slog.Logger) (ports.Filter, error)

var factories = map[string]factory{
	TypeRequireKey: newRequireKey,
	TypeDeny:       newDeny,
	TypeLog:        newLog,
	TypeRedirect:   newRedirect,
}

// FilterTypes lists the supported filter types.
func FilterTypes() []string {
	types := make([]string, 0, len(factories))
	for t := range factories {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// NewFilter instantiates a declared filter.
func NewFilter(fc FilterConfig, logger *slog.Logger) (ports.Filter, error) {
	build, ok := factories[fc.Type]
	if !ok {
		return nil, fmt.Errorf("filter %q: unknown type %q", fc.ID, fc.Type)
	}
	f, err := build(fc.Params, logger)
	if err != nil {
		return nil, fmt.Errorf("filter %q: %w", fc.ID, err)
	}
	return f, nil
}

func decodeParams(params map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		ErrorUnused:      true,
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(params); err != nil {
		return fmt.Errorf("invalid params: %w", err)
	}
	return nil
}

// RedirectTarget returns the state and intent the filter may redirect to, if any.
func (fc FilterConfig) RedirectTarget() (domain.Redirect, bool) {
	switch fc.Type {
	case TypeRedirect:
		var r domain.Redirect
		if decodeParams(fc.Params, &r) != nil {
			return domain.Redirect{}, false
		}
		return r, true
	case TypeRequireKey:
		var p requireKeyParams
		if decodeParams(fc.Params, &p) != nil {
			return domain.Redirect{}, false
		}
		return p.Redirect, true
	}
	return domain.Redirect{}, false
}

func redirectResult(r domain.Redirect) domain.FilterResult {
	if r.Args == nil {
		return domain.RedirectTo(r.State, r.Intent)
	}
	return domain.RedirectWithArgs(r.State, r.Intent, r.Args...)
}

func newRequireKey(params map[string]any, _ *slog.Logger) (ports.Filter, error) {
	var p requireKeyParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	if p.Key == "" {
		return nil, fmt.Errorf("missing key")
	}
	if p.Redirect.State == "" || p.Redirect.Intent == "" {
		return nil, fmt.Errorf("redirect needs state and intent")
	}

	return ports.FilterFunc(func(ctx context.Context, state ports.State, stateName, intent string, args ...any) (domain.FilterResult, error) {
		s, ok := session.FromContext(ctx)
		if ok {
			_, found, err := s.Get(ctx, p.Key)
			if err != nil {
				return domain.FilterResult{}, err
			}
			if found {
				return domain.Continue(), nil
			}
		}
		return redirectResult(p.Redirect), nil
	}), nil
}

func newDeny(params map[string]any, _ *slog.Logger) (ports.Filter, error) {
	var p denyParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}

	return ports.FilterFunc(func(ctx context.Context, state ports.State, stateName, intent string, args ...any) (domain.FilterResult, error) {
		if p.Message != "" {
			reply := domain.ReplyFromContext(ctx)
			if p.End {
				reply.EndSessionWith(p.Message)
			} else {
				reply.Prompt(p.Message)
			}
		}
		return domain.Block(), nil
	}), nil
}

func newLog(params map[string]any, logger *slog.Logger) (ports.Filter, error) {
	var p logParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	if p.Message == "" {
		p.Message = "intent received"
	}
	var level slog.Level
	if p.Level != "" {
		if err := level.UnmarshalText([]byte(strings.ToUpper(p.Level))); err != nil {
			return nil, fmt.Errorf("invalid level %q", p.Level)
		}
	}

	return ports.FilterFunc(func(ctx context.Context, state ports.State, stateName, intent string, args ...any) (domain.FilterResult, error) {
		logger.Log(ctx, level, p.Message, "state", stateName, "intent", intent, "args", len(args))
		return domain.Continue(), nil
	}), nil
}

func newRedirect(params map[string]any, _ *slog.Logger) (ports.Filter, error) {
	var r domain.Redirect
	if err := decodeParams(params, &r); err != nil {
		return nil, err
	}
	if r.State == "" || r.Intent == "" {
		return nil, fmt.Errorf("redirect needs state and intent")
	}

	return ports.FilterFunc(func(ctx context.Context, state ports.State, stateName, intent string, args ...any) (domain.FilterResult, error) {
		return redirectResult(r), nil
	}), nil
}
