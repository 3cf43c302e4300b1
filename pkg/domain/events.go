package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventTransition EventType = "transition"
	EventIntent     EventType = "intent"
	EventFilter     EventType = "filter"
	EventRedirect   EventType = "redirect"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
}

// TransitionEvent is emitted after the current state was replaced.
type TransitionEvent struct {
	EventBase
	From string `json:"from,omitempty"`
	To   string `json:"to"`
}

// IntentEvent is emitted right before an intent handler runs.
type IntentEvent struct {
	EventBase
	State  string `json:"state"`
	Intent string `json:"intent"`
}

// FilterEvent is emitted after a filter returned.
type FilterEvent struct {
	EventBase
	State  string     `json:"state"`
	Intent string     `json:"intent"`
	Filter string     `json:"filter"`
	Result ResultKind `json:"result"`
}

// RedirectEvent is emitted when a filter redirects the request.
type RedirectEvent struct {
	EventBase
	FromState  string `json:"from_state"`
	FromIntent string `json:"from_intent"`
	ToState    string `json:"to_state"`
	ToIntent   string `json:"to_intent"`
	Depth      int    `json:"depth"`
}

// LifecycleHooks defines callbacks for engine observability.
type LifecycleHooks struct {
	OnTransition func(context.Context, *TransitionEvent)
	OnIntent     func(context.Context, *IntentEvent)
	OnFilter     func(context.Context, *FilterEvent)
	OnRedirect   func(context.Context, *RedirectEvent)
}

// Merge combines two hook sets. Both callbacks run, h first.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnTransition: chain(h.OnTransition, other.OnTransition),
		OnIntent:     chain(h.OnIntent, other.OnIntent),
		OnFilter:     chain(h.OnFilter, other.OnFilter),
		OnRedirect:   chain(h.OnRedirect, other.OnRedirect),
	}
}

func chain[E any](a, b func(context.Context, E)) func(context.Context, E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e E) {
		a(ctx, e)
		b(ctx, e)
	}
}
