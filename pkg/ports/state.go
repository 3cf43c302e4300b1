package ports

import "context"

// IntentHandler is the operation a state runs for one intent.
type IntentHandler func(ctx context.Context, machine Machine, args ...any) error

// State is a named mode of a conversation exposing one handler per intent.
type State interface {
	// Name returns the identity the state was registered under.
	Name() string

	// Intent returns the handler registered for intent, if any.
	Intent(intent string) (IntentHandler, bool)

	// Intents lists the intent names the state handles.
	Intents() []string
}

// StateProvider resolves a state name to the instance used for the current request.
// Implementations return an error wrapping domain.ErrStateNotFound for unknown names.
type StateProvider interface {
	State(ctx context.Context, name string) (State, error)
}

// Machine is the transition and dispatch surface of the state machine.
type Machine interface {
	// TransitionTo replaces the current state.
	TransitionTo(ctx context.Context, state string) error

	// HandleIntent runs the filter pipeline and then the intent handler on the current state.
	HandleIntent(ctx context.Context, intent string, args ...any) error

	// RedirectTo transitions to state and handles intent there.
	RedirectTo(ctx context.Context, state, intent string, args ...any) error

	// CurrentState returns the active state name, or "" before the first transition.
	CurrentState() string
}
