package domain

const (
	// KeyCurrentState is the reserved session key holding the name of the active state.
	KeyCurrentState = "__current_state"

	// DefaultEntryState is the state a fresh session starts in.
	DefaultEntryState = "MainState"

	// DefaultMaxRedirects bounds nested redirect chains.
	DefaultMaxRedirects = 16
)
