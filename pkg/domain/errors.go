package domain

import (
	"errors"
	"fmt"
)

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrMalformedSession is returned when encoded session data cannot be decoded into a string map.
var ErrMalformedSession = errors.New("malformed session data")

// ErrInvalidSessionValue is returned when a session key or value is not valid UTF-8.
var ErrInvalidSessionValue = errors.New("session key or value is not valid UTF-8")

// ErrIntentNotFound is returned when the current state has no handler for the requested intent.
var ErrIntentNotFound = errors.New("intent not found")

// ErrStateNotFound is returned by state providers that cannot resolve a state name.
var ErrStateNotFound = errors.New("state not found")

// ErrNoCurrentState is returned when an intent is dispatched before any transition happened.
var ErrNoCurrentState = errors.New("no current state")

// ErrRedirectLimit is returned when a redirect chain exceeds the configured depth.
var ErrRedirectLimit = errors.New("redirect limit exceeded")

// IntentError describes a dispatch failure for a specific state and intent.
type IntentError struct {
	State  string
	Intent string
	Err    error
}

func (e *IntentError) Error() string {
	return fmt.Sprintf("state %q intent %q: %v", e.State, e.Intent, e.Err)
}

func (e *IntentError) Unwrap() error {
	return e.Err
}
