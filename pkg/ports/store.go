package ports

import (
	"context"
)

// SessionStore persists encoded session data between requests.
// The data is opaque to the store: it is the handler carrier content of the last request.
type SessionStore interface {
	// Save persists the encoded data for a given session ID.
	Save(ctx context.Context, sessionID string, data string) error

	// Load retrieves the encoded data for a given session ID.
	// Returns domain.ErrSessionNotFound if the session does not exist.
	Load(ctx context.Context, sessionID string) (string, error)

	// Delete removes the data for a given session ID. Deleting a missing session is not an error.
	Delete(ctx context.Context, sessionID string) error

	// List returns the IDs of all stored sessions.
	List(ctx context.Context) ([]string, error)
}
