// Package recordstore talks to the authoritative external record store,
// a key-value document store addressed by slash-separated paths
// (users/{id}, shifts/{id}, scheduled_shifts/{id}, notificationTokens/{id}).
package recordstore

import (
	"context"
	"encoding/json"
	"errors"
)

// ErrUnavailable marks a transport-level failure. Readers fall back to
// their local cache; writers log and continue.
var ErrUnavailable = errors.New("record store unavailable")

type Client interface {
	// Get returns the value at path, or nil when absent.
	Get(ctx context.Context, path string) (json.RawMessage, error)
	// Set writes value at path, replacing any existing record.
	Set(ctx context.Context, path string, value any) error
	// Remove deletes the record at path. Removing an absent path is not an error.
	Remove(ctx context.Context, path string) error
	// List returns all child records under path, keyed by child id.
	List(ctx context.Context, path string) (map[string]json.RawMessage, error)
}
