// Package store provides persistence for client state that survives restarts.
package store

import (
	"context"
)

// Keys of the persisted client state. Values are plain strings with no
// schema versioning.
const (
	KeyAuthToken      = "authToken"
	KeyCurrentUser    = "currentUser"
	KeySeenOnboarding = "hasSeenOnboarding"
	KeyTheme          = "theme"
)

// Repository defines the interface for persisted key/value client state.
type Repository interface {
	// Get returns the value stored under key and whether it exists.
	Get(ctx context.Context, key string) (string, bool, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error

	// SetMany stores all pairs atomically.
	SetMany(ctx context.Context, values map[string]string) error

	// Delete removes the given keys. Missing keys are ignored.
	Delete(ctx context.Context, keys ...string) error

	// Clear removes every key.
	Clear(ctx context.Context) error

	// Ping verifies database connectivity and returns an error if the database is unreachable.
	Ping(ctx context.Context) error

	// Close closes the database connection.
	Close() error
}
