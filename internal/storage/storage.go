// Package storage holds the durable slots the storefront client persists its
// cart into, and the cart snapshot adapter that sits on top of them.
package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by a Backend when a key has never been written
var ErrNotFound = errors.New("storage: key not found")

// Backend is a durable key/value slot store. Implementations do no
// interpretation of the bytes they hold.
type Backend interface {
	// Get returns the bytes stored under key, or ErrNotFound
	Get(ctx context.Context, key string) ([]byte, error)

	// Set overwrites the bytes stored under key
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Name identifies the backend in logs
	Name() string
}
