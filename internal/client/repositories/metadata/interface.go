// Package metadata stores small device-level key/value pairs such as the
// session token and the last successful refresh time.
package metadata

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("metadata key not found")

type Repository interface {
	// Get returns ErrNotFound when key has never been set.
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	// List returns every pair whose key starts with prefix. An empty prefix
	// matches all keys.
	List(ctx context.Context, prefix string) (map[string][]byte, error)
	// DeletePrefix removes every pair whose key starts with prefix and
	// reports how many were removed.
	DeletePrefix(ctx context.Context, prefix string) (int64, error)
}
