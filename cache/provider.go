package cache

import (
	"context"
	"time"
)

// Provider is the cache abstraction the rest of the code depends on.
type Provider interface {
	// Set stores a value under key for the given TTL.
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error

	// Get loads the value for key into dest.
	Get(ctx context.Context, key string, dest interface{}) error

	// Delete removes a key.
	Delete(ctx context.Context, key string) error

	// Exists reports whether a key is present.
	Exists(ctx context.Context, key string) (bool, error)

	// Close releases the backing store.
	Close() error

	// Name returns the provider name.
	Name() string
}

// ErrCacheMiss is returned by Get when the key is absent.
var ErrCacheMiss = &cacheMissError{}

type cacheMissError struct{}

func (e *cacheMissError) Error() string {
	return "cache miss"
}

// IsCacheMiss reports whether err is a cache miss.
func IsCacheMiss(err error) bool {
	if err == nil {
		return false
	}
	_, ok := err.(*cacheMissError)
	return ok
}
