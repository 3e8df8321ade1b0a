// Package cache stores serialized catalog reads in memory or Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrMiss is returned when a key is absent or expired
var ErrMiss = errors.New("cache miss")

// Cache defines the interface for all cache backends
type Cache interface {
	// Get retrieves a value from the cache, or ErrMiss
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value; a zero ttl uses the backend default
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes keys; absent keys are ignored
	Delete(ctx context.Context, keys ...string) error

	// Close releases the backend
	Close() error
}

// Config holds common configuration for cache backends
type Config struct {
	// DefaultTTL is the time-to-live used when Set is given zero
	DefaultTTL time.Duration
	// Prefix is prepended to all cache keys
	Prefix string
}

// DefaultConfig returns the default cache configuration
func DefaultConfig() Config {
	return Config{
		DefaultTTL: 5 * time.Minute,
		Prefix:     "shop:",
	}
}

// GetJSON loads key and decodes it into a T.
// found is false on a miss; any other backend error is returned.
func GetJSON[T any](ctx context.Context, c Cache, key string) (value T, found bool, err error) {
	raw, err := c.Get(ctx, key)
	if errors.Is(err, ErrMiss) {
		return value, false, nil
	}
	if err != nil {
		return value, false, err
	}
	if err := json.Unmarshal(raw, &value); err != nil {
		return value, false, fmt.Errorf("failed to decode cached %s: %w", key, err)
	}
	return value, true, nil
}

// SetJSON encodes value and stores it under key
func SetJSON(ctx context.Context, c Cache, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode %s for cache: %w", key, err)
	}
	return c.Set(ctx, key, raw, ttl)
}
