package cache

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a key is absent
var ErrNotFound = errors.New("cache: key not found")

// ErrCacheDisabled is returned when cache operations are attempted but
// no cache backend is configured
var ErrCacheDisabled = errors.New("cache: disabled")

// Store is the narrow cache interface the services consume: plain
// keys with TTL for feed cursors, sets for refresh-token revocation.
type Store interface {
	// Get retrieves a value, ErrNotFound if absent or expired
	Get(ctx context.Context, key string) (string, error)
	// Set stores a value with a TTL; zero TTL means no expiry
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	// Delete removes a key
	Delete(ctx context.Context, key string) error

	// SAdd adds a member to a set
	SAdd(ctx context.Context, key, member string) error
	// SRem removes a member from a set, reporting whether it was present.
	// Removal is atomic per member: concurrent removals of the same
	// member see true at most once.
	SRem(ctx context.Context, key, member string) (bool, error)
	// SMembers lists the members of a set
	SMembers(ctx context.Context, key string) ([]string, error)

	// FlushAll clears the store. Test-only.
	FlushAll(ctx context.Context) error

	// Health checks backend connectivity
	Health(ctx context.Context) error
	// Close releases backend resources
	Close() error
}
