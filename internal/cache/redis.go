package cache

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/quillfeed/quillfeed/pkg/config"
	"github.com/quillfeed/quillfeed/pkg/logging"
)

// keyNamespace prefixes every key so a shared redis can host other services
const keyNamespace = "quillfeed"

// Redis implements Store on a Redis backend
type Redis struct {
	client *redis.Client
}

// NewRedis creates a new Redis cache client
func NewRedis(cfg *config.RedisConfig) (*Redis, error) {
	if !cfg.Enabled {
		logging.GetLogger().Info("Redis cache disabled")
		return nil, ErrCacheDisabled
	}

	opt, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opt)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logging.GetLogger().Info("Redis connection established")

	return &Redis{client: client}, nil
}

// namespaceKey prefixes a key with the service namespace
func (c *Redis) namespaceKey(key string) string {
	return keyNamespace + ":" + key
}

// HashKey builds a stable short key from its parts
func HashKey(parts ...string) string {
	sum := md5.Sum([]byte(strings.Join(parts, ":")))
	return hex.EncodeToString(sum[:])
}

// Get retrieves a value from cache
func (c *Redis) Get(ctx context.Context, key string) (string, error) {
	val, err := c.client.Get(ctx, c.namespaceKey(key)).Result()
	if err == redis.Nil {
		return "", ErrNotFound
	}
	return val, err
}

// Set sets a value in cache with TTL
func (c *Redis) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return c.client.Set(ctx, c.namespaceKey(key), value, ttl).Err()
}

// Delete removes a key from cache
func (c *Redis) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, c.namespaceKey(key)).Err()
}

// SAdd adds a member to a set
func (c *Redis) SAdd(ctx context.Context, key, member string) error {
	return c.client.SAdd(ctx, c.namespaceKey(key), member).Err()
}

// SRem removes a member from a set, reporting whether it was present
func (c *Redis) SRem(ctx context.Context, key, member string) (bool, error) {
	removed, err := c.client.SRem(ctx, c.namespaceKey(key), member).Result()
	if err != nil {
		return false, err
	}
	return removed > 0, nil
}

// SMembers lists the members of a set
func (c *Redis) SMembers(ctx context.Context, key string) ([]string, error) {
	return c.client.SMembers(ctx, c.namespaceKey(key)).Result()
}

// FlushAll clears the whole database. Test-only.
func (c *Redis) FlushAll(ctx context.Context) error {
	return c.client.FlushAll(ctx).Err()
}

// Health checks Redis health
func (c *Redis) Health(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (c *Redis) Close() error {
	return c.client.Close()
}
