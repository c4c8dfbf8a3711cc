// Package cache keeps JSON-encoded values in Redis. The catalog uses it to
// hold the last good copy of its product and category collections.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config holds cache configuration.
type Config struct {
	RedisAddr string
	Prefix    string
	TTL       time.Duration
}

// Cache stores values under a key prefix with a default TTL.
type Cache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration

	hits   atomic.Uint64
	misses atomic.Uint64
	sets   atomic.Uint64
	errors atomic.Uint64
}

// Stats is a point-in-time copy of the cache counters.
type Stats struct {
	Hits   uint64 `json:"hits"`
	Misses uint64 `json:"misses"`
	Sets   uint64 `json:"sets"`
	Errors uint64 `json:"errors"`
}

// New creates a cache over an existing client. A ttl of zero keeps values
// until they are overwritten.
func New(client *redis.Client, prefix string, ttl time.Duration) *Cache {
	return &Cache{client: client, prefix: prefix, ttl: ttl}
}

// Connect dials Redis and verifies the connection.
func Connect(ctx context.Context, cfg Config) (*Cache, error) {
	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.RedisAddr, err)
	}
	return New(client, cfg.Prefix, cfg.TTL), nil
}

// Get decodes the value stored under key into dest. It reports false on a
// miss.
func (c *Cache) Get(ctx context.Context, key string, dest any) (bool, error) {
	data, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			c.misses.Add(1)
			return false, nil
		}
		c.errors.Add(1)
		return false, fmt.Errorf("cache get %s: %w", key, err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		c.errors.Add(1)
		return false, fmt.Errorf("cache decode %s: %w", key, err)
	}
	c.hits.Add(1)
	return true, nil
}

// Set stores value under key with the default TTL.
func (c *Cache) Set(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		c.errors.Add(1)
		return fmt.Errorf("cache encode %s: %w", key, err)
	}
	if err := c.client.Set(ctx, c.prefix+key, data, c.ttl).Err(); err != nil {
		c.errors.Add(1)
		return fmt.Errorf("cache set %s: %w", key, err)
	}
	c.sets.Add(1)
	return nil
}

// Delete removes key.
func (c *Cache) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, c.prefix+key).Err(); err != nil {
		c.errors.Add(1)
		return fmt.Errorf("cache delete %s: %w", key, err)
	}
	return nil
}

// Stats returns the current counters.
func (c *Cache) Stats() Stats {
	return Stats{
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
		Sets:   c.sets.Load(),
		Errors: c.errors.Load(),
	}
}

// Ping checks the Redis connection.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis client.
func (c *Cache) Close() error {
	return c.client.Close()
}
