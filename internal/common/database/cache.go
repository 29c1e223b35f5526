// internal/common/database/cache.go
package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// JSONCache stores JSON documents under a key prefix.
type JSONCache struct {
	client redis.Cmdable
	prefix string
	ttl    time.Duration
}

// NewJSONCache returns nil when client is nil so callers can treat caching as
// optional.
func NewJSONCache(client redis.Cmdable, prefix string, ttl time.Duration) *JSONCache {
	if client == nil {
		return nil
	}
	return &JSONCache{client: client, prefix: prefix, ttl: ttl}
}

func (c *JSONCache) Key(id string) string {
	return c.prefix + ":" + id
}

// Get decodes the cached value into dst. It reports false on a miss.
func (c *JSONCache) Get(ctx context.Context, id string, dst interface{}) (bool, error) {
	if c == nil {
		return false, nil
	}
	raw, err := c.client.Get(ctx, c.Key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cache get %s: %w", c.Key(id), err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("cache decode %s: %w", c.Key(id), err)
	}
	return true, nil
}

func (c *JSONCache) Set(ctx context.Context, id string, value interface{}) error {
	if c == nil {
		return nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache encode %s: %w", c.Key(id), err)
	}
	if err := c.client.Set(ctx, c.Key(id), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set %s: %w", c.Key(id), err)
	}
	return nil
}

// SetNX stores value only when the key is absent and reports whether it did.
func (c *JSONCache) SetNX(ctx context.Context, id string, value interface{}) (bool, error) {
	if c == nil {
		return true, nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return false, fmt.Errorf("cache encode %s: %w", c.Key(id), err)
	}
	ok, err := c.client.SetNX(ctx, c.Key(id), raw, c.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("cache setnx %s: %w", c.Key(id), err)
	}
	return ok, nil
}

// Delete removes the key. A missing key is not an error.
func (c *JSONCache) Delete(ctx context.Context, id string) error {
	if c == nil {
		return nil
	}
	if err := c.client.Del(ctx, c.Key(id)).Err(); err != nil {
		return fmt.Errorf("cache del %s: %w", c.Key(id), err)
	}
	return nil
}
