package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix = "coursegate:cache:"
	tagPrefix = "coursegate:tag:"

	// Tag sets outlive their members so invalidation still finds keys whose
	// value TTL already lapsed; they are refreshed on every Set.
	tagSetTTL = 24 * time.Hour
)

// TagCache is a JSON read cache over Redis with tag-based invalidation.
// Each cached key may be registered under any number of tags; invalidating a
// tag deletes every key registered under it. It is safe for concurrent use.
type TagCache struct {
	rdb *redis.Client
}

// New connects to Redis using a redis:// URL.
func New(redisURL string) (*TagCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return &TagCache{rdb: redis.NewClient(opts)}, nil
}

// Ping verifies Redis connectivity. Useful for startup checks.
func (c *TagCache) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Close closes the Redis connection. Implements io.Closer.
func (c *TagCache) Close() error {
	return c.rdb.Close()
}

// Get unmarshals the cached value for key into v.
// Returns (false, nil) on a miss.
func (c *TagCache) Get(ctx context.Context, key string, v interface{}) (bool, error) {
	data, err := c.rdb.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cache get %s: %w", key, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("cache decode %s: %w", key, err)
	}
	return true, nil
}

// Set stores v under key with the given TTL and registers the key under each tag.
func (c *TagCache) Set(ctx context.Context, key string, v interface{}, ttl time.Duration, tags ...string) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("cache encode %s: %w", key, err)
	}
	pipe := c.rdb.TxPipeline()
	pipe.Set(ctx, keyPrefix+key, data, ttl)
	for _, tag := range tags {
		pipe.SAdd(ctx, tagPrefix+tag, keyPrefix+key)
		pipe.Expire(ctx, tagPrefix+tag, tagSetTTL)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("cache set %s: %w", key, err)
	}
	return nil
}

// Invalidate deletes every key registered under each of the given tags, then
// the tag sets themselves. Subsequent reads for those keys miss the cache.
func (c *TagCache) Invalidate(ctx context.Context, tags ...string) error {
	for _, tag := range tags {
		members, err := c.rdb.SMembers(ctx, tagPrefix+tag).Result()
		if err != nil {
			return fmt.Errorf("cache tag members %s: %w", tag, err)
		}
		if len(members) > 0 {
			if err := c.rdb.Del(ctx, members...).Err(); err != nil {
				return fmt.Errorf("cache invalidate %s: %w", tag, err)
			}
		}
		if err := c.rdb.Del(ctx, tagPrefix+tag).Err(); err != nil {
			return fmt.Errorf("cache drop tag %s: %w", tag, err)
		}
	}
	return nil
}
