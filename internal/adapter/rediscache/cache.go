// Package rediscache shares reachable drive times across sessions through Redis.
package rediscache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/couchcryptid/delivery-radius-service/internal/domain"
)

const keyPrefix = "drivetime:"

// Cache implements drivetime.SharedStore. Values are minutes as decimal
// strings under "drivetime:<pair key>" with a fixed TTL.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// Open parses a redis:// URL and returns a client.
func Open(url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return redis.NewClient(opts), nil
}

// NewCache wraps client. Entries expire after ttl.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

// GetMany returns the stored drive times for keys. Absent or malformed
// entries are omitted.
func (c *Cache) GetMany(ctx context.Context, keys []string) (map[string]domain.DriveTime, error) {
	if len(keys) == 0 {
		return map[string]domain.DriveTime{}, nil
	}
	prefixed := make([]string, len(keys))
	for i, k := range keys {
		prefixed[i] = keyPrefix + k
	}
	vals, err := c.client.MGet(ctx, prefixed...).Result()
	if err != nil {
		return nil, fmt.Errorf("redis mget: %w", err)
	}

	out := make(map[string]domain.DriveTime, len(vals))
	for i, v := range vals {
		s, ok := v.(string)
		if !ok {
			continue
		}
		if dt, ok := decode(s); ok {
			out[keys[i]] = dt
		}
	}
	return out, nil
}

// PutMany stores reachable entries in one pipeline. Unreachable entries are
// skipped.
func (c *Cache) PutMany(ctx context.Context, entries map[string]domain.DriveTime) error {
	pipe := c.client.Pipeline()
	n := 0
	for k, dt := range entries {
		if !dt.Reachable {
			continue
		}
		pipe.Set(ctx, keyPrefix+k, encode(dt), c.ttl)
		n++
	}
	if n == 0 {
		return nil
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis pipeline: %w", err)
	}
	return nil
}

// Ping checks connectivity.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the underlying client.
func (c *Cache) Close() error {
	return c.client.Close()
}

func encode(dt domain.DriveTime) string {
	return strconv.FormatFloat(dt.Minutes, 'f', -1, 64)
}

func decode(s string) (domain.DriveTime, bool) {
	m, err := strconv.ParseFloat(s, 64)
	if err != nil || m < 0 {
		return domain.DriveTime{}, false
	}
	return domain.DriveTime{Minutes: m, Reachable: true}, true
}
