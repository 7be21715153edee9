// Package cache wraps the shared Redis client. Every helper degrades to a
// miss or a no-op when Redis is not configured, so callers never branch on
// availability themselves.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/shashiranjanraj/markethub/config"
	"github.com/shashiranjanraj/markethub/pkg/metrics"
)

var RDB *redis.Client

// Connect initialises RDB from config. An empty REDIS_ADDR leaves RDB nil.
func Connect(ctx context.Context) error {
	addr := config.RedisAddr()
	if addr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: config.RedisPassword(),
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return fmt.Errorf("cache: redis ping: %w", err)
	}
	RDB = client
	return nil
}

func Enabled() bool { return RDB != nil }

// Get unmarshals the value under key into dest and reports a hit.
func Get(ctx context.Context, key string, dest any) bool {
	if RDB == nil {
		return false
	}
	val, err := RDB.Get(ctx, key).Bytes()
	hit := err == nil && json.Unmarshal(val, dest) == nil
	metrics.RecordCache(keySpace(key), hit)
	return hit
}

func Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if RDB == nil {
		return nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache: marshal %s: %w", key, err)
	}
	return RDB.Set(ctx, key, data, ttl).Err()
}

func Del(ctx context.Context, keys ...string) error {
	if RDB == nil || len(keys) == 0 {
		return nil
	}
	return RDB.Del(ctx, keys...).Err()
}

// Remember returns the cached value under key, or calls load, caches its
// result for ttl and returns it.
func Remember[T any](ctx context.Context, key string, ttl time.Duration, load func() (T, error)) (T, error) {
	var v T
	if Get(ctx, key, &v) {
		return v, nil
	}
	v, err := load()
	if err != nil {
		return v, err
	}
	_ = Set(ctx, key, v, ttl)
	return v, nil
}

// Lock takes key with SET NX for ttl. It reports false when another holder
// already has it. Without Redis every lock is granted.
func Lock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if RDB == nil {
		return true, nil
	}
	ok, err := RDB.SetNX(ctx, key, time.Now().Unix(), ttl).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return false, fmt.Errorf("cache: lock %s: %w", key, err)
	}
	return ok, nil
}

func Unlock(ctx context.Context, key string) error {
	return Del(ctx, key)
}

func keySpace(key string) string {
	if i := strings.IndexByte(key, ':'); i > 0 {
		return key[:i]
	}
	return key
}
