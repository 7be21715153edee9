// Package middleware holds the HTTP middleware shared by every route group.
package middleware

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/shashiranjanraj/markethub/pkg/cache"
	"github.com/shashiranjanraj/markethub/pkg/logger"
	"github.com/shashiranjanraj/markethub/pkg/response"
)

// Limiter counts hits for a key inside a fixed window.
type Limiter interface {
	Allow(ctx context.Context, key string, max int, window time.Duration) (bool, error)
}

type bucket struct {
	count   int
	resetAt time.Time
}

// MemoryLimiter keeps per-key windows in process memory. Expired windows
// are swept on access once the map grows past sweepAt.
type MemoryLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	sweepAt int
}

func NewMemoryLimiter() *MemoryLimiter {
	return &MemoryLimiter{buckets: map[string]*bucket{}, sweepAt: 10000}
}

func (m *MemoryLimiter) Allow(_ context.Context, key string, max int, window time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	if len(m.buckets) >= m.sweepAt {
		for k, b := range m.buckets {
			if now.After(b.resetAt) {
				delete(m.buckets, k)
			}
		}
	}

	b, ok := m.buckets[key]
	if !ok || now.After(b.resetAt) {
		b = &bucket{resetAt: now.Add(window)}
		m.buckets[key] = b
	}
	b.count++
	return b.count <= max, nil
}

// RedisLimiter shares the window across instances with INCR + EXPIRE.
type RedisLimiter struct{}

func (RedisLimiter) Allow(ctx context.Context, key string, max int, window time.Duration) (bool, error) {
	k := "ratelimit:" + key
	n, err := cache.RDB.Incr(ctx, k).Result()
	if err != nil {
		return false, fmt.Errorf("ratelimit: incr: %w", err)
	}
	if n == 1 {
		cache.RDB.Expire(ctx, k, window)
	}
	return n <= int64(max), nil
}

// DefaultLimiter picks Redis when it is configured.
func DefaultLimiter() Limiter {
	if cache.Enabled() {
		return RedisLimiter{}
	}
	return NewMemoryLimiter()
}

// RateLimit allows max requests per window per client IP. Limiter errors
// fail open.
func RateLimit(l Limiter, max int, window time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ok, err := l.Allow(r.Context(), clientIP(r), max, window)
			if err != nil {
				logger.WithCtx(r.Context()).Warn("rate limit check failed", "error", err)
				ok = true
			}
			if !ok {
				w.Header().Set("Retry-After", strconv.Itoa(int(window.Seconds())))
				response.TooManyRequests(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(first)
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
