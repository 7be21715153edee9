package services

import (
	"context"
	"time"
)

// StubCheckoutLock replaces the Redis in-flight lock until the returned
// func is called.
func StubCheckoutLock(fn func(ctx context.Context, key string, ttl time.Duration) (bool, error)) func() {
	prev := checkoutLock
	checkoutLock = fn
	return func() { checkoutLock = prev }
}
