// Package event is an in-process publish/subscribe bus. Listeners are
// registered at boot; Fire runs them in registration order.
package event

import (
	"context"
	"fmt"
	"sync"

	"github.com/shashiranjanraj/markethub/pkg/logger"
)

type Handler func(ctx context.Context, payload any) error

var (
	mu       sync.RWMutex
	handlers = map[string][]Handler{}
)

func Listen(name string, h Handler) {
	mu.Lock()
	defer mu.Unlock()
	handlers[name] = append(handlers[name], h)
}

func listeners(name string) []Handler {
	mu.RLock()
	defer mu.RUnlock()
	return append([]Handler(nil), handlers[name]...)
}

// Fire runs every listener for name synchronously. A failing or panicking
// listener is logged and does not stop the others, and never fails the
// caller: events are fired after the state change is already committed.
func Fire(ctx context.Context, name string, payload any) {
	for _, h := range listeners(name) {
		call(ctx, name, h, payload)
	}
}

// FireAsync runs the listeners on a new goroutine, detached from ctx
// cancellation. The returned channel closes when they have all finished.
func FireAsync(ctx context.Context, name string, payload any) <-chan struct{} {
	done := make(chan struct{})
	hs := listeners(name)
	bg := context.WithoutCancel(ctx)
	go func() {
		defer close(done)
		for _, h := range hs {
			call(bg, name, h, payload)
		}
	}()
	return done
}

func call(ctx context.Context, name string, h Handler, payload any) {
	defer func() {
		if r := recover(); r != nil {
			logger.WithCtx(ctx).Error("event: listener panicked", "event", name, "panic", fmt.Sprint(r))
		}
	}()
	if err := h(ctx, payload); err != nil {
		logger.WithCtx(ctx).Error("event: listener failed", "event", name, "error", err)
	}
}

// Flush removes every listener.
func Flush() {
	mu.Lock()
	defer mu.Unlock()
	handlers = map[string][]Handler{}
}
