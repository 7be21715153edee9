// Package workerpool runs a batch of tasks on a bounded number of
// goroutines and collects their errors.
//
//	pool := workerpool.New(4)
//	for _, v := range vendors {
//	    pool.Go(ctx, func(ctx context.Context) error { return notify(ctx, v) })
//	}
//	err := pool.Wait()
package workerpool

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrPoolClosed is returned by Go after Wait has been called.
var ErrPoolClosed = errors.New("workerpool: pool is closed")

type Pool struct {
	sem    chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
	errs   []error
	closed bool
}

// New returns a pool that runs at most size tasks at once.
func New(size int) *Pool {
	if size <= 0 {
		size = 1
	}
	return &Pool{sem: make(chan struct{}, size)}
}

// Go blocks until a slot is free, then runs task on its own goroutine. It
// returns ctx.Err() if ctx ends first; the task is not run in that case.
func (p *Pool) Go(ctx context.Context, task func(ctx context.Context) error) error {
	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		return ErrPoolClosed
	}

	select {
	case p.sem <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer func() { <-p.sem }()
		if err := safeRun(ctx, task); err != nil {
			p.mu.Lock()
			p.errs = append(p.errs, err)
			p.mu.Unlock()
		}
	}()
	return nil
}

// Wait blocks until every started task has finished and returns their
// errors joined. The pool accepts no new tasks afterwards.
func (p *Pool) Wait() error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()

	p.wg.Wait()

	p.mu.Lock()
	defer p.mu.Unlock()
	return errors.Join(p.errs...)
}

// safeRun turns a panicking task into an error so one bad task does not
// take the process down.
func safeRun(ctx context.Context, task func(context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("workerpool: task panicked: %v", r)
		}
	}()
	return task(ctx)
}
