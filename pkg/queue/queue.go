// Package queue runs background jobs off the request path. Jobs are JSON
// encoded into an envelope, pushed to a driver (memory or Redis) and
// decoded by name on the worker side.
//
//	queue.Register(jobs.SendOrderConfirmation{})
//	queue.Dispatch(ctx, jobs.SendOrderConfirmation{OrderID: id})
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/markethub/pkg/logger"
	"github.com/shashiranjanraj/markethub/pkg/metrics"
)

// Job is one unit of background work. Name must be stable: it is how the
// worker finds the type to decode into.
type Job interface {
	Name() string
	Handle(ctx context.Context) error
}

// Driver stores encoded envelopes. Pop blocks until a payload is ready or
// ctx ends; it may return (nil, nil) on an idle timeout.
type Driver interface {
	Push(ctx context.Context, payload []byte) error
	Pop(ctx context.Context) ([]byte, error)
}

// DelayedDriver can hold a payload until a point in time.
type DelayedDriver interface {
	PushDelayed(ctx context.Context, payload []byte, delay time.Duration) error
}

// FailedJob is a job that exhausted its retries.
type FailedJob struct {
	Name     string
	Payload  json.RawMessage
	Err      string
	Attempts int
	FailedAt time.Time
}

type envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type Manager struct {
	mu       sync.RWMutex
	driver   Driver
	registry map[string]reflect.Type
	failed   []FailedJob
	db       *gorm.DB
	maxTries int
	backoff  time.Duration
}

func New(d Driver) *Manager {
	return &Manager{
		driver:   d,
		registry: map[string]reflect.Type{},
		maxTries: 3,
		backoff:  time.Second,
	}
}

// SetRetry sets the attempts per job and the base backoff between them.
// Attempt n waits n*backoff.
func (m *Manager) SetRetry(tries int, backoff time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if tries < 1 {
		tries = 1
	}
	m.maxTries, m.backoff = tries, backoff
}

func (m *Manager) SetDriver(d Driver) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.driver = d
}

// UseDB persists exhausted jobs to the failed_jobs table as well.
func (m *Manager) UseDB(db *gorm.DB) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.db = db
}

// Register records the concrete type of job under job.Name(). Pass a zero
// value; pointer and value receivers both work.
func (m *Manager) Register(job Job) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.registry[job.Name()] = reflect.TypeOf(job)
}

func (m *Manager) encode(job Job) ([]byte, error) {
	payload, err := json.Marshal(job)
	if err != nil {
		return nil, fmt.Errorf("queue: marshal %s: %w", job.Name(), err)
	}
	return json.Marshal(envelope{Type: job.Name(), Payload: payload})
}

func (m *Manager) Dispatch(ctx context.Context, job Job) error {
	raw, err := m.encode(job)
	if err != nil {
		return err
	}
	m.mu.RLock()
	d := m.driver
	m.mu.RUnlock()
	return d.Push(ctx, raw)
}

// DispatchAfter delays job by delay. Drivers without native delay support
// fall back to an in-process timer, which does not survive a restart.
func (m *Manager) DispatchAfter(ctx context.Context, job Job, delay time.Duration) error {
	raw, err := m.encode(job)
	if err != nil {
		return err
	}
	m.mu.RLock()
	d := m.driver
	m.mu.RUnlock()

	if dd, ok := d.(DelayedDriver); ok {
		return dd.PushDelayed(ctx, raw, delay)
	}
	bg := context.WithoutCancel(ctx)
	time.AfterFunc(delay, func() {
		if err := d.Push(bg, raw); err != nil {
			logger.Error("queue: delayed dispatch failed", "type", job.Name(), "error", err)
		}
	})
	return nil
}

// Run starts n workers and blocks until ctx is cancelled and every worker
// has returned.
func (m *Manager) Run(ctx context.Context, n int) {
	if n < 1 {
		n = 1
	}
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.work(ctx)
		}()
	}
	logger.Info("queue: workers started", "count", n)
	wg.Wait()
	logger.Info("queue: workers stopped")
}

func (m *Manager) work(ctx context.Context) {
	for ctx.Err() == nil {
		m.mu.RLock()
		d := m.driver
		m.mu.RUnlock()

		raw, err := d.Pop(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Warn("queue: pop failed", "error", err)
			sleep(ctx, 500*time.Millisecond)
			continue
		}
		if raw == nil {
			continue
		}
		m.process(ctx, raw)
	}
}

func (m *Manager) process(ctx context.Context, raw []byte) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		logger.Error("queue: bad envelope", "error", err)
		return
	}

	job, err := m.decode(env)
	if err != nil {
		logger.Error("queue: cannot decode job", "type", env.Type, "error", err)
		m.persistFailed(ctx, FailedJob{Name: env.Type, Payload: env.Payload, Err: err.Error(), FailedAt: time.Now()})
		return
	}

	m.mu.RLock()
	tries, backoff := m.maxTries, m.backoff
	m.mu.RUnlock()

	var lastErr error
	for attempt := 1; attempt <= tries; attempt++ {
		start := time.Now()
		lastErr = job.Handle(ctx)
		if lastErr == nil {
			metrics.RecordQueueJob(env.Type, "success", start)
			logger.Debug("queue: job processed", "type", env.Type)
			return
		}
		metrics.RecordQueueJob(env.Type, "retry", start)
		logger.Warn("queue: job failed", "type", env.Type, "attempt", attempt, "error", lastErr)
		if attempt < tries && !sleep(ctx, time.Duration(attempt)*backoff) {
			break
		}
	}

	metrics.RecordQueueJob(env.Type, "failed", time.Now())
	logger.Error("queue: job exhausted retries", "type", env.Type, "error", lastErr)
	m.persistFailed(ctx, FailedJob{
		Name:     env.Type,
		Payload:  env.Payload,
		Err:      lastErr.Error(),
		Attempts: tries,
		FailedAt: time.Now(),
	})
}

var errUnknownJob = errors.New("queue: job type not registered")

func (m *Manager) decode(env envelope) (Job, error) {
	m.mu.RLock()
	t, ok := m.registry[env.Type]
	m.mu.RUnlock()
	if !ok {
		return nil, errUnknownJob
	}

	if t.Kind() == reflect.Pointer {
		v := reflect.New(t.Elem())
		if err := json.Unmarshal(env.Payload, v.Interface()); err != nil {
			return nil, err
		}
		return v.Interface().(Job), nil
	}
	v := reflect.New(t)
	if err := json.Unmarshal(env.Payload, v.Interface()); err != nil {
		return nil, err
	}
	return v.Elem().Interface().(Job), nil
}

// FailedJobs returns the jobs that failed in this process.
func (m *Manager) FailedJobs() []FailedJob {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]FailedJob(nil), m.failed...)
}

// sleep waits d or until ctx ends, reporting whether the full wait elapsed.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// ── package-level default ────────────────────────────────────────────────────

var Default = New(NewMemoryDriver(1000))

func Register(job Job)                            { Default.Register(job) }
func Dispatch(ctx context.Context, job Job) error { return Default.Dispatch(ctx, job) }
func SetDriver(d Driver)                          { Default.SetDriver(d) }
func UseDB(db *gorm.DB)                           { Default.UseDB(db) }
func Run(ctx context.Context, workers int)        { Default.Run(ctx, workers) }

func DispatchAfter(ctx context.Context, job Job, d time.Duration) error {
	return Default.DispatchAfter(ctx, job, d)
}
