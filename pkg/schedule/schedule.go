// Package schedule runs recurring tasks inside the process.
//
//	s := schedule.New()
//	s.Every(time.Hour).Name("vendors:reconcile-sales").WithoutOverlapping().Run(task)
//	s.Cron("0 3 * * *").Name("nightly").Run(task)
//	go s.Start(ctx)
//
// schedule:run uses RunDue instead, for deployments that trigger it from
// system cron once a minute.
package schedule

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/shashiranjanraj/markethub/pkg/logger"
)

type Task func(ctx context.Context) error

type entry struct {
	name      string
	interval  time.Duration
	cron      string
	task      Task
	noOverlap bool

	mu      sync.Mutex
	lastRun time.Time
	running bool
}

// Builder configures one entry until Run registers it.
type Builder struct {
	s *Scheduler
	e *entry
}

type Scheduler struct {
	mu      sync.Mutex
	entries []*entry
	wg      sync.WaitGroup
}

func New() *Scheduler { return &Scheduler{} }

func (s *Scheduler) Every(d time.Duration) *Builder {
	return &Builder{s: s, e: &entry{interval: d}}
}

func (s *Scheduler) Hourly() *Builder { return s.Every(time.Hour) }

// Cron takes a five-field expression: minute hour day-of-month month
// day-of-week. Fields accept *, n, a-b, */n and comma lists of those.
func (s *Scheduler) Cron(expr string) *Builder {
	return &Builder{s: s, e: &entry{cron: expr}}
}

func (b *Builder) Name(n string) *Builder {
	b.e.name = n
	return b
}

// WithoutOverlapping skips a tick while the previous run is still going.
func (b *Builder) WithoutOverlapping() *Builder {
	b.e.noOverlap = true
	return b
}

func (b *Builder) Run(t Task) error {
	if b.e.cron != "" {
		if _, err := parseCron(b.e.cron); err != nil {
			return err
		}
	} else if b.e.interval <= 0 {
		return fmt.Errorf("schedule: non-positive interval")
	}
	b.e.task = t

	b.s.mu.Lock()
	defer b.s.mu.Unlock()
	if b.e.name == "" {
		b.e.name = fmt.Sprintf("task-%d", len(b.s.entries)+1)
	}
	b.s.entries = append(b.s.entries, b.e)
	return nil
}

func (s *Scheduler) snapshot() []*entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*entry(nil), s.entries...)
}

// Start ticks every second until ctx ends, then waits for running tasks.
func (s *Scheduler) Start(ctx context.Context) {
	logger.Info("schedule: started", "tasks", len(s.snapshot()))
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.wg.Wait()
			logger.Info("schedule: stopped")
			return
		case now := <-ticker.C:
			for _, e := range s.snapshot() {
				if e.due(now) {
					s.dispatch(ctx, e)
				}
			}
		}
	}
}

// RunDue runs every task due at now and waits for them to finish. Interval
// tasks are always due on a fresh process.
func (s *Scheduler) RunDue(ctx context.Context, now time.Time) []string {
	var ran []string
	for _, e := range s.snapshot() {
		if e.due(now) {
			s.dispatch(ctx, e)
			ran = append(ran, e.name)
		}
	}
	s.wg.Wait()
	return ran
}

// List describes each entry as "name [frequency]".
func (s *Scheduler) List() []string {
	var out []string
	for _, e := range s.snapshot() {
		freq := e.cron
		if freq == "" {
			freq = "every " + e.interval.String()
		}
		out = append(out, fmt.Sprintf("%s [%s]", e.name, freq))
	}
	return out
}

func (e *entry) due(now time.Time) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cron != "" {
		// Cron entries fire once per matching minute.
		if !e.lastRun.IsZero() && e.lastRun.Truncate(time.Minute).Equal(now.Truncate(time.Minute)) {
			return false
		}
		c, _ := parseCron(e.cron)
		return c.match(now)
	}
	return e.lastRun.IsZero() || now.Sub(e.lastRun) >= e.interval
}

func (s *Scheduler) dispatch(ctx context.Context, e *entry) {
	e.mu.Lock()
	if e.noOverlap && e.running {
		e.mu.Unlock()
		logger.Warn("schedule: previous run still going, skipped", "task", e.name)
		return
	}
	e.running = true
	e.lastRun = time.Now()
	e.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		start := time.Now()
		defer func() {
			e.mu.Lock()
			e.running = false
			e.mu.Unlock()
			if r := recover(); r != nil {
				logger.Error("schedule: task panicked", "task", e.name, "panic", fmt.Sprint(r))
			}
		}()

		if err := e.task(ctx); err != nil {
			logger.Error("schedule: task failed", "task", e.name, "error", err)
			return
		}
		logger.Info("schedule: task done", "task", e.name, "duration", time.Since(start).String())
	}()
}

// ── cron ─────────────────────────────────────────────────────────────────────

type cronSpec [5]map[int]bool

var cronBounds = [5][2]int{{0, 59}, {0, 23}, {1, 31}, {1, 12}, {0, 6}}

func parseCron(expr string) (cronSpec, error) {
	var spec cronSpec
	fields := strings.Fields(expr)
	if len(fields) != 5 {
		return spec, fmt.Errorf("schedule: cron %q needs 5 fields", expr)
	}
	for i, f := range fields {
		set, err := parseField(f, cronBounds[i][0], cronBounds[i][1])
		if err != nil {
			return spec, fmt.Errorf("schedule: cron %q field %d: %w", expr, i+1, err)
		}
		spec[i] = set
	}
	return spec, nil
}

func parseField(f string, lo, hi int) (map[int]bool, error) {
	set := map[int]bool{}
	for _, part := range strings.Split(f, ",") {
		step := 1
		if base, s, ok := strings.Cut(part, "/"); ok {
			n, err := strconv.Atoi(s)
			if err != nil || n <= 0 {
				return nil, fmt.Errorf("bad step %q", s)
			}
			part, step = base, n
		}

		from, to := lo, hi
		switch {
		case part == "*":
		case strings.Contains(part, "-"):
			a, b, _ := strings.Cut(part, "-")
			var err1, err2 error
			from, err1 = strconv.Atoi(a)
			to, err2 = strconv.Atoi(b)
			if err1 != nil || err2 != nil {
				return nil, fmt.Errorf("bad range %q", part)
			}
		default:
			n, err := strconv.Atoi(part)
			if err != nil {
				return nil, fmt.Errorf("bad value %q", part)
			}
			from, to = n, n
		}
		if from < lo || to > hi || from > to {
			return nil, fmt.Errorf("%q out of range %d-%d", part, lo, hi)
		}
		for v := from; v <= to; v += step {
			set[v] = true
		}
	}
	return set, nil
}

func (c cronSpec) match(t time.Time) bool {
	return c[0][t.Minute()] &&
		c[1][t.Hour()] &&
		c[2][t.Day()] &&
		c[3][int(t.Month())] &&
		c[4][int(t.Weekday())]
}
