package scheduler

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// Priority tells the loop whether a render may be interrupted
type Priority int

const (
	// Urgent work runs in order and is never dropped. Scheduling it abandons
	// any deferred work still waiting.
	Urgent Priority = iota
	// Deferred work is interruptible: at most one deferred task waits at a
	// time and a newer one replaces it.
	Deferred
)

func (p Priority) String() string {
	switch p {
	case Urgent:
		return "urgent"
	case Deferred:
		return "deferred"
	}
	return "unknown"
}

// Task is a unit of render work
type Task func()

// Scheduler accepts render work. Schedule must not block.
type Scheduler interface {
	Schedule(priority Priority, task Task)
}

// Stats is a snapshot of a loop's counters
type Stats struct {
	Pending   int   `json:"pending"`
	Executed  int64 `json:"executed"`
	Abandoned int64 `json:"abandoned"`
}

// Loop runs scheduled tasks one at a time on the goroutine that calls Run.
type Loop struct {
	logger zerolog.Logger

	mu       sync.Mutex
	urgent   []Task
	deferred Task
	stopped  bool
	stats    Stats

	wake chan struct{}
}

// NewLoop creates a loop. Nothing runs until Run is called.
func NewLoop(logger zerolog.Logger) *Loop {
	return &Loop{
		logger: logger.With().Str("component", "scheduler").Logger(),
		wake:   make(chan struct{}, 1),
	}
}

// Schedule enqueues task. Tasks scheduled after Run has returned are dropped.
func (l *Loop) Schedule(priority Priority, task Task) {
	if task == nil {
		return
	}

	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return
	}
	switch priority {
	case Urgent:
		if l.deferred != nil {
			l.abandonLocked()
		}
		l.urgent = append(l.urgent, task)
	default:
		if l.deferred != nil {
			l.abandonLocked()
		}
		l.deferred = task
	}
	l.mu.Unlock()

	tasksTotal.WithLabelValues(priority.String(), "scheduled").Inc()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

func (l *Loop) abandonLocked() {
	l.deferred = nil
	l.stats.Abandoned++
	tasksTotal.WithLabelValues(Deferred.String(), "abandoned").Inc()
}

// Run executes tasks until ctx is cancelled. Urgent tasks always run before a
// waiting deferred task. Pending work is discarded on return.
func (l *Loop) Run(ctx context.Context) error {
	defer l.stop()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		if task, ok := l.next(); ok {
			l.execute(task)
			continue
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.wake:
		}
	}
}

func (l *Loop) next() (Task, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.urgent) > 0 {
		task := l.urgent[0]
		l.urgent[0] = nil
		l.urgent = l.urgent[1:]
		return task, true
	}
	if l.deferred != nil {
		task := l.deferred
		l.deferred = nil
		return task, true
	}
	return nil, false
}

// execute runs one task. A panicking renderer must not take the loop down.
func (l *Loop) execute(task Task) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error().Interface("panic", r).Msg("render task panicked")
		}
	}()

	task()

	l.mu.Lock()
	l.stats.Executed++
	l.mu.Unlock()
}

func (l *Loop) stop() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.stopped = true
	l.urgent = nil
	l.deferred = nil
}

// Stats returns a snapshot of the loop counters
func (l *Loop) Stats() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()

	s := l.stats
	s.Pending = len(l.urgent)
	if l.deferred != nil {
		s.Pending++
	}
	return s
}

// Inline runs every task immediately on the caller's goroutine. Nothing is
// ever abandoned.
type Inline struct{}

func (Inline) Schedule(_ Priority, task Task) {
	if task != nil {
		task()
	}
}
