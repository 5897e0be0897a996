// Package mainloop runs the designated mutation goroutine. Every change to a
// buffer happens inside a task run by a Loop; other goroutines hand work to
// it with Invoke or Post.
package mainloop

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"

	"github.com/yaklabco/srcbuf/internal/logging"
)

var (
	// ErrStopped indicates the loop is no longer accepting tasks.
	ErrStopped = errors.New("main loop stopped")

	// ErrRunning indicates Run was called on a loop that is already running.
	ErrRunning = errors.New("main loop already running")
)

// defaultQueueSize is the number of tasks that can be posted without blocking.
const defaultQueueSize = 64

// Options configures a Loop.
type Options struct {
	// QueueSize bounds the task queue. 0 means the default.
	QueueSize int

	// Logger receives task panics. nil discards.
	Logger *log.Logger
}

// Loop executes tasks one at a time on the goroutine that calls Run.
type Loop struct {
	tasks  chan func()
	quit   chan struct{}
	done   chan struct{}
	logger *log.Logger

	started  atomic.Bool
	stopOnce sync.Once
}

// New creates a loop. It does nothing until Run is called.
func New(opts Options) *Loop {
	size := opts.QueueSize
	if size <= 0 {
		size = defaultQueueSize
	}
	return &Loop{
		tasks:  make(chan func(), size),
		quit:   make(chan struct{}),
		done:   make(chan struct{}),
		logger: logging.OrDiscard(opts.Logger),
	}
}

// Run executes tasks until ctx is cancelled or Stop is called. Tasks still
// queued at that point are dropped.
func (l *Loop) Run(ctx context.Context) error {
	if !l.started.CompareAndSwap(false, true) {
		return ErrRunning
	}
	defer close(l.done)

	for {
		select {
		case <-ctx.Done():
			l.Stop()
			return fmt.Errorf("main loop: %w", ctx.Err())
		case <-l.quit:
			return nil
		case task := <-l.tasks:
			l.run(task)
		}
	}
}

func (l *Loop) run(task func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("task panicked", "panic", r)
		}
	}()
	task()
}

// Stop makes Run return after the current task. It is safe to call more
// than once and from inside a task.
func (l *Loop) Stop() {
	l.stopOnce.Do(func() { close(l.quit) })
}

// Done is closed once Run has returned.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

// Post queues fn without waiting for it to run.
func (l *Loop) Post(fn func()) error {
	select {
	case <-l.quit:
		return ErrStopped
	default:
	}
	select {
	case l.tasks <- fn:
		return nil
	case <-l.quit:
		return ErrStopped
	}
}

// Task states for Invoke.
const (
	taskPending int32 = iota
	taskClaimed
	taskAbandoned
)

// Invoke runs fn on the loop and waits for it to finish. If ctx ends before
// fn has started, fn never runs and ctx's error is returned. Invoke must not
// be called from inside a task.
func (l *Loop) Invoke(ctx context.Context, fn func()) error {
	var state atomic.Int32
	finished := make(chan struct{})
	task := func() {
		if !state.CompareAndSwap(taskPending, taskClaimed) {
			return
		}
		defer close(finished)
		fn()
	}

	select {
	case l.tasks <- task:
	case <-l.quit:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-finished:
		return nil
	case <-l.quit:
	case <-ctx.Done():
	}

	if state.CompareAndSwap(taskPending, taskAbandoned) {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return ErrStopped
	}
	// fn is already running; it must be allowed to complete.
	<-finished
	return nil
}
