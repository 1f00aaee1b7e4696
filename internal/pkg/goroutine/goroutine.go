// Package goroutine runs a bounded set of named background tasks and collects
// their errors.
package goroutine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"

	"github.com/shandysiswandi/authflow/internal/pkg/stacktrace"
)

// DefaultMaxGoroutine is used when NewManager receives a non-positive limit.
const DefaultMaxGoroutine int = 4

// ErrClosed is recorded when a task is scheduled after Wait was called.
var ErrClosed = errors.New("goroutine: manager is closed")

// Manager runs functions in goroutines with a configurable concurrency limit.
//
// Go blocks while the manager is at capacity. Panics become task errors.
type Manager struct {
	mu     sync.Mutex
	errs   []error
	wg     sync.WaitGroup
	sema   chan struct{}
	closed bool
}

// NewManager creates a new Manager with the provided maximum concurrency.
func NewManager(maxGoroutine int) *Manager {
	if maxGoroutine < 1 {
		maxGoroutine = DefaultMaxGoroutine
	}

	return &Manager{
		sema: make(chan struct{}, maxGoroutine),
	}
}

// Go schedules f under name. It returns once f has started or ctx is done.
func (g *Manager) Go(ctx context.Context, name string, f func(ctx context.Context) error) {
	g.mu.Lock()
	if g.closed {
		g.errs = append(g.errs, fmt.Errorf("%s: %w", name, ErrClosed))
		g.mu.Unlock()
		return
	}
	g.wg.Add(1)
	g.mu.Unlock()

	select {
	case g.sema <- struct{}{}:
	case <-ctx.Done():
		g.record(fmt.Errorf("%s: %w", name, ctx.Err()))
		g.wg.Done()
		return
	}

	go func() {
		defer g.wg.Done()
		defer func() { <-g.sema }()

		if err := g.run(ctx, name, f); err != nil {
			g.record(fmt.Errorf("%s: %w", name, err))
		}
	}()
}

func (g *Manager) run(ctx context.Context, name string, f func(ctx context.Context) error) (err error) {
	defer func() {
		if rvr := recover(); rvr != nil {
			stack := debug.Stack()
			if paths := stacktrace.InternalPaths(stack); len(paths) > 0 {
				slog.ErrorContext(ctx, "panic occurred in goroutine", "task", name, "panic", rvr, "stack", paths)
			} else {
				slog.ErrorContext(ctx, "panic occurred in goroutine", "task", name, "panic", rvr, "stack", string(stack))
			}
			err = fmt.Errorf("panic: %v", rvr)
		}
	}()

	return f(ctx)
}

func (g *Manager) record(err error) {
	g.mu.Lock()
	g.errs = append(g.errs, err)
	g.mu.Unlock()
}

// Wait closes the manager, blocks until all scheduled goroutines finish and
// returns the collected errors joined together.
func (g *Manager) Wait() error {
	g.mu.Lock()
	g.closed = true
	g.mu.Unlock()

	g.wg.Wait()

	g.mu.Lock()
	defer g.mu.Unlock()
	return errors.Join(g.errs...)
}
