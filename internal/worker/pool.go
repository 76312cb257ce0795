// Package worker provides a bounded background task pool for webhook-driven
// work. The gateway must answer fast; sync and detection run here.
package worker

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// Pool runs submitted tasks on a bounded set of goroutines. Task errors and
// panics are logged, never propagated to the submitter.
type Pool struct {
	group  *errgroup.Group
	ctx    context.Context
	cancel context.CancelFunc
}

// NewPool creates a pool running at most limit tasks concurrently.
func NewPool(ctx context.Context, limit int) *Pool {
	if limit <= 0 {
		limit = 4
	}
	ctx, cancel := context.WithCancel(ctx)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	return &Pool{group: g, ctx: ctx, cancel: cancel}
}

// Submit schedules fn on the pool without blocking. Returns false when the
// pool is at its limit; the caller decides whether dropping is acceptable.
func (p *Pool) Submit(name string, fn func(ctx context.Context) error) bool {
	return p.group.TryGo(func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				slog.Error("Task panicked", "task", name, "panic", fmt.Sprint(r))
			}
		}()
		if p.ctx.Err() != nil {
			return nil
		}
		if err := fn(p.ctx); err != nil {
			slog.Error("Task failed", "task", name, "error", err)
		}
		return nil
	})
}

// Shutdown cancels in-flight tasks and waits for them to finish.
func (p *Pool) Shutdown() {
	p.cancel()
	_ = p.group.Wait()
}

// Wait blocks until all submitted tasks have finished.
func (p *Pool) Wait() {
	_ = p.group.Wait()
}
