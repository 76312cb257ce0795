package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestPoolRunsTasks(t *testing.T) {
	p := NewPool(context.Background(), 5)
	var count atomic.Int32
	for i := 0; i < 5; i++ {
		if !p.Submit("incr", func(context.Context) error {
			count.Add(1)
			return nil
		}) {
			t.Fatal("submit rejected below limit")
		}
	}
	p.Wait()
	if got := count.Load(); got != 5 {
		t.Fatalf("ran %d tasks, want 5", got)
	}
}

func TestPoolBoundsConcurrency(t *testing.T) {
	p := NewPool(context.Background(), 2)
	var mu sync.Mutex
	running, peak := 0, 0
	for i := 0; i < 6; i++ {
		task := func(context.Context) error {
			mu.Lock()
			running++
			if running > peak {
				peak = running
			}
			mu.Unlock()
			time.Sleep(20 * time.Millisecond)
			mu.Lock()
			running--
			mu.Unlock()
			return nil
		}
		for !p.Submit("probe", task) {
			time.Sleep(time.Millisecond)
		}
	}
	p.Wait()
	if peak > 2 {
		t.Fatalf("peak concurrency %d exceeds limit 2", peak)
	}
}

func TestPoolSubmitRejectsWhenSaturated(t *testing.T) {
	p := NewPool(context.Background(), 1)
	release := make(chan struct{})
	started := make(chan struct{})
	if !p.Submit("hold", func(context.Context) error {
		close(started)
		<-release
		return nil
	}) {
		t.Fatal("first submit should be accepted")
	}
	<-started

	// Must come back immediately, not wait for the slot.
	var extraRan atomic.Bool
	if p.Submit("extra", func(context.Context) error {
		extraRan.Store(true)
		return nil
	}) {
		t.Fatal("submit at limit should be rejected")
	}
	close(release)
	p.Wait()
	if extraRan.Load() {
		t.Fatal("rejected task should never run")
	}
}

func TestPoolSurvivesErrorsAndPanics(t *testing.T) {
	p := NewPool(context.Background(), 3)
	var ran atomic.Bool
	p.Submit("fail", func(context.Context) error { return errors.New("boom") })
	p.Submit("panic", func(context.Context) error { panic("boom") })
	p.Submit("ok", func(context.Context) error {
		ran.Store(true)
		return nil
	})
	p.Wait()
	if !ran.Load() {
		t.Fatal("pool stopped running tasks after a failure")
	}
}

func TestPoolShutdownCancelsContext(t *testing.T) {
	p := NewPool(context.Background(), 1)
	started := make(chan struct{})
	var sawCancel atomic.Bool
	p.Submit("long", func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		sawCancel.Store(true)
		return ctx.Err()
	})
	<-started
	p.Shutdown()
	if !sawCancel.Load() {
		t.Fatal("expected in-flight task to observe cancellation")
	}
}
