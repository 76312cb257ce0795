package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hearth-hq/hearth/internal/config"
)

func testConfig(t *testing.T) config.SchedulerConfig {
	return config.SchedulerConfig{
		Enabled:       true,
		TickInterval:  50 * time.Millisecond,
		LockPath:      t.TempDir() + "/test.lock",
		MaxConcSweeps: 2,
	}
}

func TestSchedulerDispatch(t *testing.T) {
	s := New(testConfig(t))
	var ran atomic.Int32
	if err := s.Register("every-minute", "* * * * *", func(context.Context) error {
		ran.Add(1)
		return nil
	}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	s.tick(context.Background(), time.Now())
	s.wg.Wait()
	if ran.Load() != 1 {
		t.Errorf("expected 1 run, got %d", ran.Load())
	}
}

func TestSchedulerNonMatchingSweepNotDispatched(t *testing.T) {
	s := New(testConfig(t))
	var ran atomic.Int32
	if err := s.Register("midnight-only", "0 0 * * *", func(context.Context) error {
		ran.Add(1)
		return nil
	}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	noon := time.Date(2026, 2, 15, 12, 30, 0, 0, time.UTC)
	s.tick(context.Background(), noon)
	s.wg.Wait()
	if ran.Load() != 0 {
		t.Errorf("expected 0 runs at noon, got %d", ran.Load())
	}
}

func TestSchedulerRegisterRejectsBadCron(t *testing.T) {
	s := New(testConfig(t))
	if err := s.Register("bad", "not a cron", func(context.Context) error { return nil }); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestSchedulerLockPreventsOverlap(t *testing.T) {
	cfg := testConfig(t)
	s1 := New(cfg)
	s2 := New(cfg)

	acquired, err := s1.lock.TryLock()
	if err != nil || !acquired {
		t.Fatal("s1 should acquire lock")
	}
	acquired2, err := s2.lock.TryLock()
	if err != nil {
		t.Fatal("unexpected error on s2 lock:", err)
	}
	if acquired2 {
		t.Error("s2 should NOT acquire lock while s1 holds it")
		s2.lock.Unlock()
	}

	s1.lock.Unlock()
	acquired3, err := s2.lock.TryLock()
	if err != nil {
		t.Fatal("unexpected error on s2 retry:", err)
	}
	if !acquired3 {
		t.Error("s2 should acquire lock after s1 released")
	}
	s2.lock.Unlock()
}

func TestSemaphoreConcurrencyLimit(t *testing.T) {
	sem := NewSemaphore(2)

	if !sem.TryAcquire() {
		t.Error("first acquire should succeed")
	}
	if !sem.TryAcquire() {
		t.Error("second acquire should succeed")
	}
	if sem.TryAcquire() {
		t.Error("third acquire should fail (cap=2)")
	}
	if sem.Available() != 0 {
		t.Errorf("Available() = %d, want 0", sem.Available())
	}

	sem.Release()
	if sem.Available() != 1 {
		t.Errorf("Available() = %d, want 1", sem.Available())
	}
	if !sem.TryAcquire() {
		t.Error("acquire after release should succeed")
	}
}

func TestRunAllIgnoresSchedule(t *testing.T) {
	s := New(testConfig(t))
	var ran atomic.Int32
	s.Register("midnight-only", "0 0 * * *", func(context.Context) error {
		ran.Add(1)
		return nil
	})
	s.RunAll(context.Background())
	if ran.Load() != 1 {
		t.Errorf("expected 1 run, got %d", ran.Load())
	}
}
