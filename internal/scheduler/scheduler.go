package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/hearth-hq/hearth/internal/config"
)

// Sweep is one schedulable maintenance task.
type Sweep struct {
	Name string
	Cron *CronExpr
	Run  func(ctx context.Context) error
}

// Scheduler runs registered sweeps on their cron schedules. A file lock keeps
// a second hearth process from double-running sweeps; a semaphore caps how
// many run at once within this process.
type Scheduler struct {
	cfg    config.SchedulerConfig
	mu     sync.RWMutex
	sweeps map[string]*Sweep
	sem    *Semaphore
	lock   *FileLock
	wg     sync.WaitGroup
}

// New creates a scheduler from config.
func New(cfg config.SchedulerConfig) *Scheduler {
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = 60 * time.Second
	}
	if cfg.MaxConcSweeps <= 0 {
		cfg.MaxConcSweeps = 2
	}
	return &Scheduler{
		cfg:    cfg,
		sweeps: make(map[string]*Sweep),
		sem:    NewSemaphore(cfg.MaxConcSweeps),
		lock:   NewFileLock(cfg.LockPath),
	}
}

// Register adds a sweep. Expr must be a valid 5-field cron expression.
func (s *Scheduler) Register(name, expr string, run func(ctx context.Context) error) error {
	cron, err := ParseCron(expr)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweeps[name] = &Sweep{Name: name, Cron: cron, Run: run}
	slog.Info("Sweep registered", "name", name, "cron", expr)
	return nil
}

// Sweeps returns a snapshot of the registered sweeps.
func (s *Scheduler) Sweeps() []*Sweep {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Sweep, 0, len(s.sweeps))
	for _, sw := range s.sweeps {
		out = append(out, sw)
	}
	return out
}

// Run starts the tick loop and blocks until ctx is cancelled. In-flight
// sweeps are waited for on shutdown.
func (s *Scheduler) Run(ctx context.Context) error {
	slog.Info("Scheduler started", "tick", s.cfg.TickInterval, "sweeps", len(s.sweeps))
	ticker := time.NewTicker(s.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.wg.Wait()
			slog.Info("Scheduler stopped")
			return ctx.Err()
		case t := <-ticker.C:
			s.tick(ctx, t)
		}
	}
}

// RunAll executes every registered sweep once, regardless of schedule.
// Used by the one-shot CLI sweep command.
func (s *Scheduler) RunAll(ctx context.Context) {
	for _, sw := range s.Sweeps() {
		if err := sw.Run(ctx); err != nil {
			slog.Error("Sweep failed", "sweep", sw.Name, "error", err)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context, now time.Time) {
	acquired, err := s.lock.TryLock()
	if err != nil {
		slog.Warn("Scheduler lock error", "error", err)
		return
	}
	if !acquired {
		slog.Debug("Tick skipped: lock held by another process")
		return
	}
	defer s.lock.Unlock()

	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, sw := range s.sweeps {
		if !sw.Cron.Matches(now) {
			continue
		}
		s.dispatch(ctx, sw)
	}
}

func (s *Scheduler) dispatch(ctx context.Context, sw *Sweep) {
	if !s.sem.TryAcquire() {
		slog.Warn("Sweep skipped: concurrency limit", "sweep", sw.Name)
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.sem.Release()
		if err := sw.Run(ctx); err != nil {
			slog.Error("Sweep failed", "sweep", sw.Name, "error", err)
			return
		}
		slog.Debug("Sweep completed", "sweep", sw.Name)
	}()
}
