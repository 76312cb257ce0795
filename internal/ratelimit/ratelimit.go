// Package ratelimit bounds outbound notifications per recipient with a
// token bucket. A quiet household should not get a burst of twenty pings
// because a calendar was bulk-edited.
package ratelimit

import (
	"sync"
	"time"
)

// Limiter is a per-key token bucket. Each key starts with a full bucket of
// burst tokens; one token refills per interval up to the burst cap.
type Limiter struct {
	mu       sync.Mutex
	burst    int
	interval time.Duration
	buckets  map[string]*bucket
	now      func() time.Time
	stop     chan struct{}
	done     chan struct{}
}

type bucket struct {
	tokens int
	last   time.Time
}

// New creates a limiter. burst <= 0 or interval <= 0 disables limiting.
func New(burst int, interval time.Duration) *Limiter {
	return &Limiter{
		burst:    burst,
		interval: interval,
		buckets:  map[string]*bucket{},
		now:      time.Now,
	}
}

// Allow consumes a token for key and reports whether the send may proceed.
func (l *Limiter) Allow(key string) bool {
	if l.burst <= 0 || l.interval <= 0 {
		return true
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{tokens: l.burst, last: now}
		l.buckets[key] = b
	}
	refill := int(now.Sub(b.last) / l.interval)
	if refill > 0 {
		b.tokens += refill
		if b.tokens > l.burst {
			b.tokens = l.burst
		}
		b.last = b.last.Add(time.Duration(refill) * l.interval)
	}
	if b.tokens <= 0 {
		return false
	}
	b.tokens--
	return true
}

// Start launches the background prune loop. Optional; Allow works without it.
func (l *Limiter) Start() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.stop != nil {
		return
	}
	l.stop = make(chan struct{})
	l.done = make(chan struct{})
	go l.pruneLoop(l.stop, l.done)
}

// Stop halts the prune loop and waits for it to exit.
func (l *Limiter) Stop() {
	l.mu.Lock()
	stop, done := l.stop, l.done
	l.stop, l.done = nil, nil
	l.mu.Unlock()
	if stop == nil {
		return
	}
	close(stop)
	<-done
}

func (l *Limiter) pruneLoop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			l.Prune(24 * time.Hour)
		}
	}
}

// Prune drops buckets idle longer than age. Call occasionally from a sweep.
func (l *Limiter) Prune(age time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	cutoff := l.now().Add(-age)
	for key, b := range l.buckets {
		if b.last.Before(cutoff) {
			delete(l.buckets, key)
		}
	}
}
