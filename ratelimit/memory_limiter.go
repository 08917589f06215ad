package ratelimit

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// MemoryLimiter enforces sliding-window limits with in-process state. Keys
// that go quiet are dropped by the janitor.
type MemoryLimiter struct {
	mu      sync.Mutex
	buckets map[string][]time.Time
	log     *zap.SugaredLogger
	now     func() time.Time
}

func NewMemoryLimiter(log *zap.SugaredLogger) *MemoryLimiter {
	return &MemoryLimiter{
		buckets: make(map[string][]time.Time),
		log:     log,
		now:     time.Now,
	}
}

// Check records one request against key and reports whether it fits inside
// the window. A denied request is not recorded.
func (m *MemoryLimiter) Check(ctx context.Context, key string, limit int, window time.Duration) (*Result, error) {
	now := m.now()
	windowStart := now.Add(-window)

	m.mu.Lock()
	defer m.mu.Unlock()

	requests := trimExpired(m.buckets[key], windowStart)

	allowed := len(requests) < limit
	if allowed {
		requests = append(requests, now)
	}
	m.buckets[key] = requests

	remaining := limit - len(requests)
	if remaining < 0 {
		remaining = 0
	}

	result := &Result{
		Allowed:   allowed,
		Remaining: remaining,
		ResetAt:   resetAt(requests, window, now),
	}
	if !allowed {
		return result, ErrLimitExceeded
	}
	return result, nil
}

// StartJanitor periodically drops buckets idle for longer than maxAge,
// until ctx is cancelled.
func (m *MemoryLimiter) StartJanitor(ctx context.Context, every, maxAge time.Duration) {
	go func() {
		ticker := time.NewTicker(every)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				removed := m.cleanup(maxAge)
				if removed > 0 {
					m.log.Debugf("rate limiter janitor dropped %d idle buckets", removed)
				}
			}
		}
	}()
}

func (m *MemoryLimiter) cleanup(maxAge time.Duration) int {
	cutoff := m.now().Add(-maxAge)

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for key, requests := range m.buckets {
		if len(requests) == 0 || requests[len(requests)-1].Before(cutoff) {
			delete(m.buckets, key)
			removed++
		}
	}
	return removed
}

func trimExpired(requests []time.Time, windowStart time.Time) []time.Time {
	first := 0
	for first < len(requests) && requests[first].Before(windowStart) {
		first++
	}
	if first == 0 {
		return requests
	}
	return append(requests[:0], requests[first:]...)
}

// resetAt is when the oldest counted request leaves the window, i.e. the
// earliest instant a denied caller could try again.
func resetAt(requests []time.Time, window time.Duration, now time.Time) time.Time {
	if len(requests) == 0 {
		return now
	}
	return requests[0].Add(window)
}
