package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/logify-sh/logify/internal/clock"
)

// purgeGrace is how long past expiry an entry may linger before the
// opportunistic sweep removes it. Purging only affects memory footprint,
// never decisions: an expired entry is replaced on next use anyway.
const purgeGrace = 10 * time.Minute

type memoryEntry struct {
	count   int
	resetAt time.Time
}

// MemoryLimiter is a mutex-guarded fixed-window counter. It is only
// accurate within a single process; deployments running more than one
// instance should use PostgresLimiter.
type MemoryLimiter struct {
	limit  int
	window time.Duration
	clock  clock.Clock

	mu        sync.Mutex
	entries   map[string]*memoryEntry
	lastPurge time.Time
}

func NewMemoryLimiter(limit int, window time.Duration, clk clock.Clock) *MemoryLimiter {
	if clk == nil {
		clk = clock.System{}
	}
	return &MemoryLimiter{
		limit:   limit,
		window:  window,
		clock:   clk,
		entries: make(map[string]*memoryEntry),
	}
}

func (l *MemoryLimiter) Allow(_ context.Context, identity string) (Decision, error) {
	now := l.clock.Now()
	resetAt := windowStart(now, l.window).Add(l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	l.maybePurge(now)

	entry, ok := l.entries[identity]
	if !ok || !entry.resetAt.After(now) {
		l.entries[identity] = &memoryEntry{count: 1, resetAt: resetAt}
		return Decision{Allowed: true, Remaining: l.limit - 1, ResetAt: resetAt}, nil
	}

	if entry.count < l.limit {
		entry.count++
		return Decision{Allowed: true, Remaining: l.limit - entry.count, ResetAt: entry.resetAt}, nil
	}

	return Decision{Allowed: false, Remaining: 0, ResetAt: entry.resetAt}, nil
}

// maybePurge drops entries expired beyond the grace period. Runs at most
// once per grace interval; caller holds the mutex.
func (l *MemoryLimiter) maybePurge(now time.Time) {
	if now.Sub(l.lastPurge) < purgeGrace {
		return
	}
	l.lastPurge = now
	for id, entry := range l.entries {
		if now.Sub(entry.resetAt) > purgeGrace {
			delete(l.entries, id)
		}
	}
}
