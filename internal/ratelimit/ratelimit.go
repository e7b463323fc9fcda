// Package ratelimit implements a fixed-window request counter keyed
// by an opaque identifier (client IP or email address). Each
// identifier gets its own window anchored at first use rather than a
// shared clock-aligned window. State lives only in process memory.
package ratelimit

import (
	"sync"
	"time"
)

const defaultMaxTracked = 500

// Result reports the outcome of a single Check call.
type Result struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

type entry struct {
	count   int
	resetAt time.Time
}

// Limiter is a bounded fixed-window counter. The check-then-increment
// on an entry happens under one lock so concurrent bursts cannot slip
// past the limit.
type Limiter struct {
	mu         sync.Mutex
	entries    map[string]*entry
	window     time.Duration
	maxTracked int

	now func() time.Time
}

// New returns a Limiter with the given window duration and a bound on
// tracked identifiers. maxTracked <= 0 selects the default of 500.
func New(window time.Duration, maxTracked int) *Limiter {
	if maxTracked <= 0 {
		maxTracked = defaultMaxTracked
	}
	return &Limiter{
		entries:    make(map[string]*entry),
		window:     window,
		maxTracked: maxTracked,
		now:        time.Now,
	}
}

// Check counts one request for the identifier against limit. The first
// check within a window initializes the counter at 1 and is allowed.
// Once the counter reaches limit, further checks are denied without
// incrementing and report the unchanged window reset time. An elapsed
// window is indistinguishable from a never-seen identifier.
func (l *Limiter) Check(limit int, identifier string) Result {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[identifier]
	if ok && !now.Before(e.resetAt) {
		delete(l.entries, identifier)
		ok = false
	}
	if !ok {
		if len(l.entries) >= l.maxTracked {
			l.evictLocked(now)
		}
		e = &entry{count: 1, resetAt: now.Add(l.window)}
		l.entries[identifier] = e
		return Result{Allowed: true, Remaining: limit - 1, ResetAt: e.resetAt}
	}

	if e.count >= limit {
		return Result{Allowed: false, Remaining: 0, ResetAt: e.resetAt}
	}
	e.count++
	return Result{Allowed: true, Remaining: limit - e.count, ResetAt: e.resetAt}
}

// evictLocked frees a slot, preferring entries whose window elapsed.
// If none are stale it drops an arbitrary entry so memory stays bounded.
func (l *Limiter) evictLocked(now time.Time) {
	for id, e := range l.entries {
		if !now.Before(e.resetAt) {
			delete(l.entries, id)
			return
		}
	}
	for id := range l.entries {
		delete(l.entries, id)
		return
	}
}

// Len reports the number of tracked identifiers.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
