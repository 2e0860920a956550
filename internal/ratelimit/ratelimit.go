// Package ratelimit implements the per-caller sliding-window throttle
// guarding the retrieval entry point. Each caller identity keeps a list of
// recent request timestamps; entries older than the window are pruned
// lazily on the caller's own requests, and identities with nothing inside
// the window are evicted once the ledger grows past a size bound.
//
// Rejection is a distinct condition, not a retrieval failure: the boundary
// layer maps it to a "too many requests" response.
package ratelimit

import (
	"sync"
	"time"
)

const (
	// DefaultWindow is the sliding window length.
	DefaultWindow = 60 * time.Second

	// DefaultCap is the maximum number of requests per caller per window.
	DefaultCap = 10

	// cleanupThreshold is the ledger size past which an opportunistic
	// full sweep runs, to bound memory.
	cleanupThreshold = 1000
)

// Limiter is a process-local sliding-window rate limiter. It is safe for
// concurrent use; each caller's entry is updated atomically under the
// limiter's mutex so concurrent requests from one identity never
// undercount.
type Limiter struct {
	mu     sync.Mutex
	window time.Duration
	cap    int
	now    func() time.Time
	ledger map[string][]time.Time
}

// New creates a limiter. Non-positive window or cap fall back to the
// defaults.
func New(window time.Duration, cap int) *Limiter {
	if window <= 0 {
		window = DefaultWindow
	}
	if cap <= 0 {
		cap = DefaultCap
	}
	return &Limiter{
		window: window,
		cap:    cap,
		now:    time.Now,
		ledger: make(map[string][]time.Time),
	}
}

// Allow reports whether a request from callerID may proceed now. When it
// does, the request's timestamp is recorded against the caller's window.
func (l *Limiter) Allow(callerID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-l.window)

	if len(l.ledger) > cleanupThreshold {
		l.sweep(cutoff)
	}

	recent := pruneBefore(l.ledger[callerID], cutoff)
	if len(recent) >= l.cap {
		l.ledger[callerID] = recent
		return false
	}

	l.ledger[callerID] = append(recent, now)
	return true
}

// Callers reports the number of identities currently in the ledger.
func (l *Limiter) Callers() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.ledger)
}

// sweep drops every caller with no timestamp inside the window. Called
// with the mutex held.
func (l *Limiter) sweep(cutoff time.Time) {
	for id, stamps := range l.ledger {
		recent := pruneBefore(stamps, cutoff)
		if len(recent) == 0 {
			delete(l.ledger, id)
			continue
		}
		l.ledger[id] = recent
	}
}

// pruneBefore drops timestamps at or before cutoff. Timestamps are
// appended in order, so the first survivor marks the slice boundary.
func pruneBefore(stamps []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(stamps) && !stamps[i].After(cutoff) {
		i++
	}
	return stamps[i:]
}
