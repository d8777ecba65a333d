// Package throttle bounds aggregate download bandwidth with a token bucket.
package throttle

import (
	"context"
	"math"
	"sync"
	"time"
)

// Limiter is a token bucket whose bucket size and refill rate both equal
// the configured capacity, so it caps the sustained average rate rather
// than allowing multi-second bursts. One instance is shared by every
// concurrent download; N streams split the budget instead of each getting
// their own.
//
// A nil *Limiter is the unlimited mode: every method is a no-op. Disabled
// throttling is this separate code path, never a "very large capacity".
type Limiter struct {
	rate     float64 // bytes added per second
	capacity float64 // bucket size, == one second of rate

	mu     sync.Mutex
	tokens float64
	last   time.Time

	now func() time.Time // test seam
}

// New returns a limiter capping sustained throughput at bytesPerSecond,
// or nil (unlimited) when bytesPerSecond is zero or negative.
func New(bytesPerSecond int64) *Limiter {
	if bytesPerSecond <= 0 {
		return nil
	}
	r := float64(bytesPerSecond)
	return &Limiter{
		rate:     r,
		capacity: r,
		tokens:   r, // start full: the first second is never throttled harder than the cap
		last:     time.Now(),
		now:      time.Now,
	}
}

// Rate returns the configured capacity in bytes per second, 0 if unlimited.
func (l *Limiter) Rate() int64 {
	if l == nil {
		return 0
	}
	return int64(l.rate)
}

// Acquire debits n bytes of budget, sleeping until the debit is covered.
// The debit and the decision to wait happen under one lock, so two
// concurrent acquirers can never both see "budget available" and jointly
// exceed the cap. Tokens are allowed to go negative (debt); each caller
// then waits exactly as long as its own share of the debt takes to refill,
// which keeps admission roughly first-come-first-served and free of
// starvation. A canceled ctx aborts the wait promptly and refunds the
// unused debit.
func (l *Limiter) Acquire(ctx context.Context, n int) error {
	if l == nil || n <= 0 {
		return nil
	}

	l.mu.Lock()
	l.refillLocked()
	l.tokens -= float64(n)
	var wait time.Duration
	if l.tokens < 0 {
		wait = time.Duration(-l.tokens / l.rate * float64(time.Second))
	}
	l.mu.Unlock()

	if wait <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		l.mu.Lock()
		l.tokens = math.Min(l.capacity, l.tokens+float64(n))
		l.mu.Unlock()
		return ctx.Err()
	}
}

// refillLocked credits tokens for the time elapsed since the last refill,
// capped at the bucket size. Callers hold l.mu.
func (l *Limiter) refillLocked() {
	now := l.now()
	elapsed := now.Sub(l.last).Seconds()
	if elapsed > 0 {
		l.tokens = math.Min(l.capacity, l.tokens+elapsed*l.rate)
		l.last = now
	}
}
