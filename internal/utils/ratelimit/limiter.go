// Package ratelimit implements fixed-window request budgets. Windows are
// counted by a Counter, either in Redis (shared between instances) or in memory.
package ratelimit

import (
	"context"
	"time"
)

// Counter increments the hit count of key inside a window that starts on the
// first hit, returning the new count and the time left in the window.
type Counter interface {
	Incr(ctx context.Context, key string, window time.Duration) (count int64, ttl time.Duration, err error)
}

// Result describes the state of a client's budget after one request.
type Result struct {
	Limit     int
	Remaining int
	ResetIn   time.Duration
}

// Limiter applies a budget of Max hits per Window to arbitrary keys.
type Limiter struct {
	counter Counter
	max     int
	window  time.Duration
	prefix  string
}

// NewLimiter creates a limiter backed by counter.
func NewLimiter(counter Counter, max int, window time.Duration, prefix string) *Limiter {
	return &Limiter{
		counter: counter,
		max:     max,
		window:  window,
		prefix:  prefix,
	}
}

// Allow records a hit for key and reports whether it is within budget.
func (l *Limiter) Allow(ctx context.Context, key string) (Result, bool, error) {
	count, ttl, err := l.counter.Incr(ctx, l.prefix+key, l.window)
	if err != nil {
		return Result{Limit: l.max, Remaining: l.max}, true, err
	}

	if ttl <= 0 {
		ttl = l.window
	}

	remaining := l.max - int(count)
	if remaining < 0 {
		remaining = 0
	}

	return Result{
		Limit:     l.max,
		Remaining: remaining,
		ResetIn:   ttl,
	}, count <= int64(l.max), nil
}
