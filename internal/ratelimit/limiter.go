// Package ratelimit bounds the rate of outbound Jira API calls with a
// continuous token bucket, so the client throttles itself before the
// server does.
package ratelimit

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"
)

// Default limits match Jira Cloud's tolerance for a single integration.
const (
	DefaultMaxRequests = 10
	DefaultWindow      = 1 * time.Second
)

// Error is returned by Acquire when no token is available. RetryAfter is
// the time until the next token becomes available.
type Error struct {
	RetryAfter time.Duration
}

func (e *Error) Error() string {
	return fmt.Sprintf("rate limit exceeded, retry after %s", e.RetryAfter)
}

// Limiter is a token bucket with continuous linear refill. Tokens are
// tracked as floats so rapid successive acquisitions account for
// fractional refill; only Remaining truncates, for display.
type Limiter struct {
	mu       sync.Mutex
	capacity float64
	window   time.Duration
	tokens   float64
	last     time.Time

	now func() time.Time
}

// New creates a limiter allowing maxRequests per window. The bucket
// starts full. Non-positive arguments fall back to the defaults.
func New(maxRequests int, window time.Duration) *Limiter {
	if maxRequests <= 0 {
		maxRequests = DefaultMaxRequests
	}
	if window <= 0 {
		window = DefaultWindow
	}
	l := &Limiter{
		capacity: float64(maxRequests),
		window:   window,
		tokens:   float64(maxRequests),
		now:      time.Now,
	}
	l.last = l.now()
	return l
}

// refill adds tokens for the time elapsed since the last refill, capped
// at capacity. Caller must hold mu.
func (l *Limiter) refill() {
	now := l.now()
	elapsed := now.Sub(l.last)
	if elapsed <= 0 {
		return
	}
	l.tokens = math.Min(l.capacity, l.tokens+elapsed.Seconds()/l.window.Seconds()*l.capacity)
	l.last = now
}

// Acquire consumes one token. When the bucket is empty it returns an
// *Error carrying the time until the next token.
func (l *Limiter) Acquire() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.refill()
	if l.tokens < 1 {
		return &Error{RetryAfter: l.retryAfter()}
	}
	l.tokens--
	return nil
}

// CanAcquire reports whether a token is available without consuming one.
func (l *Limiter) CanAcquire() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.refill()
	return l.tokens >= 1
}

// Remaining returns the whole number of available tokens.
func (l *Limiter) Remaining() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.refill()
	return int(l.tokens)
}

// TimeUntilNextToken returns zero if a token is available now, otherwise
// the wait until one refills.
func (l *Limiter) TimeUntilNextToken() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.refill()
	if l.tokens >= 1 {
		return 0
	}
	return l.retryAfter()
}

// retryAfter computes the time until the token deficit refills.
// Caller must hold mu and have refilled.
func (l *Limiter) retryAfter() time.Duration {
	ms := math.Ceil((1 - l.tokens) / l.capacity * float64(l.window.Milliseconds()))
	return time.Duration(ms) * time.Millisecond
}

// Wait blocks until a token is acquired or the context is cancelled.
// This is the only suspending operation on the limiter.
func (l *Limiter) Wait(ctx context.Context) error {
	for {
		d := l.TimeUntilNextToken()
		if d > 0 {
			timer := time.NewTimer(d)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}
		if err := l.Acquire(); err == nil {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		// Another caller took the refilled token; wait again.
	}
}
