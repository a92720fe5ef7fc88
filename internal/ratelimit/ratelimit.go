// Package ratelimit provides token bucket and sliding window limiters used to
// throttle inbound client queries and outbound LLM calls.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter is a token bucket safe for concurrent use. Tokens accrue
// continuously at rate per second up to burst.
type Limiter struct {
	mu     sync.Mutex
	burst  float64
	rate   float64
	tokens float64
	last   time.Time
}

// New returns a full bucket.
//
//	// Outbound LLM budget: burst of 30, one call per second sustained
//	limiter := ratelimit.New(30, 1)
func New(burst, rate float64) *Limiter {
	return &Limiter{burst: burst, rate: rate, tokens: burst, last: time.Now()}
}

// advance accrues tokens since the last call. mu must be held.
func (l *Limiter) advance(now time.Time) {
	l.tokens = min(l.burst, l.tokens+now.Sub(l.last).Seconds()*l.rate)
	l.last = now
}

// take reports whether a whole token is available and removes it when
// consume is set. It returns how long to wait for the next token otherwise.
func (l *Limiter) take(consume bool) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.advance(time.Now())
	if l.tokens >= 1 {
		if consume {
			l.tokens--
		}
		return true, 0
	}
	if l.rate <= 0 {
		return false, time.Second
	}
	return false, time.Duration((1 - l.tokens) / l.rate * float64(time.Second))
}

// Allow consumes a token if one is available. It never blocks.
func (l *Limiter) Allow() bool {
	ok, _ := l.take(true)
	return ok
}

// Check reports whether a token is available without consuming it.
// KeyedLimiter pairs it with Consume under its per-key lock.
func (l *Limiter) Check() bool {
	ok, _ := l.take(false)
	return ok
}

// Consume takes a token if one is available.
func (l *Limiter) Consume() {
	l.take(true)
}

// Wait blocks until a token is taken or ctx is done.
func (l *Limiter) Wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	for {
		ok, wait := l.take(true)
		if ok {
			return nil
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// Available returns the current token count.
func (l *Limiter) Available() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.advance(time.Now())
	return l.tokens
}

// IsFull reports whether the bucket is at capacity, which marks an idle key.
func (l *Limiter) IsFull() bool {
	return l.Available() >= l.burst
}
