package ratelimit

import (
	"errors"
	"sync"
	"time"
)

var (
	ErrInvalidCapacity = errors.New("ratelimit: capacity must be positive")
	ErrInvalidInterval = errors.New("ratelimit: refill interval must be positive")
)

// TokenBucket is a step-refill token bucket.
//
// The bucket starts full. Whenever at least one whole interval has elapsed
// since the last refill, it gains capacity tokens per elapsed interval,
// clamped at capacity, and the refill mark moves to the current reading.
// Partial intervals never add tokens and never move the mark, so time spent
// below one interval accumulates toward the next step.
//
// Elapsed time is measured with the clock passed to NewTokenBucket. Readings
// from time.Now carry a monotonic component, so wall clock adjustments do not
// affect refill.
type TokenBucket struct {
	capacity int
	interval time.Duration
	now      func() time.Time

	mu         sync.Mutex
	tokens     int
	lastRefill time.Time
}

// NewTokenBucket returns a full bucket. A nil now uses time.Now.
func NewTokenBucket(capacity int, interval time.Duration, now func() time.Time) (*TokenBucket, error) {
	if capacity <= 0 {
		return nil, ErrInvalidCapacity
	}
	if interval <= 0 {
		return nil, ErrInvalidInterval
	}
	if now == nil {
		now = time.Now
	}

	return &TokenBucket{
		capacity:   capacity,
		interval:   interval,
		now:        now,
		tokens:     capacity,
		lastRefill: now(),
	}, nil
}

// Allow refills the bucket if a step is due, then consumes one token if any
// remain. It never blocks beyond the bucket's own lock.
func (b *TokenBucket) Allow() (bool, Info) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	b.refill(now)

	allowed := false
	if b.tokens > 0 {
		b.tokens--
		allowed = true
	}

	info := Info{
		Limit:     b.capacity,
		Remaining: b.tokens,
		ResetAt:   b.lastRefill.Add(b.interval),
	}
	if !allowed {
		info.RetryAfter = max(b.lastRefill.Add(b.interval).Sub(now), 0)
	}

	return allowed, info
}

func (b *TokenBucket) refill(now time.Time) {
	elapsed := now.Sub(b.lastRefill)
	if elapsed < b.interval {
		return
	}

	// Every step adds a full capacity, so one step already saturates the
	// bucket; capping steps keeps the multiplication from overflowing.
	steps := min(int64(elapsed/b.interval), 1)
	b.tokens = min(b.capacity, b.tokens+int(steps)*b.capacity)
	b.lastRefill = now
}

// Tokens returns the current token count without refilling.
func (b *TokenBucket) Tokens() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.tokens
}

func (b *TokenBucket) Capacity() int {
	return b.capacity
}

func (b *TokenBucket) Interval() time.Duration {
	return b.interval
}
