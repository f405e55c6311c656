// Package ratelimit implements the token buckets that throttle the service.
//
// TokenBucket is the step-refill bucket carried by every user session: it
// holds up to capacity tokens and restores them in whole interval steps.
// MemoryLimiter is a keyed, continuously refilling limiter built on
// golang.org/x/time/rate that guards the unauthenticated auth endpoints by
// client IP. Both report their state as Info for response headers.
package ratelimit

import "time"

// Limiter is a keyed limiter. Implementations must be safe for concurrent use.
type Limiter interface {
	// Allow reports whether a request identified by key may proceed, along
	// with the state used to populate response headers.
	Allow(key string) (allowed bool, info Info)

	// Close stops background goroutines and releases resources.
	Close()
}

// Info contains rate limit state for populating response headers.
type Info struct {
	Limit      int           // Maximum requests per window
	Remaining  int           // Tokens remaining after this decision
	ResetAt    time.Time     // When the next refill happens
	RetryAfter time.Duration // How long to wait (meaningful only when denied)
}
