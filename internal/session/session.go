// Package session keeps the server-side record behind each authenticated
// caller: when its session began and how much of its request quota is left.
//
// A Directory maps identities to Sessions. A Gate makes the per-request
// admission decision on top of it, and a Sweeper removes expired sessions
// in the background. All state is in memory and local to the process.
package session

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"tradeops/internal/models"
	"tradeops/internal/ratelimit"
)

// Policy is the immutable per-process session configuration. Every Session
// copies it at construction, so later policy changes never reach live
// sessions.
type Policy struct {
	TTL            time.Duration
	Capacity       int
	RefillInterval time.Duration
}

// PolicyFromConfig converts the session section of the service config.
func PolicyFromConfig(cfg models.SessionConfig) Policy {
	return Policy{
		TTL:            cfg.TTL,
		Capacity:       cfg.RateLimitCapacity,
		RefillInterval: cfg.RateLimitRefill,
	}
}

func (p Policy) Validate() error {
	if p.TTL <= 0 {
		return errors.New("session ttl must be positive")
	}
	if p.Capacity <= 0 {
		return errors.New("rate limit capacity must be positive")
	}
	if p.RefillInterval < time.Second {
		return errors.New("rate limit refill interval must be at least 1s")
	}
	if p.RefillInterval%time.Second != 0 {
		return errors.New("rate limit refill interval must be a whole number of seconds")
	}
	return nil
}

// Session binds a token bucket and a creation time to one identity.
type Session struct {
	identity string
	ttl      time.Duration
	clock    Clock
	bucket   *ratelimit.TokenBucket

	createdAt atomic.Int64 // wall clock, unix nanoseconds
	usage     atomic.Int64
}

func newSession(identity string, policy Policy, clock Clock) *Session {
	bucket, err := ratelimit.NewTokenBucket(policy.Capacity, policy.RefillInterval, clock.Monotonic)
	if err != nil {
		// NewDirectory validates the policy, so this only fires on misuse.
		panic(fmt.Sprintf("session: invalid policy: %v", err))
	}

	s := &Session{
		identity: identity,
		ttl:      policy.TTL,
		clock:    clock,
		bucket:   bucket,
	}
	s.createdAt.Store(clock.Wall().UnixNano())
	return s
}

func (s *Session) Identity() string { return s.identity }

func (s *Session) TTL() time.Duration { return s.ttl }

func (s *Session) CreatedAt() time.Time {
	return time.Unix(0, s.createdAt.Load())
}

// UsageCount is the number of requests this session has allowed.
func (s *Session) UsageCount() int64 {
	return s.usage.Load()
}

// Age is the wall time elapsed since the session was created.
func (s *Session) Age() time.Duration {
	return s.clock.Wall().Sub(s.CreatedAt())
}

// IsExpired reports whether the session is older than its TTL. A session
// exactly TTL old is still live.
func (s *Session) IsExpired() bool {
	return s.Age() > s.ttl
}

// AllowRequest consumes one token from the session's bucket. The usage
// count only moves when the request is allowed.
func (s *Session) AllowRequest() (bool, ratelimit.Info) {
	allowed, info := s.bucket.Allow()
	if allowed {
		s.usage.Add(1)
	}
	return allowed, info
}

// Tokens returns the tokens currently left in the bucket.
func (s *Session) Tokens() int {
	return s.bucket.Tokens()
}

func (s *Session) backdate(age time.Duration) {
	s.createdAt.Store(s.clock.Wall().Add(-age).UnixNano())
}
