package ratelimit

import (
	"math"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// MemoryLimiter keys a golang.org/x/time/rate limiter per client, used to
// slow down credential guessing on the auth endpoints. Entries idle for
// longer than twice the cleanup interval are evicted in the background.
type MemoryLimiter struct {
	rate            rate.Limit
	burst           int
	limit           int // requests per minute, for Info.Limit
	cleanupInterval time.Duration
	now             func() time.Time

	mu      sync.Mutex
	entries map[string]*entry
	done    chan struct{}
	closed  bool
}

// NewMemoryLimiter starts a limiter allowing requestsPerMinute per key with
// the given burst.
func NewMemoryLimiter(requestsPerMinute int, burst int, cleanupInterval time.Duration) *MemoryLimiter {
	m := newMemoryLimiter(requestsPerMinute, burst, cleanupInterval, time.Now)
	go m.cleanup()
	return m
}

func newMemoryLimiter(requestsPerMinute int, burst int, cleanupInterval time.Duration, now func() time.Time) *MemoryLimiter {
	return &MemoryLimiter{
		rate:            rate.Every(time.Minute / time.Duration(requestsPerMinute)),
		burst:           burst,
		limit:           requestsPerMinute,
		cleanupInterval: cleanupInterval,
		now:             now,
		entries:         make(map[string]*entry),
		done:            make(chan struct{}),
	}
}

func (m *MemoryLimiter) Allow(key string) (bool, Info) {
	now := m.now()

	m.mu.Lock()
	e, ok := m.entries[key]
	if !ok {
		e = &entry{limiter: rate.NewLimiter(m.rate, m.burst)}
		m.entries[key] = e
	}
	e.lastSeen = now
	m.mu.Unlock()

	allowed := e.limiter.AllowN(now, 1)
	tokens := e.limiter.TokensAt(now)

	info := Info{
		Limit:     m.limit,
		Remaining: int(math.Max(0, math.Floor(tokens))),
		ResetAt:   now,
	}

	// Time until the bucket is full again.
	if missing := float64(m.burst) - tokens; missing > 0 {
		info.ResetAt = now.Add(time.Duration(missing / float64(m.rate) * float64(time.Second)))
	}

	if !allowed {
		r := e.limiter.ReserveN(now, 1)
		info.RetryAfter = r.DelayFrom(now)
		r.CancelAt(now)
	}

	return allowed, info
}

// Len returns the number of tracked keys.
func (m *MemoryLimiter) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func (m *MemoryLimiter) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.closed {
		m.closed = true
		close(m.done)
	}
}

func (m *MemoryLimiter) cleanup() {
	ticker := time.NewTicker(m.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			m.evictStale()
		}
	}
}

func (m *MemoryLimiter) evictStale() {
	cutoff := m.now().Add(-2 * m.cleanupInterval)
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, e := range m.entries {
		if e.lastSeen.Before(cutoff) {
			delete(m.entries, key)
		}
	}
}
