package ratelimit

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLimiter_Allow_UnderLimit(t *testing.T) {
	limiter := NewMemoryLimiter(60, 10, 5*time.Minute)
	defer limiter.Close()

	allowed, info := limiter.Allow("192.168.1.1")
	assert.True(t, allowed)
	assert.Equal(t, 60, info.Limit)
	assert.Equal(t, 9, info.Remaining)
	assert.False(t, info.ResetAt.IsZero())
}

func TestMemoryLimiter_Allow_ExceedsBurst(t *testing.T) {
	clock := newFakeClock()
	limiter := newMemoryLimiter(60, 3, 5*time.Minute, clock.Now)

	for i := 0; i < 3; i++ {
		allowed, _ := limiter.Allow("10.0.0.1")
		require.True(t, allowed, "request %d should be allowed", i+1)
	}

	allowed, info := limiter.Allow("10.0.0.1")
	assert.False(t, allowed)
	assert.Equal(t, time.Second, info.RetryAfter)
}

func TestMemoryLimiter_RefillsOverTime(t *testing.T) {
	clock := newFakeClock()
	limiter := newMemoryLimiter(60, 1, 5*time.Minute, clock.Now)

	allowed, _ := limiter.Allow("10.0.0.1")
	require.True(t, allowed)
	allowed, _ = limiter.Allow("10.0.0.1")
	require.False(t, allowed)

	clock.Advance(time.Second)
	allowed, _ = limiter.Allow("10.0.0.1")
	assert.True(t, allowed)
}

func TestMemoryLimiter_Allow_DifferentKeys(t *testing.T) {
	limiter := NewMemoryLimiter(60, 2, 5*time.Minute)
	defer limiter.Close()

	for i := 0; i < 2; i++ {
		limiter.Allow("key1")
	}
	allowed1, _ := limiter.Allow("key1")
	assert.False(t, allowed1, "key1 should be denied")

	allowed2, _ := limiter.Allow("key2")
	assert.True(t, allowed2, "key2 should be allowed")
	assert.Equal(t, 2, limiter.Len())
}

func TestMemoryLimiter_ConcurrentAccess(t *testing.T) {
	limiter := NewMemoryLimiter(1000, 100, 5*time.Minute)
	defer limiter.Close()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			key := fmt.Sprintf("client-%d", id%5)
			for j := 0; j < 20; j++ {
				limiter.Allow(key)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 5, limiter.Len())
}

func TestMemoryLimiter_Close(t *testing.T) {
	limiter := NewMemoryLimiter(60, 10, 100*time.Millisecond)
	limiter.Close()
	limiter.Close()
}

func TestMemoryLimiter_EvictStale(t *testing.T) {
	clock := newFakeClock()
	limiter := newMemoryLimiter(60, 10, time.Minute, clock.Now)

	limiter.Allow("stale")
	clock.Advance(90 * time.Second)
	limiter.Allow("fresh")
	clock.Advance(60 * time.Second)

	limiter.evictStale()

	limiter.mu.Lock()
	_, staleExists := limiter.entries["stale"]
	_, freshExists := limiter.entries["fresh"]
	limiter.mu.Unlock()

	assert.False(t, staleExists, "entry idle past twice the interval should be evicted")
	assert.True(t, freshExists)
}

func TestMemoryLimiter_BackgroundCleanup(t *testing.T) {
	limiter := NewMemoryLimiter(60, 10, 50*time.Millisecond)
	defer limiter.Close()

	limiter.Allow("ephemeral-key")
	require.Equal(t, 1, limiter.Len())

	assert.Eventually(t, func() bool {
		return limiter.Len() == 0
	}, 2*time.Second, 20*time.Millisecond)
}
