package session

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDirectory(t *testing.T) (*Directory, *ManualClock) {
	t.Helper()
	clock := NewManualClock(testStart)
	dir, err := NewDirectory(testPolicy(), clock)
	require.NoError(t, err)
	return dir, clock
}

func TestNewDirectory_RejectsInvalidPolicy(t *testing.T) {
	_, err := NewDirectory(Policy{TTL: time.Hour, Capacity: 0, RefillInterval: time.Minute}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid session policy")
}

func TestNewDirectory_DefaultClock(t *testing.T) {
	dir, err := NewDirectory(testPolicy(), nil)
	require.NoError(t, err)

	s := dir.GetOrCreate("alice")
	assert.WithinDuration(t, time.Now(), s.CreatedAt(), time.Second)
}

func TestDirectory_GetOrCreate(t *testing.T) {
	dir, _ := newTestDirectory(t)

	first := dir.GetOrCreate("alice")
	second := dir.GetOrCreate("alice")

	assert.Same(t, first, second)
	assert.Equal(t, 1, dir.Count())

	dir.GetOrCreate("bob")
	assert.Equal(t, 2, dir.Count())
}

func TestDirectory_GetOrCreateConcurrentSameIdentity(t *testing.T) {
	dir, _ := newTestDirectory(t)

	const workers = 64
	results := make([]*Session, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = dir.GetOrCreate("alice")
		}(i)
	}
	wg.Wait()

	for _, s := range results {
		assert.Same(t, results[0], s)
	}
	assert.Equal(t, 1, dir.Count())
}

func TestDirectory_Get(t *testing.T) {
	dir, _ := newTestDirectory(t)

	_, ok := dir.Get("alice")
	assert.False(t, ok)
	assert.Equal(t, 0, dir.Count(), "Get must not create")

	created := dir.GetOrCreate("alice")
	got, ok := dir.Get("alice")
	assert.True(t, ok)
	assert.Same(t, created, got)
}

func TestDirectory_RemoveIsIdempotent(t *testing.T) {
	dir, _ := newTestDirectory(t)

	assert.False(t, dir.Remove("nonexistent"))
	assert.False(t, dir.Remove("nonexistent"))
	assert.Equal(t, 0, dir.Count())

	dir.GetOrCreate("alice")
	assert.True(t, dir.Remove("alice"))
	assert.False(t, dir.Remove("alice"))
	assert.Equal(t, 0, dir.Count())
}

func TestDirectory_RecreatedSessionIsFresh(t *testing.T) {
	dir, _ := newTestDirectory(t)

	old := dir.GetOrCreate("alice")
	for i := 0; i < 5; i++ {
		old.AllowRequest()
	}
	dir.Remove("alice")

	fresh := dir.GetOrCreate("alice")
	assert.NotSame(t, old, fresh)
	assert.Equal(t, 5, fresh.Tokens())
	assert.Equal(t, int64(0), fresh.UsageCount())
}

func TestDirectory_SweepExpired(t *testing.T) {
	dir, clock := newTestDirectory(t)

	dir.GetOrCreate("old1")
	dir.GetOrCreate("old2")
	clock.Advance(30 * time.Minute)
	dir.GetOrCreate("recent")

	clock.Advance(31 * time.Minute)

	assert.Equal(t, 2, dir.SweepExpired())
	assert.Equal(t, 1, dir.Count())

	_, ok := dir.Get("recent")
	assert.True(t, ok)

	assert.Equal(t, 0, dir.SweepExpired())
}

func TestDirectory_EvictLeavesReplacementAlone(t *testing.T) {
	dir, _ := newTestDirectory(t)

	stale := dir.GetOrCreate("alice")
	dir.Remove("alice")
	replacement := dir.GetOrCreate("alice")

	assert.False(t, dir.evict("alice", stale))
	got, ok := dir.Get("alice")
	require.True(t, ok)
	assert.Same(t, replacement, got)
	assert.Equal(t, 1, dir.Count())
}

func TestDirectory_Backdate(t *testing.T) {
	dir, _ := newTestDirectory(t)

	assert.False(t, dir.Backdate("ghost", time.Hour))

	s := dir.GetOrCreate("bob")
	require.True(t, dir.Backdate("bob", 3601*time.Second))
	assert.True(t, s.IsExpired())
	assert.True(t, s.CreatedAt().Equal(testStart.Add(-3601*time.Second)))
}

func TestDirectory_PolicyChangeDoesNotAffectLiveSessions(t *testing.T) {
	dir, _ := newTestDirectory(t)
	s := dir.GetOrCreate("alice")

	policy := dir.Policy()
	policy.Capacity = 100

	assert.Equal(t, 5, s.Tokens())
	assert.Equal(t, 5, dir.Policy().Capacity)
}

func TestDirectory_ConcurrentMixedOperations(t *testing.T) {
	dir, _ := newTestDirectory(t)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("user-%d", i%5)
			for j := 0; j < 50; j++ {
				dir.GetOrCreate(id).AllowRequest()
				if j%10 == 0 {
					dir.Remove(id)
				}
				dir.SweepExpired()
			}
		}(i)
	}
	wg.Wait()

	held := 0
	dir.sessions.Range(func(_, _ any) bool {
		held++
		return true
	})
	assert.Equal(t, held, dir.Count())
}
