package session

import (
	"testing"
	"time"

	"tradeops/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testStart = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func testPolicy() Policy {
	return Policy{TTL: time.Hour, Capacity: 5, RefillInterval: 60 * time.Second}
}

func TestPolicy_Validate(t *testing.T) {
	tests := []struct {
		name     string
		policy   Policy
		errorMsg string
	}{
		{name: "valid", policy: testPolicy()},
		{name: "zero ttl", policy: Policy{Capacity: 5, RefillInterval: time.Minute}, errorMsg: "ttl"},
		{name: "zero capacity", policy: Policy{TTL: time.Hour, RefillInterval: time.Minute}, errorMsg: "capacity"},
		{name: "negative capacity", policy: Policy{TTL: time.Hour, Capacity: -3, RefillInterval: time.Minute}, errorMsg: "capacity"},
		{name: "zero refill", policy: Policy{TTL: time.Hour, Capacity: 5}, errorMsg: "refill"},
		{name: "sub-second refill", policy: Policy{TTL: time.Hour, Capacity: 5, RefillInterval: time.Millisecond}, errorMsg: "refill"},
		{name: "fractional second refill", policy: Policy{TTL: time.Hour, Capacity: 5, RefillInterval: 2500 * time.Millisecond}, errorMsg: "whole number of seconds"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.policy.Validate()
			if tt.errorMsg == "" {
				assert.NoError(t, err)
			} else {
				assert.ErrorContains(t, err, tt.errorMsg)
			}
		})
	}
}

func TestPolicyFromConfig(t *testing.T) {
	policy := PolicyFromConfig(models.SessionConfig{
		TTL:               30 * time.Minute,
		RateLimitCapacity: 7,
		RateLimitRefill:   2 * time.Minute,
	})

	assert.Equal(t, Policy{TTL: 30 * time.Minute, Capacity: 7, RefillInterval: 2 * time.Minute}, policy)
}

func TestSession_NewSessionState(t *testing.T) {
	clock := NewManualClock(testStart)
	s := newSession("alice", testPolicy(), clock)

	assert.Equal(t, "alice", s.Identity())
	assert.Equal(t, time.Hour, s.TTL())
	assert.True(t, s.CreatedAt().Equal(testStart))
	assert.Equal(t, int64(0), s.UsageCount())
	assert.Equal(t, 5, s.Tokens())
	assert.False(t, s.IsExpired())
}

func TestSession_ExpiryBoundary(t *testing.T) {
	ttl := time.Hour

	tests := []struct {
		name    string
		age     time.Duration
		expired bool
	}{
		{name: "one second past ttl", age: ttl + time.Second, expired: true},
		{name: "exactly ttl", age: ttl, expired: false},
		{name: "one second before ttl", age: ttl - time.Second, expired: false},
		{name: "fresh", age: 0, expired: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := NewManualClock(testStart)
			s := newSession("bob", testPolicy(), clock)
			s.backdate(tt.age)

			assert.Equal(t, tt.expired, s.IsExpired())
		})
	}
}

func TestSession_ExpiresAsWallTimePasses(t *testing.T) {
	clock := NewManualClock(testStart)
	s := newSession("carol", testPolicy(), clock)

	clock.Advance(time.Hour)
	assert.False(t, s.IsExpired())

	clock.Advance(time.Nanosecond)
	assert.True(t, s.IsExpired())
}

func TestSession_UsageCountsOnlyAllowedRequests(t *testing.T) {
	for _, n := range []int{0, 1, 3, 5} {
		clock := NewManualClock(testStart)
		s := newSession("dave", testPolicy(), clock)

		for i := 0; i < n; i++ {
			ok, _ := s.AllowRequest()
			require.True(t, ok)
		}
		assert.Equal(t, int64(n), s.UsageCount(), "after %d allowed requests", n)
	}

	clock := NewManualClock(testStart)
	s := newSession("erin", testPolicy(), clock)
	for i := 0; i < 12; i++ {
		s.AllowRequest()
	}
	assert.Equal(t, int64(5), s.UsageCount(), "denied attempts must not count")
}

func TestSession_WallClockStepDoesNotRefill(t *testing.T) {
	clock := NewManualClock(testStart)
	s := newSession("frank", testPolicy(), clock)

	for i := 0; i < 5; i++ {
		s.AllowRequest()
	}

	clock.StepWall(2 * time.Minute)
	ok, _ := s.AllowRequest()
	assert.False(t, ok, "only monotonic time refills the bucket")
}

func TestSession_WallStepBackwardDoesNotExpire(t *testing.T) {
	clock := NewManualClock(testStart)
	s := newSession("grace", testPolicy(), clock)

	clock.StepWall(-time.Minute)
	assert.False(t, s.IsExpired())
	assert.Equal(t, -time.Minute, s.Age())
}
