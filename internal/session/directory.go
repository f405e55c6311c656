package session

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// Directory holds at most one Session per identity. Lookups and inserts for
// different identities never contend on a shared lock.
type Directory struct {
	policy Policy
	clock  Clock

	sessions sync.Map // identity -> *Session
	count    atomic.Int64
}

// NewDirectory validates policy and returns an empty directory. A nil clock
// uses SystemClock.
func NewDirectory(policy Policy, clock Clock) (*Directory, error) {
	if err := policy.Validate(); err != nil {
		return nil, fmt.Errorf("invalid session policy: %w", err)
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return &Directory{policy: policy, clock: clock}, nil
}

func (d *Directory) Policy() Policy { return d.policy }

// GetOrCreate returns the identity's session, creating it if none exists.
func (d *Directory) GetOrCreate(identity string) *Session {
	s, _ := d.getOrCreate(identity)
	return s
}

func (d *Directory) getOrCreate(identity string) (*Session, bool) {
	if v, ok := d.sessions.Load(identity); ok {
		return v.(*Session), false
	}

	candidate := newSession(identity, d.policy, d.clock)
	actual, loaded := d.sessions.LoadOrStore(identity, candidate)
	if !loaded {
		d.count.Add(1)
	}
	return actual.(*Session), !loaded
}

// Get returns the identity's session without creating one.
func (d *Directory) Get(identity string) (*Session, bool) {
	v, ok := d.sessions.Load(identity)
	if !ok {
		return nil, false
	}
	return v.(*Session), true
}

// Remove deletes the identity's session. Removing an absent identity is a
// no-op. It reports whether a session was removed.
func (d *Directory) Remove(identity string) bool {
	if _, loaded := d.sessions.LoadAndDelete(identity); loaded {
		d.count.Add(-1)
		return true
	}
	return false
}

// evict removes s only if it is still the identity's current session, so a
// session recreated concurrently is left alone.
func (d *Directory) evict(identity string, s *Session) bool {
	if d.sessions.CompareAndDelete(identity, s) {
		d.count.Add(-1)
		return true
	}
	return false
}

// SweepExpired removes every expired session and returns how many it removed.
func (d *Directory) SweepExpired() int {
	removed := 0
	d.sessions.Range(func(key, value any) bool {
		s := value.(*Session)
		if s.IsExpired() && d.evict(key.(string), s) {
			removed++
		}
		return true
	})
	return removed
}

// Count returns the number of sessions held, expired or not.
func (d *Directory) Count() int {
	return int(d.count.Load())
}

// Backdate moves the identity's session creation time so that it is age old.
// It exists for administrative tooling and tests; normal request handling
// never changes a session's creation time. It reports whether the identity
// had a session.
func (d *Directory) Backdate(identity string, age time.Duration) bool {
	s, ok := d.Get(identity)
	if !ok {
		return false
	}
	s.backdate(age)
	return true
}
