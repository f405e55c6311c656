package session

import (
	"log/slog"

	"tradeops/internal/ratelimit"
)

// Decision is the outcome of an admission check.
type Decision int

const (
	Allowed Decision = iota
	SessionExpired
	RateLimited
)

func (d Decision) String() string {
	switch d {
	case Allowed:
		return "allowed"
	case SessionExpired:
		return "session_expired"
	case RateLimited:
		return "rate_limited"
	default:
		return "unknown"
	}
}

// Gate is the admission check run once per authenticated request.
type Gate struct {
	dir    *Directory
	logger *slog.Logger
}

func NewGate(dir *Directory, logger *slog.Logger) *Gate {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gate{dir: dir, logger: logger}
}

// Admit decides whether identity may make a request now. An expired session
// is evicted and reported as SessionExpired; the identity's next request
// starts a fresh session. Otherwise one token is consumed, or RateLimited is
// returned when none remain. The returned Info is zero for SessionExpired.
func (g *Gate) Admit(identity string) (Decision, ratelimit.Info) {
	s, created := g.dir.getOrCreate(identity)
	if created {
		g.logger.Debug("Session created", "username", identity)
	}

	if s.IsExpired() {
		g.dir.evict(identity, s)
		g.logger.Info("Session expired",
			"username", identity,
			"age", s.Age().String(),
			"requests", s.UsageCount(),
		)
		return SessionExpired, ratelimit.Info{}
	}

	allowed, info := s.AllowRequest()
	if !allowed {
		g.logger.Warn("Session rate limit exceeded",
			"username", identity,
			"limit", info.Limit,
			"retry_after", info.RetryAfter.String(),
		)
		return RateLimited, info
	}

	return Allowed, info
}

// End removes the identity's session, as on logout. It is idempotent.
func (g *Gate) End(identity string) bool {
	return g.dir.Remove(identity)
}

// ActiveSessions returns the number of sessions currently held.
func (g *Gate) ActiveSessions() int {
	return g.dir.Count()
}

func (g *Gate) Directory() *Directory { return g.dir }
