package session

import (
	"context"
	"log/slog"
	"time"
)

// Sweeper periodically removes expired sessions from a Directory. Without it
// expired sessions are still evicted lazily by the Gate, but identities that
// never return would be held forever.
type Sweeper struct {
	dir      *Directory
	interval time.Duration
	logger   *slog.Logger
}

func NewSweeper(dir *Directory, interval time.Duration, logger *slog.Logger) *Sweeper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sweeper{dir: dir, interval: interval, logger: logger}
}

// Run sweeps every interval until ctx is cancelled. A non-positive interval
// disables sweeping and Run returns immediately.
func (s *Sweeper) Run(ctx context.Context) {
	if s.interval <= 0 {
		s.logger.Info("Session sweeper disabled")
		return
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.SweepOnce()
		}
	}
}

// SweepOnce runs a single sweep and returns the number of sessions removed.
func (s *Sweeper) SweepOnce() int {
	removed := s.dir.SweepExpired()
	if removed > 0 {
		s.logger.Debug("Swept expired sessions",
			"removed", removed,
			"remaining", s.dir.Count(),
		)
	}
	return removed
}
