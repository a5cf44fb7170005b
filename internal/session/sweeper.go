package session

import (
	"context"
	"log/slog"
	"time"
)

// Sweepable is anything that can drop its expired entries
type Sweepable interface {
	Sweep(ctx context.Context, now time.Time) (int, error)
}

// Sweeper periodically expires idle sessions and other sweepable caches
type Sweeper struct {
	interval time.Duration
	logger   *slog.Logger
	targets  []Sweepable

	// OnSweep, if set, is called with the number of entries removed by each pass
	OnSweep func(removed int)
}

// NewSweeper creates a sweeper running every interval over the given targets
func NewSweeper(interval time.Duration, logger *slog.Logger, targets ...Sweepable) *Sweeper {
	return &Sweeper{
		interval: interval,
		logger:   logger,
		targets:  targets,
	}
}

// Run blocks, sweeping on every tick until ctx is cancelled
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("session sweeper started", "interval", s.interval)
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("session sweeper stopped")
			return
		case now := <-ticker.C:
			s.SweepOnce(ctx, now)
		}
	}
}

// SweepOnce runs a single pass over all targets and returns the total removed
func (s *Sweeper) SweepOnce(ctx context.Context, now time.Time) int {
	total := 0
	for _, target := range s.targets {
		removed, err := target.Sweep(ctx, now)
		if err != nil {
			s.logger.Error("sweep failed", "error", err)
			continue
		}
		total += removed
	}

	if total > 0 {
		s.logger.Info("expired idle entries", "removed", total)
	}
	if s.OnSweep != nil {
		s.OnSweep(total)
	}
	return total
}
