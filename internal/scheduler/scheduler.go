package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// SweepFunc is invoked on every interval.
type SweepFunc func(ctx context.Context) error

// Options tune scheduler behaviour.
type Options struct {
	Interval     time.Duration
	StartupDelay time.Duration
}

// Scheduler drives periodic execution of rescoring sweeps.
type Scheduler struct {
	opts   Options
	logger zerolog.Logger
}

// New constructs a Scheduler instance.
func New(opts Options, logger zerolog.Logger) *Scheduler {
	if opts.Interval <= 0 {
		panic("scheduler interval must be positive")
	}
	return &Scheduler{opts: opts, logger: logger.With().Str("component", "scheduler").Logger()}
}

// Run blocks, invoking the sweep function at each interval until ctx is
// cancelled. The first sweep fires after the startup delay, not immediately.
func (s *Scheduler) Run(ctx context.Context, sweep SweepFunc) error {
	if s.opts.StartupDelay > 0 {
		timer := time.NewTimer(s.opts.StartupDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	ticker := time.NewTicker(s.opts.Interval)
	defer ticker.Stop()

	for {
		s.logger.Debug().Dur("interval", s.opts.Interval).Msg("waiting for next sweep")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case started := <-ticker.C:
			s.logger.Info().Time("started", started).Msg("executing scheduled sweep")
			if err := sweep(ctx); err != nil {
				s.logger.Error().Err(err).Msg("sweep execution failed")
			}
		}
	}
}
