package ride

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/kirinyoku/shareway-go/internal/domain"
	"github.com/kirinyoku/shareway-go/internal/repository"
	"github.com/kirinyoku/shareway-go/internal/uow"
)

// DefaultSweepInterval is how often overdue rides are completed.
const DefaultSweepInterval = 15 * time.Minute

// RunSchedulerTick completes every OPEN or IN_PROGRESS ride whose
// departure plus duration lies before now. Rides without a departure time
// are never touched. A ride that fails is logged and skipped.
//
// Returns:
//   - int: the number of rides this tick completed.
//   - error: only when the candidate rides cannot be listed.
func (s *Service) RunSchedulerTick(ctx context.Context, now time.Time) (int, error) {
	const op = "service.ride.RunSchedulerTick"

	candidates, err := s.store.Rides().List(ctx, repository.RideFilter{
		Statuses: []domain.RideStatus{domain.RideOpen, domain.RideInProgress},
	})
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	completed := 0
	for _, r := range candidates {
		if !r.Overdue(now) {
			continue
		}

		done, err := s.autoComplete(ctx, r.ID, now)
		if err != nil {
			s.logger.Warn("auto-complete failed", "ride_id", r.ID, "error", err)
			continue
		}
		if done {
			completed++
			s.logger.Info("ride auto-completed", "ride_id", r.ID, "driver_id", r.DriverID)
		}
	}

	s.logger.Debug("scheduler tick finished", "candidates", len(candidates), "completed", completed)

	return completed, nil
}

// autoComplete re-checks the ride inside its own unit of work. A ride that
// changed since the listing is left alone.
func (s *Service) autoComplete(ctx context.Context, rideID uuid.UUID, now time.Time) (bool, error) {
	done := false

	err := s.uow.DoWithRetry(ctx, func(ctx context.Context, after func(uow.AfterCommit)) error {
		done = false

		ride, err := s.getRide(ctx, rideID)
		if err != nil {
			return err
		}

		if !ride.Overdue(now) {
			return nil
		}

		if err := ride.TransitionTo(domain.RideCompleted); err != nil {
			return err
		}

		if err := s.store.Rides().Update(ctx, ride); err != nil {
			return err
		}

		done = true
		completed := *ride

		after(func(ctx context.Context) {
			s.hooks.RideChanged(ctx, completed)
		})

		return nil
	})

	return done && err == nil, err
}

// Scheduler runs RunSchedulerTick on a fixed interval.
type Scheduler struct {
	rides    *Service
	interval time.Duration
	logger   *slog.Logger
}

func NewScheduler(rides *Service, interval time.Duration, logger *slog.Logger) *Scheduler {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Scheduler{rides: rides, interval: interval, logger: logger}
}

// Run sweeps until ctx is done. Each tick finishes before the next starts.
func (sc *Scheduler) Run(ctx context.Context) error {
	sc.logger.Info("ride scheduler started", "interval", sc.interval)

	ticker := time.NewTicker(sc.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			sc.logger.Info("ride scheduler stopped")
			return nil
		case <-ticker.C:
			n, err := sc.rides.RunSchedulerTick(ctx, sc.rides.cfg.Now())
			if err != nil {
				sc.logger.Error("scheduler tick failed", "error", err)
				continue
			}
			if n > 0 {
				sc.logger.Info("scheduler tick", "completed", n)
			}
		}
	}
}
