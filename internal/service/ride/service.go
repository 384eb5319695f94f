package ride

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/kirinyoku/shareway-go/internal/domain"
	"github.com/kirinyoku/shareway-go/internal/repository"
	"github.com/kirinyoku/shareway-go/internal/service/notify"
	"github.com/kirinyoku/shareway-go/internal/uow"
)

// VehicleOwnership gates ride creation.
type VehicleOwnership interface {
	BelongsTo(ctx context.Context, vehicleID, driverID string) (bool, error)
}

type Config struct {
	Now func() time.Time
}

type Service struct {
	store    repository.Store
	uow      *uow.UoW
	vehicles VehicleOwnership
	hooks    *notify.Hooks
	logger   *slog.Logger
	cfg      Config
}

func New(
	store repository.Store,
	tx *uow.UoW,
	vehicles VehicleOwnership,
	hooks *notify.Hooks,
	logger *slog.Logger,
	cfg Config,
) *Service {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		store:    store,
		uow:      tx,
		vehicles: vehicles,
		hooks:    hooks,
		logger:   logger,
		cfg:      cfg,
	}
}

// Create offers a new ride in a vehicle the driver owns.
//
// Parameters:
//   - ctx: request-scoped context.
//   - driverID: the caller, who becomes the ride's driver.
//   - draft: route, schedule, price and seat count.
//
// Returns:
//   - *domain.Ride: the OPEN ride with every seat free.
//   - error: domain.ErrValidation for a malformed draft.
//   - error: ErrVehicleNotOwned if the vehicle is unknown or someone else's.
func (s *Service) Create(ctx context.Context, driverID string, draft domain.RideDraft) (*domain.Ride, error) {
	const op = "service.ride.Create"

	if err := draft.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	owned, err := s.vehicles.BelongsTo(ctx, draft.VehicleID, driverID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !owned {
		return nil, fmt.Errorf("%s: %w", op, ErrVehicleNotOwned)
	}

	ride := domain.NewRide(driverID, draft, s.cfg.Now())

	err = s.uow.Do(ctx, func(ctx context.Context, after func(uow.AfterCommit)) error {
		if err := s.store.Rides().Create(ctx, &ride); err != nil {
			return err
		}

		after(func(ctx context.Context) {
			s.hooks.RideChanged(ctx, ride)
		})

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &ride, nil
}

// Start marks an OPEN or FULL ride as under way.
func (s *Service) Start(ctx context.Context, rideID uuid.UUID, driverID string) (*domain.Ride, error) {
	const op = "service.ride.Start"

	ride, err := s.transition(ctx, rideID, ownedBy(driverID), func(r *domain.Ride) error {
		if r.Status != domain.RideOpen && r.Status != domain.RideFull {
			return domain.TransitionError{Entity: "ride", From: string(r.Status), To: string(domain.RideInProgress)}
		}
		return r.TransitionTo(domain.RideInProgress)
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return ride, nil
}

// Complete finishes an OPEN or IN_PROGRESS ride on the driver's request.
//
// Returns:
//   - *domain.Ride: the COMPLETED ride.
//   - error: domain.ErrNotFound, ErrNotRideDriver or domain.TransitionError.
func (s *Service) Complete(ctx context.Context, rideID uuid.UUID, driverID string) (*domain.Ride, error) {
	const op = "service.ride.Complete"

	ride, err := s.transition(ctx, rideID, ownedBy(driverID), completeRide)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return ride, nil
}

// ForceComplete is Complete without the ownership check, for administrators.
func (s *Service) ForceComplete(ctx context.Context, rideID uuid.UUID) (*domain.Ride, error) {
	const op = "service.ride.ForceComplete"

	ride, err := s.transition(ctx, rideID, nil, completeRide)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.logger.Info("ride force-completed", "ride_id", rideID)

	return ride, nil
}

// Cancel withdraws an OPEN or FULL ride. Every REQUESTED or APPROVED
// booking on it is rejected in the same unit of work. Seats are not
// released; the ride leaves service.
//
// Returns:
//   - *domain.Ride: the CANCELED ride.
//   - error: domain.ErrNotFound, ErrNotRideDriver or domain.TransitionError.
func (s *Service) Cancel(ctx context.Context, rideID uuid.UUID, driverID string) (*domain.Ride, error) {
	const op = "service.ride.Cancel"

	var canceled domain.Ride

	err := s.uow.DoWithRetry(ctx, func(ctx context.Context, after func(uow.AfterCommit)) error {
		ride, err := s.getRide(ctx, rideID)
		if err != nil {
			return err
		}

		if ride.DriverID != driverID {
			return ErrNotRideDriver
		}

		if ride.Status != domain.RideOpen && ride.Status != domain.RideFull {
			return domain.TransitionError{Entity: "ride", From: string(ride.Status), To: string(domain.RideCanceled)}
		}

		if err := ride.TransitionTo(domain.RideCanceled); err != nil {
			return err
		}

		if err := s.store.Rides().Update(ctx, ride); err != nil {
			return err
		}

		active, err := s.store.Bookings().ListByRide(ctx, ride.ID, domain.BookingRequested, domain.BookingApproved)
		if err != nil {
			return err
		}

		now := s.cfg.Now()
		rejected := make([]domain.Booking, 0, len(active))
		for i := range active {
			b := &active[i]
			if err := b.TransitionTo(domain.BookingRejected, now); err != nil {
				return err
			}
			if err := s.store.Bookings().Update(ctx, b); err != nil {
				return err
			}
			rejected = append(rejected, *b)
		}

		canceled = *ride

		after(func(ctx context.Context) {
			s.hooks.RideChanged(ctx, canceled)
			for _, b := range rejected {
				s.hooks.Notify(ctx, notify.RideCanceled(canceled, b, now))
			}
		})

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &canceled, nil
}

func completeRide(r *domain.Ride) error {
	if r.Status != domain.RideOpen && r.Status != domain.RideInProgress {
		return domain.TransitionError{Entity: "ride", From: string(r.Status), To: string(domain.RideCompleted)}
	}
	return r.TransitionTo(domain.RideCompleted)
}

func ownedBy(driverID string) func(*domain.Ride) error {
	return func(r *domain.Ride) error {
		if r.DriverID != driverID {
			return ErrNotRideDriver
		}
		return nil
	}
}

// transition re-reads the ride, checks access, applies change and writes it
// back, retrying on concurrent writes.
func (s *Service) transition(
	ctx context.Context,
	rideID uuid.UUID,
	access func(*domain.Ride) error,
	change func(*domain.Ride) error,
) (*domain.Ride, error) {
	var out domain.Ride

	err := s.uow.DoWithRetry(ctx, func(ctx context.Context, after func(uow.AfterCommit)) error {
		ride, err := s.getRide(ctx, rideID)
		if err != nil {
			return err
		}

		if access != nil {
			if err := access(ride); err != nil {
				return err
			}
		}

		if err := change(ride); err != nil {
			return err
		}

		if err := s.store.Rides().Update(ctx, ride); err != nil {
			return err
		}

		out = *ride

		after(func(ctx context.Context) {
			s.hooks.RideChanged(ctx, out)
		})

		return nil
	})
	if err != nil {
		return nil, err
	}

	return &out, nil
}

func (s *Service) getRide(ctx context.Context, id uuid.UUID) (*domain.Ride, error) {
	ride, err := s.store.Rides().Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.NotFoundError{Entity: "ride", ID: id.String()}
		}
		return nil, err
	}
	return ride, nil
}
