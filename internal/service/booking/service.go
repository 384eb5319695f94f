package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/kirinyoku/shareway-go/internal/discount"
	"github.com/kirinyoku/shareway-go/internal/domain"
	"github.com/kirinyoku/shareway-go/internal/repository"
	"github.com/kirinyoku/shareway-go/internal/service/notify"
	"github.com/kirinyoku/shareway-go/internal/uow"
)

// ProfileChecker tells whether a rider may book.
type ProfileChecker interface {
	ProfileComplete(ctx context.Context, riderID string) (bool, error)
}

type Config struct {
	Now func() time.Time
}

type Service struct {
	store    repository.Store
	uow      *uow.UoW
	catalog  *discount.Catalog
	profiles ProfileChecker
	hooks    *notify.Hooks
	cfg      Config
}

func New(
	store repository.Store,
	tx *uow.UoW,
	catalog *discount.Catalog,
	profiles ProfileChecker,
	hooks *notify.Hooks,
	cfg Config,
) *Service {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Service{
		store:    store,
		uow:      tx,
		catalog:  catalog,
		profiles: profiles,
		hooks:    hooks,
		cfg:      cfg,
	}
}

// Create records a rider's request for seats on a ride. Seats are not
// reserved here; the capacity check only turns away requests that could
// never be approved.
//
// Parameters:
//   - ctx: request-scoped context.
//   - riderID: the caller, who becomes the booking's rider.
//   - req: ride, seat count and optional pickup, message and promo code.
//
// Returns:
//   - *domain.Booking: the REQUESTED booking with its price fields set.
//   - error: ErrProfileIncomplete, domain.ErrNotFound, ErrOwnRide,
//     ErrAlreadyBooked, ErrRideNotOpen or a domain.CapacityError.
func (s *Service) Create(ctx context.Context, riderID string, req domain.BookingRequest) (*domain.Booking, error) {
	const op = "service.booking.Create"

	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	complete, err := s.profiles.ProfileComplete(ctx, riderID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !complete {
		return nil, fmt.Errorf("%s: %w", op, ErrProfileIncomplete)
	}

	var created domain.Booking

	err = s.uow.DoWithRetry(ctx, func(ctx context.Context, after func(uow.AfterCommit)) error {
		ride, err := s.getRide(ctx, req.RideID)
		if err != nil {
			return err
		}

		if ride.DriverID == riderID {
			return ErrOwnRide
		}

		if _, err := s.store.Bookings().FindByRideAndRider(ctx, ride.ID, riderID); err == nil {
			return ErrAlreadyBooked
		} else if !errors.Is(err, repository.ErrNotFound) {
			return err
		}

		if ride.Status != domain.RideOpen {
			return ErrRideNotOpen
		}

		if ride.SeatsFree < req.Seats {
			return domain.CapacityError{RideID: ride.ID, Status: ride.Status, Requested: req.Seats, Free: ride.SeatsFree}
		}

		quote, err := s.catalog.Quote(ctx, req.PromoCode, ride.PricePerSeat)
		if err != nil {
			return err
		}

		now := s.cfg.Now()
		b := domain.Booking{
			ID:             uuid.New(),
			RideID:         ride.ID,
			RiderID:        riderID,
			Seats:          req.Seats,
			Status:         domain.BookingRequested,
			PickupLocation: req.PickupLocation,
			Message:        req.Message,
			OriginalPrice:  quote.OriginalPrice,
			FinalPrice:     quote.FinalPrice,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if quote.Valid {
			b.PromoCode = quote.Code
			b.DiscountPercent = quote.Percent
			b.DiscountAmount = quote.DiscountAmount
		}

		if err := s.store.Bookings().Create(ctx, &b); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return ErrAlreadyBooked
			}
			return err
		}

		created = b

		after(func(ctx context.Context) {
			s.hooks.RideChanged(ctx, *ride)
		})

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &created, nil
}

// Approve reserves the booking's seats on its ride and marks it APPROVED.
// Racing approvals on one ride are resolved here: the unit of work re-reads
// the ride, so a later approval sees the seats already taken.
//
// Parameters:
//   - ctx: request-scoped context.
//   - bookingID: the booking to approve.
//   - driverID: the caller, who has to drive the booking's ride.
//
// Returns:
//   - *domain.Booking: the APPROVED booking.
//   - error: domain.ErrNotFound, ErrNotRideDriver, domain.TransitionError
//     or domain.CapacityError.
func (s *Service) Approve(ctx context.Context, bookingID uuid.UUID, driverID string) (*domain.Booking, error) {
	const op = "service.booking.Approve"

	var approved domain.Booking

	err := s.uow.DoWithRetry(ctx, func(ctx context.Context, after func(uow.AfterCommit)) error {
		b, ride, err := s.loadForDriver(ctx, bookingID, driverID)
		if err != nil {
			return err
		}

		if b.Status != domain.BookingRequested {
			return domain.TransitionError{Entity: "booking", From: string(b.Status), To: string(domain.BookingApproved)}
		}

		if err := ride.Reserve(b.Seats); err != nil {
			return err
		}

		if err := s.store.Rides().Update(ctx, ride); err != nil {
			return err
		}

		now := s.cfg.Now()
		if err := b.TransitionTo(domain.BookingApproved, now); err != nil {
			return err
		}

		if err := s.store.Bookings().Update(ctx, b); err != nil {
			return err
		}

		approved = *b

		after(func(ctx context.Context) {
			s.hooks.RideChanged(ctx, *ride)
			s.hooks.Notify(ctx, notify.BookingApproved(*ride, *b, now))
		})

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &approved, nil
}

// Reject declines a REQUESTED booking. Seats are untouched.
//
// Returns:
//   - *domain.Booking: the REJECTED booking.
//   - error: domain.ErrNotFound, ErrNotRideDriver or domain.TransitionError.
func (s *Service) Reject(ctx context.Context, bookingID uuid.UUID, driverID string) (*domain.Booking, error) {
	const op = "service.booking.Reject"

	var rejected domain.Booking

	err := s.uow.DoWithRetry(ctx, func(ctx context.Context, after func(uow.AfterCommit)) error {
		b, ride, err := s.loadForDriver(ctx, bookingID, driverID)
		if err != nil {
			return err
		}

		if b.Status != domain.BookingRequested {
			return domain.TransitionError{Entity: "booking", From: string(b.Status), To: string(domain.BookingRejected)}
		}

		now := s.cfg.Now()
		if err := b.TransitionTo(domain.BookingRejected, now); err != nil {
			return err
		}

		if err := s.store.Bookings().Update(ctx, b); err != nil {
			return err
		}

		rejected = *b

		after(func(ctx context.Context) {
			s.hooks.RideChanged(ctx, *ride)
			s.hooks.Notify(ctx, notify.BookingRejected(*ride, *b, now))
		})

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &rejected, nil
}

// Cancel withdraws the rider's booking. An APPROVED booking gives its seats
// back to the ride before the booking itself is written, unless the ride
// is already COMPLETED or CANCELED.
//
// Returns:
//   - *domain.Booking: the CANCELED booking.
//   - error: domain.ErrNotFound, ErrNotBookingOwner or domain.TransitionError.
func (s *Service) Cancel(ctx context.Context, bookingID uuid.UUID, riderID string) (*domain.Booking, error) {
	const op = "service.booking.Cancel"

	var canceled domain.Booking

	err := s.uow.DoWithRetry(ctx, func(ctx context.Context, after func(uow.AfterCommit)) error {
		b, err := s.getBooking(ctx, bookingID)
		if err != nil {
			return err
		}

		if b.RiderID != riderID {
			return ErrNotBookingOwner
		}

		if !b.Status.Active() {
			return domain.TransitionError{Entity: "booking", From: string(b.Status), To: string(domain.BookingCanceled)}
		}

		ride, err := s.getRide(ctx, b.RideID)
		if err != nil {
			return err
		}

		// a finished or canceled ride keeps its seat count
		if b.Status == domain.BookingApproved && !ride.Status.IsTerminal() {
			if err := ride.Release(b.Seats); err != nil {
				return err
			}
			if err := s.store.Rides().Update(ctx, ride); err != nil {
				return err
			}
		}

		if err := b.TransitionTo(domain.BookingCanceled, s.cfg.Now()); err != nil {
			return err
		}

		if err := s.store.Bookings().Update(ctx, b); err != nil {
			return err
		}

		canceled = *b

		after(func(ctx context.Context) {
			s.hooks.RideChanged(ctx, *ride)
		})

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &canceled, nil
}

func (s *Service) loadForDriver(ctx context.Context, bookingID uuid.UUID, driverID string) (*domain.Booking, *domain.Ride, error) {
	b, err := s.getBooking(ctx, bookingID)
	if err != nil {
		return nil, nil, err
	}

	ride, err := s.getRide(ctx, b.RideID)
	if err != nil {
		return nil, nil, err
	}

	if ride.DriverID != driverID {
		return nil, nil, ErrNotRideDriver
	}

	return b, ride, nil
}

func (s *Service) getBooking(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	b, err := s.store.Bookings().Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.NotFoundError{Entity: "booking", ID: id.String()}
		}
		return nil, err
	}
	return b, nil
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
