// Package review lets passengers rate the driver of a completed ride and
// keeps each driver's average rating current.
package review

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/kirinyoku/shareway-go/internal/domain"
	"github.com/kirinyoku/shareway-go/internal/repository"
	"github.com/kirinyoku/shareway-go/internal/service/notify"
	"github.com/kirinyoku/shareway-go/internal/uow"
)

const maxCommentLength = 1000

type Input struct {
	RideID  uuid.UUID
	Rating  int
	Comment string
}

func (in Input) Validate() error {
	switch {
	case in.RideID == uuid.Nil:
		return domain.ValidationError{Field: "ride_id", Reason: "required"}
	case in.Rating < domain.MinRating || in.Rating > domain.MaxRating:
		return domain.ValidationError{Field: "rating", Reason: fmt.Sprintf("must be within %d..%d", domain.MinRating, domain.MaxRating)}
	case utf8.RuneCountInString(in.Comment) > maxCommentLength:
		return domain.ValidationError{Field: "comment", Reason: fmt.Sprintf("at most %d characters", maxCommentLength)}
	}
	return nil
}

type Config struct {
	Now func() time.Time
}

type Service struct {
	store repository.Store
	uow   *uow.UoW
	hooks *notify.Hooks
	cfg   Config
}

func New(store repository.Store, tx *uow.UoW, hooks *notify.Hooks, cfg Config) *Service {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Service{
		store: store,
		uow:   tx,
		hooks: hooks,
		cfg:   cfg,
	}
}

// Create records the caller's review of a completed ride and recomputes
// the driver's rating in the same unit of work.
//
// Parameters:
//   - ctx: request-scoped context.
//   - reviewerID: the caller; must hold an approved booking on the ride.
//   - in: ride, rating within 1..5 and an optional comment.
//
// Returns:
//   - *domain.Review: the stored review.
//   - error: domain.ErrValidation, domain.ErrNotFound, ErrRideNotCompleted,
//     ErrNotPassenger or ErrAlreadyReviewed.
func (s *Service) Create(ctx context.Context, reviewerID string, in Input) (*domain.Review, error) {
	const op = "service.review.Create"

	if err := in.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var out domain.Review

	err := s.uow.DoWithRetry(ctx, func(ctx context.Context, after func(uow.AfterCommit)) error {
		ride, err := s.store.Rides().Get(ctx, in.RideID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return domain.NotFoundError{Entity: "ride", ID: in.RideID.String()}
			}
			return err
		}

		if ride.Status != domain.RideCompleted {
			return ErrRideNotCompleted
		}

		b, err := s.store.Bookings().FindByRideAndRider(ctx, ride.ID, reviewerID)
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotPassenger
		}
		if err != nil {
			return err
		}

		if b.Status != domain.BookingApproved && b.Status != domain.BookingCompleted {
			return ErrNotPassenger
		}

		now := s.cfg.Now()
		rv := domain.Review{
			ID:         uuid.New(),
			RideID:     ride.ID,
			ReviewerID: reviewerID,
			DriverID:   ride.DriverID,
			Rating:     in.Rating,
			Comment:    strings.TrimSpace(in.Comment),
			CreatedAt:  now,
		}

		if err := s.store.Reviews().Create(ctx, &rv); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return ErrAlreadyReviewed
			}
			return err
		}

		all, err := s.store.Reviews().ListByDriver(ctx, ride.DriverID)
		if err != nil {
			return err
		}

		rating := domain.RateDriver(ride.DriverID, all, now)
		if err := s.store.Ratings().Upsert(ctx, &rating); err != nil {
			return err
		}

		out = rv
		done := *ride

		after(func(ctx context.Context) {
			s.hooks.Notify(ctx, notify.ReviewReceived(done, rv, rating, now))
		})

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &out, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*domain.Review, error) {
	const op = "service.review.Get"

	rv, err := s.store.Reviews().Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, domain.NotFoundError{Entity: "review", ID: id.String()})
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return rv, nil
}

// ListForRide returns the reviews of a ride, newest first.
func (s *Service) ListForRide(ctx context.Context, rideID uuid.UUID) ([]domain.Review, error) {
	const op = "service.review.ListForRide"

	out, err := s.store.Reviews().ListByRide(ctx, rideID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

// ListForDriver returns the reviews a driver received, newest first.
func (s *Service) ListForDriver(ctx context.Context, driverID string) ([]domain.Review, error) {
	const op = "service.review.ListForDriver"

	out, err := s.store.Reviews().ListByDriver(ctx, driverID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

// DriverRating returns the driver's aggregate. A driver nobody reviewed
// yet has a zero rating.
func (s *Service) DriverRating(ctx context.Context, driverID string) (*domain.DriverRating, error) {
	const op = "service.review.DriverRating"

	r, err := s.store.Ratings().Get(ctx, driverID)
	if errors.Is(err, repository.ErrNotFound) {
		return &domain.DriverRating{DriverID: driverID}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return r, nil
}
