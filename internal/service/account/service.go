// Package account manages the driver and rider records the ride engine
// reads: registered vehicles and rider profiles.
package account

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kirinyoku/shareway-go/internal/domain"
	"github.com/kirinyoku/shareway-go/internal/repository"
	"github.com/kirinyoku/shareway-go/internal/uow"
)

const maxVehicleSeats = 9

type VehicleInput struct {
	ID    string
	Make  string
	Model string
	Seats int
	Color string
	Year  int
}

func (in VehicleInput) Validate() error {
	switch {
	case strings.TrimSpace(in.ID) == "":
		return domain.ValidationError{Field: "id", Reason: "required"}
	case strings.TrimSpace(in.Make) == "":
		return domain.ValidationError{Field: "make", Reason: "required"}
	case strings.TrimSpace(in.Model) == "":
		return domain.ValidationError{Field: "model", Reason: "required"}
	case in.Seats <= 0 || in.Seats > maxVehicleSeats:
		return domain.ValidationError{Field: "seats", Reason: fmt.Sprintf("must be within 1..%d", maxVehicleSeats)}
	case in.Year < 0:
		return domain.ValidationError{Field: "year", Reason: "must not be negative"}
	}
	return nil
}

type ProfileInput struct {
	Email     string
	FirstName string
	LastName  string
	Phone     string
}

type Config struct {
	Now func() time.Time
}

type Service struct {
	store repository.Store
	uow   *uow.UoW
	cfg   Config
}

func New(store repository.Store, tx *uow.UoW, cfg Config) *Service {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Service{
		store: store,
		uow:   tx,
		cfg:   cfg,
	}
}

// RegisterVehicle records a vehicle owned by the caller.
//
// Parameters:
//   - ctx: request-scoped context.
//   - ownerID: the driver registering the vehicle.
//   - in: vehicle attributes; ID is chosen by the driver (e.g. the plate).
//
// Returns:
//   - *domain.Vehicle: the stored vehicle.
//   - error: domain.ErrValidation for malformed input.
//   - error: account.ErrVehicleExists if the ID is taken.
func (s *Service) RegisterVehicle(ctx context.Context, ownerID string, in VehicleInput) (*domain.Vehicle, error) {
	const op = "service.account.RegisterVehicle"

	if err := in.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	v := domain.Vehicle{
		ID:      strings.TrimSpace(in.ID),
		OwnerID: ownerID,
		Make:    in.Make,
		Model:   in.Model,
		Seats:   in.Seats,
		Color:   in.Color,
		Year:    in.Year,
	}

	err := s.uow.Do(ctx, func(ctx context.Context, after func(uow.AfterCommit)) error {
		if err := s.store.Vehicles().Create(ctx, &v); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return ErrVehicleExists
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &v, nil
}

func (s *Service) ListVehicles(ctx context.Context, ownerID string) ([]domain.Vehicle, error) {
	const op = "service.account.ListVehicles"

	vs, err := s.store.Vehicles().ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return vs, nil
}

// SaveProfile creates or replaces the caller's rider profile.
func (s *Service) SaveProfile(ctx context.Context, riderID string, in ProfileInput) (*domain.RiderProfile, error) {
	const op = "service.account.SaveProfile"

	p := domain.RiderProfile{
		ID:        riderID,
		Email:     strings.TrimSpace(in.Email),
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
		Phone:     strings.TrimSpace(in.Phone),
		UpdatedAt: s.cfg.Now(),
	}

	if p.Email != "" && !strings.Contains(p.Email, "@") {
		return nil, fmt.Errorf("%s: %w", op, domain.ValidationError{Field: "email", Reason: "malformed"})
	}

	err := s.uow.Do(ctx, func(ctx context.Context, after func(uow.AfterCommit)) error {
		return s.store.Riders().Upsert(ctx, &p)
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &p, nil
}

func (s *Service) GetProfile(ctx context.Context, riderID string) (*domain.RiderProfile, error) {
	const op = "service.account.GetProfile"

	p, err := s.store.Riders().Get(ctx, riderID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrProfileMissing)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return p, nil
}
