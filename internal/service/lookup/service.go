// Package lookup answers the read-only questions the ride and booking
// services ask about data they do not own: vehicle ownership, promo
// percentages and rider profile completeness.
package lookup

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kirinyoku/shareway-go/internal/discount"
	"github.com/kirinyoku/shareway-go/internal/repository"
	"github.com/motoki317/sc"
)

var errPromoNotFound = errors.New("promo code not found")

type Config struct {
	VehicleFreshFor time.Duration
	VehicleTTL      time.Duration
	PromoFreshFor   time.Duration
	PromoTTL        time.Duration
}

type Service struct {
	store    repository.Store
	vehicles *sc.Cache[string, string]
	promos   *sc.Cache[string, int]
}

func New(store repository.Store, cfg Config) (*Service, error) {
	const op = "service.lookup.New"

	if cfg.VehicleFreshFor <= 0 {
		cfg.VehicleFreshFor = time.Minute
	}

	if cfg.VehicleTTL < cfg.VehicleFreshFor {
		cfg.VehicleTTL = 5 * time.Minute
	}

	if cfg.PromoFreshFor <= 0 {
		cfg.PromoFreshFor = 30 * time.Second
	}

	if cfg.PromoTTL < cfg.PromoFreshFor {
		cfg.PromoTTL = 2 * time.Minute
	}

	s := &Service{store: store}

	var err error

	s.vehicles, err = sc.New(s.loadVehicleOwner, cfg.VehicleFreshFor, cfg.VehicleTTL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.promos, err = sc.New(s.loadPromo, cfg.PromoFreshFor, cfg.PromoTTL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return s, nil
}

// loadCtx keeps the caller's cancellation but none of its values, so a
// cached load never joins the caller's transaction.
type loadCtx struct{ context.Context }

func (loadCtx) Value(any) any { return nil }

func (s *Service) loadVehicleOwner(ctx context.Context, vehicleID string) (string, error) {
	v, err := s.store.Vehicles().Get(ctx, vehicleID)
	if err != nil {
		return "", err
	}
	return v.OwnerID, nil
}

func (s *Service) loadPromo(ctx context.Context, code string) (int, error) {
	p, ok, err := s.store.Promos().Percent(ctx, code)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, errPromoNotFound
	}
	return p, nil
}

// BelongsTo reports whether vehicleID is registered to driverID. Unknown
// vehicles belong to nobody.
func (s *Service) BelongsTo(ctx context.Context, vehicleID, driverID string) (bool, error) {
	const op = "service.lookup.BelongsTo"

	owner, err := s.vehicles.Get(loadCtx{ctx}, vehicleID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return owner == driverID, nil
}

// Percent implements discount.Lookup.
func (s *Service) Percent(ctx context.Context, code string) (int, bool, error) {
	const op = "service.lookup.Percent"

	code = discount.Normalize(code)
	if code == "" {
		return 0, false, nil
	}

	p, err := s.promos.Get(loadCtx{ctx}, code)
	if err != nil {
		if errors.Is(err, errPromoNotFound) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("%s: %w", op, err)
	}

	return p, true, nil
}

// ProfileComplete is read through on every call; profiles change while a
// rider is signing up.
func (s *Service) ProfileComplete(ctx context.Context, riderID string) (bool, error) {
	const op = "service.lookup.ProfileComplete"

	p, err := s.store.Riders().Get(ctx, riderID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return p.Complete(), nil
}
