package memory

import (
	"context"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/kirinyoku/shareway-go/internal/domain"
	"github.com/kirinyoku/shareway-go/internal/repository"
)

type ReviewRepo struct {
	s *Store
}

func (r *ReviewRepo) snapshot(ctx context.Context) map[uuid.UUID]domain.Review {
	r.s.mu.RLock()
	all := make(map[uuid.UUID]domain.Review, len(r.s.reviews))
	for id, rv := range r.s.reviews {
		all[id] = rv
	}
	r.s.mu.RUnlock()

	if t := txFrom(ctx); t != nil {
		for id, rv := range t.reviews {
			all[id] = rv
		}
	}
	return all
}

func (r *ReviewRepo) Create(ctx context.Context, rv *domain.Review) error {
	const op = "memory.ReviewRepo.Create"

	return r.s.write(ctx, func(t *tx) error {
		for _, other := range r.snapshot(ctx) {
			if other.ID == rv.ID || (other.RideID == rv.RideID && other.ReviewerID == rv.ReviewerID) {
				return fmt.Errorf("%s: %w", op, repository.ErrDuplicate)
			}
		}
		t.reviews[rv.ID] = *rv
		return nil
	})
}

func (r *ReviewRepo) Get(ctx context.Context, id uuid.UUID) (*domain.Review, error) {
	const op = "memory.ReviewRepo.Get"

	rv, ok := r.snapshot(ctx)[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, repository.ErrNotFound)
	}
	return &rv, nil
}

func (r *ReviewRepo) ListByRide(ctx context.Context, rideID uuid.UUID) ([]domain.Review, error) {
	return r.filter(ctx, func(rv domain.Review) bool { return rv.RideID == rideID }), nil
}

func (r *ReviewRepo) ListByDriver(ctx context.Context, driverID string) ([]domain.Review, error) {
	return r.filter(ctx, func(rv domain.Review) bool { return rv.DriverID == driverID }), nil
}

// filter returns the newest reviews first.
func (r *ReviewRepo) filter(ctx context.Context, keep func(domain.Review) bool) []domain.Review {
	out := []domain.Review{}
	for _, rv := range r.snapshot(ctx) {
		if keep(rv) {
			out = append(out, rv)
		}
	}

	slices.SortFunc(out, func(a, b domain.Review) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return compareUUID(a.ID, b.ID)
	})
	return out
}

type RatingRepo struct {
	s *Store
}

func (r *RatingRepo) Upsert(ctx context.Context, dr *domain.DriverRating) error {
	return r.s.write(ctx, func(t *tx) error {
		t.ratings[dr.DriverID] = *dr
		return nil
	})
}

func (r *RatingRepo) Get(ctx context.Context, driverID string) (*domain.DriverRating, error) {
	const op = "memory.RatingRepo.Get"

	if t := txFrom(ctx); t != nil {
		if dr, ok := t.ratings[driverID]; ok {
			return &dr, nil
		}
	}

	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	dr, ok := r.s.ratings[driverID]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, repository.ErrNotFound)
	}
	return &dr, nil
}
