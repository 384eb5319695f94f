package memory

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/kirinyoku/shareway-go/internal/domain"
	"github.com/kirinyoku/shareway-go/internal/repository"
)

type RideRepo struct {
	s *Store
}

func (r *RideRepo) lookup(ctx context.Context, id uuid.UUID) (domain.Ride, bool) {
	if t := txFrom(ctx); t != nil {
		if ride, ok := t.rides[id]; ok {
			return ride, true
		}
	}

	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	ride, ok := r.s.rides[id]
	return ride, ok
}

func (r *RideRepo) Create(ctx context.Context, ride *domain.Ride) error {
	const op = "memory.RideRepo.Create"

	return r.s.write(ctx, func(t *tx) error {
		if _, ok := r.lookup(ctx, ride.ID); ok {
			return fmt.Errorf("%s: %w", op, repository.ErrDuplicate)
		}
		ride.Version = 1
		t.rides[ride.ID] = *ride
		return nil
	})
}

func (r *RideRepo) Get(ctx context.Context, id uuid.UUID) (*domain.Ride, error) {
	const op = "memory.RideRepo.Get"

	ride, ok := r.lookup(ctx, id)
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, repository.ErrNotFound)
	}
	return &ride, nil
}

func (r *RideRepo) Update(ctx context.Context, ride *domain.Ride) error {
	const op = "memory.RideRepo.Update"

	return r.s.write(ctx, func(t *tx) error {
		cur, ok := r.lookup(ctx, ride.ID)
		if !ok {
			return fmt.Errorf("%s: %w", op, repository.ErrNotFound)
		}
		if cur.Version != ride.Version {
			return fmt.Errorf("%s: %w", op, repository.ErrConflict)
		}
		ride.Version++
		t.rides[ride.ID] = *ride
		return nil
	})
}

func (r *RideRepo) List(ctx context.Context, f repository.RideFilter) ([]domain.Ride, error) {
	r.s.mu.RLock()
	all := make(map[uuid.UUID]domain.Ride, len(r.s.rides))
	for id, ride := range r.s.rides {
		all[id] = ride
	}
	r.s.mu.RUnlock()

	if t := txFrom(ctx); t != nil {
		for id, ride := range t.rides {
			all[id] = ride
		}
	}

	out := make([]domain.Ride, 0, len(all))
	for _, ride := range all {
		if matchRide(ride, f) {
			out = append(out, ride)
		}
	}

	slices.SortFunc(out, func(a, b domain.Ride) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return compareUUID(a.ID, b.ID)
	})

	return page(out, f.Limit, f.Offset), nil
}

func matchRide(r domain.Ride, f repository.RideFilter) bool {
	if len(f.Statuses) > 0 && !slices.Contains(f.Statuses, r.Status) {
		return false
	}
	if f.DriverID != "" && r.DriverID != f.DriverID {
		return false
	}
	if !containsFold(r.StartLocation, f.StartLocation) || !containsFold(r.EndLocation, f.EndLocation) {
		return false
	}
	if f.MaxPrice > 0 && r.PricePerSeat > f.MaxPrice {
		return false
	}
	if f.MinSeats > 0 && r.SeatsFree < f.MinSeats {
		return false
	}
	return true
}

func containsFold(s, part string) bool {
	return part == "" || strings.Contains(strings.ToLower(s), strings.ToLower(part))
}

func page[T any](items []T, limit, offset int) []T {
	if offset > 0 {
		if offset >= len(items) {
			return []T{}
		}
		items = items[offset:]
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

func compareUUID(a, b uuid.UUID) int {
	for i := range a {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}
