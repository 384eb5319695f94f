package memory

import (
	"context"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/kirinyoku/shareway-go/internal/domain"
	"github.com/kirinyoku/shareway-go/internal/repository"
)

type BookingRepo struct {
	s *Store
}

func (r *BookingRepo) lookup(ctx context.Context, id uuid.UUID) (domain.Booking, bool) {
	if t := txFrom(ctx); t != nil {
		if b, ok := t.bookings[id]; ok {
			return b, true
		}
	}

	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	b, ok := r.s.bookings[id]
	return b, ok
}

func (r *BookingRepo) snapshot(ctx context.Context) map[uuid.UUID]domain.Booking {
	r.s.mu.RLock()
	all := make(map[uuid.UUID]domain.Booking, len(r.s.bookings))
	for id, b := range r.s.bookings {
		all[id] = b
	}
	r.s.mu.RUnlock()

	if t := txFrom(ctx); t != nil {
		for id, b := range t.bookings {
			all[id] = b
		}
	}
	return all
}

func (r *BookingRepo) Create(ctx context.Context, b *domain.Booking) error {
	const op = "memory.BookingRepo.Create"

	return r.s.write(ctx, func(t *tx) error {
		for _, other := range r.snapshot(ctx) {
			if other.ID == b.ID || (other.RideID == b.RideID && other.RiderID == b.RiderID) {
				return fmt.Errorf("%s: %w", op, repository.ErrDuplicate)
			}
		}
		b.Version = 1
		t.bookings[b.ID] = *b
		return nil
	})
}

func (r *BookingRepo) Get(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	const op = "memory.BookingRepo.Get"

	b, ok := r.lookup(ctx, id)
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, repository.ErrNotFound)
	}
	return &b, nil
}

func (r *BookingRepo) Update(ctx context.Context, b *domain.Booking) error {
	const op = "memory.BookingRepo.Update"

	return r.s.write(ctx, func(t *tx) error {
		cur, ok := r.lookup(ctx, b.ID)
		if !ok {
			return fmt.Errorf("%s: %w", op, repository.ErrNotFound)
		}
		if cur.Version != b.Version {
			return fmt.Errorf("%s: %w", op, repository.ErrConflict)
		}
		b.Version++
		t.bookings[b.ID] = *b
		return nil
	})
}

func (r *BookingRepo) FindByRideAndRider(ctx context.Context, rideID uuid.UUID, riderID string) (*domain.Booking, error) {
	const op = "memory.BookingRepo.FindByRideAndRider"

	for _, b := range r.snapshot(ctx) {
		if b.RideID == rideID && b.RiderID == riderID {
			return &b, nil
		}
	}
	return nil, fmt.Errorf("%s: %w", op, repository.ErrNotFound)
}

func (r *BookingRepo) ListByRide(ctx context.Context, rideID uuid.UUID, statuses ...domain.BookingStatus) ([]domain.Booking, error) {
	return r.filter(ctx, func(b domain.Booking) bool {
		return b.RideID == rideID && (len(statuses) == 0 || slices.Contains(statuses, b.Status))
	}), nil
}

func (r *BookingRepo) ListByRider(ctx context.Context, riderID string) ([]domain.Booking, error) {
	return r.filter(ctx, func(b domain.Booking) bool {
		return b.RiderID == riderID
	}), nil
}

func (r *BookingRepo) filter(ctx context.Context, keep func(domain.Booking) bool) []domain.Booking {
	out := []domain.Booking{}
	for _, b := range r.snapshot(ctx) {
		if keep(b) {
			out = append(out, b)
		}
	}

	slices.SortFunc(out, func(a, b domain.Booking) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return compareUUID(a.ID, b.ID)
	})
	return out
}
