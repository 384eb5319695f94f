package memory

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/kirinyoku/shareway-go/internal/domain"
	"github.com/kirinyoku/shareway-go/internal/repository"
)

type VehicleRepo struct {
	s *Store
}

func (r *VehicleRepo) Create(ctx context.Context, v *domain.Vehicle) error {
	const op = "memory.VehicleRepo.Create"

	return r.s.write(ctx, func(t *tx) error {
		if _, err := r.Get(ctx, v.ID); err == nil {
			return fmt.Errorf("%s: %w", op, repository.ErrDuplicate)
		}
		t.vehicles[v.ID] = *v
		return nil
	})
}

func (r *VehicleRepo) Get(ctx context.Context, id string) (*domain.Vehicle, error) {
	const op = "memory.VehicleRepo.Get"

	if t := txFrom(ctx); t != nil {
		if v, ok := t.vehicles[id]; ok {
			return &v, nil
		}
	}

	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	v, ok := r.s.vehicles[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, repository.ErrNotFound)
	}
	return &v, nil
}

func (r *VehicleRepo) ListByOwner(ctx context.Context, ownerID string) ([]domain.Vehicle, error) {
	r.s.mu.RLock()
	out := []domain.Vehicle{}
	for _, v := range r.s.vehicles {
		if v.OwnerID == ownerID {
			out = append(out, v)
		}
	}
	r.s.mu.RUnlock()

	slices.SortFunc(out, func(a, b domain.Vehicle) int { return strings.Compare(a.ID, b.ID) })
	return out, nil
}

type RiderRepo struct {
	s *Store
}

func (r *RiderRepo) Upsert(ctx context.Context, p *domain.RiderProfile) error {
	return r.s.write(ctx, func(t *tx) error {
		t.riders[p.ID] = *p
		return nil
	})
}

func (r *RiderRepo) Get(ctx context.Context, id string) (*domain.RiderProfile, error) {
	const op = "memory.RiderRepo.Get"

	if t := txFrom(ctx); t != nil {
		if p, ok := t.riders[id]; ok {
			return &p, nil
		}
	}

	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.riders[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, repository.ErrNotFound)
	}
	return &p, nil
}

type PromoRepo struct {
	s *Store
}

func (r *PromoRepo) Percent(_ context.Context, code string) (int, bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.promos[strings.ToUpper(strings.TrimSpace(code))]
	return p, ok, nil
}
