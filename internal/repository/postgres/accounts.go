package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/kirinyoku/shareway-go/internal/domain"
)

type VehicleRepo struct {
	s *Store
}

func (r *VehicleRepo) Create(ctx context.Context, v *domain.Vehicle) error {
	const op = "postgres.VehicleRepo.Create"

	_, err := r.s.handle(ctx).Exec(ctx,
		`INSERT INTO vehicles (id, owner_id, make, model, seats, color, year)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		v.ID, v.OwnerID, v.Make, v.Model, v.Seats, v.Color, v.Year,
	)

	return wrapDBErr(op, err)
}

func (r *VehicleRepo) Get(ctx context.Context, id string) (*domain.Vehicle, error) {
	const op = "postgres.VehicleRepo.Get"

	var v domain.Vehicle
	if err := r.s.handle(ctx).QueryRow(ctx,
		`SELECT id, owner_id, make, model, seats, color, year FROM vehicles WHERE id = $1`,
		id,
	).Scan(&v.ID, &v.OwnerID, &v.Make, &v.Model, &v.Seats, &v.Color, &v.Year); err != nil {
		return nil, wrapDBErr(op, err)
	}

	return &v, nil
}

func (r *VehicleRepo) ListByOwner(ctx context.Context, ownerID string) ([]domain.Vehicle, error) {
	const op = "postgres.VehicleRepo.ListByOwner"

	rows, err := r.s.handle(ctx).Query(ctx,
		`SELECT id, owner_id, make, model, seats, color, year
		 FROM vehicles WHERE owner_id = $1 ORDER BY id`,
		ownerID,
	)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	defer rows.Close()

	out := []domain.Vehicle{}
	for rows.Next() {
		var v domain.Vehicle
		if err := rows.Scan(&v.ID, &v.OwnerID, &v.Make, &v.Model, &v.Seats, &v.Color, &v.Year); err != nil {
			return nil, wrapDBErr(op, err)
		}
		out = append(out, v)
	}

	return out, wrapDBErr(op, rows.Err())
}

type RiderRepo struct {
	s *Store
}

func (r *RiderRepo) Upsert(ctx context.Context, p *domain.RiderProfile) error {
	const op = "postgres.RiderRepo.Upsert"

	_, err := r.s.handle(ctx).Exec(ctx,
		`INSERT INTO riders (id, email, first_name, last_name, phone, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (id) DO UPDATE
		 SET email = EXCLUDED.email,
		     first_name = EXCLUDED.first_name,
		     last_name = EXCLUDED.last_name,
		     phone = EXCLUDED.phone,
		     updated_at = EXCLUDED.updated_at`,
		p.ID, p.Email, p.FirstName, p.LastName, p.Phone, p.UpdatedAt,
	)

	return wrapDBErr(op, err)
}

func (r *RiderRepo) Get(ctx context.Context, id string) (*domain.RiderProfile, error) {
	const op = "postgres.RiderRepo.Get"

	var p domain.RiderProfile
	if err := r.s.handle(ctx).QueryRow(ctx,
		`SELECT id, email, first_name, last_name, phone, updated_at FROM riders WHERE id = $1`,
		id,
	).Scan(&p.ID, &p.Email, &p.FirstName, &p.LastName, &p.Phone, &p.UpdatedAt); err != nil {
		return nil, wrapDBErr(op, err)
	}

	return &p, nil
}

type PromoRepo struct {
	s *Store
}

// Percent reads the catalog table, which is managed outside this service.
func (r *PromoRepo) Percent(ctx context.Context, code string) (int, bool, error) {
	const op = "postgres.PromoRepo.Percent"

	var p int
	err := r.s.handle(ctx).QueryRow(ctx,
		`SELECT percent FROM promo_codes WHERE code = upper($1) AND active`,
		code,
	).Scan(&p)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, wrapDBErr(op, err)
	}

	return p, true, nil
}
