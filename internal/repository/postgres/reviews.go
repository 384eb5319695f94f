package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/kirinyoku/shareway-go/internal/domain"
)

const reviewColumns = `id, ride_id, reviewer_id, driver_id, rating, comment, created_at`

type ReviewRepo struct {
	s *Store
}

func scanReview(row scanner) (*domain.Review, error) {
	var rv domain.Review
	if err := row.Scan(
		&rv.ID,
		&rv.RideID,
		&rv.ReviewerID,
		&rv.DriverID,
		&rv.Rating,
		&rv.Comment,
		&rv.CreatedAt,
	); err != nil {
		return nil, err
	}

	return &rv, nil
}

// Create inserts a review. The (ride_id, reviewer_id) unique key turns a
// second review by the same rider into repository.ErrDuplicate.
func (r *ReviewRepo) Create(ctx context.Context, rv *domain.Review) error {
	const op = "postgres.ReviewRepo.Create"

	_, err := r.s.handle(ctx).Exec(ctx,
		`INSERT INTO reviews (`+reviewColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		rv.ID, rv.RideID, rv.ReviewerID, rv.DriverID, rv.Rating, rv.Comment, rv.CreatedAt,
	)

	return wrapDBErr(op, err)
}

func (r *ReviewRepo) Get(ctx context.Context, id uuid.UUID) (*domain.Review, error) {
	const op = "postgres.ReviewRepo.Get"

	rv, err := scanReview(r.s.handle(ctx).QueryRow(ctx,
		`SELECT `+reviewColumns+` FROM reviews WHERE id = $1`, id,
	))
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	return rv, nil
}

func (r *ReviewRepo) ListByRide(ctx context.Context, rideID uuid.UUID) ([]domain.Review, error) {
	return r.list(ctx, "postgres.ReviewRepo.ListByRide",
		`SELECT `+reviewColumns+` FROM reviews WHERE ride_id = $1 ORDER BY created_at DESC, id`, rideID)
}

func (r *ReviewRepo) ListByDriver(ctx context.Context, driverID string) ([]domain.Review, error) {
	return r.list(ctx, "postgres.ReviewRepo.ListByDriver",
		`SELECT `+reviewColumns+` FROM reviews WHERE driver_id = $1 ORDER BY created_at DESC, id`, driverID)
}

func (r *ReviewRepo) list(ctx context.Context, op, sql string, args ...any) ([]domain.Review, error) {
	rows, err := r.s.handle(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	defer rows.Close()

	out := []domain.Review{}
	for rows.Next() {
		rv, err := scanReview(rows)
		if err != nil {
			return nil, wrapDBErr(op, err)
		}
		out = append(out, *rv)
	}

	return out, wrapDBErr(op, rows.Err())
}

type RatingRepo struct {
	s *Store
}

func (r *RatingRepo) Upsert(ctx context.Context, dr *domain.DriverRating) error {
	const op = "postgres.RatingRepo.Upsert"

	_, err := r.s.handle(ctx).Exec(ctx,
		`INSERT INTO driver_ratings (driver_id, average, count, updated_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (driver_id) DO UPDATE
		 SET average = EXCLUDED.average,
		     count = EXCLUDED.count,
		     updated_at = EXCLUDED.updated_at`,
		dr.DriverID, dr.Average, dr.Count, dr.UpdatedAt,
	)

	return wrapDBErr(op, err)
}

func (r *RatingRepo) Get(ctx context.Context, driverID string) (*domain.DriverRating, error) {
	const op = "postgres.RatingRepo.Get"

	var dr domain.DriverRating
	if err := r.s.handle(ctx).QueryRow(ctx,
		`SELECT driver_id, average, count, updated_at FROM driver_ratings WHERE driver_id = $1`,
		driverID,
	).Scan(&dr.DriverID, &dr.Average, &dr.Count, &dr.UpdatedAt); err != nil {
		return nil, wrapDBErr(op, err)
	}

	return &dr, nil
}
