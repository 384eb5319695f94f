package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/kirinyoku/shareway-go/internal/domain"
	"github.com/kirinyoku/shareway-go/internal/repository"
)

const bookingColumns = `id, ride_id, rider_id, seats, status, pickup_location, message,
	promo_code, discount_percent, discount_amount, original_price, final_price,
	created_at, updated_at, version`

type BookingRepo struct {
	s *Store
}

func scanBooking(row scanner) (*domain.Booking, error) {
	var (
		b      domain.Booking
		status string
	)

	if err := row.Scan(
		&b.ID,
		&b.RideID,
		&b.RiderID,
		&b.Seats,
		&status,
		&b.PickupLocation,
		&b.Message,
		&b.PromoCode,
		&b.DiscountPercent,
		&b.DiscountAmount,
		&b.OriginalPrice,
		&b.FinalPrice,
		&b.CreatedAt,
		&b.UpdatedAt,
		&b.Version,
	); err != nil {
		return nil, err
	}

	b.Status = domain.BookingStatus(status)
	return &b, nil
}

// Create inserts a booking. The (ride_id, rider_id) unique key turns a
// second booking of the same rider into repository.ErrDuplicate.
func (r *BookingRepo) Create(ctx context.Context, b *domain.Booking) error {
	const op = "postgres.BookingRepo.Create"

	b.Version = 1

	_, err := r.s.handle(ctx).Exec(ctx,
		`INSERT INTO bookings (`+bookingColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		b.ID,
		b.RideID,
		b.RiderID,
		b.Seats,
		string(b.Status),
		b.PickupLocation,
		b.Message,
		b.PromoCode,
		b.DiscountPercent,
		b.DiscountAmount,
		b.OriginalPrice,
		b.FinalPrice,
		b.CreatedAt,
		b.UpdatedAt,
		b.Version,
	)

	return wrapDBErr(op, err)
}

func (r *BookingRepo) Get(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	const op = "postgres.BookingRepo.Get"

	b, err := scanBooking(r.s.handle(ctx).QueryRow(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE id = $1`,
		id,
	))
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	return b, nil
}

func (r *BookingRepo) Update(ctx context.Context, b *domain.Booking) error {
	const op = "postgres.BookingRepo.Update"

	db := r.s.handle(ctx)

	tag, err := db.Exec(ctx,
		`UPDATE bookings
		 SET status = $3, updated_at = $4, version = version + 1
		 WHERE id = $1 AND version = $2`,
		b.ID,
		b.Version,
		string(b.Status),
		b.UpdatedAt,
	)
	if err != nil {
		return wrapDBErr(op, err)
	}

	if tag.RowsAffected() == 0 {
		var exists bool
		if err := db.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM bookings WHERE id = $1)`, b.ID,
		).Scan(&exists); err != nil {
			return wrapDBErr(op, err)
		}
		if !exists {
			return fmt.Errorf("%s: %w", op, repository.ErrNotFound)
		}
		return fmt.Errorf("%s: %w", op, repository.ErrConflict)
	}

	b.Version++
	return nil
}

func (r *BookingRepo) FindByRideAndRider(ctx context.Context, rideID uuid.UUID, riderID string) (*domain.Booking, error) {
	const op = "postgres.BookingRepo.FindByRideAndRider"

	b, err := scanBooking(r.s.handle(ctx).QueryRow(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE ride_id = $1 AND rider_id = $2`,
		rideID, riderID,
	))
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	return b, nil
}

func (r *BookingRepo) ListByRide(ctx context.Context, rideID uuid.UUID, statuses ...domain.BookingStatus) ([]domain.Booking, error) {
	const op = "postgres.BookingRepo.ListByRide"

	if len(statuses) == 0 {
		return r.list(ctx, op,
			`SELECT `+bookingColumns+` FROM bookings WHERE ride_id = $1 ORDER BY created_at, id`,
			rideID,
		)
	}

	ss := make([]string, 0, len(statuses))
	for _, s := range statuses {
		ss = append(ss, string(s))
	}

	return r.list(ctx, op,
		`SELECT `+bookingColumns+` FROM bookings
		 WHERE ride_id = $1 AND status = ANY($2)
		 ORDER BY created_at, id`,
		rideID, ss,
	)
}

func (r *BookingRepo) ListByRider(ctx context.Context, riderID string) ([]domain.Booking, error) {
	const op = "postgres.BookingRepo.ListByRider"

	return r.list(ctx, op,
		`SELECT `+bookingColumns+` FROM bookings WHERE rider_id = $1 ORDER BY created_at, id`,
		riderID,
	)
}

func (r *BookingRepo) list(ctx context.Context, op, sql string, args ...any) ([]domain.Booking, error) {
	rows, err := r.s.handle(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	defer rows.Close()

	out := []domain.Booking{}
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, wrapDBErr(op, err)
		}
		out = append(out, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDBErr(op, err)
	}

	return out, nil
}
