package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/kirinyoku/shareway-go/internal/domain"
	"github.com/kirinyoku/shareway-go/internal/repository"
)

const rideColumns = `id, driver_id, vehicle_id, start_location, end_location, departure_time,
	price_per_seat, seats_total, seats_free, status, duration_minutes, distance_km,
	description, created_at, version`

type RideRepo struct {
	s *Store
}

func scanRide(row scanner) (*domain.Ride, error) {
	var (
		r      domain.Ride
		status string
	)

	if err := row.Scan(
		&r.ID,
		&r.DriverID,
		&r.VehicleID,
		&r.StartLocation,
		&r.EndLocation,
		&r.DepartureTime,
		&r.PricePerSeat,
		&r.SeatsTotal,
		&r.SeatsFree,
		&status,
		&r.DurationMinutes,
		&r.DistanceKm,
		&r.Description,
		&r.CreatedAt,
		&r.Version,
	); err != nil {
		return nil, err
	}

	r.Status = domain.RideStatus(status)
	return &r, nil
}

// Create inserts a new ride at version 1.
func (r *RideRepo) Create(ctx context.Context, ride *domain.Ride) error {
	const op = "postgres.RideRepo.Create"

	ride.Version = 1

	_, err := r.s.handle(ctx).Exec(ctx,
		`INSERT INTO rides (`+rideColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		ride.ID,
		ride.DriverID,
		ride.VehicleID,
		ride.StartLocation,
		ride.EndLocation,
		ride.DepartureTime,
		ride.PricePerSeat,
		ride.SeatsTotal,
		ride.SeatsFree,
		string(ride.Status),
		ride.DurationMinutes,
		ride.DistanceKm,
		ride.Description,
		ride.CreatedAt,
		ride.Version,
	)

	return wrapDBErr(op, err)
}

func (r *RideRepo) Get(ctx context.Context, id uuid.UUID) (*domain.Ride, error) {
	const op = "postgres.RideRepo.Get"

	ride, err := scanRide(r.s.handle(ctx).QueryRow(ctx,
		`SELECT `+rideColumns+` FROM rides WHERE id = $1`,
		id,
	))
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	return ride, nil
}

// Update writes the mutable columns of ride guarded by its version.
//
// Returns:
//   - error: repository.ErrConflict if the stored version moved on.
//   - error: repository.ErrNotFound if the ride does not exist.
func (r *RideRepo) Update(ctx context.Context, ride *domain.Ride) error {
	const op = "postgres.RideRepo.Update"

	db := r.s.handle(ctx)

	tag, err := db.Exec(ctx,
		`UPDATE rides
		 SET seats_free = $3, status = $4, departure_time = $5,
		     duration_minutes = $6, description = $7, version = version + 1
		 WHERE id = $1 AND version = $2`,
		ride.ID,
		ride.Version,
		ride.SeatsFree,
		string(ride.Status),
		ride.DepartureTime,
		ride.DurationMinutes,
		ride.Description,
	)
	if err != nil {
		return wrapDBErr(op, err)
	}

	if tag.RowsAffected() == 0 {
		var exists bool
		if err := db.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM rides WHERE id = $1)`, ride.ID,
		).Scan(&exists); err != nil {
			return wrapDBErr(op, err)
		}
		if !exists {
			return fmt.Errorf("%s: %w", op, repository.ErrNotFound)
		}
		return fmt.Errorf("%s: %w", op, repository.ErrConflict)
	}

	ride.Version++
	return nil
}

func (r *RideRepo) List(ctx context.Context, f repository.RideFilter) ([]domain.Ride, error) {
	const op = "postgres.RideRepo.List"

	var (
		where []string
		args  []any
	)

	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if len(f.Statuses) > 0 {
		statuses := make([]string, 0, len(f.Statuses))
		for _, s := range f.Statuses {
			statuses = append(statuses, string(s))
		}
		where = append(where, "status = ANY("+arg(statuses)+")")
	}
	if f.DriverID != "" {
		where = append(where, "driver_id = "+arg(f.DriverID))
	}
	if f.StartLocation != "" {
		where = append(where, "start_location ILIKE '%' || "+arg(likeEscape(f.StartLocation))+" || '%'")
	}
	if f.EndLocation != "" {
		where = append(where, "end_location ILIKE '%' || "+arg(likeEscape(f.EndLocation))+" || '%'")
	}
	if f.MaxPrice > 0 {
		where = append(where, "price_per_seat <= "+arg(f.MaxPrice))
	}
	if f.MinSeats > 0 {
		where = append(where, "seats_free >= "+arg(f.MinSeats))
	}

	q := `SELECT ` + rideColumns + ` FROM rides`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	q += ` ORDER BY created_at, id`
	if f.Limit > 0 {
		q += ` LIMIT ` + arg(f.Limit)
	}
	if f.Offset > 0 {
		q += ` OFFSET ` + arg(f.Offset)
	}

	rows, err := r.s.handle(ctx).Query(ctx, q, args...)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	defer rows.Close()

	out := []domain.Ride{}
	for rows.Next() {
		ride, err := scanRide(rows)
		if err != nil {
			return nil, wrapDBErr(op, err)
		}
		out = append(out, *ride)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDBErr(op, err)
	}

	return out, nil
}

// likeEscape makes s match literally inside an ILIKE pattern.
func likeEscape(s string) string {
	return likeEscaper.Replace(s)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
