package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/kirinyoku/shareway-go/internal/domain"
)

// Store groups the repositories behind one transaction boundary. Repositories
// obtained from a Store join the transaction carried by ctx, if any.
type Store interface {
	RunTx(ctx context.Context, fn func(ctx context.Context) error) error

	Rides() RideRepository
	Bookings() BookingRepository
	Vehicles() VehicleRepository
	Riders() RiderRepository
	Promos() PromoRepository
	Reviews() ReviewRepository
	Ratings() RatingRepository
}

// RideFilter narrows ride listings. Zero values are ignored. Locations
// match case-insensitively anywhere in the ride's start or end.
type RideFilter struct {
	Statuses      []domain.RideStatus
	DriverID      string
	StartLocation string
	EndLocation   string
	MaxPrice      float64
	MinSeats      int
	Limit         int
	Offset        int
}

type RideRepository interface {
	Create(ctx context.Context, r *domain.Ride) error
	Get(ctx context.Context, id uuid.UUID) (*domain.Ride, error)
	// Update writes r if the stored version still equals r.Version and
	// bumps r.Version. A stale version yields ErrConflict.
	Update(ctx context.Context, r *domain.Ride) error
	List(ctx context.Context, f RideFilter) ([]domain.Ride, error)
}

type BookingRepository interface {
	// Create fails with ErrDuplicate when the rider already booked the ride.
	Create(ctx context.Context, b *domain.Booking) error
	Get(ctx context.Context, id uuid.UUID) (*domain.Booking, error)
	Update(ctx context.Context, b *domain.Booking) error
	FindByRideAndRider(ctx context.Context, rideID uuid.UUID, riderID string) (*domain.Booking, error)
	ListByRide(ctx context.Context, rideID uuid.UUID, statuses ...domain.BookingStatus) ([]domain.Booking, error)
	ListByRider(ctx context.Context, riderID string) ([]domain.Booking, error)
}

type VehicleRepository interface {
	Create(ctx context.Context, v *domain.Vehicle) error
	Get(ctx context.Context, id string) (*domain.Vehicle, error)
	ListByOwner(ctx context.Context, ownerID string) ([]domain.Vehicle, error)
}

type RiderRepository interface {
	Upsert(ctx context.Context, p *domain.RiderProfile) error
	Get(ctx context.Context, id string) (*domain.RiderProfile, error)
}

// PromoRepository is the read side of the promo code catalog.
type PromoRepository interface {
	Percent(ctx context.Context, code string) (int, bool, error)
}

type ReviewRepository interface {
	// Create fails with ErrDuplicate when the rider already reviewed the ride.
	Create(ctx context.Context, r *domain.Review) error
	Get(ctx context.Context, id uuid.UUID) (*domain.Review, error)
	ListByRide(ctx context.Context, rideID uuid.UUID) ([]domain.Review, error)
	ListByDriver(ctx context.Context, driverID string) ([]domain.Review, error)
}

// RatingRepository keeps the per driver aggregate next to the reviews.
type RatingRepository interface {
	Upsert(ctx context.Context, r *domain.DriverRating) error
	Get(ctx context.Context, driverID string) (*domain.DriverRating, error)
}
