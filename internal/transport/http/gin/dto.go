package httpgin

import (
	"time"

	"github.com/kirinyoku/shareway-go/internal/domain"
	"github.com/kirinyoku/shareway-go/internal/service/account"
)

type CreateRideRequest struct {
	VehicleID       string     `json:"vehicle_id" binding:"required"`
	StartLocation   string     `json:"start_location" binding:"required"`
	EndLocation     string     `json:"end_location" binding:"required"`
	DepartureTime   *time.Time `json:"departure_time"`
	PricePerSeat    float64    `json:"price_per_seat" binding:"gte=0"`
	SeatsTotal      int        `json:"seats_total" binding:"required,gt=0"`
	DurationMinutes *int       `json:"duration_minutes" binding:"omitempty,gt=0"`
	DistanceKm      *float64   `json:"distance_km" binding:"omitempty,gte=0"`
	Description     string     `json:"description"`
}

func (r CreateRideRequest) draft() domain.RideDraft {
	return domain.RideDraft{
		VehicleID:       r.VehicleID,
		StartLocation:   r.StartLocation,
		EndLocation:     r.EndLocation,
		DepartureTime:   r.DepartureTime,
		PricePerSeat:    r.PricePerSeat,
		SeatsTotal:      r.SeatsTotal,
		DurationMinutes: r.DurationMinutes,
		DistanceKm:      r.DistanceKm,
		Description:     r.Description,
	}
}

type CreateBookingRequest struct {
	RideID         string `json:"ride_id" binding:"required,uuid"`
	Seats          int    `json:"seats" binding:"required,gt=0"`
	PickupLocation string `json:"pickup_location"`
	Message        string `json:"message"`
	PromoCode      string `json:"promo_code"`
}

// CreateReviewRequest leaves the rating range to the review service.
type CreateReviewRequest struct {
	RideID  string `json:"ride_id" binding:"required,uuid"`
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

type QuoteRidesRequest struct {
	RideIDs []string `json:"ride_ids" binding:"required,min=1,dive,uuid"`
	Code    string   `json:"code"`
}

type RegisterVehicleRequest struct {
	ID    string `json:"id" binding:"required"`
	Make  string `json:"make" binding:"required"`
	Model string `json:"model" binding:"required"`
	Seats int    `json:"seats" binding:"required,gt=0"`
	Color string `json:"color"`
	Year  int    `json:"year"`
}

func (r RegisterVehicleRequest) input() account.VehicleInput {
	return account.VehicleInput{
		ID:    r.ID,
		Make:  r.Make,
		Model: r.Model,
		Seats: r.Seats,
		Color: r.Color,
		Year:  r.Year,
	}
}

type SaveProfileRequest struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
}

func (r SaveProfileRequest) input() account.ProfileInput {
	return account.ProfileInput{
		Email:     r.Email,
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Phone:     r.Phone,
	}
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// RateLimitResponse tells a throttled rider which window is exhausted.
type RateLimitResponse struct {
	Error             string `json:"error"`
	Scope             string `json:"scope"`
	Current           int64  `json:"current"`
	Limit             int    `json:"limit"`
	RetryAfterSeconds int    `json:"retry_after_seconds"`
}

type SchedulerTickResponse struct {
	Completed int       `json:"completed"`
	RanAt     time.Time `json:"ran_at"`
}
