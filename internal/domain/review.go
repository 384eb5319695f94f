package domain

import (
	"math"
	"time"

	"github.com/google/uuid"
)

const (
	MinRating = 1
	MaxRating = 5
)

// Review is a rider's rating of the driver of a completed ride.
type Review struct {
	ID         uuid.UUID `json:"id"`
	RideID     uuid.UUID `json:"ride_id"`
	ReviewerID string    `json:"reviewer_id"`
	DriverID   string    `json:"driver_id"`
	Rating     int       `json:"rating"`
	Comment    string    `json:"comment"`
	CreatedAt  time.Time `json:"created_at"`
}

// DriverRating is the running average over every review of a driver.
type DriverRating struct {
	DriverID  string    `json:"driver_id"`
	Average   float64   `json:"average"`
	Count     int       `json:"count"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RateDriver averages the ratings of reviews, rounded to one decimal.
func RateDriver(driverID string, reviews []Review, now time.Time) DriverRating {
	out := DriverRating{DriverID: driverID, Count: len(reviews), UpdatedAt: now}
	if len(reviews) == 0 {
		return out
	}

	sum := 0
	for _, r := range reviews {
		sum += r.Rating
	}

	out.Average = math.Round(float64(sum)/float64(len(reviews))*10) / 10
	return out
}
