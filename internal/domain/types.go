package domain

import (
	"math"
	"time"

	"github.com/google/uuid"
)

type Vehicle struct {
	ID      string `json:"id"`
	OwnerID string `json:"owner_id"`
	Make    string `json:"make"`
	Model   string `json:"model"`
	Seats   int    `json:"seats"`
	Color   string `json:"color,omitempty"`
	Year    int    `json:"year,omitempty"`
}

type RiderProfile struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Phone     string    `json:"phone,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Complete reports whether the profile may be used to book rides.
func (p *RiderProfile) Complete() bool {
	return p != nil && p.FirstName != "" && p.LastName != ""
}

// Notification is rider facing text handed to the delivery sink.
type Notification struct {
	ID          string    `json:"id"`
	RecipientID string    `json:"recipient_id"`
	Kind        string    `json:"kind"`
	Subject     string    `json:"subject"`
	Body        string    `json:"body"`
	CreatedAt   time.Time `json:"created_at"`
}

// StatusGroup summarises the rides of one status on a driver dashboard.
type StatusGroup struct {
	Count   int         `json:"count"`
	RideIDs []uuid.UUID `json:"ride_ids"`
}

type Dashboard struct {
	DriverID   string                     `json:"driver_id"`
	TotalRides int                        `json:"total_rides"`
	ByStatus   map[RideStatus]StatusGroup `json:"by_status"`
}

// RoundCents rounds an amount to two decimals.
func RoundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
