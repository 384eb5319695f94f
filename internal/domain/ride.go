package domain

import (
	"time"

	"github.com/google/uuid"
)

type RideStatus string

const (
	RideOpen       RideStatus = "OPEN"
	RideFull       RideStatus = "FULL"
	RideInProgress RideStatus = "IN_PROGRESS"
	RideCompleted  RideStatus = "COMPLETED"
	RideCanceled   RideStatus = "CANCELED"
)

// DefaultRideDuration is used when a ride has no explicit duration.
const DefaultRideDuration = 120 * time.Minute

var rideTransitions = map[RideStatus][]RideStatus{
	RideOpen:       {RideFull, RideInProgress, RideCompleted, RideCanceled},
	RideFull:       {RideOpen, RideInProgress, RideCanceled},
	RideInProgress: {RideCompleted},
	RideCompleted:  {},
	RideCanceled:   {},
}

func (s RideStatus) Valid() bool {
	_, ok := rideTransitions[s]
	return ok
}

// IsTerminal reports whether no further transitions are possible.
func (s RideStatus) IsTerminal() bool {
	return s == RideCompleted || s == RideCanceled
}

func (s RideStatus) CanTransitionTo(to RideStatus) bool {
	for _, next := range rideTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

type Ride struct {
	ID              uuid.UUID  `json:"id"`
	DriverID        string     `json:"driver_id"`
	VehicleID       string     `json:"vehicle_id"`
	StartLocation   string     `json:"start_location"`
	EndLocation     string     `json:"end_location"`
	DepartureTime   *time.Time `json:"departure_time,omitempty"`
	PricePerSeat    float64    `json:"price_per_seat"`
	SeatsTotal      int        `json:"seats_total"`
	SeatsFree       int        `json:"seats_free"`
	Status          RideStatus `json:"status"`
	DurationMinutes *int       `json:"duration_minutes,omitempty"`
	DistanceKm      *float64   `json:"distance_km,omitempty"`
	Description     string     `json:"description,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	Version         int64      `json:"version"`
}

// RideDraft carries the caller supplied attributes of a new ride.
type RideDraft struct {
	VehicleID       string
	StartLocation   string
	EndLocation     string
	DepartureTime   *time.Time
	PricePerSeat    float64
	SeatsTotal      int
	DurationMinutes *int
	DistanceKm      *float64
	Description     string
}

func (d RideDraft) Validate() error {
	switch {
	case d.VehicleID == "":
		return ValidationError{Field: "vehicle_id", Reason: "required"}
	case d.StartLocation == "":
		return ValidationError{Field: "start_location", Reason: "required"}
	case d.EndLocation == "":
		return ValidationError{Field: "end_location", Reason: "required"}
	case d.PricePerSeat < 0:
		return ValidationError{Field: "price_per_seat", Reason: "must not be negative"}
	case d.SeatsTotal <= 0:
		return ValidationError{Field: "seats_total", Reason: "must be positive"}
	case d.DurationMinutes != nil && *d.DurationMinutes <= 0:
		return ValidationError{Field: "duration_minutes", Reason: "must be positive"}
	case d.DistanceKm != nil && *d.DistanceKm < 0:
		return ValidationError{Field: "distance_km", Reason: "must not be negative"}
	}
	return nil
}

// NewRide opens a ride with every seat free.
func NewRide(driverID string, d RideDraft, now time.Time) Ride {
	return Ride{
		ID:              uuid.New(),
		DriverID:        driverID,
		VehicleID:       d.VehicleID,
		StartLocation:   d.StartLocation,
		EndLocation:     d.EndLocation,
		DepartureTime:   d.DepartureTime,
		PricePerSeat:    RoundCents(d.PricePerSeat),
		SeatsTotal:      d.SeatsTotal,
		SeatsFree:       d.SeatsTotal,
		Status:          RideOpen,
		DurationMinutes: d.DurationMinutes,
		DistanceKm:      d.DistanceKm,
		Description:     d.Description,
		CreatedAt:       now,
	}
}

func (r *Ride) Duration() time.Duration {
	if r.DurationMinutes == nil || *r.DurationMinutes <= 0 {
		return DefaultRideDuration
	}
	return time.Duration(*r.DurationMinutes) * time.Minute
}

// EndTime returns departure plus duration. ok is false without a departure time.
func (r *Ride) EndTime() (end time.Time, ok bool) {
	if r.DepartureTime == nil {
		return time.Time{}, false
	}
	return r.DepartureTime.Add(r.Duration()), true
}

// Overdue reports whether an active ride has run past its end time.
func (r *Ride) Overdue(now time.Time) bool {
	if r.Status != RideOpen && r.Status != RideInProgress {
		return false
	}
	end, ok := r.EndTime()
	return ok && now.After(end)
}

// TransitionTo moves the ride along the lifecycle. OPEN and FULL are
// driven by seat changes only, see Reserve and Release.
func (r *Ride) TransitionTo(to RideStatus) error {
	if !r.Status.CanTransitionTo(to) {
		return TransitionError{Entity: "ride", From: string(r.Status), To: string(to)}
	}
	r.Status = to
	return nil
}
