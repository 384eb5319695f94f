package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type BookingStatus string

const (
	BookingRequested BookingStatus = "REQUESTED"
	BookingApproved  BookingStatus = "APPROVED"
	BookingRejected  BookingStatus = "REJECTED"
	BookingCanceled  BookingStatus = "CANCELED"
	BookingCompleted BookingStatus = "COMPLETED"
)

var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingRequested: {BookingApproved, BookingRejected, BookingCanceled},
	BookingApproved:  {BookingCanceled, BookingRejected, BookingCompleted},
	BookingRejected:  {},
	BookingCanceled:  {},
	BookingCompleted: {},
}

func ParseBookingStatus(s string) (BookingStatus, bool) {
	st := BookingStatus(strings.ToUpper(strings.TrimSpace(s)))
	_, ok := bookingTransitions[st]
	return st, ok
}

func (s BookingStatus) IsTerminal() bool {
	return len(bookingTransitions[s]) == 0
}

// Active reports whether the booking still counts against the ride.
func (s BookingStatus) Active() bool {
	return s == BookingRequested || s == BookingApproved
}

func (s BookingStatus) CanTransitionTo(to BookingStatus) bool {
	for _, next := range bookingTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

type Booking struct {
	ID              uuid.UUID     `json:"id"`
	RideID          uuid.UUID     `json:"ride_id"`
	RiderID         string        `json:"rider_id"`
	Seats           int           `json:"seats"`
	Status          BookingStatus `json:"status"`
	PickupLocation  string        `json:"pickup_location,omitempty"`
	Message         string        `json:"message,omitempty"`
	PromoCode       string        `json:"promo_code,omitempty"`
	DiscountPercent int           `json:"discount_percent"`
	DiscountAmount  float64       `json:"discount_amount"`
	OriginalPrice   float64       `json:"original_price"`
	FinalPrice      float64       `json:"final_price"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
	Version         int64         `json:"version"`
}

// BookingRequest is a rider's intent to join a ride.
type BookingRequest struct {
	RideID         uuid.UUID
	Seats          int
	PickupLocation string
	Message        string
	PromoCode      string
}

func (r BookingRequest) Validate() error {
	if r.RideID == uuid.Nil {
		return ValidationError{Field: "ride_id", Reason: "required"}
	}
	if r.Seats <= 0 {
		return ValidationError{Field: "seats", Reason: "must be positive"}
	}
	return nil
}

func (b *Booking) TransitionTo(to BookingStatus, now time.Time) error {
	if !b.Status.CanTransitionTo(to) {
		return TransitionError{Entity: "booking", From: string(b.Status), To: string(to)}
	}
	b.Status = to
	b.UpdatedAt = now
	return nil
}
