package notify

import (
	"fmt"
	"time"

	"github.com/kirinyoku/shareway-go/internal/domain"
	"github.com/oklog/ulid/v2"
)

const (
	KindBookingApproved = "booking_approved"
	KindBookingRejected = "booking_rejected"
	KindRideCanceled    = "ride_canceled"
	KindReviewReceived  = "review_received"
)

const departureLayout = "Mon, 02 Jan 2006 15:04 MST"

func route(r domain.Ride) string {
	return fmt.Sprintf("%s → %s", r.StartLocation, r.EndLocation)
}

func departure(r domain.Ride) string {
	if r.DepartureTime == nil {
		return "to be announced"
	}
	return r.DepartureTime.Format(departureLayout)
}

func newNotification(recipient, kind, subject, body string, now time.Time) domain.Notification {
	return domain.Notification{
		ID:          ulid.Make().String(),
		RecipientID: recipient,
		Kind:        kind,
		Subject:     subject,
		Body:        body,
		CreatedAt:   now,
	}
}

func BookingApproved(r domain.Ride, b domain.Booking, now time.Time) domain.Notification {
	body := fmt.Sprintf(
		"Your booking of %d seat(s) for the ride %s was approved.\nDeparture: %s\nPrice per seat: %.2f",
		b.Seats, route(r), departure(r), b.FinalPrice,
	)
	return newNotification(b.RiderID, KindBookingApproved, "Booking approved: "+route(r), body, now)
}

func BookingRejected(r domain.Ride, b domain.Booking, now time.Time) domain.Notification {
	body := fmt.Sprintf(
		"Unfortunately your booking for the ride %s was rejected by the driver.",
		route(r),
	)
	return newNotification(b.RiderID, KindBookingRejected, "Booking rejected: "+route(r), body, now)
}

func RideCanceled(r domain.Ride, b domain.Booking, now time.Time) domain.Notification {
	body := fmt.Sprintf(
		"The ride %s departing %s was canceled by the driver. Your booking was rejected because the ride was canceled.",
		route(r), departure(r),
	)
	return newNotification(b.RiderID, KindRideCanceled, "Ride canceled: "+route(r), body, now)
}

// ReviewReceived tells the driver about a new review and their new average.
func ReviewReceived(r domain.Ride, rv domain.Review, rating domain.DriverRating, now time.Time) domain.Notification {
	body := fmt.Sprintf(
		"A passenger rated your ride %s with %d of %d stars.\nYour rating is now %.1f from %d review(s).",
		route(r), rv.Rating, domain.MaxRating, rating.Average, rating.Count,
	)
	return newNotification(rv.DriverID, KindReviewReceived, "New review: "+route(r), body, now)
}
