package redis

import (
	"fmt"

	"github.com/google/uuid"
)

const ns = "shareway:v1"

func KeyRide(rideID uuid.UUID) string {
	return fmt.Sprintf("%s:ride:%s", ns, rideID)
}

func KeyRideBookings(rideID uuid.UUID) string {
	return fmt.Sprintf("%s:ride:%s:bookings", ns, rideID)
}

func KeyDriverDashboard(driverID string) string {
	return fmt.Sprintf("%s:driver:%s:dashboard", ns, driverID)
}

// Both booking window keys carry the rider as hash tag so the limiter
// script touches a single cluster slot.
func KeyBookingAttempts(riderID string) string {
	return fmt.Sprintf("%s:rl:bookings:{%s}", ns, riderID)
}

func KeyRideAttempts(riderID string, rideID uuid.UUID) string {
	return fmt.Sprintf("%s:rl:bookings:{%s}:ride:%s", ns, riderID, rideID)
}

func ChannelRidesChanged() string {
	return ns + ":rides:changed"
}

func ChannelNotifications() string {
	return ns + ":notifications"
}
