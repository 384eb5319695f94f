package booking

import (
	"fmt"

	"github.com/kirinyoku/shareway-go/internal/domain"
)

var (
	ErrProfileIncomplete = fmt.Errorf("%w: rider profile is incomplete", domain.ErrUnauthorized)
	ErrNotRideDriver     = fmt.Errorf("%w: caller is not the driver of this ride", domain.ErrForbidden)
	ErrNotBookingOwner   = fmt.Errorf("%w: caller does not own this booking", domain.ErrForbidden)
	ErrOwnRide           = fmt.Errorf("%w: drivers cannot book their own ride", domain.ErrSelfBooking)
	ErrAlreadyBooked     = fmt.Errorf("%w: rider already has a booking for this ride", domain.ErrDuplicateBooking)
	ErrRideNotOpen       = fmt.Errorf("%w: ride is not open for bookings", domain.ErrInvalidState)
)
