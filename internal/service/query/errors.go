package query

import (
	"fmt"

	"github.com/kirinyoku/shareway-go/internal/domain"
)

var (
	ErrNotRideDriver  = fmt.Errorf("%w: only the driver may list a ride's bookings", domain.ErrForbidden)
	ErrNotParticipant = fmt.Errorf("%w: caller is neither the rider nor the driver", domain.ErrForbidden)
	ErrUnknownStatus  = domain.ValidationError{Field: "status", Reason: "unknown ride status"}
	ErrNegativeFilter = domain.ValidationError{Field: "filter", Reason: "must not be negative"}
	ErrLongLocation   = domain.ValidationError{Field: "location", Reason: "must be at most 100 characters"}
)
