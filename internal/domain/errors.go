package domain

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Error kinds returned by the ride and booking engine. Callers match them
// with errors.Is; typed errors below unwrap to one of these.
var (
	ErrNotFound         = errors.New("not found")
	ErrForbidden        = errors.New("forbidden")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrInvalidState     = errors.New("invalid state")
	ErrCapacityExceeded = errors.New("capacity exceeded")
	ErrDuplicateBooking = errors.New("duplicate booking")
	ErrDuplicateReview  = errors.New("duplicate review")
	ErrSelfBooking      = errors.New("self booking forbidden")
	ErrInvalidVehicle   = errors.New("invalid vehicle")
	ErrValidation       = errors.New("validation error")
	ErrInconsistent     = errors.New("inconsistent state")
)

// NotFoundError names the entity that could not be found.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

func (e NotFoundError) Unwrap() error { return ErrNotFound }

// CapacityError reports a seat reservation that could not be satisfied.
type CapacityError struct {
	RideID    uuid.UUID
	Status    RideStatus
	Requested int
	Free      int
}

func (e CapacityError) Error() string {
	return fmt.Sprintf("ride %s (%s): requested %d seats, %d free", e.RideID, e.Status, e.Requested, e.Free)
}

func (e CapacityError) Unwrap() error { return ErrCapacityExceeded }

// TransitionError reports a state change not permitted from the current state.
type TransitionError struct {
	Entity string
	From   string
	To     string
}

func (e TransitionError) Error() string {
	return fmt.Sprintf("%s: cannot move from %s to %s", e.Entity, e.From, e.To)
}

func (e TransitionError) Unwrap() error { return ErrInvalidState }

// ValidationError describes malformed input for a single field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e ValidationError) Unwrap() error { return ErrValidation }
