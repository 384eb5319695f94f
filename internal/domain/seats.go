package domain

import "fmt"

// Reserve takes count seats out of the free pool. The ride has to be OPEN
// with enough seats left; reaching zero flips it to FULL.
func (r *Ride) Reserve(count int) error {
	if count <= 0 {
		return ValidationError{Field: "seats", Reason: "must be positive"}
	}
	if r.Status != RideOpen || r.SeatsFree < count {
		return CapacityError{RideID: r.ID, Status: r.Status, Requested: count, Free: r.SeatsFree}
	}

	r.SeatsFree -= count
	if r.SeatsFree == 0 {
		r.Status = RideFull
	}
	return nil
}

// Release returns count previously reserved seats. A FULL ride reopens;
// other states keep their status.
func (r *Ride) Release(count int) error {
	if count <= 0 {
		return ValidationError{Field: "seats", Reason: "must be positive"}
	}
	if r.SeatsFree+count > r.SeatsTotal {
		return fmt.Errorf("%w: ride %s releasing %d seats with %d/%d free",
			ErrInconsistent, r.ID, count, r.SeatsFree, r.SeatsTotal)
	}

	r.SeatsFree += count
	if r.Status == RideFull {
		r.Status = RideOpen
	}
	return nil
}
