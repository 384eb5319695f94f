package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRide(total int) Ride {
	dep := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	return NewRide("driver-1", RideDraft{
		VehicleID:     "veh-1",
		StartLocation: "Zurich",
		EndLocation:   "Bern",
		DepartureTime: &dep,
		PricePerSeat:  20,
		SeatsTotal:    total,
	}, dep.Add(-24*time.Hour))
}

func TestNewRideStartsOpenWithAllSeatsFree(t *testing.T) {
	r := setupRide(3)

	assert.Equal(t, RideOpen, r.Status)
	assert.Equal(t, 3, r.SeatsFree)
	assert.NotEqual(t, uuid.Nil, r.ID)
}

func TestReserve(t *testing.T) {
	tests := []struct {
		name       string
		total      int
		reserve    []int
		wantFree   int
		wantStatus RideStatus
		wantErr    error
	}{
		{name: "partial", total: 3, reserve: []int{2}, wantFree: 1, wantStatus: RideOpen},
		{name: "exact fill", total: 3, reserve: []int{2, 1}, wantFree: 0, wantStatus: RideFull},
		{name: "over capacity", total: 2, reserve: []int{3}, wantFree: 2, wantStatus: RideOpen, wantErr: ErrCapacityExceeded},
		{name: "full ride", total: 1, reserve: []int{1, 1}, wantFree: 0, wantStatus: RideFull, wantErr: ErrCapacityExceeded},
		{name: "zero seats", total: 1, reserve: []int{0}, wantFree: 1, wantStatus: RideOpen, wantErr: ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := setupRide(tt.total)

			var err error
			for _, n := range tt.reserve {
				if err = r.Reserve(n); err != nil {
					break
				}
			}

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.wantFree, r.SeatsFree)
			assert.Equal(t, tt.wantStatus, r.Status)
			assert.GreaterOrEqual(t, r.SeatsFree, 0)
			assert.LessOrEqual(t, r.SeatsFree, r.SeatsTotal)
		})
	}
}

func TestReserveRequiresOpenRide(t *testing.T) {
	for _, st := range []RideStatus{RideInProgress, RideCompleted, RideCanceled} {
		r := setupRide(3)
		r.Status = st

		err := r.Reserve(1)

		var capErr CapacityError
		require.True(t, errors.As(err, &capErr), st)
		assert.Equal(t, st, capErr.Status)
		assert.Equal(t, 3, r.SeatsFree)
	}
}

func TestReleaseUndoesReserve(t *testing.T) {
	for _, n := range []int{1, 2, 4} {
		r := setupRide(4)
		require.NoError(t, r.Reserve(1))
		beforeFree, beforeStatus := r.SeatsFree, r.Status
		if n > beforeFree {
			continue
		}

		require.NoError(t, r.Reserve(n))
		require.NoError(t, r.Release(n))

		assert.Equal(t, beforeFree, r.SeatsFree)
		assert.Equal(t, beforeStatus, r.Status)
	}
}

func TestReleaseReopensFullRide(t *testing.T) {
	r := setupRide(2)
	require.NoError(t, r.Reserve(2))
	require.Equal(t, RideFull, r.Status)

	require.NoError(t, r.Release(1))

	assert.Equal(t, RideOpen, r.Status)
	assert.Equal(t, 1, r.SeatsFree)
}

func TestReleaseKeepsNonFullStatus(t *testing.T) {
	r := setupRide(2)
	require.NoError(t, r.Reserve(2))
	r.Status = RideInProgress

	require.NoError(t, r.Release(2))

	assert.Equal(t, RideInProgress, r.Status)
	assert.Equal(t, 2, r.SeatsFree)
}

func TestReleaseNeverExceedsTotal(t *testing.T) {
	r := setupRide(2)

	err := r.Release(1)

	require.ErrorIs(t, err, ErrInconsistent)
	assert.Equal(t, 2, r.SeatsFree)
}

func TestOverdue(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	ninety := 90

	tests := []struct {
		name     string
		dep      *time.Time
		duration *int
		status   RideStatus
		want     bool
	}{
		{name: "ended an hour ago", dep: ptr(now.Add(-3 * time.Hour)), status: RideOpen, want: true},
		{name: "still running", dep: ptr(now.Add(-30 * time.Minute)), status: RideOpen, want: false},
		{name: "exactly at end", dep: ptr(now.Add(-2 * time.Hour)), status: RideOpen, want: false},
		{name: "custom duration", dep: ptr(now.Add(-100 * time.Minute)), duration: &ninety, status: RideInProgress, want: true},
		{name: "no departure", status: RideOpen, want: false},
		{name: "full is not swept", dep: ptr(now.Add(-5 * time.Hour)), status: RideFull, want: false},
		{name: "completed", dep: ptr(now.Add(-5 * time.Hour)), status: RideCompleted, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Ride{DepartureTime: tt.dep, DurationMinutes: tt.duration, Status: tt.status}
			assert.Equal(t, tt.want, r.Overdue(now))
		})
	}
}

func ptr[T any](v T) *T { return &v }
