package query

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/kirinyoku/shareway-go/internal/domain"
	"github.com/kirinyoku/shareway-go/internal/repository"
	"github.com/kirinyoku/shareway-go/internal/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

func seedRide(t *testing.T, store *memory.Store, driverID string, seats int, price float64, status domain.RideStatus) domain.Ride {
	t.Helper()

	r := domain.NewRide(driverID, domain.RideDraft{
		VehicleID:     "veh-" + driverID,
		StartLocation: "Lausanne",
		EndLocation:   "Geneva",
		PricePerSeat:  price,
		SeatsTotal:    seats,
	}, testNow)
	r.Status = status
	require.NoError(t, store.Rides().Create(context.Background(), &r))
	return r
}

func seedBooking(t *testing.T, store *memory.Store, rideID uuid.UUID, riderID string) domain.Booking {
	t.Helper()

	b := domain.Booking{
		ID:        uuid.New(),
		RideID:    rideID,
		RiderID:   riderID,
		Seats:     1,
		Status:    domain.BookingRequested,
		CreatedAt: testNow,
		UpdatedAt: testNow,
	}
	require.NoError(t, store.Bookings().Create(context.Background(), &b))
	return b
}

func TestGetRide(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := New(store, nil, Config{})

	r := seedRide(t, store, "driver-1", 3, 12, domain.RideOpen)

	got, err := svc.GetRide(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, r.ID, got.ID)
	assert.Equal(t, 3, got.SeatsFree)

	_, err = svc.GetRide(ctx, uuid.New())
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListRides(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := New(store, nil, Config{MaxRidesPage: 2})

	cheap := seedRide(t, store, "driver-1", 3, 10, domain.RideOpen)
	pricey := seedRide(t, store, "driver-1", 1, 40, domain.RideOpen)
	full := seedRide(t, store, "driver-2", 2, 10, domain.RideFull)
	seedRide(t, store, "driver-2", 2, 10, domain.RideCanceled)

	ids := func(rides []domain.Ride) []uuid.UUID {
		out := make([]uuid.UUID, 0, len(rides))
		for _, r := range rides {
			out = append(out, r.ID)
		}
		return out
	}

	tests := []struct {
		name   string
		filter repository.RideFilter
		want   []uuid.UUID
	}{
		{name: "open by default", filter: repository.RideFilter{}, want: []uuid.UUID{cheap.ID, pricey.ID}},
		{name: "max price", filter: repository.RideFilter{MaxPrice: 20}, want: []uuid.UUID{cheap.ID}},
		{name: "min seats", filter: repository.RideFilter{MinSeats: 2}, want: []uuid.UUID{cheap.ID}},
		{name: "explicit status", filter: repository.RideFilter{Statuses: []domain.RideStatus{domain.RideFull}}, want: []uuid.UUID{full.ID}},
		{name: "start location", filter: repository.RideFilter{StartLocation: " laus "}, want: []uuid.UUID{cheap.ID, pricey.ID}},
		{name: "end location", filter: repository.RideFilter{EndLocation: "GENEV", MaxPrice: 20}, want: []uuid.UUID{cheap.ID}},
		{name: "no location match", filter: repository.RideFilter{EndLocation: "Bern"}, want: []uuid.UUID{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.ListRides(ctx, tt.filter)
			require.NoError(t, err)
			assert.ElementsMatch(t, tt.want, ids(got))
		})
	}

	t.Run("page size is clamped", func(t *testing.T) {
		got, err := svc.ListRides(ctx, repository.RideFilter{
			Statuses: []domain.RideStatus{domain.RideOpen, domain.RideFull},
			Limit:    10,
		})
		require.NoError(t, err)
		assert.Len(t, got, 2)
	})

	t.Run("rejects bad filters", func(t *testing.T) {
		_, err := svc.ListRides(ctx, repository.RideFilter{Statuses: []domain.RideStatus{"PARKED"}})
		require.ErrorIs(t, err, domain.ErrValidation)

		_, err = svc.ListRides(ctx, repository.RideFilter{MaxPrice: -1})
		require.ErrorIs(t, err, domain.ErrValidation)

		_, err = svc.ListRides(ctx, repository.RideFilter{StartLocation: strings.Repeat("x", 101)})
		require.ErrorIs(t, err, ErrLongLocation)
	})
}

func TestBookingVisibility(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := New(store, nil, Config{})

	r := seedRide(t, store, "driver-1", 3, 10, domain.RideOpen)
	b1 := seedBooking(t, store, r.ID, "rider-1")
	seedBooking(t, store, r.ID, "rider-2")

	list, err := svc.ListBookingsForRide(ctx, r.ID, "driver-1")
	require.NoError(t, err)
	assert.Len(t, list, 2)

	_, err = svc.ListBookingsForRide(ctx, r.ID, "rider-1")
	require.ErrorIs(t, err, domain.ErrForbidden)

	mine, err := svc.ListBookingsForRider(ctx, "rider-1")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, b1.ID, mine[0].ID)

	got, err := svc.GetBooking(ctx, b1.ID, "rider-1")
	require.NoError(t, err)
	assert.Equal(t, b1.ID, got.ID)

	_, err = svc.GetBooking(ctx, b1.ID, "driver-1")
	require.NoError(t, err)

	_, err = svc.GetBooking(ctx, b1.ID, "rider-2")
	require.ErrorIs(t, err, domain.ErrForbidden)

	_, err = svc.GetBooking(ctx, uuid.New(), "rider-1")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDriverDashboard(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := New(store, nil, Config{})

	open1 := seedRide(t, store, "driver-1", 3, 10, domain.RideOpen)
	open2 := seedRide(t, store, "driver-1", 2, 10, domain.RideOpen)
	done := seedRide(t, store, "driver-1", 2, 10, domain.RideCompleted)
	seedRide(t, store, "driver-2", 2, 10, domain.RideOpen)

	dash, err := svc.DriverDashboard(ctx, "driver-1")
	require.NoError(t, err)

	assert.Equal(t, "driver-1", dash.DriverID)
	assert.Equal(t, 3, dash.TotalRides)
	require.Len(t, dash.ByStatus, 2)
	assert.Equal(t, 2, dash.ByStatus[domain.RideOpen].Count)
	assert.ElementsMatch(t, []uuid.UUID{open1.ID, open2.ID}, dash.ByStatus[domain.RideOpen].RideIDs)
	assert.Equal(t, []uuid.UUID{done.ID}, dash.ByStatus[domain.RideCompleted].RideIDs)

	empty, err := svc.DriverDashboard(ctx, "nobody")
	require.NoError(t, err)
	assert.Zero(t, empty.TotalRides)
	assert.Empty(t, empty.ByStatus)
}
