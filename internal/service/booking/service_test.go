package booking

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/kirinyoku/shareway-go/internal/discount"
	"github.com/kirinyoku/shareway-go/internal/domain"
	"github.com/kirinyoku/shareway-go/internal/repository/memory"
	"github.com/kirinyoku/shareway-go/internal/service/lookup"
	"github.com/kirinyoku/shareway-go/internal/service/notify"
	"github.com/kirinyoku/shareway-go/internal/uow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

var testNow = time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

type recordingNotifier struct {
	mu   sync.Mutex
	sent []domain.Notification
	err  error
}

func (n *recordingNotifier) Notify(_ context.Context, msg domain.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, msg)
	return n.err
}

func (n *recordingNotifier) kinds() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, 0, len(n.sent))
	for _, m := range n.sent {
		out = append(out, m.Kind)
	}
	return out
}

type bookingEnv struct {
	store    *memory.Store
	svc      *Service
	notifier *recordingNotifier
}

func setupBooking(t *testing.T) *bookingEnv {
	t.Helper()

	ctx := context.Background()
	store := memory.NewStore()
	store.SeedPromos(map[string]int{"WELCOME10": 10, "SHARE20": 20})

	lk, err := lookup.New(store, lookup.Config{})
	require.NoError(t, err)

	for _, id := range []string{"driver-1", "rider-1", "rider-2", "rider-3"} {
		require.NoError(t, store.Riders().Upsert(ctx, &domain.RiderProfile{ID: id, FirstName: "Test", LastName: id}))
	}

	notifier := &recordingNotifier{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	hooks := notify.NewHooks(nil, nil, notifier, logger)

	svc := New(
		store,
		uow.New(store, uow.Config{}),
		discount.NewCatalog(lk),
		lk,
		hooks,
		Config{Now: func() time.Time { return testNow }},
	)

	return &bookingEnv{store: store, svc: svc, notifier: notifier}
}

func (e *bookingEnv) addRide(t *testing.T, seats int, price float64) domain.Ride {
	t.Helper()

	dep := testNow.Add(24 * time.Hour)
	r := domain.NewRide("driver-1", domain.RideDraft{
		VehicleID:     "veh-1",
		StartLocation: "Winterthur",
		EndLocation:   "Zurich",
		DepartureTime: &dep,
		PricePerSeat:  price,
		SeatsTotal:    seats,
	}, testNow)
	require.NoError(t, e.store.Rides().Create(context.Background(), &r))
	return r
}

func (e *bookingEnv) ride(t *testing.T, id uuid.UUID) *domain.Ride {
	t.Helper()
	r, err := e.store.Rides().Get(context.Background(), id)
	require.NoError(t, err)
	return r
}

func (e *bookingEnv) request(t *testing.T, rideID uuid.UUID, riderID string, seats int) *domain.Booking {
	t.Helper()
	b, err := e.svc.Create(context.Background(), riderID, domain.BookingRequest{RideID: rideID, Seats: seats})
	require.NoError(t, err)
	return b
}

func TestBookingLifecycleScenarios(t *testing.T) {
	ctx := context.Background()
	env := setupBooking(t)

	ride := env.addRide(t, 3, 20)
	assert.Equal(t, 3, ride.SeatsFree)
	assert.Equal(t, domain.RideOpen, ride.Status)

	// two seats requested then approved
	first := env.request(t, ride.ID, "rider-1", 2)
	assert.Equal(t, domain.BookingRequested, first.Status)
	assert.Equal(t, 3, env.ride(t, ride.ID).SeatsFree)

	approved, err := env.svc.Approve(ctx, first.ID, "driver-1")
	require.NoError(t, err)
	assert.Equal(t, domain.BookingApproved, approved.Status)

	r := env.ride(t, ride.ID)
	assert.Equal(t, 1, r.SeatsFree)
	assert.Equal(t, domain.RideOpen, r.Status)

	// last seat fills the ride
	second := env.request(t, ride.ID, "rider-2", 1)
	_, err = env.svc.Approve(ctx, second.ID, "driver-1")
	require.NoError(t, err)

	r = env.ride(t, ride.ID)
	assert.Equal(t, 0, r.SeatsFree)
	assert.Equal(t, domain.RideFull, r.Status)

	// cancelling the two seat booking reopens it
	canceled, err := env.svc.Cancel(ctx, first.ID, "rider-1")
	require.NoError(t, err)
	assert.Equal(t, domain.BookingCanceled, canceled.Status)

	r = env.ride(t, ride.ID)
	assert.Equal(t, 2, r.SeatsFree)
	assert.Equal(t, domain.RideOpen, r.Status)

	assert.Equal(t, []string{notify.KindBookingApproved, notify.KindBookingApproved}, env.notifier.kinds())
}

func TestCreateValidationOrder(t *testing.T) {
	ctx := context.Background()
	env := setupBooking(t)
	ride := env.addRide(t, 2, 15)

	full := env.addRide(t, 1, 15)
	fb := env.request(t, full.ID, "rider-3", 1)
	_, err := env.svc.Approve(ctx, fb.ID, "driver-1")
	require.NoError(t, err)

	tests := []struct {
		name    string
		riderID string
		req     domain.BookingRequest
		wantErr error
	}{
		{name: "incomplete profile", riderID: "stranger", req: domain.BookingRequest{RideID: ride.ID, Seats: 1}, wantErr: domain.ErrUnauthorized},
		{name: "missing ride", riderID: "rider-1", req: domain.BookingRequest{RideID: uuid.New(), Seats: 1}, wantErr: domain.ErrNotFound},
		{name: "own ride", riderID: "driver-1", req: domain.BookingRequest{RideID: ride.ID, Seats: 1}, wantErr: domain.ErrSelfBooking},
		{name: "ride not open", riderID: "rider-1", req: domain.BookingRequest{RideID: full.ID, Seats: 1}, wantErr: domain.ErrInvalidState},
		{name: "too many seats", riderID: "rider-1", req: domain.BookingRequest{RideID: ride.ID, Seats: 3}, wantErr: domain.ErrCapacityExceeded},
		{name: "zero seats", riderID: "rider-1", req: domain.BookingRequest{RideID: ride.ID, Seats: 0}, wantErr: domain.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.svc.Create(ctx, tt.riderID, tt.req)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestCreateSelfBookingThenOtherRider(t *testing.T) {
	ctx := context.Background()
	env := setupBooking(t)
	ride := env.addRide(t, 2, 15)

	_, err := env.svc.Create(ctx, "driver-1", domain.BookingRequest{RideID: ride.ID, Seats: 1})
	require.ErrorIs(t, err, domain.ErrSelfBooking)

	b, err := env.svc.Create(ctx, "rider-1", domain.BookingRequest{RideID: ride.ID, Seats: 1})
	require.NoError(t, err)
	assert.Equal(t, "rider-1", b.RiderID)
}

func TestCreateRejectsSecondBookingOfSameRider(t *testing.T) {
	ctx := context.Background()
	env := setupBooking(t)
	ride := env.addRide(t, 3, 15)

	first := env.request(t, ride.ID, "rider-1", 1)
	_, err := env.svc.Cancel(ctx, first.ID, "rider-1")
	require.NoError(t, err)

	_, err = env.svc.Create(ctx, "rider-1", domain.BookingRequest{RideID: ride.ID, Seats: 1})
	require.ErrorIs(t, err, domain.ErrDuplicateBooking)
}

func TestCreateRequestsMayOversubscribe(t *testing.T) {
	env := setupBooking(t)
	ride := env.addRide(t, 1, 15)

	env.request(t, ride.ID, "rider-1", 1)
	env.request(t, ride.ID, "rider-2", 1)

	assert.Equal(t, 1, env.ride(t, ride.ID).SeatsFree)
}

func TestCreateAppliesPromoCode(t *testing.T) {
	ctx := context.Background()
	env := setupBooking(t)
	ride := env.addRide(t, 2, 20)

	b, err := env.svc.Create(ctx, "rider-1", domain.BookingRequest{RideID: ride.ID, Seats: 1, PromoCode: "welcome10"})
	require.NoError(t, err)
	assert.Equal(t, "WELCOME10", b.PromoCode)
	assert.Equal(t, 10, b.DiscountPercent)
	assert.InDelta(t, 2.0, b.DiscountAmount, 0.001)
	assert.InDelta(t, 20.0, b.OriginalPrice, 0.001)
	assert.InDelta(t, 18.0, b.FinalPrice, 0.001)

	b, err = env.svc.Create(ctx, "rider-2", domain.BookingRequest{RideID: ride.ID, Seats: 1, PromoCode: "BOGUS"})
	require.NoError(t, err)
	assert.Empty(t, b.PromoCode)
	assert.Zero(t, b.DiscountPercent)
	assert.Zero(t, b.DiscountAmount)
	assert.InDelta(t, 20.0, b.FinalPrice, 0.001)
}

func TestApproveAndRejectChecks(t *testing.T) {
	ctx := context.Background()
	env := setupBooking(t)
	ride := env.addRide(t, 2, 15)
	b := env.request(t, ride.ID, "rider-1", 1)

	_, err := env.svc.Approve(ctx, b.ID, "driver-2")
	require.ErrorIs(t, err, domain.ErrForbidden)

	_, err = env.svc.Reject(ctx, b.ID, "rider-1")
	require.ErrorIs(t, err, domain.ErrForbidden)

	_, err = env.svc.Approve(ctx, uuid.New(), "driver-1")
	require.ErrorIs(t, err, domain.ErrNotFound)

	rejected, err := env.svc.Reject(ctx, b.ID, "driver-1")
	require.NoError(t, err)
	assert.Equal(t, domain.BookingRejected, rejected.Status)
	assert.Equal(t, 2, env.ride(t, ride.ID).SeatsFree)

	_, err = env.svc.Approve(ctx, b.ID, "driver-1")
	require.ErrorIs(t, err, domain.ErrInvalidState)

	_, err = env.svc.Cancel(ctx, b.ID, "rider-1")
	require.ErrorIs(t, err, domain.ErrInvalidState)

	assert.Equal(t, []string{notify.KindBookingRejected}, env.notifier.kinds())
}

func TestApproveFailsWhenSeatsWereTaken(t *testing.T) {
	ctx := context.Background()
	env := setupBooking(t)
	ride := env.addRide(t, 2, 15)

	big := env.request(t, ride.ID, "rider-1", 2)
	small := env.request(t, ride.ID, "rider-2", 1)

	_, err := env.svc.Approve(ctx, small.ID, "driver-1")
	require.NoError(t, err)

	_, err = env.svc.Approve(ctx, big.ID, "driver-1")
	var capErr domain.CapacityError
	require.True(t, errors.As(err, &capErr))
	assert.Equal(t, 2, capErr.Requested)
	assert.Equal(t, 1, capErr.Free)

	got, err := env.store.Bookings().Get(ctx, big.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingRequested, got.Status)
}

func TestCancelChecksOwnerAndKeepsSeatsForRequested(t *testing.T) {
	ctx := context.Background()
	env := setupBooking(t)
	ride := env.addRide(t, 2, 15)
	b := env.request(t, ride.ID, "rider-1", 1)

	_, err := env.svc.Cancel(ctx, b.ID, "rider-2")
	require.ErrorIs(t, err, domain.ErrForbidden)

	_, err = env.svc.Cancel(ctx, b.ID, "rider-1")
	require.NoError(t, err)
	assert.Equal(t, 2, env.ride(t, ride.ID).SeatsFree)
}

func TestCancelOnFinishedRideKeepsSeats(t *testing.T) {
	ctx := context.Background()
	env := setupBooking(t)
	ride := env.addRide(t, 2, 15)
	b := env.request(t, ride.ID, "rider-1", 1)

	_, err := env.svc.Approve(ctx, b.ID, "driver-1")
	require.NoError(t, err)

	r := env.ride(t, ride.ID)
	require.NoError(t, r.TransitionTo(domain.RideCompleted))
	require.NoError(t, env.store.Rides().Update(ctx, r))
	version := r.Version

	canceled, err := env.svc.Cancel(ctx, b.ID, "rider-1")
	require.NoError(t, err)
	assert.Equal(t, domain.BookingCanceled, canceled.Status)

	after := env.ride(t, ride.ID)
	assert.Equal(t, domain.RideCompleted, after.Status)
	assert.Equal(t, 1, after.SeatsFree)
	assert.Equal(t, version, after.Version)
}

func TestConcurrentApprovalsForLastSeat(t *testing.T) {
	ctx := context.Background()
	env := setupBooking(t)
	ride := env.addRide(t, 1, 15)

	b1 := env.request(t, ride.ID, "rider-1", 1)
	b2 := env.request(t, ride.ID, "rider-2", 1)

	errs := make([]error, 2)
	start := make(chan struct{})
	var g errgroup.Group
	for i, id := range []uuid.UUID{b1.ID, b2.ID} {
		i, id := i, id
		g.Go(func() error {
			<-start
			_, errs[i] = env.svc.Approve(ctx, id, "driver-1")
			return nil
		})
	}
	close(start)
	require.NoError(t, g.Wait())

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		require.ErrorIs(t, err, domain.ErrCapacityExceeded)
	}
	assert.Equal(t, 1, succeeded)

	r := env.ride(t, ride.ID)
	assert.Equal(t, 0, r.SeatsFree)
	assert.Equal(t, domain.RideFull, r.Status)
}

func TestConcurrentApprovalsNeverOverbook(t *testing.T) {
	ctx := context.Background()
	env := setupBooking(t)
	ride := env.addRide(t, 3, 15)

	var ids []uuid.UUID
	for i := 0; i < 8; i++ {
		riderID := fmt.Sprintf("crowd-%d", i)
		require.NoError(t, env.store.Riders().Upsert(ctx, &domain.RiderProfile{ID: riderID, FirstName: "C", LastName: riderID}))
		ids = append(ids, env.request(t, ride.ID, riderID, 1).ID)
	}

	var (
		mu       sync.Mutex
		approved int
		g        errgroup.Group
	)
	for _, id := range ids {
		id := id
		g.Go(func() error {
			_, err := env.svc.Approve(ctx, id, "driver-1")
			if err == nil {
				mu.Lock()
				approved++
				mu.Unlock()
				return nil
			}
			if errors.Is(err, domain.ErrCapacityExceeded) {
				return nil
			}
			return err
		})
	}
	require.NoError(t, g.Wait())

	r := env.ride(t, ride.ID)
	assert.Equal(t, 3, approved)
	assert.Equal(t, 0, r.SeatsFree)
	assert.Equal(t, domain.RideFull, r.Status)
}

func TestNotificationFailureDoesNotFailApproval(t *testing.T) {
	ctx := context.Background()
	env := setupBooking(t)
	env.notifier.err = errors.New("smtp down")

	ride := env.addRide(t, 1, 15)
	b := env.request(t, ride.ID, "rider-1", 1)

	got, err := env.svc.Approve(ctx, b.ID, "driver-1")
	require.NoError(t, err)
	assert.Equal(t, domain.BookingApproved, got.Status)
}
