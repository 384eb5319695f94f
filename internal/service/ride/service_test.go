package ride

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/kirinyoku/shareway-go/internal/domain"
	"github.com/kirinyoku/shareway-go/internal/repository/memory"
	"github.com/kirinyoku/shareway-go/internal/service/lookup"
	"github.com/kirinyoku/shareway-go/internal/service/notify"
	"github.com/kirinyoku/shareway-go/internal/uow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

type recordingNotifier struct {
	mu   sync.Mutex
	sent []domain.Notification
}

func (n *recordingNotifier) Notify(_ context.Context, msg domain.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, msg)
	return nil
}

func (n *recordingNotifier) recipients(kind string) []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []string
	for _, m := range n.sent {
		if m.Kind == kind {
			out = append(out, m.RecipientID)
		}
	}
	return out
}

type rideEnv struct {
	store    *memory.Store
	svc      *Service
	notifier *recordingNotifier
}

func setupRides(t *testing.T) *rideEnv {
	t.Helper()

	ctx := context.Background()
	store := memory.NewStore()
	require.NoError(t, store.Vehicles().Create(ctx, &domain.Vehicle{ID: "veh-1", OwnerID: "driver-1", Make: "Skoda", Model: "Octavia", Seats: 4}))
	require.NoError(t, store.Vehicles().Create(ctx, &domain.Vehicle{ID: "veh-2", OwnerID: "driver-2", Make: "VW", Model: "Golf", Seats: 4}))

	lk, err := lookup.New(store, lookup.Config{})
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	notifier := &recordingNotifier{}

	svc := New(
		store,
		uow.New(store, uow.Config{}),
		lk,
		notify.NewHooks(nil, nil, notifier, logger),
		logger,
		Config{Now: func() time.Time { return testNow }},
	)

	return &rideEnv{store: store, svc: svc, notifier: notifier}
}

func draft(seats int, departure *time.Time, minutes *int) domain.RideDraft {
	return domain.RideDraft{
		VehicleID:       "veh-1",
		StartLocation:   "Bern",
		EndLocation:     "Basel",
		DepartureTime:   departure,
		PricePerSeat:    25,
		SeatsTotal:      seats,
		DurationMinutes: minutes,
	}
}

func ptr[T any](v T) *T { return &v }

func (e *rideEnv) ride(t *testing.T, id uuid.UUID) *domain.Ride {
	t.Helper()
	r, err := e.store.Rides().Get(context.Background(), id)
	require.NoError(t, err)
	return r
}

func (e *rideEnv) addBooking(t *testing.T, rideID uuid.UUID, riderID string, seats int, status domain.BookingStatus) domain.Booking {
	t.Helper()
	b := domain.Booking{
		ID:        uuid.New(),
		RideID:    rideID,
		RiderID:   riderID,
		Seats:     seats,
		Status:    status,
		CreatedAt: testNow,
		UpdatedAt: testNow,
	}
	require.NoError(t, e.store.Bookings().Create(context.Background(), &b))
	return b
}

func TestCreateRide(t *testing.T) {
	ctx := context.Background()
	env := setupRides(t)

	r, err := env.svc.Create(ctx, "driver-1", draft(3, ptr(testNow.Add(time.Hour)), nil))
	require.NoError(t, err)
	assert.Equal(t, domain.RideOpen, r.Status)
	assert.Equal(t, 3, r.SeatsTotal)
	assert.Equal(t, 3, r.SeatsFree)
	assert.Equal(t, "driver-1", r.DriverID)
	assert.Equal(t, testNow, r.CreatedAt)

	stored := env.ride(t, r.ID)
	assert.Equal(t, r.Status, stored.Status)
	assert.Equal(t, r.SeatsFree, stored.SeatsFree)
}

func TestCreateRideRejects(t *testing.T) {
	ctx := context.Background()
	env := setupRides(t)

	foreign := draft(2, nil, nil)
	foreign.VehicleID = "veh-2"

	unknown := draft(2, nil, nil)
	unknown.VehicleID = "veh-404"

	tests := []struct {
		name    string
		draft   domain.RideDraft
		wantErr error
	}{
		{name: "someone else's vehicle", draft: foreign, wantErr: domain.ErrInvalidVehicle},
		{name: "unknown vehicle", draft: unknown, wantErr: domain.ErrInvalidVehicle},
		{name: "no seats", draft: draft(0, nil, nil), wantErr: domain.ErrValidation},
		{name: "negative duration", draft: draft(2, nil, ptr(-5)), wantErr: domain.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.svc.Create(ctx, "driver-1", tt.draft)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestRideTransitions(t *testing.T) {
	ctx := context.Background()
	env := setupRides(t)

	r, err := env.svc.Create(ctx, "driver-1", draft(2, nil, nil))
	require.NoError(t, err)

	_, err = env.svc.Start(ctx, r.ID, "driver-2")
	require.ErrorIs(t, err, domain.ErrForbidden)

	started, err := env.svc.Start(ctx, r.ID, "driver-1")
	require.NoError(t, err)
	assert.Equal(t, domain.RideInProgress, started.Status)

	_, err = env.svc.Cancel(ctx, r.ID, "driver-1")
	require.ErrorIs(t, err, domain.ErrInvalidState)

	done, err := env.svc.Complete(ctx, r.ID, "driver-1")
	require.NoError(t, err)
	assert.Equal(t, domain.RideCompleted, done.Status)

	_, err = env.svc.Complete(ctx, r.ID, "driver-1")
	require.ErrorIs(t, err, domain.ErrInvalidState)

	_, err = env.svc.Start(ctx, uuid.New(), "driver-1")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCompleteRideFromOpen(t *testing.T) {
	ctx := context.Background()
	env := setupRides(t)

	r, err := env.svc.Create(ctx, "driver-1", draft(2, nil, nil))
	require.NoError(t, err)

	_, err = env.svc.Complete(ctx, r.ID, "driver-2")
	require.ErrorIs(t, err, domain.ErrForbidden)

	done, err := env.svc.Complete(ctx, r.ID, "driver-1")
	require.NoError(t, err)
	assert.Equal(t, domain.RideCompleted, done.Status)
}

func TestCompleteFullRideNeedsStart(t *testing.T) {
	ctx := context.Background()
	env := setupRides(t)

	r, err := env.svc.Create(ctx, "driver-1", draft(1, nil, nil))
	require.NoError(t, err)

	full := env.ride(t, r.ID)
	require.NoError(t, full.Reserve(1))
	require.NoError(t, env.store.Rides().Update(ctx, full))

	_, err = env.svc.Complete(ctx, r.ID, "driver-1")
	require.ErrorIs(t, err, domain.ErrInvalidState)

	_, err = env.svc.Start(ctx, r.ID, "driver-1")
	require.NoError(t, err)

	done, err := env.svc.Complete(ctx, r.ID, "driver-1")
	require.NoError(t, err)
	assert.Equal(t, domain.RideCompleted, done.Status)
}

func TestForceCompleteIgnoresOwner(t *testing.T) {
	ctx := context.Background()
	env := setupRides(t)

	r, err := env.svc.Create(ctx, "driver-1", draft(2, nil, nil))
	require.NoError(t, err)

	done, err := env.svc.ForceComplete(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RideCompleted, done.Status)
}

func TestCancelRideRejectsActiveBookings(t *testing.T) {
	ctx := context.Background()
	env := setupRides(t)

	r, err := env.svc.Create(ctx, "driver-1", draft(3, nil, nil))
	require.NoError(t, err)

	held := env.ride(t, r.ID)
	require.NoError(t, held.Reserve(2))
	require.NoError(t, env.store.Rides().Update(ctx, held))

	approved := env.addBooking(t, r.ID, "rider-1", 2, domain.BookingApproved)
	requested := env.addBooking(t, r.ID, "rider-2", 1, domain.BookingRequested)
	withdrawn := env.addBooking(t, r.ID, "rider-3", 1, domain.BookingCanceled)

	_, err = env.svc.Cancel(ctx, r.ID, "driver-2")
	require.ErrorIs(t, err, domain.ErrForbidden)

	canceled, err := env.svc.Cancel(ctx, r.ID, "driver-1")
	require.NoError(t, err)
	assert.Equal(t, domain.RideCanceled, canceled.Status)
	assert.Equal(t, 1, canceled.SeatsFree)

	for id, want := range map[uuid.UUID]domain.BookingStatus{
		approved.ID:  domain.BookingRejected,
		requested.ID: domain.BookingRejected,
		withdrawn.ID: domain.BookingCanceled,
	} {
		got, err := env.store.Bookings().Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, want, got.Status)
	}

	assert.ElementsMatch(t, []string{"rider-1", "rider-2"}, env.notifier.recipients(notify.KindRideCanceled))

	_, err = env.svc.Cancel(ctx, r.ID, "driver-1")
	require.ErrorIs(t, err, domain.ErrInvalidState)
}
