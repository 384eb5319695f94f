package query

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/kirinyoku/shareway-go/internal/domain"
	"github.com/kirinyoku/shareway-go/internal/repository"
	redisrepo "github.com/kirinyoku/shareway-go/internal/repository/redis"
)

const maxLocationFilter = 100

type Config struct {
	RideBookingsTTL  time.Duration
	DashboardTTL     time.Duration
	DefaultRidesPage int
	MaxRidesPage     int
}

// Service serves read models. cache may be nil, in which case every read
// goes to the store.
type Service struct {
	store repository.Store
	cache *redisrepo.Cache
	cfg   Config
}

func New(store repository.Store, cache *redisrepo.Cache, cfg Config) *Service {
	if cfg.RideBookingsTTL <= 0 {
		cfg.RideBookingsTTL = 15 * time.Second
	}

	if cfg.DashboardTTL <= 0 {
		cfg.DashboardTTL = 30 * time.Second
	}

	if cfg.DefaultRidesPage <= 0 {
		cfg.DefaultRidesPage = 50
	}

	if cfg.MaxRidesPage <= 0 {
		cfg.MaxRidesPage = 200
	}

	return &Service{
		store: store,
		cache: cache,
		cfg:   cfg,
	}
}

func cached[T any](
	ctx context.Context,
	s *Service,
	key string,
	ttl time.Duration,
	load func(ctx context.Context) (T, error),
) (T, error) {
	if s.cache == nil {
		return load(ctx)
	}
	return redisrepo.GetOrSetJSON(ctx, s.cache, key, redisrepo.FixedTTL[T](ttl), load)
}

// GetRide retrieves a ride by its ID, utilizing a caching layer when one
// is configured. Cached rides live as long as their status allows.
//
// Parameters:
//   - ctx: request-scoped context.
//   - id: ID of the ride to retrieve.
//
// Returns:
//   - *domain.Ride: the retrieved ride.
//   - error: domain.ErrNotFound if the ride does not exist.
func (s *Service) GetRide(ctx context.Context, id uuid.UUID) (*domain.Ride, error) {
	const op = "service.query.GetRide"

	load := func(ctx context.Context) (domain.Ride, error) {
		r, err := s.store.Rides().Get(ctx, id)
		if err != nil {
			return domain.Ride{}, rideErr(id, err)
		}
		return *r, nil
	}

	var (
		ride domain.Ride
		err  error
	)
	if s.cache == nil {
		ride, err = load(ctx)
	} else {
		ride, err = s.cache.Ride(ctx, id, load)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &ride, nil
}

// ListRides searches rides. Without statuses only OPEN rides are returned.
// Location filters are trimmed and match partially, ignoring case.
// The page size is clamped to the configured maximum.
func (s *Service) ListRides(ctx context.Context, f repository.RideFilter) ([]domain.Ride, error) {
	const op = "service.query.ListRides"

	if f.MaxPrice < 0 || f.MinSeats < 0 || f.Offset < 0 {
		return nil, fmt.Errorf("%s: %w", op, ErrNegativeFilter)
	}

	f.StartLocation = strings.TrimSpace(f.StartLocation)
	f.EndLocation = strings.TrimSpace(f.EndLocation)
	if utf8.RuneCountInString(f.StartLocation) > maxLocationFilter || utf8.RuneCountInString(f.EndLocation) > maxLocationFilter {
		return nil, fmt.Errorf("%s: %w", op, ErrLongLocation)
	}

	for _, st := range f.Statuses {
		if !st.Valid() {
			return nil, fmt.Errorf("%s: %w", op, ErrUnknownStatus)
		}
	}

	if len(f.Statuses) == 0 {
		f.Statuses = []domain.RideStatus{domain.RideOpen}
	}

	if f.Limit <= 0 {
		f.Limit = s.cfg.DefaultRidesPage
	}

	if f.Limit > s.cfg.MaxRidesPage {
		f.Limit = s.cfg.MaxRidesPage
	}

	rides, err := s.store.Rides().List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return rides, nil
}

// ListBookingsForRide returns every booking on the ride. Only its driver
// may see them.
//
// Returns:
//   - []domain.Booking: bookings in creation order.
//   - error: domain.ErrNotFound or ErrNotRideDriver.
func (s *Service) ListBookingsForRide(ctx context.Context, rideID uuid.UUID, driverID string) ([]domain.Booking, error) {
	const op = "service.query.ListBookingsForRide"

	ride, err := s.GetRide(ctx, rideID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if ride.DriverID != driverID {
		return nil, fmt.Errorf("%s: %w", op, ErrNotRideDriver)
	}

	bookings, err := cached(ctx, s, redisrepo.KeyRideBookings(rideID), s.cfg.RideBookingsTTL, func(ctx context.Context) ([]domain.Booking, error) {
		return s.store.Bookings().ListByRide(ctx, rideID)
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return bookings, nil
}

func (s *Service) ListBookingsForRider(ctx context.Context, riderID string) ([]domain.Booking, error) {
	const op = "service.query.ListBookingsForRider"

	bookings, err := s.store.Bookings().ListByRider(ctx, riderID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return bookings, nil
}

// GetBooking is visible to the booking's rider and to the ride's driver.
func (s *Service) GetBooking(ctx context.Context, bookingID uuid.UUID, callerID string) (*domain.Booking, error) {
	const op = "service.query.GetBooking"

	b, err := s.store.Bookings().Get(ctx, bookingID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, domain.NotFoundError{Entity: "booking", ID: bookingID.String()})
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if b.RiderID == callerID {
		return b, nil
	}

	ride, err := s.GetRide(ctx, b.RideID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if ride.DriverID != callerID {
		return nil, fmt.Errorf("%s: %w", op, ErrNotParticipant)
	}

	return b, nil
}

// DriverDashboard groups all of the driver's rides by status.
//
// Parameters:
//   - ctx: request-scoped context.
//   - driverID: the driver whose rides are summarised.
//
// Returns:
//   - *domain.Dashboard: total and per-status counts with ride IDs. Statuses
//     without rides are absent.
//   - error: storage failures only.
func (s *Service) DriverDashboard(ctx context.Context, driverID string) (*domain.Dashboard, error) {
	const op = "service.query.DriverDashboard"

	dash, err := cached(ctx, s, redisrepo.KeyDriverDashboard(driverID), s.cfg.DashboardTTL, func(ctx context.Context) (domain.Dashboard, error) {
		rides, err := s.store.Rides().List(ctx, repository.RideFilter{DriverID: driverID})
		if err != nil {
			return domain.Dashboard{}, err
		}
		return buildDashboard(driverID, rides), nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &dash, nil
}

func buildDashboard(driverID string, rides []domain.Ride) domain.Dashboard {
	d := domain.Dashboard{
		DriverID:   driverID,
		TotalRides: len(rides),
		ByStatus:   make(map[domain.RideStatus]domain.StatusGroup),
	}

	for _, r := range rides {
		g := d.ByStatus[r.Status]
		g.Count++
		g.RideIDs = append(g.RideIDs, r.ID)
		d.ByStatus[r.Status] = g
	}

	return d
}

func rideErr(id uuid.UUID, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return domain.NotFoundError{Entity: "ride", ID: id.String()}
	}
	return err
}
