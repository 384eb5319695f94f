// Package memory keeps rides and bookings in process memory. Units of work
// run one at a time; their writes are staged and applied only when fn
// returns without error.
package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/kirinyoku/shareway-go/internal/domain"
	"github.com/kirinyoku/shareway-go/internal/repository"
)

type Store struct {
	txMu sync.Mutex

	mu       sync.RWMutex
	rides    map[uuid.UUID]domain.Ride
	bookings map[uuid.UUID]domain.Booking
	vehicles map[string]domain.Vehicle
	riders   map[string]domain.RiderProfile
	promos   map[string]int
	reviews  map[uuid.UUID]domain.Review
	ratings  map[string]domain.DriverRating
}

var _ repository.Store = (*Store)(nil)

func NewStore() *Store {
	return &Store{
		rides:    make(map[uuid.UUID]domain.Ride),
		bookings: make(map[uuid.UUID]domain.Booking),
		vehicles: make(map[string]domain.Vehicle),
		riders:   make(map[string]domain.RiderProfile),
		promos:   make(map[string]int),
		reviews:  make(map[uuid.UUID]domain.Review),
		ratings:  make(map[string]domain.DriverRating),
	}
}

// SeedPromos replaces the promo code table.
func (s *Store) SeedPromos(codes map[string]int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.promos = make(map[string]int, len(codes))
	for code, p := range codes {
		s.promos[strings.ToUpper(code)] = p
	}
}

type txKey struct{}

// tx is the write journal of one unit of work.
type tx struct {
	rides    map[uuid.UUID]domain.Ride
	bookings map[uuid.UUID]domain.Booking
	vehicles map[string]domain.Vehicle
	riders   map[string]domain.RiderProfile
	reviews  map[uuid.UUID]domain.Review
	ratings  map[string]domain.DriverRating
}

func newTx() *tx {
	return &tx{
		rides:    make(map[uuid.UUID]domain.Ride),
		bookings: make(map[uuid.UUID]domain.Booking),
		vehicles: make(map[string]domain.Vehicle),
		riders:   make(map[string]domain.RiderProfile),
		reviews:  make(map[uuid.UUID]domain.Review),
		ratings:  make(map[string]domain.DriverRating),
	}
}

func txFrom(ctx context.Context) *tx {
	t, _ := ctx.Value(txKey{}).(*tx)
	return t
}

// RunTx runs fn as a unit of work. Nested calls join the outer unit.
func (s *Store) RunTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if txFrom(ctx) != nil {
		return fn(ctx)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	t := newTx()
	if err := fn(context.WithValue(ctx, txKey{}, t)); err != nil {
		return err
	}

	s.commit(t)
	return nil
}

// write runs fn against the journal in ctx, or in its own unit of work.
func (s *Store) write(ctx context.Context, fn func(t *tx) error) error {
	return s.RunTx(ctx, func(ctx context.Context) error {
		return fn(txFrom(ctx))
	})
}

func (s *Store) commit(t *tx) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, r := range t.rides {
		s.rides[id] = r
	}
	for id, b := range t.bookings {
		s.bookings[id] = b
	}
	for id, v := range t.vehicles {
		s.vehicles[id] = v
	}
	for id, p := range t.riders {
		s.riders[id] = p
	}
	for id, r := range t.reviews {
		s.reviews[id] = r
	}
	for id, r := range t.ratings {
		s.ratings[id] = r
	}
}

func (s *Store) Rides() repository.RideRepository       { return &RideRepo{s: s} }
func (s *Store) Bookings() repository.BookingRepository { return &BookingRepo{s: s} }
func (s *Store) Vehicles() repository.VehicleRepository { return &VehicleRepo{s: s} }
func (s *Store) Riders() repository.RiderRepository     { return &RiderRepo{s: s} }
func (s *Store) Promos() repository.PromoRepository     { return &PromoRepo{s: s} }
func (s *Store) Reviews() repository.ReviewRepository   { return &ReviewRepo{s: s} }
func (s *Store) Ratings() repository.RatingRepository   { return &RatingRepo{s: s} }
