package service

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/kirinyoku/shareway-go/internal/discount"
	"github.com/kirinyoku/shareway-go/internal/repository"
	redisrepo "github.com/kirinyoku/shareway-go/internal/repository/redis"
	"github.com/kirinyoku/shareway-go/internal/service/account"
	"github.com/kirinyoku/shareway-go/internal/service/booking"
	"github.com/kirinyoku/shareway-go/internal/service/lookup"
	"github.com/kirinyoku/shareway-go/internal/service/notify"
	"github.com/kirinyoku/shareway-go/internal/service/pricing"
	"github.com/kirinyoku/shareway-go/internal/service/query"
	"github.com/kirinyoku/shareway-go/internal/service/review"
	"github.com/kirinyoku/shareway-go/internal/service/ride"
	"github.com/kirinyoku/shareway-go/internal/uow"
)

type Services struct {
	Rides    *ride.Service
	Bookings *booking.Service
	Query    *query.Service
	Pricing  *pricing.Service
	Accounts *account.Service
	Reviews  *review.Service
}

type Config struct {
	UoW    uow.Config
	Lookup lookup.Config
	Query  query.Config
	// Now is the clock every service reads. Defaults to time.Now.
	Now func() time.Time
}

// Deps are the adapters the services run on. Cache and Events may be nil
// when running without redis; Notifier then falls back to the log.
type Deps struct {
	Store    repository.Store
	Cache    *redisrepo.Cache
	Events   *redisrepo.Events
	Notifier notify.Notifier
	Logger   *slog.Logger
}

func NewServices(deps Deps, cfg Config) (*Services, error) {
	const op = "service.NewServices"

	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	lk, err := lookup.New(deps.Store, cfg.Lookup)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	// typed nil pointers must not reach the hook interfaces
	var (
		cache     notify.RideCache
		publisher notify.RidePublisher
		notifier  = deps.Notifier
	)
	if deps.Cache != nil {
		cache = deps.Cache
	}
	if deps.Events != nil {
		publisher = deps.Events
		if notifier == nil {
			notifier = deps.Events
		}
	}
	if notifier == nil {
		notifier = notify.NewLogSink(deps.Logger)
	}

	hooks := notify.NewHooks(cache, publisher, notifier, deps.Logger)
	tx := uow.New(deps.Store, cfg.UoW)
	catalog := discount.NewCatalog(lk)

	return &Services{
		Rides:    ride.New(deps.Store, tx, lk, hooks, deps.Logger, ride.Config{Now: cfg.Now}),
		Bookings: booking.New(deps.Store, tx, catalog, lk, hooks, booking.Config{Now: cfg.Now}),
		Query:    query.New(deps.Store, deps.Cache, cfg.Query),
		Pricing:  pricing.New(deps.Store, catalog),
		Accounts: account.New(deps.Store, tx, account.Config{Now: cfg.Now}),
		Reviews:  review.New(deps.Store, tx, hooks, review.Config{Now: cfg.Now}),
	}, nil
}
