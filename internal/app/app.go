package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kirinyoku/shareway-go/internal/config"
	"github.com/kirinyoku/shareway-go/internal/discount"
	"github.com/kirinyoku/shareway-go/internal/postgres"
	"github.com/kirinyoku/shareway-go/internal/redis"
	"github.com/kirinyoku/shareway-go/internal/repository"
	"github.com/kirinyoku/shareway-go/internal/repository/memory"
	postgresrepo "github.com/kirinyoku/shareway-go/internal/repository/postgres"
	redisrepo "github.com/kirinyoku/shareway-go/internal/repository/redis"
	"github.com/kirinyoku/shareway-go/internal/service"
	"github.com/kirinyoku/shareway-go/internal/service/ride"
	httpgin "github.com/kirinyoku/shareway-go/internal/transport/http/gin"
	"github.com/kirinyoku/shareway-go/internal/uow"
	"github.com/kirinyoku/shareway-go/migrations"
	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

type App struct {
	cfg        *config.Config
	logger     *slog.Logger
	httpServer *http.Server
	scheduler  *ride.Scheduler

	// set only with postgres storage
	pool   *pgxpool.Pool
	rdb    *goredis.Client
	cache  *redisrepo.Cache
	events *redisrepo.Events
}

func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "app.New"

	a := &App{cfg: cfg, logger: logger}

	deps := service.Deps{Logger: logger}
	var limiter httpgin.BookingLimiter

	switch cfg.Storage {
	case config.StorageMemory:
		store, err := newMemoryStore(cfg.PromoCodes)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		deps.Store = store
		logger.Warn("running on the in-memory store; data is lost on exit")

	default:
		store, err := a.connect(ctx)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		deps.Store = store
		deps.Cache = a.cache
		deps.Events = a.events
		limiter = redisrepo.NewBookingLimiter(a.rdb, redisrepo.BookingLimits{
			PerRider: cfg.Booking.RateLimit,
			PerRide:  cfg.Booking.RateLimitPerRide,
			Window:   cfg.Booking.RateLimitWindow,
		})
	}

	services, err := service.NewServices(deps, service.Config{
		UoW: uow.Config{
			MaxAttempts: cfg.Booking.MaxAttempts,
			Backoff:     10 * time.Millisecond,
		},
	})
	if err != nil {
		a.close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	router := httpgin.NewRouter(services, httpgin.RouterConfig{
		JWTSecret:      []byte(cfg.Auth.JWTSecret),
		BookingLimiter: limiter,
		Logger:         logger,
	})

	a.scheduler = ride.NewScheduler(services.Rides, cfg.Scheduler.Interval, logger)
	a.httpServer = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return a, nil
}

func newMemoryStore(codes string) (*memory.Store, error) {
	promos, err := discount.ParseCodes(codes)
	if err != nil {
		return nil, err
	}

	store := memory.NewStore()
	store.SeedPromos(promos)

	return store, nil
}

// connect opens postgres and redis, applies migrations and builds the
// redis-backed adapters.
func (a *App) connect(ctx context.Context) (repository.Store, error) {
	pool, err := postgres.New(ctx, postgres.Config{DSN: a.cfg.Postgres.DSN()})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize postgres: %w", err)
	}
	a.pool = pool

	applied, err := postgres.Migrate(ctx, pool, migrations.FS)
	if err != nil {
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}
	if len(applied) > 0 {
		a.logger.Info("migrations applied", "versions", applied)
	}

	rdb, err := redis.New(ctx, redis.Config{
		Addr:     a.cfg.Redis.Addr,
		Password: a.cfg.Redis.Password,
		DB:       a.cfg.Redis.DB,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize redis: %w", err)
	}
	a.rdb = rdb
	a.cache = redisrepo.New(rdb, redisrepo.RideTTLs{})
	a.events = redisrepo.NewEvents(rdb)

	return postgresrepo.NewStore(pool), nil
}

func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()
	defer a.close()

	g, gCtx := errgroup.WithContext(ctx)

	// Start HTTP server
	g.Go(func() error {
		a.logger.Info("HTTP server listening", "host", a.cfg.Server.Host, "port", a.cfg.Server.Port)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to start HTTP server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return a.scheduler.Run(gCtx)
	})

	// An instance whose write-through failed leaves a stale ride behind;
	// every change seen on the channel drops cached rides older than it.
	if a.events != nil {
		g.Go(func() error {
			err := a.events.SubscribeRideChanged(gCtx, func(ctx context.Context, ch redisrepo.RideChange) {
				if err := a.cache.InvalidateRide(ctx, ch.RideID, ch.DriverID, ch.Version); err != nil {
					a.logger.Warn("cache invalidation from event failed", "ride_id", ch.RideID, "error", err)
				}
			})
			if err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("ride change subscription: %w", err)
			}
			return nil
		})
	}

	// Graceful shutdown
	g.Go(func() error {
		<-gCtx.Done()
		a.logger.Info("shutting down HTTP server")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return a.httpServer.Shutdown(ctx)
	})

	return g.Wait()
}

func (a *App) close() {
	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			a.logger.Warn("closing redis", "error", err)
		}
	}
	if a.pool != nil {
		a.pool.Close()
	}
}
