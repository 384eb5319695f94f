package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

const defaultPromoCodes = "WELCOME10=10,SHARE20=20,SUMMER15=15"

type Config struct {
	Server    ServerConfig
	Storage   string
	Postgres  PostgresConfig
	Redis     RedisConfig
	Auth      AuthConfig
	Scheduler SchedulerConfig
	Booking   BookingConfig
	// PromoCodes seeds the promo catalog of the in-memory store.
	PromoCodes string
	LogLevel   slog.Level
}

type ServerConfig struct {
	Host string
	Port int
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type PostgresConfig struct {
	User     string
	Password string
	Name     string
	Host     string
	Port     int
	SSLMode  string
}

// DSN renders the pgx connection string.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		p.User,
		p.Password,
		p.Host,
		p.Port,
		p.Name,
		p.SSLMode,
	)
}

type AuthConfig struct {
	JWTSecret string
}

type SchedulerConfig struct {
	Interval time.Duration
}

type BookingConfig struct {
	MaxAttempts int
	// RateLimit caps booking attempts per rider and window.
	RateLimit int
	// RateLimitPerRide caps one rider's attempts on a single ride.
	RateLimitPerRide int
	RateLimitWindow  time.Duration
}

func New() (*Config, error) {
	const op = "config.New"

	_ = godotenv.Load()

	var err error
	cfg := &Config{}

	cfg.Server.Host = envString("SERVER_HOST", "localhost")
	if cfg.Server.Port, err = envInt("SERVER_PORT", 8080); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	cfg.Storage = strings.ToLower(envString("STORAGE", StoragePostgres))
	switch cfg.Storage {
	case StoragePostgres:
		if cfg.Postgres, err = postgresFromEnv(); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	case StorageMemory:
	default:
		return nil, fmt.Errorf("%s: invalid STORAGE %q (want postgres or memory)", op, cfg.Storage)
	}

	cfg.Redis.Addr = envString("REDIS_ADDR", "localhost:6380")
	cfg.Redis.Password = os.Getenv("REDIS_PASSWORD")
	if cfg.Redis.DB, err = envInt("REDIS_DB", 0); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	cfg.Auth.JWTSecret = os.Getenv("JWT_SECRET")
	if cfg.Auth.JWTSecret == "" {
		return nil, fmt.Errorf("%s: missing JWT_SECRET", op)
	}

	if cfg.Scheduler.Interval, err = envDuration("SCHEDULER_INTERVAL", 15*time.Minute); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if cfg.Booking.MaxAttempts, err = envInt("BOOKING_MAX_ATTEMPTS", 5); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if cfg.Booking.RateLimit, err = envInt("RATE_LIMIT_BOOKINGS", 10); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if cfg.Booking.RateLimitPerRide, err = envInt("RATE_LIMIT_BOOKINGS_PER_RIDE", 3); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	cfg.Booking.RateLimitWindow = time.Minute

	cfg.PromoCodes = envString("PROMO_CODES", defaultPromoCodes)

	if err := cfg.LogLevel.UnmarshalText([]byte(envString("LOG_LEVEL", "info"))); err != nil {
		return nil, fmt.Errorf("%s: invalid LOG_LEVEL: %w", op, err)
	}

	return cfg, nil
}

func postgresFromEnv() (PostgresConfig, error) {
	p := PostgresConfig{
		Host:    envString("POSTGRES_HOST", "localhost"),
		SSLMode: envString("POSTGRES_SSLMODE", "disable"),
	}

	var err error
	if p.Port, err = envInt("POSTGRES_PORT", 5432); err != nil {
		return p, err
	}

	for _, req := range []struct {
		key string
		dst *string
	}{
		{"POSTGRES_USER", &p.User},
		{"POSTGRES_PASSWORD", &p.Password},
		{"POSTGRES_DB", &p.Name},
	} {
		*req.dst = os.Getenv(req.key)
		if *req.dst == "" {
			return p, fmt.Errorf("missing %s", req.key)
		}
	}

	return p, nil
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}

	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}

	return v, nil
}

func envDuration(key string, def time.Duration) (time.Duration, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}

	v, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}

	if v <= 0 {
		return 0, fmt.Errorf("invalid %s: must be positive", key)
	}

	return v, nil
}
