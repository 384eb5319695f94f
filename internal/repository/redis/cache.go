package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/kirinyoku/shareway-go/internal/domain"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// KEYS[1] = ride key
// ARGV[1] = ride json
// ARGV[2] = ride version
// ARGV[3] = ttl_ms
const luaSetRideIfNewer = `
local cur = redis.call('GET', KEYS[1])
if cur then
  local ok, obj = pcall(cjson.decode, cur)
  if ok and type(obj) == 'table' and tonumber(obj['version']) and tonumber(obj['version']) >= tonumber(ARGV[2]) then
    return 0
  end
end
redis.call('SET', KEYS[1], ARGV[1], 'PX', ARGV[3])
return 1
`

// KEYS[1] = ride key
// ARGV[1] = version the caller knows about, 0 for any
const luaDropRideIfOlder = `
local cur = redis.call('GET', KEYS[1])
if not cur then return 0 end
local min = tonumber(ARGV[1])
if min > 0 then
  local ok, obj = pcall(cjson.decode, cur)
  if ok and type(obj) == 'table' and tonumber(obj['version']) and tonumber(obj['version']) >= min then
    return 0
  end
end
redis.call('DEL', KEYS[1])
return 1
`

// RideTTLs decide how long a ride stays cached. Seat counts of open rides
// move with every approval; completed and canceled rides never change.
type RideTTLs struct {
	Open time.Duration
	// Busy covers FULL and IN_PROGRESS rides.
	Busy     time.Duration
	Terminal time.Duration
}

func (p RideTTLs) withDefaults() RideTTLs {
	if p.Open <= 0 {
		p.Open = 30 * time.Second
	}

	if p.Busy <= 0 {
		p.Busy = 2 * time.Minute
	}

	if p.Terminal <= 0 {
		p.Terminal = time.Hour
	}

	return p
}

func (p RideTTLs) For(status domain.RideStatus) time.Duration {
	switch {
	case status.IsTerminal():
		return p.Terminal
	case status == domain.RideOpen:
		return p.Open
	default:
		return p.Busy
	}
}

// Cache stores ride read models as JSON. Concurrent misses on one key
// share a single load.
type Cache struct {
	rdb       *redis.Client
	sf        singleflight.Group
	ttls      RideTTLs
	setNewer  *redis.Script
	dropOlder *redis.Script
}

func New(client *redis.Client, ttls RideTTLs) *Cache {
	return &Cache{
		rdb:       client,
		ttls:      ttls.withDefaults(),
		setNewer:  redis.NewScript(luaSetRideIfNewer),
		dropOlder: redis.NewScript(luaDropRideIfOlder),
	}
}

func GetJSON[T any](ctx context.Context, c *Cache, key string) (T, bool, error) {
	var out T

	s, err := c.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return out, false, nil
	}
	if err != nil {
		return out, false, err
	}

	if err := json.Unmarshal([]byte(s), &out); err != nil {
		var zero T
		return zero, false, err
	}

	return out, true, nil
}

// FixedTTL keeps every value for d.
func FixedTTL[T any](d time.Duration) func(T) time.Duration {
	return func(T) time.Duration { return d }
}

// GetOrSetJSON returns the cached value under key, or calls loader and
// caches its result for ttl(result). A non-positive ttl leaves the value
// uncached. Loader errors are not cached.
func GetOrSetJSON[T any](
	ctx context.Context,
	c *Cache,
	key string,
	ttl func(T) time.Duration,
	loader func(ctx context.Context) (T, error),
) (T, error) {
	if v, ok, err := GetJSON[T](ctx, c, key); err != nil || ok {
		return v, err
	}

	vAny, err, _ := c.sf.Do(key, func() (any, error) {
		if v, ok, err := GetJSON[T](ctx, c, key); err != nil || ok {
			return v, err
		}

		v, err := loader(ctx)
		if err != nil {
			return nil, err
		}

		if d := ttl(v); d > 0 {
			if b, err := json.Marshal(v); err == nil {
				_ = c.rdb.Set(ctx, key, b, d).Err()
			}
		}

		return v, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}

	v, ok := vAny.(T)
	if !ok {
		var zero T
		return zero, errors.New("type assertion failed")
	}

	return v, nil
}

// Ride serves a ride through the cache for as long as its status allows.
func (c *Cache) Ride(ctx context.Context, id uuid.UUID, loader func(ctx context.Context) (domain.Ride, error)) (domain.Ride, error) {
	return GetOrSetJSON(ctx, c, KeyRide(id), func(r domain.Ride) time.Duration {
		return c.ttls.For(r.Status)
	}, loader)
}

// RefreshRide writes a committed ride through to the cache, unless a newer
// version is already there, and drops the views derived from it.
func (c *Cache) RefreshRide(ctx context.Context, ride domain.Ride) error {
	const op = "redis.Cache.RefreshRide"

	b, err := json.Marshal(ride)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := c.setNewer.Run(ctx, c.rdb,
		[]string{KeyRide(ride.ID)},
		b, ride.Version, c.ttls.For(ride.Status).Milliseconds(),
	).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return c.dropDerived(ctx, ride.ID, ride.DriverID)
}

// InvalidateRide drops the cached ride if it is older than version, and
// every view derived from it. A zero version drops the ride regardless.
func (c *Cache) InvalidateRide(ctx context.Context, rideID uuid.UUID, driverID string, version int64) error {
	const op = "redis.Cache.InvalidateRide"

	if err := c.dropOlder.Run(ctx, c.rdb, []string{KeyRide(rideID)}, version).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return c.dropDerived(ctx, rideID, driverID)
}

func (c *Cache) dropDerived(ctx context.Context, rideID uuid.UUID, driverID string) error {
	return c.rdb.Del(ctx, KeyRideBookings(rideID), KeyDriverDashboard(driverID)).Err()
}
