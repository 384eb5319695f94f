package redis

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Two sliding windows over sorted sets, checked and recorded together.
// KEYS[1] = every booking attempt of the rider
// KEYS[2] = the rider's attempts on one ride
// ARGV[1] = now_ms
// ARGV[2] = window_ms
// ARGV[3] = rider limit
// ARGV[4] = ride limit
// ARGV[5] = member (unique)
//
// Rejected attempts are not recorded, so hammering the endpoint does not
// push the rider's window further out.
const luaBookingWindows = `
local rider_key = KEYS[1]
local ride_key = KEYS[2]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local rider_limit = tonumber(ARGV[3])
local ride_limit = tonumber(ARGV[4])
local member = ARGV[5]

local function retry_ms(key)
  local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
  local score = tonumber(oldest[2]) or now
  local ms = window - (now - score)
  if ms < 0 then ms = 0 end
  return ms
end

redis.call('ZREMRANGEBYSCORE', rider_key, 0, now - window)
redis.call('ZREMRANGEBYSCORE', ride_key, 0, now - window)

local rider_count = redis.call('ZCARD', rider_key)
if rider_count >= rider_limit then
  return {0, 1, rider_count, retry_ms(rider_key)}
end

local ride_count = redis.call('ZCARD', ride_key)
if ride_count >= ride_limit then
  return {0, 2, ride_count, retry_ms(ride_key)}
end

redis.call('ZADD', rider_key, now, member)
redis.call('ZADD', ride_key, now, member)
redis.call('PEXPIRE', rider_key, window)
redis.call('PEXPIRE', ride_key, window)
return {1, 0, rider_count + 1, 0}
`

// LimitScope names the window that turned a booking attempt away.
type LimitScope string

const (
	ScopeRider LimitScope = "rider"
	ScopeRide  LimitScope = "ride"
)

type BookingLimits struct {
	// PerRider caps booking attempts of one rider across all rides.
	PerRider int
	// PerRide caps one rider's attempts on a single ride.
	PerRide int
	Window  time.Duration
}

// Decision is the limiter's answer for one booking attempt. Current and
// Limit describe the rider window when the attempt is allowed, and the
// rejecting window otherwise.
type Decision struct {
	Allowed    bool
	Scope      LimitScope
	Current    int64
	Limit      int
	RetryAfter time.Duration
}

// BookingLimiter throttles booking creation per rider and per (rider, ride).
type BookingLimiter struct {
	rdb    *redis.Client
	limits BookingLimits
	script *redis.Script
}

func NewBookingLimiter(rdb *redis.Client, limits BookingLimits) *BookingLimiter {
	if limits.PerRider <= 0 {
		limits.PerRider = 10
	}

	if limits.PerRide <= 0 {
		limits.PerRide = 3
	}

	if limits.Window <= 0 {
		limits.Window = time.Minute
	}

	return &BookingLimiter{
		rdb:    rdb,
		limits: limits,
		script: redis.NewScript(luaBookingWindows),
	}
}

// AllowBooking records an attempt by riderID on rideID when both windows
// have room for it.
func (l *BookingLimiter) AllowBooking(ctx context.Context, riderID string, rideID uuid.UUID) (Decision, error) {
	const op = "redis.BookingLimiter.AllowBooking"

	res, err := l.script.Run(
		ctx,
		l.rdb,
		[]string{KeyBookingAttempts(riderID), KeyRideAttempts(riderID, rideID)},
		time.Now().UnixMilli(),
		l.limits.Window.Milliseconds(),
		l.limits.PerRider,
		l.limits.PerRide,
		randomHex(12),
	).Result()
	if err != nil {
		return Decision{}, fmt.Errorf("%s: %w", op, err)
	}

	d, err := decodeDecision(res, l.limits)
	if err != nil {
		return Decision{}, fmt.Errorf("%s: %w", op, err)
	}

	return d, nil
}

func decodeDecision(res any, limits BookingLimits) (Decision, error) {
	arr, ok := res.([]any)
	if !ok || len(arr) != 4 {
		return Decision{}, fmt.Errorf("bad script result: %v", res)
	}

	d := Decision{
		Allowed:    toInt(arr[0]) == 1,
		Current:    toInt(arr[2]),
		RetryAfter: time.Duration(toInt(arr[3])) * time.Millisecond,
		Limit:      limits.PerRider,
	}

	switch toInt(arr[1]) {
	case 0:
	case 1:
		d.Scope = ScopeRider
	case 2:
		d.Scope = ScopeRide
		d.Limit = limits.PerRide
	default:
		return Decision{}, fmt.Errorf("bad limit scope: %v", arr[1])
	}

	return d, nil
}

func toInt(v any) int64 {
	switch t := v.(type) {
	case int64:
		return t
	case int:
		return int64(t)
	case float64:
		return int64(t)
	case string:
		x, _ := strconv.ParseInt(t, 10, 64)
		return x
	default:
		return 0
	}
}

func randomHex(n int) string {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
