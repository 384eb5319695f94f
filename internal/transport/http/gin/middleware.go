package httpgin

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/google/uuid"
	redisrepo "github.com/kirinyoku/shareway-go/internal/repository/redis"
)

func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := c.GetHeader("X-Request-ID")
		if reqID == "" {
			reqID = uuid.New().String()
		}

		c.Writer.Header().Set("X-Request-ID", reqID)
		c.Set("request_id", reqID)

		c.Next()
	}
}

func CORS() gin.HandlerFunc {
	cfg := cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{
			"GET", "POST", "PUT", "OPTIONS",
		},
		AllowHeaders: []string{
			"Origin",
			"Content-Type",
			"Accept",
			"Authorization",
			"X-Request-ID",
			"If-None-Match",
		},
		ExposeHeaders: []string{
			"X-Request-ID",
			"ETag",
			"Cache-Control",
			"Retry-After",
		},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}

	return cors.New(cfg)
}

// LoggingMiddleware writes one structured line per request. Requests that
// recorded errors through c.Error are logged at error level with them.
func LoggingMiddleware(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		if raw := c.Request.URL.RawQuery; raw != "" {
			path = path + "?" + raw
		}

		c.Next()

		reqID, _ := c.Get("request_id")

		attrs := []any{
			slog.Int("status", c.Writer.Status()),
			slog.String("method", c.Request.Method),
			slog.String("path", path),
			slog.String("ip", c.ClientIP()),
			slog.Any("request_id", reqID),
			slog.Duration("latency", time.Since(start)),
			slog.Int("bytes_out", c.Writer.Size()),
		}

		if sub := identity(c).Subject; sub != "" {
			attrs = append(attrs, slog.String("user", sub))
		}

		if len(c.Errors) > 0 {
			attrs = append(attrs, slog.String("errors", c.Errors.String()))
			logger.Error("http", slog.Group("http", attrs...))
			return
		}

		logger.Info("http", slog.Group("http", attrs...))
	}
}

// BookingLimiter decides whether a rider may request seats on a ride.
type BookingLimiter interface {
	AllowBooking(ctx context.Context, riderID string, rideID uuid.UUID) (redisrepo.Decision, error)
}

// ThrottleBookings limits POST /bookings per rider and per (rider, ride).
// The body is bound here and kept for the handler; a body the handler will
// reject anyway is not counted. A limiter error lets the request through.
func ThrottleBookings(l BookingLimiter, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if l == nil {
			c.Next()
			return
		}

		var req CreateBookingRequest
		if err := c.ShouldBindBodyWith(&req, binding.JSON); err != nil {
			c.Next()
			return
		}

		rideID, err := uuid.Parse(req.RideID)
		if err != nil {
			c.Next()
			return
		}

		riderID := identity(c).Subject

		d, err := l.AllowBooking(c.Request.Context(), riderID, rideID)
		if err != nil {
			logger.Warn("booking limiter unavailable", "rider_id", riderID, "ride_id", rideID, "error", err)
			c.Next()
			return
		}

		if !d.Allowed {
			secs := int(d.RetryAfter.Round(time.Second) / time.Second)
			if secs < 1 {
				secs = 1
			}
			c.Header("Retry-After", strconv.Itoa(secs))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, RateLimitResponse{
				Error:             "too many booking attempts",
				Scope:             string(d.Scope),
				Current:           d.Current,
				Limit:             d.Limit,
				RetryAfterSeconds: secs,
			})
			return
		}

		c.Header("X-RateLimit-Remaining", strconv.FormatInt(max(int64(d.Limit)-d.Current, 0), 10))
		c.Next()
	}
}
