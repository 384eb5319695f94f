package httpgin

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/google/uuid"
	"github.com/kirinyoku/shareway-go/internal/domain"
	"github.com/kirinyoku/shareway-go/internal/repository"
	"github.com/kirinyoku/shareway-go/internal/service"
	"github.com/kirinyoku/shareway-go/internal/service/review"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

type RouterConfig struct {
	JWTSecret []byte
	// BookingLimiter throttles POST /bookings. Nil disables it.
	BookingLimiter BookingLimiter
	Logger         *slog.Logger
	Now            func() time.Time
}

func NewRouter(
	svcs *service.Services,
	cfg RouterConfig,
	middlewares ...gin.HandlerFunc,
) *gin.Engine {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	r := gin.New()

	r.Use(gin.Recovery(), LoggingMiddleware(cfg.Logger), RequestIDMiddleware(), CORS())
	for _, m := range middlewares {
		if m != nil {
			r.Use(m)
		}
	}

	// Swagger UI
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Public API
	r.GET("/rides", handleListRides(svcs))
	r.GET("/rides/:id", handleGetRide(svcs))
	r.GET("/promos/:code/quote", handleQuotePromo(svcs))
	r.POST("/promos/quote", handleQuoteRides(svcs))
	r.GET("/reviews/:id", handleGetReview(svcs))
	r.GET("/reviews/ride/:id", handleListRideReviews(svcs))
	r.GET("/reviews/user/:id", handleListDriverReviews(svcs))
	r.GET("/drivers/:id/rating", handleDriverRating(svcs))

	authed := r.Group("/", AuthMiddleware(cfg.JWTSecret))
	{
		authed.GET("/profile", handleGetProfile(svcs))
		authed.PUT("/profile", handleSaveProfile(svcs))
		authed.POST("/vehicles", handleRegisterVehicle(svcs))
		authed.GET("/vehicles/me", handleListVehicles(svcs))

		authed.POST("/rides", handleCreateRide(svcs))
		authed.POST("/rides/:id/start", handleStartRide(svcs))
		authed.POST("/rides/:id/complete", handleCompleteRide(svcs))
		authed.POST("/rides/:id/cancel", handleCancelRide(svcs))
		authed.GET("/rides/:id/bookings", handleListRideBookings(svcs))
		authed.GET("/drivers/me/dashboard", handleDashboard(svcs))

		authed.POST("/bookings", ThrottleBookings(cfg.BookingLimiter, cfg.Logger), handleCreateBooking(svcs))
		authed.GET("/bookings/me", handleListMyBookings(svcs))
		authed.GET("/bookings/:id", handleGetBooking(svcs))
		authed.POST("/bookings/:id/approve", handleApproveBooking(svcs))
		authed.POST("/bookings/:id/reject", handleRejectBooking(svcs))
		authed.POST("/bookings/:id/cancel", handleCancelBooking(svcs))

		authed.POST("/reviews", handleCreateReview(svcs))
	}

	admin := r.Group("/admin", AuthMiddleware(cfg.JWTSecret), RequireRole(RoleAdmin))
	{
		admin.POST("/rides/:id/complete", handleForceCompleteRide(svcs))
		admin.POST("/scheduler/tick", handleSchedulerTick(svcs, cfg.Now))
	}

	return r
}

// --- Rides ---

// @Summary  List rides
// @Param    status          query  string  false  "comma separated statuses, default OPEN"
// @Param    start_location  query  string  false  "partial, case-insensitive match on the start"
// @Param    end_location    query  string  false  "partial, case-insensitive match on the destination"
// @Param    max_price       query  number  false  "upper bound for price per seat"
// @Param    min_seats       query  int     false  "minimum free seats"
// @Param    limit           query  int     false  "page size"
// @Param    offset          query  int     false  "offset"
// @Success  200  {array}   domain.Ride
// @Failure  400  {object}  ErrorResponse
// @Router   /rides [get]
func handleListRides(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		f, ok := parseRideFilter(c)
		if !ok {
			return
		}
		rides, err := svcs.Query.ListRides(c.Request.Context(), f)
		if err != nil {
			respondErr(c, err)
			return
		}
		writeJSONWithCache(c, http.StatusOK, rides, "public, max-age=15")
	}
}

// @Summary  Get ride
// @Param    id  path  string  true  "Ride ID (uuid)"
// @Success  200  {object}  domain.Ride
// @Success  304
// @Failure  404  {object}  ErrorResponse
// @Router   /rides/{id} [get]
func handleGetRide(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		ride, err := svcs.Query.GetRide(c.Request.Context(), id)
		if err != nil {
			respondErr(c, err)
			return
		}
		writeJSONWithCache(c, http.StatusOK, ride, "public, max-age=30")
	}
}

// @Summary  Offer a ride
// @Security BearerAuth
// @Param    req  body  CreateRideRequest  true  "payload"
// @Success  201  {object}  domain.Ride
// @Failure  400  {object}  ErrorResponse
// @Failure  422  {object}  ErrorResponse  "vehicle not owned"
// @Router   /rides [post]
func handleCreateRide(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateRideRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		ride, err := svcs.Rides.Create(c.Request.Context(), identity(c).Subject, req.draft())
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusCreated, ride)
	}
}

// @Summary  Start a ride
// @Security BearerAuth
// @Param    id  path  string  true  "Ride ID (uuid)"
// @Success  200  {object}  domain.Ride
// @Failure  403  {object}  ErrorResponse
// @Failure  409  {object}  ErrorResponse
// @Router   /rides/{id}/start [post]
func handleStartRide(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		ride, err := svcs.Rides.Start(c.Request.Context(), id, identity(c).Subject)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, ride)
	}
}

// @Summary  Complete a ride
// @Security BearerAuth
// @Param    id  path  string  true  "Ride ID (uuid)"
// @Success  200  {object}  domain.Ride
// @Failure  403  {object}  ErrorResponse
// @Failure  409  {object}  ErrorResponse
// @Router   /rides/{id}/complete [post]
func handleCompleteRide(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		ride, err := svcs.Rides.Complete(c.Request.Context(), id, identity(c).Subject)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, ride)
	}
}

// @Summary  Cancel a ride and reject its bookings
// @Security BearerAuth
// @Param    id  path  string  true  "Ride ID (uuid)"
// @Success  200  {object}  domain.Ride
// @Failure  403  {object}  ErrorResponse
// @Failure  409  {object}  ErrorResponse
// @Router   /rides/{id}/cancel [post]
func handleCancelRide(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		ride, err := svcs.Rides.Cancel(c.Request.Context(), id, identity(c).Subject)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, ride)
	}
}

// @Summary  List a ride's bookings (driver only)
// @Security BearerAuth
// @Param    id  path  string  true  "Ride ID (uuid)"
// @Success  200  {array}   domain.Booking
// @Failure  403  {object}  ErrorResponse
// @Router   /rides/{id}/bookings [get]
func handleListRideBookings(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		bookings, err := svcs.Query.ListBookingsForRide(c.Request.Context(), id, identity(c).Subject)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, nonNil(bookings))
	}
}

// @Summary  Driver dashboard
// @Security BearerAuth
// @Success  200  {object}  domain.Dashboard
// @Router   /drivers/me/dashboard [get]
func handleDashboard(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		dash, err := svcs.Query.DriverDashboard(c.Request.Context(), identity(c).Subject)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, dash)
	}
}

// --- Bookings ---

// @Summary  Request seats on a ride
// @Security BearerAuth
// @Param    req  body  CreateBookingRequest  true  "payload"
// @Success  201  {object}  domain.Booking
// @Failure  400  {object}  ErrorResponse
// @Failure  401  {object}  ErrorResponse  "profile incomplete"
// @Failure  403  {object}  ErrorResponse  "own ride"
// @Failure  409  {object}  ErrorResponse  "already booked / not open / no seats"
// @Failure  429  {object}  RateLimitResponse  "too many attempts by this rider or on this ride"
// @Router   /bookings [post]
func handleCreateBooking(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateBookingRequest
		if err := c.ShouldBindBodyWith(&req, binding.JSON); err != nil {
			badRequest(c, err.Error())
			return
		}
		rideID, err := uuid.Parse(req.RideID)
		if err != nil {
			badRequest(c, "invalid ride_id")
			return
		}
		b, err := svcs.Bookings.Create(c.Request.Context(), identity(c).Subject, domain.BookingRequest{
			RideID:         rideID,
			Seats:          req.Seats,
			PickupLocation: req.PickupLocation,
			Message:        req.Message,
			PromoCode:      req.PromoCode,
		})
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusCreated, b)
	}
}

// @Summary  List my bookings
// @Security BearerAuth
// @Success  200  {array}  domain.Booking
// @Router   /bookings/me [get]
func handleListMyBookings(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		bookings, err := svcs.Query.ListBookingsForRider(c.Request.Context(), identity(c).Subject)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, nonNil(bookings))
	}
}

// @Summary  Get booking (rider or driver)
// @Security BearerAuth
// @Param    id  path  string  true  "Booking ID (uuid)"
// @Success  200  {object}  domain.Booking
// @Failure  403  {object}  ErrorResponse
// @Failure  404  {object}  ErrorResponse
// @Router   /bookings/{id} [get]
func handleGetBooking(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		b, err := svcs.Query.GetBooking(c.Request.Context(), id, identity(c).Subject)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, b)
	}
}

// @Summary  Approve a booking (driver)
// @Security BearerAuth
// @Param    id  path  string  true  "Booking ID (uuid)"
// @Success  200  {object}  domain.Booking
// @Failure  403  {object}  ErrorResponse
// @Failure  409  {object}  ErrorResponse  "not requested / capacity exceeded"
// @Router   /bookings/{id}/approve [post]
func handleApproveBooking(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		b, err := svcs.Bookings.Approve(c.Request.Context(), id, identity(c).Subject)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, b)
	}
}

// @Summary  Reject a booking (driver)
// @Security BearerAuth
// @Param    id  path  string  true  "Booking ID (uuid)"
// @Success  200  {object}  domain.Booking
// @Failure  403  {object}  ErrorResponse
// @Failure  409  {object}  ErrorResponse
// @Router   /bookings/{id}/reject [post]
func handleRejectBooking(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		b, err := svcs.Bookings.Reject(c.Request.Context(), id, identity(c).Subject)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, b)
	}
}

// @Summary  Cancel my booking
// @Security BearerAuth
// @Param    id  path  string  true  "Booking ID (uuid)"
// @Success  200  {object}  domain.Booking
// @Failure  403  {object}  ErrorResponse
// @Failure  409  {object}  ErrorResponse
// @Router   /bookings/{id}/cancel [post]
func handleCancelBooking(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		b, err := svcs.Bookings.Cancel(c.Request.Context(), id, identity(c).Subject)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, b)
	}
}

// --- Promos ---

// @Summary  Quote a promo code for one seat
// @Param    code   path   string  true  "promo code"
// @Param    price  query  number  true  "seat price"
// @Success  200  {object}  discount.Quote
// @Failure  400  {object}  ErrorResponse
// @Router   /promos/{code}/quote [get]
func handleQuotePromo(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		price, err := strconv.ParseFloat(c.Query("price"), 64)
		if err != nil {
			badRequest(c, "invalid price")
			return
		}
		q, err := svcs.Pricing.QuotePromo(c.Request.Context(), c.Param("code"), price)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, q)
	}
}

// @Summary  Best discount for a set of rides
// @Param    req  body  QuoteRidesRequest  true  "payload"
// @Success  200  {object}  pricing.RidesQuote
// @Failure  400  {object}  ErrorResponse
// @Failure  404  {object}  ErrorResponse
// @Router   /promos/quote [post]
func handleQuoteRides(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req QuoteRidesRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		ids := make([]uuid.UUID, 0, len(req.RideIDs))
		for _, s := range req.RideIDs {
			id, err := uuid.Parse(s)
			if err != nil {
				badRequest(c, "invalid ride id "+s)
				return
			}
			ids = append(ids, id)
		}
		q, err := svcs.Pricing.QuoteRides(c.Request.Context(), ids, req.Code)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, q)
	}
}

// --- Accounts ---

// @Summary  Get my rider profile
// @Security BearerAuth
// @Success  200  {object}  domain.RiderProfile
// @Failure  404  {object}  ErrorResponse
// @Router   /profile [get]
func handleGetProfile(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := svcs.Accounts.GetProfile(c.Request.Context(), identity(c).Subject)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, p)
	}
}

// @Summary  Save my rider profile
// @Security BearerAuth
// @Param    req  body  SaveProfileRequest  true  "payload"
// @Success  200  {object}  domain.RiderProfile
// @Failure  400  {object}  ErrorResponse
// @Router   /profile [put]
func handleSaveProfile(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req SaveProfileRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		p, err := svcs.Accounts.SaveProfile(c.Request.Context(), identity(c).Subject, req.input())
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, p)
	}
}

// @Summary  Register a vehicle
// @Security BearerAuth
// @Param    req  body  RegisterVehicleRequest  true  "payload"
// @Success  201  {object}  domain.Vehicle
// @Failure  400  {object}  ErrorResponse
// @Failure  422  {object}  ErrorResponse  "vehicle id taken"
// @Router   /vehicles [post]
func handleRegisterVehicle(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RegisterVehicleRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		v, err := svcs.Accounts.RegisterVehicle(c.Request.Context(), identity(c).Subject, req.input())
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusCreated, v)
	}
}

// @Summary  List my vehicles
// @Security BearerAuth
// @Success  200  {array}  domain.Vehicle
// @Router   /vehicles/me [get]
func handleListVehicles(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		vs, err := svcs.Accounts.ListVehicles(c.Request.Context(), identity(c).Subject)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, nonNil(vs))
	}
}

// --- Reviews ---

// @Summary  Review the driver of a completed ride
// @Security BearerAuth
// @Param    body  body  CreateReviewRequest  true  "Review"
// @Success  201  {object}  domain.Review
// @Failure  400  {object}  ErrorResponse  "rating outside 1..5"
// @Failure  403  {object}  ErrorResponse  "no approved booking on the ride"
// @Failure  404  {object}  ErrorResponse
// @Failure  409  {object}  ErrorResponse  "ride not completed / already reviewed"
// @Router   /reviews [post]
func handleCreateReview(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateReviewRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		rideID, err := uuid.Parse(req.RideID)
		if err != nil {
			badRequest(c, "invalid ride_id")
			return
		}
		rv, err := svcs.Reviews.Create(c.Request.Context(), identity(c).Subject, review.Input{
			RideID:  rideID,
			Rating:  req.Rating,
			Comment: req.Comment,
		})
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusCreated, rv)
	}
}

// @Summary  Get review
// @Param    id  path  string  true  "Review ID (uuid)"
// @Success  200  {object}  domain.Review
// @Failure  404  {object}  ErrorResponse
// @Router   /reviews/{id} [get]
func handleGetReview(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		rv, err := svcs.Reviews.Get(c.Request.Context(), id)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, rv)
	}
}

// @Summary  List reviews of a ride
// @Param    id  path  string  true  "Ride ID (uuid)"
// @Success  200  {array}  domain.Review
// @Router   /reviews/ride/{id} [get]
func handleListRideReviews(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		rvs, err := svcs.Reviews.ListForRide(c.Request.Context(), id)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, nonNil(rvs))
	}
}

// @Summary  List reviews a driver received
// @Param    id  path  string  true  "Driver ID"
// @Success  200  {array}  domain.Review
// @Router   /reviews/user/{id} [get]
func handleListDriverReviews(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		rvs, err := svcs.Reviews.ListForDriver(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, nonNil(rvs))
	}
}

// @Summary  Get a driver's average rating
// @Param    id  path  string  true  "Driver ID"
// @Success  200  {object}  domain.DriverRating
// @Router   /drivers/{id}/rating [get]
func handleDriverRating(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		r, err := svcs.Reviews.DriverRating(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, r)
	}
}

// --- Admin ---

// @Summary  Complete any ride
// @Security BearerAuth
// @Param    id  path  string  true  "Ride ID (uuid)"
// @Success  200  {object}  domain.Ride
// @Failure  403  {object}  ErrorResponse
// @Failure  409  {object}  ErrorResponse
// @Router   /admin/rides/{id}/complete [post]
func handleForceCompleteRide(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		ride, err := svcs.Rides.ForceComplete(c.Request.Context(), id)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, ride)
	}
}

// @Summary  Run one scheduler sweep now
// @Security BearerAuth
// @Success  200  {object}  SchedulerTickResponse
// @Failure  403  {object}  ErrorResponse
// @Router   /admin/scheduler/tick [post]
func handleSchedulerTick(svcs *service.Services, now func() time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		at := now()
		n, err := svcs.Rides.RunSchedulerTick(c.Request.Context(), at)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, SchedulerTickResponse{Completed: n, RanAt: at})
	}
}

// --- Helpers ---

func parseUUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	v, err := uuid.Parse(c.Param(name))
	if err != nil {
		badRequest(c, "invalid "+name)
		return uuid.Nil, false
	}
	return v, true
}

func parseRideFilter(c *gin.Context) (repository.RideFilter, bool) {
	var f repository.RideFilter

	if s := c.Query("status"); s != "" {
		for _, part := range strings.Split(s, ",") {
			f.Statuses = append(f.Statuses, domain.RideStatus(strings.ToUpper(strings.TrimSpace(part))))
		}
	}

	f.StartLocation = c.Query("start_location")
	f.EndLocation = c.Query("end_location")

	var err error
	if s := c.Query("max_price"); s != "" {
		if f.MaxPrice, err = strconv.ParseFloat(s, 64); err != nil {
			badRequest(c, "invalid max_price")
			return f, false
		}
	}

	ints := []struct {
		name string
		dst  *int
	}{
		{"min_seats", &f.MinSeats},
		{"limit", &f.Limit},
		{"offset", &f.Offset},
	}
	for _, p := range ints {
		s := c.Query(p.name)
		if s == "" {
			continue
		}
		if *p.dst, err = strconv.Atoi(s); err != nil {
			badRequest(c, "invalid "+p.name)
			return f, false
		}
	}

	return f, true
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: msg})
}

func respondErr(c *gin.Context, err error) {
	if err == nil {
		c.Status(http.StatusNoContent)
		return
	}

	switch {
	case errors.Is(err, domain.ErrValidation):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrForbidden), errors.Is(err, domain.ErrSelfBooking):
		c.JSON(http.StatusForbidden, ErrorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrInvalidState),
		errors.Is(err, domain.ErrCapacityExceeded),
		errors.Is(err, domain.ErrDuplicateBooking),
		errors.Is(err, domain.ErrDuplicateReview):
		c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error()})
	case errors.Is(err, repository.ErrConflict):
		c.Header("Retry-After", "1")
		c.JSON(http.StatusConflict, ErrorResponse{Error: "concurrent update, retry"})
	case errors.Is(err, domain.ErrInvalidVehicle):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: err.Error()})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
	}
}
