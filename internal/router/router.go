// Package router registers the HTTP routes of the booking API.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/iliyamo/hotel-booking-engine/internal/config"
	"github.com/iliyamo/hotel-booking-engine/internal/handler"
	"github.com/iliyamo/hotel-booking-engine/internal/middleware"
	"github.com/iliyamo/hotel-booking-engine/internal/model"
)

// RegisterRoutes registers routes that do not require authentication:
// liveness always, readiness when db is non-nil.
func RegisterRoutes(e *echo.Echo, db handler.Pinger) {
	e.GET("/healthz", handler.Health)
	if db != nil {
		e.GET("/readyz", handler.Ready(db))
	}
}

// RegisterBookings registers the availability and booking endpoints.
// Availability and booking creation are open to anonymous callers; a
// token, when sent, identifies the guest.  Booking creation is rate
// limited when rdb is available.  Everything else requires a token and
// status changes and listings require the hotelier or admin role.
func RegisterBookings(e *echo.Echo, h *handler.BookingHandler, jwtSecret string, rl config.RateLimitConfig, rdb *redis.Client, log *zap.Logger) {
	optional := middleware.OptionalJWT(jwtSecret)
	required := middleware.JWTAuth(jwtSecret)
	staff := middleware.RequireRole(model.RoleHotelier, model.RoleAdmin)
	limit := middleware.NewTokenBucket(rl, rdb, log)

	v1 := e.Group("/v1")
	v1.GET("/room-categories/:id/availability", h.GetAvailability, optional)
	v1.POST("/bookings", h.CreateBooking, optional, limit)
	v1.GET("/bookings/:id", h.GetBooking, required)
	v1.POST("/bookings/:id/status", h.TransitionBooking, required, staff)
	v1.GET("/room-categories/:id/bookings", h.ListBookings, required, staff)
}
