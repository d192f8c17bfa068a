package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/hotel-booking-engine/internal/calendar"
	"github.com/iliyamo/hotel-booking-engine/internal/model"
)

// writeError maps an engine error onto an HTTP response.  Unknown errors
// are logged and answered with 500.
func writeError(c echo.Context, log *zap.Logger, err error) error {
	var (
		insufficient *model.InsufficientInventoryError
		invalid      *model.InvalidTransitionError
		validation   *model.ValidationError
	)
	switch {
	case errors.As(err, &insufficient):
		return c.JSON(http.StatusConflict, echo.Map{
			"error":           "insufficient_inventory",
			"message":         err.Error(),
			"night":           calendar.DateKey(insufficient.Night),
			"requested_rooms": insufficient.Requested,
			"available_rooms": insufficient.Available,
		})
	case errors.As(err, &invalid):
		return c.JSON(http.StatusConflict, echo.Map{
			"error":   "invalid_transition",
			"message": err.Error(),
			"from":    invalid.From,
			"to":      invalid.To,
		})
	case errors.As(err, &validation):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation", "field": validation.Field, "message": err.Error()})
	case errors.Is(err, model.ErrValidation):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation", "message": err.Error()})
	case errors.Is(err, model.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	case errors.Is(err, model.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not_found", "message": err.Error()})
	case errors.Is(err, model.ErrDuplicateRequest):
		return c.JSON(http.StatusConflict, echo.Map{"error": "duplicate_request", "message": err.Error()})
	case errors.Is(err, model.ErrContention):
		c.Response().Header().Set("Retry-After", "1")
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "contention", "message": "inventory is busy, retry shortly"})
	}
	log.Error("request failed", zap.String("route", c.Path()), zap.Error(err))
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}
