package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/hotel-booking-engine/internal/calendar"
	"github.com/iliyamo/hotel-booking-engine/internal/middleware"
	"github.com/iliyamo/hotel-booking-engine/internal/model"
	"github.com/iliyamo/hotel-booking-engine/internal/port"
	"github.com/iliyamo/hotel-booking-engine/internal/service"
)

// Admitter admits new bookings.  *service.Ledger implements it.
type Admitter interface {
	Admit(ctx context.Context, req service.AdmitRequest) (service.ReservationHandle, error)
}

// Transitioner changes booking status.  *service.Lifecycle implements it.
type Transitioner interface {
	Transition(ctx context.Context, p model.Principal, req service.TransitionRequest) (model.Booking, error)
}

// BookingReader reads bookings on behalf of a caller.  *service.Bookings
// implements it.
type BookingReader interface {
	Get(ctx context.Context, p model.Principal, id uint64) (model.Booking, error)
	List(ctx context.Context, p model.Principal, roomCategoryID uint64, from, to time.Time) ([]model.Booking, error)
}

// AvailabilityResolver answers availability queries.  *service.Resolver
// implements it.
type AvailabilityResolver interface {
	Resolve(ctx context.Context, roomCategoryID uint64, checkIn, checkOut time.Time) (service.Availability, error)
}

// BookingHandler serves the booking endpoints.  Idempotency may be nil, in
// which case the Idempotency-Key header is ignored.
type BookingHandler struct {
	Ledger       Admitter
	Lifecycle    Transitioner
	Bookings     BookingReader
	Availability AvailabilityResolver
	Idempotency  port.IdempotencyStore
	Log          *zap.Logger
}

// NewBookingHandler constructs a BookingHandler.  All services must be
// non-nil.
func NewBookingHandler(ledger Admitter, lifecycle Transitioner, bookings BookingReader, availability AvailabilityResolver, idem port.IdempotencyStore, log *zap.Logger) *BookingHandler {
	if ledger == nil || lifecycle == nil || bookings == nil || availability == nil {
		panic("nil service passed to NewBookingHandler")
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &BookingHandler{Ledger: ledger, Lifecycle: lifecycle, Bookings: bookings, Availability: availability, Idempotency: idem, Log: log}
}

// GetAvailability handles GET /v1/room-categories/:id/availability.  The
// check_in and check_out query parameters are required dates.
func (h *BookingHandler) GetAvailability(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, h.Log, err)
	}
	in, out, err := dateRange(c, "check_in", "check_out")
	if err != nil {
		return writeError(c, h.Log, err)
	}
	av, err := h.Availability.Resolve(c.Request().Context(), id, in, out)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, newAvailabilityResponse(av))
}

type createBookingRequest struct {
	RoomCategoryID uint64 `json:"room_category_id"`
	CheckIn        string `json:"check_in"`
	CheckOut       string `json:"check_out"`
	NumRooms       int    `json:"num_rooms"`
	NumGuests      int    `json:"num_guests"`
}

// CreateBooking handles POST /v1/bookings.  Anonymous callers may book;
// a token, when sent, records the guest.  An Idempotency-Key header that
// was already used returns 409; a failed admission frees the key again.
func (h *BookingHandler) CreateBooking(c echo.Context) error {
	var body createBookingRequest
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.RoomCategoryID == 0 {
		return writeError(c, h.Log, &model.ValidationError{Field: "room_category_id", Reason: "is required"})
	}
	in, err := calendar.ParseDate("check_in", body.CheckIn)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	out, err := calendar.ParseDate("check_out", body.CheckOut)
	if err != nil {
		return writeError(c, h.Log, err)
	}

	ctx := c.Request().Context()
	key := strings.TrimSpace(c.Request().Header.Get("Idempotency-Key"))
	if key != "" && h.Idempotency != nil {
		ok, err := h.Idempotency.Reserve(ctx, key)
		switch {
		case err != nil:
			h.Log.Warn("idempotency store unavailable", zap.Error(err))
			key = ""
		case !ok:
			return writeError(c, h.Log, model.ErrDuplicateRequest)
		}
	} else {
		key = ""
	}

	handle, err := h.Ledger.Admit(ctx, service.AdmitRequest{
		RoomCategoryID: body.RoomCategoryID,
		CheckIn:        in,
		CheckOut:       out,
		NumRooms:       body.NumRooms,
		NumGuests:      body.NumGuests,
		Principal:      middleware.PrincipalFrom(c),
	})
	if err != nil {
		if key != "" {
			if ferr := h.Idempotency.Forget(context.WithoutCancel(ctx), key); ferr != nil {
				h.Log.Warn("idempotency key not released", zap.String("key", key), zap.Error(ferr))
			}
		}
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, newBookingResponse(handle.Booking))
}

// GetBooking handles GET /v1/bookings/:id.
func (h *BookingHandler) GetBooking(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, h.Log, err)
	}
	b, err := h.Bookings.Get(c.Request().Context(), middleware.PrincipalFrom(c), id)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, newBookingResponse(b))
}

type transitionRequest struct {
	Status         string `json:"status"`
	Reason         string `json:"reason"`
	ExpectedStatus string `json:"expected_status"`
}

// TransitionBooking handles POST /v1/bookings/:id/status.  The body names
// the target status, a reason (required to cancel) and optionally the
// status the caller last saw.
func (h *BookingHandler) TransitionBooking(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, h.Log, err)
	}
	var body transitionRequest
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	to, err := model.ParseStatus(body.Status)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	var expected model.Status
	if strings.TrimSpace(body.ExpectedStatus) != "" {
		if expected, err = model.ParseStatus(body.ExpectedStatus); err != nil {
			return writeError(c, h.Log, &model.ValidationError{Field: "expected_status", Reason: "unknown status " + body.ExpectedStatus})
		}
	}
	b, err := h.Lifecycle.Transition(c.Request().Context(), middleware.PrincipalFrom(c), service.TransitionRequest{
		BookingID: id,
		To:        to,
		Reason:    body.Reason,
		Expected:  expected,
	})
	if err != nil {
		return writeError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, newBookingResponse(b))
}

// ListBookings handles GET /v1/room-categories/:id/bookings?from&to and
// returns the bookings whose stay overlaps [from, to).
func (h *BookingHandler) ListBookings(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, h.Log, err)
	}
	from, to, err := dateRange(c, "from", "to")
	if err != nil {
		return writeError(c, h.Log, err)
	}
	list, err := h.Bookings.List(c.Request().Context(), middleware.PrincipalFrom(c), id, from, to)
	if err != nil {
		return writeError(c, h.Log, err)
	}
	out := make([]bookingResponse, 0, len(list))
	for _, b := range list {
		out = append(out, newBookingResponse(b))
	}
	return c.JSON(http.StatusOK, echo.Map{"bookings": out, "count": len(out)})
}

func pathID(c echo.Context, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, &model.ValidationError{Field: name, Reason: "must be a positive integer"}
	}
	return id, nil
}

func dateRange(c echo.Context, fromParam, toParam string) (time.Time, time.Time, error) {
	from, err := calendar.ParseDate(fromParam, c.QueryParam(fromParam))
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	to, err := calendar.ParseDate(toParam, c.QueryParam(toParam))
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return from, to, nil
}
