// Package queue carries booking lifecycle events over RabbitMQ: a
// publisher used by the engine after each committed change and an audit
// consumer that appends every event to a log file.
package queue

import (
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/hotel-booking-engine/internal/calendar"
	"github.com/iliyamo/hotel-booking-engine/internal/model"
)

// RoutingPrefix prefixes every routing key; the status follows, e.g.
// booking.confirmed.
const RoutingPrefix = "booking."

// BookingEvent is published when a booking is created or changes status.
// It contains enough information for downstream consumers to log, notify,
// or trigger analytics without querying the primary database.  Amounts are
// decimal strings.
type BookingEvent struct {
	EventID            string  `json:"event_id"`
	Type               string  `json:"type"`
	BookingID          uint64  `json:"booking_id"`
	Reference          string  `json:"reference"`
	RoomCategoryID     uint64  `json:"room_category_id"`
	GuestID            uint64  `json:"guest_id"`
	Status             string  `json:"status"`
	PreviousStatus     string  `json:"previous_status,omitempty"`
	CheckIn            string  `json:"check_in"`
	CheckOut           string  `json:"check_out"`
	NumRooms           int     `json:"num_rooms"`
	Currency           string  `json:"currency"`
	TotalAmount        string  `json:"total_amount"`
	HotelPayout        string  `json:"hotel_payout"`
	CancellationReason *string `json:"cancellation_reason,omitempty"`
	OccurredAt         string  `json:"occurred_at"`
}

// RoutingKey returns the routing key events of status s are published
// under.
func RoutingKey(s model.Status) string { return RoutingPrefix + s.String() }

// NewBookingEvent describes b having moved from previous (empty for a new
// booking) to its current status at time at.
func NewBookingEvent(b model.Booking, previous model.Status, at time.Time) BookingEvent {
	return BookingEvent{
		EventID:            uuid.NewString(),
		Type:               RoutingKey(b.Status),
		BookingID:          b.ID,
		Reference:          b.Reference,
		RoomCategoryID:     b.RoomCategoryID,
		GuestID:            b.GuestID,
		Status:             b.Status.String(),
		PreviousStatus:     previous.String(),
		CheckIn:            calendar.DateKey(b.CheckIn),
		CheckOut:           calendar.DateKey(b.CheckOut),
		NumRooms:           b.NumRooms,
		Currency:           b.Currency,
		TotalAmount:        b.TotalAmount.StringFixed(2),
		HotelPayout:        b.HotelPayout.StringFixed(2),
		CancellationReason: b.CancellationReason,
		OccurredAt:         at.UTC().Format(time.RFC3339),
	}
}
