package handler

import (
	"time"

	"github.com/iliyamo/hotel-booking-engine/internal/calendar"
	"github.com/iliyamo/hotel-booking-engine/internal/model"
	"github.com/iliyamo/hotel-booking-engine/internal/service"
)

// bookingResponse is the JSON shape of a booking.  Dates are YYYY-MM-DD,
// amounts are decimal strings with two places.
type bookingResponse struct {
	ID                 uint64     `json:"id"`
	Reference          string     `json:"reference"`
	RoomCategoryID     uint64     `json:"room_category_id"`
	GuestID            uint64     `json:"guest_id,omitempty"`
	CheckIn            string     `json:"check_in"`
	CheckOut           string     `json:"check_out"`
	Nights             int        `json:"nights"`
	NumRooms           int        `json:"num_rooms"`
	NumGuests          int        `json:"num_guests"`
	Status             string     `json:"status"`
	Currency           string     `json:"currency"`
	Subtotal           string     `json:"subtotal"`
	TaxAmount          string     `json:"tax_amount"`
	TotalAmount        string     `json:"total_amount"`
	CommissionAmount   string     `json:"commission_amount"`
	HotelPayout        string     `json:"hotel_payout"`
	CancellationDate   *time.Time `json:"cancellation_date,omitempty"`
	CancellationReason *string    `json:"cancellation_reason,omitempty"`
	ConfirmedAt        *time.Time `json:"confirmed_at,omitempty"`
	CheckedInAt        *time.Time `json:"checked_in_at,omitempty"`
	CheckedOutAt       *time.Time `json:"checked_out_at,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

func newBookingResponse(b model.Booking) bookingResponse {
	nights, _ := calendar.NightsBetween(b.CheckIn, b.CheckOut)
	return bookingResponse{
		ID:                 b.ID,
		Reference:          b.Reference,
		RoomCategoryID:     b.RoomCategoryID,
		GuestID:            b.GuestID,
		CheckIn:            calendar.DateKey(b.CheckIn),
		CheckOut:           calendar.DateKey(b.CheckOut),
		Nights:             nights,
		NumRooms:           b.NumRooms,
		NumGuests:          b.NumGuests,
		Status:             b.Status.String(),
		Currency:           b.Currency,
		Subtotal:           b.Subtotal.StringFixed(2),
		TaxAmount:          b.TaxAmount.StringFixed(2),
		TotalAmount:        b.TotalAmount.StringFixed(2),
		CommissionAmount:   b.CommissionAmount.StringFixed(2),
		HotelPayout:        b.HotelPayout.StringFixed(2),
		CancellationDate:   b.CancellationDate,
		CancellationReason: b.CancellationReason,
		ConfirmedAt:        b.ConfirmedAt,
		CheckedInAt:        b.CheckedInAt,
		CheckedOutAt:       b.CheckedOutAt,
		CreatedAt:          b.CreatedAt,
		UpdatedAt:          b.UpdatedAt,
	}
}

type nightAvailability struct {
	Date           string `json:"date"`
	AvailableRooms int    `json:"available_rooms"`
}

type availabilityResponse struct {
	RoomCategoryID uint64              `json:"room_category_id"`
	CheckIn        string              `json:"check_in"`
	CheckOut       string              `json:"check_out"`
	TotalRooms     int                 `json:"total_rooms"`
	AvailableRooms int                 `json:"available_rooms"`
	Nights         []nightAvailability `json:"nights"`
}

func newAvailabilityResponse(av service.Availability) availabilityResponse {
	out := availabilityResponse{
		RoomCategoryID: av.RoomCategoryID,
		CheckIn:        calendar.DateKey(av.CheckIn),
		CheckOut:       calendar.DateKey(av.CheckOut),
		TotalRooms:     av.TotalRooms,
		AvailableRooms: av.AvailableRooms,
		Nights:         make([]nightAvailability, 0, len(av.Nights)),
	}
	for _, n := range av.Nights {
		key := calendar.DateKey(n)
		out.Nights = append(out.Nights, nightAvailability{Date: key, AvailableRooms: av.PerNight[key]})
	}
	return out
}
