package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Booking is a reservation of NumRooms rooms of one room category for the
// half-open stay [CheckIn, CheckOut).  Rows are never deleted; cancelling
// is a status.  The financial split is fixed at admission.
//
// Fields:
//  ID                 – primary key identifier.
//  Reference          – public booking reference (UUID).
//  RoomCategoryID     – category being reserved.
//  GuestID            – user that requested the booking, 0 when anonymous.
//  CheckIn, CheckOut  – UTC dates, CheckOut > CheckIn.
//  NumRooms           – rooms held every night, >= 1.
//  NumGuests          – guests staying, >= 1.
//  Status             – life-cycle state.
//  Currency           – currency of every amount below.
//  Subtotal ... Total – financial split, Total = Subtotal + TaxAmount =
//                       CommissionAmount + HotelPayout.
//  CancellationDate   – set on cancelled or no_show.
//  CancellationReason – reason given on cancellation.
//  ReleasedAt         – set once capacity has been returned.
type Booking struct {
	ID                 uint64          // bookings.id
	Reference          string          // bookings.reference
	RoomCategoryID     uint64          // bookings.room_category_id
	GuestID            uint64          // bookings.guest_id
	CheckIn            time.Time       // bookings.check_in
	CheckOut           time.Time       // bookings.check_out
	NumRooms           int             // bookings.num_rooms
	NumGuests          int             // bookings.num_guests
	Status             Status          // bookings.status
	Currency           string          // bookings.currency
	Subtotal           decimal.Decimal // bookings.subtotal
	TaxAmount          decimal.Decimal // bookings.tax_amount
	CommissionAmount   decimal.Decimal // bookings.commission_amount
	HotelPayout        decimal.Decimal // bookings.hotel_payout
	TotalAmount        decimal.Decimal // bookings.total_amount
	CancellationDate   *time.Time      // bookings.cancellation_date (nullable)
	CancellationReason *string         // bookings.cancellation_reason (nullable)
	ConfirmedAt        *time.Time      // bookings.confirmed_at (nullable)
	CheckedInAt        *time.Time      // bookings.checked_in_at (nullable)
	CheckedOutAt       *time.Time      // bookings.checked_out_at (nullable)
	ReleasedAt         *time.Time      // bookings.released_at (nullable)
	CreatedAt          time.Time       // bookings.created_at
	UpdatedAt          time.Time       // bookings.updated_at
}

// Covers reports whether night falls inside [CheckIn, CheckOut).
func (b Booking) Covers(night time.Time) bool {
	return !night.Before(b.CheckIn) && night.Before(b.CheckOut)
}

// Released reports whether capacity has already been returned.
func (b Booking) Released() bool { return b.ReleasedAt != nil }
