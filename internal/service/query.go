package service

import (
	"context"
	"fmt"
	"time"

	"github.com/iliyamo/hotel-booking-engine/internal/calendar"
	"github.com/iliyamo/hotel-booking-engine/internal/model"
	"github.com/iliyamo/hotel-booking-engine/internal/port"
)

// Bookings answers read requests about bookings, enforcing who may see
// them: the guest that made the booking, the owner of the property and
// admins.
type Bookings struct {
	store port.Store
}

// NewBookings returns a Bookings reader over store.
func NewBookings(store port.Store) *Bookings { return &Bookings{store: store} }

// Get returns one booking.
func (q *Bookings) Get(ctx context.Context, p model.Principal, id uint64) (model.Booking, error) {
	var out model.Booking
	err := q.store.View(ctx, func(tx port.Tx) error {
		b, err := tx.Booking(ctx, id, false)
		if err != nil {
			return err
		}
		if !p.IsAnonymous() && b.GuestID == p.UserID {
			out = b
			return nil
		}
		cat, err := tx.RoomCategory(ctx, b.RoomCategoryID)
		if err != nil {
			return err
		}
		prop, err := tx.Property(ctx, cat.PropertyID)
		if err != nil {
			return err
		}
		if !p.CanManage(prop.OwnerID) {
			return fmt.Errorf("%w: booking %d", model.ErrForbidden, id)
		}
		out = b
		return nil
	})
	return out, err
}

// List returns the bookings of a room category overlapping [from, to).
// Only the property owner and admins may list.
func (q *Bookings) List(ctx context.Context, p model.Principal, roomCategoryID uint64, from, to time.Time) ([]model.Booking, error) {
	if _, err := calendar.NightsBetween(from, to); err != nil {
		return nil, err
	}
	var out []model.Booking
	err := q.store.View(ctx, func(tx port.Tx) error {
		cat, err := tx.RoomCategory(ctx, roomCategoryID)
		if err != nil {
			return err
		}
		prop, err := tx.Property(ctx, cat.PropertyID)
		if err != nil {
			return err
		}
		if !p.CanManage(prop.OwnerID) {
			return fmt.Errorf("%w: room category %d", model.ErrForbidden, roomCategoryID)
		}
		out, err = tx.ListBookings(ctx, cat.ID, calendar.Truncate(from), calendar.Truncate(to))
		return err
	})
	return out, err
}
