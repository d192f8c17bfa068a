package service

import (
	"context"
	"time"

	"github.com/iliyamo/hotel-booking-engine/internal/calendar"
	"github.com/iliyamo/hotel-booking-engine/internal/model"
	"github.com/iliyamo/hotel-booking-engine/internal/port"
)

// Availability is the free capacity of a room category over a stay.
// AvailableRooms is the minimum over PerNight: a multi-night stay needs
// the same rooms every night.
type Availability struct {
	RoomCategoryID uint64
	CheckIn        time.Time
	CheckOut       time.Time
	TotalRooms     int
	AvailableRooms int
	Nights         []time.Time
	PerNight       map[string]int
}

// Fits reports whether numRooms can be admitted.
func (a Availability) Fits(numRooms int) bool { return a.AvailableRooms >= numRooms }

// Resolver computes availability from inventory records, falling back to
// a count of overlapping capacity-holding bookings for nights without a
// record.
type Resolver struct {
	store port.Store
}

// NewResolver returns a Resolver reading from store.
func NewResolver(store port.Store) *Resolver { return &Resolver{store: store} }

// Resolve returns the availability of roomCategoryID over [checkIn,
// checkOut).
func (r *Resolver) Resolve(ctx context.Context, roomCategoryID uint64, checkIn, checkOut time.Time) (Availability, error) {
	nights, err := calendar.Nights(checkIn, checkOut)
	if err != nil {
		return Availability{}, err
	}
	var av Availability
	err = r.store.View(ctx, func(tx port.Tx) error {
		cat, err := tx.RoomCategory(ctx, roomCategoryID)
		if err != nil {
			return err
		}
		av, err = resolveTx(ctx, tx, cat, nights, false)
		return err
	})
	return av, err
}

// resolveTx runs the resolution inside tx.  With lock set the explicit
// records read are locked until tx ends.
func resolveTx(ctx context.Context, tx port.Tx, cat model.RoomCategory, nights []time.Time, lock bool) (Availability, error) {
	records, err := tx.InventoryRecords(ctx, cat.ID, nights, lock)
	if err != nil {
		return Availability{}, err
	}
	missing := make([]time.Time, 0, len(nights))
	for _, n := range nights {
		if _, ok := records[calendar.DateKey(n)]; !ok {
			missing = append(missing, n)
		}
	}
	booked := map[string]int{}
	if len(missing) > 0 {
		if booked, err = tx.BookedRooms(ctx, cat.ID, missing); err != nil {
			return Availability{}, err
		}
	}

	av := Availability{
		RoomCategoryID: cat.ID,
		CheckIn:        nights[0],
		CheckOut:       nights[len(nights)-1].AddDate(0, 0, 1),
		TotalRooms:     cat.TotalRooms,
		AvailableRooms: cat.TotalRooms,
		Nights:         nights,
		PerNight:       make(map[string]int, len(nights)),
	}
	for _, n := range nights {
		key := calendar.DateKey(n)
		free := cat.TotalRooms - booked[key]
		if rec, ok := records[key]; ok {
			free = rec.AvailableRooms
		}
		free = clamp(free, 0, cat.TotalRooms)
		av.PerNight[key] = free
		if free < av.AvailableRooms {
			av.AvailableRooms = free
		}
	}
	return av, nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
