package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/hotel-booking-engine/internal/model"
)

// sqlTx adapts a *sql.Tx to port.Tx by delegating to the repos.  Row
// locks are never taken inside a read-only transaction.
type sqlTx struct {
	tx       *sql.Tx
	readOnly bool
	s        *Store
}

func (t *sqlTx) lock(requested bool) bool { return requested && !t.readOnly }

func (t *sqlTx) RoomCategory(ctx context.Context, id uint64) (model.RoomCategory, error) {
	return t.s.categories.GetTx(ctx, t.tx, id)
}

func (t *sqlTx) Property(ctx context.Context, id uint64) (model.Property, error) {
	return t.s.categories.PropertyTx(ctx, t.tx, id)
}

func (t *sqlTx) InventoryRecords(ctx context.Context, roomCategoryID uint64, nights []time.Time, lock bool) (map[string]model.InventoryRecord, error) {
	return t.s.inventory.RecordsTx(ctx, t.tx, roomCategoryID, nights, t.lock(lock))
}

func (t *sqlTx) SeedInventory(ctx context.Context, records []model.InventoryRecord) error {
	return t.s.inventory.SeedTx(ctx, t.tx, records)
}

func (t *sqlTx) AdjustInventory(ctx context.Context, roomCategoryID uint64, nights []time.Time, delta, ceiling int) error {
	return t.s.inventory.AdjustTx(ctx, t.tx, roomCategoryID, nights, delta, ceiling)
}

func (t *sqlTx) BookedRooms(ctx context.Context, roomCategoryID uint64, nights []time.Time) (map[string]int, error) {
	return t.s.bookings.BookedRoomsTx(ctx, t.tx, roomCategoryID, nights)
}

func (t *sqlTx) CreateBooking(ctx context.Context, b *model.Booking) error {
	return t.s.bookings.CreateTx(ctx, t.tx, b)
}

func (t *sqlTx) Booking(ctx context.Context, id uint64, lock bool) (model.Booking, error) {
	return t.s.bookings.GetTx(ctx, t.tx, id, t.lock(lock))
}

func (t *sqlTx) UpdateBookingStatus(ctx context.Context, b model.Booking, expected model.Status) (bool, error) {
	return t.s.bookings.UpdateStatusTx(ctx, t.tx, b, expected)
}

func (t *sqlTx) MarkReleased(ctx context.Context, bookingID uint64, at time.Time) (bool, error) {
	return t.s.bookings.MarkReleasedTx(ctx, t.tx, bookingID, at)
}

func (t *sqlTx) ListBookings(ctx context.Context, roomCategoryID uint64, from, to time.Time) ([]model.Booking, error) {
	return t.s.bookings.ListTx(ctx, t.tx, roomCategoryID, from, to)
}
