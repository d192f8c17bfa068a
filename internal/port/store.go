package port

import (
	"context"
	"time"

	"github.com/iliyamo/hotel-booking-engine/internal/model"
)

// Store opens units of work over room categories, inventory and bookings.
// It is the single source of truth; nothing above it caches
// availability.
type Store interface {
	// View runs fn in a read-only transaction without row locks.
	View(ctx context.Context, fn func(tx Tx) error) error

	// Update runs fn in a write transaction.  fn's error rolls the
	// transaction back and is returned unmodified.  Lock wait timeouts,
	// deadlocks and the store's own transaction deadline surface as
	// *model.ContentionError.
	Update(ctx context.Context, fn func(tx Tx) error) error
}

// Tx is the set of operations available inside a unit of work.  Methods
// taking a lock flag acquire row locks held until the transaction ends
// when lock is true; lock is ignored inside View.
type Tx interface {
	// RoomCategory returns *model.NotFoundError for unknown ids.
	RoomCategory(ctx context.Context, id uint64) (model.RoomCategory, error)

	// Property returns *model.NotFoundError for unknown ids.
	Property(ctx context.Context, id uint64) (model.Property, error)

	// InventoryRecords returns the explicit records of the given nights,
	// keyed by calendar.DateKey.  Locked rows are acquired in date order.
	InventoryRecords(ctx context.Context, roomCategoryID uint64, nights []time.Time, lock bool) (map[string]model.InventoryRecord, error)

	// SeedInventory inserts records that do not exist yet and leaves
	// existing ones untouched.
	SeedInventory(ctx context.Context, records []model.InventoryRecord) error

	// AdjustInventory adds delta to available_rooms of the given nights.
	// The result is clamped to [0, ceiling].  Nights without a record are
	// skipped.
	AdjustInventory(ctx context.Context, roomCategoryID uint64, nights []time.Time, delta, ceiling int) error

	// BookedRooms sums num_rooms of capacity-holding bookings per night of
	// nights, keyed by calendar.DateKey.  Nights with no bookings are
	// absent.
	BookedRooms(ctx context.Context, roomCategoryID uint64, nights []time.Time) (map[string]int, error)

	// CreateBooking inserts b and fills its ID and timestamps.
	CreateBooking(ctx context.Context, b *model.Booking) error

	// Booking returns *model.NotFoundError for unknown ids.
	Booking(ctx context.Context, id uint64, lock bool) (model.Booking, error)

	// UpdateBookingStatus writes the status and cancellation/audit fields
	// of b only if the stored status still equals expected.  It reports
	// false when another writer got there first.
	UpdateBookingStatus(ctx context.Context, b model.Booking, expected model.Status) (bool, error)

	// MarkReleased stamps released_at if it is not set yet and reports
	// whether this call set it.
	MarkReleased(ctx context.Context, bookingID uint64, at time.Time) (bool, error)

	// ListBookings returns bookings of a category overlapping [from, to),
	// ordered by check-in.
	ListBookings(ctx context.Context, roomCategoryID uint64, from, to time.Time) ([]model.Booking, error)
}
