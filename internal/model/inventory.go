package model

import "time"

// InventoryRecord is the authoritative available-room count for one room
// category on one calendar date.  There is at most one record per
// (RoomCategoryID, Date) and 0 <= AvailableRooms <= total_rooms always
// holds.
type InventoryRecord struct {
	RoomCategoryID uint64    // room_inventory.room_category_id
	Date           time.Time // room_inventory.stay_date (UTC midnight)
	AvailableRooms int       // room_inventory.available_rooms
	UpdatedAt      time.Time // room_inventory.updated_at
}
