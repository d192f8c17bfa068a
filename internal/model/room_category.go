package model

import "github.com/shopspring/decimal"

// Property is a hotel owned by a single hotelier account.  Bookings of
// a property's room categories may be driven through their life cycle
// by the owner or by an admin.
//
// Fields:
//  ID      – primary key identifier.
//  OwnerID – user id of the hotelier that operates the property.
//  Name    – display name.
type Property struct {
	ID      uint64 // properties.id
	OwnerID uint64 // properties.owner_id
	Name    string // properties.name
}

// RoomCategory is a sellable room type within a property, e.g. "Deluxe
// Double".  TotalRooms is the physical ceiling and is never changed by
// the reservation engine.
//
// Fields:
//  ID         – primary key identifier.
//  PropertyID – owning property.
//  Name       – display name.
//  TotalRooms – number of physical rooms of this type.
//  BasePrice  – nightly price per room.
//  Currency   – ISO 4217 code of BasePrice.
type RoomCategory struct {
	ID         uint64          // room_categories.id
	PropertyID uint64          // room_categories.property_id
	Name       string          // room_categories.name
	TotalRooms int             // room_categories.total_rooms
	BasePrice  decimal.Decimal // room_categories.base_price
	Currency   string          // room_categories.currency
}
