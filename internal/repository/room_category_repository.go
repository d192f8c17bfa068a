package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/hotel-booking-engine/internal/model"
)

// RoomCategoryRepo reads room categories and the properties that own them.
type RoomCategoryRepo struct {
	db *sql.DB
}

// NewRoomCategoryRepo returns a new RoomCategoryRepo bound to the given database.
func NewRoomCategoryRepo(db *sql.DB) *RoomCategoryRepo { return &RoomCategoryRepo{db: db} }

// GetTx returns the room category with the given id.
func (r *RoomCategoryRepo) GetTx(ctx context.Context, tx *sql.Tx, id uint64) (model.RoomCategory, error) {
	const q = `SELECT id, property_id, name, total_rooms, base_price, currency FROM room_categories WHERE id = ?`
	var c model.RoomCategory
	err := tx.QueryRowContext(ctx, q, id).Scan(&c.ID, &c.PropertyID, &c.Name, &c.TotalRooms, &c.BasePrice, &c.Currency)
	if errors.Is(err, sql.ErrNoRows) {
		return model.RoomCategory{}, &model.NotFoundError{Kind: "room category", ID: id}
	}
	return c, err
}

// PropertyTx returns the property with the given id.
func (r *RoomCategoryRepo) PropertyTx(ctx context.Context, tx *sql.Tx, id uint64) (model.Property, error) {
	const q = `SELECT id, owner_id, name FROM properties WHERE id = ?`
	var p model.Property
	err := tx.QueryRowContext(ctx, q, id).Scan(&p.ID, &p.OwnerID, &p.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Property{}, &model.NotFoundError{Kind: "property", ID: id}
	}
	return p, err
}

// CreateProperty inserts p and fills its ID.
func (r *RoomCategoryRepo) CreateProperty(ctx context.Context, p *model.Property) error {
	res, err := r.db.ExecContext(ctx, `INSERT INTO properties (owner_id, name) VALUES (?, ?)`, p.OwnerID, p.Name)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	return nil
}

// Create inserts c and fills its ID.
func (r *RoomCategoryRepo) Create(ctx context.Context, c *model.RoomCategory) error {
	const q = `INSERT INTO room_categories (property_id, name, total_rooms, base_price, currency) VALUES (?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, c.PropertyID, c.Name, c.TotalRooms, c.BasePrice, c.Currency)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = uint64(id)
	return nil
}
