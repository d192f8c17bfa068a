package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/iliyamo/hotel-booking-engine/internal/calendar"
	"github.com/iliyamo/hotel-booking-engine/internal/model"
)

// InventoryRepo keeps the explicit per-night availability rows of
// room_inventory.  Dates are passed to MySQL as YYYY-MM-DD strings.
type InventoryRepo struct {
	db *sql.DB
}

// NewInventoryRepo returns a new InventoryRepo bound to the given database.
func NewInventoryRepo(db *sql.DB) *InventoryRepo { return &InventoryRepo{db: db} }

// RecordsTx returns the rows of the given nights keyed by calendar.DateKey.
// With lock the rows are read FOR UPDATE in date order, so every writer
// acquires the locks of overlapping stays in the same sequence.
func (r *InventoryRepo) RecordsTx(ctx context.Context, tx *sql.Tx, roomCategoryID uint64, nights []time.Time, lock bool) (map[string]model.InventoryRecord, error) {
	out := make(map[string]model.InventoryRecord, len(nights))
	if len(nights) == 0 {
		return out, nil
	}
	q := `SELECT room_category_id, stay_date, available_rooms, updated_at FROM room_inventory
WHERE room_category_id = ? AND stay_date IN (` + placeholders(len(nights)) + `) ORDER BY stay_date`
	if lock {
		q += ` FOR UPDATE`
	}
	args := append([]any{roomCategoryID}, dateArgs(nights)...)
	rows, err := tx.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var rec model.InventoryRecord
		if err := rows.Scan(&rec.RoomCategoryID, &rec.Date, &rec.AvailableRooms, &rec.UpdatedAt); err != nil {
			return nil, err
		}
		rec.Date = calendar.Truncate(rec.Date)
		out[calendar.DateKey(rec.Date)] = rec
	}
	return out, rows.Err()
}

// SeedTx inserts the given rows in date order.  Rows that already exist
// keep their value.
func (r *InventoryRepo) SeedTx(ctx context.Context, tx *sql.Tx, records []model.InventoryRecord) error {
	if len(records) == 0 {
		return nil
	}
	var b strings.Builder
	b.WriteString(`INSERT INTO room_inventory (room_category_id, stay_date, available_rooms) VALUES `)
	args := make([]any, 0, len(records)*3)
	for i, rec := range records {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString("(?, ?, ?)")
		args = append(args, rec.RoomCategoryID, calendar.DateKey(rec.Date), max(rec.AvailableRooms, 0))
	}
	b.WriteString(` ON DUPLICATE KEY UPDATE available_rooms = available_rooms`)
	_, err := tx.ExecContext(ctx, b.String(), args...)
	return err
}

// AdjustTx adds delta to the given nights, clamped to [0, ceiling].
// Nights without a row are left alone.
func (r *InventoryRepo) AdjustTx(ctx context.Context, tx *sql.Tx, roomCategoryID uint64, nights []time.Time, delta, ceiling int) error {
	if len(nights) == 0 || delta == 0 {
		return nil
	}
	q := `UPDATE room_inventory
SET available_rooms = LEAST(GREATEST(CAST(available_rooms AS SIGNED) + ?, 0), ?)
WHERE room_category_id = ? AND stay_date IN (` + placeholders(len(nights)) + `)`
	args := append([]any{delta, ceiling, roomCategoryID}, dateArgs(nights)...)
	_, err := tx.ExecContext(ctx, q, args...)
	return err
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func dateArgs(nights []time.Time) []any {
	out := make([]any, len(nights))
	for i, n := range nights {
		out[i] = calendar.DateKey(n)
	}
	return out
}
