package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/iliyamo/hotel-booking-engine/internal/calendar"
	"github.com/iliyamo/hotel-booking-engine/internal/model"
)

// BookingRepo stores bookings.  Rows are never deleted; all timestamps are
// stored in UTC.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a new BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

const bookingColumns = `id, reference, room_category_id, guest_id, check_in, check_out, num_rooms, num_guests,
status, currency, subtotal, tax_amount, commission_amount, hotel_payout, total_amount,
cancellation_date, cancellation_reason, confirmed_at, checked_in_at, checked_out_at, released_at,
created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBooking(row rowScanner) (model.Booking, error) {
	var (
		b        model.Booking
		status   string
		reason   sql.NullString
		released sql.NullTime

		cancelled, confirmed, checkedIn, checkedOut sql.NullTime
	)
	err := row.Scan(
		&b.ID, &b.Reference, &b.RoomCategoryID, &b.GuestID, &b.CheckIn, &b.CheckOut, &b.NumRooms, &b.NumGuests,
		&status, &b.Currency, &b.Subtotal, &b.TaxAmount, &b.CommissionAmount, &b.HotelPayout, &b.TotalAmount,
		&cancelled, &reason, &confirmed, &checkedIn, &checkedOut, &released,
		&b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return model.Booking{}, err
	}
	b.Status = model.Status(status)
	b.CheckIn = calendar.Truncate(b.CheckIn)
	b.CheckOut = calendar.Truncate(b.CheckOut)
	b.CancellationDate = timePtr(cancelled)
	b.ConfirmedAt = timePtr(confirmed)
	b.CheckedInAt = timePtr(checkedIn)
	b.CheckedOutAt = timePtr(checkedOut)
	b.ReleasedAt = timePtr(released)
	if reason.Valid {
		r := reason.String
		b.CancellationReason = &r
	}
	return b, nil
}

// CreateTx inserts b within tx and fills its ID and timestamps.  The
// caller must commit or rollback the transaction.
func (r *BookingRepo) CreateTx(ctx context.Context, tx *sql.Tx, b *model.Booking) error {
	now := time.Now().UTC().Truncate(time.Second)
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now
	}
	if b.UpdatedAt.IsZero() {
		b.UpdatedAt = b.CreatedAt
	}
	const q = `INSERT INTO bookings (reference, room_category_id, guest_id, check_in, check_out, num_rooms, num_guests,
status, currency, subtotal, tax_amount, commission_amount, hotel_payout, total_amount, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q,
		b.Reference, b.RoomCategoryID, b.GuestID, calendar.DateKey(b.CheckIn), calendar.DateKey(b.CheckOut), b.NumRooms, b.NumGuests,
		string(b.Status), b.Currency, b.Subtotal, b.TaxAmount, b.CommissionAmount, b.HotelPayout, b.TotalAmount,
		b.CreatedAt, b.UpdatedAt,
	)
	if err != nil {
		if isDuplicate(err) {
			return fmt.Errorf("%w: booking reference %s", model.ErrDuplicateRequest, b.Reference)
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	return nil
}

// GetTx returns the booking with the given id, locking its row when lock
// is set.
func (r *BookingRepo) GetTx(ctx context.Context, tx *sql.Tx, id uint64, lock bool) (model.Booking, error) {
	q := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = ?`
	if lock {
		q += ` FOR UPDATE`
	}
	b, err := scanBooking(tx.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Booking{}, &model.NotFoundError{Kind: "booking", ID: id}
	}
	return b, err
}

// UpdateStatusTx writes the status, cancellation and stay fields of b
// provided the stored status is still expected.  It reports whether the
// row was updated.
func (r *BookingRepo) UpdateStatusTx(ctx context.Context, tx *sql.Tx, b model.Booking, expected model.Status) (bool, error) {
	const q = `UPDATE bookings SET status = ?, cancellation_date = ?, cancellation_reason = ?,
confirmed_at = ?, checked_in_at = ?, checked_out_at = ?, updated_at = ?
WHERE id = ? AND status = ?`
	res, err := tx.ExecContext(ctx, q,
		string(b.Status), nullTime(b.CancellationDate), nullString(b.CancellationReason),
		nullTime(b.ConfirmedAt), nullTime(b.CheckedInAt), nullTime(b.CheckedOutAt), b.UpdatedAt,
		b.ID, string(expected),
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

// MarkReleasedTx sets released_at unless it is already set.
func (r *BookingRepo) MarkReleasedTx(ctx context.Context, tx *sql.Tx, id uint64, at time.Time) (bool, error) {
	res, err := tx.ExecContext(ctx, `UPDATE bookings SET released_at = ? WHERE id = ? AND released_at IS NULL`, at, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

// BookedRoomsTx sums num_rooms of capacity-holding bookings for each of
// the given nights.
func (r *BookingRepo) BookedRoomsTx(ctx context.Context, tx *sql.Tx, roomCategoryID uint64, nights []time.Time) (map[string]int, error) {
	out := map[string]int{}
	if len(nights) == 0 {
		return out, nil
	}
	first, last := nights[0], nights[0]
	for _, n := range nights[1:] {
		if n.Before(first) {
			first = n
		}
		if n.After(last) {
			last = n
		}
	}
	holding := model.HoldingStatuses()
	q := `SELECT check_in, check_out, num_rooms FROM bookings
WHERE room_category_id = ? AND check_in <= ? AND check_out > ? AND status IN (` + placeholders(len(holding)) + `)`
	args := []any{roomCategoryID, calendar.DateKey(last), calendar.DateKey(first)}
	for _, s := range holding {
		args = append(args, string(s))
	}
	rows, err := tx.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var b model.Booking
		if err := rows.Scan(&b.CheckIn, &b.CheckOut, &b.NumRooms); err != nil {
			return nil, err
		}
		b.CheckIn, b.CheckOut = calendar.Truncate(b.CheckIn), calendar.Truncate(b.CheckOut)
		for _, n := range nights {
			if b.Covers(n) {
				out[calendar.DateKey(n)] += b.NumRooms
			}
		}
	}
	return out, rows.Err()
}

// ListTx returns the bookings of a category whose stay overlaps
// [from, to), ordered by check-in.
func (r *BookingRepo) ListTx(ctx context.Context, tx *sql.Tx, roomCategoryID uint64, from, to time.Time) ([]model.Booking, error) {
	q := `SELECT ` + bookingColumns + ` FROM bookings
WHERE room_category_id = ? AND check_in < ? AND check_out > ? ORDER BY check_in, id`
	rows, err := tx.QueryContext(ctx, q, roomCategoryID, calendar.DateKey(to), calendar.DateKey(from))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time.UTC()
	return &v
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
