package repository

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"time"

	"github.com/iliyamo/hotel-booking-engine/internal/port"
)

// Options bounds a single unit of work.  LockWait is applied as the
// session's innodb_lock_wait_timeout (whole seconds, at least one);
// TxTimeout caps the transaction as a whole.
//
// The SET is session scoped: it stays on the pooled connection after
// the transaction, and later View transactions on it inherit it.  database.Open
// configures the same value for every connection through the DSN, so
// the statement only matters for databases opened elsewhere.
type Options struct {
	LockWait  time.Duration
	TxTimeout time.Duration
}

// Store implements port.Store on a MySQL database.
type Store struct {
	db         *sql.DB
	opts       Options
	categories *RoomCategoryRepo
	inventory  *InventoryRepo
	bookings   *BookingRepo
}

// NewStore returns a Store bound to db.
func NewStore(db *sql.DB, opts Options) *Store {
	if opts.TxTimeout <= 0 {
		opts.TxTimeout = 5 * time.Second
	}
	return &Store{
		db:         db,
		opts:       opts,
		categories: NewRoomCategoryRepo(db),
		inventory:  NewInventoryRepo(db),
		bookings:   NewBookingRepo(db),
	}
}

// View runs fn in a read-only READ COMMITTED transaction.
func (s *Store) View(ctx context.Context, fn func(tx port.Tx) error) error {
	return s.run(ctx, "view", true, fn)
}

// Update runs fn in a READ COMMITTED write transaction and commits when fn
// returns nil.
func (s *Store) Update(ctx context.Context, fn func(tx port.Tx) error) error {
	return s.run(ctx, "update", false, fn)
}

func (s *Store) run(ctx context.Context, op string, readOnly bool, fn func(tx port.Tx) error) error {
	txCtx, cancel := context.WithTimeout(ctx, s.opts.TxTimeout)
	defer cancel()

	tx, err := s.db.BeginTx(txCtx, &sql.TxOptions{Isolation: sql.LevelReadCommitted, ReadOnly: readOnly})
	if err != nil {
		return classify(ctx, txCtx, op, fmt.Errorf("begin: %w", err))
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if !readOnly && s.opts.LockWait > 0 {
		secs := int(math.Ceil(s.opts.LockWait.Seconds()))
		if _, err := tx.ExecContext(txCtx, "SET SESSION innodb_lock_wait_timeout = ?", secs); err != nil {
			return classify(ctx, txCtx, op, fmt.Errorf("set lock wait: %w", err))
		}
	}

	if err := fn(&sqlTx{tx: tx, readOnly: readOnly, s: s}); err != nil {
		return classify(ctx, txCtx, op, err)
	}
	if err := tx.Commit(); err != nil {
		return classify(ctx, txCtx, op, fmt.Errorf("commit: %w", err))
	}
	committed = true
	return nil
}
