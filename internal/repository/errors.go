// Package repository implements port.Store on MySQL.  Each repo type keeps
// the SQL of one table and exposes ...Tx methods that run inside a caller
// supplied transaction; Store opens the transactions and translates
// storage contention into *model.ContentionError.
package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/hotel-booking-engine/internal/model"
)

// MySQL server error numbers the repository reacts to.
const (
	errLockWaitTimeout uint16 = 1205
	errDeadlock        uint16 = 1213
	errDuplicateEntry  uint16 = 1062
)

// isContention reports whether err is a lock wait timeout or a deadlock
// reported by the server.
func isContention(err error) bool {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == errLockWaitTimeout || me.Number == errDeadlock
	}
	return false
}

// isDuplicate reports whether err is a unique key violation.
func isDuplicate(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == errDuplicateEntry
}

// classify maps err from a transaction run under txCtx, derived from the
// caller's ctx.  Contention and the store's own deadline become
// *model.ContentionError; the caller's cancellation and every other error
// are returned as they are.
func classify(ctx, txCtx context.Context, op string, err error) error {
	if err == nil {
		return nil
	}
	if isContention(err) {
		return &model.ContentionError{Op: op, Attempts: 1, Err: err}
	}
	if ctx.Err() == nil && errors.Is(txCtx.Err(), context.DeadlineExceeded) && deadlineSymptom(err) {
		return &model.ContentionError{Op: op, Attempts: 1, Err: txCtx.Err()}
	}
	return err
}

// deadlineSymptom reports whether err is how database/sql and the driver
// surface an expired context.
func deadlineSymptom(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, sql.ErrTxDone)
}
