package model

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors.  Every typed error below matches exactly one of these
// through errors.Is so that handlers can branch on the kind while still
// reading details with errors.As.
var (
	ErrValidation            = errors.New("validation failed")
	ErrNotFound              = errors.New("not found")
	ErrInsufficientInventory = errors.New("insufficient inventory")
	ErrInvalidTransition     = errors.New("invalid status transition")
	ErrContention            = errors.New("contention")
	ErrForbidden             = errors.New("forbidden")
	ErrDuplicateRequest      = errors.New("duplicate request")
)

// ValidationError reports malformed input.  Its message is safe to show
// to callers verbatim.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return e.Field + ": " + e.Reason
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// InvalidRangeError is returned when a stay does not span at least one
// night.
type InvalidRangeError struct {
	CheckIn  time.Time
	CheckOut time.Time
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("check_out %s must be after check_in %s",
		e.CheckOut.Format(time.DateOnly), e.CheckIn.Format(time.DateOnly))
}

func (e *InvalidRangeError) Is(target error) bool { return target == ErrValidation }

// NotFoundError reports an unknown room category, property or booking.
type NotFoundError struct {
	Kind string
	ID   uint64
}

func (e *NotFoundError) Error() string { return fmt.Sprintf("%s %d not found", e.Kind, e.ID) }

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// InsufficientInventoryError is the terminal rejection of an admission.
// Night is the first night on which capacity did not hold.
type InsufficientInventoryError struct {
	RoomCategoryID uint64
	Night          time.Time
	Requested      int
	Available      int
}

func (e *InsufficientInventoryError) Error() string {
	return fmt.Sprintf("room category %d: requested %d rooms, %d available on %s",
		e.RoomCategoryID, e.Requested, e.Available, e.Night.Format(time.DateOnly))
}

func (e *InsufficientInventoryError) Is(target error) bool {
	return target == ErrInsufficientInventory
}

// InvalidTransitionError names the current and requested status of a
// rejected life-cycle change.
type InvalidTransitionError struct {
	From Status
	To   Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot transition booking from %s to %s", e.From, e.To)
}

func (e *InvalidTransitionError) Is(target error) bool { return target == ErrInvalidTransition }

// ContentionError is a transient failure to acquire locks in time.
// Callers may retry the whole operation.
type ContentionError struct {
	Op       string
	Attempts int
	Err      error
}

func (e *ContentionError) Error() string {
	msg := "contention"
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Attempts > 1 {
		msg += fmt.Sprintf(" after %d attempts", e.Attempts)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ContentionError) Unwrap() error { return e.Err }

func (e *ContentionError) Is(target error) bool { return target == ErrContention }

// IsRetryable reports whether err is worth retrying as a whole.
func IsRetryable(err error) bool { return errors.Is(err, ErrContention) }
