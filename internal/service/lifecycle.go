package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/hotel-booking-engine/internal/model"
	"github.com/iliyamo/hotel-booking-engine/internal/port"
)

// TransitionRequest asks to move a booking to status To.  When Expected
// is set the request only applies if the booking is still in that
// status.
type TransitionRequest struct {
	BookingID uint64
	To        model.Status
	Reason    string
	Expected  model.Status
}

// Lifecycle drives bookings through the state machine defined by
// model.Status.  Each transition locks the booking row and writes the new
// status conditionally on the status it read, so two racing requests
// cannot both apply.
type Lifecycle struct {
	store  port.Store
	ledger *Ledger
	events port.EventPublisher
	retry  RetryPolicy
	log    *zap.Logger
	now    func() time.Time
}

// NewLifecycle returns a Lifecycle releasing capacity through ledger.
func NewLifecycle(store port.Store, ledger *Ledger, events port.EventPublisher, retry RetryPolicy, log *zap.Logger) *Lifecycle {
	if events == nil {
		events = port.NopPublisher{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Lifecycle{store: store, ledger: ledger, events: events, retry: retry.normalized(), log: log, now: time.Now}
}

// Transition applies req on behalf of p and returns the updated booking.
func (l *Lifecycle) Transition(ctx context.Context, p model.Principal, req TransitionRequest) (model.Booking, error) {
	if !p.CanDriveLifecycle() {
		return model.Booking{}, fmt.Errorf("%w: role %q may not change booking status", model.ErrForbidden, p.Role)
	}
	if !req.To.IsValid() {
		return model.Booking{}, &model.ValidationError{Field: "status", Reason: "unknown status " + string(req.To)}
	}
	if req.Expected != "" && !req.Expected.IsValid() {
		return model.Booking{}, &model.ValidationError{Field: "expected_status", Reason: "unknown status " + string(req.Expected)}
	}
	req.Reason = strings.TrimSpace(req.Reason)
	if req.To == model.StatusCancelled && req.Reason == "" {
		return model.Booking{}, &model.ValidationError{Field: "reason", Reason: "is required to cancel"}
	}

	var updated model.Booking
	var previous model.Status
	err := withRetry(ctx, l.retry, "transition", l.log, func() error {
		return l.store.Update(ctx, func(tx port.Tx) error {
			b, err := tx.Booking(ctx, req.BookingID, true)
			if err != nil {
				return err
			}
			cat, err := tx.RoomCategory(ctx, b.RoomCategoryID)
			if err != nil {
				return err
			}
			prop, err := tx.Property(ctx, cat.PropertyID)
			if err != nil {
				return err
			}
			if !p.CanManage(prop.OwnerID) {
				return fmt.Errorf("%w: property %d is not managed by user %d", model.ErrForbidden, prop.ID, p.UserID)
			}
			if req.Expected != "" && req.Expected != b.Status {
				return &model.InvalidTransitionError{From: b.Status, To: req.To}
			}
			if !b.Status.CanTransitionTo(req.To) {
				return &model.InvalidTransitionError{From: b.Status, To: req.To}
			}

			next := applyTransition(b, req, l.now().UTC())
			ok, err := tx.UpdateBookingStatus(ctx, next, b.Status)
			if err != nil {
				return err
			}
			if !ok {
				current, err := tx.Booking(ctx, b.ID, false)
				if err != nil {
					return err
				}
				return &model.InvalidTransitionError{From: current.Status, To: req.To}
			}
			if next.Status.ReleasesCapacity() {
				if next, err = l.ledger.releaseTx(ctx, tx, cat, next); err != nil {
					return err
				}
			}
			updated, previous = next, b.Status
			return nil
		})
	})
	if err != nil {
		l.log.Info("transition rejected",
			zap.Uint64("booking_id", req.BookingID),
			zap.String("to", req.To.String()),
			zap.Error(err))
		return model.Booking{}, err
	}

	l.log.Info("booking transitioned",
		zap.Uint64("booking_id", updated.ID),
		zap.String("from", previous.String()),
		zap.String("status", updated.Status.String()),
		zap.Uint64("actor_id", p.UserID))
	if err := l.events.BookingChanged(ctx, updated, previous); err != nil {
		l.log.Warn("publish booking event failed", zap.Uint64("booking_id", updated.ID), zap.Error(err))
	}
	return updated, nil
}

// applyTransition returns b with the status and the side-effect fields of
// entering req.To set.
func applyTransition(b model.Booking, req TransitionRequest, now time.Time) model.Booking {
	b.Status = req.To
	b.UpdatedAt = now
	switch req.To {
	case model.StatusCancelled, model.StatusNoShow:
		b.CancellationDate = &now
		b.CancellationReason = nil
		if req.Reason != "" {
			reason := req.Reason
			b.CancellationReason = &reason
		}
	default:
		b.CancellationDate = nil
		b.CancellationReason = nil
	}
	switch req.To {
	case model.StatusConfirmed:
		b.ConfirmedAt = &now
	case model.StatusCheckedIn:
		b.CheckedInAt = &now
	case model.StatusCheckedOut:
		b.CheckedOutAt = &now
	}
	return b
}
