package port

import (
	"context"

	"github.com/iliyamo/hotel-booking-engine/internal/model"
)

// EventPublisher announces committed booking changes.  Publishing is
// best effort: it runs after commit and its failure never undoes the
// change.
type EventPublisher interface {
	BookingChanged(ctx context.Context, b model.Booking, previous model.Status) error
}

// IdempotencyStore guards booking requests against client retries.
type IdempotencyStore interface {
	// Reserve claims key, returning false if it is already taken.
	Reserve(ctx context.Context, key string) (bool, error)
	// Forget frees key so that a failed request may be retried.
	Forget(ctx context.Context, key string) error
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) BookingChanged(context.Context, model.Booking, model.Status) error { return nil }
