package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/iliyamo/hotel-booking-engine/internal/calendar"
	"github.com/iliyamo/hotel-booking-engine/internal/model"
	"github.com/iliyamo/hotel-booking-engine/internal/port"
	"github.com/iliyamo/hotel-booking-engine/internal/pricing"
)

// LedgerConfig carries the pricing rates and the contention policy of a
// Ledger.
type LedgerConfig struct {
	Rates pricing.Rates
	Retry RetryPolicy
}

// AdmitRequest asks for NumRooms rooms of a category every night of
// [CheckIn, CheckOut).
type AdmitRequest struct {
	RoomCategoryID uint64
	CheckIn        time.Time
	CheckOut       time.Time
	NumRooms       int
	NumGuests      int
	Principal      model.Principal
}

// ReservationHandle references the pending booking created by Admit.
type ReservationHandle struct {
	BookingID uint64
	Reference string
	Booking   model.Booking
}

// Ledger admits and releases capacity.  Admission is a single unit of
// work: the capacity check, the inventory decrement and the booking
// insert either all commit or none do.
type Ledger struct {
	store  port.Store
	events port.EventPublisher
	cfg    LedgerConfig
	log    *zap.Logger
	now    func() time.Time
}

// NewLedger returns a Ledger over store.  A nil publisher drops events.
func NewLedger(store port.Store, events port.EventPublisher, cfg LedgerConfig, log *zap.Logger) *Ledger {
	if events == nil {
		events = port.NopPublisher{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	cfg.Retry = cfg.Retry.normalized()
	return &Ledger{store: store, events: events, cfg: cfg, log: log, now: time.Now}
}

func (r AdmitRequest) validate() error {
	switch {
	case r.RoomCategoryID == 0:
		return &model.ValidationError{Field: "room_category_id", Reason: "is required"}
	case r.NumRooms < 1:
		return &model.ValidationError{Field: "num_rooms", Reason: "must be at least 1"}
	case r.NumGuests < 1:
		return &model.ValidationError{Field: "num_guests", Reason: "must be at least 1"}
	}
	return nil
}

// Admit reserves capacity and creates a pending booking, or fails with
// *model.InsufficientInventoryError leaving inventory untouched.
func (l *Ledger) Admit(ctx context.Context, req AdmitRequest) (ReservationHandle, error) {
	if err := req.validate(); err != nil {
		return ReservationHandle{}, err
	}
	nights, err := calendar.Nights(req.CheckIn, req.CheckOut)
	if err != nil {
		return ReservationHandle{}, err
	}

	var booking model.Booking
	err = withRetry(ctx, l.cfg.Retry, "admit", l.log, func() error {
		return l.store.Update(ctx, func(tx port.Tx) error {
			b, err := l.admitTx(ctx, tx, req, nights)
			if err != nil {
				return err
			}
			booking = b
			return nil
		})
	})
	if err != nil {
		l.log.Info("admission rejected",
			zap.Uint64("room_category_id", req.RoomCategoryID),
			zap.String("check_in", calendar.DateKey(nights[0])),
			zap.Int("nights", len(nights)),
			zap.Int("num_rooms", req.NumRooms),
			zap.Error(err))
		return ReservationHandle{}, err
	}

	l.log.Info("booking admitted",
		zap.Uint64("booking_id", booking.ID),
		zap.Uint64("room_category_id", booking.RoomCategoryID),
		zap.Int("num_rooms", booking.NumRooms),
		zap.String("total", booking.TotalAmount.StringFixed(2)))
	l.publish(ctx, booking, "")
	return ReservationHandle{BookingID: booking.ID, Reference: booking.Reference, Booking: booking}, nil
}

func (l *Ledger) admitTx(ctx context.Context, tx port.Tx, req AdmitRequest, nights []time.Time) (model.Booking, error) {
	cat, err := tx.RoomCategory(ctx, req.RoomCategoryID)
	if err != nil {
		return model.Booking{}, err
	}

	// Materialise derived nights as explicit records so that every
	// admission contends on the same rows, then lock them in date order.
	existing, err := tx.InventoryRecords(ctx, cat.ID, nights, false)
	if err != nil {
		return model.Booking{}, err
	}
	if len(existing) < len(nights) {
		derived, err := resolveTx(ctx, tx, cat, nights, false)
		if err != nil {
			return model.Booking{}, err
		}
		seeds := make([]model.InventoryRecord, 0, len(nights)-len(existing))
		for _, n := range nights {
			key := calendar.DateKey(n)
			if _, ok := existing[key]; !ok {
				seeds = append(seeds, model.InventoryRecord{RoomCategoryID: cat.ID, Date: n, AvailableRooms: derived.PerNight[key]})
			}
		}
		if err := tx.SeedInventory(ctx, seeds); err != nil {
			return model.Booking{}, err
		}
	}

	av, err := resolveTx(ctx, tx, cat, nights, true)
	if err != nil {
		return model.Booking{}, err
	}
	for _, n := range nights {
		if free := av.PerNight[calendar.DateKey(n)]; free < req.NumRooms {
			return model.Booking{}, &model.InsufficientInventoryError{
				RoomCategoryID: cat.ID,
				Night:          n,
				Requested:      req.NumRooms,
				Available:      free,
			}
		}
	}
	if err := tx.AdjustInventory(ctx, cat.ID, nights, -req.NumRooms, cat.TotalRooms); err != nil {
		return model.Booking{}, err
	}

	split, err := l.cfg.Rates.Split(cat.BasePrice, len(nights), req.NumRooms)
	if err != nil {
		return model.Booking{}, err
	}
	b := model.Booking{
		Reference:      uuid.NewString(),
		RoomCategoryID: cat.ID,
		GuestID:        req.Principal.UserID,
		CheckIn:        nights[0],
		CheckOut:       nights[len(nights)-1].AddDate(0, 0, 1),
		NumRooms:       req.NumRooms,
		NumGuests:      req.NumGuests,
		Status:         model.StatusPending,
		Currency:       cat.Currency,
	}
	split.Apply(&b)
	if err := tx.CreateBooking(ctx, &b); err != nil {
		return model.Booking{}, err
	}
	return b, nil
}

// Release returns the future nights of a booking that no longer holds
// capacity.  Releasing twice is a no-op.
func (l *Ledger) Release(ctx context.Context, bookingID uint64) error {
	return withRetry(ctx, l.cfg.Retry, "release", l.log, func() error {
		return l.store.Update(ctx, func(tx port.Tx) error {
			b, err := tx.Booking(ctx, bookingID, true)
			if err != nil {
				return err
			}
			if b.Status.Holds() {
				return &model.ValidationError{Field: "status", Reason: "booking " + b.Status.String() + " still holds its rooms"}
			}
			cat, err := tx.RoomCategory(ctx, b.RoomCategoryID)
			if err != nil {
				return err
			}
			_, err = l.releaseTx(ctx, tx, cat, b)
			return err
		})
	})
}

// releaseTx returns the nights of b on or after today, capped at the
// category size, and stamps the booking as released.  b's row must be
// locked by the caller.
func (l *Ledger) releaseTx(ctx context.Context, tx port.Tx, cat model.RoomCategory, b model.Booking) (model.Booking, error) {
	if b.Released() {
		return b, nil
	}
	now := l.now().UTC()
	first, err := tx.MarkReleased(ctx, b.ID, now)
	if err != nil {
		return b, err
	}
	if !first {
		return b, nil
	}
	b.ReleasedAt = &now

	nights, err := calendar.Nights(b.CheckIn, b.CheckOut)
	if err != nil {
		return b, err
	}
	future := calendar.OnOrAfter(nights, now)
	if len(future) > 0 {
		if err := tx.AdjustInventory(ctx, cat.ID, future, b.NumRooms, cat.TotalRooms); err != nil {
			return b, err
		}
	}
	l.log.Info("capacity released",
		zap.Uint64("booking_id", b.ID),
		zap.Uint64("room_category_id", cat.ID),
		zap.Int("nights", len(future)),
		zap.Int("num_rooms", b.NumRooms))
	return b, nil
}

func (l *Ledger) publish(ctx context.Context, b model.Booking, previous model.Status) {
	if err := l.events.BookingChanged(ctx, b, previous); err != nil {
		l.log.Warn("publish booking event failed", zap.Uint64("booking_id", b.ID), zap.Error(err))
	}
}
