// Package calendar holds the date-range arithmetic of a stay.  A stay is
// the half-open interval [check-in, check-out): the guest departs on the
// check-out date, so that night is not part of the stay.  All dates are
// UTC calendar dates.
package calendar

import (
	"iter"
	"strings"
	"time"

	"github.com/iliyamo/hotel-booking-engine/internal/model"
)

// Truncate returns UTC midnight of t's calendar date.
func Truncate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DateKey is the canonical YYYY-MM-DD key of t's date.
func DateKey(t time.Time) string { return t.Format(time.DateOnly) }

// ParseDate parses a YYYY-MM-DD value into UTC midnight.
func ParseDate(field, s string) (time.Time, error) {
	t, err := time.ParseInLocation(time.DateOnly, strings.TrimSpace(s), time.UTC)
	if err != nil {
		return time.Time{}, &model.ValidationError{Field: field, Reason: "expected YYYY-MM-DD"}
	}
	return t, nil
}

// NightsBetween returns the number of nights, and therefore billing
// units, in [checkIn, checkOut).
func NightsBetween(checkIn, checkOut time.Time) (int, error) {
	in, out := Truncate(checkIn), Truncate(checkOut)
	if !out.After(in) {
		return 0, &model.InvalidRangeError{CheckIn: in, CheckOut: out}
	}
	// Dates are UTC midnights so every day is exactly 24h.
	return int(out.Sub(in) / (24 * time.Hour)), nil
}

// EnumerateNights yields every night of [checkIn, checkOut) in order.
// The sequence is lazy and can be ranged over any number of times; an
// empty or inverted range yields nothing.
func EnumerateNights(checkIn, checkOut time.Time) iter.Seq[time.Time] {
	in, out := Truncate(checkIn), Truncate(checkOut)
	return func(yield func(time.Time) bool) {
		for d := in; d.Before(out); d = d.AddDate(0, 0, 1) {
			if !yield(d) {
				return
			}
		}
	}
}

// Nights validates the range and materialises its nights.
func Nights(checkIn, checkOut time.Time) ([]time.Time, error) {
	n, err := NightsBetween(checkIn, checkOut)
	if err != nil {
		return nil, err
	}
	out := make([]time.Time, 0, n)
	for d := range EnumerateNights(checkIn, checkOut) {
		out = append(out, d)
	}
	return out, nil
}

// OnOrAfter filters nights to those not before day.  It is used to find
// the nights of a stay that have not been consumed yet.
func OnOrAfter(nights []time.Time, day time.Time) []time.Time {
	day = Truncate(day)
	out := make([]time.Time, 0, len(nights))
	for _, n := range nights {
		if !n.Before(day) {
			out = append(out, n)
		}
	}
	return out
}
