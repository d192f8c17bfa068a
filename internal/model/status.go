package model

import "strings"

// Status is the life-cycle state of a booking.
type Status string

const (
	StatusPending    Status = "pending"
	StatusConfirmed  Status = "confirmed"
	StatusCheckedIn  Status = "checked_in"
	StatusCheckedOut Status = "checked_out"
	StatusCancelled  Status = "cancelled"
	StatusNoShow     Status = "no_show"
)

// transitions is the only place the booking state machine is defined.
// Terminal states map to an empty set.
var transitions = map[Status][]Status{
	StatusPending:    {StatusConfirmed, StatusCancelled},
	StatusConfirmed:  {StatusCheckedIn, StatusCancelled, StatusNoShow},
	StatusCheckedIn:  {StatusCheckedOut},
	StatusCheckedOut: {},
	StatusCancelled:  {},
	StatusNoShow:     {},
}

// Statuses returns every known status in declaration order.
func Statuses() []Status {
	return []Status{StatusPending, StatusConfirmed, StatusCheckedIn, StatusCheckedOut, StatusCancelled, StatusNoShow}
}

// ParseStatus converts a wire value into a Status.  Unknown values fail
// with a ValidationError.
func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	if !st.IsValid() {
		return "", &ValidationError{Field: "status", Reason: "unknown status " + s}
	}
	return st, nil
}

// IsValid reports whether s is one of the declared statuses.
func (s Status) IsValid() bool {
	_, ok := transitions[s]
	return ok
}

// CanTransitionTo reports whether s -> to is an allowed edge.
func (s Status) CanTransitionTo(to Status) bool {
	for _, t := range transitions[s] {
		if t == to {
			return true
		}
	}
	return false
}

// Next returns the statuses reachable from s in one step.
func (s Status) Next() []Status {
	out := make([]Status, len(transitions[s]))
	copy(out, transitions[s])
	return out
}

// IsTerminal reports whether s has no outgoing edges.
func (s Status) IsTerminal() bool {
	return s.IsValid() && len(transitions[s]) == 0
}

// Holds reports whether a booking in status s occupies capacity.
func (s Status) Holds() bool {
	return s == StatusPending || s == StatusConfirmed || s == StatusCheckedIn
}

// ReleasesCapacity reports whether entering s returns the remaining
// future nights to the pool.  Every terminal status does: a checkout
// before the last night frees the rest of the stay.
func (s Status) ReleasesCapacity() bool { return s.IsTerminal() }

// HoldingStatuses lists the statuses counted by derived availability.
func HoldingStatuses() []Status {
	return []Status{StatusPending, StatusConfirmed, StatusCheckedIn}
}

func (s Status) String() string { return string(s) }
