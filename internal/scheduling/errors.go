package scheduling

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrSlotUnavailable   = errors.New("slot unavailable")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrOverlapConflict   = errors.New("patient already has a booking at this time")
	ErrInactivePatient   = errors.New("patient is inactive")
	ErrInactiveProvider  = errors.New("provider is inactive")
	ErrHasActiveBookings = errors.New("patient has active bookings")
	ErrPastTime          = errors.New("time is in the past")
	ErrInvalidInput      = errors.New("invalid input")
)

// Error carries the context of a rejected operation. Kind is one of the
// sentinel errors above, so callers match with errors.Is.
type Error struct {
	Kind   error
	Op     string
	Entity string
	ID     string
	Detail string
}

func (e *Error) Error() string {
	msg := e.Op + ": " + e.Kind.Error()
	if e.Entity != "" {
		msg += fmt.Sprintf(" (%s %s)", e.Entity, e.ID)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Kind }

func newError(kind error, op, entity, id, detail string) *Error {
	return &Error{Kind: kind, Op: op, Entity: entity, ID: id, Detail: detail}
}

// Code returns a stable snake_case code for err, used for metrics labels and
// API error bodies.
func Code(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrSlotUnavailable):
		return "slot_unavailable"
	case errors.Is(err, ErrInvalidTransition):
		return "invalid_transition"
	case errors.Is(err, ErrOverlapConflict):
		return "overlap_conflict"
	case errors.Is(err, ErrInactivePatient):
		return "inactive_patient"
	case errors.Is(err, ErrInactiveProvider):
		return "inactive_provider"
	case errors.Is(err, ErrHasActiveBookings):
		return "has_active_bookings"
	case errors.Is(err, ErrPastTime):
		return "past_time"
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	default:
		return "internal_error"
	}
}
