package scheduling

import (
	"sync"
	"time"
)

// PatientLedger holds a patient's bookings and active flag. Its mutex also
// guards the status and treatment of every booking it owns, and is always
// acquired after any provider lock.
type PatientLedger struct {
	mu        sync.Mutex
	patientID string
	active    bool
	bookings  []*booking
}

func NewPatientLedger(patientID string) *PatientLedger {
	return &PatientLedger{patientID: patientID, active: true}
}

func (l *PatientLedger) Register(b *booking) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.register(b)
}

func (l *PatientLedger) Deactivate() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.deactivate()
}

func (l *PatientLedger) Reactivate() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.active = true
}

// Bookings returns copies of the owned bookings in registration order.
func (l *PatientLedger) Bookings() []Booking {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Booking, 0, len(l.bookings))
	for _, b := range l.bookings {
		out = append(out, b.snapshot())
	}
	return out
}

// The lower-case methods below expect l.mu to be held.

func (l *PatientLedger) register(b *booking) error {
	if !l.active {
		return newError(ErrInactivePatient, "register booking", "patient", l.patientID, "")
	}
	if l.bookedAt(b.treatment.at, b.id) {
		return newError(ErrOverlapConflict, "register booking", "patient", l.patientID, b.treatment.at.Format(time.RFC3339))
	}
	l.bookings = append(l.bookings, b)
	return nil
}

// bookedAt reports whether a Booked booking other than excludeID sits at t.
func (l *PatientLedger) bookedAt(t time.Time, excludeID string) bool {
	for _, b := range l.bookings {
		if b.id == excludeID || b.status.Terminal() {
			continue
		}
		if b.treatment.at.Equal(t) {
			return true
		}
	}
	return false
}

func (l *PatientLedger) hasActiveBookings() bool {
	for _, b := range l.bookings {
		if !b.status.Terminal() {
			return true
		}
	}
	return false
}

func (l *PatientLedger) deactivate() error {
	if l.hasActiveBookings() {
		return newError(ErrHasActiveBookings, "deactivate patient", "patient", l.patientID, "")
	}
	l.active = false
	return nil
}

func (l *PatientLedger) bookingIDs() []string {
	ids := make([]string, 0, len(l.bookings))
	for _, b := range l.bookings {
		ids = append(ids, b.id)
	}
	return ids
}
