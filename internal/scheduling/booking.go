package scheduling

import (
	"strings"
	"time"
)

// Treatment binds a named service to one provider slot. Name, provider and
// time never change; booked mirrors whether this treatment holds the slot.
type Treatment struct {
	name       string
	providerID string
	at         time.Time
	booked     bool
}

// NewTreatment validates the binding. A time equal to now is accepted.
func NewTreatment(name, providerID string, at, now time.Time) (*Treatment, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, newError(ErrInvalidInput, "new treatment", "provider", providerID, "treatment name is required")
	}
	if at.IsZero() {
		return nil, newError(ErrInvalidInput, "new treatment", "provider", providerID, "treatment time is required")
	}
	if at.Before(now) {
		return nil, newError(ErrPastTime, "new treatment", "provider", providerID, at.Format(time.RFC3339))
	}
	return &Treatment{name: name, providerID: providerID, at: at}, nil
}

func (t *Treatment) Name() string       { return t.name }
func (t *Treatment) ProviderID() string { return t.providerID }
func (t *Treatment) Time() time.Time    { return t.at }
func (t *Treatment) Booked() bool       { return t.booked }

func (t *Treatment) info() TreatmentInfo {
	return TreatmentInfo{Name: t.name, ProviderID: t.providerID, Time: t.at}
}

// book claims the slot on cal, which must be the calendar of t's provider.
func (t *Treatment) book(cal *SlotCalendar) error {
	if t.booked {
		return newError(ErrSlotUnavailable, "book treatment", "provider", t.providerID, "treatment is already booked")
	}
	if err := cal.Claim(t.at); err != nil {
		return err
	}
	t.booked = true
	return nil
}

func (t *Treatment) unbook(cal *SlotCalendar) {
	if !t.booked {
		return
	}
	cal.Release(t.at)
	t.booked = false
}

// restore re-occupies a slot this treatment released moments ago, even if the
// provider has since gone inactive. The caller still holds the provider lock.
func (t *Treatment) restore(cal *SlotCalendar) {
	cal.occupy(t.at)
	t.booked = true
}

// booking is the mutable record behind Booking. Its treatment and status are
// guarded by the owning patient's ledger mutex.
type booking struct {
	id        string
	patientID string
	treatment *Treatment
	status    BookingStatus
	createdAt time.Time
	updatedAt time.Time
}

// newBooking takes ownership of a booked treatment.
func newBooking(id, patientID string, t *Treatment, now time.Time) *booking {
	return &booking{
		id:        id,
		patientID: patientID,
		treatment: t,
		status:    StatusBooked,
		createdAt: now,
		updatedAt: now,
	}
}

func (b *booking) snapshot() Booking {
	return Booking{
		ID:        b.id,
		PatientID: b.patientID,
		Treatment: b.treatment.info(),
		Status:    b.status,
		CreatedAt: b.createdAt,
		UpdatedAt: b.updatedAt,
	}
}

func (b *booking) require(op string, want BookingStatus) error {
	if b.status != want {
		return newError(ErrInvalidTransition, op, "booking", b.id,
			"booking must be "+string(want)+", is "+string(b.status))
	}
	return nil
}

// attend keeps the slot occupied as a historical record.
func (b *booking) attend(now time.Time) error {
	if err := b.require("attend booking", StatusBooked); err != nil {
		return err
	}
	b.status = StatusAttended
	b.updatedAt = now
	return nil
}

func (b *booking) cancel(cal *SlotCalendar, now time.Time) error {
	if err := b.require("cancel booking", StatusBooked); err != nil {
		return err
	}
	b.treatment.unbook(cal)
	b.status = StatusCancelled
	b.updatedAt = now
	return nil
}

// change swaps in next. The old slot is released before the new one is
// claimed; if the claim fails the old slot is reclaimed and nothing changes.
func (b *booking) change(next *Treatment, oldCal, newCal *SlotCalendar, now time.Time) error {
	if err := b.require("modify booking", StatusBooked); err != nil {
		return err
	}
	prev := b.treatment
	prev.unbook(oldCal)
	if err := next.book(newCal); err != nil {
		prev.restore(oldCal)
		return err
	}
	b.treatment = next
	b.updatedAt = now
	return nil
}
