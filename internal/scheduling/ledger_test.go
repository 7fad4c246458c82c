package scheduling

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedgerRegisterOverlap(t *testing.T) {
	cal1, cal2 := newTestCalendar(t), newTestCalendar(t)
	l := NewPatientLedger("PAT_1")

	first := newBooking("BOOK_1", "PAT_1", bookedTreatment(t, cal1, "PRV_1", at(2, 10)), testNow)
	require.NoError(t, l.Register(first))

	clash := newBooking("BOOK_2", "PAT_1", bookedTreatment(t, cal2, "PRV_2", at(2, 10)), testNow)
	assert.ErrorIs(t, l.Register(clash), ErrOverlapConflict)

	other := newBooking("BOOK_3", "PAT_1", bookedTreatment(t, cal2, "PRV_2", at(2, 11)), testNow)
	require.NoError(t, l.Register(other))

	assert.Len(t, l.Bookings(), 2)
}

func TestLedgerIgnoresTerminalBookingsForOverlap(t *testing.T) {
	cal := newTestCalendar(t)
	l := NewPatientLedger("PAT_1")

	first := newBooking("BOOK_1", "PAT_1", bookedTreatment(t, cal, "PRV_1", at(2, 10)), testNow)
	require.NoError(t, l.Register(first))
	require.NoError(t, first.cancel(cal, testNow))

	again := newBooking("BOOK_2", "PAT_1", bookedTreatment(t, cal, "PRV_1", at(2, 10)), testNow)
	require.NoError(t, l.Register(again))
}

func TestLedgerAttendedBookingDoesNotBlockSameTime(t *testing.T) {
	cal1, cal2 := newTestCalendar(t), newTestCalendar(t)
	l := NewPatientLedger("PAT_1")

	first := newBooking("BOOK_1", "PAT_1", bookedTreatment(t, cal1, "PRV_1", at(2, 10)), testNow)
	require.NoError(t, l.Register(first))
	require.NoError(t, first.attend(testNow))
	assert.True(t, first.status.Terminal())
	assert.False(t, l.hasActiveBookings())

	again := newBooking("BOOK_2", "PAT_1", bookedTreatment(t, cal2, "PRV_2", at(2, 10)), testNow)
	require.NoError(t, l.Register(again))
	assert.True(t, l.hasActiveBookings())
}

func TestLedgerInactivePatient(t *testing.T) {
	cal := newTestCalendar(t)
	l := NewPatientLedger("PAT_1")
	require.NoError(t, l.Deactivate())
	assert.False(t, l.active)

	b := newBooking("BOOK_1", "PAT_1", bookedTreatment(t, cal, "PRV_1", at(2, 10)), testNow)
	assert.ErrorIs(t, l.Register(b), ErrInactivePatient)
	assert.Empty(t, l.Bookings())

	l.Reactivate()
	assert.True(t, l.active)
	require.NoError(t, l.Register(b))
}

func TestLedgerDeactivationGuard(t *testing.T) {
	cal := newTestCalendar(t)
	l := NewPatientLedger("PAT_1")
	b := newBooking("BOOK_1", "PAT_1", bookedTreatment(t, cal, "PRV_1", at(2, 10)), testNow)
	require.NoError(t, l.Register(b))

	assert.True(t, l.hasActiveBookings())
	assert.ErrorIs(t, l.Deactivate(), ErrHasActiveBookings)
	assert.True(t, l.active)

	require.NoError(t, b.attend(testNow))
	assert.False(t, l.hasActiveBookings())
	require.NoError(t, l.Deactivate())
	assert.False(t, l.active)
}
