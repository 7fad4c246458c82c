package scheduling

import "time"

type BookingStatus string

const (
	StatusBooked    BookingStatus = "booked"
	StatusCancelled BookingStatus = "cancelled"
	StatusAttended  BookingStatus = "attended"
)

func (s BookingStatus) Terminal() bool {
	return s == StatusCancelled || s == StatusAttended
}

type ProviderInput struct {
	Name      string
	Address   string
	Phone     string
	Expertise []string
}

type PatientInput struct {
	Name    string
	Address string
	Phone   string
}

// Provider is a point-in-time copy of a provider record.
type Provider struct {
	ID            string
	Name          string
	Address       string
	Phone         string
	Expertise     []string
	Active        bool
	TotalSlots    int
	OccupiedSlots int
}

// Patient is a point-in-time copy of a patient record.
type Patient struct {
	ID         string
	Name       string
	Address    string
	Phone      string
	Active     bool
	BookingIDs []string
}

type TreatmentInfo struct {
	Name       string
	ProviderID string
	Time       time.Time
}

// Booking is a point-in-time copy of a booking record.
type Booking struct {
	ID        string
	PatientID string
	Treatment TreatmentInfo
	Status    BookingStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

type ProviderBookings struct {
	Provider Provider
	Bookings []Booking
}

type ProviderAttendance struct {
	Provider Provider
	Attended int
}

type CreateBookingRequest struct {
	PatientID     string
	ProviderID    string
	TreatmentName string
	Time          time.Time
}

type ModifyBookingRequest struct {
	ProviderID    string
	TreatmentName string
	Time          time.Time
}
