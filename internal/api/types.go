package api

import (
	"time"

	"github.com/hackgods/clinic-scheduling/internal/scheduling"
)

type CreatePatientRequest struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
}

type CreateProviderRequest struct {
	Name      string   `json:"name"`
	Address   string   `json:"address"`
	Phone     string   `json:"phone"`
	Expertise []string `json:"expertise"`
}

type CreateBookingRequest struct {
	PatientID     string `json:"patient_id"`
	ProviderID    string `json:"provider_id"`
	TreatmentName string `json:"treatment_name"`
	Time          string `json:"time"` // RFC3339
}

type ModifyBookingRequest struct {
	ProviderID    string `json:"provider_id"`
	TreatmentName string `json:"treatment_name"`
	Time          string `json:"time"` // RFC3339
}

type PatientResponse struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Address    string   `json:"address,omitempty"`
	Phone      string   `json:"phone,omitempty"`
	Active     bool     `json:"active"`
	BookingIDs []string `json:"booking_ids"`
}

type ProviderResponse struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Address       string   `json:"address,omitempty"`
	Phone         string   `json:"phone,omitempty"`
	Expertise     []string `json:"expertise"`
	Active        bool     `json:"active"`
	TotalSlots    int      `json:"total_slots"`
	OccupiedSlots int      `json:"occupied_slots"`
}

type BookingResponse struct {
	ID            string    `json:"id"`
	PatientID     string    `json:"patient_id"`
	ProviderID    string    `json:"provider_id"`
	TreatmentName string    `json:"treatment_name"`
	Time          time.Time `json:"time"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type SlotsResponse struct {
	ProviderID string      `json:"provider_id"`
	Slots      []time.Time `json:"slots"`
}

type ProviderBookingsResponse struct {
	Provider ProviderResponse  `json:"provider"`
	Bookings []BookingResponse `json:"bookings"`
}

type AttendanceResponse struct {
	Provider ProviderResponse `json:"provider"`
	Attended int              `json:"attended"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func toPatientResponse(p scheduling.Patient) PatientResponse {
	ids := p.BookingIDs
	if ids == nil {
		ids = []string{}
	}
	return PatientResponse{
		ID:         p.ID,
		Name:       p.Name,
		Address:    p.Address,
		Phone:      p.Phone,
		Active:     p.Active,
		BookingIDs: ids,
	}
}

func toProviderResponse(p scheduling.Provider) ProviderResponse {
	expertise := p.Expertise
	if expertise == nil {
		expertise = []string{}
	}
	return ProviderResponse{
		ID:            p.ID,
		Name:          p.Name,
		Address:       p.Address,
		Phone:         p.Phone,
		Expertise:     expertise,
		Active:        p.Active,
		TotalSlots:    p.TotalSlots,
		OccupiedSlots: p.OccupiedSlots,
	}
}

func toBookingResponse(b scheduling.Booking) BookingResponse {
	return BookingResponse{
		ID:            b.ID,
		PatientID:     b.PatientID,
		ProviderID:    b.Treatment.ProviderID,
		TreatmentName: b.Treatment.Name,
		Time:          b.Treatment.Time.UTC(),
		Status:        string(b.Status),
		CreatedAt:     b.CreatedAt.UTC(),
		UpdatedAt:     b.UpdatedAt.UTC(),
	}
}

func toBookingResponses(list []scheduling.Booking) []BookingResponse {
	out := make([]BookingResponse, 0, len(list))
	for _, b := range list {
		out = append(out, toBookingResponse(b))
	}
	return out
}
