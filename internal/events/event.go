package events

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
)

const (
	BookingCreated      = "BOOKING_CREATED"
	BookingCancelled    = "BOOKING_CANCELLED"
	BookingAttended     = "BOOKING_ATTENDED"
	BookingModified     = "BOOKING_MODIFIED"
	PatientDeactivated  = "PATIENT_DEACTIVATED"
	PatientReactivated  = "PATIENT_REACTIVATED"
	ProviderDeactivated = "PROVIDER_DEACTIVATED"
	ProviderActivated   = "PROVIDER_ACTIVATED"
)

// Event is an audit record of one completed state change.
type Event struct {
	Type          string    `json:"type"`
	BookingID     string    `json:"booking_id,omitempty"`
	PatientID     string    `json:"patient_id,omitempty"`
	ProviderID    string    `json:"provider_id,omitempty"`
	TreatmentName string    `json:"treatment_name,omitempty"`
	SlotTime      time.Time `json:"slot_time,omitzero"`
	Status        string    `json:"status,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// Sink receives events after the state change is committed. A failing sink
// never undoes the change.
type Sink interface {
	Publish(ctx context.Context, ev Event) error
}

// Fanout publishes to every sink and joins their errors.
type Fanout []Sink

func (f Fanout) Publish(ctx context.Context, ev Event) error {
	var errs []error
	for _, s := range f {
		if err := s.Publish(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// LogSink writes events to a zerolog logger.
type LogSink struct {
	Logger zerolog.Logger
}

func (s LogSink) Publish(_ context.Context, ev Event) error {
	e := s.Logger.Info().
		Str("event_type", ev.Type).
		Time("occurred_at", ev.OccurredAt)
	if ev.BookingID != "" {
		e = e.Str("booking_id", ev.BookingID)
	}
	if ev.PatientID != "" {
		e = e.Str("patient_id", ev.PatientID)
	}
	if ev.ProviderID != "" {
		e = e.Str("provider_id", ev.ProviderID)
	}
	if !ev.SlotTime.IsZero() {
		e = e.Time("slot_time", ev.SlotTime)
	}
	if ev.Status != "" {
		e = e.Str("status", ev.Status)
	}
	e.Msg("event")
	return nil
}
