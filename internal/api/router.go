package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/hackgods/clinic-scheduling/internal/scheduling"
)

// Service is the scheduler surface the HTTP layer drives.
type Service interface {
	AddPatient(ctx context.Context, in scheduling.PatientInput) (scheduling.Patient, error)
	Patient(id string) (scheduling.Patient, error)
	Patients() []scheduling.Patient
	PatientBookings(id string) ([]scheduling.Booking, error)
	DeactivatePatient(ctx context.Context, id string) (scheduling.Patient, error)
	ReactivatePatient(ctx context.Context, id string) (scheduling.Patient, error)

	AddProvider(ctx context.Context, in scheduling.ProviderInput) (scheduling.Provider, error)
	Provider(id string) (scheduling.Provider, error)
	SearchProviders(expertise, name string) []scheduling.Provider
	FreeSlots(providerID string) ([]time.Time, error)
	DeactivateProvider(ctx context.Context, id string) (scheduling.Provider, error)
	ActivateProvider(ctx context.Context, id string) (scheduling.Provider, error)

	CreateBooking(ctx context.Context, req scheduling.CreateBookingRequest) (scheduling.Booking, error)
	ModifyBooking(ctx context.Context, id string, req scheduling.ModifyBookingRequest) (scheduling.Booking, error)
	CancelBooking(ctx context.Context, id string) (scheduling.Booking, error)
	AttendBooking(ctx context.Context, id string) (scheduling.Booking, error)
	Booking(id string) (scheduling.Booking, error)
	Bookings() []scheduling.Booking

	BookingsByProvider() []scheduling.ProviderBookings
	AttendedRanking() []scheduling.ProviderAttendance
}

type RouterConfig struct {
	Service  Service
	Health   *HealthHandler
	Gatherer prometheus.Gatherer // nil serves the default registry
	Logger   zerolog.Logger
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Logger))

	health := cfg.Health
	if health == nil {
		health = NewHealthHandler("", "")
	}
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	if cfg.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	} else {
		r.Handle("/metrics", promhttp.Handler())
	}

	svc := cfg.Service
	r.Route("/patients", func(r chi.Router) {
		r.Post("/", createPatientHandler(svc))
		r.Get("/", listPatientsHandler(svc))
		r.Get("/{id}", getPatientHandler(svc))
		r.Get("/{id}/bookings", patientBookingsHandler(svc))
		r.Post("/{id}/deactivate", deactivatePatientHandler(svc))
		r.Post("/{id}/reactivate", reactivatePatientHandler(svc))
	})
	r.Route("/providers", func(r chi.Router) {
		r.Post("/", createProviderHandler(svc))
		r.Get("/", listProvidersHandler(svc))
		r.Get("/{id}", getProviderHandler(svc))
		r.Get("/{id}/slots", providerSlotsHandler(svc))
		r.Post("/{id}/deactivate", deactivateProviderHandler(svc))
		r.Post("/{id}/activate", activateProviderHandler(svc))
	})
	r.Route("/bookings", func(r chi.Router) {
		r.Post("/", createBookingHandler(svc))
		r.Get("/", listBookingsHandler(svc))
		r.Get("/{id}", getBookingHandler(svc))
		r.Put("/{id}", modifyBookingHandler(svc))
		r.Post("/{id}/cancel", cancelBookingHandler(svc))
		r.Post("/{id}/attend", attendBookingHandler(svc))
	})
	r.Route("/reports", func(r chi.Router) {
		r.Get("/bookings-by-provider", bookingsByProviderHandler(svc))
		r.Get("/attended-ranking", attendedRankingHandler(svc))
		r.Get("/summary", summaryReportHandler(svc, cfg.Logger))
	})

	return r
}
