package api

import (
	"bytes"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/hackgods/clinic-scheduling/internal/report"
	"github.com/hackgods/clinic-scheduling/internal/scheduling"
)

// Patients

func createPatientHandler(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreatePatientRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		p, err := svc.AddPatient(r.Context(), scheduling.PatientInput{
			Name:    req.Name,
			Address: req.Address,
			Phone:   req.Phone,
		})
		if err != nil {
			handleSchedulingError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toPatientResponse(p))
	}
}

func listPatientsHandler(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		patients := svc.Patients()
		out := make([]PatientResponse, 0, len(patients))
		for _, p := range patients {
			out = append(out, toPatientResponse(p))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func getPatientHandler(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := svc.Patient(chi.URLParam(r, "id"))
		if err != nil {
			handleSchedulingError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toPatientResponse(p))
	}
}

func patientBookingsHandler(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.PatientBookings(chi.URLParam(r, "id"))
		if err != nil {
			handleSchedulingError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toBookingResponses(list))
	}
}

func deactivatePatientHandler(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := svc.DeactivatePatient(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			handleSchedulingError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toPatientResponse(p))
	}
}

func reactivatePatientHandler(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := svc.ReactivatePatient(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			handleSchedulingError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toPatientResponse(p))
	}
}

// Providers

func createProviderHandler(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateProviderRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		p, err := svc.AddProvider(r.Context(), scheduling.ProviderInput{
			Name:      req.Name,
			Address:   req.Address,
			Phone:     req.Phone,
			Expertise: req.Expertise,
		})
		if err != nil {
			handleSchedulingError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toProviderResponse(p))
	}
}

func listProvidersHandler(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		providers := svc.SearchProviders(q.Get("expertise"), q.Get("name"))
		out := make([]ProviderResponse, 0, len(providers))
		for _, p := range providers {
			out = append(out, toProviderResponse(p))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func getProviderHandler(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := svc.Provider(chi.URLParam(r, "id"))
		if err != nil {
			handleSchedulingError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toProviderResponse(p))
	}
}

func providerSlotsHandler(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		slots, err := svc.FreeSlots(id)
		if err != nil {
			handleSchedulingError(w, err)
			return
		}
		if slots == nil {
			slots = []time.Time{}
		}
		writeJSON(w, http.StatusOK, SlotsResponse{ProviderID: id, Slots: slots})
	}
}

func deactivateProviderHandler(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := svc.DeactivateProvider(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			handleSchedulingError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toProviderResponse(p))
	}
}

func activateProviderHandler(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := svc.ActivateProvider(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			handleSchedulingError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toProviderResponse(p))
	}
}

// Bookings

func createBookingHandler(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateBookingRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		at, ok := parseTime(w, req.Time)
		if !ok {
			return
		}
		b, err := svc.CreateBooking(r.Context(), scheduling.CreateBookingRequest{
			PatientID:     req.PatientID,
			ProviderID:    req.ProviderID,
			TreatmentName: req.TreatmentName,
			Time:          at,
		})
		if err != nil {
			handleSchedulingError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toBookingResponse(b))
	}
}

func listBookingsHandler(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, toBookingResponses(svc.Bookings()))
	}
}

func getBookingHandler(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b, err := svc.Booking(chi.URLParam(r, "id"))
		if err != nil {
			handleSchedulingError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toBookingResponse(b))
	}
}

func modifyBookingHandler(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ModifyBookingRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		at, ok := parseTime(w, req.Time)
		if !ok {
			return
		}
		b, err := svc.ModifyBooking(r.Context(), chi.URLParam(r, "id"), scheduling.ModifyBookingRequest{
			ProviderID:    req.ProviderID,
			TreatmentName: req.TreatmentName,
			Time:          at,
		})
		if err != nil {
			handleSchedulingError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toBookingResponse(b))
	}
}

func cancelBookingHandler(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b, err := svc.CancelBooking(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			handleSchedulingError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toBookingResponse(b))
	}
}

func attendBookingHandler(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b, err := svc.AttendBooking(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			handleSchedulingError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toBookingResponse(b))
	}
}

// Reports

func bookingsByProviderHandler(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		groups := svc.BookingsByProvider()
		out := make([]ProviderBookingsResponse, 0, len(groups))
		for _, g := range groups {
			out = append(out, ProviderBookingsResponse{
				Provider: toProviderResponse(g.Provider),
				Bookings: toBookingResponses(g.Bookings),
			})
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func attendedRankingHandler(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ranking := svc.AttendedRanking()
		out := make([]AttendanceResponse, 0, len(ranking))
		for _, a := range ranking {
			out = append(out, AttendanceResponse{Provider: toProviderResponse(a.Provider), Attended: a.Attended})
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// summaryReportHandler renders the report in full before sending it, so a
// rendering failure can still become a 500.
func summaryReportHandler(svc Service, log zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var buf bytes.Buffer
		if err := report.Write(&buf, svc); err != nil {
			log.Error().Err(err).Str("request_id", GetRequestID(r.Context())).Msg("failed to render report")
			writeError(w, http.StatusInternalServerError, "internal_error", "failed to render report")
			return
		}

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write(buf.Bytes()); err != nil {
			log.Warn().Err(err).Str("request_id", GetRequestID(r.Context())).Msg("failed to write report")
		}
	}
}
