package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/hackgods/clinic-scheduling/internal/scheduling"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, details string) {
	writeJSON(w, status, ErrorResponse{Error: code, Details: details})
}

// handleSchedulingError maps scheduler error kinds onto HTTP statuses.
func handleSchedulingError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, scheduling.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, scheduling.ErrSlotUnavailable),
		errors.Is(err, scheduling.ErrInvalidTransition),
		errors.Is(err, scheduling.ErrOverlapConflict),
		errors.Is(err, scheduling.ErrHasActiveBookings):
		status = http.StatusConflict
	case errors.Is(err, scheduling.ErrInactivePatient),
		errors.Is(err, scheduling.ErrInactiveProvider):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, scheduling.ErrPastTime),
		errors.Is(err, scheduling.ErrInvalidInput):
		status = http.StatusBadRequest
	}
	writeError(w, status, scheduling.Code(err), err.Error())
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
		return false
	}
	return true
}

func parseTime(w http.ResponseWriter, raw string) (time.Time, bool) {
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_time", "time must be RFC3339, e.g. 2025-06-02T10:00:00Z")
		return time.Time{}, false
	}
	return t, true
}
