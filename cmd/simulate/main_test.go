package main

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/clinic-scheduling/internal/api"
	"github.com/hackgods/clinic-scheduling/internal/apiclient"
)

func TestCheckInvariants(t *testing.T) {
	slot := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)
	ok := []api.BookingResponse{
		{ID: "BOOK_1", PatientID: "PAT_1", ProviderID: "PRV_1", Time: slot, Status: "attended"},
		{ID: "BOOK_2", PatientID: "PAT_2", ProviderID: "PRV_1", Time: slot, Status: "cancelled"},
		{ID: "BOOK_3", PatientID: "PAT_1", ProviderID: "PRV_2", Time: slot, Status: "booked"},
	}
	require.NoError(t, checkInvariants(ok))

	doubled := append(ok, api.BookingResponse{ID: "BOOK_4", PatientID: "PAT_3", ProviderID: "PRV_1", Time: slot, Status: "booked"})
	assert.ErrorContains(t, checkInvariants(doubled), "BOOK_4")

	overlap := append(ok, api.BookingResponse{ID: "BOOK_5", PatientID: "PAT_1", ProviderID: "PRV_3", Time: slot.In(time.FixedZone("X", 3600)), Status: "booked"})
	assert.ErrorContains(t, checkInvariants(overlap), "patient overlap")
}

func TestOperationMetrics(t *testing.T) {
	var om OperationMetrics
	om.Record(10*time.Millisecond, nil)
	om.Record(20*time.Millisecond, &apiclient.Error{Status: 409})
	om.Record(30*time.Millisecond, errors.New("connection reset"))

	assert.Equal(t, int64(3), om.Total)
	assert.Equal(t, int64(1), om.Success)
	assert.Equal(t, int64(1), om.Conflict)
	assert.Equal(t, int64(1), om.Error)

	avg, lo, hi, p50, _ := om.Stats()
	assert.Equal(t, 20*time.Millisecond, avg)
	assert.Equal(t, 10*time.Millisecond, lo)
	assert.Equal(t, 30*time.Millisecond, hi)
	assert.Equal(t, 20*time.Millisecond, p50)
}

func TestLoadConfigNormalisesRatios(t *testing.T) {
	t.Setenv("SIM_BOOKING_RATIO", "2")
	t.Setenv("SIM_MODIFY_RATIO", "1")
	t.Setenv("SIM_CANCEL_RATIO", "1")
	t.Setenv("SIM_ATTEND_RATIO", "0")
	t.Setenv("SIM_READ_RATIO", "0")

	cfg := loadConfig()
	assert.InDelta(t, 0.5, cfg.BookingRatio, 1e-9)
	assert.InDelta(t, 0.25, cfg.ModifyRatio, 1e-9)
	assert.NoError(t, validateConfig(cfg))

	cfg.Workers = 0
	assert.Error(t, validateConfig(cfg))
}
