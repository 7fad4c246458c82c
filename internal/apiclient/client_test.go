package apiclient

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/clinic-scheduling/internal/api"
	"github.com/hackgods/clinic-scheduling/internal/scheduling"
)

func newClient(t *testing.T) *Client {
	t.Helper()
	now := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	s, err := scheduling.New(scheduling.Options{
		Policy: scheduling.DefaultCalendarPolicy(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)),
		Clock:  scheduling.ClockFunc(func() time.Time { return now }),
		Logger: zerolog.Nop(),
	})
	require.NoError(t, err)

	srv := httptest.NewServer(api.NewRouter(api.RouterConfig{
		Service:  s,
		Logger:   zerolog.Nop(),
	}))
	t.Cleanup(srv.Close)
	return New(srv.URL+"/", srv.Client())
}

func TestClientRoundTrip(t *testing.T) {
	c := newClient(t)
	ctx := context.Background()

	pat, err := c.CreatePatient(ctx, api.CreatePatientRequest{Name: "Alice"})
	require.NoError(t, err)
	prv, err := c.CreateProvider(ctx, api.CreateProviderRequest{Name: "Dr Ana", Expertise: []string{"Massage"}})
	require.NoError(t, err)

	slots, err := c.FreeSlots(ctx, prv.ID)
	require.NoError(t, err)
	require.NotEmpty(t, slots)

	b, err := c.CreateBooking(ctx, pat.ID, prv.ID, "Massage", slots[0])
	require.NoError(t, err)
	assert.Equal(t, "booked", b.Status)

	b, err = c.ModifyBooking(ctx, b.ID, prv.ID, "Massage", slots[1])
	require.NoError(t, err)
	assert.True(t, b.Time.Equal(slots[1]))

	b, err = c.AttendBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "attended", b.Status)

	_, err = c.CancelBooking(ctx, b.ID)
	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.True(t, apiErr.Conflict())
	assert.Equal(t, "invalid_transition", apiErr.Code)

	got, err := c.Booking(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, b.ID, got.ID)

	all, err := c.Bookings(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	providers, err := c.Providers(ctx)
	require.NoError(t, err)
	assert.Len(t, providers, 1)
	patients, err := c.Patients(ctx)
	require.NoError(t, err)
	assert.Len(t, patients, 1)
}

func TestClientNotFound(t *testing.T) {
	c := newClient(t)

	_, err := c.Booking(context.Background(), "BOOK_X")
	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 404, apiErr.Status)
	assert.Equal(t, "not_found", apiErr.Code)
	assert.False(t, apiErr.Conflict())
}
