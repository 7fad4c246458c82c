// Package apiclient is a thin JSON client for the scheduling HTTP API, used by
// the seeder and the load simulator.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hackgods/clinic-scheduling/internal/api"
)

// Error is a non-2xx response.
type Error struct {
	Status int
	Code   string
	Detail string
}

func (e *Error) Error() string {
	return fmt.Sprintf("http %d %s: %s", e.Status, e.Code, e.Detail)
}

// Conflict reports whether the server refused on a 409.
func (e *Error) Conflict() bool { return e.Status == http.StatusConflict }

type Client struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string, hc *http.Client) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: hc}
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		rd = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var e api.ErrorResponse
		_ = json.NewDecoder(resp.Body).Decode(&e)
		return &Error{Status: resp.StatusCode, Code: e.Error, Detail: e.Details}
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func (c *Client) CreatePatient(ctx context.Context, req api.CreatePatientRequest) (api.PatientResponse, error) {
	var out api.PatientResponse
	err := c.do(ctx, http.MethodPost, "/patients", req, &out)
	return out, err
}

func (c *Client) CreateProvider(ctx context.Context, req api.CreateProviderRequest) (api.ProviderResponse, error) {
	var out api.ProviderResponse
	err := c.do(ctx, http.MethodPost, "/providers", req, &out)
	return out, err
}

func (c *Client) Providers(ctx context.Context) ([]api.ProviderResponse, error) {
	var out []api.ProviderResponse
	err := c.do(ctx, http.MethodGet, "/providers", nil, &out)
	return out, err
}

func (c *Client) Patients(ctx context.Context) ([]api.PatientResponse, error) {
	var out []api.PatientResponse
	err := c.do(ctx, http.MethodGet, "/patients", nil, &out)
	return out, err
}

func (c *Client) FreeSlots(ctx context.Context, providerID string) ([]time.Time, error) {
	var out api.SlotsResponse
	err := c.do(ctx, http.MethodGet, "/providers/"+url.PathEscape(providerID)+"/slots", nil, &out)
	return out.Slots, err
}

func (c *Client) CreateBooking(ctx context.Context, patientID, providerID, treatment string, at time.Time) (api.BookingResponse, error) {
	var out api.BookingResponse
	err := c.do(ctx, http.MethodPost, "/bookings", api.CreateBookingRequest{
		PatientID:     patientID,
		ProviderID:    providerID,
		TreatmentName: treatment,
		Time:          at.Format(time.RFC3339),
	}, &out)
	return out, err
}

func (c *Client) ModifyBooking(ctx context.Context, id, providerID, treatment string, at time.Time) (api.BookingResponse, error) {
	var out api.BookingResponse
	err := c.do(ctx, http.MethodPut, "/bookings/"+url.PathEscape(id), api.ModifyBookingRequest{
		ProviderID:    providerID,
		TreatmentName: treatment,
		Time:          at.Format(time.RFC3339),
	}, &out)
	return out, err
}

func (c *Client) CancelBooking(ctx context.Context, id string) (api.BookingResponse, error) {
	var out api.BookingResponse
	err := c.do(ctx, http.MethodPost, "/bookings/"+url.PathEscape(id)+"/cancel", nil, &out)
	return out, err
}

func (c *Client) AttendBooking(ctx context.Context, id string) (api.BookingResponse, error) {
	var out api.BookingResponse
	err := c.do(ctx, http.MethodPost, "/bookings/"+url.PathEscape(id)+"/attend", nil, &out)
	return out, err
}

func (c *Client) Booking(ctx context.Context, id string) (api.BookingResponse, error) {
	var out api.BookingResponse
	err := c.do(ctx, http.MethodGet, "/bookings/"+url.PathEscape(id), nil, &out)
	return out, err
}

func (c *Client) Bookings(ctx context.Context) ([]api.BookingResponse, error) {
	var out []api.BookingResponse
	err := c.do(ctx, http.MethodGet, "/bookings", nil, &out)
	return out, err
}
