// Package backend is the HTTP client for the appointment API. Failures are
// reported as *TransportError, *NotFoundError or *ServerError.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const bookPrefix = "/v1/appointments/book"

type Client struct {
	baseURL string
	http    *http.Client
	logger  zerolog.Logger
}

// New returns a client for baseURL. A nil httpClient gets one with the
// given timeout; zero means no timeout.
func New(baseURL string, httpClient *http.Client, timeout time.Duration, logger zerolog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		logger:  logger.With().Str("component", "backend").Logger(),
	}
}

func (c *Client) AvailableSlots(ctx context.Context, specialty, date string, durationMinutes int) ([]Slot, error) {
	q := url.Values{}
	q.Set("specialty", specialty)
	q.Set("date", date)
	q.Set("durationMinutes", strconv.Itoa(durationMinutes))

	var slots []Slot
	if err := c.getList(ctx, bookPrefix+"/available-slots", q, &slots); err != nil {
		return nil, err
	}
	if slots == nil {
		slots = []Slot{}
	}
	return slots, nil
}

func (c *Client) BookAppointment(ctx context.Context, req BookingRequest) (*Appointment, error) {
	q := url.Values{}
	q.Set("speciality", req.Specialty)
	q.Set("startDateTime", req.StartDateTime)
	q.Set("endDateTime", req.EndDateTime)
	q.Set("patientId", req.PatientID)

	body, err := json.Marshal(bookingBody{DoctorID: req.DoctorID, Reason: req.Reason})
	if err != nil {
		return nil, fmt.Errorf("encode booking: %w", err)
	}

	status, raw, err := c.do(ctx, http.MethodPost, bookPrefix+"/appointment", q, body)
	if err != nil {
		return nil, err
	}

	// a created response with no body still counts as booked
	var appt Appointment
	if len(bytes.TrimSpace(raw)) == 0 {
		return &appt, nil
	}
	if err := json.Unmarshal(raw, &appt); err != nil {
		return nil, &ServerError{StatusCode: status, Message: "malformed appointment response", Err: err}
	}
	return &appt, nil
}

func (c *Client) CancelAppointment(ctx context.Context, id string) (*Appointment, error) {
	path := bookPrefix + "/appointment/" + url.PathEscape(id) + "/cancel"
	status, raw, err := c.do(ctx, http.MethodPost, path, nil, nil)
	if err != nil {
		return nil, err
	}

	var appt Appointment
	if err := json.Unmarshal(raw, &appt); err != nil {
		return nil, &ServerError{StatusCode: status, Message: "malformed appointment response", Err: err}
	}
	return &appt, nil
}

func (c *Client) PatientAppointments(ctx context.Context, patientID string) ([]Appointment, error) {
	q := url.Values{}
	q.Set("patientId", patientID)

	var appts []Appointment
	if err := c.getList(ctx, bookPrefix+"/patient/appointments", q, &appts); err != nil {
		return nil, err
	}
	if appts == nil {
		appts = []Appointment{}
	}
	return appts, nil
}

// DoctorAppointments returns the doctor's appointments as raw records.
func (c *Client) DoctorAppointments(ctx context.Context, doctorID string) ([]Record, error) {
	q := url.Values{}
	q.Set("doctorId", doctorID)
	return c.getRecords(ctx, bookPrefix+"/doctor/appointments", q)
}

// DoctorPatients returns the doctor's patients as raw records.
func (c *Client) DoctorPatients(ctx context.Context, doctorID string) ([]Record, error) {
	return c.getRecords(ctx, "/v1/doctor/"+url.PathEscape(doctorID)+"/patients", nil)
}

func (c *Client) getRecords(ctx context.Context, path string, q url.Values) ([]Record, error) {
	var recs []Record
	if err := c.getList(ctx, path, q, &recs); err != nil {
		return nil, err
	}
	out := make([]Record, 0, len(recs))
	for _, r := range recs {
		if r != nil {
			out = append(out, r)
		}
	}
	return out, nil
}

// getList fetches path and decodes a JSON array into dst. Any other body
// shape, null included, is a *ServerError.
func (c *Client) getList(ctx context.Context, path string, q url.Values, dst any) error {
	status, raw, err := c.do(ctx, http.MethodGet, path, q, nil)
	if err != nil {
		return err
	}

	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return &ServerError{StatusCode: status, Message: "expected a JSON array"}
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	if err := dec.Decode(dst); err != nil {
		return &ServerError{StatusCode: status, Message: "malformed response body", Err: err}
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, q url.Values, body []byte) (int, []byte, error) {
	target := c.baseURL + path
	if len(q) > 0 {
		target += "?" + q.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return 0, nil, &TransportError{Op: method + " " + path, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, &TransportError{Op: method + " " + path, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, &TransportError{Op: "read " + path, Err: err}
	}

	c.logger.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("backend call")

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return resp.StatusCode, raw, &NotFoundError{Path: path, Message: errorMessage(raw)}
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return resp.StatusCode, raw, &ServerError{StatusCode: resp.StatusCode, Message: errorMessage(raw)}
	}
	return resp.StatusCode, raw, nil
}
