// Package booking validates the booking form, submits it once, reports the
// outcome through an alert.Notifier and sends the user to their profile
// after a short delay.
package booking

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/hackgods/healsync/internal/alert"
	"github.com/hackgods/healsync/internal/backend"
	"github.com/hackgods/healsync/internal/localstore"
	"github.com/hackgods/healsync/internal/session"
)

const (
	DefaultDuration      = 60 * time.Minute
	DefaultRedirectDelay = 2 * time.Second

	successMessage = "Appointment booked successfully!"
	failureMessage = "Failed to book appointment"
)

var (
	ErrSubmitInProgress = errors.New("a booking request is already in progress")
	ErrNotSignedIn      = errors.New("sign in as a patient to book an appointment")
)

type Booker interface {
	BookAppointment(ctx context.Context, req backend.BookingRequest) (*backend.Appointment, error)
}

// BookingLog keeps a local copy of every booking made on this client.
type BookingLog interface {
	AppendToCollection(key string, record any) error
}

type Navigator interface {
	Navigate(path string)
}

type Config struct {
	Booker        Booker
	Bookings      BookingLog
	Navigator     Navigator
	Notifier      alert.Notifier
	Session       *session.Session
	Duration      time.Duration
	RedirectDelay time.Duration
	Logger        zerolog.Logger
}

type Controller struct {
	booker        Booker
	bookings      BookingLog
	nav           Navigator
	notifier      alert.Notifier
	session       *session.Session
	duration      time.Duration
	redirectDelay time.Duration
	logger        zerolog.Logger

	inFlight atomic.Bool
}

func NewController(cfg Config) *Controller {
	if cfg.Duration <= 0 {
		cfg.Duration = DefaultDuration
	}
	if cfg.RedirectDelay <= 0 {
		cfg.RedirectDelay = DefaultRedirectDelay
	}
	return &Controller{
		booker:        cfg.Booker,
		bookings:      cfg.Bookings,
		nav:           cfg.Navigator,
		notifier:      cfg.Notifier,
		session:       cfg.Session,
		duration:      cfg.Duration,
		redirectDelay: cfg.RedirectDelay,
		logger:        cfg.Logger.With().Str("component", "booking").Logger(),
	}
}

// Disabled reports whether a submission is in flight.
func (c *Controller) Disabled() bool {
	return c.inFlight.Load()
}

// Submit books the appointment described by form. Validation failures
// return *ValidationError and never reach the network. Backend failures are
// returned wrapped; the alert carries the backend's message when it sent
// one.
func (c *Controller) Submit(ctx context.Context, form Form) (*backend.Appointment, error) {
	if !c.inFlight.CompareAndSwap(false, true) {
		return nil, ErrSubmitInProgress
	}
	defer c.inFlight.Store(false)

	start, end, err := form.window(c.duration)
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			alert.Error(c.notifier, verr.UserMessage())
		}
		return nil, err
	}

	if !c.session.IsPatient() {
		alert.Error(c.notifier, "Please sign in as a patient to book an appointment")
		return nil, ErrNotSignedIn
	}

	req := backend.BookingRequest{
		Specialty:     form.Specialty,
		StartDateTime: formatDateTime(start),
		EndDateTime:   formatDateTime(end),
		PatientID:     c.session.UserID,
		DoctorID:      form.DoctorID,
		Reason:        form.Reason,
	}

	appt, err := c.booker.BookAppointment(ctx, req)
	if err != nil {
		msg := backend.Message(err)
		if msg == "" {
			msg = failureMessage
		}
		c.logger.Warn().Err(err).Str("doctor_id", req.DoctorID).Msg("booking failed")
		alert.Error(c.notifier, msg)
		return nil, fmt.Errorf("book appointment: %w", err)
	}

	record := bookingRecord(appt, req, start, end)
	c.logger.Info().
		Str("appointment_id", record.ID.String()).
		Str("doctor_id", req.DoctorID).
		Str("start", req.StartDateTime).
		Msg("appointment booked")
	alert.Success(c.notifier, successMessage)

	if c.bookings != nil {
		if err := c.bookings.AppendToCollection(localstore.KeyBookings, record); err != nil {
			c.logger.Warn().Err(err).Msg("could not record booking locally")
		}
	}

	if c.nav != nil {
		path := c.session.ProfilePath()
		time.AfterFunc(c.redirectDelay, func() { c.nav.Navigate(path) })
	}

	return record, nil
}

// bookingRecord fills the fields the backend left out from what was sent.
func bookingRecord(appt *backend.Appointment, req backend.BookingRequest, start, end time.Time) *backend.Appointment {
	rec := *appt
	if rec.DoctorID == "" {
		rec.DoctorID = backend.ID(req.DoctorID)
	}
	if rec.PatientID == "" {
		rec.PatientID = backend.ID(req.PatientID)
	}
	if rec.Specialty == "" {
		rec.Specialty = req.Specialty
	}
	if rec.Date == "" {
		rec.Date = start.Format(dateLayout)
	}
	if rec.StartTime == "" {
		rec.StartTime = start.Format(clockLayout)
	}
	if rec.EndTime == "" {
		rec.EndTime = end.Format(clockLayout)
	}
	if rec.Reason == "" {
		rec.Reason = req.Reason
	}
	if rec.Status == "" {
		rec.Status = "SCHEDULED"
	}
	return &rec
}
