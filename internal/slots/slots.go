// Package slots fetches open appointment slots for a specialty and day and
// turns them into selectable options. When the backend cannot answer it
// serves a fixed default schedule instead.
package slots

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/hackgods/healsync/internal/backend"
)

const DateLayout = "2006-01-02"

const DefaultDuration = 60 * time.Minute

var ErrInvalidQuery = errors.New("specialty and a YYYY-MM-DD date are required")

// fallbackWindows have no doctor attached. There is no 12:00-14:00 window.
var fallbackWindows = [][2]string{
	{"09:00", "10:00"},
	{"10:00", "11:00"},
	{"11:00", "12:00"},
	{"14:00", "15:00"},
	{"15:00", "16:00"},
	{"16:00", "17:00"},
}

// Fallback returns a fresh copy of the default schedule.
func Fallback() []backend.Slot {
	out := make([]backend.Slot, 0, len(fallbackWindows))
	for _, w := range fallbackWindows {
		out = append(out, backend.Slot{StartTime: w[0], EndTime: w[1]})
	}
	return out
}

type Source interface {
	AvailableSlots(ctx context.Context, specialty, date string, durationMinutes int) ([]backend.Slot, error)
}

type Client struct {
	source   Source
	duration time.Duration
	logger   zerolog.Logger
}

func NewClient(source Source, duration time.Duration, logger zerolog.Logger) *Client {
	if duration <= 0 {
		duration = DefaultDuration
	}
	return &Client{
		source:   source,
		duration: duration,
		logger:   logger.With().Str("component", "slots").Logger(),
	}
}

// FetchSlots makes one request for the day's slots. A well-formed answer is
// returned as is, empty included. Any failure is logged and answered with
// Fallback(). The only errors are ErrInvalidQuery and ctx's own error.
func (c *Client) FetchSlots(ctx context.Context, specialty, date string) ([]backend.Slot, error) {
	specialty = strings.TrimSpace(specialty)
	if specialty == "" {
		return nil, ErrInvalidQuery
	}
	if _, err := time.Parse(DateLayout, date); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidQuery, err)
	}

	got, err := c.source.AvailableSlots(ctx, specialty, date, int(c.duration/time.Minute))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		c.logger.Warn().
			Err(err).
			Str("specialty", specialty).
			Str("date", date).
			Msg("slot lookup failed, using default schedule")
		return Fallback(), nil
	}
	if got == nil {
		got = []backend.Slot{}
	}
	return got, nil
}

// Option is one entry of the time picker.
type Option struct {
	Label      string
	StartTime  string
	EndTime    string
	DoctorID   backend.ID
	DoctorName string
	// Fallback options come from the default schedule and carry no doctor.
	Fallback bool
}

type Selector struct {
	options []Option
}

// Populate replaces the options with one per slot, in order.
func (s *Selector) Populate(slots []backend.Slot) {
	s.options = make([]Option, 0, len(slots))
	for _, sl := range slots {
		label := sl.StartTime + " - " + sl.EndTime
		if sl.DoctorName != "" {
			label += " (" + sl.DoctorName + ")"
		}
		s.options = append(s.options, Option{
			Label:      label,
			StartTime:  sl.StartTime,
			EndTime:    sl.EndTime,
			DoctorID:   sl.DoctorID,
			DoctorName: sl.DoctorName,
			Fallback:   sl.DoctorID == "",
		})
	}
}

func (s *Selector) Options() []Option {
	out := make([]Option, len(s.options))
	copy(out, s.options)
	return out
}

func (s *Selector) Len() int { return len(s.options) }

// Select returns the option at index i (zero based).
func (s *Selector) Select(i int) (Option, error) {
	if i < 0 || i >= len(s.options) {
		return Option{}, fmt.Errorf("slot %d out of range (have %d)", i+1, len(s.options))
	}
	return s.options[i], nil
}
