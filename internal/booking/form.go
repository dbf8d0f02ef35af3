package booking

import (
	"strings"
	"time"

	"github.com/hackgods/healsync/internal/slots"
)

const (
	dateLayout     = "2006-01-02"
	clockLayout    = "15:04"
	dateTimeLayout = "2006-01-02T15:04:05"
)

// Form is what the user filled in. EndTime is set when the time came from a
// slot that carries its own end.
type Form struct {
	DoctorID  string
	Specialty string
	Date      string
	Time      string
	EndTime   string
	Reason    string
}

// ApplySlot copies a picked option into the form. Options from the default
// schedule have no doctor, so the doctor already on the form is kept.
func (f *Form) ApplySlot(opt slots.Option) {
	f.Time = opt.StartTime
	f.EndTime = opt.EndTime
	if opt.DoctorID != "" {
		f.DoctorID = opt.DoctorID.String()
	}
}

type ValidationError struct {
	Missing []string
	Invalid []string
}

func (e *ValidationError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing required fields: "+strings.Join(e.Missing, ", "))
	}
	if len(e.Invalid) > 0 {
		parts = append(parts, "invalid fields: "+strings.Join(e.Invalid, ", "))
	}
	return strings.Join(parts, "; ")
}

// UserMessage is the text shown in the alert.
func (e *ValidationError) UserMessage() string {
	if len(e.Missing) > 0 {
		return "Please fill in all required fields: " + strings.Join(e.Missing, ", ")
	}
	return "Please correct: " + strings.Join(e.Invalid, ", ")
}

// window validates the form and returns the requested time range in UTC.
func (f Form) window(duration time.Duration) (time.Time, time.Time, error) {
	verr := &ValidationError{}
	for _, field := range []struct{ name, value string }{
		{"doctor", f.DoctorID},
		{"date", f.Date},
		{"time", f.Time},
		{"reason", f.Reason},
	} {
		if strings.TrimSpace(field.value) == "" {
			verr.Missing = append(verr.Missing, field.name)
		}
	}
	if len(verr.Missing) > 0 {
		return time.Time{}, time.Time{}, verr
	}

	day, err := time.Parse(dateLayout, strings.TrimSpace(f.Date))
	if err != nil {
		verr.Invalid = append(verr.Invalid, "date")
	}
	clock, err := time.Parse(clockLayout, strings.TrimSpace(f.Time))
	if err != nil {
		verr.Invalid = append(verr.Invalid, "time")
	}
	var endClock time.Time
	if f.EndTime != "" {
		endClock, err = time.Parse(clockLayout, strings.TrimSpace(f.EndTime))
		if err != nil {
			verr.Invalid = append(verr.Invalid, "endTime")
		}
	}
	if len(verr.Invalid) > 0 {
		return time.Time{}, time.Time{}, verr
	}

	start := day.Add(time.Duration(clock.Hour())*time.Hour + time.Duration(clock.Minute())*time.Minute)
	end := start.Add(duration)
	if f.EndTime != "" {
		end = day.Add(time.Duration(endClock.Hour())*time.Hour + time.Duration(endClock.Minute())*time.Minute)
		if !end.After(start) {
			verr.Invalid = append(verr.Invalid, "endTime")
			return time.Time{}, time.Time{}, verr
		}
	}
	return start, end, nil
}

func formatDateTime(t time.Time) string {
	return t.UTC().Format(dateTimeLayout)
}
