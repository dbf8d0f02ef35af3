package appointment

import (
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	StatusScheduled AppointmentStatus = "SCHEDULED"
	StatusCompleted AppointmentStatus = "COMPLETED"
	StatusCancelled AppointmentStatus = "CANCELLED"
)

type Patient struct {
	ID        uuid.UUID
	Name      string
	Email     *string
	Age       *int
	Gender    *string
	MobileNo  *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Doctor struct {
	ID        uuid.UUID
	Name      string
	Specialty string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Appointment struct {
	ID        uuid.UUID
	DoctorID  uuid.UUID
	PatientID uuid.UUID
	Specialty string
	StartTime time.Time
	EndTime   time.Time
	Status    AppointmentStatus
	Reason    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Overlaps reports whether the half-open ranges [a.Start, a.End) and [start, end) intersect.
func (a Appointment) Overlaps(start, end time.Time) bool {
	return a.StartTime.Before(end) && start.Before(a.EndTime)
}

// Slot is an open window for one doctor. It is never persisted.
type Slot struct {
	DoctorID   uuid.UUID
	DoctorName string
	StartTime  time.Time
	EndTime    time.Time
}

type EventLog struct {
	ID            int64
	EventType     string
	AppointmentID *uuid.UUID
	Payload       []byte
	CreatedAt     time.Time
}

type AppointmentDetail struct {
	Appointment
	Doctor  *Doctor
	Patient *Patient
}

// PatientSummary is one patient as seen from a doctor's dashboard, carrying
// the most recent appointment that links them.
type PatientSummary struct {
	Patient
	AppointmentStart  time.Time
	AppointmentStatus AppointmentStatus
}

// BookingRequest is what the booking endpoint accepts after parsing.
type BookingRequest struct {
	DoctorID  uuid.UUID
	PatientID uuid.UUID
	Specialty string
	StartTime time.Time
	EndTime   time.Time
	Reason    string
}
