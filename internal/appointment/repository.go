package appointment

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrPatientNotFound     = errors.New("patient not found")
	ErrDoctorNotFound      = errors.New("doctor not found")
	ErrAppointmentNotFound = errors.New("appointment not found")
)

// Repository contains all DB interactions needed by the service.
type Repository interface {
	GetPatientByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	GetDoctorByID(ctx context.Context, id uuid.UUID) (*Doctor, error)
	ListDoctorsBySpecialty(ctx context.Context, specialty string) ([]Doctor, error)

	// Scheduled appointments of a doctor intersecting [from, to)
	ListScheduledForDoctor(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]Appointment, error)

	GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	GetAppointmentDetail(ctx context.Context, id uuid.UUID) (*AppointmentDetail, error)
	ListAppointmentsByDoctor(ctx context.Context, doctorID uuid.UUID) ([]AppointmentDetail, error)
	ListAppointmentsByPatient(ctx context.Context, patientID uuid.UUID) ([]AppointmentDetail, error)
	ListPatientsByDoctor(ctx context.Context, doctorID uuid.UUID) ([]PatientSummary, error)

	// Creation and updates
	CreateAppointment(ctx context.Context, req BookingRequest) (*Appointment, error)
	UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, from, to AppointmentStatus) (*Appointment, error)

	// Completion worker
	FindElapsedScheduled(ctx context.Context, now time.Time) ([]Appointment, error)

	// Event logging
	InsertEvent(ctx context.Context, ev EventLog) error
}
