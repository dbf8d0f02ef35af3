package appointment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hackgods/healsync/internal/config"
	redisclient "github.com/hackgods/healsync/internal/redis"
)

const (
	EventAppointmentBooked    = "APPOINTMENT_BOOKED"
	EventAppointmentCancelled = "APPOINTMENT_CANCELLED"
	EventAppointmentCompleted = "APPOINTMENT_COMPLETED"
)

const (
	MinSlotDuration = 15 * time.Minute
	MaxSlotDuration = 4 * time.Hour
)

var (
	ErrDoctorAlreadyBooked     = errors.New("doctor already has an appointment in this time range")
	ErrDoctorBeingBooked       = errors.New("doctor is currently being booked, please retry")
	ErrInvalidStatusTransition = errors.New("invalid status transition")
	ErrInvalidTimeRange        = errors.New("end time must be after start time")
	ErrOutsideWorkday          = errors.New("appointment is outside working hours")
	ErrStartInPast             = errors.New("appointment start is in the past")
	ErrReasonRequired          = errors.New("reason is required")
	ErrSpecialtyMismatch       = errors.New("doctor does not practice the requested specialty")
	ErrInvalidDuration         = errors.New("duration must be between 15 and 240 minutes")
	ErrSpecialtyRequired       = errors.New("specialty is required")
)

type Service struct {
	repo   Repository
	locker redisclient.Locker
	cfg    config.Config
	logger zerolog.Logger
	now    func() time.Time
}

func NewService(repo Repository, locker redisclient.Locker, cfg config.Config, logger zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		locker: locker,
		cfg:    cfg,
		logger: logger.With().Str("component", "appointment").Logger(),
		now:    time.Now,
	}
}

func (s *Service) workday(date time.Time) (time.Time, time.Time) {
	y, m, d := date.Date()
	start := time.Date(y, m, d, s.cfg.WorkdayStart, 0, 0, 0, time.UTC)
	end := time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Add(time.Duration(s.cfg.WorkdayEnd) * time.Hour)
	return start, end
}

// AvailableSlots lists open windows of the given length for every doctor of a
// specialty on one day. A window is open when it lies inside working hours,
// has not started yet and overlaps no scheduled appointment of that doctor.
func (s *Service) AvailableSlots(ctx context.Context, specialty string, date time.Time, duration time.Duration) ([]Slot, error) {
	specialty = strings.TrimSpace(specialty)
	if specialty == "" {
		return nil, ErrSpecialtyRequired
	}
	if duration < MinSlotDuration || duration > MaxSlotDuration {
		return nil, ErrInvalidDuration
	}

	doctors, err := s.repo.ListDoctorsBySpecialty(ctx, specialty)
	if err != nil {
		return nil, fmt.Errorf("list doctors: %w", err)
	}

	dayStart, dayEnd := s.workday(date)
	now := s.now()

	slots := []Slot{}
	for _, doc := range doctors {
		booked, err := s.repo.ListScheduledForDoctor(ctx, doc.ID, dayStart, dayEnd)
		if err != nil {
			return nil, fmt.Errorf("list scheduled for doctor %s: %w", doc.ID, err)
		}

		for start := dayStart; !start.Add(duration).After(dayEnd); start = start.Add(duration) {
			end := start.Add(duration)
			if start.Before(now) {
				continue
			}
			if overlapsAny(booked, start, end) {
				continue
			}
			slots = append(slots, Slot{
				DoctorID:   doc.ID,
				DoctorName: doc.Name,
				StartTime:  start,
				EndTime:    end,
			})
		}
	}

	sort.SliceStable(slots, func(i, j int) bool {
		if !slots[i].StartTime.Equal(slots[j].StartTime) {
			return slots[i].StartTime.Before(slots[j].StartTime)
		}
		return slots[i].DoctorName < slots[j].DoctorName
	})

	return slots, nil
}

func overlapsAny(appts []Appointment, start, end time.Time) bool {
	for _, a := range appts {
		if a.Overlaps(start, end) {
			return true
		}
	}
	return false
}

func (s *Service) validateBooking(req BookingRequest) error {
	if !req.EndTime.After(req.StartTime) {
		return ErrInvalidTimeRange
	}
	if strings.TrimSpace(req.Reason) == "" {
		return ErrReasonRequired
	}
	// also keeps the range inside a single day
	dayStart, dayEnd := s.workday(req.StartTime.UTC())
	if req.StartTime.Before(dayStart) || req.EndTime.After(dayEnd) {
		return ErrOutsideWorkday
	}
	if req.StartTime.Before(s.now()) {
		return ErrStartInPast
	}
	return nil
}

// BookAppointment creates a scheduled appointment. The overlap check and the
// insert run under a per doctor lock so two concurrent requests for
// intersecting ranges cannot both succeed.
func (s *Service) BookAppointment(ctx context.Context, req BookingRequest) (*AppointmentDetail, error) {
	if err := s.validateBooking(req); err != nil {
		return nil, err
	}

	patient, err := s.repo.GetPatientByID(ctx, req.PatientID)
	if err != nil {
		if errors.Is(err, ErrPatientNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load patient: %w", err)
	}

	doctor, err := s.repo.GetDoctorByID(ctx, req.DoctorID)
	if err != nil {
		if errors.Is(err, ErrDoctorNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load doctor: %w", err)
	}

	if req.Specialty == "" {
		req.Specialty = doctor.Specialty
	} else if !strings.EqualFold(strings.TrimSpace(req.Specialty), doctor.Specialty) {
		return nil, ErrSpecialtyMismatch
	}

	var created *Appointment

	err = s.locker.WithDoctorLock(ctx, doctor.ID, func(lockCtx context.Context) error {
		existing, err := s.repo.ListScheduledForDoctor(lockCtx, doctor.ID, req.StartTime, req.EndTime)
		if err != nil {
			return fmt.Errorf("check doctor schedule: %w", err)
		}
		if len(existing) > 0 {
			return ErrDoctorAlreadyBooked
		}

		appt, err := s.repo.CreateAppointment(lockCtx, req)
		if err != nil {
			return fmt.Errorf("create appointment: %w", err)
		}
		created = appt

		s.logEvent(lockCtx, appt.ID, EventAppointmentBooked, map[string]any{
			"doctor_id":  doctor.ID.String(),
			"patient_id": patient.ID.String(),
			"start_time": appt.StartTime,
			"end_time":   appt.EndTime,
		})
		return nil
	})
	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrDoctorBeingBooked
		}
		return nil, err
	}

	return &AppointmentDetail{
		Appointment: *created,
		Doctor:      doctor,
		Patient:     patient,
	}, nil
}

// CancelAppointment moves a scheduled appointment to cancelled
func (s *Service) CancelAppointment(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	appt, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load appointment: %w", err)
	}

	if appt.Status != StatusScheduled {
		return nil, ErrInvalidStatusTransition
	}

	updated, err := s.repo.UpdateAppointmentStatus(ctx, appt.ID, StatusScheduled, StatusCancelled)
	if err != nil {
		// someone else moved it between the read and the update
		if errors.Is(err, ErrAppointmentNotFound) {
			return nil, ErrInvalidStatusTransition
		}
		return nil, fmt.Errorf("cancel appointment: %w", err)
	}

	s.logEvent(ctx, updated.ID, EventAppointmentCancelled, map[string]any{})

	return updated, nil
}

// CompleteElapsedAppointments is intended to be called by the worker periodically.
// It returns how many appointments were moved to completed.
func (s *Service) CompleteElapsedAppointments(ctx context.Context) (int, error) {
	candidates, err := s.repo.FindElapsedScheduled(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("find elapsed scheduled appointments: %w", err)
	}

	completed := 0
	for _, appt := range candidates {
		_, err := s.repo.UpdateAppointmentStatus(ctx, appt.ID, StatusScheduled, StatusCompleted)
		if err != nil {
			if !errors.Is(err, ErrAppointmentNotFound) {
				s.logger.Error().Err(err).Str("appointment_id", appt.ID.String()).Msg("failed to complete appointment")
			}
			continue
		}
		completed++
		s.logEvent(ctx, appt.ID, EventAppointmentCompleted, map[string]any{
			"reason": "worker",
		})
	}

	return completed, nil
}

func (s *Service) logEvent(ctx context.Context, appointmentID uuid.UUID, eventType string, payload map[string]any) {
	data, err := json.Marshal(payload)
	if err != nil {
		s.logger.Warn().Err(err).Str("event_type", eventType).Msg("failed to marshal event payload")
		data = nil
	}

	apptID := appointmentID

	ev := EventLog{
		EventType:     eventType,
		AppointmentID: &apptID,
		Payload:       data,
		CreatedAt:     s.now(),
	}

	if err := s.repo.InsertEvent(ctx, ev); err != nil {
		s.logger.Error().Err(err).
			Str("event_type", eventType).
			Str("appointment_id", appointmentID.String()).
			Msg("failed to insert event log")
	}
}

// GetAppointment retrieves a fully hydrated appointment by ID
func (s *Service) GetAppointment(ctx context.Context, id uuid.UUID) (*AppointmentDetail, error) {
	detail, err := s.repo.GetAppointmentDetail(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get appointment: %w", err)
	}
	return detail, nil
}

func (s *Service) ListDoctorAppointments(ctx context.Context, doctorID uuid.UUID) ([]AppointmentDetail, error) {
	if _, err := s.repo.GetDoctorByID(ctx, doctorID); err != nil {
		return nil, err
	}
	appointments, err := s.repo.ListAppointmentsByDoctor(ctx, doctorID)
	if err != nil {
		return nil, fmt.Errorf("list appointments by doctor: %w", err)
	}
	return appointments, nil
}

func (s *Service) ListPatientAppointments(ctx context.Context, patientID uuid.UUID) ([]AppointmentDetail, error) {
	if _, err := s.repo.GetPatientByID(ctx, patientID); err != nil {
		return nil, err
	}
	appointments, err := s.repo.ListAppointmentsByPatient(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("list appointments by patient: %w", err)
	}
	return appointments, nil
}

// ListDoctorPatients returns each patient linked to the doctor once, with
// their latest appointment.
func (s *Service) ListDoctorPatients(ctx context.Context, doctorID uuid.UUID) ([]PatientSummary, error) {
	if _, err := s.repo.GetDoctorByID(ctx, doctorID); err != nil {
		return nil, err
	}
	patients, err := s.repo.ListPatientsByDoctor(ctx, doctorID)
	if err != nil {
		return nil, fmt.Errorf("list patients by doctor: %w", err)
	}
	return patients, nil
}
