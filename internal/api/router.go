package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hackgods/healsync/internal/appointment"
)

// AppointmentService is the part of appointment.Service the HTTP layer uses.
type AppointmentService interface {
	AvailableSlots(ctx context.Context, specialty string, date time.Time, duration time.Duration) ([]appointment.Slot, error)
	BookAppointment(ctx context.Context, req appointment.BookingRequest) (*appointment.AppointmentDetail, error)
	CancelAppointment(ctx context.Context, id uuid.UUID) (*appointment.Appointment, error)
	ListDoctorAppointments(ctx context.Context, doctorID uuid.UUID) ([]appointment.AppointmentDetail, error)
	ListPatientAppointments(ctx context.Context, patientID uuid.UUID) ([]appointment.AppointmentDetail, error)
	ListDoctorPatients(ctx context.Context, doctorID uuid.UUID) ([]appointment.PatientSummary, error)
}

type RouterConfig struct {
	Service  AppointmentService
	Postgres Pinger
	Redis    Pinger
	Logger   zerolog.Logger
	Env      string
	Version  string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Logger))
	r.Use(middleware.Recoverer)

	health := NewHealthHandler(cfg.Postgres, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	r.Route("/v1", func(r chi.Router) {
		r.Route("/appointments/book", func(r chi.Router) {
			r.Get("/available-slots", availableSlotsHandler(cfg.Service))
			r.Post("/appointment", bookAppointmentHandler(cfg.Service))
			r.Post("/appointment/{id}/cancel", cancelAppointmentHandler(cfg.Service))
			r.Get("/doctor/appointments", doctorAppointmentsHandler(cfg.Service))
			r.Get("/patient/appointments", patientAppointmentsHandler(cfg.Service))
		})
		r.Get("/doctor/{doctorId}/patients", doctorPatientsHandler(cfg.Service))
	})

	return r
}
