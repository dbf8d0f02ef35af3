package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hackgods/healsync/internal/appointment"
)

const defaultDurationMinutes = 60

var dateTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

func parseDateTime(raw string) (time.Time, error) {
	var lastErr error
	for _, layout := range dateTimeLayouts {
		t, err := time.Parse(layout, raw)
		if err == nil {
			return t.UTC(), nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

func availableSlotsHandler(svc AppointmentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		specialty := strings.TrimSpace(q.Get("specialty"))
		if specialty == "" {
			writeError(w, http.StatusBadRequest, "invalid_specialty", "specialty is required")
			return
		}

		date, err := time.Parse(dateLayout, q.Get("date"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
			return
		}

		minutes := defaultDurationMinutes
		if raw := q.Get("durationMinutes"); raw != "" {
			minutes, err = strconv.Atoi(raw)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_duration", "durationMinutes must be an integer")
				return
			}
		}

		slots, err := svc.AvailableSlots(r.Context(), specialty, date, time.Duration(minutes)*time.Minute)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}

		resp := make([]SlotResponse, 0, len(slots))
		for _, s := range slots {
			resp = append(resp, toSlotResponse(s))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func bookAppointmentHandler(svc AppointmentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		var body BookAppointmentBody
		if r.Body != nil {
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
				writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
				return
			}
		}

		rawDoctor := body.DoctorID
		if rawDoctor == "" {
			rawDoctor = q.Get("doctorId")
		}
		doctorID, err := uuid.Parse(rawDoctor)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_doctor_id", "doctorId must be a valid UUID")
			return
		}

		patientID, err := uuid.Parse(q.Get("patientId"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_patient_id", "patientId must be a valid UUID")
			return
		}

		start, err := parseDateTime(q.Get("startDateTime"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_start", "startDateTime must be YYYY-MM-DDTHH:MM[:SS]")
			return
		}
		end, err := parseDateTime(q.Get("endDateTime"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_end", "endDateTime must be YYYY-MM-DDTHH:MM[:SS]")
			return
		}

		// the page sends the misspelled key; accept both
		specialty := q.Get("speciality")
		if specialty == "" {
			specialty = q.Get("specialty")
		}

		reason := body.Reason
		if reason == "" {
			reason = q.Get("reason")
		}

		detail, err := svc.BookAppointment(r.Context(), appointment.BookingRequest{
			DoctorID:  doctorID,
			PatientID: patientID,
			Specialty: specialty,
			StartTime: start,
			EndTime:   end,
			Reason:    reason,
		})
		if err != nil {
			handleServiceError(w, r, err)
			return
		}

		writeJSON(w, http.StatusCreated, toDetailResponse(*detail))
	}
}

func cancelAppointmentHandler(svc AppointmentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
			return
		}

		appt, err := svc.CancelAppointment(r.Context(), id)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(*appt))
	}
}

func doctorAppointmentsHandler(svc AppointmentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doctorID, err := uuid.Parse(r.URL.Query().Get("doctorId"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_doctor_id", "doctorId must be a valid UUID")
			return
		}

		appointments, err := svc.ListDoctorAppointments(r.Context(), doctorID)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, detailList(appointments))
	}
}

func patientAppointmentsHandler(svc AppointmentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		patientID, err := uuid.Parse(r.URL.Query().Get("patientId"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_patient_id", "patientId must be a valid UUID")
			return
		}

		appointments, err := svc.ListPatientAppointments(r.Context(), patientID)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, detailList(appointments))
	}
}

func doctorPatientsHandler(svc AppointmentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doctorID, err := uuid.Parse(chi.URLParam(r, "doctorId"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_doctor_id", "doctorId must be a valid UUID")
			return
		}

		patients, err := svc.ListDoctorPatients(r.Context(), doctorID)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}

		resp := make([]PatientResponse, 0, len(patients))
		for _, p := range patients {
			resp = append(resp, toPatientResponse(p))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func detailList(in []appointment.AppointmentDetail) []AppointmentResponse {
	resp := make([]AppointmentResponse, 0, len(in))
	for _, d := range in {
		resp = append(resp, toDetailResponse(d))
	}
	return resp
}

func handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, appointment.ErrPatientNotFound):
		writeError(w, http.StatusNotFound, "patient_not_found", err.Error())
	case errors.Is(err, appointment.ErrDoctorNotFound):
		writeError(w, http.StatusNotFound, "doctor_not_found", err.Error())
	case errors.Is(err, appointment.ErrAppointmentNotFound):
		writeError(w, http.StatusNotFound, "appointment_not_found", err.Error())
	case errors.Is(err, appointment.ErrDoctorAlreadyBooked):
		writeError(w, http.StatusConflict, "doctor_already_booked", "This time is no longer available, please pick another slot")
	case errors.Is(err, appointment.ErrDoctorBeingBooked):
		writeError(w, http.StatusConflict, "doctor_being_booked", "This doctor is being booked right now, please retry shortly")
	case errors.Is(err, appointment.ErrInvalidStatusTransition):
		writeError(w, http.StatusConflict, "invalid_status_transition", err.Error())
	case errors.Is(err, appointment.ErrInvalidTimeRange),
		errors.Is(err, appointment.ErrOutsideWorkday),
		errors.Is(err, appointment.ErrStartInPast),
		errors.Is(err, appointment.ErrReasonRequired),
		errors.Is(err, appointment.ErrSpecialtyMismatch),
		errors.Is(err, appointment.ErrSpecialtyRequired),
		errors.Is(err, appointment.ErrInvalidDuration):
		writeError(w, http.StatusUnprocessableEntity, "invalid_booking", err.Error())
	default:
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("request failed")
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Error: code, Message: message})
}
