package appointment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

const appointmentColumns = `a.id, a.doctor_id, a.patient_id, a.specialty, a.start_time, a.end_time, a.status, a.reason, a.created_at, a.updated_at`

const detailSelect = `
	SELECT ` + appointmentColumns + `,
	       d.id, d.name, d.specialty, d.created_at, d.updated_at,
	       p.id, p.name, p.email, p.age, p.gender, p.mobile_no, p.created_at, p.updated_at
	FROM appointments a
	JOIN doctors d ON d.id = a.doctor_id
	JOIN patients p ON p.id = a.patient_id
`

// Helpers

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient

	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Email,
		&p.Age,
		&p.Gender,
		&p.MobileNo,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPatientNotFound
		}
		return nil, err
	}

	return &p, nil
}

func scanDoctor(row pgx.Row) (*Doctor, error) {
	var d Doctor

	err := row.Scan(
		&d.ID,
		&d.Name,
		&d.Specialty,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDoctorNotFound
		}
		return nil, err
	}

	return &d, nil
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment

	err := row.Scan(
		&a.ID,
		&a.DoctorID,
		&a.PatientID,
		&a.Specialty,
		&a.StartTime,
		&a.EndTime,
		&a.Status,
		&a.Reason,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	return &a, nil
}

func scanDetail(row pgx.Row) (*AppointmentDetail, error) {
	var (
		det AppointmentDetail
		d   Doctor
		p   Patient
	)
	a := &det.Appointment

	err := row.Scan(
		&a.ID, &a.DoctorID, &a.PatientID, &a.Specialty, &a.StartTime, &a.EndTime,
		&a.Status, &a.Reason, &a.CreatedAt, &a.UpdatedAt,
		&d.ID, &d.Name, &d.Specialty, &d.CreatedAt, &d.UpdatedAt,
		&p.ID, &p.Name, &p.Email, &p.Age, &p.Gender, &p.MobileNo, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	det.Doctor = &d
	det.Patient = &p
	return &det, nil
}

func collectAppointments(rows pgx.Rows) ([]Appointment, error) {
	defer rows.Close()

	result := []Appointment{}
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func collectDetails(rows pgx.Rows) ([]AppointmentDetail, error) {
	defer rows.Close()

	result := []AppointmentDetail{}
	for rows.Next() {
		d, err := scanDetail(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *d)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Interface methods

func (r *PgRepository) GetPatientByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, email, age, gender, mobile_no, created_at, updated_at
		FROM patients
		WHERE id = $1
	`, id)
	return scanPatient(row)
}

func (r *PgRepository) GetDoctorByID(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, specialty, created_at, updated_at
		FROM doctors
		WHERE id = $1
	`, id)
	return scanDoctor(row)
}

func (r *PgRepository) ListDoctorsBySpecialty(ctx context.Context, specialty string) ([]Doctor, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, specialty, created_at, updated_at
		FROM doctors
		WHERE lower(specialty) = lower($1)
		ORDER BY name
	`, specialty)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []Doctor{}
	for rows.Next() {
		d, err := scanDoctor(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *d)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PgRepository) ListScheduledForDoctor(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments a
		WHERE a.doctor_id = $1
		  AND a.status = 'SCHEDULED'
		  AND a.start_time < $3
		  AND a.end_time > $2
		ORDER BY a.start_time
	`, doctorID, from, to)
	if err != nil {
		return nil, err
	}
	return collectAppointments(rows)
}

func (r *PgRepository) GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments a
		WHERE a.id = $1
	`, id)
	return scanAppointment(row)
}

func (r *PgRepository) GetAppointmentDetail(ctx context.Context, id uuid.UUID) (*AppointmentDetail, error) {
	row := r.pool.QueryRow(ctx, detailSelect+`WHERE a.id = $1`, id)
	return scanDetail(row)
}

func (r *PgRepository) ListAppointmentsByDoctor(ctx context.Context, doctorID uuid.UUID) ([]AppointmentDetail, error) {
	rows, err := r.pool.Query(ctx, detailSelect+`
		WHERE a.doctor_id = $1
		ORDER BY a.start_time DESC
	`, doctorID)
	if err != nil {
		return nil, err
	}
	return collectDetails(rows)
}

func (r *PgRepository) ListAppointmentsByPatient(ctx context.Context, patientID uuid.UUID) ([]AppointmentDetail, error) {
	rows, err := r.pool.Query(ctx, detailSelect+`
		WHERE a.patient_id = $1
		ORDER BY a.start_time DESC
	`, patientID)
	if err != nil {
		return nil, err
	}
	return collectDetails(rows)
}

func (r *PgRepository) ListPatientsByDoctor(ctx context.Context, doctorID uuid.UUID) ([]PatientSummary, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT * FROM (
			SELECT DISTINCT ON (p.id)
			       p.id, p.name, p.email, p.age, p.gender, p.mobile_no, p.created_at, p.updated_at,
			       a.start_time, a.status
			FROM appointments a
			JOIN patients p ON p.id = a.patient_id
			WHERE a.doctor_id = $1
			ORDER BY p.id, a.start_time DESC
		) latest
		ORDER BY latest.start_time DESC
	`, doctorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []PatientSummary{}
	for rows.Next() {
		var s PatientSummary
		err := rows.Scan(
			&s.ID, &s.Name, &s.Email, &s.Age, &s.Gender, &s.MobileNo, &s.CreatedAt, &s.UpdatedAt,
			&s.AppointmentStart, &s.AppointmentStatus,
		)
		if err != nil {
			return nil, err
		}
		result = append(result, s)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PgRepository) CreateAppointment(ctx context.Context, req BookingRequest) (*Appointment, error) {
	id := uuid.New()

	row := r.pool.QueryRow(ctx, `
		INSERT INTO appointments AS a (id, doctor_id, patient_id, specialty, start_time, end_time, status, reason, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, 'SCHEDULED', $7, now(), now())
		RETURNING `+appointmentColumns+`
	`, id, req.DoctorID, req.PatientID, req.Specialty, req.StartTime, req.EndTime, req.Reason)

	return scanAppointment(row)
}

func (r *PgRepository) UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, from, to AppointmentStatus) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE appointments AS a
		SET status = $2,
		    updated_at = now()
		WHERE a.id = $1
		  AND a.status = $3
		RETURNING `+appointmentColumns+`
	`, id, to, from)

	return scanAppointment(row)
}

func (r *PgRepository) FindElapsedScheduled(ctx context.Context, now time.Time) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments a
		WHERE a.status = 'SCHEDULED'
		  AND a.end_time <= $1
	`, now)
	if err != nil {
		return nil, err
	}
	return collectAppointments(rows)
}

func (r *PgRepository) InsertEvent(ctx context.Context, ev EventLog) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO event_logs (event_type, appointment_id, payload, created_at)
		VALUES ($1, $2, $3, COALESCE($4, now()))
	`, ev.EventType, ev.AppointmentID, ev.Payload, nullableTime(ev.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert event log: %w", err)
	}

	return nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
