package appointment

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hackgods/healsync/internal/config"
	redisclient "github.com/hackgods/healsync/internal/redis"
)

// -- Mock Repository --

type mockRepo struct {
	mu           sync.Mutex
	patients     map[uuid.UUID]*Patient
	doctors      map[uuid.UUID]*Doctor
	appointments map[uuid.UUID]*Appointment
	events       []EventLog
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		patients:     make(map[uuid.UUID]*Patient),
		doctors:      make(map[uuid.UUID]*Doctor),
		appointments: make(map[uuid.UUID]*Appointment),
	}
}

func (m *mockRepo) addDoctor(name, specialty string) *Doctor {
	d := &Doctor{ID: uuid.New(), Name: name, Specialty: specialty}
	m.doctors[d.ID] = d
	return d
}

func (m *mockRepo) addPatient(name string) *Patient {
	p := &Patient{ID: uuid.New(), Name: name}
	m.patients[p.ID] = p
	return p
}

func (m *mockRepo) addAppointment(doctorID, patientID uuid.UUID, start, end time.Time, status AppointmentStatus) *Appointment {
	a := &Appointment{
		ID: uuid.New(), DoctorID: doctorID, PatientID: patientID,
		StartTime: start, EndTime: end, Status: status, Reason: "checkup",
	}
	m.appointments[a.ID] = a
	return a
}

func (m *mockRepo) GetPatientByID(_ context.Context, id uuid.UUID) (*Patient, error) {
	p, ok := m.patients[id]
	if !ok {
		return nil, ErrPatientNotFound
	}
	return p, nil
}

func (m *mockRepo) GetDoctorByID(_ context.Context, id uuid.UUID) (*Doctor, error) {
	d, ok := m.doctors[id]
	if !ok {
		return nil, ErrDoctorNotFound
	}
	return d, nil
}

func (m *mockRepo) ListDoctorsBySpecialty(_ context.Context, specialty string) ([]Doctor, error) {
	var result []Doctor
	for _, d := range m.doctors {
		if strings.EqualFold(d.Specialty, specialty) {
			result = append(result, *d)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (m *mockRepo) ListScheduledForDoctor(_ context.Context, doctorID uuid.UUID, from, to time.Time) ([]Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []Appointment
	for _, a := range m.appointments {
		if a.DoctorID == doctorID && a.Status == StatusScheduled && a.Overlaps(from, to) {
			result = append(result, *a)
		}
	}
	return result, nil
}

func (m *mockRepo) GetAppointmentByID(_ context.Context, id uuid.UUID) (*Appointment, error) {
	a, ok := m.appointments[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *mockRepo) detail(a *Appointment) AppointmentDetail {
	return AppointmentDetail{Appointment: *a, Doctor: m.doctors[a.DoctorID], Patient: m.patients[a.PatientID]}
}

func (m *mockRepo) GetAppointmentDetail(_ context.Context, id uuid.UUID) (*AppointmentDetail, error) {
	a, ok := m.appointments[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	d := m.detail(a)
	return &d, nil
}

func (m *mockRepo) ListAppointmentsByDoctor(_ context.Context, doctorID uuid.UUID) ([]AppointmentDetail, error) {
	var result []AppointmentDetail
	for _, a := range m.appointments {
		if a.DoctorID == doctorID {
			result = append(result, m.detail(a))
		}
	}
	return result, nil
}

func (m *mockRepo) ListAppointmentsByPatient(_ context.Context, patientID uuid.UUID) ([]AppointmentDetail, error) {
	var result []AppointmentDetail
	for _, a := range m.appointments {
		if a.PatientID == patientID {
			result = append(result, m.detail(a))
		}
	}
	return result, nil
}

func (m *mockRepo) ListPatientsByDoctor(_ context.Context, doctorID uuid.UUID) ([]PatientSummary, error) {
	latest := make(map[uuid.UUID]*Appointment)
	for _, a := range m.appointments {
		if a.DoctorID != doctorID {
			continue
		}
		if cur, ok := latest[a.PatientID]; !ok || a.StartTime.After(cur.StartTime) {
			latest[a.PatientID] = a
		}
	}
	var result []PatientSummary
	for pid, a := range latest {
		result = append(result, PatientSummary{
			Patient:           *m.patients[pid],
			AppointmentStart:  a.StartTime,
			AppointmentStatus: a.Status,
		})
	}
	return result, nil
}

func (m *mockRepo) CreateAppointment(_ context.Context, req BookingRequest) (*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a := &Appointment{
		ID: uuid.New(), DoctorID: req.DoctorID, PatientID: req.PatientID, Specialty: req.Specialty,
		StartTime: req.StartTime, EndTime: req.EndTime, Status: StatusScheduled, Reason: req.Reason,
		CreatedAt: time.Now(), UpdatedAt: time.Now(),
	}
	m.appointments[a.ID] = a
	cp := *a
	return &cp, nil
}

func (m *mockRepo) UpdateAppointmentStatus(_ context.Context, id uuid.UUID, from, to AppointmentStatus) (*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.appointments[id]
	if !ok || a.Status != from {
		return nil, ErrAppointmentNotFound
	}
	a.Status = to
	cp := *a
	return &cp, nil
}

func (m *mockRepo) FindElapsedScheduled(_ context.Context, now time.Time) ([]Appointment, error) {
	var result []Appointment
	for _, a := range m.appointments {
		if a.Status == StatusScheduled && !a.EndTime.After(now) {
			result = append(result, *a)
		}
	}
	return result, nil
}

func (m *mockRepo) InsertEvent(_ context.Context, ev EventLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, ev)
	return nil
}

// -- Mock Locker --

type mockLocker struct {
	mu   sync.Mutex
	held map[uuid.UUID]bool
	fail bool
}

func newMockLocker() *mockLocker {
	return &mockLocker{held: make(map[uuid.UUID]bool)}
}

func (l *mockLocker) WithDoctorLock(ctx context.Context, doctorID uuid.UUID, fn func(ctx context.Context) error) error {
	l.mu.Lock()
	if l.fail || l.held[doctorID] {
		l.mu.Unlock()
		return redisclient.ErrLockNotAcquired
	}
	l.held[doctorID] = true
	l.mu.Unlock()

	defer func() {
		l.mu.Lock()
		delete(l.held, doctorID)
		l.mu.Unlock()
	}()
	return fn(ctx)
}

// -- Helpers --

var testDay = time.Date(2024, 8, 15, 0, 0, 0, 0, time.UTC)

func at(hour, minute int) time.Time {
	return testDay.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

func newTestService() (*Service, *mockRepo, *mockLocker) {
	repo := newMockRepo()
	locker := newMockLocker()
	cfg := config.Config{WorkdayStart: 9, WorkdayEnd: 17}
	svc := NewService(repo, locker, cfg, zerolog.Nop())
	svc.now = func() time.Time { return testDay.Add(-24 * time.Hour) }
	return svc, repo, locker
}

// -- Tests --

func TestService_AvailableSlots_FullDay(t *testing.T) {
	svc, repo, _ := newTestService()
	repo.addDoctor("Dr. X", "Cardiology")

	slots, err := svc.AvailableSlots(context.Background(), "cardiology", testDay, time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(slots) != 8 {
		t.Fatalf("expected 8 hourly slots between 9 and 17, got %d", len(slots))
	}
	if !slots[0].StartTime.Equal(at(9, 0)) || !slots[7].EndTime.Equal(at(17, 0)) {
		t.Errorf("unexpected bounds: %s - %s", slots[0].StartTime, slots[7].EndTime)
	}
	if slots[0].DoctorName != "Dr. X" {
		t.Errorf("expected doctor name on slot, got %q", slots[0].DoctorName)
	}
}

func TestService_AvailableSlots_ExcludesBooked(t *testing.T) {
	svc, repo, _ := newTestService()
	doc := repo.addDoctor("Dr. X", "Cardiology")
	pat := repo.addPatient("Jane")
	booked := repo.addAppointment(doc.ID, pat.ID, at(9, 30), at(10, 30), StatusScheduled)
	repo.addAppointment(doc.ID, pat.ID, at(14, 0), at(15, 0), StatusCancelled)

	slots, err := svc.AvailableSlots(context.Background(), "Cardiology", testDay, time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// 09-10 and 10-11 overlap the 09:30-10:30 booking; the cancelled one frees nothing up.
	if len(slots) != 6 {
		t.Fatalf("expected 6 slots, got %d", len(slots))
	}
	for _, sl := range slots {
		if booked.Overlaps(sl.StartTime, sl.EndTime) {
			t.Errorf("slot %s-%s overlaps a scheduled appointment", sl.StartTime, sl.EndTime)
		}
	}
}

func TestService_AvailableSlots_SkipsStartedWindows(t *testing.T) {
	svc, repo, _ := newTestService()
	repo.addDoctor("Dr. X", "Cardiology")
	svc.now = func() time.Time { return at(12, 15) }

	slots, err := svc.AvailableSlots(context.Background(), "Cardiology", testDay, time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(slots) != 4 {
		t.Fatalf("expected 4 remaining slots, got %d", len(slots))
	}
	if !slots[0].StartTime.Equal(at(13, 0)) {
		t.Errorf("expected first slot at 13:00, got %s", slots[0].StartTime)
	}
}

func TestService_AvailableSlots_SortedAcrossDoctors(t *testing.T) {
	svc, repo, _ := newTestService()
	repo.addDoctor("Dr. B", "Cardiology")
	repo.addDoctor("Dr. A", "Cardiology")
	repo.addDoctor("Dr. C", "Neurology")

	slots, err := svc.AvailableSlots(context.Background(), "Cardiology", testDay, 2*time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(slots) != 8 {
		t.Fatalf("expected 4 windows x 2 doctors, got %d", len(slots))
	}
	if slots[0].DoctorName != "Dr. A" || slots[1].DoctorName != "Dr. B" {
		t.Errorf("expected ties broken by doctor name, got %s, %s", slots[0].DoctorName, slots[1].DoctorName)
	}
	for i := 1; i < len(slots); i++ {
		if slots[i].StartTime.Before(slots[i-1].StartTime) {
			t.Fatal("slots are not sorted by start time")
		}
	}
}

func TestService_AvailableSlots_Validation(t *testing.T) {
	svc, _, _ := newTestService()

	if _, err := svc.AvailableSlots(context.Background(), " ", testDay, time.Hour); !errors.Is(err, ErrSpecialtyRequired) {
		t.Errorf("expected ErrSpecialtyRequired, got %v", err)
	}
	if _, err := svc.AvailableSlots(context.Background(), "Cardiology", testDay, 5*time.Minute); !errors.Is(err, ErrInvalidDuration) {
		t.Errorf("expected ErrInvalidDuration, got %v", err)
	}
}

func TestService_AvailableSlots_UnknownSpecialtyIsEmpty(t *testing.T) {
	svc, _, _ := newTestService()

	slots, err := svc.AvailableSlots(context.Background(), "Dermatology", testDay, time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if slots == nil || len(slots) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", slots)
	}
}

func bookingFor(doc *Doctor, pat *Patient, start, end time.Time) BookingRequest {
	return BookingRequest{
		DoctorID: doc.ID, PatientID: pat.ID, Specialty: doc.Specialty,
		StartTime: start, EndTime: end, Reason: "checkup",
	}
}

func TestService_BookAppointment_Success(t *testing.T) {
	svc, repo, _ := newTestService()
	doc := repo.addDoctor("Dr. X", "Cardiology")
	pat := repo.addPatient("Jane")

	detail, err := svc.BookAppointment(context.Background(), bookingFor(doc, pat, at(9, 0), at(10, 0)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if detail.Status != StatusScheduled {
		t.Errorf("expected SCHEDULED, got %s", detail.Status)
	}
	if detail.Doctor == nil || detail.Doctor.Name != "Dr. X" {
		t.Error("expected doctor on detail")
	}
	if detail.Patient == nil || detail.Patient.Name != "Jane" {
		t.Error("expected patient on detail")
	}
	if len(repo.events) != 1 || repo.events[0].EventType != EventAppointmentBooked {
		t.Errorf("expected one booked event, got %+v", repo.events)
	}
}

func TestService_BookAppointment_DefaultsSpecialty(t *testing.T) {
	svc, repo, _ := newTestService()
	doc := repo.addDoctor("Dr. X", "Cardiology")
	pat := repo.addPatient("Jane")

	req := bookingFor(doc, pat, at(9, 0), at(10, 0))
	req.Specialty = ""
	detail, err := svc.BookAppointment(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if detail.Specialty != "Cardiology" {
		t.Errorf("expected specialty taken from doctor, got %q", detail.Specialty)
	}
}

func TestService_BookAppointment_Overlap(t *testing.T) {
	svc, repo, _ := newTestService()
	doc := repo.addDoctor("Dr. X", "Cardiology")
	pat := repo.addPatient("Jane")
	repo.addAppointment(doc.ID, pat.ID, at(9, 30), at(10, 30), StatusScheduled)

	_, err := svc.BookAppointment(context.Background(), bookingFor(doc, pat, at(10, 0), at(11, 0)))
	if !errors.Is(err, ErrDoctorAlreadyBooked) {
		t.Fatalf("expected ErrDoctorAlreadyBooked, got %v", err)
	}
}

func TestService_BookAppointment_AdjacentIsAllowed(t *testing.T) {
	svc, repo, _ := newTestService()
	doc := repo.addDoctor("Dr. X", "Cardiology")
	pat := repo.addPatient("Jane")
	repo.addAppointment(doc.ID, pat.ID, at(9, 0), at(10, 0), StatusScheduled)

	if _, err := svc.BookAppointment(context.Background(), bookingFor(doc, pat, at(10, 0), at(11, 0))); err != nil {
		t.Fatalf("expected half-open ranges to allow back-to-back bookings, got %v", err)
	}
}

func TestService_BookAppointment_LockContention(t *testing.T) {
	svc, repo, locker := newTestService()
	doc := repo.addDoctor("Dr. X", "Cardiology")
	pat := repo.addPatient("Jane")
	locker.fail = true

	_, err := svc.BookAppointment(context.Background(), bookingFor(doc, pat, at(9, 0), at(10, 0)))
	if !errors.Is(err, ErrDoctorBeingBooked) {
		t.Fatalf("expected ErrDoctorBeingBooked, got %v", err)
	}
}

func TestService_BookAppointment_ConcurrentSameWindow(t *testing.T) {
	svc, repo, _ := newTestService()
	doc := repo.addDoctor("Dr. X", "Cardiology")
	pat := repo.addPatient("Jane")

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.BookAppointment(context.Background(), bookingFor(doc, pat, at(9, 0), at(10, 0))); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if succeeded != 1 {
		t.Fatalf("expected exactly one booking to succeed, got %d", succeeded)
	}
}

func TestService_BookAppointment_Validation(t *testing.T) {
	svc, repo, _ := newTestService()
	doc := repo.addDoctor("Dr. X", "Cardiology")
	pat := repo.addPatient("Jane")

	tests := []struct {
		name string
		mut  func(r *BookingRequest)
		want error
	}{
		{"inverted range", func(r *BookingRequest) { r.EndTime = r.StartTime.Add(-time.Hour) }, ErrInvalidTimeRange},
		{"empty reason", func(r *BookingRequest) { r.Reason = "  " }, ErrReasonRequired},
		{"before workday", func(r *BookingRequest) { r.StartTime, r.EndTime = at(7, 0), at(8, 0) }, ErrOutsideWorkday},
		{"after workday", func(r *BookingRequest) { r.StartTime, r.EndTime = at(16, 30), at(17, 30) }, ErrOutsideWorkday},
		{"specialty mismatch", func(r *BookingRequest) { r.Specialty = "Neurology" }, ErrSpecialtyMismatch},
		{"unknown patient", func(r *BookingRequest) { r.PatientID = uuid.New() }, ErrPatientNotFound},
		{"unknown doctor", func(r *BookingRequest) { r.DoctorID = uuid.New() }, ErrDoctorNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := bookingFor(doc, pat, at(9, 0), at(10, 0))
			tt.mut(&req)
			if _, err := svc.BookAppointment(context.Background(), req); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestService_BookAppointment_InPast(t *testing.T) {
	svc, repo, _ := newTestService()
	doc := repo.addDoctor("Dr. X", "Cardiology")
	pat := repo.addPatient("Jane")
	svc.now = func() time.Time { return at(12, 0) }

	_, err := svc.BookAppointment(context.Background(), bookingFor(doc, pat, at(9, 0), at(10, 0)))
	if !errors.Is(err, ErrStartInPast) {
		t.Fatalf("expected ErrStartInPast, got %v", err)
	}
}

func TestService_CancelAppointment(t *testing.T) {
	svc, repo, _ := newTestService()
	doc := repo.addDoctor("Dr. X", "Cardiology")
	pat := repo.addPatient("Jane")
	a := repo.addAppointment(doc.ID, pat.ID, at(9, 0), at(10, 0), StatusScheduled)

	updated, err := svc.CancelAppointment(context.Background(), a.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Status != StatusCancelled {
		t.Errorf("expected CANCELLED, got %s", updated.Status)
	}

	if _, err := svc.CancelAppointment(context.Background(), a.ID); !errors.Is(err, ErrInvalidStatusTransition) {
		t.Errorf("expected second cancel to fail with ErrInvalidStatusTransition, got %v", err)
	}
	if _, err := svc.CancelAppointment(context.Background(), uuid.New()); !errors.Is(err, ErrAppointmentNotFound) {
		t.Errorf("expected ErrAppointmentNotFound, got %v", err)
	}
}

func TestService_CompleteElapsedAppointments(t *testing.T) {
	svc, repo, _ := newTestService()
	doc := repo.addDoctor("Dr. X", "Cardiology")
	pat := repo.addPatient("Jane")
	past := repo.addAppointment(doc.ID, pat.ID, at(9, 0), at(10, 0), StatusScheduled)
	future := repo.addAppointment(doc.ID, pat.ID, at(15, 0), at(16, 0), StatusScheduled)
	cancelled := repo.addAppointment(doc.ID, pat.ID, at(10, 0), at(11, 0), StatusCancelled)
	svc.now = func() time.Time { return at(12, 0) }

	n, err := svc.CompleteElapsedAppointments(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 completed, got %d", n)
	}
	if repo.appointments[past.ID].Status != StatusCompleted {
		t.Error("expected elapsed appointment to be completed")
	}
	if repo.appointments[future.ID].Status != StatusScheduled {
		t.Error("expected future appointment to stay scheduled")
	}
	if repo.appointments[cancelled.ID].Status != StatusCancelled {
		t.Error("expected cancelled appointment to stay cancelled")
	}
}

func TestService_ListDoctorPatients_OnePerPatient(t *testing.T) {
	svc, repo, _ := newTestService()
	doc := repo.addDoctor("Dr. X", "Cardiology")
	jane := repo.addPatient("Jane")
	john := repo.addPatient("John")
	repo.addAppointment(doc.ID, jane.ID, at(9, 0), at(10, 0), StatusCompleted)
	repo.addAppointment(doc.ID, jane.ID, at(11, 0), at(12, 0), StatusScheduled)
	repo.addAppointment(doc.ID, john.ID, at(13, 0), at(14, 0), StatusScheduled)

	patients, err := svc.ListDoctorPatients(context.Background(), doc.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(patients) != 2 {
		t.Fatalf("expected 2 patients, got %d", len(patients))
	}
	for _, p := range patients {
		if p.ID == jane.ID && !p.AppointmentStart.Equal(at(11, 0)) {
			t.Errorf("expected Jane's latest appointment, got %s", p.AppointmentStart)
		}
	}

	if _, err := svc.ListDoctorPatients(context.Background(), uuid.New()); !errors.Is(err, ErrDoctorNotFound) {
		t.Errorf("expected ErrDoctorNotFound, got %v", err)
	}
}
