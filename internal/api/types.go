package api

import (
	"strconv"
	"time"

	"github.com/hackgods/healsync/internal/appointment"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

type BookAppointmentBody struct {
	DoctorID string `json:"doctorId"`
	Reason   string `json:"reason"`
}

type SlotResponse struct {
	Date       string `json:"date"`
	StartTime  string `json:"startTime"`
	EndTime    string `json:"endTime"`
	DoctorID   string `json:"doctorId"`
	DoctorName string `json:"doctorName"`
}

type AppointmentResponse struct {
	ID            string    `json:"id"`
	PatientID     string    `json:"patientId"`
	DoctorID      string    `json:"doctorId"`
	DoctorName    string    `json:"doctorName,omitempty"`
	Specialty     string    `json:"specialty"`
	Date          string    `json:"date"`
	StartTime     string    `json:"startTime"`
	EndTime       string    `json:"endTime"`
	Status        string    `json:"status"`
	Reason        string    `json:"reason"`
	PatientName   string    `json:"patientName,omitempty"`
	PatientEmail  string    `json:"patientEmail,omitempty"`
	PatientAge    string    `json:"patientAge,omitempty"`
	PatientGender string    `json:"patientGender,omitempty"`
	PatientPhone  string    `json:"patientPhone,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

type PatientResponse struct {
	ID              string `json:"id"`
	PatientName     string `json:"patientName"`
	Email           string `json:"email,omitempty"`
	PatientAge      string `json:"patientAge,omitempty"`
	Gender          string `json:"gender,omitempty"`
	MobileNo        string `json:"mobileNo,omitempty"`
	AppointmentDate string `json:"appointmentDate"`
	AppointmentTime string `json:"appointmentTime"`
	Status          string `json:"status"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func ageString(age *int) string {
	if age == nil {
		return ""
	}
	return strconv.Itoa(*age)
}

func toSlotResponse(s appointment.Slot) SlotResponse {
	return SlotResponse{
		Date:       s.StartTime.UTC().Format(dateLayout),
		StartTime:  s.StartTime.UTC().Format(timeLayout),
		EndTime:    s.EndTime.UTC().Format(timeLayout),
		DoctorID:   s.DoctorID.String(),
		DoctorName: s.DoctorName,
	}
}

func toAppointmentResponse(a appointment.Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:        a.ID.String(),
		PatientID: a.PatientID.String(),
		DoctorID:  a.DoctorID.String(),
		Specialty: a.Specialty,
		Date:      a.StartTime.UTC().Format(dateLayout),
		StartTime: a.StartTime.UTC().Format(timeLayout),
		EndTime:   a.EndTime.UTC().Format(timeLayout),
		Status:    string(a.Status),
		Reason:    a.Reason,
		CreatedAt: a.CreatedAt,
	}
}

func toDetailResponse(d appointment.AppointmentDetail) AppointmentResponse {
	resp := toAppointmentResponse(d.Appointment)
	if d.Doctor != nil {
		resp.DoctorName = d.Doctor.Name
	}
	if p := d.Patient; p != nil {
		resp.PatientName = p.Name
		resp.PatientEmail = deref(p.Email)
		resp.PatientAge = ageString(p.Age)
		resp.PatientGender = deref(p.Gender)
		resp.PatientPhone = deref(p.MobileNo)
	}
	return resp
}

func toPatientResponse(s appointment.PatientSummary) PatientResponse {
	return PatientResponse{
		ID:              s.ID.String(),
		PatientName:     s.Name,
		Email:           deref(s.Email),
		PatientAge:      ageString(s.Age),
		Gender:          deref(s.Gender),
		MobileNo:        deref(s.MobileNo),
		AppointmentDate: s.AppointmentStart.UTC().Format(dateLayout),
		AppointmentTime: s.AppointmentStart.UTC().Format(timeLayout),
		Status:          string(s.AppointmentStatus),
	}
}
