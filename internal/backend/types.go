package backend

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ID is an identifier that may arrive as a JSON string or number. Both
// decode to the same string, so 7 and "7" compare equal.
type ID string

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id must be a string or number: %w", err)
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string { return string(id) }

// Record is a loosely typed JSON object, used where the field names vary
// between producers.
type Record = map[string]any

type Slot struct {
	Date       string `json:"date,omitempty"`
	StartTime  string `json:"startTime"`
	EndTime    string `json:"endTime"`
	DoctorID   ID     `json:"doctorId,omitempty"`
	DoctorName string `json:"doctorName,omitempty"`
}

type Appointment struct {
	ID            ID     `json:"id"`
	PatientID     ID     `json:"patientId"`
	DoctorID      ID     `json:"doctorId"`
	DoctorName    string `json:"doctorName,omitempty"`
	Specialty     string `json:"specialty,omitempty"`
	Date          string `json:"date"`
	StartTime     string `json:"startTime"`
	EndTime       string `json:"endTime"`
	Status        string `json:"status"`
	Reason        string `json:"reason,omitempty"`
	PatientName   string `json:"patientName,omitempty"`
	PatientEmail  string `json:"patientEmail,omitempty"`
	PatientAge    ID     `json:"patientAge,omitempty"` // number or string, like ids
	PatientGender string `json:"patientGender,omitempty"`
	PatientPhone  string `json:"patientPhone,omitempty"`
	CreatedAt     string `json:"createdAt,omitempty"`
}

// BookingRequest is sent as query parameters plus a small JSON body.
type BookingRequest struct {
	Specialty     string
	StartDateTime string
	EndDateTime   string
	PatientID     string
	DoctorID      string
	Reason        string
}

type bookingBody struct {
	DoctorID string `json:"doctorId"`
	Reason   string `json:"reason"`
}
