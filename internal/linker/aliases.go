package linker

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Canonical patient fields.
const (
	FieldID              = "id"
	FieldPatientName     = "patientName"
	FieldEmail           = "email"
	FieldPatientAge      = "patientAge"
	FieldGender          = "gender"
	FieldMobileNo        = "mobileNo"
	FieldAppointmentDate = "appointmentDate"
	FieldAppointmentTime = "appointmentTime"
	FieldStatus          = "status"
)

// FieldAliases lists the source keys for one canonical field, best first.
// A key may be a dotted path into nested objects ("patient.name").
type FieldAliases struct {
	Field string
	Keys  []string
}

type AliasTable []FieldAliases

// AppointmentAliases reads a Patient out of an appointment record. Here
// "id" is the appointment's own id, so it is never used for the patient.
var AppointmentAliases = AliasTable{
	{FieldID, []string{"patientId", "patient.id", "patient._id", "patient"}},
	{FieldPatientName, []string{"patientName", "patient.name", "patient.patientName", "name"}},
	{FieldEmail, []string{"patientEmail", "patient.email", "email"}},
	{FieldPatientAge, []string{"patientAge", "patient.age", "age"}},
	{FieldGender, []string{"patientGender", "patient.gender", "gender"}},
	{FieldMobileNo, []string{"patientPhone", "patientMobile", "mobileNo", "patient.mobileNo", "patient.phone", "phone"}},
	{FieldAppointmentDate, []string{"date", "appointmentDate"}},
	{FieldAppointmentTime, []string{"startTime", "time", "appointmentTime"}},
	{FieldStatus, []string{"status"}},
}

// PatientAliases reads a Patient out of a doctor-patients list entry.
var PatientAliases = AliasTable{
	{FieldID, []string{"id", "_id", "patientId"}},
	{FieldPatientName, []string{"patientName", "name"}},
	{FieldEmail, []string{"email", "patientEmail"}},
	{FieldPatientAge, []string{"patientAge", "age"}},
	{FieldGender, []string{"gender", "patientGender"}},
	{FieldMobileNo, []string{"mobileNo", "patientPhone", "patientMobile", "phone"}},
	{FieldAppointmentDate, []string{"appointmentDate", "date"}},
	{FieldAppointmentTime, []string{"appointmentTime", "startTime", "time"}},
	{FieldStatus, []string{"status", "appointmentStatus"}},
}

// DoctorIDKeys locate the doctor of a cached appointment record.
var DoctorIDKeys = []string{"doctorId", "doctor.id", "doctor._id", "doctor"}

// Resolve returns, for every field, the first key with a usable value.
// Fields with no usable value are absent from the result.
func (t AliasTable) Resolve(rec map[string]any) map[string]string {
	out := make(map[string]string, len(t))
	for _, fa := range t {
		if v, ok := firstValue(rec, fa.Keys); ok {
			out[fa.Field] = v
		}
	}
	return out
}

func firstValue(rec map[string]any, keys []string) (string, bool) {
	for _, k := range keys {
		if v, ok := scalar(lookup(rec, k)); ok {
			return v, true
		}
	}
	return "", false
}

func lookup(rec map[string]any, path string) any {
	var cur any = rec
	for _, part := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur, ok = m[part]
		if !ok {
			return nil
		}
	}
	return cur
}

// scalar renders strings, numbers and booleans. Blank strings, null and
// nested values are not usable.
func scalar(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		s := strings.TrimSpace(x)
		return s, s != ""
	case json.Number:
		return x.String(), true
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), true
	case int:
		return strconv.Itoa(x), true
	case int64:
		return strconv.FormatInt(x, 10), true
	case bool:
		return strconv.FormatBool(x), true
	}
	return "", false
}
