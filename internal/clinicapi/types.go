package clinicapi

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/vitalcare/clinic-portal/internal/scheduling"
)

// APIError is a server-rejected request: the backend answered with a non-2xx
// status and (usually) a structured {"error": "..."} body.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("clinicapi: status %d", e.StatusCode)
	}
	return fmt.Sprintf("clinicapi: status %d: %s", e.StatusCode, e.Message)
}

// LoginRequest is the credentials body for POST /api/users/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// CreateAppointmentRequest is the backend shape for POST /api/appointments.
type CreateAppointmentRequest struct {
	DoctorID     string `json:"doctor_id"`
	PatientName  string `json:"name"`
	PatientPhone string `json:"phone"`
	Date         string `json:"date"` // "2006-01-02 15:04:05"
	Reason       string `json:"reason"`
	Status       string `json:"status"`
}

// UpdateAppointmentRequest is the backend shape for PUT /api/appointments/:id.
// The backend contract requires the full field set on every update, not a
// sparse patch, so callers resend doctor, patient, date, and reason alongside
// whatever actually changed.
type UpdateAppointmentRequest struct {
	DoctorID  string  `json:"doctor_id"`
	PatientID string  `json:"patient_id"`
	Date      string  `json:"date"`
	Reason    string  `json:"reason"`
	Status    string  `json:"status,omitempty"`
	Note      *string `json:"note,omitempty"`
}

// flexID tolerates backends that serialize ids as JSON numbers instead of
// strings.
type flexID string

func (f *flexID) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err == nil {
		*f = flexID(n.String())
		return nil
	}
	return fmt.Errorf("clinicapi: id %s is neither string nor number", string(b))
}

type userWire struct {
	ID            flexID `json:"id"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	Role          string `json:"role"`
	DoctorID      flexID `json:"doctorId"`
	DoctorIDSnake flexID `json:"doctor_id"`
}

func (w userWire) toDomain() (*scheduling.User, error) {
	role, err := scheduling.ParseRole(w.Role)
	if err != nil {
		return nil, err
	}
	u := &scheduling.User{
		ID:       string(w.ID),
		Name:     w.Name,
		Email:    w.Email,
		Role:     role,
		DoctorID: firstNonEmpty(string(w.DoctorID), string(w.DoctorIDSnake)),
	}
	if err := u.Validate(); err != nil {
		return nil, err
	}
	return u, nil
}

type doctorWire struct {
	ID        flexID `json:"id"`
	Name      string `json:"name"`
	Specialty string `json:"specialty"`
	Available *bool  `json:"available"`
}

func (w doctorWire) toDomain() scheduling.Doctor {
	// Absent availability means available; only an explicit false hides
	// the doctor from booking.
	available := w.Available == nil || *w.Available
	return scheduling.Doctor{
		ID:        string(w.ID),
		Name:      w.Name,
		Specialty: w.Specialty,
		Available: available,
	}
}

// appointmentWire accepts both naming conventions the backend has been seen
// to emit (snake_case columns and camelCase seeds) and normalizes them into
// the one canonical scheduling.Appointment.
type appointmentWire struct {
	ID              flexID `json:"id"`
	DoctorID        flexID `json:"doctor_id"`
	DoctorIDCamel   flexID `json:"doctorId"`
	DoctorName      string `json:"doctor_name"`
	DoctorNameCamel string `json:"doctorName"`
	PatientID       flexID `json:"patient_id"`
	PatientIDCamel  flexID `json:"patientId"`
	Name            string `json:"name"`
	PatientName     string `json:"patientName"`
	Phone           string `json:"phone"`
	PatientPhone    string `json:"patientPhone"`
	Date            string `json:"date"`
	Reason          string `json:"reason"`
	Status          string `json:"status"`
	Note            string `json:"note"`
	CreatedAt       string `json:"created_at"`
	CreatedAtCamel  string `json:"createdAt"`
}

func (w appointmentWire) toDomain() (scheduling.Appointment, error) {
	if string(w.ID) == "" {
		return scheduling.Appointment{}, fmt.Errorf("clinicapi: appointment missing id")
	}
	status, err := scheduling.ParseStatus(w.Status)
	if err != nil {
		return scheduling.Appointment{}, err
	}
	date, err := parseWireTime(w.Date)
	if err != nil {
		return scheduling.Appointment{}, fmt.Errorf("clinicapi: appointment %s: %w", w.ID, err)
	}

	appt := scheduling.Appointment{
		ID:           string(w.ID),
		DoctorID:     firstNonEmpty(string(w.DoctorIDCamel), string(w.DoctorID)),
		DoctorName:   firstNonEmpty(w.DoctorNameCamel, w.DoctorName),
		PatientID:    firstNonEmpty(string(w.PatientIDCamel), string(w.PatientID)),
		PatientName:  firstNonEmpty(w.PatientName, w.Name),
		PatientPhone: firstNonEmpty(w.PatientPhone, w.Phone),
		Date:         date,
		Reason:       w.Reason,
		Status:       status,
		Note:         w.Note,
	}
	if raw := firstNonEmpty(w.CreatedAtCamel, w.CreatedAt); raw != "" {
		if created, err := parseWireTime(raw); err == nil {
			appt.CreatedAt = created
		}
	}
	return appt, nil
}

// wireTimeLayouts are tried in order when parsing backend timestamps.
var wireTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseWireTime(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, fmt.Errorf("clinicapi: empty timestamp")
	}
	for _, layout := range wireTimeLayouts {
		if layout == time.RFC3339 {
			if t, err := time.Parse(layout, raw); err == nil {
				return t, nil
			}
			continue
		}
		if t, err := time.ParseInLocation(layout, raw, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("clinicapi: unparsable timestamp %q", raw)
}

// WireTime formats a timestamp the way the backend stores it.
func WireTime(t time.Time) string {
	return t.Format("2006-01-02 15:04:05")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
