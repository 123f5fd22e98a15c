package scheduling

import (
	"fmt"
	"strings"
	"time"
)

// Status is the lifecycle state of an appointment.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
)

// ParseStatus validates a raw status value coming off the wire.
func ParseStatus(raw string) (Status, error) {
	s := Status(strings.ToLower(strings.TrimSpace(raw)))
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted:
		return s, nil
	}
	return "", fmt.Errorf("scheduling: unknown status %q", raw)
}

// CanTransitionTo reports whether a status change is allowed. Only pending
// appointments may be decided; every other state is final for staff actions.
func (s Status) CanTransitionTo(next Status) bool {
	if s != StatusPending {
		return false
	}
	return next == StatusConfirmed || next == StatusCancelled
}

// Role identifies which dashboard a user is entitled to.
type Role string

const (
	RoleReceptionist Role = "receptionist"
	RoleDoctor       Role = "doctor"
)

// ParseRole validates a raw role value coming off the wire.
func ParseRole(raw string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(raw)))
	switch r {
	case RoleReceptionist, RoleDoctor:
		return r, nil
	}
	return "", fmt.Errorf("scheduling: unknown role %q", raw)
}

// User is an authenticated portal operator.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
	// DoctorID links a doctor-role user to the doctor record whose
	// appointments they manage. Empty for receptionists.
	DoctorID string `json:"doctorId,omitempty"`
}

// Validate enforces the role/doctorId pairing invariant.
func (u User) Validate() error {
	if strings.TrimSpace(u.ID) == "" {
		return fmt.Errorf("scheduling: user id required")
	}
	if _, err := ParseRole(string(u.Role)); err != nil {
		return err
	}
	if u.Role == RoleDoctor && strings.TrimSpace(u.DoctorID) == "" {
		return fmt.Errorf("scheduling: doctor user %s missing doctorId", u.ID)
	}
	return nil
}

// Doctor is read-only reference data fetched from the clinic API.
type Doctor struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Specialty string `json:"specialty"`
	Available bool   `json:"available"`
}

// Appointment is the canonical appointment shape used everywhere inside the
// portal. The snake_case backend shape is confined to the clinicapi package.
type Appointment struct {
	ID           string    `json:"id"`
	DoctorID     string    `json:"doctorId"`
	DoctorName   string    `json:"doctorName,omitempty"`
	PatientID    string    `json:"patientId,omitempty"`
	PatientName  string    `json:"patientName"`
	PatientPhone string    `json:"patientPhone,omitempty"`
	Date         time.Time `json:"date"`
	Reason       string    `json:"reason"`
	Status       Status    `json:"status"`
	Note         string    `json:"note,omitempty"`
	CreatedAt    time.Time `json:"createdAt,omitempty"`
}

// OnDay reports whether the appointment falls on the given calendar day,
// ignoring time of day.
func (a Appointment) OnDay(day time.Time) bool {
	y1, m1, d1 := a.Date.Date()
	y2, m2, d2 := day.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}
