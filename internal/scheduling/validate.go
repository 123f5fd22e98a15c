package scheduling

import (
	"regexp"
	"strings"
	"time"
)

// phonePattern accepts an optional leading "+" followed by at least ten
// digits, spaces, hyphens, or parentheses.
var phonePattern = regexp.MustCompile(`^[\+]?[0-9\s\-\(\)]{10,}$`)

// BookingInput is the raw appointment form submission, prior to validation.
type BookingInput struct {
	DoctorID     string `json:"doctorId"`
	PatientName  string `json:"patientName"`
	PatientPhone string `json:"patientPhone"`
	Date         string `json:"date"` // 2006-01-02
	Time         string `json:"time"` // 15:04, one of Slots()
	Reason       string `json:"reason"`
}

// ValidateBooking checks a booking form against the business rules and
// returns one message per violated field. An empty map means the input is
// valid. Every rule is checked independently so all violations surface at
// once rather than one per attempt.
func ValidateBooking(in BookingInput, now time.Time) map[string]string {
	errs := make(map[string]string)

	if strings.TrimSpace(in.DoctorID) == "" {
		errs["doctorId"] = "select a doctor"
	}
	if strings.TrimSpace(in.PatientName) == "" {
		errs["patientName"] = "enter the patient name"
	}
	phone := strings.TrimSpace(in.PatientPhone)
	if phone == "" {
		errs["patientPhone"] = "enter the patient phone number"
	} else if !phonePattern.MatchString(phone) {
		errs["patientPhone"] = "invalid phone number format"
	}
	if in.Date == "" {
		errs["date"] = "select a date"
	} else if day, err := time.ParseInLocation("2006-01-02", in.Date, now.Location()); err != nil {
		errs["date"] = "invalid date"
	} else {
		// Compare at midnight granularity: booking for today is allowed
		// regardless of the current time of day.
		today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		if day.Before(today) {
			errs["date"] = "date cannot be earlier than today"
		}
	}
	if in.Time == "" {
		errs["time"] = "select a time slot"
	} else if !IsSlot(in.Time) {
		errs["time"] = "time must be one of the offered slots"
	}
	if strings.TrimSpace(in.Reason) == "" {
		errs["reason"] = "enter the reason for the visit"
	}

	return errs
}

// StartTime combines the input's date and slot into a single timestamp.
// Call only after ValidateBooking reported no errors.
func (in BookingInput) StartTime(loc *time.Location) (time.Time, error) {
	return time.ParseInLocation("2006-01-02 15:04", in.Date+" "+in.Time, loc)
}
