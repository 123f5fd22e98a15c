package dashboard

import (
	"sort"
	"time"

	"github.com/vitalcare/clinic-portal/internal/scheduling"
)

// Presenters are deliberately memoization-free: each is a pure function
// over the repository's cached list, recomputed on every render.

// Today returns the appointments falling on the current calendar day,
// ignoring time of day.
func Today(list []scheduling.Appointment, now time.Time) []scheduling.Appointment {
	var out []scheduling.Appointment
	for _, appt := range list {
		if appt.OnDay(now) {
			out = append(out, appt)
		}
	}
	return out
}

// Pending returns the appointments still awaiting a decision.
func Pending(list []scheduling.Appointment) []scheduling.Appointment {
	return byStatus(list, scheduling.StatusPending)
}

// Confirmed returns the confirmed appointments.
func Confirmed(list []scheduling.Appointment) []scheduling.Appointment {
	return byStatus(list, scheduling.StatusConfirmed)
}

// Upcoming returns the appointments strictly after now, soonest first.
func Upcoming(list []scheduling.Appointment, now time.Time) []scheduling.Appointment {
	var out []scheduling.Appointment
	for _, appt := range list {
		if appt.Date.After(now) {
			out = append(out, appt)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	return out
}

func byStatus(list []scheduling.Appointment, status scheduling.Status) []scheduling.Appointment {
	var out []scheduling.Appointment
	for _, appt := range list {
		if appt.Status == status {
			out = append(out, appt)
		}
	}
	return out
}

// summaryTodayLimit caps how many of today's appointments ride along in the
// receptionist summary; the full list lives on the list endpoint.
const summaryTodayLimit = 5

// ReceptionistSummary is the receptionist dashboard payload: clinic-wide
// counts plus a peek at today's schedule.
type ReceptionistSummary struct {
	TodayCount     int                      `json:"today_count"`
	PendingCount   int                      `json:"pending_count"`
	ConfirmedCount int                      `json:"confirmed_count"`
	Today          []scheduling.Appointment `json:"today"`
	APILatency     APILatencySnapshot       `json:"api_latency"`
}

// BuildReceptionistSummary derives the receptionist dashboard from the
// cached list.
func BuildReceptionistSummary(list []scheduling.Appointment, now time.Time, latency APILatencySnapshot) ReceptionistSummary {
	today := Today(list, now)
	summary := ReceptionistSummary{
		TodayCount:     len(today),
		PendingCount:   len(Pending(list)),
		ConfirmedCount: len(Confirmed(list)),
		Today:          today,
		APILatency:     latency,
	}
	if len(summary.Today) > summaryTodayLimit {
		summary.Today = summary.Today[:summaryTodayLimit]
	}
	return summary
}

// DoctorSummary is the doctor dashboard payload. The input list must
// already be scoped to the doctor by a server-side filtered fetch.
type DoctorSummary struct {
	DoctorID string                   `json:"doctor_id"`
	Today    []scheduling.Appointment `json:"today"`
	Upcoming []scheduling.Appointment `json:"upcoming"`
	Pending  []scheduling.Appointment `json:"pending"`
}

// BuildDoctorSummary derives the doctor dashboard from a doctor-scoped list.
func BuildDoctorSummary(doctorID string, list []scheduling.Appointment, now time.Time) DoctorSummary {
	return DoctorSummary{
		DoctorID: doctorID,
		Today:    Today(list, now),
		Upcoming: Upcoming(list, now),
		Pending:  Pending(list),
	}
}
