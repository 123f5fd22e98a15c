package appointments

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/vitalcare/clinic-portal/internal/clinicapi"
	"github.com/vitalcare/clinic-portal/internal/notifications"
	"github.com/vitalcare/clinic-portal/internal/scheduling"
	"github.com/vitalcare/clinic-portal/pkg/logging"
)

// API is the slice of the clinic API client the repository needs.
type API interface {
	ListAppointments(ctx context.Context, doctorID string) ([]scheduling.Appointment, error)
	CreateAppointment(ctx context.Context, req clinicapi.CreateAppointmentRequest) error
	UpdateAppointment(ctx context.Context, id string, req clinicapi.UpdateAppointmentRequest) error
	DeleteAppointment(ctx context.Context, id string) error
}

// UpdateFields are the mutable parts of an appointment. The zero value of a
// field means "leave unchanged"; the full backend field set is always resent
// under the hood.
type UpdateFields struct {
	Status scheduling.Status
	Note   *string
}

// Repository wraps the remote appointment collection behind an in-memory
// cached list. The cache is a passive mirror: it is only ever replaced
// wholesale after a confirmed server round trip, and no failure crosses the
// repository boundary — outcomes surface as notifications and a bool.
type Repository struct {
	api    API
	notify *notifications.Queue
	logger *logging.Logger

	mu    sync.RWMutex
	cache []scheduling.Appointment
}

// NewRepository creates the appointment repository.
func NewRepository(api API, notify *notifications.Queue, logger *logging.Logger) *Repository {
	if logger == nil {
		logger = logging.Default()
	}
	return &Repository{
		api:    api,
		notify: notify,
		logger: logger,
	}
}

// Cached returns a snapshot of the cached appointment list.
func (r *Repository) Cached() []scheduling.Appointment {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]scheduling.Appointment, len(r.cache))
	copy(out, r.cache)
	return out
}

// Find looks up a cached appointment by id.
func (r *Repository) Find(id string) (scheduling.Appointment, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, appt := range r.cache {
		if appt.ID == id {
			return appt, true
		}
	}
	return scheduling.Appointment{}, false
}

// Refresh reloads the full collection from the backend. On any failure the
// cache is set to the empty collection and false is returned; surfacing a
// notification for a failed list is the caller's concern.
func (r *Repository) Refresh(ctx context.Context) bool {
	list, err := r.api.ListAppointments(ctx, "")
	if err != nil {
		r.logger.Warn("appointment list refresh failed", "error", err)
		r.mu.Lock()
		r.cache = nil
		r.mu.Unlock()
		return false
	}
	r.mu.Lock()
	r.cache = list
	r.mu.Unlock()
	return true
}

// FetchForDoctor returns the server-side filtered list for one doctor. The
// result is not cached; doctor views are always scoped by the backend, never
// by filtering the shared list locally.
func (r *Repository) FetchForDoctor(ctx context.Context, doctorID string) ([]scheduling.Appointment, bool) {
	list, err := r.api.ListAppointments(ctx, doctorID)
	if err != nil {
		r.logger.Warn("doctor appointment fetch failed", "doctor_id", doctorID, "error", err)
		return nil, false
	}
	return list, true
}

// Create books a new appointment. Status is always forced to pending at
// creation regardless of input. doctorName is only used for the success
// message.
func (r *Repository) Create(ctx context.Context, in scheduling.BookingInput, doctorName string) bool {
	req := clinicapi.CreateAppointmentRequest{
		DoctorID:     in.DoctorID,
		PatientName:  in.PatientName,
		PatientPhone: in.PatientPhone,
		Date:         in.Date + " " + in.Time + ":00",
		Reason:       in.Reason,
		Status:       string(scheduling.StatusPending),
	}
	if err := r.api.CreateAppointment(ctx, req); err != nil {
		r.logger.Warn("appointment create failed", "error", err)
		r.notify.Error(failureMessage(err, "Could not book the appointment.", "Connection error while booking the appointment."))
		return false
	}

	r.Refresh(ctx)
	r.notify.Success(fmt.Sprintf("Appointment booked for %s with %s", in.PatientName, doctorName))
	return true
}

// Update sends the full merged record for the given appointment, then
// refreshes the cache. The success notification depends on the semantic
// transition: confirmations succeed loudly, cancellations warn.
func (r *Repository) Update(ctx context.Context, appt scheduling.Appointment, fields UpdateFields) bool {
	if fields.Status != "" && !appt.Status.CanTransitionTo(fields.Status) {
		r.notify.Error("Only pending appointments can be confirmed or cancelled.")
		return false
	}

	req := clinicapi.UpdateAppointmentRequest{
		DoctorID:  appt.DoctorID,
		PatientID: appt.PatientID,
		Date:      clinicapi.WireTime(appt.Date),
		Reason:    appt.Reason,
		Status:    string(fields.Status),
		Note:      fields.Note,
	}
	if err := r.api.UpdateAppointment(ctx, appt.ID, req); err != nil {
		r.logger.Warn("appointment update failed", "appointment_id", appt.ID, "error", err)
		r.notify.Error(failureMessage(err, "Could not update the appointment.", "Connection error while updating the appointment."))
		return false
	}

	// The server accepted exactly this shape, so merge it locally before
	// the refresh lands.
	r.merge(appt.ID, fields)
	r.Refresh(ctx)

	switch fields.Status {
	case scheduling.StatusConfirmed:
		r.notify.Success("Appointment confirmed")
	case scheduling.StatusCancelled:
		r.notify.Warning("Appointment cancelled")
	default:
		r.notify.Success("Appointment updated")
	}
	return true
}

// Remove deletes an appointment by id and refreshes the cache.
func (r *Repository) Remove(ctx context.Context, id string) bool {
	if err := r.api.DeleteAppointment(ctx, id); err != nil {
		r.logger.Warn("appointment delete failed", "appointment_id", id, "error", err)
		r.notify.Error(failureMessage(err, "Could not delete the appointment.", "Connection error while deleting the appointment."))
		return false
	}

	r.mu.Lock()
	for i, appt := range r.cache {
		if appt.ID == id {
			r.cache = append(r.cache[:i], r.cache[i+1:]...)
			break
		}
	}
	r.mu.Unlock()

	r.Refresh(ctx)
	r.notify.Info("Appointment removed")
	return true
}

// Reset drops the cache, as part of the full state reset on logout.
func (r *Repository) Reset() {
	r.mu.Lock()
	r.cache = nil
	r.mu.Unlock()
}

func (r *Repository) merge(id string, fields UpdateFields) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.cache {
		if r.cache[i].ID != id {
			continue
		}
		if fields.Status != "" {
			r.cache[i].Status = fields.Status
		}
		if fields.Note != nil {
			r.cache[i].Note = *fields.Note
		}
		return
	}
}

// failureMessage maps a repository-boundary error to the user-facing text:
// server-rejected errors carry the backend's message, transport and parse
// errors collapse into a generic connection failure.
func failureMessage(err error, rejected, connection string) string {
	var apiErr *clinicapi.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Message != "" {
			return apiErr.Message
		}
		return rejected
	}
	return connection
}
