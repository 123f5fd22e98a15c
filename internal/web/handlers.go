package web

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/vitalcare/clinic-portal/internal/appointments"
	"github.com/vitalcare/clinic-portal/internal/dashboard"
	"github.com/vitalcare/clinic-portal/internal/notifications"
	"github.com/vitalcare/clinic-portal/internal/scheduling"
	"github.com/vitalcare/clinic-portal/internal/session"
	"github.com/vitalcare/clinic-portal/pkg/logging"
)

type handlers struct {
	logger   *logging.Logger
	session  *session.Store
	repo     *appointments.Repository
	notify   *notifications.Queue
	doctors  DoctorLister
	gatherer prometheus.Gatherer
}

func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handlers) loginInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "sign in required"})
}

func (h *handlers) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if !h.session.Login(r.Context(), strings.TrimSpace(req.Email), req.Password) {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"ok": false})
		return
	}
	user, _ := h.session.Current()
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "user": user})
}

func (h *handlers) logout(w http.ResponseWriter, r *http.Request) {
	h.session.Logout(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// roleRedirect is the neutral root path: it forwards each authenticated user
// to their own role surface.
func (h *handlers) roleRedirect(w http.ResponseWriter, r *http.Request) {
	user, ok := h.session.Current()
	if !ok {
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}
	switch user.Role {
	case scheduling.RoleDoctor:
		http.Redirect(w, r, "/doctor", http.StatusFound)
	default:
		http.Redirect(w, r, "/receptionist", http.StatusFound)
	}
}

func (h *handlers) listDoctors(w http.ResponseWriter, r *http.Request) {
	doctors, err := h.doctors.ListDoctors(r.Context())
	if err != nil {
		h.logger.Warn("doctor list fetch failed", "error", err)
		h.notify.Error("Could not fetch the doctor list.")
		writeJSON(w, http.StatusOK, []scheduling.Doctor{})
		return
	}
	// Booking only ever offers available doctors.
	available := make([]scheduling.Doctor, 0, len(doctors))
	for _, d := range doctors {
		if d.Available {
			available = append(available, d)
		}
	}
	writeJSON(w, http.StatusOK, available)
}

func (h *handlers) receptionistDashboard(w http.ResponseWriter, r *http.Request) {
	if !h.repo.Refresh(r.Context()) {
		h.notify.Error("Could not fetch appointments.")
	}
	summary := dashboard.BuildReceptionistSummary(h.repo.Cached(), time.Now(), dashboard.SnapshotAPILatency(h.gatherer))
	writeJSON(w, http.StatusOK, summary)
}

func (h *handlers) listAppointments(w http.ResponseWriter, r *http.Request) {
	if !h.repo.Refresh(r.Context()) {
		h.notify.Error("Could not fetch appointments.")
	}
	list := h.repo.Cached()

	if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" && raw != "all" {
		status, err := scheduling.ParseStatus(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "unknown status filter")
			return
		}
		filtered := make([]scheduling.Appointment, 0, len(list))
		for _, appt := range list {
			if appt.Status == status {
				filtered = append(filtered, appt)
			}
		}
		list = filtered
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *handlers) createAppointment(w http.ResponseWriter, r *http.Request) {
	var in scheduling.BookingInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	// Validation failures never reach the network.
	errs := scheduling.ValidateBooking(in, time.Now())
	if name, ok := h.resolveDoctor(r.Context(), in.DoctorID, errs); ok {
		if len(errs) > 0 {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"errors": errs})
			return
		}
		if !h.repo.Create(r.Context(), in, name) {
			writeJSON(w, http.StatusBadGateway, map[string]any{"ok": false})
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"ok": true})
		return
	}
	writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"errors": errs})
}

// resolveDoctor maps the selected doctor id to a display name, recording a
// field error when the id is unknown or the doctor is unavailable. A failed
// lookup call degrades to a generic name rather than blocking the booking.
func (h *handlers) resolveDoctor(ctx context.Context, doctorID string, errs map[string]string) (string, bool) {
	if _, taken := errs["doctorId"]; taken || strings.TrimSpace(doctorID) == "" {
		return "", true
	}
	doctors, err := h.doctors.ListDoctors(ctx)
	if err != nil {
		h.logger.Warn("doctor lookup failed during booking", "error", err)
		return "the selected doctor", true
	}
	for _, d := range doctors {
		if d.ID == doctorID {
			if !d.Available {
				errs["doctorId"] = "doctor is not available for booking"
				return "", false
			}
			return d.Name, true
		}
	}
	errs["doctorId"] = "unknown doctor"
	return "", false
}

func (h *handlers) decideAppointment(status scheduling.Status) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		appt, found := h.repo.Find(id)
		if !found {
			h.repo.Refresh(r.Context())
			if appt, found = h.repo.Find(id); !found {
				writeError(w, http.StatusNotFound, "appointment not found")
				return
			}
		}
		h.applyDecision(w, r, appt, status)
	}
}

// decideOwnAppointment is the doctor-side decision path: the record is
// looked up in the doctor's server-side filtered list, so a doctor can never
// act on another doctor's appointment.
func (h *handlers) decideOwnAppointment(status scheduling.Status) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		appt, ok := h.findOwnAppointment(w, r)
		if !ok {
			return
		}
		h.applyDecision(w, r, appt, status)
	}
}

func (h *handlers) applyDecision(w http.ResponseWriter, r *http.Request, appt scheduling.Appointment, status scheduling.Status) {
	if !appt.Status.CanTransitionTo(status) {
		h.notify.Error("Only pending appointments can be confirmed or cancelled.")
		writeError(w, http.StatusConflict, "appointment is not pending")
		return
	}
	if !h.repo.Update(r.Context(), appt, appointments.UpdateFields{Status: status}) {
		writeJSON(w, http.StatusBadGateway, map[string]any{"ok": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (h *handlers) saveNote(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Note string `json:"note"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	appt, ok := h.findOwnAppointment(w, r)
	if !ok {
		return
	}
	if !h.repo.Update(r.Context(), appt, appointments.UpdateFields{Note: &req.Note}) {
		writeJSON(w, http.StatusBadGateway, map[string]any{"ok": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (h *handlers) deleteAppointment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !h.repo.Remove(r.Context(), id) {
		writeJSON(w, http.StatusBadGateway, map[string]any{"ok": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (h *handlers) doctorDashboard(w http.ResponseWriter, r *http.Request) {
	user, _ := h.session.Current()
	list, ok := h.repo.FetchForDoctor(r.Context(), user.DoctorID)
	if !ok {
		h.notify.Error("Could not fetch appointments.")
	}
	writeJSON(w, http.StatusOK, dashboard.BuildDoctorSummary(user.DoctorID, list, time.Now()))
}

func (h *handlers) findOwnAppointment(w http.ResponseWriter, r *http.Request) (scheduling.Appointment, bool) {
	user, _ := h.session.Current()
	id := chi.URLParam(r, "id")
	list, ok := h.repo.FetchForDoctor(r.Context(), user.DoctorID)
	if !ok {
		writeJSON(w, http.StatusBadGateway, map[string]any{"ok": false})
		return scheduling.Appointment{}, false
	}
	for _, appt := range list {
		if appt.ID == id {
			return appt, true
		}
	}
	writeError(w, http.StatusNotFound, "appointment not found")
	return scheduling.Appointment{}, false
}

func (h *handlers) listNotifications(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.notify.List())
}

func (h *handlers) markNotificationRead(w http.ResponseWriter, r *http.Request) {
	h.notify.MarkRead(chi.URLParam(r, "id"))
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (h *handlers) dismissNotification(w http.ResponseWriter, r *http.Request) {
	h.notify.Dismiss(chi.URLParam(r, "id"))
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
