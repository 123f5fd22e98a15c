package web

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitalcare/clinic-portal/internal/appointments"
	"github.com/vitalcare/clinic-portal/internal/clinicapi"
	"github.com/vitalcare/clinic-portal/internal/notifications"
	"github.com/vitalcare/clinic-portal/internal/session"
	"github.com/vitalcare/clinic-portal/pkg/logging"
)

type backendAppointment struct {
	ID          string `json:"id"`
	DoctorID    string `json:"doctor_id"`
	DoctorName  string `json:"doctor_name"`
	PatientID   string `json:"patient_id"`
	Name        string `json:"name"`
	Phone       string `json:"phone"`
	Date        string `json:"date"`
	Reason      string `json:"reason"`
	Status      string `json:"status"`
	Note        string `json:"note"`
}

// fakeBackend is an in-memory rendition of the clinic REST API, serving the
// same wire shapes the real backend does.
type fakeBackend struct {
	mu           sync.Mutex
	appointments []backendAppointment
	nextID       int
	createCalls  int
	updateCalls  int
	listQueries  []string
}

func (b *fakeBackend) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/users/login", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Password != "correct" {
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "invalid credentials"})
			return
		}
		switch req.Email {
		case "recepcionista@vitalcare.com":
			_ = json.NewEncoder(w).Encode(map[string]any{
				"id": "10", "name": "Rosa Fernández", "email": req.Email, "role": "receptionist",
			})
		case "dr.gomez@vitalcare.com":
			_ = json.NewEncoder(w).Encode(map[string]any{
				"id": "11", "name": "Dr. Gómez", "email": req.Email, "role": "doctor", "doctor_id": "2",
			})
		default:
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "invalid credentials"})
		}
	})

	mux.HandleFunc("GET /api/doctors", func(w http.ResponseWriter, r *http.Request) {
		unavailable := false
		_ = json.NewEncoder(w).Encode([]map[string]any{
			{"id": "1", "name": "Dr. Pérez", "specialty": "Cardiology"},
			{"id": "2", "name": "Dr. Gómez", "specialty": "Pediatrics"},
			{"id": "3", "name": "Dr. Ruiz", "specialty": "Dermatology", "available": unavailable},
		})
	})

	mux.HandleFunc("GET /api/appointments", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.listQueries = append(b.listQueries, r.URL.RawQuery)
		doctorID := r.URL.Query().Get("doctor_id")
		out := []backendAppointment{}
		for _, appt := range b.appointments {
			if doctorID == "" || appt.DoctorID == doctorID {
				out = append(out, appt)
			}
		}
		_ = json.NewEncoder(w).Encode(out)
	})

	mux.HandleFunc("POST /api/appointments", func(w http.ResponseWriter, r *http.Request) {
		var req clinicapi.CreateAppointmentRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		b.mu.Lock()
		defer b.mu.Unlock()
		b.createCalls++
		b.nextID++
		b.appointments = append(b.appointments, backendAppointment{
			ID:       fmt.Sprintf("%d", b.nextID),
			DoctorID: req.DoctorID,
			Name:     req.PatientName,
			Phone:    req.PatientPhone,
			Date:     req.Date,
			Reason:   req.Reason,
			Status:   req.Status,
		})
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true})
	})

	mux.HandleFunc("PUT /api/appointments/{id}", func(w http.ResponseWriter, r *http.Request) {
		var req clinicapi.UpdateAppointmentRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		b.mu.Lock()
		defer b.mu.Unlock()
		b.updateCalls++
		for i := range b.appointments {
			if b.appointments[i].ID == r.PathValue("id") {
				if req.Status != "" {
					b.appointments[i].Status = req.Status
				}
				if req.Note != nil {
					b.appointments[i].Note = *req.Note
				}
				_ = json.NewEncoder(w).Encode(map[string]any{"ok": true})
				return
			}
		}
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "not found"})
	})

	mux.HandleFunc("DELETE /api/appointments/{id}", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		kept := b.appointments[:0]
		for _, appt := range b.appointments {
			if appt.ID != r.PathValue("id") {
				kept = append(kept, appt)
			}
		}
		b.appointments = kept
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true})
	})

	return mux
}

func (b *fakeBackend) seed(appts ...backendAppointment) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.appointments = append(b.appointments, appts...)
	for range appts {
		b.nextID++
	}
}

func (b *fakeBackend) find(id string) (backendAppointment, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, appt := range b.appointments {
		if appt.ID == id {
			return appt, true
		}
	}
	return backendAppointment{}, false
}

type portal struct {
	router  http.Handler
	backend *fakeBackend
	server  *httptest.Server
	notify  *notifications.Queue
}

func newPortal(t *testing.T) *portal {
	t.Helper()
	backend := &fakeBackend{}
	srv := httptest.NewServer(backend.handler())
	t.Cleanup(srv.Close)

	logger := logging.NewWithWriter("error", bytes.NewBuffer(nil))
	queue := notifications.NewQueue(time.Minute)
	client := clinicapi.NewClient(srv.URL, logger)
	repo := appointments.NewRepository(client, queue, logger)
	store := session.NewStore(client, nil, []byte("test-secret"), queue, logger)
	store.OnLogout(repo.Reset)
	store.OnLogout(queue.Reset)

	router := New(&Config{
		Logger:        logger,
		Session:       store,
		Repo:          repo,
		Notifications: queue,
		Doctors:       client,
	})
	return &portal{router: router, backend: backend, server: srv, notify: queue}
}

func (p *portal) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	p.router.ServeHTTP(rec, req)
	return rec
}

func (p *portal) loginAs(t *testing.T, email string) {
	t.Helper()
	rec := p.do(t, http.MethodPost, "/login", map[string]string{"email": email, "password": "correct"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	p.notify.Reset()
}

func seedPending(id, doctorID string) backendAppointment {
	return backendAppointment{
		ID:       id,
		DoctorID: doctorID,
		Name:     "Carlos Mendoza",
		Phone:    "+521234567890",
		Date:     "2026-09-15 09:00:00",
		Reason:   "Checkup",
		Status:   "pending",
	}
}

func TestUnauthenticatedRedirectsToLogin(t *testing.T) {
	p := newPortal(t)

	for _, path := range []string{"/", "/receptionist", "/doctor", "/doctors", "/notifications"} {
		rec := p.do(t, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusFound, rec.Code, path)
		assert.Equal(t, "/login", rec.Header().Get("Location"), path)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	p := newPortal(t)

	rec := p.do(t, http.MethodPost, "/login", map[string]string{
		"email": "recepcionista@vitalcare.com", "password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = p.do(t, http.MethodGet, "/receptionist", nil)
	assert.Equal(t, http.StatusFound, rec.Code)
}

func TestRoleRouting(t *testing.T) {
	p := newPortal(t)
	p.loginAs(t, "recepcionista@vitalcare.com")

	rec := p.do(t, http.MethodGet, "/", nil)
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/receptionist", rec.Header().Get("Location"))

	// Wrong surface bounces back to the neutral root.
	rec = p.do(t, http.MethodGet, "/doctor", nil)
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))

	rec = p.do(t, http.MethodPost, "/logout", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	p.loginAs(t, "dr.gomez@vitalcare.com")
	rec = p.do(t, http.MethodGet, "/", nil)
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/doctor", rec.Header().Get("Location"))

	rec = p.do(t, http.MethodGet, "/receptionist", nil)
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
}

func TestDoctorListHidesUnavailable(t *testing.T) {
	p := newPortal(t)
	p.loginAs(t, "recepcionista@vitalcare.com")

	rec := p.do(t, http.MethodGet, "/doctors", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var doctors []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doctors))
	require.Len(t, doctors, 2)
	assert.Equal(t, "Dr. Pérez", doctors[0]["name"])
	assert.Equal(t, "Dr. Gómez", doctors[1]["name"])
}

func TestBookingValidationBlocksBackendCall(t *testing.T) {
	p := newPortal(t)
	p.loginAs(t, "recepcionista@vitalcare.com")

	rec := p.do(t, http.MethodPost, "/receptionist/appointments", map[string]string{
		"doctorId":     "1",
		"patientName":  "Carlos Mendoza",
		"patientPhone": "+521234567890",
		"date":         time.Now().AddDate(0, 0, -1).Format("2006-01-02"),
		"time":         "09:00",
		"reason":       "Checkup",
	})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())

	var resp struct {
		Errors map[string]string `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.Errors, "date")
	assert.Equal(t, 0, p.backend.createCalls)
}

func TestBookingRejectsUnavailableDoctor(t *testing.T) {
	p := newPortal(t)
	p.loginAs(t, "recepcionista@vitalcare.com")

	rec := p.do(t, http.MethodPost, "/receptionist/appointments", map[string]string{
		"doctorId":     "3",
		"patientName":  "Carlos Mendoza",
		"patientPhone": "+521234567890",
		"date":         time.Now().AddDate(0, 0, 7).Format("2006-01-02"),
		"time":         "09:00",
		"reason":       "Checkup",
	})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var resp struct {
		Errors map[string]string `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.Errors, "doctorId")
	assert.Equal(t, 0, p.backend.createCalls)
}

func TestBookingCreatesPendingAppointment(t *testing.T) {
	p := newPortal(t)
	p.loginAs(t, "recepcionista@vitalcare.com")

	date := time.Now().AddDate(0, 0, 7).Format("2006-01-02")
	rec := p.do(t, http.MethodPost, "/receptionist/appointments", map[string]string{
		"doctorId":     "1",
		"patientName":  "Carlos Mendoza",
		"patientPhone": "+521234567890",
		"date":         date,
		"time":         "09:00",
		"reason":       "Checkup",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.Equal(t, 1, p.backend.createCalls)

	created, ok := p.backend.find("1")
	require.True(t, ok)
	assert.Equal(t, "pending", created.Status)
	assert.Equal(t, date+" 09:00:00", created.Date)

	rec = p.do(t, http.MethodGet, "/receptionist/appointments", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Carlos Mendoza")
}

func TestConfirmThenDeleteAppointment(t *testing.T) {
	p := newPortal(t)
	p.backend.seed(seedPending("1", "1"), seedPending("2", "2"))
	p.loginAs(t, "recepcionista@vitalcare.com")

	rec := p.do(t, http.MethodPost, "/receptionist/appointments/1/confirm", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	confirmed, ok := p.backend.find("1")
	require.True(t, ok)
	assert.Equal(t, "confirmed", confirmed.Status)

	rec = p.do(t, http.MethodDelete, "/receptionist/appointments/1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = p.do(t, http.MethodGet, "/receptionist/appointments", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), `"id":"1"`)
	assert.Contains(t, rec.Body.String(), `"id":"2"`)
}

func TestConfirmNonPendingConflicts(t *testing.T) {
	p := newPortal(t)
	seeded := seedPending("1", "1")
	seeded.Status = "cancelled"
	p.backend.seed(seeded)
	p.loginAs(t, "recepcionista@vitalcare.com")

	rec := p.do(t, http.MethodPost, "/receptionist/appointments/1/confirm", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, 0, p.backend.updateCalls)
}

func TestConfirmUnknownAppointment(t *testing.T) {
	p := newPortal(t)
	p.loginAs(t, "recepcionista@vitalcare.com")

	rec := p.do(t, http.MethodPost, "/receptionist/appointments/404/confirm", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAppointmentStatusFilter(t *testing.T) {
	p := newPortal(t)
	confirmed := seedPending("2", "1")
	confirmed.Status = "confirmed"
	p.backend.seed(seedPending("1", "1"), confirmed)
	p.loginAs(t, "recepcionista@vitalcare.com")

	rec := p.do(t, http.MethodGet, "/receptionist/appointments?status=pending", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"id":"1"`)
	assert.NotContains(t, rec.Body.String(), `"id":"2"`)

	rec = p.do(t, http.MethodGet, "/receptionist/appointments?status=bogus", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDoctorDashboardFiltersServerSide(t *testing.T) {
	p := newPortal(t)
	p.backend.seed(seedPending("1", "1"), seedPending("2", "2"))
	p.loginAs(t, "dr.gomez@vitalcare.com")

	rec := p.do(t, http.MethodGet, "/doctor", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// The scoping happens in the request, not by trimming a full list.
	require.NotEmpty(t, p.backend.listQueries)
	for _, q := range p.backend.listQueries {
		assert.Contains(t, q, "doctor_id=2")
	}
	assert.Contains(t, rec.Body.String(), `"id":"2"`)
	assert.NotContains(t, rec.Body.String(), `"id":"1"`)
}

func TestDoctorCannotTouchOtherDoctorsAppointments(t *testing.T) {
	p := newPortal(t)
	p.backend.seed(seedPending("1", "1"), seedPending("2", "2"))
	p.loginAs(t, "dr.gomez@vitalcare.com")

	rec := p.do(t, http.MethodPost, "/doctor/appointments/1/confirm", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	appt, ok := p.backend.find("1")
	require.True(t, ok)
	assert.Equal(t, "pending", appt.Status)

	rec = p.do(t, http.MethodPost, "/doctor/appointments/2/confirm", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	appt, ok = p.backend.find("2")
	require.True(t, ok)
	assert.Equal(t, "confirmed", appt.Status)
}

func TestDoctorSavesNote(t *testing.T) {
	p := newPortal(t)
	p.backend.seed(seedPending("2", "2"))
	p.loginAs(t, "dr.gomez@vitalcare.com")

	rec := p.do(t, http.MethodPut, "/doctor/appointments/2/note", map[string]string{
		"note": "Follow up in two weeks",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	appt, ok := p.backend.find("2")
	require.True(t, ok)
	assert.Equal(t, "Follow up in two weeks", appt.Note)
	assert.Equal(t, "pending", appt.Status)
}

func TestNotificationsLifecycle(t *testing.T) {
	p := newPortal(t)
	p.loginAs(t, "recepcionista@vitalcare.com")
	p.notify.Success("Appointment booked")

	rec := p.do(t, http.MethodGet, "/notifications", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	id, _ := list[0]["id"].(string)
	require.NotEmpty(t, id)

	rec = p.do(t, http.MethodPost, "/notifications/"+id+"/read", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = p.do(t, http.MethodGet, "/notifications", nil)
	assert.True(t, strings.Contains(rec.Body.String(), `"read":true`))

	rec = p.do(t, http.MethodDelete, "/notifications/"+id, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = p.do(t, http.MethodGet, "/notifications", nil)
	assert.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))
}

func TestDashboardSurvivesBackendOutage(t *testing.T) {
	p := newPortal(t)
	p.loginAs(t, "recepcionista@vitalcare.com")
	p.server.Close()

	rec := p.do(t, http.MethodGet, "/receptionist", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var summary struct {
		TodayCount int `json:"today_count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, 0, summary.TodayCount)

	notes := p.notify.List()
	require.NotEmpty(t, notes)
	assert.Contains(t, notes[0].Message, "Could not fetch appointments")
}
