package web

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/vitalcare/clinic-portal/internal/appointments"
	"github.com/vitalcare/clinic-portal/internal/notifications"
	"github.com/vitalcare/clinic-portal/internal/observability/metrics"
	"github.com/vitalcare/clinic-portal/internal/scheduling"
	"github.com/vitalcare/clinic-portal/internal/session"
	"github.com/vitalcare/clinic-portal/pkg/logging"
)

// DoctorLister is the slice of the clinic API client the web layer needs
// directly.
type DoctorLister interface {
	ListDoctors(ctx context.Context) ([]scheduling.Doctor, error)
}

// Config holds router configuration
type Config struct {
	Logger        *logging.Logger
	Session       *session.Store
	Repo          *appointments.Repository
	Notifications *notifications.Queue
	Doctors       DoctorLister
	Metrics       *metrics.PortalMetrics
	Gatherer      prometheus.Gatherer

	MetricsHandler http.Handler
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	if cfg.Logger != nil {
		r.Use(requestLogger(cfg.Logger))
	}
	if cfg.Metrics != nil {
		r.Use(requestMetrics(cfg.Metrics))
	}

	h := &handlers{
		logger:   cfg.Logger,
		session:  cfg.Session,
		repo:     cfg.Repo,
		notify:   cfg.Notifications,
		doctors:  cfg.Doctors,
		gatherer: cfg.Gatherer,
	}
	if h.logger == nil {
		h.logger = logging.Default()
	}

	// Public endpoints
	r.Group(func(public chi.Router) {
		public.Get("/healthz", h.health)
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
		public.Get("/login", h.loginInfo)
		public.Post("/login", h.login)
		public.Post("/logout", h.logout)
	})

	// Any authenticated role
	r.Group(func(authed chi.Router) {
		authed.Use(requireAuth(cfg.Session))
		authed.Get("/", h.roleRedirect)
		authed.Get("/doctors", h.listDoctors)
		authed.Get("/notifications", h.listNotifications)
		authed.Post("/notifications/{id}/read", h.markNotificationRead)
		authed.Delete("/notifications/{id}", h.dismissNotification)
	})

	// Receptionist surface
	r.Route("/receptionist", func(rec chi.Router) {
		rec.Use(requireAuth(cfg.Session))
		rec.Use(requireRole(cfg.Session, scheduling.RoleReceptionist))
		rec.Get("/", h.receptionistDashboard)
		rec.Get("/appointments", h.listAppointments)
		rec.Post("/appointments", h.createAppointment)
		rec.Post("/appointments/{id}/confirm", h.decideAppointment(scheduling.StatusConfirmed))
		rec.Post("/appointments/{id}/cancel", h.decideAppointment(scheduling.StatusCancelled))
		rec.Delete("/appointments/{id}", h.deleteAppointment)
	})

	// Doctor surface, always scoped to the logged-in doctor
	r.Route("/doctor", func(doc chi.Router) {
		doc.Use(requireAuth(cfg.Session))
		doc.Use(requireRole(cfg.Session, scheduling.RoleDoctor))
		doc.Get("/", h.doctorDashboard)
		doc.Post("/appointments/{id}/confirm", h.decideOwnAppointment(scheduling.StatusConfirmed))
		doc.Post("/appointments/{id}/cancel", h.decideOwnAppointment(scheduling.StatusCancelled))
		doc.Put("/appointments/{id}/note", h.saveNote)
	})

	return r
}
