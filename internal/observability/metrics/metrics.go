package metrics

import "github.com/prometheus/client_golang/prometheus"

// PortalMetrics exposes counters/histograms for the portal's traffic.
type PortalMetrics struct {
	httpRequests       *prometheus.CounterVec
	clinicRequests     *prometheus.CounterVec
	clinicLatency      *prometheus.HistogramVec
	notificationsTotal *prometheus.CounterVec
}

func NewPortalMetrics(reg prometheus.Registerer) *PortalMetrics {
	m := &PortalMetrics{
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "portal",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total portal HTTP requests",
		}, []string{"method", "route", "status"}),
		clinicRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "portal",
			Subsystem: "clinicapi",
			Name:      "requests_total",
			Help:      "Total clinic API round trips",
		}, []string{"operation", "outcome"}),
		clinicLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "portal",
			Subsystem: "clinicapi",
			Name:      "request_duration_seconds",
			Help:      "Latency of clinic API round trips",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation", "outcome"}),
		notificationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "portal",
			Subsystem: "notifications",
			Name:      "pushed_total",
			Help:      "Total notifications pushed, by type",
		}, []string{"type"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.httpRequests, m.clinicRequests, m.clinicLatency, m.notificationsTotal)
	return m
}

// ObserveHTTPRequest counts one served portal request.
func (m *PortalMetrics) ObserveHTTPRequest(method, route, status string) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, status).Inc()
}

// ObserveClinicRequest records one clinic API round trip.
func (m *PortalMetrics) ObserveClinicRequest(operation, outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.clinicRequests.WithLabelValues(operation, outcome).Inc()
	m.clinicLatency.WithLabelValues(operation, outcome).Observe(seconds)
}

// ObserveNotification counts one pushed notification.
func (m *PortalMetrics) ObserveNotification(kind string) {
	if m == nil {
		return
	}
	m.notificationsTotal.WithLabelValues(kind).Inc()
}
