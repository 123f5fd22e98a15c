package dashboard

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitalcare/clinic-portal/internal/observability/metrics"
)

func TestSnapshotAPILatency_Empty(t *testing.T) {
	reg := prometheus.NewRegistry()
	snap := SnapshotAPILatency(reg)
	assert.Zero(t, snap.Total)
	assert.Empty(t, snap.Buckets)
}

func TestSnapshotAPILatency_AggregatesOKOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewPortalMetrics(reg)

	m.ObserveClinicRequest("ListAppointments", "ok", 0.02)
	m.ObserveClinicRequest("ListAppointments", "ok", 0.2)
	m.ObserveClinicRequest("CreateAppointment", "ok", 0.7)
	// Failures are excluded from the latency picture.
	m.ObserveClinicRequest("ListAppointments", "error", 9.0)

	snap := SnapshotAPILatency(reg)
	require.Equal(t, int64(3), snap.Total)
	assert.NotEmpty(t, snap.Buckets)
	assert.Greater(t, snap.P95Ms, snap.P90Ms-1e-9)
	assert.Less(t, snap.P95Ms, 10_000.0)

	var counted int64
	for _, b := range snap.Buckets {
		counted += b.Count
	}
	assert.Equal(t, int64(3), counted)
}

func TestSnapshotAPILatency_NilGathererUsesDefault(t *testing.T) {
	// Must not panic even with no matching family registered.
	_ = SnapshotAPILatency(nil)
}
