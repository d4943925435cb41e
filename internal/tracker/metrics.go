package tracker

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/actworks/control-tower/internal/domain"
)

const metricsNamespace = "controltower"

var (
	dispatchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "tracker",
			Name:      "dispatch_total",
			Help:      "Number of actions dispatched to the incident store",
		},
		[]string{"action"},
	)

	incidentsByStatus = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "tracker",
			Name:      "incidents",
			Help:      "Number of incidents by lifecycle status",
		},
		[]string{"status"},
	)

	incidentsOverdue = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "tracker",
			Name:      "incidents_overdue",
			Help:      "Number of active incidents past their SLA deadline",
		},
	)
)

func recordDispatch(action string) {
	dispatchTotal.WithLabelValues(action).Inc()
}

// RecordStateGauges publishes per-status and overdue gauges for a snapshot.
// Statuses absent from the snapshot are reset to zero.
func RecordStateGauges(snap Snapshot, now time.Time) {
	counts := CountByStatus(snap.Incidents)
	for _, status := range []domain.IncidentStatus{
		domain.IncidentStatusNew,
		domain.IncidentStatusAcknowledged,
		domain.IncidentStatusInProgress,
		domain.IncidentStatusResolved,
		domain.IncidentStatusClosed,
	} {
		incidentsByStatus.WithLabelValues(string(status)).Set(float64(counts[status]))
	}
	incidentsOverdue.Set(float64(len(OverdueIncidents(snap.Incidents, now))))
}
