package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	TransfersInitiated    prometheus.Counter
	TransfersReceived     prometheus.Counter
	PrescriptionsIssued   prometheus.Counter
	PrescriptionsFilled   prometheus.Counter
	QualityChecks         prometheus.Counter
	RecallsIssued         prometheus.Counter
	RecallsResolved       prometheus.Counter
	ApprovalsGranted      prometheus.Counter
	TemperatureReadings   prometheus.Counter
	TemperatureViolations prometheus.Counter
	AuditEntries          prometheus.Counter
	BatchesMinted         prometheus.Counter
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		TransfersInitiated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pharmatrace_transfers_initiated_total",
			Help: "Total custody transfers initiated",
		}),
		TransfersReceived: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pharmatrace_transfers_received_total",
			Help: "Total custody transfers confirmed by their recipient",
		}),
		PrescriptionsIssued: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pharmatrace_prescriptions_issued_total",
			Help: "Total prescriptions issued",
		}),
		PrescriptionsFilled: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pharmatrace_prescriptions_filled_total",
			Help: "Total prescriptions filled",
		}),
		QualityChecks: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pharmatrace_quality_checks_total",
			Help: "Total quality checks recorded",
		}),
		RecallsIssued: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pharmatrace_recalls_issued_total",
			Help: "Total recalls issued",
		}),
		RecallsResolved: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pharmatrace_recalls_resolved_total",
			Help: "Total recalls resolved",
		}),
		ApprovalsGranted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pharmatrace_approvals_granted_total",
			Help: "Total regulatory approvals granted",
		}),
		TemperatureReadings: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pharmatrace_temperature_readings_total",
			Help: "Total temperature readings recorded",
		}),
		TemperatureViolations: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pharmatrace_temperature_violations_total",
			Help: "Total out-of-threshold temperature readings",
		}),
		AuditEntries: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pharmatrace_audit_entries_total",
			Help: "Total audit trail entries written",
		}),
		BatchesMinted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pharmatrace_batches_minted_total",
			Help: "Total batches minted",
		}),
	}
}
