// Package metrics holds the Prometheus collectors for export, restore, the
// import pipeline and outbound notifications.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Export
	ExportsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_backup_exports_total",
			Help: "Total number of snapshot exports by outcome",
		},
		[]string{"outcome"}, // "success", "failure"
	)

	ExportDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ledger_backup_export_duration_seconds",
			Help:    "Time spent reading the ledger into a snapshot",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Restore
	RestoreDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ledger_restore_duration_seconds",
			Help:    "Duration of wipe-and-restore transactions",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"outcome"},
	)

	RestoredRecords = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_restore_records_restored_total",
			Help: "Records re-created by restore, per entity type",
		},
		[]string{"entity"},
	)

	SkippedRecords = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_restore_records_skipped_total",
			Help: "Dependent records dropped by restore because a reference could not be resolved",
		},
		[]string{"entity"},
	)

	// Import pipeline
	ImportRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_import_requests_total",
			Help: "Import requests seen by the intake, by outcome",
		},
		[]string{"outcome"}, // "accepted", "in_progress", "duplicate", "queue_full"
	)

	ImportJobsFinished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_import_jobs_finished_total",
			Help: "Import jobs that reached a terminal state",
		},
		[]string{"status"}, // "CONCLUIDO", "ERRO"
	)

	ImportsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ledger_imports_in_flight",
			Help: "Import jobs accepted but not yet finished",
		},
	)

	StatusRecordsSwept = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ledger_import_status_swept_total",
			Help: "Import status records removed by retention cleanup",
		},
	)

	// Notifications
	NotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_notifications_total",
			Help: "Import finish notifications by notifier and outcome",
		},
		[]string{"notifier", "outcome"}, // outcome: "sent", "failed", "rejected"
	)

	NotifierCircuitState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ledger_notifier_circuit_state",
			Help: "Notifier circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"notifier"},
	)
)

// RecordExport records one export attempt.
func RecordExport(duration time.Duration, err error) {
	ExportDuration.Observe(duration.Seconds())
	if err != nil {
		ExportsTotal.WithLabelValues("failure").Inc()
		return
	}
	ExportsTotal.WithLabelValues("success").Inc()
}

// RecordRestore records a finished restore transaction and its per-type
// counts. Counts are only added for committed restores.
func RecordRestore(duration time.Duration, restored, skipped map[string]int, err error) {
	if err != nil {
		RestoreDuration.WithLabelValues("failure").Observe(duration.Seconds())
		return
	}
	RestoreDuration.WithLabelValues("success").Observe(duration.Seconds())
	for entity, n := range restored {
		RestoredRecords.WithLabelValues(entity).Add(float64(n))
	}
	for entity, n := range skipped {
		SkippedRecords.WithLabelValues(entity).Add(float64(n))
	}
}
