package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RowsTotal tracks statement rows processed by the import pipeline
	RowsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "solde_import_rows_total",
			Help: "Statement rows processed by the import pipeline",
		},
		[]string{"outcome"},
	)

	// DuplicatesTotal tracks candidates marked duplicate during resolution
	DuplicatesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "solde_import_duplicates_total",
			Help: "Candidates marked duplicate during resolution",
		},
	)

	// CommitsTotal tracks per-candidate commit outcomes
	CommitsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "solde_import_commits_total",
			Help: "Per-candidate commit outcomes",
		},
		[]string{"result"},
	)

	// StageDuration tracks import pipeline stage duration
	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "solde_import_stage_duration_seconds",
			Help:    "Import pipeline stage duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"stage"},
	)
)

// Label values for RowsTotal and CommitsTotal.
const (
	OutcomeNormalized = "normalized"
	OutcomeFailed     = "failed"
	ResultCommitted   = "committed"
	ResultFailed      = "failed"
)

// ObserveStage records the duration of one pipeline stage.
func ObserveStage(stage string, start time.Time) {
	StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}
