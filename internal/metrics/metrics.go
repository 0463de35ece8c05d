// Package metrics provides Prometheus metrics for the receiving service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CatalogResolutions counts barcode resolutions by source
	CatalogResolutions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "receiving",
			Subsystem: "catalog",
			Name:      "resolutions_total",
			Help:      "Barcode resolutions by source (database, external, manual)",
		},
		[]string{"source"},
	)

	// LookupCache counts external lookup cache hits and misses
	LookupCache = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "receiving",
			Subsystem: "lookup",
			Name:      "cache_total",
			Help:      "External product lookup cache results",
		},
		[]string{"result"},
	)

	// Matches counts prices attached to scanned items by confidence tier
	Matches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "receiving",
			Subsystem: "reconcile",
			Name:      "matches_total",
			Help:      "Scanned items priced by confidence tier",
		},
		[]string{"confidence"},
	)

	// PhaseErrors counts degraded pipeline phases
	PhaseErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "receiving",
			Subsystem: "reconcile",
			Name:      "phase_errors_total",
			Help:      "Pipeline phases that failed and were skipped",
		},
		[]string{"phase"},
	)

	// VarianceFlagged counts reconciliations whose variance exceeded the threshold
	VarianceFlagged = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "receiving",
			Subsystem: "reconcile",
			Name:      "variance_flagged_total",
			Help:      "Reconciliations flagged for variance review",
		},
	)

	// OCRLines tracks how many candidate lines one receipt produced
	OCRLines = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "receiving",
			Subsystem: "receipt",
			Name:      "ocr_lines",
			Help:      "Candidate line items extracted per receipt",
			Buckets:   []float64{0, 1, 2, 5, 10, 20, 40, 80},
		},
	)

	// OCRDuration tracks recognizer latency
	OCRDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "receiving",
			Subsystem: "receipt",
			Name:      "ocr_duration_seconds",
			Help:      "Duration of OCR recognition in seconds",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20},
		},
	)

	// Submissions counts ledger submissions by outcome
	Submissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "receiving",
			Subsystem: "ledger",
			Name:      "submissions_total",
			Help:      "Receiving session submissions by outcome",
		},
		[]string{"status"},
	)

	// ActiveSessions tracks open receiving sessions
	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "receiving",
			Subsystem: "session",
			Name:      "active",
			Help:      "Receiving sessions currently open",
		},
	)
)
