// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)
)

// Plant resolution
var (
	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "plant_cache_lookups_total",
			Help: "Plant cache lookups by result",
		},
		[]string{"result"}, // hit, miss
	)

	PlantResolutions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "plant_resolutions_total",
			Help: "Plant resolutions by tier and outcome",
		},
		[]string{"tier", "outcome"}, // tier: cache, store, generated
	)

	StoreErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "plant_store_errors_total",
			Help: "Plant store operations that failed",
		},
		[]string{"operation"},
	)
)

// Generative service
var (
	GenerativeCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "genai_calls_total",
			Help: "Generative completion calls by purpose and outcome",
		},
		[]string{"purpose", "outcome"}, // outcome: ok, timeout, error, breaker_open
	)

	GenerativeLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "genai_call_duration_seconds",
			Help:    "Generative completion latency",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 15, 20, 30, 60},
		},
		[]string{"purpose"},
	)

	Extractions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "genai_extractions_total",
			Help: "Structured extraction results from generative output",
		},
		[]string{"purpose", "result"}, // direct, repaired, failed
	)
)

// Plan assembly
var (
	PlanStages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "garden_plan_stages_total",
			Help: "Garden plan state machine transitions",
		},
		[]string{"stage"},
	)

	PlanSections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "garden_plan_sections_total",
			Help: "Garden plan sections by content source",
		},
		[]string{"section", "source"},
	)

	PlanDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "garden_plan_duration_seconds",
			Help:    "Time to assemble a garden plan",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
		},
	)
)
