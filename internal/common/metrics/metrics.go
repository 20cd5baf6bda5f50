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

	ScoringRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "onboarding_scoring_runs_total",
			Help: "Completed scoring runs by recommendation",
		},
		[]string{"recommendation"},
	)

	ScoringPercentage = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "onboarding_scoring_percentage",
			Help:    "Distribution of application score percentages",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		},
	)

	StatusTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "onboarding_status_transitions_total",
			Help: "Application status changes by origin",
		},
		[]string{"from", "to", "source"},
	)

	NotificationsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "onboarding_notifications_total",
			Help: "Decision notifications by channel and outcome",
		},
		[]string{"channel", "status"},
	)
)

// RecordTransition counts one status change. An empty from is a new application.
func RecordTransition(from, to, source string) {
	if from == "" {
		from = "none"
	}
	StatusTransitions.WithLabelValues(from, to, source).Inc()
}
