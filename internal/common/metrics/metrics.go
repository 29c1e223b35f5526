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

	MatchesGenerated = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "gradmatch_matches_per_run",
			Help:    "Distinct university matches returned per engine run",
			Buckets: []float64{0, 1, 3, 6, 12, 25, 50, 100},
		},
	)

	MatchCategories = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gradmatch_match_category_total",
			Help: "Matches returned per category",
		},
		[]string{"category"},
	)

	CoverageConditions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gradmatch_coverage_condition_total",
			Help: "Engine runs that ended with a coverage condition",
		},
		[]string{"condition"},
	)

	AIScoreRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gradmatch_ai_score_requests_total",
			Help: "AI match score lookups by outcome",
		},
		[]string{"outcome"},
	)
)

func RecordJobCompleted(taskType string) {
	WorkerJobsCompleted.WithLabelValues(taskType).Inc()
}

func RecordJobFailed(taskType, errorCode string) {
	WorkerJobsFailed.WithLabelValues(taskType, errorCode).Inc()
}

// RecordMatchRun records one engine run. condition is empty when coverage was
// sufficient.
func RecordMatchRun(total int, perCategory map[string]int, condition string) {
	MatchesGenerated.Observe(float64(total))
	for category, n := range perCategory {
		MatchCategories.WithLabelValues(category).Add(float64(n))
	}
	if condition != "" {
		CoverageConditions.WithLabelValues(condition).Inc()
	}
}
