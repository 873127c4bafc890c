package scheduler

import (
	"context"
	"time"
)

// Job is a unit of scheduled work.
type Job interface {
	// Name returns the job name, unique within a scheduler.
	Name() string

	// Run executes the job.
	Run(ctx context.Context) error

	// Schedule returns the cron expression, six fields with seconds.
	// Example: "0 0 * * * *" runs at the top of every hour.
	Schedule() string
}

// JobResult records one job execution.
type JobResult struct {
	JobName   string        `json:"job_name"`
	StartTime time.Time     `json:"start_time"`
	EndTime   time.Time     `json:"end_time"`
	Duration  time.Duration `json:"duration"`
	Success   bool          `json:"success"`
	Skipped   bool          `json:"skipped,omitempty"`
	Error     string        `json:"error,omitempty"`
}

// JobHistory keeps the recent execution records for one job.
type JobHistory struct {
	Results []JobResult
}

// AddResult appends a result, keeping the last 100.
func (h *JobHistory) AddResult(result JobResult) {
	h.Results = append(h.Results, result)
	if len(h.Results) > 100 {
		h.Results = h.Results[len(h.Results)-100:]
	}
}

// GetLatestResults returns the latest N results.
func (h *JobHistory) GetLatestResults(n int) []JobResult {
	if n > len(h.Results) {
		n = len(h.Results)
	}
	if n == 0 {
		return []JobResult{}
	}
	return h.Results[len(h.Results)-n:]
}

// GetFailedResults returns every failed result on record.
func (h *JobHistory) GetFailedResults() []JobResult {
	failed := make([]JobResult, 0)
	for _, result := range h.Results {
		if !result.Success {
			failed = append(failed, result)
		}
	}
	return failed
}

// GetSuccessRate returns the success rate over the recorded runs.
func (h *JobHistory) GetSuccessRate() float64 {
	if len(h.Results) == 0 {
		return 0.0
	}

	successCount := 0
	for _, result := range h.Results {
		if result.Success {
			successCount++
		}
	}
	return float64(successCount) / float64(len(h.Results))
}
