package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iklein99/swing-trading-agent-sub001/pkg/logger"
)

type countingJob struct {
	name     string
	schedule string
	runs     atomic.Int32
	err      error
}

func (j *countingJob) Name() string     { return j.name }
func (j *countingJob) Schedule() string { return j.schedule }
func (j *countingJob) Run(ctx context.Context) error {
	j.runs.Add(1)
	return j.err
}

func TestAddJob_RejectsDuplicates(t *testing.T) {
	s := New(logger.Nop())

	job := &countingJob{name: "cycle", schedule: "0 0 * * * *"}
	require.NoError(t, s.AddJob(job))

	err := s.AddJob(&countingJob{name: "cycle", schedule: "0 30 * * * *"})
	assert.Error(t, err)
}

func TestAddJob_RejectsBadCronExpression(t *testing.T) {
	s := New(logger.Nop())

	err := s.AddJob(&countingJob{name: "bad", schedule: "not a schedule"})
	assert.Error(t, err)
}

func TestRunJob_ExecutesImmediatelyAndRecordsHistory(t *testing.T) {
	s := New(logger.Nop())
	s.SetRetryPolicy(0, 0)

	job := &countingJob{name: "cycle", schedule: "0 0 * * * *"}
	require.NoError(t, s.AddJob(job))

	require.NoError(t, s.RunJob("cycle"))
	require.Eventually(t, func() bool {
		return job.runs.Load() == 1
	}, time.Second, 5*time.Millisecond)

	require.Eventually(t, func() bool {
		history, err := s.GetJobHistory("cycle")
		return err == nil && len(history.Results) == 1 && history.Results[0].Success
	}, time.Second, 5*time.Millisecond)
}

func TestRunJob_RetriesOnFailure(t *testing.T) {
	s := New(logger.Nop())
	s.SetRetryPolicy(2, time.Millisecond)

	job := &countingJob{name: "flaky", schedule: "0 0 * * * *", err: errors.New("boom")}
	require.NoError(t, s.AddJob(job))

	require.NoError(t, s.RunJob("flaky"))
	require.Eventually(t, func() bool {
		return job.runs.Load() == 3 // initial attempt + 2 retries
	}, time.Second, 5*time.Millisecond)

	require.Eventually(t, func() bool {
		stats := s.GetJobStats()["flaky"]
		return stats.FailureCount == 1 && stats.LastFailure != nil
	}, time.Second, 5*time.Millisecond)
}

func TestRunJob_UnknownJob(t *testing.T) {
	s := New(logger.Nop())
	assert.Error(t, s.RunJob("missing"))
}

func TestJobHistory_Truncation(t *testing.T) {
	h := &JobHistory{}
	for i := 0; i < 150; i++ {
		h.AddResult(JobResult{JobName: "cycle", Success: true})
	}
	assert.Len(t, h.Results, 100)
	assert.Equal(t, 1.0, h.GetSuccessRate())
}
