package executor

import (
	"context"
	"fmt"
	"time"
)

// JobState is the lifecycle state of a job-style query.
type JobState string

const (
	JobRunning   JobState = "RUNNING"
	JobSucceeded JobState = "SUCCEEDED"
	JobFailed    JobState = "FAILED"
	JobCancelled JobState = "CANCELLED"
)

// Terminal reports whether the state is final. Polling stops immediately on
// reaching a terminal state.
func (s JobState) Terminal() bool {
	switch s {
	case JobSucceeded, JobFailed, JobCancelled:
		return true
	default:
		return false
	}
}

// JobRunner is the submit/poll/fetch/cancel protocol used by engines that
// execute queries as background jobs rather than returning results on the
// submitting call.
type JobRunner interface {
	// Submit starts a query job and returns its ID.
	Submit(ctx context.Context, sql string, params []any) (string, error)
	// Poll reports the job's current state.
	Poll(ctx context.Context, jobID string) (JobState, error)
	// Fetch retrieves results for a succeeded job. maxRows of zero fetches
	// everything the engine will return.
	Fetch(ctx context.Context, jobID string, maxRows int) (*RawRows, error)
	// Cancel requests termination of a running job.
	Cancel(ctx context.Context, jobID string) error
}

// Poll backoff: bounded-increasing delays between status checks.
const (
	pollInitialDelay = 250 * time.Millisecond
	pollMaxDelay     = 5 * time.Second
	pollMultiplier   = 2
)

// pollUntilTerminal polls the job with bounded-increasing backoff until a
// terminal state or ctx expiry. A terminal state may arrive together with the
// backend's failure detail; both are passed through.
func pollUntilTerminal(ctx context.Context, runner JobRunner, jobID string) (JobState, error) {
	delay := pollInitialDelay
	for {
		state, err := runner.Poll(ctx, jobID)
		if state.Terminal() {
			return state, err
		}
		if err != nil {
			return "", err
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return "", ctx.Err()
		case <-timer.C:
		}

		delay *= pollMultiplier
		if delay > pollMaxDelay {
			delay = pollMaxDelay
		}
	}
}

// runJob drives the full job protocol: submit, poll to a terminal state, then
// fetch. onSubmit fires as soon as the job ID is known so the timeout path
// can cancel the right job.
func runJob(ctx context.Context, runner JobRunner, sql string, params []any, maxRows int, onSubmit func(string)) (*RawRows, error) {
	jobID, err := runner.Submit(ctx, sql, params)
	if err != nil {
		return nil, fmt.Errorf("submitting job: %w", err)
	}
	if onSubmit != nil {
		onSubmit(jobID)
	}

	state, pollErr := pollUntilTerminal(ctx, runner, jobID)
	switch state {
	case JobSucceeded:
		rows, err := runner.Fetch(ctx, jobID, maxRows)
		if err != nil {
			return nil, fmt.Errorf("fetching job %s results: %w", jobID, err)
		}
		return rows, nil
	case JobCancelled:
		return nil, fmt.Errorf("job %s was cancelled", jobID)
	case JobFailed:
		if pollErr != nil {
			return nil, fmt.Errorf("job %s failed: %w", jobID, pollErr)
		}
		return nil, fmt.Errorf("job %s failed", jobID)
	default:
		return nil, fmt.Errorf("polling job %s: %w", jobID, pollErr)
	}
}
