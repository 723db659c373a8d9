package client

import "errors"

var (
	// ErrNotQueued means the engine was unreachable or returned no job id.
	// Callers must not proceed to poll.
	ErrNotQueued = errors.New("job was not queued")

	// ErrWaitTimeout means the wait ceiling elapsed with no terminal state.
	// It is deliberately distinct from JobError so callers can tell "it
	// never finished" from "it explicitly failed".
	ErrWaitTimeout = errors.New("timed out waiting for job")

	// ErrNoArtifact means the engine reported completion without producing
	// any output artifact.
	ErrNoArtifact = errors.New("no artifact produced")
)

// JobError is an error status the engine itself reported for a job.
type JobError struct {
	JobID   string
	Message string
}

func (e *JobError) Error() string {
	if e.Message == "" {
		return "generation failed"
	}
	return e.Message
}
