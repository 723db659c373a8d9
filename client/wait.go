package client

import (
	"context"
	"fmt"
	"time"

	"github.com/beauNate/qwen-image-generator/workflows"
)

// Wait blocks until the job reaches a terminal state, polling on the
// client's interval up to the modality's ceiling.  Transient query
// failures are retried silently until the ceiling elapses.  The result is
// the extracted artifact, a *JobError when the engine reported a failure,
// or ErrWaitTimeout when the ceiling is reached first.
func (c *Client) Wait(ctx context.Context, jobID string) (*Artifact, error) {
	ceiling := waitCeilings[workflows.Image]
	if rec, ok := c.tracker.lookup(jobID); ok {
		if d, found := waitCeilings[rec.modality]; found {
			ceiling = d
		}
	}
	return c.waitWithCeiling(ctx, jobID, ceiling)
}

func (c *Client) waitWithCeiling(ctx context.Context, jobID string, ceiling time.Duration) (*Artifact, error) {
	deadline := c.now().Add(ceiling)

	for c.now().Before(deadline) {
		if err := c.sleep(ctx, c.pollInterval); err != nil {
			return nil, err
		}

		status, err := c.Progress(jobID)
		if err != nil {
			// network hiccups and transient 5xx are not surfaced until
			// the ceiling is reached
			c.logger.Debug("poll failed, retrying", "job_id", jobID, "error", err)
			continue
		}

		switch status.State {
		case StateDone:
			c.tracker.forget(jobID)
			if status.Artifact == nil {
				return nil, &JobError{JobID: jobID, Message: ErrNoArtifact.Error()}
			}
			return status.Artifact, nil
		case StateError:
			c.tracker.forget(jobID)
			return nil, &JobError{JobID: jobID, Message: status.Message}
		}
	}

	c.tracker.forget(jobID)
	return nil, fmt.Errorf("%w after %s", ErrWaitTimeout, ceiling)
}
