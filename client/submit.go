package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/beauNate/qwen-image-generator/graphapi"
	"github.com/beauNate/qwen-image-generator/workflows"
)

// Submit serializes a compiled graph, posts it to the engine, and registers
// the bookkeeping the poller needs for progress extrapolation.  A response
// without a job id yields ErrNotQueued: callers must not proceed to poll.
func (c *Client) Submit(ctx context.Context, compiled *workflows.Compiled, req workflows.Request) (string, error) {
	// free shared compute before the engine loads its own weights; this is
	// advisory and must never fail the submission
	if c.unloader != nil {
		if err := c.unloader.Unload(ctx); err != nil {
			c.logger.Warn("could not unload auxiliary model", "error", err)
		}
	}

	if err := compiled.Graph.Validate(); err != nil {
		return "", err
	}

	prompt := graphapi.NewPrompt(c.clientid, compiled.Graph)
	data, err := json.Marshal(prompt)
	if err != nil {
		return "", err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		fmt.Sprintf("http://%s/prompt", c.serverBaseAddress), bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpclient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNotQueued, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNotQueued, err)
	}

	var result struct {
		PromptID string `json:"prompt_id"`
	}
	if err := json.Unmarshal(body, &result); err != nil || result.PromptID == "" {
		// the engine may have answered with a structured rejection instead
		perror := &PromptErrorMessage{}
		if perr := json.Unmarshal(body, perror); perr == nil && perror.Error.Message != "" {
			return "", fmt.Errorf("%w: %s", ErrNotQueued, perror.Error.Message)
		}
		c.logger.Error("engine returned no job id", "body", string(body))
		return "", ErrNotQueued
	}

	c.tracker.register(result.PromptID, &jobRecord{
		modality:   req.Modality,
		mode:       req.Mode,
		submitted:  c.now(),
		totalSteps: workflows.ExpectedSteps(req),
	})
	c.logger.Info("job queued", "job_id", result.PromptID, "modality", req.Modality, "seed", compiled.Seed)
	return result.PromptID, nil
}
