package client

import (
	"context"

	"github.com/beauNate/qwen-image-generator/workflows"
)

// Generator composes the builder, the submitter and the poller into a
// single submit-and-track pipeline for one request.
type Generator struct {
	Client *Client
}

// NewGenerator wraps a client.
func NewGenerator(c *Client) *Generator {
	return &Generator{Client: c}
}

// Submit compiles and queues a request, returning the engine's job id and
// the seed that was actually wired into the graph.
func (g *Generator) Submit(ctx context.Context, req workflows.Request) (jobID string, seed int64, err error) {
	compiled, err := workflows.Build(req)
	if err != nil {
		return "", 0, err
	}
	jobID, err = g.Client.Submit(ctx, compiled, req)
	if err != nil {
		return "", 0, err
	}
	return jobID, compiled.Seed, nil
}

// Wait blocks until the job is terminal, per the client's waiting contract.
func (g *Generator) Wait(ctx context.Context, jobID string) (Artifact, error) {
	artifact, err := g.Client.Wait(ctx, jobID)
	if err != nil {
		return Artifact{}, err
	}
	return *artifact, nil
}
