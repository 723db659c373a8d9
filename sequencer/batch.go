// Package sequencer runs generation requests strictly one at a time: the
// engine expects serialized submission, so every item observes the previous
// item's terminal state before the next submit.
package sequencer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/beauNate/qwen-image-generator/client"
	"github.com/beauNate/qwen-image-generator/workflows"
)

// Engine is the submit-and-wait surface the sequencer drives.  Satisfied
// by client.Generator.
type Engine interface {
	Submit(ctx context.Context, req workflows.Request) (jobID string, seed int64, err error)
	Wait(ctx context.Context, jobID string) (client.Artifact, error)
}

// BatchItem is one completed variation of a batched request.
type BatchItem struct {
	Artifact client.Artifact
	Seed     int64
}

// RunBatch generates n variations of one request.  When the request
// carries a base seed, item i runs with seed base+i; otherwise every item
// derives its own fresh seed.  The first failure aborts the batch: the
// items collected so far are returned alongside the failure reason.
func RunBatch(ctx context.Context, eng Engine, req workflows.Request, n int) ([]BatchItem, error) {
	if n < 1 {
		n = 1
	}

	baseSeed := req.Seed
	items := make([]BatchItem, 0, n)

	for i := 0; i < n; i++ {
		item := req
		if baseSeed != nil {
			derived := *baseSeed + int64(i)
			item.Seed = &derived
		}

		jobID, seed, err := eng.Submit(ctx, item)
		if err != nil {
			return items, fmt.Errorf("batch item %d/%d: %w", i+1, n, err)
		}
		slog.Debug("batch item submitted", "index", i, "job_id", jobID, "seed", seed)

		artifact, err := eng.Wait(ctx, jobID)
		if err != nil {
			return items, fmt.Errorf("batch item %d/%d: %w", i+1, n, err)
		}
		items = append(items, BatchItem{Artifact: artifact, Seed: seed})
	}

	return items, nil
}
