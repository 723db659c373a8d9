package client

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/beauNate/qwen-image-generator/workflows"
)

func compileTestRequest(t *testing.T) (*workflows.Compiled, workflows.Request) {
	t.Helper()
	req := workflows.NewRequest(workflows.Image, "a lighthouse in fog")
	compiled, err := workflows.Build(req)
	require.NoError(t, err)
	return compiled, req
}

func TestSubmitRegistersBookkeeping(t *testing.T) {
	engine := &fakeEngine{promptResponse: `{"prompt_id": "abc-123", "number": 1}`}
	c, _ := newTestClient(t, engine)

	compiled, req := compileTestRequest(t)
	jobID, err := c.Submit(context.Background(), compiled, req)
	require.NoError(t, err)
	require.Equal(t, "abc-123", jobID)

	rec, ok := c.tracker.lookup("abc-123")
	require.True(t, ok, "submission must register poller bookkeeping")
	require.Equal(t, workflows.Image, rec.modality)
	require.Equal(t, workflows.ExpectedSteps(req), rec.totalSteps)
}

func TestSubmitWithoutIDIsNotQueued(t *testing.T) {
	engine := &fakeEngine{promptResponse: `{}`}
	c, _ := newTestClient(t, engine)

	compiled, req := compileTestRequest(t)
	_, err := c.Submit(context.Background(), compiled, req)
	require.ErrorIs(t, err, ErrNotQueued)
}

func TestSubmitSurfacesEngineRejection(t *testing.T) {
	engine := &fakeEngine{
		promptResponse: `{"error": {"type": "prompt_no_outputs", "message": "Prompt has no outputs"}, "node_errors": []}`,
	}
	c, _ := newTestClient(t, engine)

	compiled, req := compileTestRequest(t)
	_, err := c.Submit(context.Background(), compiled, req)
	require.ErrorIs(t, err, ErrNotQueued)
	require.Contains(t, err.Error(), "Prompt has no outputs")
}

func TestSubmitUnreachableEngine(t *testing.T) {
	c := NewClient("127.0.0.1:1") // nothing listens here
	compiled, req := compileTestRequest(t)

	_, err := c.Submit(context.Background(), compiled, req)
	require.ErrorIs(t, err, ErrNotQueued)
}

// unload failures are advisory: logged, swallowed, never a submission error
type failingUnloader struct{ called bool }

func (f *failingUnloader) Unload(ctx context.Context) error {
	f.called = true
	return context.DeadlineExceeded
}

func TestUnloadFailureDoesNotFailSubmission(t *testing.T) {
	engine := &fakeEngine{promptResponse: `{"prompt_id": "abc-123"}`}
	c, _ := newTestClient(t, engine)

	unloader := &failingUnloader{}
	c.SetUnloader(unloader)

	compiled, req := compileTestRequest(t)
	jobID, err := c.Submit(context.Background(), compiled, req)
	require.NoError(t, err)
	require.Equal(t, "abc-123", jobID)
	require.True(t, unloader.called)
}
