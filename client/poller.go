package client

import (
	"time"

	"github.com/beauNate/qwen-image-generator/workflows"
)

// State is the derived lifecycle state of a submitted job.
type State string

const (
	StateQueued     State = "queued"
	StateLoading    State = "loading"
	StateGenerating State = "generating"
	StateDone       State = "done"
	StateError      State = "error"
	// StateUnknown is transient; callers should keep polling rather than
	// treat it as failure.
	StateUnknown State = "unknown"
)

// Terminal reports whether the state ends the job's lifecycle.
func (s State) Terminal() bool {
	return s == StateDone || s == StateError
}

// Status is one observation of a job reduced from the engine's raw
// queue and history responses.
type Status struct {
	State      State
	Step       int
	TotalSteps int
	Message    string
	Artifact   *Artifact
}

// timing holds the presentation heuristics for progress extrapolation.
// The engine exposes no model-load progress, so the warm-up window and
// per-step duration are modality constants, not measurements.
type timing struct {
	Warmup  time.Duration
	PerStep time.Duration
}

var timings = map[workflows.Modality]timing{
	workflows.Image:     {Warmup: 45 * time.Second, PerStep: 13 * time.Second},
	workflows.ImageEdit: {Warmup: 60 * time.Second, PerStep: 13 * time.Second},
	workflows.Video:     {Warmup: 90 * time.Second, PerStep: 20 * time.Second},
	workflows.Audio:     {Warmup: 60 * time.Second, PerStep: 5 * time.Second},
	workflows.Mesh:      {Warmup: 60 * time.Second, PerStep: 10 * time.Second},
}

// waitCeilings caps the blocking Wait per modality.  Video, audio and mesh
// jobs run much longer than still images.
var waitCeilings = map[workflows.Modality]time.Duration{
	workflows.Image:     10 * time.Minute,
	workflows.ImageEdit: 10 * time.Minute,
	workflows.Video:     30 * time.Minute,
	workflows.Audio:     20 * time.Minute,
	workflows.Mesh:      20 * time.Minute,
}

// Progress performs a single poll of the engine and reduces the raw
// responses into a Status.  The returned error is a transport failure;
// an engine-reported job failure comes back as StateError instead.
func (c *Client) Progress(jobID string) (Status, error) {
	rec, tracked := c.tracker.lookup(jobID)
	if tracked && rec.cancelled {
		return Status{State: StateError, Message: "interrupted"}, nil
	}

	queue, err := c.GetQueueState()
	if err != nil {
		return Status{}, err
	}

	for _, id := range queue.Pending {
		if id == jobID {
			return Status{State: StateQueued, Message: "waiting in queue"}, nil
		}
	}

	// history lookup failures are tolerated here; the job may simply not
	// have an entry yet
	if entry, err := c.GetHistory(jobID); err == nil && entry != nil {
		return c.reduceHistory(jobID, rec, entry), nil
	}

	for _, id := range queue.Running {
		if id == jobID {
			return c.extrapolate(jobID, rec), nil
		}
	}

	return Status{State: StateUnknown, Message: "processing"}, nil
}

// reduceHistory maps a terminal history entry to done or error.
func (c *Client) reduceHistory(jobID string, rec *jobRecord, entry *HistoryEntry) Status {
	total := 30
	if rec != nil {
		total = rec.totalSteps
	}

	if entry.Status.StatusStr == "error" {
		return Status{State: StateError, Message: entry.Status.errorMessage()}
	}

	for _, out := range entry.Outputs {
		if artifact, ok := out.first(); ok {
			return Status{
				State:      StateDone,
				Step:       total,
				TotalSteps: total,
				Artifact:   &artifact,
			}
		}
	}

	// A completed run with nothing in any output slot will never produce
	// an artifact; fail now rather than letting Wait ride to its ceiling.
	if entry.Status.Completed || entry.Status.StatusStr == "success" {
		return Status{State: StateError, Message: ErrNoArtifact.Error()}
	}
	if len(entry.Outputs) > 0 {
		return Status{State: StateError, Message: ErrNoArtifact.Error()}
	}

	return Status{State: StateUnknown, Message: "processing"}
}

// extrapolate synthesizes a loading/generating status for a running job.
// The step index is floor((elapsed - warmup) / perStep) clamped to
// [1, total-1] so the UI never shows a false 100%.  Once generating has
// been observed the state never regresses to loading.
func (c *Client) extrapolate(jobID string, rec *jobRecord) Status {
	if rec == nil {
		// a job submitted outside this client; adopt it with defaults
		rec = &jobRecord{
			modality:   workflows.Image,
			mode:       workflows.Lightning,
			submitted:  c.now(),
			totalSteps: 30,
		}
		c.tracker.register(jobID, rec)
	}

	tm := timings[rec.modality]
	elapsed := c.now().Sub(rec.submitted)

	if rec.liveStep > 0 {
		// real progress from the websocket listener beats extrapolation
		return Status{
			State:      StateGenerating,
			Step:       clampStep(rec.liveStep, rec.totalSteps),
			TotalSteps: rec.totalSteps,
		}
	}

	if elapsed < tm.Warmup && !rec.generating {
		return Status{
			State:      StateLoading,
			Step:       0,
			TotalSteps: rec.totalSteps,
			Message:    "loading models",
		}
	}

	c.tracker.markGenerating(jobID)
	step := int((elapsed - tm.Warmup) / tm.PerStep)
	return Status{
		State:      StateGenerating,
		Step:       clampStep(step, rec.totalSteps),
		TotalSteps: rec.totalSteps,
	}
}

func clampStep(step, total int) int {
	if step < 1 {
		return 1
	}
	if step > total-1 {
		return total - 1
	}
	return step
}
