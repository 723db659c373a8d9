package client

import (
	"sync"
	"time"

	"github.com/beauNate/qwen-image-generator/workflows"
)

// jobRecord is the local bookkeeping registered at submission time and
// consumed by the poller for progress extrapolation.
type jobRecord struct {
	modality   workflows.Modality
	mode       workflows.Mode
	submitted  time.Time
	totalSteps int

	// generating latches once entered so the derived state never regresses
	// to loading
	generating bool
	// liveStep is the last step reported over the websocket, 0 when the
	// listener is not connected
	liveStep  int
	cancelled bool
}

type tracker struct {
	mu   sync.Mutex
	jobs map[string]*jobRecord
	// last job id submitted, the target of a global interrupt
	current string
}

func newTracker() *tracker {
	return &tracker{jobs: make(map[string]*jobRecord)}
}

func (t *tracker) register(id string, rec *jobRecord) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.jobs[id] = rec
	t.current = id
}

func (t *tracker) lookup(id string) (*jobRecord, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	rec, ok := t.jobs[id]
	return rec, ok
}

func (t *tracker) forget(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.jobs, id)
	if t.current == id {
		t.current = ""
	}
}

func (t *tracker) markGenerating(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if rec, ok := t.jobs[id]; ok {
		rec.generating = true
	}
}

func (t *tracker) recordLiveStep(id string, step int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	rec, ok := t.jobs[id]
	if !ok {
		return
	}
	// live progress only ever moves forward
	if step > rec.liveStep {
		rec.liveStep = step
		rec.generating = true
	}
}

// cancelCurrent marks the most recently submitted job cancelled.  The
// engine's interrupt is global, so this is the only job it can affect.
func (t *tracker) cancelCurrent() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if rec, ok := t.jobs[t.current]; ok {
		rec.cancelled = true
	}
	return t.current
}

func (t *tracker) currentJob() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current
}
