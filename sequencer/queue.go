package sequencer

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/beauNate/qwen-image-generator/client"
	"github.com/beauNate/qwen-image-generator/workflows"
)

// ItemStatus is the lifecycle of one queued request.
type ItemStatus string

const (
	StatusPending    ItemStatus = "pending"
	StatusProcessing ItemStatus = "processing"
	StatusDone       ItemStatus = "done"
	StatusError      ItemStatus = "error"
)

var (
	ErrItemNotFound    = errors.New("queue item not found")
	ErrItemProcessing  = errors.New("cannot remove an item that is processing")
	ErrAlreadyDraining = errors.New("queue is already draining")
)

// Item is one user-queued request awaiting sequential execution.
type Item struct {
	ID      string
	Request workflows.Request
	Status  ItemStatus

	Artifact client.Artifact
	Seed     int64
	Error    string
}

// Summary is the result of one full drain.
type Summary struct {
	Completed int
	Failed    int
}

// Queue holds heterogeneous requests enqueued ahead of time and drains
// them strictly in FIFO order, one at a time.  A failed item does not halt
// the drain.
type Queue struct {
	mu       sync.Mutex
	items    []*Item
	draining bool
	stop     bool

	// doneRetention is how long completed items linger for display after a
	// drain before being purged; failed items stay until Clear
	doneRetention time.Duration
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	return &Queue{doneRetention: 3 * time.Second}
}

// SetDoneRetention overrides how long completed items survive after a drain.
func (q *Queue) SetDoneRetention(d time.Duration) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.doneRetention = d
}

// Add enqueues a request and returns the new item's id.
func (q *Queue) Add(req workflows.Request) string {
	q.mu.Lock()
	defer q.mu.Unlock()
	item := &Item{ID: uuid.New().String(), Request: req, Status: StatusPending}
	q.items = append(q.items, item)
	return item.ID
}

// Remove deletes a still-pending item.  Removing the item currently being
// processed is disallowed.
func (q *Queue) Remove(id string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i, item := range q.items {
		if item.ID != id {
			continue
		}
		if item.Status == StatusProcessing {
			return ErrItemProcessing
		}
		q.items = append(q.items[:i], q.items[i+1:]...)
		return nil
	}
	return ErrItemNotFound
}

// Clear empties the queue, including retained failures.  A drain in
// progress finishes its current item and then stops.
func (q *Queue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = nil
	q.stop = q.draining
}

// Items returns a snapshot of the queue contents.
func (q *Queue) Items() []Item {
	q.mu.Lock()
	defer q.mu.Unlock()
	snapshot := make([]Item, len(q.items))
	for i, item := range q.items {
		snapshot[i] = *item
	}
	return snapshot
}

// Stop halts the drain after the current item completes.  Pending items
// keep their status and can be drained again later.
func (q *Queue) Stop() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.stop = true
}

// next claims the first pending item, marking it processing.
func (q *Queue) next() *Item {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.stop {
		return nil
	}
	for _, item := range q.items {
		if item.Status == StatusPending {
			item.Status = StatusProcessing
			return item
		}
	}
	return nil
}

func (q *Queue) finish(item *Item, artifact client.Artifact, seed int64, err error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if err != nil {
		item.Status = StatusError
		item.Error = err.Error()
		return
	}
	item.Status = StatusDone
	item.Artifact = artifact
	item.Seed = seed
}

// Drain processes pending items in FIFO order until the queue is empty,
// Stop is called, or ctx is cancelled.  Failures are recorded on their
// item and the drain proceeds to the next pending one.  Completed items
// are purged after the retention window; failures stay for inspection.
func (q *Queue) Drain(ctx context.Context, eng Engine) (Summary, error) {
	q.mu.Lock()
	if q.draining {
		q.mu.Unlock()
		return Summary{}, ErrAlreadyDraining
	}
	q.draining = true
	q.stop = false
	q.mu.Unlock()

	defer func() {
		q.mu.Lock()
		retention := q.doneRetention
		q.draining = false
		q.mu.Unlock()
		time.AfterFunc(retention, q.purgeCompleted)
	}()

	var summary Summary
	for {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		item := q.next()
		if item == nil {
			return summary, nil
		}

		jobID, seed, err := eng.Submit(ctx, item.Request)
		if err == nil {
			var artifact client.Artifact
			artifact, err = eng.Wait(ctx, jobID)
			q.finish(item, artifact, seed, err)
		} else {
			q.finish(item, client.Artifact{}, 0, err)
		}

		if err != nil {
			summary.Failed++
		} else {
			summary.Completed++
		}
	}
}

// purgeCompleted drops done items, keeping pending and failed ones.
func (q *Queue) purgeCompleted() {
	q.mu.Lock()
	defer q.mu.Unlock()
	kept := q.items[:0]
	for _, item := range q.items {
		if item.Status != StatusDone {
			kept = append(kept, item)
		}
	}
	q.items = kept
}
