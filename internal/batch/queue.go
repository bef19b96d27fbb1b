package batch

import (
	"sync"
	"time"

	"github.com/leowzz/docsmith/internal/models"
)

// Queue is the in-memory batch queue. State is session-only: it lives for
// the life of the process and is never persisted. Items are appended by
// intake and mutated only by the runner; handlers read snapshots.
type Queue struct {
	mu    sync.RWMutex
	items []*models.QueueItem
}

func NewQueue() *Queue {
	return &Queue{}
}

func (q *Queue) Add(item *models.QueueItem) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, item)
}

// Snapshot returns value copies of all items in enqueue order.
func (q *Queue) Snapshot() []models.QueueItem {
	q.mu.RLock()
	defer q.mu.RUnlock()
	out := make([]models.QueueItem, len(q.items))
	for i, item := range q.items {
		out[i] = *item
	}
	return out
}

// Stats recomputes the aggregate from the current item set.
func (q *Queue) Stats() models.BatchStats {
	return models.ComputeStats(q.Snapshot())
}

// Item returns a value copy of one item by ID.
func (q *Queue) Item(id string) (models.QueueItem, bool) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	item := q.find(id)
	if item == nil {
		return models.QueueItem{}, false
	}
	return *item, true
}

func (q *Queue) Len() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return len(q.items)
}

// Remove drops one item by ID. Removal is always an explicit user action;
// the runner never deletes items.
func (q *Queue) Remove(id string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i, item := range q.items {
		if item.ID == id {
			q.items = append(q.items[:i], q.items[i+1:]...)
			return true
		}
	}
	return false
}

func (q *Queue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = nil
}

// pendingIDs returns the IDs of all pending items in enqueue order. Items
// already completed or errored are skipped, so re-running a batch only
// processes new additions.
func (q *Queue) pendingIDs() []string {
	q.mu.RLock()
	defer q.mu.RUnlock()
	var ids []string
	for _, item := range q.items {
		if item.Status == models.StatusPending {
			ids = append(ids, item.ID)
		}
	}
	return ids
}

func (q *Queue) find(id string) *models.QueueItem {
	for _, item := range q.items {
		if item.ID == id {
			return item
		}
	}
	return nil
}

// markProcessing moves an item from pending to processing and returns a copy
// carrying the file bytes. The transition is refused from any other status,
// which keeps the lifecycle one-directional.
func (q *Queue) markProcessing(id string) (models.QueueItem, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	item := q.find(id)
	if item == nil || item.Status != models.StatusPending {
		return models.QueueItem{}, false
	}
	item.Status = models.StatusProcessing
	item.Progress = 0
	return *item, true
}

// setProgress updates progress for an item still being processed.
func (q *Queue) setProgress(id string, progress int) {
	q.mu.Lock()
	defer q.mu.Unlock()
	item := q.find(id)
	if item == nil || item.Status != models.StatusProcessing {
		return
	}
	item.Progress = progress
}

func (q *Queue) complete(id, text string, words int, confidence *float64, dur time.Duration) {
	q.mu.Lock()
	defer q.mu.Unlock()
	item := q.find(id)
	if item == nil || item.Status != models.StatusProcessing {
		return
	}
	now := time.Now()
	item.Status = models.StatusCompleted
	item.Progress = 100
	item.Text = text
	item.WordCount = words
	item.Confidence = confidence
	item.Duration = dur
	item.CompletedAt = &now
}

func (q *Queue) fail(id, message string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	item := q.find(id)
	if item == nil || item.Status != models.StatusProcessing {
		return
	}
	item.Status = models.StatusError
	item.Error = message
}
