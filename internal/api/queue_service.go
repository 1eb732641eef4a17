package api

import (
	"context"

	"reelsmith/internal/queue"
)

// QueueReader is the slice of the queue store the read-only views need.
type QueueReader interface {
	List(ctx context.Context, statuses ...queue.Status) ([]*queue.Item, error)
	Stats(ctx context.Context) (map[queue.Status]int, error)
	GetByID(ctx context.Context, id int64) (*queue.Item, error)
}

// QueueService answers queue queries with wire DTOs instead of store
// models, so the IPC server and the CLI's offline path share one shape.
// A nil service is usable and reports empty results everywhere.
type QueueService struct {
	store QueueReader
}

// NewQueueService wraps a reader; a nil reader yields a nil service.
func NewQueueService(store QueueReader) *QueueService {
	if store == nil {
		return nil
	}
	return &QueueService{store: store}
}

// reader is nil-safe: it returns the backing store or nil when the
// service itself was never constructed.
func (q *QueueService) reader() QueueReader {
	if q == nil {
		return nil
	}
	return q.store
}

// List returns queue items as DTOs, optionally filtered by status.
func (q *QueueService) List(ctx context.Context, statuses ...queue.Status) ([]QueueItem, error) {
	store := q.reader()
	if store == nil {
		return nil, nil
	}
	items, err := store.List(ctx, statuses...)
	if err != nil {
		return nil, err
	}
	return FromQueueItems(items), nil
}

// Stats returns per-status counts keyed by status string.
func (q *QueueService) Stats(ctx context.Context) (map[string]int, error) {
	store := q.reader()
	if store == nil {
		return nil, nil
	}
	counts, err := store.Stats(ctx)
	if err != nil {
		return nil, err
	}
	return MergeQueueStats(counts), nil
}

// Describe fetches one item as a DTO; a missing item returns nil, nil.
func (q *QueueService) Describe(ctx context.Context, id int64) (*QueueItem, error) {
	store := q.reader()
	if store == nil {
		return nil, nil
	}
	item, err := store.GetByID(ctx, id)
	if err != nil || item == nil {
		return nil, err
	}
	dto := FromQueueItem(item)
	return &dto, nil
}
