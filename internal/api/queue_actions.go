package api

import (
	"context"

	"reelsmith/internal/queue"
)

// QueueActionService captures queue operations needed by per-item retry/remove workflows.
type QueueActionService interface {
	Describe(ctx context.Context, id int64) (*QueueItem, error)
	Retry(ctx context.Context, ids []int64) (int64, error)
	Remove(ctx context.Context, id int64) (bool, error)
}

type RetryItemOutcome string

const (
	RetryItemUpdated   RetryItemOutcome = "retried"
	RetryItemNotFound  RetryItemOutcome = "not_found"
	RetryItemNotFailed RetryItemOutcome = "not_failed"
)

type RetryItemResult struct {
	ID        int64            `json:"id"`
	Outcome   RetryItemOutcome `json:"outcome"`
	NewStatus string           `json:"new_status,omitempty"`
}

type RetryItemsResult struct {
	UpdatedCount int64             `json:"updatedCount"`
	Items        []RetryItemResult `json:"items"`
}

type RemoveItemOutcome string

const (
	RemoveItemRemoved    RemoveItemOutcome = "removed"
	RemoveItemNotFound   RemoveItemOutcome = "not_found"
	RemoveItemProcessing RemoveItemOutcome = "processing"
)

type RemoveItemResult struct {
	ID          int64             `json:"id"`
	Outcome     RemoveItemOutcome `json:"outcome"`
	PriorStatus string            `json:"prior_status,omitempty"`
}

type RemoveItemsResult struct {
	RemovedCount int64              `json:"removedCount"`
	Items        []RemoveItemResult `json:"items"`
}

// RetryFailedItemsByID validates IDs and retries only failed items.
func RetryFailedItemsByID(ctx context.Context, service QueueActionService, ids []int64) (RetryItemsResult, error) {
	result := RetryItemsResult{Items: make([]RetryItemResult, 0, len(ids))}
	for _, id := range ids {
		one, err := retryOne(ctx, service, id)
		if err != nil {
			return RetryItemsResult{}, err
		}
		if one.Outcome == RetryItemUpdated {
			result.UpdatedCount++
		}
		result.Items = append(result.Items, one)
	}
	return result, nil
}

func retryOne(ctx context.Context, service QueueActionService, id int64) (RetryItemResult, error) {
	item, err := service.Describe(ctx, id)
	if err != nil {
		return RetryItemResult{}, err
	}
	if item == nil {
		return RetryItemResult{ID: id, Outcome: RetryItemNotFound}, nil
	}
	if status, ok := queue.ParseStatus(item.Status); !ok || status != queue.StatusFailed {
		return RetryItemResult{ID: id, Outcome: RetryItemNotFailed}, nil
	}
	updated, err := service.Retry(ctx, []int64{id})
	if err != nil {
		return RetryItemResult{}, err
	}
	if updated == 0 {
		// Raced with another mutation; the item is no longer failed.
		return RetryItemResult{ID: id, Outcome: RetryItemNotFailed}, nil
	}
	return RetryItemResult{ID: id, Outcome: RetryItemUpdated}, nil
}

// RemoveItemsByID validates IDs and removes items unless they are mid-stage.
func RemoveItemsByID(ctx context.Context, service QueueActionService, ids []int64) (RemoveItemsResult, error) {
	result := RemoveItemsResult{Items: make([]RemoveItemResult, 0, len(ids))}
	for _, id := range ids {
		one, err := removeOne(ctx, service, id)
		if err != nil {
			return RemoveItemsResult{}, err
		}
		if one.Outcome == RemoveItemRemoved {
			result.RemovedCount++
		}
		result.Items = append(result.Items, one)
	}
	return result, nil
}

func removeOne(ctx context.Context, service QueueActionService, id int64) (RemoveItemResult, error) {
	item, err := service.Describe(ctx, id)
	if err != nil {
		return RemoveItemResult{}, err
	}
	if item == nil {
		return RemoveItemResult{ID: id, Outcome: RemoveItemNotFound}, nil
	}
	status := item.Status
	if parsed, ok := queue.ParseStatus(status); ok && queue.IsProcessingStatus(parsed) {
		return RemoveItemResult{ID: id, Outcome: RemoveItemProcessing, PriorStatus: status}, nil
	}
	removed, err := service.Remove(ctx, id)
	if err != nil {
		return RemoveItemResult{}, err
	}
	if !removed {
		return RemoveItemResult{ID: id, Outcome: RemoveItemNotFound, PriorStatus: status}, nil
	}
	return RemoveItemResult{ID: id, Outcome: RemoveItemRemoved, PriorStatus: status}, nil
}
