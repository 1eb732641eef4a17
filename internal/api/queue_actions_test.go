package api

import (
	"context"
	"errors"
	"testing"
)

type queueActionStub struct {
	items   map[int64]*QueueItem
	removed []int64
}

func (s *queueActionStub) Describe(_ context.Context, id int64) (*QueueItem, error) {
	if item, ok := s.items[id]; ok {
		return item, nil
	}
	return nil, nil
}

func (s *queueActionStub) Retry(_ context.Context, ids []int64) (int64, error) {
	if len(ids) != 1 {
		return 0, errors.New("expected one id")
	}
	return 1, nil
}

func (s *queueActionStub) Remove(_ context.Context, id int64) (bool, error) {
	s.removed = append(s.removed, id)
	return true, nil
}

func TestRetryFailedItemsByIDSkipsNonFailed(t *testing.T) {
	stub := &queueActionStub{
		items: map[int64]*QueueItem{
			1: {ID: 1, Status: "failed"},
			2: {ID: 2, Status: "pending"},
		},
	}

	result, err := RetryFailedItemsByID(context.Background(), stub, []int64{1, 2, 3})
	if err != nil {
		t.Fatalf("RetryFailedItemsByID: %v", err)
	}
	if result.UpdatedCount != 1 {
		t.Fatalf("UpdatedCount = %d, want 1", result.UpdatedCount)
	}
	if result.Items[0].Outcome != RetryItemUpdated {
		t.Fatalf("item 1 outcome = %s, want %s", result.Items[0].Outcome, RetryItemUpdated)
	}
	if result.Items[1].Outcome != RetryItemNotFailed {
		t.Fatalf("item 2 outcome = %s, want %s", result.Items[1].Outcome, RetryItemNotFailed)
	}
	if result.Items[2].Outcome != RetryItemNotFound {
		t.Fatalf("item 3 outcome = %s, want %s", result.Items[2].Outcome, RetryItemNotFound)
	}
}

func TestRemoveItemsByIDProtectsProcessing(t *testing.T) {
	stub := &queueActionStub{
		items: map[int64]*QueueItem{
			1: {ID: 1, Status: "synthesizing"},
			2: {ID: 2, Status: "completed"},
		},
	}

	result, err := RemoveItemsByID(context.Background(), stub, []int64{1, 2})
	if err != nil {
		t.Fatalf("RemoveItemsByID: %v", err)
	}
	if result.Items[0].Outcome != RemoveItemProcessing {
		t.Fatalf("item 1 outcome = %s, want %s", result.Items[0].Outcome, RemoveItemProcessing)
	}
	if result.Items[1].Outcome != RemoveItemRemoved {
		t.Fatalf("item 2 outcome = %s, want %s", result.Items[1].Outcome, RemoveItemRemoved)
	}
	if result.RemovedCount != 1 {
		t.Fatalf("RemovedCount = %d, want 1", result.RemovedCount)
	}
	if len(stub.removed) != 1 || stub.removed[0] != 2 {
		t.Fatalf("expected only item 2 removed, got %v", stub.removed)
	}
}
