package api

import "testing"

func TestSortQueueItemsNewestFirst(t *testing.T) {
	items := []QueueItem{
		{ID: 1, CreatedAt: "2026-03-14T07:00:00Z"},
		{ID: 2, CreatedAt: "2026-03-14T19:00:00Z"},
		{ID: 3, CreatedAt: "2026-03-14T19:00:00Z"},
	}

	sorted := SortQueueItemsNewestFirst(items)
	if sorted[0].ID != 3 || sorted[1].ID != 2 || sorted[2].ID != 1 {
		t.Fatalf("unexpected order: %d, %d, %d", sorted[0].ID, sorted[1].ID, sorted[2].ID)
	}
	if items[0].ID != 1 {
		t.Fatal("expected input slice to remain unsorted")
	}
}

func TestSortQueueItemsHandlesMissingTimestamps(t *testing.T) {
	items := []QueueItem{
		{ID: 1},
		{ID: 2, CreatedAt: "2026-03-14T07:00:00Z"},
	}
	sorted := SortQueueItemsNewestFirst(items)
	if sorted[0].ID != 2 {
		t.Fatalf("expected timestamped item first, got %d", sorted[0].ID)
	}
}
