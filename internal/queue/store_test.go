package queue_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"reelsmith/internal/queue"
	"reelsmith/internal/testsupport"
)

func newTestStore(t *testing.T) *queue.Store {
	t.Helper()
	return testsupport.MustOpenStore(t, testsupport.NewConfig(t))
}

func mustJob(t *testing.T, store *queue.Store, topic, trigger string) *queue.Item {
	t.Helper()
	item, err := store.NewJob(context.Background(), topic, trigger)
	if err != nil {
		t.Fatalf("NewJob(%q): %v", topic, err)
	}
	return item
}

func mustUpdate(t *testing.T, store *queue.Store, item *queue.Item) {
	t.Helper()
	if err := store.Update(context.Background(), item); err != nil {
		t.Fatalf("Update item %d: %v", item.ID, err)
	}
}

func mustGet(t *testing.T, store *queue.Store, id int64) *queue.Item {
	t.Helper()
	item, err := store.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("GetByID(%d): %v", id, err)
	}
	if item == nil {
		t.Fatalf("GetByID(%d): item missing", id)
	}
	return item
}

// failJob flips an item to failed with a canned error message.
func failJob(t *testing.T, store *queue.Store, item *queue.Item) {
	t.Helper()
	item.Status = queue.StatusFailed
	item.ErrorMessage = "boom"
	mustUpdate(t, store, item)
}

func TestOpenAppliesMigrations(t *testing.T) {
	store := newTestStore(t)

	item := mustJob(t, store, "Ancient Rome's Strangest Jobs", queue.TriggerManual)
	if item.ID == 0 {
		t.Fatal("expected item ID to be assigned")
	}

	fetched := mustGet(t, store, item.ID)
	if fetched.Topic != "Ancient Rome's Strangest Jobs" {
		t.Fatalf("unexpected fetched item: %#v", fetched)
	}
	if fetched.Trigger != queue.TriggerManual {
		t.Fatalf("expected manual trigger, got %q", fetched.Trigger)
	}
	if fetched.Status != queue.StatusPending {
		t.Fatalf("expected pending status, got %s", fetched.Status)
	}
}

func TestNewJobRequiresTrigger(t *testing.T) {
	store := newTestStore(t)

	if _, err := store.NewJob(context.Background(), "Topic", ""); err == nil {
		t.Fatal("expected error when trigger missing")
	}
}

func TestNewJobAllowsEmptyTopicForScheduledRuns(t *testing.T) {
	store := newTestStore(t)

	item := mustJob(t, store, "", queue.TriggerScheduled)
	if item.Topic != "" {
		t.Fatalf("expected empty topic, got %q", item.Topic)
	}
}

// rollbackCase pairs an in-flight status with the status a reset or
// reclaim should leave it in.
type rollbackCase struct {
	name     string
	inFlight queue.Status
	restored queue.Status
}

func rollbackCases() []rollbackCase {
	return []rollbackCase{
		{"scripting", queue.StatusScripting, queue.StatusPending},
		{"synthesizing", queue.StatusSynthesizing, queue.StatusScripted},
		{"composing", queue.StatusComposing, queue.StatusSynthesized},
		{"publishing", queue.StatusPublishing, queue.StatusComposed},
	}
}

func TestResetStuckProcessing(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	cases := rollbackCases()
	ids := make([]int64, 0, len(cases))
	for i, tc := range cases {
		item := mustJob(t, store, fmt.Sprintf("Topic-%s-%d", tc.name, i), queue.TriggerManual)
		item.Status = tc.inFlight
		item.ProgressStage = tc.name
		mustUpdate(t, store, item)
		ids = append(ids, item.ID)
	}

	count, err := store.ResetStuckProcessing(ctx)
	if err != nil {
		t.Fatalf("ResetStuckProcessing failed: %v", err)
	}
	if int(count) != len(cases) {
		t.Fatalf("expected %d items reset, got %d", len(cases), count)
	}

	for idx, tc := range cases {
		got := mustGet(t, store, ids[idx])
		if got.Status != tc.restored {
			t.Fatalf("%s: expected status %s, got %s", tc.name, tc.restored, got.Status)
		}
		if got.LastHeartbeat != nil {
			t.Fatalf("%s: expected heartbeat cleared", tc.name)
		}
	}
}

func TestItemsByStatusOrdering(t *testing.T) {
	store := newTestStore(t)

	mustJob(t, store, "Topic A", queue.TriggerManual)
	b := mustJob(t, store, "Topic B", queue.TriggerManual)
	b.Status = queue.StatusScripted
	mustUpdate(t, store, b)

	items, err := store.ItemsByStatus(context.Background(), queue.StatusScripted)
	if err != nil {
		t.Fatalf("ItemsByStatus failed: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected one scripted item, got %d", len(items))
	}
	if items[0].Topic != "Topic B" {
		t.Fatalf("expected Topic B, got %s", items[0].Topic)
	}
}

func TestListSupportsStatusFilter(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	a := mustJob(t, store, "Topic A", queue.TriggerManual)
	b := mustJob(t, store, "Topic B", queue.TriggerManual)
	b.Status = queue.StatusScripted
	mustUpdate(t, store, b)
	c := mustJob(t, store, "Topic C", queue.TriggerManual)
	failJob(t, store, c)

	items, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}
	if items[0].ID != a.ID || items[1].ID != b.ID || items[2].ID != c.ID {
		t.Fatalf("expected order A,B,C, got IDs %d,%d,%d", items[0].ID, items[1].ID, items[2].ID)
	}

	filtered, err := store.List(ctx, queue.StatusScripted, queue.StatusFailed)
	if err != nil {
		t.Fatalf("Filtered list failed: %v", err)
	}
	if len(filtered) != 2 {
		t.Fatalf("expected 2 items, got %d", len(filtered))
	}
	if filtered[0].ID != b.ID || filtered[1].ID != c.ID {
		t.Fatalf("unexpected filtered order: got %d,%d", filtered[0].ID, filtered[1].ID)
	}
}

func TestHasActive(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	active, err := store.HasActive(ctx, queue.TriggerScheduled)
	if err != nil {
		t.Fatalf("HasActive: %v", err)
	}
	if active {
		t.Fatal("expected no active scheduled items")
	}

	item := mustJob(t, store, "", queue.TriggerScheduled)

	active, err = store.HasActive(ctx, queue.TriggerScheduled)
	if err != nil {
		t.Fatalf("HasActive: %v", err)
	}
	if !active {
		t.Fatal("expected pending scheduled item to count as active")
	}

	item.Status = queue.StatusCompleted
	mustUpdate(t, store, item)

	active, err = store.HasActive(ctx, queue.TriggerScheduled)
	if err != nil {
		t.Fatalf("HasActive: %v", err)
	}
	if active {
		t.Fatal("expected completed item to be inactive")
	}
}

func TestRetryFailed(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	a := mustJob(t, store, "Topic A", queue.TriggerManual)
	b := mustJob(t, store, "Topic B", queue.TriggerManual)
	failJob(t, store, a)
	failJob(t, store, b)

	updated, err := store.RetryFailed(ctx)
	if err != nil {
		t.Fatalf("RetryFailed all: %v", err)
	}
	if updated != 2 {
		t.Fatalf("expected 2 items retried, got %d", updated)
	}
	if got := mustGet(t, store, a.ID); got.Status != queue.StatusPending {
		t.Fatalf("expected item A pending, got %s", got.Status)
	}

	// Mark B failed again and retry targeted selection.
	failJob(t, store, b)
	updated, err = store.RetryFailed(ctx, b.ID)
	if err != nil {
		t.Fatalf("RetryFailed targeted: %v", err)
	}
	if updated != 1 {
		t.Fatalf("expected 1 item retried, got %d", updated)
	}
}

func TestUpdateHeartbeat(t *testing.T) {
	store := newTestStore(t)

	item := mustJob(t, store, "Heartbeat", queue.TriggerManual)
	item.Status = queue.StatusScripting
	mustUpdate(t, store, item)

	if err := store.UpdateHeartbeat(context.Background(), item.ID); err != nil {
		t.Fatalf("UpdateHeartbeat: %v", err)
	}
	if got := mustGet(t, store, item.ID); got.LastHeartbeat == nil {
		t.Fatal("expected last heartbeat to be set")
	}
}

func TestReclaimStaleProcessing(t *testing.T) {
	t.Run("all statuses", func(t *testing.T) {
		store := newTestStore(t)
		ctx := context.Background()
		past := time.Now().Add(-2 * time.Hour).UTC()

		cases := rollbackCases()
		ids := make([]int64, 0, len(cases))
		for i, tc := range cases {
			item := mustJob(t, store, fmt.Sprintf("Stale-%s-%d", tc.name, i), queue.TriggerManual)
			item.Status = tc.inFlight
			item.LastHeartbeat = &past
			mustUpdate(t, store, item)
			ids = append(ids, item.ID)
		}

		count, err := store.ReclaimStaleProcessing(
			ctx,
			time.Now().Add(-1*time.Hour),
			queue.StatusScripting,
			queue.StatusSynthesizing,
			queue.StatusComposing,
			queue.StatusPublishing,
		)
		if err != nil {
			t.Fatalf("ReclaimStaleProcessing: %v", err)
		}
		if int(count) != len(cases) {
			t.Fatalf("expected %d items reclaimed, got %d", len(cases), count)
		}

		for idx, tc := range cases {
			got := mustGet(t, store, ids[idx])
			if got.Status != tc.restored {
				t.Fatalf("%s: expected status %s after reclaim, got %s", tc.name, tc.restored, got.Status)
			}
			if got.LastHeartbeat != nil {
				t.Fatalf("%s: expected heartbeat cleared, got %v", tc.name, got.LastHeartbeat)
			}
		}
	})

	t.Run("filtered statuses", func(t *testing.T) {
		store := newTestStore(t)
		ctx := context.Background()
		past := time.Now().Add(-2 * time.Hour).UTC()

		scripting := mustJob(t, store, "Stale-Scripting", queue.TriggerManual)
		scripting.Status = queue.StatusScripting
		scripting.LastHeartbeat = &past
		mustUpdate(t, store, scripting)

		composing := mustJob(t, store, "Stale-Composing", queue.TriggerManual)
		composing.Status = queue.StatusComposing
		composing.LastHeartbeat = &past
		mustUpdate(t, store, composing)

		count, err := store.ReclaimStaleProcessing(ctx, time.Now().Add(-1*time.Hour), queue.StatusComposing)
		if err != nil {
			t.Fatalf("ReclaimStaleProcessing filtered: %v", err)
		}
		if count != 1 {
			t.Fatalf("expected 1 item reclaimed, got %d", count)
		}

		reclaimed := mustGet(t, store, composing.ID)
		if reclaimed.Status != queue.StatusSynthesized {
			t.Fatalf("expected composing item rolled back to synthesized, got %s", reclaimed.Status)
		}
		if reclaimed.LastHeartbeat != nil {
			t.Fatalf("expected composing heartbeat cleared, got %v", reclaimed.LastHeartbeat)
		}

		unchanged := mustGet(t, store, scripting.ID)
		if unchanged.Status != queue.StatusScripting {
			t.Fatalf("expected scripting item untouched, got %s", unchanged.Status)
		}
		if unchanged.LastHeartbeat == nil || !unchanged.LastHeartbeat.Equal(past) {
			t.Fatalf("expected scripting heartbeat unchanged, got %v", unchanged.LastHeartbeat)
		}
	})
}

func TestUpdateProgressPreservesHeartbeat(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	item := mustJob(t, store, "Heartbeat Progress", queue.TriggerManual)
	item.Status = queue.StatusScripting
	past := time.Now().Add(-5 * time.Minute).UTC()
	item.LastHeartbeat = &past
	mustUpdate(t, store, item)

	if err := store.UpdateHeartbeat(ctx, item.ID); err != nil {
		t.Fatalf("UpdateHeartbeat: %v", err)
	}

	before := mustGet(t, store, item.ID)
	if before.LastHeartbeat == nil {
		t.Fatal("expected heartbeat set before progress update")
	}
	origHeartbeat := *before.LastHeartbeat

	before.ProgressStage = "Scripting"
	before.ProgressPercent = 42.5
	before.ProgressMessage = "Generating scenes"
	if err := store.UpdateProgress(ctx, before); err != nil {
		t.Fatalf("UpdateProgress: %v", err)
	}

	after := mustGet(t, store, item.ID)
	if after.LastHeartbeat == nil {
		t.Fatal("expected heartbeat preserved after progress update")
	}
	if !after.LastHeartbeat.Equal(origHeartbeat) {
		t.Fatalf("expected heartbeat unchanged, before %v after %v", origHeartbeat, after.LastHeartbeat)
	}
	if after.ProgressStage != "Scripting" || after.ProgressMessage != "Generating scenes" {
		t.Fatalf("expected progress fields persisted, got stage=%q message=%q", after.ProgressStage, after.ProgressMessage)
	}
	if after.ProgressPercent != 42.5 {
		t.Fatalf("expected progress percent 42.5, got %f", after.ProgressPercent)
	}
}
