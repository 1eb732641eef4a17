package testsupport

import (
	"context"
	"testing"

	"reelsmith/internal/config"
	"reelsmith/internal/queue"
)

// MustOpenStore opens the queue database under the test config's log dir
// and closes it when the test finishes.
func MustOpenStore(t testing.TB, cfg *config.Config) *queue.Store {
	t.Helper()

	store, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("queue.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewJob enqueues a manually-triggered job for the given topic.
func NewJob(t testing.TB, store *queue.Store, topic string) *queue.Item {
	t.Helper()

	item, err := store.NewJob(context.Background(), topic, queue.TriggerManual)
	if err != nil {
		t.Fatalf("store.NewJob: %v", err)
	}
	return item
}
