package publishing

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"reelsmith/internal/config"
	"reelsmith/internal/logging"
	"reelsmith/internal/notifications"
	"reelsmith/internal/queue"
	"reelsmith/internal/services"
	"reelsmith/internal/services/youtube"
	"reelsmith/internal/testsupport"
)

type stubLLM struct {
	metadata Metadata
	err      error
}

func (s *stubLLM) Generate(ctx context.Context, prompt string) (string, error) {
	return "", errors.New("not used")
}

func (s *stubLLM) GenerateJSON(ctx context.Context, prompt string, target any) error {
	if s.err != nil {
		return s.err
	}
	data, err := json.Marshal(s.metadata)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, target)
}

func (s *stubLLM) HealthCheck(ctx context.Context) error { return nil }

func (s *stubLLM) Name() string { return "stub" }

type stubUploader struct {
	calls int
	meta  youtube.Metadata
	err   error
}

func (s *stubUploader) Upload(ctx context.Context, videoPath string, meta youtube.Metadata) (string, error) {
	s.calls++
	s.meta = meta
	if s.err != nil {
		return "", s.err
	}
	return "vid123", nil
}

func (s *stubUploader) WatchURL(videoID string) string {
	return "https://www.youtube.com/watch?v=" + videoID
}

type stubNotifier struct {
	events []notifications.Event
}

func (s *stubNotifier) Publish(ctx context.Context, event notifications.Event, payload notifications.Payload) error {
	s.events = append(s.events, event)
	return nil
}

func newPublisher(t *testing.T, client *stubLLM, uploader *stubUploader) (*Publisher, *config.Config, *queue.Store, *stubNotifier) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	notifier := &stubNotifier{}
	pub := NewPublisherWithDependencies(cfg, store, logging.NewNop(), client, uploader, notifier)
	return pub, cfg, store, notifier
}

func composedItem(t *testing.T, store *queue.Store, cfg *config.Config) *queue.Item {
	t.Helper()
	item := testsupport.NewJob(t, store, "parliament wifi")
	item.Status = queue.StatusComposed
	item.VideoFile = cfg.Paths.OutputDir + "/parliament_wifi.mp4"
	testsupport.WriteFile(t, item.VideoFile, 64)
	if err := store.Update(context.Background(), item); err != nil {
		t.Fatalf("persist item: %v", err)
	}
	return item
}

func TestExecuteUploadsVideo(t *testing.T) {
	client := &stubLLM{metadata: Metadata{
		Title:       "Parliament WiFi Saga",
		Description: "Satire short about free WiFi promises",
		Tags:        []string{"#Satire", "politics", "satire"},
	}}
	uploader := &stubUploader{}
	pub, cfg, store, notifier := newPublisher(t, client, uploader)
	cfg.Publish.Enabled = true
	item := composedItem(t, store, cfg)

	if err := pub.Execute(context.Background(), item); err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}

	if uploader.calls != 1 {
		t.Fatalf("expected one upload, got %d", uploader.calls)
	}
	if item.WatchURL != "https://www.youtube.com/watch?v=vid123" {
		t.Fatalf("unexpected watch url %q", item.WatchURL)
	}
	if !strings.Contains(uploader.meta.Title, "#Shorts") {
		t.Fatalf("expected #Shorts suffix in title, got %q", uploader.meta.Title)
	}
	if uploader.meta.CategoryID != cfg.Publish.CategoryID {
		t.Fatalf("expected category %q, got %q", cfg.Publish.CategoryID, uploader.meta.CategoryID)
	}
	if want := []string{"satire", "politics"}; len(uploader.meta.Tags) != 2 || uploader.meta.Tags[0] != want[0] || uploader.meta.Tags[1] != want[1] {
		t.Fatalf("expected deduplicated lowercase tags %v, got %v", want, uploader.meta.Tags)
	}

	var persisted Metadata
	if err := json.Unmarshal([]byte(item.MetadataJSON), &persisted); err != nil {
		t.Fatalf("decode persisted metadata: %v", err)
	}
	if !strings.Contains(persisted.Description, "satire and parody") {
		t.Fatalf("expected disclaimer in description, got %q", persisted.Description)
	}

	if len(notifier.events) != 1 || notifier.events[0] != notifications.EventPublished {
		t.Fatalf("expected published notification, got %v", notifier.events)
	}
}

func TestExecuteSkipsUploadWhenDisabled(t *testing.T) {
	uploader := &stubUploader{}
	pub, cfg, store, notifier := newPublisher(t, &stubLLM{metadata: Metadata{Title: "t"}}, uploader)
	cfg.Publish.Enabled = false
	item := composedItem(t, store, cfg)

	if err := pub.Execute(context.Background(), item); err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if uploader.calls != 0 {
		t.Fatalf("expected no uploads when disabled, got %d", uploader.calls)
	}
	if item.WatchURL != "" {
		t.Fatalf("expected no watch url, got %q", item.WatchURL)
	}
	if item.MetadataJSON == "" {
		t.Fatal("expected metadata persisted even when upload disabled")
	}
	if item.ProgressPercent != 100 {
		t.Fatalf("expected progress 100, got %v", item.ProgressPercent)
	}
	if len(notifier.events) != 0 {
		t.Fatalf("expected no notifications, got %v", notifier.events)
	}
}

func TestExecuteFallsBackOnMetadataFailure(t *testing.T) {
	client := &stubLLM{err: errors.New("model unavailable")}
	uploader := &stubUploader{}
	pub, cfg, store, _ := newPublisher(t, client, uploader)
	cfg.Publish.Enabled = true
	item := composedItem(t, store, cfg)

	if err := pub.Execute(context.Background(), item); err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if !strings.Contains(uploader.meta.Title, "parliament wifi") {
		t.Fatalf("expected fallback title to carry topic, got %q", uploader.meta.Title)
	}
	if !strings.Contains(uploader.meta.Title, "#Shorts") {
		t.Fatalf("expected #Shorts in fallback title, got %q", uploader.meta.Title)
	}
	if len(uploader.meta.Tags) == 0 {
		t.Fatal("expected fallback tags")
	}
}

func TestExecuteFailsWhenUploadFails(t *testing.T) {
	uploader := &stubUploader{err: errors.New("quotaExceeded")}
	pub, cfg, store, _ := newPublisher(t, &stubLLM{metadata: Metadata{Title: "t"}}, uploader)
	cfg.Publish.Enabled = true
	item := composedItem(t, store, cfg)

	err := pub.Execute(context.Background(), item)
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
}

func TestExecuteRequiresVideo(t *testing.T) {
	pub, _, store, _ := newPublisher(t, &stubLLM{}, &stubUploader{})
	item := testsupport.NewJob(t, store, "parliament wifi")

	err := pub.Execute(context.Background(), item)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestMetadataNormalize(t *testing.T) {
	long := strings.Repeat("a", 120)
	meta := Metadata{Title: long, Tags: []string{"#One", "one", "", "two"}}.normalize()

	if len(meta.Title) > maxTitleLength {
		t.Fatalf("expected title capped at %d, got %d", maxTitleLength, len(meta.Title))
	}
	if !strings.HasSuffix(meta.Title, "...") {
		t.Fatalf("expected ellipsis suffix, got %q", meta.Title)
	}
	if got, want := meta.Tags, []string{"one", "two"}; len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("expected tags %v, got %v", want, got)
	}
	if !strings.Contains(meta.Description, "satire and parody") {
		t.Fatalf("expected disclaimer, got %q", meta.Description)
	}

	short := Metadata{Title: "Catchy"}.normalize()
	if short.Title != "Catchy #Shorts" {
		t.Fatalf("expected #Shorts appended, got %q", short.Title)
	}
}
