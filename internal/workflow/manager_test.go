package workflow_test

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"reelsmith/internal/logging"
	"reelsmith/internal/notifications"
	"reelsmith/internal/queue"
	"reelsmith/internal/services"
	"reelsmith/internal/stage"
	"reelsmith/internal/testsupport"
	"reelsmith/internal/workflow"
)

type stubStage struct {
	name        string
	prepareHook func(*queue.Item)
	executeHook func(*queue.Item)
	prepareErr  error
	executeErr  error
	health      stage.Health
}

func newStubStage(name string) *stubStage {
	return &stubStage{name: name, health: stage.Healthy(name)}
}

func (s *stubStage) Prepare(_ context.Context, item *queue.Item) error {
	if s.prepareHook != nil {
		s.prepareHook(item)
	}
	return s.prepareErr
}

func (s *stubStage) Execute(_ context.Context, item *queue.Item) error {
	if s.executeHook != nil {
		s.executeHook(item)
	}
	return s.executeErr
}

func (s *stubStage) HealthCheck(context.Context) stage.Health {
	return s.health
}

type recordingNotifier struct {
	mu       sync.Mutex
	events   []notifications.Event
	payloads []notifications.Payload
}

func (r *recordingNotifier) Publish(_ context.Context, event notifications.Event, payload notifications.Payload) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	r.payloads = append(r.payloads, payload)
	return nil
}

func (r *recordingNotifier) errorEvents() []notifications.Payload {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []notifications.Payload
	for i, event := range r.events {
		if event == notifications.EventError {
			out = append(out, r.payloads[i])
		}
	}
	return out
}

func fullStageSet() (workflow.StageSet, map[string]*stubStage) {
	stages := map[string]*stubStage{
		"script-generator": newStubStage("script-generator"),
		"synthesizer":      newStubStage("synthesizer"),
		"composer":         newStubStage("composer"),
		"publisher":        newStubStage("publisher"),
	}
	return workflow.StageSet{
		ScriptGenerator: stages["script-generator"],
		Synthesizer:     stages["synthesizer"],
		Composer:        stages["composer"],
		Publisher:       stages["publisher"],
	}, stages
}

func waitForStatus(t *testing.T, store *queue.Store, id int64, want queue.Status) *queue.Item {
	t.Helper()
	deadline := time.After(30 * time.Second)
	for {
		select {
		case <-deadline:
			t.Fatalf("timed out waiting for status %s", want)
		default:
		}
		updated, err := store.GetByID(context.Background(), id)
		if err != nil {
			t.Fatalf("GetByID: %v", err)
		}
		if updated.Status == want {
			return updated
		}
		time.Sleep(25 * time.Millisecond)
	}
}

func TestManagerProcessesItems(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Workflow.QueuePollInterval = 0
	store := testsupport.MustOpenStore(t, cfg)

	set, stages := fullStageSet()
	stages["script-generator"].executeHook = func(item *queue.Item) {
		item.Topic = "Metro Inauguration Chaos"
		item.ScriptText = "Scene 1..."
	}
	stages["composer"].executeHook = func(item *queue.Item) {
		item.VideoFile = "/videos/final.mp4"
	}

	notifier := &recordingNotifier{}
	mgr := workflow.NewManagerWithNotifier(cfg, store, logging.NewNop(), notifier)
	mgr.ConfigureStages(set)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := mgr.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(mgr.Stop)

	item := testsupport.NewJob(t, store, "")

	updated := waitForStatus(t, store, item.ID, queue.StatusCompleted)
	if updated.Topic != "Metro Inauguration Chaos" {
		t.Fatalf("expected topic set by stage, got %q", updated.Topic)
	}
	if updated.VideoFile != "/videos/final.mp4" {
		t.Fatalf("expected video file set by stage, got %q", updated.VideoFile)
	}
	if updated.ProgressPercent != 100 {
		t.Fatalf("expected 100%% progress, got %v", updated.ProgressPercent)
	}
	if updated.LastHeartbeat != nil {
		t.Fatal("expected heartbeat cleared on completion")
	}
	if errs := notifier.errorEvents(); len(errs) != 0 {
		t.Fatalf("expected no error notifications, got %d", len(errs))
	}
}

func TestManagerStartRequiresStages(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	mgr := workflow.NewManager(cfg, store, logging.NewNop())
	if err := mgr.Start(context.Background()); err == nil {
		t.Fatal("expected Start to fail without configured stages")
	}
}

func TestManagerStatusIncludesStageHealth(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	set, stages := fullStageSet()
	stages["synthesizer"].health = stage.Unhealthy("synthesizer", "image service unreachable")

	mgr := workflow.NewManager(cfg, store, logging.NewNop())
	mgr.ConfigureStages(set)

	status := mgr.Status(context.Background())
	health, ok := status.StageHealth["synthesizer"]
	if !ok {
		t.Fatal("expected stage health entry for synthesizer")
	}
	if health.Ready {
		t.Fatalf("expected not ready health, got %+v", health)
	}
	if health.Detail != "image service unreachable" {
		t.Fatalf("unexpected health detail %q", health.Detail)
	}
	if !status.StageHealth["publisher"].Ready {
		t.Fatal("expected publisher to report healthy")
	}
}

func TestManagerFailureMarksItemFailed(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Workflow.QueuePollInterval = 0
	store := testsupport.MustOpenStore(t, cfg)

	set, stages := fullStageSet()
	stages["synthesizer"].executeErr = services.Wrap(
		services.ErrExternalTool, "synthesizing", "generate visuals", "image service returned 500", nil,
	)

	notifier := &recordingNotifier{}
	mgr := workflow.NewManagerWithNotifier(cfg, store, logging.NewNop(), notifier)
	mgr.ConfigureStages(set)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := mgr.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(mgr.Stop)

	item := testsupport.NewJob(t, store, "Parliament WiFi")
	item.Status = queue.StatusScripted
	if err := store.Update(ctx, item); err != nil {
		t.Fatalf("Update: %v", err)
	}

	updated := waitForStatus(t, store, item.ID, queue.StatusFailed)
	if updated.ProgressStage != "Failed" {
		t.Fatalf("expected progress stage Failed, got %q", updated.ProgressStage)
	}
	if !strings.Contains(updated.ErrorMessage, "image service returned 500") {
		t.Fatalf("expected error message to carry failure detail, got %q", updated.ErrorMessage)
	}

	deadline := time.After(10 * time.Second)
	for len(notifier.errorEvents()) == 0 {
		select {
		case <-deadline:
			t.Fatal("expected an error notification")
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
	payload := notifier.errorEvents()[0]
	if !strings.Contains(payload["context"], "synthesizer") {
		t.Fatalf("expected stage name in notification context, got %q", payload["context"])
	}
	if !strings.Contains(payload["context"], fmt.Sprintf("item #%d", item.ID)) {
		t.Fatalf("expected item id in notification context, got %q", payload["context"])
	}
}

func TestManagerFailureDefaultsToFailed(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Workflow.QueuePollInterval = 0
	store := testsupport.MustOpenStore(t, cfg)

	set, stages := fullStageSet()
	stages["script-generator"].executeErr = fmt.Errorf("boom")

	mgr := workflow.NewManagerWithNotifier(cfg, store, logging.NewNop(), &recordingNotifier{})
	mgr.ConfigureStages(set)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := mgr.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(mgr.Stop)

	item := testsupport.NewJob(t, store, "")

	updated := waitForStatus(t, store, item.ID, queue.StatusFailed)
	if updated.ErrorMessage == "" {
		t.Fatal("expected error message to be populated")
	}
}

func TestManagerSkipsNilStages(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Workflow.QueuePollInterval = 0
	store := testsupport.MustOpenStore(t, cfg)

	// Publishing handler omitted: the pipeline ends at composed.
	set, _ := fullStageSet()
	set.Publisher = nil

	mgr := workflow.NewManagerWithNotifier(cfg, store, logging.NewNop(), &recordingNotifier{})
	mgr.ConfigureStages(set)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := mgr.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(mgr.Stop)

	item := testsupport.NewJob(t, store, "")

	updated := waitForStatus(t, store, item.ID, queue.StatusComposed)
	if updated.ErrorMessage != "" {
		t.Fatalf("expected clean stop at composed, got error %q", updated.ErrorMessage)
	}
}
