package scriptgen

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"reelsmith/internal/logging"
	"reelsmith/internal/notifications"
	"reelsmith/internal/queue"
	"reelsmith/internal/script"
	"reelsmith/internal/services"
	"reelsmith/internal/testsupport"
	"reelsmith/internal/topics"
)

const sampleScript = `Scene 1:
Visual: Parliament session, leaders arguing over a giant WiFi router on the podium
Narrator: "Breaking news: Parliament WiFi password leaked to the nation"
Modi: "Mitron, even our passwords are now transparent"

Scene 2:
Visual: Rahul Gandhi holding a laptop upside down, confused crowd behind him
Rahul: "The WiFi is an idea whose time has come"

Scene 3:
Visual: Kejriwal pointing at a chart showing free WiFi promises
Kejriwal: "In Delhi, we already gave this for free"

Scene 4:
Visual: Common man staring at a buffering screen, clock spinning
Narrator: "And the nation still buffers at 2G speeds"
`

type stubClient struct {
	mu        sync.Mutex
	responses []string
	errs      []error
	calls     int
	healthErr error
}

func (s *stubClient) Generate(ctx context.Context, prompt string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.calls
	s.calls++
	if idx < len(s.errs) && s.errs[idx] != nil {
		return "", s.errs[idx]
	}
	if idx < len(s.responses) {
		return s.responses[idx], nil
	}
	return "", errors.New("no scripted response")
}

func (s *stubClient) GenerateJSON(ctx context.Context, prompt string, target any) error {
	return errors.New("not used")
}

func (s *stubClient) HealthCheck(ctx context.Context) error { return s.healthErr }

func (s *stubClient) Name() string { return "stub" }

type stubNotifier struct {
	mu     sync.Mutex
	events []notifications.Event
}

func (s *stubNotifier) Publish(ctx context.Context, event notifications.Event, payload notifications.Payload) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func openHistory(t *testing.T, path string) *topics.History {
	t.Helper()
	history, err := topics.Open(topics.Options{Path: path})
	if err != nil {
		t.Fatalf("open history: %v", err)
	}
	return history
}

func newGenerator(t *testing.T, client *stubClient) (*Generator, *queue.Store, *stubNotifier) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	history := openHistory(t, cfg.Topics.HistoryPath)
	notifier := &stubNotifier{}
	gen := NewGeneratorWithDependencies(cfg, store, logging.NewNop(), client, history, notifier)
	gen.sleep = func(time.Duration) {}
	return gen, store, notifier
}

func TestPrepareInitializesProgress(t *testing.T) {
	gen, store, _ := newGenerator(t, &stubClient{})
	item := testsupport.NewJob(t, store, "fuel prices")
	item.ErrorMessage = "previous failure"

	if err := gen.Prepare(context.Background(), item); err != nil {
		t.Fatalf("Prepare returned error: %v", err)
	}
	if item.ProgressStage != "Scripting" {
		t.Fatalf("expected progress stage Scripting, got %q", item.ProgressStage)
	}
	if item.ProgressPercent != 0 {
		t.Fatalf("expected progress reset, got %v", item.ProgressPercent)
	}
	if item.ErrorMessage != "" {
		t.Fatalf("expected error message cleared, got %q", item.ErrorMessage)
	}
}

func TestExecuteGeneratesScript(t *testing.T) {
	client := &stubClient{responses: []string{sampleScript}}
	gen, store, notifier := newGenerator(t, client)
	item := testsupport.NewJob(t, store, "")

	if err := gen.Execute(context.Background(), item); err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}

	if item.ScriptText != sampleScript {
		t.Fatalf("expected script text persisted")
	}
	if item.ScenesJSON == "" {
		t.Fatalf("expected scenes JSON persisted")
	}
	if item.Angle == "" {
		t.Fatalf("expected angle recorded")
	}
	if strings.TrimSpace(item.Topic) == "" {
		t.Fatalf("expected topic derived from script title")
	}
	if item.StagingDir == "" {
		t.Fatalf("expected staging dir assigned")
	}
	scriptPath := filepath.Join(item.StagingDir, "script.txt")
	if _, err := os.Stat(scriptPath); err != nil {
		t.Fatalf("expected script artifact at %s: %v", scriptPath, err)
	}

	if gen.history.Len() != 1 {
		t.Fatalf("expected one history entry, got %d", gen.history.Len())
	}

	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	if len(notifier.events) != 1 || notifier.events[0] != notifications.EventScriptReady {
		t.Fatalf("expected script-ready notification, got %v", notifier.events)
	}
}

func TestExecuteParsesFourScenes(t *testing.T) {
	client := &stubClient{responses: []string{sampleScript}}
	gen, store, _ := newGenerator(t, client)
	item := testsupport.NewJob(t, store, "parliament wifi")

	if err := gen.Execute(context.Background(), item); err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}

	scenes, err := script.DecodeScenes(item.ScenesJSON)
	if err != nil {
		t.Fatalf("decode scenes: %v", err)
	}
	if len(scenes) != 4 {
		t.Fatalf("expected 4 scenes, got %d", len(scenes))
	}
	if scenes[0].Visual == "" || scenes[0].Narration == "" {
		t.Fatalf("expected populated first scene, got %+v", scenes[0])
	}
}

func TestExecuteRetriesOnUnparseableResponse(t *testing.T) {
	client := &stubClient{responses: []string{"I cannot help with that request.", sampleScript}}
	gen, store, _ := newGenerator(t, client)
	item := testsupport.NewJob(t, store, "petrol prices")

	var slept []time.Duration
	gen.sleep = func(d time.Duration) { slept = append(slept, d) }

	if err := gen.Execute(context.Background(), item); err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if client.calls != 2 {
		t.Fatalf("expected 2 generation attempts, got %d", client.calls)
	}
	if len(slept) != 1 || slept[0] != 2*time.Second {
		t.Fatalf("expected single 2s backoff, got %v", slept)
	}
}

func TestExecuteFailsAfterExhaustedAttempts(t *testing.T) {
	client := &stubClient{errs: []error{
		errors.New("connection refused"),
		errors.New("connection refused"),
		errors.New("connection refused"),
	}}
	gen, store, notifier := newGenerator(t, client)
	item := testsupport.NewJob(t, store, "petrol prices")

	err := gen.Execute(context.Background(), item)
	if err == nil {
		t.Fatal("expected error after exhausted attempts")
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
	if !services.Retryable(err) {
		t.Fatalf("expected exhausted-attempt failure to be retryable")
	}
	if client.calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", client.calls)
	}

	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	if len(notifier.events) != 0 {
		t.Fatalf("expected no notifications on failure, got %v", notifier.events)
	}
}

func TestExecuteSkipsRecentlyUsedAngles(t *testing.T) {
	client := &stubClient{responses: []string{sampleScript}}
	gen, store, _ := newGenerator(t, client)
	if err := gen.history.Add("Old pothole saga", "smart_city"); err != nil {
		t.Fatalf("seed history: %v", err)
	}
	item := testsupport.NewJob(t, store, "")

	if err := gen.Execute(context.Background(), item); err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if item.Angle == "smart_city" {
		t.Fatalf("expected recently used angle to be excluded")
	}
}

func TestHealthCheck(t *testing.T) {
	gen, _, _ := newGenerator(t, &stubClient{})
	if health := gen.HealthCheck(context.Background()); !health.Ready {
		t.Fatalf("expected healthy stage, got %+v", health)
	}

	gen.client = &stubClient{healthErr: errors.New("model missing")}
	if health := gen.HealthCheck(context.Background()); health.Ready {
		t.Fatal("expected unhealthy stage when model check fails")
	}

	gen.client = nil
	if health := gen.HealthCheck(context.Background()); health.Ready {
		t.Fatal("expected unhealthy stage without client")
	}
}
