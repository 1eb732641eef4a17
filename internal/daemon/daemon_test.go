package daemon_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"reelsmith/internal/daemon"
	"reelsmith/internal/logging"
	"reelsmith/internal/queue"
	"reelsmith/internal/scheduler"
	"reelsmith/internal/stage"
	"reelsmith/internal/testsupport"
	"reelsmith/internal/workflow"
)

type noopStage struct {
	name string
}

func (s noopStage) Prepare(context.Context, *queue.Item) error { return nil }

func (s noopStage) Execute(context.Context, *queue.Item) error { return nil }

func (s noopStage) HealthCheck(context.Context) stage.Health {
	return stage.Healthy(s.name)
}

func newTestDaemon(t *testing.T) (*daemon.Daemon, *queue.Store) {
	t.Helper()

	cfg := testsupport.NewConfig(t)
	cfg.Schedule.Timezone = "UTC"
	store := testsupport.MustOpenStore(t, cfg)
	logger := logging.NewNop()

	manager := workflow.NewManager(cfg, store, logger)
	manager.ConfigureStages(workflow.StageSet{
		ScriptGenerator: noopStage{name: "script-generator"},
		Synthesizer:     noopStage{name: "synthesizer"},
		Composer:        noopStage{name: "composer"},
		Publisher:       noopStage{name: "publisher"},
	})

	sched, err := scheduler.NewScheduler(cfg, store, logger, nil)
	if err != nil {
		t.Fatalf("NewScheduler: %v", err)
	}

	d, err := daemon.New(cfg, store, logger, manager, sched, nil)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(func() {
		d.Stop()
	})
	return d, store
}

func TestDaemonStartStop(t *testing.T) {
	d, _ := newTestDaemon(t)

	ctx := context.Background()
	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := d.Start(ctx); err == nil {
		t.Fatal("expected error on double start")
	}

	status := d.Status(ctx)
	if !status.Running {
		t.Fatal("expected daemon to report running")
	}
	if status.PID <= 0 {
		t.Fatalf("expected positive PID, got %d", status.PID)
	}
	if !strings.HasSuffix(status.LockFilePath, "reelsmithd.lock") {
		t.Fatalf("unexpected lock path: %s", status.LockFilePath)
	}

	d.Stop()
	if d.Status(ctx).Running {
		t.Fatal("expected daemon to report stopped")
	}
}

func TestDaemonStopWithoutStart(t *testing.T) {
	d, _ := newTestDaemon(t)

	// Must not panic or deadlock.
	d.Stop()
	d.Stop()
}

func TestDaemonGenerateNow(t *testing.T) {
	d, _ := newTestDaemon(t)

	item, err := d.GenerateNow(context.Background(), "  Pothole Olympics  ")
	if err != nil {
		t.Fatalf("GenerateNow: %v", err)
	}
	if item.Topic != "Pothole Olympics" {
		t.Fatalf("expected trimmed topic, got %q", item.Topic)
	}
	if item.Trigger != queue.TriggerManual {
		t.Fatalf("expected manual trigger, got %q", item.Trigger)
	}
	if item.Status != queue.StatusPending {
		t.Fatalf("expected pending status, got %q", item.Status)
	}
}

func TestDaemonQueueMaintenance(t *testing.T) {
	d, store := newTestDaemon(t)
	ctx := context.Background()

	first := testsupport.NewJob(t, store, "Metro Inauguration Chaos")
	second := testsupport.NewJob(t, store, "Parliament WiFi")
	second.SetFailed("image service returned 500")
	if err := store.Update(ctx, second); err != nil {
		t.Fatalf("Update: %v", err)
	}

	items, err := d.ListQueue(ctx, nil)
	if err != nil {
		t.Fatalf("ListQueue: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}

	got, err := d.GetQueueItem(ctx, first.ID)
	if err != nil {
		t.Fatalf("GetQueueItem: %v", err)
	}
	if got == nil || got.Topic != "Metro Inauguration Chaos" {
		t.Fatalf("unexpected item: %+v", got)
	}

	retried, err := d.RetryFailed(ctx, nil)
	if err != nil {
		t.Fatalf("RetryFailed: %v", err)
	}
	if retried != 1 {
		t.Fatalf("expected 1 retried item, got %d", retried)
	}

	removed, err := d.RemoveQueueItem(ctx, first.ID)
	if err != nil {
		t.Fatalf("RemoveQueueItem: %v", err)
	}
	if !removed {
		t.Fatal("expected item to be removed")
	}

	health, err := d.QueueHealth(ctx)
	if err != nil {
		t.Fatalf("QueueHealth: %v", err)
	}
	if health.Total != 1 {
		t.Fatalf("expected 1 remaining item, got %d", health.Total)
	}

	cleared, err := d.ClearQueue(ctx)
	if err != nil {
		t.Fatalf("ClearQueue: %v", err)
	}
	if cleared != 1 {
		t.Fatalf("expected 1 cleared item, got %d", cleared)
	}
}

func TestDaemonTestNotificationRequiresTopic(t *testing.T) {
	d, _ := newTestDaemon(t)

	sent, message, err := d.TestNotification(context.Background())
	if err != nil {
		t.Fatalf("TestNotification: %v", err)
	}
	if sent {
		t.Fatal("expected notification to be skipped without a topic")
	}
	if !strings.Contains(message, "not configured") {
		t.Fatalf("unexpected message: %q", message)
	}
}

func TestDaemonScheduleStatus(t *testing.T) {
	d, _ := newTestDaemon(t)

	status := d.ScheduleStatus()
	if !status.Enabled {
		t.Fatal("expected schedule to be enabled")
	}
	if len(status.Times) == 0 {
		t.Fatal("expected schedule times")
	}
	if len(status.NextRuns) != 3 {
		t.Fatalf("expected 3 upcoming runs, got %d", len(status.NextRuns))
	}
	for _, run := range status.NextRuns {
		if _, err := time.Parse("2006-01-02 15:04 MST", run); err != nil {
			t.Fatalf("unexpected run format %q: %v", run, err)
		}
	}
}
