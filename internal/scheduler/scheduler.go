package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"reelsmith/internal/config"
	"reelsmith/internal/logging"
	"reelsmith/internal/notifications"
	"reelsmith/internal/queue"
	"reelsmith/internal/services"
)

// clockTime is a wall-clock run time in the configured timezone.
type clockTime struct {
	hour   int
	minute int
}

// Scheduler enqueues generation jobs at the configured wall-clock times.
// Each tick creates one pending queue item unless a scheduled run is still
// in flight, so a stalled pipeline never piles up duplicate jobs.
type Scheduler struct {
	cfg      *config.Config
	store    *queue.Store
	logger   *slog.Logger
	notifier notifications.Service

	location *time.Location
	times    []clockTime
	now      func() time.Time

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewScheduler builds a scheduler from configuration. The configured timezone
// and run times are validated up front so a bad config fails at startup, not
// at the first tick.
func NewScheduler(cfg *config.Config, store *queue.Store, logger *slog.Logger, notifier notifications.Service) (*Scheduler, error) {
	if cfg == nil {
		return nil, services.Wrap(services.ErrConfiguration, "scheduler", "initialize", "configuration unavailable", nil)
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	tz := strings.TrimSpace(cfg.Schedule.Timezone)
	if tz == "" {
		tz = "Local"
	}
	location, err := time.LoadLocation(tz)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "scheduler", "load timezone", fmt.Sprintf("unknown timezone %q", tz), err)
	}

	times, err := parseTimes(cfg.Schedule.Times)
	if err != nil {
		return nil, err
	}

	return &Scheduler{
		cfg:      cfg,
		store:    store,
		logger:   logger.With(logging.String(logging.FieldComponent, "scheduler")),
		notifier: notifier,
		location: location,
		times:    times,
		now:      time.Now,
	}, nil
}

func parseTimes(values []string) ([]clockTime, error) {
	if len(values) == 0 {
		return nil, services.Wrap(services.ErrConfiguration, "scheduler", "parse times", "no run times configured", nil)
	}
	times := make([]clockTime, 0, len(values))
	seen := make(map[clockTime]struct{}, len(values))
	for _, value := range values {
		parsed, err := parseClockTime(value)
		if err != nil {
			return nil, err
		}
		if _, ok := seen[parsed]; ok {
			continue
		}
		seen[parsed] = struct{}{}
		times = append(times, parsed)
	}
	sort.Slice(times, func(i, j int) bool {
		if times[i].hour != times[j].hour {
			return times[i].hour < times[j].hour
		}
		return times[i].minute < times[j].minute
	})
	return times, nil
}

func parseClockTime(value string) (clockTime, error) {
	trimmed := strings.TrimSpace(value)
	parts := strings.Split(trimmed, ":")
	if len(parts) != 2 {
		return clockTime{}, services.Wrap(services.ErrConfiguration, "scheduler", "parse times", fmt.Sprintf("invalid run time %q, expected HH:MM", value), nil)
	}
	hour, hourErr := strconv.Atoi(parts[0])
	minute, minuteErr := strconv.Atoi(parts[1])
	if hourErr != nil || minuteErr != nil || hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return clockTime{}, services.Wrap(services.ErrConfiguration, "scheduler", "parse times", fmt.Sprintf("invalid run time %q, expected HH:MM", value), nil)
	}
	return clockTime{hour: hour, minute: minute}, nil
}

// Enabled reports whether scheduled runs are turned on in configuration.
func (s *Scheduler) Enabled() bool {
	return s.cfg.Schedule.Enabled
}

// NextRun returns the first configured run time strictly after the given instant.
func (s *Scheduler) NextRun(after time.Time) time.Time {
	local := after.In(s.location)
	for dayOffset := 0; dayOffset < 2; dayOffset++ {
		day := local.AddDate(0, 0, dayOffset)
		for _, ct := range s.times {
			candidate := time.Date(day.Year(), day.Month(), day.Day(), ct.hour, ct.minute, 0, 0, s.location)
			if candidate.After(local) {
				return candidate
			}
		}
	}
	// Unreachable: the first slot tomorrow always qualifies.
	return local.AddDate(0, 0, 1)
}

// NextRuns returns the next n scheduled run times.
func (s *Scheduler) NextRuns(n int) []time.Time {
	if n <= 0 {
		return nil
	}
	runs := make([]time.Time, 0, n)
	cursor := s.now()
	for len(runs) < n {
		next := s.NextRun(cursor)
		runs = append(runs, next)
		cursor = next
	}
	return runs
}

// Start launches the scheduling loop. It returns an error when the schedule
// is disabled in configuration.
func (s *Scheduler) Start(ctx context.Context) error {
	if !s.Enabled() {
		return fmt.Errorf("schedule disabled in configuration")
	}
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("scheduler already running")
	}
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.running = true
	s.wg.Add(1)
	s.mu.Unlock()

	go s.run(runCtx)
	return nil
}

// Stop terminates the scheduling loop and waits for it to exit.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	cancel := s.cancel
	s.running = false
	s.cancel = nil
	s.mu.Unlock()

	cancel()
	s.wg.Wait()
}

func (s *Scheduler) run(ctx context.Context) {
	defer s.wg.Done()
	for {
		next := s.NextRun(s.now())
		wait := next.Sub(s.now())
		if wait < 0 {
			wait = 0
		}
		s.logger.Info("next scheduled run",
			logging.String(logging.FieldEventType, "schedule_next_run"),
			logging.String("run_at", next.Format(time.RFC3339)),
			logging.Duration("wait", wait),
		)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		if _, err := s.TriggerScheduled(ctx); err != nil {
			s.logger.Error("scheduled run failed to enqueue",
				logging.Error(err),
				logging.String(logging.FieldEventType, "schedule_enqueue_failed"),
				logging.String(logging.FieldErrorHint, "check queue database access"),
			)
		}
	}
}

// TriggerScheduled enqueues a scheduled generation job. It returns a nil item
// without error when a previous scheduled run is still working through the
// pipeline.
func (s *Scheduler) TriggerScheduled(ctx context.Context) (*queue.Item, error) {
	active, err := s.store.HasActive(ctx, queue.TriggerScheduled)
	if err != nil {
		return nil, err
	}
	if active {
		s.logger.Warn("skipping scheduled run, previous run still active",
			logging.String(logging.FieldEventType, "schedule_run_skipped"),
		)
		return nil, nil
	}
	return s.enqueue(ctx, "", queue.TriggerScheduled)
}

// TriggerManual enqueues an on-demand generation job, optionally pinned to a
// specific topic.
func (s *Scheduler) TriggerManual(ctx context.Context, topic string) (*queue.Item, error) {
	return s.enqueue(ctx, strings.TrimSpace(topic), queue.TriggerManual)
}

func (s *Scheduler) enqueue(ctx context.Context, topic, trigger string) (*queue.Item, error) {
	item, err := s.store.NewJob(ctx, topic, trigger)
	if err != nil {
		return nil, err
	}
	s.logger.Info("generation run enqueued",
		logging.String(logging.FieldEventType, "run_enqueued"),
		logging.Int64(logging.FieldItemID, item.ID),
		logging.String(logging.FieldTopic, topic),
		logging.String("trigger", trigger),
	)
	if s.notifier != nil {
		payload := notifications.Payload{}
		if topic != "" {
			payload["topic"] = topic
		}
		if err := s.notifier.Publish(ctx, notifications.EventRunStarted, payload); err != nil {
			s.logger.Warn("run started notification failed", logging.Error(err))
		}
	}
	return item, nil
}
