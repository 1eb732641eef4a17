package workflow

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"reelsmith/internal/config"
	"reelsmith/internal/notifications"
	"reelsmith/internal/queue"
)

// Manager drives queued jobs through the pipeline: it polls for the oldest
// actionable item, dispatches it to the stage registered for its status,
// and records the outcome.
type Manager struct {
	cfg       *config.Config
	store     *queue.Store
	logger    *slog.Logger
	notifier  notifications.Service
	pollEvery time.Duration
	heartbeat *heartbeatMonitor

	pipeline pipelineState

	mu          sync.RWMutex
	wg          sync.WaitGroup
	cancel      context.CancelFunc
	running     bool
	lastRunErr  error
	lastHandled *queue.Item
}

// NewManager constructs a manager with the config-derived ntfy notifier.
func NewManager(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Manager {
	return NewManagerWithNotifier(cfg, store, logger, notifications.NewService(cfg))
}

// NewManagerWithNotifier lets tests inject a notifier.
func NewManagerWithNotifier(cfg *config.Config, store *queue.Store, logger *slog.Logger, notifier notifications.Service) *Manager {
	wf := cfg.Workflow
	m := &Manager{
		cfg:       cfg,
		store:     store,
		logger:    logger,
		notifier:  notifier,
		pollEvery: time.Duration(wf.QueuePollInterval) * time.Second,
	}
	m.heartbeat = newHeartbeatMonitor(
		store,
		logger,
		time.Duration(wf.HeartbeatInterval)*time.Second,
		time.Duration(wf.HeartbeatTimeout)*time.Second,
	)
	return m
}
