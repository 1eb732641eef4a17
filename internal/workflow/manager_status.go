package workflow

import (
	"context"

	"reelsmith/internal/logging"
	"reelsmith/internal/queue"
	"reelsmith/internal/stage"
)

// StatusSummary is the snapshot the daemon surfaces over IPC: loop state,
// queue counts, per-stage health, and the most recent item and error.
type StatusSummary struct {
	Running     bool
	LastError   string
	LastItem    *queue.Item
	QueueStats  map[queue.Status]int
	StageHealth map[string]stage.Health
}

// Status gathers the current snapshot. Stage health checks run inline, so
// callers should bound ctx when external services may be slow.
func (m *Manager) Status(ctx context.Context) StatusSummary {
	m.mu.RLock()
	summary := StatusSummary{Running: m.running}
	if m.lastRunErr != nil {
		summary.LastError = m.lastRunErr.Error()
	}
	if m.lastHandled != nil {
		item := *m.lastHandled
		summary.LastItem = &item
	}
	stages := append([]pipelineStage(nil), m.pipeline.stages...)
	m.mu.RUnlock()

	stats, err := m.store.Stats(ctx)
	if err != nil {
		m.logger.Warn("failed to read queue stats", logging.Error(err))
	}
	summary.QueueStats = stats

	summary.StageHealth = make(map[string]stage.Health, len(stages))
	for _, stg := range stages {
		if stg.handler == nil {
			continue
		}
		summary.StageHealth[stg.name] = stg.handler.HealthCheck(ctx)
	}
	return summary
}

func (m *Manager) setLastError(err error) {
	m.mu.Lock()
	m.lastRunErr = err
	m.mu.Unlock()
}

func (m *Manager) setLastItem(item *queue.Item) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if item == nil {
		m.lastHandled = nil
		return
	}
	snapshot := *item
	m.lastHandled = &snapshot
}
