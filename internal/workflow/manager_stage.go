package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"reelsmith/internal/logging"
	"reelsmith/internal/queue"
	"reelsmith/internal/stage"
)

// processItem moves one item through its registered stage: transition to
// the processing status, run the handler under a heartbeat, persist the
// done status or the failure.
func (m *Manager) processItem(ctx context.Context, runnerLogger *slog.Logger, item *queue.Item) error {
	stg, ok := m.pipeline.stageForStatus(item.Status)
	if !ok {
		if runnerLogger == nil {
			runnerLogger = m.runnerLogger()
		}
		runnerLogger.Warn("no stage configured for status", logging.String("status", string(item.Status)))
		m.sleep(ctx, m.pollEvery)
		return nil
	}

	requestID := uuid.NewString()
	stageCtx := withStageContext(ctx, stg.name, item, requestID)
	stageLogger := m.stageLogger(stageCtx, runnerLogger, item)

	if err := m.transitionToProcessing(stageCtx, stg.processingStatus, item); err != nil {
		stageLogger.Error("failed to transition item to processing", logging.Error(err))
		m.setLastError(err)
		return err
	}

	return m.executeStage(stageCtx, stageLogger, stg, item)
}

// persistItem saves the item, wrapping and recording the failure under the
// given action name.
func (m *Manager) persistItem(ctx context.Context, logger *slog.Logger, item *queue.Item, action string) error {
	err := m.store.Update(ctx, item)
	if err == nil {
		return nil
	}
	wrapped := fmt.Errorf("%s: %w", action, err)
	logger.Error("queue update failed",
		logging.String("action", action),
		logging.Error(wrapped))
	m.setLastError(wrapped)
	return wrapped
}

func (m *Manager) executeStage(ctx context.Context, stageLogger *slog.Logger, stg pipelineStage, item *queue.Item) error {
	stageStart := time.Now()
	stageLogger.Info(
		"stage started",
		logging.String(logging.FieldEventType, "stage_start"),
		logging.String("processing_status", string(stg.processingStatus)),
		logging.String(logging.FieldTopic, strings.TrimSpace(item.Topic)),
		logging.String("trigger", strings.TrimSpace(item.Trigger)),
	)

	handler := stg.handler
	if handler == nil {
		stageLogger.Warn("missing stage handler", logging.String(logging.FieldStage, stg.name))
		item.Status = queue.StatusFailed
		item.ErrorMessage = fmt.Sprintf("stage %s missing handler", stg.name)
		_ = m.persistItem(ctx, stageLogger, item, "record missing handler")
		missing := errors.New("stage handler unavailable")
		m.setLastError(missing)
		return missing
	}

	if err := handler.Prepare(ctx, item); err != nil {
		m.handleStageFailure(ctx, stg.name, item, err)
		m.setLastError(err)
		return err
	}
	if err := m.persistItem(ctx, stageLogger, item, "save stage preparation"); err != nil {
		return err
	}

	execErr := m.executeWithHeartbeat(ctx, handler, item)
	if execErr != nil {
		if errors.Is(execErr, context.Canceled) {
			stageLogger.Debug("stage interrupted by shutdown")
			return execErr
		}
		m.handleStageFailure(ctx, stg.name, item, execErr)
		m.setLastError(execErr)
		return execErr
	}

	markStageDone(item, stg)
	if err := m.persistItem(ctx, stageLogger, item, "save stage result"); err != nil {
		return err
	}
	stageLogger.Info(
		"stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.String("next_status", string(item.Status)),
		logging.String("progress_stage", strings.TrimSpace(item.ProgressStage)),
		logging.String("progress_message", strings.TrimSpace(item.ProgressMessage)),
		logging.Duration("stage_duration", time.Since(stageStart)),
	)
	m.setLastItem(item)
	return nil
}

// markStageDone advances the item to the stage's done status unless the
// handler already moved it, clears the heartbeat, and normalizes the
// progress fields for terminal completion.
func markStageDone(item *queue.Item, stg pipelineStage) {
	if item.Status == stg.processingStatus || item.Status == "" {
		item.Status = stg.doneStatus
	}
	item.LastHeartbeat = nil
	if item.Status != queue.StatusCompleted {
		return
	}
	item.ProgressPercent = max(item.ProgressPercent, 100)
	if strings.TrimSpace(item.ProgressMessage) == "" {
		item.ProgressMessage = deriveStageLabel(queue.StatusCompleted)
	}
}

// executeWithHeartbeat runs the handler while a sibling goroutine refreshes
// the item's heartbeat, so a crash mid-stage is detectable by reclaim.
func (m *Manager) executeWithHeartbeat(ctx context.Context, handler stage.Handler, item *queue.Item) error {
	hbCtx, hbCancel := context.WithCancel(ctx)
	var hbWG sync.WaitGroup
	hbWG.Add(1)
	go m.heartbeat.beat(hbCtx, &hbWG, item.ID)

	execErr := handler.Execute(ctx, item)
	hbCancel()
	hbWG.Wait()
	return execErr
}

func (m *Manager) transitionToProcessing(ctx context.Context, processing queue.Status, item *queue.Item) error {
	if processing == "" {
		return errors.New("processing status must not be empty")
	}

	primeForProcessing(item, processing)
	if err := m.store.Update(ctx, item); err != nil {
		return fmt.Errorf("persist processing transition: %w", err)
	}
	m.setLastItem(item)
	return nil
}

// primeForProcessing stamps the item as in-flight: processing status,
// fresh heartbeat, zeroed progress, cleared error.
func primeForProcessing(item *queue.Item, processing queue.Status) {
	now := time.Now().UTC()
	item.Status = processing
	if item.ProgressStage == "" {
		item.ProgressStage = deriveStageLabel(processing)
	}
	if item.ProgressMessage == "" {
		item.ProgressMessage = fmt.Sprintf("%s started", deriveStageLabel(processing))
	}
	item.ProgressPercent = 0
	item.ErrorMessage = ""
	item.LastHeartbeat = &now
}
