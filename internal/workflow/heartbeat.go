package workflow

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"reelsmith/internal/logging"
	"reelsmith/internal/queue"
)

// heartbeatMonitor keeps in-flight items visibly alive. While a stage runs
// it refreshes the item's heartbeat on an interval; on each manager loop it
// reclaims items whose heartbeat went silent past the timeout, rolling them
// back to their last checkpoint status.
type heartbeatMonitor struct {
	store    *queue.Store
	logger   *slog.Logger
	interval time.Duration
	timeout  time.Duration
}

func newHeartbeatMonitor(store *queue.Store, logger *slog.Logger, interval, timeout time.Duration) *heartbeatMonitor {
	return &heartbeatMonitor{store: store, logger: logger, interval: interval, timeout: timeout}
}

// reclaimStale rolls back items in the given processing statuses whose
// heartbeat is older than the timeout. A zero timeout disables reclaim.
func (h *heartbeatMonitor) reclaimStale(ctx context.Context, logger *slog.Logger, statuses []queue.Status) error {
	if h.timeout <= 0 || len(statuses) == 0 {
		return nil
	}
	reclaimed, err := h.store.ReclaimStaleProcessing(ctx, time.Now().Add(-h.timeout), statuses...)
	if err != nil {
		return err
	}
	if reclaimed > 0 {
		logger.Info("reclaimed stale items", logging.Int64("count", reclaimed))
	}
	return nil
}

// beat refreshes the heartbeat for itemID until ctx is cancelled.
func (h *heartbeatMonitor) beat(ctx context.Context, wg *sync.WaitGroup, itemID int64) {
	defer wg.Done()
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	logger := logging.WithContext(ctx, h.logger.With(logging.String(logging.FieldComponent, "workflow-heartbeat")))

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			err := h.store.UpdateHeartbeat(ctx, itemID)
			switch {
			case err == nil:
			case errors.Is(err, context.Canceled):
				logger.Info("daemon shutting down, heartbeat update cancelled")
				return
			default:
				logger.Warn("heartbeat update failed", logging.Error(err))
			}
		}
	}
}
