package workflow

import (
	"context"
	"log/slog"
	"strings"
	"unicode"

	"reelsmith/internal/logging"
	"reelsmith/internal/queue"
	"reelsmith/internal/services"
)

func (m *Manager) runnerLogger() *slog.Logger {
	if m.logger == nil {
		return logging.NewNop()
	}
	return m.logger.With(logging.String(logging.FieldComponent, "workflow-runner"))
}

// stageLogger binds the item ID and any context correlation fields onto the
// base logger for one stage execution.
func (m *Manager) stageLogger(ctx context.Context, base *slog.Logger, item *queue.Item) *slog.Logger {
	if base == nil {
		base = m.logger
	}
	if base == nil {
		base = logging.NewNop()
	}
	if item != nil {
		base = base.With(logging.Int64(logging.FieldItemID, item.ID))
	}
	return logging.WithContext(ctx, base)
}

// withStageContext tags ctx so service clients and loggers downstream can
// correlate their output with this item and execution.
func withStageContext(ctx context.Context, stageName string, item *queue.Item, requestID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if item != nil {
		ctx = services.WithItemID(ctx, item.ID)
	}
	ctx = services.WithStage(ctx, stageName)
	return services.WithRequestID(ctx, requestID)
}

// deriveStageLabel turns a status like "synthesizing" into the display
// label stored in the item's progress fields.
func deriveStageLabel(status queue.Status) string {
	s := strings.TrimSpace(string(status))
	if s == "" {
		return ""
	}
	runes := []rune(strings.ToLower(s))
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
