package api

import (
	"encoding/json"
	"maps"
	"slices"
	"strings"
	"time"

	"reelsmith/internal/queue"
	"reelsmith/internal/stage"
	"reelsmith/internal/workflow"
)

// FromQueueItem converts a queue record to its API representation.
func FromQueueItem(item *queue.Item) QueueItem {
	if item == nil {
		return QueueItem{}
	}

	dto := QueueItem{
		ID:      item.ID,
		Topic:   item.Topic,
		Angle:   item.Angle,
		Trigger: item.Trigger,
		Status:  string(item.Status),
		Progress: QueueProgress{
			Stage:   displayStage(item),
			Percent: displayPercent(item),
			Message: item.ProgressMessage,
		},
		ErrorMessage: item.ErrorMessage,
		StagingDir:   item.StagingDir,
		VideoFile:    item.VideoFile,
		WatchURL:     item.WatchURL,
		CreatedAt:    FormatTime(item.CreatedAt),
		UpdatedAt:    FormatTime(item.UpdatedAt),
	}
	if raw := item.MetadataJSON; raw != "" {
		dto.Metadata = json.RawMessage(raw)
	}
	return dto
}

// displayStage normalizes the progress stage for presentation. Completed items
// always show "Completed", and items with no recorded stage fall back to a
// title-cased rendering of their status.
func displayStage(item *queue.Item) string {
	switch {
	case item.Status == queue.StatusCompleted:
		return "Completed"
	case item.ProgressStage != "":
		return item.ProgressStage
	default:
		return titleCaseStatus(item.Status)
	}
}

func displayPercent(item *queue.Item) float64 {
	if item.Status == queue.StatusCompleted {
		return 100
	}
	return item.ProgressPercent
}

func titleCaseStatus(status queue.Status) string {
	raw := strings.ReplaceAll(string(status), "_", " ")
	if raw == "" {
		return ""
	}
	return strings.ToUpper(raw[:1]) + raw[1:]
}

// FromQueueItems converts a slice of queue records into API DTOs.
func FromQueueItems(items []*queue.Item) []QueueItem {
	if len(items) == 0 {
		return nil
	}
	dtos := make([]QueueItem, len(items))
	for i, item := range items {
		dtos[i] = FromQueueItem(item)
	}
	return dtos
}

// FromStatusSummary converts a workflow status summary to API payload.
func FromStatusSummary(summary workflow.StatusSummary) WorkflowStatus {
	wf := WorkflowStatus{
		Running:     summary.Running,
		QueueStats:  MergeQueueStats(summary.QueueStats),
		StageHealth: StageHealthSlice(summary.StageHealth),
		LastError:   summary.LastError,
	}
	if summary.LastItem != nil {
		last := FromQueueItem(summary.LastItem)
		wf.LastItem = &last
	}
	return wf
}

// MergeQueueStats produces a string-keyed representation of queue stats.
func MergeQueueStats(stats map[queue.Status]int) map[string]int {
	merged := make(map[string]int, len(stats))
	for status, count := range stats {
		merged[string(status)] = count
	}
	return merged
}

// StageHealthSlice converts a stage health map into a deterministic slice.
func StageHealthSlice(health map[string]stage.Health) []StageHealth {
	if len(health) == 0 {
		return nil
	}
	dtos := make([]StageHealth, 0, len(health))
	for _, name := range slices.Sorted(maps.Keys(health)) {
		h := health[name]
		dtos = append(dtos, StageHealth{Name: name, Ready: h.Ready, Detail: h.Detail})
	}
	return dtos
}

// FormatTime converts a time to RFC3339 or returns empty string.
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeFormat)
}
