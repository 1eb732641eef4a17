package main

import (
	"cmp"
	"fmt"
	"maps"
	"slices"
	"strings"

	"reelsmith/internal/api"
	"reelsmith/internal/ipc"
)

// buildQueueStatusRows turns the stats map into table rows sorted by
// status name.
func buildQueueStatusRows(stats map[string]int) [][]string {
	rows := make([][]string, 0, len(stats))
	for _, key := range slices.Sorted(maps.Keys(stats)) {
		rows = append(rows, []string{formatStatusLabel(key), fmt.Sprintf("%d", stats[key])})
	}
	if len(rows) == 0 {
		return nil
	}
	return rows
}

// buildQueueListRows renders queue entries newest first.
func buildQueueListRows(items []ipc.QueueItem) [][]string {
	if len(items) == 0 {
		return nil
	}
	sorted := slices.Clone(items)
	slices.SortFunc(sorted, func(a, b ipc.QueueItem) int {
		ta := api.ParseQueueTime(a.CreatedAt)
		tb := api.ParseQueueTime(b.CreatedAt)
		if c := tb.Compare(ta); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})

	rows := make([][]string, 0, len(sorted))
	for _, item := range sorted {
		topic := strings.TrimSpace(item.Topic)
		if topic == "" {
			topic = "(topic pending)"
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", item.ID),
			topic,
			formatTriggerLabel(item.Trigger),
			formatStatusLabel(item.Status),
			formatDisplayTime(item.CreatedAt),
		})
	}
	return rows
}

// formatStatusLabel turns "publishing" or "reset_stuck" into "Publishing"
// or "Reset Stuck".
func formatStatusLabel(status string) string {
	status = strings.TrimSpace(status)
	if status == "" {
		return ""
	}
	parts := strings.Split(status, "_")
	for i, part := range parts {
		lower := strings.ToLower(part)
		if lower == "" {
			continue
		}
		parts[i] = strings.ToUpper(lower[:1]) + lower[1:]
	}
	return strings.Join(parts, " ")
}

func formatTriggerLabel(trigger string) string {
	trigger = strings.ToLower(strings.TrimSpace(trigger))
	if trigger == "" {
		return "-"
	}
	return strings.ToUpper(trigger[:1]) + trigger[1:]
}

func formatDisplayTime(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	if t := api.ParseQueueTime(value); !t.IsZero() {
		return t.UTC().Format("2006-01-02 15:04")
	}
	return value
}
