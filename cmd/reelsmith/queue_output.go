package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"reelsmith/internal/api"
)

// parsePositiveIDs parses queue item IDs from CLI arguments, rejecting
// anything that is not a positive integer.
func parsePositiveIDs(args []string) ([]int64, error) {
	ids := make([]int64, 0, len(args))
	for _, arg := range args {
		id, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid item id %q", arg)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// itemOutcome is the JSON row shape for per-item retry/remove results.
type itemOutcome struct {
	ID          int64  `json:"id"`
	Outcome     string `json:"outcome"`
	PriorStatus string `json:"prior_status,omitempty"`
}

func writeItemOutcomesJSON(cmd *cobra.Command, items []itemOutcome) error {
	return writeJSON(cmd, map[string]any{"items": items})
}

func writeQueueRetryResultJSON(cmd *cobra.Command, result api.RetryItemsResult) error {
	items := make([]itemOutcome, 0, len(result.Items))
	for _, item := range result.Items {
		items = append(items, itemOutcome{ID: item.ID, Outcome: string(item.Outcome)})
	}
	return writeItemOutcomesJSON(cmd, items)
}

func printQueueRetryResult(out io.Writer, result api.RetryItemsResult) {
	for _, item := range result.Items {
		switch item.Outcome {
		case api.RetryItemNotFound:
			fmt.Fprintf(out, "Item %d not found\n", item.ID)
		case api.RetryItemNotFailed:
			fmt.Fprintf(out, "Item %d is not in a retryable state (only failed items can be retried)\n", item.ID)
		case api.RetryItemUpdated:
			fmt.Fprintf(out, "Item %d reset for retry\n", item.ID)
		}
	}
}

func writeQueueRemoveResultJSON(cmd *cobra.Command, result api.RemoveItemsResult) error {
	items := make([]itemOutcome, 0, len(result.Items))
	for _, item := range result.Items {
		items = append(items, itemOutcome{ID: item.ID, Outcome: string(item.Outcome), PriorStatus: item.PriorStatus})
	}
	return writeItemOutcomesJSON(cmd, items)
}

func printQueueRemoveResult(out io.Writer, result api.RemoveItemsResult) {
	for _, item := range result.Items {
		switch item.Outcome {
		case api.RemoveItemNotFound:
			fmt.Fprintf(out, "Item %d not found\n", item.ID)
		case api.RemoveItemProcessing:
			fmt.Fprintf(out, "Item %d is mid-stage (%s); wait for the stage to finish or reset it first\n", item.ID, formatStatusLabel(item.PriorStatus))
		case api.RemoveItemRemoved:
			fmt.Fprintf(out, "Item %d removed\n", item.ID)
		}
	}
}
