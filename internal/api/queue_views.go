package api

import (
	"cmp"
	"slices"
	"time"
)

// SortQueueItemsNewestFirst returns a copy of items ordered by CreatedAt
// descending, with ID descending as the tiebreak so same-instant jobs keep
// a stable order.
func SortQueueItemsNewestFirst(items []QueueItem) []QueueItem {
	if len(items) == 0 {
		return nil
	}
	sorted := slices.Clone(items)
	slices.SortFunc(sorted, func(a, b QueueItem) int {
		ta := ParseQueueTime(a.CreatedAt)
		tb := ParseQueueTime(b.CreatedAt)
		if !ta.Equal(tb) {
			return tb.Compare(ta)
		}
		return cmp.Compare(b.ID, a.ID)
	})
	return sorted
}

// ParseQueueTime parses a queue timestamp for display. Timestamps are
// written as RFC3339Nano UTC; older rows may lack fractional seconds.
// Unparseable values sort as the zero time.
func ParseQueueTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t
	}
	return time.Time{}
}
