package queue

import (
	"fmt"
	"path/filepath"
	"strings"

	"reelsmith/internal/textutil"
)

// StagingRoot returns the per-item staging directory rooted at base,
// named "{id}-{topic-slug}" so runs are easy to find on disk. Items with
// no topic yet fall back to "queue-{id}".
func (i Item) StagingRoot(base string) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return ""
	}
	return filepath.Join(base, i.stagingSegment())
}

func (i Item) stagingSegment() string {
	topic := strings.TrimSpace(i.Topic)
	if topic == "" {
		return sanitizeSegment(fmt.Sprintf("queue-%d", i.ID))
	}
	return sanitizeSegment(fmt.Sprintf("%d-%s", i.ID, topic))
}

func sanitizeSegment(value string) string {
	cleaned := strings.Trim(strings.ReplaceAll(textutil.SanitizeFileName(value), " ", "-"), "-_")
	if cleaned == "" {
		return "queue"
	}
	return cleaned
}
