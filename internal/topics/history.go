package topics

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"reelsmith/internal/fileutil"
	"reelsmith/internal/textutil"
)

// Entry records one generated topic.
type Entry struct {
	Title string `json:"title"`
	Angle string `json:"angle"`
	Date  string `json:"date"`
	Time  string `json:"time"`
}

// History tracks generated topics across runs so scheduled generations do
// not repeat themselves. The backing file is plain JSON so it can be
// inspected and pruned by hand.
type History struct {
	mu         sync.Mutex
	path       string
	maxEntries int
	threshold  float64
	entries    []Entry
	now        func() time.Time
}

// Options configures a History.
type Options struct {
	Path                string
	MaxEntries          int
	SimilarityThreshold float64
}

// Open loads the history file, tolerating a missing or corrupt file by
// starting empty.
func Open(opts Options) (*History, error) {
	if opts.Path == "" {
		return nil, fmt.Errorf("topics: history path is required")
	}
	if opts.MaxEntries <= 0 {
		opts.MaxEntries = 90
	}
	if opts.SimilarityThreshold <= 0 {
		opts.SimilarityThreshold = 0.6
	}
	h := &History{
		path:       opts.Path,
		maxEntries: opts.MaxEntries,
		threshold:  opts.SimilarityThreshold,
		now:        time.Now,
	}
	data, err := os.ReadFile(opts.Path)
	if err == nil {
		var entries []Entry
		if json.Unmarshal(data, &entries) == nil {
			h.entries = entries
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("topics: read history: %w", err)
	}
	return h, nil
}

// Add records a generated topic and persists the trimmed history.
func (h *History) Add(title, angle string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	now := h.now()
	h.entries = append(h.entries, Entry{
		Title: title,
		Angle: angle,
		Date:  now.Format("2006-01-02"),
		Time:  now.Format("15:04:05"),
	})
	if len(h.entries) > h.maxEntries {
		h.entries = h.entries[len(h.entries)-h.maxEntries:]
	}
	return h.save()
}

func (h *History) save() error {
	data, err := json.MarshalIndent(h.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("topics: encode history: %w", err)
	}
	if err := fileutil.WriteAtomic(h.path, data); err != nil {
		return fmt.Errorf("topics: write history: %w", err)
	}
	return nil
}

// RecentTitles returns the last n topic titles, oldest first.
func (h *History) RecentTitles(n int) []string {
	h.mu.Lock()
	defer h.mu.Unlock()

	start := len(h.entries) - n
	if start < 0 {
		start = 0
	}
	out := make([]string, 0, len(h.entries)-start)
	for _, e := range h.entries[start:] {
		out = append(out, e.Title)
	}
	return out
}

// RecentAngles returns the angles of the last n entries, skipping blanks.
func (h *History) RecentAngles(n int) []string {
	h.mu.Lock()
	defer h.mu.Unlock()

	start := len(h.entries) - n
	if start < 0 {
		start = 0
	}
	var out []string
	for _, e := range h.entries[start:] {
		if e.Angle != "" {
			out = append(out, e.Angle)
		}
	}
	return out
}

// UsedToday returns the titles already generated on the current date.
func (h *History) UsedToday() []string {
	h.mu.Lock()
	defer h.mu.Unlock()

	today := h.now().Format("2006-01-02")
	var out []string
	for _, e := range h.entries {
		if e.Date == today {
			out = append(out, e.Title)
		}
	}
	return out
}

// IsDuplicate reports whether the candidate title overlaps a recent title
// beyond the similarity threshold. The last 30 entries are considered.
func (h *History) IsDuplicate(title string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	start := len(h.entries) - 30
	if start < 0 {
		start = 0
	}
	for _, e := range h.entries[start:] {
		if textutil.JaccardSimilarity(title, e.Title) >= h.threshold {
			return true
		}
	}
	return false
}

// Len returns the number of stored entries.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}
