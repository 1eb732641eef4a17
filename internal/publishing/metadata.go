package publishing

import (
	"fmt"
	"strings"
	"time"
)

const (
	maxTitleLength = 100
	maxTags        = 15
)

const descriptionDisclaimer = "Disclaimer: This video is a work of political satire and parody. " +
	"All characters and events are fictionalized for comedic purposes."

// Metadata is the LLM-generated upload metadata persisted on the queue item.
type Metadata struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
}

func defaultTags() []string {
	return []string{"shorts", "comedy", "satire", "india", "politics", "funny", "viral"}
}

func buildMetadataPrompt(topic, scriptText string) string {
	const maxScriptChars = 1500
	if len(scriptText) > maxScriptChars {
		scriptText = scriptText[:maxScriptChars]
	}
	return fmt.Sprintf(`You are a YouTube Shorts metadata writer.

Generate upload metadata for a 30-second political satire short about: %s

The script:
%s

Return ONLY a JSON object with these keys:
- "title": catchy clickable title, max 90 characters, ends with #Shorts
- "description": 2-3 sentence description with relevant hashtags
- "tags": array of 10-15 search tags, lowercase, no # symbol

Respond with valid JSON only, no other text.`, topic, scriptText)
}

// fallbackMetadata covers LLM failures so publishing never blocks on the
// metadata generator.
func fallbackMetadata(topic string, now time.Time) Metadata {
	title := strings.TrimSpace(topic)
	if title == "" {
		title = "Political Comedy " + now.Format("Jan 2")
	}
	return Metadata{
		Title:       title + " 😂 #Shorts",
		Description: "Daily dose of political satire! " + descriptionDisclaimer,
		Tags:        defaultTags(),
	}
}

// normalize enforces upload constraints: title length, the #Shorts suffix,
// the satire disclaimer, and the tag budget.
func (m Metadata) normalize() Metadata {
	m.Title = strings.TrimSpace(m.Title)
	if m.Title == "" {
		m.Title = "Political Comedy #Shorts"
	}
	if !strings.Contains(strings.ToLower(m.Title), "#shorts") {
		m.Title += " #Shorts"
	}
	if len(m.Title) > maxTitleLength {
		m.Title = strings.TrimSpace(m.Title[:maxTitleLength-3]) + "..."
	}

	m.Description = strings.TrimSpace(m.Description)
	if !strings.Contains(m.Description, descriptionDisclaimer) {
		if m.Description != "" {
			m.Description += "\n\n"
		}
		m.Description += descriptionDisclaimer
	}

	tags := make([]string, 0, len(m.Tags))
	seen := make(map[string]struct{}, len(m.Tags))
	for _, tag := range m.Tags {
		tag = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(tag, "#")))
		if tag == "" {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
		if len(tags) == maxTags {
			break
		}
	}
	if len(tags) == 0 {
		tags = defaultTags()
	}
	m.Tags = tags
	return m
}
