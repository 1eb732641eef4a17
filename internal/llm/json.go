package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	thinkBlockPattern    = regexp.MustCompile(`(?s)<think>.*?</think>`)
	trailingCommaPattern = regexp.MustCompile(`,\s*([\]}])`)
	controlCharPattern   = regexp.MustCompile("[\x00-\x1f\x7f]")
	adjacentObjPattern   = regexp.MustCompile(`}\s*{`)
)

// DecodeJSON decodes JSON from an LLM response, handling the formatting
// quirks local models produce: markdown code fences, <think> reasoning
// blocks, prose around the payload, and trailing commas.
func DecodeJSON(content string, target any) error {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return errors.New("empty payload")
	}

	directErr := json.Unmarshal([]byte(trimmed), target)
	if directErr == nil {
		return nil
	}

	cleaned := CleanJSON(trimmed)
	if cleaned != trimmed {
		if err := json.Unmarshal([]byte(cleaned), target); err == nil {
			return nil
		}
	}

	repaired := RepairJSON(cleaned)
	if err := json.Unmarshal([]byte(repaired), target); err == nil {
		return nil
	}

	// Models sometimes double-encode: the payload is a JSON string that
	// itself contains JSON.
	var nested string
	if json.Unmarshal([]byte(cleaned), &nested) == nil && nested != "" {
		if err := DecodeJSON(nested, target); err == nil {
			return nil
		}
	}

	return fmt.Errorf("%w (payload snippet: %s)", directErr, payloadSnippet(trimmed))
}

// CleanJSON strips markdown fences and reasoning blocks, then extracts the
// largest decodable JSON object or array from the text. When no candidate
// decodes, the largest candidate is returned for a later repair pass.
func CleanJSON(text string) string {
	text = strings.TrimSpace(stripCodeFence(text))
	text = strings.TrimSpace(thinkBlockPattern.ReplaceAllString(text, ""))

	var best string
	bestValid := false
	for _, pair := range [][2]string{{"{", "}"}, {"[", "]"}} {
		start := strings.Index(text, pair[0])
		end := strings.LastIndex(text, pair[1])
		if start == -1 || end <= start {
			continue
		}
		candidate := text[start : end+1]
		valid := json.Valid([]byte(candidate))
		if !valid {
			// Prose may follow the payload; salvage the first complete
			// value the way a streaming decoder would.
			if salvaged, ok := decodeFirstValue(candidate); ok {
				candidate, valid = salvaged, true
			}
		}
		switch {
		case valid && (!bestValid || len(candidate) > len(best)):
			best, bestValid = candidate, true
		case !valid && !bestValid && len(candidate) > len(best):
			best = candidate
		}
	}
	if best != "" {
		return best
	}
	return text
}

func decodeFirstValue(candidate string) (string, bool) {
	dec := json.NewDecoder(strings.NewReader(candidate))
	var value any
	if dec.Decode(&value) != nil {
		return "", false
	}
	encoded, err := json.Marshal(value)
	if err != nil {
		return "", false
	}
	return string(encoded), true
}

// RepairJSON fixes common defects in model-produced JSON: trailing commas,
// single quotes, raw control characters, and concatenated objects.
func RepairJSON(text string) string {
	text = trailingCommaPattern.ReplaceAllString(text, "$1")
	if !json.Valid([]byte(text)) {
		text = strings.ReplaceAll(text, "'", `"`)
	}
	text = controlCharPattern.ReplaceAllString(text, " ")
	text = adjacentObjPattern.ReplaceAllString(text, "},{")
	for _, pair := range [][2]string{{"{", "}"}, {"[", "]"}} {
		start := strings.Index(text, pair[0])
		end := strings.LastIndex(text, pair[1])
		if start != -1 && end > start {
			return text[start : end+1]
		}
	}
	return text
}

func stripCodeFence(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	body := trimmed[3:]
	body = strings.TrimLeft(body, " \t\r\n")
	if len(body) >= 4 && strings.EqualFold(body[:4], "json") {
		body = strings.TrimLeft(body[4:], " \t\r\n")
	}
	if idx := strings.LastIndex(body, "```"); idx >= 0 {
		body = body[:idx]
	}
	return strings.TrimSpace(body)
}

func payloadSnippet(content string) string {
	clean := strings.Join(strings.Fields(content), " ")
	const limit = 160
	runes := []rune(clean)
	if len(runes) > limit {
		clean = string(runes[:limit]) + "..."
	}
	if clean == "" {
		return "<empty>"
	}
	return clean
}
